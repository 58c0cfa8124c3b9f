package textutil

import (
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)
var spaceRunRegex = regexp.MustCompile(` {2,}`)

// CanonicalTitle turns a page title into the form the wiki reports it in,
// "Foo_bar  baz " becomes "Foo bar baz".
func CanonicalTitle(title string) string {
	title = strings.ReplaceAll(title, "_", " ")
	title = spaceRunRegex.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

// NormalizeName lowercases a name and drops all whitespace so that
// "Legobot", " legobot" and "Lego bot" compare equal.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// MatchName reports whether the normalized name equals one of the
// normalized entries of a comma separated list.
func MatchName(name string, list string) bool {
	name = NormalizeName(name)
	if name == "" {
		return false
	}
	for _, entry := range strings.Split(list, ",") {
		if NormalizeName(entry) == name {
			return true
		}
	}
	return false
}

var dmp = diffmatchpatch.New()

// Diff returns a line based patch from old to new and whether they differ at all.
func Diff(old, new string) (string, bool) {
	oldChars, newChars, lines := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffMain(oldChars, newChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	changed := false
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual {
			changed = true
			break
		}
	}
	if !changed {
		return "", false
	}
	return dmp.PatchToText(dmp.PatchMake(old, diffs)), true
}
