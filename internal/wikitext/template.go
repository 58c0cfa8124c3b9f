package wikitext

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
	"wikibot/lib/textutil"
)

// Argument is one `|` separated slot of a template invocation. Positional
// arguments are keyed by their 1-based slot number.
type Argument struct {
	Key   string
	Value string
	Named bool
}

// Template is one outermost `{{Name|...}}` invocation. Values are kept
// verbatim, nested templates included as raw text.
type Template struct {
	Name string
	Args []Argument
	// Raw is the exact source text of the invocation, braces included,
	// so callers can rewrite it with a plain substring replacement.
	Raw string
}

// Get returns the value of the first argument with the given key.
func (t Template) Get(key string) (string, bool) {
	for _, arg := range t.Args {
		if arg.Key == key {
			return arg.Value, true
		}
	}
	return "", false
}

func (t Template) Has(key string) bool {
	_, ok := t.Get(key)
	return ok
}

// Positional returns the unnamed argument in slot n (1-based).
func (t Template) Positional(n int) (string, bool) {
	key := strconv.Itoa(n)
	for _, arg := range t.Args {
		if !arg.Named && arg.Key == key {
			return arg.Value, true
		}
	}
	return "", false
}

// String renders the record back into wikitext.
func (t Template) String() string {
	var sb strings.Builder
	sb.WriteString("{{")
	sb.WriteString(t.Name)
	for _, arg := range t.Args {
		sb.WriteByte('|')
		if arg.Named {
			sb.WriteString(arg.Key)
			sb.WriteByte('=')
		}
		sb.WriteString(arg.Value)
	}
	sb.WriteString("}}")
	return sb.String()
}

// Is reports whether the invocation refers to the template called name,
// the way the wiki would resolve it.
func (t Template) Is(name string) bool {
	return normalizeTemplateName(t.Name) == normalizeTemplateName(name)
}

// FilterTemplates keeps only the records invoking the named template.
func FilterTemplates(records []Template, name string) []Template {
	var out []Template
	for _, t := range records {
		if t.Is(name) {
			out = append(out, t)
		}
	}
	return out
}

// "template:foo_bar" and "Foo bar" name the same template.
func normalizeTemplateName(name string) string {
	name = textutil.CanonicalTitle(name)
	if len(name) >= len("template:") && strings.EqualFold(name[:len("template:")], "template:") {
		name = strings.TrimSpace(name[len("template:"):])
	}
	first, size := utf8.DecodeRuneInString(name)
	if first == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(first)) + name[size:]
}
