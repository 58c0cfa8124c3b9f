package wikitext

import (
	"strings"
	"wikibot/lib/textutil"
)

// BotsAllowed applies the {{bots}} / {{nobots}} exclusion convention to
// text for the bot called botName.
//
//	{{nobots}}                          denied
//	{{bots|deny=all}}, {{bots|optout=all}}, {{bots|allow=none}}  denied
//	{{bots|deny=A,B}}                   denied when botName is listed
//	{{bots|allow=all}}, {{bots|allow=A,B}} allowed only when all or listed
func BotsAllowed(text, botName string) bool {
	for _, t := range ParseTemplates(text) {
		switch {
		case t.Is("nobots"):
			return false
		case t.Is("bots"):
			if allowed, decided := botsDirective(t, botName); decided {
				return allowed
			}
		}
	}
	return true
}

func botsDirective(t Template, botName string) (allowed bool, decided bool) {
	if optout, ok := t.Get("optout"); ok && isKeyword(optout, "all") {
		return false, true
	}
	if deny, ok := t.Get("deny"); ok {
		if isKeyword(deny, "all") || textutil.MatchName(botName, deny) {
			return false, true
		}
	}
	if allow, ok := t.Get("allow"); ok {
		switch {
		case isKeyword(allow, "all"):
			return true, true
		case isKeyword(allow, "none"):
			return false, true
		default:
			return textutil.MatchName(botName, allow), true
		}
	}
	return true, false
}

func isKeyword(value, keyword string) bool {
	return strings.EqualFold(strings.TrimSpace(value), keyword)
}
