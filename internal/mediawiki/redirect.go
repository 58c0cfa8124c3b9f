package mediawiki

import (
	"context"
	"regexp"
	"strings"
	"wikibot/lib/textutil"
)

var redirectRegex = regexp.MustCompile(`(?i)^\s*#redirect\s*:?\s*\[\[([^\]]+?)\]\]`)

// RedirectTarget returns the title a redirect page points at, without its
// section fragment or display text.
func RedirectTarget(content string) (string, bool) {
	groups := redirectRegex.FindStringSubmatch(content)
	if len(groups) < 2 {
		return "", false
	}
	target := groups[1]
	if i := strings.IndexByte(target, '|'); i >= 0 {
		target = target[:i]
	}
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target = target[:i]
	}
	target = textutil.CanonicalTitle(target)
	if target == "" {
		return "", false
	}
	return target, true
}

// ResolveRedirect follows one redirect. If the page redirects it returns a
// freshly read Page for the target, otherwise the receiver. A redirect to a
// redirect is not followed further.
func (p *Page) ResolveRedirect(ctx context.Context) (*Page, error) {
	if !p.hasContent {
		return p, nil
	}
	target, ok := RedirectTarget(p.content)
	if !ok {
		return p, nil
	}
	p.client.tel.ReportDebug(report_page_redirect, p.title, target)
	return p.client.Page(ctx, target)
}
