package mediawiki

import (
	"context"
	"fmt"
	"strings"
	"wikibot/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Rendered is a page as readers see it.
type Rendered struct {
	Title string
	Text  string
	Links []htmlutil.Anchor
}

// Render parses the current revision of title on the wiki and extracts the
// visible text and the page links from the html.
func (c *Client) Render(ctx context.Context, title string) (Rendered, error) {
	renderError := func(err error) error {
		return fmt.Errorf("mediawiki: render %q: %w", title, err)
	}

	var res parseResponse
	err := c.Query(ctx, map[string]string{
		"action":    "parse",
		"page":      title,
		"prop":      "text",
		"redirects": "1",
	}, nil, &res)
	if err != nil {
		c.tel.ReportBroken(report_client_render, err)
		return Rendered{}, renderError(err)
	}
	if res.Error != nil {
		c.lastError = res.Error.Code
		return Rendered{}, renderError(res.Error)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Parse.Text.HTML))
	if err != nil {
		return Rendered{}, renderError(fmt.Errorf("%w: %w", ErrDeserialize, err))
	}
	doc.Find(".mw-editsection, style, script").Remove()

	out := Rendered{
		Title: res.Parse.Title,
		Text:  htmlutil.CleanText(doc.Text()),
		Links: htmlutil.WikiLinks(ctx, doc.Find("a")),
	}
	if out.Title == "" {
		out.Title = title
	}
	return out, nil
}

func (c *Client) RenderedText(ctx context.Context, title string) (string, error) {
	rendered, err := c.Render(ctx, title)
	if err != nil {
		return "", err
	}
	return rendered.Text, nil
}
