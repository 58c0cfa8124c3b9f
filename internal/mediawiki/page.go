package mediawiki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"wikibot/lib/textutil"
)

const (
	maxRefreshAttempts = 10
	refreshBackoffStep = 2 * time.Second
)

// Page is one title and the latest revision of it that was read. The content
// and base timestamp always come from the same revision.
type Page struct {
	client *Client

	title         string
	id            int64
	content       string
	hasContent    bool
	exists        bool
	baseTimestamp string
}

// NewPage makes a Page for title without reading it, call Refresh before
// using its content.
func (c *Client) NewPage(title string) *Page {
	return &Page{
		client: c,
		title:  textutil.CanonicalTitle(title),
		id:     -1,
	}
}

// Page reads the latest revision of title.
func (c *Client) Page(ctx context.Context, title string) (*Page, error) {
	page := c.NewPage(title)
	err := page.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// PageText returns the content of title and whether the page exists.
func (c *Client) PageText(ctx context.Context, title string) (string, bool, error) {
	page, err := c.Page(ctx, title)
	if err != nil {
		return "", false, err
	}
	content, _ := page.Content()
	return content, page.Exists(), nil
}

func (p *Page) Title() string {
	return p.title
}

// ID is the page id, -1 when the page does not exist.
func (p *Page) ID() int64 {
	return p.id
}

func (p *Page) Exists() bool {
	return p.exists
}

// Content returns the page text, ok is false when the page does not exist
// or was never read.
func (p *Page) Content() (string, bool) {
	return p.content, p.hasContent
}

// BaseTimestamp is the timestamp of the revision the content was read from.
func (p *Page) BaseTimestamp() string {
	return p.baseTimestamp
}

func (p *Page) String() string {
	return p.title
}

// Refresh reads the latest revision of the page.
//
// A response without a 200 status is retried up to 10 attempts in total,
// sleeping attempt*2 seconds after each failed one. The *HttpError returned
// after the last failure wraps the last cause. A 200 response that cannot be
// decoded or has no revision content is returned right away.
func (p *Page) Refresh(ctx context.Context) error {
	params := map[string]string{
		"action":  "query",
		"prop":    "revisions",
		"titles":  p.title,
		"rvlimit": "1",
		"rvprop":  "content|timestamp",
		"rvslots": "main",
	}

	var lastStatus int
	var lastErr error
	for attempt := 1; attempt <= maxRefreshAttempts; attempt++ {
		var res queryResponse
		err := p.client.Query(ctx, params, nil, &res)
		status := p.client.LastStatus()

		if status == http.StatusOK {
			if err == nil {
				return p.apply(res)
			}
			if !errors.Is(err, ErrTransport) {
				p.client.tel.ReportBroken(report_page_refresh, p.title, err)
				return fmt.Errorf("mediawiki: refresh %q: %w", p.title, err)
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		lastStatus, lastErr = status, err
		p.client.tel.ReportWarning(report_page_refresh, p.title, "attempt", attempt, "status", status, err)
		if attempt == maxRefreshAttempts {
			break
		}
		err = p.client.clock.Sleep(ctx, time.Duration(attempt)*refreshBackoffStep)
		if err != nil {
			return err
		}
	}

	err := &HttpError{Status: lastStatus, Attempts: maxRefreshAttempts, Err: lastErr}
	p.client.tel.ReportBroken(report_page_refresh, p.title, err)
	return err
}

func (p *Page) apply(res queryResponse) error {
	if res.Error != nil {
		p.client.lastError = res.Error.Code
		return fmt.Errorf("mediawiki: refresh %q: %w", p.title, res.Error)
	}
	_, info, ok := res.firstPage()
	if !ok {
		return fmt.Errorf("mediawiki: refresh %q: %w: no pages in response", p.title, ErrDeserialize)
	}
	if info.Title != "" {
		p.title = info.Title
	}

	if info.notFound() {
		p.exists = false
		p.id = -1
		p.content = ""
		p.hasContent = false
		p.baseTimestamp = ""
		return nil
	}

	if len(info.Revisions) == 0 {
		return fmt.Errorf("mediawiki: refresh %q: %w", p.title, ErrUnknownRetrieval)
	}
	rev := info.Revisions[0]
	content, ok := rev.text()
	if !ok {
		return fmt.Errorf("mediawiki: refresh %q: %w", p.title, ErrUnknownRetrieval)
	}

	p.exists = true
	p.id = info.PageID
	p.content = content
	p.hasContent = true
	p.baseTimestamp = rev.Timestamp
	return nil
}
