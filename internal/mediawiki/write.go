package mediawiki

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

const (
	maxLagRetries = 3
	maxlagBackoff = 5 * time.Second
	resultSuccess = "Success"
	actionEdit    = "edit"
	sectionNew    = "new"
)

type editOptions struct {
	minor         bool
	bot           bool
	retryBadToken bool
}

type EditOption func(*editOptions)

// Minor marks the write as a minor edit.
func Minor() EditOption {
	return func(o *editOptions) { o.minor = true }
}

// NotBot stops the write from being flagged as a bot edit.
func NotBot() EditOption {
	return func(o *editOptions) { o.bot = false }
}

// NoTokenRetry returns a badtoken rejection as is instead of refreshing the
// token and submitting again.
func NoTokenRetry() EditOption {
	return func(o *editOptions) { o.retryBadToken = false }
}

// WriteResult is the decoded answer to a write. When the wiki rejected the
// write Error is set and the rest is mostly empty.
type WriteResult struct {
	Result       string
	PageID       int64
	Title        string
	OldRevID     int64
	NewRevID     int64
	NewTimestamp string
	NoChange     bool
	Error        *APIError
}

func (r WriteResult) Success() bool {
	return r.Error == nil && r.Result == resultSuccess
}

// Err converts a rejected write into an error, nil on success.
func (r WriteResult) Err() error {
	if r.Error != nil {
		return r.Error
	}
	if r.Result != resultSuccess {
		return fmt.Errorf("mediawiki: write result %q", r.Result)
	}
	return nil
}

// Conflict reports whether somebody else edited the page after it was read.
func (r WriteResult) Conflict() bool {
	return r.Error != nil && r.Error.Code == codeEditConflict
}

func checksum(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Edit replaces the page content. The base timestamp of the last read is
// sent along so the wiki can refuse the write if the page changed meanwhile,
// a page that did not exist is created.
//
// Rejections by the wiki (conflicts, protection, a second badtoken...) are
// reported in the WriteResult, the error is for failures to talk to the wiki
// at all. The page is read again after the write.
func (p *Page) Edit(ctx context.Context, content, summary string, opts ...EditOption) (WriteResult, error) {
	form := map[string]string{
		"title":   p.title,
		"text":    content,
		"md5":     checksum(content),
		"summary": summary,
	}
	if p.exists && p.baseTimestamp != "" {
		form["basetimestamp"] = p.baseTimestamp
	}
	return p.write(ctx, form, opts)
}

// AppendSection adds a new section at the end of the page. The summary
// defaults to the heading.
func (p *Page) AppendSection(ctx context.Context, heading, content, summary string, opts ...EditOption) (WriteResult, error) {
	if summary == "" {
		summary = heading
	}
	form := map[string]string{
		"title":        p.title,
		"section":      sectionNew,
		"sectiontitle": heading,
		"text":         content,
		"md5":          checksum(content),
		"summary":      summary,
	}
	return p.write(ctx, form, opts)
}

func (p *Page) write(ctx context.Context, form map[string]string, opts []EditOption) (WriteResult, error) {
	writeError := func(err error) error {
		return fmt.Errorf("mediawiki: write %q: %w", p.title, err)
	}

	options := editOptions{bot: true, retryBadToken: true}
	for _, opt := range opts {
		opt(&options)
	}
	if options.minor {
		form["minor"] = "1"
	}
	if options.bot {
		form["bot"] = "1"
	}

	params := map[string]string{"action": actionEdit}
	if p.client.maxlag > 0 {
		params["maxlag"] = strconv.Itoa(p.client.maxlag)
	}

	retryBadToken := options.retryBadToken
	lagRetries := 0
	var result WriteResult
	for {
		token, err := p.client.EditToken(ctx, false)
		if err != nil {
			return WriteResult{}, writeError(err)
		}
		form["token"] = token

		err = p.client.limiter.Wait(ctx)
		if err != nil {
			return WriteResult{}, writeError(err)
		}

		var res editResponse
		err = p.client.Query(ctx, params, form, &res)
		if err != nil {
			p.client.tel.ReportBroken(report_page_write, p.title, err)
			return WriteResult{}, writeError(err)
		}
		result, err = res.result()
		if err != nil {
			return WriteResult{}, writeError(err)
		}

		if result.Error != nil && result.Error.Code == codeBadToken && retryBadToken {
			retryBadToken = false
			p.client.tel.ReportWarning(report_page_bad_token, p.title)
			_, err = p.client.EditToken(ctx, true)
			if err != nil {
				return result, writeError(err)
			}
			continue
		}
		if result.Error != nil && result.Error.Code == codeMaxlag && lagRetries < maxLagRetries {
			lagRetries++
			p.client.tel.ReportWarning(report_page_maxlag, p.title, result.Error.Info)
			err = p.client.clock.Sleep(ctx, time.Duration(lagRetries)*maxlagBackoff)
			if err != nil {
				return result, writeError(err)
			}
			continue
		}
		break
	}

	if result.Error != nil {
		p.client.lastError = result.Error.Code
		p.client.tel.ReportWarning(report_page_write, p.title, result.Error)
	} else {
		p.client.tel.ReportDebug(report_page_write, p.title, result.Result, result.NewRevID)
	}

	err := p.Refresh(ctx)
	if err != nil {
		return result, err
	}
	return result, nil
}

func (r editResponse) result() (WriteResult, error) {
	if r.Error != nil {
		return WriteResult{Error: r.Error}, nil
	}
	if r.Edit == nil {
		return WriteResult{}, fmt.Errorf("%w: edit response has neither edit nor error", ErrDeserialize)
	}
	return WriteResult{
		Result:       r.Edit.Result,
		PageID:       r.Edit.PageID,
		Title:        r.Edit.Title,
		OldRevID:     r.Edit.OldRevID,
		NewRevID:     r.Edit.NewRevID,
		NewTimestamp: r.Edit.NewTimestamp,
		NoChange:     r.Edit.NoChange != nil,
	}, nil
}
