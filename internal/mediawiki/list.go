package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const listLimit = "500"

// GetTransclusions lists every page that transcludes title, following the
// continuation cursor to the end and sleeping delay between two requests.
func (c *Client) GetTransclusions(ctx context.Context, title string, delay time.Duration) ([]string, error) {
	return c.listAll(ctx, "embeddedin", "ei", map[string]string{
		"eititle": title,
	}, delay)
}

// CategoryMembers lists the pages in a category, "Category:" is added to the
// name when missing.
func (c *Client) CategoryMembers(ctx context.Context, category string, delay time.Duration) ([]string, error) {
	if !strings.HasPrefix(strings.ToLower(category), "category:") {
		category = "Category:" + category
	}
	return c.listAll(ctx, "categorymembers", "cm", map[string]string{
		"cmtitle": category,
	}, delay)
}

// PrefixIndex lists the non redirect pages of a namespace whose title starts
// with prefix. The prefix is given without the namespace.
func (c *Client) PrefixIndex(ctx context.Context, prefix string, namespace int, delay time.Duration) ([]string, error) {
	return c.listAll(ctx, "allpages", "ap", map[string]string{
		"apprefix":      prefix,
		"apnamespace":   strconv.Itoa(namespace),
		"apfilterredir": "nonredirects",
	}, delay)
}

func (c *Client) listAll(ctx context.Context, list, prefix string, params map[string]string, delay time.Duration) ([]string, error) {
	listError := func(err error) error {
		return fmt.Errorf("mediawiki: list %s: %w", list, err)
	}

	base := map[string]string{
		"action":         "query",
		"list":           list,
		prefix + "limit": listLimit,
	}
	for k, v := range params {
		base[k] = v
	}

	titles := []string{}
	seen := map[string]struct{}{}
	var cursor map[string]string
	for request := 0; ; request++ {
		if request > 0 && delay > 0 {
			err := c.clock.Sleep(ctx, delay)
			if err != nil {
				return nil, listError(err)
			}
		}

		req := make(map[string]string, len(base)+len(cursor))
		for k, v := range base {
			req[k] = v
		}
		for k, v := range cursor {
			req[k] = v
		}

		var res listResponse
		err := c.Query(ctx, req, nil, &res)
		if err != nil {
			c.tel.ReportBroken(report_client_list, list, err)
			return nil, listError(err)
		}
		if res.Error != nil {
			c.lastError = res.Error.Code
			return nil, listError(res.Error)
		}

		if raw, ok := res.Query[list]; ok {
			var entries []listEntry
			err = json.Unmarshal(raw, &entries)
			if err != nil {
				return nil, listError(fmt.Errorf("%w: %w", ErrDeserialize, err))
			}
			for _, entry := range entries {
				titles = append(titles, entry.Title)
			}
		}

		cursor = nextCursor(res, list)
		if len(cursor) == 0 {
			break
		}
		key := cursorKey(cursor)
		if _, repeated := seen[key]; repeated {
			return nil, listError(fmt.Errorf("%w: continuation cursor %s did not advance", ErrDeserialize, key))
		}
		seen[key] = struct{}{}
	}

	c.tel.ReportCount(report_client_list, int64(len(titles)))
	return titles, nil
}

// nextCursor returns the fields to send back for the next page, taken from
// the legacy `query-continue.<list>` object or the current `continue` one.
func nextCursor(res listResponse, list string) map[string]string {
	fields := res.Continue
	if legacy, ok := res.QueryContinue[list]; ok {
		fields = legacy
	}
	if len(fields) == 0 {
		return nil
	}

	cursor := make(map[string]string, len(fields))
	for k, raw := range fields {
		if value, ok := rawString(raw); ok {
			cursor[k] = value
		}
	}
	return cursor
}

func cursorKey(cursor map[string]string) string {
	values := url.Values{}
	for k, v := range cursor {
		values.Set(k, v)
	}
	return values.Encode()
}
