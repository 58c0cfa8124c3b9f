package mediawiki

import (
	"context"
	"fmt"
)

// probe title for the token request, the token is the same for every page
const tokenProbeTitle = "Main Page"

// EditToken returns the cached edit token, fetching a new one when none is
// cached or force is set. Both the legacy per page `edittoken` and the
// current `query.tokens.csrftoken` answers are understood.
func (c *Client) EditToken(ctx context.Context, force bool) (string, error) {
	if c.token != "" && !force {
		return c.token, nil
	}

	var res queryResponse
	err := c.Query(ctx, map[string]string{
		"action":  "query",
		"prop":    "info",
		"intoken": "edit",
		"meta":    "tokens",
		"titles":  tokenProbeTitle,
	}, nil, &res)
	if err != nil {
		c.tel.ReportBroken(report_client_token, err)
		return "", fmt.Errorf("mediawiki: edit token: %w", err)
	}

	token := ""
	if _, page, ok := res.firstPage(); ok {
		token = page.EditToken
	}
	if token == "" {
		token = res.Query.Tokens.CsrfToken
	}
	if token == "" {
		c.lastError = codeNoToken
		c.tel.ReportWarning(report_client_token, "no token in response")
		return "", ErrNoToken
	}

	if force {
		c.tel.ReportWarning(report_client_token, "forced refresh")
	}
	c.token = token
	return token, nil
}

func (c *Client) InvalidateToken() {
	c.token = ""
}
