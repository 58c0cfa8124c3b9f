// Package mediawiki talks to a wiki through api.php: session handling, edit
// tokens, listings and the Page entity that reads and writes one title.
//
// A Client and the Pages made from it are not safe for concurrent use, bots
// issue one request at a time.
package mediawiki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
	"wikibot/internal/components/assert"
	"wikibot/internal/components/chrono"
	"wikibot/internal/components/telemetry"
	"wikibot/lib/restyutil"

	"golang.org/x/time/rate"
)

const (
	report_client_query   = "client.query"
	report_client_login   = "client.login"
	report_client_logout  = "client.logout"
	report_client_token   = "client.edit-token"
	report_client_list    = "client.list"
	report_client_render  = "client.render"
	report_page_refresh   = "page.refresh"
	report_page_write     = "page.write"
	report_page_redirect  = "page.resolve-redirect"
	report_page_maxlag    = "page.maxlag"
	report_page_bad_token = "page.bad-token"
)

const DefaultUserAgent = "wikibot/1.0 (mediawiki bot framework; go-resty)"

type ClientOptions struct {
	// ApiUrl is the full url of api.php, ex. https://en.wikipedia.org/w/api.php
	ApiUrl    string
	UserAgent string
	// Maxlag is sent with every write when > 0, the wiki then refuses writes
	// while its replicas lag behind by more than this many seconds.
	Maxlag int
	// EditDelay is the minimum time between two writes.
	EditDelay time.Duration

	// DumpDir, when set, receives a file per request made by the default
	// transport. It is emptied first.
	DumpDir string

	// Transport defaults to a RestyTransport.
	Transport Transport
	// Clock defaults to the wall clock.
	Clock chrono.API
}

type Client struct {
	apiUrl    *url.URL
	transport Transport
	clock     chrono.API
	limiter   *rate.Limiter
	maxlag    int
	tel       telemetry.API

	username  string
	token     string
	loggedIn  bool
	lastError string
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel, "telemetry")
	tel = telemetry.NewScopedAPI("mediawiki", tel)

	apiUrl, err := url.Parse(opts.ApiUrl)
	if err != nil {
		return nil, fmt.Errorf("mediawiki: parse api url: %w", err)
	}
	if apiUrl.Scheme == "" || apiUrl.Host == "" {
		return nil, fmt.Errorf("mediawiki: api url %q is not absolute", opts.ApiUrl)
	}

	transport := opts.Transport
	if transport == nil {
		userAgent := opts.UserAgent
		if userAgent == "" {
			userAgent = DefaultUserAgent
		}
		rt, err := NewRestyTransport(userAgent, tel)
		if err != nil {
			return nil, fmt.Errorf("mediawiki: create transport: %w", err)
		}
		if opts.DumpDir != "" {
			output, err := restyutil.NewFilesystemOutput(opts.DumpDir)
			if err != nil {
				return nil, fmt.Errorf("mediawiki: %w", err)
			}
			rt.DumpTo(output)
		}
		transport = rt
	}

	clock := opts.Clock
	if clock == nil {
		clock = chrono.NewStandardImpl()
	}

	limit := rate.Inf
	if opts.EditDelay > 0 {
		limit = rate.Every(opts.EditDelay)
	}

	return &Client{
		apiUrl:    apiUrl,
		transport: transport,
		clock:     clock,
		limiter:   rate.NewLimiter(limit, 1),
		maxlag:    opts.Maxlag,
		tel:       tel,
	}, nil
}

// Query sends one request to api.php and decodes the json body into out.
// With a non nil form the request is a POST carrying it, otherwise a GET.
//
// Errors reported by the wiki itself are not returned here, they are part of
// the decoded body. Query never retries.
func (c *Client) Query(ctx context.Context, params map[string]string, form map[string]string, out any) error {
	target := *c.apiUrl
	query := target.Query()
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("format", "json")
	target.RawQuery = query.Encode()

	var body []byte
	var err error
	if form != nil {
		values := url.Values{}
		for k, v := range form {
			values.Set(k, v)
		}
		body, err = c.transport.Post(ctx, target.String(), values)
	} else {
		body, err = c.transport.Get(ctx, target.String())
	}
	if err != nil {
		c.tel.ReportDebug(report_client_query, params["action"], err)
		return fmt.Errorf("%w: %s: %w", ErrTransport, params["action"], err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: %s: empty body", ErrDeserialize, params["action"])
	}
	err = json.Unmarshal(body, out)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDeserialize, params["action"], err)
	}
	return nil
}

// LastStatus is the http status of the most recent request.
func (c *Client) LastStatus() int {
	return c.transport.LastStatus()
}

// LastError is the last error code the wiki answered with, ex. "WrongPass",
// "notoken" or "editconflict".
func (c *Client) LastError() string {
	return c.lastError
}

func (c *Client) LoggedIn() bool {
	return c.loggedIn
}

func (c *Client) Username() string {
	return c.username
}

type idleCloser interface {
	CloseIdleConnections()
}

// Close ends the session if there is one and drops idle connections. Bots
// defer it right after creating the client.
func (c *Client) Close(ctx context.Context) error {
	var err error
	if c.loggedIn {
		err = c.Logout(ctx)
	}
	if closer, ok := c.transport.(idleCloser); ok {
		closer.CloseIdleConnections()
	}
	return err
}
