package mediawiki

//go:generate mockgen -destination=mocks/mock_transport.go -package=mocks wikibot/internal/mediawiki Transport

import (
	"context"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
	"wikibot/internal/components/telemetry"
	"wikibot/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
)

// Transport moves bytes to and from api.php. A non 200 status is not an
// error, callers that care read LastStatus after the call.
//
// note: fault injection point
type Transport interface {
	Get(ctx context.Context, url string) ([]byte, error)
	Post(ctx context.Context, url string, form url.Values) ([]byte, error)
	// LastStatus is the status code of the most recent call, 0 if it failed
	// before a response arrived.
	LastStatus() int
}

const (
	connectTimeout = 15 * time.Second
	requestTimeout = 40 * time.Second
	maxRedirects   = 10
)

// RestyTransport keeps its cookies for its whole lifetime, which is what
// carries the login session between calls.
type RestyTransport struct {
	http   *resty.Client
	status int
}

func NewRestyTransport(userAgent string, tel telemetry.API) (*RestyTransport, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(requestTimeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))
	client.SetTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: connectTimeout,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	})

	telemetry.InstrumentResty(client, tel, "wikibot.mediawiki")

	return &RestyTransport{http: client}, nil
}

func (t *RestyTransport) Get(ctx context.Context, url string) ([]byte, error) {
	res, err := t.http.R().
		SetContext(ctx).
		Get(url)
	return t.result(res, err)
}

func (t *RestyTransport) Post(ctx context.Context, url string, form url.Values) ([]byte, error) {
	res, err := t.http.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		Post(url)
	return t.result(res, err)
}

func (t *RestyTransport) result(res *resty.Response, err error) ([]byte, error) {
	if err != nil {
		t.status = 0
		return nil, err
	}
	t.status = res.StatusCode()
	return res.Body(), nil
}

func (t *RestyTransport) LastStatus() int {
	return t.status
}

// DumpTo writes every exchange made from now on to output.
func (t *RestyTransport) DumpTo(output restyutil.Output) {
	restyutil.DumpExchanges(t.http, output)
}

func (t *RestyTransport) CloseIdleConnections() {
	t.http.GetClient().CloseIdleConnections()
}
