package mediawiki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"
	"wikibot/internal/components/chrono"
	"wikibot/internal/components/telemetry"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeWiki is a stand in for api.php. Every request is recorded with its
// query string and form merged, the handler decides what to answer.
type fakeWiki struct {
	server   *httptest.Server
	mutex    sync.Mutex
	requests []fakeRequest
}

type fakeRequest struct {
	Method string
	Params url.Values
}

type fakeHandler func(w http.ResponseWriter, params url.Values)

func newFakeWiki(t *testing.T, handler fakeHandler) *fakeWiki {
	t.Helper()
	wiki := &fakeWiki{}
	wiki.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		params := url.Values{}
		for k, v := range r.Form {
			params[k] = append([]string(nil), v...)
		}

		wiki.mutex.Lock()
		wiki.requests = append(wiki.requests, fakeRequest{Method: r.Method, Params: params})
		wiki.mutex.Unlock()

		w.Header().Set("content-type", "application/json")
		handler(w, params)
	}))
	t.Cleanup(wiki.server.Close)
	return wiki
}

func (f *fakeWiki) apiUrl() string {
	return f.server.URL + "/w/api.php"
}

// requestsFor returns the recorded requests whose action (and for queries
// their prop/list/meta) match.
func (f *fakeWiki) requestsFor(match func(params url.Values) bool) []fakeRequest {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var out []fakeRequest
	for _, req := range f.requests {
		if match(req.Params) {
			out = append(out, req)
		}
	}
	return out
}

func isAction(action string) func(url.Values) bool {
	return func(params url.Values) bool {
		return params.Get("action") == action
	}
}

func isTokenProbe(params url.Values) bool {
	return params.Get("action") == "query" && params.Get("intoken") == "edit"
}

func isRevisionRead(params url.Values) bool {
	return params.Get("action") == "query" && params.Get("prop") == "revisions"
}

func writeJSON(w http.ResponseWriter, body any) {
	_ = json.NewEncoder(w).Encode(body)
}

type obj = map[string]any

func revisionsBody(pageID int, title, content, timestamp string) obj {
	return obj{
		"query": obj{
			"pages": obj{
				strconv.Itoa(pageID): obj{
					"pageid": pageID,
					"ns":     0,
					"title":  title,
					"revisions": []obj{{
						"timestamp": timestamp,
						"*":         content,
					}},
				},
			},
		},
	}
}

func missingBody(title string) obj {
	return obj{
		"query": obj{
			"pages": obj{
				"-1": obj{"ns": 0, "title": title, "missing": ""},
			},
		},
	}
}

func tokenBody(token string) obj {
	return obj{
		"query": obj{
			"pages": obj{
				"1": obj{"pageid": 1, "ns": 0, "title": "Main Page", "edittoken": token},
			},
		},
	}
}

func apiErrorBody(code, info string) obj {
	return obj{"error": obj{"code": code, "info": info}}
}

func editSuccessBody(title string, oldRev, newRev int) obj {
	return obj{
		"edit": obj{
			"result":       "Success",
			"pageid":       10,
			"title":        title,
			"oldrevid":     oldRev,
			"newrevid":     newRev,
			"newtimestamp": "2024-05-02T10:00:00Z",
		},
	}
}

type testClient struct {
	*Client
	recorder  *telemetry.RecorderAPI
	fakeClock *chrono.FakeImpl
}

func newTestClient(t *testing.T, apiUrl string, configure ...func(*ClientOptions)) testClient {
	t.Helper()
	tel := telemetry.NewRecorderAPI()
	clock := chrono.NewFakeImpl(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	opts := ClientOptions{
		ApiUrl:    apiUrl,
		UserAgent: "wikibot-test/1.0",
		Clock:     clock,
	}
	for _, fn := range configure {
		fn(&opts)
	}

	client, err := NewClient(opts, tel)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close(context.Background())
	})
	return testClient{Client: client, recorder: tel, fakeClock: clock}
}
