package mediawiki

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
	"wikibot/internal/components/chrono"
	"wikibot/internal/components/telemetry"
	"wikibot/internal/mediawiki/mocks"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newMockClient(t *testing.T) (*Client, *mocks.MockTransport, *chrono.FakeImpl) {
	t.Helper()
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	clock := chrono.NewFakeImpl(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	client, err := NewClient(ClientOptions{
		ApiUrl:    "https://wiki.example/w/api.php",
		Transport: transport,
		Clock:     clock,
	}, telemetry.NewRecorderAPI())
	require.NoError(t, err)
	return client, transport, clock
}

func mustJSON(t *testing.T, body any) []byte {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return raw
}

var busyPage = []byte("<html><body>Service Unavailable</body></html>")

func backoffUpTo(attempts int) []time.Duration {
	var out []time.Duration
	for attempt := 1; attempt <= attempts; attempt++ {
		out = append(out, time.Duration(attempt)*2*time.Second)
	}
	return out
}

func TestRefreshSucceedsOnTenthAttempt(t *testing.T) {
	client, transport, clock := newMockClient(t)
	okBody := mustJSON(t, revisionsBody(7, "Foo", "content", "2024-05-01T12:00:00Z"))

	transport.EXPECT().Get(gomock.Any(), gomock.Any()).Return(busyPage, nil).Times(9)
	transport.EXPECT().Get(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, target string) ([]byte, error) {
			parsed, err := url.Parse(target)
			require.NoError(t, err)
			require.Equal(t, "revisions", parsed.Query().Get("prop"))
			require.Equal(t, "Foo", parsed.Query().Get("titles"))
			require.Equal(t, "json", parsed.Query().Get("format"))
			return okBody, nil
		})
	transport.EXPECT().LastStatus().Return(503).Times(9)
	transport.EXPECT().LastStatus().Return(200)

	page, err := client.Page(context.Background(), "Foo")
	require.NoError(t, err)
	require.True(t, page.Exists())
	require.Empty(t, cmp.Diff(backoffUpTo(9), clock.Slept()))
}

func TestRefreshGivesUpAfterTenAttempts(t *testing.T) {
	client, transport, clock := newMockClient(t)

	transport.EXPECT().Get(gomock.Any(), gomock.Any()).Return(busyPage, nil).Times(10)
	transport.EXPECT().LastStatus().Return(503).Times(10)

	_, err := client.Page(context.Background(), "Foo")
	var httpErr *HttpError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, 503, httpErr.Status)
	require.Equal(t, 10, httpErr.Attempts)
	require.ErrorIs(t, err, ErrDeserialize)
	require.Empty(t, cmp.Diff(backoffUpTo(9), clock.Slept()))
}

func TestRefreshRetriesTransportFailures(t *testing.T) {
	client, transport, _ := newMockClient(t)

	transport.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset by peer")).Times(10)
	transport.EXPECT().LastStatus().Return(0).Times(10)

	_, err := client.Page(context.Background(), "Foo")
	var httpErr *HttpError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, 0, httpErr.Status)
	require.ErrorIs(t, err, ErrTransport)
}

func TestRefreshDoesNotRetryMalformedSuccess(t *testing.T) {
	table := []struct {
		name string
		body []byte
		err  error
	}{
		{
			name: "not json",
			body: []byte("{\"query\": "),
			err:  ErrDeserialize,
		},
		{
			name: "exists without revisions",
			body: mustJSON(t, obj{"query": obj{"pages": obj{"7": obj{"pageid": 7, "title": "Foo"}}}}),
			err:  ErrUnknownRetrieval,
		},
		{
			name: "revision without content",
			body: mustJSON(t, obj{"query": obj{"pages": obj{"7": obj{
				"pageid":    7,
				"title":     "Foo",
				"revisions": []obj{{"timestamp": "2024-05-01T12:00:00Z"}},
			}}}}),
			err: ErrUnknownRetrieval,
		},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			client, transport, clock := newMockClient(t)
			transport.EXPECT().Get(gomock.Any(), gomock.Any()).Return(row.body, nil)
			transport.EXPECT().LastStatus().Return(200)

			_, err := client.Page(context.Background(), "Foo")
			require.ErrorIs(t, err, row.err)
			require.Empty(t, clock.Slept())
		})
	}
}

func TestRefreshApiError(t *testing.T) {
	client, transport, _ := newMockClient(t)
	transport.EXPECT().Get(gomock.Any(), gomock.Any()).
		Return(mustJSON(t, apiErrorBody("readapidenied", "You need read permission to use this module.")), nil)
	transport.EXPECT().LastStatus().Return(200)

	_, err := client.Page(context.Background(), "Foo")
	require.True(t, IsAPIError(err, "readapidenied"))
	require.Equal(t, "readapidenied", client.LastError())
}

func TestRefreshSlotContent(t *testing.T) {
	client, transport, _ := newMockClient(t)
	transport.EXPECT().Get(gomock.Any(), gomock.Any()).Return(mustJSON(t, obj{"query": obj{"pages": obj{"7": obj{
		"pageid": 7,
		"title":  "Foo",
		"revisions": []obj{{
			"timestamp": "2024-05-01T12:00:00Z",
			"slots":     obj{"main": obj{"contentmodel": "wikitext", "*": "slot text"}},
		}},
	}}}}), nil)
	transport.EXPECT().LastStatus().Return(200)

	page, err := client.Page(context.Background(), "Foo")
	require.NoError(t, err)
	content, ok := page.Content()
	require.True(t, ok)
	require.Equal(t, "slot text", content)
}

func TestRefreshStopsWhenCancelled(t *testing.T) {
	client, transport, clock := newMockClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transport.EXPECT().Get(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string) ([]byte, error) {
			cancel()
			return nil, context.Canceled
		})
	transport.EXPECT().LastStatus().Return(0)

	_, err := client.Page(ctx, "Foo")
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, clock.Slept())
}

func TestWriteUsesPost(t *testing.T) {
	client, transport, _ := newMockClient(t)
	page := client.NewPage("Foo")

	transport.EXPECT().Get(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, target string) ([]byte, error) {
			if strings.Contains(target, "intoken=edit") {
				return mustJSON(t, tokenBody("tok+\\")), nil
			}
			return mustJSON(t, revisionsBody(7, "Foo", "new", "2024-05-02T10:00:00Z")), nil
		}).Times(2)
	transport.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, target string, form url.Values) ([]byte, error) {
			require.Contains(t, target, "action=edit")
			require.Equal(t, "tok+\\", form.Get("token"))
			require.Equal(t, "new", form.Get("text"))
			return mustJSON(t, editSuccessBody("Foo", 0, 8)), nil
		})
	transport.EXPECT().LastStatus().Return(200)

	result, err := page.Edit(context.Background(), "new", "summary")
	require.NoError(t, err)
	require.Equal(t, int64(8), result.NewRevID)
	require.True(t, page.Exists())
}
