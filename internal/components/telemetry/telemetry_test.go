package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	recorder := NewRecorderAPI()
	scoped := NewScopedAPI("mediawiki", recorder)

	scoped.ReportBroken("page.refresh", errors.New("boom"))
	scoped.ReportWarning("page.bad-token", "Foo")
	scoped.ReportDebug("client.query", "login")
	scoped.ReportCount("client.list", 3)

	reports := recorder.Reports()
	require.Len(t, reports, 4)
	require.Equal(t, "mediawiki: page.refresh", reports[0].Id)
	require.Equal(t, KindBroken, reports[0].Kind)
	require.Equal(t, []any{"Foo"}, reports[1].Params)
	require.Equal(t, int64(3), reports[3].Count)

	require.Equal(t, 1, recorder.Count(KindWarning, "page.bad-token"))
	require.Equal(t, 0, recorder.Count(KindBroken, "page.bad-token"))
}

func TestSlogAPIDoesNotPanic(t *testing.T) {
	tel := NewSlogAPI()
	tel.ReportBroken("page.refresh", errors.New("boom"))
	tel.ReportWarning("page.bad-token")
	tel.ReportDebug("client.query")
	tel.ReportCount("client.list", 2)
	tel.ReportCount("client.list", 5)

	var zero SlogAPI
	zero.ReportCount("client.list", 1)
}
