package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mutex sync.Mutex
	files map[string]string
}

func (o *memoryOutput) Write(id string, contents string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.files[id] = contents
}

func TestDumpExchanges(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	output := &memoryOutput{files: map[string]string{}}
	client := resty.New()
	defer client.GetClient().CloseIdleConnections()
	DumpExchanges(client, output)

	_, err := client.R().
		SetFormData(map[string]string{"action": "login", "lgpassword": "hunter2"}).
		Post(server.URL + "/api.php")
	require.NoError(t, err)
	_, err = client.R().Get(server.URL + "/api.php?action=query")
	require.NoError(t, err)

	require.Len(t, output.files, 2)

	first := output.files["0001"]
	require.Contains(t, first, "POST "+server.URL+"/api.php")
	require.Contains(t, first, "lgpassword=<redacted>")
	require.NotContains(t, first, "hunter2")
	require.Contains(t, first, "Set-Cookie: <redacted>")
	require.Contains(t, first, `{"ok":true}`)

	second := output.files["0002"]
	require.Contains(t, second, "GET "+server.URL+"/api.php?action=query")
}

func TestDumpExchangesNilOutput(t *testing.T) {
	client := resty.New()
	DumpExchanges(client, nil)
}

func TestRedactForm(t *testing.T) {
	require.Equal(t,
		"action=edit&token=<redacted>&text=hi",
		redactForm("action=edit&token=%2B%5C&text=hi"),
	)
	require.Equal(t, "flag", redactForm("flag"))
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	require.NoError(t, os.MkdirAll(dir, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old"), 0600))

	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	output.Write("0001", "exchange")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	contents, err := os.ReadFile(filepath.Join(dir, "0001.txt"))
	require.NoError(t, err)
	require.Equal(t, "exchange", string(contents))
}
