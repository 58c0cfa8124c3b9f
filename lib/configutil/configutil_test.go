package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	ApiUrl   string `json:"api_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	Maxlag   int    `json:"maxlag"`
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bot.json5"), `{
		// comments are fine
		api_url: "https://en.wikipedia.org/w/api.php",
		username: "Legobot",
		maxlag: 5,
	}`)
	writeFile(t, filepath.Join(dir, "bot.local.json5"), `{ username: "Legobot II" }`)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "bot.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{
		ApiUrl:   "https://en.wikipedia.org/w/api.php",
		Username: "Legobot II",
		Maxlag:   5,
	}, config)
}

func TestReadConfigExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WIKIBOT_TEST_PASSWORD", "hunter2")
	writeFile(t, filepath.Join(dir, "bot.json5"), `{ password: "${WIKIBOT_TEST_PASSWORD}" }`)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "bot.json5"))
	require.NoError(t, err)
	require.Equal(t, "hunter2", config.Password)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "bot.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bot.json5"), `{ maxlag: `)

	_, err := ReadConfig[testConfig](filepath.Join(dir, "bot.json5"))
	require.Error(t, err)
	require.NotErrorIs(t, err, os.ErrNotExist)
}

func TestReadRecursivelyFrom(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeFile(t, filepath.Join(root, "a", "bot.json5"), `{ username: "Found" }`)

	config, err := ReadRecursivelyFrom[testConfig](nested, "bot.json5")
	require.NoError(t, err)
	require.Equal(t, "Found", config.Username)

	_, err = ReadRecursivelyFrom[testConfig](nested, "absent-wikibot-config.json5")
	require.ErrorIs(t, err, os.ErrNotExist)
}
