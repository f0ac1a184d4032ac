package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/dailydigest/internal/digest/app"
	"github.com/aussiebroadwan/dailydigest/internal/digest/sources"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHost(t *testing.T) {
	cases := map[string]string{
		"":                                "",
		"  ":                              "",
		"abc.qweatherapi.com":             "https://abc.qweatherapi.com",
		" abc.qweatherapi.com/\r\n":       "https://abc.qweatherapi.com",
		"https://abc.qweatherapi.com//":   "https://abc.qweatherapi.com",
		"http://localhost:8080":           "http://localhost:8080",
		"abc.qweather\napi.com":           "https://abc.qweatherapi.com",
		"https://abc.qweatherapi.com/v7/": "https://abc.qweatherapi.com/v7",
	}
	for in, want := range cases {
		require.Equal(t, want, app.NormalizeHost(in), "input %q", in)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"QWEATHER_API_HOST", "HEFENG_API_HOST", "QWEATHER_KEY_ID", "HEFENG_KEY_ID",
		"TOKEN_STORE", "TOKEN_CACHE_FILE", "UID_FILE", "HISTORY_FILE", "DIGEST_MODULES", "TIMEZONE",
		"HTTP_TIMEOUT", "LOCATION", "REDIS_DB",
	} {
		t.Setenv(key, "")
	}

	cfg := app.LoadConfig()
	require.Empty(t, cfg.QWeatherHost)
	require.Empty(t, cfg.QWeatherKeyID)
	require.Equal(t, app.StoreFile, cfg.TokenStore)
	require.Equal(t, "data/hefeng_token.json", cfg.TokenCacheFile)
	require.Equal(t, "data/latest_uid.json", cfg.UIDFile)
	require.Equal(t, "data/history_data.json", cfg.HistoryFile)
	require.Equal(t, "Asia/Shanghai", cfg.TimeZone)
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.Equal(t, "余杭", cfg.Location)
	require.Equal(t, 0, cfg.RedisDB)
	require.Equal(t, "bing,hitokoto,kfc,weather", cfg.Modules.String())
}

func TestLoadConfigLegacyNames(t *testing.T) {
	t.Setenv("QWEATHER_API_HOST", "")
	t.Setenv("HEFENG_API_HOST", "legacy.qweatherapi.com/")
	t.Setenv("QWEATHER_KEY_ID", "")
	t.Setenv("HEFENG_KEY_ID", " KID ")
	t.Setenv("QWEATHER_PROJECT_ID", "PROJ")
	t.Setenv("HEFENG_PROJECT_ID", "IGNORED")

	cfg := app.LoadConfig()
	require.Equal(t, "https://legacy.qweatherapi.com", cfg.QWeatherHost)
	require.Equal(t, "KID", cfg.QWeatherKeyID)
	require.Equal(t, "PROJ", cfg.QWeatherProjectID)
}

func TestLoadConfigParsing(t *testing.T) {
	t.Setenv("TOKEN_STORE", "SQLite")
	t.Setenv("HTTP_TIMEOUT", "15")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("DIGEST_MODULES", " news , WEIBO,,zhihu ")

	cfg := app.LoadConfig()
	require.Equal(t, app.StoreSQLite, cfg.TokenStore)
	require.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 0, cfg.RedisDB)
	require.True(t, cfg.Modules.Enabled(app.ModuleNews))
	require.False(t, cfg.Modules.Enabled(app.ModuleWeather))

	var keys []string
	for _, def := range cfg.Modules.HotLists() {
		keys = append(keys, def.Key)
	}
	require.Equal(t, []string{"weibo", "zhihu"}, keys)
}

func TestParseModulesHotExpands(t *testing.T) {
	m := app.ParseModules("hitokoto,hot,bogus")
	require.Len(t, m.HotLists(), len(sources.HotLists))
	require.Equal(t, "movie", m.HotLists()[len(sources.HotLists)-3].Key)
	require.Equal(t, []string{"bogus"}, m.Unknown())
}

func TestParseModulesContentSections(t *testing.T) {
	m := app.ParseModules("luck,history,exchange,gold,fuel,moyu,ainews,teleplay")
	require.Empty(t, m.Unknown())
	require.True(t, m.Enabled(app.ModuleExchange))
	require.Len(t, m.HotLists(), 1)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DIGEST_DOTENV_A=from-file\nDIGEST_DOTENV_B=from-file\n"), 0o600))

	// Registered for cleanup, then cleared so the file can set it
	t.Setenv("DIGEST_DOTENV_A", "")
	require.NoError(t, os.Unsetenv("DIGEST_DOTENV_A"))
	t.Setenv("DIGEST_DOTENV_B", "from-env")

	require.NoError(t, app.LoadDotEnv(path))
	require.Equal(t, "from-file", os.Getenv("DIGEST_DOTENV_A"))
	require.Equal(t, "from-env", os.Getenv("DIGEST_DOTENV_B"))

	// A missing file is fine
	require.NoError(t, app.LoadDotEnv(filepath.Join(dir, "missing.env")))
}
