package app_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/aussiebroadwan/dailydigest/internal/digest/app"
	"github.com/aussiebroadwan/dailydigest/internal/digest/store/drivers/sqlite"
	"github.com/aussiebroadwan/dailydigest/internal/digest/tokencache"
	"github.com/aussiebroadwan/dailydigest/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// upstream fakes every third-party API a run talks to.
type upstream struct {
	srv *httptest.Server

	mu     sync.Mutex
	routes map[string]string // path -> body, a missing path answers 500
	pushed []map[string]any
	hits   map[string]int
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()

	u := &upstream{
		hits: map[string]int{},
		routes: map[string]string{
			"/sixty/weather": `{"code":200,"data":{"location":{"name":"余杭"},
				"weather":{"temperature":25,"condition":"晴","humidity":40,"wind_direction":"北风","wind_power":"3级"},
				"air_quality":{"quality":"良","aqi":55}}}`,
			"/sixty/weather/forecast": `{"code":200,"data":{"daily_forecast":[
				{"day_condition":"晴","night_condition":"多云","max_temperature":30,"min_temperature":20}]}}`,
			"/sixty/bing":                           `{"code":200,"data":{"title":"山间","cover":"https://img.example/cover.jpg"}}`,
			"/sixty/kfc":                            `{"code":200,"data":{"kfc":"V我50"}}`,
			"/hitokoto":                             `{"hitokoto":"人生若只如初见","from":"木兰词","type":"i"}`,
			"/v7/minutely/5m":                       `{"code":"200","summary":"未来两小时无降水","minutely":[{"fxTime":"2025-06-05T08:05+08:00","precip":"0.00","type":"rain"}]}`,
			"/uid":                                  `{"code":200,"data":[{"uid":"UID_test"}]}`,
			"/wxpusher":                             `{"code":1000,"msg":"处理成功","data":[{"uid":"UID_test","messageContentId":99}]}`,
			"/weatheralert/v1/current/30.27/119.98": `{"metadata":{"zeroResult":true}}`,
		},
	}

	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits[r.URL.Path]++
		body, ok := u.routes[r.URL.Path]
		if r.URL.Path == "/wxpusher" {
			var msg map[string]any
			_ = json.NewDecoder(r.Body).Decode(&msg)
			u.pushed = append(u.pushed, msg)
		}
		u.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func (u *upstream) set(path, body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.routes[path] = body
}

func (u *upstream) drop(path string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.routes, path)
}

func (u *upstream) pushes() []map[string]any {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]map[string]any(nil), u.pushed...)
}

func (u *upstream) hitCount(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

func testConfig(t *testing.T, u *upstream) app.Config {
	t.Helper()

	key, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	dir := t.TempDir()
	return app.Config{
		QWeatherHost:       u.srv.URL,
		QWeatherPrivateKey: string(key),
		QWeatherKeyID:      "KID",
		QWeatherProjectID:  "PROJ",

		TokenStore:     app.StoreFile,
		TokenCacheFile: filepath.Join(dir, "hefeng_token.json"),
		DatabaseFile:   filepath.Join(dir, "digest.db"),

		WxPusherAppToken: "AT_test",
		WxPusherAPI:      u.srv.URL + "/wxpusher",
		UIDAPI:           u.srv.URL + "/uid",
		UIDFile:          filepath.Join(dir, "latest_uid.json"),
		HistoryFile:      filepath.Join(dir, "history_data.json"),

		Location:     "余杭",
		LocationLat:  "30.27",
		LocationLon:  "119.98",
		SixtyAPIBase: u.srv.URL + "/sixty",
		HitokotoAPI:  u.srv.URL + "/hitokoto",
		Modules:      app.ParseModules(app.DefaultModules),

		TimeZone:    "Asia/Shanghai",
		HTTPTimeout: 5 * time.Second,
		LogOutput:   io.Discard,
	}
}

// thursdayMorning is 2025-06-05 08:00 in Shanghai.
func thursdayMorning() time.Time { return time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC) }

func newApp(t *testing.T, cfg app.Config) *app.Application {
	t.Helper()

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	a.Now = thursdayMorning
	return a
}

func TestRunPushesDigest(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(t, u)
	a := newApp(t, cfg)

	res, err := a.Run(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, "99", res.MessageID)
	require.Equal(t, tokencache.SourceFresh, res.TokenSource)
	require.Empty(t, res.Failed)
	require.NotEmpty(t, res.RunID)

	pushes := u.pushes()
	require.Len(t, pushes, 1)
	msg := pushes[0]
	require.Equal(t, "AT_test", msg["appToken"])
	require.Equal(t, "2025/06/05 周四 08:00:00", msg["summary"])
	require.Equal(t, []any{"UID_test"}, msg["uids"])

	content := msg["content"].(string)
	for _, want := range []string{"人生若只如初见", "余杭", "未来两小时无降水", "V我50", "https://img.example/cover.jpg"} {
		require.Contains(t, content, want)
	}

	// Token and uid were persisted
	_, err = os.Stat(cfg.TokenCacheFile)
	require.NoError(t, err)
	raw, err := os.ReadFile(cfg.UIDFile)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"trigger": "scheduled"`)

	// A second run reuses the cached token and the stored uid
	res, err = a.Run(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, tokencache.SourceCache, res.TokenSource)
	require.Equal(t, 1, u.hitCount("/uid"))
}

func TestRunDropsFailedSources(t *testing.T) {
	u := newUpstream(t)
	u.drop("/sixty/bing")
	u.drop("/v7/minutely/5m")

	a := newApp(t, testConfig(t, u))

	res, err := a.Run(context.Background(), true)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"bing", "precipitation"}, res.Failed)

	pushes := u.pushes()
	require.Len(t, pushes, 1)
	content := pushes[0]["content"].(string)
	require.NotContains(t, content, "img.example")
	require.Contains(t, content, "人生若只如初见")
}

func TestRunAbortsWithoutQuote(t *testing.T) {
	u := newUpstream(t)
	u.drop("/hitokoto")

	a := newApp(t, testConfig(t, u))

	res, err := a.Run(context.Background(), true)
	require.Error(t, err)
	require.Contains(t, res.Failed, "hitokoto")
	require.Empty(t, u.pushes())
}

func TestRunMissingCredentialsIsFatal(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(t, u)
	cfg.QWeatherKeyID = ""

	a := newApp(t, cfg)

	_, err := a.Run(context.Background(), true)
	require.True(t, tokencache.IsConfigurationError(err))
	require.Empty(t, u.pushes())
	require.Zero(t, u.hitCount("/hitokoto"))
}

func TestRunWithoutWeatherNeedsNoToken(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(t, u)
	cfg.QWeatherPrivateKey = ""
	cfg.Modules = app.ParseModules("hitokoto,weibo")
	u.set("/sixty/weibo", `{"code":200,"data":[{"title":"热搜一","hot_value":1,"link":"https://w/1"}]}`)

	a := newApp(t, cfg)

	res, err := a.Run(context.Background(), true)
	require.NoError(t, err)
	require.Empty(t, res.TokenSource)
	require.Zero(t, u.hitCount("/v7/minutely/5m"))

	content := u.pushes()[0]["content"].(string)
	require.Contains(t, content, "热搜一")
	require.NotContains(t, content, "余杭")
}

func TestRunWeatherWithoutProviderHostNeedsNoToken(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(t, u)
	cfg.QWeatherHost = ""
	cfg.QWeatherKeyID = ""
	require.True(t, cfg.Modules.Enabled(app.ModuleWeather))

	a := newApp(t, cfg)

	res, err := a.Run(context.Background(), true)
	require.NoError(t, err)
	require.Empty(t, res.TokenSource)
	require.Empty(t, res.Failed)
	require.Zero(t, u.hitCount("/v7/minutely/5m"))

	_, err = os.Stat(cfg.TokenCacheFile)
	require.ErrorIs(t, err, os.ErrNotExist)

	pushes := u.pushes()
	require.Len(t, pushes, 1)
	require.Contains(t, pushes[0]["content"].(string), "余杭")
}

func TestRunContentSectionsKeepPriceHistory(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(t, u)
	cfg.Modules = app.ParseModules("hitokoto,luck,exchange,moyu,movie")
	u.set("/sixty/luck", `{"code":200,"data":{"luck_desc":"大吉","luck_tip":"宜摸鱼","luck_rank":9}}`)
	u.set("/sixty/exchange-rate", `{"code":200,"data":{"updated":"2025-06-05","rates":[{"currency":"USD","rate":0.14}]}}`)
	u.set("/sixty/moyu", `{"code":200,"data":{"progress":{"week":{"percentage":57}},"moyuQuote":"工作是老板的"}}`)
	u.set("/sixty/maoyan/realtime/movie", `{"code":200,"data":{"list":[{"movie_name":"哪吒","box_office":"1.2","box_office_unit":"亿"}]}}`)

	a := newApp(t, cfg)

	res, err := a.Run(context.Background(), true)
	require.NoError(t, err)
	require.Empty(t, res.Failed)

	content := u.pushes()[0]["content"].(string)
	for _, want := range []string{"大吉", "宜摸鱼", "7.1429", "美元", "工作是老板的", "哪吒", "1.2亿"} {
		require.Contains(t, content, want)
	}

	raw, err := os.ReadFile(cfg.HistoryFile)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"USD": 7.1429`)

	// The next run compares against the stored rate
	u.set("/sixty/exchange-rate", `{"code":200,"data":{"updated":"2025-06-06","rates":[{"currency":"USD","rate":0.125}]}}`)
	_, err = a.Run(context.Background(), false)
	require.NoError(t, err)

	content = u.pushes()[1]["content"].(string)
	require.Contains(t, content, "8.0000")
	require.Contains(t, content, "↑ 12.00%")
}

func TestRunRecordsRunsInSQLite(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(t, u)
	cfg.TokenStore = app.StoreSQLite

	a := newApp(t, cfg)

	res, err := a.Run(context.Background(), true)
	require.NoError(t, err)

	db, err := sqlite.Open("file:" + cfg.DatabaseFile)
	require.NoError(t, err)
	defer db.Close()

	runs, err := db.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, res.RunID, runs[0].ID)
	require.True(t, runs[0].Scheduled)
	require.Equal(t, "fresh", runs[0].TokenSource)
	require.Equal(t, "99", runs[0].MessageID)

	tok, err := db.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, "KID", tok.Header.Kid)
}

func TestNewRejectsUnknownStore(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(t, u)
	cfg.TokenStore = "etcd"

	_, err := app.New(context.Background(), cfg)
	require.ErrorContains(t, err, `unknown token store "etcd"`)
}
