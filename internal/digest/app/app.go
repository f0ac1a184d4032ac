package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aussiebroadwan/dailydigest/internal/digest/compose"
	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
	"github.com/aussiebroadwan/dailydigest/internal/digest/push"
	"github.com/aussiebroadwan/dailydigest/internal/digest/sources"
	"github.com/aussiebroadwan/dailydigest/internal/digest/store"
	"github.com/aussiebroadwan/dailydigest/internal/digest/store/drivers/redis"
	"github.com/aussiebroadwan/dailydigest/internal/digest/store/drivers/sqlite"
	"github.com/aussiebroadwan/dailydigest/internal/digest/tokencache"
	"github.com/aussiebroadwan/dailydigest/pkg/httpx"
	"github.com/aussiebroadwan/dailydigest/pkg/idx"
	"github.com/aussiebroadwan/dailydigest/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// tokenProvider keys the cached token in shared stores.
const tokenProvider = "qweather"

// ErrMissingQuote aborts a run whose digest would have no quote.
var ErrMissingQuote = errors.New("app: hitokoto quote is missing")

// RunRecorder is implemented by token stores that also keep a run log.
type RunRecorder interface {
	RecordRun(ctx context.Context, r domain.RunRecord) error
}

// Application wires the token cache, content sources and push channels for
// a single digest run.
type Application struct {
	cfg    Config
	logger *slog.Logger
	loc    *time.Location

	// Core dependencies
	http   *http.Client
	tokens store.TokenStore
	cache  *tokencache.Cache

	// Content sources
	sixty    *sources.Sixty
	hitokoto *sources.Hitokoto
	qweather *sources.QWeather
	prices   *sources.PriceHistory

	// Push channels
	wxpusher *push.WxPusher
	telegram *push.Telegram
	uids     *push.UIDResolver

	// Now defaults to time.Now.
	Now func() time.Time
}

// Result summarises a finished run.
type Result struct {
	RunID       string
	MessageID   string
	TokenSource tokencache.Source
	Failed      []string // sources dropped from the digest
}

// New creates an Application with all dependencies initialised.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "dailydigest",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  cfg.LogOutput,
		}),
		Now: time.Now,
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", cfg.TimeZone, err)
	}
	app.loc = loc

	tokens, err := openTokenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.tokens = tokens
	app.logger.Info("token store opened", "backend", cfg.TokenStore)

	app.initClients()
	return app, nil
}

// openTokenStore selects the token store backend named by cfg.TokenStore.
func openTokenStore(ctx context.Context, cfg Config) (store.TokenStore, error) {
	switch cfg.TokenStore {
	case StoreFile, "":
		return store.NewFile(cfg.TokenCacheFile), nil
	case StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.DatabaseFile), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		s, err := sqlite.Open(sqlite.DSN(cfg.DatabaseFile, "journal_mode(WAL)"))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite token store: %w", err)
		}
		return s, nil
	case StoreRedis:
		s, err := redis.NewStore(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, tokenProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis token store: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown token store %q (want file, sqlite or redis)", cfg.TokenStore)
}

func (app *Application) initClients() {
	app.http = httpx.NewClient(app.cfg.HTTPTimeout, app.logger)

	app.cache = tokencache.New(app.tokens, tokencache.Credentials{
		PrivateKey: app.cfg.QWeatherPrivateKey,
		KeyID:      app.cfg.QWeatherKeyID,
		ProjectID:  app.cfg.QWeatherProjectID,
	}, app.logger)

	app.sixty = sources.NewSixty(app.cfg.SixtyAPIBase, app.http)
	app.hitokoto = sources.NewHitokoto(app.cfg.HitokotoAPI, app.http)
	app.prices = sources.NewPriceHistory(app.cfg.HistoryFile)
	app.qweather = &sources.QWeather{
		Host:     app.cfg.QWeatherHost,
		Lat:      app.cfg.LocationLat,
		Lon:      app.cfg.LocationLon,
		HTTP:     app.http,
		Location: app.loc,
	}

	app.wxpusher = push.NewWxPusher(app.cfg.WxPusherAppToken, app.cfg.WxPusherAPI, app.http)
	app.telegram = push.NewTelegram(app.cfg.TelegramBotToken, app.cfg.TelegramChatID, app.http)
	app.uids = push.NewUIDResolver(app.cfg.UIDAPI, app.cfg.UIDFile, app.http)
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger }

// TokenCache exposes the provider token cache for the CLI.
func (app *Application) TokenCache() *tokencache.Cache { return app.cache }

// Close releases the token store.
func (app *Application) Close() error {
	if err := app.tokens.Close(); err != nil {
		app.logger.Error("error closing token store", "error", err)
		return err
	}
	return nil
}

// Run builds one digest and pushes it. Scheduled runs refresh the recipient
// uid from the API, manual runs reuse the stored one.
func (app *Application) Run(ctx context.Context, scheduled bool) (Result, error) {
	startedAt := app.Now()
	runID := idx.NewAt(startedAt)

	ctx = slogx.WithRunID(slogx.WithContext(ctx, app.logger), runID.String())
	log := slogx.FromContext(ctx)
	log.Info("digest_run_started", "scheduled", scheduled, "modules", app.cfg.Modules.String())

	res := Result{RunID: runID.String()}
	ti := compose.NewTimeInfo(startedAt, app.loc)

	// Only the provider sources need a token
	var token string
	if app.cfg.Modules.Enabled(ModuleWeather) && app.qweather.Host != "" {
		acq, err := app.cache.Acquire(ctx)
		if err != nil {
			return res, fmt.Errorf("acquire weather token: %w", err)
		}
		if acq.Degraded() {
			log.Warn("weather_token_degraded", "expires_at", acq.ExpiresAt)
		}
		token = acq.Token
		res.TokenSource = acq.Source
	}

	d, failed, err := collect(ctx, app.sources(ti, token))
	res.Failed = failed
	if err != nil {
		return res, err
	}
	d.Time = ti
	if app.cfg.Modules.Enabled(ModuleHitokoto) && d.Quote == nil {
		return res, ErrMissingQuote
	}

	uid, err := app.uids.Resolve(ctx, scheduled)
	if err != nil {
		return res, fmt.Errorf("resolve recipient: %w", err)
	}

	html, err := compose.RenderHTML(d)
	if err != nil {
		return res, err
	}

	msgID, err := app.wxpusher.Send(ctx, html, ti.DateTime, uid)
	if err != nil {
		return res, fmt.Errorf("push digest: %w", err)
	}
	res.MessageID = msgID
	log.Info("digest_pushed", "channel", "wxpusher", "message_id", msgID, "failed_sources", len(failed))

	if app.telegram.Enabled() {
		if tgID, err := app.telegram.Send(ctx, compose.RenderText(d)); err != nil {
			log.Warn("digest_push_failed", "channel", "telegram", "error", err)
		} else {
			log.Info("digest_pushed", "channel", "telegram", "message_id", tgID)
		}
	}

	if rec, ok := app.tokens.(RunRecorder); ok {
		err := rec.RecordRun(ctx, domain.RunRecord{
			ID:          res.RunID,
			Scheduled:   scheduled,
			TokenSource: string(res.TokenSource),
			MessageID:   msgID,
			StartedAt:   startedAt,
		})
		if err != nil {
			log.Warn("digest_run_record_failed", "error", err)
		}
	}

	return res, nil
}

// sources lists the enabled sources in the order their patches apply.
func (app *Application) sources(ti domain.TimeInfo, token string) []sources.Source {
	m := app.cfg.Modules
	var out []sources.Source

	if m.Enabled(ModuleHitokoto) {
		out = append(out, sources.NewHitokotoSource(app.hitokoto))
	}
	if m.Enabled(ModuleWeather) {
		out = append(out,
			sources.NewWeatherSource(app.sixty, app.cfg.Location),
			sources.NewForecastSource(app.sixty, app.cfg.Location, ti.Now),
		)
		if app.qweather.Host != "" {
			out = append(out,
				sources.NewPrecipitationSource(app.qweather, token),
				sources.NewAlertsSource(app.qweather, token),
			)
		}
	}
	if m.Enabled(ModuleBing) {
		out = append(out, sources.NewBingSource(app.sixty))
	}
	if m.Enabled(ModuleKFC) {
		out = append(out, sources.NewKFCSource(app.sixty, ti.IsThursday))
	}
	if m.Enabled(ModuleNews) {
		out = append(out, sources.NewNewsSource(app.sixty))
	}
	if m.Enabled(ModuleLuck) {
		out = append(out, sources.NewLuckSource(app.sixty))
	}
	if m.Enabled(ModuleHistory) {
		out = append(out, sources.NewHistorySource(app.sixty))
	}
	if m.Enabled(ModuleExchange) {
		out = append(out, sources.NewExchangeSource(app.sixty, app.prices))
	}
	if m.Enabled(ModuleGold) {
		out = append(out, sources.NewGoldSource(app.sixty, app.prices))
	}
	if m.Enabled(ModuleFuel) {
		out = append(out, sources.NewFuelSource(app.sixty, app.cfg.Location, app.prices))
	}
	if m.Enabled(ModuleMoyu) {
		out = append(out, sources.NewMoyuSource(app.sixty))
	}
	if m.Enabled(ModuleAINews) {
		out = append(out, sources.NewAINewsSource(app.sixty))
	}
	for _, def := range m.HotLists() {
		out = append(out, sources.NewHotListSource(app.sixty, def))
	}

	return out
}

// collect fetches every source in parallel and applies the patches in source
// order. A failing source is logged and left out, unless it is critical, in
// which case the whole collection fails. Names of dropped sources are
// returned either way.
func collect(ctx context.Context, srcs []sources.Source) (domain.Digest, []string, error) {
	log := slogx.FromContext(ctx)
	patches := make([]sources.Patch, len(srcs))
	errs := make([]error, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		g.Go(func() error {
			start := time.Now()
			patch, err := src.Fetch(gctx)
			if err != nil {
				errs[i] = err
				log.Warn("source_failed",
					"source", src.Name(),
					"critical", src.Critical(),
					"duration_ms", time.Since(start).Milliseconds(),
					"error", err,
				)
				if src.Critical() {
					return fmt.Errorf("source %s: %w", src.Name(), err)
				}
				return nil
			}
			patches[i] = patch
			log.Debug("source_fetched", "source", src.Name(), "duration_ms", time.Since(start).Milliseconds())
			return nil
		})
	}
	gerr := g.Wait()

	var failed []string
	for i, src := range srcs {
		if errs[i] != nil {
			failed = append(failed, src.Name())
		}
	}
	if gerr != nil {
		return domain.Digest{}, failed, gerr
	}

	var d domain.Digest
	for _, patch := range patches {
		if patch != nil {
			patch(&d)
		}
	}
	return d, failed, nil
}
