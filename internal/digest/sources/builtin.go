package sources

import (
	"context"
	"time"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
)

// ForecastDays is how many forecast rows are requested.
const ForecastDays = 7

func NewWeatherSource(c *Sixty, location string) Source {
	return &funcSource{name: "weather", fetch: func(ctx context.Context) (Patch, error) {
		w, err := c.Weather(ctx, location)
		if err != nil {
			return nil, err
		}
		return func(d *domain.Digest) { d.Weather = &w }, nil
	}}
}

func NewForecastSource(c *Sixty, location string, today time.Time) Source {
	return &funcSource{name: "forecast", fetch: func(ctx context.Context) (Patch, error) {
		rows, err := c.Forecast(ctx, location, ForecastDays, today)
		if err != nil {
			return nil, err
		}
		return func(d *domain.Digest) { d.Forecast = rows }, nil
	}}
}

func NewBingSource(c *Sixty) Source {
	return &funcSource{name: "bing", fetch: func(ctx context.Context) (Patch, error) {
		w, err := c.Bing(ctx)
		if err != nil {
			return nil, err
		}
		return func(d *domain.Digest) { d.Wallpaper = &w }, nil
	}}
}

// NewKFCSource only calls out on Thursdays.
func NewKFCSource(c *Sixty, isThursday bool) Source {
	return &funcSource{name: "kfc", fetch: func(ctx context.Context) (Patch, error) {
		if !isThursday {
			return nil, nil
		}
		text, err := c.KFC(ctx)
		if err != nil {
			return nil, err
		}
		return func(d *domain.Digest) { d.KFC = text }, nil
	}}
}

func NewNewsSource(c *Sixty) Source {
	return &funcSource{name: "news", fetch: func(ctx context.Context) (Patch, error) {
		news, err := c.News(ctx)
		if err != nil {
			return nil, err
		}
		return func(d *domain.Digest) { d.News = news }, nil
	}}
}

func NewHotListSource(c *Sixty, def HotListDef) Source {
	return &funcSource{name: "hot:" + def.Key, fetch: func(ctx context.Context) (Patch, error) {
		list, err := c.HotList(ctx, def)
		if err != nil {
			return nil, err
		}
		if len(list.Items) == 0 {
			return nil, nil
		}
		return func(d *domain.Digest) { d.HotLists = append(d.HotLists, list) }, nil
	}}
}

// NewHitokotoSource is critical, a digest without its quote isn't sent.
func NewHitokotoSource(h *Hitokoto) Source {
	return &funcSource{name: "hitokoto", critical: true, fetch: func(ctx context.Context) (Patch, error) {
		q, err := h.Quote(ctx)
		if err != nil {
			return nil, err
		}
		return func(d *domain.Digest) { d.Quote = &q }, nil
	}}
}

func NewPrecipitationSource(q *QWeather, token string) Source {
	return &funcSource{name: "precipitation", fetch: func(ctx context.Context) (Patch, error) {
		p, err := q.Precipitation(ctx, token)
		if err != nil {
			return nil, err
		}
		return func(d *domain.Digest) { d.Precipitation = &p }, nil
	}}
}

func NewAlertsSource(q *QWeather, token string) Source {
	return &funcSource{name: "alerts", fetch: func(ctx context.Context) (Patch, error) {
		alerts, err := q.Alerts(ctx, token)
		if err != nil {
			return nil, err
		}
		if len(alerts) == 0 {
			return nil, nil
		}
		return func(d *domain.Digest) { d.Alerts = alerts }, nil
	}}
}

func NewLuckSource(c *Sixty) Source {
	return &funcSource{name: "luck", fetch: func(ctx context.Context) (Patch, error) {
		l, err := c.Luck(ctx)
		if err != nil {
			return nil, err
		}
		return func(d *domain.Digest) { d.Luck = &l }, nil
	}}
}

func NewHistorySource(c *Sixty) Source {
	return &funcSource{name: "history", fetch: func(ctx context.Context) (Patch, error) {
		events, err := c.HistoryToday(ctx)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			return nil, nil
		}
		return func(d *domain.Digest) { d.History = events }, nil
	}}
}

// NewExchangeSource compares against and updates the exchange board in hist.
func NewExchangeSource(c *Sixty, hist *PriceHistory) Source {
	return &funcSource{name: "exchange", fetch: func(ctx context.Context) (Patch, error) {
		ex, err := c.Exchange(ctx, hist)
		if err != nil {
			return nil, err
		}
		if len(ex.Rates) == 0 {
			return nil, nil
		}
		return func(d *domain.Digest) { d.Exchange = &ex }, nil
	}}
}

func NewGoldSource(c *Sixty, hist *PriceHistory) Source {
	return &funcSource{name: "gold", fetch: func(ctx context.Context) (Patch, error) {
		g, err := c.Gold(ctx, hist)
		if err != nil {
			return nil, err
		}
		if len(g.Metals) == 0 && len(g.Stores) == 0 {
			return nil, nil
		}
		return func(d *domain.Digest) { d.Gold = &g }, nil
	}}
}

func NewFuelSource(c *Sixty, region string, hist *PriceHistory) Source {
	return &funcSource{name: "fuel", fetch: func(ctx context.Context) (Patch, error) {
		prices, err := c.Fuel(ctx, region, hist)
		if err != nil {
			return nil, err
		}
		if len(prices) == 0 {
			return nil, nil
		}
		return func(d *domain.Digest) { d.Fuel = prices }, nil
	}}
}

func NewMoyuSource(c *Sixty) Source {
	return &funcSource{name: "moyu", fetch: func(ctx context.Context) (Patch, error) {
		m, err := c.Moyu(ctx)
		if err != nil {
			return nil, err
		}
		return func(d *domain.Digest) { d.Moyu = &m }, nil
	}}
}

func NewAINewsSource(c *Sixty) Source {
	return &funcSource{name: "ainews", fetch: func(ctx context.Context) (Patch, error) {
		news, err := c.AINews(ctx)
		if err != nil {
			return nil, err
		}
		if len(news) == 0 {
			return nil, nil
		}
		return func(d *domain.Digest) { d.AINews = news }, nil
	}}
}
