package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
	"github.com/aussiebroadwan/dailydigest/pkg/httpx"
)

// DefaultSixtyBase is the public 60s API.
const DefaultSixtyBase = "https://60s.viki.moe/v2"

// Sixty is a client for the 60s API. Every endpoint wraps its payload in
// {code, message, data} and signals success with code 200.
type Sixty struct {
	BaseURL string
	HTTP    *http.Client
}

// NewSixty returns a client for base, DefaultSixtyBase when empty.
func NewSixty(base string, c *http.Client) *Sixty {
	if base == "" {
		base = DefaultSixtyBase
	}
	return &Sixty{BaseURL: strings.TrimRight(base, "/"), HTTP: c}
}

type sixtyEnvelope struct {
	Code    flexString      `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// get fetches path with query and decodes data into target.
func (s *Sixty) get(ctx context.Context, path string, query url.Values, target any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("encoding", "json")

	var env sixtyEnvelope
	if err := httpx.GetJSON(ctx, s.HTTP, s.BaseURL+path+"?"+query.Encode(), nil, &env); err != nil {
		return err
	}
	if env.Code.String() != "200" {
		return &APIError{API: "60s" + path, Code: env.Code.String(), Message: env.Message}
	}
	if target == nil {
		return nil
	}
	return json.Unmarshal(env.Data, target)
}

type sixtyWeather struct {
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	Weather struct {
		Temperature   flexString `json:"temperature"`
		Condition     string     `json:"condition"`
		Humidity      flexString `json:"humidity"`
		WindDirection string     `json:"wind_direction"`
		WindPower     flexString `json:"wind_power"`
	} `json:"weather"`
	AirQuality struct {
		Quality string     `json:"quality"`
		AQI     flexString `json:"aqi"`
	} `json:"air_quality"`
	Sunrise struct {
		Sunrise     string `json:"sunrise"`
		Sunset      string `json:"sunset"`
		SunriseDesc string `json:"sunrise_desc"`
		SunsetDesc  string `json:"sunset_desc"`
	} `json:"sunrise"`
}

// Weather returns current conditions for location.
func (s *Sixty) Weather(ctx context.Context, location string) (domain.Weather, error) {
	var raw sixtyWeather
	if err := s.get(ctx, "/weather", url.Values{"query": {location}}, &raw); err != nil {
		return domain.Weather{}, err
	}

	city := raw.Location.Name
	if city == "" {
		city = location
	}

	return domain.Weather{
		City:          city,
		Temperature:   raw.Weather.Temperature.String(),
		Condition:     raw.Weather.Condition,
		Humidity:      raw.Weather.Humidity.String(),
		WindDirection: raw.Weather.WindDirection,
		WindPower:     raw.Weather.WindPower.String(),
		AirQuality:    raw.AirQuality.Quality,
		AQI:           raw.AirQuality.AQI.Int(),
		Sunrise:       clockPart(raw.Sunrise.Sunrise, raw.Sunrise.SunriseDesc),
		Sunset:        clockPart(raw.Sunrise.Sunset, raw.Sunrise.SunsetDesc),
		Icon:          DayIcon(raw.Weather.Condition),
	}, nil
}

// clockPart prefers desc, else the time part of a "date time" string.
func clockPart(value, desc string) string {
	if desc != "" {
		return desc
	}
	if _, after, ok := strings.Cut(value, " "); ok && after != "" {
		return after
	}
	return value
}

type sixtyForecast struct {
	DailyForecast []struct {
		DayCondition   string     `json:"day_condition"`
		NightCondition string     `json:"night_condition"`
		MaxTemperature flexString `json:"max_temperature"`
		MinTemperature flexString `json:"min_temperature"`
	} `json:"daily_forecast"`
}

// Forecast returns up to days rows starting today, labelled relative to
// today.
func (s *Sixty) Forecast(ctx context.Context, location string, days int, today time.Time) ([]domain.ForecastDay, error) {
	var raw sixtyForecast
	q := url.Values{"query": {location}, "days": {strconv.Itoa(days)}}
	if err := s.get(ctx, "/weather/forecast", q, &raw); err != nil {
		return nil, err
	}

	rows := raw.DailyForecast
	if len(rows) > days {
		rows = rows[:days]
	}

	out := make([]domain.ForecastDay, 0, len(rows))
	for i, d := range rows {
		out = append(out, domain.ForecastDay{
			Label:          DayLabel(today, i),
			DayCondition:   d.DayCondition,
			NightCondition: d.NightCondition,
			High:           d.MaxTemperature.String(),
			Low:            d.MinTemperature.String(),
			DayIcon:        DayIcon(d.DayCondition),
			NightIcon:      NightIcon(d.NightCondition),
			Bad:            IsBadWeather(d.DayCondition),
		})
	}
	return out, nil
}

// Bing returns the wallpaper of the day.
func (s *Sixty) Bing(ctx context.Context) (domain.Wallpaper, error) {
	var raw struct {
		Title     string `json:"title"`
		Cover     string `json:"cover"`
		Copyright string `json:"copyright"`
	}
	if err := s.get(ctx, "/bing", nil, &raw); err != nil {
		return domain.Wallpaper{}, err
	}
	return domain.Wallpaper{Title: raw.Title, Cover: raw.Cover, Copyright: raw.Copyright}, nil
}

// KFC returns the Crazy Thursday copy.
func (s *Sixty) KFC(ctx context.Context) (string, error) {
	var raw struct {
		KFC string `json:"kfc"`
	}
	if err := s.get(ctx, "/kfc", nil, &raw); err != nil {
		return "", err
	}
	return raw.KFC, nil
}

// News returns the "60 seconds" headline list.
func (s *Sixty) News(ctx context.Context) ([]string, error) {
	var raw struct {
		News []string `json:"news"`
	}
	if err := s.get(ctx, "/60s", nil, &raw); err != nil {
		return nil, err
	}
	return raw.News, nil
}

// HotList fetches one trending list, top 10 entries.
func (s *Sixty) HotList(ctx context.Context, def HotListDef) (domain.HotList, error) {
	var raw []hotItem
	if def.listed {
		var wrapped struct {
			List []hotItem `json:"list"`
		}
		if err := s.get(ctx, def.Path, nil, &wrapped); err != nil {
			return domain.HotList{}, err
		}
		raw = wrapped.List
	} else if err := s.get(ctx, def.Path, nil, &raw); err != nil {
		return domain.HotList{}, err
	}

	if len(raw) > hotListSize {
		raw = raw[:hotListSize]
	}

	items := make([]domain.HotItem, 0, len(raw))
	for i, it := range raw {
		item := def.mapItem(it)
		if item.Rank == 0 {
			item.Rank = i + 1
		}
		items = append(items, item)
	}

	return domain.HotList{Key: def.Key, Name: def.Name, Items: items}, nil
}
