package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
	"github.com/aussiebroadwan/dailydigest/pkg/httpx"
)

// precipWindow is how many 5 minute points are inspected (two hours).
const precipWindow = 24

// QWeather calls the weather provider's token-authenticated endpoints.
type QWeather struct {
	Host string // normalised https://host, no trailing slash
	Lat  string
	Lon  string
	HTTP *http.Client

	// Location renders provider timestamps, defaults to time.Local.
	Location *time.Location
}

func (q *QWeather) headers(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

type minutelyResponse struct {
	Code       string `json:"code"`
	UpdateTime string `json:"updateTime"`
	Summary    string `json:"summary"`
	Minutely   []struct {
		FxTime string     `json:"fxTime"`
		Precip flexString `json:"precip"`
		Type   string     `json:"type"`
	} `json:"minutely"`
}

// Precipitation returns the two hour precipitation outlook.
func (q *QWeather) Precipitation(ctx context.Context, token string) (domain.Precipitation, error) {
	u := fmt.Sprintf("%s/v7/minutely/5m?%s", q.Host, url.Values{"location": {q.Lon + "," + q.Lat}}.Encode())

	var raw minutelyResponse
	if err := httpx.GetJSON(ctx, q.HTTP, u, q.headers(token), &raw); err != nil {
		return domain.Precipitation{}, err
	}
	if raw.Code != "200" {
		return domain.Precipitation{}, &APIError{API: "qweather minutely", Code: raw.Code}
	}

	out := domain.Precipitation{
		Kind:      "无",
		Intensity: "无降水",
		Summary:   raw.Summary,
		Updated:   raw.UpdateTime,
	}
	if out.Summary == "" {
		out.Summary = "暂无降水"
	}

	points := raw.Minutely
	if len(points) > precipWindow {
		points = points[:precipWindow]
	}

	kind := ""
	for _, p := range points {
		amount := p.Precip.Float()
		if amount <= 0 {
			continue
		}
		if !out.Has {
			out.Has = true
			out.Start = q.clock(p.FxTime)
			kind = p.Type
			if kind == "" {
				kind = "rain"
			}
		}
		out.End = q.clock(p.FxTime)
		out.Max = max(out.Max, amount)
	}

	if out.Has {
		out.Intensity, out.Severe = PrecipIntensity(kind, out.Max)
		switch kind {
		case "rain":
			out.Kind = "雨"
		case "snow":
			out.Kind = "雪"
		}
	}

	return out, nil
}

// clock renders an RFC 3339 timestamp as HH:MM.
func (q *QWeather) clock(ts string) string {
	t, err := time.Parse("2006-01-02T15:04Z07:00", ts)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, ts); err != nil {
			return ts
		}
	}
	return t.In(q.loc()).Format("15:04")
}

func (q *QWeather) stamp(ts string) string {
	if ts == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		if t, err = time.Parse("2006-01-02T15:04Z07:00", ts); err != nil {
			return ts
		}
	}
	return t.In(q.loc()).Format("2006-01-02 15:04")
}

func (q *QWeather) loc() *time.Location {
	if q.Location != nil {
		return q.Location
	}
	return time.Local
}

type alertResponse struct {
	Metadata struct {
		ZeroResult bool `json:"zeroResult"`
	} `json:"metadata"`
	Alerts []struct {
		Headline    string `json:"headline"`
		Description string `json:"description"`
		Instruction string `json:"instruction"`
		Severity    string `json:"severity"`
		IssuedTime  string `json:"issuedTime"`
		Effective   string `json:"effectiveTime"`
		Expire      string `json:"expireTime"`
		EventType   struct {
			Name string `json:"name"`
		} `json:"eventType"`
		Color struct {
			Code string `json:"code"`
		} `json:"color"`
	} `json:"alerts"`
}

// Alerts returns the active weather warnings at the configured point.
func (q *QWeather) Alerts(ctx context.Context, token string) ([]domain.Alert, error) {
	u := fmt.Sprintf("%s/weatheralert/v1/current/%s/%s?localTime=true",
		q.Host, url.PathEscape(q.Lat), url.PathEscape(q.Lon))

	var raw alertResponse
	if err := httpx.GetJSON(ctx, q.HTTP, u, q.headers(token), &raw); err != nil {
		return nil, err
	}
	if raw.Metadata.ZeroResult {
		return nil, nil
	}

	out := make([]domain.Alert, 0, len(raw.Alerts))
	for _, a := range raw.Alerts {
		alert := domain.Alert{
			Type:        orDefault(a.EventType.Name, "未知"),
			Level:       AlertColor(a.Color.Code),
			ColorCode:   a.Color.Code,
			Headline:    orDefault(a.Headline, "天气预警"),
			Description: orDefault(a.Description, orDefault(a.Headline, "无详细描述")),
			Severity:    AlertSeverity(a.Severity),
			Instruction: orDefault(a.Instruction, "请关注官方预警信息"),
			Issued:      orDefault(q.stamp(a.IssuedTime), "未知时间"),
			Effective:   orDefault(q.stamp(a.Effective), "立即生效"),
			Expires:     orDefault(q.stamp(a.Expire), "未知"),
		}
		out = append(out, alert)
	}
	return out, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
