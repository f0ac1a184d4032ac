package compose

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var alertColors = map[string]string{
	"blue":   "#3b82f6",
	"green":  "#22c55e",
	"yellow": "#facc15",
	"orange": "#f97316",
	"red":    "#ef4444",
	"black":  "#94a3b8",
}

func alertColor(code string) string {
	if c, ok := alertColors[code]; ok {
		return c
	}
	return "#f59e0b"
}

func rankColor(rank int) string {
	switch rank {
	case 1:
		return "#ef4444"
	case 2:
		return "#f97316"
	case 3:
		return "#facc15"
	}
	return "#64748b"
}

var digestTemplate = template.Must(
	template.New("digest").
		Funcs(template.FuncMap{
			"alertColor": alertColor,
			"rankColor":  rankColor,
		}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// RenderHTML renders the digest as the HTML body pushed to WxPusher.
// Sections with no data are left out.
func RenderHTML(d domain.Digest) (string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.ExecuteTemplate(&buf, "digest", d); err != nil {
		return "", fmt.Errorf("compose: render html: %w", err)
	}
	return buf.String(), nil
}

func changeSuffix(c domain.Change) string {
	if c.Text == "" {
		return ""
	}
	return " (" + c.Text + ")"
}

// RenderText renders a plain text digest for channels without HTML.
func RenderText(d domain.Digest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📅 %s\n", d.Time.DateTime)

	if l := d.Luck; l != nil {
		fmt.Fprintf(&b, "🔮 今日运势: %s · %s\n", l.Desc, l.Tip)
	}

	if q := d.Quote; q != nil {
		fmt.Fprintf(&b, "\n「%s」\n—— %s · %s\n", q.Text, q.From, q.TypeName)
	}

	if w := d.Weather; w != nil {
		fmt.Fprintf(&b, "\n%s %s %s°C %s\n湿度 %s%% · %s %s · 空气 %s (%d)\n",
			w.City, w.Icon, w.Temperature, w.Condition,
			w.Humidity, w.WindDirection, w.WindPower, w.AirQuality, w.AQI)
	}

	if p := d.Precipitation; p != nil {
		if p.Has {
			fmt.Fprintf(&b, "☔ %s %s-%s %s\n", p.Intensity, p.Start, p.End, p.Summary)
		} else {
			fmt.Fprintf(&b, "🌂 %s\n", p.Summary)
		}
	}

	for _, a := range d.Alerts {
		fmt.Fprintf(&b, "⚠️ %s%s预警 (%s): %s\n", a.Type, a.Level, a.Severity, a.Headline)
	}

	if len(d.Forecast) > 0 {
		b.WriteString("\n")
		for _, f := range d.Forecast {
			fmt.Fprintf(&b, "%s %s%s/%s %s°~%s°\n", f.Label, f.DayIcon, f.DayCondition, f.NightCondition, f.Low, f.High)
		}
	}

	if d.KFC != "" {
		fmt.Fprintf(&b, "\n🍗 疯狂星期四\n%s\n", d.KFC)
	}

	if len(d.News) > 0 {
		b.WriteString("\n📰 60秒读懂世界\n")
		for i, n := range d.News {
			fmt.Fprintf(&b, "%d. %s\n", i+1, n)
		}
	}

	if len(d.AINews) > 0 {
		b.WriteString("\n🤖 AI资讯\n")
		for i, n := range d.AINews {
			fmt.Fprintf(&b, "%d. %s\n", i+1, n.Title)
		}
	}

	if len(d.History) > 0 {
		b.WriteString("\n📜 历史上的今天\n")
		for _, e := range d.History {
			fmt.Fprintf(&b, "%s %s\n", e.Year, e.Title)
		}
	}

	if ex := d.Exchange; ex != nil {
		b.WriteString("\n💱 汇率\n")
		for _, r := range ex.Rates {
			fmt.Fprintf(&b, "%s 1 %s = %s CNY%s\n", r.Name, r.Code, r.Rate, changeSuffix(r.Change))
		}
	}

	if g := d.Gold; g != nil {
		b.WriteString("\n🪙 金价\n")
		for _, p := range g.Metals {
			fmt.Fprintf(&b, "%s %s %s%s\n", p.Name, p.Value, p.Unit, changeSuffix(p.Change))
		}
	}

	if len(d.Fuel) > 0 {
		b.WriteString("\n⛽ 油价\n")
		for _, p := range d.Fuel {
			fmt.Fprintf(&b, "%s %s%s\n", p.Name, p.Value, changeSuffix(p.Change))
		}
	}

	if m := d.Moyu; m != nil {
		fmt.Fprintf(&b, "\n🐟 本周 %s%% · 本月 %s%% · 本年 %s%%\n", m.WeekProgress, m.MonthProgress, m.YearProgress)
		if m.Quote != "" {
			fmt.Fprintf(&b, "%s\n", m.Quote)
		}
	}

	for _, l := range d.HotLists {
		fmt.Fprintf(&b, "\n🔥 %s\n", l.Name)
		for _, it := range l.Items {
			fmt.Fprintf(&b, "%d. %s\n", it.Rank, it.Title)
		}
	}

	return b.String()
}
