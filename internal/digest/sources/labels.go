package sources

import (
	"strings"
	"time"
)

var weekdays = [...]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

// Weekday returns the Chinese short weekday name.
func Weekday(t time.Time) string {
	return weekdays[t.Weekday()]
}

// DayLabel names the forecast row offset days after today.
func DayLabel(today time.Time, offset int) string {
	switch offset {
	case 0:
		return "今天"
	case 1:
		return "明天"
	case 2:
		return "后天"
	}
	return Weekday(today.AddDate(0, 0, offset))
}

var conditionIcons = map[string]string{
	"晴":   "☀️",
	"多云":  "⛅",
	"阴":   "☁️",
	"雨":   "🌧️",
	"雪":   "❄️",
	"雷":   "⛈️",
	"雾":   "🌫️",
	"小雨":  "🌦️",
	"中雨":  "🌧️",
	"大雨":  "🌧️",
	"暴雨":  "⛈️",
	"阵雨":  "🌦️",
	"雷阵雨": "⛈️",
}

// DayIcon maps a condition to an emoji, with a daytime default.
func DayIcon(condition string) string {
	if icon, ok := conditionIcons[condition]; ok {
		return icon
	}
	return "🌤️"
}

// NightIcon maps a condition to an emoji, with a night default.
func NightIcon(condition string) string {
	if icon, ok := conditionIcons[condition]; ok {
		return icon
	}
	return "🌙"
}

// IsBadWeather flags rain, snow and thunder.
func IsBadWeather(condition string) bool {
	return strings.Contains(condition, "雨") ||
		strings.Contains(condition, "雪") ||
		strings.Contains(condition, "雷")
}

// PrecipIntensity grades the peak 5 minute amount. Snow tops out at 大雪.
func PrecipIntensity(kind string, amount float64) (label string, severe bool) {
	if kind == "snow" {
		switch {
		case amount < 0.1:
			return "小雪", false
		case amount < 0.25:
			return "中雪", false
		default:
			return "大雪", true
		}
	}

	switch {
	case amount < 0.1:
		return "小雨", false
	case amount < 0.25:
		return "中雨", false
	case amount < 0.5:
		return "大雨", true
	default:
		return "暴雨", true
	}
}

var alertColors = map[string]string{
	"blue":   "蓝色",
	"green":  "绿色",
	"yellow": "黄色",
	"orange": "橙色",
	"red":    "红色",
	"black":  "黑色",
}

var alertSeverities = map[string]string{
	"minor":    "轻微",
	"moderate": "中等",
	"severe":   "严重",
	"extreme":  "极端",
}

// AlertColor translates a warning colour code, falling back to the code.
func AlertColor(code string) string {
	return labelOr(alertColors, code)
}

// AlertSeverity translates a warning severity, falling back to the value.
func AlertSeverity(severity string) string {
	return labelOr(alertSeverities, severity)
}

var hitokotoTypes = map[string]string{
	"a": "动画",
	"b": "漫画",
	"c": "游戏",
	"d": "文学",
	"e": "原创",
	"f": "网络",
	"g": "其他",
	"h": "影视",
	"i": "诗词",
	"j": "网易云",
	"k": "哲学",
	"l": "抖机灵",
}

// HitokotoType names a hitokoto category code.
func HitokotoType(code string) string {
	if name, ok := hitokotoTypes[code]; ok {
		return name
	}
	return "未知"
}

func labelOr(m map[string]string, key string) string {
	if label, ok := m[key]; ok {
		return label
	}
	if key == "" {
		return "未知"
	}
	return key
}
