package domain

import "time"

// Weather is the current conditions block.
type Weather struct {
	City          string
	Temperature   string
	Condition     string
	Humidity      string
	WindDirection string
	WindPower     string
	AirQuality    string
	AQI           int
	Sunrise       string
	Sunset        string
	Icon          string
}

// ForecastDay is one row of the multi-day forecast.
type ForecastDay struct {
	Label          string // 今天, 明天, 后天 or a weekday
	DayCondition   string
	NightCondition string
	High           string
	Low            string
	DayIcon        string
	NightIcon      string
	Bad            bool // rain, snow or thunder during the day
}

// Precipitation summarises the next two hours of minutely precipitation.
type Precipitation struct {
	Has       bool
	Kind      string // 雨, 雪 or 无
	Intensity string // 小雨 .. 暴雨, 小雪 .. 大雪, 无降水
	Start     string // HH:MM, empty when dry
	End       string
	Max       float64
	Summary   string
	Updated   string
	Severe    bool
}

// Alert is one active weather warning.
type Alert struct {
	Type        string
	Level       string // colour label, e.g. 橙色
	ColorCode   string
	Headline    string
	Description string
	Severity    string
	Instruction string
	Issued      string
	Effective   string
	Expires     string
}

// Wallpaper is the Bing picture of the day.
type Wallpaper struct {
	Title     string
	Cover     string
	Copyright string
}

// Quote is the hitokoto sentence of the day.
type Quote struct {
	Text     string
	From     string
	TypeName string
}

// HotItem is one entry of a trending list.
type HotItem struct {
	Rank  int
	Title string
	Desc  string
	URL   string
}

// HotList is a named trending list.
type HotList struct {
	Key   string
	Name  string
	Items []HotItem
}

// Luck is the daily fortune line.
type Luck struct {
	Desc string
	Tip  string
	Rank string
}

// HistoryEvent is one "on this day" entry.
type HistoryEvent struct {
	Year        string
	Title       string
	Description string
}

// Change is a day-over-day movement rendered as an arrow and amount, e.g.
// "↑ 0.12%". Text is empty when there is no previous value to compare with.
type Change struct {
	Text  string
	Color string
}

// ExchangeRate is the CNY price of one unit of a foreign currency.
type ExchangeRate struct {
	Code   string
	Name   string
	Rate   string
	Change Change
}

// Exchange is the currency board.
type Exchange struct {
	Updated string
	Rates   []ExchangeRate
}

// Price is one quoted commodity price, a metal or a fuel grade.
type Price struct {
	Name   string
	Value  string
	Unit   string
	Desc   string
	Change Change
}

// GoldStore is a retail brand's gold quote.
type GoldStore struct {
	Brand   string
	Product string
	Price   string
	Unit    string
}

// Gold is the precious metal board.
type Gold struct {
	Date   string
	Metals []Price
	Stores []GoldStore
}

// Moyu is the "slacker's calendar": how far through the week, month and
// year we are and how long until the next break.
type Moyu struct {
	WeekProgress  string
	MonthProgress string
	YearProgress  string

	ToWeekend  string
	ToFriday   string
	ToMonthEnd string
	ToYearEnd  string

	NextHoliday      string
	NextHolidayDate  string
	NextHolidayUntil string

	Quote string
}

// AINews is one AI industry headline.
type AINews struct {
	Title  string
	Detail string
	Link   string
	Source string
}

// TimeInfo is the run time rendered in the configured time zone.
type TimeInfo struct {
	Now        time.Time
	DateTime   string // 2006/01/02 周一 15:04:05, also the push summary
	Date       string // 01月02日
	Weekday    string
	IsThursday bool
}

// Digest is everything one run collected. Nil or empty fields are sections
// that were disabled or whose source failed.
type Digest struct {
	Time          TimeInfo
	Weather       *Weather
	Forecast      []ForecastDay
	Precipitation *Precipitation
	Alerts        []Alert
	Wallpaper     *Wallpaper
	Quote         *Quote
	KFC           string
	News          []string
	HotLists      []HotList
	Luck          *Luck
	History       []HistoryEvent
	Exchange      *Exchange
	Gold          *Gold
	Fuel          []Price
	Moyu          *Moyu
	AINews        []AINews
}

// RunRecord is the audit row kept for each finished run.
type RunRecord struct {
	ID          string
	Scheduled   bool
	TokenSource string
	MessageID   string
	StartedAt   time.Time
}
