package sources

import (
	"context"
	"math"
	"net/url"
	"strconv"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
	"github.com/aussiebroadwan/dailydigest/pkg/slogx"
)

const (
	historySize     = 10
	historyDescSize = 60
)

// ExchangeCurrencies are the currencies shown on the board, in order.
var ExchangeCurrencies = []struct{ Code, Name string }{
	{"USD", "美元"},
	{"EUR", "欧元"},
	{"JPY", "日元"},
	{"HKD", "港币"},
	{"GBP", "英镑"},
}

// Luck returns today's fortune.
func (s *Sixty) Luck(ctx context.Context) (domain.Luck, error) {
	var raw struct {
		Desc string     `json:"luck_desc"`
		Tip  string     `json:"luck_tip"`
		Rank flexString `json:"luck_rank"`
	}
	if err := s.get(ctx, "/luck", nil, &raw); err != nil {
		return domain.Luck{}, err
	}
	return domain.Luck{Desc: raw.Desc, Tip: raw.Tip, Rank: raw.Rank.String()}, nil
}

// HistoryToday returns the first ten "on this day" events.
func (s *Sixty) HistoryToday(ctx context.Context) ([]domain.HistoryEvent, error) {
	var raw struct {
		Items []struct {
			Year        flexString `json:"year"`
			Title       string     `json:"title"`
			Description string     `json:"description"`
		} `json:"items"`
	}
	if err := s.get(ctx, "/today-in-history", nil, &raw); err != nil {
		return nil, err
	}

	items := raw.Items
	if len(items) > historySize {
		items = items[:historySize]
	}
	out := make([]domain.HistoryEvent, 0, len(items))
	for _, it := range items {
		out = append(out, domain.HistoryEvent{
			Year:        it.Year.String(),
			Title:       it.Title,
			Description: truncate(it.Description, historyDescSize),
		})
	}
	return out, nil
}

// truncate cuts s to n runes and marks the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// AINews returns the AI headline list.
func (s *Sixty) AINews(ctx context.Context) ([]domain.AINews, error) {
	var raw struct {
		News []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
			Link   string `json:"link"`
			Source string `json:"source"`
		} `json:"news"`
	}
	if err := s.get(ctx, "/ai-news", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.AINews, 0, len(raw.News))
	for _, n := range raw.News {
		out = append(out, domain.AINews{Title: n.Title, Detail: n.Detail, Link: n.Link, Source: n.Source})
	}
	return out, nil
}

// Moyu returns the work calendar progress and countdowns.
func (s *Sixty) Moyu(ctx context.Context) (domain.Moyu, error) {
	type percent struct {
		Percentage flexString `json:"percentage"`
	}
	var raw struct {
		Progress struct {
			Week  percent `json:"week"`
			Month percent `json:"month"`
			Year  percent `json:"year"`
		} `json:"progress"`
		Countdown struct {
			ToWeekEnd  flexString `json:"toWeekEnd"`
			ToFriday   flexString `json:"toFriday"`
			ToMonthEnd flexString `json:"toMonthEnd"`
			ToYearEnd  flexString `json:"toYearEnd"`
		} `json:"countdown"`
		NextHoliday struct {
			Name  string     `json:"name"`
			Date  string     `json:"date"`
			Until flexString `json:"until"`
		} `json:"nextHoliday"`
		Quote string `json:"moyuQuote"`
	}
	if err := s.get(ctx, "/moyu", nil, &raw); err != nil {
		return domain.Moyu{}, err
	}
	return domain.Moyu{
		WeekProgress:     orZero(raw.Progress.Week.Percentage),
		MonthProgress:    orZero(raw.Progress.Month.Percentage),
		YearProgress:     orZero(raw.Progress.Year.Percentage),
		ToWeekend:        orZero(raw.Countdown.ToWeekEnd),
		ToFriday:         orZero(raw.Countdown.ToFriday),
		ToMonthEnd:       orZero(raw.Countdown.ToMonthEnd),
		ToYearEnd:        orZero(raw.Countdown.ToYearEnd),
		NextHoliday:      raw.NextHoliday.Name,
		NextHolidayDate:  raw.NextHoliday.Date,
		NextHolidayUntil: orZero(raw.NextHoliday.Until),
		Quote:            raw.Quote,
	}, nil
}

func orZero(v flexString) string {
	if v == "" {
		return "0"
	}
	return v.String()
}

// Exchange returns the CNY price of each of ExchangeCurrencies and records
// it in hist. The API quotes 1 CNY in the foreign currency, so rates are
// inverted.
func (s *Sixty) Exchange(ctx context.Context, hist *PriceHistory) (domain.Exchange, error) {
	var raw struct {
		Updated string `json:"updated"`
		Rates   []struct {
			Currency string     `json:"currency"`
			Rate     flexString `json:"rate"`
		} `json:"rates"`
	}
	if err := s.get(ctx, "/exchange-rate", url.Values{"currency": {"CNY"}}, &raw); err != nil {
		return domain.Exchange{}, err
	}

	byCode := make(map[string]float64, len(raw.Rates))
	for _, r := range raw.Rates {
		byCode[r.Currency] = r.Rate.Float()
	}

	current := map[string]float64{}
	for _, c := range ExchangeCurrencies {
		if v := byCode[c.Code]; v > 0 {
			current[c.Code] = math.Round(1/v*10000) / 10000
		}
	}
	last := swapHistory(ctx, hist, BoardExchange, current)

	out := domain.Exchange{Updated: raw.Updated}
	for _, c := range ExchangeCurrencies {
		rate, ok := current[c.Code]
		if !ok {
			continue
		}
		out.Rates = append(out.Rates, domain.ExchangeRate{
			Code:   c.Code,
			Name:   c.Name,
			Rate:   strconv.FormatFloat(rate, 'f', 4, 64),
			Change: RateChange(last[c.Code], rate),
		})
	}
	return out, nil
}

// Gold returns metal and retail gold prices and records the metal prices in
// hist.
func (s *Sixty) Gold(ctx context.Context, hist *PriceHistory) (domain.Gold, error) {
	var raw struct {
		Date   string `json:"date"`
		Metals []struct {
			Name       string     `json:"name"`
			TodayPrice flexString `json:"today_price"`
			Unit       string     `json:"unit"`
		} `json:"metals"`
		Stores []struct {
			Brand   string     `json:"brand"`
			Product string     `json:"product"`
			Price   flexString `json:"price"`
			Unit    string     `json:"unit"`
		} `json:"stores"`
	}
	if err := s.get(ctx, "/gold-price", nil, &raw); err != nil {
		return domain.Gold{}, err
	}

	current := make(map[string]float64, len(raw.Metals))
	for _, m := range raw.Metals {
		current[m.Name] = m.TodayPrice.Float()
	}
	last := swapHistory(ctx, hist, BoardGold, current)

	out := domain.Gold{Date: raw.Date}
	for _, m := range raw.Metals {
		out.Metals = append(out.Metals, domain.Price{
			Name:   m.Name,
			Value:  m.TodayPrice.String(),
			Unit:   m.Unit,
			Change: PriceChange(last[m.Name], current[m.Name]),
		})
	}
	for i, st := range raw.Stores {
		if i == 3 {
			break
		}
		out.Stores = append(out.Stores, domain.GoldStore{
			Brand: st.Brand, Product: st.Product, Price: st.Price.String(), Unit: st.Unit,
		})
	}
	return out, nil
}

// Fuel returns the fuel prices for region and records them in hist.
func (s *Sixty) Fuel(ctx context.Context, region string, hist *PriceHistory) ([]domain.Price, error) {
	var raw struct {
		Items []struct {
			Name      string     `json:"name"`
			Price     flexString `json:"price"`
			PriceDesc string     `json:"price_desc"`
		} `json:"items"`
	}
	if err := s.get(ctx, "/fuel-price", url.Values{"region": {region}}, &raw); err != nil {
		return nil, err
	}

	current := make(map[string]float64, len(raw.Items))
	for _, it := range raw.Items {
		current[it.Name] = it.Price.Float()
	}
	last := swapHistory(ctx, hist, BoardFuel, current)

	out := make([]domain.Price, 0, len(raw.Items))
	for _, it := range raw.Items {
		out = append(out, domain.Price{
			Name:   it.Name,
			Value:  it.Price.String(),
			Desc:   it.PriceDesc,
			Change: PriceChange(last[it.Name], current[it.Name]),
		})
	}
	return out, nil
}

// swapHistory records current and returns the previous prices. A history
// file that can't be written only costs the change column.
func swapHistory(ctx context.Context, hist *PriceHistory, board string, current map[string]float64) map[string]float64 {
	last, err := hist.Swap(board, current)
	if err != nil {
		slogx.FromContext(ctx).Warn("price_history_failed", "board", board, "error", err)
	}
	return last
}
