package sources

import "github.com/aussiebroadwan/dailydigest/internal/digest/domain"

const hotListSize = 10

// hotItem is the union of the fields the hot list endpoints use.
type hotItem struct {
	Title        string     `json:"title"`
	HotValue     flexString `json:"hot_value"`
	HotValueDesc string     `json:"hot_value_desc"`
	Detail       string     `json:"detail"`
	Score        flexString `json:"score"`
	Desc         string     `json:"desc"`
	Link         string     `json:"link"`
	URL          string     `json:"url"`
	Rank         flexString `json:"rank"`

	// maoyan
	MovieName      string     `json:"movie_name"`
	BoxOffice      flexString `json:"box_office"`
	BoxOfficeUnit  string     `json:"box_office_unit"`
	ProgrammeName  string     `json:"programme_name"`
	MarketRateDesc string     `json:"market_rate_desc"`
	SeriesName     string     `json:"series_name"`
	CurrHeatDesc   string     `json:"curr_heat_desc"`
}

// HotListDef describes one trending list endpoint.
type HotListDef struct {
	Key  string
	Name string
	Path string

	// listed endpoints wrap the entries as {"list": [...]}.
	listed  bool
	mapItem func(hotItem) domain.HotItem
}

func heat(v flexString) string {
	if v == "" {
		return ""
	}
	return "热度: " + v.String()
}

// HotLists is every supported list, in display order.
var HotLists = []HotListDef{
	{Key: "douyin", Name: "抖音", Path: "/douyin", mapItem: func(it hotItem) domain.HotItem {
		return domain.HotItem{Title: it.Title, Desc: heat(it.HotValue), URL: it.Link}
	}},
	{Key: "bili", Name: "B站", Path: "/bili", mapItem: func(it hotItem) domain.HotItem {
		return domain.HotItem{Title: it.Title, URL: it.Link}
	}},
	{Key: "weibo", Name: "微博", Path: "/weibo", mapItem: func(it hotItem) domain.HotItem {
		return domain.HotItem{Title: it.Title, Desc: heat(it.HotValue), URL: it.Link}
	}},
	{Key: "rednote", Name: "小红书", Path: "/rednote", mapItem: func(it hotItem) domain.HotItem {
		return domain.HotItem{Title: it.Title, Desc: heat(it.Score), URL: it.Link, Rank: it.Rank.Int()}
	}},
	{Key: "toutiao", Name: "头条", Path: "/toutiao", mapItem: func(it hotItem) domain.HotItem {
		return domain.HotItem{Title: it.Title, Desc: heat(it.HotValue), URL: it.Link}
	}},
	{Key: "zhihu", Name: "知乎", Path: "/zhihu", mapItem: func(it hotItem) domain.HotItem {
		desc := it.HotValueDesc
		if desc == "" {
			desc = it.Detail
		}
		return domain.HotItem{Title: it.Title, Desc: desc, URL: it.Link}
	}},
	{Key: "quark", Name: "夸克", Path: "/quark", mapItem: func(it hotItem) domain.HotItem {
		return domain.HotItem{Title: it.Title, Desc: it.HotValue.String(), URL: it.Link}
	}},
	{Key: "baidu", Name: "百度", Path: "/baidu/hot", mapItem: func(it hotItem) domain.HotItem {
		return domain.HotItem{Title: it.Title, Desc: it.Desc, URL: it.URL, Rank: it.Rank.Int()}
	}},
	{Key: "tieba", Name: "贴吧", Path: "/baidu/tieba", mapItem: func(it hotItem) domain.HotItem {
		return domain.HotItem{Title: it.Title, Desc: it.Desc, URL: it.URL, Rank: it.Rank.Int()}
	}},
	{Key: "dongchedi", Name: "懂车帝", Path: "/dongchedi", mapItem: func(it hotItem) domain.HotItem {
		return domain.HotItem{Title: it.Title, URL: it.URL}
	}},
	{Key: "teleplay", Name: "百度电视剧", Path: "/baidu/teleplay", mapItem: func(it hotItem) domain.HotItem {
		return domain.HotItem{Title: it.Title, Desc: it.Desc, URL: it.URL, Rank: it.Rank.Int()}
	}},
	{Key: "movie", Name: "电影", Path: "/maoyan/realtime/movie", listed: true, mapItem: func(it hotItem) domain.HotItem {
		return domain.HotItem{Title: it.MovieName, Desc: it.BoxOffice.String() + it.BoxOfficeUnit}
	}},
	{Key: "tv", Name: "剧集", Path: "/maoyan/realtime/tv", listed: true, mapItem: func(it hotItem) domain.HotItem {
		return domain.HotItem{Title: it.ProgrammeName, Desc: it.MarketRateDesc}
	}},
	{Key: "web", Name: "网剧", Path: "/maoyan/realtime/web", listed: true, mapItem: func(it hotItem) domain.HotItem {
		return domain.HotItem{Title: it.SeriesName, Desc: it.CurrHeatDesc}
	}},
}

// HotListByKey looks a list up by its module key.
func HotListByKey(key string) (HotListDef, bool) {
	for _, def := range HotLists {
		if def.Key == key {
			return def, true
		}
	}
	return HotListDef{}, false
}
