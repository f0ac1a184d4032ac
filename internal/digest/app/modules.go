package app

import (
	"sort"
	"strings"

	"github.com/aussiebroadwan/dailydigest/internal/digest/sources"
)

// Module names accepted in DIGEST_MODULES. Hot lists are enabled one by one
// by key (weibo, zhihu, ...) or all together with "hot".
const (
	ModuleWeather  = "weather"
	ModuleBing     = "bing"
	ModuleHitokoto = "hitokoto"
	ModuleKFC      = "kfc"
	ModuleNews     = "news"
	ModuleHot      = "hot"
	ModuleLuck     = "luck"
	ModuleHistory  = "history"
	ModuleExchange = "exchange"
	ModuleGold     = "gold"
	ModuleFuel     = "fuel"
	ModuleMoyu     = "moyu"
	ModuleAINews   = "ainews"
)

// DefaultModules matches what a fresh install pushes.
const DefaultModules = "weather,bing,hitokoto,kfc"

// Modules is the set of enabled digest sections.
type Modules map[string]bool

// ParseModules reads a comma separated module list. Unknown names are kept
// so check-config can report them.
func ParseModules(s string) Modules {
	m := Modules{}
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if name == ModuleHot {
			for _, def := range sources.HotLists {
				m[def.Key] = true
			}
			continue
		}
		m[name] = true
	}
	return m
}

func (m Modules) Enabled(name string) bool { return m[name] }

// HotLists returns the enabled hot lists in display order.
func (m Modules) HotLists() []sources.HotListDef {
	var out []sources.HotListDef
	for _, def := range sources.HotLists {
		if m[def.Key] {
			out = append(out, def)
		}
	}
	return out
}

// Unknown lists names that match no module.
func (m Modules) Unknown() []string {
	var out []string
	for name := range m {
		switch name {
		case ModuleWeather, ModuleBing, ModuleHitokoto, ModuleKFC, ModuleNews,
			ModuleLuck, ModuleHistory, ModuleExchange, ModuleGold, ModuleFuel, ModuleMoyu, ModuleAINews:
			continue
		}
		if _, ok := sources.HotListByKey(name); ok {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// String renders the set in a stable order.
func (m Modules) String() string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
