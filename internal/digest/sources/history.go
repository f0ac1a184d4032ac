package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
)

// Boards tracked in the price history file.
const (
	BoardExchange = "exchange"
	BoardGold     = "gold"
	BoardFuel     = "fuel"
)

// Change colours. Up is red and down is green, as on Chinese exchanges.
const (
	colorUp   = "#ef4444"
	colorDown = "#22c55e"
	colorFlat = "#94a3b8"
)

// PriceHistory keeps the last seen price per board and item so each run can
// show the movement since the previous one. The file looks like
// {"exchange": {"USD": 7.1}, "gold": {...}, "fuel": {...}}.
//
// A nil PriceHistory or one with an empty Path remembers nothing.
type PriceHistory struct {
	Path string

	mu sync.Mutex
}

func NewPriceHistory(path string) *PriceHistory {
	return &PriceHistory{Path: path}
}

// Swap stores next as board's prices and returns what was stored before.
// Boards are swapped from parallel sources, so the read-modify-write of the
// file is serialised.
func (h *PriceHistory) Swap(board string, next map[string]float64) (map[string]float64, error) {
	if h == nil || h.Path == "" {
		return nil, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	doc, err := h.load()
	if err != nil {
		return nil, err
	}
	prev := doc[board]
	doc[board] = next

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return prev, err
	}
	if err := os.MkdirAll(filepath.Dir(h.Path), 0o755); err != nil {
		return prev, fmt.Errorf("sources: save price history: %w", err)
	}
	if err := os.WriteFile(h.Path, raw, 0o644); err != nil {
		return prev, fmt.Errorf("sources: save price history: %w", err)
	}
	return prev, nil
}

// Load returns the whole history, empty when the file doesn't exist yet.
func (h *PriceHistory) Load() (map[string]map[string]float64, error) {
	if h == nil || h.Path == "" {
		return map[string]map[string]float64{}, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load()
}

func (h *PriceHistory) load() (map[string]map[string]float64, error) {
	doc := map[string]map[string]float64{}
	raw, err := os.ReadFile(h.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sources: read price history: %w", err)
	}
	// A corrupt file is treated as empty and overwritten on save.
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return map[string]map[string]float64{}, nil
	}
	return doc, nil
}

// RateChange is the percentage movement of an exchange rate. Moves under
// 0.0001 are flat.
func RateChange(last, current float64) domain.Change {
	if last <= 0 {
		return domain.Change{Color: colorFlat}
	}
	diff := current - last
	pct := math.Abs(diff / last * 100)
	switch {
	case diff > 0.0001:
		return domain.Change{Text: fmt.Sprintf("↑ %.2f%%", pct), Color: colorUp}
	case diff < -0.0001:
		return domain.Change{Text: fmt.Sprintf("↓ %.2f%%", pct), Color: colorDown}
	}
	return domain.Change{Text: "-", Color: colorFlat}
}

// PriceChange is the absolute movement of a metal or fuel price. Moves under
// 0.01 are flat.
func PriceChange(last, current float64) domain.Change {
	if last <= 0 {
		return domain.Change{Color: colorFlat}
	}
	diff := current - last
	switch {
	case diff > 0.01:
		return domain.Change{Text: fmt.Sprintf("↑ %.2f", diff), Color: colorUp}
	case diff < -0.01:
		return domain.Change{Text: fmt.Sprintf("↓ %.2f", -diff), Color: colorDown}
	}
	return domain.Change{Text: "-", Color: colorFlat}
}
