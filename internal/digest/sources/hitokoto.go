package sources

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
	"github.com/aussiebroadwan/dailydigest/pkg/httpx"
)

// DefaultHitokotoAPI is the public hitokoto endpoint.
const DefaultHitokotoAPI = "https://v1.hitokoto.cn"

// Hitokoto fetches a random quote.
type Hitokoto struct {
	URL  string
	HTTP *http.Client
}

func NewHitokoto(url string, c *http.Client) *Hitokoto {
	if url == "" {
		url = DefaultHitokotoAPI
	}
	return &Hitokoto{URL: url, HTTP: c}
}

// Quote returns today's sentence.
func (h *Hitokoto) Quote(ctx context.Context) (domain.Quote, error) {
	var raw struct {
		Hitokoto string `json:"hitokoto"`
		From     string `json:"from"`
		Type     string `json:"type"`
	}
	if err := httpx.GetJSON(ctx, h.HTTP, h.URL, nil, &raw); err != nil {
		return domain.Quote{}, err
	}
	if raw.Hitokoto == "" {
		return domain.Quote{}, errors.New("sources: hitokoto returned an empty sentence")
	}

	from := raw.From
	if from == "" {
		from = "未知"
	}

	return domain.Quote{Text: raw.Hitokoto, From: from, TypeName: HitokotoType(raw.Type)}, nil
}
