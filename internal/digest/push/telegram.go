package push

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/dailydigest/pkg/httpx"
)

// DefaultTelegramAPI is the Bot API base URL.
const DefaultTelegramAPI = "https://api.telegram.org"

// telegramMaxText is the sendMessage text limit in characters.
const telegramMaxText = 4096

// Telegram posts plain text digests to a single chat.
type Telegram struct {
	BaseURL  string
	BotToken string
	ChatID   string
	HTTP     *http.Client
}

func NewTelegram(botToken, chatID string, c *http.Client) *Telegram {
	return &Telegram{BaseURL: DefaultTelegramAPI, BotToken: botToken, ChatID: chatID, HTTP: c}
}

// Enabled reports whether both the bot token and chat id are set.
func (t *Telegram) Enabled() bool {
	return t != nil && t.BotToken != "" && t.ChatID != ""
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Send delivers text and returns the Telegram message id.
func (t *Telegram) Send(ctx context.Context, text string) (string, error) {
	if !t.Enabled() {
		return "", fmt.Errorf("push: telegram is not configured")
	}

	if r := []rune(text); len(r) > telegramMaxText {
		text = string(r[:telegramMaxText-1]) + "…"
	}

	url := strings.TrimRight(t.BaseURL, "/") + "/bot" + t.BotToken + "/sendMessage"
	body := map[string]any{
		"chat_id":                  t.ChatID,
		"text":                     text,
		"disable_web_page_preview": true,
	}

	var resp telegramResponse
	if err := httpx.PostJSON(ctx, t.HTTP, url, body, &resp); err != nil {
		return "", fmt.Errorf("push: telegram: %w", err)
	}
	if !resp.OK {
		return "", fmt.Errorf("push: telegram rejected message: %s", resp.Description)
	}
	return fmt.Sprintf("%d", resp.Result.MessageID), nil
}
