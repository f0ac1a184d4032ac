package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/dailydigest/pkg/httpx"
)

// DefaultWxPusherURL is the WxPusher send endpoint.
const DefaultWxPusherURL = "https://wxpusher.zjiecode.com/api/send/message"

// wxPusherOK is the code WxPusher answers with on success.
const wxPusherOK = 1000

// contentTypeHTML tells WxPusher the content is HTML.
const contentTypeHTML = 2

var ErrMissingAppToken = errors.New("push: wxpusher app token is not configured")

// SendError is returned when WxPusher rejects a message.
type SendError struct {
	Code    int
	Message string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("push: wxpusher rejected message (code %d): %s", e.Code, e.Message)
}

// WxPusher sends HTML messages to a single WeChat user.
type WxPusher struct {
	AppToken string
	URL      string
	HTTP     *http.Client
}

func NewWxPusher(appToken, url string, c *http.Client) *WxPusher {
	if url == "" {
		url = DefaultWxPusherURL
	}
	return &WxPusher{AppToken: appToken, URL: url, HTTP: c}
}

type wxPusherRequest struct {
	AppToken      string   `json:"appToken"`
	Content       string   `json:"content"`
	Summary       string   `json:"summary"`
	ContentType   int      `json:"contentType"`
	UIDs          []string `json:"uids"`
	TopicIDs      []int    `json:"topicIds"`
	VerifyPayType int      `json:"verifyPayType"`
}

type wxPusherResponse struct {
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
	Success bool   `json:"success"`
	Data    []struct {
		UID              string `json:"uid"`
		MessageContentID int64  `json:"messageContentId"`
		Code             int    `json:"code"`
		Status           string `json:"status"`
	} `json:"data"`
}

// Send pushes content to uid and returns the message content id.
func (w *WxPusher) Send(ctx context.Context, content, summary, uid string) (string, error) {
	if w.AppToken == "" {
		return "", ErrMissingAppToken
	}
	if uid == "" {
		return "", errors.New("push: uid is required")
	}

	req := wxPusherRequest{
		AppToken:      w.AppToken,
		Content:       content,
		Summary:       summary,
		ContentType:   contentTypeHTML,
		UIDs:          []string{uid},
		TopicIDs:      []int{},
		VerifyPayType: 0,
	}

	var resp wxPusherResponse
	if err := httpx.PostJSON(ctx, w.HTTP, w.URL, req, &resp); err != nil {
		return "", fmt.Errorf("push: wxpusher: %w", err)
	}
	if resp.Code != wxPusherOK {
		return "", &SendError{Code: resp.Code, Message: resp.Msg}
	}

	var id string
	if len(resp.Data) > 0 && resp.Data[0].MessageContentID != 0 {
		id = fmt.Sprintf("%d", resp.Data[0].MessageContentID)
	}
	return id, nil
}
