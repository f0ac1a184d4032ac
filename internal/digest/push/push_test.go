package push_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/dailydigest/internal/digest/push"
	"github.com/stretchr/testify/require"
)

func TestWxPusherSend(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"code":1000,"msg":"处理成功","data":[{"uid":"UID_1","messageContentId":123456,"code":1000}],"success":true}`))
	}))
	defer srv.Close()

	w := push.NewWxPusher("AT_test", srv.URL, srv.Client())
	id, err := w.Send(context.Background(), "<p>hi</p>", "2025/06/05 周四 08:00:00", "UID_1")
	require.NoError(t, err)
	require.Equal(t, "123456", id)

	require.Equal(t, "AT_test", got["appToken"])
	require.Equal(t, "<p>hi</p>", got["content"])
	require.Equal(t, "2025/06/05 周四 08:00:00", got["summary"])
	require.EqualValues(t, 2, got["contentType"])
	require.Equal(t, []any{"UID_1"}, got["uids"])
	require.Equal(t, []any{}, got["topicIds"])
	require.EqualValues(t, 0, got["verifyPayType"])
}

func TestWxPusherRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":1001,"msg":"appToken不正确","success":false}`))
	}))
	defer srv.Close()

	_, err := push.NewWxPusher("AT_bad", srv.URL, srv.Client()).Send(context.Background(), "x", "y", "UID_1")

	var sendErr *push.SendError
	require.ErrorAs(t, err, &sendErr)
	require.Equal(t, 1001, sendErr.Code)
	require.Equal(t, "appToken不正确", sendErr.Message)
}

func TestWxPusherRequiresAppToken(t *testing.T) {
	_, err := push.NewWxPusher("", "", nil).Send(context.Background(), "x", "y", "UID_1")
	require.ErrorIs(t, err, push.ErrMissingAppToken)
}

func uidAPI(t *testing.T, body string, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func readStored(t *testing.T, path string) push.StoredUID {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var s push.StoredUID
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func fixedNow() time.Time { return time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC) }

func TestResolveScheduledFetchesAndStores(t *testing.T) {
	srv, _ := uidAPI(t, `{"code":200,"data":[{"uid":"UID_new"}]}`, http.StatusOK)
	path := filepath.Join(t.TempDir(), "data", "latest_uid.json")

	r := push.NewUIDResolver(srv.URL, path, srv.Client())
	r.Now = fixedNow

	uid, err := r.Resolve(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, "UID_new", uid)

	s := readStored(t, path)
	require.Equal(t, push.StoredUID{
		UID:     "UID_new",
		Updated: "2025-06-05T00:00:00.000Z",
		Trigger: push.TriggerScheduled,
		Source:  push.SourceAPI,
	}, s)
}

func TestResolveScheduledFallsBackToStored(t *testing.T) {
	for name, tc := range map[string]struct {
		body   string
		status int
	}{
		"server error": {`oops`, http.StatusBadGateway},
		"empty data":   {`{"code":200,"data":[]}`, http.StatusOK},
		"bad code":     {`{"code":500}`, http.StatusOK},
	} {
		t.Run(name, func(t *testing.T) {
			srv, _ := uidAPI(t, tc.body, tc.status)
			path := filepath.Join(t.TempDir(), "latest_uid.json")
			require.NoError(t, os.WriteFile(path, []byte(`{"uid":"UID_old","updated":"2025-06-01T00:00:00.000Z","trigger":"scheduled","source":"api"}`), 0o644))

			uid, err := push.NewUIDResolver(srv.URL, path, srv.Client()).Resolve(context.Background(), true)
			require.NoError(t, err)
			require.Equal(t, "UID_old", uid)

			// The fallback leaves the stored document alone
			require.Equal(t, "2025-06-01T00:00:00.000Z", readStored(t, path).Updated)
		})
	}
}

func TestResolveScheduledNothingAvailable(t *testing.T) {
	srv, _ := uidAPI(t, `nope`, http.StatusInternalServerError)
	path := filepath.Join(t.TempDir(), "latest_uid.json")

	_, err := push.NewUIDResolver(srv.URL, path, srv.Client()).Resolve(context.Background(), true)
	require.ErrorIs(t, err, push.ErrNoStoredUID)
}

func TestResolveManualUsesStoredOnly(t *testing.T) {
	srv, calls := uidAPI(t, `{"code":200,"data":[{"uid":"UID_new"}]}`, http.StatusOK)
	path := filepath.Join(t.TempDir(), "latest_uid.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"uid":"UID_old","updated":"2025-06-01T00:00:00.000Z"}`), 0o644))

	r := push.NewUIDResolver(srv.URL, path, srv.Client())
	r.Now = fixedNow

	uid, err := r.Resolve(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, "UID_old", uid)
	require.Zero(t, calls.Load())

	s := readStored(t, path)
	require.Equal(t, push.TriggerManual, s.Trigger)
	require.Equal(t, push.SourceLocalStorage, s.Source)
	require.Equal(t, "2025-06-05T00:00:00.000Z", s.Updated)
}

func TestResolveManualWithoutFileFails(t *testing.T) {
	r := push.NewUIDResolver("", filepath.Join(t.TempDir(), "latest_uid.json"), nil)

	_, err := r.Resolve(context.Background(), false)
	require.ErrorIs(t, err, push.ErrNoStoredUID)
}

func TestTelegramSend(t *testing.T) {
	var path string
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":42}}`))
	}))
	defer srv.Close()

	tg := push.NewTelegram("123:ABC", "-100", srv.Client())
	tg.BaseURL = srv.URL

	id, err := tg.Send(context.Background(), strings.Repeat("字", 5000))
	require.NoError(t, err)
	require.Equal(t, "42", id)
	require.Equal(t, "/bot123:ABC/sendMessage", path)
	require.Equal(t, "-100", got["chat_id"])
	require.Len(t, []rune(got["text"].(string)), 4096)
}

func TestTelegramRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	tg := push.NewTelegram("123:ABC", "-100", srv.Client())
	tg.BaseURL = srv.URL

	_, err := tg.Send(context.Background(), "hi")
	require.ErrorContains(t, err, "chat not found")
}

func TestTelegramEnabled(t *testing.T) {
	require.False(t, (*push.Telegram)(nil).Enabled())
	require.False(t, push.NewTelegram("", "1", nil).Enabled())
	require.True(t, push.NewTelegram("t", "1", nil).Enabled())
}
