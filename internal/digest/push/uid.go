package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aussiebroadwan/dailydigest/pkg/httpx"
	"github.com/aussiebroadwan/dailydigest/pkg/slogx"
)

// ErrNoStoredUID is returned when a manual run finds no uid file.
var ErrNoStoredUID = errors.New("push: no stored uid, run a scheduled digest first")

// Trigger and source values recorded in the uid file.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"

	SourceAPI          = "api"
	SourceLocalStorage = "local_storage"
)

// StoredUID is the document persisted at UIDResolver.Path.
type StoredUID struct {
	UID     string `json:"uid"`
	Updated string `json:"updated"`
	Trigger string `json:"trigger,omitempty"`
	Source  string `json:"source,omitempty"`
}

// UIDResolver finds the WxPusher uid to deliver to.
//
// Scheduled runs ask API for the most recent subscriber and fall back to the
// stored uid when that fails. Manual runs only use the stored uid. Whatever
// uid is used gets written back with the trigger that produced it.
type UIDResolver struct {
	API  string
	Path string
	HTTP *http.Client
	Now  func() time.Time
}

func NewUIDResolver(api, path string, c *http.Client) *UIDResolver {
	return &UIDResolver{API: api, Path: path, HTTP: c, Now: time.Now}
}

type uidResponse struct {
	Code int `json:"code"`
	Data []struct {
		UID string `json:"uid"`
	} `json:"data"`
}

func (r *UIDResolver) Resolve(ctx context.Context, scheduled bool) (string, error) {
	logger := slogx.FromContext(ctx)

	if !scheduled {
		stored, err := r.Stored()
		if err != nil {
			return "", fmt.Errorf("push: manual run: %w", err)
		}
		logger.Info("uid_loaded", slog.String("uid", stored.UID), slog.String("updated", stored.Updated))
		r.save(ctx, stored.UID, TriggerManual, SourceLocalStorage)
		return stored.UID, nil
	}

	uid, err := r.fetch(ctx)
	if err == nil {
		logger.Info("uid_fetched", slog.String("uid", uid))
		r.save(ctx, uid, TriggerScheduled, SourceAPI)
		return uid, nil
	}

	logger.Warn("uid_fetch_failed", slog.String("error", err.Error()))
	stored, serr := r.Stored()
	if serr != nil {
		return "", fmt.Errorf("push: resolve uid: %w", errors.Join(err, serr))
	}
	logger.Info("uid_loaded", slog.String("uid", stored.UID), slog.String("updated", stored.Updated))
	return stored.UID, nil
}

// Stored reads the persisted uid document.
func (r *UIDResolver) Stored() (StoredUID, error) {
	raw, err := os.ReadFile(r.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StoredUID{}, ErrNoStoredUID
		}
		return StoredUID{}, fmt.Errorf("push: read %s: %w", r.Path, err)
	}

	var s StoredUID
	if err := json.Unmarshal(raw, &s); err != nil {
		return StoredUID{}, fmt.Errorf("push: parse %s: %w", r.Path, err)
	}
	if s.UID == "" {
		return StoredUID{}, ErrNoStoredUID
	}
	return s, nil
}

func (r *UIDResolver) fetch(ctx context.Context) (string, error) {
	if r.API == "" {
		return "", errors.New("push: uid api is not configured")
	}

	var resp uidResponse
	if err := httpx.GetJSON(ctx, r.HTTP, r.API, nil, &resp); err != nil {
		return "", err
	}
	if resp.Code != http.StatusOK || len(resp.Data) == 0 || resp.Data[0].UID == "" {
		return "", fmt.Errorf("push: unexpected uid api response (code %d, %d entries)", resp.Code, len(resp.Data))
	}
	return resp.Data[0].UID, nil
}

// save failures are logged, the uid is still usable for this run.
func (r *UIDResolver) save(ctx context.Context, uid, trigger, source string) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	doc := StoredUID{
		UID:     uid,
		Updated: now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Trigger: trigger,
		Source:  source,
	}

	if err := writeJSON(r.Path, doc); err != nil {
		slogx.FromContext(ctx).Warn("uid_save_failed", slog.String("path", r.Path), slog.String("error", err.Error()))
	}
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
