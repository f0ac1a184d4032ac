package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
	"github.com/aussiebroadwan/dailydigest/internal/digest/store"
	_ "modernc.org/sqlite"
)

// DefaultProvider is the slot name used for the weather provider token.
const DefaultProvider = "qweather"

// busyTimeout makes overlapping runs wait on a locked database instead of
// failing with SQLITE_BUSY.
const busyTimeout = "busy_timeout(5000)"

// Store keeps the cached token in a single row of provider_tokens and a log of
// digest runs.
type Store struct {
	db       *sql.DB
	provider string
}

// DSN builds a data source name for path with busy_timeout and the given
// pragmas, e.g. DSN("data/digest.db", "journal_mode(WAL)").
func DSN(path string, pragmas ...string) string {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	for _, p := range pragmas {
		dsn = withPragma(dsn, p)
	}
	return WithBusyTimeout(dsn)
}

// WithBusyTimeout adds the busy_timeout pragma to dsn unless it already sets
// one. Pragmas in the DSN are applied to every pooled connection, plain
// paths and file: URIs alike.
func WithBusyTimeout(dsn string) string {
	if strings.Contains(dsn, "_pragma=busy_timeout") {
		return dsn
	}
	return withPragma(dsn, busyTimeout)
}

func withPragma(dsn, pragma string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=" + pragma
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", WithBusyTimeout(dsn))
	if err != nil {
		return nil, err
	}

	return &Store{
		db:       db,
		provider: DefaultProvider,
	}, nil
}

// Open is NewStore followed by ApplyMigrations.
func Open(dsn string) (*Store, error) {
	s, err := NewStore(dsn)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyMigrations(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

const readTokenSQL = `
SELECT token, generated_at, expires_at, created_at, header_json, payload_json
FROM provider_tokens
WHERE provider = ?`

func (s *Store) Read(ctx context.Context) (domain.CachedToken, error) {
	var (
		t                     domain.CachedToken
		createdAt             string
		headerJSON, payloadJS string
	)

	err := s.db.QueryRowContext(ctx, readTokenSQL, s.provider).Scan(
		&t.Token, &t.GeneratedAt, &t.ExpiresAt, &createdAt, &headerJSON, &payloadJS,
	)
	if err != nil {
		return domain.CachedToken{}, mapNotFound(err)
	}

	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return domain.CachedToken{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(headerJSON), &t.Header); err != nil {
		return domain.CachedToken{}, fmt.Errorf("sqlite: parse header: %w", err)
	}
	if err := json.Unmarshal([]byte(payloadJS), &t.Payload); err != nil {
		return domain.CachedToken{}, fmt.Errorf("sqlite: parse payload: %w", err)
	}

	return t, nil
}

const upsertTokenSQL = `
INSERT INTO provider_tokens (provider, token, generated_at, expires_at, created_at, header_json, payload_json, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider) DO UPDATE SET
    token        = excluded.token,
    generated_at = excluded.generated_at,
    expires_at   = excluded.expires_at,
    created_at   = excluded.created_at,
    header_json  = excluded.header_json,
    payload_json = excluded.payload_json,
    updated_at   = excluded.updated_at`

func (s *Store) Write(ctx context.Context, t domain.CachedToken) error {
	headerJSON, err := json.Marshal(t.Header)
	if err != nil {
		return err
	}
	payloadJSON, err := json.Marshal(t.Payload)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, upsertTokenSQL,
		s.provider,
		t.Token,
		t.GeneratedAt,
		t.ExpiresAt,
		t.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(headerJSON),
		string(payloadJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

const insertRunSQL = `
INSERT INTO digest_runs (id, scheduled, token_source, message_id, started_at)
VALUES (?, ?, ?, ?, ?)`

// RecordRun appends a finished digest run to digest_runs.
func (s *Store) RecordRun(ctx context.Context, r domain.RunRecord) error {
	scheduled := 0
	if r.Scheduled {
		scheduled = 1
	}

	_, err := s.db.ExecContext(ctx, insertRunSQL,
		r.ID,
		scheduled,
		r.TokenSource,
		r.MessageID,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

const listRunsSQL = `
SELECT id, scheduled, token_source, message_id, started_at
FROM digest_runs
ORDER BY id DESC
LIMIT ?`

// RecentRuns returns up to limit runs, newest first. Run ids are ULIDs so
// ordering by id is ordering by start time.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var (
			r         domain.RunRecord
			scheduled int
			startedAt string
		)
		if err := rows.Scan(&r.ID, &scheduled, &r.TokenSource, &r.MessageID, &startedAt); err != nil {
			return nil, err
		}
		r.Scheduled = scheduled == 1
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("sqlite: parse started_at: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
