package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
	"github.com/aussiebroadwan/dailydigest/internal/digest/store"
	"github.com/aussiebroadwan/dailydigest/internal/digest/store/drivers/sqlite"
	"github.com/aussiebroadwan/dailydigest/pkg/idx"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "digest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleToken(tok string) domain.CachedToken {
	return domain.CachedToken{
		Token:       tok,
		GeneratedAt: 999_970,
		ExpiresAt:   1_000_870,
		CreatedAt:   time.Unix(1_000_000, 0).UTC(),
		Header:      domain.TokenHeader{Alg: "EdDSA", Kid: "KID"},
		Payload:     domain.TokenPayload{Sub: "PROJ", Iat: 999_970, Exp: 1_000_870},
	}
}

func TestStoreEmptyIsNotFound(t *testing.T) {
	s := openStore(t)

	_, err := s.Read(context.Background())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreWriteReadAndReplace(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, sampleToken("aaa.bbb.ccc")))

	got, err := s.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, sampleToken("aaa.bbb.ccc"), got)

	require.NoError(t, s.Write(ctx, sampleToken("ddd.eee.fff")))

	got, err = s.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, "ddd.eee.fff", got.Token)
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.ApplyMigrations())

	_, err := s.Read(context.Background())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithBusyTimeout(t *testing.T) {
	cases := map[string]string{
		"/tmp/digest.db":                              "/tmp/digest.db?_pragma=busy_timeout(5000)",
		"file:/tmp/digest.db":                         "file:/tmp/digest.db?_pragma=busy_timeout(5000)",
		"file:/tmp/digest.db?_pragma=foreign_keys(1)": "file:/tmp/digest.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		"file:/tmp/digest.db?_pragma=busy_timeout(9)": "file:/tmp/digest.db?_pragma=busy_timeout(9)",
		"file:/tmp/digest.db?_busy_timeout=9":         "file:/tmp/digest.db?_busy_timeout=9&_pragma=busy_timeout(5000)",
	}
	for in, want := range cases {
		require.Equal(t, want, sqlite.WithBusyTimeout(in), "dsn %q", in)
	}

	require.Equal(t,
		"file:data/digest.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		sqlite.DSN("data/digest.db", "journal_mode(WAL)"),
	)
}

func TestBusyTimeoutOnEveryConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digest.db")
	s, err := sqlite.Open(sqlite.DSN(path, "journal_mode(WAL)"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite", sqlite.DSN(path, "journal_mode(WAL)"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	var conns []*sql.Conn
	for range 3 {
		c, err := db.Conn(ctx)
		require.NoError(t, err)
		conns = append(conns, c)
	}
	for _, c := range conns {
		var timeout int
		require.NoError(t, c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
		require.Equal(t, 5000, timeout)
		require.NoError(t, c.Close())
	}
}

func TestRecordRun(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first := domain.RunRecord{
		ID:          idx.NewAt(time.Unix(1_000, 0)).String(),
		Scheduled:   true,
		TokenSource: "fresh",
		MessageID:   "111",
		StartedAt:   time.Unix(1_000, 0).UTC(),
	}
	second := domain.RunRecord{
		ID:          idx.NewAt(time.Unix(2_000, 0)).String(),
		TokenSource: "cache",
		MessageID:   "222",
		StartedAt:   time.Unix(2_000, 0).UTC(),
	}
	require.NoError(t, s.RecordRun(ctx, first))
	require.NoError(t, s.RecordRun(ctx, second))

	runs, err := s.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []domain.RunRecord{second, first}, runs)
}
