package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aussiebroadwan/dailydigest/internal/digest/domain"
)

// File stores the token as a pretty-printed JSON document at a fixed path.
type File struct {
	Path string
}

// NewFile returns a File store at path.
func NewFile(path string) *File {
	return &File{Path: path}
}

func (f *File) Read(_ context.Context) (domain.CachedToken, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.CachedToken{}, ErrNotFound
		}
		return domain.CachedToken{}, fmt.Errorf("store: read %s: %w", f.Path, err)
	}

	var t domain.CachedToken
	if err := json.Unmarshal(raw, &t); err != nil {
		return domain.CachedToken{}, fmt.Errorf("store: parse %s: %w", f.Path, err)
	}
	return t, nil
}

// Write serialises t and swaps it in with a rename so a crash never leaves a
// half-written document behind. The parent directory is created if missing.
func (f *File) Write(_ context.Context, t domain.CachedToken) error {
	raw, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode token: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("store: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("store: replace %s: %w", f.Path, err)
	}
	return nil
}

func (f *File) Close() error { return nil }
