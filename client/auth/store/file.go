package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/viant/afs"
)

// FileStore persists the token pair as a JSON object at an afs URL, while
// serving reads from an in-memory copy. It is a lightweight way to survive
// process restarts in CLI or single-host services.
type FileStore struct {
	mu     sync.Mutex
	URL    string
	fs     afs.Service
	memory *memoryStore
}

// NewFileStore creates a Store that persists tokens at the given URL (local path, file:// or mem://).
func NewFileStore(ctx context.Context, URL string, options ...MemoryStoreOption) (*FileStore, error) {
	f := &FileStore{
		URL:    URL,
		fs:     afs.New(),
		memory: newMemoryStore(options...),
	}
	if err := f.load(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FileStore) AccessToken(ctx context.Context) (string, bool, error) {
	return f.memory.AccessToken(ctx)
}

func (f *FileStore) RefreshToken(ctx context.Context) (string, bool, error) {
	return f.memory.RefreshToken(ctx)
}

func (f *FileStore) Set(ctx context.Context, access, refresh string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	pair := &TokenPair{AccessToken: access, RefreshToken: refresh}
	if !pair.Valid() {
		return ErrInvalidTokenPair
	}
	if err := f.save(ctx, pair); err != nil {
		return err
	}
	f.memory.pair.Store(pair)
	return nil
}

func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memory.pair.Store(nil)
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil || !exists {
		return err
	}
	if err = f.fs.Delete(ctx, f.URL); err != nil {
		return fmt.Errorf("failed to delete token file %v: %w", f.URL, err)
	}
	return nil
}

// ---- persistence ----

type fileSnapshot struct {
	Tokens *TokenPair `json:"tokens"`
}

func (f *FileStore) save(ctx context.Context, pair *TokenPair) error {
	data, err := json.MarshalIndent(fileSnapshot{Tokens: pair}, "", "  ")
	if err != nil {
		return err
	}
	if err = f.fs.Upload(ctx, f.URL, 0o600, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write token file %v: %w", f.URL, err)
	}
	return nil
}

func (f *FileStore) load(ctx context.Context) error {
	exists, err := f.fs.Exists(ctx, f.URL)
	if err != nil {
		return fmt.Errorf("failed to check token file %v: %w", f.URL, err)
	}
	if !exists {
		return nil
	}
	data, err := f.fs.DownloadWithURL(ctx, f.URL)
	if err != nil {
		return fmt.Errorf("failed to read token file %v: %w", f.URL, err)
	}
	var snap fileSnapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("invalid token file %v: %w", f.URL, err)
	}
	// a half written pair is treated as no session
	if snap.Tokens.Valid() {
		f.memory.pair.Store(snap.Tokens)
	}
	return nil
}
