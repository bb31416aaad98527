package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"syscall"
	"time"
)

var (
	ErrUnavailable = errors.New("storage unavailable")
	ErrCorrupt     = errors.New("storage corrupt")
	ErrInvalidKey  = errors.New("invalid collection key")
	ErrNotLocked   = errors.New("collection not held by transaction")
)

const (
	DefaultRetryAttempts  = 5
	DefaultRetryBaseDelay = 100 * time.Millisecond
)

var keyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

type Options struct {
	RetryAttempts  int
	RetryBaseDelay time.Duration
	Logger         *slog.Logger
}

// Session is the read/write surface shared by the store and its transactions.
type Session interface {
	Read(ctx context.Context, key string, out any) error
	Write(ctx context.Context, key string, records any) error
}

// Store persists one JSON array per collection key under Dir. Writes are
// atomic replaces and at most one write is in flight per Store.
type Store struct {
	Dir  string
	opts Options

	writeMu sync.Mutex

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	rename  func(oldpath, newpath string) error
	syncDir func(dir string) error
}

func Open(dir string, opts Options) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: data directory is required", ErrUnavailable)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %w", ErrUnavailable, err)
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = DefaultRetryAttempts
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		Dir:     dir,
		opts:    opts,
		locks:   make(map[string]chan struct{}),
		rename:  os.Rename,
		syncDir: syncDirectory,
	}, nil
}

// Read decodes the collection stored under key into out, which must point to
// a slice. A missing collection is created empty before it is read.
func (s *Store) Read(ctx context.Context, key string, out any) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrUnavailable, key, err)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.initialize(ctx, key, path); err != nil {
			return err
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrUnavailable, key, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("%w: %s is not a json array", ErrCorrupt, key)
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrCorrupt, key, err)
	}
	return nil
}

// Write replaces the whole collection stored under key with records.
func (s *Store) Write(ctx context.Context, key string, records any) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	data, err := encode(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.replace(ctx, key, path, data)
}

// Check verifies the data directory accepts new files. Nothing is left
// behind.
func (s *Store) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	tmp, err := os.CreateTemp(s.Dir, ".check_*")
	if err != nil {
		return fmt.Errorf("%w: create check file: %w", ErrUnavailable, err)
	}
	name := tmp.Name()
	closeErr := tmp.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("%w: remove check file: %w", ErrUnavailable, err)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: close check file: %w", ErrUnavailable, closeErr)
	}
	return nil
}

func (s *Store) initialize(ctx context.Context, key, path string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %w", ErrUnavailable, key, err)
	}
	return s.replace(ctx, key, path, []byte("[]\n"))
}

func (s *Store) replace(ctx context.Context, key, path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(s.Dir, "."+key+"_*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %w", ErrUnavailable, key, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				s.opts.Logger.Warn("store temp cleanup failed", "key", key, "path", tmpPath, "err", rmErr)
			}
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write temp for %s: %w", ErrUnavailable, key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: sync temp for %s: %w", ErrUnavailable, key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp for %s: %w", ErrUnavailable, key, err)
	}
	if err := s.renameWithRetry(ctx, key, tmpPath, path); err != nil {
		return err
	}
	if err := s.syncDir(s.Dir); err != nil {
		return fmt.Errorf("%w: sync dir after replacing %s: %w", ErrUnavailable, key, err)
	}
	return nil
}

// syncDirectory flushes the directory entry so a completed rename survives a
// crash.
func syncDirectory(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return err
	}
	return d.Close()
}

func (s *Store) renameWithRetry(ctx context.Context, key, from, to string) error {
	delay := s.opts.RetryBaseDelay
	var lastErr error
	for attempt := 1; attempt <= s.opts.RetryAttempts; attempt++ {
		lastErr = s.rename(from, to)
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) || attempt == s.opts.RetryAttempts {
			break
		}
		s.opts.Logger.Warn("store replace retry", "key", key, "attempt", attempt, "delay", delay, "err", lastErr)
		if err := sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
		delay *= 2
	}
	return fmt.Errorf("%w: replace %s: %w", ErrUnavailable, key, lastErr)
}

func (s *Store) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.Dir, key+".json"), nil
}

// Transact runs fn while holding the exclusive sections of every key. Keys are
// locked in sorted order so overlapping transactions cannot deadlock.
func (s *Store) Transact(ctx context.Context, keys []string, fn func(tx *Tx) error) error {
	held := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if !keyPattern.MatchString(key) {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		held = append(held, key)
	}
	sort.Strings(held)

	release, err := s.acquire(ctx, held)
	if err != nil {
		return err
	}
	defer release()
	return fn(&Tx{store: s, keys: seen})
}

func (s *Store) acquire(ctx context.Context, keys []string) (func(), error) {
	acquired := make([]chan struct{}, 0, len(keys))
	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			<-acquired[i]
		}
	}
	for _, key := range keys {
		sem := s.lockFor(key)
		select {
		case sem <- struct{}{}:
			acquired = append(acquired, sem)
		case <-ctx.Done():
			release()
			return nil, fmt.Errorf("%w: lock %s: %w", ErrUnavailable, key, ctx.Err())
		}
	}
	return release, nil
}

func (s *Store) lockFor(key string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	sem, ok := s.locks[key]
	if !ok {
		sem = make(chan struct{}, 1)
		s.locks[key] = sem
	}
	return sem
}

// Tx is a Session limited to the keys locked by Transact.
type Tx struct {
	store *Store
	keys  map[string]struct{}
}

func (tx *Tx) Read(ctx context.Context, key string, out any) error {
	if !tx.Holds(key) {
		return fmt.Errorf("%w: %s", ErrNotLocked, key)
	}
	return tx.store.Read(ctx, key, out)
}

func (tx *Tx) Write(ctx context.Context, key string, records any) error {
	if !tx.Holds(key) {
		return fmt.Errorf("%w: %s", ErrNotLocked, key)
	}
	return tx.store.Write(ctx, key, records)
}

func (tx *Tx) Holds(keys ...string) bool {
	for _, key := range keys {
		if _, ok := tx.keys[key]; !ok {
			return false
		}
	}
	return true
}

func encode(records any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	data := buf.Bytes()
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return []byte("[]\n"), nil
	}
	if data[0] != '[' {
		return nil, errors.New("records must encode to a json array")
	}
	return data, nil
}

func isTransient(err error) bool {
	return errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.ETXTBSY)
}

func sleep(ctx context.Context, d time.Duration) error {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < d {
		return context.DeadlineExceeded
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
