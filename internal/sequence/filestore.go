package sequence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/joseph-ayodele/invoice-bundler/constants"
)

const lockRetry = 50 * time.Millisecond

// FileStore keeps the next value as a human-readable integer in a text file.
// Callers in the same process serialize on a mutex; other processes on an
// exclusive lock of <path>.lock.
type FileStore struct {
	path   string
	mu     sync.Mutex
	lock   *flock.Flock
	logger *slog.Logger
}

func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = constants.CounterFileName
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create counter dir: %w", err)
		}
	}
	return &FileStore{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Read(ctx context.Context) (int64, error) {
	var n int64
	err := s.locked(ctx, func() error {
		var err error
		n, err = s.load()
		return err
	})
	return n, err
}

func (s *FileStore) IncrementAndGet(ctx context.Context) (int64, error) {
	var n int64
	err := s.locked(ctx, func() error {
		var err error
		if n, err = s.load(); err != nil {
			return err
		}
		return s.store(n + 1)
	})
	return n, err
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) locked(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	if !ok {
		return fmt.Errorf("lock %s: not acquired", s.lock.Path())
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("sequence.file.unlock_failed", "path", s.lock.Path(), "error", err)
		}
	}()
	return fn()
}

// load reads the stored value. Missing state yields the initial value;
// unparseable state is reset to it with a warning.
func (s *FileStore) load() (int64, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return constants.InitialInvoiceValue, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter: %w", err)
	}
	n, perr := parseCounter(string(b))
	if perr != nil {
		s.logger.Warn("sequence.file.corrupt_reset",
			"path", s.path,
			"content", strings.TrimSpace(string(b)),
			"reset_to", constants.InitialInvoiceValue,
		)
		return constants.InitialInvoiceValue, nil
	}
	return n, nil
}

// store writes v through a temp file in the same directory and renames it
// over the counter file.
func (s *FileStore) store(v int64) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp counter: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.WriteString(strconv.FormatInt(v, 10) + "\n"); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp counter: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp counter: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp counter: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace counter: %w", err)
	}
	return nil
}

func parseCounter(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, errCorrupt
	}
	return n, nil
}
