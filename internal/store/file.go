package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/passerby/internal/location"
)

// DefaultFilePath returns the location file inside dir.
func DefaultFilePath(dir string) string {
	return filepath.Join(dir, Key+".json")
}

// FileStore keeps the record in a JSON file. Watch polls the file, so every
// process pointed at the same path sees the others' changes.
type FileStore struct {
	path   string
	origin string
	log    zerolog.Logger
	mu     sync.Mutex

	// PollInterval is how often Watch re-reads the file.
	PollInterval time.Duration
}

var _ LocationStore = (*FileStore)(nil)

// NewFileStore returns a store backed by path, creating its directory.
func NewFileStore(path, origin string, log zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create store directory: %w", err)
	}
	return &FileStore{
		path:         path,
		origin:       origin,
		log:          log,
		PollInterval: time.Second,
	}, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (location.Location, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return location.Location{}, false, nil
		}
		return location.Location{}, false, fmt.Errorf("read %s: %w", s.path, err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return location.Location{}, false, err
	}
	return rec.Location, true, nil
}

func (s *FileStore) Save(ctx context.Context, loc location.Location) error {
	data, err := encodeRecord(s.origin, loc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".location-*")
	if err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save location: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete location: %w", err)
	}
	return nil
}

func (s *FileStore) Watch(ctx context.Context) (<-chan location.Location, error) {
	last, _ := os.ReadFile(s.path)
	out := make(chan location.Location)

	go func() {
		defer close(out)

		t := time.NewTicker(s.PollInterval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}

			data, err := os.ReadFile(s.path)
			if err != nil || bytes.Equal(data, last) {
				continue
			}
			last = data

			rec, err := decodeRecord(data)
			if err != nil {
				s.log.Warn().Err(err).Msg("ignoring unreadable location change")
				continue
			}
			if rec.Origin == s.origin {
				continue
			}

			select {
			case out <- rec.Location:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *FileStore) Close() error {
	return nil
}
