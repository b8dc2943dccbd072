// Package snapshot owns the immutable data documents the web app
// renders from: the events snapshot and the lazily-loaded racer
// index. A render cycle never sees a partially-updated dataset; the
// store swaps whole documents atomically.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/xdoubleu/essentia/v2/pkg/logging"
	"racecal.simsportsarena.com/internal/models"
)

type Store struct {
	logger    *slog.Logger
	path      string
	racerPath string

	current atomic.Pointer[models.Snapshot]

	mu           sync.Mutex
	racers       []models.Racer
	racersErr    error
	racersLoaded bool
	racersWait   chan struct{}
}

func NewStore(logger *slog.Logger, path string, racerPath string) *Store {
	return &Store{
		logger:    logger,
		path:      path,
		racerPath: racerPath,
	}
}

// Load reads the snapshot document from disk and swaps it in. On
// failure the previous snapshot stays live.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	var snap models.Snapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse snapshot %s: %w", s.path, err)
	}

	sort.SliceStable(snap.Events, func(i, j int) bool {
		return snap.Events[i].Dates.Start.Before(snap.Events[j].Dates.Start)
	})

	s.current.Store(&snap)
	s.logger.Info("snapshot loaded",
		slog.String("path", s.path),
		slog.Int("events", len(snap.Events)),
		slog.Time("generated_at", snap.GeneratedAt),
	)
	return nil
}

// Snapshot returns the current document. Before the first successful
// Load it returns an empty snapshot, never nil.
func (s *Store) Snapshot() *models.Snapshot {
	if snap := s.current.Load(); snap != nil {
		return snap
	}
	return &models.Snapshot{}
}

// Watch reloads the snapshot when the file changes on disk, until ctx
// is canceled. The watch is on the parent directory since refresh
// replaces the file via rename.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("snapshot watcher: %w", err)
	}

	if err = watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("snapshot watcher: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Rename) {
					continue
				}
				if err := s.Load(); err != nil {
					s.logger.Error("snapshot reload failed", logging.ErrAttr(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Error("snapshot watcher error", logging.ErrAttr(err))
			}
		}
	}()

	return nil
}

// Write stores a snapshot document atomically: temp file in the same
// directory, then rename. Readers never observe a partial document.
func Write(path string, snap *models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return writeAtomic(path, append(data, '\n'))
}

// WriteRacerIndex stores the racer index document atomically.
func WriteRacerIndex(path string, racers []models.Racer) error {
	data, err := json.MarshalIndent(racers, "", "  ")
	if err != nil {
		return fmt.Errorf("encode racer index: %w", err)
	}
	return writeAtomic(path, append(data, '\n'))
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
