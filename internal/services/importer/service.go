// Package importer loads health export files into the sample store and
// watches the import directory for new ones.
package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/steps-dashboard-tui/internal/db"
	"github.com/j-veylop/steps-dashboard-tui/internal/logger"
)

// Store is the part of the sample store the importer writes to.
type Store interface {
	InsertSamples(ctx context.Context, samples []db.Sample) (int, error)
	ImportedDigest(ctx context.Context, path string) (string, error)
	RecordImport(ctx context.Context, rec db.ImportRecord) error
}

// Result describes one imported file.
type Result struct {
	Path      string
	Parsed    int
	Inserted  int
	Skipped   []string
	Unchanged bool
}

// Event represents an importer event.
type Event struct {
	Type   EventType
	Result *Result
	Error  error
}

// EventType defines the type of importer event.
type EventType int

const (
	EventImported EventType = iota
	EventError
)

const debounceInterval = 100 * time.Millisecond

// Service imports export files, optionally watching a directory.
type Service struct {
	store Store

	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	debounce  map[string]*time.Timer
	pending   sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	eventChan chan Event
	stopChan  chan struct{}
	closeOnce sync.Once
}

// New creates an importer writing to store.
func New(store Store) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:     store,
		ctx:       ctx,
		cancel:    cancel,
		debounce:  make(map[string]*time.Timer),
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}
}

// Events returns the event channel for watched imports.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// ImportFile parses path and stores its samples. A file whose content digest
// matches the last import is skipped.
func (s *Service) ImportFile(ctx context.Context, path string) (*Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	data, err := os.ReadFile(abs) //nolint:gosec // user-supplied import path
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	result := &Result{Path: abs}

	prev, err := s.store.ImportedDigest(ctx, abs)
	if err != nil {
		return nil, err
	}
	if prev == digest {
		result.Unchanged = true
		return result, nil
	}

	batch, err := Parse(abs, data)
	if err != nil {
		return nil, err
	}
	result.Parsed = len(batch.Samples)
	result.Skipped = batch.Skipped

	inserted, err := s.store.InsertSamples(ctx, batch.Samples)
	if err != nil {
		return nil, fmt.Errorf("failed to store samples from %s: %w", filepath.Base(abs), err)
	}
	result.Inserted = inserted

	if err := s.store.RecordImport(ctx, db.ImportRecord{
		Path:    abs,
		Digest:  digest,
		Samples: inserted,
	}); err != nil {
		return nil, err
	}

	logger.Info("imported samples",
		"file", filepath.Base(abs),
		"parsed", result.Parsed,
		"inserted", result.Inserted,
		"skipped_metrics", len(result.Skipped))

	return result, nil
}

// ScanDir imports every supported file in dir, in name order.
func (s *Service) ScanDir(ctx context.Context, dir string) ([]*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read import directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var (
		results []*Result
		errs    []error
	)
	for _, name := range names {
		res, err := s.ImportFile(ctx, filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}

	return results, errors.Join(errs...)
}

// Watch imports what is already in dir and then imports files as they are
// written.
func (s *Service) Watch(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create import directory: %w", err)
	}

	if _, err := s.ScanDir(ctx, dir); err != nil {
		logger.Warn("initial import scan had errors", "dir", dir, "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()

	go s.watchLoop(watcher)
	return nil
}

// watchLoop handles file system events with per-file debouncing.
func (s *Service) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if !Supported(event.Name) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.schedule(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) schedule(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.stopChan:
		return
	default:
	}

	if t, ok := s.debounce[path]; ok && t.Stop() {
		s.pending.Done()
	}
	s.pending.Add(1)
	s.debounce[path] = time.AfterFunc(debounceInterval, func() {
		defer s.pending.Done()
		s.mu.Lock()
		delete(s.debounce, path)
		s.mu.Unlock()
		s.handleFileChange(path)
	})
}

func (s *Service) handleFileChange(path string) {
	select {
	case <-s.stopChan:
		return
	default:
	}

	result, err := s.ImportFile(s.ctx, path)
	if err != nil {
		logger.Warn("import failed", "file", filepath.Base(path), "error", err)
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}
	if result.Unchanged {
		return
	}
	s.sendEvent(Event{Type: EventImported, Result: result})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the watcher, cancels pending imports and waits for any import
// already running.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.cancel()

		s.mu.Lock()
		for path, t := range s.debounce {
			if t.Stop() {
				s.pending.Done()
			}
			delete(s.debounce, path)
		}
		if s.watcher != nil {
			err = s.watcher.Close()
		}
		s.mu.Unlock()

		s.pending.Wait()
	})
	return err
}
