// Package persistence spools envelope batches to disk until the sender
// ships them to the collector.
package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pulsemetry/pulsemetry-go/host"
	"github.com/pulsemetry/pulsemetry-go/internal/envelope"
)

const (
	spoolDirName = "spool"

	// defaultMaxPendingFiles caps the on-disk backlog. When the spool is
	// full the oldest batch is dropped to make room for the new one.
	defaultMaxPendingFiles = 50
)

// Trigger is notified after each successful persist so the sender can drain
// the spool.
type Trigger interface {
	TriggerSending()
}

// Store writes batch files using an atomic temp-file-then-rename pattern so
// a crash never leaves a half-written batch behind.
type Store struct {
	mu         sync.Mutex
	dir        string
	maxPending int
	sender     Trigger
}

// New creates a Store rooted under env.DataDir, capped at
// env.SpoolMaxPendingFiles batches (the package default when unset). The
// spool directory is created on the first persist.
func New(env *host.Env, sender Trigger) *Store {
	dir := ""
	maxPending := 0
	if env != nil {
		dir = env.DataDir
		maxPending = env.SpoolMaxPendingFiles
	}
	if dir == "" {
		dir = host.DefaultDataDir()
	}
	if maxPending <= 0 {
		maxPending = defaultMaxPendingFiles
	}
	return &Store{
		dir:        filepath.Join(dir, spoolDirName),
		maxPending: maxPending,
		sender:     sender,
	}
}

// Dir returns the spool directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Persist writes batch as a single spool file and notifies the sender.
func (s *Store) Persist(batch []*envelope.Envelope) error {
	if len(batch) == 0 {
		return nil
	}
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshaling batch: %w", err)
	}

	s.mu.Lock()
	err = s.writeLocked(data)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if s.sender != nil {
		s.sender.TriggerSending()
	}
	return nil
}

func (s *Store) writeLocked(data []byte) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating spool dir: %w", err)
	}
	s.evictLocked()

	tmp, err := os.CreateTemp(s.dir, ".batch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	final := filepath.Join(s.dir, uuid.New().String()+".json")
	if err := os.Rename(tmpPath, final); err != nil {
		return fmt.Errorf("renaming batch file: %w", err)
	}
	committed = true
	return nil
}

// evictLocked drops the oldest batches until the spool is below its cap.
func (s *Store) evictLocked() {
	files := s.pendingLocked()
	for len(files) >= s.maxPending {
		log.Printf("spool full, dropping oldest batch %s", filepath.Base(files[0]))
		os.Remove(files[0])
		files = files[1:]
	}
}

// Pending returns the pending batch file paths, oldest first.
func (s *Store) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

func (s *Store) pendingLocked() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	type pendingFile struct {
		path string
		mod  int64
	}
	var files []pendingFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, pendingFile{
			path: filepath.Join(s.dir, name),
			mod:  info.ModTime().UnixNano(),
		})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].mod != files[j].mod {
			return files[i].mod < files[j].mod
		}
		return files[i].path < files[j].path
	})

	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out
}

// PendingCount returns the number of spooled batches.
func (s *Store) PendingCount() int {
	return len(s.Pending())
}

// Read returns the contents of a spooled batch file.
func (s *Store) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Delete removes a spooled batch, typically after the collector acked it.
func (s *Store) Delete(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("spool: removing batch %s: %v", filepath.Base(path), err)
	}
}
