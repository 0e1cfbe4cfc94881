// Package chats persists the set of chats that have scheduled quizzes
// enabled, so schedules can be restored after a restart.
package chats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry is the set of active chat ids backed by a text file with one id
// per line. Every mutation rewrites the file.
type Registry struct {
	mu     sync.Mutex
	path   string
	ids    map[int64]struct{}
	logger *zap.Logger
}

// Open loads the registry at path. A missing file yields an empty set. A
// file that cannot be read or parsed is logged and also yields an empty
// set; it is overwritten by the next successful Save.
func Open(path string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		path:   path,
		ids:    make(map[int64]struct{}),
		logger: logger.Named("chats"),
	}

	ids, err := load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		r.logger.Error("failed to load active chats, starting empty",
			zap.String("path", path), zap.Error(err))
	default:
		for _, id := range ids {
			r.ids[id] = struct{}{}
		}
	}
	return r
}

func load(path string) ([]int64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var ids []int64
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		ids = append(ids, id)
	}
	return ids, sc.Err()
}

// Path returns the backing file path.
func (r *Registry) Path() string {
	return r.path
}

// Add inserts id and persists the set. It reports whether id was new. If
// the set cannot be saved the insert is undone, so memory matches the file.
func (r *Registry) Add(id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[id]; ok {
		return false, nil
	}
	r.ids[id] = struct{}{}
	if err := r.saveLocked(); err != nil {
		delete(r.ids, id)
		return false, err
	}
	return true, nil
}

// Remove deletes id and persists the set. It reports whether id was present.
// If the set cannot be saved the id is restored.
func (r *Registry) Remove(id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[id]; !ok {
		return false, nil
	}
	delete(r.ids, id)
	if err := r.saveLocked(); err != nil {
		r.ids[id] = struct{}{}
		return false, err
	}
	return true, nil
}

// Contains reports whether id is active.
func (r *Registry) Contains(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

// IDs returns the active ids in ascending order.
func (r *Registry) IDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked()
}

// Len returns the number of active chats.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

// Save writes the full set to disk.
func (r *Registry) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked()
}

func (r *Registry) sortedLocked() []int64 {
	ids := make([]int64, 0, len(r.ids))
	for id := range r.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// saveLocked replaces the file through a temp file and rename so a crash
// never leaves a half-written registry.
func (r *Registry) saveLocked() error {
	var buf bytes.Buffer
	for _, id := range r.sortedLocked() {
		buf.WriteString(strconv.FormatInt(id, 10))
		buf.WriteByte('\n')
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save active chats: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save active chats: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("save active chats: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save active chats: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("save active chats: %w", err)
	}
	return nil
}
