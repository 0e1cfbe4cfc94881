// Package cache implements the quiz store: an append-only JSON Lines file
// where each line holds one quiz record and the 0-based line offset is the
// record's stable identifier.
package cache

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"

	"github.com/abhisek/sensei/internal/quiz"
)

// maxLineSize bounds a single cached record, newline excluded. Longer
// lines already on disk read as undecodable.
const maxLineSize = 1 << 20

// readBufSize is the read buffer used when scanning the file.
const readBufSize = 64 * 1024

// Store is an append-only quiz cache backed by a single file.
//
// Appends are serialized and assign indices from an in-memory line count, so
// concurrent appends always receive distinct indices. Reads go back to disk
// each time and only look at lines counted so far.
type Store struct {
	mu    sync.RWMutex
	path  string
	file  *os.File
	count int
}

// Entry is a line of the store as seen by List.
type Entry struct {
	Index  int
	Record quiz.Record
	Err    error
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: path, Err: err}
	}

	count, partial, err := countLines(path)
	if err != nil {
		return nil, &IOError{Op: "scan", Path: path, Err: err}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	// Terminate a trailing partial line so the next record starts cleanly.
	if partial {
		if _, err := f.Write([]byte{'\n'}); err != nil {
			f.Close()
			return nil, &IOError{Op: "write", Path: path, Err: err}
		}
	}

	return &Store{path: path, file: f, count: count}, nil
}

// Close releases the append handle. Reads keep working after Close.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return &IOError{Op: "close", Path: s.path, Err: err}
	}
	return nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of lines in the store, including lines that do not
// decode to a valid record.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Append writes rec as a new line and returns its index.
func (s *Store) Append(rec quiz.Record) (int, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return 0, fmt.Errorf("encode quiz record: %w", err)
	}
	if buf.Len()-1 > maxLineSize {
		return 0, &IOError{Op: "append", Path: s.path, Err: ErrRecordTooLarge}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return 0, ErrClosed
	}

	idx := s.count
	n, err := s.file.Write(buf.Bytes())
	if err != nil {
		if n > 0 {
			// Keep the line count in step with the file so later indices
			// still match line offsets.
			if n < buf.Len() {
				_, _ = s.file.Write([]byte{'\n'})
			}
			s.count++
		}
		return 0, &IOError{Op: "append", Path: s.path, Err: err}
	}
	s.count++
	return idx, nil
}

// ReadAt returns the record stored at line i.
func (s *Store) ReadAt(i int) (quiz.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i < 0 || i >= s.count {
		return quiz.Record{}, fmt.Errorf("index %d: %w", i, ErrNotFound)
	}

	var (
		line  []byte
		found bool
	)
	err := s.scan(func(idx int, l []byte) bool {
		if idx == i {
			line = l
			found = true
			return false
		}
		return true
	})
	if err != nil {
		return quiz.Record{}, err
	}
	if !found {
		return quiz.Record{}, fmt.Errorf("index %d: %w", i, ErrNotFound)
	}

	rec, err := decode(line)
	if err != nil {
		return quiz.Record{}, fmt.Errorf("index %d: %w: %v", i, ErrNotFound, err)
	}
	return rec, nil
}

// Tail returns up to n of the most recent valid records, oldest first.
// Lines that fail to decode are skipped.
func (s *Store) Tail(n int) ([]quiz.Record, error) {
	if n <= 0 {
		return []quiz.Record{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ring := make([]quiz.Record, 0, n)
	err := s.scan(func(_ int, l []byte) bool {
		rec, err := decode(l)
		if err != nil {
			return true
		}
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, rec)
		return true
	})
	if err != nil {
		return nil, err
	}
	return ring, nil
}

// RandomSample returns a uniformly chosen valid record and its index.
func (s *Store) RandomSample() (quiz.Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Reservoir sampling keeps a single pass over the file.
	var (
		chosen   quiz.Record
		chosenAt = -1
		seen     int
	)
	err := s.scan(func(idx int, l []byte) bool {
		rec, err := decode(l)
		if err != nil {
			return true
		}
		seen++
		if rand.IntN(seen) == 0 {
			chosen = rec
			chosenAt = idx
		}
		return true
	})
	if err != nil {
		return quiz.Record{}, 0, err
	}
	if chosenAt < 0 {
		return quiz.Record{}, 0, ErrNotFound
	}
	return chosen, chosenAt, nil
}

// List returns up to limit entries starting at offset. A limit of 0 means
// no limit. Undecodable lines are reported with Err set.
func (s *Store) List(offset, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	err := s.scan(func(idx int, l []byte) bool {
		if idx < offset {
			return true
		}
		if limit > 0 && len(out) >= limit {
			return false
		}
		rec, err := decode(l)
		out = append(out, Entry{Index: idx, Record: rec, Err: err})
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// scan calls fn for each counted line until fn returns false. A line
// longer than maxLineSize is passed as nil. Callers must hold s.mu.
func (s *Store) scan(fn func(idx int, line []byte) bool) error {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &IOError{Op: "read", Path: s.path, Err: err}
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, readBufSize)
	var line []byte
	for idx := 0; idx < s.count; idx++ {
		line, err = readLine(r, line[:0])
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &IOError{Op: "read", Path: s.path, Err: err}
		}
		if !fn(idx, line) {
			return nil
		}
	}
	return nil
}

// readLine reads one line into buf, newline excluded. It returns a nil
// line when the line exceeds maxLineSize; the rest of it is still consumed
// so the next call starts on the following line. io.EOF means no bytes
// were left.
func readLine(r *bufio.Reader, buf []byte) ([]byte, error) {
	var (
		read    bool
		tooLong bool
	)
	for {
		chunk, err := r.ReadSlice('\n')
		read = read || len(chunk) > 0
		chunk = bytes.TrimSuffix(chunk, []byte{'\n'})
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize {
				tooLong = true
			} else {
				buf = append(buf, chunk...)
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == io.EOF && read:
		default:
			return nil, err
		}
		if tooLong {
			return nil, nil
		}
		return buf, nil
	}
}

// decode parses a single line into a validated record.
func decode(line []byte) (quiz.Record, error) {
	if line == nil {
		return quiz.Record{}, errLineTooLong
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return quiz.Record{}, errors.New("empty line")
	}
	var rec quiz.Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return quiz.Record{}, err
	}
	if err := rec.Validate(); err != nil {
		return quiz.Record{}, err
	}
	return rec, nil
}

// countLines returns the number of lines in path and whether the last one
// lacks a terminating newline. A missing file has zero lines.
func countLines(path string) (int, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, err
	}
	defer f.Close()

	var (
		count int
		last  byte = '\n'
		buf        = make([]byte, 32*1024)
	)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, false, err
		}
	}

	if last != '\n' {
		return count + 1, true, nil
	}
	return count, false, nil
}
