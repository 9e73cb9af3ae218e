// Package ini implements the transactional flat INI store that backs the
// Azure Repos authority/user cache. The file holds a single implicit section
// of dotted keys; every mutation cycle is reload → mutate → commit, and
// commit writes a sibling temp file, fsyncs it, then renames it over the
// target so a crash can never leave a partially-written file behind.
package ini

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"github.com/custodia-labs/gitcred-cli/internal/core/domain"
)

// Store is a transactional key/value file. The in-memory working copy is
// only ever a snapshot: concurrent helper processes may race on the rename,
// in which case one write wins and the loser's update is simply lost. Lost
// updates are acceptable here; corrupt files are not.
type Store struct {
	path string
	lock *flock.Flock
	data map[string]string
}

// New creates a store over the given file path. The file need not exist yet.
func New(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
		data: make(map[string]string),
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Reload replaces the working copy with the current file contents.
// A missing file yields an empty working copy. Unparseable content returns
// an error wrapping domain.ErrStoreCorrupt and leaves the working copy empty.
func (s *Store) Reload() error {
	s.data = make(map[string]string)

	if err := s.lock.RLock(); err != nil {
		return fmt.Errorf("lock %s: %w", s.path, err)
	}
	defer s.lock.Unlock()

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		i := strings.IndexByte(line, '=')
		if i < 1 {
			return fmt.Errorf("%w: %s line %d", domain.ErrStoreCorrupt, s.path, lineNo)
		}
		key := strings.TrimSpace(line[:i])
		value := strings.TrimSpace(line[i+1:])
		data[key] = value
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	s.data = data
	return nil
}

// Get returns the value for a key in the working copy.
func (s *Store) Get(key string) (string, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Set updates the working copy. The change is not durable until Commit.
func (s *Store) Set(key, value string) {
	s.data[key] = value
}

// Remove deletes a key from the working copy.
func (s *Store) Remove(key string) {
	delete(s.data, key)
}

// Keys returns the working copy's keys in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SectionScopes returns the set of x for which any key "<prefix>.<x>.*"
// exists. Because x itself may contain dots (remote URLs do), the scope is
// everything between the prefix and the final dot-separated leaf.
func (s *Store) SectionScopes(prefix string) []string {
	seen := make(map[string]bool)
	for key := range s.data {
		rest, ok := strings.CutPrefix(key, prefix+".")
		if !ok {
			continue
		}
		i := strings.LastIndexByte(rest, '.')
		if i <= 0 {
			continue
		}
		seen[rest[:i]] = true
	}
	scopes := make([]string, 0, len(seen))
	for scope := range seen {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	return scopes
}

// Commit serializes the working copy to a sibling temp file in the same
// directory, fsyncs it, then renames it over the target. On any failure the
// on-disk state is unchanged.
func (s *Store) Commit() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", s.path, err)
	}
	defer s.lock.Unlock()

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, key := range s.Keys() {
		fmt.Fprintf(w, "%s=%s\n", key, s.data[key])
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	// Unix rename atomically replaces the destination. Windows refuses when
	// the destination exists, so remove and retry once there.
	if err := os.Rename(tmpPath, s.path); err != nil {
		if runtime.GOOS == "windows" {
			_ = os.Remove(s.path)
			if err := os.Rename(tmpPath, s.path); err != nil {
				os.Remove(tmpPath)
				return fmt.Errorf("rename %s: %w", s.path, err)
			}
			return nil
		}
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", s.path, err)
	}
	return nil
}
