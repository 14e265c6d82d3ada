// Package state persists fingerprints of previously seen notices between runs.
//
// The file is a flat JSON object mapping fingerprint to first-seen epoch seconds,
// plus HeartbeatKey holding the time of the last heartbeat email.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/tenderwatch/internal/logger"
)

// HeartbeatKey is the reserved entry recording the last heartbeat
const HeartbeatKey = "_last_heartbeat"

// Store is the in-memory view of the state file. It is owned by a single run
// and is not safe for concurrent use.
type Store struct {
	path    string
	entries map[string]float64
}

// New creates an empty store that will be saved to path
func New(path string) *Store {
	return &Store{
		path:    path,
		entries: make(map[string]float64),
	}
}

// Load reads the state file at path. A missing file yields an empty store;
// an unreadable or malformed one is logged and also treated as empty.
func Load(path string, log logger.Logger) *Store {
	s := New(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("State file unreadable, starting empty", logger.String("path", path), logger.Error(err))
		}
		return s
	}

	var entries map[string]float64
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Warn("State file corrupt, starting empty", logger.String("path", path), logger.Error(err))
		return s
	}
	for k, v := range entries {
		s.entries[k] = v
	}
	return s
}

// Path returns the file the store saves to
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of entries
func (s *Store) Len() int {
	return len(s.entries)
}

// Has reports whether key is recorded
func (s *Store) Has(key string) bool {
	_, ok := s.entries[key]
	return ok
}

// Mark records fingerprint as seen at t
func (s *Store) Mark(fingerprint string, t time.Time) {
	s.entries[fingerprint] = ToEpoch(t)
}

// SeenAt returns when key was recorded
func (s *Store) SeenAt(key string) (time.Time, bool) {
	v, ok := s.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return FromEpoch(v), true
}

// LastHeartbeat returns the time of the last heartbeat, zero if none
func (s *Store) LastHeartbeat() time.Time {
	t, _ := s.SeenAt(HeartbeatKey)
	return t
}

// SetLastHeartbeat records a heartbeat at t
func (s *Store) SetLastHeartbeat(t time.Time) {
	s.entries[HeartbeatKey] = ToEpoch(t)
}

// Prune drops every entry recorded before cutoff and returns how many were removed.
// The heartbeat entry follows the same rule.
func (s *Store) Prune(cutoff time.Time) int {
	limit := ToEpoch(cutoff)
	removed := 0
	for k, v := range s.entries {
		if v < limit {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Save writes the store atomically: a temp file in the same directory is renamed over the target
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// ToEpoch converts t to fractional epoch seconds
func ToEpoch(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

// FromEpoch converts fractional epoch seconds to a UTC time
func FromEpoch(v float64) time.Time {
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}
