package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/tenderwatch/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "state", "seen.json"), logger.NewNop())
	assert.Zero(t, s.Len())
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := Load(path, logger.NewNop())
	assert.Zero(t, s.Len())
}

func TestLoad_WrongShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"abc": "yesterday"}`), 0644))

	s := Load(path, logger.NewNop())
	assert.Zero(t, s.Len())
}

func TestLoad_ExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	content := `{"abc": 1700000000.5, "_last_heartbeat": 1700000100}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s := Load(path, logger.NewNop())
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("abc"))
	assert.Equal(t, time.Unix(1700000100, 0).UTC(), s.LastHeartbeat())

	seen, ok := s.SeenAt("abc")
	require.True(t, ok)
	assert.Equal(t, time.Unix(1700000000, 500_000_000).UTC(), seen)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "seen.json")
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s := New(path)
	s.Mark("fp1", now)
	s.SetLastHeartbeat(now.Add(time.Hour))
	require.NoError(t, s.Save())

	reloaded := Load(path, logger.NewNop())
	assert.Equal(t, 2, reloaded.Len())
	assert.True(t, reloaded.Has("fp1"))
	assert.Equal(t, path, reloaded.Path())
	seen, _ := reloaded.SeenAt("fp1")
	assert.Equal(t, now, seen)
	assert.Equal(t, now.Add(time.Hour), reloaded.LastHeartbeat())

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSave_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"old": 1}`), 0644))

	s := New(path)
	s.Mark("new", time.Now())
	require.NoError(t, s.Save())

	reloaded := Load(path, logger.NewNop())
	assert.False(t, reloaded.Has("old"))
	assert.True(t, reloaded.Has("new"))
}

func TestPrune(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cutoff := now.Add(-90 * 24 * time.Hour)

	s := New("unused")
	s.Mark("old", now.Add(-91*24*time.Hour))
	s.Mark("recent", now.Add(-89*24*time.Hour))
	s.Mark("edge", cutoff)
	s.SetLastHeartbeat(now.Add(-100 * 24 * time.Hour))

	removed := s.Prune(cutoff)

	assert.Equal(t, 2, removed)
	assert.False(t, s.Has("old"))
	assert.False(t, s.Has(HeartbeatKey))
	assert.True(t, s.Has("recent"))
	assert.True(t, s.Has("edge"))
	assert.True(t, s.LastHeartbeat().IsZero())
}

func TestEpochConversion(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 250_000_000, time.UTC)
	assert.Equal(t, ts, FromEpoch(ToEpoch(ts)))
	assert.Equal(t, 1700000000.0, ToEpoch(time.Unix(1700000000, 0)))
}
