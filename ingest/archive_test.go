package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// crossDeviceFs refuses renames the way os.Rename does across mounts.
type crossDeviceFs struct {
	afero.Fs
}

func (crossDeviceFs) Rename(string, string) error {
	return errors.New("invalid cross-device link")
}

func TestArchive(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "in/r.xlsx", []byte("one"), 0o644))

	a := NewArchiver(fs, "out")
	dst, err := a.Archive("in/r.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "out/r.xlsx", dst)

	data, err := afero.ReadFile(fs, dst)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestArchive_NeverOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out/r.xlsx", []byte("old"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "in/r.xlsx", []byte("new"), 0o644))

	a := NewArchiver(fs, "out")
	a.now = func() time.Time { return time.Date(2026, 2, 8, 7, 5, 9, 0, time.UTC) }
	dst, err := a.Archive("in/r.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "out/r-20260208T070509.xlsx", dst)

	old, err := afero.ReadFile(fs, "out/r.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestArchive_SameSecondClashes(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := NewArchiver(fs, "out")
	a.now = func() time.Time { return time.Date(2026, 2, 8, 7, 5, 9, 0, time.UTC) }

	want := []string{
		"out/r.xlsx",
		"out/r-20260208T070509.xlsx",
		"out/r-20260208T070509-2.xlsx",
		"out/r-20260208T070509-3.xlsx",
	}
	bodies := []string{"first", "second", "third", "fourth"}
	for i, body := range bodies {
		require.NoError(t, afero.WriteFile(fs, "in/r.xlsx", []byte(body), 0o644))
		dst, err := a.Archive("in/r.xlsx")
		require.NoError(t, err)
		assert.Equal(t, want[i], dst)
	}

	for i, path := range want {
		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.Equal(t, bodies[i], string(data), path)
	}
}

func TestArchive_CopyFallbackKeepsExisting(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "out/r.xlsx", []byte("old"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "in/r.xlsx", []byte("new"), 0o644))

	a := NewArchiver(crossDeviceFs{mem}, "out")
	a.now = func() time.Time { return time.Date(2026, 2, 8, 7, 5, 9, 0, time.UTC) }
	dst, err := a.Archive("in/r.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "out/r-20260208T070509.xlsx", dst)

	old, err := afero.ReadFile(mem, "out/r.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
	moved, err := afero.ReadFile(mem, dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(moved))
}

func TestArchive_CopyFallback(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "in/r.xlsx", []byte("data"), 0o644))

	dst, err := NewArchiver(crossDeviceFs{mem}, "out").Archive("in/r.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "out/r.xlsx", dst)

	gone, err := afero.Exists(mem, "in/r.xlsx")
	require.NoError(t, err)
	assert.False(t, gone)
	data, err := afero.ReadFile(mem, dst)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestArchive_MissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := NewArchiver(fs, "out").Archive("in/missing.xlsx")
	assert.Error(t, err)

	placeholder, err := afero.Exists(fs, "out/missing.xlsx")
	require.NoError(t, err)
	assert.False(t, placeholder)
}
