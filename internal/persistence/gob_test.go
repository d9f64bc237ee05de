package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Name       string
	Postings   map[string][]int
	Paragraphs []string
}

func TestSaveAndLoadGob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.gob.zst")
	want := snapshot{
		Name:       "dureader",
		Postings:   map[string][]int{"北京": {0, 3}, "首都": {0}},
		Paragraphs: []string{strings.Repeat("北京 是 首都 ", 200)},
	}

	require.NoError(t, SaveGob(path, want))

	var got snapshot
	require.NoError(t, LoadGob(path, &got))
	assert.Equal(t, want, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(want.Paragraphs[0])))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveGobOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.gob.zst")
	require.NoError(t, SaveGob(path, snapshot{Name: "a"}))
	require.NoError(t, SaveGob(path, snapshot{Name: "b"}))

	var got snapshot
	require.NoError(t, LoadGob(path, &got))
	assert.Equal(t, "b", got.Name)
}

func TestLoadGobMissingFile(t *testing.T) {
	var got snapshot
	err := LoadGob(filepath.Join(t.TempDir(), "missing"), &got)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadGobCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot"), 0600))

	var got snapshot
	err := LoadGob(path, &got)
	require.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}
