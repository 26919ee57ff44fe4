package storage

import (
	"errors"
	"os"
	"path/filepath"
	"standbot/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fmPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestFileManager_SaveToFile_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dat")
	fm := NewFileManager(&testutil.MockCompressor{}, &testutil.MockLogger{})

	require.NoError(t, fm.SaveToFile(path, fmPayload{Name: "a", Count: 1}))

	_, err := os.Stat(path)
	assert.NoError(t, err)

	// Temp file should not exist
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileManager_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dat")
	comp, cleanup, err := NewZstdCompressor()
	require.NoError(t, err)
	defer cleanup()
	fm := NewFileManager(comp, &testutil.MockLogger{})

	require.NoError(t, fm.SaveToFile(path, fmPayload{Name: "standing", Count: 3}))

	var got fmPayload
	found, err := fm.LoadFromFile(path, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, fmPayload{Name: "standing", Count: 3}, got)
}

func TestFileManager_SaveToFile_CompressError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dat")
	comp := &testutil.MockCompressor{
		CompressFn: func([]byte) ([]byte, error) { return nil, errors.New("boom") },
	}
	fm := NewFileManager(comp, &testutil.MockLogger{})

	assert.Error(t, fm.SaveToFile(path, fmPayload{}))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileManager_SaveToFile_BadDirectory(t *testing.T) {
	fm := NewFileManager(&testutil.MockCompressor{}, &testutil.MockLogger{})
	assert.Error(t, fm.SaveToFile("/nonexistent/dir/test.dat", fmPayload{}))
}

func TestFileManager_SaveToFile_KeepsPreviousOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dat")
	comp := &testutil.MockCompressor{}
	fm := NewFileManager(comp, &testutil.MockLogger{})
	require.NoError(t, fm.SaveToFile(path, fmPayload{Name: "old"}))

	comp.CompressFn = func([]byte) ([]byte, error) { return nil, errors.New("boom") }
	require.Error(t, fm.SaveToFile(path, fmPayload{Name: "new"}))

	comp.CompressFn = nil
	var got fmPayload
	_, err := fm.LoadFromFile(path, &got)
	require.NoError(t, err)
	assert.Equal(t, "old", got.Name)
}

func TestFileManager_LoadFromFile_Missing(t *testing.T) {
	fm := NewFileManager(&testutil.MockCompressor{}, &testutil.MockLogger{})

	var got fmPayload
	found, err := fm.LoadFromFile("/nonexistent/file.dat", &got)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestFileManager_LoadFromFile_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.dat")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))
	logger := &testutil.MockLogger{}
	fm := NewFileManager(&testutil.MockCompressor{}, logger)

	var got fmPayload
	found, err := fm.LoadFromFile(path, &got)
	assert.Error(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, logger.Count("warn"))
}

func TestFileManager_LoadFromFile_DecompressError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dat")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	comp := &testutil.MockCompressor{
		DecompressFn: func([]byte) ([]byte, error) { return nil, errors.New("bad frame") },
	}
	fm := NewFileManager(comp, &testutil.MockLogger{})

	var got fmPayload
	_, err := fm.LoadFromFile(path, &got)
	assert.Error(t, err)
}
