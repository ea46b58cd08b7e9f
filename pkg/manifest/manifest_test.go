package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/dotsmith/pkg/errors"
)

func TestStore_LoadAbsentManifest(t *testing.T) {
	store := NewStore(t.TempDir())

	m, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Version, m.Version)
	assert.Empty(t, m.Outputs)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	outputs := []string{
		filepath.Join(root, "settings.json"),
		filepath.Join(root, "configs"),
	}

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, store.Save(outputs))

	m, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Version, m.Version)
	assert.Equal(t, outputs, m.Outputs)
	assert.True(t, m.LastRun.After(before))
}

func TestStore_SaveNilOutputs(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.Save(nil))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"outputs": []`, "empty set encodes as an array, not null")
}

func TestStore_SaveLeavesNoTempFile(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, store.Save([]string{"a"}))

	_, err := os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestStore_LoadCorruptManifest(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	require.NoError(t, os.WriteFile(store.Path(), []byte("not json"), 0644))

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrManifestLoad))
}

func TestStore_AcquireLock(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	release, err := store.AcquireLock()
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, LockName))

	release()
	_, statErr := os.Stat(filepath.Join(root, LockName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_AcquireLockConflicts(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	release, err := store.AcquireLock()
	require.NoError(t, err)
	defer release()

	_, err = store.AcquireLock()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrLockHeld))
}

func TestStore_AcquireLockBreaksStaleLock(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)
	lockPath := filepath.Join(root, LockName)

	require.NoError(t, os.WriteFile(lockPath, []byte("999999\n"), 0644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(lockPath, old, old))

	release, err := store.AcquireLock()
	require.NoError(t, err, "an hour-old lock is abandoned and broken")
	release()
}
