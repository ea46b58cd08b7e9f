package executor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/dotsmith/pkg/testutil"
	"github.com/arthur-debert/dotsmith/pkg/types"
)

func copyOp(root string) types.DirectoryCopyOperation {
	return types.DirectoryCopyOperation{
		SourcePath: filepath.Join(root, "configs{os=linux}"),
		OutputPath: filepath.Join(root, "configs"),
	}
}

func TestDirectoryCopy_ReplicatesTree(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "configs{os=linux}/app.conf", "A=1\n")
	testutil.WriteFile(t, root, "configs{os=linux}/nested/deep.txt", "deep\n")
	testutil.WriteFile(t, root, "configs{os=linux}/.hidden", "hidden\n")

	result := NewDirectoryCopyExecutor().Execute(copyOp(root))

	require.NoError(t, result.Err)
	assert.True(t, result.Success)
	assert.True(t, result.Changed)
	assert.Equal(t, 3, result.FilesWritten)
	assert.Equal(t, "A=1\n", testutil.ReadFile(t, root, "configs/app.conf"))
	assert.Equal(t, "deep\n", testutil.ReadFile(t, root, "configs/nested/deep.txt"))
	assert.Equal(t, "hidden\n", testutil.ReadFile(t, root, "configs/.hidden"))
}

func TestDirectoryCopy_SecondRunIsNoOp(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "configs{os=linux}/app.conf", "A=1\n")
	exec := NewDirectoryCopyExecutor()

	first := exec.Execute(copyOp(root))
	require.NoError(t, first.Err)
	assert.Equal(t, 1, first.FilesWritten)

	second := exec.Execute(copyOp(root))
	require.NoError(t, second.Err)
	assert.False(t, second.Changed)
	assert.Equal(t, 0, second.FilesWritten)
	assert.Equal(t, 1, second.FilesUnchanged)
}

func TestDirectoryCopy_RewritesChangedFile(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "configs{os=linux}/app.conf", "A=1\n")
	testutil.WriteFile(t, root, "configs/app.conf", "A=stale\n")

	result := NewDirectoryCopyExecutor().Execute(copyOp(root))

	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.FilesWritten)
	assert.Equal(t, "A=1\n", testutil.ReadFile(t, root, "configs/app.conf"))
}

func TestDirectoryCopy_SameSizeDifferentContent(t *testing.T) {
	// Size alone never proves equality
	root := t.TempDir()
	testutil.WriteFile(t, root, "configs{os=linux}/app.conf", "AAAA")
	testutil.WriteFile(t, root, "configs/app.conf", "BBBB")

	result := NewDirectoryCopyExecutor().Execute(copyOp(root))

	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.FilesWritten)
	assert.Equal(t, "AAAA", testutil.ReadFile(t, root, "configs/app.conf"))
}

func TestDirectoryCopy_SymlinkReplicatedNotDereferenced(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "configs{os=linux}/real.conf", "real\n")
	testutil.Symlink(t, root, "configs{os=linux}/link.conf", "real.conf")

	result := NewDirectoryCopyExecutor().Execute(copyOp(root))

	require.NoError(t, result.Err)
	target, err := os.Readlink(filepath.Join(root, "configs/link.conf"))
	require.NoError(t, err)
	assert.Equal(t, "real.conf", target)
}

func TestDirectoryCopy_SymlinkSecondRunIsNoOp(t *testing.T) {
	root := t.TempDir()
	testutil.Symlink(t, root, "configs{os=linux}/link.conf", "elsewhere")
	exec := NewDirectoryCopyExecutor()

	first := exec.Execute(copyOp(root))
	require.NoError(t, first.Err)
	assert.Equal(t, 1, first.FilesWritten)

	second := exec.Execute(copyOp(root))
	require.NoError(t, second.Err)
	assert.Equal(t, 0, second.FilesWritten)
	assert.Equal(t, 1, second.FilesUnchanged)
}

func TestDirectoryCopy_SymlinkReplacesStaleFile(t *testing.T) {
	root := t.TempDir()
	testutil.Symlink(t, root, "configs{os=linux}/entry", "target")
	testutil.WriteFile(t, root, "configs/entry", "was a regular file\n")

	result := NewDirectoryCopyExecutor().Execute(copyOp(root))

	require.NoError(t, result.Err)
	target, err := os.Readlink(filepath.Join(root, "configs/entry"))
	require.NoError(t, err)
	assert.Equal(t, "target", target)
}

func TestDirectoryCopy_EmptySourceYieldsEmptyOutput(t *testing.T) {
	root := t.TempDir()
	testutil.MkDir(t, root, "configs{os=linux}")

	result := NewDirectoryCopyExecutor().Execute(copyOp(root))

	require.NoError(t, result.Err)
	assert.True(t, result.Success)
	assert.False(t, result.Changed)
	info, err := os.Stat(filepath.Join(root, "configs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDirectoryCopy_MissingSourceIsNotAnError(t *testing.T) {
	root := t.TempDir()

	result := NewDirectoryCopyExecutor().Execute(copyOp(root))

	require.NoError(t, result.Err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.FilesWritten)
	assert.False(t, testutil.Exists(t, root, "configs"))
}

func TestDirectoryCopy_ExtraFilesInOutputSurvive(t *testing.T) {
	// Replication adds and updates, reconciliation handles removal
	root := t.TempDir()
	testutil.WriteFile(t, root, "configs{os=linux}/app.conf", "A=1\n")
	testutil.WriteFile(t, root, "configs/extra.conf", "kept\n")

	result := NewDirectoryCopyExecutor().Execute(copyOp(root))

	require.NoError(t, result.Err)
	assert.Equal(t, "kept\n", testutil.ReadFile(t, root, "configs/extra.conf"))
}
