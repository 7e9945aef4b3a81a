package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bstardust/exif-analyzer/internal/fileinfo"
	"github.com/bstardust/exif-analyzer/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
}

func jpegs(t *testing.T) fileinfo.ExtensionSet {
	t.Helper()
	set, err := fileinfo.NewExtensionSet(fileinfo.DefaultExtensions...)
	require.NoError(t, err)
	return set
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		r, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestScan_Recursive(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"b.jpg", "a.JPG", "notes.txt", "c.jpeg",
		"sub/d.jpg", "sub/deeper/e.JPEG", "sub/f.png",
		".hidden/g.jpg",
	)

	seq, err := New().Scan(root, true, jpegs(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		".hidden/g.jpg",
		"a.JPG",
		"b.jpg",
		"c.jpeg",
		"sub/d.jpg",
		"sub/deeper/e.JPEG",
	}, rel(t, root, Collect(seq)))
}

func TestScan_Flat(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "b.jpg", "a.jpg", "sub/c.jpg")
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir.jpg"), 0o755))

	seq, err := New().Scan(root, false, jpegs(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"a.jpg", "b.jpg"}, rel(t, root, Collect(seq)))
}

func TestScan_ExtensionFilter(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.jpg", "b.PNG", "c.png")

	exts, err := fileinfo.NewExtensionSet("png")
	require.NoError(t, err)

	seq, err := New().Scan(root, true, exts)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.PNG", "c.png"}, rel(t, root, Collect(seq)))
}

func TestScan_EmptyDirectory(t *testing.T) {
	seq, err := New().Scan(t.TempDir(), true, jpegs(t))
	require.NoError(t, err)
	assert.Empty(t, Collect(seq))
}

func TestScan_RootErrors(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "file.jpg")

	_, err := New().Scan(filepath.Join(root, "missing"), true, jpegs(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	var se *common.ScanError
	assert.ErrorAs(t, err, &se)

	_, err = New().Scan(filepath.Join(root, "file.jpg"), true, jpegs(t))
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestScan_Restartable(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.jpg")

	seq, err := New().Scan(root, true, jpegs(t))
	require.NoError(t, err)
	assert.Len(t, Collect(seq), 1)

	touch(t, root, "b.jpg")
	assert.Len(t, Collect(seq), 2)
}

func TestScan_EarlyStop(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.jpg", "b.jpg", "sub/c.jpg")

	for _, recursive := range []bool{true, false} {
		seq, err := New().Scan(root, recursive, jpegs(t))
		require.NoError(t, err)

		var got []string
		for p := range seq {
			got = append(got, p)
			break
		}
		assert.Len(t, got, 1)
	}
}

func TestScan_Symlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	touch(t, root, "a.jpg", "sub/b.jpg")
	touch(t, outside, "linked.jpg")

	if err := os.Symlink(root, filepath.Join(root, "sub", "loop")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "elsewhere")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "linked.jpg"), filepath.Join(root, "link.jpg")))

	t.Run("not followed by default", func(t *testing.T) {
		seq, err := New().Scan(root, true, jpegs(t))
		require.NoError(t, err)
		assert.Equal(t, []string{"a.jpg", "link.jpg", "sub/b.jpg"}, rel(t, root, Collect(seq)))
	})

	t.Run("followed with cycle guard", func(t *testing.T) {
		seq, err := New(FollowSymlinks(true)).Scan(root, true, jpegs(t))
		require.NoError(t, err)
		assert.Equal(t, []string{"a.jpg", "elsewhere/linked.jpg", "link.jpg", "sub/b.jpg"}, rel(t, root, Collect(seq)))
	})

	t.Run("flat includes linked files", func(t *testing.T) {
		seq, err := New().Scan(root, false, jpegs(t))
		require.NoError(t, err)
		assert.Equal(t, []string{"a.jpg", "link.jpg"}, rel(t, root, Collect(seq)))
	})
}
