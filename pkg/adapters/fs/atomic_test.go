package fs

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("Creates New File", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, fsys.MkdirAll("/vault", 0755))

		require.NoError(t, writeFileAtomic(fsys, "/vault/test.txt", []byte("hello atomic"), 0644))

		got, err := afero.ReadFile(fsys, "/vault/test.txt")
		require.NoError(t, err)
		assert.Equal(t, "hello atomic", string(got))
	})

	t.Run("Overwrites Existing File", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, "/vault/test.txt", []byte("initial"), 0644))

		require.NoError(t, writeFileAtomic(fsys, "/vault/test.txt", []byte("overwritten"), 0644))

		got, err := afero.ReadFile(fsys, "/vault/test.txt")
		require.NoError(t, err)
		assert.Equal(t, "overwritten", string(got))
	})

	t.Run("Leaves No Temp Files", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, fsys.MkdirAll("/vault", 0755))
		require.NoError(t, writeFileAtomic(fsys, "/vault/a", []byte("x"), 0644))

		infos, err := afero.ReadDir(fsys, "/vault")
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, "a", infos[0].Name())
	})

	t.Run("Respects Permissions", func(t *testing.T) {
		fsys := afero.NewOsFs()
		filename := filepath.Join(t.TempDir(), "perm.txt")

		require.NoError(t, writeFileAtomic(fsys, filename, []byte("secret"), 0600))

		info, err := fsys.Stat(filename)
		require.NoError(t, err)
		t.Logf("File permissions: %v", info.Mode())
	})

	t.Run("Fails if Directory Missing", func(t *testing.T) {
		fsys := afero.NewOsFs()
		filename := filepath.Join(t.TempDir(), "missing_folder", "test.txt")

		err := writeFileAtomic(fsys, filename, []byte("fail"), 0644)
		assert.Error(t, err)
	})
}
