package appfs_test

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appfs "github.com/vanderidme15/vz-academias-sub001/fs"
)

func TestFS_Layouts(t *testing.T) {
	for _, name := range []string{
		"templates/pages/_base.gohtml",
		"templates/email/_base.gohtml",
		"templates/email/_base.txt",
	} {
		t.Run(name, func(t *testing.T) {
			b, err := fs.ReadFile(appfs.FS, name)
			require.NoError(t, err)
			assert.NotEmpty(t, b)
		})
	}
}

func TestFS_Migrations(t *testing.T) {
	entries, err := fs.ReadDir(appfs.FS, "migrations")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
