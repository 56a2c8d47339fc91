package steam

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = "\xEF\xBB\xBF" + `"AppWorkshop"
{
	"appid"		"3167020"
	"SizeOnDisk"		"1024"
	"WorkshopItemsInstalled"
	{
		"3412345678"
		{
			"size"		"512"
			"timeupdated"		"1738368000"
		}
		"3400000001"
		{
			"size"		"512"
		}
	}
	"WorkshopItemDetails"
	{
		"3412345678"
		{
			"manifest"		"123"
		}
		"3999999999"
		{
			"manifest"		"456"
		}
	}
}
`

func TestWorkshop_Manifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "appworkshop_3167020.acf"), []byte(manifest), 0o644))

	ids, err := NewWorkshop(dir, 3167020).ListLocalIdentifiers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"3400000001", "3412345678"}, ids)
}

func TestWorkshop_ContentFallback(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "content", "3167020")
	for _, d := range []string{"20", "10", "notes"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "30"), nil, 0o644))

	ids, err := NewWorkshop(dir, 3167020).ListLocalIdentifiers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "20"}, ids)
}

func TestWorkshop_NothingInstalled(t *testing.T) {
	ids, err := NewWorkshop(t.TempDir(), 3167020).ListLocalIdentifiers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestWorkshop_Errors(t *testing.T) {
	_, err := NewWorkshop("", 1).ListLocalIdentifiers(context.Background())
	assert.Error(t, err)

	_, err = installedItems([]byte("\"A\"\n{\n}\n}\n"))
	assert.ErrorContains(t, err, "unbalanced")
}
