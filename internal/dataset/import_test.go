package dataset

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestImportEmbeddedIntoSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	names, err := Import(ctx, Embedded().FS, db)
	require.NoError(t, err)
	require.Len(t, names, 28)
	require.Contains(t, names, "campaignsData/campaignsp1")

	stored, err := db.Names(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 28)

	loaders := NewLoaders(db, DefaultLayout)
	campaigns, err := loaders.Campaigns.Load(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, campaigns, 20)

	// a second import replaces documents in place
	names, err = Import(ctx, Embedded().FS, db)
	require.NoError(t, err)
	require.Len(t, names, 28)
	stored, err = db.Names(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 28)
}

func TestImportSkipsOtherFilesAndRejectsBrokenDocuments(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	names, err := Import(ctx, fstest.MapFS{
		"README.md":     {Data: []byte("# data")},
		"accounts.yaml": {Data: []byte("- id: \"1\"\n")},
		"nested/x.json": {Data: []byte(`[]`)},
	}, db)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"accounts", "nested/x"}, names)

	_, err = Import(ctx, fstest.MapFS{
		"broken.json": {Data: []byte("{\"a\": [")},
	}, db)
	require.ErrorContains(t, err, "broken.json is not a valid document")

	_, err = db.Fetch(ctx, "broken")
	require.ErrorIs(t, err, ErrNotFound)
}
