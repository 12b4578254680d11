package lakego

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lakego/blobstore"
	"github.com/hupe1980/lakego/model"
	"github.com/hupe1980/lakego/tabletmeta"
	"github.com/hupe1980/lakego/testutil"
	"github.com/hupe1980/lakego/updatemgr"
)

func TestRecoverTablet(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	metaStore := tabletmeta.NewStore(store)
	mgr := updatemgr.New()

	testutil.BuildTablet(t, store, metaStore, 7,
		testutil.RowsetSpec{ID: 1, SegmentKeys: [][]string{{"k1"}}},
		testutil.RowsetSpec{ID: 2, SegmentKeys: [][]string{{"k1", "k2"}}},
	)

	meta, err := RecoverTablet(ctx, 7, store,
		WithUpdateManager(mgr),
		WithScanConcurrency(2),
		WithSeed(99),
	)
	require.NoError(t, err)
	require.Equal(t, model.Version(2), meta.Version)
	require.Len(t, meta.DeleteVectors, 1)

	idx := mgr.Get(7)
	require.NotNil(t, idx)
	require.Equal(t, 2, idx.Len())

	got, err := CurrentMetadata(ctx, 7, store)
	require.NoError(t, err)
	require.Equal(t, meta.Version, got.Version)
}

func TestRecoverTabletNotFound(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	_, err := RecoverTablet(ctx, 404, store)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = CurrentMetadata(ctx, 404, store)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecoverTabletFailureTyping(t *testing.T) {
	ctx := context.Background()
	inner := blobstore.NewMemoryStore()
	store := &testutil.FaultStore{
		BlobStore:     inner,
		PathSubstring: ".keys",
		Err:           context.DeadlineExceeded,
	}
	metaStore := tabletmeta.NewStore(store)

	testutil.BuildTablet(t, store, metaStore, 7,
		testutil.RowsetSpec{ID: 1, SegmentKeys: [][]string{{"k1"}}},
	)

	_, err := RecoverTablet(ctx, 7, store)
	var failed *ErrRecoveryFailed
	require.ErrorAs(t, err, &failed)
	require.Equal(t, int64(7), failed.TabletID)
	require.Equal(t, "replay", failed.Phase)
	require.True(t, IsStorageError(err))
	require.False(t, IsSchemaError(err))
	require.False(t, IsOrderingError(err))
}
