package lakego

import (
	"context"
	"time"

	"github.com/hupe1980/lakego/blobstore"
	"github.com/hupe1980/lakego/model"
	"github.com/hupe1980/lakego/recovery"
	"github.com/hupe1980/lakego/tabletmeta"
	"github.com/hupe1980/lakego/updatemgr"
)

// RecoverTablet rebuilds the primary key index and delete vectors of one
// tablet from its rowset data in store and returns the newly committed
// metadata snapshot.
//
// On failure the previously committed metadata version stays
// authoritative and the error carries the failing phase; rerunning is
// safe and starts from cleanup again.
func RecoverTablet(ctx context.Context, tabletID model.TabletID, store blobstore.BlobStore, optFns ...Option) (*tabletmeta.Metadata, error) {
	o := options{
		logger:          NoopLogger(),
		scanConcurrency: 4,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.metaStore == nil {
		o.metaStore = tabletmeta.NewStore(store)
	}
	if o.updateMgr == nil {
		o.updateMgr = updatemgr.New()
	}

	r := recovery.New(tabletID, o.metaStore, store, o.updateMgr, func(ro *recovery.Options) {
		ro.Logger = o.logger.Logger
		ro.Seed = o.seed
		ro.ScanConcurrency = o.scanConcurrency
		ro.Controller = o.controller
		ro.PersistIndex = o.persistIndex
	})

	start := time.Now()
	meta, err := r.Run(ctx)
	if err != nil {
		o.logger.LogRecovery(ctx, tabletID, 0, time.Since(start), err)
		return nil, translateError(err)
	}
	o.logger.LogRecovery(ctx, tabletID, meta.Version, time.Since(start), nil)
	return meta, nil
}

// CurrentMetadata loads the committed metadata snapshot of a tablet.
func CurrentMetadata(ctx context.Context, tabletID model.TabletID, store blobstore.BlobStore) (*tabletmeta.Metadata, error) {
	meta, err := tabletmeta.NewStore(store).Load(ctx, tabletID)
	if err != nil {
		return nil, translateError(err)
	}
	return meta, nil
}
