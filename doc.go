// Package lakego implements primary key maintenance for a disaggregated
// tablet storage engine: the in-memory primary key index, per-segment
// delete vectors and the recovery pipeline that rebuilds both from the
// immutable rowset data in a blob store.
//
// # Quick Start
//
// Recover a tablet against a local data directory:
//
//	ctx := context.Background()
//	store := blobstore.NewLocalStore("./data")
//	meta, err := lakego.RecoverTablet(ctx, 42, store)
//
// Cloud mode, with S3 segments and DynamoDB-backed commits:
//
//	s3Store, _ := s3.NewDefaultStore(ctx, "my-bucket", "tablets/")
//	meta, err := lakego.RecoverTablet(ctx, 42, s3Store,
//	    lakego.WithScanConcurrency(8),
//	)
//
// Recovery replays the tablet's rowsets in logical write order, rebuilds
// the key-to-row index, derives delete vectors for superseded rows and
// commits the result as the next metadata version. A failed run leaves
// the previously committed version untouched.
package lakego
