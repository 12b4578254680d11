// Package s3 provides an S3 implementation of the blobstore.BlobStore
// interface, used when tablet data lives in a disaggregated object store.
//
// # Usage
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(s3.NewFromConfig(cfg), "my-bucket", "tablets/")
//
// # Features
//
//   - Range reads for partial segment fetches
//   - Multipart uploads for large blobs
//   - Automatic pagination for listing
//   - Optional DynamoDB commit store for atomic metadata pointer swaps
package s3
