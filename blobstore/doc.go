// Package blobstore abstracts access to the immutable blobs a tablet is
// made of: segment key files, tablet metadata versions and persistent
// index artifacts.
//
// # Implementations
//
//   - MemoryStore: in-memory, for tests
//   - LocalStore: local filesystem, mmap-backed reads
//   - CachingStore: block-level read cache around another store
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - s3.DDBCommitStore: S3 plus DynamoDB CAS for the CURRENT pointer
//   - minio.Store: MinIO and other S3-compatible object stores
//
// All stores treat Delete of an absent blob as success. Recovery relies
// on that to make its cleanup phase idempotent.
package blobstore
