// Package minio provides a blobstore.BlobStore implementation for MinIO
// and other S3-compatible object stores, for deployments that keep
// tablet data on self-hosted object storage.
package minio
