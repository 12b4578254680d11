package testutil

import (
	"context"
	"io"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/lakego/blobstore"
)

// FaultStore wraps a BlobStore and fails reads of selected blobs after a
// configurable number of successful range reads. It models transient
// object store failures mid-scan.
type FaultStore struct {
	blobstore.BlobStore

	// PathSubstring selects the blobs whose reads fail. Empty matches
	// every blob.
	PathSubstring string

	// FailAfterReads is the number of range reads on a matching blob
	// that succeed before reads start failing.
	FailAfterReads int32

	// Err is the error returned by failing reads.
	Err error

	reads atomic.Int32
}

// Open intercepts matching blobs with a failing wrapper.
func (s *FaultStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	b, err := s.BlobStore.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if s.PathSubstring != "" && !strings.Contains(name, s.PathSubstring) {
		return b, nil
	}
	return &faultBlob{Blob: b, store: s}, nil
}

func (s *FaultStore) countRead() error {
	if s.reads.Add(1) > s.FailAfterReads {
		return s.Err
	}
	return nil
}

type faultBlob struct {
	blobstore.Blob
	store *FaultStore
}

func (b *faultBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := b.store.countRead(); err != nil {
		return 0, err
	}
	return b.Blob.ReadAt(ctx, p, off)
}

func (b *faultBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if err := b.store.countRead(); err != nil {
		return nil, err
	}
	return b.Blob.ReadRange(ctx, off, length)
}
