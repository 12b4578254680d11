package blobstore

import (
	"context"
	"errors"
	"io"

	"github.com/hupe1980/lakego/internal/cache"
	"golang.org/x/sync/errgroup"
)

// CachingStore wraps a BlobStore and adds block-level read caching.
// Useful in front of remote stores where every read is a network round
// trip; recovery re-reads metadata and index blobs several times.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	blockSize int64
}

// NewCachingStore creates a CachingStore.
// blockSize defaults to 64KB if <= 0.
func NewCachingStore(inner BlobStore, c cache.BlockCache, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = 64 * 1024
	}
	return &CachingStore{inner: inner, cache: c, blockSize: blockSize}
}

// Open opens a blob whose reads go through the block cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{inner: b, cache: s.cache, name: name, blockSize: s.blockSize}, nil
}

// Create passes through; only reads are cached. Blobs are immutable, so
// a fresh name cannot have stale cached blocks.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	return s.inner.Create(ctx, name)
}

// Put invalidates any cached blocks of name before writing through.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Invalidate(func(key cache.Key) bool { return key.Path == name })
	return s.inner.Put(ctx, name, data)
}

// Delete invalidates any cached blocks of name before deleting.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Invalidate(func(key cache.Key) bool { return key.Path == name })
	return s.inner.Delete(ctx, name)
}

// List passes through.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

type cachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	name      string
	blockSize int64
}

func (b *cachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *cachingBlob) Close() error {
	return b.inner.Close()
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	size := b.inner.Size()
	if off >= size {
		return 0, io.EOF
	}

	want := int64(len(p))
	if off+want > size {
		want = size - off
	}

	firstBlock := off / b.blockSize
	lastBlock := (off + want - 1) / b.blockSize

	// Fetch missing blocks concurrently, then assemble.
	blocks := make([][]byte, lastBlock-firstBlock+1)
	g, gctx := errgroup.WithContext(ctx)
	for i := range blocks {
		blockIdx := firstBlock + int64(i)
		i := i
		key := cache.Key{Path: b.name, Offset: uint64(blockIdx)}
		if cached, ok := b.cache.Get(key); ok {
			blocks[i] = cached
			continue
		}
		g.Go(func() error {
			data, err := b.readBlock(gctx, blockIdx)
			if err != nil {
				return err
			}
			b.cache.Set(key, data)
			blocks[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	n := 0
	pos := off
	for i, block := range blocks {
		blockStart := (firstBlock + int64(i)) * b.blockSize
		from := pos - blockStart
		if from >= int64(len(block)) {
			break
		}
		c := copy(p[n:want], block[from:])
		n += c
		pos += int64(c)
	}
	if int64(n) < int64(len(p)) {
		return n, io.EOF
	}
	return n, nil
}

func (b *cachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	size := b.inner.Size()
	if off >= size {
		return io.NopCloser(&emptyReader{}), nil
	}
	if off+length > size {
		length = size - off
	}
	buf := make([]byte, length)
	n, err := b.ReadAt(ctx, buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return io.NopCloser(&sliceReader{data: buf[:n]}), nil
}

// readBlock reads one full block from the inner blob.
func (b *cachingBlob) readBlock(ctx context.Context, blockIdx int64) ([]byte, error) {
	start := blockIdx * b.blockSize
	length := b.blockSize
	if start+length > b.inner.Size() {
		length = b.inner.Size() - start
	}
	buf := make([]byte, length)
	n, err := b.inner.ReadAt(ctx, buf, start)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

type emptyReader struct{}

func (*emptyReader) Read([]byte) (int, error) { return 0, io.EOF }

type sliceReader struct {
	data []byte
	pos  int
}

func (r *sliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
