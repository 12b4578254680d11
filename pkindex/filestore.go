package pkindex

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/lakego/blobstore"
	"github.com/hupe1980/lakego/internal/hash"
	"github.com/hupe1980/lakego/model"
)

// FileStore persists index snapshots in a blob store.
//
// Layout per tablet:
//
//	pindex/<tablet>/META       - snapshot descriptor (crc, size)
//	pindex/<tablet>/INDEX.bin  - compressed snapshot
//
// Meta and files are removable independently because recovery's cleanup
// mirrors the split between index metadata and index data.
type FileStore struct {
	store blobstore.BlobStore
}

// NewFileStore creates a FileStore over store.
func NewFileStore(store blobstore.BlobStore) *FileStore {
	return &FileStore{store: store}
}

func metaName(id model.TabletID) string {
	return fmt.Sprintf("pindex/%d/META", id)
}

func indexName(id model.TabletID) string {
	return fmt.Sprintf("pindex/%d/INDEX.bin", id)
}

func filesPrefix(id model.TabletID) string {
	return fmt.Sprintf("pindex/%d/", id)
}

// Save persists a snapshot of idx for the given tablet.
func (fs *FileStore) Save(ctx context.Context, id model.TabletID, idx *Index) error {
	var buf bytes.Buffer
	if err := idx.Save(&buf); err != nil {
		return err
	}

	if err := fs.store.Put(ctx, indexName(id), buf.Bytes()); err != nil {
		return err
	}

	// Meta is written after the data blob so a crash between the two
	// leaves no meta pointing at a missing snapshot.
	meta := make([]byte, 12)
	binary.LittleEndian.PutUint32(meta[0:], hash.CRC32C(buf.Bytes()))
	binary.LittleEndian.PutUint64(meta[4:], uint64(buf.Len()))
	return fs.store.Put(ctx, metaName(id), meta)
}

// Load reads the snapshot for the given tablet into a fresh Index
// created with seed. Returns blobstore.ErrNotFound when no snapshot
// exists, ErrBadSnapshot when validation fails.
func (fs *FileStore) Load(ctx context.Context, id model.TabletID, seed uint64) (*Index, error) {
	metaBlob, err := fs.store.Open(ctx, metaName(id))
	if err != nil {
		return nil, err
	}
	meta, err := blobstore.ReadAll(ctx, metaBlob)
	metaBlob.Close()
	if err != nil {
		return nil, err
	}
	if len(meta) != 12 {
		return nil, fmt.Errorf("%w: meta has %d bytes", ErrBadSnapshot, len(meta))
	}
	wantCRC := binary.LittleEndian.Uint32(meta[0:])
	wantSize := binary.LittleEndian.Uint64(meta[4:])

	blob, err := fs.store.Open(ctx, indexName(id))
	if err != nil {
		return nil, err
	}
	defer blob.Close()
	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != wantSize {
		return nil, fmt.Errorf("%w: snapshot size %d, meta says %d", ErrBadSnapshot, len(data), wantSize)
	}
	if hash.CRC32C(data) != wantCRC {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrBadSnapshot)
	}

	idx := NewSeeded(seed)
	if err := idx.Load(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return idx, nil
}

// RemoveMeta deletes the snapshot descriptor for a tablet.
// Removing an absent descriptor is success.
func (fs *FileStore) RemoveMeta(ctx context.Context, id model.TabletID) error {
	err := fs.store.Delete(ctx, metaName(id))
	if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return err
	}
	return nil
}

// RemoveFiles deletes all index data blobs for a tablet, leaving the
// descriptor to RemoveMeta. Removing absent files is success.
func (fs *FileStore) RemoveFiles(ctx context.Context, id model.TabletID) error {
	names, err := fs.store.List(ctx, filesPrefix(id))
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == metaName(id) {
			continue
		}
		if err := fs.store.Delete(ctx, name); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
			return err
		}
	}
	return nil
}
