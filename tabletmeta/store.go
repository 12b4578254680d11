package tabletmeta

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sync"

	"github.com/hupe1980/lakego/blobstore"
	"github.com/hupe1980/lakego/model"
)

const (
	// MetaFileName is the prefix of versioned metadata blobs.
	MetaFileName = "META"
	// CurrentFileName is the per-tablet pointer blob naming the
	// currently committed metadata file.
	CurrentFileName = "CURRENT"
)

// ErrNotFound is returned when a tablet has no committed metadata.
var ErrNotFound = errors.New("tabletmeta: not found")

// Store persists metadata snapshots in a blob store.
//
// Each tablet lives under its own prefix. A commit writes the snapshot
// blob first and then swaps the tablet's CURRENT pointer; readers that
// follow the pointer either see the old or the new snapshot, never a
// partial one.
type Store struct {
	store blobstore.BlobStore
	mu    sync.Mutex
}

// NewStore creates a metadata store on top of store.
func NewStore(store blobstore.BlobStore) *Store {
	return &Store{store: store}
}

func tabletPrefix(id model.TabletID) string {
	return fmt.Sprintf("tablet/%d/", id)
}

func metaPath(id model.TabletID, version model.Version) string {
	return tabletPrefix(id) + fmt.Sprintf("%s-%06d.bin", MetaFileName, version)
}

// CurrentPath returns the pointer blob name for a tablet.
func CurrentPath(id model.TabletID) string {
	return tabletPrefix(id) + CurrentFileName
}

// Load loads the currently committed metadata of a tablet.
func (s *Store) Load(ctx context.Context, tabletID model.TabletID) (*Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.store.Open(ctx, CurrentPath(tabletID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	target, err := blobstore.ReadAll(ctx, b)
	b.Close()
	if err != nil {
		return nil, err
	}

	return s.load(ctx, tabletPrefix(tabletID)+string(target))
}

// LoadVersion loads a specific committed version of a tablet.
func (s *Store) LoadVersion(ctx context.Context, tabletID model.TabletID, version model.Version) (*Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx, metaPath(tabletID, version))
}

func (s *Store) load(ctx context.Context, name string) (*Metadata, error) {
	b, err := s.store.Open(ctx, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open metadata %s: %w", name, err)
	}
	defer b.Close()

	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		return nil, err
	}
	m, err := ReadBinary(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", name, err)
	}
	return m, nil
}

// Save commits a snapshot: the metadata blob is written first, then the
// tablet's CURRENT pointer is swapped to it.
func (s *Store) Save(ctx context.Context, m *Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := m.validate(); err != nil {
		return err
	}

	name := metaPath(m.TabletID, m.Version)
	var buf bytes.Buffer
	if err := m.WriteBinary(&buf); err != nil {
		return err
	}
	if err := s.store.Put(ctx, name, buf.Bytes()); err != nil {
		return err
	}

	return s.store.Put(ctx, CurrentPath(m.TabletID), []byte(path.Base(name)))
}

// DeleteVersion removes the metadata blob for one version. The CURRENT
// pointer is left untouched.
func (s *Store) DeleteVersion(ctx context.Context, tabletID model.TabletID, version model.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Delete(ctx, metaPath(tabletID, version))
}

