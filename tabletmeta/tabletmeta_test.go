package tabletmeta

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lakego/blobstore"
	"github.com/hupe1980/lakego/model"
	"github.com/hupe1980/lakego/rowset"
	"github.com/hupe1980/lakego/schema"
)

func metadataForTest() *Metadata {
	s := schema.New(
		schema.Column{Name: "id", Type: schema.TypeInt64, IsKey: true},
		schema.Column{Name: "value", Type: schema.TypeString},
	)
	rowsets := []*rowset.Meta{
		{
			ID: 3,
			Segments: []rowset.SegmentMeta{
				{ID: 0, RowCount: 100, Path: "seg/3-0.keys", Size: 1024},
				{ID: 1, RowCount: 50, Path: "seg/3-1.keys", Size: 512},
			},
		},
		{
			ID:                7,
			MaxCompactInputID: 5,
			HasCompactInput:   true,
			Segments: []rowset.SegmentMeta{
				{ID: 0, RowCount: 200, Path: "seg/7-0.keys", Size: 2048},
			},
		},
	}
	return New(42, s, rowsets)
}

func TestDeleteVector(t *testing.T) {
	dv := NewDeleteVector(9)
	require.Equal(t, model.Version(9), dv.Version())
	require.True(t, dv.IsEmpty())

	dv.MarkDeleted(17)
	dv.MarkDeleted(3)
	dv.MarkDeleted(17)

	require.Equal(t, uint64(2), dv.Cardinality())
	require.True(t, dv.IsDeleted(3))
	require.False(t, dv.IsDeleted(4))
	require.Equal(t, []model.RowOrdinal{3, 17}, dv.Ordinals())

	clone := dv.Clone()
	clone.MarkDeleted(99)
	require.Equal(t, uint64(2), dv.Cardinality())
	require.False(t, dv.Equal(clone))
}

func TestBuilderCommit(t *testing.T) {
	base := metadataForTest()

	b := NewBuilder(base)
	require.Equal(t, model.Version(2), b.NextVersion())

	dv := NewDeleteVector(b.NextVersion())
	dv.MarkDeleted(10)
	b.PutDeleteVector(DeleteVectorKey{Rowset: 3, Segment: 1}, dv)

	next, err := b.Commit()
	require.NoError(t, err)
	require.Equal(t, model.Version(2), next.Version)
	require.Len(t, next.DeleteVectors, 1)

	// The base snapshot is untouched.
	require.Equal(t, model.Version(1), base.Version)
	require.Empty(t, base.DeleteVectors)
}

func TestBuilderDropsEmptyDeleteVectors(t *testing.T) {
	b := NewBuilder(metadataForTest())
	b.PutDeleteVector(DeleteVectorKey{Rowset: 3, Segment: 0}, NewDeleteVector(2))

	next, err := b.Commit()
	require.NoError(t, err)
	require.Empty(t, next.DeleteVectors)
}

func TestBuilderValidation(t *testing.T) {
	t.Run("delete vector for unknown segment", func(t *testing.T) {
		b := NewBuilder(metadataForTest())
		dv := NewDeleteVector(2)
		dv.MarkDeleted(0)
		b.PutDeleteVector(DeleteVectorKey{Rowset: 99, Segment: 0}, dv)

		_, err := b.Commit()
		require.ErrorContains(t, err, "unknown segment")
	})

	t.Run("ordinal beyond segment rows", func(t *testing.T) {
		b := NewBuilder(metadataForTest())
		dv := NewDeleteVector(2)
		dv.MarkDeleted(100)
		b.PutDeleteVector(DeleteVectorKey{Rowset: 3, Segment: 0}, dv)

		_, err := b.Commit()
		require.ErrorContains(t, err, "beyond segment rows")
	})

	t.Run("duplicate rowset id", func(t *testing.T) {
		b := NewBuilder(metadataForTest())
		b.SetRowsets([]*rowset.Meta{{ID: 3}, {ID: 3}})

		_, err := b.Commit()
		require.ErrorContains(t, err, "duplicate rowset id")
	})
}

func TestBinaryRoundTrip(t *testing.T) {
	m := metadataForTest()
	dv := NewDeleteVector(1)
	dv.MarkDeleted(1)
	dv.MarkDeleted(77)
	m.DeleteVectors[DeleteVectorKey{Rowset: 7, Segment: 0}] = dv

	var buf bytes.Buffer
	require.NoError(t, m.WriteBinary(&buf))

	got, err := ReadBinary(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	require.Equal(t, m.TabletID, got.TabletID)
	require.Equal(t, m.Version, got.Version)
	require.Equal(t, m.Schema, got.Schema)
	require.Equal(t, m.Rowsets, got.Rowsets)
	require.Len(t, got.DeleteVectors, 1)

	gotDV := got.DeleteVectors[DeleteVectorKey{Rowset: 7, Segment: 0}]
	require.NotNil(t, gotDV)
	require.Equal(t, model.Version(1), gotDV.Version())
	require.True(t, dv.Equal(gotDV))
}

func TestBinaryRejectsCorruption(t *testing.T) {
	m := metadataForTest()
	var buf bytes.Buffer
	require.NoError(t, m.WriteBinary(&buf))

	data := buf.Bytes()
	data[20] ^= 0xff
	_, err := ReadBinary(bytes.NewReader(data))
	require.ErrorContains(t, err, "checksum mismatch")
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	store := NewStore(bs)

	t.Run("load missing tablet", func(t *testing.T) {
		_, err := store.Load(ctx, 1)
		require.ErrorIs(t, err, ErrNotFound)
	})

	m := metadataForTest()
	require.NoError(t, store.Save(ctx, m))

	t.Run("load committed", func(t *testing.T) {
		got, err := store.Load(ctx, m.TabletID)
		require.NoError(t, err)
		require.Equal(t, m.Version, got.Version)
		require.Equal(t, m.Rowsets, got.Rowsets)
	})

	t.Run("pointer follows latest commit", func(t *testing.T) {
		b := NewBuilder(m)
		dv := NewDeleteVector(b.NextVersion())
		dv.MarkDeleted(5)
		b.PutDeleteVector(DeleteVectorKey{Rowset: 3, Segment: 0}, dv)
		next, err := b.Commit()
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, next))

		got, err := store.Load(ctx, m.TabletID)
		require.NoError(t, err)
		require.Equal(t, model.Version(2), got.Version)
		require.Len(t, got.DeleteVectors, 1)

		// Older versions stay addressable.
		old, err := store.LoadVersion(ctx, m.TabletID, 1)
		require.NoError(t, err)
		require.Equal(t, model.Version(1), old.Version)
	})

	t.Run("delete version", func(t *testing.T) {
		require.NoError(t, store.DeleteVersion(ctx, m.TabletID, 1))
		_, err := store.LoadVersion(ctx, m.TabletID, 1)
		require.ErrorIs(t, err, ErrNotFound)

		got, err := store.Load(ctx, m.TabletID)
		require.NoError(t, err)
		require.Equal(t, model.Version(2), got.Version)
	})
}
