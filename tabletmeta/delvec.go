package tabletmeta

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/lakego/model"
)

// DeleteVectorKey identifies the segment a delete vector applies to.
type DeleteVectorKey struct {
	Rowset  model.RowsetID
	Segment model.SegmentID
}

func (k DeleteVectorKey) String() string {
	return fmt.Sprintf("%d:%d", k.Rowset, k.Segment)
}

// DeleteVector marks rows of one segment as deleted. Ordinals are row
// ordinals within the segment. Every vector is stamped with the metadata
// version it became effective at.
type DeleteVector struct {
	version model.Version
	bitmap  *roaring.Bitmap
}

// NewDeleteVector creates an empty delete vector effective at version.
func NewDeleteVector(version model.Version) *DeleteVector {
	return &DeleteVector{
		version: version,
		bitmap:  roaring.New(),
	}
}

// Version returns the metadata version the vector is effective at.
func (d *DeleteVector) Version() model.Version {
	return d.version
}

// MarkDeleted marks the row at ordinal as deleted. Marking a row twice
// has no further effect.
func (d *DeleteVector) MarkDeleted(ordinal model.RowOrdinal) {
	d.bitmap.Add(uint32(ordinal))
}

// IsDeleted reports whether the row at ordinal is marked deleted.
func (d *DeleteVector) IsDeleted(ordinal model.RowOrdinal) bool {
	return d.bitmap.Contains(uint32(ordinal))
}

// Cardinality returns the number of deleted rows.
func (d *DeleteVector) Cardinality() uint64 {
	return d.bitmap.GetCardinality()
}

// IsEmpty reports whether no rows are marked deleted.
func (d *DeleteVector) IsEmpty() bool {
	return d.bitmap.IsEmpty()
}

// Ordinals returns the deleted row ordinals in ascending order.
func (d *DeleteVector) Ordinals() []model.RowOrdinal {
	raw := d.bitmap.ToArray()
	out := make([]model.RowOrdinal, len(raw))
	for i, v := range raw {
		out[i] = model.RowOrdinal(v)
	}
	return out
}

// Clone returns a deep copy stamped with the same version.
func (d *DeleteVector) Clone() *DeleteVector {
	return &DeleteVector{
		version: d.version,
		bitmap:  d.bitmap.Clone(),
	}
}

// Equal reports whether both vectors mark the same set of rows. The
// version stamp does not participate in the comparison.
func (d *DeleteVector) Equal(other *DeleteVector) bool {
	return d.bitmap.Equals(other.bitmap)
}

func (d *DeleteVector) marshalBitmap() ([]byte, error) {
	return d.bitmap.ToBytes()
}

func unmarshalDeleteVector(version model.Version, data []byte) (*DeleteVector, error) {
	bm := roaring.New()
	if err := bm.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("decode delete vector bitmap: %w", err)
	}
	return &DeleteVector{version: version, bitmap: bm}, nil
}
