package model

import (
	"fmt"
)

// TabletID is the immutable identifier of a table shard.
type TabletID int64

// RowsetID is the unique identifier of a rowset within a tablet.
type RowsetID uint32

// SegmentID is the unique identifier of a segment within a rowset.
type SegmentID uint32

// RowOrdinal is a dense, segment-local row position.
// It is stable for the lifetime of the segment because segments are immutable.
type RowOrdinal uint32

// Version is a monotonically increasing tablet metadata version.
type Version int64

// RowLocation identifies the physical position of a row.
type RowLocation struct {
	Rowset  RowsetID
	Segment SegmentID
	Row     RowOrdinal
}

// String returns a string representation of the RowLocation.
func (l RowLocation) String() string {
	return fmt.Sprintf("Loc(%d:%d:%d)", l.Rowset, l.Segment, l.Row)
}
