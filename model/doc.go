// Package model defines core identity types used throughout lakego.
//
// # Identity Types
//
//   - TabletID: Immutable identifier of a table shard (int64)
//   - RowsetID: Unique identifier of a rowset within a tablet (uint32)
//   - SegmentID: Unique identifier of a segment within a rowset (uint32)
//   - RowOrdinal: Dense, segment-local row position (uint32)
//   - RowLocation: Physical address (RowsetID, SegmentID, RowOrdinal)
//   - Version: Monotonically increasing tablet metadata version (int64)
package model
