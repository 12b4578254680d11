// Package rowset describes the immutable rowsets a tablet is made of and
// provides the segment key readers used to rebuild the primary index.
//
// A rowset is a versioned batch of writes, split into immutable columnar
// segments. For primary-key maintenance only the key columns matter, so
// segments keep a dedicated key file that can be scanned without
// touching value columns.
package rowset

import (
	"fmt"
	"sort"

	"github.com/hupe1980/lakego/model"
)

// SegmentMeta describes a single segment within a rowset.
type SegmentMeta struct {
	ID       model.SegmentID
	RowCount uint32
	// Path is the key file blob name, relative to the tablet root.
	Path string
	// Size is the key file size in bytes.
	Size int64
}

// Meta describes a rowset.
type Meta struct {
	ID       model.RowsetID
	Segments []SegmentMeta

	// MaxCompactInputID records the highest id among the rowsets this
	// one was compacted from. Valid only when HasCompactInput is true;
	// absent for rowsets that did not originate from compaction.
	MaxCompactInputID model.RowsetID
	HasCompactInput   bool
}

// EffectiveID returns the id used to place the rowset in replay order.
//
// A rowset produced by compaction must replay as if it occurred at the
// point in time of the newest data it absorbed, not at its own creation
// id. Otherwise rowsets that arrived between the compaction inputs and
// the compaction's completion would incorrectly appear newer than the
// compacted data during replay.
func (m *Meta) EffectiveID() model.RowsetID {
	if m.HasCompactInput {
		return m.MaxCompactInputID
	}
	return m.ID
}

// NumRows returns the total row count across all segments.
func (m *Meta) NumRows() uint64 {
	var n uint64
	for _, s := range m.Segments {
		n += uint64(s.RowCount)
	}
	return n
}

// OrderingError reports a violated replay-order invariant. It indicates
// tablet metadata corruption that this subsystem cannot repair.
type OrderingError struct {
	DuplicateID model.RowsetID
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("rowset ordering: duplicate rowset id %d", e.DuplicateID)
}

// SortForReplay sorts rowsets into replay order: ascending by effective
// id, ties broken by rowset id. Rowset ids must be unique within the
// slice; a duplicate fails with *OrderingError rather than silently
// picking an order.
func SortForReplay(rowsets []*Meta) error {
	seen := make(map[model.RowsetID]struct{}, len(rowsets))
	for _, rs := range rowsets {
		if _, dup := seen[rs.ID]; dup {
			return &OrderingError{DuplicateID: rs.ID}
		}
		seen[rs.ID] = struct{}{}
	}

	sort.Slice(rowsets, func(i, j int) bool {
		ei, ej := rowsets[i].EffectiveID(), rowsets[j].EffectiveID()
		if ei != ej {
			return ei < ej
		}
		return rowsets[i].ID < rowsets[j].ID
	})
	return nil
}
