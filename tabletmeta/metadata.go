package tabletmeta

import (
	"fmt"
	"time"

	"github.com/hupe1980/lakego/model"
	"github.com/hupe1980/lakego/rowset"
	"github.com/hupe1980/lakego/schema"
)

// Metadata is an immutable snapshot of a tablet's state at one version.
// Mutations go through a Builder; readers may hold a snapshot across a
// concurrent commit without seeing partial state.
type Metadata struct {
	TabletID  model.TabletID
	Version   model.Version
	CreatedAt time.Time
	Schema    *schema.Schema
	Rowsets   []*rowset.Meta

	// DeleteVectors maps each segment with deleted rows to its delete
	// vector. Segments without deletions have no entry.
	DeleteVectors map[DeleteVectorKey]*DeleteVector
}

// New creates the initial (version 1) metadata snapshot for a tablet.
func New(tabletID model.TabletID, s *schema.Schema, rowsets []*rowset.Meta) *Metadata {
	return &Metadata{
		TabletID:      tabletID,
		Version:       1,
		CreatedAt:     time.Now(),
		Schema:        s,
		Rowsets:       rowsets,
		DeleteVectors: map[DeleteVectorKey]*DeleteVector{},
	}
}

// Rowset returns the rowset with the given id, or nil.
func (m *Metadata) Rowset(id model.RowsetID) *rowset.Meta {
	for _, rs := range m.Rowsets {
		if rs.ID == id {
			return rs
		}
	}
	return nil
}

// DeleteVector returns the delete vector for key, or nil when the
// segment has no deletions.
func (m *Metadata) DeleteVector(key DeleteVectorKey) *DeleteVector {
	return m.DeleteVectors[key]
}

// validate checks the internal invariants of a snapshot: unique rowset
// ids and every delete vector referencing an existing segment.
func (m *Metadata) validate() error {
	segs := make(map[DeleteVectorKey]uint32)
	seen := make(map[model.RowsetID]struct{}, len(m.Rowsets))
	for _, rs := range m.Rowsets {
		if _, dup := seen[rs.ID]; dup {
			return fmt.Errorf("tablet %d: duplicate rowset id %d", m.TabletID, rs.ID)
		}
		seen[rs.ID] = struct{}{}
		for _, seg := range rs.Segments {
			segs[DeleteVectorKey{Rowset: rs.ID, Segment: seg.ID}] = seg.RowCount
		}
	}

	for key, dv := range m.DeleteVectors {
		rows, ok := segs[key]
		if !ok {
			return fmt.Errorf("tablet %d: delete vector %s references unknown segment", m.TabletID, key)
		}
		if ords := dv.Ordinals(); len(ords) > 0 && uint32(ords[len(ords)-1]) >= rows {
			return fmt.Errorf("tablet %d: delete vector %s ordinal %d beyond segment rows %d",
				m.TabletID, key, ords[len(ords)-1], rows)
		}
	}
	return nil
}

// Builder stages changes on top of a base snapshot. Commit produces the
// next immutable snapshot; the base is never modified.
type Builder struct {
	base    *Metadata
	rowsets []*rowset.Meta
	delvecs map[DeleteVectorKey]*DeleteVector
}

// NewBuilder creates a builder on top of base.
func NewBuilder(base *Metadata) *Builder {
	b := &Builder{
		base:    base,
		rowsets: append([]*rowset.Meta(nil), base.Rowsets...),
		delvecs: make(map[DeleteVectorKey]*DeleteVector, len(base.DeleteVectors)),
	}
	for k, dv := range base.DeleteVectors {
		b.delvecs[k] = dv
	}
	return b
}

// NextVersion returns the version the built snapshot will carry.
func (b *Builder) NextVersion() model.Version {
	return b.base.Version + 1
}

// ClearDeleteVectors drops all staged delete vector references.
func (b *Builder) ClearDeleteVectors() {
	b.delvecs = map[DeleteVectorKey]*DeleteVector{}
}

// PutDeleteVector stages dv for key, replacing any previous entry. Empty
// vectors are dropped rather than stored.
func (b *Builder) PutDeleteVector(key DeleteVectorKey, dv *DeleteVector) {
	if dv == nil || dv.IsEmpty() {
		delete(b.delvecs, key)
		return
	}
	b.delvecs[key] = dv
}

// SetRowsets replaces the staged rowset list.
func (b *Builder) SetRowsets(rowsets []*rowset.Meta) {
	b.rowsets = append([]*rowset.Meta(nil), rowsets...)
}

// Commit validates the staged state and returns it as the next snapshot
// with the version bumped. The builder must not be reused after Commit.
func (b *Builder) Commit() (*Metadata, error) {
	next := &Metadata{
		TabletID:      b.base.TabletID,
		Version:       b.base.Version + 1,
		CreatedAt:     time.Now(),
		Schema:        b.base.Schema,
		Rowsets:       b.rowsets,
		DeleteVectors: b.delvecs,
	}
	if err := next.validate(); err != nil {
		return nil, err
	}
	return next, nil
}
