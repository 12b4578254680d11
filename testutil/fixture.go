package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lakego/blobstore"
	"github.com/hupe1980/lakego/model"
	"github.com/hupe1980/lakego/rowset"
	"github.com/hupe1980/lakego/schema"
	"github.com/hupe1980/lakego/tabletmeta"
)

// KeySchema is the single string key column schema used by fixtures.
func KeySchema() *schema.Schema {
	return schema.New(
		schema.Column{Name: "k", Type: schema.TypeString, IsKey: true},
		schema.Column{Name: "v", Type: schema.TypeString},
	)
}

// RowsetSpec declares one fixture rowset. SegmentKeys holds the keys of
// each segment in row-ordinal order.
type RowsetSpec struct {
	ID                model.RowsetID
	MaxCompactInputID model.RowsetID
	HasCompactInput   bool
	SegmentKeys       [][]string
}

// BuildTablet writes segment key files for the given rowsets and commits
// the initial metadata snapshot for tabletID.
func BuildTablet(t *testing.T, store blobstore.BlobStore, metaStore *tabletmeta.Store, tabletID model.TabletID, specs ...RowsetSpec) *tabletmeta.Metadata {
	t.Helper()
	ctx := context.Background()

	keySchema, err := KeySchema().KeySchema()
	require.NoError(t, err)

	rowsets := make([]*rowset.Meta, 0, len(specs))
	for _, spec := range specs {
		rs := &rowset.Meta{
			ID:                spec.ID,
			MaxCompactInputID: spec.MaxCompactInputID,
			HasCompactInput:   spec.HasCompactInput,
		}
		for segID, keys := range spec.SegmentKeys {
			w, err := rowset.NewSegmentWriter(model.SegmentID(segID), keySchema)
			require.NoError(t, err)
			for _, k := range keys {
				require.NoError(t, w.Append(schema.Row{k}))
			}
			path := fmt.Sprintf("tablet/%d/seg/%d-%d.keys", tabletID, spec.ID, segID)
			seg, err := w.Finish(ctx, store, path)
			require.NoError(t, err)
			rs.Segments = append(rs.Segments, seg)
		}
		rowsets = append(rowsets, rs)
	}

	meta := tabletmeta.New(tabletID, KeySchema(), rowsets)
	require.NoError(t, metaStore.Save(ctx, meta))
	return meta
}

// EncodeKey encodes a fixture key the way segment writers do.
func EncodeKey(t *testing.T, key string) []byte {
	t.Helper()

	keySchema, err := KeySchema().KeySchema()
	require.NoError(t, err)
	enc, err := schema.NewEncoder(keySchema)
	require.NoError(t, err)
	out, err := enc.Encode(nil, schema.Row{key})
	require.NoError(t, err)
	return out
}
