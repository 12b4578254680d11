package recovery

import (
	"errors"
	"io"

	"github.com/hupe1980/lakego/model"
	"github.com/hupe1980/lakego/tabletmeta"
)

// deletionAccumulator collects superseded rows during replay, grouped by
// the segment they live in. Finalization turns each group into one
// delete vector stamped with the version being produced.
type deletionAccumulator struct {
	version model.Version
	vectors map[tabletmeta.DeleteVectorKey]*tabletmeta.DeleteVector
}

func newDeletionAccumulator(version model.Version) *deletionAccumulator {
	return &deletionAccumulator{
		version: version,
		vectors: make(map[tabletmeta.DeleteVectorKey]*tabletmeta.DeleteVector),
	}
}

func (a *deletionAccumulator) markDeleted(loc model.RowLocation) {
	key := tabletmeta.DeleteVectorKey{Rowset: loc.Rowset, Segment: loc.Segment}
	dv := a.vectors[key]
	if dv == nil {
		dv = tabletmeta.NewDeleteVector(a.version)
		a.vectors[key] = dv
	}
	dv.MarkDeleted(loc.Row)
}

func (a *deletionAccumulator) drainInto(builder *tabletmeta.Builder) {
	for key, dv := range a.vectors {
		builder.PutDeleteVector(key, dv)
	}
	a.vectors = nil
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
