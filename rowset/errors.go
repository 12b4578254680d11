package rowset

import (
	"fmt"

	"github.com/hupe1980/lakego/model"
)

// StorageError reports a failed read or write of a segment key file.
type StorageError struct {
	Rowset  model.RowsetID
	Segment model.SegmentID
	Path    string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("rowset %d segment %d: %s %q: %v", e.Rowset, e.Segment, e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// CorruptionError reports a segment key file that failed structural or
// checksum validation.
type CorruptionError struct {
	Path   string
	Reason string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("segment key file %q corrupt: %s", e.Path, e.Reason)
}
