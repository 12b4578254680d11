package lakego

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lakego/blobstore"
	"github.com/hupe1980/lakego/recovery"
	"github.com/hupe1980/lakego/rowset"
	"github.com/hupe1980/lakego/schema"
	"github.com/hupe1980/lakego/tabletmeta"
)

var (
	// ErrNotFound is returned when a tablet or blob does not exist.
	ErrNotFound = errors.New("lakego: not found")
)

// ErrRecoveryFailed indicates a failed recovery run.
//
// The failing phase and tablet are carried on the error; the underlying
// cause can be accessed via errors.Unwrap.
type ErrRecoveryFailed struct {
	TabletID int64
	Phase    string
	cause    error
}

func (e *ErrRecoveryFailed) Error() string {
	return fmt.Sprintf("recovery of tablet %d failed in phase %s", e.TabletID, e.Phase)
}

func (e *ErrRecoveryFailed) Unwrap() error { return e.cause }

// IsSchemaError reports whether err stems from a schema unfit for
// primary key use.
func IsSchemaError(err error) bool {
	var se *schema.Error
	return errors.As(err, &se)
}

// IsOrderingError reports whether err stems from a violated rowset
// replay-order invariant.
func IsOrderingError(err error) bool {
	var oe *rowset.OrderingError
	return errors.As(err, &oe)
}

// IsStorageError reports whether err stems from failed segment I/O.
func IsStorageError(err error) bool {
	var se *rowset.StorageError
	return errors.As(err, &se)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, tabletmeta.ErrNotFound) || errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var re *recovery.Error
	if errors.As(err, &re) {
		return &ErrRecoveryFailed{
			TabletID: int64(re.TabletID),
			Phase:    re.Phase.String(),
			cause:    err,
		}
	}

	return err
}
