package recovery

import (
	"fmt"

	"github.com/hupe1980/lakego/model"
)

// Error wraps a failure with the tablet and phase it occurred in.
type Error struct {
	TabletID model.TabletID
	Phase    Phase
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("recover tablet %d: phase %s: %v", e.TabletID, e.Phase, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CleanupError reports a failed cleanup step. Cleanup must fully succeed
// before any rebuild work starts; a partial cleanup aborts the run.
type CleanupError struct {
	Step string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup %s: %v", e.Step, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}
