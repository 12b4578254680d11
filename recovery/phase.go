package recovery

// Phase identifies the stage a recovery run is in.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseCleanup
	PhaseSchema
	PhaseReplay
	PhaseFinalize
	PhaseCommitted
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCleanup:
		return "cleanup"
	case PhaseSchema:
		return "schema"
	case PhaseReplay:
		return "replay"
	case PhaseFinalize:
		return "finalize"
	case PhaseCommitted:
		return "committed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}
