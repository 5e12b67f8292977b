package models

import "fmt"

// TargetExitReason describes why a run of the interpreter stopped.
// These are expected terminations and are always reported through an
// ExecutionReport, never as an error.
type TargetExitReason int

const (
	// zero value, means "still running" when returned from a step
	ExitNone TargetExitReason = iota

	// the requested instruction budget was reached
	InstructionCountComplete

	// the host set the stop flag between steps
	HostStopRequest

	// the backend could not decode the bytes at pc
	InvalidInstruction

	// a fetch, read, or write touched an unmapped address
	UnmappedMemoryFetch
	UnmappedMemoryRead
	UnmappedMemoryWrite

	// backend-specific fault with no more precise reason
	GeneralFault
)

func (r TargetExitReason) String() string {
	switch r {
	case ExitNone:
		return "none"
	case InstructionCountComplete:
		return "instruction count complete"
	case HostStopRequest:
		return "host stop request"
	case InvalidInstruction:
		return "invalid instruction"
	case UnmappedMemoryFetch:
		return "unmapped fetch"
	case UnmappedMemoryRead:
		return "unmapped read"
	case UnmappedMemoryWrite:
		return "unmapped write"
	case GeneralFault:
		return "general fault"
	}
	return fmt.Sprintf("TargetExitReason(%d)", int(r))
}

// ExecutionReport is produced exactly once per driver invocation and is
// not modified afterwards.
type ExecutionReport struct {
	ExitReason           TargetExitReason
	InstructionsExecuted uint64
}

func NewExecutionReport(reason TargetExitReason, count uint64) ExecutionReport {
	return ExecutionReport{ExitReason: reason, InstructionsExecuted: count}
}

func (r ExecutionReport) String() string {
	return fmt.Sprintf("%s after %d instructions", r.ExitReason, r.InstructionsExecuted)
}
