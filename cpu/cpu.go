// Package cpu is the generic pcode interpreter core: the execution
// driver, the space manager routing reads and writes to per-space
// backing stores, the hook registry, and the call-other extension
// registry. Target-specific decode and semantics live behind the
// Backend interface; the driver stays architecture-agnostic.
package cpu

import (
	"github.com/lunixbochs/pcode/models"
	"github.com/lunixbochs/pcode/pcode"
)

// StepOut is everything one step reports back to the driver. The driver
// keeps no hidden per-backend state; branch detection and early exits
// travel through this value.
type StepOut[D any] struct {
	// backend-defined payload from a completed step
	Data D

	// true if the step ended in a control transfer, which makes the
	// driver evaluate block hooks before the next fetch
	Branched bool

	// ExitNone if the step completed; otherwise an expected early-exit
	// reason (invalid instruction, unmapped fetch, ...). The step that
	// reports an exit is not counted.
	Exit models.TargetExitReason
}

// Backend is the target's single-step primitive plus the decode-only
// lookahead used for block hooks. The type parameter D is the per-step
// payload: a scalar target might report the executed instruction, a
// VLIW target the whole packet. One driver algorithm serves both.
type Backend[D any] interface {
	// current program counter
	PC() (uint64, error)
	SetPC(addr uint64) error

	// StepOne fetches/decodes at the current pc into buf (handed over
	// cleared) and executes fully: one instruction for a scalar target,
	// one packet for a VLIW target. Early exits are normal outcomes
	// reported in StepOut; an error return aborts the run.
	StepOne(buf *pcode.Buffer, mmu models.Mmu, ev models.EventController) (StepOut[D], error)

	// BlockEnd decodes forward from start without executing or mutating
	// machine state and returns the first pc after the basic block. A
	// block that is a single branching instruction ends at its own
	// fallthrough address. Only called while at least one block hook is
	// registered.
	BlockEnd(mmu models.Mmu, ev models.EventController, start uint64) (uint64, error)
}
