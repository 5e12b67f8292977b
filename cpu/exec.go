package cpu

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lunixbochs/pcode/models"
	"github.com/lunixbochs/pcode/pcode"
)

// ExecInfo pairs the report with the payload of the last fully
// completed step. Last is nil if no step completed or the run ended in
// a backend early exit.
type ExecInfo[D any] struct {
	Report models.ExecutionReport
	Last   *D
}

// Executor drives fetch/execute for one backend. It is single-threaded
// apart from RequestStop, which any thread may call; the flag is only
// consulted between steps, so a step in progress always runs to
// completion before a stop takes effect.
type Executor[D any] struct {
	backend Backend[D]
	hooks   *Hooks
	stop    atomic.Bool
	buf     *pcode.Buffer
}

func NewExecutor[D any](backend Backend[D], hooks *Hooks) *Executor[D] {
	return &Executor[D]{
		backend: backend,
		hooks:   hooks,
		buf:     pcode.NewBuffer(),
	}
}

func (e *Executor[D]) Hooks() *Hooks {
	return e.hooks
}

// RequestStop sets the cooperative stop flag. Safe from any thread.
func (e *Executor[D]) RequestStop() {
	e.stop.Store(true)
}

// consume the stop flag, clearing it either way
func (e *Executor[D]) stopRequested() bool {
	return e.stop.Swap(false)
}

// Execute runs up to count steps. Expected terminations (budget
// reached, host stop, backend early exit) come back in the report; an
// error return means the run aborted with no report and the counter
// reflects only fully completed steps.
func (e *Executor[D]) Execute(mmu models.Mmu, ev models.EventController, count uint64) (ExecInfo[D], error) {
	state := newRunState(count)

	// a stop requested before the run begins wins over everything,
	// including a zero budget
	if e.stopRequested() {
		return ExecInfo[D]{
			Report: models.NewExecutionReport(models.HostStopRequest, 0),
		}, nil
	}

	var last *D
	branched := false
	report := state.done()
	for report == nil {
		if err := e.preStepHooks(mmu); err != nil {
			return ExecInfo[D]{}, errors.Wrap(err, "pre-step hooks failed")
		}

		// a code hook may have requested the stop; the step it would
		// have preceded does not run
		if e.stopRequested() {
			report = reportAt(models.HostStopRequest, &state)
			break
		}

		if branched {
			if err := e.blockHooks(mmu, ev); err != nil {
				return ExecInfo[D]{}, errors.Wrap(err, "block hooks failed")
			}
			branched = false
		}

		e.buf.Clear()
		out, err := e.backend.StepOne(e.buf, mmu, ev)
		if err != nil {
			return ExecInfo[D]{}, err
		}
		if out.Exit != models.ExitNone {
			return ExecInfo[D]{
				Report: models.NewExecutionReport(out.Exit, state.count),
			}, nil
		}
		d := out.Data
		last = &d
		branched = out.Branched

		// count completion is checked before the post-step stop flag:
		// hitting the exact budget always reports count-complete even
		// if a stop arrived during the same step
		report = state.increment()
		if report == nil && e.stopRequested() {
			report = reportAt(models.HostStopRequest, &state)
		}
	}
	return ExecInfo[D]{Report: *report, Last: last}, nil
}

func reportAt(reason models.TargetExitReason, state *runState) *models.ExecutionReport {
	r := models.NewExecutionReport(reason, state.count)
	return &r
}

// preStepHooks translates the current pc and triggers code hooks with
// the physical address. A translation failure skips the hook; the fault
// surfaces on its own at fetch time inside the step.
func (e *Executor[D]) preStepHooks(mmu models.Mmu) error {
	if e.hooks.NumCode() == 0 {
		return nil
	}
	// re-read the pc every time: an earlier hook may have moved it
	pc, err := e.backend.PC()
	if err != nil {
		return err
	}
	phys, err := mmu.Translate(pc, models.MEM_FETCH)
	if err != nil {
		return nil
	}
	return e.hooks.OnCode(phys)
}

// blockHooks fires block hooks for the block starting at the current
// pc. The boundary scan only runs when a block hook is registered.
func (e *Executor[D]) blockHooks(mmu models.Mmu, ev models.EventController) error {
	if e.hooks.NumBlock() == 0 {
		return nil
	}
	pc, err := e.backend.PC()
	if err != nil {
		return err
	}
	end, err := e.backend.BlockEnd(mmu, ev, pc)
	if err != nil {
		return err
	}
	return e.hooks.OnBlock(pc, uint32(end-pc))
}
