package cpu

import "github.com/lunixbochs/pcode/models"

// runState tracks one invocation of the driver. Created fresh per run,
// mutated only by the driver, discarded on return.
type runState struct {
	count uint64
	max   uint64
}

func newRunState(max uint64) runState {
	return runState{max: max}
}

// done returns the count-complete report once the budget is reached.
// A zero budget is complete before the first step.
func (s *runState) done() *models.ExecutionReport {
	if s.count >= s.max {
		r := models.NewExecutionReport(models.InstructionCountComplete, s.count)
		return &r
	}
	return nil
}

// increment counts one fully completed step.
func (s *runState) increment() *models.ExecutionReport {
	s.count++
	return s.done()
}
