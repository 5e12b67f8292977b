package cpu

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/lunixbochs/pcode/models"
	"github.com/lunixbochs/pcode/pcode"
)

// StateChange is what a call-other handler tells the backend to do with
// control flow afterwards.
type StateChange struct {
	Taken  bool
	Target uint64
}

// Fallthrough continues with the next operation.
func Fallthrough() StateChange {
	return StateChange{}
}

// JumpTo transfers control to addr.
func JumpTo(addr uint64) StateChange {
	return StateChange{Taken: true, Target: addr}
}

// ArgError reports a call-other invocation whose input/output arity or
// shape doesn't match the operation. It is raised before any state is
// mutated and is distinct from a downstream read/write failure.
type ArgError struct {
	Index  uint64
	Reason string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("callother %d: %s", e.Index, e.Reason)
}

// CheckArgs validates arity/shape up front. Handlers call this before
// touching any machine state so a bad call never partially mutates.
func CheckArgs(index uint64, inputs []pcode.Varnode, output *pcode.Varnode, wantInputs int, wantOutput bool) error {
	if len(inputs) != wantInputs {
		return &ArgError{index, fmt.Sprintf("want %d inputs, got %d", wantInputs, len(inputs))}
	}
	if wantOutput && output == nil {
		return &ArgError{index, "output operand required"}
	}
	if !wantOutput && output != nil {
		return &ArgError{index, "unexpected output operand"}
	}
	return nil
}

// CallOtherCpu is the slice of machine state a handler may read and
// write: arbitrary space locations through varnodes. SpaceManager
// implements it.
type CallOtherCpu interface {
	ReadVarnode(vn pcode.Varnode) (uint64, error)
	WriteVarnode(vn pcode.Varnode, val uint64) error
}

// CallOtherHandler gives a target-defined pseudo-operation its
// semantics. Errors other than *ArgError mean a downstream read or
// write failed.
type CallOtherHandler interface {
	Handle(cpu CallOtherCpu, mmu models.Mmu, ev models.EventController, inputs []pcode.Varnode, output *pcode.Varnode) (StateChange, error)
}

// CallOtherFunc adapts a plain function to CallOtherHandler.
type CallOtherFunc func(cpu CallOtherCpu, mmu models.Mmu, ev models.EventController, inputs []pcode.Varnode, output *pcode.Varnode) (StateChange, error)

func (f CallOtherFunc) Handle(cpu CallOtherCpu, mmu models.Mmu, ev models.EventController, inputs []pcode.Varnode, output *pcode.Varnode) (StateChange, error) {
	return f(cpu, mmu, ev, inputs, output)
}

// CallOtherPair binds one pseudo-operation index to its handler.
type CallOtherPair struct {
	Index   uint64
	Handler CallOtherHandler
}

// CallOtherRegistry maps pseudo-operation indices to handlers. The
// whole set is enumerated and assembled up front by the constructing
// process, so there are no registration-order surprises later.
type CallOtherRegistry struct {
	handlers map[uint64]CallOtherHandler
}

func NewCallOtherRegistry(pairs []CallOtherPair) (*CallOtherRegistry, error) {
	r := &CallOtherRegistry{handlers: make(map[uint64]CallOtherHandler, len(pairs))}
	for _, p := range pairs {
		if p.Handler == nil {
			return nil, errors.Errorf("callother %d: nil handler", p.Index)
		}
		if _, ok := r.handlers[p.Index]; ok {
			return nil, errors.Errorf("callother %d: duplicate handler", p.Index)
		}
		r.handlers[p.Index] = p.Handler
	}
	return r, nil
}

func (r *CallOtherRegistry) Lookup(index uint64) (CallOtherHandler, bool) {
	h, ok := r.handlers[index]
	return h, ok
}

// Call dispatches one pseudo-operation. An unregistered index is an
// error: the pcode generator emitted an operation nobody claimed.
func (r *CallOtherRegistry) Call(index uint64, cpu CallOtherCpu, mmu models.Mmu, ev models.EventController, inputs []pcode.Varnode, output *pcode.Varnode) (StateChange, error) {
	h, ok := r.handlers[index]
	if !ok {
		return StateChange{}, errors.Errorf("callother %d: no handler registered", index)
	}
	return h.Handle(cpu, mmu, ev, inputs, output)
}
