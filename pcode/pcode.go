// Package pcode holds the architecture-neutral IR vocabulary shared by
// the interpreter core and target decode modules. A pcode generator
// lowers native machine code into sequences of Op values; the core
// interprets them without knowing the source architecture.
package pcode

import "fmt"

// SpaceName identifies one logical address space. The named constants
// are the spaces every target has; any other value is an
// architecture-declared space.
type SpaceName string

const (
	SpaceRegister SpaceName = "register"
	SpaceRam      SpaceName = "ram"
	SpaceConstant SpaceName = "const"
	SpaceUnique   SpaceName = "unique"
)

// Varnode addresses a value: a sized byte range inside one space.
// Varnodes in the constant space carry their value in Offset and have
// no backing storage.
type Varnode struct {
	Space  SpaceName
	Offset uint64
	Size   uint32
}

func (v Varnode) String() string {
	return fmt.Sprintf("%s[%#x:%d]", v.Space, v.Offset, v.Size)
}

// Const builds a constant-space varnode holding val.
func Const(val uint64, size uint32) Varnode {
	return Varnode{Space: SpaceConstant, Offset: val, Size: size}
}

type OpCode int

const (
	COPY OpCode = iota
	LOAD
	STORE
	BRANCH
	CBRANCH
	BRANCHIND
	CALL
	CALLIND
	CALLOTHER
	RETURN
	INT_ADD
	INT_SUB
	INT_XOR
	INT_AND
	INT_OR
	INT_LEFT
	INT_RIGHT
	INT_EQUAL
	INT_NOTEQUAL
	INT_LESS
	INT_CARRY
	INT_MULT
	BOOL_NEGATE
)

// Op is one low-level operation. Output is nil for ops with no result.
type Op struct {
	Code   OpCode
	Inputs []Varnode
	Output *Varnode
}

// Buffer holds the decoded ops for the current step. The driver clears
// it between iterations instead of reallocating, so a backend can rely
// on capacity staying warm across steps. For a VLIW target the buffer
// holds the whole packet.
type Buffer struct {
	Ops []Op
}

func NewBuffer() *Buffer {
	return &Buffer{Ops: make([]Op, 0, 32)}
}

func (b *Buffer) Clear() {
	b.Ops = b.Ops[:0]
}

func (b *Buffer) Push(op Op) {
	b.Ops = append(b.Ops, op)
}

func (b *Buffer) Len() int {
	return len(b.Ops)
}
