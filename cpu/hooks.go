package cpu

import (
	"github.com/pkg/errors"
)

// hook type enums, also used to tag handles for Del
const (
	HOOK_INTR  = 1
	HOOK_CODE  = 4
	HOOK_BLOCK = 8

	HOOK_MEM     = 1024
	HOOK_MEM_ERR = 1008
)

// Hook is an opaque registration handle.
type Hook interface{}

type hinfo interface {
	Type() int
}

type hookInfo struct {
	htype int
	start uint64
	end   uint64
}

func (h *hookInfo) Type() int {
	return h.htype
}

// start > end means "all addresses"
func (h *hookInfo) Contains(addr uint64) bool {
	return h.start > h.end || addr >= h.start && addr <= h.end
}

// CodeCb fires once per instruction, before fetch, with the translated
// physical pc. It may mutate any machine state including the pc.
type CodeCb func(addr uint64) error

// BlockCb fires once per basic block entered, with the block start and
// byte length.
type BlockCb func(addr uint64, size uint32) error

// IntrCb fires when the backend raises a numbered event.
type IntrCb func(intno uint32) error

// MemCb fires on default-space sized accesses.
type MemCb func(access int, addr uint64, size int, val uint64) error

// FaultCb fires on a failed access; returning true claims the fault as
// handled.
type FaultCb func(access int, addr uint64, size int, val uint64) bool

type codeHook struct {
	hookInfo
	cb CodeCb
}

type blockHook struct {
	hookInfo
	cb BlockCb
}

type intrHook struct {
	hookInfo
	cb IntrCb
}

type memHook struct {
	hookInfo
	cb MemCb
}

type memFaultHook struct {
	hookInfo
	cb FaultCb
}

// Hooks dispatches observer callbacks. Triggering with nothing
// registered is a no-op; the driver additionally checks NumBlock before
// the block-boundary scan so an empty registry costs nothing.
type Hooks struct {
	code     []*codeHook
	block    []*blockHook
	intr     []*intrHook
	mem      []*memHook
	memFault []*memFaultHook
}

func NewHooks() *Hooks {
	return &Hooks{}
}

// Add methods never fail. A start > end range matches all addresses.

func (h *Hooks) AddCode(cb CodeCb, start, end uint64) Hook {
	hh := &codeHook{hookInfo{HOOK_CODE, start, end}, cb}
	h.code = append(h.code, hh)
	return hh
}

func (h *Hooks) AddBlock(cb BlockCb, start, end uint64) Hook {
	hh := &blockHook{hookInfo{HOOK_BLOCK, start, end}, cb}
	h.block = append(h.block, hh)
	return hh
}

func (h *Hooks) AddIntr(cb IntrCb) Hook {
	hh := &intrHook{hookInfo{HOOK_INTR, 1, 0}, cb}
	h.intr = append(h.intr, hh)
	return hh
}

func (h *Hooks) AddMem(cb MemCb, start, end uint64) Hook {
	hh := &memHook{hookInfo{HOOK_MEM, start, end}, cb}
	h.mem = append(h.mem, hh)
	return hh
}

func (h *Hooks) AddFault(cb FaultCb, start, end uint64) Hook {
	hh := &memFaultHook{hookInfo{HOOK_MEM_ERR, start, end}, cb}
	h.memFault = append(h.memFault, hh)
	return hh
}

func (h *Hooks) Del(hh Hook) error {
	info, ok := hh.(hinfo)
	if !ok {
		return errors.New("not a hook handle")
	}
	switch info.Type() {
	case HOOK_CODE:
		var tmp []*codeHook
		for _, v := range h.code {
			if v != hh {
				tmp = append(tmp, v)
			}
		}
		h.code = tmp
	case HOOK_BLOCK:
		var tmp []*blockHook
		for _, v := range h.block {
			if v != hh {
				tmp = append(tmp, v)
			}
		}
		h.block = tmp
	case HOOK_INTR:
		var tmp []*intrHook
		for _, v := range h.intr {
			if v != hh {
				tmp = append(tmp, v)
			}
		}
		h.intr = tmp
	case HOOK_MEM:
		var tmp []*memHook
		for _, v := range h.mem {
			if v != hh {
				tmp = append(tmp, v)
			}
		}
		h.mem = tmp
	case HOOK_MEM_ERR:
		var tmp []*memFaultHook
		for _, v := range h.memFault {
			if v != hh {
				tmp = append(tmp, v)
			}
		}
		h.memFault = tmp
	default:
		return errors.New("unknown hook type")
	}
	return nil
}

func (h *Hooks) NumCode() int {
	return len(h.code)
}

func (h *Hooks) NumBlock() int {
	return len(h.block)
}

// dispatch stops at the first callback error, which aborts the run

func (h *Hooks) OnCode(addr uint64) error {
	for _, v := range h.code {
		if v.Contains(addr) {
			if err := v.cb(addr); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Hooks) OnBlock(addr uint64, size uint32) error {
	for _, v := range h.block {
		if v.Contains(addr) {
			if err := v.cb(addr, size); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Hooks) OnIntr(intno uint32) error {
	for _, v := range h.intr {
		if err := v.cb(intno); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) OnMem(access int, addr uint64, size int, val uint64) error {
	for _, v := range h.mem {
		if v.Contains(addr) {
			if err := v.cb(access, addr, size, val); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Hooks) OnFault(access int, addr uint64, size int, val uint64) bool {
	for _, v := range h.memFault {
		if v.Contains(addr) {
			if v.cb(access, addr, size, val) {
				return true
			}
		}
	}
	return false
}
