// Package trace is a hook consumer: it registers code and block hooks
// and prints one line per event, colored when the output is a
// terminal. It exists for debugging interpreter runs and doubles as
// the reference for how external observers attach to the core.
package trace

import (
	"fmt"
	"io"
	"os"

	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"

	"github.com/lunixbochs/pcode/cpu"
)

var blockColor = ansi.ColorCode("cyan+b:default")
var codeColor = ansi.ColorCode("default:default")

type Tracer struct {
	w     io.Writer
	color bool
	hooks []cpu.Hook
}

// New builds a tracer writing to w. A nil w means stderr, with color
// enabled when stderr is a tty.
func New(w io.Writer) *Tracer {
	color := false
	if w == nil {
		color = isatty.IsTerminal(os.Stderr.Fd())
		w = colorable.NewColorableStderr()
	}
	return &Tracer{w: w, color: color}
}

func (t *Tracer) paint(s, color string) string {
	if !t.color {
		return s
	}
	return color + s + ansi.Reset
}

// Attach registers the tracer's hooks. Call Detach to unhook.
func (t *Tracer) Attach(h *cpu.Hooks) {
	t.hooks = append(t.hooks,
		h.AddBlock(t.onBlock, 1, 0),
		h.AddCode(t.onCode, 1, 0))
}

func (t *Tracer) Detach(h *cpu.Hooks) {
	for _, hh := range t.hooks {
		h.Del(hh)
	}
	t.hooks = nil
}

func (t *Tracer) onBlock(addr uint64, size uint32) error {
	line := fmt.Sprintf("block %#x +%#x", addr, size)
	_, err := fmt.Fprintln(t.w, t.paint(line, blockColor))
	return err
}

func (t *Tracer) onCode(addr uint64) error {
	line := fmt.Sprintf("  %#x", addr)
	_, err := fmt.Fprintln(t.w, t.paint(line, codeColor))
	return err
}
