package cpu

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/lunixbochs/pcode/models"
	"github.com/lunixbochs/pcode/pcode"
)

// fixed dense bounds for the spaces whose accesses are random but
// bounded
const (
	REGISTER_SPACE_SIZE = 0x10000
	UNIQUE_SPACE_SIZE   = 1 << 32
)

// SpaceManager owns every address space of one processor instance and
// routes space-local reads and writes to the right backing store. It is
// built once at processor construction and never modified during
// execution; every space referenced while running resolves to exactly
// one store.
//
// The constant space is never stored: constant varnodes carry their
// value in the offset and read it back directly.
type SpaceManager struct {
	order       binary.ByteOrder
	defaultName pcode.SpaceName
	spaces      map[pcode.SpaceName]Store

	// set via AttachHooks; mem/fault hooks fire on default-space sized
	// accesses only
	hooks *Hooks
}

// NewSpaceManager creates a manager holding only the default space,
// which is always dense and sized to defaultSize.
func NewSpaceManager(order binary.ByteOrder, defaultName pcode.SpaceName, defaultSize uint64) (*SpaceManager, error) {
	if defaultName == pcode.SpaceConstant {
		return nil, errors.New("constant space cannot be the default space")
	}
	m := &SpaceManager{
		order:       order,
		defaultName: defaultName,
		spaces:      make(map[pcode.SpaceName]Store),
	}
	m.spaces[defaultName] = NewBlobStore(defaultSize)
	return m, nil
}

// BuildSpaceManager constructs the full space set the way a pcode
// generator declares it: the default space dense, register and unique
// dense at their fixed bounds, every other declared space chunk-mapped.
// Declared names matching the default or constant space are skipped;
// the generator always declares them and they are already handled.
func BuildSpaceManager(order binary.ByteOrder, defaultName pcode.SpaceName, defaultSize uint64, declared []pcode.SpaceName) (*SpaceManager, error) {
	m, err := NewSpaceManager(order, defaultName, defaultSize)
	if err != nil {
		return nil, err
	}
	for _, name := range declared {
		if name == defaultName || name == pcode.SpaceConstant {
			continue
		}
		var bound uint64
		switch name {
		case pcode.SpaceRegister:
			bound = REGISTER_SPACE_SIZE
		case pcode.SpaceUnique:
			bound = UNIQUE_SPACE_SIZE
		}
		if err := m.AddSpace(name, bound); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AttachHooks routes default-space access and fault dispatch into a
// hook registry.
func (m *SpaceManager) AttachHooks(h *Hooks) {
	m.hooks = h
}

func (m *SpaceManager) Order() binary.ByteOrder {
	return m.order
}

func (m *SpaceManager) DefaultName() pcode.SpaceName {
	return m.defaultName
}

// AddSpace inserts a space, matching the storage strategy to the name:
// dense for the register file and the decode-scratch space (bound is
// the dense size), chunk-mapped for any other declared space (bound is
// ignored). Inserting the constant space or a duplicate name is a hard
// error with nothing partially applied.
func (m *SpaceManager) AddSpace(name pcode.SpaceName, bound uint64) error {
	if name == pcode.SpaceConstant {
		return errors.New("constant space is never stored")
	}
	if _, ok := m.spaces[name]; ok {
		return errors.Errorf("duplicate space %q", name)
	}
	switch name {
	case pcode.SpaceRegister, pcode.SpaceUnique, pcode.SpaceRam:
		m.spaces[name] = NewBlobStore(bound)
	default:
		m.spaces[name] = NewChunkStore()
	}
	return nil
}

// Space resolves a name to its store. The constant space never
// resolves; its values live in the operations themselves.
func (m *SpaceManager) Space(name pcode.SpaceName) (Store, error) {
	if name == pcode.SpaceConstant {
		return nil, errors.New("constant space has no store")
	}
	s, ok := m.spaces[name]
	if !ok {
		return nil, errors.Errorf("unknown space %q", name)
	}
	return s, nil
}

func (m *SpaceManager) ReadBytes(name pcode.SpaceName, off uint64, p []byte) error {
	s, err := m.Space(name)
	if err != nil {
		return err
	}
	return s.Read(off, p)
}

func (m *SpaceManager) WriteBytes(name pcode.SpaceName, off uint64, p []byte) error {
	s, err := m.Space(name)
	if err != nil {
		return err
	}
	return s.Write(off, p)
}

// ReadUint reads a sized value honoring the configured byte order.
// Default-space reads dispatch mem hooks; failed ones dispatch fault
// hooks.
func (m *SpaceManager) ReadUint(name pcode.SpaceName, off uint64, size int) (uint64, error) {
	s, err := m.Space(name)
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	if size > 8 {
		return 0, errors.Errorf("ReadUint size too large: %d > 8", size)
	}
	if err := s.Read(off, buf[:size]); err != nil {
		if m.hooks != nil && name == m.defaultName {
			m.hooks.OnFault(models.MEM_READ, off, size, 0)
		}
		return 0, err
	}
	val, err := UnpackUint(m.order, size, buf[:size])
	if err != nil {
		return 0, err
	}
	if m.hooks != nil && name == m.defaultName {
		if err := m.hooks.OnMem(models.MEM_READ, off, size, val); err != nil {
			return 0, err
		}
	}
	return val, nil
}

func (m *SpaceManager) WriteUint(name pcode.SpaceName, off uint64, size int, val uint64) error {
	s, err := m.Space(name)
	if err != nil {
		return err
	}
	var buf [8]byte
	if size > 8 {
		return errors.Errorf("WriteUint size too large: %d > 8", size)
	}
	if _, err := PackUint(m.order, size, buf[:], val); err != nil {
		return err
	}
	if err := s.Write(off, buf[:size]); err != nil {
		if m.hooks != nil && name == m.defaultName {
			m.hooks.OnFault(models.MEM_WRITE, off, size, val)
		}
		return err
	}
	if m.hooks != nil && name == m.defaultName {
		return m.hooks.OnMem(models.MEM_WRITE, off, size, val)
	}
	return nil
}

// ReadVarnode loads the value a varnode refers to. Constant varnodes
// yield their offset truncated to their size.
func (m *SpaceManager) ReadVarnode(vn pcode.Varnode) (uint64, error) {
	if vn.Space == pcode.SpaceConstant {
		if vn.Size >= 8 {
			return vn.Offset, nil
		}
		return vn.Offset & (1<<(8*vn.Size) - 1), nil
	}
	return m.ReadUint(vn.Space, vn.Offset, int(vn.Size))
}

// WriteVarnode stores val where a varnode points. Constants are not
// writable.
func (m *SpaceManager) WriteVarnode(vn pcode.Varnode, val uint64) error {
	if vn.Space == pcode.SpaceConstant {
		return errors.Errorf("write to constant varnode %s", vn)
	}
	return m.WriteUint(vn.Space, vn.Offset, int(vn.Size), val)
}
