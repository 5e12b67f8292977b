package cpu

import (
	"encoding/binary"
	"testing"

	"github.com/lunixbochs/pcode/pcode"
)

func contextManager(t *testing.T) *SpaceManager {
	t.Helper()
	m, err := BuildSpaceManager(binary.LittleEndian, pcode.SpaceRam, 0x10000,
		[]pcode.SpaceName{pcode.SpaceRegister, "dma"})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func fillContext(t *testing.T, m *SpaceManager) {
	t.Helper()
	if err := m.WriteUint(pcode.SpaceRam, 0x1234, 8, 0x1122334455667788); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteUint(pcode.SpaceRegister, 0x40, 4, 0xcafebabe); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteUint("dma", 1<<33, 2, 0x7777); err != nil {
		t.Fatal(err)
	}
}

func checkContext(t *testing.T, m *SpaceManager) {
	t.Helper()
	if val, err := m.ReadUint(pcode.SpaceRam, 0x1234, 8); err != nil || val != 0x1122334455667788 {
		t.Fatalf("ram: %#x, %v", val, err)
	}
	if val, err := m.ReadUint(pcode.SpaceRegister, 0x40, 4); err != nil || val != 0xcafebabe {
		t.Fatalf("register: %#x, %v", val, err)
	}
	if val, err := m.ReadUint("dma", 1<<33, 2); err != nil || val != 0x7777 {
		t.Fatalf("dma: %#x, %v", val, err)
	}
}

func TestContextRoundTrip(t *testing.T) {
	m := contextManager(t)
	fillContext(t, m)
	blob, err := SaveContext(m)
	if err != nil {
		t.Fatal(err)
	}

	// scribble over everything, then restore
	if err := m.WriteUint(pcode.SpaceRam, 0x1234, 8, 1); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteUint(pcode.SpaceRegister, 0x40, 4, 2); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteUint("dma", 0x9999, 2, 3); err != nil {
		t.Fatal(err)
	}
	if err := RestoreContext(m, blob); err != nil {
		t.Fatal(err)
	}
	checkContext(t, m)
	// the scribbled dma chunk was dropped by the restore
	if val, err := m.ReadUint("dma", 0x9999, 2); err != nil || val != 0 {
		t.Fatalf("stale dma chunk survived restore: %#x, %v", val, err)
	}

	// restore into a second manager built the same shape
	m2 := contextManager(t)
	if err := RestoreContext(m2, blob); err != nil {
		t.Fatal(err)
	}
	checkContext(t, m2)

	// a snapshot taken after a restore still carries the dense data
	blob2, err := SaveContext(m2)
	if err != nil {
		t.Fatal(err)
	}
	m3 := contextManager(t)
	if err := RestoreContext(m3, blob2); err != nil {
		t.Fatal(err)
	}
	checkContext(t, m3)
}

func TestContextValidation(t *testing.T) {
	m := contextManager(t)
	fillContext(t, m)
	blob, err := SaveContext(m)
	if err != nil {
		t.Fatal(err)
	}

	if err := RestoreContext(m, blob[:8]); err == nil {
		t.Fatal("truncated blob restored")
	}

	corrupt := append([]byte(nil), blob...)
	corrupt[len(corrupt)-1] ^= 0xff
	if err := RestoreContext(m, corrupt); err == nil {
		t.Fatal("corrupt blob restored")
	}

	badMagic := append([]byte(nil), blob...)
	badMagic[0] ^= 0xff
	if err := RestoreContext(m, badMagic); err == nil {
		t.Fatal("bad magic restored")
	}

	// a manager missing one of the saved spaces rejects the blob
	small, err := NewSpaceManager(binary.LittleEndian, pcode.SpaceRam, 0x10000)
	if err != nil {
		t.Fatal(err)
	}
	if err := RestoreContext(small, blob); err == nil {
		t.Fatal("blob restored into mismatched manager")
	}

	// byte order must match
	be, err := BuildSpaceManager(binary.BigEndian, pcode.SpaceRam, 0x10000,
		[]pcode.SpaceName{pcode.SpaceRegister, "dma"})
	if err != nil {
		t.Fatal(err)
	}
	if err := RestoreContext(be, blob); err == nil {
		t.Fatal("blob restored across byte orders")
	}
}
