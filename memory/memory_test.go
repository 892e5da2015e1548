package memory

import (
	"testing"

	"github.com/corewar-arena/corewar/specconst"
)

func TestNewInitializesAges(t *testing.T) {
	m := New()
	for i := 0; i < specconst.MemSize; i += 997 {
		if got := m.Age(i); got != specconst.InitialAge {
			t.Fatalf("Age(%d) = %d, want %d", i, got, specconst.InitialAge)
		}
	}
}

func TestIndexWrapsNegativeAndOverflow(t *testing.T) {
	cases := []struct{ at, want int }{
		{0, 0},
		{specconst.MemSize, 0},
		{specconst.MemSize + 5, 5},
		{-1, specconst.MemSize - 1},
		{-specconst.MemSize - 3, specconst.MemSize - 3},
	}
	for _, c := range cases {
		if got := Index(c.at); got != c.want {
			t.Errorf("Index(%d) = %d, want %d", c.at, got, c.want)
		}
	}
}

func TestWriteWrapsAtSeam(t *testing.T) {
	m := New()
	at := specconst.MemSize - 2
	m.Write(at, []byte{0xAA, 0xBB, 0xCC}, PlayerID(7))

	if got := m.ReadByte(specconst.MemSize - 2); got != 0xAA {
		t.Errorf("cell %d = %x, want AA", specconst.MemSize-2, got)
	}
	if got := m.ReadByte(specconst.MemSize - 1); got != 0xBB {
		t.Errorf("cell %d = %x, want BB", specconst.MemSize-1, got)
	}
	if got := m.ReadByte(0); got != 0xCC {
		t.Errorf("cell 0 = %x, want CC (wrapped)", got)
	}
	if owner := m.Owner(0); owner != PlayerID(7) {
		t.Errorf("owner at wrapped cell = %d, want 7", owner)
	}
	if age := m.Age(0); age != specconst.InitialAge {
		t.Errorf("age at wrapped cell = %d, want %d", age, specconst.InitialAge)
	}
}

func TestReadI32WriteI32RoundTrip(t *testing.T) {
	m := New()
	m.WriteI32(-123456, PlayerID(3), 10)
	if got := m.ReadI32(10); got != -123456 {
		t.Errorf("ReadI32 = %d, want -123456", got)
	}
}

func TestReadI16BigEndian(t *testing.T) {
	m := New()
	m.Write(0, []byte{0x01, 0x02}, PlayerID(1))
	if got := m.ReadI16(0); got != 0x0102 {
		t.Errorf("ReadI16 = %x, want 0102", got)
	}
}

func TestTickDecrementsAgeSaturatingAtZero(t *testing.T) {
	m := New()
	m.Write(0, []byte{1}, PlayerID(1))
	if age := m.Age(0); age != specconst.InitialAge {
		t.Fatalf("age after write = %d, want %d", age, specconst.InitialAge)
	}
	for i := 0; i < int(specconst.InitialAge)+5; i++ {
		m.Tick()
	}
	if age := m.Age(0); age != 0 {
		t.Errorf("age after overticking = %d, want 0 (saturated)", age)
	}
}

func TestOffsetMatchesIndexOfSum(t *testing.T) {
	if got := Offset(specconst.MemSize-1, 2); got != 1 {
		t.Errorf("Offset(MemSize-1, 2) = %d, want 1", got)
	}
}
