// Package memory implements the VM's toroidal memory arena: three parallel
// wrap-around buffers (values, ages, owners) addressed modulo specconst.MemSize.
package memory

import "github.com/corewar-arena/corewar/specconst"

// PlayerID identifies a player; zero means "never written".
type PlayerID int32

// Memory is the shared arena every process reads and writes through.
type Memory struct {
	values [specconst.MemSize]byte
	ages   [specconst.MemSize]uint16
	owners [specconst.MemSize]PlayerID

	AccessCount uint64
	ReadCount   uint64
	WriteCount  uint64
}

// New returns a freshly initialized arena: all cells zero-valued, unowned,
// and aged to specconst.InitialAge.
func New() *Memory {
	m := &Memory{}
	for i := range m.ages {
		m.ages[i] = specconst.InitialAge
	}
	return m
}

// Index reduces an arbitrary (possibly negative) offset to [0, MemSize).
func Index(at int) int {
	m := at % specconst.MemSize
	if m < 0 {
		m += specconst.MemSize
	}
	return m
}

// Offset computes (at + delta) mod MemSize, normalizing for negative delta.
func Offset(at, delta int) int {
	return Index(at + delta)
}

// ReadByte returns the value at at (mod MemSize).
func (m *Memory) ReadByte(at int) byte {
	m.AccessCount++
	m.ReadCount++
	return m.values[Index(at)]
}

// Age returns the age of the cell at at.
func (m *Memory) Age(at int) uint16 {
	return m.ages[Index(at)]
}

// Owner returns the owning player of the cell at at.
func (m *Memory) Owner(at int) PlayerID {
	return m.owners[Index(at)]
}

// Values exposes the raw value buffer for read-only observer rendering.
func (m *Memory) Values() *[specconst.MemSize]byte { return &m.values }

// Ages exposes the raw age buffer for read-only observer rendering.
func (m *Memory) Ages() *[specconst.MemSize]uint16 { return &m.ages }

// Owners exposes the raw owner buffer for read-only observer rendering.
func (m *Memory) Owners() *[specconst.MemSize]PlayerID { return &m.owners }

// Write copies bytes into the arena starting at at, wrapping at the seam,
// stamping each written cell's owner and resetting its age.
func (m *Memory) Write(at int, bytes []byte, owner PlayerID) {
	m.AccessCount++
	m.WriteCount++
	start := Index(at)
	for i, b := range bytes {
		idx := Index(start + i)
		m.values[idx] = b
		m.ages[idx] = specconst.InitialAge
		m.owners[idx] = owner
	}
}

// ReadI32 assembles a big-endian signed 32-bit value from four consecutive
// wrap-around cells starting at at.
func (m *Memory) ReadI32(at int) int32 {
	m.AccessCount++
	m.ReadCount++
	var v uint32
	for i := 0; i < 4; i++ {
		v = v<<8 | uint32(m.values[Index(at+i)])
	}
	return int32(v)
}

// ReadI16 assembles a big-endian signed 16-bit value from two consecutive
// wrap-around cells starting at at.
func (m *Memory) ReadI16(at int) int16 {
	m.AccessCount++
	m.ReadCount++
	var v uint16
	for i := 0; i < 2; i++ {
		v = v<<8 | uint16(m.values[Index(at+i)])
	}
	return int16(v)
}

// WriteI32 writes value as four big-endian bytes starting at at, stamping
// owner and resetting age on each written cell.
func (m *Memory) WriteI32(value int32, owner PlayerID, at int) {
	b := []byte{
		byte(uint32(value) >> 24),
		byte(uint32(value) >> 16),
		byte(uint32(value) >> 8),
		byte(uint32(value)),
	}
	m.Write(at, b, owner)
}

// Tick decrements every cell's age by one, saturating at 0. Called once per
// VM cycle, after all processes have stepped.
func (m *Memory) Tick() {
	for i := range m.ages {
		if m.ages[i] > 0 {
			m.ages[i]--
		}
	}
}
