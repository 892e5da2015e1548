package vm

import (
	"github.com/corewar-arena/corewar/memory"
	"github.com/corewar-arena/corewar/specconst"
)

// AffHandler is the optional advisory output hook an Aff instruction may
// invoke. A nil handler makes Aff a pure no-op.
type AffHandler func(b byte)

// Context is the mutable execution context an instruction executor runs
// against: borrowed references into the owning VM's state, valid only for
// the duration of one process's micro-step.
type Context struct {
	Memory        *memory.Memory
	PlayerID      memory.PlayerID
	PC            *int
	Registers     *[specconst.RegCount]int32
	ZF            *bool
	LastLiveCycle *uint32

	Forks *[]*Process
	Cycle uint32

	LiveCount *uint32
	PidPool   *PidPool
	LiveIDs   map[memory.PlayerID]struct{}

	Aff AffHandler
}

// reachFor returns the addressing modulus for an op: specconst.MemSize for
// long variants, specconst.IdxMod otherwise.
func reachFor(long bool) int {
	if long {
		return specconst.MemSize
	}
	return specconst.IdxMod
}

// reduceMod normalizes v into [0, m) honoring negative values.
func reduceMod(v int32, m int) int {
	r := int(v) % m
	if r < 0 {
		r += m
	}
	return r
}

// evalValue resolves a decoded Param to its runtime signed value: a
// register's content, a Direct operand's literal, or the single memory
// read a non-address Indirect operand performs.
func (c *Context) evalValue(p Param, long bool) int32 {
	switch p.Type {
	case specconst.ParamRegister:
		return c.Registers[p.Register-1]
	case specconst.ParamDirect:
		return p.Value
	case specconst.ParamIndirect:
		addr := memory.Offset(*c.PC, int(p.Value)%reachFor(long))
		if long {
			return c.Memory.ReadI32(addr)
		}
		return int32(c.Memory.ReadI16(addr))
	default:
		return 0
	}
}

// store writes value to a destination Param: directly into a register, or
// to the memory address a non-register Param resolves to.
func (c *Context) store(p Param, value int32, long bool) {
	switch p.Type {
	case specconst.ParamRegister:
		c.Registers[p.Register-1] = value
	case specconst.ParamDirect, specconst.ParamIndirect:
		addr := memory.Offset(*c.PC, int(p.Value)%reachFor(long))
		c.Memory.WriteI32(value, c.PlayerID, addr)
	}
}
