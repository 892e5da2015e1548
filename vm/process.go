package vm

import (
	"github.com/corewar-arena/corewar/memory"
	"github.com/corewar-arena/corewar/specconst"
)

// ProcessState tags whether a process is waiting to decode its next
// instruction or part-way through one it has already committed to.
type ProcessState int

const (
	StateIdle ProcessState = iota
	StateExecuting
)

// Process is one independent thread of execution belonging to a player.
type Process struct {
	Pid           int
	PlayerID      memory.PlayerID
	PC            int
	Registers     [specconst.RegCount]int32
	ZF            bool
	LastLiveCycle uint32

	State      ProcessState
	CyclesLeft int
	PendingOp  specconst.OpCode
}

// NewProcess returns an Idle process with all registers zeroed.
func NewProcess(pid int, playerID memory.PlayerID, pc int) *Process {
	return &Process{Pid: pid, PlayerID: playerID, PC: pc, State: StateIdle}
}

// PidPool is a monotonic process-id allocator, owned exclusively by the VM.
type PidPool struct {
	next int
}

// Get returns the next unused pid and advances the pool.
func (p *PidPool) Get() int {
	id := p.next
	p.next++
	return id
}
