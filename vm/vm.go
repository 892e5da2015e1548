package vm

import (
	"bytes"
	"fmt"

	"github.com/corewar-arena/corewar/memory"
	"github.com/corewar-arena/corewar/specconst"
)

// Player is the static identity of one loaded champion: the header fields
// read out of its byte-code image plus the body size actually loaded.
type Player struct {
	ID      memory.PlayerID
	Name    string
	Comment string
	Size    int
}

// LoadEntry is one player's raw byte-code image (header included), as
// handed to LoadPlayers.
type LoadEntry struct {
	ID      memory.PlayerID
	Program []byte
}

// VirtualMachine owns the shared arena, the player roster, and the process
// scheduler, and drives them forward one Tick at a time.
type VirtualMachine struct {
	players   []Player
	memory    *memory.Memory
	processes []*Process
	pidPool   PidPool
	lastLives map[memory.PlayerID]uint32

	aff AffHandler

	Cycles                      uint32
	LastLiveCheck               uint32
	CyclesToDie                 uint32
	LiveCountSinceLastCheck     uint32
	ChecksWithoutCycleDecrement uint32
}

// New returns an empty VirtualMachine with no players loaded yet.
func New() *VirtualMachine {
	return &VirtualMachine{
		memory:      memory.New(),
		lastLives:   make(map[memory.PlayerID]uint32),
		CyclesToDie: specconst.CycleToDie,
	}
}

// SetAffHandler attaches the advisory output hook every Aff instruction
// invokes. Pass nil to silence it.
func (vm *VirtualMachine) SetAffHandler(h AffHandler) { vm.aff = h }

// Memory exposes the arena for observer rendering.
func (vm *VirtualMachine) Memory() *memory.Memory { return vm.memory }

// ProcessCount reports how many processes are currently scheduled.
func (vm *VirtualMachine) ProcessCount() int { return len(vm.processes) }

// ProcessPCs returns, per memory cell, how many processes currently sit
// at that address — useful for a density overlay in an observer view.
func (vm *VirtualMachine) ProcessPCs() []uint32 {
	counts := make([]uint32, specconst.MemSize)
	for _, p := range vm.processes {
		counts[p.PC]++
	}
	return counts
}

// PlayerCount reports how many players were loaded.
func (vm *VirtualMachine) PlayerCount() int { return len(vm.players) }

// PlayerID returns the id of the player loaded at roster position at.
func (vm *VirtualMachine) PlayerID(at int) memory.PlayerID { return vm.players[at].ID }

// PlayerName returns the loaded name of the player with the given id.
func (vm *VirtualMachine) PlayerName(id memory.PlayerID) string {
	for _, p := range vm.players {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}

// PlayerSize returns the loaded body size, in bytes, of the given player.
func (vm *VirtualMachine) PlayerSize(id memory.PlayerID) int {
	for _, p := range vm.players {
		if p.ID == id {
			return p.Size
		}
	}
	return 0
}

// PlayerProcesses counts the processes currently belonging to id.
func (vm *VirtualMachine) PlayerProcesses(id memory.PlayerID) int {
	n := 0
	for _, p := range vm.processes {
		if p.PlayerID == id {
			n++
		}
	}
	return n
}

// PlayerLastLive returns the last cycle id called live(), or 0 if never.
func (vm *VirtualMachine) PlayerLastLive(id memory.PlayerID) uint32 {
	return vm.lastLives[id]
}

// Winner returns the player with the most recent live() call, breaking
// ties by the lowest player id, or ok=false if no player has ever lived.
func (vm *VirtualMachine) Winner() (Player, bool) {
	var best Player
	var bestLast uint32
	found := false
	for _, p := range vm.players {
		last, ok := vm.lastLives[p.ID]
		if !ok {
			continue
		}
		if !found || last > bestLast || (last == bestLast && p.ID < best.ID) {
			best, bestLast, found = p, last, true
		}
	}
	return best, found
}

// LoadPlayers parses each entry's byte-code header, registers its Player
// record, and places its body into the arena at an evenly spaced start
// address, spawning one initial process per player with r1 seeded to the
// player's id.
func (vm *VirtualMachine) LoadPlayers(entries []LoadEntry) error {
	spacing := specconst.MemSize / maxInt(1, len(entries))
	for i, entry := range entries {
		if len(entry.Program) < specconst.HeaderSize {
			return fmt.Errorf("player %d: program shorter than header size", entry.ID)
		}
		header := entry.Program[:specconst.HeaderSize]
		body := entry.Program[specconst.HeaderSize:]

		name, err := fromNulBytes(header[4 : 4+specconst.ProgNameLength])
		if err != nil {
			return fmt.Errorf("player %d: name field: %w", entry.ID, err)
		}
		commentStart := 4 + specconst.ProgNameLength + specconst.HeaderReserved + 4
		comment, err := fromNulBytes(header[commentStart : commentStart+specconst.CommentLength])
		if err != nil {
			return fmt.Errorf("player %d: comment field: %w", entry.ID, err)
		}

		vm.players = append(vm.players, Player{
			ID:      entry.ID,
			Name:    name,
			Comment: comment,
			Size:    len(body),
		})

		vm.loadChampion(body, entry.ID, i*spacing)
	}
	return nil
}

func (vm *VirtualMachine) loadChampion(body []byte, playerID memory.PlayerID, at int) {
	vm.memory.Write(at, body, playerID)

	proc := NewProcess(vm.pidPool.Get(), playerID, at)
	proc.Registers[0] = int32(playerID)
	vm.processes = append(vm.processes, proc)
}

// fromNulBytes reads the string out of a fixed-width NUL-padded field: the
// bytes before the first NUL, or the whole field when it is completely full.
func fromNulBytes(field []byte) (string, error) {
	nul := bytes.IndexByte(field, 0)
	if nul < 0 {
		return string(field), nil
	}
	return string(field[:nul]), nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Tick advances every process one scheduler micro-step, runs the liveness
// sweep when its window has elapsed, and reports whether the arena is now
// empty of processes.
func (vm *VirtualMachine) Tick() bool {
	forks := make([]*Process, 0, 64)
	lives := make(map[memory.PlayerID]struct{})

	for i := len(vm.processes) - 1; i >= 0; i-- {
		process := vm.processes[i]

		if process.State == StateIdle {
			if op, err := DecodeOp(vm.memory, process.PC); err == nil {
				process.State = StateExecuting
				process.PendingOp = op
				process.CyclesLeft = specconst.OpTable[op].Cycles
			}
		}

		switch {
		case process.State == StateExecuting && process.CyclesLeft == 1:
			instr, err := DecodeInstr(vm.memory, process.PendingOp, process.PC)
			if err == nil {
				ctx := &Context{
					Memory:        vm.memory,
					PlayerID:      process.PlayerID,
					PC:            &process.PC,
					Registers:     &process.Registers,
					ZF:            &process.ZF,
					LastLiveCycle: &process.LastLiveCycle,
					Forks:         &forks,
					Cycle:         vm.Cycles,
					LiveCount:     &vm.LiveCountSinceLastCheck,
					PidPool:       &vm.pidPool,
					LiveIDs:       lives,
					Aff:           vm.aff,
				}
				Execute(ctx, instr)
				process.PC = memory.Offset(process.PC, instr.ByteSize)
			} else {
				process.PC = memory.Offset(process.PC, 1)
			}
			process.State = StateIdle

		case process.State == StateExecuting:
			process.CyclesLeft--

		case process.State == StateIdle:
			process.PC = memory.Offset(process.PC, 1)
		}
	}

	vm.memory.Tick()

	vm.processes = append(vm.processes, forks...)

	cycle := vm.Cycles
	for _, p := range vm.players {
		if _, alive := lives[p.ID]; alive {
			vm.lastLives[p.ID] = cycle
		}
	}

	vm.Cycles++

	if vm.Cycles-vm.LastLiveCheck >= vm.CyclesToDie {
		vm.sweepLiveness()
	}

	return len(vm.processes) == 0
}

// sweepLiveness culls every process that has not called live() since the
// last check, then adapts CyclesToDie to how aggressively the surviving
// population is calling live().
func (vm *VirtualMachine) sweepLiveness() {
	lastCheck := vm.LastLiveCheck
	survivors := vm.processes[:0]
	for _, p := range vm.processes {
		if p.LastLiveCycle > lastCheck {
			survivors = append(survivors, p)
		}
	}
	vm.processes = survivors

	if vm.LiveCountSinceLastCheck >= specconst.NbrLive {
		vm.CyclesToDie = saturatingSub(vm.CyclesToDie, specconst.CycleDelta)
		vm.ChecksWithoutCycleDecrement = 0
	} else {
		vm.ChecksWithoutCycleDecrement++
	}

	if vm.ChecksWithoutCycleDecrement >= specconst.MaxChecks {
		vm.CyclesToDie = saturatingSub(vm.CyclesToDie, specconst.CycleDelta)
		vm.ChecksWithoutCycleDecrement = 0
	}

	vm.LiveCountSinceLastCheck = 0
	vm.LastLiveCheck = vm.Cycles
}

func saturatingSub(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}
