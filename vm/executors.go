package vm

import (
	"github.com/corewar-arena/corewar/memory"
	"github.com/corewar-arena/corewar/specconst"
)

// Execute dispatches a decoded instruction to its opcode handler. ctx.PC
// still points at the opcode byte; a handler that does not jump leaves
// *ctx.PC untouched and lets the scheduler advance it by instr.ByteSize.
func Execute(ctx *Context, instr *Instruction) {
	switch instr.Kind {
	case specconst.OpLive:
		execLive(ctx, instr)
	case specconst.OpLd:
		execLd(ctx, instr)
	case specconst.OpSt:
		execSt(ctx, instr)
	case specconst.OpAdd:
		execAdd(ctx, instr)
	case specconst.OpSub:
		execSub(ctx, instr)
	case specconst.OpAnd:
		execAnd(ctx, instr)
	case specconst.OpOr:
		execOr(ctx, instr)
	case specconst.OpXor:
		execXor(ctx, instr)
	case specconst.OpZjmp:
		execZjmp(ctx, instr)
	case specconst.OpLdi:
		execLdi(ctx, instr)
	case specconst.OpSti:
		execSti(ctx, instr)
	case specconst.OpFork:
		execFork(ctx, instr)
	case specconst.OpLld:
		execLld(ctx, instr)
	case specconst.OpLldi:
		execLldi(ctx, instr)
	case specconst.OpLfork:
		execLfork(ctx, instr)
	case specconst.OpAff:
		execAff(ctx, instr)
	}
}

// execLive marks the argument player as alive for this cycle. Always
// succeeds; the spec's opcode table gives it no zero-flag behavior.
func execLive(ctx *Context, instr *Instruction) {
	playerID := memory.PlayerID(instr.Params[0].Value)
	ctx.LiveIDs[playerID] = struct{}{}
	*ctx.LastLiveCycle = ctx.Cycle
	*ctx.LiveCount++
}

// execLd loads a value into a register and sets the zero flag from it.
func execLd(ctx *Context, instr *Instruction) {
	v := ctx.evalValue(instr.Params[0], false)
	ctx.store(instr.Params[1], v, false)
	*ctx.ZF = v == 0
}

// execSt writes a register's content to a register or memory destination.
// St never touches the zero flag.
func execSt(ctx *Context, instr *Instruction) {
	v := ctx.evalValue(instr.Params[0], false)
	ctx.store(instr.Params[1], v, false)
}

func execAdd(ctx *Context, instr *Instruction) {
	a := ctx.evalValue(instr.Params[0], false)
	b := ctx.evalValue(instr.Params[1], false)
	sum := a + b
	ctx.store(instr.Params[2], sum, false)
	*ctx.ZF = sum == 0
}

func execSub(ctx *Context, instr *Instruction) {
	a := ctx.evalValue(instr.Params[0], false)
	b := ctx.evalValue(instr.Params[1], false)
	diff := a - b
	ctx.store(instr.Params[2], diff, false)
	*ctx.ZF = diff == 0
}

func execAnd(ctx *Context, instr *Instruction) {
	a := ctx.evalValue(instr.Params[0], false)
	b := ctx.evalValue(instr.Params[1], false)
	v := a & b
	ctx.store(instr.Params[2], v, false)
	*ctx.ZF = v == 0
}

func execOr(ctx *Context, instr *Instruction) {
	a := ctx.evalValue(instr.Params[0], false)
	b := ctx.evalValue(instr.Params[1], false)
	v := a | b
	ctx.store(instr.Params[2], v, false)
	*ctx.ZF = v == 0
}

func execXor(ctx *Context, instr *Instruction) {
	a := ctx.evalValue(instr.Params[0], false)
	b := ctx.evalValue(instr.Params[1], false)
	v := a ^ b
	ctx.store(instr.Params[2], v, false)
	*ctx.ZF = v == 0
}

// execZjmp jumps relative to pc when the zero flag is set. When it jumps it
// sets *ctx.PC directly and zeroes instr.ByteSize so the scheduler's
// uniform post-exec advance is a no-op; when it doesn't jump, ByteSize is
// left as decoded and the scheduler advances normally.
func execZjmp(ctx *Context, instr *Instruction) {
	if !*ctx.ZF {
		return
	}
	offset := instr.Params[0].Value
	*ctx.PC = memory.Offset(*ctx.PC, int(offset%int32(specconst.IdxMod)))
	instr.ByteSize = 0
}

// reduceModI32 normalizes v into [0, m) as an int32, for arithmetic that
// must stay in 32-bit range before a final mod-MemSize reduction.
func reduceModI32(v int32, m int) int32 {
	r := v % int32(m)
	if r < 0 {
		r += int32(m)
	}
	return r
}

func execLdi(ctx *Context, instr *Instruction) {
	a := ctx.evalValue(instr.Params[0], false)
	b := ctx.evalValue(instr.Params[1], false)
	addr := int((a + b) % int32(specconst.IdxMod))
	v := ctx.Memory.ReadI32(memory.Offset(*ctx.PC, addr))
	ctx.store(instr.Params[2], v, false)
	*ctx.ZF = v == 0
}

func execSti(ctx *Context, instr *Instruction) {
	v := ctx.evalValue(instr.Params[0], false)
	a := ctx.evalValue(instr.Params[1], false)
	b := ctx.evalValue(instr.Params[2], false)
	addr := int((a + b) % int32(specconst.IdxMod))
	ctx.Memory.WriteI32(v, ctx.PlayerID, memory.Offset(*ctx.PC, addr))
}

func execFork(ctx *Context, instr *Instruction) {
	offset := instr.Params[0].Value
	target := memory.Offset(*ctx.PC, int(offset%int32(specconst.IdxMod)))
	spawnFork(ctx, target)
}

func execLld(ctx *Context, instr *Instruction) {
	v := ctx.evalValue(instr.Params[0], true)
	ctx.store(instr.Params[1], v, false)
	*ctx.ZF = v == 0
}

func execLldi(ctx *Context, instr *Instruction) {
	a := ctx.evalValue(instr.Params[0], true)
	b := ctx.evalValue(instr.Params[1], true)
	addr := reduceMod(a+b, specconst.MemSize)
	v := ctx.Memory.ReadI32(memory.Offset(*ctx.PC, addr))
	ctx.store(instr.Params[2], v, false)
	*ctx.ZF = v == 0
}

func execLfork(ctx *Context, instr *Instruction) {
	offset := instr.Params[0].Value
	target := reduceMod(int32(*ctx.PC)+reduceModI32(offset, specconst.MemSize), specconst.MemSize)
	spawnFork(ctx, target)
}

// execAff feeds its register's low byte to the VM's advisory output hook,
// if one is attached. It never touches the zero flag.
func execAff(ctx *Context, instr *Instruction) {
	if ctx.Aff == nil {
		return
	}
	v := ctx.evalValue(instr.Params[0], false)
	ctx.Aff(byte(v))
}

// spawnFork allocates a new pid and appends a ready-to-run child process,
// at target, inheriting the parent's registers and player.
func spawnFork(ctx *Context, target int) {
	child := NewProcess(ctx.PidPool.Get(), ctx.PlayerID, target)
	child.Registers = *ctx.Registers
	*ctx.Forks = append(*ctx.Forks, child)
}
