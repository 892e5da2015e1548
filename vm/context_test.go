package vm

import (
	"testing"

	"github.com/corewar-arena/corewar/memory"
	"github.com/corewar-arena/corewar/specconst"
)

func newTestContext(mem *memory.Memory, pc int) (*Context, *[specconst.RegCount]int32) {
	var regs [specconst.RegCount]int32
	var zf bool
	var lastLive uint32
	var liveCount uint32
	var forks []*Process
	var pool PidPool
	ctx := &Context{
		Memory:        mem,
		PlayerID:      1,
		PC:            &pc,
		Registers:     &regs,
		ZF:            &zf,
		LastLiveCycle: &lastLive,
		Forks:         &forks,
		LiveCount:     &liveCount,
		PidPool:       &pool,
		LiveIDs:       make(map[memory.PlayerID]struct{}),
	}
	return ctx, &regs
}

func TestEvalValueRegister(t *testing.T) {
	ctx, regs := newTestContext(memory.New(), 0)
	regs[2] = 99
	v := ctx.evalValue(Param{Type: specconst.ParamRegister, Register: 3}, false)
	if v != 99 {
		t.Errorf("evalValue(register 3) = %d, want 99", v)
	}
}

func TestEvalValueDirect(t *testing.T) {
	ctx, _ := newTestContext(memory.New(), 0)
	v := ctx.evalValue(Param{Type: specconst.ParamDirect, Value: -7}, false)
	if v != -7 {
		t.Errorf("evalValue(direct) = %d, want -7", v)
	}
}

func TestEvalValueIndirectShortVsLong(t *testing.T) {
	mem := memory.New()
	mem.WriteI32(0x11223344, 1, 100)
	ctx, _ := newTestContext(mem, 100)

	short := ctx.evalValue(Param{Type: specconst.ParamIndirect, Value: 0}, false)
	if short != 0x1122 {
		t.Errorf("short indirect read = %#x, want 0x1122", short)
	}

	long := ctx.evalValue(Param{Type: specconst.ParamIndirect, Value: 0}, true)
	if long != 0x11223344 {
		t.Errorf("long indirect read = %#x, want 0x11223344", long)
	}
}

func TestStoreRegisterIsPureAssignment(t *testing.T) {
	ctx, regs := newTestContext(memory.New(), 0)
	ctx.store(Param{Type: specconst.ParamRegister, Register: 5}, 123, false)
	if regs[4] != 123 {
		t.Errorf("regs[4] = %d, want 123", regs[4])
	}
}

func TestStoreIndirectWritesMemoryAtResolvedAddress(t *testing.T) {
	mem := memory.New()
	ctx, _ := newTestContext(mem, 50)
	ctx.store(Param{Type: specconst.ParamIndirect, Value: 10}, 0x7F, false)
	if got := mem.ReadI32(60); got != 0x7F {
		t.Errorf("mem[60] = %d, want 127", got)
	}
}

func TestReduceModNormalizesNegative(t *testing.T) {
	if got := reduceMod(-1, specconst.IdxMod); got != specconst.IdxMod-1 {
		t.Errorf("reduceMod(-1, IdxMod) = %d, want %d", got, specconst.IdxMod-1)
	}
	if got := reduceMod(int32(specconst.IdxMod), specconst.IdxMod); got != 0 {
		t.Errorf("reduceMod(IdxMod, IdxMod) = %d, want 0", got)
	}
}

func TestReachForLongVsShort(t *testing.T) {
	if reachFor(false) != specconst.IdxMod {
		t.Errorf("reachFor(false) = %d, want IdxMod", reachFor(false))
	}
	if reachFor(true) != specconst.MemSize {
		t.Errorf("reachFor(true) = %d, want MemSize", reachFor(true))
	}
}
