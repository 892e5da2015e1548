package vm

import (
	"testing"

	"github.com/corewar-arena/corewar/memory"
)

func TestNewProcessStartsIdle(t *testing.T) {
	p := NewProcess(3, memory.PlayerID(1), 42)
	if p.Pid != 3 || p.PlayerID != 1 || p.PC != 42 {
		t.Errorf("p = %+v", p)
	}
	if p.State != StateIdle {
		t.Errorf("State = %v, want StateIdle", p.State)
	}
	for i, r := range p.Registers {
		if r != 0 {
			t.Errorf("register %d = %d, want 0", i, r)
		}
	}
}

func TestPidPoolIsMonotonic(t *testing.T) {
	var pool PidPool
	first := pool.Get()
	second := pool.Get()
	third := pool.Get()
	if second != first+1 || third != second+1 {
		t.Errorf("pids not monotonic: %d, %d, %d", first, second, third)
	}
}
