// Package vm implements the decoder, process scheduler, instruction
// executors, and liveness controller that together run champions loaded
// into a memory.Memory arena.
package vm

import (
	"fmt"

	"github.com/corewar-arena/corewar/memory"
	"github.com/corewar-arena/corewar/specconst"
)

// DecodeErrorKind tags a runtime decode failure. Every one of these is
// local to a single process and never fatal to the VM.
type DecodeErrorKind int

const (
	ErrInvalidOpCode DecodeErrorKind = iota
	ErrInvalidOCP
	ErrInvalidRegNumber
)

// DecodeError is returned by DecodeOp/DecodeInstr; callers advance pc by 1
// and otherwise ignore it, per the error handling design.
type DecodeError struct {
	Kind DecodeErrorKind
	Byte byte
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case ErrInvalidOpCode:
		return fmt.Sprintf("invalid opcode byte 0x%02x", e.Byte)
	case ErrInvalidOCP:
		return fmt.Sprintf("invalid OCP byte 0x%02x", e.Byte)
	case ErrInvalidRegNumber:
		return fmt.Sprintf("invalid register number byte 0x%02x", e.Byte)
	default:
		return "decode error"
	}
}

// Param is one decoded operand: its surface type and its raw evaluated
// payload (a register index, or a not-yet-addressed signed value).
type Param struct {
	Type     specconst.ParamType
	Register int   // valid when Type == ParamRegister, 1..specconst.RegCount
	Value    int32 // valid when Type == ParamDirect or ParamIndirect
}

// Instruction is a fully decoded opcode with its operand list and the byte
// size the scheduler must advance pc by after executing it.
type Instruction struct {
	Kind     specconst.OpCode
	Params   [specconst.MaxParams]Param
	NParams  int
	ByteSize int
}

// DecodeOp reads the opcode byte at pc and maps it to an OpCode.
func DecodeOp(mem *memory.Memory, pc int) (specconst.OpCode, error) {
	b := mem.ReadByte(pc)
	code, ok := specconst.OpFromCode(b)
	if !ok {
		return 0, &DecodeError{Kind: ErrInvalidOpCode, Byte: b}
	}
	return code, nil
}

// DecodeInstr decodes the full instruction for an already-identified opcode
// at pc (pc points at the opcode byte itself).
func DecodeInstr(mem *memory.Memory, code specconst.OpCode, pc int) (*Instruction, error) {
	spec, ok := specconst.OpTable[code]
	if !ok {
		return nil, &DecodeError{Kind: ErrInvalidOpCode, Byte: byte(code)}
	}

	instr := &Instruction{Kind: code, NParams: spec.ParamCount()}
	pos := pc + 1

	var types [specconst.MaxParams]specconst.ParamType
	n := spec.ParamCount()

	if spec.HasOCP {
		ocpByte := mem.ReadByte(pos)
		pos++

		unusedBits := 8 - 2*n
		if unusedBits > 0 {
			lowMask := byte(1<<uint(unusedBits)) - 1
			if ocpByte&lowMask != 0 {
				return nil, &DecodeError{Kind: ErrInvalidOCP, Byte: ocpByte}
			}
		}
		for i := 0; i < n; i++ {
			shift := uint(6 - 2*i)
			code2 := (ocpByte >> shift) & 0b11
			t, ok := specconst.ParamTypeFromOCPCode(code2)
			if !ok {
				return nil, &DecodeError{Kind: ErrInvalidOCP, Byte: ocpByte}
			}
			if t&spec.ParamMasks[i] == 0 {
				return nil, &DecodeError{Kind: ErrInvalidOCP, Byte: ocpByte}
			}
			types[i] = t
		}
	} else {
		for i, mask := range spec.ParamMasks {
			types[i] = mask
		}
	}

	for i := 0; i < n; i++ {
		switch types[i] {
		case specconst.ParamRegister:
			regByte := mem.ReadByte(pos)
			pos++
			reg := int(regByte)
			if reg < 1 || reg > specconst.RegCount {
				return nil, &DecodeError{Kind: ErrInvalidRegNumber, Byte: regByte}
			}
			instr.Params[i] = Param{Type: types[i], Register: reg}
		case specconst.ParamDirect:
			v := readSigned(mem, pos, spec.DirSize)
			pos += spec.DirSize
			instr.Params[i] = Param{Type: types[i], Value: v}
		case specconst.ParamIndirect:
			v := readSigned(mem, pos, 2)
			pos += 2
			instr.Params[i] = Param{Type: types[i], Value: v}
		}
	}

	instr.ByteSize = pos - pc
	return instr, nil
}

// readSigned assembles a big-endian two's-complement value of width bytes
// (2 or 4) starting at at.
func readSigned(mem *memory.Memory, at, width int) int32 {
	if width == 4 {
		return mem.ReadI32(at)
	}
	return int32(mem.ReadI16(at))
}
