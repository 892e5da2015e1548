// Package specconst centralizes the tournament-level tuning constants and
// the opcode table that the encoder, decoder, and liveness controller must
// all agree on.
package specconst

// Core tournament constants. Values follow the classic Core War tournament
// configuration (see DESIGN.md for the Open Question decision).
const (
	MemSize    = 6144 // arena length in bytes; all addressing is mod MemSize
	IdxMod     = 512  // short-range offset modulus for most addressing ops
	CycleToDie = 1536 // initial liveness check window
	CycleDelta = 50   // amount cycles_to_die shrinks by on a hot check
	NbrLive    = 21   // live() calls per window that count as "hot"
	MaxChecks  = 10   // consecutive cold checks before a forced shrink

	RegCount  = 16 // registers per process, r1..r16
	MaxParams = 3  // widest operand list (add, and/or/xor, ldi/sti/lldi)

	ProgNameLength = 128  // header name field width
	CommentLength  = 2048 // header comment field width
	HeaderReserved = 4    // each reserved header block

	// HeaderSize is magic + name + reserved + body size + comment + reserved.
	HeaderSize = 4 + ProgNameLength + HeaderReserved + 4 + CommentLength + HeaderReserved

	ChampMaxSize = MemSize / 6 // generous body cap; keeps several champions loadable at once

	CorewarExecMagic = 0xea83f3
)

// InitialAge is the age value a memory cell is stamped with when it is
// never written, and the value a write resets a cell's age to.
const InitialAge = 1024

// ParamType tags what an operand slot decoded to, independent of its
// surface syntax.
type ParamType uint8

const (
	ParamRegister ParamType = 1 << iota
	ParamDirect
	ParamIndirect
)

// OCPCode encodes ParamType as the two-bit field the byte-code format uses.
func (t ParamType) OCPCode() byte {
	switch t {
	case ParamRegister:
		return 0b01
	case ParamDirect:
		return 0b10
	case ParamIndirect:
		return 0b11
	default:
		return 0
	}
}

// ParamTypeFromOCPCode is the inverse of OCPCode; ok is false for 0b00.
func ParamTypeFromOCPCode(code byte) (ParamType, bool) {
	switch code {
	case 0b01:
		return ParamRegister, true
	case 0b10:
		return ParamDirect, true
	case 0b11:
		return ParamIndirect, true
	default:
		return 0, false
	}
}

// OpCode is one of the 16 instruction codes, 1..=16.
type OpCode uint8

const (
	OpLive OpCode = iota + 1
	OpLd
	OpSt
	OpAdd
	OpSub
	OpAnd
	OpOr
	OpXor
	OpZjmp
	OpLdi
	OpSti
	OpFork
	OpLld
	OpLldi
	OpLfork
	OpAff
)

// OpSpec is one row of the opcode table: shape, timing, and the per-param
// masks that decide which ParamTypes each operand slot may take.
type OpSpec struct {
	Mnemonic   string
	Code       OpCode
	HasOCP     bool
	DirSize    int // 4 or 2, the byte width of a Direct operand for this op
	Cycles     int
	ParamMasks []ParamType // len == ParamCount
	Long       bool        // Lld/Lldi/Lfork: addressing reduces mod MemSize, not IdxMod
}

func (s OpSpec) ParamCount() int { return len(s.ParamMasks) }

// OpTable is keyed by OpCode; OpCode 0 has no entry.
var OpTable = map[OpCode]OpSpec{
	OpLive: {Mnemonic: "live", Code: OpLive, HasOCP: false, DirSize: 4, Cycles: 10,
		ParamMasks: []ParamType{ParamDirect}},
	OpLd: {Mnemonic: "ld", Code: OpLd, HasOCP: true, DirSize: 4, Cycles: 5,
		ParamMasks: []ParamType{ParamDirect | ParamIndirect, ParamRegister}},
	OpSt: {Mnemonic: "st", Code: OpSt, HasOCP: true, DirSize: 4, Cycles: 5,
		ParamMasks: []ParamType{ParamRegister, ParamRegister | ParamIndirect}},
	OpAdd: {Mnemonic: "add", Code: OpAdd, HasOCP: true, DirSize: 4, Cycles: 10,
		ParamMasks: []ParamType{ParamRegister, ParamRegister, ParamRegister}},
	OpSub: {Mnemonic: "sub", Code: OpSub, HasOCP: true, DirSize: 4, Cycles: 10,
		ParamMasks: []ParamType{ParamRegister, ParamRegister, ParamRegister}},
	OpAnd: {Mnemonic: "and", Code: OpAnd, HasOCP: true, DirSize: 4, Cycles: 6,
		ParamMasks: []ParamType{ParamRegister | ParamDirect | ParamIndirect, ParamRegister | ParamDirect | ParamIndirect, ParamRegister}},
	OpOr: {Mnemonic: "or", Code: OpOr, HasOCP: true, DirSize: 4, Cycles: 6,
		ParamMasks: []ParamType{ParamRegister | ParamDirect | ParamIndirect, ParamRegister | ParamDirect | ParamIndirect, ParamRegister}},
	OpXor: {Mnemonic: "xor", Code: OpXor, HasOCP: true, DirSize: 4, Cycles: 6,
		ParamMasks: []ParamType{ParamRegister | ParamDirect | ParamIndirect, ParamRegister | ParamDirect | ParamIndirect, ParamRegister}},
	OpZjmp: {Mnemonic: "zjmp", Code: OpZjmp, HasOCP: false, DirSize: 2, Cycles: 20,
		ParamMasks: []ParamType{ParamDirect}},
	OpLdi: {Mnemonic: "ldi", Code: OpLdi, HasOCP: true, DirSize: 2, Cycles: 25,
		ParamMasks: []ParamType{ParamRegister | ParamDirect | ParamIndirect, ParamRegister | ParamDirect, ParamRegister}},
	OpSti: {Mnemonic: "sti", Code: OpSti, HasOCP: true, DirSize: 2, Cycles: 25,
		ParamMasks: []ParamType{ParamRegister, ParamRegister | ParamDirect | ParamIndirect, ParamRegister | ParamDirect}},
	OpFork: {Mnemonic: "fork", Code: OpFork, HasOCP: false, DirSize: 2, Cycles: 800,
		ParamMasks: []ParamType{ParamDirect}},
	OpLld: {Mnemonic: "lld", Code: OpLld, HasOCP: true, DirSize: 4, Cycles: 10,
		ParamMasks: []ParamType{ParamDirect | ParamIndirect, ParamRegister}, Long: true},
	OpLldi: {Mnemonic: "lldi", Code: OpLldi, HasOCP: true, DirSize: 2, Cycles: 50,
		ParamMasks: []ParamType{ParamRegister | ParamDirect | ParamIndirect, ParamRegister | ParamDirect, ParamRegister}, Long: true},
	OpLfork: {Mnemonic: "lfork", Code: OpLfork, HasOCP: false, DirSize: 2, Cycles: 1000,
		ParamMasks: []ParamType{ParamDirect}, Long: true},
	OpAff: {Mnemonic: "aff", Code: OpAff, HasOCP: true, DirSize: 4, Cycles: 2,
		ParamMasks: []ParamType{ParamRegister}},
}

// MnemonicTable is OpTable keyed by lowercase mnemonic, for the parser/assembler.
var MnemonicTable = func() map[string]OpSpec {
	m := make(map[string]OpSpec, len(OpTable))
	for _, spec := range OpTable {
		m[spec.Mnemonic] = spec
	}
	return m
}()

// OpFromCode maps a raw opcode byte to an OpCode; ok is false outside 1..=16.
func OpFromCode(b byte) (OpCode, bool) {
	if b < 1 || b > 16 {
		return 0, false
	}
	return OpCode(b), true
}
