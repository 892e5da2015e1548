package specconst

import "testing"

func TestOCPCodeRoundTrip(t *testing.T) {
	cases := []ParamType{ParamRegister, ParamDirect, ParamIndirect}
	for _, pt := range cases {
		code := pt.OCPCode()
		got, ok := ParamTypeFromOCPCode(code)
		if !ok {
			t.Fatalf("ParamTypeFromOCPCode(%02b) reported !ok", code)
		}
		if got != pt {
			t.Errorf("round trip of %v produced %v", pt, got)
		}
	}
}

func TestParamTypeFromOCPCodeZeroIsInvalid(t *testing.T) {
	if _, ok := ParamTypeFromOCPCode(0b00); ok {
		t.Error("OCP code 0b00 should not map to a valid ParamType")
	}
}

func TestOpFromCodeRange(t *testing.T) {
	if _, ok := OpFromCode(0); ok {
		t.Error("opcode 0 should be invalid")
	}
	if _, ok := OpFromCode(17); ok {
		t.Error("opcode 17 should be invalid")
	}
	for b := byte(1); b <= 16; b++ {
		code, ok := OpFromCode(b)
		if !ok {
			t.Errorf("opcode %d should be valid", b)
		}
		if OpCode(b) != code {
			t.Errorf("OpFromCode(%d) = %v, want %v", b, code, OpCode(b))
		}
	}
}

func TestOpTableCoversEveryOpCode(t *testing.T) {
	for code := OpLive; code <= OpAff; code++ {
		spec, ok := OpTable[code]
		if !ok {
			t.Fatalf("OpTable missing entry for opcode %d", code)
		}
		if spec.ParamCount() != len(spec.ParamMasks) {
			t.Errorf("%s: ParamCount() inconsistent with ParamMasks length", spec.Mnemonic)
		}
		if spec.ParamCount() > MaxParams {
			t.Errorf("%s: ParamCount %d exceeds MaxParams %d", spec.Mnemonic, spec.ParamCount(), MaxParams)
		}
	}
}

func TestLongOpsAreExactlyLldLldiLfork(t *testing.T) {
	wantLong := map[OpCode]bool{OpLld: true, OpLldi: true, OpLfork: true}
	for code, spec := range OpTable {
		if spec.Long != wantLong[code] {
			t.Errorf("%s: Long = %v, want %v", spec.Mnemonic, spec.Long, wantLong[code])
		}
	}
}

func TestMnemonicTableKeyedByLowercaseMnemonic(t *testing.T) {
	for _, spec := range OpTable {
		got, ok := MnemonicTable[spec.Mnemonic]
		if !ok {
			t.Fatalf("MnemonicTable missing mnemonic %q", spec.Mnemonic)
		}
		if got.Code != spec.Code {
			t.Errorf("MnemonicTable[%q].Code = %v, want %v", spec.Mnemonic, got.Code, spec.Code)
		}
	}
}
