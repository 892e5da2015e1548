package assembler

import (
	"testing"

	"github.com/corewar-arena/corewar/parser"
)

func mustParse(t *testing.T, src string, line int) *parser.ParsedLine {
	t.Helper()
	pl, err := parser.ParseLine(src, line)
	if err != nil {
		t.Fatalf("ParseLine(%q): unexpected error: %v", src, err)
	}
	return pl
}

func TestAssembleLinesProducesChampion(t *testing.T) {
	lines := []*parser.ParsedLine{
		mustParse(t, `.name "tiny"`, 1),
		mustParse(t, `.comment "does nothing"`, 2),
		mustParse(t, "loop: live %1", 3),
		mustParse(t, "zjmp %:loop", 4),
	}

	champ, err := AssembleLines(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if champ.Name != "tiny" || champ.Comment != "does nothing" {
		t.Errorf("champ = %+v", champ)
	}
	if len(champ.Instructions) != 3 {
		t.Fatalf("want 3 instructions (label, live, zjmp), got %d", len(champ.Instructions))
	}
	if champ.Instructions[0].Kind != ItemLabel || champ.Instructions[0].Label != "loop" {
		t.Errorf("instructions[0] = %+v", champ.Instructions[0])
	}
	if champ.Instructions[1].Kind != ItemOp || champ.Instructions[1].Op.Mnemonic != "live" {
		t.Errorf("instructions[1] = %+v", champ.Instructions[1])
	}
}

func TestDuplicateNameDirectiveErrors(t *testing.T) {
	b := NewBuilder()
	if _, err := b.AssembleLine(mustParse(t, `.name "a"`, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := b.AssembleLine(mustParse(t, `.name "b"`, 2))
	if err == nil {
		t.Fatal("expected an error for a redefined .name directive")
	}
	if err.(*Error).Kind != ErrNameAlreadySet {
		t.Errorf("error kind = %v, want ErrNameAlreadySet", err.(*Error).Kind)
	}
}

func TestFinishRequiresNameAndComment(t *testing.T) {
	b := NewBuilder()
	if _, err := b.Finish(); err == nil {
		t.Fatal("expected an error when .name and .comment are both missing")
	}

	b = NewBuilder()
	if _, err := b.AssembleLine(mustParse(t, `.name "a"`, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := b.Finish(); err == nil {
		t.Fatal("expected an error when .comment is still missing")
	}
}

func TestCodeDirectiveFoldsToRawBytes(t *testing.T) {
	b := NewBuilder()
	if _, err := b.AssembleLine(mustParse(t, `.name "a"`, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := b.AssembleLine(mustParse(t, `.comment "b"`, 2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := b.AssembleLine(mustParse(t, ".code 1 2 3", 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	champ, err := b.Finish()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(champ.Instructions) != 1 || champ.Instructions[0].Kind != ItemBytes {
		t.Fatalf("instructions = %+v", champ.Instructions)
	}
	want := []byte{1, 2, 3}
	got := champ.Instructions[0].Bytes
	if len(got) != len(want) {
		t.Fatalf("bytes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bytes[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
