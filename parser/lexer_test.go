package parser

import "testing"

func TestLexerTokenizesDirectivesAndIdents(t *testing.T) {
	toks, err := NewLexer(`.name "foo" ld %1, r2`, 1).TokenizeAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []TokenType{
		TokenChampionNameCmd, TokenQuotedString,
		TokenIdent, TokenDirectChar, TokenNumber, TokenParamSep, TokenIdent,
		TokenEOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, tt)
		}
	}
}

func TestLexerLabelDefVsLabelUse(t *testing.T) {
	toks, err := NewLexer("loop: :loop", 1).TokenizeAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Type != TokenLabelDef || toks[0].Literal != "loop" {
		t.Errorf("token 0 = %+v", toks[0])
	}
	if toks[1].Type != TokenLabelUse || toks[1].Literal != "loop" {
		t.Errorf("token 1 = %+v", toks[1])
	}
}

func TestLexerHexAndDecimalNumbers(t *testing.T) {
	toks, err := NewLexer("0x1F 0d42 -7", 1).TokenizeAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Base != Hexadecimal || toks[0].Literal != "0x1F" {
		t.Errorf("token 0 = %+v", toks[0])
	}
	if toks[1].Base != Decimal || toks[1].Literal != "0d42" {
		t.Errorf("token 1 = %+v", toks[1])
	}
	if toks[2].Literal != "-7" {
		t.Errorf("token 2 = %+v", toks[2])
	}
}

func TestLexerUnterminatedStringErrors(t *testing.T) {
	_, err := NewLexer(`.name "unterminated`, 1).TokenizeAll()
	if err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
}

func TestLexerUnrecognizedDirectiveErrors(t *testing.T) {
	_, err := NewLexer(".bogus", 1).TokenizeAll()
	if err == nil {
		t.Fatal("expected an error for an unrecognized directive")
	}
}

func TestLexerCommentRunsToEndOfLine(t *testing.T) {
	toks, err := NewLexer("r1 # trailing comment", 1).TokenizeAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[1].Type != TokenComment || toks[1].Literal != " trailing comment" {
		t.Errorf("comment token = %+v", toks[1])
	}
}
