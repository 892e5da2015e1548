// Package assembler folds a stream of parsed source lines into a Champion,
// the validated unit the encoder turns into byte code.
package assembler

import (
	"fmt"

	"github.com/corewar-arena/corewar/parser"
	"github.com/corewar-arena/corewar/specconst"
)

// ItemKind tags one entry of a Champion's instruction list.
type ItemKind int

const (
	ItemLabel ItemKind = iota
	ItemOp
	ItemBytes
)

// Item is either a label marker, a decoded Op, or a raw .code byte run, in
// source order.
type Item struct {
	Kind  ItemKind
	Label string
	Op    *parser.Op
	Bytes []byte
}

// Champion is a fully folded, name-and-comment-complete program ready for
// the encoder.
type Champion struct {
	Name         string
	Comment      string
	Instructions []Item
}

// Error is returned by Builder methods and Finish when assembly rules are
// violated.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

// ErrorKind tags which assembly rule was broken.
type ErrorKind int

const (
	ErrNameAlreadySet ErrorKind = iota
	ErrCommentAlreadySet
	ErrMissingName
	ErrMissingComment
	ErrInvalidLineKind
)

// Builder accumulates ParsedLines into a Champion. The zero value is ready
// to use.
type Builder struct {
	name         *string
	comment      *string
	instructions []Item
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// AssembleLine folds one parsed line into the builder, returning a new
// error if the line violates an assembly rule. The builder is mutated in
// place and also returned, so callers may chain.
func (b *Builder) AssembleLine(line *parser.ParsedLine) (*Builder, error) {
	switch line.Kind {
	case parser.LineChampionName:
		return b.withName(line.ChampionName)
	case parser.LineChampionComment:
		return b.withComment(line.ChampionComment)
	case parser.LineCode:
		b.instructions = append(b.instructions, Item{Kind: ItemBytes, Bytes: line.Code})
		return b, nil
	case parser.LineOp:
		b.instructions = append(b.instructions, Item{Kind: ItemOp, Op: line.Op})
		return b, nil
	case parser.LineLabel:
		b.instructions = append(b.instructions, Item{Kind: ItemLabel, Label: line.Label})
		return b, nil
	case parser.LineLabelAndOp:
		b.instructions = append(b.instructions, Item{Kind: ItemLabel, Label: line.Label})
		b.instructions = append(b.instructions, Item{Kind: ItemOp, Op: line.Op})
		return b, nil
	case parser.LineEmpty:
		return b, nil
	default:
		return b, &Error{Kind: ErrInvalidLineKind, Message: fmt.Sprintf("unhandled parsed line kind %d", line.Kind)}
	}
}

func (b *Builder) withName(name string) (*Builder, error) {
	if b.name != nil {
		return b, &Error{Kind: ErrNameAlreadySet, Message: fmt.Sprintf(".name already set to %q", *b.name)}
	}
	b.name = &name
	return b, nil
}

func (b *Builder) withComment(comment string) (*Builder, error) {
	if b.comment != nil {
		return b, &Error{Kind: ErrCommentAlreadySet, Message: ".comment already set"}
	}
	b.comment = &comment
	return b, nil
}

// Finish validates that both .name and .comment were set and returns the
// completed Champion.
func (b *Builder) Finish() (*Champion, error) {
	if b.name == nil {
		return nil, &Error{Kind: ErrMissingName, Message: "champion is missing a .name directive"}
	}
	if b.comment == nil {
		return nil, &Error{Kind: ErrMissingComment, Message: "champion is missing a .comment directive"}
	}
	if len(*b.name) > specconst.ProgNameLength {
		return nil, &Error{Kind: ErrMissingName, Message: fmt.Sprintf("champion name exceeds %d bytes", specconst.ProgNameLength)}
	}
	if len(*b.comment) > specconst.CommentLength {
		return nil, &Error{Kind: ErrMissingComment, Message: fmt.Sprintf("champion comment exceeds %d bytes", specconst.CommentLength)}
	}
	return &Champion{Name: *b.name, Comment: *b.comment, Instructions: b.instructions}, nil
}

// AssembleLines is a convenience wrapper folding a whole slice of parsed
// lines through a fresh Builder.
func AssembleLines(lines []*parser.ParsedLine) (*Champion, error) {
	b := NewBuilder()
	var err error
	for _, line := range lines {
		if _, err = b.AssembleLine(line); err != nil {
			return nil, err
		}
	}
	return b.Finish()
}
