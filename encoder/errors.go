package encoder

import (
	"fmt"

	"github.com/corewar-arena/corewar/assembler"
)

// EncodingError provides detailed context for encoding failures: which
// instruction (by source span) could not be encoded, and why.
type EncodingError struct {
	Op      *assembler.Item
	Message string
	Wrapped error
}

func (e *EncodingError) Error() string {
	if e.Op == nil || e.Op.Op == nil {
		if e.Wrapped != nil {
			return fmt.Sprintf("encoding error: %s: %v", e.Message, e.Wrapped)
		}
		return fmt.Sprintf("encoding error: %s", e.Message)
	}

	location := fmt.Sprintf("%s: ", e.Op.Op.Span.Start)
	if e.Wrapped != nil {
		return fmt.Sprintf("%s%s: %v", location, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s%s", location, e.Message)
}

func (e *EncodingError) Unwrap() error { return e.Wrapped }

// NewEncodingError builds an EncodingError anchored at item's source span.
func NewEncodingError(item *assembler.Item, message string) *EncodingError {
	return &EncodingError{Op: item, Message: message}
}

// WrapEncodingError attaches item's source span to an underlying error,
// leaving an already-wrapped EncodingError untouched.
func WrapEncodingError(item *assembler.Item, err error) error {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EncodingError); ok {
		return ee
	}
	return &EncodingError{Op: item, Message: "failed to encode instruction", Wrapped: err}
}
