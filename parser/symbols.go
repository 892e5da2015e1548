package parser

import "fmt"

// labelEntry is one defined label: its byte offset within the champion body
// and where it was defined, for duplicate-definition diagnostics.
type labelEntry struct {
	Offset int
	Span   Span
}

// LabelTable records label offsets discovered during the encoder's size
// pass, and the positions labels are referenced from, so the emit pass can
// resolve every Direct/Indirect label operand to a relative offset.
type LabelTable struct {
	labels     map[string]labelEntry
	references map[string][]Span
}

// NewLabelTable returns an empty table.
func NewLabelTable() *LabelTable {
	return &LabelTable{
		labels:     make(map[string]labelEntry),
		references: make(map[string][]Span),
	}
}

// Define records name at offset. Redefining an already-defined label is an
// error — Core War source has no local/numeric label reuse.
func (lt *LabelTable) Define(name string, offset int, span Span) error {
	if existing, ok := lt.labels[name]; ok {
		return fmt.Errorf("label %q already defined at %s", name, existing.Span.Start)
	}
	lt.labels[name] = labelEntry{Offset: offset, Span: span}
	return nil
}

// Reference notes that name was used at span, for undefined-label reporting.
func (lt *LabelTable) Reference(name string, span Span) {
	lt.references[name] = append(lt.references[name], span)
}

// Offset returns the byte offset name was defined at.
func (lt *LabelTable) Offset(name string) (int, bool) {
	e, ok := lt.labels[name]
	return e.Offset, ok
}

// Undefined returns every referenced-but-never-defined label name, with the
// span of its first reference. The order of the returned entries is not
// defined.
func (lt *LabelTable) Undefined() []struct {
	Name string
	Span Span
} {
	var out []struct {
		Name string
		Span Span
	}
	for name, spans := range lt.references {
		if _, ok := lt.labels[name]; !ok && len(spans) > 0 {
			out = append(out, struct {
				Name string
				Span Span
			}{name, spans[0]})
		}
	}
	return out
}
