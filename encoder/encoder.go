// Package encoder turns an assembled Champion into the byte-code image
// (header + body) the loader places into the VM's memory.
package encoder

import (
	"encoding/binary"
	"fmt"

	"github.com/corewar-arena/corewar/assembler"
	"github.com/corewar-arena/corewar/parser"
	"github.com/corewar-arena/corewar/specconst"
)

// Encoder performs the two-pass size-then-emit encoding described for
// write-champion: a size pass records every label's byte offset, then the
// emit pass resolves label operands against the now-complete table.
type Encoder struct {
	labels *parser.LabelTable
}

// NewEncoder returns an Encoder with an empty label table.
func NewEncoder() *Encoder {
	return &Encoder{labels: parser.NewLabelTable()}
}

// Encode assembles champ's instruction list into its full byte-code image,
// header included.
func (e *Encoder) Encode(champ *assembler.Champion) ([]byte, error) {
	offsets, bodyLen, err := e.sizePass(champ.Instructions)
	if err != nil {
		return nil, err
	}
	if bodyLen > specconst.ChampMaxSize {
		return nil, fmt.Errorf("champion body of %d bytes exceeds the %d byte limit", bodyLen, specconst.ChampMaxSize)
	}

	body := make([]byte, 0, bodyLen)
	for i, item := range champ.Instructions {
		switch item.Kind {
		case assembler.ItemLabel:
			continue
		case assembler.ItemBytes:
			body = append(body, item.Bytes...)
		case assembler.ItemOp:
			encoded, err := e.encodeOp(item.Op, offsets[i])
			if err != nil {
				return nil, WrapEncodingError(&champ.Instructions[i], err)
			}
			body = append(body, encoded...)
		}
	}

	header := encodeHeader(champ.Name, champ.Comment, len(body))
	return append(header, body...), nil
}

// sizePass walks the instruction list computing each item's starting body
// offset and defining every label's offset in e.labels.
func (e *Encoder) sizePass(items []assembler.Item) ([]int, int, error) {
	offsets := make([]int, len(items))
	offset := 0
	for i, item := range items {
		offsets[i] = offset
		switch item.Kind {
		case assembler.ItemLabel:
			span := parser.Span{}
			if err := e.labels.Define(item.Label, offset, span); err != nil {
				return nil, 0, err
			}
		case assembler.ItemBytes:
			offset += len(item.Bytes)
		case assembler.ItemOp:
			size, err := opSize(item.Op)
			if err != nil {
				return nil, 0, err
			}
			offset += size
		}
	}
	return offsets, offset, nil
}

func opSize(op *parser.Op) (int, error) {
	spec, ok := specconst.OpTable[op.Code]
	if !ok {
		return 0, fmt.Errorf("unknown opcode %d", op.Code)
	}
	size := 1
	if spec.HasOCP {
		size++
	}
	for _, operand := range op.Operands {
		size += operandSize(spec, operand)
	}
	return size, nil
}

func operandSize(spec specconst.OpSpec, operand parser.Operand) int {
	switch operand.Kind {
	case parser.OperandRegister:
		return 1
	case parser.OperandDirect:
		return spec.DirSize
	case parser.OperandIndirect:
		return 2
	default:
		return 0
	}
}

// encodeOp emits one instruction's opcode byte, optional OCP byte, and its
// operands, in that order.
func (e *Encoder) encodeOp(op *parser.Op, instrOffset int) ([]byte, error) {
	spec, ok := specconst.OpTable[op.Code]
	if !ok {
		return nil, fmt.Errorf("unknown opcode %d", op.Code)
	}

	buf := []byte{byte(op.Code)}
	if spec.HasOCP {
		buf = append(buf, computeOCP(op.Operands))
	}
	for _, operand := range op.Operands {
		enc, err := e.encodeOperand(spec, operand, instrOffset)
		if err != nil {
			return nil, err
		}
		buf = append(buf, enc...)
	}
	return buf, nil
}

// computeOCP packs each operand's ParamType into a two-bit field, high
// slot first, leaving unused low bits zero.
func computeOCP(operands []parser.Operand) byte {
	var ocp byte
	for i, operand := range operands {
		var t specconst.ParamType
		switch operand.Kind {
		case parser.OperandRegister:
			t = specconst.ParamRegister
		case parser.OperandDirect:
			t = specconst.ParamDirect
		case parser.OperandIndirect:
			t = specconst.ParamIndirect
		}
		shift := uint(6 - 2*i)
		ocp |= t.OCPCode() << shift
	}
	return ocp
}

func (e *Encoder) encodeOperand(spec specconst.OpSpec, operand parser.Operand, instrOffset int) ([]byte, error) {
	switch operand.Kind {
	case parser.OperandRegister:
		return []byte{byte(operand.Register)}, nil
	case parser.OperandDirect:
		v, err := e.resolveValue(operand, instrOffset)
		if err != nil {
			return nil, err
		}
		return encodeSigned(v, spec.DirSize), nil
	case parser.OperandIndirect:
		v, err := e.resolveValue(operand, instrOffset)
		if err != nil {
			return nil, err
		}
		return encodeSigned(v, 2), nil
	default:
		return nil, fmt.Errorf("unknown operand kind %d", operand.Kind)
	}
}

// resolveValue returns operand's numeric value, resolving a label reference
// to its offset relative to the instruction that uses it.
func (e *Encoder) resolveValue(operand parser.Operand, instrOffset int) (int32, error) {
	if operand.Label == "" {
		return operand.Value, nil
	}
	labelOffset, ok := e.labels.Offset(operand.Label)
	if !ok {
		e.labels.Reference(operand.Label, operand.Span)
		return 0, fmt.Errorf("undefined label %q", operand.Label)
	}
	return int32(labelOffset - instrOffset), nil
}

// encodeSigned writes v as width big-endian bytes, two's complement.
func encodeSigned(v int32, width int) []byte {
	buf := make([]byte, width)
	u := uint32(v)
	for i := 0; i < width; i++ {
		buf[width-1-i] = byte(u >> (8 * uint(i)))
	}
	return buf
}

// encodeHeader lays out the magic/name/reserved/body-size/comment/reserved
// header described by the byte-code format.
func encodeHeader(name, comment string, bodyLen int) []byte {
	buf := make([]byte, 0, specconst.HeaderSize)

	magic := make([]byte, 4)
	binary.BigEndian.PutUint32(magic, specconst.CorewarExecMagic)
	buf = append(buf, magic...)

	buf = append(buf, padded(name, specconst.ProgNameLength)...)
	buf = append(buf, make([]byte, specconst.HeaderReserved)...)

	size := make([]byte, 4)
	binary.BigEndian.PutUint32(size, uint32(bodyLen))
	buf = append(buf, size...)

	buf = append(buf, padded(comment, specconst.CommentLength)...)
	buf = append(buf, make([]byte, specconst.HeaderReserved)...)

	return buf
}

func padded(s string, length int) []byte {
	b := make([]byte, length)
	copy(b, s)
	return b
}
