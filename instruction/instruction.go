// Package instruction defines the zinc-build-era opcode set and the binary
// encoding of a single Instruction, grounded on zrust-bytecode's
// Instruction/OperationCode scheme (TryFrom-style decode, opcode() tag,
// Into<Vec<u8>> encode) generalized to the richer op set the target VM
// needs for a typed, struct/enum-aware language rather than zrust's
// integers-only toy machine.
package instruction

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// Opcode tags the kind of one Instruction on the wire.
type Opcode byte

const (
	OpNoOperation Opcode = iota
	OpPush
	OpPop
	OpCopy
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg
	OpNot
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpCast
	OpLoad
	OpStore
	OpLoadByIndex
	OpStoreByIndex
	OpLoadSequence
	OpStoreSequence
	OpCall
	OpReturn
	OpExit
	OpIf
	OpElse
	OpEndIf
	OpLoopBegin
	OpLoopEnd
	OpStorageLoad
	OpStorageStore
	OpFileMarker
	OpFunctionMarker
	OpLineMarker
	OpColumnMarker
)

var opcodeNames = map[Opcode]string{
	OpNoOperation: "noop", OpPush: "push", OpPop: "pop", OpCopy: "copy",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpRem: "rem",
	OpNeg: "neg", OpNot: "not", OpAnd: "and", OpOr: "or", OpXor: "xor",
	OpShl: "shl", OpShr: "shr",
	OpEq: "eq", OpNe: "ne", OpLt: "lt", OpLe: "le", OpGt: "gt", OpGe: "ge",
	OpCast: "cast", OpLoad: "load", OpStore: "store",
	OpLoadByIndex: "load_by_index", OpStoreByIndex: "store_by_index",
	OpLoadSequence: "load_sequence", OpStoreSequence: "store_sequence",
	OpCall: "call", OpReturn: "return", OpExit: "exit",
	OpIf: "if", OpElse: "else", OpEndIf: "endif",
	OpLoopBegin: "loop_begin", OpLoopEnd: "loop_end",
	OpStorageLoad: "storage_load", OpStorageStore: "storage_store",
	OpFileMarker: "file_marker", OpFunctionMarker: "function_marker",
	OpLineMarker: "line_marker", OpColumnMarker: "column_marker",
}

func (o Opcode) String() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return fmt.Sprintf("opcode(%d)", byte(o))
}

// Instruction is one bytecode op plus whatever operands it carries. Not
// every field is meaningful for every Opcode; this mirrors the original's
// one-struct-per-variant enum collapsed into a single Go struct for a
// simpler, allocation-light encode/decode path.
type Instruction struct {
	Op Opcode

	// OpPush
	PushValue *big.Int

	// OpLoad/OpStore/OpLoadByIndex/OpStoreByIndex/OpStorageLoad/OpStorageStore
	Address int
	Size    int

	// OpCall
	CallAddress int
	InputSize   int

	// OpExit
	OutputSize int

	// OpIf/OpElse/OpLoopBegin/OpLoopEnd: relative jump distance, patched once the
	// branch/loop body's instruction count is known.
	Offset int

	// OpFileMarker/OpFunctionMarker
	Name string

	// OpLineMarker/OpColumnMarker
	Line   int
	Column int
}

func NoOperation() Instruction        { return Instruction{Op: OpNoOperation} }
func Push(v *big.Int) Instruction     { return Instruction{Op: OpPush, PushValue: v} }
func Call(addr, inputSize int) Instruction {
	return Instruction{Op: OpCall, CallAddress: addr, InputSize: inputSize}
}
func Exit(outputSize int) Instruction { return Instruction{Op: OpExit, OutputSize: outputSize} }
func FileMarker(name string) Instruction {
	return Instruction{Op: OpFileMarker, Name: name}
}
func FunctionMarker(name string) Instruction {
	return Instruction{Op: OpFunctionMarker, Name: name}
}
func LineMarker(line int) Instruction     { return Instruction{Op: OpLineMarker, Line: line} }
func ColumnMarker(column int) Instruction { return Instruction{Op: OpColumnMarker, Column: column} }

// IsMarker reports whether this instruction only carries debug-location
// metadata, the same distinction entry_to_bytes uses to log at trace vs.
// debug severity.
func (i Instruction) IsMarker() bool {
	switch i.Op {
	case OpFileMarker, OpFunctionMarker, OpLineMarker, OpColumnMarker:
		return true
	default:
		return false
	}
}

func (i Instruction) String() string {
	switch i.Op {
	case OpPush:
		return fmt.Sprintf("push %s", i.PushValue)
	case OpCall:
		return fmt.Sprintf("call %d, %d", i.CallAddress, i.InputSize)
	case OpExit:
		return fmt.Sprintf("exit %d", i.OutputSize)
	case OpReturn:
		return fmt.Sprintf("return %d", i.OutputSize)
	case OpLoad, OpStore, OpLoadSequence, OpStoreSequence, OpStorageLoad, OpStorageStore:
		return fmt.Sprintf("%s %d, %d", i.Op, i.Address, i.Size)
	case OpFileMarker:
		return fmt.Sprintf("file_marker %q", i.Name)
	case OpFunctionMarker:
		return fmt.Sprintf("function_marker %q", i.Name)
	case OpLineMarker:
		return fmt.Sprintf("line_marker %d", i.Line)
	case OpColumnMarker:
		return fmt.Sprintf("column_marker %d", i.Column)
	default:
		return i.Op.String()
	}
}

// Encode appends this instruction's wire form to buf: a one-byte opcode tag
// followed by a variant-specific payload, length-prefixed where variable
// (PushValue, Name).
func (i Instruction) Encode(buf []byte) []byte {
	buf = append(buf, byte(i.Op))
	switch i.Op {
	case OpPush:
		buf = appendBigInt(buf, i.PushValue)
	case OpCall:
		buf = appendUint32(buf, uint32(i.CallAddress))
		buf = appendUint32(buf, uint32(i.InputSize))
	case OpExit, OpReturn:
		buf = appendUint32(buf, uint32(i.OutputSize))
	case OpLoad, OpStore, OpLoadByIndex, OpStoreByIndex, OpLoadSequence, OpStoreSequence, OpStorageLoad, OpStorageStore:
		buf = appendUint32(buf, uint32(i.Address))
		buf = appendUint32(buf, uint32(i.Size))
	case OpIf, OpElse, OpLoopBegin, OpLoopEnd:
		buf = appendUint32(buf, uint32(i.Offset))
	case OpFileMarker, OpFunctionMarker:
		buf = appendString(buf, i.Name)
	case OpLineMarker:
		buf = appendUint32(buf, uint32(i.Line))
	case OpColumnMarker:
		buf = appendUint32(buf, uint32(i.Column))
	}
	return buf
}

// Decode reads one Instruction from buf, returning it and the number of
// bytes consumed, mirroring Instruction::new_from_slice's (Self, usize)
// return shape.
func Decode(buf []byte) (Instruction, int, error) {
	if len(buf) == 0 {
		return Instruction{}, 0, fmt.Errorf("instruction: opcode missing")
	}
	op := Opcode(buf[0])
	rest := buf[1:]
	switch op {
	case OpNoOperation, OpPop, OpCopy, OpAdd, OpSub, OpMul, OpDiv, OpRem,
		OpNeg, OpNot, OpAnd, OpOr, OpXor, OpShl, OpShr, OpEq, OpNe, OpLt, OpLe, OpGt, OpGe,
		OpCast, OpEndIf:
		return Instruction{Op: op}, 1, nil
	case OpPush:
		v, n, err := readBigInt(rest)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: op, PushValue: v}, 1 + n, nil
	case OpCall:
		addr, inputSize, n := readUint32(rest), readUint32(rest[4:]), 8
		return Instruction{Op: op, CallAddress: int(addr), InputSize: int(inputSize)}, 1 + n, nil
	case OpExit, OpReturn:
		outputSize := readUint32(rest)
		return Instruction{Op: op, OutputSize: int(outputSize)}, 5, nil
	case OpLoad, OpStore, OpLoadByIndex, OpStoreByIndex, OpLoadSequence, OpStoreSequence, OpStorageLoad, OpStorageStore:
		addr, size := readUint32(rest), readUint32(rest[4:])
		return Instruction{Op: op, Address: int(addr), Size: int(size)}, 9, nil
	case OpIf, OpElse, OpLoopBegin, OpLoopEnd:
		offset := readUint32(rest)
		return Instruction{Op: op, Offset: int(offset)}, 5, nil
	case OpFileMarker, OpFunctionMarker:
		name, n, err := readString(rest)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Op: op, Name: name}, 1 + n, nil
	case OpLineMarker:
		return Instruction{Op: op, Line: int(readUint32(rest))}, 5, nil
	case OpColumnMarker:
		return Instruction{Op: op, Column: int(readUint32(rest))}, 5, nil
	default:
		return Instruction{}, 0, fmt.Errorf("instruction: unknown opcode %d", op)
	}
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func readUint32(buf []byte) uint32 {
	return binary.BigEndian.Uint32(buf[:4])
}

func appendString(buf []byte, s string) []byte {
	buf = appendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func readString(buf []byte) (string, int, error) {
	if len(buf) < 4 {
		return "", 0, fmt.Errorf("instruction: truncated string length")
	}
	n := int(readUint32(buf))
	if len(buf) < 4+n {
		return "", 0, fmt.Errorf("instruction: truncated string body")
	}
	return string(buf[4 : 4+n]), 4 + n, nil
}

func appendBigInt(buf []byte, v *big.Int) []byte {
	if v == nil {
		v = big.NewInt(0)
	}
	sign := byte(0)
	if v.Sign() < 0 {
		sign = 1
	}
	bytes := new(big.Int).Abs(v).Bytes()
	buf = append(buf, sign)
	buf = appendUint32(buf, uint32(len(bytes)))
	return append(buf, bytes...)
}

func readBigInt(buf []byte) (*big.Int, int, error) {
	if len(buf) < 5 {
		return nil, 0, fmt.Errorf("instruction: truncated integer header")
	}
	sign := buf[0]
	n := int(readUint32(buf[1:]))
	if len(buf) < 5+n {
		return nil, 0, fmt.Errorf("instruction: truncated integer body")
	}
	v := new(big.Int).SetBytes(buf[5 : 5+n])
	if sign == 1 {
		v.Neg(v)
	}
	return v, 5 + n, nil
}
