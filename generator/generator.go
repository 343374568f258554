// Package generator translates resolved semantic operations into bytecode
// instructions. It is the thin IR layer between semantic/analyzer (which
// walks the postfix expression list and knows *what* operation each
// operator/operand means) and bytecode.State (which only knows how to
// append raw instruction.Instruction values) — grounded on the way
// zinc-compiler's GeneratorExpressionOperator/Operand translate directly
// into Bytecode::push_instruction calls.
package generator

import (
	"math/big"

	"github.com/codeassociates/zincc/bytecode"
	"github.com/codeassociates/zincc/instruction"
	"github.com/codeassociates/zincc/semantic/element"
	"github.com/codeassociates/zincc/zerror"
)

var binaryOpcode = map[string]instruction.Opcode{
	"or": instruction.OpOr, "and": instruction.OpAnd, "xor": instruction.OpXor,
	"shl": instruction.OpShl, "shr": instruction.OpShr,
	"eq": instruction.OpEq, "ne": instruction.OpNe,
	"lt": instruction.OpLt, "le": instruction.OpLe, "gt": instruction.OpGt, "ge": instruction.OpGe,
	"add": instruction.OpAdd, "sub": instruction.OpSub, "mul": instruction.OpMul,
	"div": instruction.OpDiv, "rem": instruction.OpRem,
}

// Generator wraps a bytecode.State with operation-level emit helpers.
type Generator struct {
	BC *bytecode.State
}

func New(bc *bytecode.State) *Generator {
	return &Generator{BC: bc}
}

func (g *Generator) PushInteger(v *big.Int, loc zerror.Location) {
	g.BC.PushInstruction(instruction.Push(v), &loc)
}

func (g *Generator) PushBoolean(v bool, loc zerror.Location) {
	n := big.NewInt(0)
	if v {
		n = big.NewInt(1)
	}
	g.BC.PushInstruction(instruction.Push(n), &loc)
}

func (g *Generator) Load(addr int, size int, loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpLoad, Address: addr, Size: size}, &loc)
}

func (g *Generator) Store(addr int, size int, loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpStore, Address: addr, Size: size}, &loc)
}

func (g *Generator) LoadByIndex(addr int, size int, loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpLoadByIndex, Address: addr, Size: size}, &loc)
}

func (g *Generator) StoreByIndex(addr int, size int, loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpStoreByIndex, Address: addr, Size: size}, &loc)
}

func (g *Generator) StorageLoad(addr int, size int, loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpStorageLoad, Address: addr, Size: size}, &loc)
}

func (g *Generator) StorageStore(addr int, size int, loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpStorageStore, Address: addr, Size: size}, &loc)
}

// LoadSequence/StoreSequence move more than one data-stack slot at once,
// the multi-cell counterpart push_instruction_load/push_instruction_store
// pick whenever a place's data_size is greater than one.
func (g *Generator) LoadSequence(addr int, size int, loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpLoadSequence, Address: addr, Size: size}, &loc)
}

func (g *Generator) StoreSequence(addr int, size int, loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpStoreSequence, Address: addr, Size: size}, &loc)
}

// Copy duplicates the value on top of the evaluation stack; Pop discards it.
func (g *Generator) Copy(loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpCopy}, &loc)
}

func (g *Generator) Pop(loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpPop}, &loc)
}

// Binary emits the opcode named by op ("add", "lt", "and", ...).
func (g *Generator) Binary(op string, loc zerror.Location) {
	code, ok := binaryOpcode[op]
	if !ok {
		code = instruction.OpNoOperation
	}
	g.BC.PushInstruction(instruction.Instruction{Op: code}, &loc)
}

func (g *Generator) Not(loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpNot}, &loc)
}

func (g *Generator) Neg(loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpNeg}, &loc)
}

func (g *Generator) Cast(loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpCast}, &loc)
}

// Call emits a Call against uniqueID's known address, or against placeholder
// address 0 plus a pending patch recorded with bytecode.State when uniqueID
// is a forward reference whose address isn't known yet.
func (g *Generator) Call(uniqueID int, inputSize int, loc zerror.Location) {
	addr, ok := g.BC.GetFunctionAddress(uniqueID)
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpCall, CallAddress: addr, InputSize: inputSize}, &loc)
	if !ok {
		// PushInstruction may have inserted Line/ColumnMarker instructions
		// ahead of the Call itself on a source-location change, so the
		// patch target is read off NextIndex()-1, not computed beforehand.
		g.BC.RecordCallPatch(uniqueID, g.BC.NextIndex()-1)
	}
}

// Return emits the function-exit opcode carrying its output's cell count.
func (g *Generator) Return(outputSize int, loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpReturn, OutputSize: outputSize}, &loc)
}

// If reserves a jump slot whose Offset is patched in later via PatchJump,
// once the distance to skip on a false condition is known. The returned
// index is read off NextIndex() after the push, since PushInstruction may
// have inserted Line/ColumnMarker instructions ahead of the If itself.
func (g *Generator) If(loc zerror.Location) int {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpIf}, &loc)
	return g.BC.NextIndex() - 1
}

func (g *Generator) Else(loc zerror.Location) int {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpElse}, &loc)
	return g.BC.NextIndex() - 1
}

func (g *Generator) EndIf(loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpEndIf}, &loc)
}

// PatchJump closes the jump opened at instructionIndex (an If or Else),
// setting its Offset to the distance to the instruction at targetIndex.
func (g *Generator) PatchJump(instructionIndex, targetIndex int) {
	g.BC.PatchOffset(instructionIndex, targetIndex-instructionIndex)
}

// LoopBegin reserves a jump slot analogous to If's, patched once the loop
// body's instruction count (or, for a bounded for-loop, its total unrolled
// length) is known. iterations is recorded as the initial Offset guess for
// bounded loops and overwritten by PatchJump once the body is emitted.
func (g *Generator) LoopBegin(iterations int, loc zerror.Location) int {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpLoopBegin, Offset: iterations}, &loc)
	return g.BC.NextIndex() - 1
}

func (g *Generator) LoopEnd(loc zerror.Location) {
	g.BC.PushInstruction(instruction.Instruction{Op: instruction.OpLoopEnd}, &loc)
}

// StartFunction/StartEntryFunction/DefineVariable delegate straight to the
// underlying bytecode.State; Generator only adds the op-level helpers above.
func (g *Generator) StartFunction(uniqueID int, name string) { g.BC.StartFunction(uniqueID, name) }

func (g *Generator) StartEntryFunction(name string, uniqueID int, args []bytecode.NamedType, output element.Type) {
	g.BC.StartEntryFunction(name, uniqueID, args, output)
}

func (g *Generator) DefineVariable(name string, t element.Type) int {
	return g.BC.DefineVariable(name, t)
}
