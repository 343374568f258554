// Package bytecode is the instruction-stream emitter, grounded directly on
// zinc-compiler's generator/bytecode/mod.rs Bytecode struct: a growable
// instruction vector with two reserved leading no-ops patched into the
// entry's Call/Exit pair once the whole program is known, plus the
// address-book maps the generator consults while lowering each function.
package bytecode

import (
	"github.com/codeassociates/zincc/instruction"
	"github.com/codeassociates/zincc/semantic/element"
	"github.com/codeassociates/zincc/zerror"
	"github.com/codeassociates/zincc/zlog"
)

const (
	instructionVectorInitialSize     = 1024
	functionAddressesInitialSize     = 16
	variableAddressesInitialSize     = 16
	entryMetadataInitialSize         = 4
)

// State is the mutable emitter, one per compiled module.
type State struct {
	entryMetadataMap map[int]Metadata
	instructions     []instruction.Instruction

	dataStackPointer  int
	variableAddresses map[string]int
	functionAddresses map[int]int

	// callPatches holds, per not-yet-defined function uniqueID, the indices
	// of Call instructions emitted against a forward reference. StartFunction
	// drains and patches them once that function's real address is known.
	callPatches map[int][]int

	currentFile     string
	currentLocation zerror.Location
}

func New() *State {
	instructions := make([]instruction.Instruction, 0, instructionVectorInitialSize)
	instructions = append(instructions, instruction.NoOperation(), instruction.NoOperation())
	return &State{
		entryMetadataMap:  make(map[int]Metadata, entryMetadataInitialSize),
		instructions:      instructions,
		variableAddresses: make(map[string]int, variableAddressesInitialSize),
		functionAddresses: make(map[int]int, functionAddressesInitialSize),
		callPatches:       make(map[int][]int),
	}
}

// NextIndex returns the index the next PushInstruction call will land at,
// letting a caller remember where to patch a jump offset back in later.
func (s *State) NextIndex() int {
	return len(s.instructions)
}

// PatchOffset rewrites the Offset field of the instruction at index, used to
// close If/Else/LoopBegin/LoopEnd jumps once the branch/loop body's length
// is known.
func (s *State) PatchOffset(index, offset int) {
	s.instructions[index].Offset = offset
}

// RecordCallPatch remembers that the Call instruction at instructionIndex
// targets uniqueID, whose address isn't known yet because the call is
// forward-referencing. StartFunction resolves it once uniqueID is defined.
func (s *State) RecordCallPatch(uniqueID, instructionIndex int) {
	s.callPatches[uniqueID] = append(s.callPatches[uniqueID], instructionIndex)
}

func (s *State) Entries() []int {
	ids := make([]int, 0, len(s.entryMetadataMap))
	for id := range s.entryMetadataMap {
		ids = append(ids, id)
	}
	return ids
}

func (s *State) StartNewFile(name string) {
	s.currentFile = name
}

// StartFunction records unique_id's entry address, resets the per-function
// data stack pointer, and emits the file/function marker pair.
func (s *State) StartFunction(uniqueID int, identifier string) {
	address := len(s.instructions)
	s.functionAddresses[uniqueID] = address
	s.dataStackPointer = 0

	s.instructions = append(s.instructions,
		instruction.FileMarker(s.currentFile),
		instruction.FunctionMarker(identifier),
	)

	for _, idx := range s.callPatches[uniqueID] {
		s.instructions[idx].CallAddress = address
	}
	delete(s.callPatches, uniqueID)
}

func (s *State) StartEntryFunction(identifier string, uniqueID int, inputArgs []NamedType, outputType element.Type) {
	if outputType == nil {
		outputType = element.Structure{}
	}
	s.entryMetadataMap[uniqueID] = NewMetadata(identifier, inputArgs, outputType)
	s.StartFunction(uniqueID, identifier)
}

// DefineVariable reserves identifier's data-stack slot (if named — unnamed
// slots back temporaries) and returns the address it was assigned.
func (s *State) DefineVariable(identifier string, t element.Type) int {
	start := s.dataStackPointer
	if identifier != "" {
		s.variableAddresses[identifier] = start
	}
	s.dataStackPointer += t.Size()
	return start
}

// PushInstruction appends instr, emitting LineMarker/ColumnMarker ahead of
// it whenever loc differs from the previously pushed instruction's location.
func (s *State) PushInstruction(instr instruction.Instruction, loc *zerror.Location) {
	if loc != nil && *loc != s.currentLocation {
		if s.currentLocation.Line != loc.Line {
			s.instructions = append(s.instructions, instruction.LineMarker(loc.Line))
		}
		if s.currentLocation.Column != loc.Column {
			s.instructions = append(s.instructions, instruction.ColumnMarker(loc.Column))
		}
		s.currentLocation = *loc
	}
	s.instructions = append(s.instructions, instr)
}

func (s *State) GetFunctionAddress(uniqueID int) (int, bool) {
	addr, ok := s.functionAddresses[uniqueID]
	return addr, ok
}

func (s *State) GetVariableAddress(name string) (int, bool) {
	addr, ok := s.variableAddresses[name]
	return addr, ok
}

func (s *State) EntryName(entryID int) string {
	return s.entryMetadataMap[entryID].EntryName
}

func (s *State) InputTemplateBytes(entryID int, renderTemplate func(element.Type) ([]byte, error)) ([]byte, error) {
	meta := s.entryMetadataMap[entryID]
	return renderTemplate(meta.InputFieldsAsStruct())
}

func (s *State) OutputTemplateBytes(entryID int, renderTemplate func(element.Type) ([]byte, error)) ([]byte, error) {
	meta := s.entryMetadataMap[entryID]
	return renderTemplate(meta.OutputType)
}

// EntryToBytes finalizes entryID: patches the two reserved leading no-ops
// into Call(entry_addr, input_size)/Exit(output_size), logs every
// instruction (trace for markers, debug for the rest, exactly as
// entry_to_bytes does), and serializes the resulting Program.
func (s *State) EntryToBytes(entryID int) ([]byte, error) {
	meta, ok := s.entryMetadataMap[entryID]
	if !ok {
		return nil, zerror.New(zerror.Location{}, zerror.StageGenerator, "UnknownEntry", "")
	}
	delete(s.entryMetadataMap, entryID)

	instructions := make([]instruction.Instruction, len(s.instructions))
	copy(instructions, s.instructions)

	entryAddress, ok := s.GetFunctionAddress(entryID)
	if !ok {
		return nil, zerror.New(zerror.Location{}, zerror.StageGenerator, "UnknownEntry", "")
	}
	instructions[0] = instruction.Call(entryAddress, meta.InputSize())
	instructions[1] = instruction.Exit(meta.OutputSize())

	for index, instr := range instructions {
		if instr.IsMarker() {
			zlog.Trace("%03d %s", index, instr)
		} else {
			zlog.Debug("%03d %s", index, instr)
		}
	}

	program := NewProgram(meta.InputFieldsAsStruct(), meta.OutputType, instructions)
	return program.ToBytes(), nil
}

func (s *State) FunctionNameToEntryID(name string) (int, bool) {
	for id, meta := range s.entryMetadataMap {
		if meta.EntryName == name {
			return id, true
		}
	}
	return 0, false
}

func (s *State) IntoInstructions() []instruction.Instruction {
	return s.instructions
}
