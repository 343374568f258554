package bytecode

import (
	"encoding/binary"

	"github.com/codeassociates/zincc/instruction"
	"github.com/codeassociates/zincc/semantic/element"
)

// Program is the serialized unit a single zincc build produces: one entry's
// input/output type descriptors plus the full (shared) instruction stream,
// mirroring zinc-build's Program::new/to_bytes round trip named in the
// binary program format invariant.
type Program struct {
	InputType    element.Type
	OutputType   element.Type
	Instructions []instruction.Instruction
}

func NewProgram(input, output element.Type, instructions []instruction.Instruction) Program {
	return Program{InputType: input, OutputType: output, Instructions: instructions}
}

// ToBytes encodes the instruction stream as a count-prefixed sequence of
// Instruction.Encode payloads. Type descriptors are not part of the binary
// program (they drive the JSON input/output templates instead, via value.RenderTemplate).
func (p Program) ToBytes() []byte {
	buf := make([]byte, 4, 4+len(p.Instructions)*8)
	binary.BigEndian.PutUint32(buf, uint32(len(p.Instructions)))
	for _, instr := range p.Instructions {
		buf = instr.Encode(buf)
	}
	return buf
}

// ProgramFromBytes decodes the instruction stream ToBytes wrote; it takes
// the already-known input/output types since those travel alongside the
// program in the JSON templates, not the binary stream itself.
func ProgramFromBytes(data []byte, input, output element.Type) (Program, error) {
	if len(data) < 4 {
		return Program{}, errShort("program header")
	}
	count := int(binary.BigEndian.Uint32(data))
	rest := data[4:]
	instructions := make([]instruction.Instruction, 0, count)
	for i := 0; i < count; i++ {
		instr, n, err := instruction.Decode(rest)
		if err != nil {
			return Program{}, err
		}
		instructions = append(instructions, instr)
		rest = rest[n:]
	}
	return Program{InputType: input, OutputType: output, Instructions: instructions}, nil
}

type errShort string

func (e errShort) Error() string { return "bytecode: truncated " + string(e) }
