package bytecode

import "github.com/codeassociates/zincc/semantic/element"

// Metadata describes one compiled entry point's calling convention,
// grounded on zinc-compiler's generator/bytecode/metadata.rs.
type Metadata struct {
	EntryName     string
	InputArgs     []NamedType
	OutputType    element.Type
}

type NamedType struct {
	Name string
	Type element.Type
}

func NewMetadata(name string, args []NamedType, output element.Type) Metadata {
	return Metadata{EntryName: name, InputArgs: args, OutputType: output}
}

// InputFieldsAsStruct packages the entry's arguments as a synthetic struct
// type, matching the way the original treats a function's whole input list
// as a single template value.
func (m Metadata) InputFieldsAsStruct() element.Type {
	fields := make([]element.StructureField, len(m.InputArgs))
	for i, a := range m.InputArgs {
		fields[i] = element.StructureField{Name: a.Name, Type: a.Type}
	}
	return element.Structure{Identifier: m.EntryName + "_input", Fields: fields}
}

func (m Metadata) InputSize() int {
	return m.InputFieldsAsStruct().Size()
}

func (m Metadata) OutputSize() int {
	if m.OutputType == nil {
		return 0
	}
	return m.OutputType.Size()
}
