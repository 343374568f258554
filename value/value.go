// Package value builds the JSON input/output templates emitted alongside a
// compiled program, grounded on zinc_bytecode::data::values::Value and its
// default_from_type constructor plus Bytecode::input_template_bytes /
// output_template_bytes (serde_json::to_string_pretty + trailing newline).
package value

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/codeassociates/zincc/semantic/element"
)

// DefaultFromType builds the zero value for t as a json.RawMessage-friendly
// Go value: integers and field elements render as the decimal string "0"
// (the target VM's field arithmetic does not fit in a JSON number),
// booleans as false, arrays/tuples/structures recurse element-by-element.
// A structure becomes a Go map, so its keys are not kept in declaration
// order: encoding/json writes map keys sorted by name.
func DefaultFromType(t element.Type) interface{} {
	switch v := t.(type) {
	case element.Unit:
		return map[string]interface{}{}
	case element.Boolean:
		return false
	case element.IntegerUnsigned, element.IntegerSigned, element.Field:
		return "0"
	case element.Enumeration:
		return "0"
	case element.String:
		return ""
	case element.Array:
		elems := make([]interface{}, v.Length)
		for i := range elems {
			elems[i] = DefaultFromType(v.Inner)
		}
		return elems
	case element.Tuple:
		elems := make([]interface{}, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = DefaultFromType(e)
		}
		return elems
	case element.Structure:
		out := make(map[string]interface{}, len(v.Fields))
		for _, f := range v.Fields {
			out[f.Name] = DefaultFromType(f.Type)
		}
		return out
	default:
		return nil
	}
}

// RenderTemplate renders t's default value as two-space-indented JSON with
// a trailing newline (`json + "\n"`), the same layout as
// input_template_bytes/output_template_bytes; structure keys come out
// sorted by name (see DefaultFromType).
func RenderTemplate(t element.Type) ([]byte, error) {
	v := DefaultFromType(t)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("value: render template: %w", err)
	}
	return buf.Bytes(), nil
}
