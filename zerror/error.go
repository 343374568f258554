// Package zerror defines the single error sum type shared by every compiler
// stage: lexical, syntax, semantic, and generator errors all carry one
// source Location and a structured, stage-qualified variant name.
package zerror

import "fmt"

// Location pinpoints a single lexeme in a source file. Within a file, Line
// and Column are monotonically non-decreasing as the lexer advances.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Stage identifies which pipeline phase raised the error.
type Stage string

const (
	StageLexical             Stage = "Lexical"
	StageSyntax              Stage = "Syntax"
	StageSemanticElement     Stage = "Semantic::Element"
	StageSemanticScope       Stage = "Semantic::Scope"
	StageSemanticType        Stage = "Semantic::Type"
	StageSemanticConditional Stage = "Semantic::Conditional"
	StageSemanticMatch       Stage = "Semantic::Match"
	StageGenerator           Stage = "Generator"
)

// Error is the compiler's single error type. Variant names the specific
// failure (e.g. "UnterminatedString", "OperatorRangeFirstOperandExpectedInteger",
// "ReferenceLoop"); Detail carries the human-readable payload (`found:"true"`).
// The parser and the analyzer do not stop at the first Error: each collects
// every Error it hits and keeps going, and main stops compiling the file after
// the first stage that reported any.
type Error struct {
	Loc     Location
	Stage   Stage
	Variant string
	Detail  string
}

func New(loc Location, stage Stage, variant, detail string) *Error {
	return &Error{Loc: loc, Stage: stage, Variant: variant, Detail: detail}
}

// Error implements the error interface as the single-line diagnostic format
// the CLI prints: "<file>:<line>:<col>: <message>".
func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s: %s", e.Loc, e.Stage, e.Variant)
	}
	return fmt.Sprintf("%s: %s: %s (%s)", e.Loc, e.Stage, e.Variant, e.Detail)
}

// Scenario renders the Rust-source-style repr used by the test scenarios in
// the design notes, e.g. "Semantic::Element(3:22, Constant::OperatorRangeFirstOperandExpectedInteger{found:\"true\"})".
func (e *Error) Scenario() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s(%d:%d, %s)", e.Stage, e.Loc.Line, e.Loc.Column, e.Variant)
	}
	return fmt.Sprintf("%s(%d:%d, %s{%s})", e.Stage, e.Loc.Line, e.Loc.Column, e.Variant, e.Detail)
}

// OrdinalWord renders 1 => "First", 2 => "Second", matching the original
// zinc-compiler's per-operand error naming (§4.4 of the design notes).
func OrdinalWord(n int) string {
	switch n {
	case 1:
		return "First"
	case 2:
		return "Second"
	default:
		return fmt.Sprintf("Operand%d", n)
	}
}
