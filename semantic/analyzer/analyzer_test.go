package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeassociates/zincc/ast"
	"github.com/codeassociates/zincc/bytecode"
	"github.com/codeassociates/zincc/instruction"
	"github.com/codeassociates/zincc/lexer"
	"github.com/codeassociates/zincc/parser"
)

func parseOK(t *testing.T, src string) *ast.Program {
	t.Helper()
	l := lexer.New("test.zn", src)
	p := parser.New("test.zn", l)
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	return prog
}

func analyze(t *testing.T, src string) (*Analyzer, []int) {
	t.Helper()
	prog := parseOK(t, src)
	bc := bytecode.New()
	a := New("test.zn", bc)
	entries := a.AnalyzeProgram(prog)
	return a, entries
}

func TestAnalyzeSimpleAddFunction(t *testing.T) {
	a, entries := analyze(t, `
pub fn add(a: u8, b: u8) -> u8 {
    a + b
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)
}

func TestAnalyzeLetAndAssign(t *testing.T) {
	a, entries := analyze(t, `
pub fn run() -> u8 {
    let mut x: u8 = 1;
    x = x + 1;
    x
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)
}

func TestAnalyzeNonPublicFunctionYieldsNoEntry(t *testing.T) {
	a, entries := analyze(t, `
fn helper(a: u8) -> u8 {
    a
}
`)
	require.Empty(t, a.Errors())
	require.Empty(t, entries)
}

func TestAnalyzeStructFieldAccess(t *testing.T) {
	a, entries := analyze(t, `
struct Point {
    x: u8,
    y: u8,
}

pub fn get_x(p: Point) -> u8 {
    p.x
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)
}

func TestAnalyzeEnumVariantAccess(t *testing.T) {
	a, entries := analyze(t, `
enum Suit {
    Hearts = 0,
    Spades,
}

pub fn get() -> u8 {
    Suit::Hearts as u8
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)
}

func TestAnalyzeConstAndArray(t *testing.T) {
	a, entries := analyze(t, `
const SIZE: u8 = 3;

pub fn sum(xs: [u8; 3]) -> u8 {
    xs[0] + xs[1]
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)
}

func TestAnalyzeWhileLoop(t *testing.T) {
	a, entries := analyze(t, `
pub fn run() -> u8 {
    let mut x: u8 = 0;
    while x < 10 {
        x = x + 1;
    }
    x
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)
}

func TestAnalyzeForLoop(t *testing.T) {
	a, entries := analyze(t, `
pub fn run() -> u64 {
    let mut sum: u64 = 0;
    for i in 0..10 {
        sum = sum + (i as u64);
    }
    sum
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)
}

func TestAnalyzeCallBetweenFunctions(t *testing.T) {
	a, entries := analyze(t, `
fn helper(a: u8) -> u8 {
    a + 1
}

pub fn run() -> u8 {
    helper(5)
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)
}

func TestAnalyzeConditionalExpression(t *testing.T) {
	a, entries := analyze(t, `
pub fn run(flag: bool) -> u8 {
    if flag { 1 } else { 2 }
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)
}

func TestAnalyzeLetTypeMismatchErrors(t *testing.T) {
	a, _ := analyze(t, `
pub fn run() -> bool {
    let x: u8 = true;
    x == 0
}
`)
	require.NotEmpty(t, a.Errors())
	require.Contains(t, a.Errors()[0].Error(), "LetDeclarationTypeMismatch")
}

func TestAnalyzeAdditionOnBooleanOperandErrors(t *testing.T) {
	a, _ := analyze(t, `
pub fn bad(a: bool) -> bool {
    a + a
}
`)
	require.NotEmpty(t, a.Errors())
	require.Contains(t, a.Errors()[0].Error(), "Value::OperatorAdditionFirstOperandExpectedInteger")
}

func TestAnalyzeUndeclaredIdentifierErrors(t *testing.T) {
	a, _ := analyze(t, `
pub fn bad() -> u8 {
    missing_name
}
`)
	require.NotEmpty(t, a.Errors())
	require.Contains(t, a.Errors()[0].Error(), "ItemUndeclared")
}

func TestAnalyzeUnknownStructureFieldErrors(t *testing.T) {
	a, _ := analyze(t, `
struct Point {
    x: u8,
}

pub fn bad(p: Point) -> u8 {
    p.y
}
`)
	require.NotEmpty(t, a.Errors())
	require.Contains(t, a.Errors()[0].Error(), "Value::StructureFieldDoesNotExist")
}

func TestAnalyzeAssignReusesVariableAddress(t *testing.T) {
	a, entries := analyze(t, `
pub fn run() -> u8 {
    let mut x: u8 = 1;
    x = 2;
    x
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)

	var storeAddrs []int
	for _, instr := range a.gen.BC.IntoInstructions() {
		if instr.Op == instruction.OpStore {
			storeAddrs = append(storeAddrs, instr.Address)
		}
	}
	require.Equal(t, []int{0, 0}, storeAddrs, "the let and the assignment should store to the same address")
}

func TestAnalyzeContractStorageAndMethods(t *testing.T) {
	a, _ := analyze(t, `
contract Wallet {
    static mut balance: u64 = 0;

    pub fn get_balance() -> u64 {
        balance
    }
}
`)
	require.Empty(t, a.Errors())
}

func TestAnalyzeShiftOperatorsCompileToRealOpcodes(t *testing.T) {
	a, entries := analyze(t, `
pub fn run(a: u8, b: u8) -> u8 {
    a << b
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)

	foundShl := false
	for _, instr := range a.gen.BC.IntoInstructions() {
		if instr.Op == instruction.OpShl {
			foundShl = true
		}
	}
	require.True(t, foundShl, "`<<` should emit Shl")
}

func TestAnalyzeArrayLiteralDoesNotPanicAndEmitsElements(t *testing.T) {
	a, entries := analyze(t, `
pub fn run() -> [u8; 4] {
    let a = [1, 2, 3, 4];
    a
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)

	pushes := 0
	for _, instr := range a.gen.BC.IntoInstructions() {
		if instr.Op == instruction.OpPush {
			pushes++
		}
	}
	require.Equal(t, 4, pushes, "each of the four elements should be pushed once")
}

func TestAnalyzeTupleLiteral(t *testing.T) {
	a, entries := analyze(t, `
pub fn run() -> (u8, bool) {
    (1, true)
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)
}

func TestAnalyzeArrayElementTypeMismatchErrors(t *testing.T) {
	a, _ := analyze(t, `
pub fn run() -> [u8; 2] {
    [1, true]
}
`)
	require.NotEmpty(t, a.Errors())
	require.Contains(t, a.Errors()[0].Error(), "ArrayElementTypesMismatch")
}

func TestAnalyzeMatchBranches(t *testing.T) {
	a, entries := analyze(t, `
pub fn run(x: u8) -> u8 {
    match x {
        1 => 10,
        2 => 20,
        _ => 0,
    }
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)

	foundIf, foundEq := false, false
	for _, instr := range a.gen.BC.IntoInstructions() {
		switch instr.Op {
		case instruction.OpIf:
			foundIf = true
		case instruction.OpEq:
			foundEq = true
		}
	}
	require.True(t, foundIf, "match should emit at least one If")
	require.True(t, foundEq, "match should emit at least one Eq comparison")
}

func TestAnalyzeMatchBranchTypesMismatchErrors(t *testing.T) {
	a, _ := analyze(t, `
pub fn run(x: u8) -> u8 {
    match x {
        1 => true,
        _ => 0,
    }
}
`)
	require.NotEmpty(t, a.Errors())
	require.Contains(t, a.Errors()[0].Error(), "MatchBranchTypesMismatch")
}

func TestAnalyzeForwardFunctionCallPatchesRealAddress(t *testing.T) {
	a, entries := analyze(t, `
pub fn run() -> u8 {
    helper(1)
}

fn helper(a: u8) -> u8 {
    a
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)

	var call instruction.Instruction
	found := false
	for _, instr := range a.gen.BC.IntoInstructions() {
		if instr.Op == instruction.OpCall {
			call = instr
			found = true
		}
	}
	require.True(t, found, "expected a Call instruction")
	require.NotEqual(t, 0, call.CallAddress)
}

func TestAnalyzeContractStorageEmitsStorageOpcodes(t *testing.T) {
	a, _ := analyze(t, `
contract Wallet {
    static mut balance: u64 = 0;

    pub fn get_balance() -> u64 {
        balance
    }

    pub fn set_balance(v: u64) {
        balance = v;
    }
}
`)
	require.Empty(t, a.Errors())

	loads, stores := 0, 0
	for _, instr := range a.gen.BC.IntoInstructions() {
		switch instr.Op {
		case instruction.OpStorageLoad:
			loads++
		case instruction.OpStorageStore:
			stores++
		}
	}
	require.Equal(t, 1, loads)
	require.Equal(t, 1, stores)
}

func TestAnalyzeMultiCellLetEmitsStoreSequence(t *testing.T) {
	a, entries := analyze(t, `
pub fn run() -> [u8; 4] {
    let mut a = [1, 2, 3, 4];
    a
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)

	found := false
	for _, instr := range a.gen.BC.IntoInstructions() {
		if instr.Op == instruction.OpStoreSequence {
			found = true
		}
	}
	require.True(t, found, "storing a 4-cell array should emit StoreSequence")
}

func TestAnalyzeFunctionEmitsReturn(t *testing.T) {
	a, entries := analyze(t, `
pub fn run() -> u8 {
    1
}
`)
	require.Empty(t, a.Errors())
	require.Len(t, entries, 1)

	found := false
	for _, instr := range a.gen.BC.IntoInstructions() {
		if instr.Op == instruction.OpReturn {
			found = true
		}
	}
	require.True(t, found)
}

func TestAnalyzeRangeFirstOperandExpectedIntegerScenario(t *testing.T) {
	a, _ := analyze(t, `
pub fn main() -> u8 {
    let value = true..42;
    0
}
`)
	require.NotEmpty(t, a.Errors())
	scenario := a.Errors()[0].Scenario()
	require.Contains(t, scenario, "Constant::OperatorRangeFirstOperandExpectedInteger{found:\"true\"}")
	require.True(t, strings.HasPrefix(scenario, "Semantic::Element("))
}

func TestAnalyzeEqualsSecondOperandExpectedIntegerScenario(t *testing.T) {
	a, _ := analyze(t, `
pub fn main() -> bool {
    42 == true
}
`)
	require.NotEmpty(t, a.Errors())
	require.Contains(t, a.Errors()[0].Error(), `Constant::OperatorEqualsSecondOperandExpectedInteger`)
	require.Contains(t, a.Errors()[0].Error(), `found:"true"`)
}

func TestAnalyzeEqualsFirstOperandExpectedPrimitiveTypeScenario(t *testing.T) {
	a, _ := analyze(t, `
pub fn main() -> bool {
    "string" == 42
}
`)
	require.NotEmpty(t, a.Errors())
	require.Contains(t, a.Errors()[0].Error(), `Constant::OperatorEqualsFirstOperandExpectedPrimitiveType`)
	require.Contains(t, a.Errors()[0].Error(), `found:"\"string\""`)
}

func TestAnalyzeConditionalBareLiteralDefaultsToU8(t *testing.T) {
	a, _ := analyze(t, `
pub fn main() -> u8 {
    if 42 { 1 } else { 2 }
}
`)
	require.NotEmpty(t, a.Errors())
	require.Contains(t, a.Errors()[0].Error(), "found u8")
}
