package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeassociates/zincc/ast"
	"github.com/codeassociates/zincc/lexer"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	l := lexer.New("test.zn", src)
	p := New("test.zn", l)
	program := p.ParseProgram()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	require.NotNil(t, program)
	return program
}

func TestParseLetStatement(t *testing.T) {
	program := parseProgram(t, `let mut x: u8 = 5;`)
	require.Len(t, program.Statements, 1)
	stmt, ok := program.Statements[0].(*ast.LetStatement)
	require.True(t, ok)
	require.True(t, stmt.Mut)
	require.Equal(t, "x", stmt.Name.Name)
	typ, ok := stmt.Type.(*ast.TypeIntegerUnsigned)
	require.True(t, ok)
	require.Equal(t, 8, typ.Bitlength)
	require.Len(t, stmt.Value, 1)
	lit, ok := stmt.Value[0].Operand.(*ast.OperandLiteralInteger)
	require.True(t, ok)
	require.Equal(t, "5", lit.Value)
}

func TestParseConstStatement(t *testing.T) {
	program := parseProgram(t, `const MAX: u32 = 100;`)
	stmt, ok := program.Statements[0].(*ast.ConstStatement)
	require.True(t, ok)
	require.Equal(t, "MAX", stmt.Name.Name)
	_, ok = stmt.Type.(*ast.TypeIntegerUnsigned)
	require.True(t, ok)
}

func TestParseFnStatement(t *testing.T) {
	program := parseProgram(t, `
pub fn add(a: u8, b: u8) -> u8 {
    a + b
}
`)
	require.Len(t, program.Statements, 1)
	fn, ok := program.Statements[0].(*ast.FnStatement)
	require.True(t, ok)
	require.True(t, fn.IsPublic)
	require.Equal(t, "add", fn.Name.Name)
	require.Len(t, fn.Params, 2)
	require.Equal(t, "a", fn.Params[0].Name)
	require.Equal(t, "b", fn.Params[1].Name)
	require.NotNil(t, fn.ReturnType)
	require.NotNil(t, fn.Body.Tail)
}

func TestParseStructStatement(t *testing.T) {
	program := parseProgram(t, `
struct Point {
    x: u8,
    y: u8,
}
`)
	s, ok := program.Statements[0].(*ast.StructStatement)
	require.True(t, ok)
	require.Equal(t, "Point", s.Name.Name)
	require.Len(t, s.Fields, 2)
	require.Equal(t, "x", s.Fields[0].Name)
	require.Equal(t, "y", s.Fields[1].Name)
}

func TestParseEnumStatement(t *testing.T) {
	program := parseProgram(t, `
enum Suit {
    Hearts = 0,
    Spades,
    Clubs,
}
`)
	e, ok := program.Statements[0].(*ast.EnumStatement)
	require.True(t, ok)
	require.Equal(t, "Suit", e.Name.Name)
	require.Len(t, e.Variants, 3)
	require.Equal(t, "Hearts", e.Variants[0].Name)
	require.NotNil(t, e.Variants[0].Value)
	require.Equal(t, "Spades", e.Variants[1].Name)
	require.Nil(t, e.Variants[1].Value)
}

func TestParseWhileStatement(t *testing.T) {
	program := parseProgram(t, `
while x < 10 {
    x = x + 1;
}
`)
	s, ok := program.Statements[0].(*ast.WhileStatement)
	require.True(t, ok)
	require.NotEmpty(t, s.Condition)
	require.Len(t, s.Body.Statements, 1)
}

func TestParseForStatement(t *testing.T) {
	program := parseProgram(t, `
for i in 0..10 {
    x = i;
}
`)
	s, ok := program.Statements[0].(*ast.ForStatement)
	require.True(t, ok)
	require.Equal(t, "i", s.Name.Name)

	var rangeOp *ast.Operator
	for _, el := range s.Iterable {
		if el.Operator != nil {
			rangeOp = el.Operator
		}
	}
	require.NotNil(t, rangeOp)
	require.Equal(t, ast.OpRange, rangeOp.Kind)
}

func TestParseAssignStatement(t *testing.T) {
	program := parseProgram(t, `x = 5;`)
	s, ok := program.Statements[0].(*ast.AssignStatement)
	require.True(t, ok)
	require.Len(t, s.Place, 1)
	_, ok = s.Place[0].Operand.(*ast.OperandIdentifier)
	require.True(t, ok)
}

func TestBinaryPrecedence(t *testing.T) {
	program := parseProgram(t, `let x = 1 + 2 * 3;`)
	stmt := program.Statements[0].(*ast.LetStatement)

	// Postfix form for `1 + (2 * 3)` is: 1 2 3 * +
	require.Len(t, stmt.Value, 5)
	require.Equal(t, "1", stmt.Value[0].Operand.(*ast.OperandLiteralInteger).Value)
	require.Equal(t, "2", stmt.Value[1].Operand.(*ast.OperandLiteralInteger).Value)
	require.Equal(t, "3", stmt.Value[2].Operand.(*ast.OperandLiteralInteger).Value)
	require.Equal(t, ast.OpMul, stmt.Value[3].Operator.Kind)
	require.Equal(t, ast.OpAdd, stmt.Value[4].Operator.Kind)
}

func TestParenthesesOverridePrecedence(t *testing.T) {
	program := parseProgram(t, `let x = (1 + 2) * 3;`)
	stmt := program.Statements[0].(*ast.LetStatement)

	// Postfix form for `(1 + 2) * 3` is: 1 2 + 3 *
	require.Len(t, stmt.Value, 5)
	require.Equal(t, ast.OpAdd, stmt.Value[2].Operator.Kind)
	require.Equal(t, ast.OpMul, stmt.Value[4].Operator.Kind)
}

func TestParseCallExpression(t *testing.T) {
	program := parseProgram(t, `let x = add(1, 2);`)
	stmt := program.Statements[0].(*ast.LetStatement)

	last := stmt.Value[len(stmt.Value)-1]
	require.NotNil(t, last.Operator)
	require.Equal(t, ast.OpCall, last.Operator.Kind)
	require.Equal(t, 2, last.Operator.ArgN)
}

func TestParseIndexExpression(t *testing.T) {
	program := parseProgram(t, `let x = arr[0];`)
	stmt := program.Statements[0].(*ast.LetStatement)

	last := stmt.Value[len(stmt.Value)-1]
	require.Equal(t, ast.OpIndex, last.Operator.Kind)
}

func TestParseFieldExpression(t *testing.T) {
	program := parseProgram(t, `let x = point.x;`)
	stmt := program.Statements[0].(*ast.LetStatement)

	last := stmt.Value[len(stmt.Value)-1]
	require.Equal(t, ast.OpDot, last.Operator.Kind)
	require.Equal(t, "x", last.Operator.Field)
}

func TestParseCastExpression(t *testing.T) {
	program := parseProgram(t, `let x = y as u64;`)
	stmt := program.Statements[0].(*ast.LetStatement)

	last := stmt.Value[len(stmt.Value)-1]
	require.Equal(t, ast.OpCasting, last.Operator.Kind)
	_, ok := last.Operator.Type.(*ast.TypeIntegerUnsigned)
	require.True(t, ok)
}

func TestParseEnumVariantPath(t *testing.T) {
	program := parseProgram(t, `let x = Suit::Hearts;`)
	stmt := program.Statements[0].(*ast.LetStatement)

	last := stmt.Value[len(stmt.Value)-1]
	require.Equal(t, ast.OpDot, last.Operator.Kind)
	require.Equal(t, "Hearts", last.Operator.Field)
}

func TestParseStructureLiteral(t *testing.T) {
	program := parseProgram(t, `let p = Point { x: 1, y: 2 };`)
	stmt := program.Statements[0].(*ast.LetStatement)

	require.Len(t, stmt.Value, 1)
	lit, ok := stmt.Value[0].Operand.(*ast.OperandStructure)
	require.True(t, ok)
	require.Equal(t, []string{"Point"}, lit.Path)
	require.Len(t, lit.Fields, 2)
	require.Equal(t, "x", lit.Fields[0].Name)
	require.Equal(t, "y", lit.Fields[1].Name)
}

func TestParseConditionalExpression(t *testing.T) {
	program := parseProgram(t, `
let x = if a < b {
    a
} else {
    b
};
`)
	stmt := program.Statements[0].(*ast.LetStatement)
	require.Len(t, stmt.Value, 1)
	cond, ok := stmt.Value[0].Operand.(*ast.OperandConditional)
	require.True(t, ok)
	require.NotEmpty(t, cond.Condition)
	require.NotNil(t, cond.ThenBlock)
	require.NotNil(t, cond.ElseBlock)
}

func TestParseMatchExpression(t *testing.T) {
	program := parseProgram(t, `
let x = match v {
    0 => 1,
    _ => 2,
};
`)
	stmt := program.Statements[0].(*ast.LetStatement)
	m, ok := stmt.Value[0].Operand.(*ast.OperandMatch)
	require.True(t, ok)
	require.Len(t, m.Arms, 2)
}

func TestParseArrayLiteralAndRepeat(t *testing.T) {
	program := parseProgram(t, `let a = [1, 2, 3];`)
	stmt := program.Statements[0].(*ast.LetStatement)
	list, ok := stmt.Value[0].Operand.(*ast.OperandList)
	require.True(t, ok)
	require.Len(t, list.Elements, 3)

	program2 := parseProgram(t, `let a = [0; 5];`)
	stmt2 := program2.Statements[0].(*ast.LetStatement)
	last := stmt2.Value[len(stmt2.Value)-1]
	require.Equal(t, ast.OpArrayRepeat, last.Operator.Kind)
}

func TestParseArrayType(t *testing.T) {
	program := parseProgram(t, `let a: [u8; 4] = [0; 4];`)
	stmt := program.Statements[0].(*ast.LetStatement)
	arr, ok := stmt.Type.(*ast.TypeArray)
	require.True(t, ok)
	_, ok = arr.Elem.(*ast.TypeIntegerUnsigned)
	require.True(t, ok)
	require.NotEmpty(t, arr.Size)
}

func TestParseContractStatement(t *testing.T) {
	program := parseProgram(t, `
contract Wallet {
    static mut balance: u64 = 0;

    pub fn deposit(amount: u64) {
        balance = balance + amount;
    }
}
`)
	c, ok := program.Statements[0].(*ast.ContractStatement)
	require.True(t, ok)
	require.Equal(t, "Wallet", c.Name.Name)
	require.Len(t, c.Storage, 1)
	require.Equal(t, "balance", c.Storage[0].Name.Name)
	require.Len(t, c.Methods, 1)
	require.True(t, c.Methods[0].IsPublic)
}

func TestParseUnaryOperators(t *testing.T) {
	program := parseProgram(t, `let x = !flag;`)
	stmt := program.Statements[0].(*ast.LetStatement)
	last := stmt.Value[len(stmt.Value)-1]
	require.Equal(t, ast.OpNot, last.Operator.Kind)

	program2 := parseProgram(t, `let y = -5;`)
	stmt2 := program2.Statements[0].(*ast.LetStatement)
	last2 := stmt2.Value[len(stmt2.Value)-1]
	require.Equal(t, ast.OpNeg, last2.Operator.Kind)
}

func TestParseErrorOnMissingToken(t *testing.T) {
	l := lexer.New("test.zn", `let x u8 = 5;`)
	p := New("test.zn", l)
	p.ParseProgram()
	require.NotEmpty(t, p.Errors())
	require.Equal(t, "UnexpectedToken", p.Errors()[0].Variant)
}
