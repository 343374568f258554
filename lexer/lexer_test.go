package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBasicTokens(t *testing.T) {
	input := `let mut x: u8 = 5;
x += 1;
`
	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{LET, "let"},
		{MUT, "mut"},
		{IDENT, "x"},
		{COLON, ":"},
		{IDENT, "u8"},
		{ASSIGN, "="},
		{INT, "5"},
		{SEMICOLON, ";"},
		{IDENT, "x"},
		{PLUS, "+"},
		{ASSIGN, "="},
		{INT, "1"},
		{SEMICOLON, ";"},
		{EOF, ""},
	}

	l := New("test.zn", input)
	for i, tt := range tests {
		tok := l.NextToken()
		require.Equalf(t, tt.expectedType, tok.Type, "tests[%d] - tokentype wrong (literal=%q)", i, tok.Literal)
		require.Equalf(t, tt.expectedLiteral, tok.Literal, "tests[%d] - literal wrong", i)
	}
}

func TestMultiCharSymbols(t *testing.T) {
	input := `-> => == != <= >= && || ^^ :: .. ..= << >>`
	expected := []TokenType{
		ARROW, FATARROW, EQ, NE, LE, GE, ANDAND, OROR, XORXOR,
		DOUBLECOLON, DOTDOT, DOTDOTEQ, SHL, SHR, EOF,
	}
	l := New("test.zn", input)
	for i, want := range expected {
		tok := l.NextToken()
		require.Equalf(t, want, tok.Type, "tests[%d]", i)
	}
}

func TestIntegerLiterals(t *testing.T) {
	input := `42 0x2a 1_000_000`
	l := New("test.zn", input)
	for _, want := range []string{"42", "0x2a", "1_000_000"} {
		tok := l.NextToken()
		require.Equal(t, INT, tok.Type)
		require.Equal(t, want, tok.Literal)
	}
}

func TestStringLiteral(t *testing.T) {
	l := New("test.zn", `"hello, world"`)
	tok := l.NextToken()
	require.Equal(t, STRING, tok.Type)
	require.Equal(t, "hello, world", tok.Literal)
}

func TestUnterminatedString(t *testing.T) {
	l := New("test.zn", `"hello`)
	tok := l.NextToken()
	require.Equal(t, ILLEGAL, tok.Type)
	require.NotNil(t, tok.Err)
	require.Equal(t, "UnterminatedString", tok.Err.Variant)
}

func TestUnterminatedBlockComment(t *testing.T) {
	l := New("test.zn", `/* never closed`)
	tok := l.NextToken()
	require.Equal(t, ILLEGAL, tok.Type)
	require.NotNil(t, tok.Err)
	require.Equal(t, "UnterminatedBlockComment", tok.Err.Variant)
}

func TestLineCommentSkipped(t *testing.T) {
	l := New("test.zn", "let x = 1; // trailing comment\nlet y = 2;")
	var kinds []TokenType
	for {
		tok := l.NextToken()
		kinds = append(kinds, tok.Type)
		if tok.Type == EOF {
			break
		}
	}
	require.NotContains(t, kinds, ILLEGAL)
}

func TestLocationTracksLineAndColumn(t *testing.T) {
	l := New("test.zn", "let x = 1;\nlet y = 2;")
	var last Token
	for {
		tok := l.NextToken()
		if tok.Literal == "y" {
			last = tok
			break
		}
	}
	require.Equal(t, 2, last.Loc.Line)
}

func TestLookupIdent(t *testing.T) {
	require.Equal(t, FN, LookupIdent("fn"))
	require.Equal(t, IDENT, LookupIdent("myFunc"))
}

func TestTokenize(t *testing.T) {
	toks := Tokenize("test.zn", "let x = 1;")
	require.NotEmpty(t, toks)
	require.Equal(t, EOF, toks[len(toks)-1].Type)
}
