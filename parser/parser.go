// Package parser implements a recursive-descent parser with Pratt-style
// expression parsing over a double-buffered curToken/peekToken scanner,
// emitting ast.Expression as a flattened postfix operand/operator list and
// zerror.Error diagnostics instead of plain strings.
package parser

import (
	"strconv"
	"strings"

	"github.com/codeassociates/zincc/ast"
	"github.com/codeassociates/zincc/lexer"
	"github.com/codeassociates/zincc/zerror"
)

// Operator precedence levels, lowest to highest.
const (
	_ int = iota
	LOWEST
	RANGE_PREC
	OR_PREC
	AND_PREC
	XOR_PREC
	EQUALS
	LESSGREATER
	BITOR_PREC
	BITXOR_PREC
	BITAND_PREC
	SHIFT_PREC
	SUM
	PRODUCT
	CASTING
	PREFIX
	CALL_PREC
	INDEX
)

var precedences = map[lexer.TokenType]int{
	lexer.DOTDOT:      RANGE_PREC,
	lexer.DOTDOTEQ:    RANGE_PREC,
	lexer.OROR:        OR_PREC,
	lexer.ANDAND:      AND_PREC,
	lexer.XORXOR:      XOR_PREC,
	lexer.EQ:          EQUALS,
	lexer.NE:          EQUALS,
	lexer.LT:          LESSGREATER,
	lexer.GT:          LESSGREATER,
	lexer.LE:          LESSGREATER,
	lexer.GE:          LESSGREATER,
	lexer.PIPE:        BITOR_PREC,
	lexer.CARET:       BITXOR_PREC,
	lexer.AMP:         BITAND_PREC,
	lexer.SHL:         SHIFT_PREC,
	lexer.SHR:         SHIFT_PREC,
	lexer.PLUS:        SUM,
	lexer.MINUS:       SUM,
	lexer.STAR:        PRODUCT,
	lexer.SLASH:       PRODUCT,
	lexer.PERCENT:     PRODUCT,
	lexer.AS:          CASTING,
	lexer.LPAREN:      CALL_PREC,
	lexer.LBRACKET:    INDEX,
	lexer.DOT:         INDEX,
	lexer.DOUBLECOLON: INDEX,
}

var binaryOpKind = map[lexer.TokenType]ast.OperatorKind{
	lexer.OROR:     ast.OpOr,
	lexer.ANDAND:   ast.OpAnd,
	lexer.XORXOR:   ast.OpXor,
	lexer.EQ:       ast.OpEq,
	lexer.NE:       ast.OpNe,
	lexer.LT:       ast.OpLt,
	lexer.GT:       ast.OpGt,
	lexer.LE:       ast.OpLe,
	lexer.GE:       ast.OpGe,
	lexer.PIPE:     ast.OpBitOr,
	lexer.CARET:    ast.OpBitXor,
	lexer.AMP:      ast.OpBitAnd,
	lexer.SHL:      ast.OpBitShl,
	lexer.SHR:      ast.OpBitShr,
	lexer.PLUS:     ast.OpAdd,
	lexer.MINUS:    ast.OpSub,
	lexer.STAR:     ast.OpMul,
	lexer.SLASH:    ast.OpDiv,
	lexer.PERCENT:  ast.OpRem,
	lexer.DOTDOT:   ast.OpRange,
	lexer.DOTDOTEQ: ast.OpRangeInclusive,
}

// Parser holds a double-buffered curToken/peekToken scanner and accumulates
// *zerror.Error values as it parses.
type Parser struct {
	l      *lexer.Lexer
	file   string
	errors []*zerror.Error

	curToken  lexer.Token
	peekToken lexer.Token
}

func New(file string, l *lexer.Lexer) *Parser {
	p := &Parser{l: l, file: file}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) Errors() []*zerror.Error { return p.errors }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	if p.peekToken.Type == lexer.ILLEGAL && p.peekToken.Err != nil {
		p.errors = append(p.errors, p.peekToken.Err)
	}
}

func (p *Parser) addError(variant, detail string) {
	p.errors = append(p.errors, zerror.New(p.loc(), zerror.StageSyntax, variant, detail))
}

func (p *Parser) loc() zerror.Location {
	return zerror.Location{File: p.file, Line: p.curToken.Loc.Line, Column: p.curToken.Loc.Column}
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError("UnexpectedToken", "expected "+t.String()+", got "+p.peekToken.Type.String())
	return false
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

// ParseProgram parses every top-level statement until EOF.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	for !p.curTokenIs(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}
	return program
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case lexer.LET:
		return p.parseLetStatement()
	case lexer.CONST:
		return p.parseConstStatement()
	case lexer.STATIC:
		return p.parseStaticStatement()
	case lexer.FN:
		return p.parseFnStatement(false)
	case lexer.PUB:
		return p.parsePubStatement()
	case lexer.STRUCT:
		return p.parseStructStatement()
	case lexer.ENUM:
		return p.parseEnumStatement()
	case lexer.IMPL:
		return p.parseImplStatement()
	case lexer.CONTRACT:
		return p.parseContractStatement()
	case lexer.TYPE:
		return p.parseTypeStatement()
	case lexer.WHILE:
		return p.parseWhileStatement()
	case lexer.FOR:
		return p.parseForStatement()
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.SEMICOLON:
		return nil
	default:
		return p.parseExpressionOrAssignStatement()
	}
}

func (p *Parser) parsePubStatement() ast.Statement {
	p.nextToken()
	if p.curTokenIs(lexer.FN) {
		fn := p.parseFnStatement(true)
		return fn
	}
	p.addError("UnexpectedToken", "expected fn after pub")
	return nil
}

func (p *Parser) parseLetStatement() ast.Statement {
	tok := p.curToken
	mut := false
	if p.peekTokenIs(lexer.MUT) {
		p.nextToken()
		mut = true
	}
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := &ast.Identifier{Tok: p.curToken, Name: p.curToken.Literal}

	var typ ast.TypeVariant
	if p.peekTokenIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		typ = p.parseTypeVariant()
	}

	if !p.expectPeek(lexer.ASSIGN) {
		return nil
	}
	p.nextToken()
	value := p.parseExpression(LOWEST)
	p.skipSemicolon()
	return &ast.LetStatement{Tok: tok, Mut: mut, Name: name, Type: typ, Value: value}
}

func (p *Parser) parseConstStatement() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := &ast.Identifier{Tok: p.curToken, Name: p.curToken.Literal}
	if !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()
	typ := p.parseTypeVariant()
	if !p.expectPeek(lexer.ASSIGN) {
		return nil
	}
	p.nextToken()
	value := p.parseExpression(LOWEST)
	p.skipSemicolon()
	return &ast.ConstStatement{Tok: tok, Name: name, Type: typ, Value: value}
}

func (p *Parser) parseStaticStatement() ast.Statement {
	tok := p.curToken
	mtreemap := false
	if p.peekTokenIs(lexer.MTREEMAP) {
		p.nextToken()
		mtreemap = true
	}
	mut := false
	if p.peekTokenIs(lexer.MUT) {
		p.nextToken()
		mut = true
	}
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := &ast.Identifier{Tok: p.curToken, Name: p.curToken.Literal}
	if !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()
	typ := p.parseTypeVariant()
	if !p.expectPeek(lexer.ASSIGN) {
		return nil
	}
	p.nextToken()
	value := p.parseExpression(LOWEST)
	p.skipSemicolon()
	return &ast.StaticStatement{Tok: tok, Mut: mut, Name: name, Type: typ, Value: value, IsMTreeMap: mtreemap}
}

func (p *Parser) parseFnStatement(public bool) ast.Statement {
	tok := p.curToken
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := &ast.Identifier{Tok: p.curToken, Name: p.curToken.Literal}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	params := p.parseFnParams()

	var ret ast.TypeVariant
	if p.peekTokenIs(lexer.ARROW) {
		p.nextToken()
		p.nextToken()
		ret = p.parseTypeVariant()
	}

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	return &ast.FnStatement{Tok: tok, Name: name, Params: params, ReturnType: ret, Body: body, IsPublic: public}
}

func (p *Parser) parseFnParams() []ast.FnParam {
	var params []ast.FnParam
	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return params
	}
	p.nextToken()
	params = append(params, p.parseFnParam())
	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		p.nextToken()
		params = append(params, p.parseFnParam())
	}
	if !p.expectPeek(lexer.RPAREN) {
		return params
	}
	return params
}

func (p *Parser) parseFnParam() ast.FnParam {
	// `ref` and `mut` before a param name do not change its static type.
	if p.curTokenIs(lexer.REF) || p.curTokenIs(lexer.MUT) {
		p.nextToken()
	}
	name := p.curToken.Literal
	if !p.expectPeek(lexer.COLON) {
		return ast.FnParam{Name: name}
	}
	p.nextToken()
	typ := p.parseTypeVariant()
	return ast.FnParam{Name: name, Type: typ}
}

func (p *Parser) parseStructStatement() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := &ast.Identifier{Tok: p.curToken, Name: p.curToken.Literal}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	var fields []ast.StructField
	for !p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.EOF) {
		p.nextToken()
		fieldName := p.curToken.Literal
		if !p.expectPeek(lexer.COLON) {
			break
		}
		p.nextToken()
		fieldType := p.parseTypeVariant()
		fields = append(fields, ast.StructField{Name: fieldName, Type: fieldType})
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		}
	}
	p.expectPeek(lexer.RBRACE)
	return &ast.StructStatement{Tok: tok, Name: name, Fields: fields}
}

func (p *Parser) parseEnumStatement() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := &ast.Identifier{Tok: p.curToken, Name: p.curToken.Literal}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	var variants []ast.EnumVariant
	for !p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.EOF) {
		p.nextToken()
		vName := p.curToken.Literal
		var value ast.Expression
		if p.peekTokenIs(lexer.ASSIGN) {
			p.nextToken()
			p.nextToken()
			value = p.parseExpression(LOWEST)
		}
		variants = append(variants, ast.EnumVariant{Name: vName, Value: value})
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		}
	}
	p.expectPeek(lexer.RBRACE)
	return &ast.EnumStatement{Tok: tok, Name: name, Variants: variants}
}

func (p *Parser) parseImplStatement() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := &ast.Identifier{Tok: p.curToken, Name: p.curToken.Literal}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	var items []*ast.FnStatement
	for !p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.EOF) {
		p.nextToken()
		public := false
		if p.curTokenIs(lexer.PUB) {
			public = true
			p.nextToken()
		}
		if p.curTokenIs(lexer.FN) {
			if fn, ok := p.parseFnStatement(public).(*ast.FnStatement); ok {
				items = append(items, fn)
			}
		}
	}
	p.expectPeek(lexer.RBRACE)
	return &ast.ImplStatement{Tok: tok, Name: name, Items: items}
}

func (p *Parser) parseContractStatement() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := &ast.Identifier{Tok: p.curToken, Name: p.curToken.Literal}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	var storage []*ast.StaticStatement
	var methods []*ast.FnStatement
	for !p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.EOF) {
		p.nextToken()
		public := false
		if p.curTokenIs(lexer.PUB) {
			public = true
			p.nextToken()
		}
		switch p.curToken.Type {
		case lexer.STATIC:
			if st, ok := p.parseStaticStatement().(*ast.StaticStatement); ok {
				storage = append(storage, st)
			}
		case lexer.FN:
			if fn, ok := p.parseFnStatement(public).(*ast.FnStatement); ok {
				methods = append(methods, fn)
			}
		}
	}
	p.expectPeek(lexer.RBRACE)
	return &ast.ContractStatement{Tok: tok, Name: name, Storage: storage, Methods: methods}
}

func (p *Parser) parseTypeStatement() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := &ast.Identifier{Tok: p.curToken, Name: p.curToken.Literal}
	if !p.expectPeek(lexer.ASSIGN) {
		return nil
	}
	p.nextToken()
	typ := p.parseTypeVariant()
	p.skipSemicolon()
	return &ast.TypeStatement{Tok: tok, Name: name, Type: typ}
}

func (p *Parser) parseWhileStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	return &ast.WhileStatement{Tok: tok, Condition: cond, Body: body}
}

func (p *Parser) parseForStatement() ast.Statement {
	tok := p.curToken
	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	name := &ast.Identifier{Tok: p.curToken, Name: p.curToken.Literal}
	if !p.expectPeek(lexer.IN) {
		return nil
	}
	p.nextToken()
	iterable := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	return &ast.ForStatement{Tok: tok, Name: name, Iterable: iterable, Body: body}
}

// parseBlock assumes curToken is '{'. The final statement of a block, if it
// is a semicolon-less expression, becomes the block's Tail value.
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Tok: p.curToken}
	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		stmt := p.parseStatement()
		if es, ok := stmt.(*ast.ExpressionStatement); ok && !p.curTokenIs(lexer.SEMICOLON) && p.peekTokenIs(lexer.RBRACE) {
			block.Tail = es.Value
		} else if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}
	return block
}

// parseExpressionOrAssignStatement disambiguates `place = expr;` from a bare
// expression statement by parsing the left-hand side first and checking for
// a following '='.
func (p *Parser) parseExpressionOrAssignStatement() ast.Statement {
	tok := p.curToken
	left := p.parseExpression(LOWEST)
	if p.peekTokenIs(lexer.ASSIGN) {
		p.nextToken()
		p.nextToken()
		value := p.parseExpression(LOWEST)
		p.skipSemicolon()
		return &ast.AssignStatement{Tok: tok, Place: left, Value: value}
	}
	hadSemicolon := p.peekTokenIs(lexer.SEMICOLON)
	p.skipSemicolon()
	if !hadSemicolon && p.peekTokenIs(lexer.RBRACE) {
		// Tail expression of an enclosing block; parseBlock reclassifies it.
	}
	return &ast.ExpressionStatement{Tok: tok, Value: left}
}

func (p *Parser) skipSemicolon() {
	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
	}
}

// ---------------------------------------------------------------------------
// Type parsing
// ---------------------------------------------------------------------------

func (p *Parser) parseTypeVariant() ast.TypeVariant {
	tok := p.curToken
	switch {
	case p.curTokenIs(lexer.AMP):
		p.nextToken()
		inner := p.parseTypeVariant()
		return &ast.TypeReference{Tok: tok, Inner: inner}
	case p.curTokenIs(lexer.LPAREN):
		return p.parseTupleType()
	case p.curTokenIs(lexer.LBRACKET):
		return p.parseArrayType()
	case p.curTokenIs(lexer.IDENT):
		return p.parseNamedOrBuiltinType()
	default:
		p.addError("UnexpectedToken", "expected type, got "+p.curToken.Type.String())
		return nil
	}
}

func (p *Parser) parseTupleType() ast.TypeVariant {
	tok := p.curToken
	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return &ast.TypeTuple{Tok: tok}
	}
	var elems []ast.TypeVariant
	p.nextToken()
	elems = append(elems, p.parseTypeVariant())
	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		p.nextToken()
		elems = append(elems, p.parseTypeVariant())
	}
	p.expectPeek(lexer.RPAREN)
	return &ast.TypeTuple{Tok: tok, Elems: elems}
}

func (p *Parser) parseArrayType() ast.TypeVariant {
	tok := p.curToken
	p.nextToken()
	elem := p.parseTypeVariant()
	if !p.expectPeek(lexer.SEMICOLON) {
		return &ast.TypeArray{Tok: tok, Elem: elem}
	}
	p.nextToken()
	size := p.parseExpression(LOWEST)
	p.expectPeek(lexer.RBRACKET)
	return &ast.TypeArray{Tok: tok, Elem: elem, Size: size}
}

// parseNamedOrBuiltinType recognizes u{N}/i{N} scalar spellings and `bool`,
// `field`, `str`, `()`; anything else is a path alias, possibly namespaced
// with `::`.
func (p *Parser) parseNamedOrBuiltinType() ast.TypeVariant {
	tok := p.curToken
	lit := tok.Literal
	switch lit {
	case "bool":
		return &ast.TypeBool{Tok: tok}
	case "field":
		return &ast.TypeField{Tok: tok}
	case "str":
		return &ast.TypeString{Tok: tok}
	}
	if (strings.HasPrefix(lit, "u") || strings.HasPrefix(lit, "i")) && len(lit) > 1 {
		if n, err := strconv.Atoi(lit[1:]); err == nil {
			if lit[0] == 'u' {
				return &ast.TypeIntegerUnsigned{Tok: tok, Bitlength: n}
			}
			return &ast.TypeIntegerSigned{Tok: tok, Bitlength: n}
		}
	}
	path := []string{lit}
	for p.peekTokenIs(lexer.DOUBLECOLON) {
		p.nextToken()
		if !p.expectPeek(lexer.IDENT) {
			break
		}
		path = append(path, p.curToken.Literal)
	}
	return &ast.TypeAlias{Tok: tok, Path: path}
}

// ---------------------------------------------------------------------------
// Expression parsing (Pratt)
// ---------------------------------------------------------------------------

func (p *Parser) parseExpression(precedence int) ast.Expression {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}
	for !p.peekTokenIs(lexer.SEMICOLON) && precedence < p.peekPrecedence() {
		p.nextToken()
		left = p.parseInfix(left)
	}
	return left
}

func (p *Parser) parsePrefix() ast.Expression {
	switch p.curToken.Type {
	case lexer.INT:
		return ast.OperandExpr(&ast.OperandLiteralInteger{Tok: p.curToken, Value: p.curToken.Literal})
	case lexer.TRUE:
		return ast.OperandExpr(&ast.OperandLiteralBoolean{Tok: p.curToken, Value: true})
	case lexer.FALSE:
		return ast.OperandExpr(&ast.OperandLiteralBoolean{Tok: p.curToken, Value: false})
	case lexer.STRING:
		return ast.OperandExpr(&ast.OperandLiteralString{Tok: p.curToken, Value: p.curToken.Literal})
	case lexer.IDENT:
		return p.parseIdentifierOrStructureOperand()
	case lexer.BANG:
		tok := p.curToken
		p.nextToken()
		operand := p.parseExpression(PREFIX)
		return ast.CombineUnary(operand, ast.Operator{Tok: tok, Kind: ast.OpNot})
	case lexer.MINUS:
		tok := p.curToken
		p.nextToken()
		operand := p.parseExpression(PREFIX)
		return ast.CombineUnary(operand, ast.Operator{Tok: tok, Kind: ast.OpNeg})
	case lexer.LPAREN:
		return p.parseParenOrTupleOperand()
	case lexer.LBRACKET:
		return p.parseArrayOperand()
	case lexer.IF:
		return ast.OperandExpr(p.parseConditionalOperand())
	case lexer.MATCH:
		return ast.OperandExpr(p.parseMatchOperand())
	case lexer.LBRACE:
		tok := p.curToken
		block := p.parseBlock()
		return ast.OperandExpr(&ast.OperandBlock{Tok: tok, Block: block})
	default:
		p.addError("UnexpectedToken", "no prefix parse for "+p.curToken.Type.String())
		return nil
	}
}

func (p *Parser) parseInfix(left ast.Expression) ast.Expression {
	switch p.curToken.Type {
	case lexer.LPAREN:
		return p.parseCallOperand(left)
	case lexer.LBRACKET:
		return p.parseIndexOperand(left)
	case lexer.DOT:
		return p.parseFieldOperand(left)
	case lexer.AS:
		return p.parseCastOperand(left)
	default:
		kind, ok := binaryOpKind[p.curToken.Type]
		if !ok {
			p.addError("UnexpectedToken", "unexpected infix operator "+p.curToken.Type.String())
			return left
		}
		tok := p.curToken
		precedence := p.curPrecedence()
		p.nextToken()
		right := p.parseExpression(precedence)
		return ast.CombineBinary(left, right, ast.Operator{Tok: tok, Kind: kind})
	}
}

// parseIdentifierOrStructureOperand handles a bare identifier, a path
// (`Enum::Variant`), or a structure literal (`Point { x: 1, y: 2 }`).
func (p *Parser) parseIdentifierOrStructureOperand() ast.Expression {
	tok := p.curToken
	path := []string{tok.Literal}
	for p.peekTokenIs(lexer.DOUBLECOLON) {
		p.nextToken()
		if !p.expectPeek(lexer.IDENT) {
			break
		}
		path = append(path, p.curToken.Literal)
	}

	if p.peekTokenIs(lexer.LBRACE) && len(path) >= 1 && looksLikeType(path[0]) {
		p.nextToken()
		return ast.OperandExpr(p.parseStructureLiteral(tok, path))
	}

	if len(path) == 1 {
		return ast.OperandExpr(&ast.OperandIdentifier{Tok: tok, Name: path[0]})
	}
	op := &ast.Operator{Tok: tok, Kind: ast.OpPath}
	base := ast.OperandExpr(&ast.OperandIdentifier{Tok: tok, Name: path[0]})
	for _, seg := range path[1:] {
		base = ast.CombineUnary(base, ast.Operator{Tok: tok, Kind: ast.OpDot, Field: seg})
	}
	_ = op
	return base
}

// looksLikeType is a syntactic heuristic (capitalized leading identifier)
// used only to decide between `Ident` and `Ident { ... }` structure-literal
// parses; the semantic stage is the actual authority on what names a type.
func looksLikeType(s string) bool {
	return len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z'
}

func (p *Parser) parseStructureLiteral(tok lexer.Token, path []string) ast.Operand {
	var fields []ast.OperandStructureField
	for !p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.EOF) {
		p.nextToken()
		name := p.curToken.Literal
		if !p.expectPeek(lexer.COLON) {
			break
		}
		p.nextToken()
		value := p.parseExpression(LOWEST)
		fields = append(fields, ast.OperandStructureField{Name: name, Value: value})
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		}
	}
	p.expectPeek(lexer.RBRACE)
	return &ast.OperandStructure{Tok: tok, Path: path, Fields: fields}
}

func (p *Parser) parseParenOrTupleOperand() ast.Expression {
	tok := p.curToken
	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return ast.OperandExpr(&ast.OperandList{Tok: tok})
	}
	p.nextToken()
	first := p.parseExpression(LOWEST)
	if p.peekTokenIs(lexer.COMMA) {
		elems := []ast.Expression{first}
		for p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			if p.peekTokenIs(lexer.RPAREN) {
				break
			}
			p.nextToken()
			elems = append(elems, p.parseExpression(LOWEST))
		}
		p.expectPeek(lexer.RPAREN)
		return ast.OperandExpr(&ast.OperandList{Tok: tok, Elements: elems})
	}
	p.expectPeek(lexer.RPAREN)
	return first
}

func (p *Parser) parseArrayOperand() ast.Expression {
	tok := p.curToken
	if p.peekTokenIs(lexer.RBRACKET) {
		p.nextToken()
		return ast.OperandExpr(&ast.OperandList{Tok: tok})
	}
	p.nextToken()
	first := p.parseExpression(LOWEST)
	if p.peekTokenIs(lexer.SEMICOLON) {
		// array-repeat literal: [expr; N]
		p.nextToken()
		p.nextToken()
		count := p.parseExpression(LOWEST)
		p.expectPeek(lexer.RBRACKET)
		op := ast.Operator{Tok: tok, Kind: ast.OpArrayRepeat}
		return ast.CombineBinary(first, count, op)
	}
	elems := []ast.Expression{first}
	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken()
		if p.peekTokenIs(lexer.RBRACKET) {
			break
		}
		p.nextToken()
		elems = append(elems, p.parseExpression(LOWEST))
	}
	p.expectPeek(lexer.RBRACKET)
	return ast.OperandExpr(&ast.OperandList{Tok: tok, Elements: elems})
}

func (p *Parser) parseCallOperand(left ast.Expression) ast.Expression {
	tok := p.curToken
	var args []ast.Expression
	if !p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		args = append(args, p.parseExpression(LOWEST))
		for p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			p.nextToken()
			args = append(args, p.parseExpression(LOWEST))
		}
	}
	p.expectPeek(lexer.RPAREN)
	argList := ast.OperandExpr(&ast.OperandList{Tok: tok, Elements: args})
	op := ast.Operator{Tok: tok, Kind: ast.OpCall, ArgN: len(args)}
	return ast.CombineBinary(left, argList, op)
}

func (p *Parser) parseIndexOperand(left ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken()
	index := p.parseExpression(LOWEST)
	p.expectPeek(lexer.RBRACKET)
	return ast.CombineBinary(left, index, ast.Operator{Tok: tok, Kind: ast.OpIndex})
}

func (p *Parser) parseFieldOperand(left ast.Expression) ast.Expression {
	tok := p.curToken
	if !p.expectPeek(lexer.IDENT) && !p.curTokenIs(lexer.INT) {
		return left
	}
	field := p.curToken.Literal
	return ast.CombineUnary(left, ast.Operator{Tok: tok, Kind: ast.OpDot, Field: field})
}

func (p *Parser) parseCastOperand(left ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken()
	typ := p.parseTypeVariant()
	return ast.CombineUnary(left, ast.Operator{Tok: tok, Kind: ast.OpCasting, Type: typ})
}

func (p *Parser) parseConditionalOperand() *ast.OperandConditional {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.LBRACE) {
		return &ast.OperandConditional{Tok: tok, Condition: cond}
	}
	thenBlock := p.parseBlock()
	node := &ast.OperandConditional{Tok: tok, Condition: cond, ThenBlock: thenBlock}
	if p.peekTokenIs(lexer.ELSE) {
		p.nextToken()
		if p.peekTokenIs(lexer.IF) {
			p.nextToken()
			node.ElseIf = p.parseConditionalOperand()
		} else if p.expectPeek(lexer.LBRACE) {
			node.ElseBlock = p.parseBlock()
		}
	}
	return node
}

func (p *Parser) parseMatchOperand() *ast.OperandMatch {
	tok := p.curToken
	p.nextToken()
	subject := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.LBRACE) {
		return &ast.OperandMatch{Tok: tok, Subject: subject}
	}
	var arms []ast.MatchArm
	for !p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.EOF) {
		p.nextToken()
		pattern := p.parseExpression(LOWEST)
		if !p.expectPeek(lexer.FATARROW) {
			break
		}
		p.nextToken()
		value := p.parseExpression(LOWEST)
		arms = append(arms, ast.MatchArm{Pattern: pattern, Value: value})
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		}
	}
	p.expectPeek(lexer.RBRACE)
	return &ast.OperandMatch{Tok: tok, Subject: subject, Arms: arms}
}
