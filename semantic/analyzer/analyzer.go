// Package analyzer performs the single semantic pass: scope construction,
// type resolution, constant folding, and bytecode emission, all driven off
// the parser's flattened postfix ast.Expression lists with one explicit
// Go-slice stack per expression (no recursion over an expression tree,
// since there is no expression tree).
package analyzer

import (
	"math/big"

	"github.com/codeassociates/zincc/ast"
	"github.com/codeassociates/zincc/bytecode"
	"github.com/codeassociates/zincc/generator"
	"github.com/codeassociates/zincc/lexer"
	"github.com/codeassociates/zincc/semantic/element"
	"github.com/codeassociates/zincc/semantic/scope"
	"github.com/codeassociates/zincc/zerror"
)

type funcInfo struct {
	uniqueID int
	stmt     *ast.FnStatement
	isPublic bool
}

// Analyzer owns the whole-module scope tree and the generator it emits
// through. One Analyzer analyzes exactly one source file/module.
type Analyzer struct {
	file       string
	root       *scope.Scope
	scopesByID map[int]*scope.Scope
	gen        *generator.Generator
	errors     []*zerror.Error

	funcs      map[string]*funcInfo
	nextUnique int

	// constValues holds every top-level `const`'s folded value, keyed by
	// name, since a scope.Item only carries a resolved Type and constants
	// need their actual value at every reference site.
	constValues map[string]element.Constant

	// storageFields/mtreeFields mark identifiers that name a contract
	// storage field (and, among those, which ones are `static mtreemap`),
	// so analyzeIdentifierOperand can set Place.IsStorage/IsMTreeMap instead
	// of treating them as ordinary data-stack locals.
	storageFields map[string]bool
	mtreeFields   map[string]bool
}

func New(file string, bc *bytecode.State) *Analyzer {
	a := &Analyzer{
		file:       file,
		scopesByID:  make(map[int]*scope.Scope),
		gen:         generator.New(bc),
		funcs:       make(map[string]*funcInfo),
		constValues: make(map[string]element.Constant),
		storageFields: make(map[string]bool),
		mtreeFields:   make(map[string]bool),
	}
	a.root = scope.New(nil)
	a.scopesByID[a.root.ID] = a.root
	a.declareBuiltins(a.root)
	return a
}

func (a *Analyzer) Errors() []*zerror.Error { return a.errors }

func (a *Analyzer) loc(tok lexer.Token) zerror.Location {
	return zerror.Location{File: a.file, Line: tok.Loc.Line, Column: tok.Loc.Column}
}

// allocUnique hands out the small, dense integer IDs the emitter indexes
// function_addresses/entry_metadata_map by; see DESIGN.md's note on why
// google/uuid cannot fill this role.
func (a *Analyzer) allocUnique() int {
	a.nextUnique++
	return a.nextUnique
}

func (a *Analyzer) declareBuiltins(sc *scope.Scope) {
	widths := []int{8, 16, 32, 64, 128, 248}
	for _, w := range widths {
		sc.Items[uName(w)] = scope.NewBuiltinItem(uName(w), element.IntegerUnsigned{Bitlength: w})
		sc.Items[iName(w)] = scope.NewBuiltinItem(iName(w), element.IntegerSigned{Bitlength: w})
	}
	sc.Items["bool"] = scope.NewBuiltinItem("bool", element.Boolean{})
	sc.Items["field"] = scope.NewBuiltinItem("field", element.Field{})
	sc.Items["str"] = scope.NewBuiltinItem("str", element.String{})
}

func uName(w int) string { return "u" + itoa(w) }
func iName(w int) string { return "i" + itoa(w) }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// AnalyzeProgram hoists every top-level declaration, then forces (defines)
// each one in turn, lowering functions to bytecode as they are defined. It
// returns the unique IDs of every entry point found: each `pub fn`, and
// `main` whether public or not.
func (a *Analyzer) AnalyzeProgram(prog *ast.Program) []int {
	a.gen.BC.StartNewFile(a.file)

	for _, stmt := range prog.Statements {
		a.hoist(stmt, a.root)
	}

	var entries []int
	for _, stmt := range prog.Statements {
		switch s := stmt.(type) {
		case *ast.FnStatement:
			id := a.funcs[s.Name.Name].uniqueID
			a.defineFunction(s, a.root, id)
			if s.IsPublic || s.Name.Name == "main" {
				entries = append(entries, id)
			}
		case *ast.ContractStatement:
			a.analyzeContract(s)
		case *ast.StructStatement, *ast.EnumStatement, *ast.ConstStatement, *ast.TypeStatement:
			if it, ok := a.root.Resolve(declName(s)); ok {
				if _, err := it.Define(a.resolveItem); err != nil {
					a.errors = append(a.errors, err)
				}
			}
		}
	}
	return entries
}

func declName(stmt ast.Statement) string {
	switch s := stmt.(type) {
	case *ast.StructStatement:
		return s.Name.Name
	case *ast.EnumStatement:
		return s.Name.Name
	case *ast.ConstStatement:
		return s.Name.Name
	case *ast.TypeStatement:
		return s.Name.Name
	default:
		return ""
	}
}

// hoist registers a top-level item's name as Declared (unresolved), before
// anything is defined, so forward references between items work.
func (a *Analyzer) hoist(stmt ast.Statement, sc *scope.Scope) {
	var name string
	switch s := stmt.(type) {
	case *ast.StructStatement:
		name = s.Name.Name
	case *ast.EnumStatement:
		name = s.Name.Name
	case *ast.ConstStatement:
		name = s.Name.Name
	case *ast.TypeStatement:
		name = s.Name.Name
	case *ast.FnStatement:
		name = s.Name.Name
		id := a.allocUnique()
		a.funcs[name] = &funcInfo{uniqueID: id, stmt: s, isPublic: s.IsPublic}
	case *ast.ContractStatement:
		name = s.Name.Name
	default:
		return
	}
	item := scope.NewDeclaredItem(name, zerror.Location{File: a.file}, stmt, sc)
	if err := sc.Declare(item); err != nil {
		a.errors = append(a.errors, err)
	}
}

// resolveItem is the scope.Resolver callback: it knows how to turn each
// Declared statement kind into its element.Type, the one place every
// lazily-resolved item funnels through.
func (a *Analyzer) resolveItem(stmt ast.Statement, declScope *scope.Scope) (element.Type, *zerror.Error) {
	switch s := stmt.(type) {
	case *ast.StructStatement:
		return a.resolveStruct(s, declScope)
	case *ast.EnumStatement:
		return a.resolveEnum(s, declScope)
	case *ast.ConstStatement:
		t, err := a.resolveType(s.Type, declScope)
		if err != nil {
			return nil, err
		}
		c, _, cerr := a.analyzeConstExpression(s.Value, declScope)
		if cerr != nil {
			return nil, cerr
		}
		c.Type = t
		a.constValues[s.Name.Name] = c
		return t, nil
	case *ast.TypeStatement:
		return a.resolveType(s.Type, declScope)
	case *ast.FnStatement:
		return a.resolveFnSignature(s, declScope)
	default:
		return nil, zerror.New(zerror.Location{File: a.file}, zerror.StageSemanticType, "UnresolvableItem", "")
	}
}

func (a *Analyzer) resolveStruct(s *ast.StructStatement, declScope *scope.Scope) (element.Type, *zerror.Error) {
	childScope := scope.New(declScope)
	a.scopesByID[childScope.ID] = childScope
	fields := make([]element.StructureField, len(s.Fields))
	for i, f := range s.Fields {
		t, err := a.resolveType(f.Type, declScope)
		if err != nil {
			return nil, err
		}
		fields[i] = element.StructureField{Name: f.Name, Type: t}
	}
	st := element.Structure{Identifier: s.Name.Name, Fields: fields, ScopeID: childScope.ID}
	childScope.DeclareSelfAlias(st)
	return st, nil
}

func (a *Analyzer) resolveEnum(s *ast.EnumStatement, declScope *scope.Scope) (element.Type, *zerror.Error) {
	childScope := scope.New(declScope)
	a.scopesByID[childScope.ID] = childScope

	values := make([]*big.Int, len(s.Variants))
	next := big.NewInt(0)
	for i, v := range s.Variants {
		if v.Value != nil {
			c, _, err := a.analyzeConstExpression(v.Value, declScope)
			if err != nil {
				return nil, err
			}
			if c.Integer != nil {
				next = new(big.Int).Set(c.Integer)
			}
		}
		values[i] = new(big.Int).Set(next)
		next = new(big.Int).Add(next, big.NewInt(1))
	}
	bitlength := minimalBitlengthForEnum(values)

	variants := make([]element.EnumerationVariant, len(s.Variants))
	for i, v := range s.Variants {
		variants[i] = element.EnumerationVariant{Name: v.Name, Value: values[i].Int64()}
	}
	en := element.Enumeration{Identifier: s.Name.Name, Bitlength: bitlength, Variants: variants, ScopeID: childScope.ID}

	// Variant path access (`Suit::Hearts`) is resolved directly against
	// en.Variants by the expression analyzer's field operator, not through
	// a scope lookup, so no per-variant scope.Item is needed here.
	childScope.DeclareSelfAlias(en)
	return en, nil
}

func (a *Analyzer) resolveFnSignature(s *ast.FnStatement, declScope *scope.Scope) (element.Type, *zerror.Error) {
	params := make([]element.FunctionParam, len(s.Params))
	for i, p := range s.Params {
		t, err := a.resolveType(p.Type, declScope)
		if err != nil {
			return nil, err
		}
		params[i] = element.FunctionParam{Name: p.Name, Type: t}
	}
	ret, err := a.resolveType(s.ReturnType, declScope)
	if err != nil {
		return nil, err
	}
	return element.Function{Identifier: s.Name.Name, Params: params, Return: ret}, nil
}
