package analyzer

import (
	"math/big"

	"github.com/codeassociates/zincc/ast"
	"github.com/codeassociates/zincc/bytecode"
	"github.com/codeassociates/zincc/semantic/element"
	"github.com/codeassociates/zincc/semantic/scope"
	"github.com/codeassociates/zincc/zerror"
)

// defineFunction lowers one `fn` to bytecode: resolves its signature,
// starts a function (or entry function, for `pub fn` and `main`), binds each
// parameter to a data-stack slot, and analyzes its body statements and
// tail expression in a fresh child scope.
func (a *Analyzer) defineFunction(s *ast.FnStatement, parent *scope.Scope, uniqueID int) {
	sig, err := a.resolveFnSignature(s, parent)
	if err != nil {
		a.errors = append(a.errors, err)
		return
	}
	fn := sig.(element.Function)

	fnScope := scope.New(parent)
	a.scopesByID[fnScope.ID] = fnScope

	isEntry := s.IsPublic || s.Name.Name == "main"
	if isEntry {
		args := make([]bytecode.NamedType, len(fn.Params))
		for i, p := range fn.Params {
			args[i] = bytecode.NamedType{Name: p.Name, Type: p.Type}
		}
		a.gen.StartEntryFunction(s.Name.Name, uniqueID, args, fn.Return)
	} else {
		a.gen.StartFunction(uniqueID, s.Name.Name)
	}

	for _, p := range fn.Params {
		addr := a.gen.DefineVariable(p.Name, p.Type)
		fnScope.Items[p.Name] = scope.NewBuiltinItem(p.Name, p.Type)
		fnScope.Items[p.Name].ItemID = addr // address reuse avoids a parallel map
	}

	a.analyzeBlock(s.Body, fnScope)
	a.gen.Return(fn.Return.Size(), a.loc(s.Tok))
}

func (a *Analyzer) analyzeContract(c *ast.ContractStatement) {
	contractScope := scope.New(a.root)
	a.scopesByID[contractScope.ID] = contractScope

	// Storage fields live in the contract's persistent storage, not the
	// per-call data stack: each gets a sequential storage-field index
	// instead of a bytecode.DefineVariable data-stack slot.
	storageIndex := 0
	for _, st := range c.Storage {
		t, err := a.resolveType(st.Type, contractScope)
		if err != nil {
			a.errors = append(a.errors, err)
			continue
		}
		item := scope.NewBuiltinItem(st.Name.Name, t)
		item.ItemID = storageIndex
		contractScope.Items[st.Name.Name] = item
		a.storageFields[st.Name.Name] = true
		if st.IsMTreeMap {
			a.mtreeFields[st.Name.Name] = true
		}
		storageIndex++
	}

	for _, m := range c.Methods {
		id := a.allocUnique()
		a.funcs[c.Name.Name+"::"+m.Name.Name] = &funcInfo{uniqueID: id, stmt: m, isPublic: m.IsPublic}
		a.defineFunction(m, contractScope, id)
	}
}

func (a *Analyzer) analyzeBlock(b *ast.Block, parent *scope.Scope) (element.Type, *zerror.Error) {
	blockScope := scope.New(parent)
	a.scopesByID[blockScope.ID] = blockScope

	for _, stmt := range b.Statements {
		a.analyzeStatement(stmt, blockScope)
	}
	if b.Tail != nil {
		el, err := a.analyzeExpression(b.Tail, blockScope)
		if err != nil {
			a.errors = append(a.errors, err)
			return element.Unit{}, err
		}
		a.materialize(el, blockScope)
		return el.ResolvedType(), nil
	}
	return element.Unit{}, nil
}

func (a *Analyzer) analyzeStatement(stmt ast.Statement, sc *scope.Scope) {
	switch s := stmt.(type) {
	case *ast.LetStatement:
		a.analyzeLet(s, sc)
	case *ast.ConstStatement:
		a.hoist(s, sc)
		if it, ok := sc.Resolve(s.Name.Name); ok {
			if _, err := it.Define(a.resolveItem); err != nil {
				a.errors = append(a.errors, err)
			}
		}
	case *ast.WhileStatement:
		a.analyzeWhile(s, sc)
	case *ast.ForStatement:
		a.analyzeFor(s, sc)
	case *ast.ExpressionStatement:
		el, err := a.analyzeExpression(s.Value, sc)
		if err != nil {
			a.errors = append(a.errors, err)
			return
		}
		a.materialize(el, sc)
	case *ast.AssignStatement:
		a.analyzeAssign(s, sc)
	case *ast.Block:
		a.analyzeBlock(s, sc)
	case *ast.FnStatement, *ast.StructStatement, *ast.EnumStatement, *ast.ImplStatement, *ast.ContractStatement, *ast.TypeStatement, *ast.StaticStatement:
		// Items of these kinds are handled only at top level
		// (AnalyzeProgram) or as contract members (analyzeContract); one
		// that the parser accepted inside a block is skipped here, with no
		// analysis and no error.
	}
}

func (a *Analyzer) analyzeLet(s *ast.LetStatement, sc *scope.Scope) {
	el, err := a.analyzeExpression(s.Value, sc)
	if err != nil {
		a.errors = append(a.errors, err)
		return
	}
	var declared element.Type
	if s.Type != nil {
		declared, err = a.resolveType(s.Type, sc)
		if err != nil {
			a.errors = append(a.errors, err)
			return
		}
		el = retypeLiteral(frame{el: el}, declared).el
		if !element.Equal(declared, el.ResolvedType()) {
			a.errors = append(a.errors, zerror.New(a.loc(s.Tok), zerror.StageSemanticType,
				"LetDeclarationTypeMismatch", "expected "+declared.String()+", found "+el.ResolvedType().String()))
			return
		}
	} else {
		declared = el.ResolvedType()
	}

	addr := a.gen.DefineVariable(s.Name.Name, declared)
	a.materialize(el, sc)
	place := element.Place{Identifier: s.Name.Name, Type: declared, Address: addr, IsMutable: true}
	a.emitPlaceStore(&place, a.loc(s.Tok))

	item := scope.NewBuiltinItem(s.Name.Name, declared)
	item.ItemID = addr
	sc.Items[s.Name.Name] = item
}

func (a *Analyzer) analyzeAssign(s *ast.AssignStatement, sc *scope.Scope) {
	placeEl, err := a.analyzeExpression(s.Place, sc)
	if err != nil {
		a.errors = append(a.errors, err)
		return
	}
	if !placeEl.IsPlace() {
		a.errors = append(a.errors, zerror.New(a.loc(s.Tok), zerror.StageSemanticElement, "AssigningToImmutableValue", ""))
		return
	}
	valueEl, err := a.analyzeExpression(s.Value, sc)
	if err != nil {
		a.errors = append(a.errors, err)
		return
	}
	a.materialize(valueEl, sc)
	a.emitPlaceStore(placeEl.Place, a.loc(s.Tok))
}

func (a *Analyzer) analyzeWhile(s *ast.WhileStatement, sc *scope.Scope) {
	loopScope := scope.New(sc)
	a.scopesByID[loopScope.ID] = loopScope
	cond, err := a.analyzeExpression(s.Condition, loopScope)
	if err != nil {
		a.errors = append(a.errors, err)
		return
	}
	if _, ok := cond.ResolvedType().(element.Boolean); !ok {
		a.errors = append(a.errors, zerror.New(a.loc(s.Tok), zerror.StageSemanticConditional,
			"LoopConditionExpectedBooleanCondition", "found "+cond.ResolvedType().String()))
		return
	}
	a.materialize(cond, loopScope)
	loc := a.loc(s.Tok)
	loopIndex := a.gen.LoopBegin(0, loc)
	a.analyzeBlock(s.Body, loopScope)
	a.gen.LoopEnd(loc)
	a.gen.PatchJump(loopIndex, a.gen.BC.NextIndex())
}

func (a *Analyzer) analyzeFor(s *ast.ForStatement, sc *scope.Scope) {
	loopScope := scope.New(sc)
	a.scopesByID[loopScope.ID] = loopScope
	iterEl, err := a.analyzeExpression(s.Iterable, loopScope)
	if err != nil {
		a.errors = append(a.errors, err)
		return
	}
	var inner element.Type
	var lower, upper *big.Int
	inclusive := false
	switch r := iterEl.Type.(type) {
	case element.Range:
		inner, lower, upper = r.Inner, r.Lower, r.Upper
	case element.RangeInclusive:
		inner, lower, upper, inclusive = r.Inner, r.Lower, r.Upper, true
	}
	elemType, ok := inner.(element.IntegerUnsigned)
	if !ok {
		if signed, ok := inner.(element.IntegerSigned); ok {
			a.errors = append(a.errors, zerror.New(a.loc(s.Tok), zerror.StageSemanticType,
				"LoopBoundsExpectedUnsignedRange", "found "+signed.String()))
			return
		}
		elemType = element.IntegerUnsigned{Bitlength: 64}
	}
	addr := a.gen.DefineVariable(s.Name.Name, elemType)
	item := scope.NewBuiltinItem(s.Name.Name, elemType)
	item.ItemID = addr
	loopScope.Items[s.Name.Name] = item

	iterations := 0
	if lower != nil && upper != nil {
		diff := new(big.Int).Sub(upper, lower)
		if inclusive {
			diff = diff.Add(diff, big.NewInt(1))
		}
		iterations = int(diff.Int64())
	}

	loc := a.loc(s.Tok)
	loopIndex := a.gen.LoopBegin(iterations, loc)
	a.analyzeBlock(s.Body, loopScope)
	a.gen.LoopEnd(loc)
	a.gen.PatchJump(loopIndex, a.gen.BC.NextIndex())
}
