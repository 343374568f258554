package analyzer

import (
	"math/big"
	"strings"

	"github.com/codeassociates/zincc/ast"
	"github.com/codeassociates/zincc/lexer"
	"github.com/codeassociates/zincc/semantic/element"
	"github.com/codeassociates/zincc/semantic/scope"
	"github.com/codeassociates/zincc/zerror"
)

// frame is one cell of the analyzer's explicit evaluation stack. Most
// operands reduce to a plain element.Element; OperandList is special-cased
// as an argument/element list since its members are themselves full
// sub-expressions that must be analyzed before the enclosing Call/array/
// tuple operator can reduce them.
type frame struct {
	el       element.Element
	args     []element.Element
	isArgs   bool
	funcName string
	isFunc   bool
	emitted  bool // true once this value's instructions are already on the VM stack
}

// analyzeExpression walks expr's flattened postfix list with an explicit
// Go-slice stack, exactly mirroring how the target VM itself evaluates a
// postfix instruction stream.
func (a *Analyzer) analyzeExpression(expr ast.Expression, sc *scope.Scope) (element.Element, *zerror.Error) {
	var stack []frame
	pop := func() frame {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return f
	}

	for _, item := range expr {
		if item.Operand != nil {
			f, err := a.analyzeOperand(item.Operand, sc)
			if err != nil {
				return element.Element{}, err
			}
			stack = append(stack, f)
			continue
		}

		op := item.Operator
		switch op.Kind {
		case ast.OpCall:
			args := pop()
			callee := pop()
			f, err := a.analyzeCall(callee, args, op, sc)
			if err != nil {
				return element.Element{}, err
			}
			stack = append(stack, f)
		case ast.OpIndex:
			index := pop()
			base := pop()
			f, err := a.analyzeIndex(base, index, op)
			if err != nil {
				return element.Element{}, err
			}
			stack = append(stack, f)
		case ast.OpDot:
			base := pop()
			f, err := a.analyzeField(base, op, sc)
			if err != nil {
				return element.Element{}, err
			}
			stack = append(stack, f)
		case ast.OpCasting:
			operand := pop()
			f, err := a.analyzeCast(operand, op)
			if err != nil {
				return element.Element{}, err
			}
			stack = append(stack, f)
		case ast.OpNot:
			operand := pop()
			f, err := a.analyzeNot(operand, op)
			if err != nil {
				return element.Element{}, err
			}
			stack = append(stack, f)
		case ast.OpNeg:
			operand := pop()
			f, err := a.analyzeNeg(operand, op)
			if err != nil {
				return element.Element{}, err
			}
			stack = append(stack, f)
		case ast.OpArrayRepeat:
			count := pop()
			elem := pop()
			f, err := a.analyzeArrayRepeat(elem, count, op)
			if err != nil {
				return element.Element{}, err
			}
			stack = append(stack, f)
		default:
			right := pop()
			left := pop()
			f, err := a.analyzeBinary(left, right, op)
			if err != nil {
				return element.Element{}, err
			}
			stack = append(stack, f)
		}
	}

	if len(stack) == 0 {
		return element.FromType(element.Unit{}), nil
	}
	return stack[len(stack)-1].el, nil
}

// analyzeConstExpression analyzes expr and requires the result to be
// compile-time constant (array sizes, enum discriminants). The second
// return value signals whether the expression was emitted at runtime
// (always false here; callers needing that distinction use analyzeExpression
// directly).
func (a *Analyzer) analyzeConstExpression(expr ast.Expression, sc *scope.Scope) (element.Constant, bool, *zerror.Error) {
	el, err := a.analyzeExpression(expr, sc)
	if err != nil {
		return element.Constant{}, false, err
	}
	if el.Constant == nil {
		return element.Constant{}, false, zerror.New(zerror.Location{File: a.file}, zerror.StageSemanticElement,
			"ExpectedConstantExpression", "")
	}
	return *el.Constant, false, nil
}

func (a *Analyzer) analyzeOperand(o ast.Operand, sc *scope.Scope) (frame, *zerror.Error) {
	switch op := o.(type) {
	case *ast.OperandLiteralInteger:
		v, ok := parseIntLiteral(op.Value)
		if !ok {
			return frame{}, zerror.New(a.loc(op.Tok), zerror.StageLexical, "InvalidIntegerLiteral", op.Value)
		}
		c := element.Constant{Type: element.IntegerUnsigned{Bitlength: minimalLiteralBitlength(v)}, Integer: v, IsLiteral: true}
		return frame{el: element.FromConstant(c)}, nil
	case *ast.OperandLiteralBoolean:
		return frame{el: element.FromConstant(element.NewBooleanConstant(op.Value))}, nil
	case *ast.OperandLiteralString:
		return frame{el: element.FromConstant(element.NewStringConstant(op.Value))}, nil
	case *ast.OperandIdentifier:
		return a.analyzeIdentifierOperand(op, sc)
	case *ast.OperandList:
		args := make([]element.Element, len(op.Elements))
		for i, e := range op.Elements {
			el, err := a.analyzeExpression(e, sc)
			if err != nil {
				return frame{}, err
			}
			a.materialize(el, sc)
			args[i] = el
		}
		listEl, err := a.buildListElement(op, args)
		if err != nil {
			return frame{}, err
		}
		return frame{isArgs: true, args: args, el: listEl, emitted: true}, nil
	case *ast.OperandType:
		t, err := a.resolveType(op.Type, sc)
		if err != nil {
			return frame{}, err
		}
		return frame{el: element.FromType(t)}, nil
	case *ast.OperandBlock:
		t, err := a.analyzeBlock(op.Block, sc)
		if err != nil {
			return frame{}, err
		}
		return frame{el: element.FromType(t), emitted: true}, nil
	case *ast.OperandConditional:
		t, err := a.analyzeConditional(op, sc)
		if err != nil {
			return frame{}, err
		}
		return frame{el: element.FromType(t), emitted: true}, nil
	case *ast.OperandMatch:
		t, err := a.analyzeMatch(op, sc)
		if err != nil {
			return frame{}, err
		}
		return frame{el: element.FromType(t), emitted: true}, nil
	case *ast.OperandStructure:
		t, err := a.analyzeStructureLiteral(op, sc)
		if err != nil {
			return frame{}, err
		}
		return frame{el: element.FromType(t), emitted: true}, nil
	default:
		return frame{}, zerror.New(zerror.Location{File: a.file}, zerror.StageSemanticElement, "UnsupportedOperand", "")
	}
}

func (a *Analyzer) analyzeIdentifierOperand(op *ast.OperandIdentifier, sc *scope.Scope) (frame, *zerror.Error) {
	if _, ok := a.funcs[op.Name]; ok {
		return frame{isFunc: true, funcName: op.Name}, nil
	}
	if c, ok := a.constValues[op.Name]; ok {
		return frame{el: element.FromConstant(c)}, nil
	}
	it, ok := sc.Resolve(op.Name)
	if !ok {
		return frame{}, zerror.New(a.loc(op.Tok), zerror.StageSemanticScope, "ItemUndeclared", op.Name)
	}
	t, err := it.Define(a.resolveItem)
	if err != nil {
		return frame{}, err
	}
	// A top-level name resolving to a Structure/Enumeration is a
	// namespace/type reference (`Suit` in `Suit::Hearts`), not a storage
	// location; a parameter or local of that type is still a place.
	switch t.(type) {
	case element.Structure, element.Enumeration:
		if a.root.Items[op.Name] == it {
			return frame{el: element.FromType(t)}, nil
		}
	}
	place := element.Place{Identifier: op.Name, Type: t, Address: it.ItemID, IsMutable: true}
	if a.storageFields[op.Name] {
		place.IsStorage = true
		place.IsMTreeMap = a.mtreeFields[op.Name]
	}
	return frame{el: element.FromPlace(place)}, nil
}

// buildListElement reduces an OperandList's already-analyzed element values
// into a single composite element: an Array when the list was written with
// `[...]` (every member must share one type), a Tuple when written with
// `(...)` (members may differ), or Unit for an empty list. The list's
// members have already had their own Push/Load instructions emitted by
// analyzeOperand's OperandList case, so this only needs to compute the
// resulting type — not emit anything itself.
func (a *Analyzer) buildListElement(op *ast.OperandList, args []element.Element) (element.Element, *zerror.Error) {
	if len(args) == 0 {
		return element.FromType(element.Unit{}), nil
	}
	if op.Tok.Type == lexer.LBRACKET {
		inner := args[0].ResolvedType()
		for _, el := range args[1:] {
			if !element.Equal(inner, el.ResolvedType()) {
				return element.Element{}, zerror.New(a.loc(op.Tok), zerror.StageSemanticElement,
					"ArrayElementTypesMismatch", inner.String()+" vs "+el.ResolvedType().String())
			}
		}
		return element.FromType(element.Array{Inner: inner, Length: len(args)}), nil
	}
	elems := make([]element.Type, len(args))
	for i, el := range args {
		elems[i] = el.ResolvedType()
	}
	return element.FromType(element.Tuple{Elements: elems}), nil
}

func parseIntLiteral(lit string) (*big.Int, bool) {
	lit = strings.ReplaceAll(lit, "_", "")
	v := new(big.Int)
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		_, ok := v.SetString(lit[2:], 16)
		return v, ok
	}
	_, ok := v.SetString(lit, 10)
	return v, ok
}

// minimalLiteralBitlength sizes a bare integer literal's placeholder type to
// the smallest declared unsigned width that holds it, mirroring
// IntegerConstant::minimal_bitlength_bigints; the ladder's 1-bit rung only
// backs booleans, not integers, so it is never handed out here.
func minimalLiteralBitlength(v *big.Int) int {
	w := element.MinimalUnsignedBitlength([]*big.Int{v})
	if w < 8 {
		return 8
	}
	return w
}

// literalText renders el's compile-time value the way the scenario-format
// diagnostics quote it: `true`/`false` bare, strings double-quoted, integers
// decimal. Falls back to the resolved type's name for non-constant operands.
func literalText(el element.Element) string {
	if el.Constant == nil {
		return el.ResolvedType().String()
	}
	switch el.Constant.Type.(type) {
	case element.Boolean:
		if el.Constant.Boolean {
			return "true"
		}
		return "false"
	case element.String:
		return "\"" + el.Constant.Str + "\""
	default:
		if el.Constant.Integer != nil {
			return el.Constant.Integer.String()
		}
		return el.ResolvedType().String()
	}
}

// isPrimitive reports whether t is one of the scalar types the `==`/`!=`
// operators accept at all; strings, arrays, tuples, and structures are not
// comparable.
func isPrimitive(t element.Type) bool {
	switch t.(type) {
	case element.Boolean, element.IntegerUnsigned, element.IntegerSigned, element.Field:
		return true
	default:
		return false
	}
}

// sameKind reports whether a and b belong to the same primitive family
// (Boolean/Integer/Field) regardless of bitwidth/signedness, and sameKindLabel
// names that family the way the operand-error variants spell it.
func sameKind(a, b element.Type) bool {
	return sameKindLabel(a) == sameKindLabel(b)
}

func sameKindLabel(t element.Type) string {
	switch t.(type) {
	case element.Boolean:
		return "Boolean"
	case element.IntegerUnsigned, element.IntegerSigned:
		return "Integer"
	case element.Field:
		return "Field"
	default:
		return "PrimitiveType"
	}
}

// materialize ensures el's value sits on the VM evaluation stack, emitting
// a Push for a not-yet-emitted constant or a Load for a place.
func (a *Analyzer) materialize(el element.Element, sc *scope.Scope) {
	a.materializeFrame(frame{el: el}, sc)
}

func (a *Analyzer) materializeFrame(f frame, sc *scope.Scope) {
	if f.emitted {
		return
	}
	switch {
	case f.el.Constant != nil:
		c := f.el.Constant
		switch {
		case c.Integer != nil:
			a.gen.PushInteger(c.Integer, zerror.Location{File: a.file})
		case c.Type.Size() > 0:
			a.gen.PushBoolean(c.Boolean, zerror.Location{File: a.file})
		}
		// Strings have zero VM-stack size; their bytes live only in the
		// input/output templates, never pushed as an operand.
	case f.el.Place != nil:
		a.emitPlaceLoad(f.el.Place, zerror.Location{File: a.file})
	}
}

// emitPlaceLoad reads p's value onto the evaluation stack: a bare
// StorageLoad for an mtreemap field (the map-key operand is already on the
// stack from the index that produced this Place, so no base-address Push
// precedes it), a Push of the field index followed by StorageLoad for an
// ordinary storage field, or an ordinary Load/LoadSequence otherwise.
func (a *Analyzer) emitPlaceLoad(p *element.Place, loc zerror.Location) {
	size := p.Type.Size()
	switch {
	case p.IsStorage && p.IsMTreeMap:
		a.gen.StorageLoad(p.Address, size, loc)
	case p.IsStorage:
		a.gen.PushInteger(big.NewInt(int64(p.Address)), loc)
		a.gen.StorageLoad(p.Address, size, loc)
	case size > 1:
		a.gen.LoadSequence(p.Address, size, loc)
	default:
		a.gen.Load(p.Address, size, loc)
	}
}

// emitPlaceStore is emitPlaceLoad's write-side counterpart.
func (a *Analyzer) emitPlaceStore(p *element.Place, loc zerror.Location) {
	size := p.Type.Size()
	switch {
	case p.IsStorage && p.IsMTreeMap:
		a.gen.StorageStore(p.Address, size, loc)
	case p.IsStorage:
		a.gen.PushInteger(big.NewInt(int64(p.Address)), loc)
		a.gen.StorageStore(p.Address, size, loc)
	case size > 1:
		a.gen.StoreSequence(p.Address, size, loc)
	default:
		a.gen.Store(p.Address, size, loc)
	}
}

func opName(k ast.OperatorKind) string {
	switch k {
	case ast.OpOr:
		return "Or"
	case ast.OpAnd:
		return "And"
	case ast.OpXor:
		return "Xor"
	case ast.OpEq:
		return "Equals"
	case ast.OpNe:
		return "NotEquals"
	case ast.OpGe:
		return "GreaterEquals"
	case ast.OpLe:
		return "LesserEquals"
	case ast.OpGt:
		return "Greater"
	case ast.OpLt:
		return "Lesser"
	case ast.OpBitOr:
		return "BitwiseOr"
	case ast.OpBitXor:
		return "BitwiseXor"
	case ast.OpBitAnd:
		return "BitwiseAnd"
	case ast.OpBitShl:
		return "BitwiseShiftLeft"
	case ast.OpBitShr:
		return "BitwiseShiftRight"
	case ast.OpAdd:
		return "Addition"
	case ast.OpSub:
		return "Subtraction"
	case ast.OpMul:
		return "Multiplication"
	case ast.OpDiv:
		return "Division"
	case ast.OpRem:
		return "Remainder"
	case ast.OpRange:
		return "Range"
	case ast.OpRangeInclusive:
		return "RangeInclusive"
	case ast.OpCasting:
		return "Casting"
	case ast.OpNot:
		return "Not"
	case ast.OpNeg:
		return "Negation"
	case ast.OpIndex:
		return "Index"
	case ast.OpDot:
		return "Field"
	case ast.OpCall:
		return "Call"
	default:
		return "Unknown"
	}
}

// operandError builds the "<Domain>::Operator<Op><Ordinal>OperandExpected<Kind>"
// error variant name, choosing Domain by whether this specific operand was
// a compile-time Constant or a runtime Value.
func (a *Analyzer) operandError(op *ast.Operator, ordinal int, el element.Element, expectedKind string) *zerror.Error {
	domain := "Value"
	if el.Constant != nil {
		domain = "Constant"
	}
	variant := domain + "::Operator" + opName(op.Kind) + zerror.OrdinalWord(ordinal) + "OperandExpected" + expectedKind
	escaped := strings.ReplaceAll(literalText(el), "\"", "\\\"")
	return zerror.New(a.loc(op.Tok), zerror.StageSemanticElement, variant, "found:\""+escaped+"\"")
}

// retypeLiteral re-types a bare integer literal to target, leaving anything
// else (a computed constant, a place) untouched. Used wherever a literal
// meets a concretely-typed integer from context: a let's declared type, or
// the other operand of a binary op.
func retypeLiteral(f frame, target element.Type) frame {
	if f.el.Constant == nil || !f.el.Constant.IsLiteral || f.el.Constant.Integer == nil {
		return f
	}
	if !isInteger(target) {
		return f
	}
	c := *f.el.Constant
	c.Type = target
	return frame{el: element.FromConstant(c)}
}

// reconcileLiteralOperands lets a bare literal on either side of a binary
// op adopt the other side's concrete integer type before the operator's
// same-type check runs, e.g. `x + 1` where x: u64 and `1` defaulted to u8.
func reconcileLiteralOperands(left, right frame) (frame, frame) {
	lLit := left.el.Constant != nil && left.el.Constant.IsLiteral
	rLit := right.el.Constant != nil && right.el.Constant.IsLiteral
	switch {
	case lLit && !rLit:
		return retypeLiteral(left, right.el.ResolvedType()), right
	case rLit && !lLit:
		return left, retypeLiteral(right, left.el.ResolvedType())
	default:
		return left, right
	}
}

func isInteger(t element.Type) bool {
	switch t.(type) {
	case element.IntegerUnsigned, element.IntegerSigned, element.Field:
		return true
	default:
		return false
	}
}

func isBoolean(t element.Type) bool {
	_, ok := t.(element.Boolean)
	return ok
}

func (a *Analyzer) analyzeBinary(left, right frame, op *ast.Operator) (frame, *zerror.Error) {
	switch op.Kind {
	case ast.OpOr, ast.OpAnd, ast.OpXor:
		if !isBoolean(left.el.ResolvedType()) {
			return frame{}, a.operandError(op, 1, left.el, "Boolean")
		}
		if !isBoolean(right.el.ResolvedType()) {
			return frame{}, a.operandError(op, 2, right.el, "Boolean")
		}
		if left.el.Constant != nil && right.el.Constant != nil {
			return frame{el: element.FromConstant(element.NewBooleanConstant(
				foldBoolean(op.Kind, left.el.Constant.Boolean, right.el.Constant.Boolean)))}, nil
		}
		a.emitRuntimeBinary(left, right, boolOpcode(op.Kind))
		return frame{el: element.FromType(element.Boolean{}), emitted: true}, nil

	case ast.OpEq, ast.OpNe:
		left, right = reconcileLiteralOperands(left, right)
		if !isPrimitive(left.el.ResolvedType()) {
			return frame{}, a.operandError(op, 1, left.el, "PrimitiveType")
		}
		if !isPrimitive(right.el.ResolvedType()) {
			return frame{}, a.operandError(op, 2, right.el, "PrimitiveType")
		}
		if !sameKind(left.el.ResolvedType(), right.el.ResolvedType()) {
			return frame{}, a.operandError(op, 2, right.el, sameKindLabel(left.el.ResolvedType()))
		}
		if !element.Equal(left.el.ResolvedType(), right.el.ResolvedType()) {
			return frame{}, a.operandError(op, 2, right.el, "SameType")
		}
		if left.el.Constant != nil && right.el.Constant != nil {
			eq := foldEquals(left.el.Constant, right.el.Constant)
			if op.Kind == ast.OpNe {
				eq = !eq
			}
			return frame{el: element.FromConstant(element.NewBooleanConstant(eq))}, nil
		}
		a.emitRuntimeBinary(left, right, map[ast.OperatorKind]string{ast.OpEq: "eq", ast.OpNe: "ne"}[op.Kind])
		return frame{el: element.FromType(element.Boolean{}), emitted: true}, nil

	case ast.OpGe, ast.OpLe, ast.OpGt, ast.OpLt:
		if !isInteger(left.el.ResolvedType()) {
			return frame{}, a.operandError(op, 1, left.el, "Integer")
		}
		if !isInteger(right.el.ResolvedType()) {
			return frame{}, a.operandError(op, 2, right.el, "Integer")
		}
		if left.el.Constant != nil && right.el.Constant != nil {
			return frame{el: element.FromConstant(element.NewBooleanConstant(
				foldComparison(op.Kind, left.el.Constant.Integer, right.el.Constant.Integer)))}, nil
		}
		a.emitRuntimeBinary(left, right, comparisonOpcode(op.Kind))
		return frame{el: element.FromType(element.Boolean{}), emitted: true}, nil

	case ast.OpBitOr, ast.OpBitXor, ast.OpBitAnd, ast.OpBitShl, ast.OpBitShr:
		if !isInteger(left.el.ResolvedType()) {
			return frame{}, a.operandError(op, 1, left.el, "Integer")
		}
		if !isInteger(right.el.ResolvedType()) {
			return frame{}, a.operandError(op, 2, right.el, "Integer")
		}
		left, right = reconcileLiteralOperands(left, right)
		resultType := left.el.ResolvedType()
		if left.el.Constant != nil && right.el.Constant != nil {
			return frame{el: element.FromConstant(element.NewIntegerConstant(resultType,
				foldBitwise(op.Kind, left.el.Constant.Integer, right.el.Constant.Integer)))}, nil
		}
		a.emitRuntimeBinary(left, right, bitwiseOpcode(op.Kind))
		return frame{el: element.FromType(resultType), emitted: true}, nil

	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpRem:
		if !isInteger(left.el.ResolvedType()) {
			return frame{}, a.operandError(op, 1, left.el, "Integer")
		}
		if !isInteger(right.el.ResolvedType()) {
			return frame{}, a.operandError(op, 2, right.el, "Integer")
		}
		left, right = reconcileLiteralOperands(left, right)
		if !element.Equal(left.el.ResolvedType(), right.el.ResolvedType()) {
			return frame{}, a.operandError(op, 2, right.el, "SameType")
		}
		resultType := left.el.ResolvedType()
		if left.el.Constant != nil && right.el.Constant != nil {
			v, err := foldArithmetic(op.Kind, left.el.Constant.Integer, right.el.Constant.Integer, a, op)
			if err != nil {
				return frame{}, err
			}
			return frame{el: element.FromConstant(element.NewIntegerConstant(resultType, v))}, nil
		}
		a.emitRuntimeBinary(left, right, arithmeticOpcode(op.Kind))
		return frame{el: element.FromType(resultType), emitted: true}, nil

	case ast.OpRange, ast.OpRangeInclusive:
		if !isInteger(left.el.ResolvedType()) {
			return frame{}, a.operandError(op, 1, left.el, "Integer")
		}
		if !isInteger(right.el.ResolvedType()) {
			return frame{}, a.operandError(op, 2, right.el, "Integer")
		}
		// for-loop iteration counts are only known at compile time for
		// constant bounds; a runtime-valued range carries nil Lower/Upper and
		// analyzeFor falls back to an unbounded-iterations marker.
		var lower, upper *big.Int
		if left.el.Constant != nil && right.el.Constant != nil {
			lower = left.el.Constant.Integer
			upper = right.el.Constant.Integer
		}
		if op.Kind == ast.OpRange {
			return frame{el: element.FromType(element.Range{Inner: left.el.ResolvedType(), Lower: lower, Upper: upper})}, nil
		}
		return frame{el: element.FromType(element.RangeInclusive{Inner: left.el.ResolvedType(), Lower: lower, Upper: upper})}, nil

	default:
		return frame{}, zerror.New(a.loc(op.Tok), zerror.StageSemanticElement, "UnsupportedOperator", opName(op.Kind))
	}
}

func (a *Analyzer) emitRuntimeBinary(left, right frame, op string) {
	a.materializeFrame(left, nil)
	a.materializeFrame(right, nil)
	a.gen.Binary(op, zerror.Location{File: a.file})
}

func boolOpcode(k ast.OperatorKind) string {
	switch k {
	case ast.OpOr:
		return "or"
	case ast.OpAnd:
		return "and"
	default:
		return "xor"
	}
}
func comparisonOpcode(k ast.OperatorKind) string {
	switch k {
	case ast.OpGe:
		return "ge"
	case ast.OpLe:
		return "le"
	case ast.OpGt:
		return "gt"
	default:
		return "lt"
	}
}
func bitwiseOpcode(k ast.OperatorKind) string {
	switch k {
	case ast.OpBitOr:
		return "or"
	case ast.OpBitXor:
		return "xor"
	case ast.OpBitAnd:
		return "and"
	case ast.OpBitShl:
		return "shl"
	default:
		return "shr"
	}
}
func arithmeticOpcode(k ast.OperatorKind) string {
	switch k {
	case ast.OpAdd:
		return "add"
	case ast.OpSub:
		return "sub"
	case ast.OpMul:
		return "mul"
	case ast.OpDiv:
		return "div"
	default:
		return "rem"
	}
}

func foldBoolean(k ast.OperatorKind, l, r bool) bool {
	switch k {
	case ast.OpOr:
		return l || r
	case ast.OpAnd:
		return l && r
	default:
		return l != r
	}
}

func foldEquals(l, r *element.Constant) bool {
	if l.Integer != nil && r.Integer != nil {
		return l.Integer.Cmp(r.Integer) == 0
	}
	if l.Str != "" || r.Str != "" {
		return l.Str == r.Str
	}
	return l.Boolean == r.Boolean
}

func foldComparison(k ast.OperatorKind, l, r *big.Int) bool {
	c := l.Cmp(r)
	switch k {
	case ast.OpGe:
		return c >= 0
	case ast.OpLe:
		return c <= 0
	case ast.OpGt:
		return c > 0
	default:
		return c < 0
	}
}

func foldBitwise(k ast.OperatorKind, l, r *big.Int) *big.Int {
	switch k {
	case ast.OpBitOr:
		return new(big.Int).Or(l, r)
	case ast.OpBitXor:
		return new(big.Int).Xor(l, r)
	case ast.OpBitAnd:
		return new(big.Int).And(l, r)
	case ast.OpBitShl:
		return new(big.Int).Lsh(l, uint(r.Uint64()))
	default:
		return new(big.Int).Rsh(l, uint(r.Uint64()))
	}
}

func foldArithmetic(k ast.OperatorKind, l, r *big.Int, a *Analyzer, op *ast.Operator) (*big.Int, *zerror.Error) {
	switch k {
	case ast.OpAdd:
		return new(big.Int).Add(l, r), nil
	case ast.OpSub:
		return new(big.Int).Sub(l, r), nil
	case ast.OpMul:
		return new(big.Int).Mul(l, r), nil
	case ast.OpDiv:
		if r.Sign() == 0 {
			return nil, zerror.New(a.loc(op.Tok), zerror.StageSemanticElement, "ConstantOperatorDivisionZeroDivision", "")
		}
		return new(big.Int).Quo(l, r), nil
	default:
		if r.Sign() == 0 {
			return nil, zerror.New(a.loc(op.Tok), zerror.StageSemanticElement, "ConstantOperatorRemainderZeroDivision", "")
		}
		return new(big.Int).Rem(l, r), nil
	}
}

func (a *Analyzer) analyzeNot(operand frame, op *ast.Operator) (frame, *zerror.Error) {
	if !isBoolean(operand.el.ResolvedType()) {
		return frame{}, a.operandError(op, 1, operand.el, "Boolean")
	}
	if operand.el.Constant != nil {
		return frame{el: element.FromConstant(element.NewBooleanConstant(!operand.el.Constant.Boolean))}, nil
	}
	a.materializeFrame(operand, nil)
	a.gen.Not(a.loc(op.Tok))
	return frame{el: element.FromType(element.Boolean{}), emitted: true}, nil
}

func (a *Analyzer) analyzeNeg(operand frame, op *ast.Operator) (frame, *zerror.Error) {
	if !isInteger(operand.el.ResolvedType()) {
		return frame{}, a.operandError(op, 1, operand.el, "Integer")
	}
	if operand.el.Constant != nil {
		return frame{el: element.FromConstant(element.NewIntegerConstant(
			operand.el.Constant.Type, new(big.Int).Neg(operand.el.Constant.Integer)))}, nil
	}
	a.materializeFrame(operand, nil)
	a.gen.Neg(a.loc(op.Tok))
	return frame{el: element.FromType(operand.el.ResolvedType()), emitted: true}, nil
}

func (a *Analyzer) analyzeCast(operand frame, op *ast.Operator) (frame, *zerror.Error) {
	// An enum's discriminant is an unsigned integer by construction (see
	// resolveEnum/minimalBitlengthForEnum), so casting the enum value out to
	// an explicit integer type is as valid a source as any IntegerUnsigned/
	// IntegerSigned/Field operand, even though isInteger (used by the
	// arithmetic/bitwise operators, where bare enum values should not
	// participate directly) excludes Enumeration.
	_, isEnum := operand.el.ResolvedType().(element.Enumeration)
	if !isInteger(operand.el.ResolvedType()) && !isEnum {
		return frame{}, a.operandError(op, 1, operand.el, "Integer")
	}
	target, err := a.resolveType(op.Type, a.root)
	if err != nil {
		return frame{}, err
	}
	if operand.el.Constant != nil {
		return frame{el: element.FromConstant(element.NewIntegerConstant(target, operand.el.Constant.Integer))}, nil
	}
	a.materializeFrame(operand, nil)
	a.gen.Cast(a.loc(op.Tok))
	return frame{el: element.FromType(target), emitted: true}, nil
}

func (a *Analyzer) analyzeIndex(base, index frame, op *ast.Operator) (frame, *zerror.Error) {
	// Indexing a Merkle-tree-map storage field passes the key straight
	// through to StorageLoad/StorageStore instead of computing an array
	// offset: the field has no fixed base address to load first.
	if base.el.Place != nil && base.el.Place.IsMTreeMap {
		a.materializeFrame(index, nil)
		place := element.Place{
			Identifier: base.el.Place.Identifier,
			Type:       base.el.Place.Type,
			Address:    base.el.Place.Address,
			IsMutable:  base.el.Place.IsMutable,
			IsStorage:  true,
			IsMTreeMap: true,
		}
		return frame{el: element.FromPlace(place)}, nil
	}
	arr, ok := base.el.ResolvedType().(element.Array)
	if !ok {
		return frame{}, a.operandError(op, 1, base.el, "Array")
	}
	if !isInteger(index.el.ResolvedType()) {
		return frame{}, a.operandError(op, 2, index.el, "Integer")
	}
	if base.el.Place != nil && index.el.Constant != nil {
		offset := int(index.el.Constant.Integer.Int64()) * arr.Inner.Size()
		place := element.Place{
			Identifier: base.el.Place.Identifier,
			Type:       arr.Inner,
			Address:    base.el.Place.Address + offset,
			IsMutable:  base.el.Place.IsMutable,
			IsStorage:  base.el.Place.IsStorage,
			IsMTreeMap: base.el.Place.IsMTreeMap,
		}
		return frame{el: element.FromPlace(place)}, nil
	}
	addr := 0
	if base.el.Place != nil {
		addr = base.el.Place.Address
	}
	a.materializeFrame(index, nil)
	a.gen.LoadByIndex(addr, arr.Inner.Size(), a.loc(op.Tok))
	return frame{el: element.FromType(arr.Inner), emitted: true}, nil
}

func (a *Analyzer) analyzeField(base frame, op *ast.Operator, sc *scope.Scope) (frame, *zerror.Error) {
	if base.el.Place == nil && base.el.Constant == nil {
		if en, ok := base.el.Type.(element.Enumeration); ok {
			for _, v := range en.Variants {
				if v.Name == op.Field {
					val := element.NewIntegerConstant(en, big.NewInt(v.Value))
					return frame{el: element.FromConstant(val)}, nil
				}
			}
			return frame{}, zerror.New(a.loc(op.Tok), zerror.StageSemanticScope, "ItemUndeclared", op.Field)
		}
	}
	if base.el.Place != nil {
		st, ok := base.el.Place.Type.(element.Structure)
		if !ok {
			return frame{}, a.operandError(op, 1, base.el, "Structure")
		}
		offset := 0
		var fieldType element.Type
		found := false
		for _, f := range st.Fields {
			if f.Name == op.Field {
				fieldType = f.Type
				found = true
				break
			}
			offset += f.Type.Size()
		}
		if !found {
			return frame{}, zerror.New(a.loc(op.Tok), zerror.StageSemanticElement, "Value::StructureFieldDoesNotExist", op.Field)
		}
		place := element.Place{
			Identifier: base.el.Place.Identifier + "." + op.Field,
			Type:       fieldType,
			Address:    base.el.Place.Address + offset,
			IsMutable:  base.el.Place.IsMutable,
			IsStorage:  base.el.Place.IsStorage,
			IsMTreeMap: base.el.Place.IsMTreeMap,
		}
		return frame{el: element.FromPlace(place)}, nil
	}
	return frame{}, a.operandError(op, 1, base.el, "Structure")
}

func (a *Analyzer) analyzeCall(callee, args frame, op *ast.Operator, sc *scope.Scope) (frame, *zerror.Error) {
	if !callee.isFunc {
		return frame{}, a.operandError(op, 1, callee.el, "Function")
	}
	fi, ok := a.funcs[callee.funcName]
	if !ok {
		return frame{}, zerror.New(a.loc(op.Tok), zerror.StageSemanticScope, "ItemUndeclared", callee.funcName)
	}
	// Each argument was already materialized (Push/Load emitted) by
	// analyzeOperand's OperandList case; calling materialize again here
	// would double-emit every argument's instructions.
	inputSize := 0
	for _, arg := range args.args {
		inputSize += arg.ResolvedType().Size()
	}
	a.gen.Call(fi.uniqueID, inputSize, a.loc(op.Tok))
	retType, err := a.resolveFnSignature(fi.stmt, sc)
	if err != nil {
		return frame{}, err
	}
	return frame{el: element.FromType(retType.(element.Function).Return), emitted: true}, nil
}

func (a *Analyzer) analyzeArrayRepeat(elem, count frame, op *ast.Operator) (frame, *zerror.Error) {
	if count.el.Constant == nil || count.el.Constant.Integer == nil {
		return frame{}, a.operandError(op, 2, count.el, "ConstantInteger")
	}
	size := int(count.el.Constant.Integer.Int64())
	for i := 0; i < size; i++ {
		a.materializeFrame(elem, nil)
	}
	return frame{el: element.FromType(element.Array{Inner: elem.el.ResolvedType(), Length: size}), emitted: true}, nil
}

// analyzeConditional lowers `if cond { then } [else { ... } | else if ...]`
// to If/Else/EndIf: the If's Offset skips to the first else instruction (or
// to just past EndIf when there's no else) on a false condition; the Else's
// Offset skips the else body once the then-branch has run to completion.
func (a *Analyzer) analyzeConditional(op *ast.OperandConditional, sc *scope.Scope) (element.Type, *zerror.Error) {
	cond, err := a.analyzeExpression(op.Condition, sc)
	if err != nil {
		return nil, err
	}
	if !isBoolean(cond.ResolvedType()) {
		return nil, zerror.New(a.loc(op.Tok), zerror.StageSemanticConditional,
			"ConditionalExpectedBooleanCondition", "found "+cond.ResolvedType().String())
	}
	a.materialize(cond, sc)
	loc := a.loc(op.Tok)

	ifIndex := a.gen.If(loc)
	thenType, err := a.analyzeBlock(op.ThenBlock, sc)
	if err != nil {
		return nil, err
	}

	hasElse := op.ElseBlock != nil || op.ElseIf != nil
	var elseIndex int
	if hasElse {
		elseIndex = a.gen.Else(loc)
	}

	resultType := thenType
	if op.ElseBlock != nil {
		elseType, err := a.analyzeBlock(op.ElseBlock, sc)
		if err != nil {
			return nil, err
		}
		if !element.Equal(thenType, elseType) {
			return nil, zerror.New(a.loc(op.Tok), zerror.StageSemanticConditional,
				"ConditionalBranchTypesMismatch", thenType.String()+" vs "+elseType.String())
		}
	} else if op.ElseIf != nil {
		if _, err := a.analyzeConditional(op.ElseIf, sc); err != nil {
			return nil, err
		}
	}

	a.gen.EndIf(loc)
	afterEndIf := a.gen.BC.NextIndex()
	if hasElse {
		a.gen.PatchJump(ifIndex, elseIndex+1)
		a.gen.PatchJump(elseIndex, afterEndIf)
	} else {
		a.gen.PatchJump(ifIndex, afterEndIf)
	}

	return resultType, nil
}

// isWildcardPattern reports whether expr is the bare `_` arm pattern: `_`
// lexes as a plain identifier (isLetter accepts '_'), so a wildcard arm is
// indistinguishable from a one-element identifier expression except by name.
func isWildcardPattern(expr ast.Expression) bool {
	if len(expr) != 1 {
		return false
	}
	id, ok := expr[0].Operand.(*ast.OperandIdentifier)
	return ok && id.Name == "_"
}

// analyzeMatch lowers `match subject { p1 => v1, p2 => v2, ..., _ => vn }` to
// a chain of equality tests guarded by If/Else/EndIf: the subject is
// evaluated once, then duplicated (Copy) ahead of every non-final,
// non-wildcard arm's comparison so the original survives for the next arm
// if this one doesn't match. The wildcard/last arm skips the comparison
// entirely (partly because `_` would otherwise resolve as an undeclared
// identifier) and just consumes the subject unconditionally.
func (a *Analyzer) analyzeMatch(op *ast.OperandMatch, sc *scope.Scope) (element.Type, *zerror.Error) {
	subject, err := a.analyzeExpression(op.Subject, sc)
	if err != nil {
		return nil, err
	}
	a.materialize(subject, sc)
	if len(op.Arms) == 0 {
		return element.Unit{}, nil
	}
	return a.analyzeMatchArm(op.Arms, 0, sc, a.loc(op.Tok))
}

func (a *Analyzer) analyzeMatchArm(arms []ast.MatchArm, idx int, sc *scope.Scope, loc zerror.Location) (element.Type, *zerror.Error) {
	arm := arms[idx]
	armScope := scope.New(sc)
	a.scopesByID[armScope.ID] = armScope

	if idx == len(arms)-1 || isWildcardPattern(arm.Pattern) {
		a.gen.Pop(loc)
		valType, verr := a.analyzeExpression(arm.Value, armScope)
		if verr != nil {
			return nil, verr
		}
		a.materialize(valType, armScope)
		return valType.ResolvedType(), nil
	}

	a.gen.Copy(loc)
	patEl, perr := a.analyzeExpression(arm.Pattern, armScope)
	if perr != nil {
		return nil, perr
	}
	a.materialize(patEl, armScope)
	a.gen.Binary("eq", loc)
	ifIndex := a.gen.If(loc)

	a.gen.Pop(loc)
	valType, verr := a.analyzeExpression(arm.Value, armScope)
	if verr != nil {
		return nil, verr
	}
	a.materialize(valType, armScope)

	elseIndex := a.gen.Else(loc)
	restType, rerr := a.analyzeMatchArm(arms, idx+1, sc, loc)
	if rerr != nil {
		return nil, rerr
	}
	a.gen.EndIf(loc)
	afterEndIf := a.gen.BC.NextIndex()
	a.gen.PatchJump(ifIndex, elseIndex+1)
	a.gen.PatchJump(elseIndex, afterEndIf)

	if !element.Equal(valType.ResolvedType(), restType) {
		return nil, zerror.New(loc, zerror.StageSemanticMatch, "MatchBranchTypesMismatch",
			valType.ResolvedType().String()+" vs "+restType.String())
	}
	return valType.ResolvedType(), nil
}

func (a *Analyzer) analyzeStructureLiteral(op *ast.OperandStructure, sc *scope.Scope) (element.Type, *zerror.Error) {
	it, err := a.resolvePathItem(op.Path, sc, a.loc(op.Tok))
	if err != nil {
		return nil, err
	}
	t, err := it.Define(a.resolveItem)
	if err != nil {
		return nil, err
	}
	st, ok := t.(element.Structure)
	if !ok {
		return nil, zerror.New(a.loc(op.Tok), zerror.StageSemanticElement, "Value::OperatorStructureFirstOperandExpectedStructure", "")
	}
	for _, f := range op.Fields {
		el, ferr := a.analyzeExpression(f.Value, sc)
		if ferr != nil {
			return nil, ferr
		}
		a.materialize(el, sc)
	}
	return st, nil
}
