package analyzer

import (
	"math/big"

	"github.com/codeassociates/zincc/ast"
	"github.com/codeassociates/zincc/semantic/element"
	"github.com/codeassociates/zincc/semantic/scope"
	"github.com/codeassociates/zincc/zerror"
)

// resolveType turns a syntactic TypeVariant into a semantic element.Type,
// grounded on zinc-compiler's Type::from_type_variant: references are
// rejected outright (this language never implements them), aliases resolve
// through the scope chain and force their target item's Define().
func (a *Analyzer) resolveType(tv ast.TypeVariant, sc *scope.Scope) (element.Type, *zerror.Error) {
	switch t := tv.(type) {
	case nil:
		return element.Unit{}, nil
	case *ast.TypeUnit:
		return element.Unit{}, nil
	case *ast.TypeBool:
		return element.Boolean{}, nil
	case *ast.TypeIntegerUnsigned:
		return element.IntegerUnsigned{Bitlength: t.Bitlength}, nil
	case *ast.TypeIntegerSigned:
		return element.IntegerSigned{Bitlength: t.Bitlength}, nil
	case *ast.TypeField:
		return element.Field{}, nil
	case *ast.TypeString:
		return element.String{}, nil
	case *ast.TypeReference:
		return nil, zerror.New(a.loc(t.Tok), zerror.StageSemanticType, "ReferencesNotImplemented", "")
	case *ast.TypeArray:
		elem, err := a.resolveType(t.Elem, sc)
		if err != nil {
			return nil, err
		}
		size := 0
		if t.Size != nil {
			c, _, cerr := a.analyzeConstExpression(t.Size, sc)
			if cerr != nil {
				return nil, cerr
			}
			if c.Integer != nil {
				size = int(c.Integer.Int64())
			}
		}
		return element.Array{Inner: elem, Length: size}, nil
	case *ast.TypeTuple:
		elems := make([]element.Type, len(t.Elems))
		for i, e := range t.Elems {
			r, err := a.resolveType(e, sc)
			if err != nil {
				return nil, err
			}
			elems[i] = r
		}
		return element.Tuple{Elements: elems}, nil
	case *ast.TypeAlias:
		it, err := a.resolvePathItem(t.Path, sc, a.loc(t.Tok))
		if err != nil {
			return nil, err
		}
		return it.Define(a.resolveItem)
	default:
		return nil, zerror.New(zerror.Location{File: a.file}, zerror.StageSemanticType, "UnknownTypeVariant", "")
	}
}

func (a *Analyzer) resolvePathItem(path []string, sc *scope.Scope, loc zerror.Location) (*scope.Item, *zerror.Error) {
	if len(path) == 1 {
		it, ok := sc.Resolve(path[0])
		if !ok {
			return nil, zerror.New(loc, zerror.StageSemanticScope, "ItemUndeclared", path[0])
		}
		return it, nil
	}
	it, err := sc.ResolvePath(path, a.scopeByID)
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (a *Analyzer) scopeByID(id int) *scope.Scope {
	return a.scopesByID[id]
}

// minimalBitlengthForEnum computes the enum's backing unsigned width from
// its (already-evaluated) discriminants, exactly as new_enumeration does.
func minimalBitlengthForEnum(values []*big.Int) int {
	return element.MinimalUnsignedBitlength(values)
}
