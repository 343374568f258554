package scope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codeassociates/zincc/ast"
	"github.com/codeassociates/zincc/semantic/element"
	"github.com/codeassociates/zincc/zerror"
)

func TestResolveWalksOutward(t *testing.T) {
	root := New(nil)
	root.Items["x"] = NewBuiltinItem("x", element.IntegerUnsigned{Bitlength: 8})
	child := New(root)

	it, ok := child.Resolve("x")
	require.True(t, ok)
	require.Equal(t, "x", it.Name)

	_, ok = child.Resolve("missing")
	require.False(t, ok)
}

func TestDeclareRejectsRedeclaration(t *testing.T) {
	s := New(nil)
	item1 := NewDeclaredItem("Foo", zerror.Location{File: "a.zn"}, nil, s)
	item2 := NewDeclaredItem("Foo", zerror.Location{File: "a.zn"}, nil, s)

	require.Nil(t, s.Declare(item1))
	err := s.Declare(item2)
	require.NotNil(t, err)
	require.Equal(t, "ItemRedeclared", err.Variant)
}

func TestShadowingAcrossScopesIsAllowed(t *testing.T) {
	root := New(nil)
	outer := NewDeclaredItem("x", zerror.Location{}, nil, root)
	require.Nil(t, root.Declare(outer))

	child := New(root)
	inner := NewDeclaredItem("x", zerror.Location{}, nil, child)
	require.Nil(t, child.Declare(inner))

	it, _ := child.Resolve("x")
	require.Same(t, inner, it)
}

func TestDefineMemoizesResolvedType(t *testing.T) {
	s := New(nil)
	calls := 0
	resolve := Resolver(func(stmt ast.Statement, declScope *Scope) (element.Type, *zerror.Error) {
		calls++
		return element.IntegerUnsigned{Bitlength: 32}, nil
	})

	item := NewDeclaredItem("X", zerror.Location{}, nil, s)

	typ, err := item.Define(resolve)
	require.Nil(t, err)
	require.Equal(t, element.IntegerUnsigned{Bitlength: 32}, typ)
	require.Equal(t, 1, calls)

	// Second call is served from memoized state, resolve is not invoked again.
	typ2, err2 := item.Define(resolve)
	require.Nil(t, err2)
	require.Equal(t, typ, typ2)
	require.Equal(t, 1, calls)
}

func TestDefineReferenceLoopWhileResolving(t *testing.T) {
	s := New(nil)
	item := NewDeclaredItem("Y", zerror.Location{}, nil, s)

	var resolve Resolver
	resolve = func(stmt ast.Statement, declScope *Scope) (element.Type, *zerror.Error) {
		// Re-entrant Define call while the first is still in flight: state
		// has been taken (set nil), so this must report ReferenceLoop.
		_, err := item.Define(resolve)
		require.NotNil(t, err)
		require.Equal(t, "ReferenceLoop", err.Variant)
		return element.Unit{}, nil
	}

	_, err := item.Define(resolve)
	require.Nil(t, err)
}

func TestDefineLeavesItemDeclaredOnError(t *testing.T) {
	s := New(nil)
	item := NewDeclaredItem("Z", zerror.Location{}, nil, s)
	failing := Resolver(func(stmt ast.Statement, declScope *Scope) (element.Type, *zerror.Error) {
		return nil, zerror.New(zerror.Location{}, zerror.StageSemanticType, "SomeError", "")
	})

	_, err := item.Define(failing)
	require.NotNil(t, err)

	// A later, independent attempt can retry since state was restored.
	ok := Resolver(func(stmt ast.Statement, declScope *Scope) (element.Type, *zerror.Error) {
		return element.Boolean{}, nil
	})
	typ, err2 := item.Define(ok)
	require.Nil(t, err2)
	require.Equal(t, element.Boolean{}, typ)
}

func TestResolvePathIntoNamespace(t *testing.T) {
	root := New(nil)
	enumScope := New(root)
	en := element.Enumeration{
		Identifier: "Suit",
		Variants:   []element.EnumerationVariant{{Name: "Hearts", Value: 0}},
		ScopeID:    enumScope.ID,
	}
	suitItem := NewBuiltinItem("Suit", en)
	root.Items["Suit"] = suitItem
	enumScope.DeclareSelfAlias(en)

	scopesByID := map[int]*Scope{enumScope.ID: enumScope}
	byID := func(id int) *Scope { return scopesByID[id] }

	it, err := root.ResolvePath([]string{"Suit", "Self"}, byID)
	require.Nil(t, err)
	require.Equal(t, "Self", it.Name)
}

func TestResolvePathRejectsNonNamespace(t *testing.T) {
	root := New(nil)
	root.Items["x"] = NewBuiltinItem("x", element.IntegerUnsigned{Bitlength: 8})

	byID := func(id int) *Scope { return nil }
	_, err := root.ResolvePath([]string{"x", "y"}, byID)
	require.NotNil(t, err)
	require.Equal(t, "ItemIsNotANamespace", err.Variant)
}

func TestDeclareSelfAlias(t *testing.T) {
	s := New(nil)
	st := element.Structure{Identifier: "Point"}
	s.DeclareSelfAlias(st)

	it, ok := s.Resolve("Self")
	require.True(t, ok)
	typ, err := it.Define(nil)
	require.Nil(t, err)
	require.Equal(t, st, typ)
}
