// Package scope implements name resolution and the lazy, memoized
// type-resolution state machine. Grounded on zinc-compiler's
// semantic/scope/item/type/mod.rs: each declared item starts as Declared
// (holding its unresolved ast.Statement) and becomes Defined (holding its
// resolved element.Type) the first time something forces it; a second,
// concurrent forcing of an item still being resolved is a reference loop.
package scope

import (
	"github.com/codeassociates/zincc/ast"
	"github.com/codeassociates/zincc/semantic/element"
	"github.com/codeassociates/zincc/zerror"
)

var nextItemID int

func allocItemID() int {
	nextItemID++
	return nextItemID
}

type stateKind int

const (
	stateDeclared stateKind = iota
	stateDefined
)

type state struct {
	kind        stateKind
	declStmt    ast.Statement
	declScope   *Scope
	definedType element.Type
}

// Item is one name binding. state is taken (set to nil) while resolution of
// this item is in progress and put back once resolution completes; finding
// it nil on re-entry is exactly the "currently resolving, called itself"
// case the original's RefCell<Option<State>>.take() catches.
type Item struct {
	Name      string
	ItemID    int
	Loc       zerror.Location
	state     *state
	isBuiltin bool
}

// NewDeclaredItem registers a name whose type has not yet been resolved.
func NewDeclaredItem(name string, loc zerror.Location, stmt ast.Statement, declScope *Scope) *Item {
	return &Item{
		Name:   name,
		ItemID: allocItemID(),
		Loc:    loc,
		state:  &state{kind: stateDeclared, declStmt: stmt, declScope: declScope},
	}
}

// NewBuiltinItem registers an already-typed item with no declaration to
// resolve lazily (`u8`, `bool`, `Self`, function parameters, locals).
func NewBuiltinItem(name string, t element.Type) *Item {
	return &Item{
		Name:      name,
		ItemID:    allocItemID(),
		state:     &state{kind: stateDefined, definedType: t},
		isBuiltin: true,
	}
}

// Resolver resolves a Declared item's statement into its semantic Type. The
// analyzer supplies this to break the scope/semantic-analyzer import cycle.
type Resolver func(stmt ast.Statement, declScope *Scope) (element.Type, *zerror.Error)

// Define forces this item to its resolved Type, memoizing the result so a
// second call is free. Returns ReferenceLoop if called again while the
// first call (lower on the Go call stack) has not yet returned.
func (it *Item) Define(resolve Resolver) (element.Type, *zerror.Error) {
	taken := it.state
	it.state = nil
	if taken == nil {
		return nil, zerror.New(it.Loc, zerror.StageSemanticScope, "ReferenceLoop", it.Name)
	}

	if taken.kind == stateDefined {
		it.state = taken
		return taken.definedType, nil
	}

	typ, err := resolve(taken.declStmt, taken.declScope)
	if err != nil {
		it.state = taken // leave it Declared so a later, independent attempt can retry
		return nil, err
	}
	it.state = &state{kind: stateDefined, definedType: typ}
	return typ, nil
}

// Scope is a lexical namespace: the file root, a block, or the body scope
// of a struct/enum/contract/function.
type Scope struct {
	ID       int
	Parent   *Scope
	Items    map[string]*Item
	Children []*Scope
}

func New(parent *Scope) *Scope {
	s := &Scope{ID: allocItemID(), Parent: parent, Items: make(map[string]*Item)}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Declare inserts a new item, reporting ItemRedeclared if the name is
// already bound in this exact scope (shadowing an outer scope is allowed).
func (s *Scope) Declare(item *Item) *zerror.Error {
	if existing, ok := s.Items[item.Name]; ok {
		return zerror.New(item.Loc, zerror.StageSemanticScope, "ItemRedeclared",
			item.Name+" already declared at "+existing.Loc.String())
	}
	s.Items[item.Name] = item
	return nil
}

// DeclareSelfAlias binds "Self" to t's own item inside its own scope, as
// new_structure/new_enumeration do in the original.
func (s *Scope) DeclareSelfAlias(t element.Type) {
	s.Items["Self"] = NewBuiltinItem("Self", t)
}

// Resolve walks outward from s looking for name, as a plain (non-path)
// identifier lookup.
func (s *Scope) Resolve(name string) (*Item, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if it, ok := cur.Items[name]; ok {
			return it, true
		}
	}
	return nil, false
}

// ResolvePath resolves a dotted/`::`-separated path, descending into a
// namespace's own Scope at each step (e.g. "Suit::Self" first resolves
// "Suit" to its Enumeration, then looks "Self" up in that enum's scope).
// scopeByID is supplied by the caller since a namespace's child Scope lives on
// its element.Type (ScopeID), not on the scope.Item itself.
func (s *Scope) ResolvePath(path []string, scopeByID func(id int) *Scope) (*Item, *zerror.Error) {
	if len(path) == 0 {
		return nil, nil
	}
	it, ok := s.Resolve(path[0])
	if !ok {
		return nil, zerror.New(zerror.Location{}, zerror.StageSemanticScope, "ItemUndeclared", path[0])
	}
	cur := s
	for _, seg := range path[1:] {
		if it.state == nil || it.state.kind != stateDefined {
			return nil, zerror.New(it.Loc, zerror.StageSemanticScope, "ReferenceLoop", it.Name)
		}
		t := it.state.definedType
		scopeID, ok := namespaceScopeID(t)
		if !ok {
			return nil, zerror.New(it.Loc, zerror.StageSemanticScope, "ItemIsNotANamespace", it.Name)
		}
		ns := scopeByID(scopeID)
		if ns == nil {
			return nil, zerror.New(it.Loc, zerror.StageSemanticScope, "ItemIsNotANamespace", it.Name)
		}
		cur = ns
		next, ok := cur.Items[seg]
		if !ok {
			return nil, zerror.New(it.Loc, zerror.StageSemanticScope, "ItemUndeclared", seg)
		}
		it = next
	}
	return it, nil
}

func namespaceScopeID(t element.Type) (int, bool) {
	switch v := t.(type) {
	case element.Structure:
		return v.ScopeID, true
	case element.Enumeration:
		return v.ScopeID, true
	default:
		return 0, false
	}
}
