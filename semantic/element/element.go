package element

// Element is what the analyzer pushes onto its explicit stack while walking
// an ast.Expression postfix list: exactly one of Constant, Place, or a bare
// Type (used when an operand names a type, e.g. the cast target or a path
// like `Suit::Hearts` before it's reduced to a constant).
type Element struct {
	Constant *Constant
	Place    *Place
	Type     Type
}

func FromConstant(c Constant) Element { return Element{Constant: &c} }
func FromPlace(p Place) Element       { return Element{Place: &p} }
func FromType(t Type) Element         { return Element{Type: t} }

// ResolvedType returns the static Type of this element regardless of which
// variant it is.
func (e Element) ResolvedType() Type {
	switch {
	case e.Constant != nil:
		return e.Constant.Type
	case e.Place != nil:
		return e.Place.Type
	default:
		return e.Type
	}
}

func (e Element) IsConstant() bool { return e.Constant != nil }
func (e Element) IsPlace() bool    { return e.Place != nil }
