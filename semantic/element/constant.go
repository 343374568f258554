package element

import "math/big"

// Constant is a compile-time-known value produced by constant folding.
// Grounded on zinc-compiler's semantic/element/constant module: every
// scalar constant carries both its value and its Type so later arithmetic
// can check bitwidth/signedness without re-deriving it.
type Constant struct {
	Type    Type
	Integer *big.Int // valid for IntegerUnsigned/IntegerSigned/Field/Enumeration
	Boolean bool      // valid for Boolean
	Str     string    // valid for String

	// IsLiteral marks a bare numeric literal straight out of the lexer
	// (`5`, not `x + 1`): its IntegerUnsigned type (the smallest width that
	// holds the value, at least 8 bits) is a placeholder the analyzer is free
	// to re-type to whatever integer type the surrounding
	// context (a let's declared type, the other operand of a binary op)
	// demands, mirroring how the original language infers literal widths.
	IsLiteral bool
}

func NewIntegerConstant(t Type, v *big.Int) Constant {
	return Constant{Type: t, Integer: v}
}

func NewBooleanConstant(v bool) Constant {
	return Constant{Type: Boolean{}, Boolean: v}
}

func NewStringConstant(v string) Constant {
	return Constant{Type: String{}, Str: v}
}

// MinimalUnsignedBitlength returns the smallest power-of-two-aligned bit
// width (from the fixed ladder 1,8,16,32,64,128,248) that can hold every
// value in vs, mirroring IntegerConstant::minimal_bitlength_bigints — used
// to size an enum's backing integer from its discriminant set.
func MinimalUnsignedBitlength(vs []*big.Int) int {
	ladder := []int{1, 8, 16, 32, 64, 128, 248}
	max := big.NewInt(0)
	for _, v := range vs {
		if v.CmpAbs(max) > 0 {
			max = v
		}
	}
	for _, bits := range ladder {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		if max.Cmp(limit) < 0 {
			return bits
		}
	}
	return 248
}
