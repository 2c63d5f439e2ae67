package conflict

import (
	"github.com/platinummonkey/protomerge/pkg/schema"
)

// Shape is the part of a field declaration the classifier compares
type Shape struct {
	Type        schema.TypeRef
	Cardinality schema.Cardinality
}

// ShapeOf extracts the classifier shape of a field
func ShapeOf(f schema.Field) Shape {
	return Shape{Type: f.Type, Cardinality: f.Cardinality}
}

func (s Shape) repeated() bool {
	return s.Cardinality == schema.CardinalityRepeated
}

// Classify assigns a conflict type to the transition of a field from one declaration to another.
// Repeatedness is checked first, then the element type; an optional/required difference is only
// reported when the types agree.
func Classify(from, to Shape) Type {
	typeConflict := ClassifyTypes(from.Type, to.Type)

	if from.repeated() != to.repeated() {
		if typeConflict == None {
			return RepeatedSingle
		}
		return Incompatible
	}

	if typeConflict != None {
		return typeConflict
	}

	if (from.Cardinality == schema.CardinalityOptional) != (to.Cardinality == schema.CardinalityOptional) {
		return OptionalRequired
	}
	return None
}

// ClassifyTypes compares two element types, ignoring cardinality
func ClassifyTypes(from, to schema.TypeRef) Type {
	if from.Kind == to.Kind {
		switch from.Kind {
		case schema.KindEnum:
			if from.Name != to.Name {
				return EnumEnum
			}
		case schema.KindMessage:
			if from.Name != to.Name {
				return Incompatible
			}
		}
		return None
	}

	switch {
	case isIntEnum(from.Kind, to.Kind):
		return IntEnum
	case isStringBytes(from.Kind, to.Kind):
		return StringBytes
	case isPrimitiveMessage(from.Kind, to.Kind):
		return PrimitiveMessage
	case from.Kind == schema.KindFloat && to.Kind == schema.KindDouble:
		return FloatDouble
	case from.Kind == schema.KindDouble && to.Kind == schema.KindFloat:
		return Narrowing
	case from.Kind.IsInteger() && to.Kind.IsInteger():
		return classifyIntegers(from.Kind, to.Kind)
	}
	return Incompatible
}

type intClass struct {
	bits     int
	unsigned bool
}

var intClasses = map[schema.Kind]intClass{
	schema.KindInt32:    {32, false},
	schema.KindSint32:   {32, false},
	schema.KindSfixed32: {32, false},
	schema.KindUint32:   {32, true},
	schema.KindFixed32:  {32, true},
	schema.KindInt64:    {64, false},
	schema.KindSint64:   {64, false},
	schema.KindSfixed64: {64, false},
	schema.KindUint64:   {64, true},
	schema.KindFixed64:  {64, true},
}

func classifyIntegers(from, to schema.Kind) Type {
	f, t := intClasses[from], intClasses[to]
	switch {
	case f.bits < t.bits && !f.unsigned:
		return Widening
	case f.bits < t.bits:
		return SignedUnsigned
	case f.bits > t.bits:
		return Narrowing
	}
	// same width: signedness or wire encoding differs (int32 vs uint32, int32 vs sint32)
	return SignedUnsigned
}

func isIntEnum(a, b schema.Kind) bool {
	return (a.IsInteger() && b == schema.KindEnum) || (a == schema.KindEnum && b.IsInteger())
}

func isStringBytes(a, b schema.Kind) bool {
	return (a == schema.KindString && b == schema.KindBytes) || (a == schema.KindBytes && b == schema.KindString)
}

func isPrimitiveMessage(a, b schema.Kind) bool {
	return (a.IsScalar() && b == schema.KindMessage) || (a == schema.KindMessage && b.IsScalar())
}

// Fold classifies every later declaration against the first one and returns the most
// severe verdict. The first element is the anchor; order must be version order.
func Fold(shapes []Shape) Type {
	result := None
	if len(shapes) < 2 {
		return result
	}
	anchor := shapes[0]
	for _, s := range shapes[1:] {
		result = Worst(result, Classify(anchor, s))
	}
	return result
}

// Resolution is the unified representation chosen for a convertible conflict
type Resolution struct {
	Type     schema.TypeRef
	Repeated bool
}

// Resolve computes the unified representation for a field with the given conflict.
// It returns false when the conflict is NONE or not convertible.
func Resolve(c Type, shapes []Shape) (Resolution, bool) {
	if c == None || !c.IsConvertible() || len(shapes) == 0 {
		return Resolution{}, false
	}
	anchor := shapes[0]

	switch c {
	case Widening, SignedUnsigned:
		return Resolution{Type: schema.Scalar(schema.KindInt64), Repeated: anchor.repeated()}, true
	case FloatDouble:
		return Resolution{Type: schema.Scalar(schema.KindDouble), Repeated: anchor.repeated()}, true
	case Narrowing:
		for _, s := range shapes {
			if s.Type.Kind == schema.KindFloat || s.Type.Kind == schema.KindDouble {
				return Resolution{Type: schema.Scalar(schema.KindDouble), Repeated: anchor.repeated()}, true
			}
		}
		return Resolution{Type: schema.Scalar(schema.KindInt64), Repeated: anchor.repeated()}, true
	case IntEnum:
		kind := schema.KindInt32
		for _, s := range shapes {
			if ic, ok := intClasses[s.Type.Kind]; ok && ic.bits == 64 {
				kind = schema.KindInt64
			}
		}
		return Resolution{Type: schema.Scalar(kind), Repeated: anchor.repeated()}, true
	case StringBytes:
		return Resolution{Type: schema.Scalar(schema.KindString), Repeated: anchor.repeated()}, true
	case RepeatedSingle:
		return Resolution{Type: anchor.Type, Repeated: true}, true
	case OptionalRequired:
		return Resolution{Type: anchor.Type}, true
	}
	return Resolution{}, false
}
