package conflict

import (
	"fmt"
	"strings"
)

// Type is the closed taxonomy of per-field mismatches between versions
type Type int

const (
	None Type = iota
	IntEnum
	EnumEnum
	Widening
	FloatDouble
	SignedUnsigned
	RepeatedSingle
	Narrowing
	StringBytes
	PrimitiveMessage
	OptionalRequired
	Incompatible
)

var typeNames = []string{
	"NONE", "INT_ENUM", "ENUM_ENUM", "WIDENING", "FLOAT_DOUBLE", "SIGNED_UNSIGNED",
	"REPEATED_SINGLE", "NARROWING", "STRING_BYTES", "PRIMITIVE_MESSAGE",
	"OPTIONAL_REQUIRED", "INCOMPATIBLE",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType parses a conflict type name such as "WIDENING"
func ParseType(s string) (Type, error) {
	upper := strings.ToUpper(s)
	for i, name := range typeNames {
		if name == upper {
			return Type(i), nil
		}
	}
	return None, fmt.Errorf("unknown conflict type: %s", s)
}

// MarshalText implements encoding.TextMarshaler
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// All returns every conflict type in declaration order
func All() []Type {
	all := make([]Type, len(typeNames))
	for i := range all {
		all[i] = Type(i)
	}
	return all
}

// IsConvertible reports whether a single unified accessor can expose every version's value
func (t Type) IsConvertible() bool {
	switch t {
	case EnumEnum, PrimitiveMessage, Incompatible:
		return false
	default:
		return true
	}
}

// SkipMutator reports whether the unified setter must be withheld because no single
// target type can legally receive every version's representation
func (t Type) SkipMutator() bool {
	return t != None && t != OptionalRequired
}

// IsWidening reports whether the conflict is a loss-free value conversion.
// These are the type changes that do not break existing readers.
func (t Type) IsWidening() bool {
	switch t {
	case Widening, IntEnum, SignedUnsigned, FloatDouble:
		return true
	default:
		return false
	}
}

// Handling describes how generated code deals with a conflict
type Handling int

const (
	HandlingNative Handling = iota
	HandlingConverted
	HandlingManual
	HandlingWarning
	HandlingIncompatible
)

var handlingNames = []string{"NATIVE", "CONVERTED", "MANUAL", "WARNING", "INCOMPATIBLE"}

func (h Handling) String() string {
	if h < 0 || int(h) >= len(handlingNames) {
		return fmt.Sprintf("Handling(%d)", int(h))
	}
	return handlingNames[h]
}

// Severity is the reporting level of a conflict
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

var severityNames = []string{"INFO", "WARNING", "ERROR"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

type traits struct {
	handling Handling
	note     string
}

var typeTraits = map[Type]traits{
	None:             {HandlingNative, "Types are identical"},
	IntEnum:          {HandlingConverted, "Integer accessor with enum helpers over the synthesized conflict enum"},
	EnumEnum:         {HandlingManual, "Distinct enum types; each version keeps its own accessor"},
	Widening:         {HandlingConverted, "Unified accessor uses the wider integer type"},
	FloatDouble:      {HandlingConverted, "Unified accessor uses double"},
	SignedUnsigned:   {HandlingConverted, "Unified accessor uses int64 to hold both signed and unsigned values"},
	RepeatedSingle:   {HandlingConverted, "Unified accessor returns a sequence for every version"},
	Narrowing:        {HandlingWarning, "Potential data loss when writing the wider value into the narrower version"},
	StringBytes:      {HandlingManual, "Requires UTF-8 conversion between string and bytes"},
	PrimitiveMessage: {HandlingManual, "Scalar in some versions and message in others; each version keeps its own accessor"},
	OptionalRequired: {HandlingNative, "Same wire type; presence check available where tracked"},
	Incompatible:     {HandlingIncompatible, "Incompatible type change"},
}

// Handling returns how generated code deals with the conflict
func (t Type) Handling() Handling {
	return typeTraits[t].handling
}

// Note returns a short human-readable description of the handling
func (t Type) Note() string {
	return typeTraits[t].note
}

// Severity maps the handling onto a reporting level
func (t Type) Severity() Severity {
	switch t.Handling() {
	case HandlingNative, HandlingConverted:
		return SeverityInfo
	case HandlingManual, HandlingWarning:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// rank orders conflict types from mildest to most severe when folding versions
var rank = map[Type]int{
	None:             0,
	OptionalRequired: 1,
	RepeatedSingle:   2,
	FloatDouble:      3,
	Widening:         4,
	SignedUnsigned:   5,
	IntEnum:          6,
	StringBytes:      7,
	Narrowing:        8,
	EnumEnum:         9,
	PrimitiveMessage: 10,
	Incompatible:     11,
}

// Worst returns the more severe of two conflict types
func Worst(a, b Type) Type {
	if rank[b] > rank[a] {
		return b
	}
	return a
}
