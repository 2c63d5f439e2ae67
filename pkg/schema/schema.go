package schema

import (
	"fmt"
	"strings"
)

// Snapshot is one version's complete schema tree
type Snapshot struct {
	Version  string
	Messages []Message
	Enums    []Enum
}

// Message represents a message with its fields, nested types and oneofs
type Message struct {
	Name     string
	Fields   []Field // declaration order
	Messages []Message
	Enums    []Enum
	// MapEntry marks the synthetic entry type behind a map field
	MapEntry bool
}

// Field is a field as declared in one version
type Field struct {
	Name        string
	Number      int32
	Type        TypeRef
	Cardinality Cardinality
	Oneof       string // empty when the field is not in a oneof
	Map         *MapType
}

// MapType holds the key and value types of a map field
type MapType struct {
	Key   TypeRef
	Value TypeRef
}

// Enum represents an enum with ordered values
type Enum struct {
	Name   string
	Values []EnumValue
}

// EnumValue represents an enum value
type EnumValue struct {
	Name   string
	Number int32
}

// Oneof is a named group of mutually exclusive fields within one message version
type Oneof struct {
	Name    string
	Numbers []int32
}

// Kind represents the protobuf field kind
type Kind int

const (
	KindUnknown Kind = iota
	KindDouble
	KindFloat
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindSint32
	KindSint64
	KindFixed32
	KindFixed64
	KindSfixed32
	KindSfixed64
	KindBool
	KindString
	KindBytes
	KindMessage
	KindEnum
)

var kindNames = []string{
	"unknown", "double", "float", "int32", "int64", "uint32", "uint64",
	"sint32", "sint64", "fixed32", "fixed64", "sfixed32", "sfixed64",
	"bool", "string", "bytes", "message", "enum",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind parses a kind name such as "int32" or "message"
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == strings.ToLower(s) {
			return Kind(i), nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown field kind: %s", s)
}

// IsInteger reports whether the kind is one of the integer scalar kinds
func (k Kind) IsInteger() bool {
	return k >= KindInt32 && k <= KindSfixed64
}

// IsScalar reports whether the kind is a primitive scalar, bytes and string included
func (k Kind) IsScalar() bool {
	return k >= KindDouble && k <= KindBytes
}

// Cardinality represents how many values a field holds and whether presence is tracked
type Cardinality int

const (
	// CardinalitySingular is an implicit-presence field that always reads a value
	CardinalitySingular Cardinality = iota
	CardinalityOptional
	CardinalityRequired
	CardinalityRepeated
)

func (c Cardinality) String() string {
	return []string{"singular", "optional", "required", "repeated"}[c]
}

// TypeRef describes the type of a field: a scalar kind, or a reference to a named message or enum
type TypeRef struct {
	Kind Kind
	// Name is the message or enum path relative to the package, e.g. "Order.Status"
	Name string
}

// Scalar returns a TypeRef for a primitive kind
func Scalar(k Kind) TypeRef {
	return TypeRef{Kind: k}
}

// MessageType returns a TypeRef referencing a message by path
func MessageType(name string) TypeRef {
	return TypeRef{Kind: KindMessage, Name: name}
}

// EnumType returns a TypeRef referencing an enum by path
func EnumType(name string) TypeRef {
	return TypeRef{Kind: KindEnum, Name: name}
}

// IsNamed reports whether the type references a message or enum
func (t TypeRef) IsNamed() bool {
	return t.Kind == KindMessage || t.Kind == KindEnum
}

func (t TypeRef) String() string {
	if t.IsNamed() {
		return t.Name
	}
	return t.Kind.String()
}

// SimpleName returns the last path element of a named type
func (t TypeRef) SimpleName() string {
	return SimpleName(t.Name)
}

// SimpleName returns the last element of a dotted path
func SimpleName(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

// JoinPath joins a parent path and a child name with a dot
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// IsMap reports whether the field is a map field
func (f Field) IsMap() bool {
	return f.Map != nil
}

// IsRepeated reports whether the field holds a sequence of values; map fields count as repeated
func (f Field) IsRepeated() bool {
	return f.Cardinality == CardinalityRepeated
}

// ExportedName returns the identifier-safe name of the field
func (f Field) ExportedName() string {
	return ExportedName(f.Name)
}

// ExportedName converts a snake_case proto name to an exported identifier,
// e.g. "parent_order" becomes "ParentOrder"
func ExportedName(protoName string) string {
	var b strings.Builder
	upper := true
	for _, r := range protoName {
		if r == '_' || r == '.' || r == '-' {
			upper = true
			continue
		}
		if upper && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		upper = r >= '0' && r <= '9'
		b.WriteRune(r)
	}
	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "X" + name
	}
	return name
}

// Field returns the field with the given number, or nil
func (m *Message) Field(number int32) *Field {
	for i := range m.Fields {
		if m.Fields[i].Number == number {
			return &m.Fields[i]
		}
	}
	return nil
}

// FieldByName returns the field with the given proto name, or nil
func (m *Message) FieldByName(name string) *Field {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// Message returns the directly nested message with the given name, or nil
func (m *Message) Message(name string) *Message {
	for i := range m.Messages {
		if m.Messages[i].Name == name {
			return &m.Messages[i]
		}
	}
	return nil
}

// Enum returns the directly nested enum with the given name, or nil
func (m *Message) Enum(name string) *Enum {
	for i := range m.Enums {
		if m.Enums[i].Name == name {
			return &m.Enums[i]
		}
	}
	return nil
}

// Oneofs returns the oneof groups of the message in order of first member declaration
func (m *Message) Oneofs() []Oneof {
	var groups []Oneof
	index := make(map[string]int)
	for _, f := range m.Fields {
		if f.Oneof == "" {
			continue
		}
		i, ok := index[f.Oneof]
		if !ok {
			i = len(groups)
			index[f.Oneof] = i
			groups = append(groups, Oneof{Name: f.Oneof})
		}
		groups[i].Numbers = append(groups[i].Numbers, f.Number)
	}
	return groups
}

// Value returns the enum value with the given number, or nil
func (e *Enum) Value(number int32) *EnumValue {
	for i := range e.Values {
		if e.Values[i].Number == number {
			return &e.Values[i]
		}
	}
	return nil
}

// FindMessage resolves a dotted message path such as "Order.Item"
func (s *Snapshot) FindMessage(path string) *Message {
	parts := strings.Split(path, ".")
	var cur *Message
	for i := range s.Messages {
		if s.Messages[i].Name == parts[0] {
			cur = &s.Messages[i]
			break
		}
	}
	for _, part := range parts[1:] {
		if cur == nil {
			return nil
		}
		cur = cur.Message(part)
	}
	return cur
}

// FindEnum resolves a dotted enum path; a single element names a top-level enum
func (s *Snapshot) FindEnum(path string) *Enum {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		for j := range s.Enums {
			if s.Enums[j].Name == path {
				return &s.Enums[j]
			}
		}
		return nil
	}
	parent := s.FindMessage(path[:i])
	if parent == nil {
		return nil
	}
	return parent.Enum(path[i+1:])
}
