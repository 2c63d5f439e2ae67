package unified

import (
	"strings"

	"github.com/platinummonkey/protomerge/pkg/schema"
)

// Schema is the merged model of every input version. It is built once per merge
// run and must be treated as read-only by consumers.
type Schema struct {
	// Versions lists version ids in merge order
	Versions []string
	// Messages holds top-level messages in order of first appearance
	Messages []*MergedMessage
	// Enums holds top-level enums in order of first appearance
	Enums []*MergedEnum
	// EquivalentEnums maps a nested enum path to the top-level enum that replaces it
	EquivalentEnums map[string]string
	// ConflictEnums maps "Message.field" to the synthesized enum for INT_ENUM fields
	ConflictEnums map[string]*ConflictEnumInfo
}

// MergedMessage is the unified identity of a message across versions
type MergedMessage struct {
	Name     string
	Path     string
	Presence []string
	Fields   []*MergedField // sorted by canonical number
	Oneofs   []*MergedOneof
	Messages []*MergedMessage
	Enums    []*MergedEnum
}

// Message resolves a dotted message path such as "Order.Item"
func (s *Schema) Message(path string) *MergedMessage {
	parts := strings.Split(path, ".")
	msgs := s.Messages
	var cur *MergedMessage
	for _, part := range parts {
		cur = nil
		for _, m := range msgs {
			if m.Name == part {
				cur = m
				break
			}
		}
		if cur == nil {
			return nil
		}
		msgs = cur.Messages
	}
	return cur
}

// Enum resolves an enum path; nested enums are addressed as "Message.Enum"
func (s *Schema) Enum(path string) *MergedEnum {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		for _, e := range s.Enums {
			if e.Name == path {
				return e
			}
		}
		return nil
	}
	parent := s.Message(path[:i])
	if parent == nil {
		return nil
	}
	return parent.Enum(path[i+1:])
}

// ResolveEnum returns the enum to generate for a reference, following nested-to-top-level equivalence
func (s *Schema) ResolveEnum(path string) *MergedEnum {
	if top, ok := s.EquivalentEnums[path]; ok {
		return s.Enum(top)
	}
	return s.Enum(path)
}

// ConflictEnum returns the synthesized enum for a field path, if any
func (s *Schema) ConflictEnum(fieldPath string) (*ConflictEnumInfo, bool) {
	info, ok := s.ConflictEnums[fieldPath]
	return info, ok
}

// HasVersion reports whether version took part in the merge
func (s *Schema) HasVersion(version string) bool {
	for _, v := range s.Versions {
		if v == version {
			return true
		}
	}
	return false
}

// WalkMessages visits every message depth first, parents before children
func (s *Schema) WalkMessages(fn func(*MergedMessage)) {
	var walk func([]*MergedMessage)
	walk = func(msgs []*MergedMessage) {
		for _, m := range msgs {
			fn(m)
			walk(m.Messages)
		}
	}
	walk(s.Messages)
}

// Field returns the merged field with the given canonical name
func (m *MergedMessage) Field(name string) *MergedField {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldByNumber returns the merged field whose slot in version carries number
func (m *MergedMessage) FieldByNumber(version string, number int32) *MergedField {
	for _, f := range m.Fields {
		if slot, ok := f.Slot(version); ok && slot.Number == number {
			return f
		}
	}
	return nil
}

// Oneof returns the merged oneof with the given canonical name
func (m *MergedMessage) Oneof(name string) *MergedOneof {
	for _, o := range m.Oneofs {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Message returns the directly nested message with the given name
func (m *MergedMessage) Message(name string) *MergedMessage {
	for _, n := range m.Messages {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Enum returns the directly nested enum with the given name
func (m *MergedMessage) Enum(name string) *MergedEnum {
	for _, e := range m.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// PresentIn reports whether version declares the message
func (m *MergedMessage) PresentIn(version string) bool {
	for _, v := range m.Presence {
		if v == version {
			return true
		}
	}
	return false
}

// ConflictingFields returns the fields whose versions disagree
func (m *MergedMessage) ConflictingFields() []*MergedField {
	var out []*MergedField
	for _, f := range m.Fields {
		if f.HasConflict() {
			out = append(out, f)
		}
	}
	return out
}

func exportedName(name string) string {
	return schema.ExportedName(name)
}
