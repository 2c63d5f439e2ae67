package unified

// MergedEnumValue is one numeric value of a merged enum
type MergedEnumValue struct {
	// Name is taken from the first version that defines the number
	Name     string
	Number   int32
	Presence []string
	// Names lists every name declared for the number, per version in version order.
	// Aliases give one version several entries.
	Names []VersionName
}

// NamesIn returns the names version declares for the value, or Name when none were recorded
func (v MergedEnumValue) NamesIn(version string) []string {
	var names []string
	for _, vn := range v.Names {
		if vn.Version == version {
			names = append(names, vn.Name)
		}
	}
	if len(names) == 0 && containsString(v.Presence, version) {
		names = []string{v.Name}
	}
	return names
}

// MergedEnum unifies an enum across versions; values are keyed by number, never by name
type MergedEnum struct {
	Name     string
	Path     string
	Values   []MergedEnumValue // sorted by number
	Presence []string
}

// Value returns the merged value with the given number
func (e *MergedEnum) Value(number int32) (MergedEnumValue, bool) {
	for _, v := range e.Values {
		if v.Number == number {
			return v, true
		}
	}
	return MergedEnumValue{}, false
}

// Numbers returns the sorted numeric value set
func (e *MergedEnum) Numbers() []int32 {
	numbers := make([]int32, len(e.Values))
	for i, v := range e.Values {
		numbers[i] = v.Number
	}
	return numbers
}

// SameValueSet reports whether both enums define exactly the same numbers
func (e *MergedEnum) SameValueSet(other *MergedEnum) bool {
	if len(e.Values) != len(other.Values) {
		return false
	}
	for i := range e.Values {
		if e.Values[i].Number != other.Values[i].Number {
			return false
		}
	}
	return true
}

// ConflictEnumInfo is a synthesized enum unifying the value space of a field that is
// an integer in some versions and an enum in others
type ConflictEnumInfo struct {
	// FieldPath is "Message.field"
	FieldPath string
	Message   string
	Field     string
	// EnumName is the name to give the synthesized type
	EnumName string
	Values   []MergedEnumValue // sorted by number
	// EnumVersions maps each version using the enum representation to its enum type path
	EnumVersions map[string]string
	// IntVersions lists the versions using the raw integer, in version order
	IntVersions []string
}

// UsesEnum reports whether version reads the field as an enum
func (c *ConflictEnumInfo) UsesEnum(version string) bool {
	_, ok := c.EnumVersions[version]
	return ok
}
