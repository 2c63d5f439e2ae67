package unified

import (
	"github.com/platinummonkey/protomerge/pkg/conflict"
	"github.com/platinummonkey/protomerge/pkg/schema"
)

// VersionSlot records whether a field exists in one version and, if so, how it was declared.
// An absent slot is distinct from a present slot whose declaration happens to be zero-valued.
type VersionSlot struct {
	Version string
	Present bool
	Field   schema.Field
}

// PresentSlot returns a slot holding the field as declared in version
func PresentSlot(version string, f schema.Field) VersionSlot {
	return VersionSlot{Version: version, Present: true, Field: f}
}

// AbsentSlot returns a slot for a version that does not declare the field
func AbsentSlot(version string) VersionSlot {
	return VersionSlot{Version: version}
}

// MergedField is the unified identity of "the same" field across versions
type MergedField struct {
	Name   string
	Number int32
	// Slots has one entry per schema version, in version order
	Slots      []VersionSlot
	Conflict   conflict.Type
	Resolved   *conflict.Resolution
	NameMapped bool
	// MapValueConflict is set for map fields whose value type differs between versions
	MapValueConflict conflict.Type
}

// ExportedName returns the identifier-safe name of the field
func (f *MergedField) ExportedName() string {
	return schema.ExportedName(f.Name)
}

// Presence returns the versions declaring the field, in version order
func (f *MergedField) Presence() []string {
	var versions []string
	for _, s := range f.Slots {
		if s.Present {
			versions = append(versions, s.Version)
		}
	}
	return versions
}

// PresentIn reports whether the field is declared in version
func (f *MergedField) PresentIn(version string) bool {
	_, ok := f.Slot(version)
	return ok
}

// Slot returns the declaration of the field in version
func (f *MergedField) Slot(version string) (schema.Field, bool) {
	for _, s := range f.Slots {
		if s.Version == version {
			return s.Field, s.Present
		}
	}
	return schema.Field{}, false
}

// Universal reports whether every version declares the field
func (f *MergedField) Universal() bool {
	for _, s := range f.Slots {
		if !s.Present {
			return false
		}
	}
	return true
}

// HasConflict reports whether versions disagree on the field's shape
func (f *MergedField) HasConflict() bool {
	return f.Conflict != conflict.None
}

// IsConvertible reports whether a single unified accessor can be generated
func (f *MergedField) IsConvertible() bool {
	return f.Conflict.IsConvertible()
}

// SkipMutator reports whether the unified setter must be withheld
func (f *MergedField) SkipMutator() bool {
	return f.Conflict.SkipMutator()
}

// IsMap reports whether the field is a map in every version that declares it
func (f *MergedField) IsMap() bool {
	seen := false
	for _, s := range f.Slots {
		if !s.Present {
			continue
		}
		if !s.Field.IsMap() {
			return false
		}
		seen = true
	}
	return seen
}

// InOneof reports whether any version places the field in a oneof
func (f *MergedField) InOneof() bool {
	for _, s := range f.Slots {
		if s.Present && s.Field.Oneof != "" {
			return true
		}
	}
	return false
}

// Anchor returns the declaration from the first version that has the field
func (f *MergedField) Anchor() VersionSlot {
	for _, s := range f.Slots {
		if s.Present {
			return s
		}
	}
	return VersionSlot{}
}
