package unified

import (
	"fmt"
	"strings"

	"github.com/platinummonkey/protomerge/pkg/conflict"
)

// OneofConflictType tags the kind of structural mismatch found in a oneof group
type OneofConflictType int

const (
	PartialExistence OneofConflictType = iota
	FieldSetDifference
	FieldTypeConflict
	Renamed
	FieldMembershipChange
	FieldNumberChange
	FieldRemoved
	IncompatibleTypes
)

func (t OneofConflictType) String() string {
	return []string{
		"PARTIAL_EXISTENCE", "FIELD_SET_DIFFERENCE", "FIELD_TYPE_CONFLICT", "RENAMED",
		"FIELD_MEMBERSHIP_CHANGE", "FIELD_NUMBER_CHANGE", "FIELD_REMOVED", "INCOMPATIBLE_TYPES",
	}[t]
}

// MarshalText implements encoding.TextMarshaler
func (t OneofConflictType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// OneofConflict is one detected oneof mismatch. The concrete type carries the
// details for its kind; switch on it to access them.
type OneofConflict interface {
	Kind() OneofConflictType
	// Versions returns the versions involved in the conflict
	Versions() []string
	Describe() string
	oneofConflict()
}

// PartialExistenceConflict: the group exists only in some of the versions that declare the message
type PartialExistenceConflict struct {
	Oneof     string
	PresentIn []string
	MissingIn []string
}

// FieldSetDifferenceConflict: versions that declare the group disagree on its member numbers
type FieldSetDifferenceConflict struct {
	Oneof string
	// Numbers that are not members in every version declaring the group
	Numbers    []int32
	VersionSet []string
}

// FieldTypeConflictConflict: a member field has a type conflict across versions
type FieldTypeConflictConflict struct {
	Oneof      string
	Field      string
	Number     int32
	Conflict   conflict.Type
	VersionSet []string
}

// RenamedConflict: groups with identical member numbers carry different names
type RenamedConflict struct {
	Primary string
	Names   []VersionName
}

// FieldMembershipChangeConflict: a field is a group member in some versions and a plain field in others
type FieldMembershipChangeConflict struct {
	Oneof   string
	Field   string
	Number  int32
	Inside  []string
	Outside []string
}

// FieldNumberChangeConflict: a member field keeps its name but moves to another number
type FieldNumberChangeConflict struct {
	Oneof   string
	Field   string
	Numbers []VersionNumber
}

// FieldRemovedConflict: a member present in an earlier version is missing from the group later
type FieldRemovedConflict struct {
	Oneof     string
	Field     string
	Number    int32
	LastSeen  string
	RemovedIn []string
}

// IncompatibleTypesConflict: catch-all for mismatches the other kinds do not describe
type IncompatibleTypesConflict struct {
	Oneof      string
	Field      string
	Reason     string
	VersionSet []string
}

// VersionName pairs a version with a name used in it
type VersionName struct {
	Version string
	Name    string
}

// VersionNumber pairs a version with a field number used in it
type VersionNumber struct {
	Version string
	Number  int32
}

func (PartialExistenceConflict) Kind() OneofConflictType      { return PartialExistence }
func (FieldSetDifferenceConflict) Kind() OneofConflictType    { return FieldSetDifference }
func (FieldTypeConflictConflict) Kind() OneofConflictType     { return FieldTypeConflict }
func (RenamedConflict) Kind() OneofConflictType               { return Renamed }
func (FieldMembershipChangeConflict) Kind() OneofConflictType { return FieldMembershipChange }
func (FieldNumberChangeConflict) Kind() OneofConflictType     { return FieldNumberChange }
func (FieldRemovedConflict) Kind() OneofConflictType          { return FieldRemoved }
func (IncompatibleTypesConflict) Kind() OneofConflictType     { return IncompatibleTypes }

func (PartialExistenceConflict) oneofConflict()      {}
func (FieldSetDifferenceConflict) oneofConflict()    {}
func (FieldTypeConflictConflict) oneofConflict()     {}
func (RenamedConflict) oneofConflict()               {}
func (FieldMembershipChangeConflict) oneofConflict() {}
func (FieldNumberChangeConflict) oneofConflict()     {}
func (FieldRemovedConflict) oneofConflict()          {}
func (IncompatibleTypesConflict) oneofConflict()     {}

func (c PartialExistenceConflict) Versions() []string   { return c.PresentIn }
func (c FieldSetDifferenceConflict) Versions() []string { return c.VersionSet }
func (c FieldTypeConflictConflict) Versions() []string  { return c.VersionSet }
func (c IncompatibleTypesConflict) Versions() []string  { return c.VersionSet }
func (c FieldRemovedConflict) Versions() []string       { return c.RemovedIn }

func (c RenamedConflict) Versions() []string {
	versions := make([]string, len(c.Names))
	for i, n := range c.Names {
		versions[i] = n.Version
	}
	return versions
}

func (c FieldMembershipChangeConflict) Versions() []string {
	return append(append([]string{}, c.Inside...), c.Outside...)
}

func (c FieldNumberChangeConflict) Versions() []string {
	versions := make([]string, len(c.Numbers))
	for i, n := range c.Numbers {
		versions[i] = n.Version
	}
	return versions
}

func (c PartialExistenceConflict) Describe() string {
	return fmt.Sprintf("oneof '%s' exists in [%s] but not in [%s]",
		c.Oneof, strings.Join(c.PresentIn, ", "), strings.Join(c.MissingIn, ", "))
}

func (c FieldSetDifferenceConflict) Describe() string {
	return fmt.Sprintf("oneof '%s' has different fields across [%s]; numbers not shared by all: %s",
		c.Oneof, strings.Join(c.VersionSet, ", "), joinNumbers(c.Numbers))
}

func (c FieldTypeConflictConflict) Describe() string {
	return fmt.Sprintf("oneof '%s' field '%s' (#%d) has a %s type conflict",
		c.Oneof, c.Field, c.Number, c.Conflict)
}

func (c RenamedConflict) Describe() string {
	parts := make([]string, len(c.Names))
	for i, n := range c.Names {
		parts[i] = n.Version + ":" + n.Name
	}
	return fmt.Sprintf("oneof renamed across versions (%s); merged as '%s'", strings.Join(parts, ", "), c.Primary)
}

func (c FieldMembershipChangeConflict) Describe() string {
	return fmt.Sprintf("field '%s' (#%d) is in oneof '%s' in [%s] but a regular field in [%s]",
		c.Field, c.Number, c.Oneof, strings.Join(c.Inside, ", "), strings.Join(c.Outside, ", "))
}

func (c FieldNumberChangeConflict) Describe() string {
	parts := make([]string, len(c.Numbers))
	for i, n := range c.Numbers {
		parts[i] = fmt.Sprintf("%s:#%d", n.Version, n.Number)
	}
	return fmt.Sprintf("oneof '%s' field '%s' changed number (%s)", c.Oneof, c.Field, strings.Join(parts, ", "))
}

func (c FieldRemovedConflict) Describe() string {
	return fmt.Sprintf("oneof '%s' field '%s' (#%d) last seen in %s, removed in [%s]",
		c.Oneof, c.Field, c.Number, c.LastSeen, strings.Join(c.RemovedIn, ", "))
}

func (c IncompatibleTypesConflict) Describe() string {
	if c.Field == "" {
		return fmt.Sprintf("oneof '%s': %s", c.Oneof, c.Reason)
	}
	return fmt.Sprintf("oneof '%s' field '%s': %s", c.Oneof, c.Field, c.Reason)
}

// OneofMembership is one version's view of a merged oneof group
type OneofMembership struct {
	Version string
	Present bool
	Name    string
	Numbers []int32
}

// MergedOneof is the unified identity of a oneof group across versions
type MergedOneof struct {
	Name string
	// Membership has one entry per version in which the message exists
	Membership []OneofMembership
	// Numbers is the sorted union of member numbers across all versions
	Numbers   []int32
	Conflicts []OneofConflict
}

// ExportedName returns the identifier-safe name of the group
func (o *MergedOneof) ExportedName() string {
	return exportedName(o.Name)
}

// Presence returns the versions declaring the group
func (o *MergedOneof) Presence() []string {
	var versions []string
	for _, m := range o.Membership {
		if m.Present {
			versions = append(versions, m.Version)
		}
	}
	return versions
}

// HasConflict reports whether any conflict of the given kind was detected
func (o *MergedOneof) HasConflict(kind OneofConflictType) bool {
	for _, c := range o.Conflicts {
		if c.Kind() == kind {
			return true
		}
	}
	return false
}

// ConflictsOf returns the conflicts of the given kind
func (o *MergedOneof) ConflictsOf(kind OneofConflictType) []OneofConflict {
	var out []OneofConflict
	for _, c := range o.Conflicts {
		if c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out
}

func joinNumbers(numbers []int32) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
