package diff

import (
	"fmt"

	"github.com/platinummonkey/protomerge/pkg/conflict"
)

// ChangeType represents the type of change detected
type ChangeType string

const (
	Added              ChangeType = "ADDED"
	Removed            ChangeType = "REMOVED"
	Renamed            ChangeType = "RENAMED"
	TypeChanged        ChangeType = "TYPE_CHANGED"
	NumberChanged      ChangeType = "NUMBER_CHANGED"
	Moved              ChangeType = "MOVED"
	LabelChanged       ChangeType = "LABEL_CHANGED"
	ValueAdded         ChangeType = "VALUE_ADDED"
	ValueRemoved       ChangeType = "VALUE_REMOVED"
	ValueNumberChanged ChangeType = "VALUE_NUMBER_CHANGED"
	MessageAdded       ChangeType = "MESSAGE_ADDED"
	MessageRemoved     ChangeType = "MESSAGE_REMOVED"
	EnumAdded          ChangeType = "ENUM_ADDED"
	EnumRemoved        ChangeType = "ENUM_REMOVED"
)

// Severity represents the severity level of a change
type Severity string

const (
	Breaking    Severity = "breaking"
	NonBreaking Severity = "non_breaking"
	Warning     Severity = "warning"
)

// Change represents a single change between two versions
type Change struct {
	Type     ChangeType `json:"type" yaml:"type"`
	Severity Severity   `json:"severity" yaml:"severity"`
	// Message is the message or enum path the change belongs to
	Message string `json:"message" yaml:"message"`
	// Field is the field or enum value name; empty for message and enum level changes
	Field    string `json:"field,omitempty" yaml:"field,omitempty"`
	OldValue string `json:"old_value,omitempty" yaml:"old_value,omitempty"`
	NewValue string `json:"new_value,omitempty" yaml:"new_value,omitempty"`
	// Conflict is the classifier verdict behind a TYPE_CHANGED record
	Conflict     conflict.Type `json:"conflict,omitempty" yaml:"conflict,omitempty"`
	Description  string        `json:"description" yaml:"description"`
	MigrationTip string        `json:"migration_tip,omitempty" yaml:"migration_tip,omitempty"`
}

// Location returns "Message.field", or the message path for message level changes
func (c Change) Location() string {
	if c.Field == "" {
		return c.Message
	}
	return c.Message + "." + c.Field
}

// Result contains all changes detected between two versions
type Result struct {
	FromVersion string   `json:"from_version" yaml:"from_version"`
	ToVersion   string   `json:"to_version" yaml:"to_version"`
	Changes     []Change `json:"changes" yaml:"changes"`
}

// Summary counts the changes of a result by severity
type Summary struct {
	Total       int `json:"total" yaml:"total"`
	Breaking    int `json:"breaking" yaml:"breaking"`
	NonBreaking int `json:"non_breaking" yaml:"non_breaking"`
	Warning     int `json:"warning" yaml:"warning"`
}

// Summary counts the changes by severity
func (r *Result) Summary() Summary {
	s := Summary{Total: len(r.Changes)}
	for _, c := range r.Changes {
		switch c.Severity {
		case Breaking:
			s.Breaking++
		case NonBreaking:
			s.NonBreaking++
		case Warning:
			s.Warning++
		}
	}
	return s
}

// HasBreaking reports whether any change is breaking
func (r *Result) HasBreaking() bool {
	for _, c := range r.Changes {
		if IsBreaking(c) {
			return true
		}
	}
	return false
}

func (r *Result) String() string {
	s := r.Summary()
	return fmt.Sprintf("%s -> %s: %d changes (%d breaking)", r.FromVersion, r.ToVersion, s.Total, s.Breaking)
}

// GetSeverity returns the default severity of a change type. TYPE_CHANGED, LABEL_CHANGED
// and ADDED are refined by the analyzer from the declarations involved.
func GetSeverity(changeType ChangeType) Severity {
	switch changeType {
	case Removed, NumberChanged, TypeChanged, LabelChanged,
		ValueRemoved, ValueNumberChanged, MessageRemoved, EnumRemoved:
		return Breaking

	case Added, ValueAdded, MessageAdded, EnumAdded:
		return NonBreaking

	case Renamed, Moved:
		// same wire shape; only text formats and generated accessors notice
		return Warning

	default:
		return Warning
	}
}

// GetMigrationTip provides a migration tip based on change type
func GetMigrationTip(changeType ChangeType) string {
	switch changeType {
	case Removed:
		return "Remove all references to this field and reserve its number"
	case Renamed:
		return "Update field references and any JSON or text-format payloads that use the old name"
	case TypeChanged:
		return "Update code to handle the new field type"
	case NumberChanged:
		return "This is a critical breaking change - regenerate all code and redeploy all services"
	case Moved:
		return "Review code that sets this field; oneof membership changes which fields clear each other"
	case LabelChanged:
		return "Update code to handle the new field cardinality"
	case ValueRemoved:
		return "Update code that uses this enum value and reserve its number"
	case ValueNumberChanged:
		return "Stored and in-flight values decode to a different constant; migrate persisted data"
	case MessageRemoved:
		return "Remove all usages of this message type"
	case EnumRemoved:
		return "Replace enum usages with alternative type"
	default:
		return ""
	}
}

// IsBreaking reports whether a change is breaking
func IsBreaking(change Change) bool {
	return change.Severity == Breaking
}

// CountByType counts changes by type
func CountByType(changes []Change, changeType ChangeType) int {
	count := 0
	for _, change := range changes {
		if change.Type == changeType {
			count++
		}
	}
	return count
}

// FilterBySeverity filters changes by severity
func FilterBySeverity(changes []Change, severity Severity) []Change {
	filtered := []Change{}
	for _, change := range changes {
		if change.Severity == severity {
			filtered = append(filtered, change)
		}
	}
	return filtered
}
