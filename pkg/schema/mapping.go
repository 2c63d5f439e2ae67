package schema

import (
	"fmt"
	"sort"
	"strings"
)

// FieldMapping declares that a field should be matched across versions by proto name
// instead of wire number. VersionNumbers optionally pins the expected number per version.
type FieldMapping struct {
	Message        string           `yaml:"message" json:"message"`
	Field          string           `yaml:"field" json:"field"`
	VersionNumbers map[string]int32 `yaml:"version_numbers,omitempty" json:"version_numbers,omitempty"`
}

// Validate checks the mapping for blank names and non-positive numbers
func (m FieldMapping) Validate() error {
	if strings.TrimSpace(m.Message) == "" {
		return fmt.Errorf("field mapping: message name is required")
	}
	if strings.TrimSpace(m.Field) == "" {
		return fmt.Errorf("field mapping for %s: field name is required", m.Message)
	}
	for _, version := range m.Versions() {
		if strings.TrimSpace(version) == "" {
			return fmt.Errorf("field mapping %s: version key must not be blank", m.Key())
		}
		if n := m.VersionNumbers[version]; n <= 0 {
			return fmt.Errorf("field mapping %s: number for version %s must be positive, got %d", m.Key(), version, n)
		}
	}
	return nil
}

// Key returns "Message.field"
func (m FieldMapping) Key() string {
	return m.Message + "." + m.Field
}

// HasExplicitNumbers reports whether a per-version number table was supplied
func (m FieldMapping) HasExplicitNumbers() bool {
	return len(m.VersionNumbers) > 0
}

// ExpectedNumber returns the pinned number for a version, if any
func (m FieldMapping) ExpectedNumber(version string) (int32, bool) {
	n, ok := m.VersionNumbers[version]
	return n, ok
}

// Versions returns the versions listed in the number table, sorted
func (m FieldMapping) Versions() []string {
	versions := make([]string, 0, len(m.VersionNumbers))
	for v := range m.VersionNumbers {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}
