package unified

import (
	"fmt"
	"unicode/utf8"

	"github.com/platinummonkey/protomerge/pkg/conflict"
)

// Stats summarizes a merged schema
type Stats struct {
	Versions        int                   `json:"versions" yaml:"versions"`
	Messages        int                   `json:"messages" yaml:"messages"`
	Fields          int                   `json:"fields" yaml:"fields"`
	UniversalFields int                   `json:"universal_fields" yaml:"universal_fields"`
	Enums           int                   `json:"enums" yaml:"enums"`
	Oneofs          int                   `json:"oneofs" yaml:"oneofs"`
	OneofConflicts  int                   `json:"oneof_conflicts" yaml:"oneof_conflicts"`
	Conflicts       map[conflict.Type]int `json:"conflicts" yaml:"conflicts"`
	EquivalentEnums int                   `json:"equivalent_enums" yaml:"equivalent_enums"`
	ConflictEnums   int                   `json:"conflict_enums" yaml:"conflict_enums"`
}

// ComputeStats counts the contents of a merged schema
func ComputeStats(s *Schema) Stats {
	stats := Stats{
		Versions:        len(s.Versions),
		Enums:           len(s.Enums),
		Conflicts:       make(map[conflict.Type]int),
		EquivalentEnums: len(s.EquivalentEnums),
		ConflictEnums:   len(s.ConflictEnums),
	}
	s.WalkMessages(func(m *MergedMessage) {
		stats.Messages++
		stats.Enums += len(m.Enums)
		stats.Oneofs += len(m.Oneofs)
		for _, o := range m.Oneofs {
			stats.OneofConflicts += len(o.Conflicts)
		}
		for _, f := range m.Fields {
			stats.Fields++
			if f.Universal() {
				stats.UniversalFields++
			}
			if f.HasConflict() {
				stats.Conflicts[f.Conflict]++
			}
		}
	})
	return stats
}

// TotalConflicts returns the number of conflicting fields
func (s Stats) TotalConflicts() int {
	total := 0
	for _, n := range s.Conflicts {
		total += n
	}
	return total
}

// BytesToString converts the bytes representation of a STRING_BYTES field to the
// unified string representation. Content that is not valid UTF-8 is rejected.
func BytesToString(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("bytes value is not valid UTF-8 and cannot be exposed as string")
	}
	return string(b), nil
}

// StringToBytes converts the unified string representation back to bytes
func StringToBytes(s string) []byte {
	return []byte(s)
}
