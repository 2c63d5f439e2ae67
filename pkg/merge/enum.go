package merge

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/protomerge/pkg/schema"
	"github.com/platinummonkey/protomerge/pkg/unified"
)

// mergeEnum unifies one enum across versions. enums is aligned with versions, nil where
// the enum is absent. Values are keyed by number; the first version to define a number
// names it. Differing names for the same number are logged, not reported as conflicts.
func mergeEnum(versions []string, path string, enums []*schema.Enum, log *logrus.Logger) *unified.MergedEnum {
	merged := &unified.MergedEnum{
		Name: schema.SimpleName(path),
		Path: path,
	}

	index := make(map[int32]int)
	for i, e := range enums {
		if e == nil {
			continue
		}
		version := versions[i]
		merged.Presence = append(merged.Presence, version)
		for _, v := range e.Values {
			pos, ok := index[v.Number]
			if !ok {
				index[v.Number] = len(merged.Values)
				merged.Values = append(merged.Values, unified.MergedEnumValue{
					Name:     v.Name,
					Number:   v.Number,
					Presence: []string{version},
					Names:    []unified.VersionName{{Version: version, Name: v.Name}},
				})
				continue
			}
			value := &merged.Values[pos]
			value.Names = append(value.Names, unified.VersionName{Version: version, Name: v.Name})
			if value.Name != v.Name {
				log.Debugf("Enum %s value %d is '%s' in %s, keeping '%s'", path, v.Number, v.Name, version, value.Name)
			}
			// aliases in one version share a number; record the version once
			if value.Presence[len(value.Presence)-1] != version {
				value.Presence = append(value.Presence, version)
			}
		}
	}

	sort.SliceStable(merged.Values, func(i, j int) bool {
		return merged.Values[i].Number < merged.Values[j].Number
	})
	return merged
}

// collectEnums returns the union of enum names across versions, in order of first appearance,
// with each version's declaration aligned to versions
func collectEnums(lists [][]schema.Enum) ([]string, map[string][]*schema.Enum) {
	var names []string
	byName := make(map[string][]*schema.Enum)
	for i, list := range lists {
		for j := range list {
			e := &list[j]
			if _, ok := byName[e.Name]; !ok {
				names = append(names, e.Name)
				byName[e.Name] = make([]*schema.Enum, len(lists))
			}
			byName[e.Name][i] = e
		}
	}
	return names, byName
}
