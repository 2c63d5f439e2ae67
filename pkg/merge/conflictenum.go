package merge

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/protomerge/pkg/conflict"
	"github.com/platinummonkey/protomerge/pkg/schema"
	"github.com/platinummonkey/protomerge/pkg/unified"
)

// synthesizeConflictEnums builds a unified enum for every INT_ENUM field, keyed by "Message.field"
func synthesizeConflictEnums(acc *accumulator, log *logrus.Logger) (map[string]*unified.ConflictEnumInfo, error) {
	acc.requireSealed("conflict enum synthesis")

	infos := make(map[string]*unified.ConflictEnumInfo)
	var firstErr error
	acc.walk(func(m *unified.MergedMessage) {
		if firstErr != nil {
			return
		}
		for _, f := range m.Fields {
			if f.Conflict != conflict.IntEnum {
				continue
			}
			info, err := buildConflictEnum(acc, m.Path, f)
			if err != nil {
				firstErr = err
				return
			}
			infos[info.FieldPath] = info
			log.Infof("Synthesized conflict enum %s for field %s with %d values", info.EnumName, info.FieldPath, len(info.Values))
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return infos, nil
}

func buildConflictEnum(acc *accumulator, path string, f *unified.MergedField) (*unified.ConflictEnumInfo, error) {
	info := &unified.ConflictEnumInfo{
		FieldPath:    path + "." + f.Name,
		Message:      path,
		Field:        f.Name,
		EnumName:     schema.ExportedName(f.Name),
		EnumVersions: make(map[string]string),
	}

	index := make(map[int32]int)
	for i, slot := range f.Slots {
		if !slot.Present {
			continue
		}
		t := slot.Field.Type
		if t.Kind != schema.KindEnum {
			info.IntVersions = append(info.IntVersions, slot.Version)
			continue
		}

		enum := findEnum(&acc.snapshots[i], path, t.Name)
		if enum == nil {
			return nil, inputErrorf(slot.Version, path, f.Name, "enum type %s is not declared", t.Name)
		}
		info.EnumVersions[slot.Version] = t.Name
		for _, v := range enum.Values {
			pos, ok := index[v.Number]
			if !ok {
				index[v.Number] = len(info.Values)
				info.Values = append(info.Values, unified.MergedEnumValue{
					Name:     v.Name,
					Number:   v.Number,
					Presence: []string{slot.Version},
					Names:    []unified.VersionName{{Version: slot.Version, Name: v.Name}},
				})
				continue
			}
			value := &info.Values[pos]
			value.Names = append(value.Names, unified.VersionName{Version: slot.Version, Name: v.Name})
			if value.Presence[len(value.Presence)-1] != slot.Version {
				value.Presence = append(value.Presence, slot.Version)
			}
		}
	}

	sort.SliceStable(info.Values, func(i, j int) bool {
		return info.Values[i].Number < info.Values[j].Number
	})
	return info, nil
}

// findEnum resolves an enum reference from a field of the message at path: by full path,
// then as a nested enum of the message, then as a top-level enum by simple name
func findEnum(snap *schema.Snapshot, path, typeName string) *schema.Enum {
	if e := snap.FindEnum(typeName); e != nil {
		return e
	}
	simple := schema.SimpleName(typeName)
	if msg := snap.FindMessage(path); msg != nil {
		if e := msg.Enum(simple); e != nil {
			return e
		}
	}
	return snap.FindEnum(simple)
}
