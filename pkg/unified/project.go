package unified

import (
	"fmt"
	"sort"

	"github.com/platinummonkey/protomerge/pkg/schema"
)

// Project rebuilds the snapshot of a single version from the merged model.
// Map entry types are not reproduced; map fields keep their key and value types.
func Project(s *Schema, version string) (*schema.Snapshot, error) {
	if !s.HasVersion(version) {
		return nil, fmt.Errorf("version %s is not part of the merged schema", version)
	}

	snap := &schema.Snapshot{Version: version}
	for _, m := range s.Messages {
		if m.PresentIn(version) {
			snap.Messages = append(snap.Messages, projectMessage(m, version))
		}
	}
	for _, e := range s.Enums {
		if containsString(e.Presence, version) {
			snap.Enums = append(snap.Enums, projectEnum(e, version))
		}
	}
	return snap, nil
}

func projectMessage(m *MergedMessage, version string) schema.Message {
	msg := schema.Message{Name: m.Name}
	for _, f := range m.Fields {
		if slot, ok := f.Slot(version); ok {
			msg.Fields = append(msg.Fields, slot)
		}
	}
	sort.SliceStable(msg.Fields, func(i, j int) bool {
		return msg.Fields[i].Number < msg.Fields[j].Number
	})
	for _, nested := range m.Messages {
		if nested.PresentIn(version) {
			msg.Messages = append(msg.Messages, projectMessage(nested, version))
		}
	}
	for _, e := range m.Enums {
		if containsString(e.Presence, version) {
			msg.Enums = append(msg.Enums, projectEnum(e, version))
		}
	}
	return msg
}

func projectEnum(e *MergedEnum, version string) schema.Enum {
	enum := schema.Enum{Name: e.Name}
	for _, v := range e.Values {
		for _, name := range v.NamesIn(version) {
			enum.Values = append(enum.Values, schema.EnumValue{Name: name, Number: v.Number})
		}
	}
	return enum
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
