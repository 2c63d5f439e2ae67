package merge

import (
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/protomerge/pkg/schema"
)

// fieldGroup collects the declarations of one logical field, one slot per version
type fieldGroup struct {
	slots      []*schema.Field // aligned with versions; nil when absent
	nameMapped bool
}

func newFieldGroup(n int, nameMapped bool) *fieldGroup {
	return &fieldGroup{slots: make([]*schema.Field, n), nameMapped: nameMapped}
}

// anchor returns the declaration from the first version that has the field
func (g *fieldGroup) anchor() *schema.Field {
	for _, f := range g.slots {
		if f != nil {
			return f
		}
	}
	return nil
}

// matcher pairs up field declarations of one message across versions
type matcher struct {
	versions []string
	log      *logrus.Logger
}

// match groups the fields of msgs (aligned with versions, nil where the message is absent).
// Mappings are applied first and consume their (version, number) pairs; the remaining
// fields are grouped by wire number.
func (m *matcher) match(path string, msgs []*schema.Message, mappings []schema.FieldMapping) []*fieldGroup {
	n := len(m.versions)
	consumed := make([]map[int32]bool, n)
	for i := range consumed {
		consumed[i] = make(map[int32]bool)
	}

	var groups []*fieldGroup
	for _, mapping := range mappings {
		group := newFieldGroup(n, true)
		matched := 0
		for i, msg := range msgs {
			if msg == nil {
				continue
			}
			f := msg.FieldByName(mapping.Field)
			if f == nil || consumed[i][f.Number] {
				continue
			}
			if want, ok := mapping.ExpectedNumber(m.versions[i]); ok && want != f.Number {
				m.log.Warnf("Field mapping %s: version %s declares '%s' as #%d, expected #%d; not name-matched",
					mapping.Key(), m.versions[i], f.Name, f.Number, want)
				continue
			}
			group.slots[i] = f
			matched++
		}
		if matched < 2 {
			m.log.Warnf("Field mapping %s matched %d version(s); falling back to number matching", mapping.Key(), matched)
			continue
		}
		for i, f := range group.slots {
			if f != nil {
				consumed[i][f.Number] = true
			}
		}
		m.log.Debugf("Field mapping %s matched by name in %d versions", mapping.Key(), matched)
		groups = append(groups, group)
	}

	byNumber := make(map[int32]*fieldGroup)
	for i, msg := range msgs {
		if msg == nil {
			continue
		}
		for j := range msg.Fields {
			f := &msg.Fields[j]
			if consumed[i][f.Number] {
				continue
			}
			group, ok := byNumber[f.Number]
			if !ok {
				group = newFieldGroup(n, false)
				byNumber[f.Number] = group
				groups = append(groups, group)
			}
			group.slots[i] = f
		}
	}

	if len(groups) > 0 {
		m.log.Debugf("Matched %d fields for message %s", len(groups), path)
	}
	return groups
}

// mappingsFor returns the mappings targeting the message at path
func mappingsFor(path string, mappings []schema.FieldMapping) []schema.FieldMapping {
	var out []schema.FieldMapping
	for _, m := range mappings {
		if m.Message == path {
			out = append(out, m)
		}
	}
	return out
}
