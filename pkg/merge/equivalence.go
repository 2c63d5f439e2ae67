package merge

import (
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/protomerge/pkg/unified"
)

// detectEquivalentEnums maps every nested enum that shares its name and merged value set
// with a top-level enum onto that top-level enum, so one shared type can be generated.
func detectEquivalentEnums(acc *accumulator, log *logrus.Logger) map[string]string {
	acc.requireSealed("equivalent enum detection")

	topLevel := make(map[string]*unified.MergedEnum, len(acc.enums))
	for _, e := range acc.enums {
		topLevel[e.Name] = e
	}

	equivalent := make(map[string]string)
	acc.walk(func(m *unified.MergedMessage) {
		for _, nested := range m.Enums {
			top, ok := topLevel[nested.Name]
			if !ok || !top.SameValueSet(nested) {
				continue
			}
			equivalent[nested.Path] = top.Path
			log.Infof("Nested enum %s is equivalent to top-level enum %s", nested.Path, top.Path)
		}
	})
	return equivalent
}
