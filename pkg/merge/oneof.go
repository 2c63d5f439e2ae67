package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/protomerge/pkg/schema"
	"github.com/platinummonkey/protomerge/pkg/unified"
)

// oneofDetector merges the oneof groups of one message and detects structural conflicts
type oneofDetector struct {
	versions []string
	path     string
	msgs     []*schema.Message // aligned with versions
	fields   []*unified.MergedField
	log      *logrus.Logger

	groups  [][]schema.Oneof // per version
	aliases map[string]string
	renames map[string][]unified.VersionName
	clashes []oneofClash
}

// oneofClash is a set of same-numbered groups that could not be merged as a rename
type oneofClash struct {
	names    []string
	conflict unified.IncompatibleTypesConflict
}

func newOneofDetector(versions []string, path string, msgs []*schema.Message, fields []*unified.MergedField, log *logrus.Logger) *oneofDetector {
	d := &oneofDetector{
		versions: versions,
		path:     path,
		msgs:     msgs,
		fields:   fields,
		log:      log,
		groups:   make([][]schema.Oneof, len(versions)),
		aliases:  make(map[string]string),
		renames:  make(map[string][]unified.VersionName),
	}
	for i, msg := range msgs {
		if msg != nil {
			d.groups[i] = msg.Oneofs()
		}
	}
	return d
}

// detect returns the merged oneofs of the message in order of first appearance
func (d *oneofDetector) detect() []*unified.MergedOneof {
	d.detectRenames()

	var names []string
	seen := make(map[string]bool)
	for _, groups := range d.groups {
		for _, g := range groups {
			name := d.canonical(g.Name)
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	merged := make([]*unified.MergedOneof, 0, len(names))
	for _, name := range names {
		o := d.mergeGroup(name)
		for _, c := range o.Conflicts {
			d.log.Warnf("Oneof conflict in %s [%s]: %s", d.path, c.Kind(), c.Describe())
		}
		merged = append(merged, o)
	}
	return merged
}

// detectRenames treats groups with identical member numbers but different names as one group.
// The most common name wins; ties go to the name used by the earliest version.
func (d *oneofDetector) detectRenames() {
	type entry struct {
		version int
		name    string
	}
	var keys []string
	byKey := make(map[string][]entry)
	for i, groups := range d.groups {
		for _, g := range groups {
			key := numberKey(g.Numbers)
			if _, ok := byKey[key]; !ok {
				keys = append(keys, key)
			}
			byKey[key] = append(byKey[key], entry{version: i, name: g.Name})
		}
	}

	for _, key := range keys {
		entries := byKey[key]
		counts := make(map[string]int)
		var order []string
		for _, e := range entries {
			if counts[e.name] == 0 {
				order = append(order, e.name)
			}
			counts[e.name]++
		}
		if len(order) < 2 {
			continue
		}

		primary := order[0]
		for _, name := range order[1:] {
			if counts[name] > counts[primary] {
				primary = name
			}
		}
		if reason := d.aliasClash(order, primary); reason != "" {
			var versions []string
			for _, e := range entries {
				if len(versions) == 0 || versions[len(versions)-1] != d.versions[e.version] {
					versions = append(versions, d.versions[e.version])
				}
			}
			d.clashes = append(d.clashes, oneofClash{
				names: order,
				conflict: unified.IncompatibleTypesConflict{
					Reason:     fmt.Sprintf("oneofs [%s] share member numbers {%s} but %s", strings.Join(order, ", "), key, reason),
					VersionSet: versions,
				},
			})
			continue
		}
		for _, name := range order {
			if _, ok := d.aliases[name]; !ok {
				d.aliases[name] = primary
			}
		}
		for _, e := range entries {
			d.renames[primary] = append(d.renames[primary], unified.VersionName{Version: d.versions[e.version], Name: e.name})
		}
	}
}

// aliasClash reports why names cannot all be merged into primary, or "" when they can.
// A name already merged into another group, or a version declaring two of the names, blocks the rename.
func (d *oneofDetector) aliasClash(names []string, primary string) string {
	renamed := make(map[string]bool, len(names))
	for _, name := range names {
		renamed[name] = true
		if existing, ok := d.aliases[name]; ok && existing != primary {
			return fmt.Sprintf("'%s' is already merged into '%s'", name, existing)
		}
	}
	for i, groups := range d.groups {
		count := 0
		for _, g := range groups {
			if renamed[g.Name] || d.canonical(g.Name) == primary {
				count++
			}
		}
		if count > 1 {
			return fmt.Sprintf("%s declares more than one of them", d.versions[i])
		}
	}
	return ""
}

func (d *oneofDetector) canonical(name string) string {
	if alias, ok := d.aliases[name]; ok {
		return alias
	}
	return name
}

func (d *oneofDetector) memberOf(f schema.Field, group string) bool {
	return f.Oneof != "" && d.canonical(f.Oneof) == group
}

func (d *oneofDetector) mergeGroup(name string) *unified.MergedOneof {
	o := &unified.MergedOneof{Name: name}

	var present, missing []string
	var presentIdx []int
	var sets [][]int32
	union := make(map[int32]bool)
	for i, msg := range d.msgs {
		if msg == nil {
			continue
		}
		membership := unified.OneofMembership{Version: d.versions[i]}
		for _, g := range d.groups[i] {
			if d.canonical(g.Name) == name {
				membership.Present = true
				membership.Name = g.Name
				membership.Numbers = sortedNumbers(g.Numbers)
				break
			}
		}
		o.Membership = append(o.Membership, membership)
		if !membership.Present {
			missing = append(missing, d.versions[i])
			continue
		}
		present = append(present, d.versions[i])
		presentIdx = append(presentIdx, i)
		sets = append(sets, membership.Numbers)
		for _, n := range membership.Numbers {
			union[n] = true
		}
	}
	for n := range union {
		o.Numbers = append(o.Numbers, n)
	}
	sort.Slice(o.Numbers, func(i, j int) bool { return o.Numbers[i] < o.Numbers[j] })

	if names, ok := d.renames[name]; ok {
		o.Conflicts = append(o.Conflicts, unified.RenamedConflict{Primary: name, Names: names})
	}
	for _, c := range d.clashes {
		for _, n := range c.names {
			if d.canonical(n) == name {
				it := c.conflict
				it.Oneof = name
				o.Conflicts = append(o.Conflicts, it)
				break
			}
		}
	}
	if len(present) > 0 && len(missing) > 0 {
		o.Conflicts = append(o.Conflicts, unified.PartialExistenceConflict{
			Oneof: name, PresentIn: present, MissingIn: missing,
		})
	}
	if diff := notShared(o.Numbers, sets); len(sets) > 1 && len(diff) > 0 {
		o.Conflicts = append(o.Conflicts, unified.FieldSetDifferenceConflict{
			Oneof: name, Numbers: diff, VersionSet: present,
		})
	}

	members := d.memberFields(name)
	for _, f := range members {
		if f.HasConflict() {
			anchor := f.Anchor().Field
			o.Conflicts = append(o.Conflicts, unified.FieldTypeConflictConflict{
				Oneof: name, Field: f.Name, Number: anchor.Number, Conflict: f.Conflict, VersionSet: f.Presence(),
			})
		}
	}
	o.Conflicts = append(o.Conflicts, d.membershipConflicts(name, members)...)
	o.Conflicts = append(o.Conflicts, d.numberChanges(name)...)
	o.Conflicts = append(o.Conflicts, d.removals(name, members, presentIdx)...)
	return o
}

// memberFields returns the merged fields that belong to the group in at least one version
func (d *oneofDetector) memberFields(group string) []*unified.MergedField {
	var out []*unified.MergedField
	for _, f := range d.fields {
		for _, s := range f.Slots {
			if s.Present && d.memberOf(s.Field, group) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func (d *oneofDetector) membershipConflicts(group string, members []*unified.MergedField) []unified.OneofConflict {
	var conflicts []unified.OneofConflict
	for _, f := range members {
		var inside, outside []string
		other := make(map[string][]string)
		var otherOrder []string
		for _, s := range f.Slots {
			switch {
			case !s.Present:
			case d.memberOf(s.Field, group):
				inside = append(inside, s.Version)
			case s.Field.Oneof == "":
				outside = append(outside, s.Version)
			default:
				g := d.canonical(s.Field.Oneof)
				if _, ok := other[g]; !ok {
					otherOrder = append(otherOrder, g)
				}
				other[g] = append(other[g], s.Version)
			}
		}
		number := f.Anchor().Field.Number
		if len(inside) > 0 && len(outside) > 0 {
			conflicts = append(conflicts, unified.FieldMembershipChangeConflict{
				Oneof: group, Field: f.Name, Number: number, Inside: inside, Outside: outside,
			})
		}
		for _, g := range otherOrder {
			conflicts = append(conflicts, unified.IncompatibleTypesConflict{
				Oneof:      group,
				Field:      f.Name,
				Reason:     fmt.Sprintf("field moves to oneof '%s' in [%s]", g, strings.Join(other[g], ", ")),
				VersionSet: append(append([]string{}, inside...), other[g]...),
			})
		}
	}
	return conflicts
}

// numberChanges finds member fields that keep their name but sit at different numbers
func (d *oneofDetector) numberChanges(group string) []unified.OneofConflict {
	var names []string
	byName := make(map[string][]unified.VersionNumber)
	for i, msg := range d.msgs {
		if msg == nil {
			continue
		}
		for _, f := range msg.Fields {
			if !d.memberOf(f, group) {
				continue
			}
			if _, ok := byName[f.Name]; !ok {
				names = append(names, f.Name)
			}
			byName[f.Name] = append(byName[f.Name], unified.VersionNumber{Version: d.versions[i], Number: f.Number})
		}
	}

	var conflicts []unified.OneofConflict
	for _, name := range names {
		numbers := byName[name]
		for _, vn := range numbers[1:] {
			if vn.Number != numbers[0].Number {
				conflicts = append(conflicts, unified.FieldNumberChangeConflict{Oneof: group, Field: name, Numbers: numbers})
				break
			}
		}
	}
	return conflicts
}

// removals finds members that leave the group while the group still exists in a later version
func (d *oneofDetector) removals(group string, members []*unified.MergedField, presentIdx []int) []unified.OneofConflict {
	var conflicts []unified.OneofConflict
	for _, f := range members {
		last := -1
		for i, s := range f.Slots {
			if s.Present && d.memberOf(s.Field, group) {
				last = i
			}
		}
		var removedIn []string
		for _, i := range presentIdx {
			if i > last {
				removedIn = append(removedIn, d.versions[i])
			}
		}
		if len(removedIn) == 0 {
			continue
		}
		conflicts = append(conflicts, unified.FieldRemovedConflict{
			Oneof:     group,
			Field:     f.Name,
			Number:    f.Slots[last].Field.Number,
			LastSeen:  d.versions[last],
			RemovedIn: removedIn,
		})
	}
	return conflicts
}

// notShared returns the numbers of union missing from at least one set
func notShared(union []int32, sets [][]int32) []int32 {
	var out []int32
	for _, n := range union {
		for _, set := range sets {
			if !containsNumber(set, n) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func containsNumber(numbers []int32, n int32) bool {
	for _, m := range numbers {
		if m == n {
			return true
		}
	}
	return false
}

func sortedNumbers(numbers []int32) []int32 {
	out := append([]int32(nil), numbers...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func numberKey(numbers []int32) string {
	sorted := sortedNumbers(numbers)
	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ",")
}
