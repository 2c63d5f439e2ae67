package merge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/protomerge/pkg/conflict"
	"github.com/platinummonkey/protomerge/pkg/observability"
	"github.com/platinummonkey/protomerge/pkg/schema"
	"github.com/platinummonkey/protomerge/pkg/unified"
)

// Options configures a merge run
type Options struct {
	// Mappings match the named fields by proto name instead of wire number
	Mappings []schema.FieldMapping
	// Workers bounds how many top-level messages are merged concurrently
	Workers int
	// ExcludeMessages lists message paths to leave out of the merged schema
	ExcludeMessages []string
	// ExcludeFields lists "Message.field" paths to leave out
	ExcludeFields []string
}

// DefaultOptions returns default merge options
func DefaultOptions() Options {
	return Options{
		Workers: 4,
	}
}

// Merger merges version snapshots into a unified schema
type Merger struct {
	opts    Options
	log     *logrus.Logger
	metrics *observability.MergeMetrics
}

// NewMerger creates a merger. A nil logger gets a default one; metrics may be nil.
func NewMerger(opts Options, log *logrus.Logger, metrics *observability.MergeMetrics) *Merger {
	if log == nil {
		log = logrus.New()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Merger{
		opts:    opts,
		log:     log,
		metrics: metrics,
	}
}

// Merge builds the unified schema for snapshots, which must be in version order.
// Either the whole merge succeeds or an error is returned and no schema is produced.
func (m *Merger) Merge(ctx context.Context, snapshots []schema.Snapshot) (*unified.Schema, error) {
	start := time.Now()
	result, err := m.merge(ctx, snapshots)
	m.metrics.ObserveMerge(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	stats := unified.ComputeStats(result)
	m.log.WithFields(logrus.Fields{
		"versions":  len(result.Versions),
		"messages":  stats.Messages,
		"fields":    stats.Fields,
		"conflicts": stats.TotalConflicts(),
	}).Info("Merge complete")
	return result, nil
}

func (m *Merger) merge(ctx context.Context, snapshots []schema.Snapshot) (*unified.Schema, error) {
	if err := validateSnapshots(snapshots); err != nil {
		return nil, err
	}
	if err := validateMappings(snapshots, m.opts.Mappings); err != nil {
		return nil, err
	}

	versions := make([]string, len(snapshots))
	for i, s := range snapshots {
		versions[i] = s.Version
	}
	m.log.Infof("Merging %d versions: %s", len(versions), strings.Join(versions, ", "))

	r := &run{
		opts:      m.opts,
		log:       m.log,
		metrics:   m.metrics,
		versions:  versions,
		snapshots: snapshots,
	}
	acc := &accumulator{versions: versions, snapshots: snapshots}

	// Phase 1: per-message merges share no state and may run in parallel
	lists := make([][]schema.Message, len(snapshots))
	for i := range snapshots {
		lists[i] = snapshots[i].Messages
	}
	names, byName := collectMessages(lists)
	names = r.filterMessages("", names)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(m.opts.Workers)

	results := make([]*unified.MergedMessage, len(names))
	var mu sync.Mutex

	for i, name := range names {
		i, name := i, name
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			merged, err := r.mergeMessage(name, byName[name])
			if err != nil {
				return err
			}

			mu.Lock()
			results[i] = merged
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("merge failed: %w", err)
	}
	acc.messages = results

	enumLists := make([][]schema.Enum, len(snapshots))
	for i := range snapshots {
		enumLists[i] = snapshots[i].Enums
	}
	enumNames, enumsByName := collectEnums(enumLists)
	for _, name := range enumNames {
		acc.enums = append(acc.enums, mergeEnum(versions, name, enumsByName[name], m.log))
	}
	acc.seal()

	// Phase 2: cross-message reductions over the sealed accumulator
	equivalent := detectEquivalentEnums(acc, m.log)
	conflictEnums, err := synthesizeConflictEnums(acc, m.log)
	if err != nil {
		return nil, fmt.Errorf("merge failed: %w", err)
	}
	return acc.freeze(equivalent, conflictEnums), nil
}

// run holds the read-only state shared by the per-message merges of one invocation
type run struct {
	opts      Options
	log       *logrus.Logger
	metrics   *observability.MergeMetrics
	versions  []string
	snapshots []schema.Snapshot
}

// mergeMessage merges one message across versions; msgs is aligned with versions
func (r *run) mergeMessage(path string, msgs []*schema.Message) (*unified.MergedMessage, error) {
	merged := &unified.MergedMessage{
		Name: schema.SimpleName(path),
		Path: path,
	}
	for i, msg := range msgs {
		if msg != nil {
			merged.Presence = append(merged.Presence, r.versions[i])
		}
	}

	mt := &matcher{versions: r.versions, log: r.log}
	groups := mt.match(path, msgs, mappingsFor(path, r.opts.Mappings))
	fields, err := r.buildFields(path, groups)
	if err != nil {
		return nil, err
	}
	merged.Fields = fields
	merged.Oneofs = newOneofDetector(r.versions, path, msgs, fields, r.log).detect()
	for _, o := range merged.Oneofs {
		for _, c := range o.Conflicts {
			r.metrics.RecordOneofConflict(c.Kind().String())
		}
	}

	nestedLists := make([][]schema.Message, len(msgs))
	enumLists := make([][]schema.Enum, len(msgs))
	for i, msg := range msgs {
		if msg != nil {
			nestedLists[i] = msg.Messages
			enumLists[i] = msg.Enums
		}
	}

	names, byName := collectMessages(nestedLists)
	for _, name := range r.filterMessages(path, names) {
		nested, err := r.mergeMessage(schema.JoinPath(path, name), byName[name])
		if err != nil {
			return nil, err
		}
		merged.Messages = append(merged.Messages, nested)
	}

	enumNames, enumsByName := collectEnums(enumLists)
	for _, name := range enumNames {
		merged.Enums = append(merged.Enums, mergeEnum(r.versions, schema.JoinPath(path, name), enumsByName[name], r.log))
	}
	return merged, nil
}

// buildFields turns matched groups into merged fields sorted by canonical number
func (r *run) buildFields(path string, groups []*fieldGroup) ([]*unified.MergedField, error) {
	fields := make([]*unified.MergedField, 0, len(groups))
	for _, g := range groups {
		anchor := g.anchor()
		if anchor == nil || r.fieldExcluded(path, g) {
			continue
		}

		f := &unified.MergedField{
			Name:       anchor.Name,
			Number:     anchor.Number,
			NameMapped: g.nameMapped,
			Slots:      make([]unified.VersionSlot, len(r.versions)),
		}
		var shapes []conflict.Shape
		for i, version := range r.versions {
			if g.slots[i] == nil {
				f.Slots[i] = unified.AbsentSlot(version)
				continue
			}
			decl := r.withMapTypes(i, *g.slots[i])
			f.Slots[i] = unified.PresentSlot(version, decl)
			shapes = append(shapes, conflict.ShapeOf(decl))
		}

		if f.IsMap() {
			f.Conflict, f.MapValueConflict = classifyMap(f)
		} else {
			f.Conflict = conflict.Fold(shapes)
		}
		if res, ok := conflict.Resolve(f.Conflict, shapes); ok {
			f.Resolved = &res
		}

		if f.HasConflict() {
			r.log.Warnf("Type conflict for field '%s.%s' [%s]: %s", path, f.Name, f.Conflict, describeSlots(f))
			r.metrics.RecordFieldConflict(f.Conflict.String())
		}
		if f.MapValueConflict != conflict.None {
			r.log.Warnf("Map value conflict for field '%s.%s' [%s]: %s", path, f.Name, f.MapValueConflict, describeSlots(f))
			r.metrics.RecordFieldConflict(f.MapValueConflict.String())
		}
		fields = append(fields, f)
	}

	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].Number != fields[j].Number {
			return fields[i].Number < fields[j].Number
		}
		return fields[i].Name < fields[j].Name
	})
	return fields, nil
}

// withMapTypes fills in map key/value types from the entry message when the front-end left them out
func (r *run) withMapTypes(version int, f schema.Field) schema.Field {
	if f.Map != nil || f.Type.Kind != schema.KindMessage {
		return f
	}
	entry := r.snapshots[version].FindMessage(f.Type.Name)
	if entry == nil || !entry.MapEntry {
		return f
	}
	f.Map = &schema.MapType{
		Key:   entry.Field(1).Type,
		Value: entry.Field(2).Type,
	}
	f.Cardinality = schema.CardinalityRepeated
	return f
}

// classifyMap compares map key and value types against the first version.
// Differing keys make the field incompatible; value differences are tracked separately.
func classifyMap(f *unified.MergedField) (conflict.Type, conflict.Type) {
	anchor := f.Anchor().Field.Map
	field, value := conflict.None, conflict.None
	for _, s := range f.Slots {
		if !s.Present {
			continue
		}
		if conflict.ClassifyTypes(anchor.Key, s.Field.Map.Key) != conflict.None {
			field = conflict.Incompatible
		}
		switch c := conflict.ClassifyTypes(anchor.Value, s.Field.Map.Value); c {
		case conflict.None, conflict.IntEnum, conflict.Widening:
			value = conflict.Worst(value, c)
		default:
			value = conflict.Incompatible
		}
	}
	return field, value
}

func describeSlots(f *unified.MergedField) string {
	var parts []string
	for _, s := range f.Slots {
		if !s.Present {
			continue
		}
		t := s.Field.Type.String()
		if s.Field.Map != nil {
			t = fmt.Sprintf("map<%s, %s>", s.Field.Map.Key, s.Field.Map.Value)
		} else if s.Field.IsRepeated() {
			t = "repeated " + t
		}
		parts = append(parts, s.Version+":"+t)
	}
	return strings.Join(parts, ", ")
}

func (r *run) filterMessages(parent string, names []string) []string {
	out := names[:0:0]
	for _, name := range names {
		if r.excluded(r.opts.ExcludeMessages, schema.JoinPath(parent, name)) {
			r.log.Debugf("Skipping excluded message %s", schema.JoinPath(parent, name))
			continue
		}
		out = append(out, name)
	}
	return out
}

// fieldExcluded reports whether the field is excluded under the name it has in any version
func (r *run) fieldExcluded(path string, g *fieldGroup) bool {
	for _, decl := range g.slots {
		if decl != nil && r.excluded(r.opts.ExcludeFields, path+"."+decl.Name) {
			r.log.Debugf("Skipping excluded field %s.%s", path, decl.Name)
			return true
		}
	}
	return false
}

func (r *run) excluded(list []string, path string) bool {
	for _, p := range list {
		if p == path {
			return true
		}
	}
	return false
}

// collectMessages returns the union of message names across versions, in order of first
// appearance, with each version's declaration aligned to the input lists. Map entry
// types are skipped; they are folded into their map field.
func collectMessages(lists [][]schema.Message) ([]string, map[string][]*schema.Message) {
	var names []string
	byName := make(map[string][]*schema.Message)
	for i, list := range lists {
		for j := range list {
			msg := &list[j]
			if msg.MapEntry {
				continue
			}
			if _, ok := byName[msg.Name]; !ok {
				names = append(names, msg.Name)
				byName[msg.Name] = make([]*schema.Message, len(lists))
			}
			byName[msg.Name][i] = msg
		}
	}
	return names, byName
}

// accumulator holds the results of phase one until they are frozen into a Schema
type accumulator struct {
	versions  []string
	snapshots []schema.Snapshot
	messages  []*unified.MergedMessage
	enums     []*unified.MergedEnum
	sealed    bool
}

func (a *accumulator) seal() {
	a.sealed = true
}

// requireSealed panics when a phase-two step runs before every message is merged
func (a *accumulator) requireSealed(step string) {
	if !a.sealed {
		panic(fmt.Sprintf("merge: %s requires all per-message merges to complete first", step))
	}
}

// walk visits every merged message depth first
func (a *accumulator) walk(fn func(*unified.MergedMessage)) {
	var visit func([]*unified.MergedMessage)
	visit = func(msgs []*unified.MergedMessage) {
		for _, m := range msgs {
			fn(m)
			visit(m.Messages)
		}
	}
	visit(a.messages)
}

func (a *accumulator) freeze(equivalent map[string]string, conflictEnums map[string]*unified.ConflictEnumInfo) *unified.Schema {
	a.requireSealed("freeze")
	return &unified.Schema{
		Versions:        append([]string(nil), a.versions...),
		Messages:        a.messages,
		Enums:           a.enums,
		EquivalentEnums: equivalent,
		ConflictEnums:   conflictEnums,
	}
}
