package merge

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protomerge/pkg/conflict"
	"github.com/platinummonkey/protomerge/pkg/observability"
	"github.com/platinummonkey/protomerge/pkg/schema"
	"github.com/platinummonkey/protomerge/pkg/unified"
)

// orderFixture is a three-version history exercising most conflict kinds
func orderFixture() []schema.Snapshot {
	v1 := snap("v1",
		msg("Order",
			scalar("id", 1, schema.KindString),
			scalar("amount", 2, schema.KindInt32),
			scalar("status", 3, schema.KindInt32),
			withCardinality(scalar("tags", 4, schema.KindString), schema.CardinalitySingular),
			inOneof(scalar("card", 10, schema.KindString), "payment_method"),
			inOneof(scalar("iban", 11, schema.KindString), "payment_method"),
		),
		msg("Customer", scalar("name", 1, schema.KindString)),
	)
	v2 := snap("v2",
		msg("Order",
			scalar("id", 1, schema.KindBytes),
			scalar("amount", 2, schema.KindInt64),
			enumRef("status", 3, "OrderStatus"),
			withCardinality(scalar("tags", 4, schema.KindString), schema.CardinalityRepeated),
			inOneof(scalar("card", 10, schema.KindString), "method"),
			inOneof(scalar("iban", 11, schema.KindString), "method"),
			scalar("note", 12, schema.KindString),
		),
	)
	v2.Enums = []schema.Enum{enumOf("OrderStatus", val("PENDING", 0), val("PAID", 1), val("SHIPPED", 2))}

	v3 := snap("v3",
		msg("Order",
			scalar("id", 1, schema.KindBytes),
			scalar("amount", 2, schema.KindInt64),
			enumRef("status", 3, "OrderStatus"),
			inOneof(scalar("card", 10, schema.KindString), "method"),
			inOneof(scalar("iban", 11, schema.KindString), "method"),
		),
		msg("Customer", scalar("name", 1, schema.KindString)),
	)
	v3.Enums = []schema.Enum{enumOf("OrderStatus", val("PENDING", 0), val("PAID", 1), val("SHIPPED", 2), val("CANCELLED", 3))}

	return []schema.Snapshot{v1, v2, v3}
}

// TestMerge_PresentSlotsAreDeclared checks every present slot traces back to a real declaration
func TestMerge_PresentSlotsAreDeclared(t *testing.T) {
	snapshots := orderFixture()
	result := mustMerge(t, DefaultOptions(), snapshots...)

	byVersion := make(map[string]*schema.Snapshot)
	for i := range snapshots {
		byVersion[snapshots[i].Version] = &snapshots[i]
	}

	result.WalkMessages(func(m *unified.MergedMessage) {
		for _, f := range m.Fields {
			presence := f.Presence()
			require.NotEmpty(t, presence, "field %s.%s has empty presence", m.Path, f.Name)
			for _, v := range presence {
				slot, ok := f.Slot(v)
				require.True(t, ok)
				decl := byVersion[v].FindMessage(m.Path).Field(slot.Number)
				require.NotNil(t, decl, "%s: %s.%s #%d not declared", v, m.Path, f.Name, slot.Number)
				assert.Equal(t, slot.Name, decl.Name)
			}
		}
	})
}

func TestMerge_EnumValuesByNumber(t *testing.T) {
	v1 := schema.Snapshot{Version: "v1", Enums: []schema.Enum{
		enumOf("Status", val("ACTIVE", 1), val("INACTIVE", 2)),
	}}
	v2 := schema.Snapshot{Version: "v2", Enums: []schema.Enum{
		enumOf("Status", val("ACTIVE", 1), val("INACTIVE", 2), val("PENDING", 3)),
	}}

	result := mustMerge(t, DefaultOptions(), v1, v2)

	status := result.Enum("Status")
	require.NotNil(t, status)
	require.Len(t, status.Values, 3)

	pending, ok := status.Value(3)
	require.True(t, ok)
	assert.Equal(t, "PENDING", pending.Name)
	assert.Equal(t, []string{"v2"}, pending.Presence)

	active, _ := status.Value(1)
	assert.Equal(t, []string{"v1", "v2"}, active.Presence)
}

func TestMerge_EnumFirstNameWins(t *testing.T) {
	v1 := schema.Snapshot{Version: "v1", Enums: []schema.Enum{enumOf("Kind", val("OLD_NAME", 1))}}
	v2 := schema.Snapshot{Version: "v2", Enums: []schema.Enum{enumOf("Kind", val("NEW_NAME", 1), val("OTHER", 2))}}

	result := mustMerge(t, DefaultOptions(), v1, v2)

	value, ok := result.Enum("Kind").Value(1)
	require.True(t, ok)
	assert.Equal(t, "OLD_NAME", value.Name)
	assert.Equal(t, []string{"v1", "v2"}, value.Presence)
	assert.Equal(t, []string{"OLD_NAME"}, value.NamesIn("v1"))
	assert.Equal(t, []string{"NEW_NAME"}, value.NamesIn("v2"))
}

func TestMerge_ConflictTypes(t *testing.T) {
	result := mustMerge(t, DefaultOptions(), orderFixture()...)
	order := result.Message("Order")
	require.NotNil(t, order)

	tests := []struct {
		field       string
		want        conflict.Type
		convertible bool
		skipMutator bool
		resolved    schema.Kind
	}{
		{"amount", conflict.Widening, true, true, schema.KindInt64},
		{"status", conflict.IntEnum, true, true, schema.KindInt32},
		{"id", conflict.StringBytes, true, true, schema.KindString},
		{"tags", conflict.RepeatedSingle, true, true, schema.KindString},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			f := order.Field(tt.field)
			require.NotNil(t, f)
			assert.Equal(t, tt.want, f.Conflict)
			assert.Equal(t, tt.convertible, f.IsConvertible())
			assert.Equal(t, tt.skipMutator, f.SkipMutator())
			require.NotNil(t, f.Resolved)
			assert.Equal(t, tt.resolved, f.Resolved.Type.Kind)
		})
	}

	assert.True(t, order.Field("tags").Resolved.Repeated)
	assert.Equal(t, conflict.None, order.Field("card").Conflict)
	assert.Nil(t, order.Field("card").Resolved)
}

func TestMerge_Widening(t *testing.T) {
	result := mustMerge(t, DefaultOptions(),
		snap("v1", msg("Payment", scalar("amount", 5, schema.KindInt32))),
		snap("v2", msg("Payment", scalar("amount", 5, schema.KindInt64))),
	)

	f := result.Message("Payment").Field("amount")
	require.NotNil(t, f)
	assert.Equal(t, conflict.Widening, f.Conflict)
	assert.True(t, f.IsConvertible())
	assert.True(t, f.SkipMutator())
	assert.Equal(t, []string{"v1", "v2"}, f.Presence())
}

func TestMerge_IntEnumSynthesizesConflictEnum(t *testing.T) {
	v1 := snap("v1", msg("Task", scalar("status", 3, schema.KindInt32)))
	v2 := snap("v2", msg("Task", enumRef("status", 3, "StatusEnum")))
	v2.Enums = []schema.Enum{enumOf("StatusEnum", val("UNKNOWN", 0), val("RUNNING", 1), val("DONE", 2))}

	result := mustMerge(t, DefaultOptions(), v1, v2)

	f := result.Message("Task").Field("status")
	require.NotNil(t, f)
	assert.Equal(t, conflict.IntEnum, f.Conflict)

	info, ok := result.ConflictEnum("Task.status")
	require.True(t, ok)
	assert.Equal(t, "Status", info.EnumName)
	assert.Equal(t, "Task", info.Message)
	assert.Equal(t, "status", info.Field)
	require.Len(t, info.Values, 3)
	for i, want := range []int32{0, 1, 2} {
		assert.Equal(t, want, info.Values[i].Number)
	}
	assert.Equal(t, []string{"v1"}, info.IntVersions)
	assert.Equal(t, map[string]string{"v2": "StatusEnum"}, info.EnumVersions)
	assert.True(t, info.UsesEnum("v2"))
	assert.False(t, info.UsesEnum("v1"))
}

func TestMerge_ConflictEnumUnionAcrossVersions(t *testing.T) {
	result := mustMerge(t, DefaultOptions(), orderFixture()...)

	info, ok := result.ConflictEnum("Order.status")
	require.True(t, ok)
	require.Len(t, info.Values, 4)
	assert.Equal(t, "CANCELLED", info.Values[3].Name)
	assert.Equal(t, []string{"v3"}, info.Values[3].Presence)
	assert.Equal(t, []string{"v2", "v3"}, info.Values[0].Presence)
}

func TestMerge_ConflictEnumNestedLookup(t *testing.T) {
	v1 := snap("v1", msg("Job", scalar("state", 1, schema.KindInt32)))
	job := msg("Job", enumRef("state", 1, "Job.State"))
	job.Enums = []schema.Enum{enumOf("State", val("IDLE", 0), val("BUSY", 1))}
	v2 := snap("v2", job)

	result := mustMerge(t, DefaultOptions(), v1, v2)

	info, ok := result.ConflictEnum("Job.state")
	require.True(t, ok)
	assert.Len(t, info.Values, 2)
	assert.Equal(t, "Job.State", info.EnumVersions["v2"])
}

func TestMerge_ConflictEnumMissingType(t *testing.T) {
	err := mergeErr(DefaultOptions(),
		snap("v1", msg("Job", scalar("state", 1, schema.KindInt32))),
		snap("v2", msg("Job", enumRef("state", 1, "Missing"))),
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedInput))
}

func TestMerge_StringBytes(t *testing.T) {
	result := mustMerge(t, DefaultOptions(),
		snap("v1", msg("User", scalar("id", 2, schema.KindString))),
		snap("v2", msg("User", scalar("id", 2, schema.KindBytes))),
	)

	f := result.Message("User").Field("id")
	assert.Equal(t, conflict.StringBytes, f.Conflict)
	assert.True(t, f.IsConvertible())
}

func TestMerge_NameMappingIsolation(t *testing.T) {
	v1 := snap("v1", msg("Order",
		scalar("shift_doc", 15, schema.KindInt32),
		msgRef("parent_order", 17, "Order"),
	))
	v2 := snap("v2", msg("Order",
		msgRef("parent_order", 15, "Order"),
	))
	opts := DefaultOptions()
	opts.Mappings = []schema.FieldMapping{{Message: "Order", Field: "parent_order"}}

	result := mustMerge(t, opts, v1, v2)
	order := result.Message("Order")
	require.Len(t, order.Fields, 2)

	parent := order.Field("parent_order")
	require.NotNil(t, parent)
	assert.Equal(t, conflict.None, parent.Conflict)
	assert.True(t, parent.NameMapped)
	assert.Equal(t, []string{"v1", "v2"}, parent.Presence())
	v1Slot, _ := parent.Slot("v1")
	v2Slot, _ := parent.Slot("v2")
	assert.Equal(t, int32(17), v1Slot.Number)
	assert.Equal(t, int32(15), v2Slot.Number)

	shift := order.Field("shift_doc")
	require.NotNil(t, shift)
	assert.Equal(t, conflict.None, shift.Conflict)
	assert.False(t, shift.NameMapped)
	assert.Equal(t, []string{"v1"}, shift.Presence())
}

func TestMerge_NameMappingWithExplicitNumbers(t *testing.T) {
	v1 := snap("v1", msg("Order", scalar("shift_doc", 15, schema.KindInt32), msgRef("parent_order", 17, "Order")))
	v2 := snap("v2", msg("Order", msgRef("parent_order", 15, "Order")))

	t.Run("matching table", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Mappings = []schema.FieldMapping{{
			Message:        "Order",
			Field:          "parent_order",
			VersionNumbers: map[string]int32{"v1": 17, "v2": 15},
		}}
		result := mustMerge(t, opts, v1, v2)
		assert.True(t, result.Message("Order").Field("parent_order").NameMapped)
	})

	t.Run("mismatching table falls back to numbers", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Mappings = []schema.FieldMapping{{
			Message:        "Order",
			Field:          "parent_order",
			VersionNumbers: map[string]int32{"v1": 99, "v2": 15},
		}}
		result := mustMerge(t, opts, v1, v2)
		order := result.Message("Order")

		// v1's parent_order is rejected, so v2's #15 pairs with shift_doc by number
		shift := order.FieldByNumber("v1", 15)
		require.NotNil(t, shift)
		assert.Equal(t, []string{"v1", "v2"}, shift.Presence())
		assert.Equal(t, conflict.PrimitiveMessage, shift.Conflict)
		assert.False(t, shift.NameMapped)
	})
}

func TestMerge_NameMappingStillClassifiesTypes(t *testing.T) {
	opts := DefaultOptions()
	opts.Mappings = []schema.FieldMapping{{Message: "Doc", Field: "owner"}}

	result := mustMerge(t, opts,
		snap("v1", msg("Doc", scalar("owner", 3, schema.KindString))),
		snap("v2", msg("Doc", msgRef("owner", 7, "User"))),
	)

	f := result.Message("Doc").Field("owner")
	assert.True(t, f.NameMapped)
	assert.Equal(t, conflict.PrimitiveMessage, f.Conflict)
	assert.False(t, f.IsConvertible())
}

func TestMerge_NameMappingSingleVersionSkipped(t *testing.T) {
	opts := DefaultOptions()
	opts.Mappings = []schema.FieldMapping{{Message: "Order", Field: "legacy"}}

	result := mustMerge(t, opts,
		snap("v1", msg("Order", scalar("legacy", 4, schema.KindInt32))),
		snap("v2", msg("Order", scalar("other", 4, schema.KindInt32))),
	)

	f := result.Message("Order").FieldByNumber("v1", 4)
	require.NotNil(t, f)
	assert.False(t, f.NameMapped)
	assert.Equal(t, []string{"v1", "v2"}, f.Presence())
	assert.Equal(t, "legacy", f.Name)
}

func TestMerge_ThreeVersionFoldAgainstFirst(t *testing.T) {
	tests := []struct {
		name  string
		kinds []schema.Kind
		want  conflict.Type
	}{
		{"widen then back", []schema.Kind{schema.KindInt32, schema.KindInt64, schema.KindInt32}, conflict.Widening},
		{"narrow then incompatible", []schema.Kind{schema.KindInt64, schema.KindInt32, schema.KindBool}, conflict.Incompatible},
		{"float double float", []schema.Kind{schema.KindFloat, schema.KindDouble, schema.KindFloat}, conflict.FloatDouble},
		{"stable", []schema.Kind{schema.KindInt32, schema.KindInt32, schema.KindInt32}, conflict.None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var snapshots []schema.Snapshot
			for i, k := range tt.kinds {
				snapshots = append(snapshots, snap("v"+string(rune('1'+i)), msg("M", scalar("value", 1, k))))
			}
			result := mustMerge(t, DefaultOptions(), snapshots...)
			assert.Equal(t, tt.want, result.Message("M").Field("value").Conflict)
		})
	}
}

func TestMerge_OptionalRequired(t *testing.T) {
	result := mustMerge(t, DefaultOptions(),
		snap("v1", msg("M", withCardinality(scalar("code", 1, schema.KindInt32), schema.CardinalityOptional))),
		snap("v2", msg("M", withCardinality(scalar("code", 1, schema.KindInt32), schema.CardinalityRequired))),
	)

	f := result.Message("M").Field("code")
	assert.Equal(t, conflict.OptionalRequired, f.Conflict)
	assert.True(t, f.IsConvertible())
	assert.False(t, f.SkipMutator())
}

func TestMerge_MapFields(t *testing.T) {
	entry := func(value schema.Kind) schema.Message {
		return schema.Message{
			Name:     "CountsEntry",
			MapEntry: true,
			Fields: []schema.Field{
				scalar("key", 1, schema.KindString),
				scalar("value", 2, value),
			},
		}
	}
	stats := func(value schema.Kind) schema.Message {
		m := msg("Stats", withCardinality(msgRef("counts", 1, "Stats.CountsEntry"), schema.CardinalityRepeated))
		m.Messages = []schema.Message{entry(value)}
		return m
	}

	result := mustMerge(t, DefaultOptions(),
		snap("v1", stats(schema.KindInt32)),
		snap("v2", stats(schema.KindInt64)),
	)

	m := result.Message("Stats")
	assert.Empty(t, m.Messages, "map entry types are folded into their field")

	f := m.Field("counts")
	require.NotNil(t, f)
	assert.True(t, f.IsMap())
	assert.Equal(t, conflict.None, f.Conflict)
	assert.Equal(t, conflict.Widening, f.MapValueConflict)

	slot, _ := f.Slot("v2")
	require.NotNil(t, slot.Map)
	assert.Equal(t, schema.KindInt64, slot.Map.Value.Kind)
}

func TestMerge_NestedMessagesAndEnums(t *testing.T) {
	outer := func(version string, innerField schema.Kind) schema.Snapshot {
		m := msg("Outer", msgRef("inner", 1, "Outer.Inner"))
		m.Messages = []schema.Message{msg("Inner", scalar("value", 1, innerField))}
		m.Enums = []schema.Enum{enumOf("Mode", val("OFF", 0), val("ON", 1))}
		return snap(version, m)
	}

	result := mustMerge(t, DefaultOptions(), outer("v1", schema.KindFloat), outer("v2", schema.KindDouble))

	inner := result.Message("Outer.Inner")
	require.NotNil(t, inner)
	assert.Equal(t, "Outer.Inner", inner.Path)
	assert.Equal(t, conflict.FloatDouble, inner.Field("value").Conflict)

	mode := result.Enum("Outer.Mode")
	require.NotNil(t, mode)
	assert.Equal(t, "Outer.Mode", mode.Path)
	assert.Equal(t, []string{"v1", "v2"}, mode.Presence)
}

func TestMerge_EquivalentEnums(t *testing.T) {
	build := func(version string, nestedValues ...schema.EnumValue) schema.Snapshot {
		order := msg("Order", enumRef("status", 1, "Order.Status"))
		order.Enums = []schema.Enum{enumOf("Status", nestedValues...)}
		item := msg("Item", enumRef("status", 1, "Item.Status"))
		item.Enums = []schema.Enum{enumOf("Status", val("A", 0), val("B", 7))}
		s := snap(version, order, item)
		s.Enums = []schema.Enum{enumOf("Status", val("NEW", 0), val("DONE", 1))}
		return s
	}

	result := mustMerge(t, DefaultOptions(),
		build("v1", val("NEW", 0), val("DONE", 1)),
		build("v2", val("NEW", 0), val("DONE", 1)),
	)

	assert.Equal(t, map[string]string{"Order.Status": "Status"}, result.EquivalentEnums)
	assert.Same(t, result.Enum("Status"), result.ResolveEnum("Order.Status"))
	assert.Same(t, result.Enum("Item.Status"), result.ResolveEnum("Item.Status"))
}

func TestMerge_Exclusions(t *testing.T) {
	opts := DefaultOptions()
	opts.ExcludeMessages = []string{"Internal"}
	opts.ExcludeFields = []string{"Order.debug"}

	result := mustMerge(t, opts,
		snap("v1",
			msg("Order", scalar("id", 1, schema.KindString), scalar("debug", 2, schema.KindString)),
			msg("Internal", scalar("x", 1, schema.KindInt32)),
		),
	)

	assert.Nil(t, result.Message("Internal"))
	assert.NotNil(t, result.Message("Order").Field("id"))
	assert.Nil(t, result.Message("Order").Field("debug"))
}

func TestMerge_ExcludeFieldByLaterName(t *testing.T) {
	opts := DefaultOptions()
	opts.ExcludeFields = []string{"Order.trace"}

	result := mustMerge(t, opts,
		snap("v1", msg("Order", scalar("id", 1, schema.KindString), scalar("debug", 2, schema.KindString))),
		snap("v2", msg("Order", scalar("id", 1, schema.KindString), scalar("trace", 2, schema.KindString))),
	)

	order := result.Message("Order")
	require.NotNil(t, order)
	assert.Nil(t, order.Field("debug"))
	assert.Nil(t, order.FieldByNumber("v2", 2))
	assert.Len(t, order.Fields, 1)
}

func TestMerge_Idempotent(t *testing.T) {
	opts := DefaultOptions()
	opts.Mappings = []schema.FieldMapping{{Message: "Order", Field: "id"}}

	first := mustMerge(t, opts, orderFixture()...)
	second := mustMerge(t, opts, orderFixture()...)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("merging the same snapshots twice differs (-first +second):\n%s", diff)
	}
}

func TestMerge_WorkerCountDoesNotChangeResult(t *testing.T) {
	var snapshots []schema.Snapshot
	for _, v := range []string{"v1", "v2"} {
		var msgs []schema.Message
		for i := 0; i < 20; i++ {
			kind := schema.KindInt32
			if v == "v2" && i%3 == 0 {
				kind = schema.KindInt64
			}
			msgs = append(msgs, msg("M"+string(rune('A'+i)), scalar("value", 1, kind)))
		}
		snapshots = append(snapshots, snap(v, msgs...))
	}

	sequential := mustMerge(t, Options{Workers: 1}, snapshots...)
	parallel := mustMerge(t, Options{Workers: 8}, snapshots...)

	if diff := cmp.Diff(sequential, parallel); diff != "" {
		t.Errorf("parallel merge differs from sequential (-seq +par):\n%s", diff)
	}
	assert.Equal(t, "MA", parallel.Messages[0].Name)
}

func TestMerge_MessageOrderAndPresence(t *testing.T) {
	result := mustMerge(t, DefaultOptions(), orderFixture()...)

	require.Len(t, result.Messages, 2)
	assert.Equal(t, "Order", result.Messages[0].Name)
	assert.Equal(t, "Customer", result.Messages[1].Name)
	assert.Equal(t, []string{"v1", "v3"}, result.Message("Customer").Presence)
	assert.Equal(t, []string{"v1", "v2", "v3"}, result.Versions)

	note := result.Message("Order").Field("note")
	assert.Equal(t, []string{"v2"}, note.Presence())
	assert.False(t, note.Universal())
	_, present := note.Slot("v1")
	assert.False(t, present)
}

func TestMerge_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewMergeMetrics(registry)

	merger := NewMerger(DefaultOptions(), observability.NewDiscardLogger(), metrics)
	_, err := merger.Merge(context.Background(), orderFixture())
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.MergesTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FieldConflictsTotal.WithLabelValues("WIDENING")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.OneofConflictsTotal.WithLabelValues("RENAMED")))
}

func TestMerge_Errors(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		snapshots []schema.Snapshot
		target    error
	}{
		{
			name:   "no snapshots",
			opts:   DefaultOptions(),
			target: ErrNoSnapshots,
		},
		{
			name:      "duplicate version",
			opts:      DefaultOptions(),
			snapshots: []schema.Snapshot{snap("v1"), snap("v1")},
			target:    ErrDuplicateVersion,
		},
		{
			name: "mapping to unknown message",
			opts: Options{Mappings: []schema.FieldMapping{{Message: "Nope", Field: "x"}}},
			snapshots: []schema.Snapshot{
				snap("v1", msg("Order", scalar("x", 1, schema.KindInt32))),
			},
			target: ErrUnknownMessage,
		},
		{
			name: "invalid mapping number",
			opts: Options{Mappings: []schema.FieldMapping{{
				Message: "Order", Field: "x", VersionNumbers: map[string]int32{"v1": 0},
			}}},
			snapshots: []schema.Snapshot{snap("v1", msg("Order", scalar("x", 1, schema.KindInt32)))},
			target:    ErrMalformedInput,
		},
		{
			name: "mapping with unknown version",
			opts: Options{Mappings: []schema.FieldMapping{{
				Message: "Order", Field: "x", VersionNumbers: map[string]int32{"v9": 1},
			}}},
			snapshots: []schema.Snapshot{snap("v1", msg("Order", scalar("x", 1, schema.KindInt32)))},
			target:    ErrMalformedInput,
		},
		{
			name: "duplicate field number",
			opts: DefaultOptions(),
			snapshots: []schema.Snapshot{
				snap("v1", msg("Order", scalar("a", 1, schema.KindInt32), scalar("b", 1, schema.KindInt32))),
			},
			target: ErrMalformedInput,
		},
		{
			name: "map entry missing value",
			opts: DefaultOptions(),
			snapshots: []schema.Snapshot{
				snap("v1", schema.Message{
					Name:   "Stats",
					Fields: []schema.Field{msgRef("counts", 1, "Stats.CountsEntry")},
					Messages: []schema.Message{{
						Name:     "CountsEntry",
						MapEntry: true,
						Fields:   []schema.Field{scalar("key", 1, schema.KindString)},
					}},
				}),
			},
			target: ErrMalformedInput,
		},
		{
			name:      "field without type",
			opts:      DefaultOptions(),
			snapshots: []schema.Snapshot{snap("v1", msg("Order", schema.Field{Name: "x", Number: 1}))},
			target:    ErrMalformedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewMerger(tt.opts, observability.NewDiscardLogger(), nil).
				Merge(context.Background(), tt.snapshots)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, tt.target), "error %v is not %v", err, tt.target)
		})
	}
}

func TestInputError_Message(t *testing.T) {
	err := mergeErr(DefaultOptions(),
		snap("v2", msg("Order", scalar("a", 3, schema.KindInt32), scalar("b", 3, schema.KindInt32))),
	)

	var inputErr *InputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "v2", inputErr.Version)
	assert.Equal(t, "Order", inputErr.Message)
	assert.Equal(t, "b", inputErr.Field)
	assert.Contains(t, err.Error(), "field number 3 already used by 'a'")
}

func TestMerge_NilLoggerAndWorkers(t *testing.T) {
	merger := NewMerger(Options{}, nil, nil)
	require.NotNil(t, merger.log)
	assert.Equal(t, 1, merger.opts.Workers)
}
