package unified

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protomerge/pkg/conflict"
	"github.com/platinummonkey/protomerge/pkg/schema"
)

// testSchema builds a small merged schema by hand:
//
//	Order   v1 v2   id(1) string, amount(2) int32->int64, note(3) v2 only, oneof payment
//	Order.Item v2
//	Status  v1 v2   NEW(0) v1 v2, DONE(1) v2
func testSchema() *Schema {
	str := schema.Scalar(schema.KindString)
	amount := &MergedField{
		Name: "amount", Number: 2, Conflict: conflict.Widening,
		Resolved: &conflict.Resolution{Type: schema.Scalar(schema.KindInt64)},
		Slots: []VersionSlot{
			PresentSlot("v1", schema.Field{Name: "amount", Number: 2, Type: schema.Scalar(schema.KindInt32)}),
			PresentSlot("v2", schema.Field{Name: "amount", Number: 2, Type: schema.Scalar(schema.KindInt64)}),
		},
	}
	id := &MergedField{
		Name: "id", Number: 1,
		Slots: []VersionSlot{
			PresentSlot("v1", schema.Field{Name: "id", Number: 1, Type: str}),
			PresentSlot("v2", schema.Field{Name: "id", Number: 1, Type: str}),
		},
	}
	note := &MergedField{
		Name: "note", Number: 3,
		Slots: []VersionSlot{
			AbsentSlot("v1"),
			PresentSlot("v2", schema.Field{Name: "note", Number: 3, Type: str, Oneof: "payment"}),
		},
	}

	status := &MergedEnum{
		Name: "Status", Path: "Status", Presence: []string{"v1", "v2"},
		Values: []MergedEnumValue{
			{Name: "NEW", Number: 0, Presence: []string{"v1", "v2"}},
			{Name: "DONE", Number: 1, Presence: []string{"v2"}},
		},
	}

	return &Schema{
		Versions: []string{"v1", "v2"},
		Messages: []*MergedMessage{{
			Name: "Order", Path: "Order", Presence: []string{"v1", "v2"},
			Fields: []*MergedField{id, amount, note},
			Oneofs: []*MergedOneof{{
				Name: "payment",
				Membership: []OneofMembership{
					{Version: "v1"},
					{Version: "v2", Present: true, Name: "payment", Numbers: []int32{3}},
				},
				Numbers: []int32{3},
				Conflicts: []OneofConflict{
					PartialExistenceConflict{Oneof: "payment", PresentIn: []string{"v2"}, MissingIn: []string{"v1"}},
				},
			}},
			Messages: []*MergedMessage{{Name: "Item", Path: "Order.Item", Presence: []string{"v2"}}},
			Enums: []*MergedEnum{{
				Name: "Status", Path: "Order.Status", Presence: []string{"v2"},
				Values: []MergedEnumValue{{Name: "NEW", Number: 0, Presence: []string{"v2"}}, {Name: "DONE", Number: 1, Presence: []string{"v2"}}},
			}},
		}},
		Enums:           []*MergedEnum{status},
		EquivalentEnums: map[string]string{"Order.Status": "Status"},
		ConflictEnums:   map[string]*ConflictEnumInfo{},
	}
}

func TestMergedField(t *testing.T) {
	s := testSchema()
	order := s.Message("Order")

	amount := order.Field("amount")
	assert.True(t, amount.HasConflict())
	assert.True(t, amount.IsConvertible())
	assert.True(t, amount.SkipMutator())
	assert.True(t, amount.Universal())
	assert.Equal(t, "Amount", amount.ExportedName())

	note := order.Field("note")
	assert.Equal(t, []string{"v2"}, note.Presence())
	assert.False(t, note.PresentIn("v1"))
	assert.True(t, note.PresentIn("v2"))
	assert.False(t, note.Universal())
	assert.True(t, note.InOneof())
	assert.Equal(t, "v2", note.Anchor().Version)

	_, ok := note.Slot("v3")
	assert.False(t, ok)

	assert.Equal(t, []*MergedField{amount}, order.ConflictingFields())
	assert.Same(t, note, order.FieldByNumber("v2", 3))
	assert.Nil(t, order.FieldByNumber("v1", 3))
}

func TestSchema_Lookups(t *testing.T) {
	s := testSchema()

	assert.Equal(t, "Order.Item", s.Message("Order.Item").Path)
	assert.Nil(t, s.Message("Order.Missing"))
	assert.Nil(t, s.Message("Missing"))

	assert.Equal(t, "Status", s.Enum("Status").Path)
	assert.Equal(t, "Order.Status", s.Enum("Order.Status").Path)
	assert.Nil(t, s.Enum("Nope.Status"))
	assert.Same(t, s.Enum("Status"), s.ResolveEnum("Order.Status"))

	_, ok := s.ConflictEnum("Order.amount")
	assert.False(t, ok)

	assert.True(t, s.HasVersion("v2"))
	assert.False(t, s.HasVersion("v3"))

	var paths []string
	s.WalkMessages(func(m *MergedMessage) { paths = append(paths, m.Path) })
	assert.Equal(t, []string{"Order", "Order.Item"}, paths)
}

func TestMergedEnum(t *testing.T) {
	s := testSchema()
	top := s.Enum("Status")
	nested := s.Enum("Order.Status")

	assert.Equal(t, []int32{0, 1}, top.Numbers())
	assert.True(t, top.SameValueSet(nested))

	v, ok := top.Value(1)
	require.True(t, ok)
	assert.Equal(t, "DONE", v.Name)
	_, ok = top.Value(5)
	assert.False(t, ok)

	shorter := &MergedEnum{Values: []MergedEnumValue{{Number: 0}}}
	assert.False(t, top.SameValueSet(shorter))
	other := &MergedEnum{Values: []MergedEnumValue{{Number: 0}, {Number: 2}}}
	assert.False(t, top.SameValueSet(other))
}

func TestMergedEnumValue_NamesIn(t *testing.T) {
	v := MergedEnumValue{
		Name:     "OK",
		Number:   1,
		Presence: []string{"v1", "v2"},
		Names: []VersionName{
			{Version: "v1", Name: "OK"},
			{Version: "v2", Name: "SUCCESS"},
			{Version: "v2", Name: "FINE"},
		},
	}
	assert.Equal(t, []string{"OK"}, v.NamesIn("v1"))
	assert.Equal(t, []string{"SUCCESS", "FINE"}, v.NamesIn("v2"))
	assert.Nil(t, v.NamesIn("v3"))

	bare := MergedEnumValue{Name: "DONE", Number: 2, Presence: []string{"v1"}}
	assert.Equal(t, []string{"DONE"}, bare.NamesIn("v1"))
}

func TestMergedOneof(t *testing.T) {
	o := testSchema().Message("Order").Oneof("payment")
	require.NotNil(t, o)

	assert.Equal(t, "Payment", o.ExportedName())
	assert.Equal(t, []string{"v2"}, o.Presence())
	assert.True(t, o.HasConflict(PartialExistence))
	assert.False(t, o.HasConflict(Renamed))
	assert.Len(t, o.ConflictsOf(PartialExistence), 1)

	c := o.Conflicts[0]
	assert.Equal(t, []string{"v2"}, c.Versions())
	assert.Equal(t, "oneof 'payment' exists in [v2] but not in [v1]", c.Describe())
	assert.Equal(t, "PARTIAL_EXISTENCE", c.Kind().String())
}

func TestConflictEnumInfo_UsesEnum(t *testing.T) {
	info := &ConflictEnumInfo{
		EnumVersions: map[string]string{"v2": "StatusEnum"},
		IntVersions:  []string{"v1"},
	}
	assert.True(t, info.UsesEnum("v2"))
	assert.False(t, info.UsesEnum("v1"))
}

func TestProject(t *testing.T) {
	s := testSchema()

	v1, err := Project(s, "v1")
	require.NoError(t, err)
	require.Len(t, v1.Messages, 1)
	order := v1.Messages[0]
	assert.Len(t, order.Fields, 2)
	assert.Equal(t, schema.KindInt32, order.Field(2).Type.Kind)
	assert.Nil(t, order.Field(3))
	assert.Empty(t, order.Messages)
	assert.Empty(t, order.Enums)
	require.Len(t, v1.Enums, 1)
	assert.Equal(t, []schema.EnumValue{{Name: "NEW", Number: 0}}, v1.Enums[0].Values)

	v2, err := Project(s, "v2")
	require.NoError(t, err)
	order = v2.Messages[0]
	assert.Len(t, order.Fields, 3)
	assert.Equal(t, "payment", order.Field(3).Oneof)
	assert.Equal(t, "Item", order.Messages[0].Name)
	assert.Equal(t, "Status", order.Enums[0].Name)

	_, err = Project(s, "v9")
	assert.EqualError(t, err, "version v9 is not part of the merged schema")
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(testSchema())

	assert.Equal(t, 2, stats.Versions)
	assert.Equal(t, 2, stats.Messages)
	assert.Equal(t, 3, stats.Fields)
	assert.Equal(t, 2, stats.UniversalFields)
	assert.Equal(t, 2, stats.Enums)
	assert.Equal(t, 1, stats.Oneofs)
	assert.Equal(t, 1, stats.OneofConflicts)
	assert.Equal(t, 1, stats.EquivalentEnums)
	assert.Equal(t, map[conflict.Type]int{conflict.Widening: 1}, stats.Conflicts)
	assert.Equal(t, 1, stats.TotalConflicts())
}

func TestBytesToString(t *testing.T) {
	s, err := BytesToString([]byte("héllo"))
	require.NoError(t, err)
	assert.Equal(t, "héllo", s)

	_, err = BytesToString([]byte{0xff, 0xfe})
	assert.Error(t, err)

	assert.Equal(t, []byte("abc"), StringToBytes("abc"))
}
