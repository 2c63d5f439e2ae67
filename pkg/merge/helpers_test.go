package merge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/protomerge/pkg/observability"
	"github.com/platinummonkey/protomerge/pkg/schema"
	"github.com/platinummonkey/protomerge/pkg/unified"
)

func snap(version string, msgs ...schema.Message) schema.Snapshot {
	return schema.Snapshot{Version: version, Messages: msgs}
}

func msg(name string, fields ...schema.Field) schema.Message {
	return schema.Message{Name: name, Fields: fields}
}

func scalar(name string, number int32, kind schema.Kind) schema.Field {
	return schema.Field{Name: name, Number: number, Type: schema.Scalar(kind)}
}

func enumRef(name string, number int32, enum string) schema.Field {
	return schema.Field{Name: name, Number: number, Type: schema.EnumType(enum)}
}

func msgRef(name string, number int32, message string) schema.Field {
	return schema.Field{Name: name, Number: number, Type: schema.MessageType(message)}
}

func inOneof(f schema.Field, oneof string) schema.Field {
	f.Oneof = oneof
	return f
}

func withCardinality(f schema.Field, c schema.Cardinality) schema.Field {
	f.Cardinality = c
	return f
}

func enumOf(name string, values ...schema.EnumValue) schema.Enum {
	return schema.Enum{Name: name, Values: values}
}

func val(name string, number int32) schema.EnumValue {
	return schema.EnumValue{Name: name, Number: number}
}

func mustMerge(t *testing.T, opts Options, snapshots ...schema.Snapshot) *unified.Schema {
	t.Helper()
	result, err := NewMerger(opts, observability.NewDiscardLogger(), nil).Merge(context.Background(), snapshots)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func mergeErr(opts Options, snapshots ...schema.Snapshot) error {
	_, err := NewMerger(opts, observability.NewDiscardLogger(), nil).Merge(context.Background(), snapshots)
	return err
}
