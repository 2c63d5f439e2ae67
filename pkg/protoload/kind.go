package protoload

import (
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/platinummonkey/protomerge/pkg/schema"
)

var kindsByType = map[descriptorpb.FieldDescriptorProto_Type]schema.Kind{
	descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:   schema.KindDouble,
	descriptorpb.FieldDescriptorProto_TYPE_FLOAT:    schema.KindFloat,
	descriptorpb.FieldDescriptorProto_TYPE_INT32:    schema.KindInt32,
	descriptorpb.FieldDescriptorProto_TYPE_INT64:    schema.KindInt64,
	descriptorpb.FieldDescriptorProto_TYPE_UINT32:   schema.KindUint32,
	descriptorpb.FieldDescriptorProto_TYPE_UINT64:   schema.KindUint64,
	descriptorpb.FieldDescriptorProto_TYPE_SINT32:   schema.KindSint32,
	descriptorpb.FieldDescriptorProto_TYPE_SINT64:   schema.KindSint64,
	descriptorpb.FieldDescriptorProto_TYPE_FIXED32:  schema.KindFixed32,
	descriptorpb.FieldDescriptorProto_TYPE_FIXED64:  schema.KindFixed64,
	descriptorpb.FieldDescriptorProto_TYPE_SFIXED32: schema.KindSfixed32,
	descriptorpb.FieldDescriptorProto_TYPE_SFIXED64: schema.KindSfixed64,
	descriptorpb.FieldDescriptorProto_TYPE_BOOL:     schema.KindBool,
	descriptorpb.FieldDescriptorProto_TYPE_STRING:   schema.KindString,
	descriptorpb.FieldDescriptorProto_TYPE_BYTES:    schema.KindBytes,
	descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:  schema.KindMessage,
	// groups are delimited messages on the wire but still messages to the merger
	descriptorpb.FieldDescriptorProto_TYPE_GROUP: schema.KindMessage,
	descriptorpb.FieldDescriptorProto_TYPE_ENUM:  schema.KindEnum,
}

// KindFromType maps a descriptor field type to the schema kind
func KindFromType(t descriptorpb.FieldDescriptorProto_Type) schema.Kind {
	if k, ok := kindsByType[t]; ok {
		return k
	}
	return schema.KindUnknown
}

func kindOf(k protoreflect.Kind) schema.Kind {
	// protoreflect kinds share their numbering with descriptor field types
	return KindFromType(descriptorpb.FieldDescriptorProto_Type(k))
}
