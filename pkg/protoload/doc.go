// Package protoload compiles .proto files with protocompile and converts the result
// into schema.Snapshot values for the merger.
//
// # Overview
//
// Each version lives in its own directory. LoadAll compiles the directories
// concurrently and returns the snapshots in the order they were given:
//
//	loader := protoload.NewLoader(log)
//	snapshots, err := loader.LoadAll(ctx, []protoload.Source{
//		{Version: "v1", Dir: "schemas/v1"},
//		{Version: "v2", Dir: "schemas/v2"},
//	}, 4)
//
// Type references are made relative to the declaring file's package, so
// shop.v1.Order.Item becomes Order.Item. Types from other packages keep
// their fully qualified name. Synthetic oneofs created for proto3 optional
// fields are not reported as oneof groups.
package protoload
