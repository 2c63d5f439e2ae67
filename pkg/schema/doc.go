// Package schema defines the per-version input model consumed by the merger.
//
// A Snapshot is one protocol version's schema tree: top-level messages and enums,
// with nested messages, nested enums and oneof membership already resolved by a
// front-end (see package protoload). Snapshots are treated as immutable once
// handed to the merger.
//
// Type references use package-relative dotted paths ("Order", "Order.Status") so
// that the same logical type compares equal across versions even when each version
// lives in its own proto package.
//
// FieldMapping is the configuration directive that asks the merger to match a field
// by proto name rather than by wire number, for fields that were renumbered between
// versions.
package schema
