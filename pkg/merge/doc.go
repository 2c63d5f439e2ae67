// Package merge unifies N version snapshots of a protobuf schema into one model.
//
// # Overview
//
// Merge walks the union of message names across versions. For each message it
// matches fields across versions, classifies every mismatch with package conflict,
// merges oneof groups and detects their structural conflicts, and recurses into
// nested messages and enums. Top-level messages are independent of each other and
// are merged concurrently, bounded by Options.Workers.
//
// Once every message is merged, two reductions run over the complete result:
//
//   - nested enums whose merged value set matches a top-level enum of the same
//     name are recorded in Schema.EquivalentEnums
//   - every INT_ENUM field gets a synthesized ConflictEnumInfo spanning all
//     versions' enum values
//
// # Field Matching
//
// Fields are matched by wire number. A FieldMapping switches a field to matching
// by proto name; the (version, number) pairs it consumes are removed from number
// matching first, so a renumbered field cannot collide with whatever now occupies
// its old number:
//
//	v1: int32 shift_doc = 15; Order parent_order = 17;
//	v2: Order parent_order = 15;
//
//	merger := merge.NewMerger(merge.Options{
//		Mappings: []schema.FieldMapping{{Message: "Order", Field: "parent_order"}},
//	}, log, nil)
//
// yields parent_order present in v1 and v2 with no conflict, and shift_doc
// present in v1 only. A mapping that matches fewer than two versions is skipped
// with a warning and the field falls back to number matching.
//
// # Errors
//
// Malformed input fails the whole run with an *InputError naming the version,
// message and field. Test with errors.Is(err, ErrMalformedInput).
package merge
