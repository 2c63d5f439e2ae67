// Package conflict classifies mismatches between versions of the same field.
//
// Every pair of declarations is assigned one Type from a closed taxonomy. Each
// type carries two predicates that drive code generation:
//
//   - IsConvertible: a single unified accessor can expose every version's value.
//     False only for ENUM_ENUM, PRIMITIVE_MESSAGE and INCOMPATIBLE.
//   - SkipMutator: the unified setter is withheld because no single target type can
//     receive every version's representation. False only for NONE and OPTIONAL_REQUIRED.
//
// # Classification
//
// Classify is direction sensitive. int32 to int64 is WIDENING, int64 to int32 is
// NARROWING. The rules, checked in order:
//
//	repeated vs singular, same element type   REPEATED_SINGLE
//	repeated vs singular, different element   INCOMPATIBLE
//	same kind, same type name                 NONE
//	two distinct enums                        ENUM_ENUM
//	integer <-> enum                          INT_ENUM
//	string <-> bytes                          STRING_BYTES
//	scalar <-> message                        PRIMITIVE_MESSAGE
//	float -> double                           FLOAT_DOUBLE
//	signed 32-bit -> any 64-bit               WIDENING
//	unsigned 32-bit -> any 64-bit             SIGNED_UNSIGNED
//	same width, signed <-> unsigned           SIGNED_UNSIGNED
//	64-bit -> 32-bit, double -> float         NARROWING
//	optional vs singular/required             OPTIONAL_REQUIRED
//	anything else                             INCOMPATIBLE
//
// # Folding more than two versions
//
// Fold classifies every later version against the first version in which the field
// is present and keeps the most severe verdict, so the result does not depend on
// which intermediate representation happened to be accumulated first.
package conflict
