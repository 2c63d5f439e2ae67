// Package unified holds the merged, version-spanning schema model.
//
// A Schema is produced by package merge and consumed by code generation and
// diff tooling. Every MergedField keeps one VersionSlot per input version so
// that "absent in this version" is never confused with "present with a zero
// value". Oneof conflicts are a closed set of concrete types behind the
// OneofConflict interface:
//
//	for _, c := range oneof.Conflicts {
//		switch c := c.(type) {
//		case unified.RenamedConflict:
//			fmt.Println("merged as", c.Primary)
//		case unified.FieldRemovedConflict:
//			fmt.Println(c.Field, "removed in", c.RemovedIn)
//		}
//	}
//
// Project rebuilds a single version's snapshot from the merged model, which is
// how version-to-version diffs are computed over a Schema.
package unified
