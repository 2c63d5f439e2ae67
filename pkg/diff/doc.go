// Package diff reports the changes between two schema versions with a breaking-change verdict.
//
// # Overview
//
// Compare works on two schema.Snapshot values. CompareVersions and CompareChain work
// on a merged unified.Schema by projecting each version back out of it, so a chain of N
// versions produces N-1 results:
//
//	analyzer := diff.NewAnalyzer(log, metrics)
//	results, err := analyzer.CompareChain(merged)
//	if err != nil {
//		return err
//	}
//	return diff.Write(os.Stdout, results, diff.FormatText, true)
//
// # Breaking Rules
//
// REMOVED, NUMBER_CHANGED, VALUE_REMOVED, VALUE_NUMBER_CHANGED, MESSAGE_REMOVED and
// ENUM_REMOVED are always breaking. TYPE_CHANGED is breaking unless the conflict
// classifier calls the transition a loss-free widening (WIDENING, INT_ENUM,
// SIGNED_UNSIGNED, FLOAT_DOUBLE). LABEL_CHANGED is breaking between repeated and
// singular. ADDED is breaking only for required fields. RENAMED and MOVED are
// reported as warnings.
package diff
