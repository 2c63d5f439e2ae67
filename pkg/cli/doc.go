// Package cli provides the protomerge command-line interface.
//
// # Overview
//
// Both commands load every configured version with pkg/protoload, merge them with
// pkg/merge and then report on the merged schema.
//
// # Commands
//
// merge: Report field conflicts, oneof conflicts, equivalent enums and synthesized
// conflict enums as JSON or YAML
//
//	protomerge merge \
//		--schema v1=proto/v1 \
//		--schema v2=proto/v2 \
//		--format json \
//		--output report.json
//
// diff: Report changes between adjacent versions, or between --from and --to
//
//	protomerge diff --config protomerge.yaml --format markdown
//	protomerge diff --config protomerge.yaml --from v1 --to v3 --fail-on-breaking
//
// # Configuration
//
// Versions, field mappings and exclusions come from the file given with --config
// or $PROTOMERGE_CONFIG. --schema replaces the configured versions and --mappings
// adds field mappings from a separate file. See pkg/config.
//
// # Watch Mode
//
// With --watch both commands run once and then again whenever a .proto file below
// one of the version directories changes. Every rerun is a fresh load and merge.
//
// # Metrics
//
// With --metrics-file the merge and diff metrics are written in the Prometheus
// text format when the command finishes, for node_exporter's textfile collector.
//
// # Related Packages
//
//   - pkg/config: Loads the run configuration
//   - pkg/protoload: Compiles the .proto files
//   - pkg/merge: Builds the unified schema
//   - pkg/diff: Computes and formats changes
package cli
