// Package config provides merge run configuration from a YAML file and environment variables.
//
// # Overview
//
// Defaults are applied first, then the YAML file, then PROTOMERGE_* environment
// variables. The result is validated before it is returned.
//
// # Configuration File
//
//	versions:
//	  - id: v1
//	    dir: proto/v1
//	  - id: v2
//	    dir: proto/v2
//	field_mappings:
//	  - message: Order
//	    field: parent_order
//	    version_numbers: {v1: 17, v2: 15}
//	exclude_messages: [Internal]
//	exclude_fields: [Order.debug_info]
//	workers: 4
//	log_level: info
//
// Relative directories resolve against the directory of the file.
//
// # Environment
//
//	PROTOMERGE_CONFIG="protomerge.yaml"
//	PROTOMERGE_LOG_LEVEL="info"  # debug, info, warn, error
//	PROTOMERGE_LOG_FORMAT="text" # text, json
//	PROTOMERGE_WORKERS="4"
//	PROTOMERGE_METRICS_ENABLED="true"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	merger := merge.NewMerger(cfg.MergeOptions(), logger, nil)
//
// # Related Packages
//
//   - pkg/merge: Consumes MergeOptions
//   - pkg/protoload: Consumes Sources
//   - pkg/observability: Uses the log settings
package config
