package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "protomerge",
		Short: "Merge protobuf schema versions and report conflicts",
		Long: `protomerge loads several versions of the same protobuf schema, merges them
into one unified model and classifies every difference between them.

Versions are given oldest first, either in a config file or with --schema:

  protomerge merge --schema v1=proto/v1 --schema v2=proto/v2
  protomerge diff --config protomerge.yaml --format markdown`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML config file (defaults to $PROTOMERGE_CONFIG)")
	flags.StringArrayVarP(&opts.schemas, "schema", "s", nil, "Schema version as id=dir, repeatable, oldest first")
	flags.StringVar(&opts.mappingFile, "mappings", "", "YAML file of field mappings")
	flags.StringArrayVarP(&opts.importPaths, "import-path", "I", nil, "Extra import directory, repeatable")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flags.IntVar(&opts.workers, "workers", 4, "Number of concurrent workers")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file")

	root.AddCommand(newMergeCommand(opts))
	root.AddCommand(newDiffCommand(opts))

	return root
}
