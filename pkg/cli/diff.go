package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/protomerge/pkg/diff"
)

// ErrBreakingChanges is returned by diff --fail-on-breaking when a breaking change was found
var ErrBreakingChanges = errors.New("breaking changes detected")

func newDiffCommand(g *globalOptions) *cobra.Command {
	var (
		format         string
		from, to       string
		noColor        bool
		failOnBreaking bool
		watch          bool
	)

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Report changes between schema versions",
		Long: `Report the changes between adjacent schema versions, or between the two
versions named by --from and --to, with a breaking-change verdict for each.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := diff.ParseFormat(format)
			if err != nil {
				return err
			}
			if (from == "") != (to == "") {
				return fmt.Errorf("--from and --to must be given together")
			}

			s, err := g.newSession(cmd)
			if err != nil {
				return err
			}

			report := func() error {
				merged, err := s.mergeSchemas(cmd.Context())
				if err != nil {
					return err
				}

				analyzer := diff.NewAnalyzer(s.log, s.metrics)
				var results []*diff.Result
				if from != "" {
					result, err := analyzer.CompareVersions(merged, from, to)
					if err != nil {
						return err
					}
					results = []*diff.Result{result}
				} else {
					results, err = analyzer.CompareChain(merged)
					if err != nil {
						return err
					}
				}

				colored := !noColor && !color.NoColor
				if err := diff.Write(cmd.OutOrStdout(), results, outFormat, colored); err != nil {
					return err
				}
				if err := s.flushMetrics(); err != nil {
					return err
				}

				if failOnBreaking {
					for _, r := range results {
						if r.HasBreaking() {
							return ErrBreakingChanges
						}
					}
				}
				return nil
			}

			if watch {
				return watchSchemas(cmd.Context(), s.dirs(), s.log, report)
			}
			return report()
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, markdown, yaml")
	cmd.Flags().StringVar(&from, "from", "", "Compare from this version")
	cmd.Flags().StringVar(&to, "to", "", "Compare to this version")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored text output")
	cmd.Flags().BoolVar(&failOnBreaking, "fail-on-breaking", false, "Exit with an error when a breaking change is found")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rerun whenever a .proto file changes")

	return cmd
}
