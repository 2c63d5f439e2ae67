package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/protomerge/pkg/conflict"
	"github.com/platinummonkey/protomerge/pkg/unified"
)

// MergeReport is the machine-readable result of the merge command
type MergeReport struct {
	RunID           string            `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Versions        []string          `json:"versions" yaml:"versions"`
	Stats           unified.Stats     `json:"stats" yaml:"stats"`
	FieldConflicts  []FieldConflict   `json:"field_conflicts" yaml:"field_conflicts"`
	OneofConflicts  []OneofConflict   `json:"oneof_conflicts" yaml:"oneof_conflicts"`
	EquivalentEnums map[string]string `json:"equivalent_enums,omitempty" yaml:"equivalent_enums,omitempty"`
	ConflictEnums   []ConflictEnum    `json:"conflict_enums,omitempty" yaml:"conflict_enums,omitempty"`
}

// FieldConflict describes one field whose declarations differ between versions
type FieldConflict struct {
	Message          string            `json:"message" yaml:"message"`
	Field            string            `json:"field" yaml:"field"`
	Number           int32             `json:"number" yaml:"number"`
	Conflict         conflict.Type     `json:"conflict" yaml:"conflict"`
	MapValueConflict conflict.Type     `json:"map_value_conflict,omitempty" yaml:"map_value_conflict,omitempty"`
	Handling         string            `json:"handling" yaml:"handling"`
	Severity         string            `json:"severity" yaml:"severity"`
	Resolved         string            `json:"resolved,omitempty" yaml:"resolved,omitempty"`
	NameMapped       bool              `json:"name_mapped,omitempty" yaml:"name_mapped,omitempty"`
	Types            map[string]string `json:"types" yaml:"types"`
}

// OneofConflict is one flattened oneof conflict
type OneofConflict struct {
	Message     string   `json:"message" yaml:"message"`
	Oneof       string   `json:"oneof" yaml:"oneof"`
	Kind        string   `json:"kind" yaml:"kind"`
	Versions    []string `json:"versions" yaml:"versions"`
	Description string   `json:"description" yaml:"description"`
}

// ConflictEnum describes a synthesized enum for an integer/enum field
type ConflictEnum struct {
	Field        string            `json:"field" yaml:"field"`
	EnumName     string            `json:"enum_name" yaml:"enum_name"`
	Values       []string          `json:"values" yaml:"values"`
	EnumVersions map[string]string `json:"enum_versions" yaml:"enum_versions"`
	IntVersions  []string          `json:"int_versions" yaml:"int_versions"`
}

// NewMergeReport flattens a merged schema into a report
func NewMergeReport(u *unified.Schema) *MergeReport {
	report := &MergeReport{
		Versions:        u.Versions,
		Stats:           unified.ComputeStats(u),
		FieldConflicts:  []FieldConflict{},
		OneofConflicts:  []OneofConflict{},
		EquivalentEnums: u.EquivalentEnums,
	}

	u.WalkMessages(func(m *unified.MergedMessage) {
		for _, f := range m.Fields {
			if !f.HasConflict() && f.MapValueConflict == conflict.None {
				continue
			}
			report.FieldConflicts = append(report.FieldConflicts, fieldConflict(m.Path, f))
		}
		for _, o := range m.Oneofs {
			for _, c := range o.Conflicts {
				report.OneofConflicts = append(report.OneofConflicts, OneofConflict{
					Message:     m.Path,
					Oneof:       o.Name,
					Kind:        c.Kind().String(),
					Versions:    c.Versions(),
					Description: c.Describe(),
				})
			}
		}
	})

	paths := make([]string, 0, len(u.ConflictEnums))
	for path := range u.ConflictEnums {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		info := u.ConflictEnums[path]
		values := make([]string, len(info.Values))
		for i, v := range info.Values {
			values[i] = fmt.Sprintf("%s = %d", v.Name, v.Number)
		}
		report.ConflictEnums = append(report.ConflictEnums, ConflictEnum{
			Field:        path,
			EnumName:     info.EnumName,
			Values:       values,
			EnumVersions: info.EnumVersions,
			IntVersions:  info.IntVersions,
		})
	}
	return report
}

func fieldConflict(path string, f *unified.MergedField) FieldConflict {
	c := f.Conflict
	if c == conflict.None {
		c = f.MapValueConflict
	}
	fc := FieldConflict{
		Message:    path,
		Field:      f.Name,
		Number:     f.Number,
		Conflict:   f.Conflict,
		Handling:   c.Handling().String(),
		Severity:   c.Severity().String(),
		NameMapped: f.NameMapped,
		Types:      make(map[string]string, len(f.Slots)),
	}
	if f.MapValueConflict != conflict.None {
		fc.MapValueConflict = f.MapValueConflict
	}
	if f.Resolved != nil {
		fc.Resolved = f.Resolved.Type.String()
		if f.Resolved.Repeated {
			fc.Resolved = "repeated " + fc.Resolved
		}
	}
	for _, s := range f.Slots {
		if s.Present {
			fc.Types[s.Version] = slotType(s)
		}
	}
	return fc
}

func slotType(s unified.VersionSlot) string {
	f := s.Field
	if f.Map != nil {
		return fmt.Sprintf("map<%s, %s>", f.Map.Key, f.Map.Value)
	}
	if f.IsRepeated() {
		return "repeated " + f.Type.String()
	}
	return f.Type.String()
}

// WriteMergeReport encodes the report as JSON or YAML
func WriteMergeReport(w io.Writer, report *MergeReport, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format: %s (must be json or yaml)", format)
	}
}

func newMergeCommand(g *globalOptions) *cobra.Command {
	var (
		format, output string
		watch          bool
	)

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge schema versions and report conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.newSession(cmd)
			if err != nil {
				return err
			}

			report := func() error {
				merged, err := s.mergeSchemas(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if output != "" {
					file, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("failed to create output file: %w", err)
					}
					defer file.Close()
					out = file
				}

				r := NewMergeReport(merged)
				r.RunID = uuid.NewString()
				s.log.WithFields(logrus.Fields{
					"run_id":    r.RunID,
					"conflicts": len(r.FieldConflicts) + len(r.OneofConflicts),
				}).Info("Writing merge report")

				if err := WriteMergeReport(out, r, format); err != nil {
					return err
				}
				return s.flushMetrics()
			}

			if watch {
				return watchSchemas(cmd.Context(), s.dirs(), s.log, report)
			}
			return report()
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: json, yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rerun whenever a .proto file changes")

	return cmd
}
