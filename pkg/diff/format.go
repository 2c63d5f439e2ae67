package diff

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Format is an output format for diff reports
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
)

// ParseFormat parses a report format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatMarkdown, FormatYAML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown report format: %s", s)
	}
}

// Report is the serialized form of a multi-version diff
type Report struct {
	Results []ReportEntry `json:"results" yaml:"results"`
}

// ReportEntry is one version pair of a Report
type ReportEntry struct {
	FromVersion string   `json:"from_version" yaml:"from_version"`
	ToVersion   string   `json:"to_version" yaml:"to_version"`
	Summary     Summary  `json:"summary" yaml:"summary"`
	Changes     []Change `json:"changes" yaml:"changes"`
}

// NewReport builds a report over a chain of results
func NewReport(results []*Result) Report {
	r := Report{Results: make([]ReportEntry, len(results))}
	for i, res := range results {
		r.Results[i] = ReportEntry{
			FromVersion: res.FromVersion,
			ToVersion:   res.ToVersion,
			Summary:     res.Summary(),
			Changes:     res.Changes,
		}
	}
	return r
}

// Write renders results in the requested format. Colors apply to text output only.
func Write(w io.Writer, results []*Result, format Format, colored bool) error {
	switch format {
	case FormatText:
		return WriteText(w, results, colored)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewReport(results))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewReport(results)); err != nil {
			return err
		}
		return enc.Close()
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(results))
		return err
	default:
		return fmt.Errorf("unknown report format: %s", format)
	}
}

type palette struct {
	breaking    func(string, ...any) string
	nonBreaking func(string, ...any) string
	warning     func(string, ...any) string
	header      func(string, ...any) string
	faint       func(string, ...any) string
}

func newPalette(colored bool) palette {
	if !colored {
		return palette{
			breaking:    fmt.Sprintf,
			nonBreaking: fmt.Sprintf,
			warning:     fmt.Sprintf,
			header:      fmt.Sprintf,
			faint:       fmt.Sprintf,
		}
	}
	return palette{
		breaking:    enabled(color.New(color.FgRed, color.Bold)).SprintfFunc(),
		nonBreaking: enabled(color.New(color.FgGreen)).SprintfFunc(),
		warning:     enabled(color.New(color.FgYellow)).SprintfFunc(),
		header:      enabled(color.New(color.Bold)).SprintfFunc(),
		faint:       enabled(color.New(color.Faint)).SprintfFunc(),
	}
}

// enabled forces color on; the caller has already decided the output is a terminal
func enabled(c *color.Color) *color.Color {
	c.EnableColor()
	return c
}

func (p palette) severity(s Severity) func(string, ...any) string {
	switch s {
	case Breaking:
		return p.breaking
	case NonBreaking:
		return p.nonBreaking
	default:
		return p.warning
	}
}

// WriteText renders a human readable report, one section per version pair
func WriteText(w io.Writer, results []*Result, colored bool) error {
	p := newPalette(colored)
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		s := r.Summary()
		b.WriteString(p.header("%s -> %s", r.FromVersion, r.ToVersion))
		b.WriteString(fmt.Sprintf(" (%d changes, ", s.Total))
		b.WriteString(p.breaking("%d breaking", s.Breaking))
		b.WriteString(")\n")
		if len(r.Changes) == 0 {
			b.WriteString(p.faint("  no changes") + "\n")
			continue
		}
		for _, c := range r.Changes {
			b.WriteString(fmt.Sprintf("  %s %-20s %s\n",
				p.severity(c.Severity)("%-12s", c.Severity), c.Type, c.Description))
			if c.MigrationTip != "" {
				b.WriteString(p.faint("      tip: %s", c.MigrationTip) + "\n")
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Markdown renders results as a markdown document
func Markdown(results []*Result) string {
	var b strings.Builder
	b.WriteString("# Schema Changes\n\n")
	for _, r := range results {
		s := r.Summary()
		b.WriteString(fmt.Sprintf("## %s → %s\n\n", r.FromVersion, r.ToVersion))
		b.WriteString(fmt.Sprintf("**%d** changes, **%d** breaking, %d warnings\n\n", s.Total, s.Breaking, s.Warning))
		if len(r.Changes) == 0 {
			b.WriteString("_No changes._\n\n")
			continue
		}

		b.WriteString("| Severity | Change | Location | Old | New | Description |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, c := range r.Changes {
			b.WriteString(fmt.Sprintf("| %s | `%s` | `%s` | %s | %s | %s |\n",
				severityBadge(c.Severity), c.Type, c.Location(),
				markdownCell(c.OldValue), markdownCell(c.NewValue), markdownCell(c.Description)))
		}
		b.WriteString("\n")

		if breaking := FilterBySeverity(r.Changes, Breaking); len(breaking) > 0 {
			b.WriteString("### Migration\n\n")
			for _, c := range breaking {
				b.WriteString(fmt.Sprintf("- **%s**: %s\n", c.Location(), c.MigrationTip))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func severityBadge(s Severity) string {
	switch s {
	case Breaking:
		return "🔴 breaking"
	case NonBreaking:
		return "🟢 non-breaking"
	default:
		return "🟡 warning"
	}
}

func markdownCell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}
