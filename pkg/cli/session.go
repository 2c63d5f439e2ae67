package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/protomerge/pkg/config"
	"github.com/platinummonkey/protomerge/pkg/merge"
	"github.com/platinummonkey/protomerge/pkg/observability"
	"github.com/platinummonkey/protomerge/pkg/protoload"
	"github.com/platinummonkey/protomerge/pkg/unified"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	configFile  string
	schemas     []string
	mappingFile string
	importPaths []string
	logLevel    string
	workers     int
	metricsFile string
}

// session is the resolved configuration of one command invocation
type session struct {
	cfg         *config.Config
	log         *logrus.Logger
	registry    *prometheus.Registry
	metrics     *observability.MergeMetrics
	metricsFile string
}

func (o *globalOptions) newSession(cmd *cobra.Command) (*session, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFile(o.configFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}

	if len(o.schemas) > 0 {
		versions, err := parseSchemaFlags(o.schemas)
		if err != nil {
			return nil, err
		}
		cfg.Versions = versions
	}
	if o.mappingFile != "" {
		mappings, err := config.LoadMappings(o.mappingFile)
		if err != nil {
			return nil, err
		}
		cfg.FieldMappings = append(cfg.FieldMappings, mappings...)
	}
	cfg.ImportPaths = append(cfg.ImportPaths, o.importPaths...)
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = o.workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if len(cfg.Versions) == 0 {
		return nil, fmt.Errorf("no schema versions given: use --schema id=dir or a config file")
	}

	s := &session{
		cfg:         cfg,
		log:         observability.NewLogger(cfg.Level(), cfg.Format(), cmd.ErrOrStderr()),
		metricsFile: o.metricsFile,
	}
	if cfg.MetricsEnabled || o.metricsFile != "" {
		s.registry = prometheus.NewRegistry()
		s.metrics = observability.NewMergeMetrics(s.registry)
	}
	return s, nil
}

// mergeSchemas loads every configured version and merges them
func (s *session) mergeSchemas(ctx context.Context) (*unified.Schema, error) {
	loader := protoload.NewLoader(s.log)
	loader.ImportPaths = s.cfg.ImportPaths

	snapshots, err := loader.LoadAll(ctx, s.cfg.Sources(), s.cfg.Workers)
	if err != nil {
		return nil, err
	}

	merger := merge.NewMerger(s.cfg.MergeOptions(), s.log, s.metrics)
	return merger.Merge(ctx, snapshots)
}

// dirs returns the directories of every configured version
func (s *session) dirs() []string {
	dirs := make([]string, len(s.cfg.Versions))
	for i, v := range s.cfg.Versions {
		dirs[i] = v.Dir
	}
	return dirs
}

// flushMetrics writes the collected metrics in text exposition format
func (s *session) flushMetrics() error {
	if s.registry == nil || s.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(s.metricsFile, s.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// parseSchemaFlags parses id=dir pairs
func parseSchemaFlags(values []string) ([]config.VersionSource, error) {
	versions := make([]config.VersionSource, 0, len(values))
	for _, v := range values {
		id, dir, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(id) == "" || strings.TrimSpace(dir) == "" {
			return nil, fmt.Errorf("invalid --schema value %q: expected id=dir", v)
		}
		versions = append(versions, config.VersionSource{ID: strings.TrimSpace(id), Dir: strings.TrimSpace(dir)})
	}
	return versions, nil
}
