package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/coolbeans/skosgraph/pkg/config"
	"github.com/coolbeans/skosgraph/pkg/metrics"
	"github.com/coolbeans/skosgraph/pkg/persist"
	"github.com/coolbeans/skosgraph/pkg/query"
	"github.com/coolbeans/skosgraph/pkg/skos"
	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	graphPath  string
	dbPath     string
	lang       string
	logLevel   string
}

var flags globalFlags

// app is the open graph, mirror and session for one command invocation.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	graph    *store.TripleStore
	mirror   *persist.Mirror
	session  *skos.Session
	registry *prometheus.Registry
}

// loadConfig resolves configuration from defaults, file, environment and
// command-line flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	bootstrap := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.NewLoader(bootstrap).Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}

	changed := cmd.Flags().Changed
	if changed("graph") {
		cfg.Graph.Path = flags.graphPath
	}
	if changed("db") {
		cfg.Database.Path = flags.dbPath
	}
	if changed("lang") {
		cfg.Vocabulary.Lang = flags.lang
	}
	if changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

// openApp resolves the configuration for cmd and opens the app.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, logger)
}

// newApp loads the graph file, opens the mirror and reconciles any
// operations left pending by an earlier crash. Mutations stay staged in the
// mirror until save has written the graph file, so a crash before that
// point leaves a marker for Recover.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	graph, err := readGraph(cfg.Graph.Path)
	if err != nil {
		return nil, err
	}

	_, statErr := os.Stat(cfg.Database.Path)
	freshMirror := errors.Is(statErr, fs.ErrNotExist)

	mirror, err := persist.Open(cfg.Database.Path, persist.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	session := skos.NewSession(graph,
		skos.WithMirror(mirror),
		skos.WithLogger(logger),
		skos.WithMetrics(metrics.NewMetrics(registry)),
		skos.WithLanguage(cfg.Vocabulary.Lang),
		skos.WithAutoFlush(false),
		skos.WithURINormalizer(cfg.Vocabulary.Normalizer()),
	)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		graph:    graph,
		mirror:   mirror,
		session:  session,
		registry: registry,
	}

	if freshMirror && graph.Count() > 0 {
		logger.Info("populating new mirror from graph", "db", cfg.Database.Path, "triples", graph.Count())
		if err := session.RebuildMirror(ctx); err != nil {
			a.Close()
			return nil, err
		}
	} else if n, err := session.Recover(ctx); err != nil {
		a.Close()
		return nil, err
	} else if n > 0 {
		logger.Warn("recovered pending mirror operations", "count", n)
	}

	return a, nil
}

// query returns a query engine that resolves label lookups through the
// mirror.
func (a *app) query() *query.Engine {
	return query.New(a.session,
		query.WithMirror(a.mirror),
		query.WithLanguage(a.cfg.Vocabulary.Lang),
	)
}

// save writes the graph file and then flushes the staged mirror changes.
// The file is replaced atomically so a failed write leaves the previous
// graph intact and the pending markers in place.
func (a *app) save(ctx context.Context) error {
	if err := writeGraph(a.cfg.Graph.Path, a.graph.All()); err != nil {
		return err
	}
	return a.session.Flush(ctx)
}

// Close releases the mirror.
func (a *app) Close() error {
	return a.mirror.Close()
}

// readGraph loads an N-Triples file into a new store. A missing file is an
// empty graph.
func readGraph(path string) (*store.TripleStore, error) {
	graph := store.NewTripleStore()

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return graph, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open graph: %w", err)
	}
	defer file.Close()

	triples, err := store.ReadNTriples(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph %s: %w", path, err)
	}
	if err := graph.BulkAdd(triples); err != nil {
		return nil, err
	}
	return graph, nil
}

func writeGraph(path string, triples []store.Triple) error {
	store.SortTriples(triples)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create graph directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".skosgraph-*.nt")
	if err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := store.WriteNTriples(tmp, triples); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write graph: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace graph: %w", err)
	}
	return nil
}

// readTriples parses each N-Triples file and concatenates the results.
func readTriples(paths []string) ([]store.Triple, error) {
	var triples []store.Triple
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		parsed, err := store.ReadNTriples(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		triples = append(triples, parsed...)
	}
	return triples, nil
}

// writeOutput prints content, or writes it to path when one is given.
func writeOutput(cmd *cobra.Command, path, content string) error {
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), content)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Written to: %s\n", path)
	return nil
}
