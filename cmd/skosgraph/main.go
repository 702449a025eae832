package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/coolbeans/skosgraph/pkg/config"
	"github.com/coolbeans/skosgraph/pkg/metrics"
	"github.com/coolbeans/skosgraph/pkg/query"
	"github.com/coolbeans/skosgraph/pkg/skos"
	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/watch"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "skosgraph",
		Short: "SKOS vocabulary graph manager",
		Long: `Skosgraph manages SKOS vocabularies as an RDF graph.

It keeps concepts, concept schemes and collections consistent:
  - Broader/narrower and related edges always have their counterparts
  - Hierarchies stay acyclic within a scheme
  - Preferred labels are unique per language
  - A relational SQLite mirror tracks every change for fast lookups`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (default: search for "+config.ProjectConfigFile+")")
	pf.StringVar(&flags.graphPath, "graph", "", "N-Triples file holding the graph")
	pf.StringVar(&flags.dbPath, "db", "", "SQLite mirror database")
	pf.StringVar(&flags.lang, "lang", "", "Preferred label language")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(ancestorsCmd())
	rootCmd.AddCommand(descendantsCmd())
	rootCmd.AddCommand(labelsCmd())
	rootCmd.AddCommand(findCmd())
	rootCmd.AddCommand(membersCmd())
	rootCmd.AddCommand(relateCmd())
	rootCmd.AddCommand(unrelateCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(recoverCmd())
	rootCmd.AddCommand(impactCmd())
	rootCmd.AddCommand(watchCmd())

	return rootCmd
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [project-dir]",
		Short: "Initialize a new vocabulary project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir := "."
			if len(args) > 0 {
				projectDir = args[0]
			}
			out := cmd.OutOrStdout()

			cfg := config.DefaultConfig()
			configPath := filepath.Join(projectDir, config.ProjectConfigFile)
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists", configPath)
			}

			vocabDir := filepath.Join(projectDir, cfg.Vocabulary.Dir)
			if err := os.MkdirAll(vocabDir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", vocabDir, err)
			}
			if err := cfg.SaveToFile(configPath); err != nil {
				return err
			}

			fmt.Fprintf(out, "Initialized vocabulary project: %s\n", projectDir)
			fmt.Fprintf(out, "  Config:       %s\n", configPath)
			fmt.Fprintf(out, "  Vocabularies: %s/\n", vocabDir)
			fmt.Fprintf(out, "\nNext steps:\n")
			fmt.Fprintf(out, "  1. Add N-Triples vocabularies to %s/\n", vocabDir)
			fmt.Fprintf(out, "  2. Run: skosgraph load %s/your-vocabulary.nt\n", cfg.Vocabulary.Dir)
			fmt.Fprintf(out, "  3. Run: skosgraph descendants <concept-uri>\n")
			return nil
		},
	}
}

func loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <file.nt>...",
		Short: "Import N-Triples vocabularies into the graph",
		Long: `Import one or more N-Triples files into the graph.

All files are imported together. The combined graph is validated first and
missing inverse, symmetric and membership triples are completed. If any
triple is rejected nothing is written.

Example:
  skosgraph load vocabularies/animals.nt
  skosgraph load a.nt b.nt --graph thesaurus.nt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			triples, err := readTriples(args)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.session.Import(cmd.Context(), triples)
			if err != nil {
				return err
			}
			if err := a.save(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d file(s)\n", len(args))
			fmt.Fprintf(out, "  Triples read: %d\n", len(triples))
			fmt.Fprintf(out, "  Asserted:     %d\n", result.Asserted)
			fmt.Fprintf(out, "  Completed:    %d\n", result.Completed)
			fmt.Fprintf(out, "  Graph size:   %d\n", a.graph.Count())
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the vocabulary graph",
		Long: `Export the concepts, schemes and collections of the graph.

Supported formats:
  - nt:     N-Triples
  - turtle: W3C Turtle (TTL) RDF serialization
  - json:   JSON graph format with nodes and edges
  - dot:    DOT format for Graphviz visualization

Example:
  skosgraph export --format turtle --output thesaurus.ttl
  skosgraph export --format dot | dot -Tsvg > thesaurus.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			triples, err := a.session.Export()
			if err != nil {
				return err
			}

			var content string
			switch formatStr {
			case "nt":
				var builder strings.Builder
				if err := store.WriteNTriples(&builder, triples); err != nil {
					return fmt.Errorf("failed to serialize graph: %w", err)
				}
				content = strings.TrimSuffix(builder.String(), "\n")
			case "turtle":
				content = store.NewTurtleSerializer().Serialize(triples)
			case "json":
				data, err := store.ExportGraph(triples, a.session.Language()).ToJSON()
				if err != nil {
					return fmt.Errorf("failed to serialize graph: %w", err)
				}
				content = string(data)
			case "dot":
				content = store.ExportGraph(triples, a.session.Language()).ToDOT()
			default:
				return fmt.Errorf("unsupported format: %s (use nt, turtle, json, or dot)", formatStr)
			}

			return writeOutput(cmd, output, content)
		},
	}

	cmd.Flags().StringP("format", "f", "nt", "Output format: nt, turtle, json, dot")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")

	return cmd
}

func ancestorsCmd() *cobra.Command {
	return traversalCmd("ancestors", "List the broader concepts of a concept, nearest first",
		func(engine *query.Engine, uri string) (*query.Result, error) {
			return query.Collect("ancestors", engine.Ancestors(uri))
		})
}

func descendantsCmd() *cobra.Command {
	return traversalCmd("descendants", "List the narrower concepts of a concept, nearest first",
		func(engine *query.Engine, uri string) (*query.Result, error) {
			return query.Collect("descendants", engine.Descendants(uri))
		})
}

func traversalCmd(name, short string, run func(*query.Engine, string) (*query.Result, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name + " <concept-uri>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")
			direct, _ := cmd.Flags().GetBool("direct")

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			engine := a.query()
			var result *query.Result
			if direct {
				step := engine.Broaders
				if name == "descendants" {
					step = engine.Narrowers
				}
				hits, err := step(args[0])
				if err != nil {
					return err
				}
				result = &query.Result{Query: name, Hits: hits}
			} else {
				result, err = run(engine, args[0])
				if err != nil {
					return err
				}
			}

			content, err := result.Format(query.OutputFormat(formatStr))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), content)
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", "table", "Output format: table, json, csv")
	cmd.Flags().Bool("direct", false, "Only list directly linked concepts")

	return cmd
}

func labelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels <uri>",
		Short: "List the labels of a concept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("label-lang")

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			labels, err := a.query().Labels(args[0], lang)
			if err != nil {
				return err
			}
			if len(labels) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No labels")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tLANG\tTEXT")
			for _, label := range labels {
				fmt.Fprintf(w, "%s\t%s\t%s\n", label.Kind, label.Lang, label.Text)
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("label-lang", "", "Only list labels in this language")

	return cmd
}

func findCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <label>",
		Short: "Find resources carrying a label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("label-lang")

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			uris, err := a.query().FindByLabel(cmd.Context(), args[0], lang)
			if err != nil {
				return err
			}
			for _, uri := range uris {
				fmt.Fprintln(cmd.OutOrStdout(), uri)
			}
			return nil
		},
	}

	cmd.Flags().String("label-lang", "", "Only match labels in this language")

	return cmd
}

func membersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members <scheme-or-collection-uri>",
		Short: "List the members of a concept scheme or collection",
		Long: `List the members of a concept scheme or collection.

Ordered collections list their members in order; everything else is sorted.

Example:
  skosgraph members http://example.org/animals
  skosgraph members http://example.org/animals --top`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			top, _ := cmd.Flags().GetBool("top")

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			uri := args[0]
			kind, err := a.session.Kind(uri)
			if err != nil {
				return err
			}

			var members []string
			switch {
			case kind == skos.KindConceptScheme && top:
				members, err = a.query().TopConcepts(uri)
			case kind == skos.KindConceptScheme:
				members, err = a.query().SchemeMembers(uri)
			case kind.IsCollection() && !top:
				var collection skos.Collection
				collection, err = a.session.Collection(uri)
				if err == nil {
					members, err = collection.Members()
				}
			default:
				return fmt.Errorf("%s is a %s, not a concept scheme or collection", uri, kind)
			}
			if err != nil {
				return err
			}

			for _, member := range members {
				fmt.Fprintln(cmd.OutOrStdout(), member)
			}
			return nil
		},
	}

	cmd.Flags().Bool("top", false, "Only list the top concepts of a scheme")

	return cmd
}

func relateCmd() *cobra.Command {
	return relationCmd("relate", "Add a semantic relation between two concepts", true)
}

func unrelateCmd() *cobra.Command {
	return relationCmd("unrelate", "Remove a semantic relation between two concepts", false)
}

func relationCmd(name, short string, add bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <source-uri> <kind> <target-uri>",
		Short: short,
		Long: short + `.

Kinds: broader, narrower, related, broadMatch, narrowMatch, relatedMatch,
exactMatch, closeMatch. The inverse or symmetric counterpart is kept in step.

Example:
  skosgraph ` + name + ` http://example.org/dog broader http://example.org/mammal`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := skos.ParseRelationKind(args[1])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			concept, err := a.session.Concept(args[0])
			if err != nil {
				return err
			}
			if add {
				err = concept.AddRelation(cmd.Context(), kind, args[2])
			} else {
				err = concept.RemoveRelation(cmd.Context(), kind, args[2])
			}
			if err != nil {
				return err
			}
			if err := a.save(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", args[0], kind, args[2])
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the graph against the SKOS integrity rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.session.Validate()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch formatStr {
			case "json":
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to serialize report: %w", err)
				}
				fmt.Fprintln(out, string(data))
			case "text":
				if report.Valid() {
					fmt.Fprintln(out, "Graph is valid")
				}
				for _, issue := range report.Issues {
					fmt.Fprintf(out, "[%s] %s: %s\n", issue.Kind, issue.URI, issue.Message)
				}
			default:
				return fmt.Errorf("unsupported format: %s (use text or json)", formatStr)
			}

			if !report.Valid() {
				return fmt.Errorf("graph has %d issue(s)", len(report.Issues))
			}
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", "text", "Output format: text, json")

	return cmd
}

func recoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Reconcile the SQLite mirror with the graph",
		Long: `Reconcile the SQLite mirror with the graph.

Operations left pending by an interrupted run are detected and the mirror is
rebuilt from the graph. Use --rebuild to rebuild unconditionally.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rebuild, _ := cmd.Flags().GetBool("rebuild")

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if rebuild {
				if err := a.session.RebuildMirror(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(out, "Mirror rebuilt from %d triples\n", a.graph.Count())
				return nil
			}

			pending, err := a.mirror.Pending(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Mirror consistent (%d pending operations)\n", len(pending))
			return nil
		},
	}

	cmd.Flags().Bool("rebuild", false, "Rebuild the mirror even if nothing is pending")

	return cmd
}

func impactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "impact <concept-uri>",
		Short: "Analyze which concepts depend on a concept",
		Long: `Find the concepts affected by a change to a concept: its narrower
concepts and the concepts related or mapped to it, transitively.

Example:
  skosgraph impact http://example.org/mammal --depth 3 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			depth, _ := cmd.Flags().GetInt("depth")
			formatStr, _ := cmd.Flags().GetString("format")

			a, err := openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.query().Impact(args[0], depth)
			if err != nil {
				return err
			}

			switch formatStr {
			case "json":
				data, err := result.ToJSON()
				if err != nil {
					return fmt.Errorf("failed to serialize result: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			case "text":
				fmt.Fprint(cmd.OutOrStdout(), result.String())
			default:
				return fmt.Errorf("unsupported format: %s (use text or json)", formatStr)
			}
			return nil
		},
	}

	cmd.Flags().IntP("depth", "d", 2, "Maximum traversal depth")
	cmd.Flags().StringP("format", "f", "text", "Output format: text, json")

	return cmd
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the graph in step with a directory of vocabularies",
		Long: `Load every N-Triples file in the vocabulary directory and follow
changes to it. Edited files are diffed against their previous content; a
rejected edit leaves the graph unchanged. The graph file is rewritten after
each accepted change.

When metrics.addr is configured, Prometheus metrics are served on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if dir == "" {
				dir = a.cfg.Vocabulary.Dir
			}

			watcher := watch.New(dir, a.session,
				watch.WithLogger(a.logger),
				watch.WithOnChange(func(event watch.Event) {
					if event.Err != nil || event.Asserted+event.Completed+event.Retracted == 0 {
						return
					}
					if err := a.save(ctx); err != nil {
						a.logger.Error("failed to save graph", "error", err)
					}
				}),
			)

			if err := watcher.LoadDirectory(ctx); err != nil {
				a.logger.Warn("some vocabularies were rejected", "error", err)
			}

			if addr := a.cfg.Metrics.Addr; addr != "" {
				server := metrics.NewServer(addr, a.registry, a.logger)
				if err := server.Start(); err != nil {
					return err
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := server.Stop(shutdownCtx); err != nil {
						a.logger.Warn("metrics server shutdown", "error", err)
					}
				}()
			}

			if err := watcher.Watch(ctx); err != nil {
				return err
			}
			defer watcher.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (%d files loaded). Press Ctrl-C to stop.\n", dir, len(watcher.Files()))
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Vocabulary directory (default: vocabulary.dir)")

	return cmd
}
