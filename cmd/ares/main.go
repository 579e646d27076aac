package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vthunder/ares/internal/config"
	"github.com/vthunder/ares/internal/graph"
	"github.com/vthunder/ares/internal/logging"
	"github.com/vthunder/ares/internal/mention"
	"github.com/vthunder/ares/internal/parse"
	"github.com/vthunder/ares/internal/pipeline"
	"github.com/vthunder/ares/internal/profiling"
	"github.com/vthunder/ares/internal/tracker"
)

var version = "0.1.0"

var (
	configPath string
	jsonOutput bool
)

func main() {
	// Load .env file (optional - won't error if missing)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "ares",
		Short: "Entity resolution and consolidation for narrative text",
		Long: `Ares finds the entities in a body of documents and consolidates them.

Per document it groups mentions into entities, splits names shared by
different people, resolves "there" and "then", and gathers every mention of
each entity. Across documents it merges entities into global ones and reports
contradictory facts and impossible family trees.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")

	rootCmd.AddCommand(censusCmd())
	rootCmd.AddCommand(candidatesCmd())
	rootCmd.AddCommand(deixisCmd())
	rootCmd.AddCommand(trackCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(mergeCmd())
	rootCmd.AddCommand(conflictsCmd())
	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(healthCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.SetDebug(cfg.Log.Debug)
	return cfg, nil
}

// session is a pipeline plus whatever must be closed afterwards.
type session struct {
	cfg  *config.Config
	pipe *pipeline.Pipeline
	db   *graph.DB
	prof *profiling.Profiler
}

func (s *session) Close() {
	if s.db != nil {
		s.db.Close()
	}
	if err := s.prof.Close(); err != nil {
		log.Printf("Warning: close profiling log: %v", err)
	}
}

// newSession builds a pipeline; withStore opens the project database and
// loads it.
func newSession(withStore bool) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg}
	if withStore {
		s.db, err = graph.Open(cfg.Store.StatePath, cfg.Store.Driver)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	}
	project := pipeline.NewProject(s.db)
	if withStore {
		if err := project.Load(); err != nil {
			s.Close()
			return nil, err
		}
	}
	s.pipe = pipeline.New(cfg, pipeline.NewParser(cfg.Parser), project)

	level, err := profiling.ParseLevel(cfg.Profiling.Level)
	if err != nil {
		s.Close()
		return nil, err
	}
	if s.prof, err = profiling.Open(level, cfg.Profiling.Path); err != nil {
		s.Close()
		return nil, err
	}
	s.pipe.Profiler = s.prof
	return s, nil
}

func readDocument(path string) (id, text string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	return documentID(path), string(data), nil
}

// documentID names a document by its path without extension, relative to
// the working directory when the file lies beneath it, so a/ch1.txt and
// b/ch1.txt stay distinct.
func documentID(path string) string {
	p := filepath.Clean(path)
	if filepath.IsAbs(p) {
		if wd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(wd, p); err == nil && !strings.HasPrefix(rel, "..") {
				p = rel
			}
		}
	}
	return filepath.ToSlash(strings.TrimSuffix(p, filepath.Ext(p)))
}

// checkDocumentIDs rejects paths that would overwrite each other's records.
func checkDocumentIDs(paths []string) error {
	seen := make(map[string]string)
	for _, path := range paths {
		id := documentID(path)
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%s and %s both map to document id %q", prev, path, id)
		}
		seen[id] = path
	}
	return nil
}

func readYAML(path string, v any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func censusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "census <file>",
		Short: "List the entities found in a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(false)
			if err != nil {
				return err
			}
			defer s.Close()

			id, text, err := readDocument(args[0])
			if err != nil {
				return err
			}
			res, err := s.pipe.ProcessDocument(cmd.Context(), id, text)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(res.Entities)
			}
			printEntities(res.Entities)
			return nil
		},
	}
}

func candidatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates <file>",
		Short: "List every raw mention candidate in a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			_, text, err := readDocument(args[0])
			if err != nil {
				return err
			}
			doc, err := pipeline.NewParser(cfg.Parser).Parse(cmd.Context(), text)
			if err != nil {
				return err
			}
			cands := mention.Nominate(doc)
			if jsonOutput {
				return printJSON(cands)
			}
			printCandidates(cands)
			return nil
		},
	}
}

func deixisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deixis <file>",
		Short: `Resolve "there", "here" and "then" in a document`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(false)
			if err != nil {
				return err
			}
			defer s.Close()

			id, text, err := readDocument(args[0])
			if err != nil {
				return err
			}
			res, err := s.pipe.ProcessDocument(cmd.Context(), id, text)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(res.Deixis)
			}
			for _, r := range res.Deixis {
				fmt.Printf("%-6s @%-6d -> %s [%s] (%.2f)\n", r.Word, r.Start, r.EntityName, r.EntityType, r.Confidence)
			}
			return nil
		},
	}
}

func trackCmd() *cobra.Command {
	var saliencePath, pronounsPath string
	cmd := &cobra.Command{
		Use:   "track <file>",
		Short: "Gather every mention of every entity in a document",
		Long: `Track runs the census and then gathers mentions from four sources:
exact spans, aliases, pronoun resolutions and gendered descriptions.

--salience takes a YAML map of entity id to percentile (0-100).
--pronouns takes a YAML list of {pronoun, start, end, entity_id, confidence}.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(false)
			if err != nil {
				return err
			}
			defer s.Close()

			salience := map[string]float64{}
			if err := readYAML(saliencePath, &salience); err != nil {
				return err
			}
			var pronouns []tracker.PronounResolution
			if err := readYAML(pronounsPath, &pronouns); err != nil {
				return err
			}

			id, text, err := readDocument(args[0])
			if err != nil {
				return err
			}
			if _, err := s.pipe.ProcessDocument(cmd.Context(), id, text); err != nil {
				return err
			}
			out, err := s.pipe.Track(id, salience, pronouns)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out)
			}
			printMentions(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&saliencePath, "salience", "", "YAML file of entity salience percentiles")
	cmd.Flags().StringVar(&pronounsPath, "pronouns", "", "YAML file of pronoun resolutions")
	return cmd
}

func ingestCmd() *cobra.Command {
	var relationsPath string
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Add documents (and relations) to the project store",
		Long: `Ingest runs the census over each file and saves the entities to the
project store. Re-ingesting a file replaces its entities. Relations given with
--relations (a YAML list of {subject, predicate, object}) are appended.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(true)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := checkDocumentIDs(args); err != nil {
				return err
			}
			for _, path := range args {
				id, text, err := readDocument(path)
				if err != nil {
					return err
				}
				if _, err := s.pipe.ProcessDocument(cmd.Context(), id, text); err != nil {
					return err
				}
			}

			var rels []graph.Relation
			if err := readYAML(relationsPath, &rels); err != nil {
				return err
			}
			s.pipe.Project.AddRelations(rels...)

			if err := s.pipe.Project.Save(); err != nil {
				return err
			}
			log.Printf("Ingested %d document(s) into %s", len(args), s.db.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&relationsPath, "relations", "", "YAML file of relations to add")
	return cmd
}

func mergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Merge the project's entities into global entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(true)
			if err != nil {
				return err
			}
			defer s.Close()

			report := s.pipe.Consolidate(s.pipe.Project.Relations())
			if jsonOutput {
				return printJSON(report)
			}
			printGlobal(report)
			return nil
		},
	}
}

func conflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "Report contradictions in the project's consolidated relations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(true)
			if err != nil {
				return err
			}
			defer s.Close()

			report := s.pipe.Consolidate(s.pipe.Project.Relations())
			if jsonOutput {
				return printJSON(report.Conflicts)
			}
			printConflicts(os.Stdout, report.Conflicts)
			return nil
		},
	}
}

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <id|name>",
		Short: "Show a stored entity by id, canonical name or alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(true)
			if err != nil {
				return err
			}
			defer s.Close()

			e, err := s.pipe.Project.Lookup(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(e)
			}
			printRecord(e)
			return nil
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the parser sidecar is responding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if parse.NewClient(cfg.Parser.URL, cfg.Parser.Timeout).Healthy(cmd.Context()) {
				fmt.Printf("parser at %s: ok\n", cfg.Parser.URL)
				return nil
			}
			if cfg.Parser.Fallback == "prose" {
				fmt.Printf("parser at %s: unavailable, documents will be parsed with prose\n", cfg.Parser.URL)
				return nil
			}
			return fmt.Errorf("parser at %s is unavailable and no fallback is configured", cfg.Parser.URL)
		},
	}
}
