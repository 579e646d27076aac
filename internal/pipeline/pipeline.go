// Package pipeline wires the passes together: parse, census and deixis per
// document, mention tracking on demand, and merge plus conflict detection
// across the whole project.
package pipeline

import (
	"context"
	"fmt"

	"github.com/vthunder/ares/internal/census"
	"github.com/vthunder/ares/internal/config"
	"github.com/vthunder/ares/internal/conflict"
	"github.com/vthunder/ares/internal/deixis"
	"github.com/vthunder/ares/internal/disambig"
	"github.com/vthunder/ares/internal/entity"
	"github.com/vthunder/ares/internal/graph"
	"github.com/vthunder/ares/internal/logging"
	"github.com/vthunder/ares/internal/merge"
	"github.com/vthunder/ares/internal/parse"
	"github.com/vthunder/ares/internal/profiling"
	"github.com/vthunder/ares/internal/tracker"
)

// Pipeline runs the engine over a project.
type Pipeline struct {
	Parser  parse.Parser
	Census  *census.Census
	Tracker *tracker.Tracker
	Merger  *merge.Merger
	Project *Project

	// Profiler records stage timings; nil disables it.
	Profiler *profiling.Profiler
}

// NewParser builds the parser described by cfg: the sidecar client, wrapped
// with the prose fallback when configured.
func NewParser(cfg config.ParserConfig) parse.Parser {
	client := parse.NewClient(cfg.URL, cfg.Timeout)
	if cfg.Fallback == "prose" {
		return &parse.Fallback{Primary: client, Secondary: parse.NewProseParser()}
	}
	return client
}

// New creates a pipeline from configuration.
func New(cfg *config.Config, parser parse.Parser, project *Project) *Pipeline {
	return &Pipeline{
		Parser: parser,
		Census: census.New(cfg.Census.MinKeyLength,
			disambig.New(cfg.Disambiguation.MinMentions, cfg.Disambiguation.ContextWindow)),
		Tracker: tracker.New(cfg.Tracker.AliasPercentile, cfg.Tracker.DescriptivePercentile, cfg.Tracker.MinAliasLength),
		Merger:  merge.New(cfg.Merge.StrongThreshold),
		Project: project,
	}
}

// DocumentResult is what ProcessDocument found in one text.
type DocumentResult struct {
	DocumentID string              `json:"document_id"`
	Entities   []*entity.Canonical `json:"entities"`
	Deixis     []deixis.Resolution `json:"deixis"`
}

// ProcessDocument parses text and runs the census and deixis passes. A parse
// failure aborts the document and leaves the project unchanged.
func (p *Pipeline) ProcessDocument(ctx context.Context, docID, text string) (*DocumentResult, error) {
	meta := map[string]any{"bytes": len(text)}
	defer p.Profiler.StartWithMetadata(docID, "document", profiling.LevelMinimal, meta)()

	done := p.Profiler.Start(docID, "parse", profiling.LevelDetailed)
	doc, err := p.Parser.Parse(ctx, text)
	done()
	if err != nil {
		return nil, fmt.Errorf("parse document %s: %w", docID, err)
	}

	done = p.Profiler.Start(docID, "census", profiling.LevelDetailed)
	reg := p.Census.RunDocument(docID, doc)
	done()
	done = p.Profiler.Start(docID, "deixis", profiling.LevelDetailed)
	res := deixis.Resolve(doc, reg)
	done()
	meta["entities"] = reg.Len()

	p.Project.setDocument(docID, &document{parsed: doc, registry: reg, deixis: res})

	if reg.Len() == 0 && len(doc.Sentences) > 0 {
		logging.Warn("pipeline", "No entities found in %s: %q", docID, logging.Truncate(text, 60))
	}
	logging.Info("pipeline", "Processed %s %q: %d sentences, %d entities, %d deictic",
		docID, logging.Truncate(text, 40), len(doc.Sentences), reg.Len(), len(res))
	return &DocumentResult{DocumentID: docID, Entities: reg.Entities(), Deixis: res}, nil
}

// Track gathers every mention of every entity in a processed document.
// Deictic resolutions join the supplied pronoun resolutions.
func (p *Pipeline) Track(docID string, salience map[string]float64, pronouns []tracker.PronounResolution) ([]tracker.EntityMentions, error) {
	d, ok := p.Project.documents[docID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, docID)
	}
	all := append([]tracker.PronounResolution(nil), pronouns...)
	for _, r := range d.deixis {
		all = append(all, tracker.PronounResolution{
			Pronoun:    r.Word,
			Start:      r.Start,
			End:        r.End,
			EntityID:   r.EntityID,
			Confidence: r.Confidence,
		})
	}
	return p.Tracker.Track(d.parsed.Text, d.registry, salience, all), nil
}

// Report is the outcome of consolidating a project.
type Report struct {
	Entities  []merge.GlobalEntity `json:"entities"`
	IDMap     map[string]string    `json:"id_map"`
	Relations []graph.Relation     `json:"relations"`
	Conflicts []conflict.Conflict  `json:"conflicts"`
}

// Consolidate merges every entity record in the project, rewires relations
// onto the global ids and checks the result for conflicts.
func (p *Pipeline) Consolidate(relations []graph.Relation) *Report {
	defer p.Profiler.Start("", "consolidate", profiling.LevelMinimal)()

	recs := p.Project.Records()
	in := make([]merge.Entity, 0, len(recs))
	for _, r := range recs {
		c, _ := r.FloatAttr(graph.AttrCentrality)
		in = append(in, merge.Entity{
			ID:         r.ID,
			Canonical:  r.Name,
			Aliases:    r.Aliases,
			Type:       r.Type,
			Centrality: c,
		})
	}

	done := p.Profiler.Start("", "merge", profiling.LevelDetailed)
	res := p.Merger.Merge(in)
	rewired := merge.Rewire(relations, res.IDMap)
	done()
	done = p.Profiler.Start("", "conflicts", profiling.LevelDetailed)
	conflicts := conflict.Detect(rewired)
	done()

	logging.Info("pipeline", "Consolidated %d entities into %d, %d conflicts",
		len(in), len(res.Entities), len(conflicts))
	return &Report{
		Entities:  res.Entities,
		IDMap:     res.IDMap,
		Relations: rewired,
		Conflicts: conflicts,
	}
}
