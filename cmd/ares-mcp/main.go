// ares-mcp exposes the entity engine as MCP tools over stdio: census,
// candidates, deixis, track, merge, conflicts and lookup in the project store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/ares/internal/config"
	"github.com/vthunder/ares/internal/conflict"
	"github.com/vthunder/ares/internal/graph"
	"github.com/vthunder/ares/internal/logging"
	"github.com/vthunder/ares/internal/mention"
	"github.com/vthunder/ares/internal/merge"
	"github.com/vthunder/ares/internal/parse"
	"github.com/vthunder/ares/internal/pipeline"
	"github.com/vthunder/ares/internal/tracker"
)

func main() {
	// Log to stderr so stdout is clean for JSON-RPC
	log.SetOutput(os.Stderr)
	log.SetPrefix("[ares-mcp] ")

	// Load .env file if present (don't error if missing)
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	cfg, err := config.Load(os.Getenv("ARES_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.SetDebug(cfg.Log.Debug)

	t := &tools{cfg: cfg, parser: pipeline.NewParser(cfg.Parser)}

	s := server.NewMCPServer(
		"ares",
		"0.1.0",
		server.WithToolCapabilities(true),
	)
	t.register(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// tools holds what every handler needs.
type tools struct {
	cfg    *config.Config
	parser parse.Parser
}

func (t *tools) register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("ares_census",
		mcp.WithDescription("Find the entities in a text. Mentions are grouped by normalized name and names shared by different people are split by context."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Document text")),
		mcp.WithString("document_id", mcp.Description("Document id used to scope entity ids. Default: doc")),
	), t.handleCensus)

	s.AddTool(mcp.NewTool("ares_candidates",
		mcp.WithDescription("List raw mention candidates: NER runs, proper noun runs, role patterns and capitalized words."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Document text")),
	), t.handleCandidates)

	s.AddTool(mcp.NewTool("ares_deixis",
		mcp.WithDescription(`Resolve "there", "here" and "then" to the nearest preceding place or date/event entity.`),
		mcp.WithString("text", mcp.Required(), mcp.Description("Document text")),
	), t.handleDeixis)

	s.AddTool(mcp.NewTool("ares_track",
		mcp.WithDescription("Gather every mention of every entity: exact spans, aliases, pronouns and gendered descriptions, one per offset."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Document text")),
		mcp.WithString("salience", mcp.Description(`JSON object of entity id to percentile, e.g. {"entity-1": 95}`)),
		mcp.WithString("pronouns", mcp.Description("JSON array of {pronoun, start, end, entity_id, confidence}")),
	), t.handleTrack)

	s.AddTool(mcp.NewTool("ares_merge",
		mcp.WithDescription("Merge entities into global entities. Returns the global entities and the local to global id map."),
		mcp.WithString("entities", mcp.Required(), mcp.Description("JSON array of {id, canonical, aliases, type, centrality}")),
		mcp.WithString("relations", mcp.Description("JSON array of {subject, predicate, object} to rewire onto global ids")),
	), t.handleMerge)

	s.AddTool(mcp.NewTool("ares_conflicts",
		mcp.WithDescription("Report single-valued predicate conflicts and parent/child cycles, most severe first."),
		mcp.WithString("relations", mcp.Required(), mcp.Description("JSON array of {subject, predicate, object}")),
	), t.handleConflicts)

	s.AddTool(mcp.NewTool("ares_lookup",
		mcp.WithDescription("Find an entity in the project store by id, canonical name or alias."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Entity id, name or alias (case-insensitive)")),
	), t.handleLookup)
}

func (t *tools) pipeline() *pipeline.Pipeline {
	return pipeline.New(t.cfg, t.parser, pipeline.NewProject(nil))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// decodeArg unmarshals an optional JSON string argument into v.
func decodeArg(args map[string]any, name string, v any) error {
	raw, _ := args[name].(string)
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	return nil
}

func (t *tools) handleCensus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	text, _ := args["text"].(string)
	docID, _ := args["document_id"].(string)
	if docID == "" {
		docID = "doc"
	}

	res, err := t.pipeline().ProcessDocument(ctx, docID, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res.Entities)
}

func (t *tools) handleCandidates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	text, _ := args["text"].(string)

	doc, err := t.parser.Parse(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(mention.Nominate(doc))
}

func (t *tools) handleDeixis(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	text, _ := args["text"].(string)

	res, err := t.pipeline().ProcessDocument(ctx, "doc", text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res.Deixis)
}

func (t *tools) handleTrack(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	text, _ := args["text"].(string)

	salience := map[string]float64{}
	if err := decodeArg(args, "salience", &salience); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var pronouns []tracker.PronounResolution
	if err := decodeArg(args, "pronouns", &pronouns); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := t.pipeline()
	if _, err := p.ProcessDocument(ctx, "doc", text); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := p.Track("doc", salience, pronouns)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(out)
}

func (t *tools) handleMerge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)

	var entities []merge.Entity
	if err := decodeArg(args, "entities", &entities); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var relations []graph.Relation
	if err := decodeArg(args, "relations", &relations); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := merge.New(t.cfg.Merge.StrongThreshold).Merge(entities)
	return jsonResult(map[string]any{
		"entities":  res.Entities,
		"id_map":    res.IDMap,
		"relations": merge.Rewire(relations, res.IDMap),
	})
}

func (t *tools) handleConflicts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)

	var relations []graph.Relation
	if err := decodeArg(args, "relations", &relations); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(conflict.Detect(relations))
}

func (t *tools) handleLookup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	key, _ := args["key"].(string)
	if key == "" {
		return mcp.NewToolResultError("key is required"), nil
	}

	db, err := graph.Open(t.cfg.Store.StatePath, t.cfg.Store.Driver)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("open store: %v", err)), nil
	}
	defer db.Close()

	e, err := pipeline.NewProject(db).Lookup(key)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(e)
}
