package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/vthunder/ares/internal/conflict"
	"github.com/vthunder/ares/internal/entity"
	"github.com/vthunder/ares/internal/graph"
	"github.com/vthunder/ares/internal/mention"
	"github.com/vthunder/ares/internal/pipeline"
	"github.com/vthunder/ares/internal/tracker"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
	header = color.New(color.FgCyan, color.Bold)
)

func printEntities(es []*entity.Canonical) {
	if len(es) == 0 {
		fmt.Println("No entities found.")
		return
	}
	for _, e := range es {
		bold.Printf("%s", e.Name)
		fmt.Printf(" [%s] %d mention(s), first at %d\n", e.Type, e.MentionCount, e.FirstPosition)
		faint.Printf("  id: %s\n", e.ID)
		if others := e.Names()[1:]; len(others) > 0 {
			fmt.Printf("  aliases: %s\n", strings.Join(others, ", "))
		}
		if e.Context != nil && !e.Context.Empty() {
			var parts []string
			if len(e.Context.Relationships) > 0 {
				parts = append(parts, "relationships="+strings.Join(e.Context.Relationships, ","))
			}
			if len(e.Context.Occupations) > 0 {
				parts = append(parts, "occupations="+strings.Join(e.Context.Occupations, ","))
			}
			if len(e.Context.LifeStages) > 0 {
				parts = append(parts, "life="+strings.Join(e.Context.LifeStages, ","))
			}
			fmt.Printf("  context: %s\n", strings.Join(parts, " "))
		}
	}
}

func printRecord(e *graph.EntityRecord) {
	bold.Printf("%s", e.Name)
	fmt.Printf(" [%s] %s\n", e.Type, e.ID)
	if e.DocumentID != "" {
		fmt.Printf("  document: %s\n", e.DocumentID)
	}
	if len(e.Aliases) > 0 {
		fmt.Printf("  aliases: %s\n", strings.Join(e.Aliases, ", "))
	}
	if n, ok := e.FloatAttr(graph.AttrMentionCount); ok {
		fmt.Printf("  mentions: %d\n", int(n))
	}
	faint.Printf("  created: %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"))
}

func printCandidates(cs []mention.Candidate) {
	for _, c := range cs {
		fmt.Printf("%6d-%-6d %-10s %-24s", c.Start, c.End, c.Source, c.Normalized)
		if c.Label != "" {
			fmt.Printf(" %s", c.Label)
		}
		if c.Confidence > 0 {
			fmt.Printf(" (%.2f)", c.Confidence)
		}
		if c.SentenceInitial {
			faint.Print(" sentence-initial")
		}
		fmt.Println()
	}
}

func printMentions(ems []tracker.EntityMentions) {
	for _, em := range ems {
		header.Printf("%s", em.Name)
		fmt.Printf(" (%d)\n", len(em.Mentions))
		for _, m := range em.Mentions {
			fmt.Printf("  %6d %-12s %-20q %.2f\n", m.Start, m.Source, m.Text, m.Confidence)
		}
	}
}

func printGlobal(r *pipeline.Report) {
	for _, g := range r.Entities {
		bold.Printf("%s", g.Canonical)
		fmt.Printf(" %s", g.ID)
		if g.Centrality > 0 {
			fmt.Printf(" centrality=%.2f", g.Centrality)
		}
		fmt.Println()
		if len(g.Aliases) > 0 {
			fmt.Printf("  aliases: %s\n", strings.Join(g.Aliases, ", "))
		}
		faint.Printf("  members: %s\n", strings.Join(g.Members, ", "))
	}
	fmt.Printf("\n%d global entities, %d conflicts\n", len(r.Entities), len(r.Conflicts))
}

func severityColor(severity int) *color.Color {
	switch severity {
	case conflict.SeverityHigh:
		return color.New(color.FgRed, color.Bold)
	case conflict.SeverityMedium:
		return color.New(color.FgYellow)
	}
	return color.New(color.FgWhite)
}

func printConflicts(w io.Writer, cs []conflict.Conflict) {
	if len(cs) == 0 {
		color.New(color.FgGreen).Fprintln(w, "No conflicts.")
		return
	}
	for _, c := range cs {
		severityColor(c.Severity).Fprintf(w, "[%d] %s", c.Severity, c.Type)
		fmt.Fprintf(w, ": %s\n", c.Description)
		for _, r := range c.Evidence {
			fmt.Fprintf(w, "    %s %s %s\n", r.Subject, r.Predicate, r.Object)
		}
	}
}
