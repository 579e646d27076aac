package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/vthunder/ares/internal/deixis"
	"github.com/vthunder/ares/internal/entity"
	"github.com/vthunder/ares/internal/graph"
	"github.com/vthunder/ares/internal/logging"
	"github.com/vthunder/ares/internal/parse"
)

// ErrNoStore is returned by Load, Save and Lookup on a project opened without
// a store.
var ErrNoStore = errors.New("project has no store")

// ErrUnknownDocument is returned for a document id the project has not seen.
var ErrUnknownDocument = errors.New("unknown document")

// document is what a project keeps per processed text.
type document struct {
	parsed   *parse.Document
	registry *entity.Registry
	deixis   []deixis.Resolution
}

// Project is one working set of documents, entity records and relations.
// Nothing is persisted until Save is called.
type Project struct {
	db *graph.DB

	order     []string
	documents map[string]*document
	records   map[string][]*graph.EntityRecord
	relations []graph.Relation
}

// NewProject creates an empty project backed by db. A nil db gives an
// in-memory project.
func NewProject(db *graph.DB) *Project {
	return &Project{
		db:        db,
		documents: make(map[string]*document),
		records:   make(map[string][]*graph.EntityRecord),
	}
}

func (p *Project) touch(docID string) {
	if _, ok := p.records[docID]; !ok {
		p.order = append(p.order, docID)
	}
}

// setDocument replaces everything the project knows about docID.
func (p *Project) setDocument(docID string, d *document) {
	p.touch(docID)
	p.documents[docID] = d

	now := time.Now()
	recs := make([]*graph.EntityRecord, 0, d.registry.Len())
	for _, e := range d.registry.Entities() {
		r := e.Record(docID)
		r.CreatedAt = now
		recs = append(recs, r)
	}
	p.records[docID] = recs
}

// Documents returns document ids in the order they were added or loaded.
func (p *Project) Documents() []string {
	return append([]string(nil), p.order...)
}

// Registry returns the registry of a document processed in this session.
// Loaded documents only carry records.
func (p *Project) Registry(docID string) (*entity.Registry, bool) {
	d, ok := p.documents[docID]
	if !ok {
		return nil, false
	}
	return d.registry, true
}

// Records returns every entity record, grouped by document in project order.
func (p *Project) Records() []*graph.EntityRecord {
	var out []*graph.EntityRecord
	for _, id := range p.order {
		out = append(out, p.records[id]...)
	}
	return out
}

// AddRelations appends relations to the project.
func (p *Project) AddRelations(rels ...graph.Relation) {
	p.relations = append(p.relations, rels...)
}

// Relations returns the project's relations.
func (p *Project) Relations() []graph.Relation {
	return append([]graph.Relation(nil), p.relations...)
}

// Load replaces the in-memory records and relations with the stored ones.
func (p *Project) Load() error {
	if p.db == nil {
		return ErrNoStore
	}
	recs, err := p.db.AllEntities()
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}
	rels, err := p.db.Relations()
	if err != nil {
		return fmt.Errorf("load relations: %w", err)
	}

	p.order = nil
	p.documents = make(map[string]*document)
	p.records = make(map[string][]*graph.EntityRecord)
	for _, r := range recs {
		p.touch(r.DocumentID)
		p.records[r.DocumentID] = append(p.records[r.DocumentID], r)
	}
	p.relations = rels

	logging.Info("project", "Loaded %d entities from %d documents, %d relations", len(recs), len(p.order), len(rels))
	return nil
}

// Save writes every document's records and the relation set to the store.
func (p *Project) Save() error {
	if p.db == nil {
		return ErrNoStore
	}
	n := 0
	for _, id := range p.order {
		if err := p.db.ReplaceDocument(id, p.records[id]); err != nil {
			return fmt.Errorf("save document %s: %w", id, err)
		}
		n += len(p.records[id])
	}
	if err := p.db.ReplaceRelations(p.relations); err != nil {
		return fmt.Errorf("save relations: %w", err)
	}

	total, err := p.db.CountEntities()
	if err != nil {
		return fmt.Errorf("count entities: %w", err)
	}
	logging.Info("project", "Saved %d entities from %d documents, %d relations (%d entities stored)",
		n, len(p.order), len(p.relations), total)
	return nil
}

// Lookup finds a stored entity record by id, canonical name or alias.
func (p *Project) Lookup(key string) (*graph.EntityRecord, error) {
	if p.db == nil {
		return nil, ErrNoStore
	}
	e, err := p.db.GetEntity(key)
	if errors.Is(err, graph.ErrNotFound) {
		e, err = p.db.FindEntityByName(key)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", key, err)
	}
	return e, nil
}
