package graph

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// putEntity inserts or replaces an entity record and its aliases.
func putEntity(q querier, e *EntityRecord) error {
	if e.ID == "" {
		return fmt.Errorf("entity ID is required")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return fmt.Errorf("failed to encode attributes for %s: %w", e.ID, err)
	}

	_, err = q.Exec(`
		INSERT INTO entities (id, name, type, document_id, attributes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			document_id = excluded.document_id,
			attributes = excluded.attributes
	`, e.ID, e.Name, string(e.Type), e.DocumentID, string(attrs), e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert entity: %w", err)
	}

	for _, alias := range e.Aliases {
		if _, err := q.Exec(`
			INSERT OR IGNORE INTO entity_aliases (entity_id, alias)
			VALUES (?, ?)
		`, e.ID, alias); err != nil {
			return fmt.Errorf("failed to insert alias %q: %w", alias, err)
		}
	}
	return nil
}

// GetEntity retrieves an entity by ID
func (g *DB) GetEntity(id string) (*EntityRecord, error) {
	row := g.db.QueryRow(`
		SELECT id, name, type, document_id, attributes, created_at
		FROM entities WHERE id = ?
	`, id)

	e, err := scanEntity(row)
	if err != nil {
		return nil, err
	}
	e.Aliases, err = g.GetEntityAliases(id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// FindEntityByName finds an entity by canonical name or alias (case-insensitive)
func (g *DB) FindEntityByName(name string) (*EntityRecord, error) {
	var id string
	err := g.db.QueryRow(`
		SELECT id FROM entities WHERE LOWER(name) = LOWER(?)
		UNION
		SELECT entity_id FROM entity_aliases WHERE LOWER(alias) = LOWER(?)
		LIMIT 1
	`, name, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up %q: %w", name, err)
	}
	return g.GetEntity(id)
}

// AllEntities returns every entity record in insertion order.
func (g *DB) AllEntities() ([]*EntityRecord, error) {
	rows, err := g.db.Query(`
		SELECT id, name, type, document_id, attributes, created_at
		FROM entities
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	entities, err := scanEntityRows(rows)
	if err != nil {
		return nil, err
	}

	aliases, err := g.allAliases()
	if err != nil {
		return nil, err
	}
	for _, e := range entities {
		e.Aliases = aliases[e.ID]
	}
	return entities, nil
}

// CountEntities returns the total number of entities
func (g *DB) CountEntities() (int, error) {
	var count int
	err := g.db.QueryRow(`SELECT COUNT(*) FROM entities`).Scan(&count)
	return count, err
}

// GetEntityAliases returns all aliases for an entity
func (g *DB) GetEntityAliases(entityID string) ([]string, error) {
	rows, err := g.db.Query(`
		SELECT alias FROM entity_aliases WHERE entity_id = ? ORDER BY id
	`, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer rows.Close()

	var aliases []string
	for rows.Next() {
		var alias string
		if err := rows.Scan(&alias); err != nil {
			return nil, err
		}
		aliases = append(aliases, alias)
	}
	return aliases, rows.Err()
}

func (g *DB) allAliases() (map[string][]string, error) {
	rows, err := g.db.Query(`SELECT entity_id, alias FROM entity_aliases ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var id, alias string
		if err := rows.Scan(&id, &alias); err != nil {
			return nil, err
		}
		out[id] = append(out[id], alias)
	}
	return out, rows.Err()
}

// ReplaceDocument atomically swaps the stored entities of one document for
// the given set. Entities from other documents are untouched.
func (g *DB) ReplaceDocument(documentID string, entities []*EntityRecord) error {
	tx, err := g.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM entity_aliases
		WHERE entity_id IN (SELECT id FROM entities WHERE document_id = ?)
	`, documentID); err != nil {
		return fmt.Errorf("failed to clear aliases of document %s: %w", documentID, err)
	}
	if _, err := tx.Exec(`DELETE FROM entities WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("failed to clear document %s: %w", documentID, err)
	}
	for _, e := range entities {
		e.DocumentID = documentID
		if err := putEntity(tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanEntity(row *sql.Row) (*EntityRecord, error) {
	var e EntityRecord
	var typ, created string
	var attrs sql.NullString
	err := row.Scan(&e.ID, &e.Name, &typ, &e.DocumentID, &attrs, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entity: %w", err)
	}
	e.Type = EntityType(typ)
	e.CreatedAt = parseTime(created)
	if err := decodeAttributes(&e, attrs); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEntityRows(rows *sql.Rows) ([]*EntityRecord, error) {
	defer rows.Close()

	var entities []*EntityRecord
	for rows.Next() {
		var e EntityRecord
		var typ, created string
		var attrs sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &typ, &e.DocumentID, &attrs, &created); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		e.Type = EntityType(typ)
		e.CreatedAt = parseTime(created)
		if err := decodeAttributes(&e, attrs); err != nil {
			return nil, err
		}
		entities = append(entities, &e)
	}
	return entities, rows.Err()
}

func decodeAttributes(e *EntityRecord, attrs sql.NullString) error {
	if !attrs.Valid || attrs.String == "" || attrs.String == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(attrs.String), &e.Attributes); err != nil {
		return fmt.Errorf("failed to decode attributes for %s: %w", e.ID, err)
	}
	return nil
}

// parseTime reads timestamps written by putEntity or by SQLite's
// CURRENT_TIMESTAMP default. Unparseable values give the zero time.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
