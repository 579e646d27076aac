package graph

import (
	"fmt"
)

// ReplaceRelations swaps the stored relation set for rels in one transaction.
func (g *DB) ReplaceRelations(rels []Relation) error {
	tx, err := g.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM relations`); err != nil {
		return fmt.Errorf("failed to clear relations: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO relations (subject, predicate, object) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare relation insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rels {
		if _, err := stmt.Exec(r.Subject, string(r.Predicate), r.Object); err != nil {
			return fmt.Errorf("failed to insert relation %s %s %s: %w", r.Subject, r.Predicate, r.Object, err)
		}
	}
	return tx.Commit()
}

// Relations returns all stored relations in insertion order.
func (g *DB) Relations() ([]Relation, error) {
	rows, err := g.db.Query(`SELECT subject, predicate, object FROM relations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query relations: %w", err)
	}
	defer rows.Close()

	var rels []Relation
	for rows.Next() {
		var r Relation
		var pred string
		if err := rows.Scan(&r.Subject, &pred, &r.Object); err != nil {
			return nil, fmt.Errorf("failed to scan relation: %w", err)
		}
		r.Predicate = Predicate(pred)
		rels = append(rels, r)
	}
	return rels, rows.Err()
}
