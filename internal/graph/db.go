package graph

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverCGO  = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPure = "sqlite"  // modernc.org/sqlite
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// DB wraps the SQLite database holding persisted entity records and relations.
type DB struct {
	db     *sql.DB
	path   string
	driver string
}

// Open opens or creates the entity database under statePath.
func Open(statePath, driver string) (*DB, error) {
	dbPath := filepath.Join(statePath, "system", "entities.db")

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return OpenPath(dbPath, driver)
}

// OpenPath opens the database file at dbPath with the given driver.
func OpenPath(dbPath, driver string) (*DB, error) {
	if driver == "" {
		driver = DriverCGO
	}

	var dsn string
	switch driver {
	case DriverCGO:
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	case DriverPure:
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	default:
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	g := &DB{db: db, path: dbPath, driver: driver}
	if err := g.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	log.Printf("[graph] opened %s (%s)", dbPath, driver)
	return g, nil
}

// Close closes the database connection
func (g *DB) Close() error {
	return g.db.Close()
}

// Path returns the database file path.
func (g *DB) Path() string {
	return g.path
}

// migrate runs database migrations
func (g *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		document_id TEXT NOT NULL DEFAULT '',
		attributes TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entities_name ON entities(name);
	CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(type);
	CREATE INDEX IF NOT EXISTS idx_entities_document ON entities(document_id);

	CREATE TABLE IF NOT EXISTS entity_aliases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entity_id TEXT NOT NULL,
		alias TEXT NOT NULL,
		FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE,
		UNIQUE(entity_id, alias)
	);

	CREATE INDEX IF NOT EXISTS idx_entity_aliases_alias ON entity_aliases(alias);

	-- Relation endpoints may be local or global ids, so no foreign keys here.
	CREATE TABLE IF NOT EXISTS relations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject TEXT NOT NULL,
		predicate TEXT NOT NULL,
		object TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_relations_subject ON relations(subject, predicate);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := g.db.Exec(schema)
	return err
}
