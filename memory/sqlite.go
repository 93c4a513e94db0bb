package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aetharaai/lotus/core"
)

// SQLiteStore is a durable sqlite-backed MemoryStore for single-node
// deployments. Recall ranks by matched keyword count then importance then
// recency, computed in SQL.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		type TEXT NOT NULL,
		importance REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at);
	CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Remember persists one item, generating an id when absent.
func (s *SQLiteStore) Remember(ctx context.Context, item core.MemoryItem) error {
	if item.ID == "" {
		item.ID = core.NewID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	var metadata []byte
	if item.Metadata != nil {
		var err error
		metadata, err = json.Marshal(item.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO memories (id, content, type, importance, created_at, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.Content, string(item.Type), item.Importance, item.CreatedAt, string(metadata),
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}

	return nil
}

// GetByID resolves known ids, silently skipping unknown ones.
func (s *SQLiteStore) GetByID(ctx context.Context, ids []string) ([]core.MemoryItem, error) {
	if len(ids) == 0 {
		return []core.MemoryItem{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, type, importance, created_at, metadata
		 FROM memories WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// Recall returns up to limit keyword matches ordered by match count,
// importance and recency.
func (s *SQLiteStore) Recall(ctx context.Context, query string, limit int) ([]core.MemoryItem, error) {
	if limit <= 0 {
		return []core.MemoryItem{}, nil
	}

	terms := queryTerms(query)
	if len(terms) == 0 {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, content, type, importance, created_at, metadata
			 FROM memories ORDER BY created_at DESC LIMIT ?`, limit)
		if err != nil {
			return nil, fmt.Errorf("query memories: %w", err)
		}
		defer rows.Close()
		return scanItems(rows)
	}

	var score strings.Builder
	for i := range terms {
		if i > 0 {
			score.WriteString(" + ")
		}
		score.WriteString("(instr(lower(content), ?) > 0)")
	}

	// The score expression appears twice (filter and ordering), so the term
	// arguments are bound twice.
	args := make([]any, 0, 2*len(terms)+1)
	for _, term := range terms {
		args = append(args, term)
	}
	for _, term := range terms {
		args = append(args, term)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, type, importance, created_at, metadata
		 FROM memories
		 WHERE (`+score.String()+`) > 0
		 ORDER BY (`+score.String()+`) DESC, importance DESC, created_at DESC
		 LIMIT ?`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]core.MemoryItem, error) {
	items := []core.MemoryItem{}
	for rows.Next() {
		var (
			item     core.MemoryItem
			typ      string
			metadata sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Content, &typ, &item.Importance, &item.CreatedAt, &metadata); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		item.Type = core.MemoryType(typ)
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &item.Metadata); err != nil {
				// Corrupt metadata degrades to none rather than failing recall.
				item.Metadata = nil
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
