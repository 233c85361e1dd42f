package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/supplygraph/matching-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS supply_trees (
	id            TEXT PRIMARY KEY,
	facility_name TEXT NOT NULL,
	okh_reference TEXT NOT NULL,
	okw_reference TEXT NOT NULL,
	confidence    REAL NOT NULL,
	match_type    TEXT NOT NULL,
	body          TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS documents (
	kind       TEXT NOT NULL,
	id         TEXT NOT NULL,
	content    TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (kind, id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_trees_identity
	ON supply_trees(facility_name, okh_reference, okw_reference);
CREATE INDEX IF NOT EXISTS idx_trees_confidence ON supply_trees(confidence);
CREATE INDEX IF NOT EXISTS idx_trees_okh ON supply_trees(okh_reference);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveTree upserts by the identity triple: a duplicate solution replaces
// the earlier one rather than accumulating.
func (s *SQLiteStore) SaveTree(ctx context.Context, tree *model.SupplyTree) error {
	if err := tree.Validate(); err != nil {
		return eris.Wrap(err, "sqlite: refusing to save invalid tree")
	}
	body, err := json.Marshal(tree)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal tree")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO supply_trees (id, facility_name, okh_reference, okw_reference, confidence, match_type, body, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (facility_name, okh_reference, okw_reference)
		 DO UPDATE SET id = excluded.id, confidence = excluded.confidence,
		               match_type = excluded.match_type, body = excluded.body`,
		tree.ID, tree.FacilityName, tree.OKHReference, tree.OKWReference,
		tree.ConfidenceScore, string(tree.MatchType), string(body), tree.CreationTime,
	)
	return eris.Wrap(err, "sqlite: save tree")
}

func (s *SQLiteStore) GetTree(ctx context.Context, id string) (*model.SupplyTree, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM supply_trees WHERE id = ?`, id,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: tree %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get tree %s", id)
	}

	var tree model.SupplyTree
	if err := json.Unmarshal([]byte(body), &tree); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal tree %s", id)
	}
	return &tree, nil
}

func (s *SQLiteStore) ListTrees(ctx context.Context, filter TreeFilter) ([]model.SupplyTree, error) {
	query := `SELECT body FROM supply_trees WHERE confidence >= ?`
	args := []any{filter.MinConfidence}

	if filter.FacilityName != "" {
		query += ` AND facility_name = ?`
		args = append(args, filter.FacilityName)
	}
	if filter.OKHReference != "" {
		query += ` AND okh_reference = ?`
		args = append(args, filter.OKHReference)
	}
	query += ` ORDER BY confidence DESC, created_at ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list trees")
	}
	defer rows.Close()

	var trees []model.SupplyTree
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tree")
		}
		var tree model.SupplyTree
		if err := json.Unmarshal([]byte(body), &tree); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal tree")
		}
		trees = append(trees, tree)
	}
	return trees, eris.Wrap(rows.Err(), "sqlite: list trees")
}

func (s *SQLiteStore) DeleteTree(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM supply_trees WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete tree %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: tree %s not found", id)
	}
	return nil
}

func (s *SQLiteStore) SaveDocument(ctx context.Context, kind, id string, content map[string]any) error {
	data, err := json.Marshal(content)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal document")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (kind, id, content, updated_at) VALUES (?, ?, ?, datetime('now'))
		 ON CONFLICT (kind, id) DO UPDATE SET content = excluded.content, updated_at = datetime('now')`,
		kind, id, string(data),
	)
	return eris.Wrapf(err, "sqlite: save document %s/%s", kind, id)
}

func (s *SQLiteStore) GetDocument(ctx context.Context, kind, id string) (map[string]any, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM documents WHERE kind = ? AND id = ?`, kind, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: document %s/%s not found", kind, id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get document %s/%s", kind, id)
	}

	var content map[string]any
	if err := json.Unmarshal([]byte(data), &content); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal document %s/%s", kind, id)
	}
	return content, nil
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, kind string, limit, offset int) (map[string]map[string]any, error) {
	query := `SELECT id, content FROM documents WHERE kind = ? ORDER BY id`
	args := []any{kind}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	out := make(map[string]map[string]any)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		var content map[string]any
		if err := json.Unmarshal([]byte(data), &content); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal document %s", id)
		}
		out[id] = content
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list documents")
}

func (s *SQLiteStore) DeleteDocument(ctx context.Context, kind, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE kind = ? AND id = ?`, kind, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete document %s/%s", kind, id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: document %s/%s not found", kind, id)
	}
	return nil
}
