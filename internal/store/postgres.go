package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/supplygraph/matching-engine/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock's
// PgxPoolIface satisfies it, so the store is testable without a server.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS supply_trees (
	id            TEXT PRIMARY KEY,
	facility_name TEXT NOT NULL,
	okh_reference TEXT NOT NULL,
	okw_reference TEXT NOT NULL,
	confidence    DOUBLE PRECISION NOT NULL,
	match_type    TEXT NOT NULL,
	body          JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_trees_identity
	ON supply_trees(facility_name, okh_reference, okw_reference);
CREATE INDEX IF NOT EXISTS idx_trees_confidence ON supply_trees(confidence);
CREATE INDEX IF NOT EXISTS idx_trees_okh ON supply_trees(okh_reference);

CREATE TABLE IF NOT EXISTS documents (
	kind       TEXT NOT NULL,
	id         TEXT NOT NULL,
	content    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, id)
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveTree upserts by the identity triple: a duplicate solution replaces
// the earlier one rather than accumulating.
func (s *PostgresStore) SaveTree(ctx context.Context, tree *model.SupplyTree) error {
	if err := tree.Validate(); err != nil {
		return eris.Wrap(err, "postgres: refusing to save invalid tree")
	}
	body, err := json.Marshal(tree)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal tree")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO supply_trees (id, facility_name, okh_reference, okw_reference, confidence, match_type, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (facility_name, okh_reference, okw_reference)
		 DO UPDATE SET id = EXCLUDED.id, confidence = EXCLUDED.confidence,
		               match_type = EXCLUDED.match_type, body = EXCLUDED.body`,
		tree.ID, tree.FacilityName, tree.OKHReference, tree.OKWReference,
		tree.ConfidenceScore, string(tree.MatchType), body, tree.CreationTime,
	)
	return eris.Wrap(err, "postgres: save tree")
}

func (s *PostgresStore) GetTree(ctx context.Context, id string) (*model.SupplyTree, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM supply_trees WHERE id = $1`, id,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: tree %s not found", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get tree %s", id)
	}

	var tree model.SupplyTree
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal tree %s", id)
	}
	return &tree, nil
}

func (s *PostgresStore) ListTrees(ctx context.Context, filter TreeFilter) ([]model.SupplyTree, error) {
	query := `SELECT body FROM supply_trees WHERE confidence >= $1`
	args := []any{filter.MinConfidence}
	argIdx := 2

	if filter.FacilityName != "" {
		query += fmt.Sprintf(` AND facility_name = $%d`, argIdx)
		args = append(args, filter.FacilityName)
		argIdx++
	}
	if filter.OKHReference != "" {
		query += fmt.Sprintf(` AND okh_reference = $%d`, argIdx)
		args = append(args, filter.OKHReference)
		argIdx++
	}
	query += ` ORDER BY confidence DESC, created_at ASC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list trees")
	}
	defer rows.Close()

	var trees []model.SupplyTree
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tree")
		}
		var tree model.SupplyTree
		if err := json.Unmarshal(body, &tree); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal tree")
		}
		trees = append(trees, tree)
	}
	return trees, eris.Wrap(rows.Err(), "postgres: list trees iterate")
}

func (s *PostgresStore) DeleteTree(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM supply_trees WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete tree %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: tree %s not found", id)
	}
	return nil
}

func (s *PostgresStore) SaveDocument(ctx context.Context, kind, id string, content map[string]any) error {
	data, err := json.Marshal(content)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal document")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (kind, id, content, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (kind, id) DO UPDATE SET content = EXCLUDED.content, updated_at = now()`,
		kind, id, data,
	)
	return eris.Wrapf(err, "postgres: save document %s/%s", kind, id)
}

func (s *PostgresStore) GetDocument(ctx context.Context, kind, id string) (map[string]any, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT content FROM documents WHERE kind = $1 AND id = $2`, kind, id,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: document %s/%s not found", kind, id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get document %s/%s", kind, id)
	}

	var content map[string]any
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal document %s/%s", kind, id)
	}
	return content, nil
}

func (s *PostgresStore) ListDocuments(ctx context.Context, kind string, limit, offset int) (map[string]map[string]any, error) {
	query := `SELECT id, content FROM documents WHERE kind = $1 ORDER BY id`
	args := []any{kind}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	out := make(map[string]map[string]any)
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		var content map[string]any
		if err := json.Unmarshal(data, &content); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal document %s", id)
		}
		out[id] = content
	}
	return out, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

func (s *PostgresStore) DeleteDocument(ctx context.Context, kind, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE kind = $1 AND id = $2`, kind, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete document %s/%s", kind, id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: document %s/%s not found", kind, id)
	}
	return nil
}
