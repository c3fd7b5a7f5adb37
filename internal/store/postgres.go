package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/underwriting-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, satisfied by pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
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

	// Apply pool sizing from config with sensible defaults.
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
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool, used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS quote_results (
	quote_id      TEXT PRIMARY KEY,
	client_name TEXT NOT NULL DEFAULT '',
	success       BOOLEAN NOT NULL,
	result        JSONB NOT NULL,
	saved_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS reference_documents (
	id         TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL,
	metadata   JSONB,
	embedding  JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quote_results_client ON quote_results(client_name);
CREATE INDEX IF NOT EXISTS idx_quote_results_saved_at ON quote_results(saved_at DESC);
CREATE INDEX IF NOT EXISTS idx_reference_documents_collection ON reference_documents(collection);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, result *model.PipelineResult) (*model.StoredResult, error) {
	if result.QuoteID == "" {
		return nil, eris.New("postgres: save result: empty quote id")
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal result")
	}

	savedAt := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quote_results (quote_id, client_name, success, result, saved_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (quote_id) DO UPDATE SET
			client_name = EXCLUDED.client_name,
			success       = EXCLUDED.success,
			result        = EXCLUDED.result,
			saved_at      = EXCLUDED.saved_at`,
		result.QuoteID, clientName(result), result.Success, string(resultJSON), savedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: save result %s", result.QuoteID)
	}

	return &model.StoredResult{PipelineResult: *result, SavedAt: savedAt}, nil
}

func (s *PostgresStore) GetResult(ctx context.Context, quoteID string) (*model.StoredResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT result, saved_at FROM quote_results WHERE quote_id = $1`,
		quoteID,
	)

	var resultJSON string
	var savedAt time.Time
	err := row.Scan(&resultJSON, &savedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get result %s", quoteID)
	}

	return decodeStoredResult(resultJSON, savedAt)
}

func (s *PostgresStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.StoredResult, error) {
	query := `SELECT result, saved_at FROM quote_results WHERE 1=1`
	var args []any

	if filter.ClientName != "" {
		args = append(args, filter.ClientName)
		query += ` AND client_name = $1`
	}
	query += ` ORDER BY saved_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var results []model.StoredResult
	for rows.Next() {
		var resultJSON string
		var savedAt time.Time
		if err := rows.Scan(&resultJSON, &savedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		sr, err := decodeStoredResult(resultJSON, savedAt)
		if err != nil {
			return nil, err
		}
		results = append(results, *sr)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list results iterate")
}

func (s *PostgresStore) ReplaceCollection(ctx context.Context, collection string, docs []model.Document) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM reference_documents WHERE collection = $1`, collection,
	); err != nil {
		return eris.Wrapf(err, "postgres: clear collection %s", collection)
	}

	for _, doc := range docs {
		metaJSON, embJSON, err := encodeDocument(doc)
		if err != nil {
			return err
		}
		var meta any
		if metaJSON != "" {
			meta = metaJSON
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO reference_documents (id, collection, name, content, metadata, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			doc.ID, collection, doc.Name, doc.Content, meta, embJSON,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert document %s", doc.ID)
		}
	}

	return eris.Wrapf(tx.Commit(ctx), "postgres: replace collection %s", collection)
}

func (s *PostgresStore) ListDocuments(ctx context.Context, collection string) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, collection, name, content, COALESCE(metadata::text, ''), embedding::text
		 FROM reference_documents WHERE collection = $1 ORDER BY id`,
		collection,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list documents %s", collection)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		var metaJSON, embJSON string
		if err := rows.Scan(&doc.ID, &doc.Collection, &doc.Name, &doc.Content, &metaJSON, &embJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		if err := decodeDocument(&doc, metaJSON, embJSON); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

func (s *PostgresStore) CountDocuments(ctx context.Context, collection string) (int, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reference_documents WHERE collection = $1`, collection,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, eris.Wrapf(err, "postgres: count documents %s", collection)
	}
	return n, nil
}

