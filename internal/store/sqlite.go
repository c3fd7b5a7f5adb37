package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/underwriting-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
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
CREATE TABLE IF NOT EXISTS quote_results (
	quote_id      TEXT PRIMARY KEY,
	client_name TEXT NOT NULL DEFAULT '',
	success       INTEGER NOT NULL,
	result        TEXT NOT NULL,
	saved_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS reference_documents (
	id         TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL,
	metadata   TEXT,
	embedding  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quote_results_client ON quote_results(client_name);
CREATE INDEX IF NOT EXISTS idx_quote_results_saved_at ON quote_results(saved_at);
CREATE INDEX IF NOT EXISTS idx_reference_documents_collection ON reference_documents(collection);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveResult(ctx context.Context, result *model.PipelineResult) (*model.StoredResult, error) {
	if result.QuoteID == "" {
		return nil, eris.New("sqlite: save result: empty quote id")
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal result")
	}

	savedAt := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quote_results (quote_id, client_name, success, result, saved_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(quote_id) DO UPDATE SET
			client_name = excluded.client_name,
			success       = excluded.success,
			result        = excluded.result,
			saved_at      = excluded.saved_at`,
		result.QuoteID, clientName(result), boolToInt(result.Success), string(resultJSON), savedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: save result %s", result.QuoteID)
	}

	return &model.StoredResult{PipelineResult: *result, SavedAt: savedAt}, nil
}

func (s *SQLiteStore) GetResult(ctx context.Context, quoteID string) (*model.StoredResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT result, saved_at FROM quote_results WHERE quote_id = ?`,
		quoteID,
	)

	var resultJSON string
	var savedAt time.Time
	err := row.Scan(&resultJSON, &savedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get result %s", quoteID)
	}

	return decodeStoredResult(resultJSON, savedAt)
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.StoredResult, error) {
	query := `SELECT result, saved_at FROM quote_results WHERE 1=1`
	var args []any

	if filter.ClientName != "" {
		query += ` AND client_name = ?`
		args = append(args, filter.ClientName)
	}
	query += ` ORDER BY saved_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close()

	var results []model.StoredResult
	for rows.Next() {
		var resultJSON string
		var savedAt time.Time
		if err := rows.Scan(&resultJSON, &savedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		sr, err := decodeStoredResult(resultJSON, savedAt)
		if err != nil {
			return nil, err
		}
		results = append(results, *sr)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list results iterate")
}

func (s *SQLiteStore) ReplaceCollection(ctx context.Context, collection string, docs []model.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM reference_documents WHERE collection = ?`, collection,
	); err != nil {
		return eris.Wrapf(err, "sqlite: clear collection %s", collection)
	}

	for _, doc := range docs {
		metaJSON, embJSON, err := encodeDocument(doc)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reference_documents (id, collection, name, content, metadata, embedding)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			doc.ID, collection, doc.Name, doc.Content, metaJSON, embJSON,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert document %s", doc.ID)
		}
	}

	return eris.Wrapf(tx.Commit(), "sqlite: replace collection %s", collection)
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, collection string) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, collection, name, content, metadata, embedding
		 FROM reference_documents WHERE collection = ? ORDER BY id`,
		collection,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list documents %s", collection)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		var metaJSON sql.NullString
		var embJSON string
		if err := rows.Scan(&doc.ID, &doc.Collection, &doc.Name, &doc.Content, &metaJSON, &embJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		if err := decodeDocument(&doc, metaJSON.String, embJSON); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list documents iterate")
}

func (s *SQLiteStore) CountDocuments(ctx context.Context, collection string) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reference_documents WHERE collection = ?`, collection,
	)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, eris.Wrapf(err, "sqlite: count documents %s", collection)
	}
	return n, nil
}

// helpers shared by both backends

func clientName(result *model.PipelineResult) string {
	if result.ClientProfile == nil {
		return ""
	}
	return result.ClientProfile.ClientName
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func decodeStoredResult(resultJSON string, savedAt time.Time) (*model.StoredResult, error) {
	var sr model.StoredResult
	if err := json.Unmarshal([]byte(resultJSON), &sr.PipelineResult); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal result")
	}
	sr.SavedAt = savedAt
	return &sr, nil
}

func encodeDocument(doc model.Document) (metaJSON, embJSON string, err error) {
	if doc.Metadata != nil {
		b, err := json.Marshal(doc.Metadata)
		if err != nil {
			return "", "", eris.Wrapf(err, "store: marshal metadata %s", doc.ID)
		}
		metaJSON = string(b)
	}
	b, err := json.Marshal(doc.Embedding)
	if err != nil {
		return "", "", eris.Wrapf(err, "store: marshal embedding %s", doc.ID)
	}
	return metaJSON, string(b), nil
}

func decodeDocument(doc *model.Document, metaJSON, embJSON string) error {
	if metaJSON != "" {
		if err := json.Unmarshal([]byte(metaJSON), &doc.Metadata); err != nil {
			return eris.Wrapf(err, "store: unmarshal metadata %s", doc.ID)
		}
	}
	if embJSON != "" {
		if err := json.Unmarshal([]byte(embJSON), &doc.Embedding); err != nil {
			return eris.Wrapf(err, "store: unmarshal embedding %s", doc.ID)
		}
	}
	return nil
}
