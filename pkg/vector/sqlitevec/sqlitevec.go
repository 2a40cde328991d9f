// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
//
// The driver stores a dataset as a directory holding a single SQLite database.
// Embeddings live in a vec0 virtual table; document IDs and metadata live in a
// regular table joined on rowid.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/memories/pkg/vector"
)

const (
	// MemoryPath opens a throwaway in-memory database instead of a dataset directory.
	MemoryPath = ":memory:"

	// DatabaseFile is the name of the database file inside a dataset directory.
	DatabaseFile = "memories.db"

	// fileOptions make concurrent writers wait for the lock instead of
	// failing with "database is locked".
	fileOptions = "_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db         *sql.DB
	dimensions uint
	logger     *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DatasetPath is the dataset directory. It is created if missing.
	// Use MemoryPath for an in-memory database.
	DatasetPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DatasetPath == "" {
		return nil, errors.New("dataset path is required")
	}

	if c.Dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	dbPath := c.DatasetPath
	dsn := dbPath
	if dbPath != MemoryPath {
		if err := os.MkdirAll(c.DatasetPath, 0o755); err != nil {
			return nil, fmt.Errorf("creating dataset directory: %w", err)
		}
		dbPath = filepath.Join(c.DatasetPath, DatabaseFile)
		dsn = "file:" + dbPath + "?" + fileOptions
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// vec0 virtual tables use integer rowids, so document IDs and metadata
	// are kept in a mapping table keyed by the same rowid.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL UNIQUE,
			metadata TEXT NOT NULL DEFAULT '{}'
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(embedding float[%d])`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", dbPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Driver{
		db:         db,
		dimensions: c.Dimensions,
		logger:     logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Upsert stores documents with their embeddings.
// If a document with the same ID already exists, it is replaced.
func (d *Driver) Upsert(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		if err := vector.CheckDimensions(doc.Embedding, d.dimensions); err != nil {
			return fmt.Errorf("doc %s: %w", doc.ID, err)
		}

		embBlob := serializeFloat32(doc.Embedding)
		metadata, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling metadata for doc %s: %w", doc.ID, err)
		}

		var existingRowID int64
		err = tx.QueryRowContext(ctx,
			`SELECT rowid FROM vec_documents WHERE doc_id = ?`, doc.ID,
		).Scan(&existingRowID)

		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx,
				`UPDATE vec_documents SET metadata = ? WHERE rowid = ?`,
				string(metadata), existingRowID,
			); err != nil {
				return fmt.Errorf("updating document %s: %w", doc.ID, err)
			}

			// vec0 does not support UPDATE
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM vec_embeddings WHERE rowid = ?`, existingRowID,
			); err != nil {
				return fmt.Errorf("deleting old embedding for doc %s: %w", doc.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
				existingRowID, embBlob,
			); err != nil {
				return fmt.Errorf("re-inserting embedding for doc %s: %w", doc.ID, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			result, err := tx.ExecContext(ctx,
				`INSERT INTO vec_documents(doc_id, metadata) VALUES (?, ?)`,
				doc.ID, string(metadata),
			)
			if err != nil {
				return fmt.Errorf("inserting document %s: %w", doc.ID, err)
			}

			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("getting rowid for doc %s: %w", doc.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
				rowID, embBlob,
			); err != nil {
				return fmt.Errorf("inserting embedding for doc %s: %w", doc.ID, err)
			}
		default:
			return fmt.Errorf("checking for existing document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("upserted documents to sqlite-vec", "count", len(docs))

	return nil
}

// Query finds the topK most similar documents to the given embedding.
//
// Without a filter the vec0 KNN index is used. With a filter the candidate
// set is narrowed by metadata first and then ranked by L2 distance, so that
// only matching documents compete for the topK slots.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	if err := vector.CheckDimensions(embedding, d.dimensions); err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}
	queryBlob := serializeFloat32(embedding)

	var (
		rows *sql.Rows
		err  error
	)
	if len(filter) == 0 {
		rows, err = d.db.QueryContext(ctx, `
			SELECT
				d.doc_id,
				d.metadata,
				ve.embedding,
				ve.distance
			FROM vec_embeddings ve
			INNER JOIN vec_documents d ON d.rowid = ve.rowid
			WHERE ve.embedding MATCH ?
				AND ve.k = ?
			ORDER BY ve.distance
		`, queryBlob, topK)
	} else {
		var where string
		var args []any
		where, args, err = filterClause(filter)
		if err != nil {
			return nil, err
		}

		query := fmt.Sprintf(`
			SELECT
				d.doc_id,
				d.metadata,
				ve.embedding,
				vec_distance_l2(ve.embedding, ?) AS distance
			FROM vec_documents d
			INNER JOIN vec_embeddings ve ON ve.rowid = d.rowid
			WHERE %s
			ORDER BY distance
			LIMIT ?
		`, where)

		queryArgs := append([]any{queryBlob}, args...)
		queryArgs = append(queryArgs, topK)
		rows, err = d.db.QueryContext(ctx, query, queryArgs...)
	}
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	results := []vector.QueryResult{}
	for rows.Next() {
		var (
			docID    string
			metadata string
			embBlob  []byte
			distance float64
		)
		if err := rows.Scan(&docID, &metadata, &embBlob, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		doc, err := buildDocument(docID, metadata, embBlob)
		if err != nil {
			return nil, err
		}

		results = append(results, vector.QueryResult{
			Document: doc,
			// lower distance = higher similarity
			Score: float32(1.0 / (1.0 + distance)),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec",
		"results", len(results),
		"filtered", len(filter) > 0,
	)

	return results, nil
}

// filterClause builds an AND-ed json_extract equality predicate for filter.
func filterClause(filter vector.Filter) (string, []any, error) {
	keys := filter.Keys()
	preds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)*2)

	for _, key := range keys {
		if strings.ContainsAny(key, `"\`) {
			return "", nil, fmt.Errorf("unsupported filter key %q", key)
		}

		value := filter[key]
		switch value.(type) {
		case string, bool, int, int32, int64, uint, float32, float64:
		default:
			return "", nil, fmt.Errorf("unsupported filter value type %T for key %q", value, key)
		}

		preds = append(preds, "json_extract(d.metadata, ?) = ?")
		args = append(args, `$."`+key+`"`, value)
	}

	return strings.Join(preds, " AND "), args, nil
}

// buildDocument decodes a stored row into a vector.Document.
func buildDocument(docID, metadata string, embBlob []byte) (vector.Document, error) {
	doc := vector.Document{ID: docID}

	if err := json.Unmarshal([]byte(metadata), &doc.Metadata); err != nil {
		return doc, fmt.Errorf("decoding metadata for doc %s: %w", docID, err)
	}

	if len(embBlob) > 0 {
		emb, err := deserializeFloat32(embBlob)
		if err != nil {
			return doc, fmt.Errorf("decoding embedding for doc %s: %w", docID, err)
		}
		doc.Embedding = emb
	}

	return doc, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT d.doc_id, d.metadata, ve.embedding
		FROM vec_documents d
		LEFT JOIN vec_embeddings ve ON ve.rowid = d.rowid
		WHERE d.doc_id IN (%s)
	`, strings.Join(placeholders, ","))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := make([]vector.Document, 0, len(ids))
	for rows.Next() {
		var (
			docID    string
			metadata string
			embBlob  []byte
		)
		if err := rows.Scan(&docID, &metadata, &embBlob); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		doc, err := buildDocument(docID, metadata, embBlob)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	inClause := strings.Join(placeholders, ",")

	query := fmt.Sprintf(
		`SELECT rowid FROM vec_documents WHERE doc_id IN (%s)`, inClause,
	)
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying rowids for deletion: %w", err)
	}

	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rowids: %w", err)
	}

	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vec_embeddings WHERE rowid = ?`, rowID,
		); err != nil {
			return fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
		}
	}

	deleteQuery := fmt.Sprintf(
		`DELETE FROM vec_documents WHERE doc_id IN (%s)`, inClause,
	)
	if _, err := tx.ExecContext(ctx, deleteQuery, args...); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("deleted documents from sqlite-vec", "count", len(ids))

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

var _ vector.Driver = (*Driver)(nil)
