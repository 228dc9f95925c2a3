// Package store persists ingested corpora in SQLite. It supports both the
// pure Go driver (modernc.org/sqlite, the default) and the CGO driver
// (mattn/go-sqlite3, behind the cgo_sqlite build tag).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glagol-nlp/morfem/core/corpus"
	"github.com/glagol-nlp/morfem/core/morpheme"
)

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	source_path  TEXT NOT NULL,
	source_hash  TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS words (
	dataset_id  TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	line_no     INTEGER NOT NULL,
	wordform    TEXT NOT NULL,
	spec        TEXT NOT NULL,
	pos         TEXT NOT NULL,
	PRIMARY KEY (dataset_id, line_no)
);
CREATE INDEX IF NOT EXISTS idx_words_dataset ON words(dataset_id);
`

// DriverType reports which SQLite implementation is compiled in,
// "purego" or "cgo".
func DriverType() string {
	return driverType
}

// Dataset describes one stored corpus.
type Dataset struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourcePath string    `json:"source_path"`
	SourceHash string    `json:"source_hash"`
	CreatedAt  time.Time `json:"created_at"`
	WordCount  int       `json:"word_count"`
}

// Store wraps a SQLite database holding datasets and their words.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateDataset records a new dataset and returns its generated ID.
func (s *Store) CreateDataset(ctx context.Context, name, sourcePath, sourceHash string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO datasets (id, name, source_path, source_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, sourcePath, sourceHash, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("failed to create dataset %q: %w", name, err)
	}
	return id, nil
}

// InsertWords stores words for a dataset in a single transaction. The
// words are stored in their textual corpus form so they can be
// re-parsed on load.
func (s *Store) InsertWords(ctx context.Context, datasetID string, words []*morpheme.Word) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO words (dataset_id, line_no, wordform, spec, pos) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, w := range words {
		if _, err := stmt.ExecContext(ctx, datasetID, i+1, w.Text(), w.String(), w.POS()); err != nil {
			return fmt.Errorf("failed to insert word %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// LoadWords reads back every word of a dataset in line order.
func (s *Store) LoadWords(ctx context.Context, datasetID string) ([]*morpheme.Word, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT wordform, spec, pos FROM words WHERE dataset_id = ? ORDER BY line_no`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query words: %w", err)
	}
	defer rows.Close()

	var words []*morpheme.Word
	for rows.Next() {
		var wordform, spec, pos string
		if err := rows.Scan(&wordform, &spec, &pos); err != nil {
			return nil, fmt.Errorf("failed to scan word row: %w", err)
		}
		w, err := corpus.ParseLine(wordform + "\t" + spec + "\t" + pos)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored word %q: %w", wordform, err)
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// GetDataset returns metadata for one dataset.
func (s *Store) GetDataset(ctx context.Context, datasetID string) (*Dataset, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT d.id, d.name, d.source_path, d.source_hash, d.created_at,
		       (SELECT COUNT(*) FROM words w WHERE w.dataset_id = d.id)
		FROM datasets d WHERE d.id = ?`, datasetID)
	return scanDataset(row)
}

// ListDatasets returns all datasets, newest first.
func (s *Store) ListDatasets(ctx context.Context) ([]*Dataset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.source_path, d.source_hash, d.created_at,
		       (SELECT COUNT(*) FROM words w WHERE w.dataset_id = d.id)
		FROM datasets d ORDER BY d.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var out []*Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DatasetStats recomputes segmentation statistics over a stored
// dataset's words.
func (s *Store) DatasetStats(ctx context.Context, datasetID string) (*corpus.Stats, error) {
	words, err := s.LoadWords(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	return corpus.Collect(words), nil
}

// DeleteDataset removes a dataset and its words.
func (s *Store) DeleteDataset(ctx context.Context, datasetID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, datasetID)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("dataset %s not found", datasetID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row rowScanner) (*Dataset, error) {
	var d Dataset
	var createdAt string
	if err := row.Scan(&d.ID, &d.Name, &d.SourcePath, &d.SourceHash, &createdAt, &d.WordCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("dataset not found")
		}
		return nil, fmt.Errorf("failed to scan dataset row: %w", err)
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset timestamp %q: %w", createdAt, err)
	}
	d.CreatedAt = t
	return &d, nil
}
