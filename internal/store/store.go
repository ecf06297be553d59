// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists paper records and assembled documents in a SQLite
// database and publishes finished corpora.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/tex-corpus/pkg/types"
)

const (
	dbFile   = "corpus.db"
	lockFile = "corpus.lock"
)

// ErrLocked is returned by Open when another process holds the store.
var ErrLocked = errors.New("corpus store is locked by another process")

// ErrInvalidUTF8 is returned when saving text that JSON could not carry
// unchanged.
var ErrInvalidUTF8 = errors.New("content is not valid UTF-8")

// Store manages the corpus database in a directory. An open Store holds an
// exclusive lock on the directory until Close.
type Store struct {
	db   *sql.DB
	dir  string
	lock *flock.Flock
}

// Open opens or creates the store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring store lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", dir, ErrLocked)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir, lock: lock}
	if err := s.createSchema(); err != nil {
		db.Close()
		lock.Unlock()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Close releases the database connection and the directory lock.
func (s *Store) Close() error {
	dbErr := s.db.Close()
	lockErr := s.lock.Unlock()
	if dbErr != nil {
		return dbErr
	}
	return lockErr
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			seq INTEGER NOT NULL,
			id TEXT PRIMARY KEY,
			categories TEXT,
			update_date TEXT,
			title TEXT,
			main TEXT NOT NULL,
			files TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			seq INTEGER NOT NULL,
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_seq ON papers(seq)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_seq ON documents(seq)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SavePapers replaces every stored paper record with papers, keeping their
// order.
func (s *Store) SavePapers(ctx context.Context, papers []types.PaperRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM papers`); err != nil {
		return fmt.Errorf("clearing papers: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (seq, id, categories, update_date, title, main, files)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range papers {
		for _, f := range p.Files {
			if !utf8.ValidString(f.Content) {
				return fmt.Errorf("paper %s: file %s: %w", p.ID, f.Name, ErrInvalidUTF8)
			}
		}
		filesJSON, err := json.Marshal(p.Files)
		if err != nil {
			return fmt.Errorf("marshaling files of %s: %w", p.ID, err)
		}
		dateStr := ""
		if !p.UpdateDate.IsZero() {
			dateStr = p.UpdateDate.Format(types.DateLayout)
		}
		if _, err := stmt.ExecContext(ctx, i, p.ID, p.Categories, dateStr, p.Title, p.Main, string(filesJSON)); err != nil {
			return fmt.Errorf("inserting paper %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// LoadPapers returns the stored paper records in saved order.
func (s *Store) LoadPapers(ctx context.Context) ([]types.PaperRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, categories, update_date, title, main, files FROM papers ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.PaperRecord
	for rows.Next() {
		var (
			p                          types.PaperRecord
			categories, dateStr, title sql.NullString
			filesJSON                  string
		)
		if err := rows.Scan(&p.ID, &categories, &dateStr, &title, &p.Main, &filesJSON); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		p.Categories = categories.String
		p.Title = title.String
		if dateStr.String != "" {
			t, err := time.Parse(types.DateLayout, dateStr.String)
			if err != nil {
				return nil, fmt.Errorf("paper %s: parsing update_date: %w", p.ID, err)
			}
			p.UpdateDate = t
		}
		if err := json.Unmarshal([]byte(filesJSON), &p.Files); err != nil {
			return nil, fmt.Errorf("paper %s: parsing files: %w", p.ID, err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// SaveDocuments replaces every stored document with docs, keeping their
// order. Ids must be unique.
func (s *Store) SaveDocuments(ctx context.Context, docs []types.AssembledDocument) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (seq, id, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range docs {
		if !utf8.ValidString(d.Content) {
			return fmt.Errorf("document %s: %w", d.ID, ErrInvalidUTF8)
		}
		if _, err := stmt.ExecContext(ctx, i, d.ID, d.Content); err != nil {
			return fmt.Errorf("inserting document %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

// LoadDocuments returns the stored documents in saved order.
func (s *Store) LoadDocuments(ctx context.Context) ([]types.AssembledDocument, error) {
	var docs []types.AssembledDocument
	err := s.eachDocument(ctx, func(d types.AssembledDocument) error {
		docs = append(docs, d)
		return nil
	})
	return docs, err
}

func (s *Store) eachDocument(ctx context.Context, fn func(types.AssembledDocument) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, content FROM documents ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d types.AssembledDocument
		if err := rows.Scan(&d.ID, &d.Content); err != nil {
			return fmt.Errorf("scanning document: %w", err)
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return rows.Err()
}
