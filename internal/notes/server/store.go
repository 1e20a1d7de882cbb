// Package server serves document notes over HTTP from a SQLite database.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/five82/folio/internal/notes"
)

// ErrRevisionMismatch is returned when a save names a stale revision.
var ErrRevisionMismatch = errors.New("revision mismatch")

// Repository persists note lists keyed by document id.
type Repository interface {
	Get(ctx context.Context, documentID string) (notes.Document, error)
	Put(ctx context.Context, documentID, ifRevision string, list []notes.Note) (notes.Document, error)
}

// SQLiteStore is a Repository backed by modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Repository = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the notes database.
func OpenSQLite(ctx context.Context, dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	const schema = `CREATE TABLE IF NOT EXISTS pdf_notes (
		document_id TEXT PRIMARY KEY,
		revision TEXT NOT NULL,
		notes BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create pdf_notes table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the stored notes. An unknown document has no notes and an
// empty revision.
func (s *SQLiteStore) Get(ctx context.Context, documentID string) (notes.Document, error) {
	doc := notes.Document{DocumentID: documentID, PDFNotes: []notes.Note{}}
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT revision, notes FROM pdf_notes WHERE document_id = ?", documentID,
	).Scan(&doc.Revision, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, nil
	}
	if err != nil {
		return notes.Document{}, fmt.Errorf("query notes: %w", err)
	}
	if err := json.Unmarshal(data, &doc.PDFNotes); err != nil {
		return notes.Document{}, fmt.Errorf("decode notes: %w", err)
	}
	return doc, nil
}

// Put replaces the notes and assigns a new revision. A non-empty ifRevision
// must match the stored revision.
func (s *SQLiteStore) Put(ctx context.Context, documentID, ifRevision string, list []notes.Note) (notes.Document, error) {
	if list == nil {
		list = []notes.Note{}
	}
	notes.Sort(list)
	data, err := json.Marshal(list)
	if err != nil {
		return notes.Document{}, fmt.Errorf("encode notes: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return notes.Document{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if ifRevision != "" {
		var current string
		err := tx.QueryRowContext(ctx, "SELECT revision FROM pdf_notes WHERE document_id = ?", documentID).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return notes.Document{}, fmt.Errorf("query revision: %w", err)
		}
		if current != ifRevision {
			return notes.Document{}, fmt.Errorf("document %s at %q: %w", documentID, current, ErrRevisionMismatch)
		}
	}

	revision := ulid.Make().String()
	_, err = tx.ExecContext(ctx, `INSERT INTO pdf_notes (document_id, revision, notes, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET revision = excluded.revision, notes = excluded.notes, updated_at = excluded.updated_at`,
		documentID, revision, data, time.Now().UTC())
	if err != nil {
		return notes.Document{}, fmt.Errorf("store notes: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return notes.Document{}, fmt.Errorf("commit: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"document_id": documentID,
		"revision":    revision,
		"notes":       len(list),
	}).Info("notes saved")
	return notes.Document{DocumentID: documentID, Revision: revision, PDFNotes: list}, nil
}
