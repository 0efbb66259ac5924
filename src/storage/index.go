package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/elee1766/convo/src/conversation"
	"github.com/georgysavva/scany/v2/sqlscan"
)

// Entry is one row of the conversation index. The JSON files remain the
// source of truth; the index only speeds up listing. Rows are scoped by the
// absolute conversations directory they were read from.
type Entry struct {
	Dir          string    `json:"dir" db:"dir"`
	ID           string    `json:"id" db:"id"`
	Path         string    `json:"path" db:"path"`
	Model        string    `json:"model" db:"model"`
	MessageCount int       `json:"message_count" db:"message_count"`
	Preview      string    `json:"preview" db:"preview"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	IndexedAt    time.Time `json:"indexed_at" db:"indexed_at"`
}

// EntryFromSummary converts a store summary into an index entry for dir.
func EntryFromSummary(dir string, s conversation.Summary) *Entry {
	return &Entry{
		Dir:          dir,
		ID:           s.ID,
		Path:         s.Path,
		Model:        s.Model,
		MessageCount: s.MessageCount,
		Preview:      s.Preview,
		UpdatedAt:    s.UpdatedAt,
	}
}

// UpsertEntry inserts or replaces the index row for entry.Dir and entry.ID
func UpsertEntry(ctx context.Context, db Execer, entry *Entry) error {
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now()
	}
	entry.IndexedAt = time.Now()

	query := `INSERT INTO conversations (dir, id, path, model, message_count, preview, updated_at, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dir, id) DO UPDATE SET
			path = excluded.path,
			model = excluded.model,
			message_count = excluded.message_count,
			preview = excluded.preview,
			updated_at = excluded.updated_at,
			indexed_at = excluded.indexed_at`
	_, err := db.ExecContext(ctx, query,
		entry.Dir, entry.ID, entry.Path, entry.Model, entry.MessageCount, entry.Preview,
		entry.UpdatedAt.UTC(), entry.IndexedAt.UTC())
	return err
}

// GetEntry retrieves an index row by directory and conversation ID
func GetEntry(ctx context.Context, db sqlscan.Querier, dir, id string) (*Entry, error) {
	query := `SELECT dir, id, path, model, message_count, preview, updated_at, indexed_at FROM conversations WHERE dir = ? AND id = ?`
	var e Entry
	err := sqlscan.Get(ctx, db, &e, query, dir, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &e, nil
}

// ListEntries returns the rows of dir, most recently updated first. A
// limit of zero or less returns every row.
func ListEntries(ctx context.Context, db sqlscan.Querier, dir string, limit int) ([]*Entry, error) {
	query := `SELECT dir, id, path, model, message_count, preview, updated_at, indexed_at FROM conversations WHERE dir = ? ORDER BY updated_at DESC, id`
	args := []interface{}{dir}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var entries []*Entry
	if err := sqlscan.Select(ctx, db, &entries, query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteEntry removes the index row for id in dir
func DeleteEntry(ctx context.Context, db Execer, dir, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM conversations WHERE dir = ? AND id = ?`, dir, id)
	return err
}

// Index records the summaries of one conversations directory. Several
// directories can share a database without touching each other's rows.
type Index struct {
	db  *DB
	dir string
}

// NewIndex wraps an open database, scoped to the conversations directory
// dir. dir should be absolute so the same directory always maps to the
// same rows.
func NewIndex(db *DB, dir string) *Index {
	return &Index{db: db, dir: dir}
}

// Dir returns the directory the index is scoped to.
func (i *Index) Dir() string {
	return i.dir
}

// Record upserts a single conversation summary.
func (i *Index) Record(ctx context.Context, s conversation.Summary) error {
	return UpsertEntry(ctx, i.db.db, EntryFromSummary(i.dir, s))
}

// List returns up to limit entries, newest first.
func (i *Index) List(ctx context.Context, limit int) ([]*Entry, error) {
	return ListEntries(ctx, i.db.db, i.dir, limit)
}

// Sync makes the rows of the index directory mirror summaries exactly:
// rows not present in summaries are removed. It runs in a single
// transaction.
func (i *Index) Sync(ctx context.Context, summaries []conversation.Summary) error {
	tx, err := i.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := ListEntries(ctx, tx, i.dir, 0)
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	seen := make(map[string]struct{}, len(summaries))
	for _, s := range summaries {
		seen[s.ID] = struct{}{}
		if err := UpsertEntry(ctx, tx, EntryFromSummary(i.dir, s)); err != nil {
			return fmt.Errorf("failed to index %s: %w", s.ID, err)
		}
	}
	for _, e := range existing {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		if err := DeleteEntry(ctx, tx, i.dir, e.ID); err != nil {
			return fmt.Errorf("failed to drop %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}
