// Package storage provides the SQLite-backed note store. Notes are keyed
// by id; titles are unique and are what wikilinks resolve against.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/halvard/othala/internal/apperr"
	"github.com/halvard/othala/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL UNIQUE,
	content    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS links (
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	UNIQUE(source, target)
);

CREATE INDEX IF NOT EXISTS idx_links_source ON links(source);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target);
`

// DB wraps a sql.DB with note store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateNote inserts a new note. A duplicate title maps to
// apperr.ErrAlreadyExists.
func (db *DB) CreateNote(n *models.Note) error {
	_, err := db.conn.Exec(`
		INSERT INTO notes (id, title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, n.ID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("storage: create note: %w", err)
	}
	return nil
}

// GetNote returns the note with the given id.
func (db *DB) GetNote(id string) (*models.Note, error) {
	return db.scanNote(db.conn.QueryRow(`
		SELECT id, title, content, created_at, updated_at FROM notes WHERE id = ?
	`, id))
}

// GetNoteByTitle returns the note whose title matches exactly.
func (db *DB) GetNoteByTitle(title string) (*models.Note, error) {
	return db.scanNote(db.conn.QueryRow(`
		SELECT id, title, content, created_at, updated_at FROM notes WHERE title = ?
	`, title))
}

func (db *DB) scanNote(row *sql.Row) (*models.Note, error) {
	var n models.Note
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: scan note: %w", err)
	}
	return &n, nil
}

// ListNotes returns note summaries ordered by most recently updated,
// optionally filtered by a title substring.
func (db *DB) ListNotes(query string, limit, offset int) ([]models.NoteSummary, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	like := "%" + query + "%"

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM notes WHERE title LIKE ?`, like).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("storage: count notes: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, title, updated_at FROM notes
		WHERE title LIKE ?
		ORDER BY updated_at DESC, title ASC
		LIMIT ? OFFSET ?
	`, like, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("storage: list notes: %w", err)
	}
	defer rows.Close()

	var out []models.NoteSummary
	for rows.Next() {
		var s models.NoteSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// UpdateNote updates title and content for an existing note.
func (db *DB) UpdateNote(id, title, content string, updatedAt time.Time) error {
	res, err := db.conn.Exec(`
		UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ?
	`, title, content, updatedAt, id)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("storage: update note: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeleteNote removes a note together with its inbound and outbound links.
func (db *DB) DeleteNote(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, _ = tx.Exec(`DELETE FROM links WHERE source = ? OR target = ?`, id, id)
	res, err := tx.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: delete note: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return apperr.ErrNotFound
	}
	return tx.Commit()
}

// Titles returns every note title.
func (db *DB) Titles() ([]string, error) {
	rows, err := db.conn.Query(`SELECT title FROM notes ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("storage: titles: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ReplaceLinks replaces the outbound link set of a note: delete old rows
// then bulk insert, in one transaction.
func (db *DB) ReplaceLinks(sourceID string, targetIDs []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, sourceID)
	if len(targetIDs) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("storage: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range targetIDs {
			if _, err := stmt.Exec(sourceID, target); err != nil {
				return fmt.Errorf("storage: insert link: %w", err)
			}
		}
	}
	return tx.Commit()
}

// Backlinks returns summaries of all notes that link to the given note.
func (db *DB) Backlinks(id string) ([]models.NoteSummary, error) {
	rows, err := db.conn.Query(`
		SELECT n.id, n.title, n.updated_at
		FROM links l JOIN notes n ON n.id = l.source
		WHERE l.target = ?
		ORDER BY n.title
	`, id)
	if err != nil {
		return nil, fmt.Errorf("storage: backlinks: %w", err)
	}
	defer rows.Close()

	var out []models.NoteSummary
	for rows.Next() {
		var s models.NoteSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GraphLinks returns every link edge.
func (db *DB) GraphLinks() ([]models.Link, error) {
	rows, err := db.conn.Query(`SELECT source, target FROM links`)
	if err != nil {
		return nil, fmt.Errorf("storage: graph links: %w", err)
	}
	defer rows.Close()

	var out []models.Link
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.SourceID, &l.TargetID); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
