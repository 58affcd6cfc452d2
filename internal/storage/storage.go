// Package storage persists reference image records in SQLite so the
// database survives restarts without rehashing every file.
package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Record is one stored reference image. Hash is a shaped hash string,
// "WxH:hex", so the shape is never lost.
type Record struct {
	Filename  string
	Algorithm string
	Hash      string
	Thumbnail string
	AddedAt   time.Time
}

// SQLiteStore keeps records in a single table.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open database %s", path)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS images (
		filename TEXT NOT NULL,
		algorithm TEXT NOT NULL,
		hash TEXT NOT NULL,
		thumbnail TEXT,
		added_at TEXT NOT NULL,
		PRIMARY KEY (filename, algorithm)
	);
	CREATE INDEX IF NOT EXISTS idx_hash ON images(algorithm, hash);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "cannot create images table")
	}
	return &SQLiteStore{db: db}, nil
}

// Save inserts r, replacing any record with the same filename and algorithm.
func (s *SQLiteStore) Save(r Record) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO images (filename, algorithm, hash, thumbnail, added_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.Filename, r.Algorithm, r.Hash, r.Thumbnail, r.AddedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.Wrapf(err, "cannot store %s", r.Filename)
	}
	return nil
}

// List returns every record hashed with algorithm, ordered by filename.
func (s *SQLiteStore) List(algorithm string) ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT filename, algorithm, hash, thumbnail, added_at
		FROM images WHERE algorithm = ? ORDER BY filename`, algorithm)
	if err != nil {
		return nil, errors.Wrap(err, "cannot query images")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var thumbnail sql.NullString
		var addedAt string
		if err := rows.Scan(&r.Filename, &r.Algorithm, &r.Hash, &thumbnail, &addedAt); err != nil {
			return nil, errors.Wrap(err, "cannot scan image row")
		}
		r.Thumbnail = thumbnail.String
		r.AddedAt, err = time.Parse(time.RFC3339Nano, addedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "bad added_at for %s", r.Filename)
		}
		records = append(records, r)
	}
	return records, errors.Wrap(rows.Err(), "cannot read images")
}

// Delete removes the record for filename and algorithm, if any.
func (s *SQLiteStore) Delete(filename, algorithm string) error {
	_, err := s.db.Exec(`DELETE FROM images WHERE filename = ? AND algorithm = ?`, filename, algorithm)
	return errors.Wrapf(err, "cannot delete %s", filename)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
