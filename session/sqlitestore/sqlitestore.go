// Package sqlitestore persists the session registry in a SQLite table. Each
// record is stored as one JSON blob per row; SaveAll keeps the same
// whole-snapshot semantics as the file backing, but inside a transaction.
package sqlitestore

import (
	"encoding/json"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/gridbase/gridgate/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id     TEXT PRIMARY KEY,
	record TEXT NOT NULL
);`

type Store struct {
	db *sqlx.DB
}

var _ session.Persistence = (*Store)(nil)

// New opens (or creates) the SQLite database at path and ensures the schema.
func New(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.New] open database")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.New] ensure schema")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LoadAll() (map[string]*session.Session, error) {
	var rows []struct {
		ID     string `db:"id"`
		Record string `db:"record"`
	}
	if err := s.db.Select(&rows, `SELECT id, record FROM sessions`); err != nil {
		return nil, errors.Wrap(err, "[Store.LoadAll] select sessions")
	}

	sessions := make(map[string]*session.Session, len(rows))
	for _, row := range rows {
		var sess session.Session
		if err := json.Unmarshal([]byte(row.Record), &sess); err != nil {
			return nil, errors.Wrapf(err, "[Store.LoadAll] decode session %q", row.ID)
		}
		sessions[row.ID] = &sess
	}
	return sessions, nil
}

func (s *Store) SaveAll(sessions map[string]*session.Session) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "[Store.SaveAll] begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM sessions`); err != nil {
		return errors.Wrap(err, "[Store.SaveAll] clear sessions")
	}
	for id, sess := range sessions {
		record, err := json.Marshal(sess)
		if err != nil {
			return errors.Wrapf(err, "[Store.SaveAll] encode session %q", id)
		}
		if _, err := tx.Exec(`INSERT INTO sessions (id, record) VALUES (?, ?)`, id, string(record)); err != nil {
			return errors.Wrapf(err, "[Store.SaveAll] insert session %q", id)
		}
	}

	return errors.Wrap(tx.Commit(), "[Store.SaveAll] commit")
}
