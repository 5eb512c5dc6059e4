// Package filestore persists the session registry as one JSON document
// mapping session id to session record, rewritten wholesale on each
// mutation.
package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/gridbase/gridgate/session"
)

type Store struct {
	path string
}

var _ session.Persistence = (*Store)(nil)

func New(path string) *Store {
	return &Store{path: path}
}

// LoadAll reads the document. A missing file is an empty store, not an error.
func (s *Store) LoadAll() (map[string]*session.Session, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*session.Session{}, nil
		}
		return nil, errors.Wrap(err, "[Store.LoadAll] read sessions file")
	}

	sessions := map[string]*session.Session{}
	if len(raw) == 0 {
		return sessions, nil
	}
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, errors.Wrap(err, "[Store.LoadAll] decode sessions file")
	}
	return sessions, nil
}

// SaveAll rewrites the whole document.
func (s *Store) SaveAll(sessions map[string]*session.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "[Store.SaveAll] create data folder")
	}

	raw, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[Store.SaveAll] encode sessions")
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return errors.Wrap(err, "[Store.SaveAll] write sessions file")
	}
	return nil
}
