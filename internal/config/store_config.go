package config

import "path/filepath"

type StoreConfig interface {
	GetDataFolder() string
	GetSessionsBackend() string
	GetSessionsFile() string
	GetSessionsDB() string
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetDataFolder() string {
	return GetEnv(dataFolderVar, "./data")
}

// GetSessionsBackend selects the persistence medium for the session store.
// Supported values: "file" (default, one JSON document) and "sqlite".
func (s Store) GetSessionsBackend() string {
	return GetEnv("SESSIONS_BACKEND", "file")
}

func (s Store) GetSessionsFile() string {
	return GetEnv("SESSIONS_FILE", filepath.Join(s.GetDataFolder(), "sessions.json"))
}

func (s Store) GetSessionsDB() string {
	return GetEnv("SESSIONS_DB", filepath.Join(s.GetDataFolder(), "sessions.db"))
}
