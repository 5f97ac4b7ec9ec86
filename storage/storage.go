package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store - абстракция хранилища метаданных, использующая SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore создает и возвращает новый экземпляр Store.
func NewStore(dbPath string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("database initialized and migrated successfully", "path", dbPath)
	return store, nil
}

// migrate создает необходимые таблицы.
func (s *Store) migrate() error {
	createApplicationsTable := `
	CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		client_secret TEXT NOT NULL,
		id_token TEXT NOT NULL UNIQUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := s.db.Exec(createApplicationsTable); err != nil {
		return fmt.Errorf("failed to create applications table: %w", err)
	}

	createProcessesTable := `
	CREATE TABLE IF NOT EXISTS processes (
		id TEXT PRIMARY KEY,
		application_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (application_id) REFERENCES applications(id)
	);`
	if _, err := s.db.Exec(createProcessesTable); err != nil {
		return fmt.Errorf("failed to create processes table: %w", err)
	}

	createChannelsTable := `
	CREATE TABLE IF NOT EXISTS channels (
		id TEXT PRIMARY KEY,
		process_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		direction TEXT NOT NULL,
		destination TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (process_id) REFERENCES processes(id),
		UNIQUE(name, process_id, direction)
	);`
	if _, err := s.db.Exec(createChannelsTable); err != nil {
		return fmt.Errorf("failed to create channels table: %w", err)
	}

	s.logger.Info("database migration completed")
	return nil
}

// Close закрывает соединение с базой данных.
func (s *Store) Close() error {
	return s.db.Close()
}
