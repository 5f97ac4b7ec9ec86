package storage

import (
	"database/sql"
	"fmt"
)

// CreateApplication создает новое приложение.
func (s *Store) CreateApplication(app *Application) error {
	query := `INSERT INTO applications (id, name, description, client_secret, id_token) VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, app.ID, app.Name, app.Description, app.ClientSecret, app.IDToken)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// GetApplicationByID возвращает приложение по его ID.
func (s *Store) GetApplicationByID(id string) (*Application, error) {
	query := `SELECT id, name, description, client_secret, id_token, created_at, updated_at FROM applications WHERE id = ?`
	return s.scanApplication(s.db.QueryRow(query, id))
}

// GetApplicationByName возвращает приложение по его имени.
func (s *Store) GetApplicationByName(name string) (*Application, error) {
	query := `SELECT id, name, description, client_secret, id_token, created_at, updated_at FROM applications WHERE name = ?`
	return s.scanApplication(s.db.QueryRow(query, name))
}

// GetApplicationByIDToken возвращает приложение по его токену.
func (s *Store) GetApplicationByIDToken(token string) (*Application, error) {
	query := `SELECT id, name, description, client_secret, id_token, created_at, updated_at FROM applications WHERE id_token = ?`
	return s.scanApplication(s.db.QueryRow(query, token))
}

func (s *Store) scanApplication(row *sql.Row) (*Application, error) {
	app := &Application{}
	err := row.Scan(&app.ID, &app.Name, &app.Description, &app.ClientSecret, &app.IDToken, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Приложение не найдено
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// GetAllApplications возвращает все приложения.
func (s *Store) GetAllApplications() ([]Application, error) {
	query := `SELECT id, name, description, client_secret, id_token, created_at, updated_at FROM applications ORDER BY created_at DESC`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var app Application
		if err := rows.Scan(&app.ID, &app.Name, &app.Description, &app.ClientSecret, &app.IDToken, &app.CreatedAt, &app.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application row: %w", err)
		}
		apps = append(apps, app)
	}

	return apps, nil
}

// UpdateApplication обновляет имя и описание приложения.
// id_token и client_secret намеренно не обновляются.
func (s *Store) UpdateApplication(app *Application) error {
	query := `UPDATE applications SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := s.db.Exec(query, app.Name, app.Description, app.ID)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	return nil
}

// DeleteApplication удаляет запись приложения по ID.
// Удаление уже удаленной записи не считается ошибкой.
func (s *Store) DeleteApplication(id string) error {
	query := `DELETE FROM applications WHERE id = ?`
	_, err := s.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return nil
}
