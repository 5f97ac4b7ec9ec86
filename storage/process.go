package storage

import (
	"database/sql"
	"fmt"
)

// CreateProcess создает новый процесс для приложения.
func (s *Store) CreateProcess(p *Process) error {
	query := `INSERT INTO processes (id, application_id, name, description) VALUES (?, ?, ?, ?)`
	_, err := s.db.Exec(query, p.ID, p.ApplicationID, p.Name, p.Description)
	if err != nil {
		return fmt.Errorf("failed to create process: %w", err)
	}
	return nil
}

// GetProcessByID возвращает процесс по его ID.
func (s *Store) GetProcessByID(id string) (*Process, error) {
	query := `SELECT id, application_id, name, description, created_at FROM processes WHERE id = ?`
	row := s.db.QueryRow(query, id)

	p := &Process{}
	err := row.Scan(&p.ID, &p.ApplicationID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Процесс не найден
		}
		return nil, fmt.Errorf("failed to get process by id: %w", err)
	}
	return p, nil
}

// GetProcessesByApplicationID возвращает все процессы для заданного приложения.
func (s *Store) GetProcessesByApplicationID(appID string) ([]Process, error) {
	query := `SELECT id, application_id, name, description, created_at FROM processes WHERE application_id = ? ORDER BY created_at`
	rows, err := s.db.Query(query, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to get processes by application id: %w", err)
	}
	defer rows.Close()

	var processes []Process
	for rows.Next() {
		var p Process
		if err := rows.Scan(&p.ID, &p.ApplicationID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan process row: %w", err)
		}
		processes = append(processes, p)
	}

	return processes, nil
}

// GetAllProcesses возвращает все процессы.
func (s *Store) GetAllProcesses() ([]Process, error) {
	query := `SELECT id, application_id, name, description, created_at FROM processes ORDER BY created_at`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all processes: %w", err)
	}
	defer rows.Close()

	var processes []Process
	for rows.Next() {
		var p Process
		if err := rows.Scan(&p.ID, &p.ApplicationID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan process row: %w", err)
		}
		processes = append(processes, p)
	}

	return processes, nil
}

// UpdateProcess обновляет имя и описание процесса.
func (s *Store) UpdateProcess(p *Process) error {
	query := `UPDATE processes SET name = ?, description = ? WHERE id = ?`
	_, err := s.db.Exec(query, p.Name, p.Description, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update process: %w", err)
	}
	return nil
}

// DeleteProcess удаляет запись процесса по ID.
// Удаление уже удаленной записи не считается ошибкой.
func (s *Store) DeleteProcess(id string) error {
	query := `DELETE FROM processes WHERE id = ?`
	_, err := s.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete process: %w", err)
	}
	return nil
}
