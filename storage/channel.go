package storage

import (
	"database/sql"
	"fmt"
)

// CreateChannel создает новый канал для процесса.
func (s *Store) CreateChannel(ch *Channel) error {
	query := `INSERT INTO channels (id, process_id, name, description, direction, destination) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.Exec(query, ch.ID, ch.ProcessID, ch.Name, ch.Description, ch.Direction, ch.Destination)
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	return nil
}

// GetChannelByID возвращает канал по его ID.
func (s *Store) GetChannelByID(id string) (*Channel, error) {
	query := `SELECT id, process_id, name, description, direction, destination, created_at FROM channels WHERE id = ?`
	row := s.db.QueryRow(query, id)

	ch := &Channel{}
	err := row.Scan(&ch.ID, &ch.ProcessID, &ch.Name, &ch.Description, &ch.Direction, &ch.Destination, &ch.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Канал не найден
		}
		return nil, fmt.Errorf("failed to get channel by id: %w", err)
	}
	return ch, nil
}

// GetChannelsByProcessID возвращает все каналы для заданного процесса.
func (s *Store) GetChannelsByProcessID(processID string) ([]Channel, error) {
	query := `SELECT id, process_id, name, description, direction, destination, created_at FROM channels WHERE process_id = ? ORDER BY created_at`
	return s.queryChannels(query, processID)
}

// GetChannelsByApplicationID возвращает все каналы приложения через его процессы.
func (s *Store) GetChannelsByApplicationID(appID string) ([]Channel, error) {
	query := `
		SELECT c.id, c.process_id, c.name, c.description, c.direction, c.destination, c.created_at
		FROM channels c
		JOIN processes p ON c.process_id = p.id
		WHERE p.application_id = ?
		ORDER BY c.created_at`
	return s.queryChannels(query, appID)
}

// GetAllChannels возвращает все каналы.
func (s *Store) GetAllChannels() ([]Channel, error) {
	query := `SELECT id, process_id, name, description, direction, destination, created_at FROM channels ORDER BY created_at`
	return s.queryChannels(query)
}

func (s *Store) queryChannels(query string, args ...any) ([]Channel, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var ch Channel
		if err := rows.Scan(&ch.ID, &ch.ProcessID, &ch.Name, &ch.Description, &ch.Direction, &ch.Destination, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		channels = append(channels, ch)
	}

	return channels, nil
}

// CountChannelsByDestination возвращает число каналов, ссылающихся на очередь.
// Каналы из excludeIDs не учитываются: так проверяется, останутся ли
// ссылки на очередь после удаления заданного набора каналов.
func (s *Store) CountChannelsByDestination(destination string, excludeIDs ...string) (int, error) {
	query := `SELECT id, destination, name FROM channels WHERE destination = ? OR (destination = '' AND name = ?)`
	rows, err := s.db.Query(query, destination, destination)
	if err != nil {
		return 0, fmt.Errorf("failed to count channels by destination: %w", err)
	}
	defer rows.Close()

	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	count := 0
	for rows.Next() {
		var id, dest, name string
		if err := rows.Scan(&id, &dest, &name); err != nil {
			return 0, fmt.Errorf("failed to scan channel row: %w", err)
		}
		if !excluded[id] {
			count++
		}
	}
	return count, nil
}

// UpdateChannel обновляет изменяемые поля канала.
func (s *Store) UpdateChannel(ch *Channel) error {
	query := `UPDATE channels SET name = ?, description = ?, direction = ?, destination = ? WHERE id = ?`
	_, err := s.db.Exec(query, ch.Name, ch.Description, ch.Direction, ch.Destination, ch.ID)
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}
	return nil
}

// DeleteChannel удаляет канал по ID.
// Удаление уже удаленной записи не считается ошибкой.
func (s *Store) DeleteChannel(id string) error {
	query := `DELETE FROM channels WHERE id = ?`
	_, err := s.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return nil
}
