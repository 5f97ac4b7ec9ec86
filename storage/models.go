package storage

import "time"

// Channel directions.
const (
	DirectionInbound       = "inbound"
	DirectionOutbound      = "outbound"
	DirectionBidirectional = "bidirectional"
)

// DefaultDestination is assigned to channels created without an explicit
// destination queue name.
const DefaultDestination = "Office"

// Application представляет приложение (клиента) в системе.
// IDToken используется как логин и пароль пользователя брокера;
// генерируется один раз при создании и больше не меняется.
type Application struct {
	ID           string
	Name         string
	Description  string
	ClientSecret string
	IDToken      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Process - организационная группировка каналов внутри приложения.
// На стороне брокера у процесса нет никакого ресурса.
type Process struct {
	ID            string
	ApplicationID string
	Name          string
	Description   string
	CreatedAt     time.Time
}

// Channel представляет канал, привязанный к процессу.
type Channel struct {
	ID          string
	ProcessID   string
	Name        string
	Description string
	Direction   string // "inbound", "outbound" или "bidirectional"
	Destination string
	CreatedAt   time.Time
}

// QueueName returns the effective broker queue name for the channel:
// the destination when set, the channel name otherwise.
func (c *Channel) QueueName() string {
	if c.Destination != "" {
		return c.Destination
	}
	return c.Name
}
