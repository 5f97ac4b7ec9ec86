package cascade

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by guard operations when the target channel
// does not exist.
var ErrNotFound = errors.New("channel not found")

// UndeletedChannel names a channel a cascade sweep refused to delete
// and why.
type UndeletedChannel struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Report is the structured outcome of a cascade delete. Warnings carry
// best-effort broker failures that did not block the operation, so
// operators can spot metadata/broker divergence without mining logs.
type Report struct {
	Success           bool               `json:"success"`
	Message           string             `json:"message"`
	UndeletedChannels []UndeletedChannel `json:"undeletedChannels"`
	Warnings          []string           `json:"warnings,omitempty"`

	// NotFound marks the "root entity absent" outcome for status
	// mapping by the HTTP layer.
	NotFound bool `json:"-"`
}

// ConflictError is returned by guard operations when a destructive
// change is blocked by the state of the referenced queue. Known is
// false when the message count could not be read at all; the guard
// treats an unknown count as blocking.
type ConflictError struct {
	Channel string
	Queue   string
	Count   int64
	Known   bool
}

func (e *ConflictError) Error() string {
	if !e.Known {
		return fmt.Sprintf("cannot modify channel %q: message count for queue %q is unknown", e.Channel, e.Queue)
	}
	return fmt.Sprintf("cannot modify channel %q: queue %q holds %d messages", e.Channel, e.Queue, e.Count)
}
