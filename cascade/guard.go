package cascade

import (
	"context"
	"fmt"
	"log/slog"

	"mock-bus-app/storage"
)

// Guard protects single-channel mutations with the same message-count
// check the cascade sweep uses, scoped to one channel at a time.
type Guard struct {
	store  *storage.Store
	broker Broker
	logger *slog.Logger
}

// NewGuard creates a Guard over the given store and broker client.
func NewGuard(store *storage.Store, broker Broker, logger *slog.Logger) *Guard {
	return &Guard{
		store:  store,
		broker: broker,
		logger: logger,
	}
}

// checkQueueEmpty verifies the queue holds no messages. It reports
// whether the queue exists at all; an unreadable depth blocks the
// caller with a ConflictError, an absent queue never does.
func (g *Guard) checkQueueEmpty(ctx context.Context, channelName, queueName string) (exists bool, err error) {
	exists, err = g.broker.QueueExists(ctx, queueName)
	if err != nil {
		return false, &ConflictError{Channel: channelName, Queue: queueName, Known: false}
	}
	if !exists {
		return false, nil
	}

	count, err := g.broker.MessageCount(ctx, queueName)
	if err != nil {
		return true, &ConflictError{Channel: channelName, Queue: queueName, Known: false}
	}
	if count > 0 {
		return true, &ConflictError{Channel: channelName, Queue: queueName, Count: count, Known: true}
	}
	return true, nil
}

// deleteQueueIfUnreferenced destroys the queue unless other channels
// (besides those excluded) still reference its name. The destroy itself
// is best-effort; a failure comes back as a warning, not an error.
func (g *Guard) deleteQueueIfUnreferenced(ctx context.Context, queueName string, warnings []string, excludeIDs ...string) []string {
	refs, err := g.store.CountChannelsByDestination(queueName, excludeIDs...)
	if err != nil {
		g.logger.Warn("could not check references to queue, keeping it", "queue", queueName, "error", err)
		return append(warnings, fmt.Sprintf("could not check references to queue %q: %v", queueName, err))
	}
	if refs > 0 {
		g.logger.Info("queue still referenced by other channels, keeping", "queue", queueName, "references", refs)
		return warnings
	}

	if err := g.broker.DeleteQueue(ctx, queueName); err != nil {
		g.logger.Warn("failed to delete queue", "queue", queueName, "error", err)
		return append(warnings, fmt.Sprintf("failed to delete queue %q: %v", queueName, err))
	}
	return warnings
}

// DeleteChannel removes a channel and, when it was the last referent,
// its queue. A nonzero or unknown message count rejects the deletion
// with a ConflictError and leaves both the record and the queue
// untouched.
func (g *Guard) DeleteChannel(ctx context.Context, channelID string) ([]string, error) {
	ch, err := g.store.GetChannelByID(channelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrNotFound
	}

	queueName := ch.QueueName()
	exists, err := g.checkQueueEmpty(ctx, ch.Name, queueName)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if exists {
		warnings = g.deleteQueueIfUnreferenced(ctx, queueName, warnings, ch.ID)
	}

	if err := g.store.DeleteChannel(ch.ID); err != nil {
		return warnings, err
	}
	g.logger.Info("channel deleted", "channel_name", ch.Name, "queue", queueName)
	return warnings, nil
}

// ForceDeleteChannel removes the channel record unconditionally,
// bypassing the message-count guard. The queue is still destroyed only
// when no other channel references it: force overrides the depth check,
// not the sharing check.
func (g *Guard) ForceDeleteChannel(ctx context.Context, channelID string) ([]string, error) {
	ch, err := g.store.GetChannelByID(channelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrNotFound
	}

	queueName := ch.QueueName()
	warnings := g.deleteQueueIfUnreferenced(ctx, queueName, nil, ch.ID)

	if err := g.store.DeleteChannel(ch.ID); err != nil {
		return warnings, err
	}
	g.logger.Info("channel force-deleted", "channel_name", ch.Name, "queue", queueName)
	return warnings, nil
}

// UpdateChannel persists the updated channel. When the effective queue
// name changes, the old queue must be empty (or absent); the record
// update commits first and the queue swap runs best-effort after it, so
// a broker failure at that point leaves the metadata and the broker
// divergent, reported through warnings.
func (g *Guard) UpdateChannel(ctx context.Context, updated *storage.Channel) ([]string, error) {
	old, err := g.store.GetChannelByID(updated.ID)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, ErrNotFound
	}

	oldQueue := old.QueueName()
	newQueue := updated.QueueName()

	oldExists := false
	if oldQueue != newQueue {
		oldExists, err = g.checkQueueEmpty(ctx, old.Name, oldQueue)
		if err != nil {
			return nil, err
		}
	}

	if err := g.store.UpdateChannel(updated); err != nil {
		return nil, err
	}

	var warnings []string
	if oldQueue != newQueue {
		if oldExists {
			warnings = g.deleteQueueIfUnreferenced(ctx, oldQueue, warnings)
		}
		if err := g.broker.CreateQueue(ctx, newQueue); err != nil {
			g.logger.Warn("failed to create queue for renamed channel", "queue", newQueue, "error", err)
			warnings = append(warnings, fmt.Sprintf("failed to create queue %q: %v", newQueue, err))
		}
		g.logger.Info("channel queue changed", "channel_name", updated.Name, "old_queue", oldQueue, "new_queue", newQueue)
	}

	return warnings, nil
}
