package cascade

import (
	"context"
	"fmt"
	"log/slog"

	"mock-bus-app/metrics"
	"mock-bus-app/storage"
)

// Broker is the slice of the Artemis management client the cascade and
// guard paths rely on.
type Broker interface {
	QueueExists(ctx context.Context, name string) (bool, error)
	MessageCount(ctx context.Context, name string) (int64, error)
	CreateQueue(ctx context.Context, name string) error
	DeleteQueue(ctx context.Context, name string) error
	DeleteUser(ctx context.Context, username string) error
}

// Deleter removes an application or a process together with all
// descendant channels and their broker queues. The sweep commits each
// safe channel deletion as it goes; channels whose queues still hold
// messages are reported back and the parent entity is left in place.
// There is no rollback of already committed deletions.
type Deleter struct {
	store  *storage.Store
	broker Broker
	logger *slog.Logger
}

// NewDeleter creates a cascade Deleter over the given store and broker
// client.
func NewDeleter(store *storage.Store, broker Broker, logger *slog.Logger) *Deleter {
	return &Deleter{
		store:  store,
		broker: broker,
		logger: logger,
	}
}

// DeleteApplication cascade-deletes an application: its channels, their
// queues where safe, its processes, its broker user, and finally the
// application record itself. The returned report lists every channel
// that was left behind and why.
func (d *Deleter) DeleteApplication(ctx context.Context, appID string) (*Report, error) {
	report := &Report{UndeletedChannels: []UndeletedChannel{}}

	app, err := d.store.GetApplicationByID(appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		report.Message = "application not found"
		report.NotFound = true
		metrics.CascadeDeletes.WithLabelValues("application", "not_found").Inc()
		return report, nil
	}

	processes, err := d.store.GetProcessesByApplicationID(app.ID)
	if err != nil {
		return nil, err
	}
	channels, err := d.store.GetChannelsByApplicationID(app.ID)
	if err != nil {
		return nil, err
	}

	d.logger.Info("starting application cascade delete",
		"app_name", app.Name, "processes", len(processes), "channels", len(channels))

	d.sweepChannels(ctx, channels, report)

	if len(report.UndeletedChannels) > 0 {
		report.Message = fmt.Sprintf("application not deleted: %d channel(s) still hold messages or could not be checked", len(report.UndeletedChannels))
		metrics.CascadeDeletes.WithLabelValues("application", "blocked").Inc()
		d.logger.Warn("application cascade delete blocked",
			"app_name", app.Name, "undeleted_channels", len(report.UndeletedChannels))
		return report, nil
	}

	for _, p := range processes {
		if err := d.store.DeleteProcess(p.ID); err != nil {
			return nil, err
		}
	}

	// The broker user shares the application's lifetime; its absence on
	// the broker is not an error.
	if app.IDToken != "" {
		if err := d.broker.DeleteUser(ctx, app.IDToken); err != nil {
			d.logger.Warn("failed to delete broker user", "app_name", app.Name, "error", err)
			report.Warnings = append(report.Warnings, fmt.Sprintf("failed to delete broker user: %v", err))
		}
	}

	if err := d.store.DeleteApplication(app.ID); err != nil {
		return nil, err
	}

	report.Success = true
	report.Message = "application and all descendant entities deleted"
	metrics.CascadeDeletes.WithLabelValues("application", "ok").Inc()
	d.logger.Info("application cascade delete complete", "app_name", app.Name)
	return report, nil
}

// DeleteProcess cascade-deletes a process and its channels. Same sweep
// semantics as DeleteApplication, scoped to one process; the broker
// user is untouched since it belongs to the application.
func (d *Deleter) DeleteProcess(ctx context.Context, processID string) (*Report, error) {
	report := &Report{UndeletedChannels: []UndeletedChannel{}}

	proc, err := d.store.GetProcessByID(processID)
	if err != nil {
		return nil, err
	}
	if proc == nil {
		report.Message = "process not found"
		report.NotFound = true
		metrics.CascadeDeletes.WithLabelValues("process", "not_found").Inc()
		return report, nil
	}

	channels, err := d.store.GetChannelsByProcessID(proc.ID)
	if err != nil {
		return nil, err
	}

	d.logger.Info("starting process cascade delete", "process_name", proc.Name, "channels", len(channels))

	d.sweepChannels(ctx, channels, report)

	if len(report.UndeletedChannels) > 0 {
		report.Message = fmt.Sprintf("process not deleted: %d channel(s) still hold messages or could not be checked", len(report.UndeletedChannels))
		metrics.CascadeDeletes.WithLabelValues("process", "blocked").Inc()
		d.logger.Warn("process cascade delete blocked",
			"process_name", proc.Name, "undeleted_channels", len(report.UndeletedChannels))
		return report, nil
	}

	if err := d.store.DeleteProcess(proc.ID); err != nil {
		return nil, err
	}

	report.Success = true
	report.Message = "process and all descendant channels deleted"
	metrics.CascadeDeletes.WithLabelValues("process", "ok").Inc()
	d.logger.Info("process cascade delete complete", "process_name", proc.Name)
	return report, nil
}

// sweepChannels processes the channels strictly in order, committing
// each safe deletion immediately. A channel stays when its queue depth
// is nonzero or cannot be determined. A queue is destroyed only when no
// channel outside the delete set still references its name, so fan-in
// destinations survive partial overlaps.
func (d *Deleter) sweepChannels(ctx context.Context, channels []storage.Channel, report *Report) {
	deleteSet := make([]string, 0, len(channels))
	for _, ch := range channels {
		deleteSet = append(deleteSet, ch.ID)
	}

	for _, ch := range channels {
		queueName := ch.QueueName()

		exists, err := d.broker.QueueExists(ctx, queueName)
		if err != nil {
			report.UndeletedChannels = append(report.UndeletedChannels, UndeletedChannel{
				Name:   ch.Name,
				Reason: fmt.Sprintf("message count for queue %q is unknown: %v", queueName, err),
			})
			continue
		}

		if exists {
			count, err := d.broker.MessageCount(ctx, queueName)
			if err != nil {
				report.UndeletedChannels = append(report.UndeletedChannels, UndeletedChannel{
					Name:   ch.Name,
					Reason: fmt.Sprintf("message count for queue %q is unknown: %v", queueName, err),
				})
				continue
			}
			if count > 0 {
				report.UndeletedChannels = append(report.UndeletedChannels, UndeletedChannel{
					Name:   ch.Name,
					Reason: fmt.Sprintf("queue %q holds %d messages", queueName, count),
				})
				continue
			}

			refs, err := d.store.CountChannelsByDestination(queueName, deleteSet...)
			if err != nil {
				report.UndeletedChannels = append(report.UndeletedChannels, UndeletedChannel{
					Name:   ch.Name,
					Reason: fmt.Sprintf("could not check references to queue %q: %v", queueName, err),
				})
				continue
			}

			if refs == 0 {
				if err := d.broker.DeleteQueue(ctx, queueName); err != nil {
					d.logger.Warn("failed to delete queue", "queue", queueName, "error", err)
					report.Warnings = append(report.Warnings, fmt.Sprintf("failed to delete queue %q: %v", queueName, err))
				}
			} else {
				d.logger.Info("queue still referenced by other channels, keeping", "queue", queueName, "references", refs)
			}
		}

		if err := d.store.DeleteChannel(ch.ID); err != nil {
			report.UndeletedChannels = append(report.UndeletedChannels, UndeletedChannel{
				Name:   ch.Name,
				Reason: fmt.Sprintf("failed to delete channel record: %v", err),
			})
			continue
		}
		d.logger.Info("channel deleted", "channel_name", ch.Name, "queue", queueName)
	}
}
