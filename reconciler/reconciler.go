package reconciler

import (
	"context"
	"log/slog"

	"mock-bus-app/artemis"
	"mock-bus-app/metrics"
	"mock-bus-app/storage"
)

// Broker is the slice of the Artemis management client the reconciler
// relies on.
type Broker interface {
	FindUser(ctx context.Context, username string) (*artemis.User, error)
	CreateUser(ctx context.Context, username, password, role string) error
	QueueExists(ctx context.Context, name string) (bool, error)
	CreateQueue(ctx context.Context, name string) error
}

// Reconciler provisions broker resources to match the metadata tree:
// one broker user per application, one queue per channel destination.
// It only ever adds missing resources; deletion and renaming are the
// business of the cascade and guard paths.
type Reconciler struct {
	store  *storage.Store
	broker Broker
	logger *slog.Logger
}

// Summary describes what a single reconciliation pass did.
type Summary struct {
	Applications  int `json:"applications"`
	Channels      int `json:"channels"`
	UsersCreated  int `json:"usersCreated"`
	QueuesCreated int `json:"queuesCreated"`
	// Skipped counts entities whose provisioning step failed and was
	// left for a later pass.
	Skipped int `json:"skipped"`
}

// New creates a Reconciler over the given store and broker client.
func New(store *storage.Store, broker Broker, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		broker: broker,
		logger: logger,
	}
}

// Run walks the metadata tree once and provisions whatever is missing
// on the broker. The pass is idempotent and best-effort: a failure on
// one application or channel is logged, counted as skipped, and the
// pass moves on. Run always completes.
func (r *Reconciler) Run(ctx context.Context) Summary {
	r.logger.Info("starting broker resource reconciliation")
	var sum Summary

	apps, err := r.store.GetAllApplications()
	if err != nil {
		r.logger.Error("reconciliation aborted, failed to load applications", "error", err)
		metrics.ReconcilePasses.WithLabelValues("aborted").Inc()
		return sum
	}
	r.logger.Info("loaded applications for reconciliation", "count", len(apps))

	for _, app := range apps {
		sum.Applications++
		r.reconcileUser(ctx, &app, &sum)
		r.reconcileChannels(ctx, &app, &sum)
	}

	outcome := "clean"
	if sum.Skipped > 0 {
		outcome = "partial"
	}
	metrics.ReconcilePasses.WithLabelValues(outcome).Inc()
	r.logger.Info("broker resource reconciliation complete",
		"applications", sum.Applications,
		"channels", sum.Channels,
		"users_created", sum.UsersCreated,
		"queues_created", sum.QueuesCreated,
		"skipped", sum.Skipped)
	return sum
}

func (r *Reconciler) reconcileUser(ctx context.Context, app *storage.Application, sum *Summary) {
	user, err := r.broker.FindUser(ctx, app.IDToken)
	if err != nil {
		r.logger.Error("skipping broker user for application", "app_name", app.Name, "error", err)
		sum.Skipped++
		return
	}
	if user != nil {
		r.logger.Debug("broker user already exists", "app_name", app.Name)
		return
	}

	r.logger.Info("broker user missing, creating", "app_name", app.Name)
	if err := r.broker.CreateUser(ctx, app.IDToken, app.IDToken, ""); err != nil {
		r.logger.Error("failed to create broker user", "app_name", app.Name, "error", err)
		sum.Skipped++
		return
	}
	sum.UsersCreated++
	metrics.ReconcileCreated.WithLabelValues("user").Inc()
}

func (r *Reconciler) reconcileChannels(ctx context.Context, app *storage.Application, sum *Summary) {
	channels, err := r.store.GetChannelsByApplicationID(app.ID)
	if err != nil {
		r.logger.Error("failed to load channels for application", "app_name", app.Name, "error", err)
		sum.Skipped++
		return
	}
	r.logger.Info("reconciling channels for application", "app_name", app.Name, "count", len(channels))

	for _, ch := range channels {
		sum.Channels++
		queueName := ch.QueueName()

		exists, err := r.broker.QueueExists(ctx, queueName)
		if err != nil {
			r.logger.Error("skipping queue for channel", "channel_name", ch.Name, "queue", queueName, "error", err)
			sum.Skipped++
			continue
		}
		if exists {
			r.logger.Debug("queue already exists", "queue", queueName)
			continue
		}

		r.logger.Info("queue missing, creating", "channel_name", ch.Name, "queue", queueName)
		if err := r.broker.CreateQueue(ctx, queueName); err != nil {
			r.logger.Error("failed to create queue", "channel_name", ch.Name, "queue", queueName, "error", err)
			sum.Skipped++
			continue
		}
		sum.QueuesCreated++
		metrics.ReconcileCreated.WithLabelValues("queue").Inc()
	}
}
