// Package worker runs the periodic reminder scan: once per tick it checks
// whether the daily notification is due, logs the upcoming payments and
// rolls overdue payment dates forward.
package worker

import (
	"context"
	"time"

	"abone/internal/backend"
	"abone/internal/log"
	"abone/internal/services"
)

// DefaultInterval is how often the worker wakes up. The daily check gate
// in services.ReminderDue keeps a short interval from spamming.
const DefaultInterval = time.Minute

// Reminder scans for upcoming and overdue payments.
type Reminder struct {
	store    backend.Store
	service  *services.SubscriptionService
	interval time.Duration
	logger   *log.Logger
}

func NewReminder(store backend.Store, service *services.SubscriptionService, interval time.Duration, logger *log.Logger) *Reminder {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentReminder)
	}
	return &Reminder{
		store:    store,
		service:  service,
		interval: interval,
		logger:   logger,
	}
}

// Run ticks until the context is cancelled. One scan runs immediately on
// startup so a process that only lives briefly still catches up.
func (r *Reminder) Run(ctx context.Context) error {
	r.logger.Info("reminder worker started", "interval", r.interval.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.scan(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reminder worker stopped")
			return ctx.Err()
		case now := <-ticker.C:
			r.scan(ctx, now)
		}
	}
}

// scan advances overdue dates every tick and runs the daily reminder pass
// at most once per day, after the configured notification time.
func (r *Reminder) scan(ctx context.Context, now time.Time) {
	if _, err := r.service.AdvanceOverdue(ctx, now); err != nil {
		r.logger.ErrorContext(ctx, "overdue scan failed", log.FieldError, err)
	}

	settings, err := r.store.GetSettings(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to load settings", log.FieldError, err)
		return
	}
	if !services.ReminderDue(settings, now) {
		return
	}

	subs, err := r.store.ListSubscriptions(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to list subscriptions", log.FieldError, err)
		return
	}

	reminders := services.PlanReminders(subs, settings, now)
	for _, rem := range reminders {
		r.logger.InfoContext(ctx, "payment due soon",
			log.FieldSubscriptionID, rem.SubscriptionID,
			"name", rem.Name,
			log.FieldAmount, rem.Amount,
			log.FieldCurrency, string(rem.Currency),
			"days_until", rem.DaysUntil,
		)
	}
	if len(reminders) == 0 {
		r.logger.DebugContext(ctx, "no payments due in the reminder window")
	}

	settings.LastNotificationCheck = now
	if err := r.store.PutSettings(ctx, settings); err != nil {
		r.logger.ErrorContext(ctx, "failed to record reminder check", log.FieldError, err)
	}
}
