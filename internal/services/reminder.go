package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"abone/internal/core"
)

// Reminder is a pending payment notification: a subscription whose next
// payment falls within the user's reminder window.
type Reminder struct {
	SubscriptionID string        `json:"subscriptionId"`
	Name           string        `json:"name"`
	Amount         float64       `json:"amount"`
	Currency       core.Currency `json:"currency"`
	DueDate        time.Time     `json:"dueDate"`
	DaysUntil      int           `json:"daysUntil"`
}

// PlanReminders computes which active subscriptions are due within the
// configured window. Pure: scheduling state (when reminders were last
// checked) lives in settings, delivery is the caller's concern.
func PlanReminders(subs []core.Subscription, settings core.Settings, now time.Time) []Reminder {
	if !settings.NotificationsEnabled {
		return nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var out []Reminder
	for _, s := range subs {
		if !s.IsActive {
			continue
		}
		due := time.Date(s.NextPaymentDate.Year(), s.NextPaymentDate.Month(), s.NextPaymentDate.Day(), 0, 0, 0, 0, time.UTC)
		days := int(due.Sub(today).Hours() / 24)
		if days < 0 || days > settings.NotificationDaysBefore {
			continue
		}
		out = append(out, Reminder{
			SubscriptionID: s.ID,
			Name:           s.Name,
			Amount:         s.Amount,
			Currency:       s.Currency,
			DueDate:        due,
			DaysUntil:      days,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ReminderDue reports whether the daily reminder check should run: the
// configured notification time has passed and no check ran today yet.
func ReminderDue(settings core.Settings, now time.Time) bool {
	if !settings.NotificationsEnabled {
		return false
	}
	hour, minute, err := parseClock(settings.NotificationTime)
	if err != nil {
		return false
	}
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.Before(target) {
		return false
	}
	last := settings.LastNotificationCheck
	return last.IsZero() || last.Format("2006-01-02") != now.Format("2006-01-02")
}

func parseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
