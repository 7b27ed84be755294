package services

import (
	"testing"
	"time"

	"abone/internal/core"
)

func reminderSettings(daysBefore int) core.Settings {
	s := core.DefaultSettings()
	s.NotificationsEnabled = true
	s.NotificationDaysBefore = daysBefore
	return s
}

func TestPlanReminders(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
	subs := []core.Subscription{
		{ID: "a", Name: "Music", IsActive: true, NextPaymentDate: day(2025, time.June, 12)},
		{ID: "b", Name: "Video", IsActive: true, NextPaymentDate: day(2025, time.June, 10)},
		{ID: "c", Name: "Cloud", IsActive: true, NextPaymentDate: day(2025, time.June, 20)},
		{ID: "d", Name: "Paused", IsActive: false, NextPaymentDate: day(2025, time.June, 10)},
		{ID: "e", Name: "Overdue", IsActive: true, NextPaymentDate: day(2025, time.June, 5)},
	}

	got := PlanReminders(subs, reminderSettings(3), now)
	if len(got) != 2 {
		t.Fatalf("got %d reminders, want 2: %+v", len(got), got)
	}
	if got[0].SubscriptionID != "b" || got[0].DaysUntil != 0 {
		t.Fatalf("first reminder = %+v, want due-today b", got[0])
	}
	if got[1].SubscriptionID != "a" || got[1].DaysUntil != 2 {
		t.Fatalf("second reminder = %+v, want a in 2 days", got[1])
	}
}

func TestPlanRemindersSortsByDueDateThenName(t *testing.T) {
	now := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	subs := []core.Subscription{
		{ID: "z", Name: "Zebra", IsActive: true, NextPaymentDate: day(2025, time.June, 11)},
		{ID: "a", Name: "Alpha", IsActive: true, NextPaymentDate: day(2025, time.June, 11)},
	}

	got := PlanReminders(subs, reminderSettings(3), now)
	if len(got) != 2 {
		t.Fatalf("got %d reminders, want 2", len(got))
	}
	if got[0].Name != "Alpha" || got[1].Name != "Zebra" {
		t.Fatalf("order = %q, %q; want Alpha, Zebra", got[0].Name, got[1].Name)
	}
}

func TestPlanRemindersDisabled(t *testing.T) {
	now := time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	subs := []core.Subscription{
		{ID: "a", Name: "Music", IsActive: true, NextPaymentDate: day(2025, time.June, 10)},
	}
	settings := reminderSettings(3)
	settings.NotificationsEnabled = false

	if got := PlanReminders(subs, settings, now); got != nil {
		t.Fatalf("expected nil when notifications disabled, got %+v", got)
	}
}

func TestReminderDue(t *testing.T) {
	settings := reminderSettings(3)
	settings.NotificationTime = "09:00"

	tests := []struct {
		name string
		now  time.Time
		last time.Time
		want bool
	}{
		{
			name: "before notification time",
			now:  time.Date(2025, time.June, 10, 8, 59, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "after time, never checked",
			now:  time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "after time, checked yesterday",
			now:  time.Date(2025, time.June, 10, 9, 30, 0, 0, time.UTC),
			last: time.Date(2025, time.June, 9, 9, 5, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "already checked today",
			now:  time.Date(2025, time.June, 10, 15, 0, 0, 0, time.UTC),
			last: time.Date(2025, time.June, 10, 9, 1, 0, 0, time.UTC),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings
			s.LastNotificationCheck = tt.last
			if got := ReminderDue(s, tt.now); got != tt.want {
				t.Fatalf("ReminderDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReminderDueDisabledOrMalformed(t *testing.T) {
	now := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

	s := reminderSettings(3)
	s.NotificationsEnabled = false
	if ReminderDue(s, now) {
		t.Fatal("disabled notifications must never be due")
	}

	s = reminderSettings(3)
	s.NotificationTime = "not-a-time"
	if ReminderDue(s, now) {
		t.Fatal("malformed notification time must never be due")
	}
}
