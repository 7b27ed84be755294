// Package storage is the SQLite implementation of the store ports.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"abone/internal/core"
	"abone/internal/store"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const subscriptionColumns = `id, name, amount, currency, billing_cycle, custom_days,
	next_payment_date, is_active, category_id, card_id, created_at, updated_at`

func (r *Repository) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []core.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (r *Repository) GetSubscription(ctx context.Context, id string) (core.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id)
	s, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, store.ErrNotFound
	}
	return s, err
}

func (r *Repository) CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscriptionArgs(s)...)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}
	return s, nil
}

func (r *Repository) UpdateSubscription(ctx context.Context, s core.Subscription) error {
	s.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET name = ?, amount = ?, currency = ?, billing_cycle = ?,
			custom_days = ?, next_payment_date = ?, is_active = ?, category_id = ?,
			card_id = ?, updated_at = ? WHERE id = ?`,
		s.Name, s.Amount, string(s.Currency), string(s.BillingCycle),
		s.CustomDays, formatTime(s.NextPaymentDate), boolToInt(s.IsActive), s.CategoryID,
		s.CardID, formatTime(s.UpdatedAt), s.ID)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) DeleteSubscription(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) ReplaceSubscriptions(ctx context.Context, subs []core.Subscription) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions`); err != nil {
			return fmt.Errorf("clear subscriptions: %w", err)
		}
		for _, s := range subs {
			if s.ID == "" {
				s.ID = uuid.NewString()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO subscriptions (`+subscriptionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				subscriptionArgs(s)...); err != nil {
				return fmt.Errorf("insert subscription %s: %w", s.ID, err)
			}
		}
		return nil
	})
}

const cardColumns = `id, name, type, last_four, cutoff_day, bank_name, color, created_at, updated_at`

func (r *Repository) ListCards(ctx context.Context) ([]core.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []core.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *Repository) GetCard(ctx context.Context, id string) (core.Card, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Card{}, store.ErrNotFound
	}
	return c, err
}

func (r *Repository) CreateCard(ctx context.Context, c core.Card) (core.Card, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cards (`+cardColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cardArgs(c)...)
	if err != nil {
		return core.Card{}, fmt.Errorf("create card: %w", err)
	}
	return c, nil
}

func (r *Repository) UpdateCard(ctx context.Context, c core.Card) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE cards SET name = ?, type = ?, last_four = ?, cutoff_day = ?,
			bank_name = ?, color = ?, updated_at = ? WHERE id = ?`,
		c.Name, string(c.Type), c.LastFour, c.CutoffDay,
		c.BankName, c.Color, formatTime(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) DeleteCard(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return checkAffected(res)
}

func (r *Repository) ReplaceCards(ctx context.Context, cards []core.Card) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cards`); err != nil {
			return fmt.Errorf("clear cards: %w", err)
		}
		for _, c := range cards {
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO cards (`+cardColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				cardArgs(c)...); err != nil {
				return fmt.Errorf("insert card %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

func (r *Repository) GetSettings(ctx context.Context) (core.Settings, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT theme, notifications_enabled, notification_days_before,
			notification_time, permission_asked, last_notification_check
		 FROM settings WHERE id = 1`)

	var (
		s          core.Settings
		enabled    int
		asked      int
		lastCheck  string
	)
	err := row.Scan(&s.Theme, &enabled, &s.NotificationDaysBefore, &s.NotificationTime, &asked, &lastCheck)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultSettings(), nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	s.NotificationsEnabled = enabled != 0
	s.PermissionAsked = asked != 0
	if lastCheck != "" {
		if t, perr := time.Parse(time.RFC3339, lastCheck); perr == nil {
			s.LastNotificationCheck = t
		}
	}
	return s, nil
}

func (r *Repository) PutSettings(ctx context.Context, s core.Settings) error {
	lastCheck := ""
	if !s.LastNotificationCheck.IsZero() {
		lastCheck = formatTime(s.LastNotificationCheck)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (id, theme, notifications_enabled, notification_days_before,
			notification_time, permission_asked, last_notification_check)
		 VALUES (1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			theme = excluded.theme,
			notifications_enabled = excluded.notifications_enabled,
			notification_days_before = excluded.notification_days_before,
			notification_time = excluded.notification_time,
			permission_asked = excluded.permission_asked,
			last_notification_check = excluded.last_notification_check`,
		s.Theme, boolToInt(s.NotificationsEnabled), s.NotificationDaysBefore,
		s.NotificationTime, boolToInt(s.PermissionAsked), lastCheck)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (r *Repository) LoadRates(ctx context.Context) (core.RateTable, time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT currency, rate, fetched_at FROM exchange_rates`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load rates: %w", err)
	}
	defer rows.Close()

	table := make(core.RateTable)
	var fetchedAt time.Time
	for rows.Next() {
		var (
			currency string
			rate     float64
			fetched  string
		)
		if err := rows.Scan(&currency, &rate, &fetched); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan rate: %w", err)
		}
		table[core.Currency(currency)] = rate
		if t, perr := time.Parse(time.RFC3339, fetched); perr == nil && t.After(fetchedAt) {
			fetchedAt = t
		}
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}
	if len(table) == 0 {
		return nil, time.Time{}, store.ErrNotFound
	}
	return table, fetchedAt, nil
}

func (r *Repository) SaveRates(ctx context.Context, rates core.RateTable, fetchedAt time.Time) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM exchange_rates`); err != nil {
			return fmt.Errorf("clear rates: %w", err)
		}
		for currency, rate := range rates {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO exchange_rates (currency, rate, fetched_at) VALUES (?, ?, ?)`,
				string(currency), rate, formatTime(fetchedAt)); err != nil {
				return fmt.Errorf("insert rate %s: %w", currency, err)
			}
		}
		return nil
	})
}

func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (core.Subscription, error) {
	var (
		s                           core.Subscription
		currency, cycle             string
		nextPayment, created, updated string
		active                      int
	)
	err := row.Scan(&s.ID, &s.Name, &s.Amount, &currency, &cycle, &s.CustomDays,
		&nextPayment, &active, &s.CategoryID, &s.CardID, &created, &updated)
	if err != nil {
		return core.Subscription{}, err
	}
	s.Currency = core.Currency(currency)
	s.BillingCycle = core.BillingCycle(cycle)
	s.IsActive = active != 0
	if s.NextPaymentDate, err = time.Parse(time.RFC3339, nextPayment); err != nil {
		return core.Subscription{}, fmt.Errorf("parse next_payment_date: %w", err)
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, created)
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return s, nil
}

func subscriptionArgs(s core.Subscription) []any {
	return []any{
		s.ID, s.Name, s.Amount, string(s.Currency), string(s.BillingCycle), s.CustomDays,
		formatTime(s.NextPaymentDate), boolToInt(s.IsActive), s.CategoryID, s.CardID,
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
	}
}

func scanCard(row rowScanner) (core.Card, error) {
	var (
		c                core.Card
		cardType         string
		created, updated string
	)
	err := row.Scan(&c.ID, &c.Name, &cardType, &c.LastFour, &c.CutoffDay,
		&c.BankName, &c.Color, &created, &updated)
	if err != nil {
		return core.Card{}, err
	}
	c.Type = core.CardType(cardType)
	c.CreatedAt, _ = time.Parse(time.RFC3339, created)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return c, nil
}

func cardArgs(c core.Card) []any {
	return []any{
		c.ID, c.Name, string(c.Type), c.LastFour, c.CutoffDay,
		c.BankName, c.Color, formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	}
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
