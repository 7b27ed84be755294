package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	TRY Currency = "TRY"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

const (
	Monthly BillingCycle = "monthly"
	Yearly  BillingCycle = "yearly"
	Weekly  BillingCycle = "weekly"
	Custom  BillingCycle = "custom"
)

const (
	CreditCard CardType = "credit"
	DebitCard  CardType = "debit"
)

// CategoryOther is the fallback category for subscriptions without one.
const CategoryOther = "other"

type (
	Currency     string
	BillingCycle string
	CardType     string

	Subscription struct {
		ID              string       `json:"id"`
		Name            string       `json:"name"`
		Amount          float64      `json:"amount"`
		Currency        Currency     `json:"currency"`
		BillingCycle    BillingCycle `json:"billingCycle"`
		CustomDays      int          `json:"customDays,omitempty"` // required when BillingCycle is Custom
		NextPaymentDate time.Time    `json:"nextPaymentDate"`
		IsActive        bool         `json:"isActive"`
		CategoryID      string       `json:"categoryId,omitempty"` // empty means CategoryOther
		CardID          string       `json:"cardId,omitempty"`
		CreatedAt       time.Time    `json:"createdAt"`
		UpdatedAt       time.Time    `json:"updatedAt"`
	}

	Card struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Type      CardType  `json:"type"`
		LastFour  string    `json:"lastFourDigits"`       // never the full number
		CutoffDay int       `json:"cutoffDate,omitempty"` // 1-31, credit cards only
		BankName  string    `json:"bankName,omitempty"`
		Color     string    `json:"color,omitempty"` // #RRGGBB or oklch(...)
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// Settings holds user preferences. The backup layer decides which of
	// these fields may travel between devices; the device-local fields at
	// the bottom are never exported.
	Settings struct {
		Theme                  string `json:"theme"`
		NotificationsEnabled   bool   `json:"notificationsEnabled"`
		NotificationDaysBefore int    `json:"notificationDaysBefore"`
		NotificationTime       string `json:"notificationTime"` // HH:MM, 24h

		PermissionAsked       bool      `json:"permissionAsked,omitempty"`
		LastNotificationCheck time.Time `json:"lastNotificationCheck,omitempty"`
	}
)

var (
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrInvalidCycle       = errors.New("invalid billing cycle")
	ErrCustomDaysRequired = errors.New("custom cycle requires custom days")
	ErrInvalidLastFour    = errors.New("last four digits must be exactly 4 digits")
	ErrCutoffRequired     = errors.New("credit card requires a cutoff date")
	ErrCutoffNotAllowed   = errors.New("debit card cannot have a cutoff date")
	ErrInvalidCutoff      = errors.New("cutoff date must be between 1 and 31")
	ErrInvalidCardType    = errors.New("invalid card type")
	ErrInvalidColor       = errors.New("invalid color")
	ErrInvalidTime        = errors.New("invalid notification time")
	ErrInvalidDaysBefore  = errors.New("notification days must be between 1 and 30")
)

var (
	lastFourPattern  = regexp.MustCompile(`^[0-9]{4}$`)
	hexColorPattern  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	oklchPattern     = regexp.MustCompile(`^oklch\(.+\)$`)
	clockTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

func (c Currency) IsValid() bool {
	switch c {
	case TRY, USD, EUR:
		return true
	default:
		return false
	}
}

func (b BillingCycle) IsValid() bool {
	switch b {
	case Monthly, Yearly, Weekly, Custom:
		return true
	default:
		return false
	}
}

// Category returns the subscription's category, defaulting to
// CategoryOther when none was set. The default is resolved here at the
// boundary; stored data keeps the field exactly as entered.
func (s Subscription) Category() string {
	if strings.TrimSpace(s.CategoryID) == "" {
		return CategoryOther
	}
	return s.CategoryID
}

func (s Subscription) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyName
	}
	if len(s.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if s.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !s.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	if !s.BillingCycle.IsValid() {
		return ErrInvalidCycle
	}
	if s.BillingCycle == Custom && s.CustomDays <= 0 {
		return ErrCustomDaysRequired
	}
	if s.NextPaymentDate.IsZero() {
		return errors.New("next payment date cannot be zero")
	}
	return nil
}

// Normalize applies construction-time defaults. Type defaults to credit,
// matching how cards were created before debit support existed.
func (c *Card) Normalize() {
	if c.Type == "" {
		c.Type = CreditCard
	}
}

func (c Card) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	switch c.Type {
	case CreditCard:
		if c.CutoffDay == 0 {
			return ErrCutoffRequired
		}
		if c.CutoffDay < 1 || c.CutoffDay > 31 {
			return ErrInvalidCutoff
		}
	case DebitCard:
		if c.CutoffDay != 0 {
			return ErrCutoffNotAllowed
		}
	default:
		return ErrInvalidCardType
	}
	if !lastFourPattern.MatchString(c.LastFour) {
		return ErrInvalidLastFour
	}
	if c.Color != "" && !hexColorPattern.MatchString(c.Color) && !oklchPattern.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

// ValidClockTime reports whether s is a 24h HH:MM clock time.
func ValidClockTime(s string) bool {
	return clockTimePattern.MatchString(s)
}

func (s Settings) Validate() error {
	if s.NotificationDaysBefore < 1 || s.NotificationDaysBefore > 30 {
		return ErrInvalidDaysBefore
	}
	if !ValidClockTime(s.NotificationTime) {
		return ErrInvalidTime
	}
	return nil
}

// DefaultSettings mirrors what a fresh install gets.
func DefaultSettings() Settings {
	return Settings{
		Theme:                  "system",
		NotificationsEnabled:   false,
		NotificationDaysBefore: 3,
		NotificationTime:       "09:00",
	}
}
