// Package models defines the resources exchanged with the finance backend.
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/finance-bot/internal/recurrence"
)

// User represents a Telegram user.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns the name used to greet the user.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return "there"
	}
}

// BucketStatus is the lifecycle state of a savings bucket.
type BucketStatus string

// Bucket statuses.
const (
	BucketActive   BucketStatus = "active"
	BucketAchieved BucketStatus = "achieved"
)

// HistoryEntry is one dated amount in a bucket's contribution history or a
// plan's payment history.
type HistoryEntry struct {
	ID     int64           `json:"id"`
	Date   Date            `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

// Bucket is a Life XP savings goal. Frequency and CustomDays are the wire
// form of its schedule; use Recurrence to read them.
type Bucket struct {
	ID                   int64           `json:"id"`
	Name                 string          `json:"name"`
	TargetAmount         decimal.Decimal `json:"target_amount"`
	SavedAmount          decimal.Decimal `json:"saved_amount"`
	Status               BucketStatus    `json:"status"`
	RecurringEnabled     bool            `json:"recurring_enabled"`
	RecurringAmount      decimal.Decimal `json:"recurring_amount"`
	Frequency            string          `json:"frequency,omitempty"`
	CustomDays           int             `json:"custom_days,omitempty"`
	NextContributionDate *Date           `json:"next_contribution_date,omitempty"`
	History              []HistoryEntry  `json:"history,omitempty"`
}

// Recurrence returns the bucket's contribution schedule. The boolean is
// false when recurrence is disabled or the stored schedule is invalid.
func (b *Bucket) Recurrence() (recurrence.Frequency, bool) {
	if !b.RecurringEnabled {
		return recurrence.Frequency{}, false
	}
	f, err := recurrence.Parse(b.Frequency, b.CustomDays)
	if err != nil {
		return recurrence.Frequency{}, false
	}
	return f, true
}

// Progress returns the saved share of the target as a percentage.
func (b *Bucket) Progress() decimal.Decimal {
	if !b.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	return b.SavedAmount.Div(b.TargetAmount).Mul(decimal.NewFromInt(100)).Round(1)
}

// Input returns the editable fields of the bucket.
func (b *Bucket) Input() BucketInput {
	return BucketInput{
		Name:                 b.Name,
		TargetAmount:         b.TargetAmount,
		Status:               b.Status,
		RecurringEnabled:     b.RecurringEnabled,
		RecurringAmount:      b.RecurringAmount,
		Frequency:            b.Frequency,
		CustomDays:           b.CustomDays,
		NextContributionDate: b.NextContributionDate,
	}
}

// BucketInput creates or replaces a bucket.
type BucketInput struct {
	Name                 string          `json:"name"`
	TargetAmount         decimal.Decimal `json:"target_amount"`
	Status               BucketStatus    `json:"status,omitempty"`
	RecurringEnabled     bool            `json:"recurring_enabled"`
	RecurringAmount      decimal.Decimal `json:"recurring_amount"`
	Frequency            string          `json:"frequency,omitempty"`
	CustomDays           int             `json:"custom_days,omitempty"`
	NextContributionDate *Date           `json:"next_contribution_date,omitempty"`
}

// SetRecurrence stores f in wire form.
func (in *BucketInput) SetRecurrence(f recurrence.Frequency) {
	in.Frequency = string(f.Kind())
	in.CustomDays = f.CustomDays()
}

// ContributionInput records money added to a bucket. When set,
// NextContributionDate replaces the bucket's anchor.
type ContributionInput struct {
	Amount               decimal.Decimal `json:"amount"`
	Date                 Date            `json:"date"`
	Note                 string          `json:"note,omitempty"`
	NextContributionDate *Date           `json:"next_contribution_date,omitempty"`
}

// HistoryInput adds or edits a history row.
type HistoryInput struct {
	Date   Date            `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

// Plan is an insurance policy with a recurring premium.
type Plan struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Provider      string          `json:"provider,omitempty"`
	PolicyNumber  string          `json:"policy_number,omitempty"`
	PremiumAmount decimal.Decimal `json:"premium_amount"`
	CoverAmount   decimal.Decimal `json:"cover_amount"`
	Frequency     string          `json:"frequency"`
	CustomDays    int             `json:"custom_days,omitempty"`
	NextDueDate   *Date           `json:"next_due_date,omitempty"`
	ExpiryDate    *Date           `json:"expiry_date,omitempty"`
	History       []HistoryEntry  `json:"history,omitempty"`
}

// Recurrence returns the premium schedule. The boolean is false when the
// stored schedule is invalid.
func (p *Plan) Recurrence() (recurrence.Frequency, bool) {
	f, err := recurrence.Parse(p.Frequency, p.CustomDays)
	if err != nil {
		return recurrence.Frequency{}, false
	}
	return f, true
}

// Input returns the editable fields of the plan.
func (p *Plan) Input() PlanInput {
	return PlanInput{
		Name:          p.Name,
		Provider:      p.Provider,
		PolicyNumber:  p.PolicyNumber,
		PremiumAmount: p.PremiumAmount,
		CoverAmount:   p.CoverAmount,
		Frequency:     p.Frequency,
		CustomDays:    p.CustomDays,
		NextDueDate:   p.NextDueDate,
		ExpiryDate:    p.ExpiryDate,
	}
}

// PlanInput creates or replaces a plan.
type PlanInput struct {
	Name          string          `json:"name"`
	Provider      string          `json:"provider,omitempty"`
	PolicyNumber  string          `json:"policy_number,omitempty"`
	PremiumAmount decimal.Decimal `json:"premium_amount"`
	CoverAmount   decimal.Decimal `json:"cover_amount"`
	Frequency     string          `json:"frequency"`
	CustomDays    int             `json:"custom_days,omitempty"`
	NextDueDate   *Date           `json:"next_due_date,omitempty"`
	ExpiryDate    *Date           `json:"expiry_date,omitempty"`
}

// SetRecurrence stores f in wire form.
func (in *PlanInput) SetRecurrence(f recurrence.Frequency) {
	in.Frequency = string(f.Kind())
	in.CustomDays = f.CustomDays()
}

// PaymentInput records a premium payment and the plan's next due date.
type PaymentInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
	NextDueDate *Date           `json:"next_due_date,omitempty"`
}

// Account is a bank or investment account with a balance history.
type Account struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Type    string          `json:"type,omitempty"`
	Balance decimal.Decimal `json:"balance"`
	History []BalanceRecord `json:"history,omitempty"`
}

// BalanceRecord is an account balance on a given day.
type BalanceRecord struct {
	Date    Date            `json:"date"`
	Balance decimal.Decimal `json:"balance"`
	Notes   string          `json:"notes,omitempty"`
}
