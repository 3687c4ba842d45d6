// Package plans tracks insurance plans: premium due dates, expiry, and the
// plan activity log.
package plans

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/finance-bot/internal/activitylog"
	"gitlab.com/yelinaung/finance-bot/internal/localstate"
	"gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/recurrence"
	"gitlab.com/yelinaung/finance-bot/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultDueSoonDays is how many days ahead a premium counts as due.
const DefaultDueSoonDays = 15

var (
	// ErrInvalidPlan is returned for plan input that fails validation.
	ErrInvalidPlan = errors.New("invalid plan")
	// ErrExpired is returned when paying a premium on an expired plan.
	ErrExpired = errors.New("plan has expired")
	// ErrFinalPayment is returned by MarkPaid for the last premium before expiry.
	ErrFinalPayment = errors.New("next premium would fall after the plan's expiry")
	// ErrNotDue is returned when paying a premium outside the due window.
	ErrNotDue = errors.New("premium is not due yet")
	// ErrNotExpired is returned when acknowledging a plan that is still live.
	ErrNotExpired = errors.New("plan has not expired")
	// ErrNoDueDate is returned when paying a plan without a next due date.
	ErrNoDueDate = errors.New("plan has no due date")
)

// PlanAPI is the part of the backend that owns plans.
type PlanAPI interface {
	ListPlans(ctx context.Context) ([]models.Plan, error)
	GetPlan(ctx context.Context, id int64) (*models.Plan, error)
	CreatePlan(ctx context.Context, in models.PlanInput) (*models.Plan, error)
	UpdatePlan(ctx context.Context, id int64, in models.PlanInput) (*models.Plan, error)
	DeletePlan(ctx context.Context, id int64) error
	PayPremium(ctx context.Context, id int64, in models.PaymentInput) (*models.Plan, error)
	AddPlanHistory(ctx context.Context, id int64, in models.HistoryInput) (*models.Plan, error)
	UpdatePlanHistory(ctx context.Context, id, entryID int64, in models.HistoryInput) (*models.Plan, error)
	DeletePlanHistory(ctx context.Context, id, entryID int64) (*models.Plan, error)
}

// PlanView is a plan with its derived schedule state.
type PlanView struct {
	Plan          models.Plan
	Frequency     recurrence.Frequency
	Status        recurrence.DueStatus
	Expired       bool
	Acknowledged  bool
	FinalPayment  bool
	CanMarkPaid   bool
	AnnualPremium decimal.Decimal
}

// Overview summarizes all plans.
type Overview struct {
	Plans []PlanView
	// AnnualPremium totals the yearly premium of plans still in force.
	AnnualPremium         decimal.Decimal
	ExpiredUnacknowledged int
}

// Service runs plan operations and records them in the activity log.
type Service struct {
	api       PlanAPI
	log       *activitylog.Log
	acks      *localstate.ExpiredAcks
	threshold int
	now       func() time.Time
	loc       *time.Location
	actions   *telemetry.Actions
}

// Option configures a Service.
type Option func(*Service)

// WithDueSoonDays sets the due-soon window.
func WithDueSoonDays(days int) Option {
	return func(s *Service) { s.threshold = days }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone that decides the current calendar day.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// NewService creates a plan service.
func NewService(api PlanAPI, log *activitylog.Log, acks *localstate.ExpiredAcks, opts ...Option) *Service {
	s := &Service{
		api:       api,
		log:       log,
		acks:      acks,
		threshold: DefaultDueSoonDays,
		now:       time.Now,
		loc:       time.Local,
		actions:   telemetry.NewActions(activitylog.Plans.Name),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Log returns the plan activity log.
func (s *Service) Log() *activitylog.Log { return s.log }

// Today returns the current calendar day.
func (s *Service) Today() time.Time {
	return recurrence.Date(s.now().In(s.loc))
}

// View derives the schedule state of p as of today.
func (s *Service) View(p models.Plan, today time.Time, acknowledged bool) PlanView {
	expiry := p.ExpiryDate.TimePtr()
	anchor := p.NextDueDate.TimePtr()

	v := PlanView{
		Plan:          p,
		Expired:       recurrence.IsExpired(expiry, today),
		AnnualPremium: decimal.Zero,
	}
	v.Acknowledged = v.Expired && acknowledged
	v.Status = recurrence.Classify(anchor, expiry, today, s.threshold)

	f, ok := p.Recurrence()
	if !ok {
		return v
	}
	v.Frequency = f
	v.AnnualPremium = recurrence.Annualize(p.PremiumAmount, f)
	if anchor != nil {
		v.FinalPayment = recurrence.IsFinalPayment(*anchor, f, expiry)
	}
	v.CanMarkPaid = v.Status.IsDue() && !v.FinalPayment
	return v
}

// Overview lists all plans with their schedule state.
func (s *Service) Overview(ctx context.Context) (o Overview, err error) {
	ctx, span := telemetry.StartSpan(ctx, "plans.Overview")
	defer func() { telemetry.EndSpan(span, err) }()

	list, err := s.api.ListPlans(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to list plans: %w", err)
	}
	acked, err := s.acks.List(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to load acknowledged plans: %w", err)
	}

	today := s.Today()
	o = Overview{Plans: make([]PlanView, 0, len(list)), AnnualPremium: decimal.Zero}
	for _, p := range list {
		v := s.View(p, today, slices.Contains(acked, p.ID))
		o.Plans = append(o.Plans, v)
		if v.Expired {
			if !v.Acknowledged {
				o.ExpiredUnacknowledged++
			}
			continue
		}
		o.AnnualPremium = o.AnnualPremium.Add(v.AnnualPremium)
	}
	return o, nil
}

// Due returns the plans whose premium is due soon or overdue.
func (s *Service) Due(ctx context.Context) ([]PlanView, error) {
	o, err := s.Overview(ctx)
	if err != nil {
		return nil, err
	}
	var due []PlanView
	for _, v := range o.Plans {
		if v.Status.IsDue() {
			due = append(due, v)
		}
	}
	return due, nil
}

// Get returns one plan.
func (s *Service) Get(ctx context.Context, id int64) (*models.Plan, error) {
	p, err := s.api.GetPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan %d: %w", id, err)
	}
	return p, nil
}

func validateInput(in models.PlanInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPlan)
	}
	if !in.PremiumAmount.IsPositive() {
		return fmt.Errorf("%w: premium must be positive", ErrInvalidPlan)
	}
	if in.CoverAmount.IsNegative() {
		return fmt.Errorf("%w: cover must not be negative", ErrInvalidPlan)
	}
	if _, err := recurrence.Parse(in.Frequency, in.CustomDays); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	if in.NextDueDate != nil && in.ExpiryDate != nil && in.ExpiryDate.Before(in.NextDueDate.Time) {
		return fmt.Errorf("%w: expiry is before the next due date", ErrInvalidPlan)
	}
	return nil
}

// Create creates a plan.
func (s *Service) Create(ctx context.Context, in models.PlanInput) (p *models.Plan, err error) {
	ctx, span := telemetry.StartSpan(ctx, "plans.Create")
	defer func() { s.finish(ctx, span, activitylog.PlanCreated, err) }()

	if err := validateInput(in); err != nil {
		return nil, err
	}

	p, err = s.api.CreatePlan(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	premium := p.PremiumAmount
	s.record(ctx, p, activitylog.PlanCreated, &premium, scheduleDetails(p))
	return p, nil
}

// Update replaces the editable fields of a plan.
func (s *Service) Update(ctx context.Context, id int64, in models.PlanInput) (p *models.Plan, err error) {
	ctx, span := telemetry.StartSpan(ctx, "plans.Update", attribute.Int64("plan_id", id))
	defer func() { s.finish(ctx, span, activitylog.PlanUpdated, err) }()

	if err := validateInput(in); err != nil {
		return nil, err
	}

	p, err = s.api.UpdatePlan(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("failed to update plan %d: %w", id, err)
	}

	s.record(ctx, p, activitylog.PlanUpdated, nil, scheduleDetails(p))
	return p, nil
}

// Delete deletes a plan. Its log entries are kept.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "plans.Delete", attribute.Int64("plan_id", id))
	defer func() { s.finish(ctx, span, activitylog.PlanDeleted, err) }()

	p, err := s.api.GetPlan(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get plan %d: %w", id, err)
	}
	if err := s.api.DeletePlan(ctx, id); err != nil {
		return fmt.Errorf("failed to delete plan %d: %w", id, err)
	}

	s.record(ctx, p, activitylog.PlanDeleted, nil, p.Provider)
	return nil
}

// MarkPaid records the due premium of a plan and moves its due date one
// period forward. The final premium before expiry cannot be marked paid
// since there is no next due date to move to; record it with AddHistory.
func (s *Service) MarkPaid(ctx context.Context, id int64) (p *models.Plan, err error) {
	ctx, span := telemetry.StartSpan(ctx, "plans.MarkPaid", attribute.Int64("plan_id", id))
	defer func() { s.finish(ctx, span, activitylog.PremiumPaid, err) }()

	current, err := s.api.GetPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan %d: %w", id, err)
	}

	today := s.Today()
	view := s.View(*current, today, false)
	anchor := current.NextDueDate.TimePtr()
	switch {
	case view.Expired:
		return nil, ErrExpired
	case anchor == nil || view.Frequency.IsZero():
		return nil, ErrNoDueDate
	case view.FinalPayment:
		return nil, ErrFinalPayment
	case !view.CanMarkPaid:
		return nil, ErrNotDue
	}

	next := models.DatePtr(recurrence.NextOccurrence(*anchor, view.Frequency))
	premium := current.PremiumAmount
	p, err = s.api.PayPremium(ctx, id, models.PaymentInput{
		Amount:      premium,
		Date:        models.NewDate(today),
		NextDueDate: next,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pay premium of plan %d: %w", id, err)
	}

	s.record(ctx, p, activitylog.PremiumPaid, &premium, "Next due: "+next.String())
	return p, nil
}

// AcknowledgeExpired dismisses an expired plan from the overview. It
// reports false, without logging, when the plan was already acknowledged.
func (s *Service) AcknowledgeExpired(ctx context.Context, id int64) (added bool, err error) {
	ctx, span := telemetry.StartSpan(ctx, "plans.AcknowledgeExpired", attribute.Int64("plan_id", id))
	defer func() { s.finish(ctx, span, activitylog.PlanExpiredAck, err) }()

	p, err := s.api.GetPlan(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to get plan %d: %w", id, err)
	}
	if !recurrence.IsExpired(p.ExpiryDate.TimePtr(), s.Today()) {
		return false, ErrNotExpired
	}

	added, err = s.acks.Acknowledge(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to acknowledge plan %d: %w", id, err)
	}
	if added {
		s.record(ctx, p, activitylog.PlanExpiredAck, nil, "Expired on "+p.ExpiryDate.String())
	}
	return added, nil
}

// AddHistory records a premium payment without moving the due date.
func (s *Service) AddHistory(ctx context.Context, id int64, in models.HistoryInput) (p *models.Plan, err error) {
	ctx, span := telemetry.StartSpan(ctx, "plans.AddHistory", attribute.Int64("plan_id", id))
	defer func() { s.finish(ctx, span, activitylog.HistoryAdded, err) }()

	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidPlan)
	}
	if in.Date.IsZero() {
		in.Date = models.NewDate(s.Today())
	}

	p, err = s.api.AddPlanHistory(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("failed to add history to plan %d: %w", id, err)
	}

	amount := in.Amount
	s.record(ctx, p, activitylog.HistoryAdded, &amount, "Entry dated "+in.Date.String())
	return p, nil
}

// UpdateHistory edits one payment row.
func (s *Service) UpdateHistory(ctx context.Context, id, entryID int64, in models.HistoryInput) (p *models.Plan, err error) {
	ctx, span := telemetry.StartSpan(ctx, "plans.UpdateHistory", attribute.Int64("plan_id", id))
	defer func() { s.finish(ctx, span, activitylog.HistoryUpdated, err) }()

	p, err = s.api.UpdatePlanHistory(ctx, id, entryID, in)
	if err != nil {
		return nil, fmt.Errorf("failed to update history of plan %d: %w", id, err)
	}

	amount := in.Amount
	s.record(ctx, p, activitylog.HistoryUpdated, &amount, "Entry dated "+in.Date.String())
	return p, nil
}

// DeleteHistory removes one payment row.
func (s *Service) DeleteHistory(ctx context.Context, id, entryID int64) (p *models.Plan, err error) {
	ctx, span := telemetry.StartSpan(ctx, "plans.DeleteHistory", attribute.Int64("plan_id", id))
	defer func() { s.finish(ctx, span, activitylog.HistoryDeleted, err) }()

	current, err := s.api.GetPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan %d: %w", id, err)
	}
	i := slices.IndexFunc(current.History, func(h models.HistoryEntry) bool { return h.ID == entryID })

	p, err = s.api.DeletePlanHistory(ctx, id, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete history of plan %d: %w", id, err)
	}

	var amount *decimal.Decimal
	details := ""
	if i >= 0 {
		removed := current.History[i]
		amount = &removed.Amount
		details = "Entry dated " + removed.Date.String()
	}
	s.record(ctx, p, activitylog.HistoryDeleted, amount, details)
	return p, nil
}
