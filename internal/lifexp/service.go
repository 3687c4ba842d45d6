// Package lifexp manages Life XP savings buckets: due contributions,
// progress, and the bucket activity log.
package lifexp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/finance-bot/internal/activitylog"
	"gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/recurrence"
	"gitlab.com/yelinaung/finance-bot/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultDueSoonDays is how many days ahead a contribution counts as due.
const DefaultDueSoonDays = 7

var (
	// ErrInvalidBucket is returned for bucket input that fails validation.
	ErrInvalidBucket = errors.New("invalid bucket")
	// ErrNotRecurring is returned when a bucket has no contribution schedule.
	ErrNotRecurring = errors.New("bucket has no recurring contribution")
	// ErrNotDue is returned when marking a contribution that is not yet due.
	ErrNotDue = errors.New("contribution is not due yet")
	// ErrStatusUnchanged is returned when a bucket is already in the requested status.
	ErrStatusUnchanged = errors.New("bucket status unchanged")
)

// BucketAPI is the part of the backend that owns buckets.
type BucketAPI interface {
	ListBuckets(ctx context.Context) ([]models.Bucket, error)
	GetBucket(ctx context.Context, id int64) (*models.Bucket, error)
	CreateBucket(ctx context.Context, in models.BucketInput) (*models.Bucket, error)
	UpdateBucket(ctx context.Context, id int64, in models.BucketInput) (*models.Bucket, error)
	DeleteBucket(ctx context.Context, id int64) error
	AddContribution(ctx context.Context, id int64, in models.ContributionInput) (*models.Bucket, error)
	UpdateBucketHistory(ctx context.Context, id, entryID int64, in models.HistoryInput) (*models.Bucket, error)
	DeleteBucketHistory(ctx context.Context, id, entryID int64) (*models.Bucket, error)
}

// BucketView is a bucket with its derived schedule state.
type BucketView struct {
	Bucket      models.Bucket
	Frequency   recurrence.Frequency
	Recurring   bool
	Status      recurrence.DueStatus
	CanMarkDone bool
}

// Service runs bucket operations and records them in the activity log.
type Service struct {
	api       BucketAPI
	log       *activitylog.Log
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

// NewService creates a bucket service.
func NewService(api BucketAPI, log *activitylog.Log, opts ...Option) *Service {
	s := &Service{
		api:       api,
		log:       log,
		threshold: DefaultDueSoonDays,
		now:       time.Now,
		loc:       time.Local,
		actions:   telemetry.NewActions(activitylog.LifeXP.Name),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Log returns the bucket activity log.
func (s *Service) Log() *activitylog.Log { return s.log }

// Today returns the current calendar day.
func (s *Service) Today() time.Time {
	return recurrence.Date(s.now().In(s.loc))
}

// View derives the schedule state of b as of today. Achieved buckets are
// never due.
func (s *Service) View(b models.Bucket, today time.Time) BucketView {
	v := BucketView{Bucket: b}
	f, ok := b.Recurrence()
	if !ok {
		return v
	}
	v.Frequency = f
	v.Recurring = true
	if b.Status == models.BucketAchieved {
		return v
	}
	v.Status = recurrence.Classify(b.NextContributionDate.TimePtr(), nil, today, s.threshold)
	v.CanMarkDone = v.Status.IsDue() && b.RecurringAmount.IsPositive()
	return v
}

// Overview lists all buckets with their schedule state.
func (s *Service) Overview(ctx context.Context) (views []BucketView, err error) {
	ctx, span := telemetry.StartSpan(ctx, "lifexp.Overview")
	defer func() { telemetry.EndSpan(span, err) }()

	buckets, err := s.api.ListBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	today := s.Today()
	views = make([]BucketView, 0, len(buckets))
	for _, b := range buckets {
		views = append(views, s.View(b, today))
	}
	return views, nil
}

// Due returns the buckets whose contribution is due soon or overdue.
func (s *Service) Due(ctx context.Context) ([]BucketView, error) {
	views, err := s.Overview(ctx)
	if err != nil {
		return nil, err
	}
	var due []BucketView
	for _, v := range views {
		if v.Status.IsDue() {
			due = append(due, v)
		}
	}
	return due, nil
}

func validateInput(in models.BucketInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBucket)
	}
	if in.TargetAmount.IsNegative() {
		return fmt.Errorf("%w: target must not be negative", ErrInvalidBucket)
	}
	if !in.RecurringEnabled {
		return nil
	}
	f, err := recurrence.Parse(in.Frequency, in.CustomDays)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBucket, err)
	}
	if !f.AllowedForBuckets() {
		return fmt.Errorf("%w: %s schedules are not available for buckets", ErrInvalidBucket, f.Label())
	}
	if !in.RecurringAmount.IsPositive() {
		return fmt.Errorf("%w: recurring amount must be positive", ErrInvalidBucket)
	}
	return nil
}

// Create creates a bucket.
func (s *Service) Create(ctx context.Context, in models.BucketInput) (b *models.Bucket, err error) {
	ctx, span := telemetry.StartSpan(ctx, "lifexp.Create")
	defer func() { s.finish(ctx, span, activitylog.BucketCreated, err) }()

	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = models.BucketActive
	}

	b, err = s.api.CreateBucket(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	target := b.TargetAmount
	s.record(ctx, b, activitylog.BucketCreated, &target, scheduleDetails(b))
	return b, nil
}

// Update replaces the editable fields of a bucket.
func (s *Service) Update(ctx context.Context, id int64, in models.BucketInput) (b *models.Bucket, err error) {
	ctx, span := telemetry.StartSpan(ctx, "lifexp.Update", attribute.Int64("bucket_id", id))
	defer func() { s.finish(ctx, span, activitylog.BucketUpdated, err) }()

	if err := validateInput(in); err != nil {
		return nil, err
	}

	b, err = s.api.UpdateBucket(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("failed to update bucket %d: %w", id, err)
	}

	s.record(ctx, b, activitylog.BucketUpdated, nil, scheduleDetails(b))
	return b, nil
}

// Delete deletes a bucket. Its log entries are kept.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "lifexp.Delete", attribute.Int64("bucket_id", id))
	defer func() { s.finish(ctx, span, activitylog.BucketDeleted, err) }()

	b, err := s.api.GetBucket(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get bucket %d: %w", id, err)
	}
	if err := s.api.DeleteBucket(ctx, id); err != nil {
		return fmt.Errorf("failed to delete bucket %d: %w", id, err)
	}

	saved := b.SavedAmount
	s.record(ctx, b, activitylog.BucketDeleted, &saved, "")
	return nil
}

// Contribute adds amount to a bucket. A zero date means today.
func (s *Service) Contribute(ctx context.Context, id int64, amount decimal.Decimal, date time.Time, note string) (b *models.Bucket, err error) {
	ctx, span := telemetry.StartSpan(ctx, "lifexp.Contribute", attribute.Int64("bucket_id", id))
	defer func() { s.finish(ctx, span, activitylog.ContributionAdded, err) }()

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: contribution must be positive", ErrInvalidBucket)
	}
	if date.IsZero() {
		date = s.Today()
	}

	b, err = s.api.AddContribution(ctx, id, models.ContributionInput{
		Amount: amount,
		Date:   models.NewDate(date),
		Note:   note,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add contribution to bucket %d: %w", id, err)
	}

	s.record(ctx, b, activitylog.ContributionAdded, &amount, note)
	return b, nil
}

// MarkContributionDone records the scheduled contribution of a due bucket
// and moves its next contribution date one period forward.
func (s *Service) MarkContributionDone(ctx context.Context, id int64) (b *models.Bucket, err error) {
	ctx, span := telemetry.StartSpan(ctx, "lifexp.MarkContributionDone", attribute.Int64("bucket_id", id))
	defer func() { s.finish(ctx, span, activitylog.ContributionMarkedDone, err) }()

	current, err := s.api.GetBucket(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %d: %w", id, err)
	}

	today := s.Today()
	view := s.View(*current, today)
	anchor := current.NextContributionDate.TimePtr()
	if !view.Recurring || anchor == nil {
		return nil, ErrNotRecurring
	}
	if !view.CanMarkDone {
		return nil, ErrNotDue
	}

	next := models.DatePtr(recurrence.NextOccurrence(*anchor, view.Frequency))
	amount := current.RecurringAmount
	b, err = s.api.AddContribution(ctx, id, models.ContributionInput{
		Amount:               amount,
		Date:                 models.NewDate(today),
		Note:                 "Scheduled contribution",
		NextContributionDate: next,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record contribution for bucket %d: %w", id, err)
	}

	s.record(ctx, b, activitylog.ContributionMarkedDone, &amount, "Next contribution: "+next.String())
	return b, nil
}

// Achieve marks a bucket's goal as reached.
func (s *Service) Achieve(ctx context.Context, id int64) (*models.Bucket, error) {
	return s.setStatus(ctx, id, models.BucketAchieved, activitylog.BucketAchieved)
}

// Reactivate returns an achieved bucket to active.
func (s *Service) Reactivate(ctx context.Context, id int64) (*models.Bucket, error) {
	return s.setStatus(ctx, id, models.BucketActive, activitylog.BucketReactivated)
}

func (s *Service) setStatus(ctx context.Context, id int64, status models.BucketStatus, action activitylog.Action) (b *models.Bucket, err error) {
	ctx, span := telemetry.StartSpan(ctx, "lifexp."+string(action), attribute.Int64("bucket_id", id))
	defer func() { s.finish(ctx, span, action, err) }()

	current, err := s.api.GetBucket(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %d: %w", id, err)
	}
	if current.Status == status {
		return nil, ErrStatusUnchanged
	}

	in := current.Input()
	in.Status = status
	b, err = s.api.UpdateBucket(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("failed to update bucket %d: %w", id, err)
	}

	saved := b.SavedAmount
	s.record(ctx, b, action, &saved, "")
	return b, nil
}

// UpdateHistory edits one contribution row.
func (s *Service) UpdateHistory(ctx context.Context, id, entryID int64, in models.HistoryInput) (b *models.Bucket, err error) {
	ctx, span := telemetry.StartSpan(ctx, "lifexp.UpdateHistory", attribute.Int64("bucket_id", id))
	defer func() { s.finish(ctx, span, activitylog.HistoryUpdated, err) }()

	b, err = s.api.UpdateBucketHistory(ctx, id, entryID, in)
	if err != nil {
		return nil, fmt.Errorf("failed to update history of bucket %d: %w", id, err)
	}

	amount := in.Amount
	s.record(ctx, b, activitylog.HistoryUpdated, &amount, "Entry dated "+in.Date.String())
	return b, nil
}

// DeleteHistory removes one contribution row.
func (s *Service) DeleteHistory(ctx context.Context, id, entryID int64) (b *models.Bucket, err error) {
	ctx, span := telemetry.StartSpan(ctx, "lifexp.DeleteHistory", attribute.Int64("bucket_id", id))
	defer func() { s.finish(ctx, span, activitylog.HistoryDeleted, err) }()

	current, err := s.api.GetBucket(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %d: %w", id, err)
	}
	var removed *models.HistoryEntry
	for i := range current.History {
		if current.History[i].ID == entryID {
			removed = &current.History[i]
			break
		}
	}

	b, err = s.api.DeleteBucketHistory(ctx, id, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete history of bucket %d: %w", id, err)
	}

	var amount *decimal.Decimal
	details := ""
	if removed != nil {
		amount = &removed.Amount
		details = "Entry dated " + removed.Date.String()
	}
	s.record(ctx, b, activitylog.HistoryDeleted, amount, details)
	return b, nil
}
