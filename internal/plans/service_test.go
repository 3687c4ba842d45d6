package plans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/finance-bot/internal/activitylog"
	"gitlab.com/yelinaung/finance-bot/internal/backend/backendtest"
	"gitlab.com/yelinaung/finance-bot/internal/localstate"
	"gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/recurrence"
	"gitlab.com/yelinaung/finance-bot/internal/storage"
)

var now = time.Date(2025, 7, 10, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *backendtest.Fake) {
	t.Helper()
	fake := backendtest.New()
	store := storage.NewMemory()
	clock := func() time.Time { return now }
	log := activitylog.New(activitylog.Plans, store,
		activitylog.WithClock(clock), activitylog.WithLocation(time.UTC))
	svc := NewService(fake, log, localstate.NewExpiredAcks(store),
		WithClock(clock), WithLocation(time.UTC))
	return svc, fake
}

func day(n int) *models.Date {
	return models.DatePtr(now.AddDate(0, 0, n))
}

func entries(t *testing.T, s *Service) []activitylog.Entry {
	t.Helper()
	e, err := s.Log().Entries(context.Background())
	require.NoError(t, err)
	return e
}

func plan(id int64, freq string, next, expiry *models.Date) models.Plan {
	return models.Plan{
		ID:            id,
		Name:          "Health Cover",
		Provider:      "Acme Insurance",
		PremiumAmount: decimal.NewFromInt(1000),
		CoverAmount:   decimal.NewFromInt(500000),
		Frequency:     freq,
		NextDueDate:   next,
		ExpiryDate:    expiry,
	}
}

func TestOverview(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, fake := setup(t)

	fake.PutPlan(plan(1, "monthly", day(12), nil))
	fake.PutPlan(plan(2, "yearly", day(-2), day(365)))
	fake.PutPlan(plan(3, "quarterly", day(-40), day(-5)))
	fake.PutPlan(plan(4, "half_yearly", day(60), nil))
	fake.PutPlan(plan(5, "monthly", day(3), day(20)))

	o, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Len(t, o.Plans, 5)

	require.Equal(t, recurrence.DueStatus{State: recurrence.StateDueSoon, Days: 12}, o.Plans[0].Status)
	require.True(t, o.Plans[0].CanMarkPaid)

	require.Equal(t, recurrence.DueStatus{State: recurrence.StateOverdue, Days: 2}, o.Plans[1].Status)
	require.True(t, o.Plans[1].CanMarkPaid)

	require.True(t, o.Plans[2].Expired)
	require.False(t, o.Plans[2].Status.IsDue(), "expired plans are never due")
	require.False(t, o.Plans[2].CanMarkPaid)
	require.False(t, o.Plans[2].Acknowledged)

	require.False(t, o.Plans[3].Status.IsDue())

	require.True(t, o.Plans[4].FinalPayment)
	require.True(t, o.Plans[4].Status.IsDue())
	require.False(t, o.Plans[4].CanMarkPaid)

	// 12000 + 1000 + 2000 + 12000; the expired quarterly plan is excluded.
	require.Equal(t, "27000", o.AnnualPremium.String())
	require.Equal(t, 1, o.ExpiredUnacknowledged)

	due, err := svc.Due(ctx)
	require.NoError(t, err)
	require.Len(t, due, 3)
}

func TestCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, fake := setup(t)

	in := models.PlanInput{
		Name:          "Term Life",
		PremiumAmount: decimal.NewFromInt(2400),
		Frequency:     "half_yearly",
		NextDueDate:   day(30),
		ExpiryDate:    day(3650),
	}
	p, err := svc.Create(ctx, in)
	require.NoError(t, err)
	require.Equal(t, "Term Life", p.Name)

	log := entries(t, svc)
	require.Len(t, log, 1)
	require.Equal(t, activitylog.PlanCreated, log[0].Action)
	require.Equal(t, "Half-yearly premium of 2400.00, next due 2025-08-09, expires 2035-07-08", log[0].Details)

	bad := []models.PlanInput{
		{Name: "", PremiumAmount: decimal.NewFromInt(1), Frequency: "monthly"},
		{Name: "x", Frequency: "monthly"},
		{Name: "x", PremiumAmount: decimal.NewFromInt(1), Frequency: "weekly"},
		{Name: "x", PremiumAmount: decimal.NewFromInt(1), Frequency: "custom"},
		{Name: "x", PremiumAmount: decimal.NewFromInt(1), Frequency: "monthly", NextDueDate: day(10), ExpiryDate: day(5)},
	}
	for _, in := range bad {
		_, err := svc.Create(ctx, in)
		require.ErrorIs(t, err, ErrInvalidPlan)
	}
	require.Equal(t, []string{"CreatePlan"}, fake.Calls)
}

func TestMarkPaid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("advances due date", func(t *testing.T) {
		svc, fake := setup(t)
		fake.PutPlan(plan(1, "monthly", models.DatePtr(time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)), nil))

		p, err := svc.MarkPaid(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, "2025-06-30", p.NextDueDate.String())
		require.Len(t, p.History, 1)
		require.Equal(t, "2025-07-10", p.History[0].Date.String())

		log := entries(t, svc)
		require.Len(t, log, 1)
		require.Equal(t, activitylog.PremiumPaid, log[0].Action)
		require.True(t, decimal.NewFromInt(1000).Equal(*log[0].Amount))
		require.Equal(t, "Next due: 2025-06-30", log[0].Details)
	})

	t.Run("custom frequency", func(t *testing.T) {
		svc, fake := setup(t)
		p := plan(1, "custom", day(5), nil)
		p.CustomDays = 10
		fake.PutPlan(p)

		got, err := svc.MarkPaid(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, "2025-07-25", got.NextDueDate.String())
	})

	tests := []struct {
		name string
		plan models.Plan
		want error
	}{
		{"expired", plan(1, "monthly", day(-10), day(-1)), ErrExpired},
		{"final payment", plan(1, "yearly", day(5), day(100)), ErrFinalPayment},
		{"not due", plan(1, "monthly", day(40), nil), ErrNotDue},
		{"no due date", plan(1, "monthly", nil, nil), ErrNoDueDate},
		{"bad frequency", plan(1, "weekly", day(1), nil), ErrNoDueDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, fake := setup(t)
			fake.PutPlan(tt.plan)

			_, err := svc.MarkPaid(ctx, 1)
			require.ErrorIs(t, err, tt.want)
			require.NotContains(t, fake.Calls, "PayPremium")
			require.Empty(t, entries(t, svc))
		})
	}
}

func TestFinalPaymentRecordedAsHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, fake := setup(t)
	fake.PutPlan(plan(1, "yearly", day(5), day(100)))

	p, err := svc.AddHistory(ctx, 1, models.HistoryInput{Amount: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	require.Len(t, p.History, 1)
	require.Equal(t, "2025-07-15", p.NextDueDate.String(), "history rows keep the due date")

	log := entries(t, svc)
	require.Len(t, log, 1)
	require.Equal(t, activitylog.HistoryAdded, log[0].Action)
	require.Equal(t, "Entry dated 2025-07-10", log[0].Details)

	_, err = svc.AddHistory(ctx, 1, models.HistoryInput{})
	require.ErrorIs(t, err, ErrInvalidPlan)
}

func TestAcknowledgeExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, fake := setup(t)
	fake.PutPlan(plan(1, "monthly", day(-40), day(-3)))
	fake.PutPlan(plan(2, "monthly", day(5), nil))

	added, err := svc.AcknowledgeExpired(ctx, 1)
	require.NoError(t, err)
	require.True(t, added)

	added, err = svc.AcknowledgeExpired(ctx, 1)
	require.NoError(t, err)
	require.False(t, added)

	_, err = svc.AcknowledgeExpired(ctx, 2)
	require.ErrorIs(t, err, ErrNotExpired)

	log := entries(t, svc)
	require.Len(t, log, 1)
	require.Equal(t, activitylog.PlanExpiredAck, log[0].Action)
	require.Equal(t, "Expired on 2025-07-07", log[0].Details)

	o, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.True(t, o.Plans[0].Acknowledged)
	require.Equal(t, 0, o.ExpiredUnacknowledged)
}

func TestFailedMutationAppendsNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, fake := setup(t)
	fake.PutPlan(plan(1, "monthly", day(1), nil))
	fake.Err = errors.New("backend down")

	_, err := svc.MarkPaid(ctx, 1)
	require.Error(t, err)
	require.Error(t, svc.Delete(ctx, 1))
	p := plan(1, "monthly", day(1), nil)
	_, err = svc.Update(ctx, 1, p.Input())
	require.Error(t, err)
	_, err = svc.Overview(ctx)
	require.Error(t, err)

	require.Empty(t, entries(t, svc))
}

func TestUpdateDeleteAndHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, fake := setup(t)
	fake.PutPlan(plan(1, "monthly", day(1), nil))

	p, err := svc.MarkPaid(ctx, 1)
	require.NoError(t, err)
	entryID := p.History[0].ID

	_, err = svc.UpdateHistory(ctx, 1, entryID, models.HistoryInput{
		Date:   models.NewDate(time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC)),
		Amount: decimal.NewFromInt(990),
	})
	require.NoError(t, err)

	p, err = svc.DeleteHistory(ctx, 1, entryID)
	require.NoError(t, err)
	require.Empty(t, p.History)

	current, err := fake.GetPlan(ctx, 1)
	require.NoError(t, err)
	in := current.Input()
	in.Name = "Family Health Cover"
	_, err = svc.Update(ctx, 1, in)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1))

	log := entries(t, svc)
	require.Len(t, log, 5)
	require.Equal(t, activitylog.PlanDeleted, log[0].Action)
	require.Equal(t, "Family Health Cover", log[0].SubjectName)
	require.Equal(t, activitylog.PlanUpdated, log[1].Action)
	require.Equal(t, activitylog.HistoryDeleted, log[2].Action)
	require.True(t, decimal.NewFromInt(990).Equal(*log[2].Amount))
	require.Equal(t, "Entry dated 2025-07-09", log[2].Details)
	require.Equal(t, activitylog.HistoryUpdated, log[3].Action)
	require.Equal(t, activitylog.PremiumPaid, log[4].Action)
}
