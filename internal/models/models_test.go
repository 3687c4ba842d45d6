package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/finance-bot/internal/recurrence"
)

func TestDateJSON(t *testing.T) {
	t.Parallel()

	t.Run("encodes as calendar date", func(t *testing.T) {
		d := NewDate(time.Date(2025, 3, 9, 22, 15, 0, 0, time.UTC))
		data, err := json.Marshal(d)
		require.NoError(t, err)
		require.Equal(t, `"2025-03-09"`, string(data))
	})

	t.Run("zero encodes as null", func(t *testing.T) {
		data, err := json.Marshal(Date{})
		require.NoError(t, err)
		require.Equal(t, "null", string(data))
	})

	t.Run("decodes date and timestamp forms", func(t *testing.T) {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(`"2025-03-09"`), &d))
		require.Equal(t, "2025-03-09", d.String())

		require.NoError(t, json.Unmarshal([]byte(`"2025-03-09T23:30:00+05:30"`), &d))
		require.Equal(t, "2025-03-09", d.String())

		require.NoError(t, json.Unmarshal([]byte(`null`), &d))
		require.True(t, d.IsZero())
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		var d Date
		require.Error(t, json.Unmarshal([]byte(`"09/03/2025"`), &d))
		require.Error(t, json.Unmarshal([]byte(`20250309`), &d))
	})

	t.Run("optional dates decode to nil", func(t *testing.T) {
		var p Plan
		require.NoError(t, json.Unmarshal([]byte(`{"id":1,"name":"Term","premium_amount":"10","frequency":"yearly"}`), &p))
		require.Nil(t, p.NextDueDate)
		require.Nil(t, p.NextDueDate.TimePtr())
	})
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d.Time)

	for _, bad := range []string{"2025-02-30", "2025-2-3", "", "yesterday"} {
		_, err := ParseDate(bad)
		require.Error(t, err, bad)
	}
}

func TestBucketRecurrence(t *testing.T) {
	t.Parallel()

	b := Bucket{RecurringEnabled: true, Frequency: "custom", CustomDays: 10}
	f, ok := b.Recurrence()
	require.True(t, ok)
	require.Equal(t, "custom:10", f.String())

	b.RecurringEnabled = false
	_, ok = b.Recurrence()
	require.False(t, ok)

	b = Bucket{RecurringEnabled: true, Frequency: "custom"}
	_, ok = b.Recurrence()
	require.False(t, ok)
}

func TestBucketProgress(t *testing.T) {
	t.Parallel()

	b := Bucket{TargetAmount: decimal.NewFromInt(3000), SavedAmount: decimal.NewFromInt(1000)}
	require.Equal(t, "33.3", b.Progress().String())

	b.TargetAmount = decimal.Zero
	require.True(t, b.Progress().IsZero())
}

func TestInputsCarrySchedule(t *testing.T) {
	t.Parallel()

	next := DatePtr(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	b := Bucket{Name: "Trip", RecurringEnabled: true, Frequency: "monthly", NextContributionDate: next}
	in := b.Input()
	require.Equal(t, "Trip", in.Name)
	require.Equal(t, next, in.NextContributionDate)

	custom, err := recurrence.Custom(14)
	require.NoError(t, err)
	in.SetRecurrence(custom)
	require.Equal(t, "custom", in.Frequency)
	require.Equal(t, 14, in.CustomDays)

	p := Plan{Name: "Health", Frequency: "half_yearly"}
	f, ok := p.Recurrence()
	require.True(t, ok)
	require.Equal(t, recurrence.HalfYearly, f)

	pin := p.Input()
	pin.SetRecurrence(recurrence.Yearly)
	require.Equal(t, "yearly", pin.Frequency)
	require.Zero(t, pin.CustomDays)
}

func TestUserDisplayName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Ana", User{FirstName: "Ana", Username: "ana_k"}.DisplayName())
	require.Equal(t, "ana_k", User{Username: "ana_k"}.DisplayName())
	require.Equal(t, "there", User{}.DisplayName())
}
