package recurrence

import (
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// State is the due-status band of an obligation.
type State int

// Due states.
const (
	StateNone State = iota
	StateDueSoon
	StateOverdue
)

func (s State) String() string {
	switch s {
	case StateDueSoon:
		return "due_soon"
	case StateOverdue:
		return "overdue"
	default:
		return "none"
	}
}

// DueStatus is derived on every read and never stored. Days holds the days
// remaining for StateDueSoon and the days late for StateOverdue.
type DueStatus struct {
	State State
	Days  int
}

// IsDue reports whether the obligation is due soon or overdue.
func (s DueStatus) IsDue() bool { return s.State != StateNone }

// Date returns midnight UTC of t's calendar date, read in t's own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextOccurrence advances anchor by one period of f. Month arithmetic clamps
// to the last day of the target month, so Jan 31 + 1 month is the last day of
// February and Feb 29 + 1 year is Feb 28. A zero frequency returns the
// anchor's date unchanged.
func NextOccurrence(anchor time.Time, f Frequency) time.Time {
	base := Date(anchor)
	switch f.kind {
	case KindMonthly:
		return addMonths(base, 1)
	case KindQuarterly:
		return addMonths(base, 3)
	case KindHalfYearly:
		return addMonths(base, 6)
	case KindYearly:
		return addMonths(base, 12)
	case KindCustom:
		return base.AddDate(0, 0, f.days)
	default:
		return base
	}
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the number of calendar days from today to target. Both
// dates are truncated to midnight first, so today yields 0 and tomorrow 1.
// The boolean is false when target is absent.
func DaysUntil(target *time.Time, today time.Time) (int, bool) {
	if target == nil {
		return 0, false
	}
	diff := Date(*target).Sub(Date(today))
	return int(diff / day), true
}

// IsExpired reports whether expiry is present and strictly before today.
func IsExpired(expiry *time.Time, today time.Time) bool {
	if expiry == nil {
		return false
	}
	return Date(*expiry).Before(Date(today))
}

// Classify derives the due status of an obligation. An expired obligation is
// never due. An obligation without an anchor is never due. Otherwise a past
// anchor is overdue and an anchor within threshold days is due soon.
func Classify(anchor, expiry *time.Time, today time.Time, threshold int) DueStatus {
	if IsExpired(expiry, today) {
		return DueStatus{State: StateNone}
	}
	d, ok := DaysUntil(anchor, today)
	if !ok {
		return DueStatus{State: StateNone}
	}
	switch {
	case d < 0:
		return DueStatus{State: StateOverdue, Days: -d}
	case d <= threshold:
		return DueStatus{State: StateDueSoon, Days: d}
	default:
		return DueStatus{State: StateNone}
	}
}

// IsFinalPayment reports whether the occurrence at anchor is the last one
// before expiry, that is the following occurrence would fall after it.
func IsFinalPayment(anchor time.Time, f Frequency, expiry *time.Time) bool {
	if expiry == nil || f.IsZero() {
		return false
	}
	return NextOccurrence(anchor, f).After(Date(*expiry))
}

var (
	twelve = decimal.NewFromInt(12)
	four   = decimal.NewFromInt(4)
	two    = decimal.NewFromInt(2)
	year   = decimal.NewFromInt(365)
)

// Annualize converts a periodic amount into its yearly equivalent.
// A custom(n) frequency yields amount * 365 / n.
func Annualize(amount decimal.Decimal, f Frequency) decimal.Decimal {
	switch f.kind {
	case KindMonthly:
		return amount.Mul(twelve)
	case KindQuarterly:
		return amount.Mul(four)
	case KindHalfYearly:
		return amount.Mul(two)
	case KindYearly:
		return amount
	case KindCustom:
		return amount.Mul(year).Div(decimal.NewFromInt(int64(f.days)))
	default:
		return decimal.Zero
	}
}
