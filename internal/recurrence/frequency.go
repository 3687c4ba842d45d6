// Package recurrence computes schedules for recurring obligations: next
// occurrence dates, due/overdue classification, and annualized amounts.
package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFrequency is returned when a frequency cannot be constructed.
var ErrInvalidFrequency = errors.New("invalid frequency")

// Kind identifies a frequency variant. Its string value is the wire form.
type Kind string

// Frequency kinds.
const (
	KindMonthly    Kind = "monthly"
	KindQuarterly  Kind = "quarterly"
	KindHalfYearly Kind = "half_yearly"
	KindYearly     Kind = "yearly"
	KindCustom     Kind = "custom"
)

// Frequency is a recurrence period. A custom frequency always carries a
// positive day count; the other variants carry none. The zero value is not a
// valid frequency.
type Frequency struct {
	kind Kind
	days int
}

// Fixed-period frequencies.
var (
	Monthly    = Frequency{kind: KindMonthly}
	Quarterly  = Frequency{kind: KindQuarterly}
	HalfYearly = Frequency{kind: KindHalfYearly}
	Yearly     = Frequency{kind: KindYearly}
)

// Custom returns a frequency of the given number of days.
func Custom(days int) (Frequency, error) {
	if days <= 0 {
		return Frequency{}, fmt.Errorf("%w: custom frequency needs a positive day count, got %d", ErrInvalidFrequency, days)
	}
	return Frequency{kind: KindCustom, days: days}, nil
}

// Parse builds a Frequency from its wire form: a kind name and, for custom
// frequencies, a day count. customDays is ignored for the other kinds.
func Parse(kind string, customDays int) (Frequency, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case KindMonthly:
		return Monthly, nil
	case KindQuarterly:
		return Quarterly, nil
	case KindHalfYearly:
		return HalfYearly, nil
	case KindYearly:
		return Yearly, nil
	case KindCustom:
		return Custom(customDays)
	default:
		return Frequency{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidFrequency, kind)
	}
}

// ParseSpec parses the compact form used in chat commands, e.g. "monthly"
// or "custom:10".
func ParseSpec(spec string) (Frequency, error) {
	kind, days, found := strings.Cut(strings.TrimSpace(spec), ":")
	if !found {
		return Parse(kind, 0)
	}
	if Kind(strings.ToLower(kind)) != KindCustom {
		return Frequency{}, fmt.Errorf("%w: only custom frequencies take a day count", ErrInvalidFrequency)
	}
	n, err := strconv.Atoi(strings.TrimSpace(days))
	if err != nil {
		return Frequency{}, fmt.Errorf("%w: bad day count %q", ErrInvalidFrequency, days)
	}
	return Custom(n)
}

// Kind returns the frequency variant.
func (f Frequency) Kind() Kind { return f.kind }

// CustomDays returns the day count of a custom frequency, or 0.
func (f Frequency) CustomDays() int { return f.days }

// IsZero reports whether f is the invalid zero value.
func (f Frequency) IsZero() bool { return f.kind == "" }

// AllowedForBuckets reports whether savings buckets may use f.
// Half-yearly schedules exist only for insurance plans.
func (f Frequency) AllowedForBuckets() bool {
	return !f.IsZero() && f.kind != KindHalfYearly
}

// String returns the compact form accepted by ParseSpec.
func (f Frequency) String() string {
	if f.kind == KindCustom {
		return fmt.Sprintf("custom:%d", f.days)
	}
	return string(f.kind)
}

// Label returns a human readable description such as "Every 10 days".
func (f Frequency) Label() string {
	switch f.kind {
	case KindMonthly:
		return "Monthly"
	case KindQuarterly:
		return "Quarterly"
	case KindHalfYearly:
		return "Half-yearly"
	case KindYearly:
		return "Yearly"
	case KindCustom:
		if f.days == 1 {
			return "Every day"
		}
		return fmt.Sprintf("Every %d days", f.days)
	default:
		return "None"
	}
}
