package recurrence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCustom(t *testing.T) {
	t.Parallel()

	f, err := Custom(10)
	require.NoError(t, err)
	require.Equal(t, KindCustom, f.Kind())
	require.Equal(t, 10, f.CustomDays())

	for _, days := range []int{0, -1, -30} {
		_, err := Custom(days)
		require.ErrorIs(t, err, ErrInvalidFrequency)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		kind    string
		days    int
		want    Frequency
		wantErr bool
	}{
		{name: "monthly", kind: "monthly", want: Monthly},
		{name: "quarterly ignores days", kind: "quarterly", days: 5, want: Quarterly},
		{name: "half yearly", kind: "half_yearly", want: HalfYearly},
		{name: "yearly mixed case", kind: " Yearly ", want: Yearly},
		{name: "custom", kind: "custom", days: 14, want: Frequency{kind: KindCustom, days: 14}},
		{name: "custom without days", kind: "custom", wantErr: true},
		{name: "unknown", kind: "weekly", wantErr: true},
		{name: "empty", kind: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.kind, tt.days)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidFrequency)
				require.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseSpec(t *testing.T) {
	t.Parallel()

	f, err := ParseSpec("custom:10")
	require.NoError(t, err)
	require.Equal(t, "custom:10", f.String())

	f, err = ParseSpec("monthly")
	require.NoError(t, err)
	require.Equal(t, Monthly, f)

	_, err = ParseSpec("monthly:3")
	require.ErrorIs(t, err, ErrInvalidFrequency)

	_, err = ParseSpec("custom:abc")
	require.ErrorIs(t, err, ErrInvalidFrequency)

	_, err = ParseSpec("custom:0")
	require.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestFrequencyLabelAndBuckets(t *testing.T) {
	t.Parallel()

	weekly, err := Custom(7)
	require.NoError(t, err)
	daily, err := Custom(1)
	require.NoError(t, err)

	require.Equal(t, "Monthly", Monthly.Label())
	require.Equal(t, "Half-yearly", HalfYearly.Label())
	require.Equal(t, "Every 7 days", weekly.Label())
	require.Equal(t, "Every day", daily.Label())
	require.Equal(t, "None", Frequency{}.Label())

	require.True(t, Monthly.AllowedForBuckets())
	require.True(t, weekly.AllowedForBuckets())
	require.False(t, HalfYearly.AllowedForBuckets())
	require.False(t, Frequency{}.AllowedForBuckets())
}

func FuzzParseSpec(f *testing.F) {
	for _, seed := range []string{"monthly", "custom:10", "custom:-1", "yearly:", ":", ""} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, spec string) {
		freq, err := ParseSpec(spec)
		if err != nil {
			require.True(t, freq.IsZero())
			return
		}
		if freq.Kind() == KindCustom {
			require.Positive(t, freq.CustomDays())
		}
		again, err := ParseSpec(freq.String())
		require.NoError(t, err)
		require.Equal(t, freq, again)
	})
}
