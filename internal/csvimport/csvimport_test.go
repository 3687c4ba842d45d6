package csvimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBalanceHistory(t *testing.T) {
	t.Parallel()

	t.Run("reads rows with header", func(t *testing.T) {
		input := "Date,Balance,Notes\n" +
			"2025-01-31,1500.25,January close\n" +
			"2025-02-28,\"1,720.00\",\"bonus, partial\"\n" +
			"2025-03-31,1800\n"

		res, err := ParseBalanceHistory(strings.NewReader(input))
		require.NoError(t, err)
		require.Zero(t, res.Skipped())
		require.Len(t, res.Records, 3)

		require.Equal(t, "2025-01-31", res.Records[0].Date.String())
		require.Equal(t, "1500.25", res.Records[0].Balance.String())
		require.Equal(t, "January close", res.Records[0].Notes)
		require.Equal(t, "1720", res.Records[1].Balance.String())
		require.Equal(t, "bonus, partial", res.Records[1].Notes)
		require.Empty(t, res.Records[2].Notes)
	})

	t.Run("reads rows without header", func(t *testing.T) {
		res, err := ParseBalanceHistory(strings.NewReader("2025-01-31,10,\n"))
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
	})

	t.Run("skips malformed rows and keeps valid ones", func(t *testing.T) {
		input := "date,balance,notes\n" +
			"31/01/2025,100,wrong date format\n" +
			"2025-02-30,100,impossible date\n" +
			"2025-03-01,abc,bad balance\n" +
			"2025-03-02\n" +
			"2025-03-03,300,ok\n"

		res, err := ParseBalanceHistory(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
		require.Equal(t, "2025-03-03", res.Records[0].Date.String())
		require.Equal(t, 4, res.Skipped())
		require.Equal(t, []int{2, 3, 4, 5}, res.SkippedLines)
	})

	t.Run("handles byte order mark", func(t *testing.T) {
		res, err := ParseBalanceHistory(strings.NewReader("\ufeffDate,Balance,Notes\n2025-01-01,5,\n"))
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
		require.Zero(t, res.Skipped())
	})

	t.Run("empty input", func(t *testing.T) {
		res, err := ParseBalanceHistory(strings.NewReader(""))
		require.NoError(t, err)
		require.Empty(t, res.Records)
		require.Zero(t, res.Skipped())
	})
}

func FuzzParseBalanceHistory(f *testing.F) {
	f.Add("Date,Balance,Notes\n2025-01-01,10,x\n")
	f.Add("2025-01-01,\"1,0\n")
	f.Add("\"\n,,,\n")
	f.Fuzz(func(t *testing.T, input string) {
		res, err := ParseBalanceHistory(strings.NewReader(input))
		if err != nil {
			return
		}
		for _, rec := range res.Records {
			require.False(t, rec.Date.IsZero())
		}
	})
}
