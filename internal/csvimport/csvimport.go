// Package csvimport reads account balance history from CSV files with the
// columns Date,Balance,Notes.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/finance-bot/internal/models"
)

// MaxRows bounds the number of data rows read from one file.
const MaxRows = 10000

// Result holds the valid rows in file order and the line numbers of the
// rows that were skipped.
type Result struct {
	Records      []models.BalanceRecord
	SkippedLines []int
}

// Skipped returns the number of skipped rows.
func (r Result) Skipped() int { return len(r.SkippedLines) }

// ParseBalanceHistory reads Date,Balance,Notes rows. A leading header row
// is ignored. Rows with a date other than YYYY-MM-DD, an unparsable
// balance, or too few columns are skipped.
func ParseBalanceHistory(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var res Result
	line := 0
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			res.SkippedLines = append(res.SkippedLines, parseErr.StartLine)
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("failed to read CSV: %w", err)
		}

		if line == 1 && isHeader(fields) {
			continue
		}
		if len(res.Records)+len(res.SkippedLines) >= MaxRows {
			return Result{}, fmt.Errorf("CSV has more than %d rows", MaxRows)
		}

		rec, ok := parseRow(fields)
		if !ok {
			startLine, _ := reader.FieldPos(0)
			res.SkippedLines = append(res.SkippedLines, startLine)
			continue
		}
		res.Records = append(res.Records, rec)
	}

	return res, nil
}

func isHeader(fields []string) bool {
	return len(fields) > 0 && strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(fields[0], "\ufeff")), "date")
}

func parseRow(fields []string) (models.BalanceRecord, bool) {
	if len(fields) < 2 {
		return models.BalanceRecord{}, false
	}

	date, err := models.ParseDate(strings.TrimSpace(strings.TrimPrefix(fields[0], "\ufeff")))
	if err != nil {
		return models.BalanceRecord{}, false
	}

	raw := strings.ReplaceAll(strings.TrimSpace(fields[1]), ",", "")
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return models.BalanceRecord{}, false
	}

	rec := models.BalanceRecord{Date: date, Balance: balance}
	if len(fields) > 2 {
		rec.Notes = strings.TrimSpace(strings.Join(fields[2:], ","))
	}
	return rec, true
}
