package activitylog

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// CSVMIMEType is the content type of exported logs.
const CSVMIMEType = "text/csv"

const timeLayout = "3:04:05 PM"

var csvHeader = []string{"Date", "Time", "Subject", "Action", "Amount", "Details"}

// ExportCSV renders entries with every field quoted. The Time column is the
// entry timestamp in the log's location. Amount is blank when absent or zero.
func (l *Log) ExportCSV(entries []Entry) []byte {
	var buf bytes.Buffer
	writeRow(&buf, csvHeader)

	for i := range entries {
		e := &entries[i]
		amount := ""
		if e.Amount != nil && !e.Amount.IsZero() {
			amount = e.Amount.String()
		}
		writeRow(&buf, []string{
			e.Date,
			e.Timestamp.In(l.loc).Format(timeLayout),
			e.SubjectName,
			l.Label(e.Action),
			amount,
			e.Details,
		})
	}

	return buf.Bytes()
}

func writeRow(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// Export is a rendered log file ready to upload.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export renders entries as the CSV file for the given day.
func (l *Log) Export(entries []Entry, today time.Time) Export {
	return Export{
		Filename:    l.ExportFilename(today),
		ContentType: CSVMIMEType,
		Data:        l.ExportCSV(entries),
	}
}

// ExportFilename names the export file for the given day.
func (l *Log) ExportFilename(today time.Time) string {
	return fmt.Sprintf("%s_activity_log_%s.csv", l.domain.Name, today.In(l.loc).Format(dateLayout))
}
