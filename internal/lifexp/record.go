package lifexp

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/finance-bot/internal/activitylog"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
	"gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
)

func (s *Service) finish(ctx context.Context, span trace.Span, action activitylog.Action, err error) {
	telemetry.EndSpan(span, err)
	s.actions.Record(ctx, string(action), err)
}

// record appends to the activity log after a confirmed mutation. A failed
// append is logged and does not undo the mutation.
func (s *Service) record(ctx context.Context, b *models.Bucket, action activitylog.Action, amount *decimal.Decimal, details string) {
	_, err := s.log.Append(ctx, activitylog.NewEntry{
		Date:        s.Today(),
		SubjectName: b.Name,
		SubjectID:   b.ID,
		Action:      action,
		Amount:      amount,
		Details:     details,
	})
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Int64("bucket_id", b.ID).
			Str("action", string(action)).
			Msg("Failed to append activity log entry")
	}
}

func scheduleDetails(b *models.Bucket) string {
	f, ok := b.Recurrence()
	if !ok {
		return "One-off savings"
	}
	details := fmt.Sprintf("%s contribution of %s", f.Label(), b.RecurringAmount.StringFixed(2))
	if b.NextContributionDate != nil {
		details += ", next on " + b.NextContributionDate.String()
	}
	return details
}
