package plans

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

func (s *Service) record(ctx context.Context, p *models.Plan, action activitylog.Action, amount *decimal.Decimal, details string) {
	_, err := s.log.Append(ctx, activitylog.NewEntry{
		Date:        s.Today(),
		SubjectName: p.Name,
		SubjectID:   p.ID,
		Action:      action,
		Amount:      amount,
		Details:     details,
	})
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Int64("plan_id", p.ID).
			Str("action", string(action)).
			Msg("Failed to append activity log entry")
	}
}

func scheduleDetails(p *models.Plan) string {
	f, ok := p.Recurrence()
	if !ok {
		return ""
	}
	details := fmt.Sprintf("%s premium of %s", f.Label(), p.PremiumAmount.StringFixed(2))
	if p.NextDueDate != nil {
		details += ", next due " + p.NextDueDate.String()
	}
	if p.ExpiryDate != nil {
		details += ", expires " + p.ExpiryDate.String()
	}
	return details
}
