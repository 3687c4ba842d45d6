package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/robfig/cron/v3"
	"gitlab.com/yelinaung/finance-bot/internal/lifexp"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
	"gitlab.com/yelinaung/finance-bot/internal/plans"
)

// ReminderTimeout is the maximum time a single reminder run can take.
const ReminderTimeout = 2 * time.Minute

// startDailyReminder schedules the due summary at the configured hour in the
// configured timezone. It returns nil when reminders are disabled.
func (b *Bot) startDailyReminder(ctx context.Context) (*cron.Cron, error) {
	if !b.cfg.DailyReminderEnabled {
		logger.Log.Info().Msg("Daily reminder is disabled")
		return nil, nil
	}

	c := cron.New(cron.WithLocation(b.loc))
	reminded := make(map[int64]string)
	var mu sync.Mutex

	spec := fmt.Sprintf("0 %d * * *", b.cfg.ReminderHour)
	_, err := c.AddFunc(spec, func() {
		mu.Lock()
		defer mu.Unlock()
		b.sendDueReminders(ctx, reminded, b.today())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule daily reminder: %w", err)
	}

	c.Start()
	logger.Log.Info().
		Int("hour", b.cfg.ReminderHour).
		Str("timezone", b.loc.String()).
		Msg("Daily reminder scheduled")
	return c, nil
}

// sendDueReminders sends each whitelisted user a summary of due buckets and
// plans. The reminded map records who has been reminded today so a rerun on
// the same day sends nothing.
func (b *Bot) sendDueReminders(ctx context.Context, reminded map[int64]string, now time.Time) {
	runCtx, cancel := context.WithTimeout(ctx, ReminderTimeout)
	defer cancel()

	todayStr := now.Format("2006-01-02")

	// Prune entries from previous days so the map doesn't grow unbounded.
	for uid, dateStr := range reminded {
		if dateStr != todayStr {
			delete(reminded, uid)
		}
	}

	buckets, err := b.lifexp.Due(runCtx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to fetch due buckets for daily reminder")
		return
	}
	duePlans, err := b.plans.Due(runCtx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to fetch due plans for daily reminder")
		return
	}
	if len(buckets) == 0 && len(duePlans) == 0 {
		logger.Log.Debug().Msg("Nothing due, skipping daily reminder")
		return
	}

	users, err := b.users.GetReminderRecipients(runCtx, b.cfg.WhitelistedUserIDs, b.cfg.WhitelistedUsernames)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to fetch users for daily reminder")
		return
	}

	summary := formatDueSummary(buckets, duePlans)
	for _, user := range users {
		if reminded[user.ID] == todayStr {
			continue
		}

		_, err := b.messageSender.SendMessage(runCtx, &tgbot.SendMessageParams{
			ChatID:    user.ID,
			Text:      fmt.Sprintf("⏰ Hey %s! Here's what needs your attention:\n\n%s", escapeHTML(user.DisplayName()), summary),
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Str("user_hash", logger.HashUserID(user.ID)).Msg("Failed to send daily reminder")
			continue
		}

		reminded[user.ID] = todayStr
		logger.Log.Debug().Str("user_hash", logger.HashUserID(user.ID)).Msg("Sent daily reminder")
	}
}

func formatDueSummary(buckets []lifexp.BucketView, duePlans []plans.PlanView) string {
	var sb strings.Builder
	if len(buckets) > 0 {
		sb.WriteString("💰 <b>Contributions</b>\n")
		for _, v := range buckets {
			fmt.Fprintf(&sb, "• #%d %s: %s %s\n", v.Bucket.ID, escapeHTML(v.Bucket.Name),
				formatMoney(v.Bucket.RecurringAmount), formatDueStatus(v.Status))
		}
	}
	if len(duePlans) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("🛡 <b>Premiums</b>\n")
		for _, v := range duePlans {
			fmt.Fprintf(&sb, "• #%d %s: %s %s\n", v.Plan.ID, escapeHTML(v.Plan.Name),
				formatMoney(v.Plan.PremiumAmount), formatDueStatus(v.Status))
		}
	}
	sb.WriteString("\nUse /buckets or /plans to mark them done.")
	return sb.String()
}
