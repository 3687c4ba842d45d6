package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/plans"
	"gitlab.com/yelinaung/finance-bot/internal/recurrence"
)

const callbackPlanPaid = "plan_paid_"

func formatPlan(v plans.PlanView) string {
	p := v.Plan
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>#%d %s</b>", p.ID, escapeHTML(p.Name))
	if p.Provider != "" {
		fmt.Fprintf(&sb, " · %s", escapeHTML(p.Provider))
	}

	if v.Expired {
		fmt.Fprintf(&sb, "\n   ⛔ Expired %s, dismiss with /ack %d", p.ExpiryDate, p.ID)
		return sb.String()
	}

	if !v.Frequency.IsZero() {
		fmt.Fprintf(&sb, "\n   %s premium %s (%s/yr)", v.Frequency.Label(), formatMoney(p.PremiumAmount), formatMoney(v.AnnualPremium))
	}
	if p.NextDueDate != nil {
		fmt.Fprintf(&sb, "\n   Next due %s", p.NextDueDate)
		if s := formatDueStatus(v.Status); s != "" {
			sb.WriteString(" " + s)
		}
	}
	if p.ExpiryDate != nil {
		fmt.Fprintf(&sb, "\n   Expires %s", p.ExpiryDate)
		if v.FinalPayment {
			fmt.Fprintf(&sb, " · final premium, record it with /premium %d", p.ID)
		}
	}
	return sb.String()
}

func planKeyboard(views []plans.PlanView) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, v := range views {
		if !v.CanMarkPaid {
			continue
		}
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         fmt.Sprintf("💳 Paid: %s", v.Plan.Name),
			CallbackData: callbackPlanPaid + strconv.FormatInt(v.Plan.ID, 10),
		}})
	}
	if len(rows) == 0 {
		return nil
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// handlePlans handles the /plans command.
func (b *Bot) handlePlans(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handlePlansCore(ctx, tgBot, update)
}

// handlePlansCore is the testable implementation of handlePlans.
func (b *Bot) handlePlansCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	overview, err := b.plans.Overview(ctx)
	if err != nil {
		replyError(ctx, tg, chatID, "plans", err)
		return
	}
	if len(overview.Plans) == 0 {
		reply(ctx, tg, chatID, "No plans yet. Create one with /newplan.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🛡 <b>Insurance Plans</b>\n")
	fmt.Fprintf(&sb, "Annual premium: %s\n", formatMoney(overview.AnnualPremium))

	hidden := 0
	for _, v := range overview.Plans {
		if v.Acknowledged {
			hidden++
			continue
		}
		sb.WriteString("\n" + formatPlan(v) + "\n")
	}
	if hidden > 0 {
		fmt.Fprintf(&sb, "\n<i>%d acknowledged expired plan(s) hidden.</i>\n", hidden)
	}

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      sb.String(),
		ParseMode: models.ParseModeHTML,
	}
	if kb := planKeyboard(overview.Plans); kb != nil {
		params.ReplyMarkup = kb
	}
	if _, err := tg.SendMessage(ctx, params); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send /plans response")
	}
}

const newPlanUsage = `Usage:
<code>/newplan name | premium | frequency | next due [| expiry]</code>

Example: <code>/newplan Health Cover | 1200 | yearly | 2025-09-01 | 2030-08-31</code>`

// parseNewPlan reads the pipe-separated /newplan arguments.
func parseNewPlan(args string) (appmodels.PlanInput, error) {
	fields := splitFields(args)
	if len(fields) != 4 && len(fields) != 5 {
		return appmodels.PlanInput{}, fmt.Errorf("expected 4 or 5 fields, got %d", len(fields))
	}

	premium, err := parseAmount(fields[1])
	if err != nil {
		return appmodels.PlanInput{}, err
	}
	freq, err := recurrence.ParseSpec(fields[2])
	if err != nil {
		return appmodels.PlanInput{}, err
	}
	next, err := appmodels.ParseDate(fields[3])
	if err != nil {
		return appmodels.PlanInput{}, err
	}

	in := appmodels.PlanInput{Name: fields[0], PremiumAmount: premium, NextDueDate: &next}
	in.SetRecurrence(freq)
	if len(fields) == 5 && fields[4] != "" {
		expiry, err := appmodels.ParseDate(fields[4])
		if err != nil {
			return appmodels.PlanInput{}, err
		}
		in.ExpiryDate = &expiry
	}
	return in, nil
}

// handleNewPlan handles the /newplan command.
func (b *Bot) handleNewPlan(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleNewPlanCore(ctx, tgBot, update)
}

// handleNewPlanCore is the testable implementation of handleNewPlan.
func (b *Bot) handleNewPlanCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	in, err := parseNewPlan(extractCommandArgs(update.Message.Text, "/newplan"))
	if err != nil {
		reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error())+"\n\n"+newPlanUsage)
		return
	}

	created, err := b.plans.Create(ctx, in)
	if err != nil {
		replyError(ctx, tg, chatID, "newplan", err)
		return
	}

	reply(ctx, tg, chatID, fmt.Sprintf("✅ Created plan <b>#%d %s</b>, next premium due %s.",
		created.ID, escapeHTML(created.Name), created.NextDueDate))
}

func (b *Bot) markPlanPaid(ctx context.Context, id int64) (string, error) {
	updated, err := b.plans.MarkPaid(ctx, id)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Premium of %s for <b>%s</b> recorded. Next one is due %s.",
		formatMoney(updated.PremiumAmount), escapeHTML(updated.Name), updated.NextDueDate), nil
}

// handlePaid handles the /paid command.
func (b *Bot) handlePaid(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handlePaidCore(ctx, tgBot, update)
}

// handlePaidCore is the testable implementation of handlePaid.
func (b *Bot) handlePaidCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	id, ok := idArg(ctx, tg, update, "/paid")
	if !ok {
		return
	}

	text, err := b.markPlanPaid(ctx, id)
	if err != nil {
		replyError(ctx, tg, update.Message.Chat.ID, "paid", err)
		return
	}
	reply(ctx, tg, update.Message.Chat.ID, text)
}

// handlePlanPaidCallback handles the inline "Paid" button under /plans.
func (b *Bot) handlePlanPaidCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handlePlanPaidCallbackCore(ctx, tgBot, update)
}

// handlePlanPaidCallbackCore is the testable implementation of handlePlanPaidCallback.
func (b *Bot) handlePlanPaidCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return
	}
	msg := update.CallbackQuery.Message.Message

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})

	id, err := parseID(strings.TrimPrefix(update.CallbackQuery.Data, callbackPlanPaid))
	if err != nil {
		logger.Log.Error().Str("data", update.CallbackQuery.Data).Msg("Invalid callback data format")
		return
	}

	text, err := b.markPlanPaid(ctx, id)
	if err != nil {
		logger.Log.Error().Err(err).Int64("plan_id", id).Msg("Failed to mark premium paid")
		text = escapeHTML(userMessage(err))
	}

	_, err = tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to edit plan message")
	}
}

// handlePremium handles the /premium command, which records a payment
// without moving the due date.
func (b *Bot) handlePremium(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handlePremiumCore(ctx, tgBot, update)
}

// handlePremiumCore is the testable implementation of handlePremium.
func (b *Bot) handlePremiumCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	fields := strings.Fields(extractCommandArgs(update.Message.Text, "/premium"))
	if len(fields) < 1 || len(fields) > 3 {
		reply(ctx, tg, chatID, "Usage: <code>/premium &lt;id&gt; [amount] [YYYY-MM-DD]</code>")
		return
	}
	id, err := parseID(fields[0])
	if err != nil {
		reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}

	in := appmodels.HistoryInput{Date: appmodels.NewDate(b.today())}
	if len(fields) >= 2 {
		if in.Amount, err = parseAmount(fields[1]); err != nil {
			reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
			return
		}
	} else {
		current, err := b.plans.Get(ctx, id)
		if err != nil {
			replyError(ctx, tg, chatID, "premium", err)
			return
		}
		in.Amount = current.PremiumAmount
	}
	if len(fields) == 3 {
		if in.Date, err = appmodels.ParseDate(fields[2]); err != nil {
			reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
			return
		}
	}

	updated, err := b.plans.AddHistory(ctx, id, in)
	if err != nil {
		replyError(ctx, tg, chatID, "premium", err)
		return
	}
	reply(ctx, tg, chatID, fmt.Sprintf("✅ Payment of %s on %s recorded for <b>%s</b>.",
		formatMoney(in.Amount), in.Date, escapeHTML(updated.Name)))
}

// handleAck handles the /ack command.
func (b *Bot) handleAck(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleAckCore(ctx, tgBot, update)
}

// handleAckCore is the testable implementation of handleAck.
func (b *Bot) handleAckCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	id, ok := idArg(ctx, tg, update, "/ack")
	if !ok {
		return
	}

	added, err := b.plans.AcknowledgeExpired(ctx, id)
	if err != nil {
		replyError(ctx, tg, update.Message.Chat.ID, "ack", err)
		return
	}
	if !added {
		reply(ctx, tg, update.Message.Chat.ID, fmt.Sprintf("ℹ️ Plan #%d was already dismissed.", id))
		return
	}
	reply(ctx, tg, update.Message.Chat.ID, fmt.Sprintf("👍 Plan #%d dismissed.", id))
}

// handleDeletePlan handles the /deleteplan command.
func (b *Bot) handleDeletePlan(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeletePlanCore(ctx, tgBot, update)
}

// handleDeletePlanCore is the testable implementation of handleDeletePlan.
func (b *Bot) handleDeletePlanCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	id, ok := idArg(ctx, tg, update, "/deleteplan")
	if !ok {
		return
	}

	if err := b.plans.Delete(ctx, id); err != nil {
		replyError(ctx, tg, update.Message.Chat.ID, "deleteplan", err)
		return
	}
	reply(ctx, tg, update.Message.Chat.ID, fmt.Sprintf("🗑 Plan #%d deleted.", id))
}
