package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/finance-bot/internal/backend"
	"gitlab.com/yelinaung/finance-bot/internal/lifexp"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
	"gitlab.com/yelinaung/finance-bot/internal/plans"
	"gitlab.com/yelinaung/finance-bot/internal/recurrence"
)

// extractCommandArgs strips the /command prefix (and optional @botname suffix)
// from a message and returns the remaining trimmed arguments.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.Index(args, " "); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

// commandName returns the leading /command of text without any @botname.
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return name
}

// escapeHTML escapes characters that Telegram's HTML parse mode reserves.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatDueStatus(s recurrence.DueStatus) string {
	switch s.State {
	case recurrence.StateOverdue:
		if s.Days == 1 {
			return "🔴 overdue by 1 day"
		}
		return fmt.Sprintf("🔴 overdue by %d days", s.Days)
	case recurrence.StateDueSoon:
		switch s.Days {
		case 0:
			return "🟡 due today"
		case 1:
			return "🟡 due tomorrow"
		default:
			return fmt.Sprintf("🟡 due in %d days", s.Days)
		}
	default:
		return ""
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// splitFields splits pipe-separated command arguments.
func splitFields(args string) []string {
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// userMessage turns a service error into a reply.
func userMessage(err error) string {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return "❌ Not found. Check the ID and try again."
	case errors.Is(err, lifexp.ErrInvalidBucket), errors.Is(err, plans.ErrInvalidPlan):
		return "❌ " + err.Error()
	case errors.Is(err, lifexp.ErrNotRecurring):
		return "❌ This bucket has no recurring contribution."
	case errors.Is(err, lifexp.ErrNotDue):
		return "ℹ️ This contribution isn't due yet."
	case errors.Is(err, lifexp.ErrStatusUnchanged):
		return "ℹ️ Nothing to change."
	case errors.Is(err, plans.ErrExpired):
		return "❌ This plan has expired. Use /ack to dismiss it."
	case errors.Is(err, plans.ErrFinalPayment):
		return "ℹ️ This is the final premium before expiry. Record it with /premium instead."
	case errors.Is(err, plans.ErrNotDue):
		return "ℹ️ This premium isn't due yet."
	case errors.Is(err, plans.ErrNoDueDate):
		return "❌ This plan has no due date."
	case errors.Is(err, plans.ErrNotExpired):
		return "ℹ️ This plan hasn't expired."
	case errors.As(err, &apiErr):
		return "❌ The finance service rejected the request. Please try again."
	default:
		return "❌ Something went wrong. Please try again."
	}
}

// reply sends an HTML message to chatID.
func reply(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send message")
	}
}

// replyError logs err and sends its user-facing form.
func replyError(ctx context.Context, tg TelegramAPI, chatID int64, op string, err error) {
	logger.Log.Error().Err(err).Str("op", op).Msg("Command failed")
	reply(ctx, tg, chatID, escapeHTML(userMessage(err)))
}

// handleStart handles the /start command.
func (b *Bot) handleStart(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleStartCore(ctx, tgBot, update)
}

// handleStartCore is the testable implementation of handleStart.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	firstName := ""
	if update.Message.From != nil {
		firstName = update.Message.From.FirstName
	}

	text := fmt.Sprintf(`👋 Welcome%s!

I keep track of your savings goals and insurance premiums, and remind you when something is due.

<b>Quick Start:</b>
• /buckets to see your Life XP savings buckets
• /plans to see your insurance plans
• Upload a balance history CSV with the caption <code>/import &lt;account id&gt;</code>

Use /help to see all available commands.`,
		formatGreeting(firstName))

	logger.Log.Debug().Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).Msg("Sending /start response")
	reply(ctx, tg, update.Message.Chat.ID, text)
}

// handleHelp handles the /help command.
func (b *Bot) handleHelp(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleHelpCore(ctx, tgBot, update)
}

// handleHelpCore is the testable implementation of handleHelp.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := `📚 <b>Available Commands</b>

<b>Life XP buckets:</b>
• <code>/buckets</code> - Show buckets and due contributions
• <code>/newbucket name | target [| amount | frequency | next date]</code> - Create a bucket
• <code>/contribute &lt;id&gt; &lt;amount&gt; [note]</code> - Add money to a bucket
• <code>/done &lt;id&gt;</code> - Mark the scheduled contribution done
• <code>/achieve &lt;id&gt;</code>, <code>/reactivate &lt;id&gt;</code> - Change bucket status
• <code>/deletebucket &lt;id&gt;</code> - Delete a bucket

<b>Insurance plans:</b>
• <code>/plans</code> - Show plans, due premiums and expiries
• <code>/newplan name | premium | frequency | next due [| expiry]</code> - Create a plan
• <code>/paid &lt;id&gt;</code> - Mark the due premium paid
• <code>/premium &lt;id&gt; [amount] [date]</code> - Record a payment without moving the due date
• <code>/ack &lt;id&gt;</code> - Dismiss an expired plan
• <code>/deleteplan &lt;id&gt;</code> - Delete a plan

<b>Accounts:</b>
• <code>/accounts</code> - List accounts
• Send a CSV with caption <code>/import &lt;id&gt;</code> - Import balance history

<b>Activity log:</b>
• <code>/log lifexp|plans</code> - Show recent activity
• <code>/export lifexp|plans</code> - Download the log as CSV
• <code>/forget lifexp|plans &lt;entry id&gt;</code> - Remove a log entry

<b>Notes:</b>
• <code>/note bucket|plan|account &lt;id&gt; &lt;text&gt;</code> - Set this year's note
• <code>/notes bucket|plan|account &lt;id&gt;</code> - Show notes

Frequencies: <code>monthly</code>, <code>quarterly</code>, <code>half_yearly</code> (plans only), <code>yearly</code>, <code>custom:N</code> (every N days). Dates use <code>YYYY-MM-DD</code>.`

	logger.Log.Debug().Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).Msg("Sending /help response")
	reply(ctx, tg, update.Message.Chat.ID, text)
}
