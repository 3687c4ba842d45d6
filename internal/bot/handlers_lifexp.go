package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/finance-bot/internal/lifexp"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
	appmodels "gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/recurrence"
)

const callbackBucketDone = "bucket_done_"

// idArg parses the single id argument of command, replying with usage when
// it is missing or malformed.
func idArg(ctx context.Context, tg TelegramAPI, update *models.Update, command string) (int64, bool) {
	args := extractCommandArgs(update.Message.Text, command)
	id, err := parseID(args)
	if err != nil {
		reply(ctx, tg, update.Message.Chat.ID, fmt.Sprintf("Usage: <code>%s &lt;id&gt;</code>", command))
		return 0, false
	}
	return id, true
}

func formatBucket(v lifexp.BucketView) string {
	bk := v.Bucket
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>#%d %s</b>", bk.ID, escapeHTML(bk.Name))
	if bk.Status == appmodels.BucketAchieved {
		sb.WriteString(" 🏆")
	}
	fmt.Fprintf(&sb, "\n   %s / %s (%s%%)", formatMoney(bk.SavedAmount), formatMoney(bk.TargetAmount), bk.Progress().StringFixed(1))
	if v.Recurring {
		fmt.Fprintf(&sb, "\n   %s %s", v.Frequency.Label(), formatMoney(bk.RecurringAmount))
		if bk.NextContributionDate != nil {
			fmt.Fprintf(&sb, ", next %s", bk.NextContributionDate)
		}
		if s := formatDueStatus(v.Status); s != "" {
			sb.WriteString(" " + s)
		}
	}
	return sb.String()
}

func bucketKeyboard(views []lifexp.BucketView) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	for _, v := range views {
		if !v.CanMarkDone {
			continue
		}
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         fmt.Sprintf("✅ Done: %s", v.Bucket.Name),
			CallbackData: callbackBucketDone + strconv.FormatInt(v.Bucket.ID, 10),
		}})
	}
	if len(rows) == 0 {
		return nil
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// handleBuckets handles the /buckets command.
func (b *Bot) handleBuckets(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleBucketsCore(ctx, tgBot, update)
}

// handleBucketsCore is the testable implementation of handleBuckets.
func (b *Bot) handleBucketsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	views, err := b.lifexp.Overview(ctx)
	if err != nil {
		replyError(ctx, tg, chatID, "buckets", err)
		return
	}
	if len(views) == 0 {
		reply(ctx, tg, chatID, "No buckets yet. Create one with /newbucket.")
		return
	}

	var sb strings.Builder
	sb.WriteString("💰 <b>Life XP Buckets</b>\n")
	for _, v := range views {
		sb.WriteString("\n" + formatBucket(v) + "\n")
	}

	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      sb.String(),
		ParseMode: models.ParseModeHTML,
	}
	if kb := bucketKeyboard(views); kb != nil {
		params.ReplyMarkup = kb
	}
	if _, err := tg.SendMessage(ctx, params); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send /buckets response")
	}
}

const newBucketUsage = `Usage:
<code>/newbucket name | target</code>
<code>/newbucket name | target | amount | frequency | next date</code>

Example: <code>/newbucket Vacation | 3000 | 250 | monthly | 2025-08-01</code>`

// parseNewBucket reads the pipe-separated /newbucket arguments.
func parseNewBucket(args string) (appmodels.BucketInput, error) {
	fields := splitFields(args)
	if len(fields) != 2 && len(fields) != 5 {
		return appmodels.BucketInput{}, fmt.Errorf("expected 2 or 5 fields, got %d", len(fields))
	}

	target, err := parseAmount(fields[1])
	if err != nil {
		return appmodels.BucketInput{}, err
	}
	in := appmodels.BucketInput{Name: fields[0], TargetAmount: target}
	if len(fields) == 2 {
		return in, nil
	}

	amount, err := parseAmount(fields[2])
	if err != nil {
		return appmodels.BucketInput{}, err
	}
	freq, err := recurrence.ParseSpec(fields[3])
	if err != nil {
		return appmodels.BucketInput{}, err
	}
	next, err := appmodels.ParseDate(fields[4])
	if err != nil {
		return appmodels.BucketInput{}, err
	}

	in.RecurringEnabled = true
	in.RecurringAmount = amount
	in.SetRecurrence(freq)
	in.NextContributionDate = &next
	return in, nil
}

// handleNewBucket handles the /newbucket command.
func (b *Bot) handleNewBucket(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleNewBucketCore(ctx, tgBot, update)
}

// handleNewBucketCore is the testable implementation of handleNewBucket.
func (b *Bot) handleNewBucketCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	in, err := parseNewBucket(extractCommandArgs(update.Message.Text, "/newbucket"))
	if err != nil {
		reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error())+"\n\n"+newBucketUsage)
		return
	}

	created, err := b.lifexp.Create(ctx, in)
	if err != nil {
		replyError(ctx, tg, chatID, "newbucket", err)
		return
	}

	reply(ctx, tg, chatID, fmt.Sprintf("✅ Created bucket <b>#%d %s</b> with a target of %s.",
		created.ID, escapeHTML(created.Name), formatMoney(created.TargetAmount)))
}

// handleContribute handles the /contribute command.
func (b *Bot) handleContribute(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleContributeCore(ctx, tgBot, update)
}

// handleContributeCore is the testable implementation of handleContribute.
func (b *Bot) handleContributeCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	fields := strings.Fields(extractCommandArgs(update.Message.Text, "/contribute"))
	if len(fields) < 2 {
		reply(ctx, tg, chatID, "Usage: <code>/contribute &lt;id&gt; &lt;amount&gt; [note]</code>")
		return
	}
	id, err := parseID(fields[0])
	if err != nil {
		reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}
	amount, err := parseAmount(fields[1])
	if err != nil {
		reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}
	note := strings.Join(fields[2:], " ")

	updated, err := b.lifexp.Contribute(ctx, id, amount, b.today(), note)
	if err != nil {
		replyError(ctx, tg, chatID, "contribute", err)
		return
	}

	reply(ctx, tg, chatID, fmt.Sprintf("✅ Added %s to <b>%s</b>. Saved %s of %s (%s%%).",
		formatMoney(amount), escapeHTML(updated.Name),
		formatMoney(updated.SavedAmount), formatMoney(updated.TargetAmount), updated.Progress().StringFixed(1)))
}

func (b *Bot) markBucketDone(ctx context.Context, id int64) (string, error) {
	updated, err := b.lifexp.MarkContributionDone(ctx, id)
	if err != nil {
		return "", err
	}
	text := fmt.Sprintf("✅ Contribution to <b>%s</b> recorded.", escapeHTML(updated.Name))
	if updated.NextContributionDate != nil {
		text += fmt.Sprintf(" Next one is due %s.", updated.NextContributionDate)
	}
	return text, nil
}

// handleDone handles the /done command.
func (b *Bot) handleDone(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDoneCore(ctx, tgBot, update)
}

// handleDoneCore is the testable implementation of handleDone.
func (b *Bot) handleDoneCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	id, ok := idArg(ctx, tg, update, "/done")
	if !ok {
		return
	}

	text, err := b.markBucketDone(ctx, id)
	if err != nil {
		replyError(ctx, tg, update.Message.Chat.ID, "done", err)
		return
	}
	reply(ctx, tg, update.Message.Chat.ID, text)
}

// handleBucketDoneCallback handles the inline "Done" button under /buckets.
func (b *Bot) handleBucketDoneCallback(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleBucketDoneCallbackCore(ctx, tgBot, update)
}

// handleBucketDoneCallbackCore is the testable implementation of handleBucketDoneCallback.
func (b *Bot) handleBucketDoneCallbackCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.CallbackQuery == nil || update.CallbackQuery.Message.Message == nil {
		return
	}
	msg := update.CallbackQuery.Message.Message

	_, _ = tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})

	id, err := parseID(strings.TrimPrefix(update.CallbackQuery.Data, callbackBucketDone))
	if err != nil {
		logger.Log.Error().Str("data", update.CallbackQuery.Data).Msg("Invalid callback data format")
		return
	}

	text, err := b.markBucketDone(ctx, id)
	if err != nil {
		logger.Log.Error().Err(err).Int64("bucket_id", id).Msg("Failed to mark contribution done")
		text = escapeHTML(userMessage(err))
	}

	_, err = tg.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to edit bucket message")
	}
}

// handleAchieve handles the /achieve command.
func (b *Bot) handleAchieve(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleAchieveCore(ctx, tgBot, update)
}

// handleAchieveCore is the testable implementation of handleAchieve.
func (b *Bot) handleAchieveCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	id, ok := idArg(ctx, tg, update, "/achieve")
	if !ok {
		return
	}

	updated, err := b.lifexp.Achieve(ctx, id)
	if err != nil {
		replyError(ctx, tg, update.Message.Chat.ID, "achieve", err)
		return
	}
	reply(ctx, tg, update.Message.Chat.ID, fmt.Sprintf("🏆 Goal achieved: <b>%s</b>!", escapeHTML(updated.Name)))
}

// handleReactivate handles the /reactivate command.
func (b *Bot) handleReactivate(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleReactivateCore(ctx, tgBot, update)
}

// handleReactivateCore is the testable implementation of handleReactivate.
func (b *Bot) handleReactivateCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	id, ok := idArg(ctx, tg, update, "/reactivate")
	if !ok {
		return
	}

	updated, err := b.lifexp.Reactivate(ctx, id)
	if err != nil {
		replyError(ctx, tg, update.Message.Chat.ID, "reactivate", err)
		return
	}
	reply(ctx, tg, update.Message.Chat.ID, fmt.Sprintf("🔄 <b>%s</b> is active again.", escapeHTML(updated.Name)))
}

// handleDeleteBucket handles the /deletebucket command.
func (b *Bot) handleDeleteBucket(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleDeleteBucketCore(ctx, tgBot, update)
}

// handleDeleteBucketCore is the testable implementation of handleDeleteBucket.
func (b *Bot) handleDeleteBucketCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	id, ok := idArg(ctx, tg, update, "/deletebucket")
	if !ok {
		return
	}

	if err := b.lifexp.Delete(ctx, id); err != nil {
		replyError(ctx, tg, update.Message.Chat.ID, "deletebucket", err)
		return
	}
	reply(ctx, tg, update.Message.Chat.ID, fmt.Sprintf("🗑 Bucket #%d deleted.", id))
}
