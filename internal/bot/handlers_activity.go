package bot

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/finance-bot/internal/activitylog"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
)

// recentEntries is how many entries /log shows.
const recentEntries = 10

const domainUsage = "<code>lifexp</code> or <code>plans</code>"

// activityLog resolves a domain argument to its log.
func (b *Bot) activityLog(name string) (*activitylog.Log, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lifexp", "life_xp", "buckets":
		return b.lifexp.Log(), true
	case "plans", "plan", "insurance":
		return b.plans.Log(), true
	default:
		return nil, false
	}
}

func formatEntry(log *activitylog.Log, e activitylog.Entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s · <b>%s</b> · %s", e.Date, escapeHTML(log.Label(e.Action)), escapeHTML(e.SubjectName))
	if e.Amount != nil && !e.Amount.IsZero() {
		sb.WriteString(" · " + formatMoney(*e.Amount))
	}
	if e.Details != "" {
		sb.WriteString("\n   " + escapeHTML(e.Details))
	}
	fmt.Fprintf(&sb, "\n   <code>%s</code>", e.ID)
	return sb.String()
}

// handleLog handles the /log command.
func (b *Bot) handleLog(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleLogCore(ctx, tgBot, update)
}

// handleLogCore is the testable implementation of handleLog. An optional
// subject id narrows the log to one bucket or plan.
func (b *Bot) handleLogCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	fields := strings.Fields(extractCommandArgs(update.Message.Text, "/log"))
	if len(fields) == 0 || len(fields) > 2 {
		reply(ctx, tg, chatID, "Usage: <code>/log &lt;domain&gt; [id]</code> where domain is "+domainUsage)
		return
	}
	log, ok := b.activityLog(fields[0])
	if !ok {
		reply(ctx, tg, chatID, "❌ Unknown log. Use "+domainUsage+".")
		return
	}

	entries, err := log.Entries(ctx)
	if err != nil {
		replyError(ctx, tg, chatID, "log", err)
		return
	}
	if len(fields) == 2 {
		id, err := parseID(fields[1])
		if err != nil {
			reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
			return
		}
		entries = activitylog.ForSubject(entries, id)
	}
	if len(entries) == 0 {
		reply(ctx, tg, chatID, "No activity yet.")
		return
	}

	total := len(entries)
	entries = entries[:min(total, recentEntries)]

	var sb strings.Builder
	fmt.Fprintf(&sb, "📜 <b>Recent activity</b> (%d of %d)\n", len(entries), total)
	for _, e := range entries {
		sb.WriteString("\n" + formatEntry(log, e) + "\n")
	}
	reply(ctx, tg, chatID, sb.String())
}

// handleExport handles the /export command.
func (b *Bot) handleExport(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleExportCore(ctx, tgBot, update)
}

// handleExportCore is the testable implementation of handleExport.
func (b *Bot) handleExportCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	log, ok := b.activityLog(extractCommandArgs(update.Message.Text, "/export"))
	if !ok {
		reply(ctx, tg, chatID, "Usage: <code>/export &lt;domain&gt;</code> where domain is "+domainUsage)
		return
	}

	entries, err := log.Entries(ctx)
	if err != nil {
		replyError(ctx, tg, chatID, "export", err)
		return
	}
	if len(entries) == 0 {
		reply(ctx, tg, chatID, "No activity to export yet.")
		return
	}

	export := log.Export(entries, b.today())
	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: export.Filename, Data: bytes.NewReader(export.Data)},
		Caption:   fmt.Sprintf("📊 <b>Activity log</b>\n\nEntries: %d", len(entries)),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send CSV document")
		reply(ctx, tg, chatID, "❌ Failed to send the export. Please try again.")
		return
	}

	logger.Log.Info().
		Str("domain", log.Domain().Name).
		Str("file", export.Filename).
		Str("content_type", export.ContentType).
		Int("entries", len(entries)).
		Msg("Activity log exported")
}

// handleForget handles the /forget command.
func (b *Bot) handleForget(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleForgetCore(ctx, tgBot, update)
}

// handleForgetCore is the testable implementation of handleForget.
func (b *Bot) handleForgetCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	fields := strings.Fields(extractCommandArgs(update.Message.Text, "/forget"))
	if len(fields) != 2 {
		reply(ctx, tg, chatID, "Usage: <code>/forget &lt;domain&gt; &lt;entry id&gt;</code> where domain is "+domainUsage)
		return
	}
	log, ok := b.activityLog(fields[0])
	if !ok {
		reply(ctx, tg, chatID, "❌ Unknown log. Use "+domainUsage+".")
		return
	}

	entries, err := log.Entries(ctx)
	if err != nil {
		replyError(ctx, tg, chatID, "forget", err)
		return
	}
	if !slices.ContainsFunc(entries, func(e activitylog.Entry) bool { return e.ID == fields[1] }) {
		reply(ctx, tg, chatID, "ℹ️ No entry with that ID.")
		return
	}

	if err := log.Remove(ctx, fields[1]); err != nil {
		replyError(ctx, tg, chatID, "forget", err)
		return
	}
	reply(ctx, tg, chatID, "🗑 Entry removed from the log.")
}
