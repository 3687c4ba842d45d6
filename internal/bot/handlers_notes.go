package bot

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/finance-bot/internal/localstate"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
)

const noteUsage = `Usage:
<code>/note bucket|plan|account &lt;id&gt; &lt;text&gt;</code> - set this year's note
<code>/note bucket|plan|account &lt;id&gt;</code> - clear this year's note
<code>/notes bucket|plan|account &lt;id&gt;</code> - show all notes`

// handleNote handles the /note and /notes commands.
func (b *Bot) handleNote(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleNoteCore(ctx, tgBot, update)
}

// handleNoteCore is the testable implementation of handleNote.
func (b *Bot) handleNoteCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	command := commandName(update.Message.Text)
	fields := strings.Fields(extractCommandArgs(update.Message.Text, command))
	if len(fields) < 2 {
		reply(ctx, tg, chatID, noteUsage)
		return
	}
	kind, err := localstate.ParseNoteKind(strings.ToLower(fields[0]))
	if err != nil {
		reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error())+"\n\n"+noteUsage)
		return
	}
	id, err := parseID(fields[1])
	if err != nil {
		reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}

	if command == "/notes" {
		b.showNotes(ctx, tg, chatID, kind, id)
		return
	}

	text := strings.Join(fields[2:], " ")
	year := b.today().Year()
	if err := b.notes.Set(ctx, kind, id, year, text); err != nil {
		replyError(ctx, tg, chatID, "note", err)
		return
	}

	logger.Log.Debug().
		Str("kind", string(kind)).
		Int64("id", id).
		Str("note", logger.RedactNote(text)).
		Msg("Note saved")

	if text == "" {
		reply(ctx, tg, chatID, fmt.Sprintf("🗑 Cleared the %d note for %s #%d.", year, kind, id))
		return
	}
	reply(ctx, tg, chatID, fmt.Sprintf("📝 Saved the %d note for %s #%d.", year, kind, id))
}

func (b *Bot) showNotes(ctx context.Context, tg TelegramAPI, chatID int64, kind localstate.NoteKind, id int64) {
	notes, err := b.notes.Get(ctx, kind, id)
	if err != nil {
		replyError(ctx, tg, chatID, "notes", err)
		return
	}
	if len(notes) == 0 {
		reply(ctx, tg, chatID, fmt.Sprintf("No notes for %s #%d.", kind, id))
		return
	}

	years := make([]string, 0, len(notes))
	for y := range notes {
		years = append(years, y)
	}
	slices.Sort(years)
	slices.Reverse(years)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📝 <b>Notes for %s #%d</b>\n", kind, id)
	for _, y := range years {
		fmt.Fprintf(&sb, "\n<b>%s</b>: %s", y, escapeHTML(notes[y]))
	}
	reply(ctx, tg, chatID, sb.String())
}
