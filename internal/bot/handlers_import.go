package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/finance-bot/internal/csvimport"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
)

// MaxImportSize is the largest CSV upload accepted by /import.
const MaxImportSize = 1 << 20

// maxSkippedShown caps the skipped line numbers listed in the import reply.
const maxSkippedShown = 10

const importUsage = "Send the CSV as a file with the caption <code>/import &lt;account id&gt;</code>. Columns: <code>Date,Balance,Notes</code>."

// handleAccounts handles the /accounts command.
func (b *Bot) handleAccounts(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.handleAccountsCore(ctx, tgBot, update)
}

// handleAccountsCore is the testable implementation of handleAccounts.
func (b *Bot) handleAccountsCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	accounts, err := b.accounts.ListAccounts(ctx)
	if err != nil {
		replyError(ctx, tg, chatID, "accounts", err)
		return
	}
	if len(accounts) == 0 {
		reply(ctx, tg, chatID, "No accounts found.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏦 <b>Accounts</b>\n")
	for _, a := range accounts {
		fmt.Fprintf(&sb, "\n<b>#%d %s</b>", a.ID, escapeHTML(a.Name))
		if a.Type != "" {
			fmt.Fprintf(&sb, " (%s)", escapeHTML(a.Type))
		}
		fmt.Fprintf(&sb, ": %s", formatMoney(a.Balance))
	}
	sb.WriteString("\n\n" + importUsage)
	reply(ctx, tg, chatID, sb.String())
}

// handleImportCore imports a balance history CSV sent as a document.
func (b *Bot) handleImportCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	msg := update.Message
	chatID := msg.Chat.ID

	if commandName(msg.Caption) != "/import" {
		reply(ctx, tg, chatID, importUsage)
		return
	}
	accountID, err := parseID(extractCommandArgs(msg.Caption, "/import"))
	if err != nil {
		reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error())+"\n\n"+importUsage)
		return
	}
	if msg.Document.FileSize > MaxImportSize {
		reply(ctx, tg, chatID, "❌ That file is too large. The limit is 1 MB.")
		return
	}

	data, err := b.downloadDocument(ctx, tg, msg.Document.FileID)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to download CSV")
		reply(ctx, tg, chatID, "❌ Failed to download the file. Please try again.")
		return
	}

	result, err := csvimport.ParseBalanceHistory(bytes.NewReader(data))
	if err != nil {
		reply(ctx, tg, chatID, "❌ "+escapeHTML(err.Error()))
		return
	}
	if len(result.Records) == 0 {
		reply(ctx, tg, chatID, "❌ No valid rows found.\n\n"+importUsage)
		return
	}

	account, err := b.accounts.AddBalanceHistory(ctx, accountID, result.Records)
	if err != nil {
		replyError(ctx, tg, chatID, "import", err)
		return
	}

	logger.Log.Info().
		Int64("account_id", accountID).
		Int("imported", len(result.Records)).
		Int("skipped", result.Skipped()).
		Msg("Balance history imported")

	reply(ctx, tg, chatID, formatImportResult(account.Name, result))
}

func formatImportResult(accountName string, result csvimport.Result) string {
	text := fmt.Sprintf("✅ Imported %d balance record(s) into <b>%s</b>.", len(result.Records), escapeHTML(accountName))
	if result.Skipped() == 0 {
		return text
	}

	shown := result.SkippedLines[:min(len(result.SkippedLines), maxSkippedShown)]
	lines := make([]string, len(shown))
	for i, l := range shown {
		lines[i] = fmt.Sprint(l)
	}
	text += fmt.Sprintf("\n⚠️ Skipped %d row(s) on line(s) %s", result.Skipped(), strings.Join(lines, ", "))
	if result.Skipped() > maxSkippedShown {
		text += ", …"
	}
	return text + "."
}

// downloadDocument fetches an uploaded file from Telegram.
func (b *Bot) downloadDocument(ctx context.Context, tg TelegramAPI, fileID string) ([]byte, error) {
	file, err := tg.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tg.FileDownloadLink(file), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImportSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > MaxImportSize {
		return nil, fmt.Errorf("file exceeds %d bytes", MaxImportSize)
	}
	return data, nil
}
