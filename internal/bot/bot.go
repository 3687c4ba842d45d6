// Package bot provides the Telegram bot initialization and handlers.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/finance-bot/internal/config"
	"gitlab.com/yelinaung/finance-bot/internal/lifexp"
	"gitlab.com/yelinaung/finance-bot/internal/localstate"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
	"gitlab.com/yelinaung/finance-bot/internal/models"
	"gitlab.com/yelinaung/finance-bot/internal/plans"
)

// DownloadTimeout bounds fetching an uploaded CSV from Telegram.
const DownloadTimeout = 30 * time.Second

// UserStore persists the Telegram users that talk to the bot.
type UserStore interface {
	UpsertUser(ctx context.Context, user *models.User) error
	GetReminderRecipients(ctx context.Context, ids []int64, usernames []string) ([]models.User, error)
}

// AccountAPI is the part of the backend that owns accounts.
type AccountAPI interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
	AddBalanceHistory(ctx context.Context, id int64, records []models.BalanceRecord) (*models.Account, error)
}

// Deps are the application services the bot drives.
type Deps struct {
	Users    UserStore
	LifeXP   *lifexp.Service
	Plans    *plans.Service
	Accounts AccountAPI
	Notes    *localstate.Notes
}

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot           *bot.Bot
	cfg           *config.Config
	loc           *time.Location
	users         UserStore
	lifexp        *lifexp.Service
	plans         *plans.Service
	accounts      AccountAPI
	notes         *localstate.Notes
	messageSender TelegramAPI
	httpClient    *http.Client
	now           func() time.Time
}

// New creates a new Bot instance.
func New(cfg *config.Config, deps Deps) (*Bot, error) {
	b := newBot(cfg, deps)

	opts := []bot.Option{
		bot.WithMiddlewares(b.whitelistMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.messageSender = telegramBot
	b.registerHandlers()

	return b, nil
}

func newBot(cfg *config.Config, deps Deps) *Bot {
	return &Bot{
		cfg:        cfg,
		loc:        cfg.Location(),
		users:      deps.Users,
		lifexp:     deps.LifeXP,
		plans:      deps.Plans,
		accounts:   deps.Accounts,
		notes:      deps.Notes,
		httpClient: &http.Client{Timeout: DownloadTimeout},
		now:        time.Now,
	}
}

// Start runs the daily reminder and polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	scheduler, err := b.startDailyReminder(ctx)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() {
			<-scheduler.Stop().Done()
			logger.Log.Info().Msg("Daily reminder stopped")
		}()
	}

	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
	return nil
}

// registerHandlers sets up command handlers.
func (b *Bot) registerHandlers() {
	commands := []struct {
		pattern string
		handler bot.HandlerFunc
	}{
		{"/start", b.handleStart},
		{"/help", b.handleHelp},
		{"/buckets", b.handleBuckets},
		{"/newbucket", b.handleNewBucket},
		{"/contribute", b.handleContribute},
		{"/done", b.handleDone},
		{"/achieve", b.handleAchieve},
		{"/reactivate", b.handleReactivate},
		{"/deletebucket", b.handleDeleteBucket},
		{"/plans", b.handlePlans},
		{"/newplan", b.handleNewPlan},
		{"/paid", b.handlePaid},
		{"/premium", b.handlePremium},
		{"/ack", b.handleAck},
		{"/deleteplan", b.handleDeletePlan},
		{"/accounts", b.handleAccounts},
		{"/log", b.handleLog},
		{"/export", b.handleExport},
		{"/forget", b.handleForget},
		{"/note", b.handleNote},
	}
	for _, c := range commands {
		b.bot.RegisterHandler(bot.HandlerTypeMessageText, c.pattern, bot.MatchTypePrefix, c.handler)
	}

	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackBucketDone, bot.MatchTypePrefix, b.handleBucketDoneCallback)
	b.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, callbackPlanPaid, bot.MatchTypePrefix, b.handlePlanPaidCallback)
}

// today returns the current calendar day in the configured timezone.
func (b *Bot) today() time.Time {
	return b.now().In(b.loc)
}

// whitelistMiddleware checks if the user is whitelisted before processing.
func (b *Bot) whitelistMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		if !b.authorize(ctx, tgBot, update) {
			return
		}
		next(ctx, tgBot, update)
	}
}

// authorize reports whether the update may be processed, registering the
// sender and rejecting strangers.
func (b *Bot) authorize(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) bool {
	userID := extractUserID(update)
	if userID == 0 {
		return false
	}

	username := extractUsername(update)
	logUserAction(userID, update)

	if !b.cfg.IsUserWhitelisted(userID, username) {
		logger.Log.Warn().
			Str("user_hash", logger.HashUserID(userID)).
			Msg("Blocked non-whitelisted user")
		if update.Message != nil {
			_, _ = tg.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: update.Message.Chat.ID,
				Text:   "⛔ Sorry, you are not authorized to use this bot.",
			})
		}
		return false
	}

	if err := b.ensureUserRegistered(ctx, update); err != nil {
		logger.Log.Error().
			Str("user_hash", logger.HashUserID(userID)).
			Err(err).
			Msg("Failed to register user")
	}
	return true
}

// logUserAction logs the user's input without its content.
func logUserAction(userID int64, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		event := logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("chat_hash", logger.HashChatID(msg.Chat.ID))

		if msg.Text != "" {
			event = event.Str("text", logger.SanitizeText(msg.Text))
		}
		if msg.Document != nil {
			event = event.Str("type", "document").Str("mime_type", msg.Document.MimeType)
		}

		event.Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractUsername gets the username from the update.
func extractUsername(update *tgmodels.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	return ""
}

// extractUserID gets the user ID from various update types.
func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

// ensureUserRegistered creates or updates the user record.
func (b *Bot) ensureUserRegistered(ctx context.Context, update *tgmodels.Update) error {
	var from *tgmodels.User
	switch {
	case update.Message != nil && update.Message.From != nil:
		from = update.Message.From
	case update.CallbackQuery != nil:
		from = &update.CallbackQuery.From
	default:
		return nil
	}

	user := &models.User{
		ID:        from.ID,
		Username:  from.Username,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	}
	if err := b.users.UpsertUser(ctx, user); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// defaultHandler handles unrecognized messages. A CSV document captioned
// with /import is treated as a balance history upload.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.defaultHandlerCore(ctx, tgBot, update)
}

func (b *Bot) defaultHandlerCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}

	if update.Message.Document != nil {
		b.handleImportCore(ctx, tg, update)
		return
	}

	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "I didn't understand that. Use /help to see available commands.",
	})
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to send default response")
	}
}
