package bot

import (
	tgbot "github.com/go-telegram/bot"
	"gitlab.com/yelinaung/finance-bot/internal/bot/mocks"
)

// TelegramAPI is the client surface handler cores depend on. The real
// *tgbot.Bot satisfies it in production and mocks.MockBot in tests.
type TelegramAPI = mocks.TelegramAPI

var _ TelegramAPI = (*tgbot.Bot)(nil)
