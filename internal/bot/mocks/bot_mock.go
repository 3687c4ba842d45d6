// Package mocks provides a recording Telegram client and update builders
// for testing bot handlers.
package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramAPI is the part of the Telegram client the handlers call.
// It lives here so the bot package and its tests share one definition
// without an import cycle.
type TelegramAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
}

// SentMessage is a recorded SendMessage call.
type SentMessage struct {
	ChatID      any
	Text        string
	ParseMode   models.ParseMode
	ReplyMarkup models.ReplyMarkup
}

// CallbackData lists the callback data of the inline buttons attached to
// the message, row by row.
func (s SentMessage) CallbackData() []string {
	return callbackData(s.ReplyMarkup)
}

// EditedMessage is a recorded EditMessageText call.
type EditedMessage struct {
	ChatID      any
	MessageID   int
	Text        string
	ParseMode   models.ParseMode
	ReplyMarkup models.ReplyMarkup
}

// AnsweredCallback is a recorded AnswerCallbackQuery call.
type AnsweredCallback struct {
	CallbackQueryID string
	Text            string
	ShowAlert       bool
}

// SentDocument is a recorded SendDocument call. Data holds the uploaded
// bytes.
type SentDocument struct {
	ChatID    any
	Filename  string
	Data      []byte
	Caption   string
	ParseMode models.ParseMode
}

var _ TelegramAPI = (*MockBot)(nil)

// MockBot records every call a handler makes. Set an *Error field to make
// the matching call fail without recording anything.
type MockBot struct {
	mu sync.Mutex

	SentMessages      []SentMessage
	EditedMessages    []EditedMessage
	AnsweredCallbacks []AnsweredCallback
	SentDocuments     []SentDocument

	SendMessageError  error
	EditMessageError  error
	GetFileError      error
	SendDocumentError error

	// FileToReturn and FileDownloadLinkToReturn override the defaults of
	// GetFile and FileDownloadLink.
	FileToReturn             *models.File
	FileDownloadLinkToReturn string

	nextID int
}

// FirstMessageID is the id of the first message the mock sends.
const FirstMessageID = 1000

// NewMockBot returns a mock with nothing recorded.
func NewMockBot() *MockBot {
	return &MockBot{nextID: FirstMessageID}
}

func (m *MockBot) message(chatID any) *models.Message {
	id := m.nextID
	m.nextID++
	return &models.Message{ID: id, Chat: models.Chat{ID: ChatIDToInt64(chatID)}}
}

// SendMessage records the message.
func (m *MockBot) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendMessageError != nil {
		return nil, m.SendMessageError
	}

	m.SentMessages = append(m.SentMessages, SentMessage{
		ChatID:      params.ChatID,
		Text:        params.Text,
		ParseMode:   params.ParseMode,
		ReplyMarkup: params.ReplyMarkup,
	})
	msg := m.message(params.ChatID)
	msg.Text = params.Text
	return msg, nil
}

// EditMessageText records the edit.
func (m *MockBot) EditMessageText(_ context.Context, params *bot.EditMessageTextParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EditMessageError != nil {
		return nil, m.EditMessageError
	}

	m.EditedMessages = append(m.EditedMessages, EditedMessage{
		ChatID:      params.ChatID,
		MessageID:   params.MessageID,
		Text:        params.Text,
		ParseMode:   params.ParseMode,
		ReplyMarkup: params.ReplyMarkup,
	})
	return &models.Message{
		ID:   params.MessageID,
		Chat: models.Chat{ID: ChatIDToInt64(params.ChatID)},
		Text: params.Text,
	}, nil
}

// AnswerCallbackQuery records the answer.
func (m *MockBot) AnswerCallbackQuery(_ context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AnsweredCallbacks = append(m.AnsweredCallbacks, AnsweredCallback{
		CallbackQueryID: params.CallbackQueryID,
		Text:            params.Text,
		ShowAlert:       params.ShowAlert,
	})
	return true, nil
}

// GetFile returns FileToReturn or a CSV document.
func (m *MockBot) GetFile(_ context.Context, _ *bot.GetFileParams) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.GetFileError != nil:
		return nil, m.GetFileError
	case m.FileToReturn != nil:
		return m.FileToReturn, nil
	default:
		return &models.File{FileID: "test-file-id", FilePath: "documents/test.csv"}, nil
	}
}

// FileDownloadLink returns FileDownloadLinkToReturn or a Telegram-shaped URL.
func (m *MockBot) FileDownloadLink(_ *models.File) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FileDownloadLinkToReturn != "" {
		return m.FileDownloadLinkToReturn
	}
	return "https://api.telegram.org/file/bot123/documents/test.csv"
}

// SendDocument records the document, reading an uploaded body in full.
func (m *MockBot) SendDocument(_ context.Context, params *bot.SendDocumentParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendDocumentError != nil {
		return nil, m.SendDocumentError
	}

	doc := SentDocument{ChatID: params.ChatID, Caption: params.Caption, ParseMode: params.ParseMode}
	if upload, ok := params.Document.(*models.InputFileUpload); ok {
		doc.Filename = upload.Filename
		if upload.Data != nil {
			data, err := io.ReadAll(upload.Data)
			if err != nil {
				return nil, err
			}
			doc.Data = data
		}
	}
	m.SentDocuments = append(m.SentDocuments, doc)

	msg := m.message(params.ChatID)
	msg.Caption = params.Caption
	msg.Document = &models.Document{FileID: "mock_file_id", FileName: doc.Filename}
	return msg, nil
}

// Reset forgets every recorded call and configured error.
func (m *MockBot) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = nil
	m.EditedMessages = nil
	m.AnsweredCallbacks = nil
	m.SentDocuments = nil
	m.SendMessageError = nil
	m.EditMessageError = nil
	m.GetFileError = nil
	m.SendDocumentError = nil
}

func last[T any](m *MockBot, items []T) *T {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(items) == 0 {
		return nil
	}
	return &items[len(items)-1]
}

// LastSentMessage returns the latest sent message, or nil.
func (m *MockBot) LastSentMessage() *SentMessage { return last(m, m.SentMessages) }

// LastEditedMessage returns the latest edit, or nil.
func (m *MockBot) LastEditedMessage() *EditedMessage { return last(m, m.EditedMessages) }

// LastSentDocument returns the latest document, or nil.
func (m *MockBot) LastSentDocument() *SentDocument { return last(m, m.SentDocuments) }

// SentMessageCount returns the number of sent messages.
func (m *MockBot) SentMessageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SentMessages)
}

// SentDocumentCount returns the number of sent documents.
func (m *MockBot) SentDocumentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SentDocuments)
}

// ChatIDToInt64 returns a numeric chat id, or 0 for channel usernames.
func ChatIDToInt64(chatID any) int64 {
	switch v := chatID.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

func callbackData(markup models.ReplyMarkup) []string {
	kb, ok := markup.(*models.InlineKeyboardMarkup)
	if !ok || kb == nil {
		return nil
	}
	var data []string
	for _, row := range kb.InlineKeyboard {
		for _, button := range row {
			data = append(data, button.CallbackData)
		}
	}
	return data
}
