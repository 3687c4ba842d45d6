package mocks

import (
	"github.com/go-telegram/bot/models"
)

// Default sender details for built updates.
const (
	DefaultFirstName = "Test"
	DefaultUsername  = "testuser"
	CallbackID       = "callback-query-id"
)

func sender(userID int64) models.User {
	return models.User{ID: userID, FirstName: DefaultFirstName, Username: DefaultUsername}
}

func privateChat(chatID int64) models.Chat {
	return models.Chat{ID: chatID, Type: models.ChatTypePrivate}
}

// UpdateBuilder assembles an Update step by step. Steps that need a
// message are no-ops until WithMessage or WithDocument creates one.
type UpdateBuilder struct {
	update models.Update
}

// NewUpdateBuilder returns a builder for an empty update.
func NewUpdateBuilder() *UpdateBuilder {
	return &UpdateBuilder{}
}

// WithMessage sets a private-chat text message from userID.
func (b *UpdateBuilder) WithMessage(chatID, userID int64, text string) *UpdateBuilder {
	from := sender(userID)
	b.update.Message = &models.Message{ID: 1, Chat: privateChat(chatID), From: &from, Text: text}
	return b
}

// WithFrom replaces the sender on both the message and the callback query.
func (b *UpdateBuilder) WithFrom(userID int64, username, firstName, lastName string) *UpdateBuilder {
	user := models.User{ID: userID, Username: username, FirstName: firstName, LastName: lastName}
	if b.update.Message != nil {
		b.update.Message.From = &user
	}
	if b.update.CallbackQuery != nil {
		b.update.CallbackQuery.From = user
	}
	return b
}

// WithCallbackQuery sets an inline button press on messageID.
func (b *UpdateBuilder) WithCallbackQuery(callbackID string, chatID, userID int64, messageID int, data string) *UpdateBuilder {
	b.update.CallbackQuery = &models.CallbackQuery{
		ID:   callbackID,
		From: sender(userID),
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: messageID, Chat: privateChat(chatID)},
		},
		Data: data,
	}
	return b
}

// WithDocument attaches a file, creating an empty message if needed.
func (b *UpdateBuilder) WithDocument(fileID, fileName, mimeType string) *UpdateBuilder {
	if b.update.Message == nil {
		b.WithMessage(0, 0, "")
	}
	b.update.Message.Document = &models.Document{
		FileID:       fileID,
		FileUniqueID: fileID + "_unique",
		FileName:     fileName,
		MimeType:     mimeType,
	}
	return b
}

// WithCaption sets the message caption.
func (b *UpdateBuilder) WithCaption(caption string) *UpdateBuilder {
	if b.update.Message != nil {
		b.update.Message.Caption = caption
	}
	return b
}

// WithFileSize sets the attached document's size in bytes.
func (b *UpdateBuilder) WithFileSize(size int64) *UpdateBuilder {
	if b.update.Message != nil && b.update.Message.Document != nil {
		b.update.Message.Document.FileSize = size
	}
	return b
}

// Build returns a copy of the assembled update.
func (b *UpdateBuilder) Build() *models.Update {
	u := b.update
	return &u
}

// MessageUpdate is a text message from userID.
func MessageUpdate(chatID, userID int64, text string) *models.Update {
	return NewUpdateBuilder().WithMessage(chatID, userID, text).Build()
}

// CommandUpdate is a command such as "/buckets" from userID.
func CommandUpdate(chatID, userID int64, command string) *models.Update {
	return MessageUpdate(chatID, userID, command)
}

// CallbackQueryUpdate is a button press carrying data.
func CallbackQueryUpdate(chatID, userID int64, messageID int, data string) *models.Update {
	return NewUpdateBuilder().WithCallbackQuery(CallbackID, chatID, userID, messageID, data).Build()
}

// DocumentUpdate is a CSV upload with a caption, as used by /import.
func DocumentUpdate(chatID, userID int64, fileID, fileName, caption string) *models.Update {
	return NewUpdateBuilder().
		WithMessage(chatID, userID, "").
		WithDocument(fileID, fileName, "text/csv").
		WithCaption(caption).
		Build()
}
