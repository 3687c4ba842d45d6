package mocks

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
)

func TestMessageUpdate(t *testing.T) {
	t.Parallel()

	u := CommandUpdate(12345, 67890, "/buckets")
	require.Nil(t, u.CallbackQuery)
	require.Equal(t, "/buckets", u.Message.Text)
	require.Equal(t, int64(12345), u.Message.Chat.ID)
	require.Equal(t, models.ChatTypePrivate, u.Message.Chat.Type)
	require.Equal(t, int64(67890), u.Message.From.ID)
	require.Equal(t, DefaultUsername, u.Message.From.Username)
}

func TestCallbackQueryUpdate(t *testing.T) {
	t.Parallel()

	u := CallbackQueryUpdate(12345, 67890, 42, "bucket_done_3")
	require.Nil(t, u.Message)
	cq := u.CallbackQuery
	require.Equal(t, CallbackID, cq.ID)
	require.Equal(t, "bucket_done_3", cq.Data)
	require.Equal(t, int64(67890), cq.From.ID)
	require.Equal(t, 42, cq.Message.Message.ID)
	require.Equal(t, int64(12345), cq.Message.Message.Chat.ID)
}

func TestDocumentUpdate(t *testing.T) {
	t.Parallel()

	u := DocumentUpdate(12345, 67890, "file-1", "history.csv", "/import 7")
	require.Empty(t, u.Message.Text)
	require.Equal(t, "/import 7", u.Message.Caption)
	require.Equal(t, "file-1", u.Message.Document.FileID)
	require.Equal(t, "file-1_unique", u.Message.Document.FileUniqueID)
	require.Equal(t, "history.csv", u.Message.Document.FileName)
	require.Equal(t, "text/csv", u.Message.Document.MimeType)
}

func TestUpdateBuilder_WithFrom(t *testing.T) {
	t.Parallel()

	msg := NewUpdateBuilder().WithMessage(1, 2, "hi").WithFrom(9, "ana", "Ana", "Lee").Build()
	require.Equal(t, &models.User{ID: 9, Username: "ana", FirstName: "Ana", LastName: "Lee"}, msg.Message.From)

	cb := NewUpdateBuilder().WithCallbackQuery("cb", 1, 2, 3, "plan_paid_1").WithFrom(9, "ana", "Ana", "").Build()
	require.Equal(t, int64(9), cb.CallbackQuery.From.ID)
	require.Equal(t, "Ana", cb.CallbackQuery.From.FirstName)
}

func TestUpdateBuilder_DocumentSteps(t *testing.T) {
	t.Parallel()

	u := NewUpdateBuilder().
		WithDocument("f", "a.csv", "text/csv").
		WithCaption("/import 1").
		WithFileSize(2048).
		Build()
	require.NotNil(t, u.Message, "document creates a message")
	require.Equal(t, int64(2048), u.Message.Document.FileSize)
	require.Equal(t, "/import 1", u.Message.Caption)
}

func TestUpdateBuilder_StepsWithoutMessage(t *testing.T) {
	t.Parallel()

	u := NewUpdateBuilder().WithCaption("x").WithFileSize(10).WithFrom(1, "", "", "").Build()
	require.Nil(t, u.Message)
	require.Nil(t, u.CallbackQuery)
}

func TestUpdateBuilder_BuildReturnsCopies(t *testing.T) {
	t.Parallel()

	b := NewUpdateBuilder()
	first := b.Build()
	b.WithMessage(1, 2, "later")
	require.Nil(t, first.Message)
	require.Equal(t, "later", b.Build().Message.Text)
}
