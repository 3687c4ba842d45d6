package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// MinHashSaltLength is the shortest accepted LOG_HASH_SALT.
const MinHashSaltLength = 32

// ErrHashSalt reports a missing or short LOG_HASH_SALT.
var ErrHashSalt = errors.New("invalid LOG_HASH_SALT")

var hashSalt string

// InitHashSalt loads the salt used to hash ids from LOG_HASH_SALT.
func InitHashSalt() error {
	salt := os.Getenv("LOG_HASH_SALT")
	if len(salt) < MinHashSaltLength {
		return fmt.Errorf("%w: need at least %d characters, got %d", ErrHashSalt, MinHashSaltLength, len(salt))
	}
	hashSalt = salt
	return nil
}

// InitHashSaltForTesting sets the salt without validation.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

func hashID(kind string, id int64) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%s", kind, id, hashSalt))
	return hex.EncodeToString(sum[:4])
}

// HashUserID returns a short salted hash of a Telegram user id.
func HashUserID(userID int64) string { return hashID("user", userID) }

// HashChatID returns a short salted hash of a chat id.
func HashChatID(chatID int64) string { return hashID("chat", chatID) }

// RedactNote hides free text such as notes and log details, keeping only
// its shape.
func RedactNote(note string) string {
	if note == "" {
		return "<empty>"
	}
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(strings.Fields(note)), utf8.RuneCountInString(note))
}

// SanitizeText keeps the command of a message and drops its arguments.
// Plain text is reduced to its length.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}
	n := utf8.RuneCountInString(text)
	if !strings.HasPrefix(text, "/") {
		return fmt.Sprintf("<%d chars>", n)
	}
	cmd, _, _ := strings.Cut(text, " ")
	return fmt.Sprintf("%s <%d chars>", cmd, n)
}
