package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ChatRoom is the single room every client joins.
const ChatRoom = "global_chat"

// Chat event names carried in the websocket envelope.
const (
	EventJoinChat       = "join_chat"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
	EventError          = "error"
)

// DefaultAuthor is used when a sender supplies no name.
const DefaultAuthor = "Anonymous"

// ChatMessage is a relayed chat line.
type ChatMessage struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Author string    `json:"author"`
	Time   time.Time `json:"time"`
}

// NewChatMessage validates text and stamps it with an id and the server time.
// Text is trimmed; empty text or text longer than maxLen runes is rejected.
func NewChatMessage(text, author string, maxLen int) (ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatMessage{}, fmt.Errorf("%w: empty text", ErrInvalidMessage)
	}
	if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
		return ChatMessage{}, fmt.Errorf("%w: text exceeds %d characters", ErrInvalidMessage, maxLen)
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = DefaultAuthor
	}
	return ChatMessage{
		ID:     uuid.NewString(),
		Text:   text,
		Author: author,
		Time:   clock.Now().UTC(),
	}, nil
}
