package interfaces

import (
	"context"
)

// Messenger delivers text and files to a chat endpoint. Delivery outcome is
// reported per call; no ordering guarantee is required across subscribers.
type Messenger interface {
	// SendMessage delivers one text chunk to a subscriber.
	SendMessage(ctx context.Context, chatID string, text string) error

	// SendDocument delivers a file attachment to a subscriber.
	SendDocument(ctx context.Context, chatID string, filename string, content []byte, caption string) error
}
