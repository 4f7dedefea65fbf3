package interfaces

import (
	"context"
)

// Message represents a single message in a conversation with role-based content.
// Role can be "system", "user", or "assistant". Content contains the message text.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMService is the generative collaborator used for summarization and
// consolidation. Implementations must treat an empty response as a failure
// distinct from a transport error, so callers can tell a partial failure
// (empty string) from a hard one.
type LLMService interface {
	// Chat generates a completion for the conversation history, in
	// chronological order including any system prompt.
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the service can handle requests.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the service.
	Close() error
}

// VisionService classifies a rendered page image. Used by quarter-change
// detection; its output is unreliable by contract and must be validated.
type VisionService interface {
	// AnalyzeImage sends the image and an instruction prompt to the model
	// and returns the raw text response.
	AnalyzeImage(ctx context.Context, image []byte, mimeType string, prompt string) (string, error)

	Close() error
}
