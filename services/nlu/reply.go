package nlu

import (
	"context"
	"fmt"
	"strings"

	"receptionist/models"
)

// Replier produces a free-form spoken reply when no flow outcome applies.
type Replier interface {
	Reply(ctx context.Context, callID string, history []models.ChatMessage) (string, error)
}

// GeminiReplier implements Replier on the Gemini client.
type GeminiReplier struct {
	client *GeminiClient
}

func NewGeminiReplier(client *GeminiClient) *GeminiReplier {
	return &GeminiReplier{client: client}
}

const historyWindow = 10

func (r *GeminiReplier) Reply(ctx context.Context, callID string, history []models.ChatMessage) (string, error) {
	var sb strings.Builder
	sb.WriteString("You are a friendly clinic phone receptionist. Keep replies to one or two short spoken sentences. ")
	sb.WriteString("You can book, cancel and reschedule appointments; steer the caller there when relevant.\n\n")

	from := len(history) - historyWindow
	if from < 0 {
		from = 0
	}
	for _, m := range history[from:] {
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Text)
		sb.WriteString("\n")
	}
	sb.WriteString("assistant:")

	reply, err := r.client.GenerateContent(ctx, sb.String())
	if err != nil {
		return "", fmt.Errorf("fallback reply failed: %w", err)
	}
	return reply, nil
}
