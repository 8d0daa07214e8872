package contextstore

import (
	"strings"
	"time"
)

// Message is one role-tagged utterance held in a session's history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// sessionRecord is the stored form of a conversation session.
type sessionRecord struct {
	ID             string    `json:"id"`
	Messages       []Message `json:"messages"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// Prompt labels for formatted context. The product audience is Brazilian
// teachers, so the rendered context matches the generation prompt language.
const (
	labelUser      = "Professor"
	labelAssistant = "Assistente"
)

// formatHistory renders messages as alternating labeled lines.
func formatHistory(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}

	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		label := labelUser
		if msg.Role == RoleAssistant {
			label = labelAssistant
		}
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(msg.Content)
	}
	return b.String()
}

// trimMessages keeps only the most recent max entries, preserving order.
func trimMessages(messages []Message, max int) []Message {
	if max <= 0 || len(messages) <= max {
		return messages
	}
	return messages[len(messages)-max:]
}
