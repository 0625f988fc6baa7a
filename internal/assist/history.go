package assist

import "strings"

// Turn is one prior conversation turn in store-agnostic form. The chat
// layer maps its own message type onto this so prompt assembly never
// depends on a particular message store shape.
type Turn struct {
	Role    string
	Content string
	SQL     string
	Error   string
}

// formatHistory reconstitutes prior turns as flat chat messages. Assistant
// turns that carried SQL are folded into a "Generated SQL" transcript so
// context carries forward without re-sending the full schema every turn.
func formatHistory(turns []Turn, limit int) []Message {
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	messages := make([]Message, 0, len(turns))
	for _, turn := range turns {
		role := turn.Role
		if role != RoleAssistant {
			role = RoleUser
		}
		content := turn.Content
		if role == RoleAssistant && strings.TrimSpace(turn.SQL) != "" {
			var b strings.Builder
			b.WriteString("Generated SQL: ")
			b.WriteString(turn.SQL)
			b.WriteString("\nResult: ")
			b.WriteString(turn.Content)
			if turn.Error != "" {
				b.WriteString("\nError: ")
				b.WriteString(turn.Error)
			}
			content = b.String()
		}
		messages = append(messages, Message{Role: role, Content: content})
	}
	return messages
}
