package assist

import "strings"

// Kind is the classified shape of a raw model reply.
type Kind string

const (
	KindSQL     Kind = "sql"
	KindClarify Kind = "clarify"
	KindChat    Kind = "chat"
)

// Response is the typed form of a model reply. The marker-prefix string
// protocol (CLARIFY:/CHAT:/bare SQL) never leaks past Classify.
type Response struct {
	Kind    Kind
	Payload string
}

const (
	clarifyMarker = "CLARIFY:"
	chatMarker    = "CHAT:"
)

// Classify inspects a raw model reply. A CLARIFY: or CHAT: prefix wins;
// anything else is treated as SQL with markdown code fences stripped. No
// SQL validation happens here — attempting execution is the validator.
func Classify(raw string) Response {
	trimmed := strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(trimmed, clarifyMarker); ok {
		return Response{Kind: KindClarify, Payload: strings.TrimSpace(rest)}
	}
	if rest, ok := strings.CutPrefix(trimmed, chatMarker); ok {
		return Response{Kind: KindChat, Payload: strings.TrimSpace(rest)}
	}
	return Response{Kind: KindSQL, Payload: stripCodeFences(trimmed)}
}

func stripCodeFences(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```sql")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
