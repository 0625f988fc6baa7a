package assist

// Default instruction texts. Each can be overridden per assistant through
// the Prompts struct, which is how user-customized prompts are injected.

const defaultSystemPrompt = `You are a SQL assistant for an embedded DuckDB analytical database.
DuckDB uses PostgreSQL-like SQL syntax.

Respond in exactly one of three ways:
- A single SQL query, with no markdown and no explanation, when the question can be answered from the schema you were given.
- "CLARIFY: <question>" when you need more information before you can write a correct query.
- "CHAT: <reply>" for conversational messages that do not ask about the data.

Rules:
- Use only the table and column names that appear in the DATABASE SCHEMA block. Never invent names.
- If no schema was provided, ask for clarification instead of guessing table names.
- Prefer explicit column lists over SELECT *.
- Never fabricate functions or syntax that do not exist in DuckDB.`

const defaultInterpretPrompt = `You summarize query results. Answer the user's question in one short sentence based only on the rows provided. Do not mention SQL or the result format.`

const defaultSuggestPrompt = `Propose exactly 3 short analytical questions a user could ask about the tables below. Return one question per line, numbered "1. " through "3. ", with no extra commentary.`

const defaultDiscoverPrompt = `You profile a newly loaded table. Using the row count, sample rows and distinct-value counts provided, describe in 2-3 sentences what this table contains and point out one thing worth exploring. Be concrete and mention real column names.`

const defaultFixPrompt = `A SQL query against DuckDB failed. Using the schema, the original question, the failing query and the engine error, return a corrected SQL query. Return ONLY SQL, no markdown and no explanation.`

// Prompts carries per-operation instruction overrides. Empty fields fall
// back to the defaults above.
type Prompts struct {
	System    string `json:"system,omitempty"`
	Interpret string `json:"interpret,omitempty"`
	Suggest   string `json:"suggest,omitempty"`
	Discover  string `json:"discover,omitempty"`
	Fix       string `json:"fix,omitempty"`
}

func (p Prompts) system() string    { return fallback(p.System, defaultSystemPrompt) }
func (p Prompts) interpret() string { return fallback(p.Interpret, defaultInterpretPrompt) }
func (p Prompts) suggest() string   { return fallback(p.Suggest, defaultSuggestPrompt) }
func (p Prompts) discover() string  { return fallback(p.Discover, defaultDiscoverPrompt) }
func (p Prompts) fix() string       { return fallback(p.Fix, defaultFixPrompt) }

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
