// Package mcp exposes the question-answering pipeline as MCP tools.
package mcp

// AskInput defines the input parameters for the ask tool.
type AskInput struct {
	// Question is the user's question.
	Question string `json:"question" jsonschema:"the question to answer from the documentation"`
	// SessionID continues a conversation. Empty starts a new session.
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation id returned by a previous call; omit to start a new conversation"`
}

// SourceScore is one ranked source of an answer.
type SourceScore struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// AskOutput contains the answer and its grounding details.
type AskOutput struct {
	SessionID           string        `json:"session_id"`
	Reply               string        `json:"reply"`
	TokensUsed          int           `json:"tokens_used"`
	RetrievedChunkCount int           `json:"retrieved_chunk_count"`
	Scores              []SourceScore `json:"scores"`
	// UsedFallback is true when no documentation cleared the relevance
	// threshold and the reply is the fixed apology.
	UsedFallback bool `json:"used_fallback"`
}

// SearchInput defines the input parameters for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the text to find relevant documentation chunks for"`
}

// SearchResult represents a single chunk match.
type SearchResult struct {
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

// SearchOutput contains the search results.
type SearchOutput struct {
	Results []SearchResult `json:"results"`
	// Message provides informational context (e.g., "No matching documents found").
	Message string `json:"message,omitempty"`
}

// NewSessionInput takes no parameters.
type NewSessionInput struct{}

// SessionOutput identifies a session.
type SessionOutput struct {
	SessionID string `json:"session_id"`
}

// ResetSessionInput defines the input parameters for the reset_session tool.
type ResetSessionInput struct {
	SessionID string `json:"session_id" jsonschema:"the conversation to clear"`
}

// StatusInput takes no parameters.
type StatusInput struct{}

// StatusOutput reports the serving state.
type StatusOutput struct {
	Chunks         int    `json:"chunks"`
	Dimension      int    `json:"dimension"`
	ActiveSessions int    `json:"active_sessions"`
	StoreBackend   string `json:"store_backend"`
}
