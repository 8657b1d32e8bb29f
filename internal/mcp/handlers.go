package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/grounded-chat/internal/domain"
	"github.com/bull/grounded-chat/internal/rag"
	"github.com/bull/grounded-chat/internal/storage"
)

// Assistant is the pipeline surface the tools need. *rag.Service
// implements it.
type Assistant interface {
	Run(ctx context.Context, question, sessionID string) (*rag.Result, error)
	Search(ctx context.Context, question string) ([]storage.ScoredChunk, error)
	NewSession() string
	ResetSession(sessionID string)
	Status() rag.Status
}

var _ Assistant = (*rag.Service)(nil)

// makeAskHandler creates the ask tool handler. A missing session id gets a
// fresh one, returned in the output so the client can continue it. The
// session itself only comes into existence once an exchange succeeds.
func makeAskHandler(assistant Assistant, logger *slog.Logger) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		sessionID := input.SessionID
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		result, err := assistant.Run(ctx, input.Question, sessionID)
		if err != nil {
			if tag := stageTag(err); tag != "" {
				logger.Warn("ask failed", "session", sessionID, "tag", tag)
			}
			return nil, AskOutput{}, errors.New(userMessage(err))
		}

		scores := make([]SourceScore, len(result.Scores))
		for i, s := range result.Scores {
			scores[i] = SourceScore{Title: s.Title, Score: s.Score}
		}
		return nil, AskOutput{
			SessionID:           sessionID,
			Reply:               result.Reply,
			TokensUsed:          result.TokensUsed,
			RetrievedChunkCount: result.RetrievedChunkCount,
			Scores:              scores,
			UsedFallback:        result.UsedFallback,
		}, nil
	}
}

func stageTag(err error) string {
	var serr *rag.StageError
	if errors.As(err, &serr) {
		return serr.Tag()
	}
	return ""
}

// makeSearchHandler creates the search tool handler. It ranks chunks
// without generating an answer or touching any session.
func makeSearchHandler(assistant Assistant) func(
	context.Context, *mcp.CallToolRequest, SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
		*mcp.CallToolResult, SearchOutput, error,
	) {
		chunks, err := assistant.Search(ctx, input.Query)
		if err != nil {
			return nil, SearchOutput{}, errors.New(userMessage(err))
		}

		if len(chunks) == 0 {
			return nil, SearchOutput{
				Results: []SearchResult{},
				Message: "No matching documents found. Try broader search terms.",
			}, nil
		}

		results := make([]SearchResult, len(chunks))
		for i, c := range chunks {
			results[i] = SearchResult{Title: c.Title, Score: c.Score, Content: c.Content}
		}
		return nil, SearchOutput{Results: results}, nil
	}
}

func makeNewSessionHandler(assistant Assistant) func(
	context.Context, *mcp.CallToolRequest, NewSessionInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input NewSessionInput) (
		*mcp.CallToolResult, SessionOutput, error,
	) {
		return nil, SessionOutput{SessionID: assistant.NewSession()}, nil
	}
}

func makeResetSessionHandler(assistant Assistant) func(
	context.Context, *mcp.CallToolRequest, ResetSessionInput,
) (*mcp.CallToolResult, SessionOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ResetSessionInput) (
		*mcp.CallToolResult, SessionOutput, error,
	) {
		if input.SessionID == "" {
			return nil, SessionOutput{}, errors.New(userMessage(domain.Validationf("session_id is required")))
		}
		assistant.ResetSession(input.SessionID)
		return nil, SessionOutput{SessionID: input.SessionID}, nil
	}
}

// makeStatusHandler creates the get_status tool handler.
func makeStatusHandler(assistant Assistant, backend string) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		status := assistant.Status()
		return nil, StatusOutput{
			Chunks:         status.Chunks,
			Dimension:      status.Dimension,
			ActiveSessions: status.ActiveSessions,
			StoreBackend:   backend,
		}, nil
	}
}
