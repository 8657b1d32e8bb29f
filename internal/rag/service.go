// Package rag runs the question-answering pipeline: embed the question,
// rank stored chunks, then either fall back to a fixed reply or compose a
// grounding prompt and generate an answer, and finally record the exchange.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/bull/grounded-chat/internal/domain"
	"github.com/bull/grounded-chat/internal/prompt"
	"github.com/bull/grounded-chat/internal/retrieval"
	"github.com/bull/grounded-chat/internal/session"
	"github.com/bull/grounded-chat/internal/storage"
)

// DefaultFallbackMessage is returned when no chunk clears the threshold.
const DefaultFallbackMessage = "I'm sorry, I couldn't find relevant information in the documentation " +
	"to answer your question. Could you rephrase it or ask about a different topic?"

// Pipeline states, logged at Debug as an exchange progresses.
const (
	StateEmbeddingQuery = "EMBEDDING_QUERY"
	StateRetrieving     = "RETRIEVING"
	StateFallback       = "FALLBACK"
	StateComposing      = "COMPOSING"
	StateGenerating     = "GENERATING"
	StateRecording      = "RECORDING"
	StateDone           = "DONE"
	StateFailed         = "FAILED"
)

// Options configures generation and input limits.
type Options struct {
	Temperature       float64
	MaxTokens         int
	MaxQuestionLength int    // in characters; 0 means unlimited
	FallbackMessage   string // DefaultFallbackMessage when empty
}

// SourceScore is one ranked source of an answer.
type SourceScore struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Result is the outcome of one exchange. A fallback reply is a successful
// result with UsedFallback set, not an error.
type Result struct {
	Reply               string        `json:"reply"`
	TokensUsed          int           `json:"tokens_used"`
	RetrievedChunkCount int           `json:"retrieved_chunk_count"`
	Scores              []SourceScore `json:"scores"`
	UsedFallback        bool          `json:"used_fallback"`
}

// Status summarizes the serving state.
type Status struct {
	Chunks         int `json:"chunks"`
	Dimension      int `json:"dimension"`
	ActiveSessions int `json:"active_sessions"`
}

// Service is safe for concurrent use. The ranker's store is read-only and
// shared; per-session serialization happens inside the session store.
type Service struct {
	embedder  domain.Embedder
	generator domain.Generator
	ranker    *retrieval.Ranker
	sessions  *session.Store
	opts      Options
	logger    *slog.Logger
}

// NewService wires the pipeline.
func NewService(
	embedder domain.Embedder,
	generator domain.Generator,
	ranker *retrieval.Ranker,
	sessions *session.Store,
	opts Options,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FallbackMessage == "" {
		opts.FallbackMessage = DefaultFallbackMessage
	}
	return &Service{
		embedder:  embedder,
		generator: generator,
		ranker:    ranker,
		sessions:  sessions,
		opts:      opts,
		logger:    logger,
	}
}

// Run answers question within sessionID. Validation failures wrap
// domain.ErrValidation and happen before any provider call. Provider
// failures are returned as *StageError and leave the session untouched.
func (s *Service) Run(ctx context.Context, question, sessionID string) (*Result, error) {
	if sessionID == "" {
		return nil, domain.Validationf("session id is required")
	}
	if err := s.validateQuestion(question); err != nil {
		return nil, err
	}

	chunks, err := s.retrieve(ctx, question, sessionID)
	if err != nil {
		return nil, err
	}

	var result *Result
	if len(chunks) == 0 {
		s.transition(sessionID, StateFallback)
		result = &Result{
			Reply:        s.opts.FallbackMessage,
			Scores:       []SourceScore{},
			UsedFallback: true,
		}
	} else {
		result, err = s.generate(ctx, chunks, question, sessionID)
		if err != nil {
			return nil, err
		}
	}

	s.transition(sessionID, StateRecording)
	s.sessions.AppendExchange(sessionID, question, result.Reply)

	s.transition(sessionID, StateDone)
	s.logger.Info("Answered question",
		"session", sessionID,
		"chunks", result.RetrievedChunkCount,
		"fallback", result.UsedFallback,
		"tokens", result.TokensUsed,
	)
	return result, nil
}

// Search runs the embedding and retrieval steps only. It reads no history
// and records nothing.
func (s *Service) Search(ctx context.Context, question string) ([]storage.ScoredChunk, error) {
	if err := s.validateQuestion(question); err != nil {
		return nil, err
	}
	return s.retrieve(ctx, question, "")
}

// NewSession creates a session and returns its id.
func (s *Service) NewSession() string {
	return s.sessions.Create()
}

// ResetSession clears the history of sessionID. Unknown ids are ignored.
func (s *Service) ResetSession(sessionID string) {
	s.sessions.Reset(sessionID)
}

// ActiveSessionCount returns the number of sessions seen by this process.
func (s *Service) ActiveSessionCount() int {
	return s.sessions.Count()
}

// Status reports store size and session count.
func (s *Service) Status() Status {
	return Status{
		Chunks:         s.ranker.Len(),
		Dimension:      s.ranker.Dimension(),
		ActiveSessions: s.sessions.Count(),
	}
}

func (s *Service) validateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return domain.Validationf("question is required")
	}
	if limit := s.opts.MaxQuestionLength; limit > 0 && utf8.RuneCountInString(question) > limit {
		return domain.Validationf("question exceeds %d characters", limit)
	}
	return nil
}

// retrieve covers EMBEDDING_QUERY and RETRIEVING.
func (s *Service) retrieve(ctx context.Context, question, sessionID string) ([]storage.ScoredChunk, error) {
	s.transition(sessionID, StateEmbeddingQuery)
	query, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, s.fail(sessionID, StageEmbedding, err)
	}
	if dim := s.ranker.Dimension(); len(query) != dim {
		return nil, s.fail(sessionID, StageEmbedding, fmt.Errorf("%w: %w: query has %d dimensions, store has %d",
			domain.ErrConfiguration, storage.ErrDimensionMismatch, len(query), dim))
	}

	s.transition(sessionID, StateRetrieving)
	chunks := s.ranker.Retrieve(query)
	s.logger.Debug("Retrieved chunks", "session", sessionID, "count", len(chunks))
	return chunks, nil
}

// generate covers COMPOSING and GENERATING.
func (s *Service) generate(ctx context.Context, chunks []storage.ScoredChunk, question, sessionID string) (*Result, error) {
	s.transition(sessionID, StateComposing)
	p := prompt.Compose(chunks, s.sessions.History(sessionID), question)

	s.transition(sessionID, StateGenerating)
	gen, err := s.generator.Generate(ctx, p, s.opts.Temperature, s.opts.MaxTokens)
	if err != nil {
		return nil, s.fail(sessionID, StageGeneration, err)
	}

	scores := make([]SourceScore, len(chunks))
	for i, c := range chunks {
		scores[i] = SourceScore{Title: c.Title, Score: roundScore(c.Score)}
	}
	return &Result{
		Reply:               gen.Text,
		TokensUsed:          gen.TotalTokens(),
		RetrievedChunkCount: len(chunks),
		Scores:              scores,
	}, nil
}

func (s *Service) fail(sessionID string, stage Stage, err error) error {
	serr := &StageError{Stage: stage, Err: err}
	kind, _ := domain.ProviderKindOf(err)
	s.logger.Warn("Pipeline failed",
		"session", sessionID,
		"state", StateFailed,
		"tag", serr.Tag(),
		"provider_kind", kind,
		"error", err,
	)
	return serr
}

func (s *Service) transition(sessionID, state string) {
	s.logger.Debug("Pipeline state", "session", sessionID, "state", state)
}

// roundScore keeps three decimals.
func roundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}
