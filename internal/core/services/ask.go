package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/core/ports/driven"
	"github.com/cleardesk/hrkb/internal/core/ports/driving"
	"github.com/cleardesk/hrkb/internal/logger"
)

// Ensure AskService implements the interface.
var _ driving.AskService = (*AskService)(nil)

// AskService runs the retrieve-then-generate flow against the LLM.
type AskService struct {
	retrieval driving.RetrievalService
	llm       driven.LLMService
	genOpts   driven.GenerateOptions
}

// NewAskService creates a new ask service.
func NewAskService(retrieval driving.RetrievalService, llm driven.LLMService, genOpts driven.GenerateOptions) *AskService {
	return &AskService{
		retrieval: retrieval,
		llm:       llm,
		genOpts:   genOpts,
	}
}

// Ask answers a question grounded in retrieved context. When no chunk
// clears the relevance floor, generation proceeds without context and
// the answer is flagged as ungrounded.
func (s *AskService) Ask(ctx context.Context, tenant domain.TenantID, question string, history []string) (*driving.Answer, error) {
	result, err := s.retrieve(ctx, tenant, question)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(question, history, result.Chunks)
	text, err := s.llm.Generate(ctx, prompt, s.genOpts)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &driving.Answer{
		Text:     strings.TrimSpace(text),
		Grounded: !result.NoContext,
		Sources:  result.Chunks,
	}, nil
}

// AskStream is Ask with the completion delivered as fragments through
// emit. The returned answer carries the concatenated text.
func (s *AskService) AskStream(ctx context.Context, tenant domain.TenantID, question string, history []string, emit func(string) error) (*driving.Answer, error) {
	result, err := s.retrieve(ctx, tenant, question)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(question, history, result.Chunks)
	var b strings.Builder
	err = s.llm.GenerateStream(ctx, prompt, s.genOpts, func(fragment string) error {
		b.WriteString(fragment)
		return emit(fragment)
	})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &driving.Answer{
		Text:     strings.TrimSpace(b.String()),
		Grounded: !result.NoContext,
		Sources:  result.Chunks,
	}, nil
}

func (s *AskService) retrieve(ctx context.Context, tenant domain.TenantID, question string) (*domain.RetrievalResult, error) {
	result, err := s.retrieval.Retrieve(ctx, tenant, question, domain.RetrieveOptions{})
	if err != nil {
		return nil, err
	}
	if result.NoContext {
		logger.Debug("No grounding context for tenant %s, answering ungrounded", tenant)
	}
	return result, nil
}
