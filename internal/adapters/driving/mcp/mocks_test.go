package mcp

import (
	"context"

	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	result  *domain.RetrievalResult
	err     error
	gotOpts domain.RetrieveOptions
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	_ domain.TenantID,
	_ string,
	opts domain.RetrieveOptions,
) (*domain.RetrievalResult, error) {
	m.gotOpts = opts
	return m.result, m.err
}

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer *driving.Answer
	err    error
}

func (m *mockAskService) Ask(_ context.Context, _ domain.TenantID, _ string, _ []string) (*driving.Answer, error) {
	return m.answer, m.err
}

func (m *mockAskService) AskStream(_ context.Context, _ domain.TenantID, _ string, _ []string, emit func(string) error) (*driving.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	if err := emit(m.answer.Text); err != nil {
		return nil, err
	}
	return m.answer, nil
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	report *domain.ReloadReport
	err    error
}

func (m *mockIngestService) IngestDocument(_ context.Context, _ *domain.RawDocument) (*domain.ReloadReport, error) {
	return m.report, m.err
}

func (m *mockIngestService) Reload(_ context.Context, _ domain.TenantID) (*domain.ReloadReport, error) {
	return m.report, m.err
}

func (m *mockIngestService) Warmup(_ context.Context) error {
	return m.err
}
