package mcp

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/concierge/internal/core/domain"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer *domain.Answer
	asked  []string
}

func (m *mockAnswerService) Answer(_ context.Context, question string) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuestion
	}
	m.asked = append(m.asked, question)
	return m.answer, nil
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	mu       sync.Mutex
	status   domain.IndexStatus
	runs     []domain.ReindexRun
	err      error
	triggers []domain.ReindexTrigger
	limits   []int
}

func (m *mockIndexService) Initialize(_ context.Context) error {
	return m.err
}

func (m *mockIndexService) Reindex(_ context.Context, trigger domain.ReindexTrigger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers = append(m.triggers, trigger)
	if m.err != nil {
		return m.err
	}
	m.status.Ready = true
	return nil
}

func (m *mockIndexService) Status() domain.IndexStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *mockIndexService) History(_ context.Context, limit int) ([]domain.ReindexRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = append(m.limits, limit)
	return m.runs, m.err
}
