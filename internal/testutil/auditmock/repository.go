package auditmock

import (
	"context"
	"sync"

	domain "assistance-backend/internal/domain/audit"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// With no AppendFn set it keeps events in memory.
type Repo struct {
	AppendFn        func(ctx context.Context, e *domain.Event) error
	ListBySubjectFn func(ctx context.Context, subjectID string) ([]domain.Event, error)

	mu     sync.Mutex
	Events []domain.Event
}

func (m *Repo) Append(ctx context.Context, e *domain.Event) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, *e)
	return nil
}

func (m *Repo) ListBySubject(ctx context.Context, subjectID string) ([]domain.Event, error) {
	if m.ListBySubjectFn != nil {
		return m.ListBySubjectFn(ctx, subjectID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Event
	for _, e := range m.Events {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}
