package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/cenkalti/backoff/v4"

	domain "assistance-backend/internal/domain/audit"
	"assistance-backend/pkg/clock"
	"assistance-backend/pkg/domainerrors"
	"assistance-backend/pkg/id"
)

// Trail appends audit events. Writers pass the repository bound to their own
// transaction so the event commits or rolls back with the transition.
type Trail struct {
	repo  domain.Repository
	clock clock.Clock
	log   *slog.Logger
}

func NewTrail(repo domain.Repository, c clock.Clock, log *slog.Logger) *Trail {
	if c == nil {
		c = clock.System()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Trail{repo: repo, clock: c, log: log}
}

// Record builds and appends one event through repo. Critical events get a
// single attempt; the rest are retried once before the error surfaces.
func (t *Trail) Record(ctx context.Context, repo domain.Repository, in RecordInput) (*domain.Event, error) {
	if strings.TrimSpace(in.SubjectID) == "" || in.EventType == "" || strings.TrimSpace(in.ActorID) == "" {
		return nil, domain.ErrInvalidEvent
	}
	before, err := snapshot(in.Before)
	if err != nil {
		return nil, err
	}
	after, err := snapshot(in.After)
	if err != nil {
		return nil, err
	}
	e := &domain.Event{
		EventID:     id.NewID32(),
		SubjectType: in.SubjectType,
		SubjectID:   in.SubjectID,
		EventType:   in.EventType,
		Description: in.Description,
		Before:      before,
		After:       after,
		ActorID:     in.ActorID,
		CreatedAt:   t.clock.Now(),
	}

	var retries uint64 = 1
	if in.EventType.Critical() {
		retries = 0
	}
	attempt := func() error {
		e.ID = 0
		return repo.Append(ctx, e)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, retries), ctx)
	if err := backoff.Retry(attempt, b); err != nil {
		t.log.ErrorContext(ctx, "audit append failed",
			"subject_id", in.SubjectID, "event_type", in.EventType, "error", err)
		return nil, domainerrors.Storage(err, "audit "+string(in.EventType))
	}
	return e, nil
}

// List returns the subject's events, oldest first.
func (t *Trail) List(ctx context.Context, subjectID string) ([]EventDTO, error) {
	events, err := t.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	out := make([]EventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toDTO(e))
	}
	return out, nil
}

func snapshot(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeValidation, "audit snapshot")
	}
	return string(b), nil
}

func toDTO(e domain.Event) EventDTO {
	return EventDTO{
		EventID:     e.EventID,
		SubjectType: string(e.SubjectType),
		SubjectID:   e.SubjectID,
		EventType:   string(e.EventType),
		Description: e.Description,
		Before:      rawOrNil(e.Before),
		After:       rawOrNil(e.After),
		ActorID:     e.ActorID,
		CreatedAt:   e.CreatedAt,
	}
}

func rawOrNil(s string) any {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}
