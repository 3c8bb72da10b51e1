package application

import (
	"context"

	"github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/felixgeelhaar/trimly/pkg/observability"
	"github.com/google/uuid"
)

// NewEventMetadata describes one command execution. Events raised by the same
// command share a causation ID; the correlation ID follows the CLI or worker
// run when the context carries one in UUID form.
func NewEventMetadata(ctx context.Context, actorID uuid.UUID) domain.EventMetadata {
	correlation, err := uuid.Parse(observability.CorrelationIDFromContext(ctx))
	if err != nil {
		correlation = uuid.New()
	}
	return domain.EventMetadata{
		CorrelationID: correlation,
		CausationID:   uuid.New(),
		ActorID:       actorID,
	}
}

// ApplyEventMetadata stamps meta onto every event that accepts it.
func ApplyEventMetadata(events []domain.DomainEvent, meta domain.EventMetadata) {
	for _, e := range events {
		s, ok := e.(interface{ SetMetadata(domain.EventMetadata) })
		if !ok {
			continue
		}
		s.SetMetadata(meta)
	}
}
