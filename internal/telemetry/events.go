package telemetry

import (
	"context"
	"log"
	"time"
)

// Publisher is the transport the emitter publishes through.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Emitter records sync-engine lifecycle events: session invalidations,
// persistence failures on send, channel drops. A nil emitter is a no-op so
// components can hold one unconditionally.
type Emitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

// EventEnvelope is the wire format for sync-engine events.
type EventEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	Username      *string      `json:"username,omitempty"`
	Payload       EventPayload `json:"payload"`
}

// EventPayload carries the event kind and a human-readable detail.
type EventPayload struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// NewEmitter constructs an Emitter.
func NewEmitter(publisher Publisher, routingKey, service, environment string) *Emitter {
	return &Emitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes one event. Failures are logged, never surfaced to the
// calling workflow.
func (e *Emitter) Emit(ctx context.Context, kind, detail string, username *string) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := EventEnvelope{
		SchemaVersion: 1,
		EventType:     "sync_event",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		Username:      username,
		Payload: EventPayload{
			Kind:   kind,
			Detail: detail,
		},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Printf("sync event publish failed: %v", err)
	}
}
