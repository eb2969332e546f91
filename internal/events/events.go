// Package events publishes account lifecycle notifications for downstream
// services. Publishing is best effort: a broker failure is logged and the
// originating request succeeds anyway.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/contacerta/apiserver/internal/mq"
	"github.com/contacerta/apiserver/types"
	"github.com/google/uuid"
)

const (
	TopicUserCreated = "user.created"
	TopicUserDeleted = "user.deleted"
)

// UserEvent is the payload published on user lifecycle topics.
type UserEvent struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Tipo       string    `json:"tipo"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits lifecycle events over the configured broker.
type Publisher struct {
	mq     *mq.MQ
	logger *slog.Logger
}

func NewPublisher(queue *mq.MQ, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{mq: queue, logger: logger}
}

func (p *Publisher) UserCreated(ctx context.Context, user types.User) {
	p.publish(ctx, TopicUserCreated, user)
}

func (p *Publisher) UserDeleted(ctx context.Context, user types.User) {
	p.publish(ctx, TopicUserDeleted, user)
}

func (p *Publisher) publish(ctx context.Context, topic string, user types.User) {
	event := UserEvent{
		EventID:    uuid.NewString(),
		UserID:     user.ID,
		Email:      user.Email,
		Tipo:       user.Tipo,
		OccurredAt: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to encode lifecycle event", "topic", topic, "error", err)
		return
	}

	attrs := map[string]string{"event_id": event.EventID}
	if _, err := p.mq.Publish(ctx, topic, data, attrs); err != nil {
		p.logger.Warn("failed to publish lifecycle event",
			"topic", topic,
			"user_id", user.ID,
			"error", err,
		)
	}
}
