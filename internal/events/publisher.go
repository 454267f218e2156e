// Package events publishes account lifecycle events to a Redis stream
// for downstream audit consumers. Publishing is best-effort: a failed
// append is logged and never surfaced to the request that caused it.
package events

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ActionAccountCreated    = "account.created"
	ActionAccountUpdated    = "account.updated"
	ActionAccountDeleted    = "account.deleted"
	ActionAssignmentChanged = "assignment.changed"
)

type Publisher struct {
	client *redis.Client
	stream string
	log    zerolog.Logger
}

func NewPublisher(client *redis.Client, stream string, log zerolog.Logger) *Publisher {
	return &Publisher{client: client, stream: stream, log: log}
}

func (p *Publisher) Publish(ctx context.Context, action string, subjectID string, fields map[string]any) {
	if p == nil || p.client == nil {
		return
	}

	values := map[string]any{
		"action":  action,
		"subject": subjectID,
		"at":      time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range fields {
		values[k] = v
	}

	if _, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result(); err != nil {
		p.log.Warn().Err(err).Str("action", action).Msg("audit event publish failed")
	}
}
