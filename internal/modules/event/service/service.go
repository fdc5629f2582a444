package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Channel is the redis pub/sub channel live debate events go through.
const Channel = "debate_events"

const (
	TypeQuestionClosed    = "question.closed"
	TypeQuestionActivated = "question.activated"
	TypeAnswerCreated     = "answer.created"
	TypeAnswerLiked       = "answer.liked"
	TypeAnswerUnliked     = "answer.unliked"
)

type Event struct {
	Type       string      `json:"type"`
	QuestionID uint        `json:"question_id"`
	Data       interface{} `json:"data,omitempty"`
	At         time.Time   `json:"at"`
}

// Publisher fans events out to connected clients. Publishing is best effort:
// committed state never depends on it.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type redisPublisher struct {
	redisClient *redis.Client
	logger      zerolog.Logger
}

// NewPublisher returns a publisher backed by redis. A nil client yields a
// publisher that drops every event.
func NewPublisher(redisClient *redis.Client, logger zerolog.Logger) Publisher {
	if redisClient == nil {
		return noopPublisher{}
	}
	return &redisPublisher{redisClient: redisClient, logger: logger}
}

func (p *redisPublisher) Publish(ctx context.Context, evt Event) error {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.redisClient.Publish(ctx, Channel, payload).Err(); err != nil {
		p.logger.Warn().Err(err).Str("type", evt.Type).Msg("failed to publish debate event")
		return err
	}
	return nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) error { return nil }
