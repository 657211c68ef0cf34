// Package eventbus publishes status-change audit events.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"servicehub/internal/logger"
)

// StatusChanged is emitted after every committed status transition.
type StatusChanged struct {
	Entity         string `json:"entity"`
	EntityID       string `json:"entityId"`
	OrganizationID string `json:"organizationId,omitempty"`
	From           string `json:"from"`
	To             string `json:"to"`
	Reason         string `json:"reason,omitempty"`
	UpdatedBy      string `json:"updatedBy"`
	UpdatedAt      int64  `json:"updatedAt"`
}

// Publisher sends events. Publish errors are for logging only; callers never fail on them.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, ev StatusChanged) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishStatusChanged(context.Context, StatusChanged) error { return nil }

// PubSub publishes to one Google Pub/Sub topic.
type PubSub struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSub opens a client for projectID and binds topic. When create is true a missing
// topic is created.
func NewPubSub(ctx context.Context, projectID, topic, credentialsJSON string, create bool) (*PubSub, error) {
	if projectID == "" || topic == "" {
		return nil, fmt.Errorf("pubsub project and topic are required")
	}
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	t := client.Topic(topic)
	if create {
		ok, err := t.Exists(ctx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("check topic %q: %w", topic, err)
		}
		if !ok {
			if t, err = client.CreateTopic(ctx, topic); err != nil {
				client.Close()
				return nil, fmt.Errorf("create topic %q: %w", topic, err)
			}
		}
	}
	return &PubSub{client: client, topic: t}, nil
}

// PublishStatusChanged publishes ev and waits for the server id.
func (p *PubSub) PublishStatusChanged(ctx context.Context, ev StatusChanged) error {
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"entity": ev.Entity,
			"status": ev.To,
		},
	})
	id, err := res.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish status change: %w", err)
	}
	logger.WithModule("eventbus").WithField("messageId", id).Debug("status change published")
	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSub) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

// Encode renders ev as the message payload.
func Encode(ev StatusChanged) ([]byte, error) {
	return json.Marshal(ev)
}

// Emit publishes ev on a detached context and logs a failure.
func Emit(ctx context.Context, p Publisher, ev StatusChanged) {
	if p == nil {
		return
	}
	if err := p.PublishStatusChanged(context.WithoutCancel(ctx), ev); err != nil {
		logger.WithModule("eventbus").WithError(err).WithFields(map[string]interface{}{
			"entity":   ev.Entity,
			"entityId": ev.EntityID,
		}).Warn("status change not published")
	}
}
