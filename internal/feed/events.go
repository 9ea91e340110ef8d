// Package feed implements community membership, posts, likes and comments,
// and carries new posts to subscribers over NATS.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/julianstephens/goalkeeper/internal/constants"
	"github.com/julianstephens/goalkeeper/internal/logger"
	"github.com/julianstephens/goalkeeper/internal/metrics"
	"github.com/julianstephens/goalkeeper/internal/models"
)

const EventPostCreated = "post.created"

type Event struct {
	Type string      `json:"type"`
	Post models.Post `json:"post"`
}

// Subject returns the NATS subject for a community's events.
func Subject(communityID string) string {
	return constants.FeedSubjectPrefix + "." + communityID
}

// Publisher delivers feed events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NATSPublisher publishes events as JSON on the community subject.
type NATSPublisher struct {
	nc *nats.Conn
}

func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode feed event: %w", err)
	}
	if err := p.nc.Publish(Subject(ev.Post.CommunityID), data); err != nil {
		return fmt.Errorf("failed to publish feed event: %w", err)
	}
	metrics.Get().FeedEvents.WithLabelValues("published").Inc()
	return nil
}

// Subscribe delivers a community's events to fn until ctx is done. fn runs on
// a single goroutine, in publish order. Malformed messages are skipped.
func Subscribe(ctx context.Context, nc *nats.Conn, communityID string, fn func(Event)) error {
	ch := make(chan *nats.Msg, 64)
	sub, err := nc.ChanSubscribe(Subject(communityID), ch)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", Subject(communityID), err)
	}

	go func() {
		defer func() { _ = sub.Unsubscribe() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-ch:
				var ev Event
				if err := json.Unmarshal(msg.Data, &ev); err != nil {
					logger.Warn("Dropping malformed feed event", "subject", msg.Subject, "error", err)
					continue
				}
				fn(ev)
			}
		}
	}()
	return nil
}
