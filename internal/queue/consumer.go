// Package queue adapts the Pub/Sub subscription to the pipeline's
// per-message handler. The consumer owns the ack/nack calls; business logic
// never touches message delivery mechanics.
package queue

import (
	"context"

	"cloud.google.com/go/pubsub"
	"github.com/pointsworks/pointstream/internal/pipeline"
	"go.uber.org/zap"
)

type Consumer struct {
	sub     *pubsub.Subscription
	handler pipeline.MessageHandler
	log     *zap.Logger
}

func NewConsumer(sub *pubsub.Subscription, handler pipeline.MessageHandler, log *zap.Logger) *Consumer {
	return &Consumer{
		sub:     sub,
		handler: handler,
		log:     log.Named("queue.consumer"),
	}
}

// Run blocks receiving messages until ctx is cancelled. The subscription may
// deliver concurrently; the handler is stateless, so no coordination is
// needed here.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("listening for order-ready messages", zap.String("subscription", c.sub.ID()))
	return c.sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		d := pipeline.Delivery{
			ID:         m.ID,
			Key:        string(m.Data),
			Attributes: m.Attributes,
		}
		switch c.handler.Handle(ctx, d) {
		case pipeline.Requeue:
			m.Nack()
		default:
			m.Ack()
		}
	})
}
