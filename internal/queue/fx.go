package queue

import (
	"context"

	"cloud.google.com/go/pubsub"
	"github.com/pointsworks/pointstream/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("queue",
	fx.Provide(NewClient),
	fx.Provide(func(client *pubsub.Client, cfg config.Config) *pubsub.Subscription {
		return client.Subscription(cfg.Queue.SubscriptionID)
	}),
	fx.Provide(NewConsumer),
	fx.Invoke(Run),
)

func NewClient(lc fx.Lifecycle, cfg config.Config) (*pubsub.Client, error) {
	client, err := pubsub.NewClient(context.Background(), cfg.Project.ID)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

// Run starts the receive loop on app start and stops it on shutdown.
func Run(lc fx.Lifecycle, c *Consumer, sd fx.Shutdowner, log *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := c.Run(ctx); err != nil && ctx.Err() == nil {
					log.Error("consumer stopped unexpectedly", zap.Error(err))
					_ = sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
