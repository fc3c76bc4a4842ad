package docstore

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/pointsworks/pointstream/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("docstore",
	fx.Provide(NewClient),
	fx.Provide(func(client *storage.Client, cfg config.Config, log *zap.Logger) *GCSStore {
		return NewGCSStore(client, cfg.Docstore.Bucket, log)
	}),
	fx.Provide(func(s *GCSStore) Store { return s }),
	fx.Provide(func(s *GCSStore) Pinger { return s }),
)

func NewClient(lc fx.Lifecycle) (*storage.Client, error) {
	client, err := storage.NewClient(context.Background())
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
