package warehouse

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/pointsworks/pointstream/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("warehouse",
	fx.Provide(NewClient),
	fx.Provide(func(client *bigquery.Client, cfg config.Config, log *zap.Logger) *Writer {
		return NewWriter(client, cfg.Warehouse.DatasetID, cfg.Warehouse.OrdersTable, cfg.Warehouse.OrderItemsTable, log)
	}),
	fx.Provide(func(w *Writer) Sink { return w }),
)

func NewClient(lc fx.Lifecycle, cfg config.Config) (*bigquery.Client, error) {
	client, err := bigquery.NewClient(context.Background(), cfg.Project.ID)
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
