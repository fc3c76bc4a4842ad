package main

import (
	"github.com/pointsworks/pointstream/internal/clock"
	"github.com/pointsworks/pointstream/internal/config"
	"github.com/pointsworks/pointstream/internal/docstore"
	"github.com/pointsworks/pointstream/internal/metrics"
	"github.com/pointsworks/pointstream/internal/observability"
	"github.com/pointsworks/pointstream/internal/pipeline"
	"github.com/pointsworks/pointstream/internal/queue"
	"github.com/pointsworks/pointstream/internal/server"
	"github.com/pointsworks/pointstream/internal/warehouse"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		metrics.Module,
		clock.Module,

		docstore.Module,
		warehouse.Module,
		pipeline.Module,
		queue.Module,
		server.Module,
	)
	app.Run()
}
