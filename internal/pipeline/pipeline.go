// Package pipeline drives one message through correlate → assemble →
// persist and decides the acknowledgement disposition. Business outcomes
// never requeue: every processing attempt, successful or not, acknowledges,
// trading redelivery-driven retries for poison-message immunity.
package pipeline

import (
	"context"
	"time"

	"github.com/pointsworks/pointstream/internal/assemble"
	"github.com/pointsworks/pointstream/internal/correlate"
	"github.com/pointsworks/pointstream/internal/docstore"
	"github.com/pointsworks/pointstream/internal/metrics"
	"github.com/pointsworks/pointstream/internal/warehouse"
	"go.uber.org/zap"
)

// Disposition is the handler's verdict on a delivery. The consumer loop owns
// the actual ack/nack call.
type Disposition int

const (
	Ack Disposition = iota
	Requeue
)

// Delivery is one queue message: an opaque correlation key plus attributes.
type Delivery struct {
	ID         string
	Key        string
	Attributes map[string]string
}

type Correlator interface {
	Correlate(ctx context.Context, key string) (correlate.Bundle, error)
}

type Assembler interface {
	Assemble(ctx context.Context, in assemble.Input) (*warehouse.OrderRow, []warehouse.ItemRow, error)
}

// MessageHandler is what the queue consumer invokes per delivery.
type MessageHandler interface {
	Handle(ctx context.Context, d Delivery) Disposition
}

type Handler struct {
	correlator Correlator
	assembler  Assembler
	sink       warehouse.Sink
	metrics    *metrics.Registry
	log        *zap.Logger
}

func NewHandler(correlator Correlator, assembler Assembler, sink warehouse.Sink, reg *metrics.Registry, log *zap.Logger) *Handler {
	return &Handler{
		correlator: correlator,
		assembler:  assembler,
		sink:       sink,
		metrics:    reg,
		log:        log.Named("pipeline"),
	}
}

// Handle processes one delivery to completion. The handler is stateless and
// safe for concurrent deliveries; no two share mutable state.
func (h *Handler) Handle(ctx context.Context, d Delivery) (disp Disposition) {
	h.metrics.MessagesReceived.Inc()
	log := h.log.With(zap.String("correlation_key", d.Key), zap.String("message_id", d.ID))

	// Unexpected failures anywhere below are caught here: logged with
	// context and the message acknowledged anyway.
	defer func() {
		if r := recover(); r != nil {
			h.metrics.HandlerPanics.Inc()
			log.Error("panic while processing message", zap.Any("panic", r))
			disp = Ack
		}
		if disp == Ack {
			h.metrics.MessagesAcked.Inc()
		}
	}()

	// A delivery without the timestamp attribute is acknowledged without
	// any processing.
	raw, ok := d.Attributes[docstore.MetaProcessingTimestamp]
	if !ok || raw == "" {
		h.metrics.MissingTimestamp.Inc()
		log.Warn("delivery without processing timestamp attribute")
		return Ack
	}
	if _, err := time.Parse(time.RFC3339, raw); err != nil {
		h.metrics.MissingTimestamp.Inc()
		log.Warn("delivery with unparsable processing timestamp attribute",
			zap.String("value", raw), zap.Error(err))
		return Ack
	}

	bundle, err := h.correlator.Correlate(ctx, d.Key)
	if err != nil {
		log.Error("document correlation failed", zap.Error(err))
		return Ack
	}
	if missing := bundle.Missing(); len(missing) > 0 {
		h.metrics.BundlesIncomplete.Inc()
		log.Warn("incomplete document bundle, skipping persistence",
			zap.Strings("missing", missing))
		return Ack
	}

	orderRow, itemRows, err := h.assembler.Assemble(ctx, assemble.Input{
		Key:            d.Key,
		Survey:         bundle.Survey,
		Order:          bundle.Order,
		Products:       bundle.Products,
		ProcessingTime: bundle.ProcessingTime,
	})
	if err != nil {
		h.metrics.AssemblyFailures.Inc()
		log.Warn("row assembly failed", zap.Error(err))
		return Ack
	}
	if dropped := len(bundle.Order.Order.Items) - len(itemRows); dropped > 0 {
		h.metrics.ItemsDropped.Add(float64(dropped))
	}

	report, err := h.sink.Persist(ctx, orderRow, itemRows)
	if err != nil {
		log.Error("warehouse write failed", zap.Error(err))
		return Ack
	}
	if !report.Empty() {
		h.metrics.InsertRowErrors.Add(float64(len(report.Orders) + len(report.Items)))
		log.Error("warehouse rejected rows",
			zap.Int("order_row_errors", len(report.Orders)),
			zap.Int("item_row_errors", len(report.Items)))
		return Ack
	}

	h.metrics.OrdersPersisted.Inc()
	log.Info("order persisted",
		zap.String("order_id", orderRow.OrderID),
		zap.Int("items", len(itemRows)),
		zap.Float64("order_value", orderRow.OrderValue),
		zap.Float64("order_points", orderRow.OrderPoints))
	return Ack
}
