package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pointsworks/pointstream/internal/assemble"
	"github.com/pointsworks/pointstream/internal/clock"
	"github.com/pointsworks/pointstream/internal/correlate"
	"github.com/pointsworks/pointstream/internal/docstore"
	"github.com/pointsworks/pointstream/internal/metrics"
	"github.com/pointsworks/pointstream/internal/points"
	"github.com/pointsworks/pointstream/internal/warehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testProcessing = time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC)

type fakeCorrelator struct {
	bundle correlate.Bundle
	err    error
}

func (f *fakeCorrelator) Correlate(ctx context.Context, key string) (correlate.Bundle, error) {
	return f.bundle, f.err
}

type fakeSink struct {
	mu     sync.Mutex
	orders []*warehouse.OrderRow
	items  [][]warehouse.ItemRow
	report warehouse.InsertReport
	err    error
}

func (f *fakeSink) Persist(ctx context.Context, order *warehouse.OrderRow, items []warehouse.ItemRow) (warehouse.InsertReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return warehouse.InsertReport{}, f.err
	}
	f.orders = append(f.orders, order)
	f.items = append(f.items, items)
	return f.report, nil
}

type panicAssembler struct{}

func (panicAssembler) Assemble(ctx context.Context, in assemble.Input) (*warehouse.OrderRow, []warehouse.ItemRow, error) {
	panic("boom")
}

func completeBundle() correlate.Bundle {
	return correlate.Bundle{
		Survey: &correlate.SurveyDocument{Orders: []correlate.SurveyOrder{
			{SellerName: "Maria", SellerID: "77"},
		}},
		Order: &correlate.OrderDocument{Order: correlate.OrderPayload{
			ID:       "900",
			Number:   "45",
			Date:     "01/03/2024",
			Customer: correlate.CustomerPayload{Name: "Joana", TaxID: "123.456.789-00"},
			Items: []correlate.ItemPayload{
				{ProductID: "p1", Description: "Coffee beans", Quantity: "2", UnitPrice: "10.00"},
				{ProductID: "p2", Description: "Mystery item", Quantity: "1", UnitPrice: "50.00"},
			},
		}},
		Products: map[string]*correlate.ProductDocument{
			"p1": {Product: correlate.ProductPayload{Notes: "promo {{0.05}}", Category: "Food >> Coffee"}},
		},
		ProcessingTime: testProcessing,
	}
}

func newAssembler() Assembler {
	rates := points.Rates{Loyalty: 0.02, Morning: 0.03}
	prov := assemble.Provenance{ProjectID: "proj", SourceIdentifier: "pos-intake", SchemaVersion: "v3"}
	return assemble.New(rates, prov, clock.Fixed{T: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}, zap.NewNop())
}

func newHandler(c Correlator, a Assembler, s warehouse.Sink) (*Handler, *metrics.Registry) {
	reg := metrics.NewRegistry()
	return NewHandler(c, a, s, reg, zap.NewNop()), reg
}

func delivery() Delivery {
	return Delivery{
		ID:  "m-1",
		Key: "abc123",
		Attributes: map[string]string{
			docstore.MetaProcessingTimestamp: testProcessing.Format(time.RFC3339),
		},
	}
}

func TestHandleSuccess(t *testing.T) {
	sink := &fakeSink{}
	h, _ := newHandler(&fakeCorrelator{bundle: completeBundle()}, newAssembler(), sink)

	disp := h.Handle(context.Background(), delivery())
	assert.Equal(t, Ack, disp)

	require.Len(t, sink.orders, 1)
	assert.Equal(t, "abc123", sink.orders[0].CorrelationKey)
	assert.Equal(t, "900", sink.orders[0].OrderID)
	require.Len(t, sink.items, 1)
	assert.Len(t, sink.items[0], 1) // p2 has no product document
}

func TestHandleMissingTimestampAttribute(t *testing.T) {
	tests := []struct {
		name  string
		attrs map[string]string
	}{
		{name: "absent", attrs: nil},
		{name: "empty", attrs: map[string]string{docstore.MetaProcessingTimestamp: ""}},
		{name: "unparsable", attrs: map[string]string{docstore.MetaProcessingTimestamp: "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &fakeSink{}
			correlator := &fakeCorrelator{err: errors.New("should not be called")}
			h, _ := newHandler(correlator, newAssembler(), sink)

			disp := h.Handle(context.Background(), Delivery{ID: "m-1", Key: "abc123", Attributes: tt.attrs})
			assert.Equal(t, Ack, disp)
			assert.Empty(t, sink.orders)
		})
	}
}

func TestHandleIncompleteBundle(t *testing.T) {
	bundle := completeBundle()
	bundle.Survey = nil
	sink := &fakeSink{}
	h, _ := newHandler(&fakeCorrelator{bundle: bundle}, newAssembler(), sink)

	disp := h.Handle(context.Background(), delivery())
	assert.Equal(t, Ack, disp)
	assert.Empty(t, sink.orders)
}

func TestHandleCorrelateError(t *testing.T) {
	sink := &fakeSink{}
	h, _ := newHandler(&fakeCorrelator{err: errors.New("bucket unavailable")}, newAssembler(), sink)

	disp := h.Handle(context.Background(), delivery())
	assert.Equal(t, Ack, disp)
	assert.Empty(t, sink.orders)
}

func TestHandleAssemblyFailure(t *testing.T) {
	bundle := completeBundle()
	bundle.Order.Order.ID = ""
	sink := &fakeSink{}
	h, _ := newHandler(&fakeCorrelator{bundle: bundle}, newAssembler(), sink)

	disp := h.Handle(context.Background(), delivery())
	assert.Equal(t, Ack, disp)
	assert.Empty(t, sink.orders)
}

func TestHandleSinkError(t *testing.T) {
	sink := &fakeSink{err: errors.New("dataset unavailable")}
	h, _ := newHandler(&fakeCorrelator{bundle: completeBundle()}, newAssembler(), sink)

	disp := h.Handle(context.Background(), delivery())
	assert.Equal(t, Ack, disp)
}

func TestHandleRowErrorsStillAck(t *testing.T) {
	sink := &fakeSink{report: warehouse.InsertReport{
		Orders: []warehouse.RowError{{RowIndex: 0, Reasons: []string{"invalid field"}}},
	}}
	h, _ := newHandler(&fakeCorrelator{bundle: completeBundle()}, newAssembler(), sink)

	disp := h.Handle(context.Background(), delivery())
	assert.Equal(t, Ack, disp)
}

func TestHandlePanicRecovered(t *testing.T) {
	sink := &fakeSink{}
	h, _ := newHandler(&fakeCorrelator{bundle: completeBundle()}, panicAssembler{}, sink)

	var disp Disposition
	assert.NotPanics(t, func() {
		disp = h.Handle(context.Background(), delivery())
	})
	assert.Equal(t, Ack, disp)
}

// Redelivering the same message writes a second, duplicate pair of rows:
// write-time deduplication is deliberately absent, the table keys are
// advisory only.
func TestHandleRedeliveryDuplicatesRows(t *testing.T) {
	sink := &fakeSink{}
	h, _ := newHandler(&fakeCorrelator{bundle: completeBundle()}, newAssembler(), sink)

	d := delivery()
	assert.Equal(t, Ack, h.Handle(context.Background(), d))
	assert.Equal(t, Ack, h.Handle(context.Background(), d))

	require.Len(t, sink.orders, 2)
	assert.Equal(t, sink.orders[0].CorrelationKey, sink.orders[1].CorrelationKey)
	assert.Equal(t, sink.orders[0].OrderID, sink.orders[1].OrderID)
}

// The handler keeps no per-delivery state; concurrent deliveries must not
// interfere.
func TestHandleConcurrentDeliveries(t *testing.T) {
	sink := &fakeSink{}
	h, _ := newHandler(&fakeCorrelator{bundle: completeBundle()}, newAssembler(), sink)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, Ack, h.Handle(context.Background(), delivery()))
		}()
	}
	wg.Wait()
	assert.Len(t, sink.orders, n)
}
