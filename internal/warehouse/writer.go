package warehouse

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

// RowError is one warehouse-reported row failure.
type RowError struct {
	RowIndex int
	Reasons  []string
}

// InsertReport collects per-table row errors from one persist attempt.
// Field-level errors are reported, not raised; the caller owns ack policy.
type InsertReport struct {
	Orders []RowError
	Items  []RowError
}

func (r InsertReport) Empty() bool {
	return len(r.Orders) == 0 && len(r.Items) == 0
}

// Sink is what the pipeline needs from the warehouse.
type Sink interface {
	Persist(ctx context.Context, order *OrderRow, items []ItemRow) (InsertReport, error)
}

// Writer persists assembled rows into BigQuery, provisioning the dataset and
// tables on first use. Safe for concurrent use.
type Writer struct {
	client          *bigquery.Client
	datasetID       string
	ordersTable     string
	orderItemsTable string
	log             *zap.Logger
}

func NewWriter(client *bigquery.Client, datasetID, ordersTable, orderItemsTable string, log *zap.Logger) *Writer {
	return &Writer{
		client:          client,
		datasetID:       datasetID,
		ordersTable:     ordersTable,
		orderItemsTable: orderItemsTable,
		log:             log.Named("warehouse.writer"),
	}
}

// Persist ensures the destination exists, re-asserts schema and key
// declarations, then appends the order row and all item rows. The two
// inserts are not atomic with each other and the declared keys are advisory:
// redelivered messages append duplicates.
func (w *Writer) Persist(ctx context.Context, order *OrderRow, items []ItemRow) (InsertReport, error) {
	ds := w.client.Dataset(w.datasetID)
	orders := ds.Table(w.ordersTable)
	orderItems := ds.Table(w.orderItemsTable)

	if err := w.ensureDataset(ctx, ds); err != nil {
		return InsertReport{}, err
	}

	orderMeta, err := orderTableMetadata()
	if err != nil {
		return InsertReport{}, err
	}
	itemMeta, err := itemTableMetadata(orders)
	if err != nil {
		return InsertReport{}, err
	}

	if err := w.ensureTable(ctx, orders, orderMeta); err != nil {
		return InsertReport{}, err
	}
	if err := w.ensureTable(ctx, orderItems, itemMeta); err != nil {
		return InsertReport{}, err
	}

	var report InsertReport
	report.Orders = w.insert(ctx, orders, []*OrderRow{order})
	if len(items) > 0 {
		report.Items = w.insert(ctx, orderItems, items)
	}

	if !report.Empty() {
		w.log.Error("warehouse reported row errors",
			zap.String("correlation_key", order.CorrelationKey),
			zap.Int("order_row_errors", len(report.Orders)),
			zap.Int("item_row_errors", len(report.Items)))
	}
	return report, nil
}

func (w *Writer) ensureDataset(ctx context.Context, ds *bigquery.Dataset) error {
	_, err := ds.Metadata(ctx)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("dataset metadata: %w", err)
	}
	w.log.Info("creating dataset", zap.String("dataset", w.datasetID))
	if err := ds.Create(ctx, &bigquery.DatasetMetadata{}); err != nil && !alreadyExists(err) {
		return fmt.Errorf("create dataset: %w", err)
	}
	return nil
}

// ensureTable creates the table when absent and re-asserts the schema and
// key declarations on every write path.
func (w *Writer) ensureTable(ctx context.Context, table *bigquery.Table, meta *bigquery.TableMetadata) error {
	_, err := table.Metadata(ctx)
	if isNotFound(err) {
		w.log.Info("creating table", zap.String("table", table.TableID))
		if err := table.Create(ctx, meta); err != nil && !alreadyExists(err) {
			return fmt.Errorf("create table %s: %w", table.TableID, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("table metadata %s: %w", table.TableID, err)
	}

	update := bigquery.TableMetadataToUpdate{
		Schema:           meta.Schema,
		TableConstraints: meta.TableConstraints,
	}
	if _, err := table.Update(ctx, update, ""); err != nil {
		return fmt.Errorf("update table %s: %w", table.TableID, err)
	}
	return nil
}

// insert appends rows and flattens any PutMultiError into row errors.
func (w *Writer) insert(ctx context.Context, table *bigquery.Table, rows any) []RowError {
	err := table.Inserter().Put(ctx, rows)
	if err == nil {
		return nil
	}

	var multi bigquery.PutMultiError
	if errors.As(err, &multi) {
		out := make([]RowError, 0, len(multi))
		for _, rowErr := range multi {
			re := RowError{RowIndex: rowErr.RowIndex}
			for _, e := range rowErr.Errors {
				re.Reasons = append(re.Reasons, e.Error())
			}
			out = append(out, re)
		}
		return out
	}

	return []RowError{{RowIndex: -1, Reasons: []string{err.Error()}}}
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

func alreadyExists(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}
