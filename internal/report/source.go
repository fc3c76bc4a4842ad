package report

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// BigQuerySource reads commission details joined with the contacts table.
type BigQuerySource struct {
	client        *bigquery.Client
	projectID     string
	datasetID     string
	reportTable   string
	contactsTable string
}

func NewBigQuerySource(client *bigquery.Client, projectID, datasetID, reportTable, contactsTable string) *BigQuerySource {
	return &BigQuerySource{
		client:        client,
		projectID:     projectID,
		datasetID:     datasetID,
		reportTable:   reportTable,
		contactsTable: contactsTable,
	}
}

func (s *BigQuerySource) CommissionRows(ctx context.Context) ([]CommissionRow, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT c.customer_tax_id, c.email, cd.customer_name, cd.final_tier,
		       cd.order_date, cd.order_number, cd.seller_name,
		       cd.order_value, cd.cashback
		FROM %s AS c
		JOIN %s AS cd ON c.customer_tax_id = cd.customer_tax_id`,
		s.tableRef(s.contactsTable), s.tableRef(s.reportTable)))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read commission rows: %w", err)
	}

	var rows []CommissionRow
	for {
		var row CommissionRow
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate commission rows: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *BigQuerySource) tableRef(table string) string {
	return fmt.Sprintf("`%s.%s.%s`", s.projectID, s.datasetID, table)
}
