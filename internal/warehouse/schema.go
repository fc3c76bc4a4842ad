package warehouse

import (
	"fmt"

	"cloud.google.com/go/bigquery"
)

const partitionField = "order_date"

var (
	orderKeyColumns = []string{"correlation_key", "order_id"}
	itemKeyColumns  = []string{"correlation_key", "order_id", "product_id"}

	orderClusterFields = []string{"customer_tax_id", "seller_id"}
	itemClusterFields  = []string{"customer_tax_id", "seller_id", "product_id"}
)

func orderSchema() (bigquery.Schema, error) {
	return bigquery.InferSchema(OrderRow{})
}

func itemSchema() (bigquery.Schema, error) {
	return bigquery.InferSchema(ItemRow{})
}

// orderTableMetadata declares the order table: day-partitioned on the order
// date, clustered by customer and seller, with an advisory primary key.
func orderTableMetadata() (*bigquery.TableMetadata, error) {
	schema, err := orderSchema()
	if err != nil {
		return nil, fmt.Errorf("infer order schema: %w", err)
	}
	return &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: partitionField,
		},
		Clustering: &bigquery.Clustering{Fields: orderClusterFields},
		TableConstraints: &bigquery.TableConstraints{
			PrimaryKey: &bigquery.PrimaryKey{Columns: orderKeyColumns},
		},
	}, nil
}

// itemTableMetadata declares the item table. The foreign key back to the
// order table is documentation for readers and the query optimizer; the
// warehouse never enforces it.
func itemTableMetadata(ordersTable *bigquery.Table) (*bigquery.TableMetadata, error) {
	schema, err := itemSchema()
	if err != nil {
		return nil, fmt.Errorf("infer item schema: %w", err)
	}
	return &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: partitionField,
		},
		Clustering: &bigquery.Clustering{Fields: itemClusterFields},
		TableConstraints: &bigquery.TableConstraints{
			PrimaryKey: &bigquery.PrimaryKey{Columns: itemKeyColumns},
			ForeignKeys: []*bigquery.ForeignKey{
				{
					Name:            "fk_order",
					ReferencedTable: ordersTable,
					ColumnReferences: []*bigquery.ColumnReference{
						{ReferencingColumn: "correlation_key", ReferencedColumn: "correlation_key"},
						{ReferencingColumn: "order_id", ReferencedColumn: "order_id"},
					},
				},
			},
		},
	}, nil
}
