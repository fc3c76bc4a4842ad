package warehouse

import (
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldNames(schema bigquery.Schema) []string {
	names := make([]string, 0, len(schema))
	for _, f := range schema {
		names = append(names, f.Name)
	}
	return names
}

func TestOrderTableMetadata(t *testing.T) {
	meta, err := orderTableMetadata()
	require.NoError(t, err)

	require.NotNil(t, meta.TimePartitioning)
	assert.Equal(t, bigquery.DayPartitioningType, meta.TimePartitioning.Type)
	assert.Equal(t, "order_date", meta.TimePartitioning.Field)

	require.NotNil(t, meta.Clustering)
	assert.Equal(t, []string{"customer_tax_id", "seller_id"}, meta.Clustering.Fields)

	require.NotNil(t, meta.TableConstraints)
	require.NotNil(t, meta.TableConstraints.PrimaryKey)
	assert.Equal(t, []string{"correlation_key", "order_id"}, meta.TableConstraints.PrimaryKey.Columns)
	assert.Empty(t, meta.TableConstraints.ForeignKeys)

	names := fieldNames(meta.Schema)
	for _, want := range []string{
		"correlation_key", "order_id", "timestamp", "order_date",
		"order_number", "customer_name", "customer_tax_id", "seller_name",
		"seller_id", "order_value", "loyalty_multiplier",
		"situational_multiplier", "final_multiplier", "order_points",
		"project_id", "source_identifier", "schema_version", "processed_at",
	} {
		assert.Contains(t, names, want)
	}
}

func TestItemTableMetadata(t *testing.T) {
	orders := &bigquery.Table{ProjectID: "proj", DatasetID: "loyalty", TableID: "orders"}
	meta, err := itemTableMetadata(orders)
	require.NoError(t, err)

	require.NotNil(t, meta.TimePartitioning)
	assert.Equal(t, "order_date", meta.TimePartitioning.Field)

	require.NotNil(t, meta.Clustering)
	assert.Equal(t, []string{"customer_tax_id", "seller_id", "product_id"}, meta.Clustering.Fields)

	require.NotNil(t, meta.TableConstraints)
	require.NotNil(t, meta.TableConstraints.PrimaryKey)
	assert.Equal(t, []string{"correlation_key", "order_id", "product_id"}, meta.TableConstraints.PrimaryKey.Columns)

	require.Len(t, meta.TableConstraints.ForeignKeys, 1)
	fk := meta.TableConstraints.ForeignKeys[0]
	assert.Equal(t, "fk_order", fk.Name)
	assert.Same(t, orders, fk.ReferencedTable)
	require.Len(t, fk.ColumnReferences, 2)
	assert.Equal(t, "correlation_key", fk.ColumnReferences[0].ReferencingColumn)
	assert.Equal(t, "order_id", fk.ColumnReferences[1].ReferencingColumn)

	names := fieldNames(meta.Schema)
	for _, want := range []string{
		"product_id", "product_description", "product_category_first",
		"product_category_second", "quantity", "unit_price", "value_total",
		"product_multiplier", "item_points",
	} {
		assert.Contains(t, names, want)
	}
}

func TestSchemasAreFullyRequired(t *testing.T) {
	for _, build := range []func() (bigquery.Schema, error){orderSchema, itemSchema} {
		schema, err := build()
		require.NoError(t, err)
		for _, f := range schema {
			assert.True(t, f.Required, "field %s should be required", f.Name)
		}
	}
}

func TestInsertReportEmpty(t *testing.T) {
	assert.True(t, InsertReport{}.Empty())
	assert.False(t, InsertReport{Orders: []RowError{{RowIndex: 0}}}.Empty())
	assert.False(t, InsertReport{Items: []RowError{{RowIndex: 2, Reasons: []string{"bad field"}}}}.Empty())
}
