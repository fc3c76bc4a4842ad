package warehouse

import (
	"time"

	"cloud.google.com/go/civil"
)

// OrderRow is one denormalized order-level record. Identity is the advisory
// primary key (correlation_key, order_id); the sink does not enforce it, so
// redelivery of the same message appends a duplicate row.
type OrderRow struct {
	CorrelationKey string     `bigquery:"correlation_key"`
	OrderID        string     `bigquery:"order_id"`
	Timestamp      time.Time  `bigquery:"timestamp"`
	OrderDate      civil.Date `bigquery:"order_date"`
	OrderNumber    string     `bigquery:"order_number"`
	CustomerName   string     `bigquery:"customer_name"`
	CustomerTaxID  string     `bigquery:"customer_tax_id"`
	SellerName     string     `bigquery:"seller_name"`
	SellerID       string     `bigquery:"seller_id"`

	// OrderValue and OrderPoints are re-derived sums over the retained item
	// rows, not the order document's own totals.
	OrderValue            float64 `bigquery:"order_value"`
	LoyaltyMultiplier     float64 `bigquery:"loyalty_multiplier"`
	SituationalMultiplier float64 `bigquery:"situational_multiplier"`
	FinalMultiplier       float64 `bigquery:"final_multiplier"`
	OrderPoints           float64 `bigquery:"order_points"`

	ProjectID        string    `bigquery:"project_id"`
	SourceIdentifier string    `bigquery:"source_identifier"`
	SchemaVersion    string    `bigquery:"schema_version"`
	ProcessedAt      time.Time `bigquery:"processed_at"`
}

// ItemRow is one denormalized line-item record, advisory-keyed by
// (correlation_key, order_id, product_id).
type ItemRow struct {
	CorrelationKey string     `bigquery:"correlation_key"`
	OrderID        string     `bigquery:"order_id"`
	ProductID      string     `bigquery:"product_id"`
	Timestamp      time.Time  `bigquery:"timestamp"`
	OrderDate      civil.Date `bigquery:"order_date"`
	OrderNumber    string     `bigquery:"order_number"`
	CustomerName   string     `bigquery:"customer_name"`
	CustomerTaxID  string     `bigquery:"customer_tax_id"`
	SellerName     string     `bigquery:"seller_name"`
	SellerID       string     `bigquery:"seller_id"`

	ProductDescription string `bigquery:"product_description"`
	CategoryFirst      string `bigquery:"product_category_first"`
	CategorySecond     string `bigquery:"product_category_second"`

	Quantity   float64 `bigquery:"quantity"`
	UnitPrice  float64 `bigquery:"unit_price"`
	ValueTotal float64 `bigquery:"value_total"`

	ProductMultiplier     float64 `bigquery:"product_multiplier"`
	LoyaltyMultiplier     float64 `bigquery:"loyalty_multiplier"`
	SituationalMultiplier float64 `bigquery:"situational_multiplier"`
	FinalMultiplier       float64 `bigquery:"final_multiplier"`
	ItemPoints            float64 `bigquery:"item_points"`

	ProjectID        string    `bigquery:"project_id"`
	SourceIdentifier string    `bigquery:"source_identifier"`
	SchemaVersion    string    `bigquery:"schema_version"`
	ProcessedAt      time.Time `bigquery:"processed_at"`
}
