// Package assemble turns a correlated document bundle into warehouse rows.
// It is the sole producer of OrderRow/ItemRow values.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/pointsworks/pointstream/internal/clock"
	"github.com/pointsworks/pointstream/internal/correlate"
	"github.com/pointsworks/pointstream/internal/points"
	"github.com/pointsworks/pointstream/internal/warehouse"
	"go.uber.org/zap"
)

// categorySeparator splits the product taxonomy path into hierarchy levels.
const categorySeparator = " >> "

// orderDateLayout is the upstream ERP's dd/mm/yyyy calendar date.
const orderDateLayout = "02/01/2006"

var (
	ErrMissingSeller    = errors.New("survey document carries no seller identity")
	ErrMissingOrderID   = errors.New("order document carries no order id")
	ErrMissingOrderNum  = errors.New("order document carries no order number")
	ErrInvalidOrderDate = errors.New("order document carries no parsable order date")
)

// Provenance is stamped onto every emitted row.
type Provenance struct {
	ProjectID        string
	SourceIdentifier string
	SchemaVersion    string
}

// Input is one correlated message ready for assembly. Callers must have
// checked bundle completeness; Survey and Order are non-nil here.
type Input struct {
	Key            string
	Survey         *correlate.SurveyDocument
	Order          *correlate.OrderDocument
	Products       map[string]*correlate.ProductDocument
	ProcessingTime time.Time
}

type Assembler struct {
	rates points.Rates
	prov  Provenance
	clock clock.Clock
	log   *zap.Logger
}

func New(rates points.Rates, prov Provenance, clk clock.Clock, log *zap.Logger) *Assembler {
	return &Assembler{
		rates: rates,
		prov:  prov,
		clock: clk,
		log:   log.Named("assemble"),
	}
}

// Assemble builds one order row and the retained item rows. A missing
// required header field fails the whole message; a line item whose product
// metadata is absent is dropped with a warning and contributes nothing to
// the order aggregates.
func (a *Assembler) Assemble(ctx context.Context, in Input) (*warehouse.OrderRow, []warehouse.ItemRow, error) {
	sellerName, sellerID, ok := in.Survey.Seller()
	if !ok {
		return nil, nil, ErrMissingSeller
	}

	order := in.Order.Order
	if order.ID == "" {
		return nil, nil, ErrMissingOrderID
	}
	if order.Number == "" {
		return nil, nil, ErrMissingOrderNum
	}
	orderDate, err := parseOrderDate(order.Date)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidOrderDate, err)
	}

	localTS := points.Local(in.ProcessingTime)
	processedAt := a.clock.Now(ctx)
	situational := points.SituationalRate(a.rates, in.ProcessingTime)

	itemRows := make([]warehouse.ItemRow, 0, len(order.Items))
	for _, item := range order.Items {
		product, found := in.Products[item.ProductID]
		if !found {
			a.log.Warn("dropping item without product metadata",
				zap.String("correlation_key", in.Key),
				zap.String("order_id", order.ID),
				zap.String("product_id", item.ProductID))
			continue
		}

		productRate, markers := points.ProductRate(product.Product.Notes)
		if markers > 1 {
			a.log.Warn("multiple multiplier markers in product notes, keeping the minimum",
				zap.String("product_id", item.ProductID),
				zap.Int("markers", markers),
				zap.Float64("rate", productRate))
		}

		comp := points.Compose(a.rates, in.ProcessingTime, productRate)
		quantity := parseDecimal(item.Quantity)
		unitPrice := parseDecimal(item.UnitPrice)
		valueTotal := quantity * unitPrice

		first, second := splitCategory(product.Product.Category)

		itemRows = append(itemRows, warehouse.ItemRow{
			CorrelationKey:        in.Key,
			OrderID:               order.ID,
			ProductID:             item.ProductID,
			Timestamp:             localTS,
			OrderDate:             orderDate,
			OrderNumber:           order.Number,
			CustomerName:          order.Customer.Name,
			CustomerTaxID:         order.Customer.TaxID,
			SellerName:            sellerName,
			SellerID:              sellerID,
			ProductDescription:    item.Description,
			CategoryFirst:         first,
			CategorySecond:        second,
			Quantity:              quantity,
			UnitPrice:             unitPrice,
			ValueTotal:            valueTotal,
			ProductMultiplier:     comp.Product,
			LoyaltyMultiplier:     comp.Loyalty,
			SituationalMultiplier: comp.Situational,
			FinalMultiplier:       comp.Final(),
			ItemPoints:            comp.Points(valueTotal),
			ProjectID:             a.prov.ProjectID,
			SourceIdentifier:      a.prov.SourceIdentifier,
			SchemaVersion:         a.prov.SchemaVersion,
			ProcessedAt:           processedAt,
		})
	}

	// The authoritative order aggregates are sums over the retained items,
	// regardless of what the order document claims.
	orderValue := 0.0
	orderPoints := 0.0
	for _, row := range itemRows {
		orderValue += row.ValueTotal
		orderPoints += row.ItemPoints
	}

	orderRow := &warehouse.OrderRow{
		CorrelationKey:        in.Key,
		OrderID:               order.ID,
		Timestamp:             localTS,
		OrderDate:             orderDate,
		OrderNumber:           order.Number,
		CustomerName:          order.Customer.Name,
		CustomerTaxID:         order.Customer.TaxID,
		SellerName:            sellerName,
		SellerID:              sellerID,
		OrderValue:            orderValue,
		LoyaltyMultiplier:     a.rates.Loyalty,
		SituationalMultiplier: situational,
		FinalMultiplier:       a.rates.Loyalty + situational,
		OrderPoints:           orderPoints,
		ProjectID:             a.prov.ProjectID,
		SourceIdentifier:      a.prov.SourceIdentifier,
		SchemaVersion:         a.prov.SchemaVersion,
		ProcessedAt:           processedAt,
	}

	return orderRow, itemRows, nil
}

func parseOrderDate(s string) (civil.Date, error) {
	t, err := time.Parse(orderDateLayout, s)
	if err != nil {
		return civil.Date{}, err
	}
	return civil.DateOf(t), nil
}

// parseDecimal coerces the ERP's decimal strings; unparsable or empty
// values contribute zero, matching upstream behavior.
func parseDecimal(s string) float64 {
	if s == "" {
		return 0.0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0.0
	}
	return v
}

// splitCategory keeps at most the first two levels of the taxonomy path.
func splitCategory(category string) (first, second string) {
	if category == "" {
		return "", ""
	}
	parts := strings.Split(category, categorySeparator)
	first = parts[0]
	if len(parts) > 1 {
		second = parts[1]
	}
	return first, second
}
