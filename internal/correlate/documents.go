package correlate

// Document roles carried in the store's Document-Role tag. Exactly three
// kinds of documents participate in one order event.
const (
	RoleSurvey  = "survey"
	RoleOrder   = "order"
	RoleProduct = "product"
)

// SurveyDocument is the commission/survey upload. Only the seller identity
// of the first order entry is consumed.
type SurveyDocument struct {
	Orders []SurveyOrder `json:"orders"`
}

type SurveyOrder struct {
	SellerName string `json:"seller_name"`
	SellerID   string `json:"seller_id"`
}

// Seller returns the seller identity, reporting absence explicitly.
func (d *SurveyDocument) Seller() (name, id string, ok bool) {
	if d == nil || len(d.Orders) == 0 {
		return "", "", false
	}
	first := d.Orders[0]
	if first.SellerName == "" || first.SellerID == "" {
		return "", "", false
	}
	return first.SellerName, first.SellerID, true
}

// OrderDocument is the point-of-sale order upload.
type OrderDocument struct {
	Order OrderPayload `json:"order"`
}

type OrderPayload struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	// Date is a timezone-naive calendar date in dd/mm/yyyy form,
	// interpreted in the fixed local timezone.
	Date          string          `json:"date"`
	TotalProducts string          `json:"total_products"`
	TotalSale     string          `json:"total_sale"`
	Notes         string          `json:"notes"`
	PaymentMethod string          `json:"payment_method"`
	Customer      CustomerPayload `json:"customer"`
	Items         []ItemPayload   `json:"items"`
}

type CustomerPayload struct {
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
}

// ItemPayload is one order line. Quantities and prices arrive as decimal
// strings from the upstream ERP.
type ItemPayload struct {
	ProductID   string `json:"product_id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Discount    string `json:"discount"`
}

// ProductDocument is the per-product metadata upload, keyed in the store by
// the Product-Id tag. Fetched fresh per message and discarded after assembly.
type ProductDocument struct {
	Product ProductPayload `json:"product"`
}

type ProductPayload struct {
	// Notes is free text that may embed multiplier markers ({{0.05}}).
	Notes     string `json:"notes"`
	CostPrice string `json:"cost_price"`
	// Category is a delimiter-separated taxonomy path ("Food >> Coffee").
	Category string `json:"category"`
}
