package report

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
)

// CommissionRow is one warehouse row from the commission-details table
// joined with the contacts table.
type CommissionRow struct {
	CustomerTaxID string     `bigquery:"customer_tax_id"`
	Email         string     `bigquery:"email"`
	CustomerName  string     `bigquery:"customer_name"`
	Tier          string     `bigquery:"final_tier"`
	OrderDate     civil.Date `bigquery:"order_date"`
	OrderNumber   string     `bigquery:"order_number"`
	SellerName    string     `bigquery:"seller_name"`
	OrderValue    float64    `bigquery:"order_value"`
	Cashback      float64    `bigquery:"cashback"`
}

// Purchase is one line in the client's emailed purchase history.
type Purchase struct {
	Date        string `json:"date"`
	OrderNumber string `json:"order_number"`
	Seller      string `json:"seller"`
	Value       string `json:"value"`
}

// ClientSummary is the aggregated, template-ready view of one client.
type ClientSummary struct {
	TaxID         string
	Name          string
	Email         string
	Tier          string
	Purchases     []Purchase
	CashbackTotal float64
	PeriodSpend   float64
	// PurchaseDays counts distinct calendar days with at least one
	// purchase (the "daily check-in" total).
	PurchaseDays int
}

// tierLabels translates tier names for the outbound template. Unknown tiers
// pass through unchanged.
var tierLabels = map[string]string{
	"Platinum": "Platina",
	"Gold":     "Ouro",
	"Silver":   "Prata",
	"Bronze":   "Bronze",
}

// Aggregate folds commission rows into per-client summaries, ordered by
// customer tax id for deterministic dispatch.
func Aggregate(rows []CommissionRow) []*ClientSummary {
	byClient := make(map[string]*ClientSummary)
	days := make(map[string]map[string]struct{})

	for _, row := range rows {
		summary, ok := byClient[row.CustomerTaxID]
		if !ok {
			tier := row.Tier
			if label, found := tierLabels[tier]; found {
				tier = label
			}
			summary = &ClientSummary{
				TaxID: row.CustomerTaxID,
				Name:  row.CustomerName,
				Email: row.Email,
				Tier:  tier,
			}
			byClient[row.CustomerTaxID] = summary
			days[row.CustomerTaxID] = make(map[string]struct{})
		}

		date := row.OrderDate.String()
		summary.Purchases = append(summary.Purchases, Purchase{
			Date:        date,
			OrderNumber: row.OrderNumber,
			Seller:      row.SellerName,
			Value:       fmt.Sprintf("%.2f", row.OrderValue),
		})
		summary.CashbackTotal += row.Cashback
		summary.PeriodSpend += row.OrderValue
		days[row.CustomerTaxID][date] = struct{}{}
	}

	out := make([]*ClientSummary, 0, len(byClient))
	for taxID, summary := range byClient {
		summary.PurchaseDays = len(days[taxID])
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaxID < out[j].TaxID })
	return out
}

// TemplateData shapes one summary for the mail template.
func (s *ClientSummary) TemplateData() map[string]any {
	spend := fmt.Sprintf("%.2f", s.PeriodSpend)
	return map[string]any{
		"client_name":         s.Name,
		"cashback":            fmt.Sprintf("%.2f", s.CashbackTotal),
		"final_tier":          s.Tier,
		"purchase_details":    s.Purchases,
		"daily_checkin_total": s.PurchaseDays,
		"quarter_spend":       spend,
		"lifetime_spend":      spend,
	}
}
