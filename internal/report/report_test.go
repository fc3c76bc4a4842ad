package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/pointsworks/pointstream/internal/config"
	"github.com/pointsworks/pointstream/internal/mailer"
	"github.com/pointsworks/pointstream/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	rows []CommissionRow
	err  error
}

func (f *fakeSource) CommissionRows(ctx context.Context) ([]CommissionRow, error) {
	return f.rows, f.err
}

type fakeMailer struct {
	sent     []mailer.Message
	failures int // fail the first N sends
}

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("mail_api_error: status=500")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func date(day int) civil.Date {
	return civil.Date{Year: 2024, Month: time.March, Day: day}
}

func sampleRows() []CommissionRow {
	return []CommissionRow{
		{CustomerTaxID: "111", Email: "joana@example.com", CustomerName: "Joana", Tier: "Gold", OrderDate: date(1), OrderNumber: "45", SellerName: "Maria", OrderValue: 20.0, Cashback: 2.0},
		{CustomerTaxID: "111", Email: "joana@example.com", CustomerName: "Joana", Tier: "Gold", OrderDate: date(1), OrderNumber: "46", SellerName: "Maria", OrderValue: 30.0, Cashback: 3.0},
		{CustomerTaxID: "111", Email: "joana@example.com", CustomerName: "Joana", Tier: "Gold", OrderDate: date(2), OrderNumber: "47", SellerName: "Paulo", OrderValue: 10.0, Cashback: 1.0},
		{CustomerTaxID: "222", Email: "", CustomerName: "Carlos", Tier: "Emerald", OrderDate: date(3), OrderNumber: "48", SellerName: "Maria", OrderValue: 100.0, Cashback: 5.0},
	}
}

func newTestJob(source Source, m mailer.Mailer, cfg config.Notifier) *Job {
	job := NewJob(source, m, cfg, metrics.NewRegistry(), zap.NewNop())
	job.sleep = func(time.Duration) {}
	return job
}

func TestAggregate(t *testing.T) {
	summaries := Aggregate(sampleRows())
	require.Len(t, summaries, 2)

	joana := summaries[0]
	assert.Equal(t, "111", joana.TaxID)
	assert.Equal(t, "Ouro", joana.Tier) // translated label
	assert.Len(t, joana.Purchases, 3)
	assert.InDelta(t, 6.0, joana.CashbackTotal, 1e-9)
	assert.InDelta(t, 60.0, joana.PeriodSpend, 1e-9)
	assert.Equal(t, 2, joana.PurchaseDays) // two orders on the same day count once

	carlos := summaries[1]
	assert.Equal(t, "Emerald", carlos.Tier) // unknown tier passes through
	assert.Equal(t, 1, carlos.PurchaseDays)
	assert.Equal(t, "100.00", carlos.Purchases[0].Value)
}

func TestTemplateData(t *testing.T) {
	summaries := Aggregate(sampleRows())
	data := summaries[0].TemplateData()

	assert.Equal(t, "Joana", data["client_name"])
	assert.Equal(t, "6.00", data["cashback"])
	assert.Equal(t, "Ouro", data["final_tier"])
	assert.Equal(t, "60.00", data["quarter_spend"])
	assert.Equal(t, 2, data["daily_checkin_total"])
	purchases, ok := data["purchase_details"].([]Purchase)
	require.True(t, ok)
	assert.Len(t, purchases, 3)
}

func TestRunSkipsClientsWithoutEmail(t *testing.T) {
	m := &fakeMailer{}
	job := newTestJob(&fakeSource{rows: sampleRows()}, m, config.Notifier{
		FromEmail:  "loyalty@example.com",
		TemplateID: "d-123",
	})

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "joana@example.com", m.sent[0].To)
	assert.Equal(t, "loyalty@example.com", m.sent[0].From)
	assert.Equal(t, "d-123", m.sent[0].TemplateID)
}

func TestRunTestModeOverridesRecipientAndCapsSends(t *testing.T) {
	rows := sampleRows()
	rows[3].Email = "carlos@example.com"
	m := &fakeMailer{}
	job := newTestJob(&fakeSource{rows: rows}, m, config.Notifier{
		FromEmail:     "loyalty@example.com",
		TestMode:      true,
		TestRecipient: "qa@example.com",
		SendLimit:     1,
	})

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "qa@example.com", m.sent[0].To)
}

func TestRunRetriesThenSucceeds(t *testing.T) {
	var slept []time.Duration
	m := &fakeMailer{failures: 2}
	job := newTestJob(&fakeSource{rows: sampleRows()[:1]}, m, config.Notifier{FromEmail: "loyalty@example.com"})
	job.sleep = func(d time.Duration) { slept = append(slept, d) }

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, m.sent, 1)
	// Two failed attempts back off 1s then 2s before the third succeeds.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, slept)
}

func TestRunGivesUpAfterRetriesExhausted(t *testing.T) {
	m := &fakeMailer{failures: 10}
	job := newTestJob(&fakeSource{rows: sampleRows()[:1]}, m, config.Notifier{FromEmail: "loyalty@example.com"})

	// Send failures do not abort the run.
	require.NoError(t, job.Run(context.Background()))
	assert.Empty(t, m.sent)
	assert.Equal(t, 6, m.failures) // initial attempt + maxRetries consumed
}

func TestRunSourceErrorAborts(t *testing.T) {
	job := newTestJob(&fakeSource{err: errors.New("query failed")}, &fakeMailer{}, config.Notifier{})
	assert.Error(t, job.Run(context.Background()))
}
