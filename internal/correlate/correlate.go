package correlate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pointsworks/pointstream/internal/docstore"
	"go.uber.org/zap"
)

// Bundle is the result of correlating one key against the document store.
// Any part may be absent; Missing reports which, so callers never infer
// completeness from nil checks scattered through the pipeline.
type Bundle struct {
	Survey         *SurveyDocument
	Order          *OrderDocument
	Products       map[string]*ProductDocument
	ProcessingTime time.Time
}

func (b Bundle) Missing() []string {
	var missing []string
	if b.Survey == nil {
		missing = append(missing, "survey document")
	}
	if b.Order == nil {
		missing = append(missing, "order document")
	}
	if b.ProcessingTime.IsZero() {
		missing = append(missing, "processing timestamp")
	}
	return missing
}

// Complete reports whether assembly can proceed. Product documents are not
// required here; items without metadata are dropped during assembly.
func (b Bundle) Complete() bool {
	return len(b.Missing()) == 0
}

type Correlator struct {
	store docstore.Store
	log   *zap.Logger
}

func New(store docstore.Store, log *zap.Logger) *Correlator {
	return &Correlator{
		store: store,
		log:   log.Named("correlate"),
	}
}

// Correlate scans the store for all objects tagged with key and classifies
// them by role. Partial results are returned rather than errors; only a
// failed scan is fatal. A single malformed object is logged and its role
// treated as absent.
func (c *Correlator) Correlate(ctx context.Context, key string) (Bundle, error) {
	objects, err := c.store.Scan(ctx, key)
	if err != nil {
		return Bundle{}, fmt.Errorf("scan documents for %q: %w", key, err)
	}

	bundle := Bundle{Products: make(map[string]*ProductDocument)}

	for _, obj := range objects {
		role := obj.Metadata[docstore.MetaDocumentRole]
		switch role {
		case RoleSurvey:
			var doc SurveyDocument
			if c.decode(obj, key, &doc) {
				bundle.Survey = &doc
			}
		case RoleOrder:
			var doc OrderDocument
			if c.decode(obj, key, &doc) {
				bundle.Order = &doc
			}
			if ts, ok := c.processingTime(obj, key); ok {
				bundle.ProcessingTime = ts
			}
		case RoleProduct:
			productID := obj.Metadata[docstore.MetaProductID]
			if productID == "" {
				c.log.Warn("product document without product id tag",
					zap.String("object", obj.Name),
					zap.String("correlation_key", key))
				continue
			}
			var doc ProductDocument
			if c.decode(obj, key, &doc) {
				bundle.Products[productID] = &doc
			}
		default:
			c.log.Warn("object with unknown document role",
				zap.String("object", obj.Name),
				zap.String("role", role),
				zap.String("correlation_key", key))
		}
	}

	return bundle, nil
}

func (c *Correlator) decode(obj docstore.Object, key string, into any) bool {
	if err := json.Unmarshal(obj.Data, into); err != nil {
		c.log.Warn("malformed document, treating as absent",
			zap.String("object", obj.Name),
			zap.String("correlation_key", key),
			zap.Error(err))
		return false
	}
	return true
}

// processingTime reads the ISO-8601 timestamp tag from the order object.
// A trailing Z is an explicit UTC offset under RFC 3339 and parses as such.
func (c *Correlator) processingTime(obj docstore.Object, key string) (time.Time, bool) {
	raw := obj.Metadata[docstore.MetaProcessingTimestamp]
	if raw == "" {
		c.log.Warn("order document without processing timestamp tag",
			zap.String("object", obj.Name),
			zap.String("correlation_key", key))
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.log.Warn("unparsable processing timestamp tag",
			zap.String("object", obj.Name),
			zap.String("value", raw),
			zap.Error(err))
		return time.Time{}, false
	}
	return ts, true
}
