package docstore

import (
	"context"
)

// Metadata keys stamped onto every uploaded document by the intake side.
const (
	MetaCorrelationKey      = "Correlation-Key"
	MetaDocumentRole        = "Document-Role"
	MetaProductID           = "Product-Id"
	MetaProcessingTimestamp = "Processing-Timestamp"
)

// Object is one stored document: its raw bytes plus the tag set it was
// uploaded with. Parsing is the caller's concern.
type Object struct {
	Name     string
	Metadata map[string]string
	Data     []byte
}

// Store is the read-only view of the document store the correlator needs.
type Store interface {
	// Scan returns every object tagged with the given correlation key.
	Scan(ctx context.Context, key string) ([]Object, error)
}

// Pinger reports whether the backing store is reachable. Used by readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
