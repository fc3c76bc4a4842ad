// Package mailer is the boundary to the transactional-email API. Template
// rendering happens on the provider side; we only send a template id plus
// its dynamic data.
package mailer

import "context"

// Message is one templated email dispatch.
type Message struct {
	To               string
	From             string
	TemplateID       string
	Data             map[string]any
	UnsubscribeGroup int
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
