package clock

import (
	"context"
	"time"

	"go.uber.org/fx"
)

var Module = fx.Module("clock",
	fx.Provide(func() Clock { return SystemClock{} }),
)

type Clock interface {
	Now(ctx context.Context) time.Time
}

type SystemClock struct{}

func (SystemClock) Now(ctx context.Context) time.Time {
	return time.Now().UTC()
}

// Fixed is a test clock returning a constant instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now(ctx context.Context) time.Time { return f.T }
