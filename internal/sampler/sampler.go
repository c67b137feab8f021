// Package sampler reports which application currently owns the foreground.
package sampler

import (
	"context"
	"time"

	"github.com/vburojevic/dwell/internal/domain"
)

// DefaultWindow is the trailing usage-event window queried on every tick.
const DefaultWindow = 10 * time.Second

// Sampler yields the foreground app for the window ending at windowEnd, or
// domain.None when it is unknown. Implementations must be safe to call every
// tick and should honour ctx cancellation.
type Sampler interface {
	Sample(ctx context.Context, windowStart, windowEnd time.Time) (domain.AppID, error)
}

// Func adapts a function to the Sampler interface.
type Func func(ctx context.Context, windowStart, windowEnd time.Time) (domain.AppID, error)

// Sample calls f.
func (f Func) Sample(ctx context.Context, windowStart, windowEnd time.Time) (domain.AppID, error) {
	return f(ctx, windowStart, windowEnd)
}

// Static always reports the same app.
type Static domain.AppID

// Sample returns s.
func (s Static) Sample(context.Context, time.Time, time.Time) (domain.AppID, error) {
	return domain.AppID(s), nil
}
