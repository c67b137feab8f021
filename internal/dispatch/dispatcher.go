// Package dispatch delivers interventions. Dispatchers only present what
// they are told; deciding when to escalate happens elsewhere.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/vburojevic/dwell/internal/domain"
)

// ErrDispatchFailed wraps every delivery failure.
var ErrDispatchFailed = errors.New("dispatch failed")

// Dispatcher presents one intervention.
type Dispatcher interface {
	// Fire presents iv. Implementations should return promptly and respect
	// ctx; long-running presentation belongs in the background.
	Fire(ctx context.Context, iv *domain.Intervention) error

	// Name returns the dispatcher type for logging
	Name() string
}

// Func adapts a function to the Dispatcher interface.
type Func func(ctx context.Context, iv *domain.Intervention) error

// Fire calls f.
func (f Func) Fire(ctx context.Context, iv *domain.Intervention) error { return f(ctx, iv) }

// Name implements Dispatcher.
func (f Func) Name() string { return "func" }

// Nop accepts every intervention and does nothing.
type Nop struct{}

// Fire implements Dispatcher.
func (Nop) Fire(context.Context, *domain.Intervention) error { return nil }

// Name implements Dispatcher.
func (Nop) Name() string { return "nop" }

// Multi fans an intervention out to every dispatcher. One failing member
// does not stop the others; failures are joined.
type Multi []Dispatcher

// Fire implements Dispatcher.
func (m Multi) Fire(ctx context.Context, iv *domain.Intervention) error {
	var errs []error
	for _, d := range m {
		if err := d.Fire(ctx, iv); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Name implements Dispatcher.
func (m Multi) Name() string { return "multi" }
