package escrow

import (
	"context"
	"time"

	"github.com/xraph/escrow/types"
)

// Clock reports the current height against which invoice expirations are
// compared. Block-height deployments supply their own.
type Clock interface {
	Height(ctx context.Context) (types.Height, error)
}

// ClockFunc adapts a function to Clock.
type ClockFunc func(ctx context.Context) (types.Height, error)

// Height implements Clock.
func (f ClockFunc) Height(ctx context.Context) (types.Height, error) { return f(ctx) }

// WallClock returns a Clock whose height is the current unix time in seconds.
func WallClock() Clock {
	return ClockFunc(func(context.Context) (types.Height, error) {
		return types.Height(time.Now().Unix()), nil
	})
}

// FixedClock returns a Clock that always reports h.
func FixedClock(h types.Height) Clock {
	return ClockFunc(func(context.Context) (types.Height, error) {
		return h, nil
	})
}
