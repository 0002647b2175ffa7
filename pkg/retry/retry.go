// Package retry runs actions repeatedly under composable strategies. Every
// loop is bounded by the caller's context.
package retry

import (
	"context"
)

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retrier retries the provided action.
type Retrier interface {
	Retry(ctx context.Context, action Action) (uint, error)
}

type retrier struct {
	strategies []Strategy
}

// NewRetrier returns a Retrier that applies the provided strategies on every
// call. Without strategies it retries until the action succeeds or the
// context ends.
func NewRetrier(strategies ...Strategy) Retrier {
	return &retrier{
		strategies: strategies,
	}
}

func (r *retrier) Retry(ctx context.Context, action Action) (uint, error) {
	return Retry(ctx, action, r.strategies...)
}

// Retry executes the action until it succeeds, a strategy vetoes another
// attempt, or ctx is done. It returns the number of attempts made and the
// last error.
//
// Strategies run in order, so delaying strategies belong last.
func Retry(ctx context.Context, action Action, strategies ...Strategy) (uint, error) {
	for i := uint(1); ; i++ {
		if err := ctx.Err(); err != nil {
			return i - 1, err
		}

		err := action()
		if err == nil {
			return i, nil
		}

		for _, s := range strategies {
			if !s(ctx, i, err) {
				return i, err
			}
		}
	}
}
