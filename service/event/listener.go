package event

import (
	"context"
	"errors"
)

// Listen calls handler for every event of sub until ctx is done or the
// subscription closes. It returns stop(), which also closes sub.
func Listen(ctx context.Context, sub *Subscription, handler func(*Event[any])) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer sub.Close()
		for {
			e, err := sub.Next(ctx)
			if err != nil {
				if errors.Is(err, ErrClosed) || ctx.Err() != nil {
					return
				}
				continue
			}
			handler(e)
		}
	}()
	return cancel
}
