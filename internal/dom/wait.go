package dom

import (
	"context"
	"time"
)

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Poll calls probe until it reports success, the timeout elapses or ctx is
// done. The probe always runs at least once.
func Poll[T any](ctx context.Context, timeout, interval time.Duration, probe func() (T, bool)) (T, bool) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	for {
		if v, ok := probe(); ok {
			return v, true
		}
		if !time.Now().Before(deadline) {
			var zero T
			return zero, false
		}
		if err := Sleep(ctx, interval); err != nil {
			var zero T
			return zero, false
		}
	}
}

// WaitElement polls find until it returns a non-nil element.
func WaitElement(ctx context.Context, timeout, interval time.Duration, find func() Element) Element {
	el, _ := Poll(ctx, timeout, interval, func() (Element, bool) {
		e := find()
		return e, e != nil
	})
	return el
}

// WaitAny polls scope for the first selector in order that matches.
func WaitAny(ctx context.Context, scope Root, selectors []string, timeout, interval time.Duration) Element {
	return WaitElement(ctx, timeout, interval, func() Element {
		for _, sel := range selectors {
			if el := scope.Query(sel); el != nil {
				return el
			}
		}
		return nil
	})
}
