// Package ratelimit paces outgoing requests.
//
// The relay does not meter requests with a token bucket; it applies two fixed
// courtesy pauses instead:
//
//   - after every sendPhoto attempt, a short post-send pause
//   - between consecutive items, the configurable inter-item delay
//
// Both go through a Delayer so tests can record pauses instead of sleeping:
//
//	delayer := ratelimit.NewTimerDelayer()
//	if err := delayer.Wait(ctx, 3*time.Second); err != nil {
//	    return err
//	}
package ratelimit
