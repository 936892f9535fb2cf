package exam

import (
	"context"
	"time"
)

// Clock drives a session's countdown: one Tick per interval until the
// session completes or the context is canceled. The zero interval defaults
// to one second.
type Clock struct {
	Interval time.Duration
}

// Run blocks, ticking the session once per interval. When the countdown
// forces the session to complete, expired is invoked once with the session
// before Run returns. Cancel the context to stop the clock without touching
// the session (exit is the caller's decision, not the clock's).
func (c Clock) Run(ctx context.Context, session *Session, expired func(*Session)) {
	interval := c.Interval
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			session.Tick()
			if session.State() == StateCompleted {
				if expired != nil {
					expired(session)
				}
				return
			}
		}
	}
}
