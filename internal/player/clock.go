package player

import (
	"context"
	"time"
)

// FrameClock delivers animation frame timestamps, measured from the clock's start.
type FrameClock interface {
	Next(ctx context.Context) (time.Duration, error)
	Stop()
}

// TickerClock ticks at a fixed frame rate on the wall clock.
type TickerClock struct {
	ticker *time.Ticker
	origin time.Time
}

// NewTickerClock returns a clock firing fps times per second (60 when fps <= 0).
func NewTickerClock(fps float64) *TickerClock {
	if fps <= 0 {
		fps = 60
	}
	return &TickerClock{
		ticker: time.NewTicker(time.Duration(float64(time.Second) / fps)),
		origin: time.Now(),
	}
}

func (c *TickerClock) Next(ctx context.Context) (time.Duration, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case t := <-c.ticker.C:
		return t.Sub(c.origin), nil
	}
}

func (c *TickerClock) Stop() { c.ticker.Stop() }

// SteppedClock advances by a fixed step on every call without waiting, which
// plays a route as fast as frames can be computed.
type SteppedClock struct {
	step time.Duration
	now  time.Duration
}

func NewSteppedClock(step time.Duration) *SteppedClock {
	return &SteppedClock{step: step, now: -step}
}

func (c *SteppedClock) Next(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.now += c.step
	return c.now, nil
}

func (c *SteppedClock) Stop() {}
