package tracking

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/tart-proj/codescholar/domain/task"
)

var (
	_ Reporter  = (*Cooldown)(nil)
	_ io.Closer = (*Cooldown)(nil)
)

// Cooldown throttles a Reporter per status ID. Progress updates during a
// level can arrive per host; at most one is delivered per interval and the
// newest suppressed update is flushed when the interval elapses. Terminal
// states (completed, failed, skipped) always go straight through.
type Cooldown struct {
	inner    Reporter
	interval time.Duration
	mu       sync.Mutex
	tracked  map[string]*throttle
}

type throttle struct {
	lastSent time.Time
	queued   *task.Status
	timer    *time.Timer
}

// NewCooldown wraps inner with a per-status-ID minimum delivery interval.
func NewCooldown(inner Reporter, interval time.Duration) *Cooldown {
	return &Cooldown{
		inner:    inner,
		interval: interval,
		tracked:  make(map[string]*throttle),
	}
}

// OnChange implements Reporter.
func (c *Cooldown) OnChange(ctx context.Context, status task.Status) error {
	id := status.ID()
	c.mu.Lock()

	if status.State().IsTerminal() {
		if t := c.tracked[id]; t != nil {
			if t.timer != nil {
				t.timer.Stop()
			}
			delete(c.tracked, id)
		}
		c.mu.Unlock()
		return c.inner.OnChange(ctx, status)
	}

	t, ok := c.tracked[id]
	if !ok {
		t = &throttle{}
		c.tracked[id] = t
	}

	if since := time.Since(t.lastSent); since >= c.interval {
		if t.timer != nil {
			t.timer.Stop()
			t.timer = nil
		}
		t.queued = nil
		t.lastSent = time.Now()
		c.mu.Unlock()
		return c.inner.OnChange(ctx, status)
	} else if t.timer == nil {
		t.timer = time.AfterFunc(c.interval-since, func() { c.flush(id) })
	}

	// Inside the window: remember only the newest suppressed update.
	queued := status
	t.queued = &queued

	c.mu.Unlock()
	return nil
}

// Close stops all timers and delivers whatever is still queued.
func (c *Cooldown) Close() error {
	c.mu.Lock()
	tracked := c.tracked
	c.tracked = make(map[string]*throttle)
	c.mu.Unlock()

	for _, t := range tracked {
		if t.timer != nil {
			t.timer.Stop()
		}
		if t.queued != nil {
			_ = c.inner.OnChange(context.Background(), *t.queued)
		}
	}
	return nil
}

func (c *Cooldown) flush(id string) {
	c.mu.Lock()
	t, ok := c.tracked[id]
	if !ok || t.queued == nil {
		if ok {
			t.timer = nil
		}
		c.mu.Unlock()
		return
	}

	status := *t.queued
	t.queued = nil
	t.lastSent = time.Now()
	t.timer = nil
	c.mu.Unlock()

	_ = c.inner.OnChange(context.Background(), status)
}
