// Package application contains the enrollment protocol orchestration.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TimeClient is the slice of the account client the clock synchronizer needs.
type TimeClient interface {
	QueryServerTime(ctx context.Context) (int64, error)
}

// ClockSync maintains a cached offset between the local clock and the remote
// service's authoritative clock. One instance is shared by every coordinator
// in the process; all methods are safe for concurrent use.
//
// Alignment is lazy: the first time query triggers a single remote call. A
// failed alignment is not fatal — time reads degrade to the unmodified local
// clock and the next read tries again. Once aligned the offset is cached for
// the life of the process.
type ClockSync struct {
	client TimeClient

	mu      sync.Mutex
	offset  int64 // Remote time minus local time at the moment of measurement.
	aligned bool
}

// NewClockSync creates a ClockSync backed by the given time client.
func NewClockSync(client TimeClient) *ClockSync {
	return &ClockSync{client: client}
}

// Now returns the current authoritative time as unix seconds, aligning first
// if no alignment has succeeded yet. An alignment failure degrades to local
// time rather than blocking code generation.
func (c *ClockSync) Now(ctx context.Context) int64 {
	if err := c.Align(ctx); err != nil {
		slog.Debug("clock alignment unavailable, using local time", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Now().Unix() + c.offset
}

// Align performs the alignment query unless one already succeeded. The
// returned error reports a failed query; the cached offset is left untouched
// in that case.
func (c *ClockSync) Align(ctx context.Context) error {
	c.mu.Lock()
	if c.aligned {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	localAtRequest := time.Now().Unix()
	serverTime, err := c.client.QueryServerTime(ctx)
	if err != nil {
		return fmt.Errorf("query server time: %w", err)
	}

	c.mu.Lock()
	c.offset = serverTime - localAtRequest
	c.aligned = true
	c.mu.Unlock()

	slog.Debug("clock aligned", "offset_seconds", serverTime-localAtRequest)
	return nil
}

// AlignAsync runs Align on a fresh goroutine. Observable semantics match the
// blocking variant; failures are logged and the next Now call retries.
func (c *ClockSync) AlignAsync(ctx context.Context) {
	go func() {
		if err := c.Align(ctx); err != nil {
			slog.Debug("background clock alignment failed", "error", err)
		}
	}()
}

// Aligned reports whether an alignment query has succeeded.
func (c *ClockSync) Aligned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aligned
}
