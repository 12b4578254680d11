// Package resource bounds the resources background maintenance work may
// consume. Recovery scans entire tablets; without limits a single rebuild
// can saturate the object store connection or starve query traffic.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxBackgroundWorkers is the maximum number of concurrent
	// background jobs (e.g. tablet recoveries). If 0, defaults to 1.
	MaxBackgroundWorkers int64

	// IOLimitBytesPerSec caps background read throughput.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages background concurrency and I/O budget.
type Controller struct {
	bgSem     *semaphore.Weighted
	ioLimiter *rate.Limiter

	ioBytes atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxBackgroundWorkers <= 0 {
		cfg.MaxBackgroundWorkers = 1
	}

	c := &Controller{
		bgSem: semaphore.NewWeighted(cfg.MaxBackgroundWorkers),
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// AcquireWorker blocks until a background worker slot is available or
// ctx is done. Callers must pair it with ReleaseWorker.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	return c.bgSem.Acquire(ctx, 1)
}

// ReleaseWorker returns a background worker slot.
func (c *Controller) ReleaseWorker() {
	c.bgSem.Release(1)
}

// WaitIO blocks until n bytes of I/O budget are available or ctx is done.
func (c *Controller) WaitIO(ctx context.Context, n int) error {
	c.ioBytes.Add(int64(n))
	if c.ioLimiter == nil {
		return nil
	}
	// The limiter burst equals one second of budget; split larger
	// requests so they cannot exceed it.
	burst := c.ioLimiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// IOBytes returns the total bytes accounted via WaitIO.
func (c *Controller) IOBytes() int64 {
	return c.ioBytes.Load()
}
