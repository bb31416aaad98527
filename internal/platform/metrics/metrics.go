package metrics

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	started         time.Time
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	cutoffRejected  uint64
	totalDurationMs uint64

	mu       sync.Mutex
	byStatus map[int]uint64
}

func New() *Collector {
	return &Collector{started: time.Now(), byStatus: map[int]uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	switch {
	case status >= 500:
		atomic.AddUint64(&c.errorRequests, 1)
	case status == 429:
		atomic.AddUint64(&c.rateLimited, 1)
	case status == 423:
		atomic.AddUint64(&c.cutoffRejected, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))

	c.mu.Lock()
	c.byStatus[status]++
	c.mu.Unlock()
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	statuses := make(map[string]uint64, len(c.byStatus))
	for status, count := range c.byStatus {
		statuses[strconv.Itoa(status)] = count
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":       total,
		"errorsTotal":         atomic.LoadUint64(&c.errorRequests),
		"rateLimitedTotal":    atomic.LoadUint64(&c.rateLimited),
		"cutoffRejectedTotal": atomic.LoadUint64(&c.cutoffRejected),
		"avgDurationMs":       avg,
		"totalDurationMs":     totalMs,
		"byStatus":            statuses,
		"uptimeSeconds":       int64(time.Since(c.started).Seconds()),
	}
}
