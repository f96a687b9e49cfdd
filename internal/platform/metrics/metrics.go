package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64
	advisoryCalls   uint64
	advisoryFailed  uint64
	jobRuns         uint64
	jobsFailed      uint64

	mu      sync.Mutex
	storage map[string]*storageCounters
}

type storageCounters struct {
	ops    uint64
	errors uint64
}

func New() *Collector {
	return &Collector{storage: map[string]*storageCounters{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordStorage counts one store operation against a namespace.
func (c *Collector) RecordStorage(namespace string, failed bool) {
	c.mu.Lock()
	counters, ok := c.storage[namespace]
	if !ok {
		counters = &storageCounters{}
		c.storage[namespace] = counters
	}
	c.mu.Unlock()
	atomic.AddUint64(&counters.ops, 1)
	if failed {
		atomic.AddUint64(&counters.errors, 1)
	}
}

func (c *Collector) RecordAdvisory(failed bool) {
	atomic.AddUint64(&c.advisoryCalls, 1)
	if failed {
		atomic.AddUint64(&c.advisoryFailed, 1)
	}
}

func (c *Collector) RecordJob(failed bool) {
	atomic.AddUint64(&c.jobRuns, 1)
	if failed {
		atomic.AddUint64(&c.jobsFailed, 1)
	}
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	names := make([]string, 0, len(c.storage))
	for name := range c.storage {
		names = append(names, name)
	}
	sort.Strings(names)
	storage := make([]map[string]any, 0, len(names))
	for _, name := range names {
		counters := c.storage[name]
		storage = append(storage, map[string]any{
			"namespace": name,
			"ops":       atomic.LoadUint64(&counters.ops),
			"errors":    atomic.LoadUint64(&counters.errors),
		})
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":       total,
		"errorsTotal":         errs,
		"rateLimitedTotal":    limited,
		"avgDurationMs":       avg,
		"totalDurationMs":     totalMs,
		"advisoryCallsTotal":  atomic.LoadUint64(&c.advisoryCalls),
		"advisoryFailedTotal": atomic.LoadUint64(&c.advisoryFailed),
		"jobRunsTotal":        atomic.LoadUint64(&c.jobRuns),
		"jobsFailedTotal":     atomic.LoadUint64(&c.jobsFailed),
		"storage":             storage,
	}
}
