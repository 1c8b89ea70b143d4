package application

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
	"github.com/eapache/queue"
)

const (
	DefaultDedupTimeout = 10 * time.Second
	minEvictionTick     = 10 * time.Millisecond
)

type dedupEntry struct {
	key      string
	deadline time.Time
}

// DedupSet suppresses duplicate handling of an inbound event observed by
// several sessions. Keys expire a fixed timeout after insertion, whether or
// not handling has finished; work outliving the timeout may run twice.
type DedupSet struct {
	timeout time.Duration
	clock   ports.Clock

	mu     sync.Mutex
	keys   map[string]time.Time
	expiry *queue.Queue
}

func NewDedupSet(timeout time.Duration, clock ports.Clock) *DedupSet {
	if timeout <= 0 {
		timeout = DefaultDedupTimeout
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &DedupSet{
		timeout: timeout,
		clock:   clock,
		keys:    map[string]time.Time{},
		expiry:  queue.New(),
	}
}

// TryAcquire records key and reports true, or reports false when another
// session already claimed it inside the suppression window.
func (d *DedupSet) TryAcquire(key domain.DedupKey) bool {
	now := d.clock.Now()
	raw := key.String()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.evictLocked(now)

	if _, ok := d.keys[raw]; ok {
		return false
	}

	deadline := now.Add(d.timeout)
	d.keys[raw] = deadline
	d.expiry.Add(dedupEntry{key: raw, deadline: deadline})
	return true
}

func (d *DedupSet) Contains(key domain.DedupKey) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.keys[key.String()]
	return ok
}

func (d *DedupSet) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.keys)
}

// EvictExpired drops every key whose deadline is not after now.
func (d *DedupSet) EvictExpired(now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.evictLocked(now)
}

// evictLocked relies on a constant timeout: queue order is deadline order.
func (d *DedupSet) evictLocked(now time.Time) int {
	evicted := 0
	for d.expiry.Length() > 0 {
		entry := d.expiry.Peek().(dedupEntry)
		if entry.deadline.After(now) {
			break
		}
		d.expiry.Remove()
		if deadline, ok := d.keys[entry.key]; ok && !deadline.After(now) {
			delete(d.keys, entry.key)
			evicted++
		}
	}
	return evicted
}

func (d *DedupSet) EvictionTask() Task {
	return d.RunEviction
}

// RunEviction sweeps expired keys until ctx is cancelled.
func (d *DedupSet) RunEviction(ctx context.Context) error {
	tick := d.timeout / 4
	if tick < minEvictionTick {
		tick = minEvictionTick
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.EvictExpired(d.clock.Now())
		}
	}
}
