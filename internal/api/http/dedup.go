package http

import (
	"sync"
	"time"
)

const defaultDedupTTL = 10 * time.Minute

// submission is the outcome of the first request carrying a client order id.
// done is closed once id or err is set.
type submission struct {
	done chan struct{}
	id   uint64
	err  error
	at   time.Time // completion time, zero while pending
}

// dedup remembers submissions by customer and client order id for ttl after
// they complete. Pending submissions never expire; failed ones are forgotten
// at once so the client can retry.
type dedup struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	entries   map[string]*submission
	lastSweep time.Time
}

func newDedup(ttl time.Duration) *dedup {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &dedup{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*submission),
	}
}

// claim returns the live submission for key. fresh reports that the caller
// created it and must complete it.
func (d *dedup) claim(key string) (sub *submission, fresh bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if now.Sub(d.lastSweep) >= d.ttl {
		d.sweep(now)
		d.lastSweep = now
	}
	if s, ok := d.entries[key]; ok && !d.expired(s, now) {
		return s, false
	}
	s := &submission{done: make(chan struct{})}
	d.entries[key] = s
	return s, true
}

func (d *dedup) complete(key string, s *submission, id uint64, err error) {
	d.mu.Lock()
	s.id, s.err, s.at = id, err, d.now()
	if err != nil && d.entries[key] == s {
		delete(d.entries, key)
	}
	d.mu.Unlock()
	close(s.done)
}

func (d *dedup) expired(s *submission, now time.Time) bool {
	return !s.at.IsZero() && now.Sub(s.at) >= d.ttl
}

func (d *dedup) sweep(now time.Time) {
	for key, s := range d.entries {
		if d.expired(s, now) {
			delete(d.entries, key)
		}
	}
}

func (d *dedup) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}
