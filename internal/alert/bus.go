package alert

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultCapacity = 5000
	defaultPoolSize = 1000
	// pushAttempts bounds the evict-and-retry loop of a full bus.
	pushAttempts = 4
)

// Bus is a bounded multi-producer alert queue. A full bus evicts its oldest
// alert to make room, so producers never block. Alerts are leased from a
// bounded free list and returned to it after consumption or eviction.
type Bus struct {
	queue chan *Alert
	free  chan *Alert

	mu     sync.RWMutex
	closed bool

	dropped atomic.Uint64
	onDrop  func()
	now     func() time.Time
}

type Option func(*Bus)

// WithCapacity sets the number of alerts the bus buffers.
func WithCapacity(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queue = make(chan *Alert, n)
		}
	}
}

// WithPoolSize sets how many idle alerts are retained for reuse.
func WithPoolSize(n int) Option {
	return func(b *Bus) {
		if n >= 0 {
			b.free = make(chan *Alert, n)
		}
	}
}

// WithDropHook registers fn to run whenever an alert is evicted or rejected.
func WithDropHook(fn func()) Option {
	return func(b *Bus) { b.onDrop = fn }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) { b.now = now }
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{
		queue: make(chan *Alert, defaultCapacity),
		free:  make(chan *Alert, defaultPoolSize),
		now:   time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Push publishes an alert without blocking. It reports false when the bus is
// closed or the alert could not be queued.
func (b *Bus) Push(threatType, snippet, context string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false
	}

	a := b.lease()
	a.ThreatType = threatType
	a.PayloadSnippet = snippet
	a.Context = context
	a.Timestamp = b.now()

	for i := 0; i < pushAttempts; i++ {
		select {
		case b.queue <- a:
			return true
		default:
		}
		select {
		case old := <-b.queue:
			b.release(old)
			b.drop()
		default:
		}
	}
	b.release(a)
	b.drop()
	return false
}

// Alerts returns a sequence of queued alerts that ends when ctx is done or
// the bus is closed and drained. Each alert is recycled as soon as the loop
// body it was yielded to returns.
func (b *Bus) Alerts(ctx context.Context) iter.Seq[*Alert] {
	return func(yield func(*Alert) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case a, ok := <-b.queue:
				if !ok {
					return
				}
				cont := yield(a)
				b.release(a)
				if !cont {
					return
				}
			}
		}
	}
}

// Close stops the bus from accepting alerts. Alerts already queued remain
// readable.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
}

// Len reports the number of queued alerts.
func (b *Bus) Len() int { return len(b.queue) }

// Dropped reports how many alerts were evicted or rejected.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

func (b *Bus) drop() {
	b.dropped.Add(1)
	if b.onDrop != nil {
		b.onDrop()
	}
}

func (b *Bus) lease() *Alert {
	select {
	case a := <-b.free:
		return a
	default:
		return &Alert{}
	}
}

func (b *Bus) release(a *Alert) {
	a.Reset()
	select {
	case b.free <- a:
	default:
	}
}
