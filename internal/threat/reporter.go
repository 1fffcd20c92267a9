package threat

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/willf/bloom"

	"raspguard/internal/alert"
	"raspguard/internal/metrics"
)

const (
	defaultWindow = time.Minute
	// Sizing for the duplicate filter of one window.
	expectedAlertsPerWindow = 10000
	falsePositiveRate       = 0.001
)

// Reporter drains an alert bus, suppresses repeats within a window and
// saves the remaining alerts. Repeats are detected with a bloom filter, so
// about one new alert in a thousand is mistaken for a repeat and counted as
// a duplicate instead of being stored.
type Reporter struct {
	bus     *alert.Bus
	store   AlertStore
	metrics *metrics.Recorder
	logger  *slog.Logger
	window  time.Duration
	seen    *bloom.BloomFilter
}

type ReporterOption func(*Reporter)

// WithWindow sets how long an alert suppresses identical ones.
func WithWindow(d time.Duration) ReporterOption {
	return func(r *Reporter) {
		if d > 0 {
			r.window = d
		}
	}
}

func WithMetrics(m *metrics.Recorder) ReporterOption {
	return func(r *Reporter) { r.metrics = m }
}

func WithLogger(l *slog.Logger) ReporterOption {
	return func(r *Reporter) { r.logger = l }
}

func NewReporter(bus *alert.Bus, store AlertStore, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		bus:    bus,
		store:  store,
		logger: slog.Default(),
		window: defaultWindow,
		seen:   bloom.NewWithEstimates(expectedAlertsPerWindow, falsePositiveRate),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run consumes alerts until ctx is done or the bus is closed and drained.
func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.window)
	defer ticker.Stop()

	for a := range r.bus.Alerts(ctx) {
		select {
		case <-ticker.C:
			r.seen.ClearAll()
		default:
		}
		r.handle(ctx, a)
	}
	return ctx.Err()
}

func (r *Reporter) handle(ctx context.Context, a *alert.Alert) {
	key := []byte(a.ThreatType + "\x00" + a.Context + "\x00" + a.PayloadSnippet)
	if r.seen.TestAndAdd(key) {
		r.metrics.AlertDuplicate()
		r.logger.Debug("duplicate alert suppressed", "threat_type", a.ThreatType, "context", a.Context)
		return
	}

	rec := AlertRecord{
		ID:         uuid.NewString(),
		ThreatType: a.ThreatType,
		Snippet:    a.PayloadSnippet,
		Context:    a.Context,
		Timestamp:  a.Timestamp,
	}
	r.logger.Warn("rasp alert", "id", rec.ID, "threat_type", rec.ThreatType, "context", rec.Context, "snippet", rec.Snippet)
	if err := r.store.Save(ctx, rec); err != nil {
		r.logger.Error("store alert failed", "id", rec.ID, "err", err)
	}
}
