package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/koscakluka/ema-dashboard/internal/utils"
	"go.opentelemetry.io/otel/metric"
)

const (
	DefaultInterval = 5 * time.Second
	TimestampLayout = "15:04:05"
)

// Reading is one refresh of the feed.
type Reading struct {
	Sites      []Site   `json:"sites"`
	Snapshot   Snapshot `json:"siteData"`
	Summary    Summary  `json:"summary"`
	LastUpdate string   `json:"lastUpdate"`
}

// Feed regenerates site readings on an interval and on demand, and notifies
// subscribers of every new reading.
type Feed struct {
	generator *Generator
	interval  time.Duration
	now       func() time.Time
	trend     *Trend

	mu      sync.RWMutex
	latest  Reading
	hasData bool

	listeners utils.Listeners[Reading]
	refreshes metric.Int64Counter
	refreshCh chan struct{}
}

type FeedOption func(*Feed)

func WithInterval(interval time.Duration) FeedOption {
	return func(f *Feed) {
		if interval > 0 {
			f.interval = interval
		}
	}
}

func WithGenerator(generator *Generator) FeedOption {
	return func(f *Feed) {
		if generator != nil {
			f.generator = generator
		}
	}
}

func WithNow(now func() time.Time) FeedOption {
	return func(f *Feed) {
		if now != nil {
			f.now = now
		}
	}
}

func NewFeed(opts ...FeedOption) *Feed {
	feed := &Feed{
		generator: NewGenerator(nil),
		interval:  DefaultInterval,
		now:       time.Now,
		trend:     NewTrend(60),
		refreshCh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(feed)
	}

	feed.refreshes, _ = meter.Int64Counter("telemetry.refreshes",
		metric.WithDescription("Number of simulated telemetry refreshes"))
	return feed
}

// Run refreshes immediately and then on every interval tick or requested
// refresh until ctx is done.
func (f *Feed) Run(ctx context.Context) {
	f.Refresh()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.Refresh()
		case <-f.refreshCh:
			f.Refresh()
			ticker.Reset(f.interval)
		}
	}
}

// RequestRefresh asks a running feed to refresh out of band. Repeated
// requests before the feed gets to them are coalesced.
func (f *Feed) RequestRefresh() {
	select {
	case f.refreshCh <- struct{}{}:
	default:
	}
}

// Refresh generates a new reading, stores it and notifies subscribers.
func (f *Feed) Refresh() Reading {
	sites := f.generator.Generate()
	now := f.now()
	reading := Reading{
		Sites:      sites,
		Snapshot:   Format(sites),
		Summary:    Summarize(sites),
		LastUpdate: now.Format(TimestampLayout),
	}

	f.mu.Lock()
	f.latest = reading
	f.hasData = true
	f.mu.Unlock()

	f.trend.Add(TrendPoint{Time: reading.LastUpdate, Power: reading.Summary.TotalPower})
	if f.refreshes != nil {
		f.refreshes.Add(context.Background(), 1)
	}
	logger.Debug("telemetry refreshed", "lastUpdate", reading.LastUpdate, "totalPower", reading.Summary.TotalPower)

	f.listeners.Emit(reading)
	return reading
}

// Latest returns the most recent reading and whether one exists yet.
func (f *Feed) Latest() (Reading, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest, f.hasData
}

func (f *Feed) Trend() []TrendPoint {
	return f.trend.Points()
}

// Subscribe registers handler for every future reading.
func (f *Feed) Subscribe(handler func(Reading)) (unsubscribe func()) {
	return f.listeners.Add(handler)
}
