package telemetry

import "sync"

// TrendPoint is one sample of total power.
type TrendPoint struct {
	Time  string  `json:"time"`
	Power float64 `json:"power"`
}

// Trend keeps the most recent total power samples, oldest first.
type Trend struct {
	mu       sync.Mutex
	capacity int
	points   []TrendPoint
}

func NewTrend(capacity int) *Trend {
	if capacity <= 0 {
		capacity = 60
	}
	return &Trend{capacity: capacity}
}

func (t *Trend) Add(point TrendPoint) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.points = append(t.points, point)
	if overflow := len(t.points) - t.capacity; overflow > 0 {
		t.points = append(t.points[:0:0], t.points[overflow:]...)
	}
}

func (t *Trend) Points() []TrendPoint {
	t.mu.Lock()
	defer t.mu.Unlock()

	points := make([]TrendPoint, len(t.points))
	copy(points, t.points)
	return points
}
