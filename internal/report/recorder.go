// Package report records per-tick traces of a highway run and renders them
// as an HTML page (go-echarts) or PNG plots (gonum/plot).
package report

import (
	"sync"

	"github.com/banshee-data/highway/internal/sim"
)

// Sample is one row of the trace. Speeds are m/s; FrontGap is metres and
// only meaningful when FrontGapKnown is set.
type Sample struct {
	Tick uint64
	Time float64

	PreferredSpeed float64
	PreferredLane  float64
	FrontGap       float64
	FrontGapKnown  bool

	MeanSpeed         float64
	StdSpeed          float64
	ActiveLaneChanges int
	Collisions        int
	Recycled          int
}

// NewSample builds a sample from the preferred vehicle and a stats snapshot.
// A nil preferred vehicle leaves the preferred fields zero.
func NewSample(preferred *sim.Vehicle, gap float64, gapKnown bool, st sim.Stats) Sample {
	s := Sample{
		Tick:              st.Tick,
		Time:              st.Time,
		MeanSpeed:         st.MeanSpeed,
		StdSpeed:          st.StdSpeed,
		ActiveLaneChanges: st.ActiveLaneChanges,
		Collisions:        st.Collisions,
		Recycled:          st.Recycled,
	}
	if preferred != nil {
		s.PreferredSpeed = preferred.V()
		s.PreferredLane = preferred.Lane()
	}
	if gapKnown {
		s.FrontGap, s.FrontGapKnown = gap, true
	}
	return s
}

// Recorder accumulates samples. It is safe for concurrent use so a UI
// goroutine can read while the runner records.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
	limit   int
}

// NewRecorder returns a recorder that keeps at most limit samples, dropping
// the oldest. limit <= 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Record appends a sample.
func (r *Recorder) Record(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
	if r.limit > 0 && len(r.samples) > r.limit {
		n := copy(r.samples, r.samples[len(r.samples)-r.limit:])
		r.samples = r.samples[:n]
	}
}

// Samples returns a copy of the recorded samples in order.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// Len returns the number of samples held.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}
