package metrics

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/isocronas-quito/api/internal/isochrone"
	"github.com/isocronas-quito/api/internal/refresh"
	"github.com/isocronas-quito/api/models"
)

// runningStat keeps mean and variance of a stream with Welford's online algorithm
type runningStat struct {
	n    int
	mean float64
	m2   float64
}

func (s *runningStat) add(x float64) {
	s.n++
	delta := x - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (x - s.mean)
}

// stddev is the population standard deviation; 0 below two samples
func (s *runningStat) stddev() float64 {
	if s.n < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.n))
}

// StationStat summarises the isochrone loads of one station since startup
type StationStat struct {
	Station       string     `json:"station"`
	Loaded        int        `json:"loaded"`
	Failed        int        `json:"failed"`
	Discarded     int        `json:"discarded"`
	MeanMs        float64    `json:"meanMs"`
	StdDevMs      float64    `json:"stdDevMs"`
	LastErrorKind string     `json:"lastErrorKind,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
	LastFailureAt *time.Time `json:"lastFailureAt,omitempty"`
}

type stationEntry struct {
	stat    StationStat
	latency runningStat
}

// StationStats collects per-station load latency and failures.
// It implements refresh.Observer.
type StationStats struct {
	mu       sync.Mutex
	stations map[string]*stationEntry
	now      func() time.Time
}

// NewStationStats creates an empty collector
func NewStationStats() *StationStats {
	return &StationStats{stations: make(map[string]*stationEntry), now: time.Now}
}

func (s *StationStats) entry(station string) *stationEntry {
	e, ok := s.stations[station]
	if !ok {
		e = &stationEntry{stat: StationStat{Station: station}}
		s.stations[station] = e
	}
	return e
}

func (s *StationStats) RefreshStarted(uuid.UUID, models.TimeSelection, int) {}

func (s *StationStats) StationLoaded(_ models.TimeSelection, station string, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(station)
	e.stat.Loaded++
	e.latency.add(float64(elapsed) / float64(time.Millisecond))
}

func (s *StationStats) StationFailed(_ models.TimeSelection, station string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(station)
	e.stat.Failed++
	e.stat.LastErrorKind = isochrone.ErrorKind(err)
	e.stat.LastError = err.Error()
	at := s.now().UTC()
	e.stat.LastFailureAt = &at
}

func (s *StationStats) StationDiscarded(_ models.TimeSelection, station string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(station).stat.Discarded++
}

func (s *StationStats) RefreshSettled(refresh.Result) {}

// Snapshot returns the stats of every station seen so far, sorted by name
func (s *StationStats) Snapshot() []StationStat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]StationStat, 0, len(s.stations))
	for _, e := range s.stations {
		st := e.stat
		st.MeanMs = e.latency.mean
		st.StdDevMs = e.latency.stddev()
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Station < out[j].Station })
	return out
}

var _ refresh.Observer = (*StationStats)(nil)
