package dashboard

import (
	"math/rand"
	"sync"
	"time"

	"github.com/flowlens/flowlens/pkg/types"
)

const (
	// HistogramHours is the fixed number of hour-of-day buckets.
	HistogramHours = 24

	// MaxRecentLogs caps the recent-events buffer; the oldest entry is
	// evicted once the cap is exceeded.
	MaxRecentLogs = 50
)

// HourlyBucket accumulates event and error counts for one hour of day.
// Buckets are created once at seed time and only ever incremented.
type HourlyBucket struct {
	Hour   int `json:"hour"` // 0..23
	Events int `json:"events"`
	Errors int `json:"errors"`
}

// State is a point-in-time copy of the dashboard.
type State struct {
	Histogram  []HourlyBucket   `json:"histogram"`
	RecentLogs []types.LogEvent `json:"recentLogs"`
	Live       bool             `json:"live"`
	Connected  bool             `json:"connected"`
}

// Reducer folds the event stream and connection status into dashboard state.
// It is safe for concurrent use.
type Reducer struct {
	mu        sync.Mutex
	histogram []HourlyBucket
	recent    []types.LogEvent
	live      bool
	connected bool

	now func() time.Time // injectable for deterministic tests
	rng *rand.Rand
}

// New creates a Reducer seeded with synthetic baseline data so the display
// is non-empty before real traffic arrives. Live mode starts enabled.
func New() *Reducer {
	return newReducer(time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newReducer(now func() time.Time, rng *rand.Rand) *Reducer {
	r := &Reducer{now: now, rng: rng, live: true}
	r.seed()
	return r
}

// Apply folds one real event into the state: prepend to the recent log
// (evicting past the cap) and bump the matching hour-of-day bucket. There is
// no deduplication — replaying an event double-counts, which is accepted
// under the best-effort delivery model.
func (r *Reducer) Apply(ev types.LogEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fold(ev)
}

// fold implements Apply; callers hold r.mu.
func (r *Reducer) fold(ev types.LogEvent) {
	r.recent = append([]types.LogEvent{ev}, r.recent...)
	if len(r.recent) > MaxRecentLogs {
		r.recent = r.recent[:MaxRecentLogs]
	}

	hour := ev.Timestamp.Local().Hour()
	for i := range r.histogram {
		if r.histogram[i].Hour == hour {
			if ev.IsError() {
				r.histogram[i].Errors++
			} else {
				r.histogram[i].Events++
			}
			return
		}
	}
	// No matching bucket — the event stays in the recent log only.
}

// nudgeCurrentHour adds demo filler counts to the current hour's bucket.
// Used only by the Simulator.
func (r *Reducer) nudgeCurrentHour(events, errors int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hour := r.now().Hour()
	for i := range r.histogram {
		if r.histogram[i].Hour == hour {
			r.histogram[i].Events += events
			r.histogram[i].Errors += errors
			return
		}
	}
}

// SetConnected records the stream connection status.
func (r *Reducer) SetConnected(connected bool) {
	r.mu.Lock()
	r.connected = connected
	r.mu.Unlock()
}

// Connected reports the last known stream connection status.
func (r *Reducer) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

// SetLive toggles the demo-data simulator. Real events are unaffected.
func (r *Reducer) SetLive(live bool) {
	r.mu.Lock()
	r.live = live
	r.mu.Unlock()
}

// Live reports whether demo data generation is enabled.
func (r *Reducer) Live() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// Snapshot returns a deep copy of the current dashboard state.
func (r *Reducer) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	hist := make([]HourlyBucket, len(r.histogram))
	copy(hist, r.histogram)
	logs := make([]types.LogEvent, len(r.recent))
	copy(logs, r.recent)

	return State{
		Histogram:  hist,
		RecentLogs: logs,
		Live:       r.live,
		Connected:  r.connected,
	}
}

// Totals returns the summed event and error counts across all buckets.
func (r *Reducer) Totals() (events, errors int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.histogram {
		events += b.Events
		errors += b.Errors
	}
	return events, errors
}
