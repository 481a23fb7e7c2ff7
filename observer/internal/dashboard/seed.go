package dashboard

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/flowlens/flowlens/pkg/types"
)

// seedLogCount is how many synthetic entries the recent log starts with.
const seedLogCount = 15

// demoMessages are the canned messages used for seed and simulated entries.
var demoMessages = []string{
	"Database connection timeout",
	"API rate limit exceeded",
	"Authentication failed for user session",
	"Memory allocation error in service worker",
	"Network request failed with status 500",
	"Invalid JSON payload received",
	"SSL certificate verification failed",
	"Cache invalidation timeout",
	"Resource not found in storage",
	"Permission denied for resource access",
	"Queue processing backlog exceeded",
	"Microservice health check failed",
}

// seed populates the histogram with baseline counts and the recent log with
// synthetic entries spanning the last 24 hours, newest first.
func (r *Reducer) seed() {
	now := r.now()

	r.histogram = make([]HourlyBucket, 0, HistogramHours)
	for i := HistogramHours - 1; i >= 0; i-- {
		r.histogram = append(r.histogram, HourlyBucket{
			Hour:   now.Add(-time.Duration(i) * time.Hour).Hour(),
			Events: r.rng.Intn(50) + 10,
			Errors: r.rng.Intn(8),
		})
	}

	r.recent = make([]types.LogEvent, 0, seedLogCount)
	for i := 0; i < seedLogCount; i++ {
		age := time.Duration(r.rng.Float64() * float64(24*time.Hour))
		r.recent = append(r.recent, synthEvent(r.rng, now.Add(-age)))
	}
	sort.Slice(r.recent, func(i, j int) bool {
		return r.recent[i].Timestamp.After(r.recent[j].Timestamp)
	})
}

// synthEvent builds one synthetic log entry with a plausible severity mix.
func synthEvent(rng *rand.Rand, ts time.Time) types.LogEvent {
	return types.LogEvent{
		ID:        uuid.NewString(),
		Timestamp: ts,
		Kind:      types.KindError,
		Severity:  randomSeverity(rng),
		Message:   demoMessages[rng.Intn(len(demoMessages))],
		Source:    fmt.Sprintf("service-%d", rng.Intn(5)+1),
	}
}

// randomSeverity draws roughly 30% error, 30% warning, 40% info.
func randomSeverity(rng *rand.Rand) string {
	if rng.Float64() > 0.7 {
		return types.SeverityError
	}
	if rng.Float64() > 0.4 {
		return types.SeverityWarning
	}
	return types.SeverityInfo
}
