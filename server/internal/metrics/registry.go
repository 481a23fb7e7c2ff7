package metrics

import (
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Metric names exposed at /metrics.
const (
	eventsName   = "flowlens_webhook_events_total"
	rejectedName = "flowlens_webhook_rejected_total"
	clientsName  = "flowlens_ws_clients"
)

// Registry is a thread-safe in-memory metrics registry.
// The zero value is not usable; call New.
type Registry struct {
	mu           sync.Mutex
	eventsByKind map[string]float64
	rejected     float64

	// clients reports the current connected-observer count at scrape time.
	// Nil means the gauge is exported as 0.
	clients func() int
}

// New creates an empty Registry. clients may be nil.
func New(clients func() int) *Registry {
	return &Registry{
		eventsByKind: make(map[string]float64),
		clients:      clients,
	}
}

// EventNormalized increments the events counter for the given kind.
func (r *Registry) EventNormalized(kind string) {
	r.mu.Lock()
	r.eventsByKind[kind]++
	r.mu.Unlock()
}

// PayloadRejected increments the rejected-payload counter.
func (r *Registry) PayloadRejected() {
	r.mu.Lock()
	r.rejected++
	r.mu.Unlock()
}

// ServeHTTP writes the current metric families in Prometheus text format.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	w.Header().Set("Content-Type", string(format))

	enc := expfmt.NewEncoder(w, format)
	for _, mf := range r.gather() {
		if err := enc.Encode(mf); err != nil {
			// Client went away mid-scrape; nothing useful to do.
			return
		}
	}
}

// gather snapshots the registry into metric families, sorted by name for a
// stable exposition.
func (r *Registry) gather() []*dto.MetricFamily {
	r.mu.Lock()
	kinds := make([]string, 0, len(r.eventsByKind))
	for k := range r.eventsByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	eventMetrics := make([]*dto.Metric, 0, len(kinds))
	for _, k := range kinds {
		eventMetrics = append(eventMetrics, &dto.Metric{
			Label:   []*dto.LabelPair{{Name: strPtr("kind"), Value: strPtr(k)}},
			Counter: &dto.Counter{Value: f64Ptr(r.eventsByKind[k])},
		})
	}
	rejected := r.rejected
	r.mu.Unlock()

	connected := 0
	if r.clients != nil {
		connected = r.clients()
	}

	families := []*dto.MetricFamily{
		{
			Name:   strPtr(eventsName),
			Help:   strPtr("Webhook events normalized and broadcast, by kind."),
			Type:   dto.MetricType_COUNTER.Enum(),
			Metric: eventMetrics,
		},
		{
			Name: strPtr(rejectedName),
			Help: strPtr("Webhook POST bodies rejected as unparseable."),
			Type: dto.MetricType_COUNTER.Enum(),
			Metric: []*dto.Metric{
				{Counter: &dto.Counter{Value: f64Ptr(rejected)}},
			},
		},
		{
			Name: strPtr(clientsName),
			Help: strPtr("Observers currently connected to the stream."),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{
				{Gauge: &dto.Gauge{Value: f64Ptr(float64(connected))}},
			},
		},
	}

	// Families with no samples are skipped by the encoder anyway, but an
	// empty counter family is invalid exposition — drop it.
	out := families[:0]
	for _, mf := range families {
		if len(mf.Metric) > 0 {
			out = append(out, mf)
		}
	}
	return out
}

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }
