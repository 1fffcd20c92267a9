package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder publishes inspection telemetry. A nil *Recorder records nothing.
type Recorder struct {
	inspections     *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	threats         *prometheus.CounterVec
	alertsDropped   prometheus.Counter
	alertsDuplicate prometheus.Counter
}

// NewRecorder creates the rasp_* collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		inspections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rasp_inspections_total",
				Help: "Payload inspections performed",
			},
			[]string{"layer"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rasp_inspection_duration_seconds",
				Help:    "Time spent inspecting one request",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
			[]string{"layer"},
		),
		threats: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rasp_threats_total",
				Help: "Threats detected",
			},
			[]string{"layer", "threat_type", "action"},
		),
		alertsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rasp_alerts_dropped_total",
			Help: "Alerts evicted from a full alert bus",
		}),
		alertsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rasp_alerts_duplicate_total",
			Help: "Alerts suppressed as duplicates",
		}),
	}
	for _, c := range []prometheus.Collector{r.inspections, r.duration, r.threats, r.alertsDropped, r.alertsDuplicate} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RecordInspection counts one inspection at layer and observes its latency.
func (r *Recorder) RecordInspection(layer string, d time.Duration) {
	if r == nil {
		return
	}
	r.inspections.WithLabelValues(layer).Inc()
	r.duration.WithLabelValues(layer).Observe(d.Seconds())
}

// ReportThreat counts a detection, labelled blocked or monitored.
func (r *Recorder) ReportThreat(layer, threatType string, blocked bool) {
	if r == nil {
		return
	}
	action := "monitored"
	if blocked {
		action = "blocked"
	}
	r.threats.WithLabelValues(layer, threatType, action).Inc()
}

func (r *Recorder) AlertDropped() {
	if r == nil {
		return
	}
	r.alertsDropped.Inc()
}

func (r *Recorder) AlertDuplicate() {
	if r == nil {
		return
	}
	r.alertsDuplicate.Inc()
}
