package host

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics of the audio host.
type Metrics struct {
	Latency         prometheus.Gauge
	BandGain        *prometheus.GaugeVec
	Blocks          prometheus.Counter
	Frames          prometheus.Counter
	Oversized       prometheus.Counter
	CallbackSeconds prometheus.Histogram
}

// NewMetrics creates the metrics and registers them with registry.
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Latency: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dyneq_latency_samples",
			Help: "Latency reported by the equalizer in samples",
		}),
		BandGain: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dyneq_band_gain_db",
			Help: "Current dynamic gain of each band in dB",
		}, []string{"band"}),
		Blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dyneq_blocks_total",
			Help: "Total number of device callbacks processed",
		}),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dyneq_frames_total",
			Help: "Total number of frames processed",
		}),
		Oversized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dyneq_oversized_callbacks_total",
			Help: "Device callbacks larger than the prepared block size",
		}),
		CallbackSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dyneq_callback_seconds",
			Help:    "Time spent in the device callback",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 10),
		}),
	}

	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register host metrics: %w", err)
	}

	return m, nil
}

// SetBandGain records the dynamic gain of band i.
func (m *Metrics) SetBandGain(i int, db float64) {
	m.BandGain.WithLabelValues(strconv.Itoa(i)).Set(db)
}

// Collect implements the prometheus.Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.Latency
	m.BandGain.Collect(ch)
	ch <- m.Blocks
	ch <- m.Frames
	ch <- m.Oversized
	ch <- m.CallbackSeconds
}

// Describe implements the prometheus.Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.Latency.Desc()
	m.BandGain.Describe(ch)
	ch <- m.Blocks.Desc()
	ch <- m.Frames.Desc()
	ch <- m.Oversized.Desc()
	ch <- m.CallbackSeconds.Desc()
}
