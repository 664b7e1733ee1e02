// Package prom adapts the loader's Metrics interface to Prometheus
// series: load starts/hits/misses, per-source call outcomes, decode
// duration and outcome, build outcome, and per-shard occupancy.
package prom

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/riftcache/assets/assets"
)

// Adapter implements assets.Metrics and exports Prometheus series. Safe
// for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	starts     *prometheus.CounterVec
	hits       *prometheus.CounterVec
	misses     *prometheus.CounterVec
	sourceCall *prometheus.CounterVec
	decodeDur  *prometheus.HistogramVec
	buildTotal *prometheus.CounterVec
	shardSize  *prometheus.GaugeVec
}

// New constructs a Prometheus metrics adapter.
//   - reg:         registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:     Prometheus namespace and subsystem
//   - constLabels: static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		starts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "load_starts_total",
			Help: "Load calls, by asset type", ConstLabels: constLabels,
		}, []string{"asset_type"}),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "load_hits_total",
			Help: "Load calls that joined an already-resident entry", ConstLabels: constLabels,
		}, []string{"asset_type"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "load_misses_total",
			Help: "Load calls that created a fresh entry", ConstLabels: constLabels,
		}, []string{"asset_type"}),
		sourceCall: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "source_calls_total",
			Help: "Source find/load calls, by source index and outcome", ConstLabels: constLabels,
		}, []string{"asset_type", "source", "outcome"}),
		decodeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: sub, Name: "decode_duration_seconds",
			Help: "Asset decode latency", ConstLabels: constLabels,
			Buckets: prometheus.DefBuckets,
		}, []string{"asset_type", "outcome"}),
		buildTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "builds_total",
			Help: "Asset build calls, by outcome", ConstLabels: constLabels,
		}, []string{"asset_type", "outcome"}),
		shardSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, Name: "shard_entries",
			Help: "Resident entries per shard", ConstLabels: constLabels,
		}, []string{"table", "shard"}),
	}
	reg.MustRegister(a.starts, a.hits, a.misses, a.sourceCall, a.decodeDur, a.buildTotal, a.shardSize)
	return a
}

func (a *Adapter) LoadStart(assetType string) { a.starts.WithLabelValues(assetType).Inc() }
func (a *Adapter) LoadHit(assetType string)    { a.hits.WithLabelValues(assetType).Inc() }
func (a *Adapter) LoadMiss(assetType string)   { a.misses.WithLabelValues(assetType).Inc() }

func (a *Adapter) SourceCall(assetType string, sourceIndex int, outcome string) {
	a.sourceCall.WithLabelValues(assetType, sourceLabel(sourceIndex), outcome).Inc()
}

func (a *Adapter) Decoded(assetType string, dur time.Duration, outcome string) {
	a.decodeDur.WithLabelValues(assetType, outcome).Observe(dur.Seconds())
}

func (a *Adapter) Built(assetType string, outcome string) {
	a.buildTotal.WithLabelValues(assetType, outcome).Inc()
}

func (a *Adapter) ShardSize(table string, shard int, entries int) {
	a.shardSize.WithLabelValues(table, strconv.Itoa(shard)).Set(float64(entries))
}

func sourceLabel(i int) string {
	if i < 0 {
		return "none"
	}
	return strconv.Itoa(i)
}

// Compile-time check: ensure Adapter implements assets.Metrics.
var _ assets.Metrics = (*Adapter)(nil)
