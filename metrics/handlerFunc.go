package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/cpu"
)

const timeObserve = 1 * time.Second

type Metrics struct {
	CPU              prometheus.Gauge
	AllocatedMemory  prometheus.Gauge
	RequestsNow      prometheus.Gauge
	RequestsAsset    prometheus.Counter
	RequestsHTML     prometheus.Counter
	RequestsUncached prometheus.Counter
	RequestDuration  prometheus.Histogram
	Fingerprints     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "auditserve_cpu_usage",
			Help: "CPU usage",
		}),
		AllocatedMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "auditserve_allocated_memory",
		}),
		RequestsNow: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "auditserve_requests_are_being_processed",
			Help: "How many requests are being processed",
		}),
		RequestsAsset: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auditserve_requests_asset_policy_total",
			Help: "How many responses carried the long-lived asset cache policy",
		}),
		RequestsHTML: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auditserve_requests_html_policy_total",
			Help: "How many responses carried the revalidating HTML cache policy",
		}),
		RequestsUncached: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auditserve_requests_uncached_total",
			Help: "How many responses carried no cache policy",
		}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "auditserve_request_duration_seconds",
			Buckets: prometheus.DefBuckets,
		}),
		Fingerprints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "auditserve_fingerprints_stored",
			Help: "How many file fingerprints are stored now?",
		}),
	}
	reg.MustRegister(
		m.CPU,
		m.AllocatedMemory,
		m.RequestsNow,
		m.RequestsAsset,
		m.RequestsHTML,
		m.RequestsUncached,
		m.RequestDuration,
		m.Fingerprints,
	)
	return m
}

var reg *prometheus.Registry
var GlobalMetrics *Metrics

func UpdateCPU() {
	if GlobalMetrics == nil {
		return
	}
	p, err := cpu.Percent(0, false)
	if err == nil {
		GlobalMetrics.CPU.Set(p[0])
	}
}

func UpdateMemory() {
	if GlobalMetrics == nil {
		return
	}
	m := runtime.MemStats{}
	runtime.ReadMemStats(&m)
	GlobalMetrics.AllocatedMemory.Set(float64(m.Alloc))
}

func IncRequestsNow() {
	if GlobalMetrics == nil {
		return
	}
	GlobalMetrics.RequestsNow.Inc()
}

func DecRequestsNow() {
	if GlobalMetrics == nil {
		return
	}
	GlobalMetrics.RequestsNow.Dec()
}

// ObserveRequest counts a served request under its cache policy class.
func ObserveRequest(class string) {
	if GlobalMetrics == nil {
		return
	}
	switch class {
	case "asset":
		GlobalMetrics.RequestsAsset.Inc()
	case "html":
		GlobalMetrics.RequestsHTML.Inc()
	default:
		GlobalMetrics.RequestsUncached.Inc()
	}
}

func ObserveDuration(d time.Duration) {
	if GlobalMetrics == nil {
		return
	}
	GlobalMetrics.RequestDuration.Observe(d.Seconds())
}

func SetFingerprints(count int) {
	if GlobalMetrics == nil {
		return
	}
	GlobalMetrics.Fingerprints.Set(float64(count))
}

func Init() {
	reg = prometheus.NewRegistry()
	GlobalMetrics = NewMetrics(reg)
	go func() {
		t := time.NewTicker(timeObserve)
		for {
			<-t.C
			// cpu
			UpdateCPU()

			// memory
			UpdateMemory()
		}
	}()
}

func Handler() http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
