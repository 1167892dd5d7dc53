package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/ups-monitor/internal/history"
	"github.com/nerrad567/ups-monitor/internal/snapshot"
)

const namespace = "upsmonitor"

// Tick results recorded in ticks_total.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultPanic = "panic"
)

// Metrics holds the monitor's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ticks        *prometheus.CounterVec
	ticksSkipped *prometheus.CounterVec
	tickDuration *prometheus.HistogramVec
	historyRows  prometheus.Counter
	published    *prometheus.CounterVec

	nutUp         prometheus.Gauge
	lastPoll      prometheus.Gauge
	devices       prometheus.Gauge
	inputVoltage  *prometheus.GaugeVec
	batteryCharge *prometheus.GaugeVec
}

// New creates and registers every collector, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Scheduler ticks run, by action and result",
		}, []string{"action", "result"}),
		ticksSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_skipped_total",
			Help:      "Ticks dropped because the previous run of the same action was still in progress",
		}, []string{"action"}),
		tickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of scheduler ticks",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"action"}),
		historyRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_rows_written_total",
			Help:      "History rows appended",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Live-update events handed to the broadcast fan-out",
		}, []string{"event"}),
		nutUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nut_up",
			Help:      "1 if the last poll of upsd succeeded, 0 otherwise",
		}),
		lastPoll: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_poll_timestamp_seconds",
			Help:      "Unix time of the last poll",
		}),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices",
			Help:      "UPS units reported by the last successful poll",
		}),
		inputVoltage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "input_voltage_volts",
			Help:      "input.voltage reported by the UPS",
		}, []string{"ups", "room"}),
		batteryCharge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "battery_charge_percent",
			Help:      "battery.charge reported by the UPS",
		}, []string{"ups", "room"}),
	}

	m.registry.MustRegister(
		m.ticks,
		m.ticksSkipped,
		m.tickDuration,
		m.historyRows,
		m.published,
		m.nutUp,
		m.lastPoll,
		m.devices,
		m.inputVoltage,
		m.batteryCharge,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterGauge adds a gauge whose value is read from fn at scrape time.
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// ObserveTick records one completed tick.
func (m *Metrics) ObserveTick(action, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(action, result).Inc()
	m.tickDuration.WithLabelValues(action).Observe(took.Seconds())
}

// TickSkipped records a dropped tick.
func (m *Metrics) TickSkipped(action string) {
	if m == nil {
		return
	}
	m.ticksSkipped.WithLabelValues(action).Inc()
}

// HistoryRowsWritten adds n to the history row counter.
func (m *Metrics) HistoryRowsWritten(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.historyRows.Add(float64(n))
}

// EventPublished counts one event sent to subscribers.
func (m *Metrics) EventPublished(event string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(event).Inc()
}

// ObserveSnapshot updates the per-UPS gauges. Devices missing from snap
// disappear from the export; an error snapshot clears them all.
func (m *Metrics) ObserveSnapshot(snap *snapshot.SystemSnapshot) {
	if m == nil || snap == nil {
		return
	}

	m.lastPoll.Set(float64(snap.TakenAt().Unix()))
	m.inputVoltage.Reset()
	m.batteryCharge.Reset()

	if snap.IsError() {
		m.nutUp.Set(0)
		m.devices.Set(0)
		return
	}

	m.nutUp.Set(1)
	m.devices.Set(float64(snap.Len()))
	for _, d := range snap.Devices() {
		if v, err := history.ParseMeasure(d.Var(history.VarInputVoltage, "")); err == nil {
			m.inputVoltage.WithLabelValues(d.DeviceID, d.RoomLabel).Set(v)
		}
		if v, err := history.ParseMeasure(d.Var(history.VarBatteryCharge, "")); err == nil {
			m.batteryCharge.WithLabelValues(d.DeviceID, d.RoomLabel).Set(v)
		}
	}
}
