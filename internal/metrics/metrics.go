// Package metrics 以 Prometheus 指标观测 gmux 回调
package metrics

import (
	"net/http"

	"github.com/legamerdc/gmux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 汇总一个 Manager 的 Prometheus 指标
type Metrics struct {
	Events     *prometheus.CounterVec
	Registered prometheus.Gauge

	reg *prometheus.Registry
}

// New 创建并注册到独立的 Registry
func New() *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gmux_events_total",
				Help: "Callbacks dispatched by the poll loop",
			},
			[]string{"kind", "event", "status"},
		),
		Registered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gmux_registered_conns",
				Help: "Connections in the registry, sampled from the poll loop",
			},
		),
		reg: prometheus.NewRegistry(),
	}
	m.reg.MustRegister(m.Events, m.Registered)
	return m
}

// Instrument 包装 h，每次回调前计数
func (m *Metrics) Instrument(h gmux.Handler) gmux.Handler {
	return gmux.HandlerFunc(func(c *gmux.Conn, ev gmux.Event, st gmux.Status, data any) {
		m.Events.WithLabelValues(c.Kind().String(), ev.String(), st.String()).Inc()
		h.OnEvent(c, ev, st, data)
	})
}

// SetRegistered 只应在 poll 线程中以 Manager.Len() 调用
func (m *Metrics) SetRegistered(n int) { m.Registered.Set(float64(n)) }

// Handler 返回 /metrics 的 HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
