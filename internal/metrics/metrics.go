package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taoyao-code/soundboard-gateway/internal/protocol/sbp"
	"github.com/taoyao-code/soundboard-gateway/internal/soundboard"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	FramesTotal         *prometheus.CounterVec // labels: board, cmd, result
	StatusReadsTotal    *prometheus.CounterVec // labels: board, result
	Volume              *prometheus.GaugeVec   // labels: board
	ChannelActive       *prometheus.GaugeVec   // labels: board, channel
	BridgeAccepted      prometheus.Counter
	BridgeBytesReceived prometheus.Counter
	OnlineGauge         prometheus.Gauge // 当前在线板数
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sb_frames_total",
			Help: "Command frames written to soundboards.",
		}, []string{"board", "cmd", "result"}),
		StatusReadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sb_status_reads_total",
			Help: "Status replies read from soundboards.",
		}, []string{"board", "result"}),
		Volume: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sb_volume",
			Help: "Last known soundboard volume (0-9).",
		}, []string{"board"}),
		ChannelActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sb_channel_active",
			Help: "Channel playing flag from the last status reply.",
		}, []string{"board", "channel"}),
		BridgeAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bridge_accept_total",
			Help: "Total accepted bus bridge connections.",
		}),
		BridgeBytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bridge_bytes_received_total",
			Help: "Total bytes received by the bus bridge.",
		}),
		OnlineGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sb_boards_online",
			Help: "Current number of online soundboards.",
		}),
	}
	reg.MustRegister(m.FramesTotal, m.StatusReadsTotal, m.Volume, m.ChannelActive, m.BridgeAccepted, m.BridgeBytesReceived, m.OnlineGauge)
	return m
}

// Hooks 把板事件记录为指标
func (m *AppMetrics) Hooks() soundboard.Hooks {
	return soundboard.HookFuncs{
		Command: m.observeCommand,
		Status:  m.observeStatus,
	}
}

func (m *AppMetrics) observeCommand(e soundboard.CommandEvent) {
	m.FramesTotal.WithLabelValues(e.Board, string(e.Kind), sbp.Result(e.Err)).Inc()
}

func (m *AppMetrics) observeStatus(e soundboard.StatusEvent) {
	m.StatusReadsTotal.WithLabelValues(e.Board, sbp.Result(e.Err)).Inc()
	if e.Err != nil {
		return
	}
	m.Volume.WithLabelValues(e.Board).Set(float64(e.Report.Volume))
	for ch := 1; ch <= sbp.MaxChannel; ch++ {
		active, _ := e.Report.ChannelActive(ch)
		v := 0.0
		if active {
			v = 1
		}
		m.ChannelActive.WithLabelValues(e.Board, strconv.Itoa(ch)).Set(v)
	}
}
