package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 信号生命周期阶段标签值。
const (
	StageReceived  = "received"
	StageUnparsed  = "unparsed"
	StageDebounced = "debounced"
	StageRejected  = "rejected"
	StageExecuted  = "executed"
)

// Recorder 基于 Prometheus 统计信号处理与腿执行情况。
type Recorder struct {
	signalsTotal *prometheus.CounterVec
	legsTotal    *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
}

// New 创建指标记录器并注册到默认 Registry。
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arb_signals_total",
				Help: "按生命周期阶段统计的信号总数",
			},
			[]string{"stage"},
		),
		legsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arb_trade_legs_total",
				Help: "按交易所、方向与结果统计的交易腿总数",
			},
			[]string{"venue", "side", "outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arb_errors_total",
				Help: "按类型统计的错误总数",
			},
			[]string{"type"},
		),
	}
}

// RecordSignal 统计一个到达某生命周期阶段的信号。
func (r *Recorder) RecordSignal(stage string) {
	r.signalsTotal.WithLabelValues(stage).Inc()
}

// RecordLeg 统计一次腿执行。
func (r *Recorder) RecordLeg(venue, side, outcome string) {
	r.legsTotal.WithLabelValues(venue, side, outcome).Inc()
}

// RecordError 统计一次错误。
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
