package execution

import "context"

// LegRequest 描述对单条交易腿执行器的一次调用。
// Fill 非空时表示把上一条腿的实际成交数量传给本腿。
type LegRequest struct {
	Venue   string
	Symbol  string
	Deposit string
	Fill    *float64
}

// LegResult 是一次腿执行的结构化结果。Succeeded 仅代表
// 进程以零状态退出；FilledAmount 为空表示本腿没有报告成交数量。
type LegResult struct {
	Succeeded    bool     `json:"succeeded"`
	FilledAmount *float64 `json:"filled_amount,omitempty"`
	RawOutput    string   `json:"raw_output,omitempty"`
}

// LegRunner 抽象交易腿的执行方式。生产实现是进程边界适配器
// （外部每个交易所一个执行程序），测试可以注入进程内实现。
type LegRunner interface {
	Run(ctx context.Context, req LegRequest) (LegResult, error)
}

// TradeOutcome 汇总一次买入-卖出执行的可观测结果。
// 卖出腿只确认已派发，完成与否不回流到核心状态。
type TradeOutcome struct {
	Buy            LegResult `json:"buy"`
	SellDispatched bool      `json:"sell_dispatched"`
	FailureReason  string    `json:"failure_reason,omitempty"`
}

// Succeeded 判断买入腿成交且卖出腿已派发。
func (o TradeOutcome) Succeeded() bool {
	return o.SellDispatched
}

// 稳定的失败原因，供测试与监控匹配。
const (
	ReasonInvalidParams   = "invalid parameters"
	ReasonBuyLegFailed    = "buy leg failed"
	ReasonMissingSentinel = "missing fill sentinel"
)
