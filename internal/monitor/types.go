package monitor

import (
	"time"

	"arb-signals/internal/execution"
	"arb-signals/internal/feed"
	"arb-signals/internal/pricing"
	"arb-signals/internal/validate"
)

// EventType 表示监控事件类型。
type EventType string

const (
	EventSignalReceived  EventType = "signal_received"
	EventSignalDebounced EventType = "signal_debounced"
	EventPricing         EventType = "pricing"
	EventValidation      EventType = "validation"
	EventExecution       EventType = "execution"
	EventError           EventType = "error"
)

// Event 封装通用监控事件。
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SignalPayload 记录一条入站信号。
type SignalPayload struct {
	Signal feed.TradeSignal `json:"signal"`
	Raw    string           `json:"raw,omitempty"`
}

// PricingPayload 记录双边定价结果。
type PricingPayload struct {
	Quote pricing.SignalQuote `json:"quote"`
}

// ValidationPayload 记录验证流水线的逐步结论。
type ValidationPayload struct {
	Signal  feed.TradeSignal `json:"signal"`
	Outcome validate.Outcome `json:"outcome"`
}

// ExecutionPayload 记录两腿执行结果。
type ExecutionPayload struct {
	Signal  feed.TradeSignal       `json:"signal"`
	Outcome execution.TradeOutcome `json:"outcome"`
}

// ErrorPayload 记录异常。
type ErrorPayload struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}
