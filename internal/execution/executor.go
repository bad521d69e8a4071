package execution

import (
	"context"

	"go.uber.org/zap"

	"arb-signals/internal/feed"
)

// Executor 把一条已通过验证的信号转化为两条顺序交易腿：
// 买入腿同步执行，解析其实际成交数量后把该数量交给卖出腿；
// 卖出腿派发后即放手，完成与否不回流到核心状态。
type Executor struct {
	runner     LegRunner
	maxDeposit int
	logger     *zap.Logger
}

// NewExecutor 创建交易执行器。
func NewExecutor(runner LegRunner, maxDeposit int, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		runner:     runner,
		maxDeposit: maxDeposit,
		logger:     logger,
	}
}

// ExecuteBuyThenSell 顺序执行买入与卖出两条腿。
// 任何参数越界都在发起外部调用之前拒绝；买入腿失败则卖出腿
// 不会被触发。
func (e *Executor) ExecuteBuyThenSell(ctx context.Context, signal feed.TradeSignal, deposit string) TradeOutcome {
	if err := e.sanitize(signal, deposit); err != nil {
		e.logger.Warn("参数校验未通过，拒绝执行", zap.Error(err))
		return TradeOutcome{FailureReason: ReasonInvalidParams}
	}

	buyResult, err := e.runner.Run(ctx, LegRequest{
		Venue:   signal.BuyVenue,
		Symbol:  signal.Symbol,
		Deposit: deposit,
	})
	if err != nil {
		e.logger.Error("买入腿执行失败", zap.Error(err))
		return TradeOutcome{FailureReason: ReasonBuyLegFailed}
	}

	if !buyResult.Succeeded {
		e.logger.Warn("买入腿非零退出",
			zap.String("venue", signal.BuyVenue),
			zap.String("output", buyResult.RawOutput),
		)
		return TradeOutcome{Buy: buyResult, FailureReason: ReasonBuyLegFailed}
	}

	if buyResult.FilledAmount == nil {
		e.logger.Warn("买入腿未报告成交数量",
			zap.String("venue", signal.BuyVenue),
			zap.String("output", buyResult.RawOutput),
		)
		return TradeOutcome{Buy: buyResult, FailureReason: ReasonMissingSentinel}
	}

	if err := sanitizeFill(buyResult.FilledAmount); err != nil {
		e.logger.Warn("买入腿成交数量非法", zap.Error(err))
		return TradeOutcome{Buy: buyResult, FailureReason: ReasonInvalidParams}
	}

	e.logger.Info("买入腿成交",
		zap.String("venue", signal.BuyVenue),
		zap.Float64("filled_amount", *buyResult.FilledAmount),
	)

	// 卖出腿在确知买入数量后立即派发，不等待其结束。
	// 派发后的生命周期与本信号脱钩，这是有意为之的观测边界。
	sellReq := LegRequest{
		Venue:   signal.SellVenue,
		Symbol:  signal.Symbol,
		Deposit: deposit,
		Fill:    buyResult.FilledAmount,
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		result, runErr := e.runner.Run(detached, sellReq)
		if runErr != nil {
			e.logger.Warn("卖出腿执行异常", zap.Error(runErr))
			return
		}
		e.logger.Debug("卖出腿退出",
			zap.String("venue", sellReq.Venue),
			zap.Bool("exit_ok", result.Succeeded),
		)
	}()

	e.logger.Info("卖出腿已派发",
		zap.String("venue", signal.SellVenue),
		zap.Float64("fill", *buyResult.FilledAmount),
	)

	return TradeOutcome{Buy: buyResult, SellDispatched: true}
}

func (e *Executor) sanitize(signal feed.TradeSignal, deposit string) error {
	if err := sanitizeVenue(signal.BuyVenue); err != nil {
		return err
	}
	if err := sanitizeVenue(signal.SellVenue); err != nil {
		return err
	}
	if err := sanitizeSymbol(signal.Symbol); err != nil {
		return err
	}
	return sanitizeDeposit(deposit, e.maxDeposit)
}
