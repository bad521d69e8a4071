package app

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"arb-signals/internal/config"
	"arb-signals/internal/execution"
	"arb-signals/internal/feed"
	"arb-signals/internal/market"
	"arb-signals/internal/metrics"
	"arb-signals/internal/monitor"
	"arb-signals/internal/pricing"
	"arb-signals/internal/ratelimit"
	"arb-signals/internal/store"
	"arb-signals/internal/validate"
	"arb-signals/internal/venue"
)

// orchestrator 串起单条信号的完整生命周期：
// 解析 → 去抖动 → 双边定价 → 验证 → 两腿执行。
// 信号串行处理，去抖动闸门是唯一的准入控制。
type orchestrator struct {
	gate     *feed.Gate
	registry *venue.Registry
	catalog  *market.Catalog
	pricer   *pricing.Pricer
	pipeline *validate.Pipeline
	executor *execution.Executor
	monitor  *monitor.Service
	metrics  *metrics.Recorder
	logger   *zap.Logger

	deposit  string
	notional float64
	nowFn    func() time.Time
}

func newOrchestrator(cfg *config.Config, logger *zap.Logger, store *store.Store) (*orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := ratelimit.New(cfg.RateLimit.Window, cfg.RateLimit.MaxCalls)

	registry, err := venue.NewRegistry(cfg.Venues, cfg.Retry, limiter, logger)
	if err != nil {
		return nil, err
	}

	monitorSvc, err := monitor.NewService(store, logger)
	if err != nil {
		return nil, err
	}

	runner := execution.NewProcessRunner(cfg.Trade.ScriptDir, cfg.Trade.Interpreter, logger)
	catalog := market.NewCatalog(cfg.Market.CacheTTL, logger)

	return &orchestrator{
		gate:     feed.NewGate(cfg.Signal.MinInterval),
		registry: registry,
		catalog:  catalog,
		pricer:   pricing.NewPricer(logger),
		pipeline: validate.NewPipeline(registry, catalog, logger),
		executor: execution.NewExecutor(runner, cfg.Trade.MaxDeposit, logger),
		monitor:  monitorSvc,
		metrics:  metrics.New(),
		logger:   logger,
		deposit:  strconv.Itoa(cfg.Trade.Deposit),
		notional: float64(cfg.Trade.Deposit),
		nowFn:    time.Now,
	}, nil
}

func (o *orchestrator) Monitor() *monitor.Service {
	return o.monitor
}

// HandleMessage 处理一条入站文本消息。所有失败都在内部消化，
// 不向调用方传播：一条坏信号不应影响后续信号的处理。
func (o *orchestrator) HandleMessage(ctx context.Context, text string) {
	now := o.nowFn()

	signal, err := feed.Parse(text, now)
	if err != nil {
		o.metrics.RecordSignal(metrics.StageUnparsed)
		o.logger.Debug("消息无法解析为信号", zap.Error(err))
		return
	}

	if !o.gate.Accept(now) {
		o.metrics.RecordSignal(metrics.StageDebounced)
		o.logger.Info("信号在去抖动窗口内被拒绝",
			zap.String("symbol", signal.Symbol),
		)
		o.monitor.RecordDebounced(ctx, text)
		return
	}

	o.metrics.RecordSignal(metrics.StageReceived)
	o.logger.Info("收到套利信号",
		zap.String("symbol", signal.Symbol),
		zap.String("buy_venue", signal.BuyVenue),
		zap.String("sell_venue", signal.SellVenue),
	)
	o.monitor.RecordSignal(ctx, signal, text)

	quote := o.price(ctx, signal)
	o.monitor.RecordPricing(ctx, quote)

	outcome := o.pipeline.Validate(ctx, signal, quote)
	o.monitor.RecordValidation(ctx, signal, outcome)
	if !outcome.Passed() {
		o.metrics.RecordSignal(metrics.StageRejected)
		if check, reason, ok := outcome.Failure(); ok {
			o.logger.Info("信号未通过验证",
				zap.String("symbol", signal.Symbol),
				zap.String("check", string(check)),
				zap.String("reason", reason),
			)
		}
		return
	}

	tradeOutcome := o.executor.ExecuteBuyThenSell(ctx, signal, o.deposit)
	o.monitor.RecordExecution(ctx, signal, tradeOutcome)
	o.recordLegMetrics(signal, tradeOutcome)

	if tradeOutcome.Succeeded() {
		o.metrics.RecordSignal(metrics.StageExecuted)
		o.logger.Info("信号执行完成",
			zap.String("symbol", signal.Symbol),
			zap.Float64("filled_amount", *tradeOutcome.Buy.FilledAmount),
		)
	} else {
		o.metrics.RecordSignal(metrics.StageRejected)
		o.logger.Warn("信号执行失败",
			zap.String("symbol", signal.Symbol),
			zap.String("reason", tradeOutcome.FailureReason),
		)
	}
}

// price 并行估算买卖两端的可实现均价。定价失败不是错误，
// 对应价格保持为空，由验证流水线给出结论。
func (o *orchestrator) price(ctx context.Context, signal feed.TradeSignal) pricing.SignalQuote {
	quote := pricing.SignalQuote{
		Symbol:    signal.Symbol,
		BuyVenue:  signal.BuyVenue,
		SellVenue: signal.SellVenue,
	}

	// 同一交易所或未知交易所不触发任何外部调用，
	// 留给验证流水线的凭证与角色检查报告。
	if signal.BuyVenue == signal.SellVenue {
		return quote
	}
	buyVenue, buyKnown := o.registry.Get(signal.BuyVenue)
	sellVenue, sellKnown := o.registry.Get(signal.SellVenue)
	if !buyKnown || !sellKnown {
		return quote
	}

	var (
		buyPrice, sellPrice float64
		buyOK, sellOK       bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		price, ok, err := o.pricer.AverageBuyPrice(gctx, buyVenue, signal.Symbol, o.notional)
		if err != nil {
			o.logger.Warn("买入端定价失败",
				zap.String("venue", signal.BuyVenue),
				zap.Error(err),
			)
			o.metrics.RecordError("pricing")
			o.monitor.RecordError(gctx, "买入端定价失败", err,
				map[string]interface{}{"venue": signal.BuyVenue, "symbol": signal.Symbol})
			return nil
		}
		buyPrice, buyOK = price, ok
		return nil
	})
	g.Go(func() error {
		price, ok, err := o.pricer.AverageSellPrice(gctx, sellVenue, signal.Symbol, o.notional)
		if err != nil {
			o.logger.Warn("卖出端定价失败",
				zap.String("venue", signal.SellVenue),
				zap.Error(err),
			)
			o.metrics.RecordError("pricing")
			o.monitor.RecordError(gctx, "卖出端定价失败", err,
				map[string]interface{}{"venue": signal.SellVenue, "symbol": signal.Symbol})
			return nil
		}
		sellPrice, sellOK = price, ok
		return nil
	})
	_ = g.Wait()

	if buyOK {
		quote.BuyPrice = &buyPrice
	}
	if sellOK {
		quote.SellPrice = &sellPrice
	}
	return quote
}

func (o *orchestrator) recordLegMetrics(signal feed.TradeSignal, outcome execution.TradeOutcome) {
	buyOutcome := "failed"
	if outcome.Buy.Succeeded {
		buyOutcome = "ok"
	}
	o.metrics.RecordLeg(signal.BuyVenue, "buy", buyOutcome)

	if outcome.SellDispatched {
		o.metrics.RecordLeg(signal.SellVenue, "sell", "dispatched")
	}
}
