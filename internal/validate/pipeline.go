package validate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"arb-signals/internal/feed"
	"arb-signals/internal/pricing"
	"arb-signals/internal/venue"
)

// VenueDirectory 提供按名称取适配器与角色归属判断的能力。
type VenueDirectory interface {
	Get(name string) (venue.Adapter, bool)
	IsBuyer(name string) bool
	IsSeller(name string) bool
}

// SymbolSource 提供交易所可交易符号集合的查询能力。
type SymbolSource interface {
	SymbolsFor(ctx context.Context, v venue.Adapter) map[string]struct{}
}

// Pipeline 按固定顺序对信号做快速失败验证：
// 凭证完整性 → 角色正确性 → 符号上架 → 价格可得 → 有利可图 → 借贷可用。
// 任一检查失败即终止，后续检查不再执行。
type Pipeline struct {
	registry VenueDirectory
	catalog  SymbolSource
	logger   *zap.Logger
}

// NewPipeline 创建验证流水线。
func NewPipeline(registry VenueDirectory, catalog SymbolSource, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		registry: registry,
		catalog:  catalog,
		logger:   logger,
	}
}

// Validate 对信号执行全部检查并返回逐步结论。
func (p *Pipeline) Validate(ctx context.Context, signal feed.TradeSignal, quote pricing.SignalQuote) Outcome {
	var outcome Outcome

	record := func(check Check, passed bool, reason string) bool {
		outcome.Steps = append(outcome.Steps, StepResult{Check: check, Passed: passed, Reason: reason})
		if passed {
			p.logger.Info("检查通过", zap.String("check", string(check)))
		} else {
			p.logger.Warn("检查失败",
				zap.String("check", string(check)),
				zap.String("reason", reason),
			)
		}
		return passed
	}

	// 检查 1：双边凭证完整性。
	for _, name := range []string{signal.BuyVenue, signal.SellVenue} {
		adapter, ok := p.registry.Get(name)
		if !ok {
			record(CheckCredentials, false, fmt.Sprintf("未知交易所: %s", name))
			return outcome
		}
		if err := venue.ValidateCredentials(adapter.Profile()); err != nil {
			record(CheckCredentials, false, err.Error())
			return outcome
		}
	}
	record(CheckCredentials, true, "")

	// 检查 2：角色正确性。买卖两端必须分属各自集合且不能是同一交易所。
	if signal.BuyVenue == signal.SellVenue {
		record(CheckRoles, false, fmt.Sprintf("买卖两端不能是同一交易所: %s", signal.BuyVenue))
		return outcome
	}
	if !p.registry.IsBuyer(signal.BuyVenue) {
		record(CheckRoles, false, fmt.Sprintf("%s 不在买入交易所集合中", signal.BuyVenue))
		return outcome
	}
	if !p.registry.IsSeller(signal.SellVenue) {
		record(CheckRoles, false, fmt.Sprintf("%s 不在卖出交易所集合中", signal.SellVenue))
		return outcome
	}
	record(CheckRoles, true, "")

	buyVenue, _ := p.registry.Get(signal.BuyVenue)
	sellVenue, _ := p.registry.Get(signal.SellVenue)

	// 检查 3：符号在两端均已上架。
	if _, listed := p.catalog.SymbolsFor(ctx, buyVenue)[signal.Symbol]; !listed {
		record(CheckListing, false, fmt.Sprintf("%s 未在买入交易所 %s 上架", signal.Symbol, signal.BuyVenue))
		return outcome
	}
	if _, listed := p.catalog.SymbolsFor(ctx, sellVenue)[signal.Symbol]; !listed {
		record(CheckListing, false, fmt.Sprintf("%s 未在卖出交易所 %s 上架", signal.Symbol, signal.SellVenue))
		return outcome
	}
	record(CheckListing, true, "")

	// 检查 4：两端价格均已估出。
	if quote.BuyPrice == nil {
		record(CheckPricing, false, fmt.Sprintf("买入端 %s 无法定价", signal.BuyVenue))
		return outcome
	}
	if quote.SellPrice == nil {
		record(CheckPricing, false, fmt.Sprintf("卖出端 %s 无法定价", signal.SellVenue))
		return outcome
	}
	record(CheckPricing, true, "")

	// 检查 5：严格有利可图。
	if *quote.BuyPrice >= *quote.SellPrice {
		record(CheckProfitability, false,
			fmt.Sprintf("买入价 %.8f 不低于卖出价 %.8f", *quote.BuyPrice, *quote.SellPrice))
		return outcome
	}
	record(CheckProfitability, true, "")

	// 检查 6：卖出端借贷可用。
	available, err := sellVenue.BorrowAvailable(ctx, signal.Base())
	if err != nil {
		record(CheckBorrow, false, fmt.Sprintf("借贷可用性查询失败: %v", err))
		return outcome
	}
	if !available {
		record(CheckBorrow, false, fmt.Sprintf("%s 在 %s 上不可借", signal.Base(), signal.SellVenue))
		return outcome
	}
	record(CheckBorrow, true, "")

	return outcome
}
