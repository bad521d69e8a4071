package pricing

import (
	"context"

	"go.uber.org/zap"

	"arb-signals/internal/venue"
)

// SignalQuote 汇总一条信号在买卖两端的可实现均价。
// 价格为 nil 表示对应盘口流动性不足，无法覆盖目标金额。
type SignalQuote struct {
	Symbol    string   `json:"symbol"`
	BuyVenue  string   `json:"buy_venue"`
	SellVenue string   `json:"sell_venue"`
	BuyPrice  *float64 `json:"buy_price,omitempty"`
	SellPrice *float64 `json:"sell_price,omitempty"`
}

// WalkAsks 沿卖盘从优到劣逐档消耗报价金额，返回成交量加权均价。
// 最后一档只取 remaining/price 的部分数量。盘口深度不足以
// 覆盖全部金额时视为无法定价。
func WalkAsks(asks []venue.OrderBookLevel, notional float64) (float64, bool) {
	if notional <= 0 {
		return 0, false
	}

	var cost, filled float64
	remaining := notional

	for _, level := range asks {
		if remaining <= 0 {
			break
		}
		if level.Price <= 0 || level.Volume <= 0 {
			continue
		}
		levelCost := level.Price * level.Volume
		if levelCost <= remaining {
			cost += levelCost
			filled += level.Volume
			remaining -= levelCost
		} else {
			affordable := remaining / level.Price
			cost += affordable * level.Price
			filled += affordable
			remaining = 0
		}
	}

	if filled == 0 || remaining > 0 {
		return 0, false
	}
	return cost / filled, true
}

// WalkBids 沿买盘从优到劣逐档卖出给定数量，返回成交量加权均价。
// 与 WalkAsks 对称，但消耗的是基础币数量而非报价金额。
func WalkBids(bids []venue.OrderBookLevel, quantity float64) (float64, bool) {
	if quantity <= 0 {
		return 0, false
	}

	var revenue, sold float64
	remaining := quantity

	for _, level := range bids {
		if remaining <= 0 {
			break
		}
		if level.Price <= 0 || level.Volume <= 0 {
			continue
		}
		if level.Volume <= remaining {
			revenue += level.Price * level.Volume
			sold += level.Volume
			remaining -= level.Volume
		} else {
			revenue += level.Price * remaining
			sold += remaining
			remaining = 0
		}
	}

	if sold == 0 || remaining > 0 {
		return 0, false
	}
	return revenue / sold, true
}

// Pricer 基于实时订单簿估算可实现成交均价。
// 每次调用都重新拉取盘口快照，不做缓存。
type Pricer struct {
	logger *zap.Logger
}

// NewPricer 创建定价器。
func NewPricer(logger *zap.Logger) *Pricer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pricer{logger: logger}
}

// AverageBuyPrice 估算在 v 上用 notional 报价金额买入 symbol 的均价。
func (p *Pricer) AverageBuyPrice(ctx context.Context, v venue.Adapter, symbol string, notional float64) (float64, bool, error) {
	book, err := v.OrderBook(ctx, symbol)
	if err != nil {
		return 0, false, err
	}

	avg, ok := WalkAsks(book.Asks, notional)
	if !ok {
		p.logger.Info("买入盘口流动性不足",
			zap.String("venue", v.Name()),
			zap.String("symbol", symbol),
			zap.Float64("notional", notional),
		)
		return 0, false, nil
	}

	p.logger.Info("买入均价估算完成",
		zap.String("venue", v.Name()),
		zap.String("symbol", symbol),
		zap.Float64("average_price", avg),
	)
	return avg, true, nil
}

// AverageSellPrice 估算在 v 上卖出价值 notional 的 symbol 的均价。
// 先按最新价把报价金额折算成基础币数量，再沿买盘逐档卖出。
func (p *Pricer) AverageSellPrice(ctx context.Context, v venue.Adapter, symbol string, notional float64) (float64, bool, error) {
	lastPrice, err := v.LastPrice(ctx, symbol)
	if err != nil {
		return 0, false, err
	}

	quantity := notional / lastPrice

	book, err := v.OrderBook(ctx, symbol)
	if err != nil {
		return 0, false, err
	}

	avg, ok := WalkBids(book.Bids, quantity)
	if !ok {
		p.logger.Info("卖出盘口流动性不足",
			zap.String("venue", v.Name()),
			zap.String("symbol", symbol),
			zap.Float64("quantity", quantity),
		)
		return 0, false, nil
	}

	p.logger.Info("卖出均价估算完成",
		zap.String("venue", v.Name()),
		zap.String("symbol", symbol),
		zap.Float64("average_price", avg),
	)
	return avg, true, nil
}
