package venue

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"go.uber.org/zap"

	"arb-signals/internal/config"
	"arb-signals/internal/ratelimit"
)

// marketAPI 抽象 ccxt 各交易所类共有的行情能力。
type marketAPI interface {
	LoadMarkets(params ...interface{}) (map[string]ccxt.MarketInterface, error)
	FetchOrderBook(symbol string, options ...ccxt.FetchOrderBookOptions) (ccxt.OrderBook, error)
	FetchTicker(symbol string, options ...ccxt.FetchTickerOptions) (ccxt.Ticker, error)
}

// borrowChecker 为卖出端交易所的借贷可用性查询。
type borrowChecker interface {
	Available(ctx context.Context, baseCurrency string) (bool, error)
}

// Client 负责与单个交易所交互，封装限流与重试机制。
type Client struct {
	profile Profile
	logger  *zap.Logger
	api     marketAPI
	borrow  borrowChecker
	limiter *ratelimit.Limiter
	retry   config.RetryConfig
	nowFn   func() time.Time
}

// NewClient 基于 ccxt 客户端构造交易所适配器。
func NewClient(profile Profile, api marketAPI, borrow borrowChecker, limiter *ratelimit.Limiter, retry config.RetryConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		profile: profile,
		logger:  logger,
		api:     api,
		borrow:  borrow,
		limiter: limiter,
		retry:   retry,
		nowFn:   time.Now,
	}
}

// Name 返回交易所名称。
func (c *Client) Name() string {
	return c.profile.Name
}

// Role 返回交易所角色。
func (c *Client) Role() Role {
	return c.profile.Role
}

// Profile 返回只读的交易所档案。
func (c *Client) Profile() Profile {
	return c.profile
}

// Symbols 拉取交易所可交易的符号集合。
func (c *Client) Symbols(ctx context.Context) (map[string]struct{}, error) {
	var symbols map[string]struct{}

	err := c.callWithRetry(ctx, "load_markets", func() error {
		markets, err := c.api.LoadMarkets()
		if err != nil {
			return err
		}
		symbols = make(map[string]struct{}, len(markets))
		for symbol := range markets {
			symbols[symbol] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("已加载交易所市场列表",
		zap.String("venue", c.profile.Name),
		zap.Int("symbols", len(symbols)),
	)
	return symbols, nil
}

// OrderBook 获取订单簿快照。
func (c *Client) OrderBook(ctx context.Context, symbol string) (OrderBookSnapshot, error) {
	var raw ccxt.OrderBook

	err := c.callWithRetry(ctx, "fetch_order_book", func() error {
		orderBook, err := c.api.FetchOrderBook(symbol)
		if err != nil {
			return err
		}
		raw = orderBook
		return nil
	})
	if err != nil {
		return OrderBookSnapshot{}, err
	}

	return convertOrderBook(symbol, raw), nil
}

// LastPrice 获取最新成交价，成交价缺失时退化到买一价。
func (c *Client) LastPrice(ctx context.Context, symbol string) (float64, error) {
	var ticker ccxt.Ticker

	err := c.callWithRetry(ctx, "fetch_ticker", func() error {
		result, err := c.api.FetchTicker(symbol)
		if err != nil {
			return err
		}
		ticker = result
		return nil
	})
	if err != nil {
		return 0, err
	}

	price := firstPositive(floatValue(ticker.Last), floatValue(ticker.Bid))
	if price <= 0 {
		return 0, fmt.Errorf("venue: %s 未返回 %s 的有效价格", c.profile.Name, symbol)
	}
	return price, nil
}

// BorrowAvailable 查询基础币种在该交易所是否可借。
// 未配置借贷查询的交易所（买入端）一律返回不可借。
func (c *Client) BorrowAvailable(ctx context.Context, baseCurrency string) (bool, error) {
	if c.borrow == nil {
		return false, fmt.Errorf("venue: %s 不支持借贷查询", c.profile.Name)
	}
	if !c.limiter.Allow(c.profile.Name, c.nowFn()) {
		return false, fmt.Errorf("%w: %s", ErrRateLimited, c.profile.Name)
	}
	return c.borrow.Available(ctx, baseCurrency)
}

func (c *Client) callWithRetry(ctx context.Context, operation string, fn func() error) error {
	attempt := 0
	delay := c.retry.MinDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	maxDelay := c.retry.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}
	maxAttempts := c.retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if !c.limiter.Allow(c.profile.Name, c.nowFn()) {
			return fmt.Errorf("%w: %s", ErrRateLimited, c.profile.Name)
		}

		attempt++
		start := time.Now()
		err := fn()
		duration := time.Since(start)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("交易所调用重试后成功",
					zap.String("venue", c.profile.Name),
					zap.String("operation", operation),
					zap.Int("attempts", attempt),
					zap.Duration("latency", duration),
				)
			}
			return nil
		}

		normalizedErr, retry := classifyError(err)

		if errors.Is(normalizedErr, ErrMaintenance) {
			c.logger.Warn("交易所维护中",
				zap.String("venue", c.profile.Name),
				zap.String("operation", operation),
				zap.Error(normalizedErr),
			)
			return normalizedErr
		}

		if !retry || attempt >= maxAttempts {
			c.logger.Error("交易所调用失败",
				zap.String("venue", c.profile.Name),
				zap.String("operation", operation),
				zap.Int("attempts", attempt),
				zap.Duration("latency", duration),
				zap.Error(normalizedErr),
			)
			return normalizedErr
		}

		wait := delay
		if wait > maxDelay {
			wait = maxDelay
		}

		c.logger.Warn("交易所调用失败，等待重试",
			zap.String("venue", c.profile.Name),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(normalizedErr),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

func classifyError(err error) (error, bool) {
	if err == nil {
		return nil, false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err, false
	}

	var ccxtErr *ccxt.Error
	if errors.As(err, &ccxtErr) {
		switch ccxtErr.Type {
		case ccxt.NetworkErrorErrType,
			ccxt.RequestTimeoutErrType,
			ccxt.ExchangeNotAvailableErrType,
			ccxt.RateLimitExceededErrType,
			ccxt.DDoSProtectionErrType,
			ccxt.BadResponseErrType,
			ccxt.NullResponseErrType:
			return err, true
		case ccxt.OnMaintenanceErrType:
			message := strings.TrimSpace(ccxtErr.Message)
			if message == "" {
				message = "exchange under maintenance"
			}
			return fmt.Errorf("%w: %s", ErrMaintenance, message), false
		default:
			return err, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return err, true
	}

	return err, false
}

// IsRetryable 判断错误是否可重试。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	_, retry := classifyError(err)
	return retry
}

func convertOrderBook(symbol string, ob ccxt.OrderBook) OrderBookSnapshot {
	bids := make([]OrderBookLevel, 0, len(ob.Bids))
	for _, level := range ob.Bids {
		if len(level) < 2 {
			continue
		}
		bids = append(bids, OrderBookLevel{
			Price:  level[0],
			Volume: level[1],
		})
	}

	asks := make([]OrderBookLevel, 0, len(ob.Asks))
	for _, level := range ob.Asks {
		if len(level) < 2 {
			continue
		}
		asks = append(asks, OrderBookLevel{
			Price:  level[0],
			Volume: level[1],
		})
	}

	var ts time.Time
	if ob.Timestamp != nil {
		ts = time.UnixMilli(*ob.Timestamp).UTC()
	} else {
		ts = time.Now().UTC()
	}

	return OrderBookSnapshot{
		Symbol:    symbol,
		Bids:      bids,
		Asks:      asks,
		Timestamp: ts,
	}
}

func floatValue(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
