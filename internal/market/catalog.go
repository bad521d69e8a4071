package market

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"arb-signals/internal/venue"
)

// Catalog 缓存各交易所的可交易符号集合。全部条目共享同一个
// 过期时刻：窗口到期时整体作废，而不是按交易所分别计时。
type Catalog struct {
	mu        sync.Mutex
	ttl       time.Duration
	entries   map[string]map[string]struct{}
	expiresAt time.Time
	logger    *zap.Logger
	nowFn     func() time.Time
}

// NewCatalog 创建符号目录。
func NewCatalog(ttl time.Duration, logger *zap.Logger) *Catalog {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		ttl:     ttl,
		entries: make(map[string]map[string]struct{}),
		logger:  logger,
		nowFn:   time.Now,
	}
}

// SymbolsFor 返回交易所的符号集合，必要时重新拉取。
// 拉取失败记作空集合并保留到窗口结束：调用方将其视为
// "符号未上架" 而不是错误。
func (c *Catalog) SymbolsFor(ctx context.Context, v venue.Adapter) map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFn()
	if c.expiresAt.IsZero() || !now.Before(c.expiresAt) {
		c.entries = make(map[string]map[string]struct{})
		c.expiresAt = now.Add(c.ttl)
	}

	if symbols, ok := c.entries[v.Name()]; ok {
		return symbols
	}

	symbols, err := v.Symbols(ctx)
	if err != nil {
		c.logger.Warn("拉取交易所市场列表失败",
			zap.String("venue", v.Name()),
			zap.Error(err),
		)
		symbols = map[string]struct{}{}
	}

	c.entries[v.Name()] = symbols
	return symbols
}
