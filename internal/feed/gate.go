package feed

import (
	"sync"
	"time"
)

// Gate 对入站信号做去抖动：距离上一条被接受的信号不足
// 最小间隔时直接拒绝。这是信号处理的唯一串行化点，不检查信号内容。
type Gate struct {
	mu             sync.Mutex
	minInterval    time.Duration
	lastAcceptedAt time.Time
}

// NewGate 创建去抖动闸门。
func NewGate(minInterval time.Duration) *Gate {
	if minInterval <= 0 {
		minInterval = time.Minute
	}
	return &Gate{minInterval: minInterval}
}

// Accept 判断当前时刻的信号是否放行。拒绝时不产生任何副作用，
// 放行时记录 now 作为新的基准时刻。
func (g *Gate) Accept(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lastAcceptedAt.IsZero() && now.Sub(g.lastAcceptedAt) < g.minInterval {
		return false
	}

	g.lastAcceptedAt = now
	return true
}
