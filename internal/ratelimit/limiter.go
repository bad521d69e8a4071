package ratelimit

import (
	"sync"
	"time"
)

// Limiter 以滑动窗口统计每个交易所最近的调用次数。
// 窗口内调用数达到上限时拒绝，否则记录本次调用并放行。
type Limiter struct {
	mu       sync.Mutex
	window   time.Duration
	maxCalls int
	calls    map[string][]time.Time
}

// New 创建滑动窗口限流器。
func New(window time.Duration, maxCalls int) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	if maxCalls <= 0 {
		maxCalls = 60
	}
	return &Limiter{
		window:   window,
		maxCalls: maxCalls,
		calls:    make(map[string][]time.Time),
	}
}

// Allow 判断 venue 在 now 时刻是否允许再发起一次外部调用。
// 每次调用先剔除窗口外的记录再计数。
func (l *Limiter) Allow(venue string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	kept := l.calls[venue][:0]
	for _, ts := range l.calls[venue] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.maxCalls {
		l.calls[venue] = kept
		return false
	}

	l.calls[venue] = append(kept, now)
	return true
}
