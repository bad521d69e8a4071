package venue

import (
	"context"
	"errors"
	"time"

	"arb-signals/internal/config"
)

// Role 表示交易所在套利流程中的角色。
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

var (
	// ErrRateLimited 表示滑动窗口限流器拒绝了本次外部调用。
	ErrRateLimited = errors.New("venue: rate limit exceeded")
	// ErrMaintenance 表示交易所处于维护状态，需要上层跳过本次信号。
	ErrMaintenance = errors.New("venue: exchange on maintenance")
	// ErrUnknownVenue 表示交易所不在封闭的适配器集合内。
	ErrUnknownVenue = errors.New("venue: unknown venue")
)

// OrderBookLevel 表示盘口档位。
type OrderBookLevel struct {
	Price  float64
	Volume float64
}

// OrderBookSnapshot 为订单簿快照，Bids 按价格降序、Asks 按价格升序。
type OrderBookSnapshot struct {
	Symbol    string
	Bids      []OrderBookLevel
	Asks      []OrderBookLevel
	Timestamp time.Time
}

// Profile 描述一个已配置交易所的静态信息，加载后只读。
type Profile struct {
	Name               string
	Role               Role
	RequiresPassphrase bool
	Credentials        config.CredentialConfig
}

// Adapter 是单个交易所的能力接口：符号列表、盘口、最新价以及
// 卖出端的借贷可用性查询。新增交易所即新增一个构造分支。
type Adapter interface {
	Name() string
	Role() Role
	Profile() Profile
	Symbols(ctx context.Context) (map[string]struct{}, error)
	OrderBook(ctx context.Context, symbol string) (OrderBookSnapshot, error)
	LastPrice(ctx context.Context, symbol string) (float64, error)
	BorrowAvailable(ctx context.Context, baseCurrency string) (bool, error)
}
