package venue

import (
	"fmt"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"go.uber.org/zap"

	"arb-signals/internal/config"
	"arb-signals/internal/ratelimit"
)

// passphraseVenues 列出 API 额外要求交易口令的交易所。
var passphraseVenues = map[string]bool{
	"bitget": true,
	"okx":    true,
	"kucoin": true,
}

// Registry 持有封闭的交易所适配器集合。
type Registry struct {
	adapters map[string]Adapter
	buyers   map[string]struct{}
	sellers  map[string]struct{}
}

// NewRegistry 按配置构造全部买入端与卖出端适配器。
func NewRegistry(cfg config.VenuesConfig, retry config.RetryConfig, limiter *ratelimit.Limiter, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		adapters: make(map[string]Adapter),
		buyers:   make(map[string]struct{}, len(cfg.Buyers)),
		sellers:  make(map[string]struct{}, len(cfg.Sellers)),
	}

	for _, name := range cfg.Buyers {
		adapter, err := newAdapter(name, RoleBuyer, cfg, retry, limiter, logger)
		if err != nil {
			return nil, err
		}
		r.adapters[name] = adapter
		r.buyers[name] = struct{}{}
	}

	for _, name := range cfg.Sellers {
		// 同一交易所可以同时出现在买卖两端，适配器只建一次。
		if _, ok := r.adapters[name]; ok {
			r.sellers[name] = struct{}{}
			continue
		}
		adapter, err := newAdapter(name, RoleSeller, cfg, retry, limiter, logger)
		if err != nil {
			return nil, err
		}
		r.adapters[name] = adapter
		r.sellers[name] = struct{}{}
	}

	return r, nil
}

func newAdapter(name string, role Role, cfg config.VenuesConfig, retry config.RetryConfig, limiter *ratelimit.Limiter, logger *zap.Logger) (Adapter, error) {
	creds := cfg.Credentials[name]

	userConfig := map[string]interface{}{
		"enableRateLimit": true,
	}
	if creds.APIKey != "" {
		userConfig["apiKey"] = creds.APIKey
	}
	if creds.APISecret != "" {
		userConfig["secret"] = creds.APISecret
	}
	if creds.APIPass != "" {
		userConfig["password"] = creds.APIPass
	}

	var api marketAPI
	var borrow borrowChecker

	switch name {
	case "mexc":
		api = ccxt.NewMexc(userConfig)
	case "bitget":
		api = ccxt.NewBitget(userConfig)
	case "okx":
		api = ccxt.NewOkx(userConfig)
	case "gate":
		api = ccxt.NewGate(userConfig)
		borrow = NewGateBorrowChecker("", logger)
	case "kucoin":
		api = ccxt.NewKucoin(userConfig)
		borrow = NewKucoinBorrowChecker("", logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownVenue, name)
	}

	profile := Profile{
		Name:               name,
		Role:               role,
		RequiresPassphrase: passphraseVenues[name],
		Credentials:        creds,
	}

	return NewClient(profile, api, borrow, limiter, retry, logger), nil
}

// NewRegistryWithAdapters 用现成的适配器构造注册表，
// 供进程内实现（例如测试替身）接入。
func NewRegistryWithAdapters(buyers, sellers []string, adapters map[string]Adapter) *Registry {
	r := &Registry{
		adapters: make(map[string]Adapter, len(adapters)),
		buyers:   make(map[string]struct{}, len(buyers)),
		sellers:  make(map[string]struct{}, len(sellers)),
	}
	for name, adapter := range adapters {
		r.adapters[name] = adapter
	}
	for _, name := range buyers {
		r.buyers[name] = struct{}{}
	}
	for _, name := range sellers {
		r.sellers[name] = struct{}{}
	}
	return r
}

// Get 按名称取适配器。
func (r *Registry) Get(name string) (Adapter, bool) {
	adapter, ok := r.adapters[name]
	return adapter, ok
}

// IsBuyer 判断交易所是否在买入端集合。
func (r *Registry) IsBuyer(name string) bool {
	_, ok := r.buyers[name]
	return ok
}

// IsSeller 判断交易所是否在卖出端集合。
func (r *Registry) IsSeller(name string) bool {
	_, ok := r.sellers[name]
	return ok
}

// Names 返回全部已注册交易所名称。
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
