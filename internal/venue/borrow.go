package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultGateBaseURL   = "https://api.gateio.ws"
	defaultKucoinBaseURL = "https://api.kucoin.com"
)

// GateBorrowChecker 通过 Gate 全仓杠杆币种接口判断借贷可用性。
type GateBorrowChecker struct {
	baseURL string
	client  *resty.Client
	logger  *zap.Logger
}

// NewGateBorrowChecker 创建 Gate 借贷查询器，baseURL 为空时使用生产地址。
func NewGateBorrowChecker(baseURL string, logger *zap.Logger) *GateBorrowChecker {
	if baseURL == "" {
		baseURL = defaultGateBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GateBorrowChecker{
		baseURL: baseURL,
		client:  resty.New(),
		logger:  logger,
	}
}

// Available 查询基础币种是否出现在 Gate 的全仓杠杆币种列表中。
func (g *GateBorrowChecker) Available(ctx context.Context, baseCurrency string) (bool, error) {
	url := fmt.Sprintf("%s/api/v4/margin/cross/currencies/%s", g.baseURL, baseCurrency)

	resp, err := g.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return false, fmt.Errorf("venue: 查询 gate 借贷可用性失败: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		g.logger.Debug("gate 借贷接口返回非200",
			zap.String("currency", baseCurrency),
			zap.Int("status", resp.StatusCode()),
		)
		return false, nil
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return false, fmt.Errorf("venue: 解析 gate 借贷响应失败: %w", err)
	}

	return payload.Name != "", nil
}

// KucoinBorrowChecker 通过 KuCoin 杠杆配置接口判断借贷可用性。
type KucoinBorrowChecker struct {
	baseURL string
	client  *resty.Client
	logger  *zap.Logger
}

// NewKucoinBorrowChecker 创建 KuCoin 借贷查询器，baseURL 为空时使用生产地址。
func NewKucoinBorrowChecker(baseURL string, logger *zap.Logger) *KucoinBorrowChecker {
	if baseURL == "" {
		baseURL = defaultKucoinBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KucoinBorrowChecker{
		baseURL: baseURL,
		client:  resty.New(),
		logger:  logger,
	}
}

// Available 查询基础币种是否在 KuCoin 杠杆币种列表中。
func (k *KucoinBorrowChecker) Available(ctx context.Context, baseCurrency string) (bool, error) {
	url := fmt.Sprintf("%s/api/v1/margin/config", k.baseURL)

	resp, err := k.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return false, fmt.Errorf("venue: 查询 kucoin 借贷可用性失败: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		k.logger.Debug("kucoin 借贷接口返回非200",
			zap.String("currency", baseCurrency),
			zap.Int("status", resp.StatusCode()),
		)
		return false, nil
	}

	var payload struct {
		Code string `json:"code"`
		Data struct {
			CurrencyList []string `json:"currencyList"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return false, fmt.Errorf("venue: 解析 kucoin 借贷响应失败: %w", err)
	}
	if payload.Code != "200000" {
		return false, nil
	}

	for _, currency := range payload.Data.CurrencyList {
		if currency == baseCurrency {
			return true, nil
		}
	}
	return false, nil
}
