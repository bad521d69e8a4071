package feed

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrNoSymbol 表示消息中不包含交易对，信号应被直接丢弃。
	ErrNoSymbol = errors.New("feed: 消息中未找到交易对")
	// ErrNoVenues 表示消息中缺少买卖交易所对。
	ErrNoVenues = errors.New("feed: 消息中未找到交易所对")
)

var (
	symbolPattern = regexp.MustCompile(`([A-Z0-9]+/[A-Z0-9]+)`)
	venuesPattern = regexp.MustCompile(`([A-Za-z]+):\s*([A-Za-z]+)\s*(?:->|→|—|–|-)\s*([A-Za-z]+)`)
)

// TradeSignal 表示一条已解析的套利信号，构造后不再修改。
type TradeSignal struct {
	Symbol     string    `json:"symbol"`
	BuyVenue   string    `json:"buy_venue"`
	SellVenue  string    `json:"sell_venue"`
	ReceivedAt time.Time `json:"received_at"`
}

// Base 返回交易对的基础币种。
func (s TradeSignal) Base() string {
	if idx := strings.Index(s.Symbol, "/"); idx > 0 {
		return s.Symbol[:idx]
	}
	return s.Symbol
}

// Quote 返回交易对的计价币种。
func (s TradeSignal) Quote() string {
	if idx := strings.Index(s.Symbol, "/"); idx >= 0 && idx+1 < len(s.Symbol) {
		return s.Symbol[idx+1:]
	}
	return ""
}

// Parse 从自由文本中提取交易信号。
// 交易对取文本中第一个 BASE/QUOTE 形状的词，交易所对取
// "LABEL: BUY->SELL" 形状的片段（箭头兼容 ->、→、—、–、-）。
func Parse(text string, now time.Time) (TradeSignal, error) {
	symbolMatch := symbolPattern.FindStringSubmatch(text)
	if symbolMatch == nil {
		return TradeSignal{}, ErrNoSymbol
	}

	venueMatch := venuesPattern.FindStringSubmatch(text)
	if venueMatch == nil {
		return TradeSignal{}, ErrNoVenues
	}

	return TradeSignal{
		Symbol:     symbolMatch[1],
		BuyVenue:   strings.ToLower(venueMatch[2]),
		SellVenue:  strings.ToLower(venueMatch[3]),
		ReceivedAt: now,
	}, nil
}
