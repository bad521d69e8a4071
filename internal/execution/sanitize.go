package execution

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// 参数在进入任何外部调用前都必须满足固定模式，
// 保证交易所名、符号与金额只能作为字面参数被解释。
var (
	venuePattern   = regexp.MustCompile(`^[a-z]+$`)
	symbolPattern  = regexp.MustCompile(`^[A-Z0-9]+/[A-Z0-9]+$`)
	depositPattern = regexp.MustCompile(`^\d+$`)
)

func sanitizeVenue(name string) error {
	if !venuePattern.MatchString(name) {
		return fmt.Errorf("execution: 非法交易所名: %q", name)
	}
	return nil
}

func sanitizeSymbol(symbol string) error {
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("execution: 非法交易对: %q", symbol)
	}
	return nil
}

func sanitizeDeposit(deposit string, maxDeposit int) error {
	if !depositPattern.MatchString(deposit) {
		return fmt.Errorf("execution: 非法金额: %q", deposit)
	}
	value, err := strconv.Atoi(deposit)
	if err != nil || value <= 0 {
		return fmt.Errorf("execution: 非法金额: %q", deposit)
	}
	if maxDeposit > 0 && value > maxDeposit {
		return fmt.Errorf("execution: 金额 %d 超过上限 %d", value, maxDeposit)
	}
	return nil
}

func sanitizeFill(fill *float64) error {
	if fill == nil {
		return nil
	}
	if math.IsNaN(*fill) || math.IsInf(*fill, 0) || *fill < 0 {
		return fmt.Errorf("execution: 非法成交数量: %v", *fill)
	}
	return nil
}
