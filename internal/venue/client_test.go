package venue

import (
	"context"
	"errors"
	"testing"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"

	"arb-signals/internal/config"
	"arb-signals/internal/ratelimit"
)

type timeoutError struct{}

func (timeoutError) Error() string { return "dial timeout" }
func (timeoutError) Timeout() bool { return true }
func (timeoutError) Temporary() bool { return true }

type fakeMarketAPI struct {
	loadCalls int
	loadErrs  []error
	markets   map[string]ccxt.MarketInterface
	book      ccxt.OrderBook
	bookErr   error
	ticker    ccxt.Ticker
	tickerErr error
}

func (f *fakeMarketAPI) LoadMarkets(params ...interface{}) (map[string]ccxt.MarketInterface, error) {
	f.loadCalls++
	if len(f.loadErrs) > 0 {
		err := f.loadErrs[0]
		f.loadErrs = f.loadErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.markets, nil
}

func (f *fakeMarketAPI) FetchOrderBook(symbol string, options ...ccxt.FetchOrderBookOptions) (ccxt.OrderBook, error) {
	return f.book, f.bookErr
}

func (f *fakeMarketAPI) FetchTicker(symbol string, options ...ccxt.FetchTickerOptions) (ccxt.Ticker, error) {
	return f.ticker, f.tickerErr
}

func fastRetry() config.RetryConfig {
	return config.RetryConfig{
		MaxAttempts: 3,
		MinDelay:    time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	}
}

func newTestClient(api marketAPI, limiter *ratelimit.Limiter) *Client {
	return NewClient(Profile{Name: "mexc", Role: RoleBuyer}, api, nil, limiter, fastRetry(), nil)
}

func TestClient_SymbolsSuccess(t *testing.T) {
	api := &fakeMarketAPI{
		markets: map[string]ccxt.MarketInterface{
			"ABC/USDT": {},
			"XYZ/USDT": {},
		},
	}
	client := newTestClient(api, ratelimit.New(time.Minute, 60))

	symbols, err := client.Symbols(context.Background())
	if err != nil {
		t.Fatalf("Symbols returned error: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(symbols))
	}
	if _, ok := symbols["ABC/USDT"]; !ok {
		t.Error("expected ABC/USDT in symbol set")
	}
}

func TestClient_RetriesTransientNetworkErrors(t *testing.T) {
	api := &fakeMarketAPI{
		loadErrs: []error{timeoutError{}, timeoutError{}},
		markets:  map[string]ccxt.MarketInterface{"ABC/USDT": {}},
	}
	client := newTestClient(api, ratelimit.New(time.Minute, 60))

	if _, err := client.Symbols(context.Background()); err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if api.loadCalls != 3 {
		t.Fatalf("expected 3 attempts, got %d", api.loadCalls)
	}
}

func TestClient_DoesNotRetryPermanentErrors(t *testing.T) {
	api := &fakeMarketAPI{
		loadErrs: []error{errors.New("invalid api key")},
	}
	client := newTestClient(api, ratelimit.New(time.Minute, 60))

	if _, err := client.Symbols(context.Background()); err == nil {
		t.Fatal("expected permanent error to surface")
	}
	if api.loadCalls != 1 {
		t.Fatalf("expected a single attempt, got %d", api.loadCalls)
	}
}

func TestClient_RateLimiterBlocksOutboundCalls(t *testing.T) {
	limiter := ratelimit.New(time.Minute, 1)
	api := &fakeMarketAPI{markets: map[string]ccxt.MarketInterface{"ABC/USDT": {}}}
	client := newTestClient(api, limiter)

	if _, err := client.Symbols(context.Background()); err != nil {
		t.Fatalf("first call should pass the limiter: %v", err)
	}

	_, err := client.Symbols(context.Background())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if api.loadCalls != 1 {
		t.Fatalf("denied call must not reach the exchange, got %d calls", api.loadCalls)
	}
}

func TestClient_LastPriceFallsBackToBid(t *testing.T) {
	bid := 9.5
	api := &fakeMarketAPI{ticker: ccxt.Ticker{Bid: &bid}}
	client := newTestClient(api, ratelimit.New(time.Minute, 60))

	price, err := client.LastPrice(context.Background(), "ABC/USDT")
	if err != nil {
		t.Fatalf("LastPrice returned error: %v", err)
	}
	if price != bid {
		t.Errorf("expected fallback to bid %f, got %f", bid, price)
	}
}

func TestClient_LastPriceRejectsEmptyTicker(t *testing.T) {
	api := &fakeMarketAPI{ticker: ccxt.Ticker{}}
	client := newTestClient(api, ratelimit.New(time.Minute, 60))

	if _, err := client.LastPrice(context.Background(), "ABC/USDT"); err == nil {
		t.Fatal("expected error when ticker has no usable price")
	}
}

func TestClient_BorrowUnsupportedForBuyers(t *testing.T) {
	api := &fakeMarketAPI{}
	client := newTestClient(api, ratelimit.New(time.Minute, 60))

	if _, err := client.BorrowAvailable(context.Background(), "ABC"); err == nil {
		t.Fatal("expected borrow query to fail without a checker")
	}
}

func TestConvertOrderBook(t *testing.T) {
	ts := int64(1700000000000)
	raw := ccxt.OrderBook{
		Bids:      [][]float64{{10, 1}, {9, 2}},
		Asks:      [][]float64{{11, 1}, {12}},
		Timestamp: &ts,
	}

	snapshot := convertOrderBook("ABC/USDT", raw)
	if len(snapshot.Bids) != 2 {
		t.Fatalf("expected 2 bid levels, got %d", len(snapshot.Bids))
	}
	// 缺少数量的档位被丢弃。
	if len(snapshot.Asks) != 1 {
		t.Fatalf("expected malformed ask level to be dropped, got %d", len(snapshot.Asks))
	}
	if snapshot.Bids[0].Price != 10 || snapshot.Bids[0].Volume != 1 {
		t.Errorf("unexpected best bid: %+v", snapshot.Bids[0])
	}
	if snapshot.Timestamp.UnixMilli() != ts {
		t.Errorf("timestamp mismatch: got %v", snapshot.Timestamp)
	}
}
