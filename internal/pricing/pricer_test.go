package pricing

import (
	"context"
	"errors"
	"math"
	"testing"

	"arb-signals/internal/venue"
)

func levels(pairs ...[2]float64) []venue.OrderBookLevel {
	out := make([]venue.OrderBookLevel, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, venue.OrderBookLevel{Price: p[0], Volume: p[1]})
	}
	return out
}

func TestWalkAsks_PartialLastLevel(t *testing.T) {
	asks := levels([2]float64{10, 1}, [2]float64{11, 2})

	avg, ok := WalkAsks(asks, 15)
	if !ok {
		t.Fatal("expected notional to be coverable")
	}

	// 第一档吃满（10*1），剩余 5 在第二档只取 5/11 个。
	expected := (10*1 + 11*(5.0/11)) / (1 + 5.0/11)
	if math.Abs(avg-expected) > 1e-9 {
		t.Errorf("average price mismatch: got %f want %f", avg, expected)
	}
}

func TestWalkAsks_InsufficientDepth(t *testing.T) {
	asks := levels([2]float64{10, 1}, [2]float64{11, 2})

	// 总深度 10*1+11*2=32，目标 100 无法覆盖。
	if _, ok := WalkAsks(asks, 100); ok {
		t.Fatal("expected absent result when notional exceeds book depth")
	}
}

func TestWalkAsks_DegenerateInputs(t *testing.T) {
	if _, ok := WalkAsks(nil, 15); ok {
		t.Error("empty book must not price")
	}
	if _, ok := WalkAsks(levels([2]float64{10, 1}), 0); ok {
		t.Error("zero notional must not price")
	}
	if _, ok := WalkAsks(levels([2]float64{0, 5}, [2]float64{-1, 5}), 15); ok {
		t.Error("non-positive levels must be skipped")
	}
}

func TestWalkBids_PartialLastLevel(t *testing.T) {
	bids := levels([2]float64{10, 1}, [2]float64{9, 2})

	avg, ok := WalkBids(bids, 2)
	if !ok {
		t.Fatal("expected quantity to be sellable")
	}

	expected := (10*1 + 9*1) / 2.0
	if math.Abs(avg-expected) > 1e-9 {
		t.Errorf("average price mismatch: got %f want %f", avg, expected)
	}
}

func TestWalkBids_InsufficientDepth(t *testing.T) {
	bids := levels([2]float64{10, 1})
	if _, ok := WalkBids(bids, 5); ok {
		t.Fatal("expected absent result when quantity exceeds book depth")
	}
}

type fakeBookVenue struct {
	name      string
	book      venue.OrderBookSnapshot
	bookErr   error
	lastPrice float64
	priceErr  error
}

func (f *fakeBookVenue) Name() string { return f.name }
func (f *fakeBookVenue) Role() venue.Role { return venue.RoleBuyer }
func (f *fakeBookVenue) Profile() venue.Profile { return venue.Profile{Name: f.name} }

func (f *fakeBookVenue) Symbols(ctx context.Context) (map[string]struct{}, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBookVenue) OrderBook(ctx context.Context, symbol string) (venue.OrderBookSnapshot, error) {
	return f.book, f.bookErr
}

func (f *fakeBookVenue) LastPrice(ctx context.Context, symbol string) (float64, error) {
	return f.lastPrice, f.priceErr
}

func (f *fakeBookVenue) BorrowAvailable(ctx context.Context, baseCurrency string) (bool, error) {
	return false, errors.New("not implemented")
}

func TestPricer_AverageBuyPrice(t *testing.T) {
	v := &fakeBookVenue{
		name: "mexc",
		book: venue.OrderBookSnapshot{
			Asks: levels([2]float64{10, 1}, [2]float64{11, 2}),
		},
	}

	pricer := NewPricer(nil)
	avg, ok, err := pricer.AverageBuyPrice(context.Background(), v, "ABC/USDT", 15)
	if err != nil {
		t.Fatalf("AverageBuyPrice returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected price to be available")
	}
	expected := (10*1 + 11*(5.0/11)) / (1 + 5.0/11)
	if math.Abs(avg-expected) > 1e-9 {
		t.Errorf("average price mismatch: got %f want %f", avg, expected)
	}
}

func TestPricer_AverageSellPriceConvertsNotional(t *testing.T) {
	v := &fakeBookVenue{
		name:      "gate",
		lastPrice: 10,
		book: venue.OrderBookSnapshot{
			Bids: levels([2]float64{10, 1}, [2]float64{9, 1}),
		},
	}

	pricer := NewPricer(nil)
	// 金额 15 按最新价 10 折算成 1.5 个基础币。
	avg, ok, err := pricer.AverageSellPrice(context.Background(), v, "ABC/USDT", 15)
	if err != nil {
		t.Fatalf("AverageSellPrice returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected price to be available")
	}
	expected := (10*1 + 9*0.5) / 1.5
	if math.Abs(avg-expected) > 1e-9 {
		t.Errorf("average price mismatch: got %f want %f", avg, expected)
	}
}

func TestPricer_PropagatesFetchErrors(t *testing.T) {
	pricer := NewPricer(nil)

	buyVenue := &fakeBookVenue{name: "mexc", bookErr: errors.New("boom")}
	if _, _, err := pricer.AverageBuyPrice(context.Background(), buyVenue, "ABC/USDT", 15); err == nil {
		t.Fatal("expected order book error to propagate")
	}

	sellVenue := &fakeBookVenue{name: "gate", priceErr: errors.New("boom")}
	if _, _, err := pricer.AverageSellPrice(context.Background(), sellVenue, "ABC/USDT", 15); err == nil {
		t.Fatal("expected ticker error to propagate")
	}
}

func TestPricer_IlliquidBookReturnsAbsent(t *testing.T) {
	v := &fakeBookVenue{
		name: "mexc",
		book: venue.OrderBookSnapshot{Asks: levels([2]float64{10, 1})},
	}

	pricer := NewPricer(nil)
	_, ok, err := pricer.AverageBuyPrice(context.Background(), v, "ABC/USDT", 100)
	if err != nil {
		t.Fatalf("AverageBuyPrice returned error: %v", err)
	}
	if ok {
		t.Fatal("expected absent result for illiquid book")
	}
}
