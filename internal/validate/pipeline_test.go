package validate

import (
	"context"
	"errors"
	"testing"

	"arb-signals/internal/config"
	"arb-signals/internal/feed"
	"arb-signals/internal/pricing"
	"arb-signals/internal/venue"
)

type stubAdapter struct {
	profile     venue.Profile
	borrowOK    bool
	borrowErr   error
	borrowCalls int
}

func (s *stubAdapter) Name() string { return s.profile.Name }
func (s *stubAdapter) Role() venue.Role { return s.profile.Role }
func (s *stubAdapter) Profile() venue.Profile { return s.profile }

func (s *stubAdapter) Symbols(ctx context.Context) (map[string]struct{}, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAdapter) OrderBook(ctx context.Context, symbol string) (venue.OrderBookSnapshot, error) {
	return venue.OrderBookSnapshot{}, errors.New("not implemented")
}

func (s *stubAdapter) LastPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, errors.New("not implemented")
}

func (s *stubAdapter) BorrowAvailable(ctx context.Context, baseCurrency string) (bool, error) {
	s.borrowCalls++
	return s.borrowOK, s.borrowErr
}

type stubCatalog struct {
	listings map[string]map[string]struct{}
}

func (s *stubCatalog) SymbolsFor(ctx context.Context, v venue.Adapter) map[string]struct{} {
	return s.listings[v.Name()]
}

func fullCreds() config.CredentialConfig {
	return config.CredentialConfig{APIKey: "k", APISecret: "s", APIPass: "p"}
}

type fixture struct {
	registry *venue.Registry
	catalog  *stubCatalog
	buyer    *stubAdapter
	seller   *stubAdapter
}

func newFixture() *fixture {
	buyer := &stubAdapter{
		profile: venue.Profile{Name: "mexc", Role: venue.RoleBuyer, Credentials: fullCreds()},
	}
	seller := &stubAdapter{
		profile:  venue.Profile{Name: "gate", Role: venue.RoleSeller, Credentials: fullCreds()},
		borrowOK: true,
	}
	registry := venue.NewRegistryWithAdapters(
		[]string{"mexc"},
		[]string{"gate"},
		map[string]venue.Adapter{"mexc": buyer, "gate": seller},
	)
	catalog := &stubCatalog{
		listings: map[string]map[string]struct{}{
			"mexc": {"ABC/USDT": {}},
			"gate": {"ABC/USDT": {}},
		},
	}
	return &fixture{registry: registry, catalog: catalog, buyer: buyer, seller: seller}
}

func testSignal() feed.TradeSignal {
	return feed.TradeSignal{Symbol: "ABC/USDT", BuyVenue: "mexc", SellVenue: "gate"}
}

func quoteWith(buy, sell float64) pricing.SignalQuote {
	return pricing.SignalQuote{
		Symbol:    "ABC/USDT",
		BuyVenue:  "mexc",
		SellVenue: "gate",
		BuyPrice:  &buy,
		SellPrice: &sell,
	}
}

func TestPipeline_AllChecksPass(t *testing.T) {
	f := newFixture()
	pipeline := NewPipeline(f.registry, f.catalog, nil)

	outcome := pipeline.Validate(context.Background(), testSignal(), quoteWith(10, 11))
	if !outcome.Passed() {
		check, reason, _ := outcome.Failure()
		t.Fatalf("expected all checks to pass, failed at %s: %s", check, reason)
	}
	if len(outcome.Steps) != 6 {
		t.Fatalf("expected 6 recorded steps, got %d", len(outcome.Steps))
	}
}

func TestPipeline_UnknownVenueFailsAtCredentials(t *testing.T) {
	f := newFixture()
	pipeline := NewPipeline(f.registry, f.catalog, nil)

	signal := testSignal()
	signal.BuyVenue = "binance"

	outcome := pipeline.Validate(context.Background(), signal, quoteWith(10, 11))
	check, _, failed := outcome.Failure()
	if !failed || check != CheckCredentials {
		t.Fatalf("expected credentials failure, got %v", outcome.Steps)
	}
}

func TestPipeline_MissingCredentialFails(t *testing.T) {
	f := newFixture()
	f.buyer.profile.Credentials.APISecret = ""
	pipeline := NewPipeline(f.registry, f.catalog, nil)

	outcome := pipeline.Validate(context.Background(), testSignal(), quoteWith(10, 11))
	check, _, failed := outcome.Failure()
	if !failed || check != CheckCredentials {
		t.Fatalf("expected credentials failure, got %v", outcome.Steps)
	}
}

func TestPipeline_SameVenueFailsRoleCheck(t *testing.T) {
	f := newFixture()
	pipeline := NewPipeline(f.registry, f.catalog, nil)

	signal := testSignal()
	signal.SellVenue = "mexc"

	outcome := pipeline.Validate(context.Background(), signal, quoteWith(10, 11))
	check, _, failed := outcome.Failure()
	if !failed || check != CheckRoles {
		t.Fatalf("expected role failure, got %v", outcome.Steps)
	}
	if f.buyer.borrowCalls != 0 || f.seller.borrowCalls != 0 {
		t.Error("no downstream check may run after a role failure")
	}
}

func TestPipeline_WrongRoleFails(t *testing.T) {
	f := newFixture()
	pipeline := NewPipeline(f.registry, f.catalog, nil)

	signal := feed.TradeSignal{Symbol: "ABC/USDT", BuyVenue: "gate", SellVenue: "mexc"}
	// 两端凭证齐全，但角色互换。
	outcome := pipeline.Validate(context.Background(), signal, quoteWith(10, 11))
	check, _, failed := outcome.Failure()
	if !failed || check != CheckRoles {
		t.Fatalf("expected role failure, got %v", outcome.Steps)
	}
}

func TestPipeline_FailFastReportsFirstFailure(t *testing.T) {
	f := newFixture()
	// 买入端未上架，同时报价也无利可图：必须报告 listing。
	f.catalog.listings["mexc"] = map[string]struct{}{}
	pipeline := NewPipeline(f.registry, f.catalog, nil)

	outcome := pipeline.Validate(context.Background(), testSignal(), quoteWith(12, 11))
	check, _, failed := outcome.Failure()
	if !failed || check != CheckListing {
		t.Fatalf("expected listing failure to win over profitability, got %v", outcome.Steps)
	}
	if f.seller.borrowCalls != 0 {
		t.Error("borrow check must not run after an earlier failure")
	}
}

func TestPipeline_MissingPriceFails(t *testing.T) {
	f := newFixture()
	pipeline := NewPipeline(f.registry, f.catalog, nil)

	sell := 11.0
	quote := pricing.SignalQuote{Symbol: "ABC/USDT", BuyVenue: "mexc", SellVenue: "gate", SellPrice: &sell}
	outcome := pipeline.Validate(context.Background(), testSignal(), quote)
	check, _, failed := outcome.Failure()
	if !failed || check != CheckPricing {
		t.Fatalf("expected pricing failure, got %v", outcome.Steps)
	}
}

func TestPipeline_UnprofitableFails(t *testing.T) {
	f := newFixture()
	pipeline := NewPipeline(f.registry, f.catalog, nil)

	// 买入价等于卖出价也视为无利可图。
	outcome := pipeline.Validate(context.Background(), testSignal(), quoteWith(11, 11))
	check, _, failed := outcome.Failure()
	if !failed || check != CheckProfitability {
		t.Fatalf("expected profitability failure, got %v", outcome.Steps)
	}
}

func TestPipeline_BorrowUnavailableFails(t *testing.T) {
	f := newFixture()
	f.seller.borrowOK = false
	pipeline := NewPipeline(f.registry, f.catalog, nil)

	outcome := pipeline.Validate(context.Background(), testSignal(), quoteWith(10, 11))
	check, _, failed := outcome.Failure()
	if !failed || check != CheckBorrow {
		t.Fatalf("expected borrow failure, got %v", outcome.Steps)
	}
}

func TestPipeline_BorrowQueryErrorFails(t *testing.T) {
	f := newFixture()
	f.seller.borrowErr = errors.New("rate limited")
	pipeline := NewPipeline(f.registry, f.catalog, nil)

	outcome := pipeline.Validate(context.Background(), testSignal(), quoteWith(10, 11))
	check, _, failed := outcome.Failure()
	if !failed || check != CheckBorrow {
		t.Fatalf("expected borrow failure on query error, got %v", outcome.Steps)
	}
}
