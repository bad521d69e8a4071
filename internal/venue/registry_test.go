package venue

import (
	"errors"
	"testing"
	"time"

	"arb-signals/internal/config"
	"arb-signals/internal/ratelimit"
)

func registryConfig(buyers, sellers []string) config.VenuesConfig {
	creds := make(map[string]config.CredentialConfig)
	for _, name := range append(append([]string{}, buyers...), sellers...) {
		creds[name] = config.CredentialConfig{APIKey: "k", APISecret: "s", APIPass: "p"}
	}
	return config.VenuesConfig{
		Buyers:      buyers,
		Sellers:     sellers,
		Credentials: creds,
	}
}

func TestNewRegistry_BuildsClosedAdapterSet(t *testing.T) {
	cfg := registryConfig([]string{"mexc", "bitget", "okx"}, []string{"gate", "kucoin"})
	limiter := ratelimit.New(time.Minute, 60)

	registry, err := NewRegistry(cfg, config.RetryConfig{}, limiter, nil)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	if len(registry.Names()) != 5 {
		t.Fatalf("expected 5 adapters, got %d", len(registry.Names()))
	}
	for _, name := range []string{"mexc", "bitget", "okx"} {
		if !registry.IsBuyer(name) {
			t.Errorf("%s should be a buyer", name)
		}
		if registry.IsSeller(name) {
			t.Errorf("%s should not be a seller", name)
		}
	}
	for _, name := range []string{"gate", "kucoin"} {
		if !registry.IsSeller(name) {
			t.Errorf("%s should be a seller", name)
		}
	}

	adapter, ok := registry.Get("okx")
	if !ok {
		t.Fatal("expected okx adapter")
	}
	if !adapter.Profile().RequiresPassphrase {
		t.Error("okx must require a passphrase")
	}

	mexc, _ := registry.Get("mexc")
	if mexc.Profile().RequiresPassphrase {
		t.Error("mexc must not require a passphrase")
	}
}

func TestNewRegistry_RejectsUnknownVenue(t *testing.T) {
	cfg := registryConfig([]string{"binance"}, []string{"gate"})
	_, err := NewRegistry(cfg, config.RetryConfig{}, ratelimit.New(time.Minute, 60), nil)
	if !errors.Is(err, ErrUnknownVenue) {
		t.Fatalf("expected ErrUnknownVenue, got %v", err)
	}
}

func TestNewRegistry_VenueOnBothSides(t *testing.T) {
	cfg := registryConfig([]string{"mexc", "okx"}, []string{"okx", "gate"})
	registry, err := NewRegistry(cfg, config.RetryConfig{}, ratelimit.New(time.Minute, 60), nil)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	if !registry.IsBuyer("okx") || !registry.IsSeller("okx") {
		t.Fatal("okx must be registered on both sides")
	}
	if len(registry.Names()) != 3 {
		t.Fatalf("shared venue must reuse a single adapter, got %d", len(registry.Names()))
	}
}
