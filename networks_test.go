package x402agent

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNetworkConfigFor(t *testing.T) {
	tests := []struct {
		name        string
		network     string
		wantChainID int64
		wantErr     bool
	}{
		{"base mainnet CAIP-2", "eip155:8453", 8453, false},
		{"base sepolia CAIP-2", "eip155:84532", 84532, false},
		{"ethereum mainnet CAIP-2", "eip155:1", 1, false},
		{"arc testnet CAIP-2", "eip155:5042002", 5042002, false},
		{"base mainnet legacy alias", "base-mainnet", 8453, false},
		{"ethereum sepolia legacy alias", "ethereum-sepolia", 11155111, false},
		{"unknown network", "eip155:999999", 0, true},
		{"empty network", "", 0, true},
		{"solana is not an eip155 network", "solana", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NetworkConfigFor(tt.network)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got config %+v", tt.network, cfg)
				}
				return
			}
			if err != nil {
				t.Fatalf("NetworkConfigFor(%q) failed: %v", tt.network, err)
			}
			if cfg.ChainID != tt.wantChainID {
				t.Errorf("chain id = %d, want %d", cfg.ChainID, tt.wantChainID)
			}
			if cfg.USDCAddress == "" {
				t.Error("expected a USDC contract address")
			}
		})
	}
}

func TestAliasesMatchCanonical(t *testing.T) {
	pairs := map[string]string{
		"base-mainnet":     NetworkBaseMainnet,
		"base-sepolia":     NetworkBaseSepolia,
		"ethereum-mainnet": NetworkEthereumMainnet,
		"ethereum-sepolia": NetworkEthereumSepolia,
		"arc-testnet":      NetworkArcTestnet,
	}

	for alias, canonical := range pairs {
		aliasCfg, err := NetworkConfigFor(alias)
		if err != nil {
			t.Fatalf("alias %q: %v", alias, err)
		}
		canonicalCfg, err := NetworkConfigFor(canonical)
		if err != nil {
			t.Fatalf("canonical %q: %v", canonical, err)
		}
		if aliasCfg != canonicalCfg {
			t.Errorf("alias %q config %+v differs from canonical %q config %+v",
				alias, aliasCfg, canonical, canonicalCfg)
		}
	}
}

func TestUnitsToUSD(t *testing.T) {
	tests := []struct {
		name  string
		units int64
		want  string
	}{
		{"one dollar", 1000000, "1"},
		{"ten cents", 100000, "0.1"},
		{"one unit", 1, "0.000001"},
		{"zero", 0, "0"},
		{"fractional cents", 123456, "0.123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnitsToUSD(big.NewInt(tt.units))
			if got.String() != tt.want {
				t.Errorf("UnitsToUSD(%d) = %s, want %s", tt.units, got, tt.want)
			}
		})
	}

	if !UnitsToUSD(nil).IsZero() {
		t.Error("UnitsToUSD(nil) should be zero")
	}
}

func TestUSDToUnits(t *testing.T) {
	tests := []struct {
		name    string
		usd     string
		want    int64
		wantErr bool
	}{
		{"one dollar", "1", 1000000, false},
		{"ten cents", "0.10", 100000, false},
		{"six decimal places", "0.000001", 1, false},
		{"zero", "0", 0, false},
		{"seven decimal places", "0.0000001", 0, true},
		{"negative", "-1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, err := USDToUnits(decimal.RequireFromString(tt.usd))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s, got %s", tt.usd, units)
				}
				return
			}
			if err != nil {
				t.Fatalf("USDToUnits(%s) failed: %v", tt.usd, err)
			}
			if units.Int64() != tt.want {
				t.Errorf("USDToUnits(%s) = %s, want %d", tt.usd, units, tt.want)
			}
		})
	}
}

func TestUnitConversionRoundTrip(t *testing.T) {
	// usd -> units -> usd for amounts expressible in 6 decimal places
	for _, s := range []string{"0", "0.000001", "0.1", "1", "10.5", "123.4567", "999999.999999"} {
		usd := decimal.RequireFromString(s)
		units, err := USDToUnits(usd)
		if err != nil {
			t.Fatalf("USDToUnits(%s) failed: %v", s, err)
		}
		back := UnitsToUSD(units)
		if !back.Equal(usd) {
			t.Errorf("round trip %s -> %s -> %s", usd, units, back)
		}
	}

	// units -> usd -> units for arbitrary non-negative integers
	for _, u := range []int64{0, 1, 7, 999, 1000000, 123456789, 1 << 40} {
		units := big.NewInt(u)
		back, err := USDToUnits(UnitsToUSD(units))
		if err != nil {
			t.Fatalf("round trip of %d units failed: %v", u, err)
		}
		if back.Cmp(units) != 0 {
			t.Errorf("round trip %d -> %s", u, back)
		}
	}
}
