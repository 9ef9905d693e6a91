// Package x402agent implements the buyer side of the x402 payment protocol
// for automated clients: parsing payment requirements, enforcing a USD budget
// with exact decimal arithmetic, and producing signed EIP-3009 USDC transfer
// authorizations.
package x402agent

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// USDCDecimals is the number of decimal places for USDC. One dollar is
// exactly 10^6 smallest units on every supported network.
const USDCDecimals = 6

// NetworkConfig contains the chain-specific parameters needed to build and
// domain-separate a transfer authorization.
type NetworkConfig struct {
	// ChainID is the EIP-155 chain id.
	ChainID int64

	// USDCAddress is the USDC contract address on this chain.
	USDCAddress string

	// DomainName is the EIP-712 domain parameter "name".
	DomainName string

	// DomainVersion is the EIP-712 domain parameter "version".
	DomainVersion string
}

// Canonical network identifiers (CAIP-2).
const (
	NetworkBaseMainnet     = "eip155:8453"
	NetworkBaseSepolia     = "eip155:84532"
	NetworkEthereumMainnet = "eip155:1"
	NetworkEthereumSepolia = "eip155:11155111"
	NetworkArcTestnet      = "eip155:5042002"
)

// networks maps CAIP-2 identifiers and their legacy aliases to chain
// configuration. USDC addresses verified 2025-10-28.
var networks = map[string]NetworkConfig{
	// CAIP-2 format (canonical)
	NetworkBaseMainnet:     {ChainID: 8453, USDCAddress: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", DomainName: "USD Coin", DomainVersion: "2"},
	NetworkBaseSepolia:     {ChainID: 84532, USDCAddress: "0x036CbD53842c5426634e7929541eC2318f3dCF7e", DomainName: "USD Coin", DomainVersion: "2"},
	NetworkEthereumMainnet: {ChainID: 1, USDCAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", DomainName: "USD Coin", DomainVersion: "2"},
	NetworkEthereumSepolia: {ChainID: 11155111, USDCAddress: "0x1c7D4B196Cb0C7B01d064914d0da28F12c7d0b86", DomainName: "USD Coin", DomainVersion: "2"},
	NetworkArcTestnet:      {ChainID: 5042002, USDCAddress: "0x3600000000000000000000000000000000000000", DomainName: "USD Coin", DomainVersion: "2"},

	// Legacy aliases (backwards compat)
	"base-mainnet":     {ChainID: 8453, USDCAddress: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", DomainName: "USD Coin", DomainVersion: "2"},
	"base-sepolia":     {ChainID: 84532, USDCAddress: "0x036CbD53842c5426634e7929541eC2318f3dCF7e", DomainName: "USD Coin", DomainVersion: "2"},
	"ethereum-mainnet": {ChainID: 1, USDCAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", DomainName: "USD Coin", DomainVersion: "2"},
	"ethereum-sepolia": {ChainID: 11155111, USDCAddress: "0x1c7D4B196Cb0C7B01d064914d0da28F12c7d0b86", DomainName: "USD Coin", DomainVersion: "2"},
	"arc-testnet":      {ChainID: 5042002, USDCAddress: "0x3600000000000000000000000000000000000000", DomainName: "USD Coin", DomainVersion: "2"},
}

// NetworkConfigFor resolves a network identifier (CAIP-2 or legacy alias) to
// its chain configuration. Returns ErrUnsupportedNetwork for unknown
// identifiers.
func NetworkConfigFor(network string) (NetworkConfig, error) {
	cfg, ok := networks[network]
	if !ok {
		return NetworkConfig{}, fmt.Errorf("%w: %q", ErrUnsupportedNetwork, network)
	}
	return cfg, nil
}

// IsSupportedNetwork reports whether the network identifier has a known chain
// id and USDC contract mapping.
func IsSupportedNetwork(network string) bool {
	_, ok := networks[network]
	return ok
}

// SupportedNetworks returns all accepted network identifiers, canonical and
// legacy.
func SupportedNetworks() []string {
	ids := make([]string, 0, len(networks))
	for id := range networks {
		ids = append(ids, id)
	}
	return ids
}

// UnitsToUSD converts an amount in smallest units to USD. The conversion is
// an exact decimal shift, never floating point.
func UnitsToUSD(units *big.Int) decimal.Decimal {
	if units == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(units, -USDCDecimals)
}

// USDToUnits converts a USD amount to smallest units. Returns
// ErrInvalidAmount if the amount is negative or has more than six fractional
// digits, since such an amount has no exact unit representation.
func USDToUnits(usd decimal.Decimal) (*big.Int, error) {
	if usd.IsNegative() {
		return nil, fmt.Errorf("%w: negative amount %s", ErrInvalidAmount, usd)
	}
	shifted := usd.Shift(USDCDecimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, usd, USDCDecimals)
	}
	return shifted.BigInt(), nil
}
