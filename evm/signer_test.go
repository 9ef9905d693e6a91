package evm

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	x402agent "github.com/agentkit/x402-agent-go"
)

// Throwaway test key (hardhat account 0) and its derived address.
const (
	testPrivateKey  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress     = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testRecipient   = "0x1234567890123456789012345678901234567890"
	testValidBefore = int64(1700000000)
)

func testAuthorization(t *testing.T) x402agent.TransferAuthorization {
	t.Helper()
	var nonce [32]byte
	nonce[31] = 0x01
	auth, err := x402agent.NewTransferAuthorization(
		testAddress, testRecipient, big.NewInt(100000), 0, testValidBefore, nonce)
	if err != nil {
		t.Fatal(err)
	}
	return auth
}

func TestNewSigner(t *testing.T) {
	tests := []struct {
		name    string
		opts    []SignerOption
		wantErr error
	}{
		{"no key source", nil, x402agent.ErrInvalidKey},
		{"invalid hex", []SignerOption{WithPrivateKey("zzzz")}, x402agent.ErrInvalidKey},
		{"too short", []SignerOption{WithPrivateKey("0xabcd")}, x402agent.ErrInvalidKey},
		{"valid key", []SignerOption{WithPrivateKey(testPrivateKey)}, nil},
		{"valid key with 0x prefix", []SignerOption{WithPrivateKey("0x" + testPrivateKey)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSigner(tt.opts...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSigner failed: %v", err)
			}
			if !strings.EqualFold(s.Address(), testAddress) {
				t.Errorf("address = %s, want %s", s.Address(), testAddress)
			}
		})
	}
}

func TestAddressIsDeterministic(t *testing.T) {
	s1, err := NewSigner(WithPrivateKey(testPrivateKey))
	if err != nil {
		t.Fatal(err)
	}
	s2, err := NewSigner(WithPrivateKey("0x" + testPrivateKey))
	if err != nil {
		t.Fatal(err)
	}
	if s1.Address() != s2.Address() {
		t.Errorf("same key derived different addresses: %s vs %s", s1.Address(), s2.Address())
	}
}

func TestBuildTypedData(t *testing.T) {
	auth := testAuthorization(t)

	typedData, err := BuildTypedData(auth, x402agent.NetworkBaseMainnet)
	if err != nil {
		t.Fatalf("BuildTypedData failed: %v", err)
	}

	if typedData.PrimaryType != "TransferWithAuthorization" {
		t.Errorf("primary type = %s", typedData.PrimaryType)
	}
	if typedData.Domain.Name != "USD Coin" || typedData.Domain.Version != "2" {
		t.Errorf("domain = %s/%s", typedData.Domain.Name, typedData.Domain.Version)
	}
	if typedData.Domain.VerifyingContract != "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913" {
		t.Errorf("verifying contract = %s", typedData.Domain.VerifyingContract)
	}
	if len(typedData.Types["TransferWithAuthorization"]) != 6 {
		t.Errorf("schema has %d fields, want 6", len(typedData.Types["TransferWithAuthorization"]))
	}

	if _, err := BuildTypedData(auth, "eip155:404"); !errors.Is(err, x402agent.ErrUnsupportedNetwork) {
		t.Errorf("unknown network error = %v", err)
	}
}

func TestSignTransferAuthorization(t *testing.T) {
	s, err := NewSigner(WithPrivateKey(testPrivateKey))
	if err != nil {
		t.Fatal(err)
	}
	auth := testAuthorization(t)

	sig, err := s.SignTransferAuthorization(auth, x402agent.NetworkBaseMainnet)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	// 65 bytes as 0x-prefixed hex
	if !strings.HasPrefix(sig, "0x") || len(sig) != 132 {
		t.Fatalf("signature format %q (len %d)", sig[:10], len(sig))
	}
	// Ethereum v value
	if v := sig[130:]; v != "1b" && v != "1c" {
		t.Errorf("v = %s, want 1b or 1c", v)
	}

	// Deterministic per key and message
	sig2, err := s.SignTransferAuthorization(auth, x402agent.NetworkBaseMainnet)
	if err != nil {
		t.Fatal(err)
	}
	if sig != sig2 {
		t.Error("same authorization produced different signatures")
	}

	// Domain binding: a different network yields a different signature
	sigSepolia, err := s.SignTransferAuthorization(auth, x402agent.NetworkBaseSepolia)
	if err != nil {
		t.Fatal(err)
	}
	if sigSepolia == sig {
		t.Error("signature did not bind to the network domain")
	}

	if _, err := s.SignTransferAuthorization(auth, "nonsense"); !errors.Is(err, x402agent.ErrUnsupportedNetwork) {
		t.Errorf("unsupported network error = %v", err)
	}
}

func TestSignatureRecoversToSigner(t *testing.T) {
	s, err := NewSigner(WithPrivateKey(testPrivateKey))
	if err != nil {
		t.Fatal(err)
	}
	auth := testAuthorization(t)

	sig, err := s.SignTransferAuthorization(auth, x402agent.NetworkBaseMainnet)
	if err != nil {
		t.Fatal(err)
	}

	typedData, err := BuildTypedData(auth, x402agent.NetworkBaseMainnet)
	if err != nil {
		t.Fatal(err)
	}
	digest, err := hashTypedData(typedData)
	if err != nil {
		t.Fatal(err)
	}

	sigBytes, err := hex.DecodeString(strings.TrimPrefix(sig, "0x"))
	if err != nil {
		t.Fatal(err)
	}
	sigBytes[64] -= 27

	pubKey, err := crypto.SigToPub(digest, sigBytes)
	if err != nil {
		t.Fatalf("recovery failed: %v", err)
	}
	if recovered := crypto.PubkeyToAddress(*pubKey).Hex(); !strings.EqualFold(recovered, testAddress) {
		t.Errorf("recovered %s, want %s", recovered, testAddress)
	}
}

func TestRecoverSigner(t *testing.T) {
	s, err := NewSigner(WithPrivateKey(testPrivateKey))
	if err != nil {
		t.Fatal(err)
	}
	auth := testAuthorization(t)

	sig, err := s.SignTransferAuthorization(auth, x402agent.NetworkBaseMainnet)
	if err != nil {
		t.Fatal(err)
	}

	recovered, err := RecoverSigner(auth, x402agent.NetworkBaseMainnet, sig)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.EqualFold(recovered, testAddress) {
		t.Errorf("recovered %s, want %s", recovered, testAddress)
	}

	// A tampered amount recovers to some other address.
	tampered := auth
	tampered.Value = big.NewInt(999999)
	recovered, err = RecoverSigner(tampered, x402agent.NetworkBaseMainnet, sig)
	if err != nil {
		t.Fatal(err)
	}
	if strings.EqualFold(recovered, testAddress) {
		t.Error("tampered authorization still recovered the signer")
	}

	if _, err := RecoverSigner(auth, x402agent.NetworkBaseMainnet, "0x1234"); !errors.Is(err, x402agent.ErrInvalidAuthorization) {
		t.Errorf("short signature error = %v", err)
	}
	if _, err := RecoverSigner(auth, x402agent.NetworkBaseMainnet, "not hex"); !errors.Is(err, x402agent.ErrInvalidAuthorization) {
		t.Errorf("non-hex signature error = %v", err)
	}
}
