// Copyright (C) 2026 Creditor Corp. Group.
// See LICENSE for copying information.

package addresses_test

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"walletcore/bitcoin"
	"walletcore/bitcoin/addresses"
)

func TestEncode(t *testing.T) {
	// the generator point key, addresses are the well known BIP-173/350 ones.
	_, pubKey := btcec.PrivKeyFromBytes(mustHex("0000000000000000000000000000000000000000000000000000000000000001"))

	tests := []struct {
		format  bitcoin.AddressFormat
		address string
	}{
		{format: bitcoin.P2PKH, address: "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"},
		{format: bitcoin.P2WPKH, address: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"},
		{format: bitcoin.P2SHP2WPKH, address: "3JvL6Ymt8MVWiCNHC7oWU6nLeHNJKLZGLN"},
		{format: bitcoin.P2TR, address: "bc1pmfr3p9j00pfxjh0zmgp99y8zftmd3s5pmedqhyptwy6lm87hf5sspknck9"},
		{format: bitcoin.Counterwallet, address: "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"},
		{format: bitcoin.CounterwalletSegwit, address: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"},
	}
	for _, test := range tests {
		t.Run(string(test.format), func(t *testing.T) {
			address, err := addresses.Encode(pubKey, test.format, &chaincfg.MainNetParams)
			require.NoError(t, err)
			require.Equal(t, test.address, address)

			// encoding is deterministic.
			require.Equal(t, address, addresses.MustEncode(pubKey, test.format, &chaincfg.MainNetParams))
		})
	}

	t.Run("unsupported format", func(t *testing.T) {
		_, err := addresses.Encode(pubKey, bitcoin.AddressFormat("p2sh-multisig"), &chaincfg.MainNetParams)
		require.Error(t, err)
		require.True(t, errors.Is(err, bitcoin.ErrUnsupportedFormat))
	})
}

func TestPayScript(t *testing.T) {
	_, pubKey := btcec.PrivKeyFromBytes(mustHex("0000000000000000000000000000000000000000000000000000000000000001"))
	pubKeyHash := "751e76e8199196d454941c45d1b3a323f1433bd6"

	t.Run("p2pkh", func(t *testing.T) {
		script, err := addresses.PayScript(pubKey, bitcoin.P2PKH, &chaincfg.MainNetParams)
		require.NoError(t, err)
		require.Equal(t, mustHex("76a914"+pubKeyHash+"88ac"), script)
	})

	t.Run("p2wpkh", func(t *testing.T) {
		script, err := addresses.PayScript(pubKey, bitcoin.P2WPKH, &chaincfg.MainNetParams)
		require.NoError(t, err)
		require.Equal(t, mustHex("0014"+pubKeyHash), script)
	})

	t.Run("redeem script matches p2wpkh locking script", func(t *testing.T) {
		redeemScript, err := addresses.RedeemScript(pubKey)
		require.NoError(t, err)
		require.Equal(t, mustHex("0014"+pubKeyHash), redeemScript)
	})
}

func TestDerivationPath(t *testing.T) {
	tests := []struct {
		format bitcoin.AddressFormat
		path   string
	}{
		{format: bitcoin.P2PKH, path: "m/44'/0'/0'/0"},
		{format: bitcoin.P2WPKH, path: "m/84'/0'/0'/0"},
		{format: bitcoin.P2SHP2WPKH, path: "m/49'/0'/0'/0"},
		{format: bitcoin.P2TR, path: "m/86'/0'/0'/0"},
		{format: bitcoin.Counterwallet, path: "m/0'/0"},
		{format: bitcoin.CounterwalletSegwit, path: "m/0'/0"},
	}
	for _, test := range tests {
		path, err := addresses.DerivationPath(test.format)
		require.NoError(t, err)
		require.Equal(t, test.path, path)
	}

	_, err := addresses.DerivationPath(bitcoin.AddressFormat("bare-multisig"))
	require.True(t, errors.Is(err, bitcoin.ErrUnsupportedFormat))
}

func TestDeriveKey(t *testing.T) {
	seed := mustHex("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")

	t.Run("deterministic", func(t *testing.T) {
		first, err := addresses.DeriveKey(seed, bitcoin.P2WPKH, 0, &chaincfg.MainNetParams)
		require.NoError(t, err)

		second, err := addresses.DeriveKey(seed, bitcoin.P2WPKH, 0, &chaincfg.MainNetParams)
		require.NoError(t, err)
		require.Equal(t, first.Serialize(), second.Serialize())
	})

	t.Run("index changes the key", func(t *testing.T) {
		first, err := addresses.DeriveKey(seed, bitcoin.P2WPKH, 0, &chaincfg.MainNetParams)
		require.NoError(t, err)

		second, err := addresses.DeriveKey(seed, bitcoin.P2WPKH, 1, &chaincfg.MainNetParams)
		require.NoError(t, err)
		require.NotEqual(t, first.Serialize(), second.Serialize())
	})

	t.Run("format changes the key", func(t *testing.T) {
		legacy, err := addresses.DeriveKey(seed, bitcoin.P2PKH, 0, &chaincfg.MainNetParams)
		require.NoError(t, err)

		segwit, err := addresses.DeriveKey(seed, bitcoin.P2WPKH, 0, &chaincfg.MainNetParams)
		require.NoError(t, err)
		require.NotEqual(t, legacy.Serialize(), segwit.Serialize())
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := addresses.DeriveKey(seed, bitcoin.AddressFormat("p2pk"), 0, &chaincfg.MainNetParams)
		require.True(t, errors.Is(err, bitcoin.ErrUnsupportedFormat))
	})
}

func mustHex(s string) []byte {
	b, _ := hex.DecodeString(s)

	return b
}
