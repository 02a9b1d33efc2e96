// Copyright (C) 2026 Creditor Corp. Group.
// See LICENSE for copying information.

package addresses

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"walletcore/bitcoin"
)

// DerivationPath returns the BIP32 path template of the address format,
// without the trailing address index.
func DerivationPath(format bitcoin.AddressFormat) (string, error) {
	descriptor, err := bitcoin.DescribeFormat(format)
	if err != nil {
		return "", err
	}

	return descriptor.DerivationPath, nil
}

// Encode returns the address string of the public key under the format.
func Encode(publicKey *btcec.PublicKey, format bitcoin.AddressFormat, networkParams *chaincfg.Params) (string, error) {
	address, err := newAddress(publicKey, format, networkParams)
	if err != nil {
		return "", err
	}

	return address.EncodeAddress(), nil
}

// MustEncode uses Encode, panics in case of error.
func MustEncode(publicKey *btcec.PublicKey, format bitcoin.AddressFormat, networkParams *chaincfg.Params) string {
	address, err := Encode(publicKey, format, networkParams)
	if err != nil {
		panic(err)
	}

	return address
}

// PayScript returns the locking script paying to the public key under the format.
func PayScript(publicKey *btcec.PublicKey, format bitcoin.AddressFormat, networkParams *chaincfg.Params) ([]byte, error) {
	address, err := newAddress(publicKey, format, networkParams)
	if err != nil {
		return nil, err
	}

	return txscript.PayToAddrScript(address)
}

// RedeemScript returns the OP_0 <public key hash> witness program that
// P2SH-P2WPKH locking scripts wrap.
func RedeemScript(publicKey *btcec.PublicKey) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(btcutil.Hash160(publicKey.SerializeCompressed())).
		Script()
}

// newAddress builds the btcutil address of the public key under the format.
func newAddress(publicKey *btcec.PublicKey, format bitcoin.AddressFormat, networkParams *chaincfg.Params) (btcutil.Address, error) {
	switch format {
	case bitcoin.P2PKH, bitcoin.Counterwallet:
		return btcutil.NewAddressPubKeyHash(btcutil.Hash160(publicKey.SerializeCompressed()), networkParams)
	case bitcoin.P2WPKH, bitcoin.CounterwalletSegwit:
		return btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(publicKey.SerializeCompressed()), networkParams)
	case bitcoin.P2SHP2WPKH:
		redeemScript, err := RedeemScript(publicKey)
		if err != nil {
			return nil, err
		}

		return btcutil.NewAddressScriptHashFromHash(btcutil.Hash160(redeemScript), networkParams)
	case bitcoin.P2TR:
		outputKey := txscript.ComputeTaprootKeyNoScript(publicKey)

		return btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), networkParams)
	default:
		return nil, bitcoin.NewUnsupportedFormatError(format)
	}
}
