// Copyright (C) 2026 Creditor Corp. Group.
// See LICENSE for copying information.

package bip137

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"walletcore/bitcoin"
	"walletcore/bitcoin/addresses"
)

// messagePrefix is the magic every signed message is framed with before
// hashing.
const messagePrefix = "Bitcoin Signed Message:\n"

// header flag bases per address family. The recovery id 0..3 is added on top.
const (
	headerBaseUncompressed = 27 // legacy P2PKH, uncompressed key.
	headerBaseCompressed   = 31 // legacy P2PKH, compressed key.
	headerBaseNestedSegwit = 35 // P2SH-P2WPKH.
	headerBaseSegwit       = 39 // P2WPKH.
)

// compactSignatureSize is the header flag plus the 64 byte r||s pair.
const compactSignatureSize = 65

// Method names the verification mode that accepted a signature.
type Method string

const (
	// MethodStrict defines verification honoring the header address family.
	MethodStrict Method = "strict"
	// MethodLoose defines verification trying every family and recovery id.
	MethodLoose Method = "loose"
)

// Result describes the outcome of message signature verification.
type Result struct {
	Valid  bool
	Method Method
	// Format is the address format the signature matched under.
	Format bitcoin.AddressFormat
}

// MessageHash returns the double-SHA256 digest of the message framed with the
// signed message magic.
func MessageHash(message string) []byte {
	w := bytes.NewBuffer(nil)
	_ = wire.WriteVarString(w, 0, messagePrefix)
	_ = wire.WriteVarString(w, 0, message)

	return chainhash.DoubleHashB(w.Bytes())
}

// Sign produces a base64 compact signature of the message under the address
// format's header flag. Taproot has no header range in this scheme and is
// rejected.
func Sign(message string, privateKey *btcec.PrivateKey, format bitcoin.AddressFormat) (string, error) {
	var headerBase byte
	switch format {
	case bitcoin.P2PKH, bitcoin.Counterwallet:
		headerBase = headerBaseCompressed
	case bitcoin.P2SHP2WPKH:
		headerBase = headerBaseNestedSegwit
	case bitcoin.P2WPKH, bitcoin.CounterwalletSegwit:
		headerBase = headerBaseSegwit
	default:
		return "", bitcoin.NewUnsupportedFormatError(format)
	}

	sig := ecdsa.SignCompact(privateKey, MessageHash(message), true)

	// SignCompact emits headers in the 31..34 compressed range; rebase the
	// recovery id onto the format's own range.
	sig[0] = headerBase + (sig[0] - headerBaseCompressed)

	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks the signature against the address, strictly first and loosely
// as a fallback.
func Verify(message, signature, address string, networkParams *chaincfg.Params) Result {
	if result := VerifyStrict(message, signature, address, networkParams); result.Valid {
		return result
	}

	return VerifyLoose(message, signature, address, networkParams)
}

// VerifyStrict recovers the public key honoring the header flag's address
// family and compares the derived address of that family only.
func VerifyStrict(message, signature, address string, networkParams *chaincfg.Params) Result {
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(raw) != compactSignatureSize {
		return Result{}
	}

	var (
		header     = raw[0]
		format     bitcoin.AddressFormat
		compressed bool
	)
	switch {
	case header >= headerBaseUncompressed && header < headerBaseCompressed:
		format, compressed = bitcoin.P2PKH, false
	case header >= headerBaseCompressed && header < headerBaseNestedSegwit:
		format, compressed = bitcoin.P2PKH, true
	case header >= headerBaseNestedSegwit && header < headerBaseSegwit:
		format, compressed = bitcoin.P2SHP2WPKH, true
	case header >= headerBaseSegwit && header < headerBaseSegwit+4:
		format, compressed = bitcoin.P2WPKH, true
	default:
		return Result{}
	}

	publicKey, err := recoverKey(raw, MessageHash(message))
	if err != nil {
		return Result{}
	}

	derived, err := encodeFamily(publicKey, format, compressed, networkParams)
	if err != nil || !strings.EqualFold(derived, address) {
		return Result{}
	}

	return Result{Valid: true, Method: MethodStrict, Format: format}
}

// VerifyLoose tries every recovery id and compression mode, deriving each
// candidate address family until one matches. Electrum and some hardware
// wallets flag signatures inconsistently, which strict mode rejects.
func VerifyLoose(message, signature, address string, networkParams *chaincfg.Params) Result {
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(raw) != compactSignatureSize {
		return Result{}
	}

	hash := MessageHash(message)
	for recoveryID := byte(0); recoveryID < 4; recoveryID++ {
		for _, compressed := range []bool{true, false} {
			candidate := make([]byte, compactSignatureSize)
			candidate[0] = headerBaseUncompressed + recoveryID
			if compressed {
				candidate[0] = headerBaseCompressed + recoveryID
			}
			copy(candidate[1:], raw[1:])

			publicKey, err := recoverKey(candidate, hash)
			if err != nil {
				continue
			}

			formats := []bitcoin.AddressFormat{bitcoin.P2PKH}
			if compressed {
				formats = append(formats, bitcoin.P2WPKH, bitcoin.P2SHP2WPKH, bitcoin.P2TR)
			}

			for _, format := range formats {
				derived, err := encodeFamily(publicKey, format, compressed, networkParams)
				if err != nil {
					continue
				}

				if strings.EqualFold(derived, address) {
					return Result{Valid: true, Method: MethodLoose, Format: format}
				}
			}
		}
	}

	return Result{}
}

// recoverKey recovers the public key from a compact signature, rebasing the
// header into the 27..34 range RecoverCompact accepts.
func recoverKey(sig []byte, hash []byte) (*btcec.PublicKey, error) {
	rebased := make([]byte, len(sig))
	copy(rebased, sig)

	switch header := rebased[0]; {
	case header >= headerBaseSegwit:
		rebased[0] = headerBaseCompressed + (header - headerBaseSegwit)
	case header >= headerBaseNestedSegwit:
		rebased[0] = headerBaseCompressed + (header - headerBaseNestedSegwit)
	}

	publicKey, _, err := ecdsa.RecoverCompact(rebased, hash)

	return publicKey, err
}

// encodeFamily derives the comparison address of the recovered key.
// Uncompressed legacy keys hash their uncompressed serialization, which the
// shared encoder does not cover.
func encodeFamily(publicKey *btcec.PublicKey, format bitcoin.AddressFormat, compressed bool, networkParams *chaincfg.Params) (string, error) {
	if format == bitcoin.P2PKH && !compressed {
		address, err := newUncompressedAddress(publicKey, networkParams)
		if err != nil {
			return "", err
		}

		return address, nil
	}

	return addresses.Encode(publicKey, format, networkParams)
}

// newUncompressedAddress encodes the legacy P2PKH address over the
// uncompressed key serialization.
func newUncompressedAddress(publicKey *btcec.PublicKey, networkParams *chaincfg.Params) (string, error) {
	address, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(publicKey.SerializeUncompressed()), networkParams)
	if err != nil {
		return "", err
	}

	return address.EncodeAddress(), nil
}
