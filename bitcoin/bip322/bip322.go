// Copyright (C) 2026 Creditor Corp. Group.
// See LICENSE for copying information.

package bip322

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"walletcore/bitcoin"
	"walletcore/bitcoin/addresses"
	"walletcore/internal/sequencereader"
)

// messageTag is the BIP-340 tag under which signed messages are hashed.
const messageTag = "BIP0322-signed-message"

// taprootPrefix marks the compact taproot signature form this package emits
// instead of the witness-stack serialization.
const taprootPrefix = "tr:"

// TaggedHash returns the BIP-340 tagged hash of the message,
// SHA256(SHA256(tag) || SHA256(tag) || message).
func TaggedHash(message string) [32]byte {
	tagHash := sha256.Sum256([]byte(messageTag))

	h := sha256.New()
	h.Write(tagHash[:])
	h.Write(tagHash[:])
	h.Write([]byte(message))

	var digest [32]byte
	copy(digest[:], h.Sum(nil))

	return digest
}

// BuildToSpend constructs the virtual funding transaction binding the message
// digest to the locking script. Its txid commits to both, so any message or
// script change invalidates the signature over to_sign.
func BuildToSpend(pkScript []byte, message string) (*wire.MsgTx, error) {
	digest := TaggedHash(message)
	commitScript, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(digest[:]).
		Script()
	if err != nil {
		return nil, err
	}

	toSpend := wire.NewMsgTx(0)
	toSpend.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: chainhash.Hash{}, Index: wire.MaxTxInSequenceNum},
		SignatureScript:  commitScript,
		Sequence:         0,
	})
	toSpend.AddTxOut(wire.NewTxOut(0, pkScript))

	return toSpend, nil
}

// BuildToSign constructs the virtual spending transaction whose single input
// consumes the pkScript output of to_spend.
func BuildToSign(toSpend *wire.MsgTx) *wire.MsgTx {
	toSign := wire.NewMsgTx(0)
	toSign.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: toSpend.TxHash(), Index: 0},
		Sequence:         0,
	})
	toSign.AddTxOut(wire.NewTxOut(0, []byte{txscript.OP_RETURN}))

	return toSign
}

// Sign produces the message signature of the private key under the address
// format. Non-taproot formats serialize the witness stack of the signed
// virtual transaction in base64; taproot uses the compact tr: form over the
// tagged digest directly.
func Sign(message string, privateKey *btcec.PrivateKey, format bitcoin.AddressFormat, networkParams *chaincfg.Params) (string, error) {
	if format == bitcoin.P2TR {
		digest := TaggedHash(message)
		sig, err := schnorr.Sign(privateKey, digest[:])
		if err != nil {
			return "", bitcoin.NewSigningError(err, "failed to sign message")
		}

		return taprootPrefix + hex.EncodeToString(sig.Serialize()) + ":" +
			hex.EncodeToString(schnorr.SerializePubKey(privateKey.PubKey())), nil
	}

	pkScript, err := addresses.PayScript(privateKey.PubKey(), format, networkParams)
	if err != nil {
		return "", err
	}

	toSpend, err := BuildToSpend(pkScript, message)
	if err != nil {
		return "", err
	}

	stack, err := signToSign(BuildToSign(toSpend), pkScript, privateKey, format)
	if err != nil {
		return "", bitcoin.NewSigningError(err, "failed to sign message")
	}

	encoded, err := encodeStack(stack)
	if err != nil {
		return "", bitcoin.NewSigningError(err, "failed to serialize witness stack")
	}

	return base64.StdEncoding.EncodeToString(encoded), nil
}

// signToSign signs the single input of to_sign under the format's algorithm
// and returns the resulting witness stack.
func signToSign(toSign *wire.MsgTx, pkScript []byte, privateKey *btcec.PrivateKey, format bitcoin.AddressFormat) (wire.TxWitness, error) {
	switch format {
	case bitcoin.P2PKH, bitcoin.Counterwallet:
		sig, err := txscript.RawTxInSignature(toSign, 0, pkScript, txscript.SigHashAll, privateKey)
		if err != nil {
			return nil, err
		}

		return wire.TxWitness{sig, privateKey.PubKey().SerializeCompressed()}, nil
	case bitcoin.P2WPKH, bitcoin.CounterwalletSegwit:
		prevOut := wire.NewTxOut(0, pkScript)
		fetcher := txscript.NewCannedPrevOutputFetcher(prevOut.PkScript, prevOut.Value)
		sigHashes := txscript.NewTxSigHashes(toSign, fetcher)

		return txscript.WitnessSignature(toSign, sigHashes, 0, 0, pkScript, txscript.SigHashAll, privateKey, true)
	case bitcoin.P2SHP2WPKH:
		redeemScript, err := addresses.RedeemScript(privateKey.PubKey())
		if err != nil {
			return nil, err
		}

		prevOut := wire.NewTxOut(0, pkScript)
		fetcher := txscript.NewCannedPrevOutputFetcher(prevOut.PkScript, prevOut.Value)
		sigHashes := txscript.NewTxSigHashes(toSign, fetcher)

		witness, err := txscript.WitnessSignature(toSign, sigHashes, 0, 0, redeemScript, txscript.SigHashAll, privateKey, true)
		if err != nil {
			return nil, err
		}

		return append(witness, redeemScript), nil
	default:
		return nil, bitcoin.NewUnsupportedFormatError(format)
	}
}

// Verify reports whether the signature binds the message to the address.
// Malformed input of any kind yields false, never an error.
func Verify(message, signature, address string, networkParams *chaincfg.Params) bool {
	if strings.HasPrefix(signature, taprootPrefix) {
		return verifyTaproot(message, signature, address, networkParams)
	}

	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	stack, err := decodeStack(raw)
	if err != nil {
		return false
	}

	decoded, err := btcutil.DecodeAddress(address, networkParams)
	if err != nil {
		return false
	}

	pkScript, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return false
	}

	toSpend, err := BuildToSpend(pkScript, message)
	if err != nil {
		return false
	}
	toSign := BuildToSign(toSpend)

	switch decoded.(type) {
	case *btcutil.AddressPubKeyHash:
		return verifyLegacy(toSign, pkScript, stack, decoded, networkParams)
	case *btcutil.AddressWitnessPubKeyHash:
		return verifyWitness(toSign, pkScript, stack, decoded, networkParams)
	case *btcutil.AddressScriptHash:
		return verifyNestedWitness(toSign, stack, decoded, networkParams)
	default:
		return false
	}
}

// verifyTaproot checks the compact tr:<sig>:<pubkey> form against the
// taproot address derived from the embedded key.
func verifyTaproot(message, signature, address string, networkParams *chaincfg.Params) bool {
	parts := strings.Split(strings.TrimPrefix(signature, taprootPrefix), ":")
	if len(parts) != 2 || parts[1] == "" {
		return false
	}

	rawSig, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}

	rawKey, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}

	sig, err := schnorr.ParseSignature(rawSig)
	if err != nil {
		return false
	}

	publicKey, err := schnorr.ParsePubKey(rawKey)
	if err != nil {
		return false
	}

	digest := TaggedHash(message)
	if !sig.Verify(digest[:], publicKey) {
		return false
	}

	derived, err := addresses.Encode(publicKey, bitcoin.P2TR, networkParams)

	return err == nil && strings.EqualFold(derived, address)
}

// verifyLegacy checks a {signature, public key} stack against a P2PKH address.
func verifyLegacy(toSign *wire.MsgTx, pkScript []byte, stack wire.TxWitness, address btcutil.Address, networkParams *chaincfg.Params) bool {
	if len(stack) != 2 {
		return false
	}

	publicKey, err := btcec.ParsePubKey(stack[1])
	if err != nil {
		return false
	}

	derived, err := addresses.Encode(publicKey, bitcoin.P2PKH, networkParams)
	if err != nil || !strings.EqualFold(derived, address.EncodeAddress()) {
		return false
	}

	digest, err := txscript.CalcSignatureHash(pkScript, txscript.SigHashAll, toSign, 0)
	if err != nil {
		return false
	}

	return checkSignature(stack[0], digest, publicKey)
}

// verifyWitness checks a {signature, public key} stack against a P2WPKH address.
func verifyWitness(toSign *wire.MsgTx, pkScript []byte, stack wire.TxWitness, address btcutil.Address, networkParams *chaincfg.Params) bool {
	if len(stack) != 2 {
		return false
	}

	publicKey, err := btcec.ParsePubKey(stack[1])
	if err != nil {
		return false
	}

	derived, err := addresses.Encode(publicKey, bitcoin.P2WPKH, networkParams)
	if err != nil || !strings.EqualFold(derived, address.EncodeAddress()) {
		return false
	}

	fetcher := txscript.NewCannedPrevOutputFetcher(pkScript, 0)
	sigHashes := txscript.NewTxSigHashes(toSign, fetcher)
	digest, err := txscript.CalcWitnessSigHash(pkScript, sigHashes, txscript.SigHashAll, toSign, 0, 0)
	if err != nil {
		return false
	}

	return checkSignature(stack[0], digest, publicKey)
}

// verifyNestedWitness checks a {signature, public key, redeem script} stack
// against a P2SH-P2WPKH address.
func verifyNestedWitness(toSign *wire.MsgTx, stack wire.TxWitness, address btcutil.Address, networkParams *chaincfg.Params) bool {
	if len(stack) != 3 {
		return false
	}

	publicKey, err := btcec.ParsePubKey(stack[1])
	if err != nil {
		return false
	}

	redeemScript, err := addresses.RedeemScript(publicKey)
	if err != nil || !bytes.Equal(redeemScript, stack[2]) {
		return false
	}

	derived, err := addresses.Encode(publicKey, bitcoin.P2SHP2WPKH, networkParams)
	if err != nil || !strings.EqualFold(derived, address.EncodeAddress()) {
		return false
	}

	fetcher := txscript.NewCannedPrevOutputFetcher(redeemScript, 0)
	sigHashes := txscript.NewTxSigHashes(toSign, fetcher)
	digest, err := txscript.CalcWitnessSigHash(redeemScript, sigHashes, txscript.SigHashAll, toSign, 0, 0)
	if err != nil {
		return false
	}

	return checkSignature(stack[0], digest, publicKey)
}

// checkSignature strips the trailing sighash flag, parses the DER signature
// and verifies it over the digest.
func checkSignature(sigWithHashType, digest []byte, publicKey *btcec.PublicKey) bool {
	if len(sigWithHashType) == 0 || sigWithHashType[len(sigWithHashType)-1] != byte(txscript.SigHashAll) {
		return false
	}

	sig, err := ecdsa.ParseDERSignature(sigWithHashType[:len(sigWithHashType)-1])
	if err != nil {
		return false
	}

	return sig.Verify(digest, publicKey)
}

// encodeStack serializes a witness stack the way wire serializes transaction
// witness data, a varint item count followed by length-prefixed items.
func encodeStack(stack wire.TxWitness) ([]byte, error) {
	w := bytes.NewBuffer(nil)
	if err := wire.WriteVarInt(w, 0, uint64(len(stack))); err != nil {
		return nil, err
	}

	for _, item := range stack {
		if err := wire.WriteVarBytes(w, 0, item); err != nil {
			return nil, err
		}
	}

	return w.Bytes(), nil
}

// decodeStack parses a serialized witness stack, rejecting trailing bytes.
func decodeStack(raw []byte) (wire.TxWitness, error) {
	sr := sequencereader.New(raw)

	count, err := readCompactSize(sr)
	if err != nil {
		return nil, err
	}
	if count > uint64(sr.Len()) {
		return nil, bitcoin.NewValidationError("witness stack is truncated")
	}

	stack := make(wire.TxWitness, 0, count)
	for i := uint64(0); i < count; i++ {
		size, err := readCompactSize(sr)
		if err != nil {
			return nil, err
		}

		item, err := sr.NextN(int(size))
		if err != nil {
			return nil, bitcoin.NewValidationError("witness stack is truncated")
		}

		stack = append(stack, item)
	}

	if sr.HasNext() {
		return nil, bitcoin.NewValidationError("witness stack has trailing bytes")
	}

	return stack, nil
}

// readCompactSize reads a bitcoin varint from the sequence.
func readCompactSize(sr *sequencereader.SequenceReader[byte]) (uint64, error) {
	prefix, err := sr.Next()
	if err != nil {
		return 0, bitcoin.NewValidationError("witness stack is truncated")
	}

	var width int
	switch prefix {
	case 0xfd:
		width = 2
	case 0xfe:
		width = 4
	case 0xff:
		width = 8
	default:
		return uint64(prefix), nil
	}

	raw, err := sr.NextN(width)
	if err != nil {
		return 0, bitcoin.NewValidationError("witness stack is truncated")
	}

	var value uint64
	for i := width - 1; i >= 0; i-- {
		value = value<<8 | uint64(raw[i])
	}

	return value, nil
}
