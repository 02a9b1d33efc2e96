// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package signer

import (
	"bytes"
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"walletcore/bitcoin"
	"walletcore/bitcoin/addresses"
	"walletcore/bitcoin/psbtdecoder"
)

// SignParams defines parameters for Sign method.
type SignParams struct {
	PSBT       string // hex or base64 serialized packet.
	PrivateKey *btcec.PrivateKey
	Format     bitcoin.AddressFormat
	// Inputs holds input indexes to sign; empty signs every input.
	Inputs []int
	// SighashTypes optionally overrides the sighash type per Inputs entry,
	// SIGHASH_ALL otherwise. Atomic-swap flows pass SIGHASH_ALL|ANYONECANPAY
	// explicitly per index.
	SighashTypes []txscript.SigHashType
}

// Signer provides PSBT signing and finalizing related logic.
type Signer struct {
	networkParams *chaincfg.Params
}

// NewSigner is a constructor for Signer.
func NewSigner(networkParams *chaincfg.Params) *Signer {
	return &Signer{
		networkParams: networkParams,
	}
}

// Sign adds signatures to the requested inputs and returns the updated,
// still-unfinalized PSBT in hex, so further co-signers can be chained.
func (signer *Signer) Sign(params SignParams) (string, error) {
	packet, err := parsePacket(params.PSBT)
	if err != nil {
		return "", err
	}

	inputs := params.Inputs
	if len(inputs) == 0 {
		inputs = make([]int, len(packet.Inputs))
		for idx := range inputs {
			inputs[idx] = idx
		}
	}

	var (
		tx                   = packet.UnsignedTx
		prevOutputFetcherMap = make(map[wire.OutPoint]*wire.TxOut, len(tx.TxIn))
	)
	for idx, in := range packet.Inputs {
		switch {
		case in.WitnessUtxo != nil:
			prevOutputFetcherMap[tx.TxIn[idx].PreviousOutPoint] = in.WitnessUtxo
		case in.NonWitnessUtxo != nil:
			outIdx := tx.TxIn[idx].PreviousOutPoint.Index
			if int(outIdx) < len(in.NonWitnessUtxo.TxOut) {
				prevOutputFetcherMap[tx.TxIn[idx].PreviousOutPoint] = in.NonWitnessUtxo.TxOut[outIdx]
			}
		}
	}

	prevOutputFetcher := txscript.NewMultiPrevOutFetcher(prevOutputFetcherMap)
	for i, inputIdx := range inputs {
		if inputIdx < 0 || inputIdx >= len(packet.Inputs) {
			return "", bitcoin.NewValidationError("invalid input index %d: packet has %d inputs", inputIdx, len(packet.Inputs))
		}

		sigHashType := txscript.SigHashAll
		if i < len(params.SighashTypes) && params.SighashTypes[i] != 0 {
			sigHashType = params.SighashTypes[i]
		}

		err = signer.signInput(packet, inputIdx, prevOutputFetcher, params.PrivateKey, params.Format, sigHashType)
		if err != nil {
			if errors.Is(err, bitcoin.ErrUnsupportedFormat) {
				return "", err
			}

			return "", bitcoin.NewSigningError(err, "failed to sign transaction input")
		}
	}

	w := bytes.NewBuffer(nil)
	if err = packet.Serialize(w); err != nil {
		return "", bitcoin.NewSigningError(err, "failed to serialize signed transaction")
	}

	return hex.EncodeToString(w.Bytes()), nil
}

// signInput signs one input under the signing algorithm of the address format.
func (signer *Signer) signInput(packet *psbt.Packet, idx int, inputFetcher txscript.PrevOutputFetcher,
	privateKey *btcec.PrivateKey, format bitcoin.AddressFormat, sigHashType txscript.SigHashType) error {
	input := &packet.Inputs[idx]
	if input.SighashType == 0 {
		input.SighashType = sigHashType
	}

	switch format {
	case bitcoin.P2TR:
		if input.WitnessUtxo == nil {
			return errors.New("missing witness utxo")
		}

		sigHashes := txscript.NewTxSigHashes(packet.UnsignedTx, inputFetcher)
		witness, err := txscript.TaprootWitnessSignature(
			packet.UnsignedTx, sigHashes, idx,
			input.WitnessUtxo.Value, input.WitnessUtxo.PkScript, sigHashType, privateKey)
		if err != nil {
			return err
		}

		input.TaprootKeySpendSig = witness[0]
		if len(input.TaprootInternalKey) == 0 {
			input.TaprootInternalKey = schnorr.SerializePubKey(privateKey.PubKey())
		}

		return nil
	case bitcoin.P2WPKH, bitcoin.CounterwalletSegwit:
		if input.WitnessUtxo == nil {
			return errors.New("missing witness utxo")
		}

		sigHashes := txscript.NewTxSigHashes(packet.UnsignedTx, inputFetcher)
		sig, err := txscript.RawTxInWitnessSignature(packet.UnsignedTx, sigHashes, idx,
			input.WitnessUtxo.Value, input.WitnessUtxo.PkScript, sigHashType, privateKey)
		if err != nil {
			return err
		}

		return attachSignature(packet, idx, sig, privateKey, nil)
	case bitcoin.P2SHP2WPKH:
		if input.WitnessUtxo == nil {
			return errors.New("missing witness utxo")
		}

		if len(input.RedeemScript) == 0 {
			redeemScript, err := addresses.RedeemScript(privateKey.PubKey())
			if err != nil {
				return err
			}

			input.RedeemScript = redeemScript
		}

		sigHashes := txscript.NewTxSigHashes(packet.UnsignedTx, inputFetcher)
		sig, err := txscript.RawTxInWitnessSignature(packet.UnsignedTx, sigHashes, idx,
			input.WitnessUtxo.Value, input.RedeemScript, sigHashType, privateKey)
		if err != nil {
			return err
		}

		return attachSignature(packet, idx, sig, privateKey, input.RedeemScript)
	case bitcoin.P2PKH, bitcoin.Counterwallet:
		var prevScript []byte
		switch outIdx := packet.UnsignedTx.TxIn[idx].PreviousOutPoint.Index; {
		case input.NonWitnessUtxo != nil && int(outIdx) < len(input.NonWitnessUtxo.TxOut):
			prevScript = input.NonWitnessUtxo.TxOut[outIdx].PkScript
		case input.WitnessUtxo != nil:
			prevScript = input.WitnessUtxo.PkScript
		default:
			return errors.New("missing utxo metadata")
		}

		sig, err := txscript.RawTxInSignature(packet.UnsignedTx, idx, prevScript, sigHashType, privateKey)
		if err != nil {
			return err
		}

		return attachSignature(packet, idx, sig, privateKey, nil)
	default:
		return bitcoin.NewUnsupportedFormatError(format)
	}
}

// attachSignature records a partial signature on the packet input.
func attachSignature(packet *psbt.Packet, idx int, sig []byte, privateKey *btcec.PrivateKey, redeemScript []byte) error {
	updater, err := psbt.NewUpdater(packet)
	if err != nil {
		return err
	}

	_, err = updater.Sign(idx, sig, privateKey.PubKey().SerializeCompressed(), redeemScript, nil)

	return err
}

// Finalize completes every input and extracts the broadcastable raw
// transaction hex. An under-signed packet is an error, never a partial result.
func (signer *Signer) Finalize(text string) (string, error) {
	packet, err := parsePacket(text)
	if err != nil {
		return "", err
	}

	if err = psbt.MaybeFinalizeAll(packet); err != nil {
		return "", bitcoin.NewSigningError(err, "transaction is not fully signed")
	}

	finalTx, err := psbt.Extract(packet)
	if err != nil {
		return "", bitcoin.NewSigningError(err, "failed to extract final transaction")
	}

	w := bytes.NewBuffer(nil)
	if err = finalTx.Serialize(w); err != nil {
		return "", bitcoin.NewSigningError(err, "failed to serialize final transaction")
	}

	return hex.EncodeToString(w.Bytes()), nil
}

// parsePacket normalizes PSBT text and parses it into a packet.
func parsePacket(text string) (*psbt.Packet, error) {
	normalized, err := psbtdecoder.Normalize(text)
	if err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(normalized)
	if err != nil {
		return nil, bitcoin.NewValidationError("invalid PSBT: %v", err)
	}

	packet, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
	if err != nil {
		return nil, bitcoin.NewValidationError("invalid PSBT: %v", err)
	}

	return packet, nil
}
