// Copyright (C) 2026 Creditor Corp. Group.
// See LICENSE for copying information.

package psbtdecoder

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"walletcore/bitcoin"
	"walletcore/bitcoin/scripts"
	"walletcore/internal/reverse"
)

// psbtMagicBytes is the serialization prefix every PSBT starts with.
var psbtMagicBytes = []byte{0x70, 0x73, 0x62, 0x74, 0xff}

// Input describes one parsed PSBT input.
type Input struct {
	Index        int
	PrevTxID     string // display order, big-endian hex.
	PrevOutIndex uint32
	Value        int64 // in satoshi, meaningful only when HasValue is set.
	HasValue     bool  // true when witness-UTXO metadata is attached.
	RedeemScript []byte
	PartialSigs  int
}

// Output describes one parsed PSBT output.
type Output struct {
	Index        int
	Value        int64 // in satoshi.
	Script       []byte
	Class        scripts.Class
	Address      string // display address, empty when the script encodes none.
	OpReturnData []byte // decoded payload, set only for op_return outputs.
}

// Details is a derived, read-only aggregate over parsed inputs and outputs.
type Details struct {
	TotalInput  int64 // sum of known input values; 0 if none are known.
	TotalOutput int64
	Fee         int64 // total input minus total output; 0 when no input value is known.
	HasOpReturn bool
}

// Psbt holds the parse result of one PSBT packet. Input and output counts
// are fixed by the wire format and never change after parse.
type Psbt struct {
	Inputs  []Input
	Outputs []Output
}

// Decoder provides PSBT parsing related logic.
type Decoder struct {
	networkParams *chaincfg.Params
}

// NewDecoder is a constructor for Decoder.
func NewDecoder(networkParams *chaincfg.Params) *Decoder {
	return &Decoder{
		networkParams: networkParams,
	}
}

// Normalize converts PSBT text in either hex or base64 form into canonical
// lowercase hex. Text that does not decode to the PSBT magic is rejected.
func Normalize(text string) (string, error) {
	text = strings.TrimSpace(text)

	if raw, err := hex.DecodeString(strings.ToLower(text)); err == nil {
		if !bytes.HasPrefix(raw, psbtMagicBytes) {
			return "", bitcoin.NewValidationError("invalid PSBT: missing magic prefix")
		}

		return strings.ToLower(text), nil
	}

	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return "", bitcoin.NewValidationError("invalid PSBT: text is neither hex nor base64")
	}

	if !bytes.HasPrefix(raw, psbtMagicBytes) {
		return "", bitcoin.NewValidationError("invalid PSBT: missing magic prefix")
	}

	return hex.EncodeToString(raw), nil
}

// Decode fully parses PSBT text into input and output records. Parsing never
// partially succeeds: malformed packets yield a validation error.
func (decoder *Decoder) Decode(text string) (*Psbt, error) {
	packet, err := parsePacket(text)
	if err != nil {
		return nil, err
	}

	var (
		tx     = packet.UnsignedTx
		result = &Psbt{
			Inputs:  make([]Input, len(tx.TxIn)),
			Outputs: make([]Output, len(tx.TxOut)),
		}
	)
	for idx, txIn := range tx.TxIn {
		input := Input{
			Index:        idx,
			PrevTxID:     hex.EncodeToString(reverse.Bytes(txIn.PreviousOutPoint.Hash.CloneBytes())),
			PrevOutIndex: txIn.PreviousOutPoint.Index,
			RedeemScript: packet.Inputs[idx].RedeemScript,
			PartialSigs:  len(packet.Inputs[idx].PartialSigs),
		}

		switch in := packet.Inputs[idx]; {
		case in.WitnessUtxo != nil:
			input.Value = in.WitnessUtxo.Value
			input.HasValue = true
		case in.NonWitnessUtxo != nil && int(txIn.PreviousOutPoint.Index) < len(in.NonWitnessUtxo.TxOut):
			input.Value = in.NonWitnessUtxo.TxOut[txIn.PreviousOutPoint.Index].Value
			input.HasValue = true
		}

		result.Inputs[idx] = input
	}

	for idx, txOut := range tx.TxOut {
		output := Output{
			Index:  idx,
			Value:  txOut.Value,
			Script: txOut.PkScript,
			Class:  scripts.Classify(txOut.PkScript),
		}

		if output.Class == scripts.ClassOpReturn {
			if payload, err := scripts.ExtractOpReturnPayload(txOut.PkScript); err == nil {
				output.OpReturnData = payload
			}
		} else if _, addrs, _, err := txscript.ExtractPkScriptAddrs(txOut.PkScript, decoder.networkParams); err == nil && len(addrs) == 1 {
			output.Address = addrs[0].EncodeAddress()
		}

		result.Outputs[idx] = output
	}

	return result, nil
}

// Details computes derived totals over the parsed transaction.
func (p *Psbt) Details() Details {
	var (
		details    Details
		knownValue bool
	)
	for _, input := range p.Inputs {
		if input.HasValue {
			details.TotalInput += input.Value
			knownValue = true
		}
	}

	for _, output := range p.Outputs {
		details.TotalOutput += output.Value
		if output.Class == scripts.ClassOpReturn {
			details.HasOpReturn = true
		}
	}

	if knownValue {
		details.Fee = details.TotalInput - details.TotalOutput
	}

	return details
}

// AttachInputMetadata returns a copy of the PSBT with the witness-UTXO value
// and locking script of every input set by index. Both lists must cover the
// input count exactly.
func AttachInputMetadata(text string, values []int64, pkScripts [][]byte) (string, error) {
	packet, err := parsePacket(text)
	if err != nil {
		return "", err
	}

	if len(values) != len(packet.Inputs) || len(pkScripts) != len(packet.Inputs) {
		return "", bitcoin.NewValidationError("input metadata length mismatch: %d inputs, %d values, %d scripts",
			len(packet.Inputs), len(values), len(pkScripts))
	}

	for idx := range packet.Inputs {
		packet.Inputs[idx].WitnessUtxo = wire.NewTxOut(values[idx], pkScripts[idx])
	}

	w := bytes.NewBuffer(nil)
	if err = packet.Serialize(w); err != nil {
		return "", bitcoin.NewValidationError("invalid PSBT: %v", err)
	}

	return hex.EncodeToString(w.Bytes()), nil
}

// parsePacket normalizes PSBT text and parses it into a packet.
func parsePacket(text string) (*psbt.Packet, error) {
	normalized, err := Normalize(text)
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
