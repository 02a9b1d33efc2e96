// Copyright (C) 2026 Creditor Corp. Group.
// See LICENSE for copying information.

package scripts

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/txscript"

	"walletcore/bitcoin"
	"walletcore/internal/sequencereader"
)

// Class defines the structural classification tag of a locking script.
type Class string

const (
	// ClassP2PKH defines pay-to-public-key-hash scripts.
	ClassP2PKH Class = "p2pkh"
	// ClassP2WPKH defines version-0 pay-to-witness-public-key-hash scripts.
	ClassP2WPKH Class = "p2wpkh"
	// ClassP2SH defines pay-to-script-hash scripts.
	ClassP2SH Class = "p2sh"
	// ClassP2TR defines version-1 taproot scripts.
	ClassP2TR Class = "p2tr"
	// ClassOpReturn defines provably unspendable data-carrier scripts.
	ClassOpReturn Class = "op_return"
	// ClassUnknown defines everything the classifier does not recognize.
	ClassUnknown Class = "unknown"
)

// exact script template sizes in bytes.
const (
	p2pkhScriptSize  = 25
	p2wpkhScriptSize = 22
	p2shScriptSize   = 23
	p2trScriptSize   = 34
)

// Classify matches the locking script prefix bytes and total length against
// the known templates. Unrecognized scripts classify as ClassUnknown, never
// as an error.
func Classify(script []byte) Class {
	switch {
	case len(script) > 0 && script[0] == txscript.OP_RETURN:
		return ClassOpReturn
	case len(script) == p2pkhScriptSize && script[0] == txscript.OP_DUP && script[1] == txscript.OP_HASH160 &&
		script[2] == txscript.OP_DATA_20 && script[23] == txscript.OP_EQUALVERIFY && script[24] == txscript.OP_CHECKSIG:
		return ClassP2PKH
	case len(script) == p2wpkhScriptSize && script[0] == txscript.OP_0 && script[1] == txscript.OP_DATA_20:
		return ClassP2WPKH
	case len(script) == p2shScriptSize && script[0] == txscript.OP_HASH160 && script[1] == txscript.OP_DATA_20 &&
		script[22] == txscript.OP_EQUAL:
		return ClassP2SH
	case len(script) == p2trScriptSize && script[0] == txscript.OP_1 && script[1] == txscript.OP_DATA_32:
		return ClassP2TR
	default:
		return ClassUnknown
	}
}

// ExtractOpReturnPayload strips the OP_RETURN opcode and the push prefix,
// returns the raw carried payload. The result never contains opcode or
// length bytes.
func ExtractOpReturnPayload(script []byte) ([]byte, error) {
	if len(script) < 2 || script[0] != txscript.OP_RETURN {
		return nil, bitcoin.NewValidationError("script is not an OP_RETURN data carrier")
	}

	sr := sequencereader.New(script[1:])
	op, _ := sr.Next()

	var size int
	switch {
	case op >= txscript.OP_DATA_1 && op <= txscript.OP_DATA_75:
		size = int(op)
	case op == txscript.OP_PUSHDATA1:
		lengthByte, err := sr.Next()
		if err != nil {
			return nil, bitcoin.NewValidationError("OP_RETURN script is truncated at PUSHDATA1 length")
		}

		size = int(lengthByte)
	case op == txscript.OP_PUSHDATA2:
		length, err := sr.NextN(2)
		if err != nil {
			return nil, bitcoin.NewValidationError("OP_RETURN script is truncated at PUSHDATA2 length")
		}

		size = int(binary.LittleEndian.Uint16(length))
	case op == txscript.OP_PUSHDATA4:
		length, err := sr.NextN(4)
		if err != nil {
			return nil, bitcoin.NewValidationError("OP_RETURN script is truncated at PUSHDATA4 length")
		}

		size = int(binary.LittleEndian.Uint32(length))
	default:
		return nil, bitcoin.NewValidationError("unsupported OP_RETURN push opcode %#02x", op)
	}

	data, err := sr.NextN(size)
	if err != nil {
		return nil, bitcoin.NewValidationError("OP_RETURN payload is truncated: want %d bytes, have %d", size, sr.Len())
	}

	payload := make([]byte, size)
	copy(payload, data)

	return payload, nil
}

// BuildOpReturn constructs an OP_RETURN locking script carrying the payload,
// choosing the smallest push encoding that fits.
func BuildOpReturn(payload []byte) ([]byte, error) {
	switch size := len(payload); {
	case size == 0:
		return nil, bitcoin.NewValidationError("empty OP_RETURN payload")
	case size <= txscript.OP_DATA_75:
		return append([]byte{txscript.OP_RETURN, byte(size)}, payload...), nil
	case size <= 0xff:
		return append([]byte{txscript.OP_RETURN, txscript.OP_PUSHDATA1, byte(size)}, payload...), nil
	case size <= 0xffff:
		script := []byte{txscript.OP_RETURN, txscript.OP_PUSHDATA2, 0, 0}
		binary.LittleEndian.PutUint16(script[2:], uint16(size))

		return append(script, payload...), nil
	default:
		script := []byte{txscript.OP_RETURN, txscript.OP_PUSHDATA4, 0, 0, 0, 0}
		binary.LittleEndian.PutUint32(script[2:], uint32(size))

		return append(script, payload...), nil
	}
}
