// Copyright (C) 2026 Creditor Corp. Group.
// See LICENSE for copying information.

package scripts_test

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"

	"walletcore/bitcoin/scripts"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		script []byte
		class  scripts.Class
	}{
		{
			name:   "p2pkh",
			script: mustHex("76a914751e76e8199196d454941c45d1b3a323f1433bd688ac"),
			class:  scripts.ClassP2PKH,
		},
		{
			name:   "p2wpkh",
			script: mustHex("0014751e76e8199196d454941c45d1b3a323f1433bd6"),
			class:  scripts.ClassP2WPKH,
		},
		{
			name:   "p2sh",
			script: mustHex("a914bcfeb728b584253d5f3f70bcb780e9ef218a68f487"),
			class:  scripts.ClassP2SH,
		},
		{
			name:   "p2tr",
			script: mustHex("5120da4710964f7852695de2da025290e24af6d8c281de5a0b902b7135fd9fd74d21"),
			class:  scripts.ClassP2TR,
		},
		{
			name:   "op_return",
			script: mustHex("6a0568656c6c6f"),
			class:  scripts.ClassOpReturn,
		},
		{
			name:   "bare op_return",
			script: []byte{txscript.OP_RETURN},
			class:  scripts.ClassOpReturn,
		},
		{
			name:   "empty script",
			script: nil,
			class:  scripts.ClassUnknown,
		},
		{
			name:   "p2wsh is unknown",
			script: mustHex("00201863143c14c5166804bd19203356da136c985678cd4d27a1b8c6329604903262"),
			class:  scripts.ClassUnknown,
		},
		{
			name:   "truncated p2pkh is unknown",
			script: mustHex("76a914751e76e8199196d454941c45d1b3a323f143"),
			class:  scripts.ClassUnknown,
		},
		{
			name:   "p2pkh sized garbage is unknown",
			script: bytes.Repeat([]byte{0xab}, 25),
			class:  scripts.ClassUnknown,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.class, scripts.Classify(test.script))
		})
	}
}

func TestOpReturnRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		opcode byte
	}{
		{name: "direct push", size: 10, opcode: 10},
		{name: "largest direct push", size: 75, opcode: 75},
		{name: "smallest pushdata1", size: 76, opcode: txscript.OP_PUSHDATA1},
		{name: "largest pushdata1", size: 255, opcode: txscript.OP_PUSHDATA1},
		{name: "smallest pushdata2", size: 256, opcode: txscript.OP_PUSHDATA2},
		{name: "pushdata4", size: 65537, opcode: txscript.OP_PUSHDATA4},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			payload := bytes.Repeat([]byte{0x42}, test.size)

			script, err := scripts.BuildOpReturn(payload)
			require.NoError(t, err)
			require.EqualValues(t, txscript.OP_RETURN, script[0])
			require.Equal(t, test.opcode, script[1])
			require.Equal(t, scripts.ClassOpReturn, scripts.Classify(script))

			extracted, err := scripts.ExtractOpReturnPayload(script)
			require.NoError(t, err)
			require.Equal(t, payload, extracted)
		})
	}

	t.Run("empty payload", func(t *testing.T) {
		_, err := scripts.BuildOpReturn(nil)
		require.Error(t, err)
	})
}

func TestExtractOpReturnPayloadMalformed(t *testing.T) {
	tests := []struct {
		name   string
		script []byte
	}{
		{name: "empty script", script: nil},
		{name: "bare op_return", script: []byte{txscript.OP_RETURN}},
		{name: "not an op_return", script: mustHex("0014751e76e8199196d454941c45d1b3a323f1433bd6")},
		{name: "truncated payload", script: mustHex("6a0568656c")},
		{name: "truncated pushdata1 length", script: []byte{txscript.OP_RETURN, txscript.OP_PUSHDATA1}},
		{name: "truncated pushdata2 length", script: []byte{txscript.OP_RETURN, txscript.OP_PUSHDATA2, 0x10}},
		{name: "truncated pushdata4 length", script: []byte{txscript.OP_RETURN, txscript.OP_PUSHDATA4, 0x10, 0x00}},
		{name: "non push opcode", script: []byte{txscript.OP_RETURN, txscript.OP_DUP}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := scripts.ExtractOpReturnPayload(test.script)
			require.Error(t, err)
		})
	}
}

func mustHex(s string) []byte {
	b, _ := hex.DecodeString(s)

	return b
}
