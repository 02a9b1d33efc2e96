// Copyright (C) 2026 Creditor Corp. Group.
// See LICENSE for copying information.

package bitcoin

// AddressFormat defines one of the supported address formats.
// The set is closed: every operation switches exhaustively over it and
// treats anything else as a programmer error.
type AddressFormat string

const (
	// P2PKH defines the legacy pay-to-public-key-hash address format.
	P2PKH AddressFormat = "P2PKH"
	// P2WPKH defines the native segwit pay-to-witness-public-key-hash address format.
	P2WPKH AddressFormat = "P2WPKH"
	// P2SHP2WPKH defines the segwit-in-script-hash wrapped address format.
	P2SHP2WPKH AddressFormat = "P2SH-P2WPKH"
	// P2TR defines the taproot address format.
	P2TR AddressFormat = "P2TR"
	// Counterwallet defines the legacy address format derived from a
	// Counterwallet-style seed instead of a BIP39 one.
	Counterwallet AddressFormat = "counterwallet"
	// CounterwalletSegwit defines the native segwit variant of the
	// Counterwallet format.
	CounterwalletSegwit AddressFormat = "counterwallet-segwit"
)

// FormatDescriptor describes derivation and encoding traits of an address format.
type FormatDescriptor struct {
	// DerivationPath is the BIP32 path template addresses of this format
	// are derived along, without the trailing address index.
	DerivationPath string
	// Segwit reports whether spending requires segwit-style script construction.
	Segwit bool
	// CounterwalletSeed reports whether the seed comes from the
	// Counterwallet derivation scheme rather than BIP39.
	CounterwalletSeed bool
}

// formatDescriptors holds the immutable descriptor table, defined once.
var formatDescriptors = map[AddressFormat]FormatDescriptor{
	P2PKH:               {DerivationPath: "m/44'/0'/0'/0"},
	P2WPKH:              {DerivationPath: "m/84'/0'/0'/0", Segwit: true},
	P2SHP2WPKH:          {DerivationPath: "m/49'/0'/0'/0", Segwit: true},
	P2TR:                {DerivationPath: "m/86'/0'/0'/0", Segwit: true},
	Counterwallet:       {DerivationPath: "m/0'/0", CounterwalletSeed: true},
	CounterwalletSegwit: {DerivationPath: "m/0'/0", Segwit: true, CounterwalletSeed: true},
}

// Formats returns all supported address formats in a fixed order.
func Formats() []AddressFormat {
	return []AddressFormat{P2PKH, P2WPKH, P2SHP2WPKH, P2TR, Counterwallet, CounterwalletSegwit}
}

// DescribeFormat returns the descriptor of the provided address format.
func DescribeFormat(format AddressFormat) (FormatDescriptor, error) {
	descriptor, ok := formatDescriptors[format]
	if !ok {
		return FormatDescriptor{}, NewUnsupportedFormatError(format)
	}

	return descriptor, nil
}
