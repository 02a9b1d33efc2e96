// Copyright (C) 2026 Creditor Corp. Group.
// See LICENSE for copying information.

package addresses

import (
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"

	"walletcore/bitcoin"
)

// DeriveKey derives the private key for the address format at the provided
// index along the format's path template. The seed comes from the caller:
// BIP39 for the standard formats, the Counterwallet scheme for the
// Counterwallet ones.
func DeriveKey(seed []byte, format bitcoin.AddressFormat, index uint32, networkParams *chaincfg.Params) (*btcec.PrivateKey, error) {
	descriptor, err := bitcoin.DescribeFormat(format)
	if err != nil {
		return nil, err
	}

	steps, err := parseDerivationPath(descriptor.DerivationPath)
	if err != nil {
		return nil, err
	}

	key, err := hdkeychain.NewMaster(seed, networkParams)
	if err != nil {
		return nil, err
	}

	for _, step := range append(steps, index) {
		key, err = key.Derive(step)
		if err != nil {
			return nil, err
		}
	}

	return key.ECPrivKey()
}

// parseDerivationPath parses a path template in the form m/x'/y/... into
// child indexes, with 2^31 added to the hardened steps.
func parseDerivationPath(path string) ([]uint32, error) {
	if !strings.HasPrefix(path, "m/") {
		return nil, bitcoin.NewValidationError("derivation path %q must start with m/", path)
	}

	parts := strings.Split(strings.TrimPrefix(path, "m/"), "/")
	steps := make([]uint32, 0, len(parts))
	for _, part := range parts {
		hardened := strings.HasSuffix(part, "'")

		value, err := strconv.ParseUint(strings.TrimSuffix(part, "'"), 10, 32)
		if err != nil || value >= hdkeychain.HardenedKeyStart {
			return nil, bitcoin.NewValidationError("derivation path %q has invalid step %q", path, part)
		}

		step := uint32(value)
		if hardened {
			step += hdkeychain.HardenedKeyStart
		}

		steps = append(steps, step)
	}

	return steps, nil
}
