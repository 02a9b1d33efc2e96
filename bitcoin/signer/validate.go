// Copyright (C) 2026 Creditor Corp. Group.
// See LICENSE for copying information.

package signer

import (
	"fmt"
	"math"
	"strings"
)

// Validation describes the outcome of sign-input validation.
type Validation struct {
	Valid bool
	Err   string
}

// ValidateSignInputs checks that every requested sign input belongs to the
// wallet and that its index list is sane. Address comparison is
// case-insensitive. Indices arrive as float64 because the request crosses a
// JSON boundary, so fractional values must be rejected explicitly.
func ValidateSignInputs(signInputs map[string][]float64, walletAddresses []string) Validation {
	known := make(map[string]struct{}, len(walletAddresses))
	for _, address := range walletAddresses {
		known[strings.ToLower(address)] = struct{}{}
	}

	for address, indices := range signInputs {
		if _, ok := known[strings.ToLower(address)]; !ok {
			return Validation{Err: fmt.Sprintf("address %s is not in this wallet", address)}
		}

		for _, index := range indices {
			if index < 0 || index != math.Trunc(index) {
				return Validation{Err: fmt.Sprintf("Invalid input indices for address %s", address)}
			}
		}
	}

	return Validation{Valid: true}
}
