// Copyright 2024 the keysplit authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package seedphrase generates and validates the BIP-39 mnemonics that serve
// as wallet seeds. The mnemonic sentence itself is the secret handed to the
// sharding layer; chain wallet factories derive their keys from it.
package seedphrase

import (
	"fmt"
	"strings"

	"github.com/keysplit/keysplit/constants"
	bip39 "github.com/tyler-smith/go-bip39"
)

// NewMnemonic generates a fresh 24-word BIP-39 mnemonic backed by 256 bits
// of entropy.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(constants.SeedEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generating entropy: %v", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("encoding mnemonic: %v", err)
	}
	return mnemonic, nil
}

// Validate checks that mnemonic is a well-formed BIP-39 sentence with a
// valid checksum.
func Validate(mnemonic string) error {
	if !bip39.IsMnemonicValid(mnemonic) {
		return fmt.Errorf("invalid mnemonic")
	}
	return nil
}

// Entropy returns the raw entropy a mnemonic encodes.
func Entropy(mnemonic string) ([]byte, error) {
	return bip39.EntropyFromMnemonic(mnemonic)
}

// Words splits a mnemonic sentence into its word list, the form chain
// wallet factories consume.
func Words(mnemonic string) []string {
	return strings.Fields(mnemonic)
}
