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

// Package constants contains protocol constants shared by the envelope,
// shamir, and custody packages.
package constants

// KDFIterations is the PBKDF2 iteration count for password-derived keys.
// Envelopes record no iteration count, so changing this breaks decryption
// of previously stored envelopes.
const KDFIterations = 100000

// IVSize is the AES-GCM nonce length in bytes for password envelopes.
const IVSize = 16

// AESKeySize is the derived cipher key length in bytes (AES-256).
const AESKeySize = 32

// SeedEntropyBits is the entropy backing a generated seed mnemonic,
// yielding a 24-word BIP-39 sentence.
const SeedEntropyBits = 256

// NumShares is the number of shares a seed is split into, one per custodian.
const NumShares = 3

// Threshold is the number of shares required to reconstruct a seed.
const Threshold = 2

// Custodian share indices within a split. The index is the Shamir X
// coordinate carried in the trailing byte of each share.
const (
	DeviceShareIndex   = 1
	AuthShareIndex     = 2
	RecoveryShareIndex = 3
)
