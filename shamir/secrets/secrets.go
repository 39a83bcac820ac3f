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

// Package secrets contains the value types for secret sharing. A dealer
// splitting a secret provides the secret plus Metadata and receives a Split,
// which carries the Metadata, the shares, and the secret length.
package secrets

// Metadata contains the secret sharing scheme parameters needed to split
// and/or reconstruct a secret.
type Metadata struct {
	NumShares int
	Threshold int
}

// Split represents a secret split into shares alongside the metadata needed
// to reconstruct it.
type Split struct {
	Metadata Metadata
	Shares   []Share
	// The length of the original split secret in bytes.
	SecretLen int
}

// Share represents one share of a shared secret without any metadata.
// X is the evaluation point (1-based), Value the polynomial evaluations.
type Share struct {
	Value []byte
	X     int
}
