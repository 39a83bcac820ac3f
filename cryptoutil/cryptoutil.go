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

// Package cryptoutil provides the small crypto primitives shared across the
// library: secure random byte generation, keyed hashing, and share
// integrity digests.
package cryptoutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	macsubtle "github.com/google/tink/go/mac/subtle"
	"github.com/google/tink/go/subtle/random"
)

// hmacTagSize is the full SHA-256 output length; tags are not truncated.
const hmacTagSize = 32

// RandomBytes returns n cryptographically secure random bytes.
func RandomBytes(n int) []byte {
	return random.GetRandomBytes(uint32(n))
}

// HMACSHA256 computes an HMAC-SHA256 tag over data. The key must be at
// least 16 bytes.
func HMACSHA256(key, data []byte) ([]byte, error) {
	h, err := macsubtle.NewHMAC("SHA256", key, hmacTagSize)
	if err != nil {
		return nil, fmt.Errorf("creating HMAC: %v", err)
	}
	return h.ComputeMAC(data)
}

// VerifyHMACSHA256 verifies that tag is a valid HMAC-SHA256 over data.
func VerifyHMACSHA256(key, data, tag []byte) error {
	h, err := macsubtle.NewHMAC("SHA256", key, hmacTagSize)
	if err != nil {
		return fmt.Errorf("creating HMAC: %v", err)
	}
	return h.VerifyMAC(tag, data)
}

// HashShare performs a SHA-256 hash on the provided share.
func HashShare(share []byte) []byte {
	hash := sha256.Sum256(share)
	return hash[:]
}

// ValidateShare performs HashShare on the provided share, then returns
// whether the result is equal to the provided hash.
func ValidateShare(share, expectedHash []byte) bool {
	return bytes.Equal(HashShare(share), expectedHash)
}
