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

// Package shamir encapsulates the logic needed to perform t-of-n Shamir
// Secret Sharing on arbitrary-size secrets over GF(2^8). SSS is based on the
// Lagrange interpolation theorem, which states that `k` points are enough to
// uniquely determine a polynomial of degree less than or equal to `k - 1`.
//
// This scheme is secure under the following assumptions:
//   - The scheme requires a trusted dealer to generate the shares.
//     Participants must trust the dealer with access to the secret and to
//     properly generate the shares.
//   - The scheme assumes a passive adversary which can observe (t - 1) shares
//     without being able to reconstruct the secret. The adversary is not
//     allowed to participate in reconstruction with a chosen share.
//     Example of this attack: https://crypto.stackexchange.com/q/41994/76875
//
// The byte-level share layout is the original secret-length evaluation
// followed by a trailing index byte (the X coordinate), so each share is
// len(secret)+1 bytes. This matches the layout used by hashicorp/vault's
// unseal shares, keeping shares portable across implementations.
package shamir

import (
	"fmt"

	"github.com/keysplit/keysplit/shamir/internal/field/gf8"
	"github.com/keysplit/keysplit/shamir/internal/shamirgeneric"
	"github.com/keysplit/keysplit/shamir/secrets"
)

// ShareOverhead is the number of metadata bytes appended to each share.
const ShareOverhead = 1

// ShardingError reports invalid split parameters or an inconsistent or
// insufficient set of shares handed to Combine.
type ShardingError struct {
	Reason string
}

func (e *ShardingError) Error() string {
	return fmt.Sprintf("sharding: %s", e.Reason)
}

func shardingErrf(format string, args ...interface{}) error {
	return &ShardingError{Reason: fmt.Sprintf(format, args...)}
}

// Split splits secret into numShares shares with the given threshold.
// Constraints: 1 <= threshold <= numShares <= 255 and a non-empty secret.
// Each returned share is len(secret)+1 bytes, the final byte being the
// share's unique index in 1..numShares.
func Split(secret []byte, numShares, threshold int) ([][]byte, error) {
	if len(secret) == 0 {
		return nil, shardingErrf("secret must not be empty")
	}
	if threshold < 1 || threshold > numShares {
		return nil, shardingErrf("invalid threshold %d for %d shares", threshold, numShares)
	}
	if numShares > 255 {
		return nil, shardingErrf("cannot issue more than 255 shares, got %d", numShares)
	}

	md := secrets.Metadata{
		NumShares: numShares,
		Threshold: threshold,
	}
	split, err := shamirgeneric.SplitSecret(md, secret, gf8.New())
	if err != nil {
		return nil, shardingErrf("splitting secret: %v", err)
	}
	if split.SecretLen != len(secret) {
		return nil, shardingErrf("split reports secret length %d, expected %d", split.SecretLen, len(secret))
	}

	// Append the X coordinate to the end of each share, the same layout
	// hashicorp/vault uses for its shares.
	byteShares := make([][]byte, 0, len(split.Shares))
	for _, share := range split.Shares {
		byteShares = append(byteShares, append(share.Value, byte(share.X)))
	}
	return byteShares, nil
}

// Combine reconstitutes the original secret from shares produced by Split.
//
// Every provided share is used as an interpolation point, so at least the
// original threshold (and at minimum 2) shares are required. Supplying more
// than threshold shares of the same split never changes the result: any
// subset of consistent shares interpolates to the same constant term.
//
// Combine cannot detect shares that are individually corrupted but
// well-formed; callers needing integrity must verify shares separately
// (e.g. with a hash recorded at split time).
func Combine(shares [][]byte) ([]byte, error) {
	if len(shares) < 2 {
		return nil, shardingErrf("need at least 2 shares to reconstruct, got %d", len(shares))
	}

	shareLen := len(shares[0])
	if shareLen < ShareOverhead+1 {
		return nil, shardingErrf("shares must be at least %d bytes", ShareOverhead+1)
	}

	seen := make(map[byte]bool, len(shares))
	secretShares := make([]secrets.Share, 0, len(shares))
	for i, share := range shares {
		if len(share) != shareLen {
			return nil, shardingErrf("share %d has length %d, expected %d", i, len(share), shareLen)
		}
		x := share[len(share)-1]
		if x == 0 {
			return nil, shardingErrf("share %d has invalid index 0", i)
		}
		if seen[x] {
			return nil, shardingErrf("duplicate share index %d", x)
		}
		seen[x] = true
		secretShares = append(secretShares, secrets.Share{
			Value: share[:len(share)-1],
			X:     int(x),
		})
	}

	split := secrets.Split{
		Metadata: secrets.Metadata{
			NumShares: len(shares),
			Threshold: len(shares),
		},
		Shares:    secretShares,
		SecretLen: shareLen - ShareOverhead,
	}
	secret, err := shamirgeneric.Reconstruct(split, gf8.New())
	if err != nil {
		return nil, shardingErrf("combining shares: %v", err)
	}
	return secret, nil
}
