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

package shamirgeneric_test

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/keysplit/keysplit/shamir/internal/field/gf8"
	"github.com/keysplit/keysplit/shamir/internal/shamirgeneric"
	"github.com/keysplit/keysplit/shamir/secrets"
)

func getRandomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("Failed to read random bytes: %v", err)
	}
	return b
}

func createMetadata(threshold, numShares int) secrets.Metadata {
	return secrets.Metadata{
		NumShares: numShares,
		Threshold: threshold,
	}
}

func TestSplitReconstructWorks(t *testing.T) {
	secret := []byte("abcdefghijklmnopqrstuvwxyz123456")
	split, err := shamirgeneric.SplitSecret(createMetadata(4, 6), secret, gf8.New())
	if err != nil {
		t.Fatalf("shamirgeneric.SplitSecret() err = %v, want nil", err)
	}
	recon, err := shamirgeneric.Reconstruct(split, gf8.New())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := recon, secret; !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", hex.EncodeToString(got), hex.EncodeToString(want))
	}
}

func TestSplitReconstructLargeValues(t *testing.T) {
	secret := getRandomBytes(t, 300)
	split, err := shamirgeneric.SplitSecret(createMetadata(50, 80), secret, gf8.New())
	if err != nil {
		t.Fatal(err)
	}
	recon, err := shamirgeneric.Reconstruct(split, gf8.New())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := recon, secret; !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", hex.EncodeToString(got), hex.EncodeToString(want))
	}
}

func TestSplitReconstructThresholdOne(t *testing.T) {
	secret := getRandomBytes(t, 16)
	split, err := shamirgeneric.SplitSecret(createMetadata(1, 3), secret, gf8.New())
	if err != nil {
		t.Fatalf("shamirgeneric.SplitSecret() err = %v, want nil", err)
	}
	// A degree-0 polynomial evaluates to the secret everywhere.
	for i, share := range split.Shares {
		if !bytes.Equal(share.Value, secret) {
			t.Errorf("share %d value = %v, want the secret itself", i, hex.EncodeToString(share.Value))
		}
	}
	recon, err := shamirgeneric.Reconstruct(split, gf8.New())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := recon, secret; !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", hex.EncodeToString(got), hex.EncodeToString(want))
	}
}

func removeAtIndex(s []secrets.Share, index int) []secrets.Share {
	return append(s[:index], s[index+1:]...)
}

func TestReconstructWithoutAllShares(t *testing.T) {
	secret := []byte("abcdefghijklmnopqrstuvwxyz123456")
	split, err := shamirgeneric.SplitSecret(createMetadata(4, 6), secret, gf8.New())
	if err != nil {
		t.Fatal(err)
	}
	split.Shares = removeAtIndex(split.Shares, 5)
	split.Shares = removeAtIndex(split.Shares, 0)
	recon, err := shamirgeneric.Reconstruct(split, gf8.New())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := recon, secret; !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", hex.EncodeToString(got), hex.EncodeToString(want))
	}
}

func TestReconstructWithAlteredValueBeforeThresholdFails(t *testing.T) {
	secret := getRandomBytes(t, 32)
	split, err := shamirgeneric.SplitSecret(createMetadata(2, 3), secret, gf8.New())
	if err != nil {
		t.Fatalf("shamirgeneric.SplitSecret() err = %v, want nil", err)
	}
	split.Shares[0].Value = getRandomBytes(t, len(split.Shares[0].Value))
	recon, err := shamirgeneric.Reconstruct(split, gf8.New())
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(recon, secret) {
		t.Error("reconstructing from an altered share should not recover the secret")
	}
}

func TestReconstructWithAlteredValueAfterThresholdDoesNotAffectResult(t *testing.T) {
	secret := getRandomBytes(t, 32)
	split, err := shamirgeneric.SplitSecret(createMetadata(2, 3), secret, gf8.New())
	if err != nil {
		t.Fatalf("shamirgeneric.SplitSecret() err = %v, want nil", err)
	}
	split.Shares[2].Value = getRandomBytes(t, len(split.Shares[0].Value))
	recon, err := shamirgeneric.Reconstruct(split, gf8.New())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := recon, secret; !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", hex.EncodeToString(got), hex.EncodeToString(want))
	}
}

func TestWithLessSharesThanThresholdFails(t *testing.T) {
	secret := []byte("abcdefghijklmnopqrstuvwxyz123456")
	splitSecret, err := shamirgeneric.SplitSecret(createMetadata(4, 6), secret, gf8.New())
	if err != nil {
		t.Fatal(err)
	}
	splitSecret.Shares = splitSecret.Shares[:3]
	if _, err := shamirgeneric.Reconstruct(splitSecret, gf8.New()); err == nil {
		t.Fatal("Reconstruct() err = nil, want error")
	}
}

func TestReconstructWithDuplicateShareFails(t *testing.T) {
	secret := getRandomBytes(t, 16)
	split, err := shamirgeneric.SplitSecret(createMetadata(2, 3), secret, gf8.New())
	if err != nil {
		t.Fatal(err)
	}
	split.Shares[1] = split.Shares[0]
	if _, err := shamirgeneric.Reconstruct(split, gf8.New()); err == nil {
		t.Fatal("Reconstruct() with duplicate points err = nil, want error")
	}
}

func TestSplitInvalidParametersFail(t *testing.T) {
	secret := getRandomBytes(t, 8)
	for _, tc := range []struct {
		name      string
		threshold int
		numShares int
		secret    []byte
	}{
		{name: "empty secret", threshold: 2, numShares: 3, secret: nil},
		{name: "zero threshold", threshold: 0, numShares: 3, secret: secret},
		{name: "threshold above shares", threshold: 4, numShares: 3, secret: secret},
		{name: "too many shares", threshold: 2, numShares: 256, secret: secret},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := shamirgeneric.SplitSecret(createMetadata(tc.threshold, tc.numShares), tc.secret, gf8.New()); err == nil {
				t.Errorf("SplitSecret() err = nil, want error")
			}
		})
	}
}
