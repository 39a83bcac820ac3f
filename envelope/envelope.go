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

// Package envelope implements the two encryption envelope formats used to
// wrap key shares: a password-derived symmetric envelope (PBKDF2 + AES-GCM)
// and an ECIES-style hybrid envelope (ephemeral ECDH P-256 + AES-GCM).
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/google/tink/go/subtle/random"
	"github.com/keysplit/keysplit/constants"
	"golang.org/x/crypto/pbkdf2"
)

// Params holds the key-derivation and cipher parameters for a password
// envelope. Both sides of an envelope exchange must agree on them; only the
// salt and IV travel with the envelope itself.
type Params struct {
	// Iterations is the PBKDF2-SHA256 iteration count.
	Iterations int
	// IVSize is the AES-GCM nonce length in bytes.
	IVSize int
	// KeySize is the derived AES key length in bytes.
	KeySize int
}

// DefaultParams returns the protocol defaults: 100,000 PBKDF2 iterations,
// a 16-byte IV, and AES-256.
func DefaultParams() Params {
	return Params{
		Iterations: constants.KDFIterations,
		IVSize:     constants.IVSize,
		KeySize:    constants.AESKeySize,
	}
}

// Envelope is the portable wire form of a password-encrypted payload.
// All fields are base64 (standard encoding).
//
// Salt is empty in envelopes produced by the legacy wire format, which
// derived every key from a fixed all-zero salt. Decrypt falls back to that
// salt when the field is absent so stored legacy envelopes stay readable;
// Encrypt always generates a fresh random salt.
type Envelope struct {
	Salt       string `json:"salt,omitempty"`
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
}

// AESCipher derives AES-GCM keys from passphrases via PBKDF2 and seals
// plaintexts into Envelopes. The zero value uses DefaultParams.
type AESCipher struct {
	params Params
}

// NewAESCipher returns an AESCipher with the given parameters. Zero-valued
// fields are replaced with their defaults.
func NewAESCipher(p Params) *AESCipher {
	d := DefaultParams()
	if p.Iterations == 0 {
		p.Iterations = d.Iterations
	}
	if p.IVSize == 0 {
		p.IVSize = d.IVSize
	}
	if p.KeySize == 0 {
		p.KeySize = d.KeySize
	}
	return &AESCipher{params: p}
}

func (c *AESCipher) effectiveParams() Params {
	if c.params == (Params{}) {
		return DefaultParams()
	}
	return c.params
}

func validateParams(p Params) error {
	if p.Iterations < 1 {
		return keyDerivationErrf("iteration count %d is invalid", p.Iterations)
	}
	switch p.KeySize {
	case 16, 24, 32:
	default:
		return keyDerivationErrf("key size %d is not a valid AES key size", p.KeySize)
	}
	if p.IVSize < 12 {
		return keyDerivationErrf("IV size %d is too small", p.IVSize)
	}
	return nil
}

// newGCM derives an AES-GCM AEAD from the passphrase and salt.
func newGCM(passphrase string, salt []byte, p Params) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, p.Iterations, p.KeySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, keyDerivationErrf("creating cipher: %v", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, p.IVSize)
	if err != nil {
		return nil, keyDerivationErrf("creating GCM with %d-byte nonce: %v", p.IVSize, err)
	}
	return aead, nil
}

// Encrypt derives a key from passphrase and seals plaintext into an
// Envelope. A fresh random salt and IV are generated on every call, so
// encrypting the same plaintext twice never yields the same envelope.
func (c *AESCipher) Encrypt(plaintext, passphrase string) (*Envelope, error) {
	p := c.effectiveParams()
	if err := validateParams(p); err != nil {
		return nil, err
	}
	if plaintext == "" {
		return nil, fmt.Errorf("plaintext must not be empty")
	}

	salt := random.GetRandomBytes(uint32(p.IVSize))
	iv := random.GetRandomBytes(uint32(p.IVSize))

	aead, err := newGCM(passphrase, salt, p)
	if err != nil {
		return nil, err
	}
	ciphertext := aead.Seal(nil, iv, []byte(plaintext), nil)

	return &Envelope{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		IV:         base64.StdEncoding.EncodeToString(iv),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// Decrypt opens env with a key derived from passphrase, returning the
// original plaintext. Any failure (malformed fields, wrong passphrase,
// tampered ciphertext) is reported as a DecryptionError; decryption never
// returns unauthenticated plaintext.
func (c *AESCipher) Decrypt(env *Envelope, passphrase string) (string, error) {
	p := c.effectiveParams()
	if err := validateParams(p); err != nil {
		return "", err
	}
	if env == nil {
		return "", decryptionErrf("envelope is nil")
	}

	// Legacy envelopes carry no salt: keys were derived from a fixed
	// all-zero salt of IV length.
	salt := make([]byte, p.IVSize)
	if env.Salt != "" {
		var err error
		if salt, err = base64.StdEncoding.DecodeString(env.Salt); err != nil {
			return "", decryptionErrf("decoding salt: %v", err)
		}
	}

	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return "", decryptionErrf("decoding IV: %v", err)
	}
	if len(iv) != p.IVSize {
		return "", decryptionErrf("IV has length %d, expected %d", len(iv), p.IVSize)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return "", decryptionErrf("decoding ciphertext: %v", err)
	}

	aead, err := newGCM(passphrase, salt, p)
	if err != nil {
		return "", err
	}
	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", decryptionErrf("opening ciphertext: %v", err)
	}
	return string(plaintext), nil
}
