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

// ECIES-style hybrid encryption: a fresh ephemeral P-256 key pair is
// generated per encryption, an ECDH shared secret is derived against the
// recipient's long-term public key, and the payload is sealed with AES-GCM
// under that secret. The envelope carries the ephemeral public key so the
// recipient can re-derive the same secret with only their private key.

package envelope

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/tink/go/aead/subtle"
)

// KeyPair is an exported ECDH P-256 key pair in standard interchange
// formats: SPKI for the public key, PKCS8 for the private key, both
// base64-encoded for transport.
type KeyPair struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// HybridEnvelope is the wire form of a hybrid-encrypted payload. All fields
// are base64; EphemeralPublicKey is a SPKI-encoded P-256 point.
type HybridEnvelope struct {
	EphemeralPublicKey string `json:"ephemeralPublicKey"`
	IV                 string `json:"iv"`
	Ciphertext         string `json:"ciphertext"`
}

// GenerateKeyPair generates a long-term ECDH P-256 key pair for a share
// custodian.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating P-256 key: %v", err)
	}

	spki, err := x509.MarshalPKIXPublicKey(priv.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("marshaling public key: %v", err)
	}
	pkcs8, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshaling private key: %v", err)
	}

	return &KeyPair{
		PublicKey:  base64.StdEncoding.EncodeToString(spki),
		PrivateKey: base64.StdEncoding.EncodeToString(pkcs8),
	}, nil
}

// parsePublicKey decodes a base64 SPKI P-256 public key.
func parsePublicKey(publicKey string) (*ecdh.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return nil, fmt.Errorf("decoding public key: %v", err)
	}
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parsing SPKI public key: %v", err)
	}
	switch pub := parsed.(type) {
	case *ecdh.PublicKey:
		return pub, nil
	case *ecdsa.PublicKey:
		return pub.ECDH()
	default:
		return nil, fmt.Errorf("public key is %T, expected an EC key", parsed)
	}
}

// parsePrivateKey decodes a base64 PKCS8 P-256 private key.
func parsePrivateKey(privateKey string) (*ecdh.PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(privateKey)
	if err != nil {
		return nil, fmt.Errorf("decoding private key: %v", err)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parsing PKCS8 private key: %v", err)
	}
	switch priv := parsed.(type) {
	case *ecdh.PrivateKey:
		return priv, nil
	case *ecdsa.PrivateKey:
		return priv.ECDH()
	default:
		return nil, fmt.Errorf("private key is %T, expected an EC key", parsed)
	}
}

// EncryptWithPublicKey hybrid-encrypts plaintext to the holder of the
// matching private key, returning a JSON HybridEnvelope string. The 32-byte
// ECDH shared secret is used directly as an AES-256-GCM key, mirroring
// WebCrypto's deriveKey(ECDH, AES-GCM) behavior.
func EncryptWithPublicKey(publicKey, plaintext string) (string, error) {
	recipient, err := parsePublicKey(publicKey)
	if err != nil {
		return "", err
	}

	ephemeral, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generating ephemeral key: %v", err)
	}
	shared, err := ephemeral.ECDH(recipient)
	if err != nil {
		return "", fmt.Errorf("deriving shared secret: %v", err)
	}

	aead, err := subtle.NewAESGCM(shared)
	if err != nil {
		return "", fmt.Errorf("creating AEAD from shared secret: %v", err)
	}
	// Tink prepends its random nonce to the ciphertext; split it back out
	// so the envelope carries the IV as its own field.
	sealed, err := aead.Encrypt([]byte(plaintext), nil)
	if err != nil {
		return "", fmt.Errorf("encrypting payload: %v", err)
	}
	iv, ciphertext := sealed[:subtle.AESGCMIVSize], sealed[subtle.AESGCMIVSize:]

	ephemeralSPKI, err := x509.MarshalPKIXPublicKey(ephemeral.PublicKey())
	if err != nil {
		return "", fmt.Errorf("marshaling ephemeral public key: %v", err)
	}

	env, err := json.Marshal(&HybridEnvelope{
		EphemeralPublicKey: base64.StdEncoding.EncodeToString(ephemeralSPKI),
		IV:                 base64.StdEncoding.EncodeToString(iv),
		Ciphertext:         base64.StdEncoding.EncodeToString(ciphertext),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling envelope: %v", err)
	}
	return string(env), nil
}

// DecryptWithPrivateKey opens a JSON HybridEnvelope produced by
// EncryptWithPublicKey. It fails closed with a DecryptionError on a
// malformed envelope, a wrong private key, or tampered ciphertext.
func DecryptWithPrivateKey(privateKey, envelopeJSON string) (string, error) {
	var env HybridEnvelope
	if err := json.Unmarshal([]byte(envelopeJSON), &env); err != nil {
		return "", decryptionErrf("unmarshaling envelope: %v", err)
	}

	priv, err := parsePrivateKey(privateKey)
	if err != nil {
		return "", decryptionErrf("%v", err)
	}
	ephemeral, err := parsePublicKey(env.EphemeralPublicKey)
	if err != nil {
		return "", decryptionErrf("ephemeral key: %v", err)
	}

	shared, err := priv.ECDH(ephemeral)
	if err != nil {
		return "", decryptionErrf("deriving shared secret: %v", err)
	}

	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return "", decryptionErrf("decoding IV: %v", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return "", decryptionErrf("decoding ciphertext: %v", err)
	}

	aead, err := subtle.NewAESGCM(shared)
	if err != nil {
		return "", decryptionErrf("creating AEAD from shared secret: %v", err)
	}
	plaintext, err := aead.Decrypt(append(append([]byte{}, iv...), ciphertext...), nil)
	if err != nil {
		return "", decryptionErrf("opening ciphertext: %v", err)
	}
	return string(plaintext), nil
}
