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

// Package custody orchestrates the 2-of-3 key-custody protocol: a wallet
// seed is split into device, auth, and recovery shares, each share is
// wrapped for its custodian, and any two shares reconstruct the seed on
// login, recovery, or device migration.
//
// Share wrapping per custodian:
//   - device share: sealed under the user's spending password
//   - auth share: plaintext hex at this layer, transmitted to the backend
//     over an authenticated channel and gated by session auth at rest
//   - recovery share: sealed under the user's recovery answer
//
// Reconstructed seeds are scoped to the call that produced them; nothing in
// this package persists or caches plaintext seed material.
package custody

import (
	"context"
	"encoding/hex"
	"fmt"

	glog "github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/keysplit/keysplit/constants"
	"github.com/keysplit/keysplit/cryptoutil"
	"github.com/keysplit/keysplit/envelope"
	"github.com/keysplit/keysplit/seedphrase"
	"github.com/keysplit/keysplit/shamir"
)

// ShareCipher seals and opens custodian share envelopes. It is the injection
// point for the platform's crypto provider; the default is the PBKDF2 +
// AES-GCM cipher from the envelope package.
type ShareCipher interface {
	Encrypt(plaintext, passphrase string) (*envelope.Envelope, error)
	Decrypt(env *envelope.Envelope, passphrase string) (string, error)
}

// Client performs wallet generation, derivation, and recovery.
type Client struct {
	cipher   ShareCipher
	registry *Registry
}

// NewClient returns a Client using the given share cipher and chain wallet
// registry. A nil cipher selects the default AES cipher; a nil registry
// means no chain wallets are fanned out.
func NewClient(cipher ShareCipher, registry *Registry) *Client {
	if cipher == nil {
		cipher = envelope.NewAESCipher(envelope.DefaultParams())
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Client{cipher: cipher, registry: registry}
}

// Generated is the result of creating a new wallet. The auth share is
// plaintext hex, to be transmitted to the backend under session
// authentication; its hash lets the backend verify receipt.
type Generated struct {
	WalletID         string
	DeviceEnvelope   *envelope.Envelope
	AuthShare        string
	AuthShareHash    string
	RecoveryEnvelope *envelope.Envelope
	Wallets          map[Chain]Wallet
}

// Derived is the result of unlocking a wallet. Mnemonic is the reconstructed
// seed sentence; callers must drop it as soon as wallet construction is done.
type Derived struct {
	Mnemonic string
	Wallets  map[Chain]Wallet
}

// Recovered is the result of a recovery rotation: a full set of fresh
// custodian material from a new split of the recovered seed.
type Recovered struct {
	DeviceEnvelope   *envelope.Envelope
	AuthShare        string
	AuthShareHash    string
	RecoveryEnvelope *envelope.Envelope
	Wallets          map[Chain]Wallet
}

// splitSeed splits a mnemonic into the three custodian shares and wraps the
// device and recovery shares. Returns the wrapped envelopes plus the
// plaintext auth share in hex.
func (c *Client) splitSeed(mnemonic, spendingPassword, recoveryAnswer string) (*envelope.Envelope, string, *envelope.Envelope, error) {
	shares, err := shamir.Split([]byte(mnemonic), constants.NumShares, constants.Threshold)
	if err != nil {
		return nil, "", nil, fmt.Errorf("splitting seed: %w", err)
	}

	deviceEnv, err := c.cipher.Encrypt(hex.EncodeToString(shares[constants.DeviceShareIndex-1]), spendingPassword)
	if err != nil {
		return nil, "", nil, fmt.Errorf("sealing device share: %w", err)
	}
	recoveryEnv, err := c.cipher.Encrypt(hex.EncodeToString(shares[constants.RecoveryShareIndex-1]), recoveryAnswer)
	if err != nil {
		return nil, "", nil, fmt.Errorf("sealing recovery share: %w", err)
	}

	return deviceEnv, hex.EncodeToString(shares[constants.AuthShareIndex-1]), recoveryEnv, nil
}

// combineShares reconstructs the seed mnemonic from two hex-encoded shares
// and validates it before use.
func combineShares(shareA, shareB string) (string, error) {
	a, err := hex.DecodeString(shareA)
	if err != nil {
		return "", fmt.Errorf("decoding share: %v", err)
	}
	b, err := hex.DecodeString(shareB)
	if err != nil {
		return "", fmt.Errorf("decoding share: %v", err)
	}
	secret, err := shamir.Combine([][]byte{a, b})
	if err != nil {
		return "", fmt.Errorf("combining shares: %w", err)
	}
	mnemonic := string(secret)
	if err := seedphrase.Validate(mnemonic); err != nil {
		return "", fmt.Errorf("reconstructed seed: %w", err)
	}
	return mnemonic, nil
}

// GenerateWallet creates a fresh seed, splits it 2-of-3, and wraps each
// share for its custodian. The device envelope is sealed under
// spendingPassword and the recovery envelope under recoveryAnswer.
func (c *Client) GenerateWallet(ctx context.Context, spendingPassword, recoveryAnswer string) (*Generated, error) {
	if spendingPassword == "" {
		return nil, fmt.Errorf("spending password must not be empty")
	}
	if recoveryAnswer == "" {
		return nil, fmt.Errorf("recovery answer must not be empty")
	}

	mnemonic, err := seedphrase.NewMnemonic()
	if err != nil {
		return nil, fmt.Errorf("generating seed: %w", err)
	}

	deviceEnv, authShare, recoveryEnv, err := c.splitSeed(mnemonic, spendingPassword, recoveryAnswer)
	if err != nil {
		return nil, err
	}

	wallets, err := c.registry.Build(ctx, MnemonicSource(seedphrase.Words(mnemonic)))
	if err != nil {
		return nil, fmt.Errorf("constructing chain wallets: %w", err)
	}

	authShareBytes, _ := hex.DecodeString(authShare)
	return &Generated{
		WalletID:         uuid.NewString(),
		DeviceEnvelope:   deviceEnv,
		AuthShare:        authShare,
		AuthShareHash:    hex.EncodeToString(cryptoutil.HashShare(authShareBytes)),
		RecoveryEnvelope: recoveryEnv,
		Wallets:          wallets,
	}, nil
}

// DeriveWallet unlocks a wallet: the device envelope is opened with the
// spending password and the resulting share is combined with the
// backend-supplied auth share to reconstruct the seed. Errors propagate with
// full detail; there is no oracle concern on this path.
func (c *Client) DeriveWallet(ctx context.Context, deviceEnv *envelope.Envelope, spendingPassword, authShare string) (*Derived, error) {
	deviceShare, err := c.cipher.Decrypt(deviceEnv, spendingPassword)
	if err != nil {
		return nil, fmt.Errorf("opening device envelope: %w", err)
	}

	mnemonic, err := combineShares(deviceShare, authShare)
	if err != nil {
		return nil, err
	}

	wallets, err := c.registry.Build(ctx, MnemonicSource(seedphrase.Words(mnemonic)))
	if err != nil {
		return nil, fmt.Errorf("constructing chain wallets: %w", err)
	}

	return &Derived{Mnemonic: mnemonic, Wallets: wallets}, nil
}

// RecoverWallet handles a lost device share: the recovery envelope is opened
// with the recovery answer, the seed is reconstructed with the auth share,
// and the seed is re-split with fresh randomness. All three custodians
// receive new material from the same split; reissuing the recovery envelope
// (under the unchanged recovery answer) keeps it on the same polynomial as
// the new auth share, so recovery remains possible a second time.
//
// Every failure surfaces as the same generic RecoveryError. The underlying
// cause is logged for operators but never returned.
func (c *Client) RecoverWallet(ctx context.Context, authShare string, recoveryEnv *envelope.Envelope, recoveryAnswer, newSpendingPassword string) (*Recovered, error) {
	recovered, err := c.recoverWallet(ctx, authShare, recoveryEnv, recoveryAnswer, newSpendingPassword)
	if err != nil {
		glog.Errorf("wallet recovery failed: %v", err)
		return nil, &RecoveryError{}
	}
	return recovered, nil
}

func (c *Client) recoverWallet(ctx context.Context, authShare string, recoveryEnv *envelope.Envelope, recoveryAnswer, newSpendingPassword string) (*Recovered, error) {
	if newSpendingPassword == "" {
		return nil, fmt.Errorf("new spending password must not be empty")
	}

	recoveryShare, err := c.cipher.Decrypt(recoveryEnv, recoveryAnswer)
	if err != nil {
		return nil, fmt.Errorf("opening recovery envelope: %w", err)
	}

	mnemonic, err := combineShares(recoveryShare, authShare)
	if err != nil {
		return nil, err
	}

	deviceEnv, newAuthShare, newRecoveryEnv, err := c.splitSeed(mnemonic, newSpendingPassword, recoveryAnswer)
	if err != nil {
		return nil, err
	}

	wallets, err := c.registry.Build(ctx, MnemonicSource(seedphrase.Words(mnemonic)))
	if err != nil {
		return nil, fmt.Errorf("constructing chain wallets: %w", err)
	}

	newAuthShareBytes, _ := hex.DecodeString(newAuthShare)
	return &Recovered{
		DeviceEnvelope:   deviceEnv,
		AuthShare:        newAuthShare,
		AuthShareHash:    hex.EncodeToString(cryptoutil.HashShare(newAuthShareBytes)),
		RecoveryEnvelope: newRecoveryEnv,
		Wallets:          wallets,
	}, nil
}

// ExportShare wraps a hex-encoded share for a custodian that holds only a
// P-256 public key, using the hybrid envelope. The custodian opens it with
// DecryptWithPrivateKey; the plaintext share is never visible in transit.
func ExportShare(publicKey, shareHex string) (string, error) {
	if _, err := hex.DecodeString(shareHex); err != nil {
		return "", fmt.Errorf("share is not valid hex: %v", err)
	}
	return envelope.EncryptWithPublicKey(publicKey, shareHex)
}

// ImportShare opens a hybrid-wrapped share previously produced by
// ExportShare, returning the hex-encoded share.
func ImportShare(privateKey, envelopeJSON string) (string, error) {
	shareHex, err := envelope.DecryptWithPrivateKey(privateKey, envelopeJSON)
	if err != nil {
		return "", err
	}
	if _, err := hex.DecodeString(shareHex); err != nil {
		return "", fmt.Errorf("unwrapped share is not valid hex: %v", err)
	}
	return shareHex, nil
}
