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

// Chain wallet fan-out. Once a seed is reconstructed, a wallet object is
// built for every registered chain from the same seed material. Chains are
// added by registering a Factory rather than by branching on chain names.

package custody

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Chain identifies a supported blockchain.
type Chain string

// SourceType discriminates the two ways a wallet can be constructed.
type SourceType string

const (
	// SourceTypeMnemonic builds a signing wallet from seed words.
	SourceTypeMnemonic SourceType = "mnemonic"
	// SourceTypeAddress builds a watch-only wallet from an address.
	SourceTypeAddress SourceType = "address"
)

// Source is the seed material handed to a chain wallet factory.
type Source struct {
	Type    SourceType
	Words   []string
	Address string
}

// MnemonicSource returns a Source that constructs signing wallets from the
// given seed words.
func MnemonicSource(words []string) Source {
	return Source{Type: SourceTypeMnemonic, Words: words}
}

// AddressSource returns a Source that constructs watch-only wallets.
func AddressSource(address string) Source {
	return Source{Type: SourceTypeAddress, Address: address}
}

// Wallet is the capability interface a chain wallet exposes to the custody
// layer. Implementations live outside this module, next to their chain
// libraries.
type Wallet interface {
	// Addresses returns the wallet's derived public addresses.
	Addresses(ctx context.Context) ([]string, error)
	// SignTx signs a serialized transaction.
	SignTx(ctx context.Context, rawTx []byte) ([]byte, error)
	// SignData signs an arbitrary payload.
	SignData(ctx context.Context, data []byte) ([]byte, error)
	// Balance returns the wallet's spendable balance in the chain's base unit.
	Balance(ctx context.Context) (uint64, error)
}

// Factory constructs wallets for a single chain.
type Factory interface {
	// Chain returns the chain this factory builds wallets for.
	Chain() Chain
	// New builds a wallet from the given source.
	New(ctx context.Context, src Source) (Wallet, error)
}

// Registry maps chain identifiers to wallet factories. Chains are added by
// registration, typically at startup; Build fans a reconstructed seed out to
// every registered chain.
type Registry struct {
	mu        sync.RWMutex
	factories map[Chain]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Chain]Factory)}
}

// Register adds a factory. Registering the same chain twice is an error.
func (r *Registry) Register(f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[f.Chain()]; ok {
		return fmt.Errorf("chain %q is already registered", f.Chain())
	}
	r.factories[f.Chain()] = f
	return nil
}

// Chains returns the registered chain identifiers in sorted order.
func (r *Registry) Chains() []Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chains := make([]Chain, 0, len(r.factories))
	for c := range r.factories {
		chains = append(chains, c)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i] < chains[j] })
	return chains
}

// Build constructs a wallet for every registered chain from src.
func (r *Registry) Build(ctx context.Context, src Source) (map[Chain]Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wallets := make(map[Chain]Wallet, len(r.factories))
	for chain, f := range r.factories {
		w, err := f.New(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("building %q wallet: %w", chain, err)
		}
		wallets[chain] = w
	}
	return wallets, nil
}

// Approver routes signing requests through an external approval channel
// (e.g. a hosted signing service) instead of the local key material.
type Approver interface {
	ApproveSignTx(ctx context.Context, chain Chain, rawTx []byte) ([]byte, error)
	ApproveSignData(ctx context.Context, chain Chain, data []byte) ([]byte, error)
}

// ApprovalWallet composes an inner wallet with an Approver: reads pass
// through to the inner wallet, signatures are produced by the approval
// channel. It replaces per-instance method reassignment with plain
// interface composition.
type ApprovalWallet struct {
	chain    Chain
	inner    Wallet
	approver Approver
}

// NewApprovalWallet wraps inner so its signing operations go through approver.
func NewApprovalWallet(chain Chain, inner Wallet, approver Approver) *ApprovalWallet {
	return &ApprovalWallet{chain: chain, inner: inner, approver: approver}
}

var _ Wallet = (*ApprovalWallet)(nil)

// Addresses returns the inner wallet's addresses.
func (w *ApprovalWallet) Addresses(ctx context.Context) ([]string, error) {
	return w.inner.Addresses(ctx)
}

// Balance returns the inner wallet's balance.
func (w *ApprovalWallet) Balance(ctx context.Context) (uint64, error) {
	return w.inner.Balance(ctx)
}

// SignTx requests a transaction signature from the approval channel.
func (w *ApprovalWallet) SignTx(ctx context.Context, rawTx []byte) ([]byte, error) {
	return w.approver.ApproveSignTx(ctx, w.chain, rawTx)
}

// SignData requests a payload signature from the approval channel.
func (w *ApprovalWallet) SignData(ctx context.Context, data []byte) ([]byte, error) {
	return w.approver.ApproveSignData(ctx, w.chain, data)
}
