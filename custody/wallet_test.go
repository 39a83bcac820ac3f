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

package custody_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/keysplit/keysplit/custody"
)

// fakeWallet records the source it was built from and signs by prefixing.
type fakeWallet struct {
	src custody.Source
}

func (w *fakeWallet) Addresses(ctx context.Context) ([]string, error) {
	if w.src.Type == custody.SourceTypeAddress {
		return []string{w.src.Address}, nil
	}
	return []string{"fake1qaddress"}, nil
}

func (w *fakeWallet) SignTx(ctx context.Context, rawTx []byte) ([]byte, error) {
	return append([]byte("signed-tx:"), rawTx...), nil
}

func (w *fakeWallet) SignData(ctx context.Context, data []byte) ([]byte, error) {
	return append([]byte("signed-data:"), data...), nil
}

func (w *fakeWallet) Balance(ctx context.Context) (uint64, error) {
	return 42, nil
}

type fakeFactory struct {
	chain custody.Chain
	err   error
}

func (f *fakeFactory) Chain() custody.Chain { return f.chain }

func (f *fakeFactory) New(ctx context.Context, src custody.Source) (custody.Wallet, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fakeWallet{src: src}, nil
}

func TestRegistryRejectsDuplicateChain(t *testing.T) {
	r := custody.NewRegistry()
	if err := r.Register(&fakeFactory{chain: "alpha"}); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := r.Register(&fakeFactory{chain: "alpha"}); err == nil {
		t.Error("Register() of a duplicate chain err = nil, want error")
	}
}

func TestRegistryChainsSorted(t *testing.T) {
	r := custody.NewRegistry()
	for _, c := range []custody.Chain{"zeta", "alpha", "mid"} {
		if err := r.Register(&fakeFactory{chain: c}); err != nil {
			t.Fatalf("Register(%q) failed: %v", c, err)
		}
	}
	want := []custody.Chain{"alpha", "mid", "zeta"}
	if diff := cmp.Diff(want, r.Chains()); diff != "" {
		t.Errorf("Chains() returned diff (-want +got):\n%s", diff)
	}
}

func TestRegistryBuildFansOut(t *testing.T) {
	ctx := context.Background()
	r := custody.NewRegistry()
	for _, c := range []custody.Chain{"alpha", "beta"} {
		if err := r.Register(&fakeFactory{chain: c}); err != nil {
			t.Fatal(err)
		}
	}

	wallets, err := r.Build(ctx, custody.MnemonicSource([]string{"legal", "winner"}))
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if len(wallets) != 2 {
		t.Fatalf("Build() returned %d wallets, want 2", len(wallets))
	}
	for _, c := range []custody.Chain{"alpha", "beta"} {
		if _, ok := wallets[c]; !ok {
			t.Errorf("Build() is missing a wallet for chain %q", c)
		}
	}
}

func TestRegistryBuildPropagatesFactoryError(t *testing.T) {
	ctx := context.Background()
	r := custody.NewRegistry()
	if err := r.Register(&fakeFactory{chain: "broken", err: fmt.Errorf("node unavailable")}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Build(ctx, custody.MnemonicSource([]string{"legal"})); err == nil {
		t.Error("Build() with a failing factory err = nil, want error")
	}
}

func TestWatchOnlySource(t *testing.T) {
	ctx := context.Background()
	r := custody.NewRegistry()
	if err := r.Register(&fakeFactory{chain: "alpha"}); err != nil {
		t.Fatal(err)
	}

	wallets, err := r.Build(ctx, custody.AddressSource("fake1qwatchonly"))
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	addrs, err := wallets["alpha"].Addresses(ctx)
	if err != nil {
		t.Fatalf("Addresses() failed: %v", err)
	}
	if len(addrs) != 1 || addrs[0] != "fake1qwatchonly" {
		t.Errorf("Addresses() = %v, want the watch-only address", addrs)
	}
}

type recordingApprover struct {
	chain custody.Chain
	calls int
}

func (a *recordingApprover) ApproveSignTx(ctx context.Context, chain custody.Chain, rawTx []byte) ([]byte, error) {
	a.chain = chain
	a.calls++
	return append([]byte("approved-tx:"), rawTx...), nil
}

func (a *recordingApprover) ApproveSignData(ctx context.Context, chain custody.Chain, data []byte) ([]byte, error) {
	a.chain = chain
	a.calls++
	return append([]byte("approved-data:"), data...), nil
}

func TestApprovalWalletRoutesSignatures(t *testing.T) {
	ctx := context.Background()
	inner := &fakeWallet{src: custody.MnemonicSource([]string{"legal"})}
	approver := &recordingApprover{}
	w := custody.NewApprovalWallet("alpha", inner, approver)

	sig, err := w.SignTx(ctx, []byte{0x01})
	if err != nil {
		t.Fatalf("SignTx() failed: %v", err)
	}
	if !bytes.Equal(sig, []byte("approved-tx:\x01")) {
		t.Errorf("SignTx() = %q, want the approver's signature", sig)
	}
	if approver.chain != "alpha" {
		t.Errorf("approver saw chain %q, want %q", approver.chain, "alpha")
	}

	if _, err := w.SignData(ctx, []byte("payload")); err != nil {
		t.Fatalf("SignData() failed: %v", err)
	}
	if approver.calls != 2 {
		t.Errorf("approver handled %d calls, want 2", approver.calls)
	}

	// Reads bypass the approval channel.
	bal, err := w.Balance(ctx)
	if err != nil {
		t.Fatalf("Balance() failed: %v", err)
	}
	if bal != 42 {
		t.Errorf("Balance() = %d, want 42", bal)
	}
	if approver.calls != 2 {
		t.Errorf("Balance() went through the approver")
	}
}
