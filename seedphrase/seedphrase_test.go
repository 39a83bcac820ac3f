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

package seedphrase_test

import (
	"testing"

	"github.com/keysplit/keysplit/seedphrase"
)

func TestNewMnemonicIs24ValidWords(t *testing.T) {
	mnemonic, err := seedphrase.NewMnemonic()
	if err != nil {
		t.Fatalf("NewMnemonic() failed: %v", err)
	}
	if got := len(seedphrase.Words(mnemonic)); got != 24 {
		t.Errorf("NewMnemonic() has %d words, want 24", got)
	}
	if err := seedphrase.Validate(mnemonic); err != nil {
		t.Errorf("Validate() of a generated mnemonic failed: %v", err)
	}
}

func TestNewMnemonicIsUnique(t *testing.T) {
	a, err := seedphrase.NewMnemonic()
	if err != nil {
		t.Fatal(err)
	}
	b, err := seedphrase.NewMnemonic()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two generated mnemonics are identical")
	}
}

func TestValidateRejectsMalformedSentences(t *testing.T) {
	for _, tc := range []string{
		"",
		"not a mnemonic",
		"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon",
	} {
		if err := seedphrase.Validate(tc); err == nil {
			t.Errorf("Validate(%q) err = nil, want error", tc)
		}
	}
}

func TestEntropyRoundTrip(t *testing.T) {
	mnemonic, err := seedphrase.NewMnemonic()
	if err != nil {
		t.Fatal(err)
	}
	entropy, err := seedphrase.Entropy(mnemonic)
	if err != nil {
		t.Fatalf("Entropy() failed: %v", err)
	}
	if got := len(entropy) * 8; got != 256 {
		t.Errorf("Entropy() is %d bits, want 256", got)
	}
}
