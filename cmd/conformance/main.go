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

// Binary to validate protocol conformance of the custody implementation:
// every scenario a conforming client must support is run end to end against
// the real share cipher.
package main

import (
	"context"
	"fmt"
	"os"

	"flag"
	"github.com/alecthomas/colour"
	"github.com/keysplit/keysplit/custody"
	"github.com/keysplit/keysplit/envelope"
)

var (
	kdfIterations = flag.Int("kdf-iterations", 1000, "PBKDF2 iteration count for the run; lower is faster, the protocol default is 100000")
)

type conformanceTest struct {
	testName string
	run      func(ctx context.Context, c *custody.Client) error
}

func generateThenUnlock(ctx context.Context, c *custody.Client) error {
	gen, err := c.GenerateWallet(ctx, "spending pw", "recovery answer")
	if err != nil {
		return err
	}
	derived, err := c.DeriveWallet(ctx, gen.DeviceEnvelope, "spending pw", gen.AuthShare)
	if err != nil {
		return err
	}
	again, err := c.DeriveWallet(ctx, gen.DeviceEnvelope, "spending pw", gen.AuthShare)
	if err != nil {
		return err
	}
	if derived.Mnemonic != again.Mnemonic {
		return fmt.Errorf("two unlocks reconstructed different seeds")
	}
	return nil
}

func unlockWrongPassword(ctx context.Context, c *custody.Client) error {
	gen, err := c.GenerateWallet(ctx, "right pw", "answer")
	if err != nil {
		return err
	}
	if _, err := c.DeriveWallet(ctx, gen.DeviceEnvelope, "wrong pw", gen.AuthShare); err == nil {
		return fmt.Errorf("unlock with the wrong password succeeded")
	}
	return nil
}

func recoverRotatesCustodians(ctx context.Context, c *custody.Client) error {
	gen, err := c.GenerateWallet(ctx, "old pw", "answer")
	if err != nil {
		return err
	}
	before, err := c.DeriveWallet(ctx, gen.DeviceEnvelope, "old pw", gen.AuthShare)
	if err != nil {
		return err
	}

	rec, err := c.RecoverWallet(ctx, gen.AuthShare, gen.RecoveryEnvelope, "answer", "new pw")
	if err != nil {
		return err
	}
	if rec.AuthShare == gen.AuthShare {
		return fmt.Errorf("recovery did not rotate the auth share")
	}

	after, err := c.DeriveWallet(ctx, rec.DeviceEnvelope, "new pw", rec.AuthShare)
	if err != nil {
		return err
	}
	if after.Mnemonic != before.Mnemonic {
		return fmt.Errorf("rotated custodians reconstructed a different seed")
	}

	// The reissued recovery envelope must support a second recovery.
	second, err := c.RecoverWallet(ctx, rec.AuthShare, rec.RecoveryEnvelope, "answer", "third pw")
	if err != nil {
		return fmt.Errorf("second recovery failed: %v", err)
	}
	final, err := c.DeriveWallet(ctx, second.DeviceEnvelope, "third pw", second.AuthShare)
	if err != nil {
		return err
	}
	if final.Mnemonic != before.Mnemonic {
		return fmt.Errorf("second recovery reconstructed a different seed")
	}
	return nil
}

func recoveryFailureIsOpaque(ctx context.Context, c *custody.Client) error {
	gen, err := c.GenerateWallet(ctx, "pw", "correct answer")
	if err != nil {
		return err
	}

	wrongAnswer := func() error {
		_, err := c.RecoverWallet(ctx, gen.AuthShare, gen.RecoveryEnvelope, "wrong answer", "new pw")
		return err
	}()
	malformedShare := func() error {
		_, err := c.RecoverWallet(ctx, "zz", gen.RecoveryEnvelope, "correct answer", "new pw")
		return err
	}()

	for _, err := range []error{wrongAnswer, malformedShare} {
		if err == nil {
			return fmt.Errorf("invalid recovery succeeded")
		}
		// All failure causes must collapse to one message so responses cannot
		// be used as a recovery-answer oracle.
		if err.Error() != "invalid recovery answer" {
			return fmt.Errorf("recovery failure leaked its cause: %q", err.Error())
		}
	}
	return nil
}

func exportImportShare(ctx context.Context, c *custody.Client) error {
	gen, err := c.GenerateWallet(ctx, "pw", "answer")
	if err != nil {
		return err
	}
	kp, err := envelope.GenerateKeyPair()
	if err != nil {
		return err
	}

	sealed, err := custody.ExportShare(kp.PublicKey, gen.AuthShare)
	if err != nil {
		return err
	}
	opened, err := custody.ImportShare(kp.PrivateKey, sealed)
	if err != nil {
		return err
	}
	if opened != gen.AuthShare {
		return fmt.Errorf("export/import round trip altered the share")
	}

	other, err := envelope.GenerateKeyPair()
	if err != nil {
		return err
	}
	if _, err := custody.ImportShare(other.PrivateKey, sealed); err == nil {
		return fmt.Errorf("import with the wrong private key succeeded")
	}
	return nil
}

func main() {
	flag.Parse()

	cipher := envelope.NewAESCipher(envelope.Params{Iterations: *kdfIterations, IVSize: 16, KeySize: 32})
	c := custody.NewClient(cipher, nil)

	fmt.Println("Running custody conformance tests...")

	testCases := []conformanceTest{
		{testName: "Generate then unlock reconstructs a stable seed", run: generateThenUnlock},
		{testName: "Unlock with the wrong password fails", run: unlockWrongPassword},
		{testName: "Recovery rotates all custodians and stays recoverable", run: recoverRotatesCustodians},
		{testName: "Recovery failures are opaque", run: recoveryFailureIsOpaque},
		{testName: "Share export/import round trip", run: exportImportShare},
	}

	ctx := context.Background()
	failed := 0
	for _, testCase := range testCases {
		if err := testCase.run(ctx, c); err != nil {
			colour.Printf("^1 - %v: %v^R\n", testCase.testName, err)
			failed++
		} else {
			colour.Printf("^2 - %v^R\n", testCase.testName)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}
