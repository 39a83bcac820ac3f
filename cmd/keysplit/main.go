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

// This binary is the main entrypoint for the keysplit command line tool.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"flag"
	glog "github.com/golang/glog"
	"github.com/google/subcommands"
	"github.com/keysplit/keysplit/constants"
	"github.com/keysplit/keysplit/custody"
	"github.com/keysplit/keysplit/envelope"
	"github.com/keysplit/keysplit/shamir"
	"sigs.k8s.io/yaml"
)

const (
	// The default name for the keysplit configuration file.
	defaultConfigName string = "keysplit.yaml"

	// The current version, displayed via the `version` subcommand.
	keysplitVersion string = "0.1.0"
)

// envelopeConfig configures the share cipher. Zero values select the
// protocol defaults.
type envelopeConfig struct {
	Iterations int `json:"iterations,omitempty"`
	IVSize     int `json:"ivSize,omitempty"`
	KeySize    int `json:"keySize,omitempty"`
}

// keysplitConfig is the on-disk YAML configuration.
type keysplitConfig struct {
	Envelope envelopeConfig `json:"envelope,omitempty"`
}

// walletRecord is the JSON custody record written by `generate` and
// `recover` and read back by `unlock` and `recover`. It holds only
// wrapped or backend-bound material, never the seed.
type walletRecord struct {
	WalletID         string             `json:"walletId,omitempty"`
	DeviceEnvelope   *envelope.Envelope `json:"deviceEnvelope"`
	AuthShare        string             `json:"authShare"`
	AuthShareHash    string             `json:"authShareHash"`
	RecoveryEnvelope *envelope.Envelope `json:"recoveryEnvelope"`
}

func defaultConfigPath() string {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		glog.Errorf("Failed to get config directory location: %v", err.Error())
	}
	return fmt.Sprintf("%s/%s", cfgDir, defaultConfigName)
}

// loadClient builds a custody client from the given config file. A missing
// config file is not an error; the protocol defaults apply.
func loadClient(configFile string) (*custody.Client, error) {
	params := envelope.DefaultParams()

	yamlBytes, err := os.ReadFile(configFile)
	if err == nil {
		cfg := &keysplitConfig{}
		if err := yaml.Unmarshal(yamlBytes, cfg); err != nil {
			return nil, fmt.Errorf("unmarshaling config file %q: %v", configFile, err)
		}
		if cfg.Envelope.Iterations != 0 {
			params.Iterations = cfg.Envelope.Iterations
		}
		if cfg.Envelope.IVSize != 0 {
			params.IVSize = cfg.Envelope.IVSize
		}
		if cfg.Envelope.KeySize != 0 {
			params.KeySize = cfg.Envelope.KeySize
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file %q: %v", configFile, err)
	}

	return custody.NewClient(envelope.NewAESCipher(params), nil), nil
}

// readSecretLine reads a passphrase or share from the given file, or from
// stdin when the path is "-". Trailing newlines are stripped.
func readSecretLine(path string) (string, error) {
	if path == "-" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading from stdin: %v", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func readRecord(path string) (*walletRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	record := &walletRecord{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("unmarshaling wallet record %q: %v", path, err)
	}
	return record, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// generateCmd handles CLI options for creating a new wallet.
type generateCmd struct {
	configFile   string
	passwordFile string
	answerFile   string
	quiet        bool
}

func (*generateCmd) Name() string { return "generate" }
func (*generateCmd) Synopsis() string {
	return "generates a new wallet seed and splits it across the three custodians"
}
func (*generateCmd) Usage() string {
	return fmt.Sprintf(`Usage: keysplit generate --password-file=<file> --answer-file=<file> <record_file>

Examples:
  Generate a wallet, using %s for configuration:
    $ keysplit generate --password-file=pw.txt --answer-file=answer.txt wallet.json

  Write the custody record to stdout:
    $ keysplit generate --password-file=pw.txt --answer-file=answer.txt -

Flags:
`, defaultConfigPath())
	// The flags are automatically printed after the returned text.
}
func (g *generateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&g.configFile, "config-file", defaultConfigPath(), "Path to a keysplit YAML config file. Optional.")
	f.StringVar(&g.passwordFile, "password-file", "", "File holding the spending password, or - for stdin.")
	f.StringVar(&g.answerFile, "answer-file", "", "File holding the recovery answer, or - for stdin.")
	f.BoolVar(&g.quiet, "quiet", false, "Suppress logging output.")
}

func (g *generateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		glog.Errorf("Not enough arguments (expected record file)")
		return subcommands.ExitFailure
	}
	if g.passwordFile == "" || g.answerFile == "" {
		glog.Errorf("Both --password-file and --answer-file are required")
		return subcommands.ExitFailure
	}

	password, err := readSecretLine(g.passwordFile)
	if err != nil {
		glog.Errorf("Failed to read spending password: %v", err.Error())
		return subcommands.ExitFailure
	}
	answer, err := readSecretLine(g.answerFile)
	if err != nil {
		glog.Errorf("Failed to read recovery answer: %v", err.Error())
		return subcommands.ExitFailure
	}

	c, err := loadClient(g.configFile)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}

	gen, err := c.GenerateWallet(ctx, password, answer)
	if err != nil {
		glog.Errorf("Failed to generate wallet: %v", err.Error())
		return subcommands.ExitFailure
	}

	record := &walletRecord{
		WalletID:         gen.WalletID,
		DeviceEnvelope:   gen.DeviceEnvelope,
		AuthShare:        gen.AuthShare,
		AuthShareHash:    gen.AuthShareHash,
		RecoveryEnvelope: gen.RecoveryEnvelope,
	}
	if err := writeJSON(f.Arg(0), record); err != nil {
		glog.Errorf("Failed to write wallet record: %v", err.Error())
		return subcommands.ExitFailure
	}

	if !g.quiet && f.Arg(0) != "-" {
		fmt.Println("Wrote wallet record to", f.Arg(0))
		fmt.Println("Wallet ID:", gen.WalletID)
	}
	return subcommands.ExitSuccess
}

// unlockCmd handles CLI options for unlocking a wallet.
type unlockCmd struct {
	configFile   string
	passwordFile string
}

func (*unlockCmd) Name() string { return "unlock" }
func (*unlockCmd) Synopsis() string {
	return "reconstructs the seed from the device and auth shares"
}
func (*unlockCmd) Usage() string {
	return `Usage: keysplit unlock --password-file=<file> <record_file>

The reconstructed seed mnemonic is written to stdout. The record file must
contain the device envelope and the auth share, as written by generate.

Flags:
`
}
func (u *unlockCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&u.configFile, "config-file", defaultConfigPath(), "Path to a keysplit YAML config file. Optional.")
	f.StringVar(&u.passwordFile, "password-file", "", "File holding the spending password, or - for stdin.")
}

func (u *unlockCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		glog.Errorf("Not enough arguments (expected record file)")
		return subcommands.ExitFailure
	}
	if u.passwordFile == "" {
		glog.Errorf("--password-file is required")
		return subcommands.ExitFailure
	}

	password, err := readSecretLine(u.passwordFile)
	if err != nil {
		glog.Errorf("Failed to read spending password: %v", err.Error())
		return subcommands.ExitFailure
	}
	record, err := readRecord(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read wallet record: %v", err.Error())
		return subcommands.ExitFailure
	}

	c, err := loadClient(u.configFile)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}

	derived, err := c.DeriveWallet(ctx, record.DeviceEnvelope, password, record.AuthShare)
	if err != nil {
		glog.Errorf("Failed to unlock wallet: %v", err.Error())
		return subcommands.ExitFailure
	}

	fmt.Println(derived.Mnemonic)
	return subcommands.ExitSuccess
}

// recoverCmd handles CLI options for recovering a wallet after device loss.
type recoverCmd struct {
	configFile      string
	answerFile      string
	newPasswordFile string
	quiet           bool
}

func (*recoverCmd) Name() string { return "recover" }
func (*recoverCmd) Synopsis() string {
	return "recovers a wallet from the recovery and auth shares and rotates all custodians"
}
func (*recoverCmd) Usage() string {
	return `Usage: keysplit recover --answer-file=<file> --new-password-file=<file> <record_file> <new_record_file>

Opens the recovery envelope with the recovery answer, reconstructs the seed
with the auth share, and writes a custody record with fresh material for all
three custodians.

Flags:
`
}
func (r *recoverCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.configFile, "config-file", defaultConfigPath(), "Path to a keysplit YAML config file. Optional.")
	f.StringVar(&r.answerFile, "answer-file", "", "File holding the recovery answer, or - for stdin.")
	f.StringVar(&r.newPasswordFile, "new-password-file", "", "File holding the new spending password, or - for stdin.")
	f.BoolVar(&r.quiet, "quiet", false, "Suppress logging output.")
}

func (r *recoverCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected record file and new record file)")
		return subcommands.ExitFailure
	}
	if r.answerFile == "" || r.newPasswordFile == "" {
		glog.Errorf("Both --answer-file and --new-password-file are required")
		return subcommands.ExitFailure
	}

	answer, err := readSecretLine(r.answerFile)
	if err != nil {
		glog.Errorf("Failed to read recovery answer: %v", err.Error())
		return subcommands.ExitFailure
	}
	newPassword, err := readSecretLine(r.newPasswordFile)
	if err != nil {
		glog.Errorf("Failed to read new spending password: %v", err.Error())
		return subcommands.ExitFailure
	}
	record, err := readRecord(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read wallet record: %v", err.Error())
		return subcommands.ExitFailure
	}

	c, err := loadClient(r.configFile)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}

	rec, err := c.RecoverWallet(ctx, record.AuthShare, record.RecoveryEnvelope, answer, newPassword)
	if err != nil {
		glog.Errorf("Failed to recover wallet: %v", err.Error())
		return subcommands.ExitFailure
	}

	newRecord := &walletRecord{
		WalletID:         record.WalletID,
		DeviceEnvelope:   rec.DeviceEnvelope,
		AuthShare:        rec.AuthShare,
		AuthShareHash:    rec.AuthShareHash,
		RecoveryEnvelope: rec.RecoveryEnvelope,
	}
	if err := writeJSON(f.Arg(1), newRecord); err != nil {
		glog.Errorf("Failed to write new wallet record: %v", err.Error())
		return subcommands.ExitFailure
	}

	if !r.quiet && f.Arg(1) != "-" {
		fmt.Println("Wrote rotated wallet record to", f.Arg(1))
	}
	return subcommands.ExitSuccess
}

// splitCmd handles CLI options for splitting an arbitrary secret.
type splitCmd struct {
	numShares int
	threshold int
}

func (*splitCmd) Name() string { return "split" }
func (*splitCmd) Synopsis() string {
	return "splits a secret into threshold shares"
}
func (*splitCmd) Usage() string {
	return `Usage: keysplit split [--shares=<n>] [--threshold=<t>] <secret_file> <shares_file>

Examples:
  Split a secret 2-of-3 (the default):
    $ keysplit split secret.txt shares.txt

  Split a secret from stdin 3-of-5, shares to stdout:
    $ keysplit split --shares=5 --threshold=3 - -

The shares file holds one hex-encoded share per line.

Flags:
`
}
func (s *splitCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&s.numShares, "shares", constants.NumShares, "Total number of shares to produce.")
	f.IntVar(&s.threshold, "threshold", constants.Threshold, "Number of shares required to reconstruct.")
}

func (s *splitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected secret file and shares file)")
		return subcommands.ExitFailure
	}

	var secret []byte
	var err error
	if f.Arg(0) == "-" {
		secret, err = readAllStdin()
	} else {
		secret, err = os.ReadFile(f.Arg(0))
	}
	if err != nil {
		glog.Errorf("Failed to read secret: %v", err.Error())
		return subcommands.ExitFailure
	}

	shares, err := shamir.Split(secret, s.numShares, s.threshold)
	if err != nil {
		glog.Errorf("Failed to split secret: %v", err.Error())
		return subcommands.ExitFailure
	}

	var sb strings.Builder
	for _, share := range shares {
		sb.WriteString(hex.EncodeToString(share))
		sb.WriteByte('\n')
	}

	if f.Arg(1) == "-" {
		fmt.Print(sb.String())
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(f.Arg(1), []byte(sb.String()), 0600); err != nil {
		glog.Errorf("Failed to write shares: %v", err.Error())
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// combineCmd handles CLI options for recombining shares.
type combineCmd struct{}

func (*combineCmd) Name() string { return "combine" }
func (*combineCmd) Synopsis() string {
	return "recombines threshold shares into the original secret"
}
func (*combineCmd) Usage() string {
	return `Usage: keysplit combine <shares_file> <secret_file>

The shares file holds one hex-encoded share per line, as written by split.
At least two shares are required.

Flags:
`
}
func (*combineCmd) SetFlags(*flag.FlagSet) {}

func (*combineCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected shares file and secret file)")
		return subcommands.ExitFailure
	}

	var data []byte
	var err error
	if f.Arg(0) == "-" {
		data, err = readAllStdin()
	} else {
		data, err = os.ReadFile(f.Arg(0))
	}
	if err != nil {
		glog.Errorf("Failed to read shares: %v", err.Error())
		return subcommands.ExitFailure
	}

	var shares [][]byte
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		share, err := hex.DecodeString(line)
		if err != nil {
			glog.Errorf("Share %q is not valid hex: %v", line, err.Error())
			return subcommands.ExitFailure
		}
		shares = append(shares, share)
	}

	secret, err := shamir.Combine(shares)
	if err != nil {
		glog.Errorf("Failed to combine shares: %v", err.Error())
		return subcommands.ExitFailure
	}

	if f.Arg(1) == "-" {
		os.Stdout.Write(secret)
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(f.Arg(1), secret, 0600); err != nil {
		glog.Errorf("Failed to write secret: %v", err.Error())
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// keygenCmd handles CLI options for generating a hybrid key pair.
type keygenCmd struct{}

func (*keygenCmd) Name() string { return "keygen" }
func (*keygenCmd) Synopsis() string {
	return "generates a P-256 key pair for share export"
}
func (*keygenCmd) Usage() string {
	return `Usage: keysplit keygen <keypair_file>

Writes a JSON key pair with base64 SPKI public and PKCS#8 private keys.
Shares exported to the public key can be opened only with the private key.

Flags:
`
}
func (*keygenCmd) SetFlags(*flag.FlagSet) {}

func (*keygenCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		glog.Errorf("Not enough arguments (expected key pair file)")
		return subcommands.ExitFailure
	}

	kp, err := envelope.GenerateKeyPair()
	if err != nil {
		glog.Errorf("Failed to generate key pair: %v", err.Error())
		return subcommands.ExitFailure
	}
	if err := writeJSON(f.Arg(0), kp); err != nil {
		glog.Errorf("Failed to write key pair: %v", err.Error())
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// exportCmd handles CLI options for wrapping a share for another custodian.
type exportCmd struct {
	keyFile string
}

func (*exportCmd) Name() string { return "export" }
func (*exportCmd) Synopsis() string {
	return "wraps a hex share under a custodian's public key"
}
func (*exportCmd) Usage() string {
	return `Usage: keysplit export --key-file=<keypair_file> <share_file> <envelope_file>

The share file holds a single hex-encoded share. The output is a hybrid
envelope JSON that only the key pair's private key can open.

Flags:
`
}
func (e *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&e.keyFile, "key-file", "", "JSON key pair file holding the recipient public key.")
}

func (e *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected share file and envelope file)")
		return subcommands.ExitFailure
	}
	if e.keyFile == "" {
		glog.Errorf("--key-file is required")
		return subcommands.ExitFailure
	}

	kp, err := readKeyPair(e.keyFile)
	if err != nil {
		glog.Errorf("Failed to read key pair: %v", err.Error())
		return subcommands.ExitFailure
	}
	shareHex, err := readSecretLine(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read share: %v", err.Error())
		return subcommands.ExitFailure
	}

	sealed, err := custody.ExportShare(kp.PublicKey, shareHex)
	if err != nil {
		glog.Errorf("Failed to export share: %v", err.Error())
		return subcommands.ExitFailure
	}

	if f.Arg(1) == "-" {
		fmt.Println(sealed)
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(f.Arg(1), []byte(sealed+"\n"), 0600); err != nil {
		glog.Errorf("Failed to write envelope: %v", err.Error())
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// importCmd handles CLI options for unwrapping an exported share.
type importCmd struct {
	keyFile string
}

func (*importCmd) Name() string { return "import" }
func (*importCmd) Synopsis() string {
	return "unwraps a share exported to this custodian's public key"
}
func (*importCmd) Usage() string {
	return `Usage: keysplit import --key-file=<keypair_file> <envelope_file> <share_file>

Opens a hybrid envelope written by export and writes the hex share.

Flags:
`
}
func (i *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&i.keyFile, "key-file", "", "JSON key pair file holding the private key.")
}

func (i *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected envelope file and share file)")
		return subcommands.ExitFailure
	}
	if i.keyFile == "" {
		glog.Errorf("--key-file is required")
		return subcommands.ExitFailure
	}

	kp, err := readKeyPair(i.keyFile)
	if err != nil {
		glog.Errorf("Failed to read key pair: %v", err.Error())
		return subcommands.ExitFailure
	}
	sealed, err := readSecretLine(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read envelope: %v", err.Error())
		return subcommands.ExitFailure
	}

	shareHex, err := custody.ImportShare(kp.PrivateKey, sealed)
	if err != nil {
		glog.Errorf("Failed to import share: %v", err.Error())
		return subcommands.ExitFailure
	}

	if f.Arg(1) == "-" {
		fmt.Println(shareHex)
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(f.Arg(1), []byte(shareHex+"\n"), 0600); err != nil {
		glog.Errorf("Failed to write share: %v", err.Error())
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// versionCmd handles CLI options for the version command.
type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "prints the current version" }
func (*versionCmd) Usage() string          { return "Usage: keysplit version" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}
func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Printf("keysplit version %s\n", keysplitVersion)
	return subcommands.ExitSuccess
}

func readAllStdin() ([]byte, error) {
	var sb strings.Builder
	if _, err := bufio.NewReader(os.Stdin).WriteTo(&sb); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

func readKeyPair(path string) (*envelope.KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	kp := &envelope.KeyPair{}
	if err := json.Unmarshal(data, kp); err != nil {
		return nil, fmt.Errorf("unmarshaling key pair %q: %v", path, err)
	}
	return kp, nil
}

func main() {
	flag.Parse()

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(&generateCmd{}, "")
	subcommands.Register(&unlockCmd{}, "")
	subcommands.Register(&recoverCmd{}, "")
	subcommands.Register(&splitCmd{}, "")
	subcommands.Register(&combineCmd{}, "")
	subcommands.Register(&keygenCmd{}, "")
	subcommands.Register(&exportCmd{}, "")
	subcommands.Register(&importCmd{}, "")
	subcommands.Register(&versionCmd{}, "")

	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
