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

package custody

// RecoveryError is the uniform error returned for every failure inside
// RecoverWallet: a wrong recovery answer, a corrupted recovery envelope, or
// a mismatched auth share all surface identically. Revealing which step
// failed would give an attacker an oracle against the recovery answer, so
// the message is fixed and the underlying cause is only logged. Callers can
// match it with errors.As.
type RecoveryError struct{}

func (*RecoveryError) Error() string { return "invalid recovery answer" }
