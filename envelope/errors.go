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

package envelope

import "fmt"

// DecryptionError reports an envelope that failed to decrypt: an
// authentication tag mismatch, a wrong key, or a malformed envelope.
// Low-level primitive errors (bad base64, wrong IV length) are wrapped
// into this type at the package boundary.
type DecryptionError struct {
	Err error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("envelope decryption failed: %v", e.Err)
}

func (e *DecryptionError) Unwrap() error { return e.Err }

func decryptionErrf(format string, args ...interface{}) error {
	return &DecryptionError{Err: fmt.Errorf(format, args...)}
}

// KeyDerivationError reports that a cipher key could not be derived,
// either because the KDF parameters are invalid or because the
// underlying cipher primitive rejected the derived key.
type KeyDerivationError struct {
	Err error
}

func (e *KeyDerivationError) Error() string {
	return fmt.Sprintf("key derivation failed: %v", e.Err)
}

func (e *KeyDerivationError) Unwrap() error { return e.Err }

func keyDerivationErrf(format string, args ...interface{}) error {
	return &KeyDerivationError{Err: fmt.Errorf(format, args...)}
}
