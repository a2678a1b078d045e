// Copyright 2026 The Voterium Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pseudonym derives the stable, non-invertible voter identifier
// used throughout the rest of the engine. It is the only package that
// touches a voter's raw subject string.
package pseudonym

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/voterium/votingd/internal/voting/apperrors"
	"github.com/voterium/votingd/internal/voting/ballot"
)

// BackendSalt is the process-wide, constant-for-the-election secret loaded
// at startup. It must decode to exactly 8 bytes.
type BackendSalt [8]byte

// ParseBackendSalt decodes the URL-safe-base64 BACKEND_SALT environment
// value into a BackendSalt, failing bootstrap if it isn't exactly 8 bytes.
func ParseBackendSalt(text string) (BackendSalt, error) {
	raw, err := base64.RawURLEncoding.DecodeString(text)
	if err != nil {
		return BackendSalt{}, fmt.Errorf("decode backend salt: %w", err)
	}
	if len(raw) != 8 {
		return BackendSalt{}, fmt.Errorf("backend salt must be 8 bytes, got %d", len(raw))
	}
	var s BackendSalt
	copy(s[:], raw)
	return s, nil
}

// Hash derives the 16-character URL-safe-base64 user-id-hash for a voter
// from their authenticated subject, their per-voter salt (URL-safe-base64,
// no padding, as carried in the token), and the process-wide backend salt.
//
// The digest is a keyed BLAKE2b-96 MAC over subject || decoded(voterSalt)
// || backendSalt. The same three inputs always yield the same output;
// distinct voters collide at 96 bits with negligible probability at
// election scale.
func Hash(subject, voterSalt string, backendSalt BackendSalt) (ballot.UserIDHash, error) {
	decodedSalt, err := base64.RawURLEncoding.DecodeString(voterSalt)
	if err != nil {
		return ballot.UserIDHash{}, apperrors.BadInput("Invalid voter salt", err.Error())
	}

	h, err := blake2b.New(12, nil)
	if err != nil {
		// Only fails for an out-of-range size argument; 12 is always valid.
		return ballot.UserIDHash{}, fmt.Errorf("construct blake2b-96: %w", err)
	}
	h.Write([]byte(subject))
	h.Write(decodedSalt)
	h.Write(backendSalt[:])
	digest := h.Sum(nil)

	text := base64.RawURLEncoding.EncodeToString(digest)
	return ballot.ParseUserIDHash(text)
}
