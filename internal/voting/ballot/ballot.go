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

// Package ballot holds the data model shared by the submission handler, the
// ledger writer, and the tally worker: Choice, Ballot, and the identifiers
// derived per vote. Nothing here owns mutable state; every type is a plain
// value passed between single-owner workers over channels.
package ballot

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Choice is one configured ballot option. Keys are distinct by their first
// byte; the hot paths (ledger encoding, tally indexing) only ever look at
// Key[0].
type Choice struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Config is the top-level shape of the choice configuration file.
type Config struct {
	Choices []Choice `json:"choices"`
}

// UserIDHash is the 96-bit pseudonymous voter identifier, kept both in its
// wire form (16-char URL-safe base64, no padding) and as a little-endian
// 128-bit integer (the 16 bytes of that text, read as-is) so the tally
// worker never has to touch a string on its hot path.
type UserIDHash struct {
	Text string
	Low  uint64 // text bytes [0:8), little-endian
	High uint64 // text bytes [8:16), little-endian
}

// ParseUserIDHash validates the 16-character URL-safe-base64 text form of a
// user-id-hash (it must decode to a 12-byte digest) and derives its integer
// key from the 16 text bytes, read little-endian. This is the same key the
// reverse-scan engine reads from the first 16 bytes of a CL record (see
// tally's decodeUserKey), so a live update and a bootstrapped index entry
// for the same voter coincide.
func ParseUserIDHash(text string) (UserIDHash, error) {
	raw, err := base64.RawURLEncoding.DecodeString(text)
	if err != nil {
		return UserIDHash{}, fmt.Errorf("decode user-id-hash: %w", err)
	}
	if len(raw) != 12 {
		return UserIDHash{}, fmt.Errorf("user-id-hash must decode to 12 bytes, got %d", len(raw))
	}
	b := []byte(text) // 12 decoded bytes always encode to 16 characters
	return UserIDHash{
		Text: text,
		Low:  leUint64(b[0:8]),
		High: leUint64(b[8:16]),
	}, nil
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// NewVoteID returns a fresh 12 random bytes, URL-safe-base64 encoded, as the
// vote-id of one ballot. Collisions are not checked for: at 96 bits of entropy per ballot,
// the birthday bound for an election's lifetime traffic is negligible.
func NewVoteID() (string, error) {
	var buf [12]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate vote-id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf[:]), nil
}

// Ballot is the fully assembled submission, constructed by the handler and
// consumed once by the two workers before being dropped.
type Ballot struct {
	VoteID       string
	UserIDHash   UserIDHash
	TimestampMs  int64
	ChoiceKey    string
}

// Count is one entry of a tally snapshot: a configured choice and its
// current vote count.
type Count struct {
	Choice string `json:"choice"`
	Count  uint32 `json:"count"`
}
