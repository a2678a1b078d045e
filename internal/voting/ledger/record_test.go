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

package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voterium/votingd/internal/voting/ballot"
)

func TestFormatAndParseCLLine_RoundTrips(t *testing.T) {
	b := ballot.Ballot{
		VoteID:      "vote123",
		ChoiceKey:   "0",
		TimestampMs: 1700000000001,
	}
	hash, err := ballot.ParseUserIDHash("aaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	b.UserIDHash = hash

	line := FormatCLLine(b)
	require.Equal(t, "aaaaaaaaaaaaaaaa,1700000000001,0\n", string(line))

	rec, err := ParseCLLine(line[:len(line)-1])
	require.NoError(t, err)
	assert.Equal(t, b.UserIDHash.Text, rec.UserIDHashText)
	assert.Equal(t, b.TimestampMs, rec.TimestampMs)
	assert.Equal(t, b.ChoiceKey, rec.ChoiceKey)
}

func TestFormatAndParseVLLine_RoundTrips(t *testing.T) {
	b := ballot.Ballot{VoteID: "vote123", ChoiceKey: "1"}
	line := FormatVLLine(b)
	require.Equal(t, "vote123,1\n", string(line))

	rec, err := ParseVLLine(line[:len(line)-1])
	require.NoError(t, err)
	assert.Equal(t, b.VoteID, rec.VoteID)
	assert.Equal(t, b.ChoiceKey, rec.ChoiceKey)
}

func TestParseCLLine_MalformedMissingComma(t *testing.T) {
	_, err := ParseCLLine([]byte("no-commas-here"))
	assert.Error(t, err)
}

func TestParseVLLine_MalformedMissingComma(t *testing.T) {
	_, err := ParseVLLine([]byte("no-comma-here"))
	assert.Error(t, err)
}
