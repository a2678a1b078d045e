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

package tally

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var threeChoices = NewChoiceLookup([]string{"0", "1", "2"})

const (
	hashA = "aaaaaaaaaaaaaaaa"
	hashB = "bbbbbbbbbbbbbbbb"
	hashC = "cccccccccccccccc"
)

func record(hash string, timestampMs int64, choice string) string {
	return hash + "," + strconv.FormatInt(timestampMs, 10) + "," + choice + "\n"
}

func TestCount_SingleVote(t *testing.T) {
	data := []byte(record(hashA, 1700000000001, "0"))
	counts := Count(data, threeChoices, 3)
	assert.Equal(t, []uint32{1, 0, 0}, counts)
}

func TestCount_RevoteCollapses(t *testing.T) {
	data := []byte(record(hashA, 1700000000001, "0") + record(hashA, 1700000000002, "1"))
	counts := Count(data, threeChoices, 3)
	assert.Equal(t, []uint32{0, 1, 0}, counts)
}

func TestCount_ThreeDistinctVotersMixedChoices(t *testing.T) {
	data := []byte(
		record(hashA, 1700000000001, "0") +
			record(hashB, 1700000000002, "1") +
			record(hashC, 1700000000003, "0"),
	)
	counts := Count(data, threeChoices, 3)
	assert.Equal(t, []uint32{2, 1, 0}, counts)
}

func TestCount_UnknownChoiceTolerated(t *testing.T) {
	data := []byte(record(hashA, 1700000000001, "9"))
	counts := Count(data, threeChoices, 3)
	assert.Equal(t, []uint32{0, 0, 0}, counts)
}

func TestCount_MalformedLineSkipped(t *testing.T) {
	truncated := strings.Repeat("x", 15)
	data := []byte(truncated + record(hashA, 1700000000001, "0"))
	counts := Count(data, threeChoices, 3)
	assert.Equal(t, []uint32{1, 0, 0}, counts)
}

func TestCount_EmptyBufferYieldsZeroTally(t *testing.T) {
	counts := Count(nil, threeChoices, 3)
	assert.Equal(t, []uint32{0, 0, 0}, counts)
}

func TestCount_OnlyMalformedRecordsYieldsZeroTally(t *testing.T) {
	data := []byte(strings.Repeat("?", 10))
	counts := Count(data, threeChoices, 3)
	assert.Equal(t, []uint32{0, 0, 0}, counts)
}

func TestCount_AlternatingVotesKeepOnlyLast(t *testing.T) {
	data := []byte(
		record(hashA, 1700000000001, "0") +
			record(hashA, 1700000000002, "1") +
			record(hashA, 1700000000003, "0") +
			record(hashA, 1700000000004, "1"),
	)
	counts := Count(data, threeChoices, 3)
	assert.Equal(t, []uint32{0, 1, 0}, counts)
}

func TestBuildIndex_BootstrapThenIncrementalAgree(t *testing.T) {
	data := []byte(
		record(hashA, 1700000000001, "0") +
			record(hashB, 1700000000002, "1") +
			record(hashC, 1700000000003, "0"),
	)
	counts, index := BuildIndex(data, threeChoices, 3)
	require.Equal(t, []uint32{2, 1, 0}, counts)
	require.Len(t, index, 3)

	// Simulate the Tally Worker's incremental update algorithm directly
	// against the bootstrapped state: voter A switches from choice 0 to 2.
	key := decodeUserKey([]byte(hashA + "xxxxxxxxxxxxxxxxx"))
	prev, ok := index[key]
	require.True(t, ok)
	require.EqualValues(t, 0, prev)

	counts[prev]--
	newChoice := threeChoices.Index('2')
	counts[newChoice]++
	index[key] = newChoice

	assert.Equal(t, []uint32{1, 1, 1}, counts)
}

func TestWellFormed(t *testing.T) {
	ok := []byte(record(hashA, 1700000000001, "0"))
	require.True(t, wellFormed(ok))

	tooShort := ok[:len(ok)-1]
	assert.False(t, wellFormed(tooShort))

	missingComma := append([]byte{}, ok...)
	missingComma[16] = 'x'
	assert.False(t, wellFormed(missingComma))
}

func TestChoiceLookup_UnconfiguredByteIsNegativeOne(t *testing.T) {
	assert.EqualValues(t, -1, threeChoices.Index('9'))
	assert.EqualValues(t, 0, threeChoices.Index('0'))
}
