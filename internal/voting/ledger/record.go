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
	"fmt"
	"strconv"

	"github.com/voterium/votingd/internal/voting/ballot"
)

// FormatCLLine renders the count-ledger record for a ballot:
// "user-id-hash,timestamp-millis,choice-key\n". With a 16-char hash,
// 13-digit millisecond timestamp, and 1-byte choice this is exactly 33
// bytes — the fixed-width CL record the counting engine scans directly.
func FormatCLLine(b ballot.Ballot) []byte {
	return []byte(fmt.Sprintf("%s,%d,%s\n", b.UserIDHash.Text, b.TimestampMs, b.ChoiceKey))
}

// FormatVLLine renders the verification-ledger record for a ballot:
// "vote-id,choice-key\n".
func FormatVLLine(b ballot.Ballot) []byte {
	return []byte(fmt.Sprintf("%s,%s\n", b.VoteID, b.ChoiceKey))
}

// CLRecord is a parsed count-ledger line, used by tests checking the VL/CL
// round-trip. It is not used on the counting engine's hot path, which
// reads fixed-width slices directly instead of allocating one of these per
// record.
type CLRecord struct {
	UserIDHashText string
	TimestampMs    int64
	ChoiceKey      string
}

// ParseCLLine parses one CL line (without its trailing newline) back into
// its fields. It is the inverse of FormatCLLine for the round-trip law
// "parse(format(ballot)) = ballot".
func ParseCLLine(line []byte) (CLRecord, error) {
	c1 := indexByte(line, ',', 0)
	if c1 < 0 {
		return CLRecord{}, fmt.Errorf("malformed CL line: missing first comma")
	}
	c2 := indexByte(line, ',', c1+1)
	if c2 < 0 {
		return CLRecord{}, fmt.Errorf("malformed CL line: missing second comma")
	}
	ts, err := strconv.ParseInt(string(line[c1+1:c2]), 10, 64)
	if err != nil {
		return CLRecord{}, fmt.Errorf("malformed CL line: timestamp: %w", err)
	}
	return CLRecord{
		UserIDHashText: string(line[:c1]),
		TimestampMs:    ts,
		ChoiceKey:      string(line[c2+1:]),
	}, nil
}

// VLRecord is a parsed verification-ledger line.
type VLRecord struct {
	VoteID    string
	ChoiceKey string
}

// ParseVLLine parses one VL line (without its trailing newline).
func ParseVLLine(line []byte) (VLRecord, error) {
	c1 := indexByte(line, ',', 0)
	if c1 < 0 {
		return VLRecord{}, fmt.Errorf("malformed VL line: missing comma")
	}
	return VLRecord{
		VoteID:    string(line[:c1]),
		ChoiceKey: string(line[c1+1:]),
	}, nil
}

func indexByte(b []byte, c byte, from int) int {
	for i := from; i < len(b); i++ {
		if b[i] == c {
			return i
		}
	}
	return -1
}
