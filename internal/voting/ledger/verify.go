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
	"bufio"
	"fmt"
	"os"
)

// VerifyResult is the answer to "is this vote-id present in the public
// verification ledger, and for which choice".
type VerifyResult struct {
	Found  bool
	Choice string
}

// Verify streams the VL file looking for voteID, without holding the whole
// file in memory — unlike the count ledger (which the tally worker loads
// wholesale at bootstrap), VL is read on an as-needed basis per lookup, so
// streaming keeps a single slow client from forcing a multi-gigabyte
// allocation. Lets a voter confirm their ballot's inclusion in the public
// verification ledger without revealing their identity.
func Verify(vlPath, voteID string) (VerifyResult, error) {
	f, err := os.Open(vlPath)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("open verification ledger: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		rec, err := ParseVLLine(line)
		if err != nil {
			continue // malformed VL lines are skipped, never fatal
		}
		if rec.VoteID == voteID {
			return VerifyResult{Found: true, Choice: rec.ChoiceKey}, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return VerifyResult{}, fmt.Errorf("scan verification ledger: %w", err)
	}
	return VerifyResult{Found: false}, nil
}
