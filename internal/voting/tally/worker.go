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
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/voterium/votingd/internal/voting/apperrors"
	"github.com/voterium/votingd/internal/voting/ballot"
	"github.com/voterium/votingd/internal/voting/telemetry"
)

// VoteUpdate is the message the Tally Worker consumes for every accepted
// ballot, after it has already been durably written to the count ledger.
// The worker never sees raw ballots or choice strings; the dense index is
// resolved once, by the caller, against the shared ChoiceLookup.
type VoteUpdate struct {
	UserKey     UserKey
	ChoiceIndex int8 // -1 for a choice-key not in the lookup: counted as seen, not tallied
}

// ReadTally is a request for the current tally snapshot. The worker answers
// by sending a copy of its counts slice on Reply so the caller never reads a
// vector the worker goroutine is still mutating.
type ReadTally struct {
	Reply chan<- []uint32
}

// Worker is the single owner of the live latest-vote index and tally
// vector. Grounded on original_source/workers.rs's run_counts_worker/
// add_vote for the update algorithm and on internal/ratelimiter/core's
// Start/Stop goroutine lifecycle. Index and counts are plain
// unsynchronized maps/slices: only the run goroutine ever touches them.
type Worker struct {
	updates chan VoteUpdate
	reads   chan ReadTally
	log     zerolog.Logger

	lookup     ChoiceLookup
	numChoices int

	stopChan chan struct{}
	stopped  chan struct{}

	// set once, before Start, by Bootstrap; never touched by any other
	// goroutine afterward.
	index  map[UserKey]int8
	counts []uint32
}

// NewWorker constructs a Worker with empty state. Call Bootstrap before
// Start to seed it from an existing count ledger, or skip it to start from
// an all-zero tally (a fresh election).
func NewWorker(lookup ChoiceLookup, numChoices, queueSize int, log zerolog.Logger) *Worker {
	return &Worker{
		updates:    make(chan VoteUpdate, queueSize),
		reads:      make(chan ReadTally, 64),
		log:        log.With().Str("component", "tally.worker").Logger(),
		lookup:     lookup,
		numChoices: numChoices,
		stopChan:   make(chan struct{}),
		stopped:    make(chan struct{}),
		index:      make(map[UserKey]int8),
		counts:     make([]uint32, numChoices),
	}
}

// Bootstrap seeds the worker's index and counts from an existing count
// ledger file by replaying it once at startup to rebuild the latest-vote
// index. Must be called before Start. A missing CL file is treated as an
// empty ledger (a brand new election), not a bootstrap failure; any other
// read error is fatal.
func (w *Worker) Bootstrap(clPath string) error {
	readStart := time.Now()
	data, err := os.ReadFile(clPath)
	if err != nil {
		if os.IsNotExist(err) {
			w.log.Info().Str("cl_path", clPath).Msg("no existing count ledger, starting from an empty tally")
			return nil
		}
		return apperrors.BootstrapFailure("could not read count ledger", err)
	}
	readDone := time.Now()

	countStart := time.Now()
	counts, index := BuildIndex(data, w.lookup, w.numChoices)
	countElapsed := time.Since(countStart)

	w.counts = counts
	w.index = index
	telemetry.SetTallySize(len(index))

	w.log.Info().
		Str("cl_path", clPath).
		Int64("bytes_read", int64(len(data))).
		Int("distinct_voters", len(index)).
		Dur("read_duration", readDone.Sub(readStart)).
		Dur("count_duration", countElapsed).
		Msg("tally bootstrap complete")
	return nil
}

// Updates returns the channel handlers (via the ledger writer's success
// path) send accepted ballots on.
func (w *Worker) Updates() chan<- VoteUpdate { return w.updates }

// Reads returns the channel used to request a tally snapshot.
func (w *Worker) Reads() chan<- ReadTally { return w.reads }

// Start launches the single consumer goroutine.
func (w *Worker) Start() {
	go w.run()
}

func (w *Worker) run() {
	defer close(w.stopped)
	w.log.Info().Msg("tally worker started")
	for {
		select {
		case u := <-w.updates:
			w.apply(u)
			telemetry.SetTallySize(len(w.index))
		case r := <-w.reads:
			r.Reply <- w.snapshot()
		case <-w.stopChan:
			w.log.Info().Msg("tally worker stopped")
			return
		}
	}
}

// apply is the incremental update algorithm: a revote by an already-seen
// voter decrements their previous choice (if it was a configured one)
// before incrementing the new one; a first-time voter only increments.
func (w *Worker) apply(u VoteUpdate) {
	if prev, already := w.index[u.UserKey]; already {
		if prev == u.ChoiceIndex {
			return
		}
		if prev >= 0 {
			w.counts[prev]--
		}
	}
	w.index[u.UserKey] = u.ChoiceIndex
	if u.ChoiceIndex >= 0 {
		w.counts[u.ChoiceIndex]++
	}
}

func (w *Worker) snapshot() []uint32 {
	out := make([]uint32, len(w.counts))
	copy(out, w.counts)
	return out
}

// Stop signals the worker to exit and waits for it to do so. No drain is
// needed: unlike the ledger writer, a dropped VoteUpdate here does not lose
// a ballot, since the count ledger already has the durable record and a
// fresh bootstrap would rebuild the same state.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.stopped
}

// ResolveChoiceIndex is the one piece of per-ballot work the HTTP handler
// does before handing a ballot to the worker: turning a ballot's choice-key
// into the dense index the worker's hot loop expects. Kept here rather than
// in package ballot so the ChoiceLookup type doesn't leak into the data
// model package.
func ResolveChoiceIndex(lookup ChoiceLookup, choiceKey string) int8 {
	if len(choiceKey) == 0 {
		return -1
	}
	return lookup.Index(choiceKey[0])
}

// UserKeyFromHash adapts a ballot.UserIDHash (the API-facing representation)
// into the tally package's UserKey (the hot-path map key). Both already
// agree on byte layout (little-endian halves of the 16-byte hash text, as
// decodeUserKey reads them from a CL record); this just renames the fields
// across the package boundary.
func UserKeyFromHash(h ballot.UserIDHash) UserKey {
	return UserKey{Low: h.Low, High: h.High}
}
