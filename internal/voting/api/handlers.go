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

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/voterium/votingd/internal/voting/apperrors"
	"github.com/voterium/votingd/internal/voting/ballot"
	"github.com/voterium/votingd/internal/voting/ledger"
	"github.com/voterium/votingd/internal/voting/pseudonym"
	"github.com/voterium/votingd/internal/voting/tally"
	"github.com/voterium/votingd/internal/voting/telemetry"
)

// submitVoteRequest is the body of POST /voting/vote, matching
// original_source/models.rs's Vote{choice}.
type submitVoteRequest struct {
	Choice string `json:"choice"`
}

type submitVoteResponse struct {
	VoteID string `json:"vote_id"`
}

// handleSubmitVote authenticates, pseudonymizes, validates the choice,
// appends to both ledgers, and updates the live tally, then replies with
// the vote-id receipt. Grounded on original_source/handlers.rs::submit_vote.
func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(w, apperrors.AuthFailure("missing authenticated claims"))
		return
	}

	var req submitVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		telemetry.ObserveBallotRejected(apperrors.KindBadInput.String())
		writeError(w, apperrors.BadInput("Malformed request body", err.Error()))
		return
	}

	choiceIdx := tally.ResolveChoiceIndex(s.lookup, req.Choice)
	if choiceIdx < 0 || !s.isConfiguredChoice(req.Choice) {
		telemetry.ObserveBallotRejected(apperrors.KindBadInput.String())
		writeError(w, apperrors.BadInput("Invalid choice", "choice is not one of the configured options"))
		return
	}

	userIDHash, err := pseudonym.Hash(claims.Subject, claims.Salt, s.backendSalt)
	if err != nil {
		telemetry.ObserveBallotRejected(apperrors.KindOf(err).String())
		writeError(w, err)
		return
	}

	voteID, err := ballot.NewVoteID()
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.KindInternal, "vote-id generation failed", err))
		return
	}

	b := ballot.Ballot{
		VoteID:      voteID,
		UserIDHash:  userIDHash,
		TimestampMs: time.Now().UnixMilli(),
		ChoiceKey:   req.Choice,
	}

	if err := s.writer.Failed(); err != nil {
		telemetry.ObserveBallotRejected(apperrors.KindIOFailure.String())
		writeError(w, apperrors.Wrap(apperrors.KindIOFailure, "ledger writer has stopped", err))
		return
	}

	reply := make(chan error, 1)
	writeReq := ledger.WriteRequest{
		CLLine: ledger.FormatCLLine(b),
		VLLine: ledger.FormatVLLine(b),
		Reply:  reply,
	}

	select {
	case s.writer.Requests() <- writeReq:
	case <-time.After(s.enqueueTimeout):
		telemetry.ObserveBallotRejected(apperrors.KindBackpressure.String())
		writeError(w, apperrors.Backpressure("Ledger write queue is full", "try again shortly"))
		return
	}

	if err := <-reply; err != nil {
		telemetry.ObserveBallotRejected(apperrors.KindOf(err).String())
		writeError(w, err)
		return
	}
	telemetry.ObserveLedgerWrite(time.Since(start))
	telemetry.ObserveBallotAccepted()

	s.worker.Updates() <- tally.VoteUpdate{
		UserKey:     tally.UserKeyFromHash(userIDHash),
		ChoiceIndex: choiceIdx,
	}

	s.log.Info().
		Str("vote_id", voteID).
		Dur("duration", time.Since(start)).
		Msg("ballot accepted")

	writeJSON(w, http.StatusOK, submitVoteResponse{VoteID: voteID})
}

// handleResults answers with the current tally snapshot, zipped with the
// configured choice keys. Grounded on original_source/handlers.rs::get_results.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	reply := make(chan []uint32, 1)
	s.worker.Reads() <- tally.ReadTally{Reply: reply}
	counts := <-reply

	out := make([]ballot.Count, len(s.choices.Choices))
	for i, c := range s.choices.Choices {
		var n uint32
		if i < len(counts) {
			n = counts[i]
		}
		out[i] = ballot.Count{Choice: c.Key, Count: n}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleConfig returns the static choice configuration, matching
// original_source/handlers.rs::get_config.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.choices)
}

type verifyResponse struct {
	Found  bool   `json:"found"`
	Choice string `json:"choice,omitempty"`
}

// handleVerify answers whether a vote-id is present in the verification
// ledger and, if so, which choice it recorded. Supplemented feature; see
// SPEC_FULL.md section 6.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	voteID := r.URL.Query().Get("vote_id")
	if voteID == "" {
		writeError(w, apperrors.BadInput("Missing vote_id", "the vote_id query parameter is required"))
		return
	}
	result, err := ledger.Verify(s.vlPath, voteID)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.KindInternal, "verification lookup failed", err))
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Found: result.Found, Choice: result.Choice})
}

// handleHealthz is a liveness probe: 200 once the server is wired and
// serving, or an IOFailure error (500) once the ledger writer has stopped
// on a fatal I/O error.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.writer.Failed(); err != nil {
		writeError(w, apperrors.Wrap(apperrors.KindIOFailure, "ledger writer has stopped", err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) isConfiguredChoice(key string) bool {
	for _, c := range s.choices.Choices {
		if c.Key == key {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
