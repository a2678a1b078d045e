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
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/voterium/votingd/internal/voting/ballot"
	"github.com/voterium/votingd/internal/voting/ledger"
	"github.com/voterium/votingd/internal/voting/pseudonym"
	"github.com/voterium/votingd/internal/voting/tally"
)

func testServer(t *testing.T) (*httptest.Server, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	keyFunc := func(tok *jwt.Token) (any, error) { return pub, nil }

	dir := t.TempDir()
	clPath := filepath.Join(dir, "cl.csv")
	vlPath := filepath.Join(dir, "vl.csv")

	writer, err := ledger.NewWriter(clPath, vlPath, 16, zerolog.Nop())
	require.NoError(t, err)
	writer.Start()
	t.Cleanup(writer.Stop)

	choices := ballot.Config{Choices: []ballot.Choice{{Key: "0", Label: "No"}, {Key: "1", Label: "Yes"}}}
	lookup := tally.NewChoiceLookup([]string{"0", "1"})

	worker := tally.NewWorker(lookup, len(choices.Choices), 16, zerolog.Nop())
	require.NoError(t, worker.Bootstrap(clPath))
	worker.Start()
	t.Cleanup(worker.Stop)

	backendSalt, err := pseudonym.ParseBackendSalt("AAAAAAAAAAA")
	require.NoError(t, err)

	srv := NewServer(Config{
		Writer:         writer,
		Worker:         worker,
		Choices:        choices,
		Lookup:         lookup,
		BackendSalt:    backendSalt,
		VLFilepath:     vlPath,
		EnqueueTimeout: time.Second,
		KeyFunc:        keyFunc,
		Log:            zerolog.Nop(),
	})

	ts := httptest.NewServer(srv.Handler([]string{"*"}))
	t.Cleanup(ts.Close)
	return ts, priv
}

func signToken(t *testing.T, priv ed25519.PrivateKey, subject string) string {
	t.Helper()
	claims := VoterClaims{Salt: "AAAAAAAAAAAAAAA"}
	claims.Subject = subject
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	tok, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(priv)
	require.NoError(t, err)
	return tok
}

func TestAPI_ConfigIsPublic(t *testing.T) {
	ts, _ := testServer(t)
	resp, err := http.Get(ts.URL + "/voting/config")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_VoteRequiresAuth(t *testing.T) {
	ts, _ := testServer(t)
	resp, err := http.Post(ts.URL+"/voting/vote", "application/json", bytes.NewReader([]byte(`{"choice":"0"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_SubmitVoteThenVerify(t *testing.T) {
	ts, priv := testServer(t)
	token := signToken(t, priv, "alice")

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/voting/vote", bytes.NewReader([]byte(`{"choice":"1"}`)))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out submitVoteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.VoteID)

	verifyResp, err := http.Get(ts.URL + "/voting/verify?vote_id=" + out.VoteID)
	require.NoError(t, err)
	defer verifyResp.Body.Close()
	require.Equal(t, http.StatusOK, verifyResp.StatusCode)

	var v verifyResponse
	require.NoError(t, json.NewDecoder(verifyResp.Body).Decode(&v))
	require.True(t, v.Found)
	require.Equal(t, "1", v.Choice)
}

func TestAPI_SubmitVoteRejectsInvalidChoice(t *testing.T) {
	ts, priv := testServer(t)
	token := signToken(t, priv, "bob")

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/voting/vote", bytes.NewReader([]byte(`{"choice":"9"}`)))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ResultsReflectAcceptedVotes(t *testing.T) {
	ts, priv := testServer(t)
	token := signToken(t, priv, "carol")

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/voting/vote", bytes.NewReader([]byte(`{"choice":"0"}`)))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		r, err := http.Get(ts.URL + "/voting/results")
		require.NoError(t, err)
		defer r.Body.Close()
		var counts []ballot.Count
		require.NoError(t, json.NewDecoder(r.Body).Decode(&counts))
		for _, c := range counts {
			if c.Choice == "0" && c.Count == 1 {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}
