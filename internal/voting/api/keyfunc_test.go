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
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestLoadEd25519KeyFunc_ValidatesAgainstConfiguredKey(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(pub)
	require.NoError(t, err)
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	path := filepath.Join(t.TempDir(), "jwt_pub.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o644))

	keyFunc, err := LoadEd25519KeyFunc(path)
	require.NoError(t, err)

	claims := VoterClaims{Salt: "AAAAAAAAAAAAAAA"}
	claims.Subject = "alice"
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(priv)
	require.NoError(t, err)

	var out VoterClaims
	parsed, err := jwt.ParseWithClaims(signed, &out, keyFunc)
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	require.Equal(t, "alice", out.Subject)
}

func TestLoadEd25519KeyFunc_MissingFile(t *testing.T) {
	_, err := LoadEd25519KeyFunc(filepath.Join(t.TempDir(), "missing.pem"))
	require.Error(t, err)
}
