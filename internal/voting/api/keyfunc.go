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
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voterium/votingd/internal/voting/apperrors"
)

// LoadEd25519KeyFunc reads an Ed25519 public key in PEM form and returns a
// jwt.Keyfunc that validates every token against it. This is the one
// concrete validator a runnable boundary needs; matches
// original_source/auth.rs's Algorithm::EdDSA validation.
func LoadEd25519KeyFunc(path string) (jwt.Keyfunc, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.BootstrapFailure("could not read JWT public key", err)
	}
	pub, err := jwt.ParseEdPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, apperrors.BootstrapFailure("could not parse JWT public key", err)
	}
	return func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return pub, nil
	}, nil
}
