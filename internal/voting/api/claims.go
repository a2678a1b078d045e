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

// Package api is the HTTP boundary: a chi router, a JWT bearer-token
// middleware, and handlers that translate requests into calls against the
// ledger writer and tally worker. It is the one concrete implementation a
// runnable deployment needs in front of the core write-and-tally engine.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voterium/votingd/internal/voting/apperrors"
)

var errMissingBearer = errors.New("missing or invalid Authorization header")

// VoterClaims is the shape the core needs out of a bearer token: the
// authenticated subject and the per-voter salt used by the pseudonymization
// hash. Mirrors original_source/models.rs's Claims{sub, salt}, expressed as
// JWT registered + custom claims.
type VoterClaims struct {
	jwt.RegisteredClaims
	Salt string `json:"salt"`
}

type claimsKey struct{}

func withClaims(ctx context.Context, c VoterClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// claimsFromContext retrieves the claims bearerMiddleware attached to the
// request context. Handlers on authenticated routes may assume it is
// present; bearerMiddleware (applied by gateByPublicPath) fails the
// request before they run otherwise.
func claimsFromContext(ctx context.Context) (VoterClaims, bool) {
	c, ok := ctx.Value(claimsKey{}).(VoterClaims)
	return c, ok
}

// bearerMiddleware validates the Authorization header against the
// configured public key and attaches the resulting claims to the request
// context. Grounded on original_source/auth.rs's jwt_middleware/validate_jwt,
// using golang-jwt/jwt/v5 in place of jsonwebtoken + EdDSA validation.
func bearerMiddleware(keyFunc jwt.Keyfunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, apperrors.AuthFailure(err.Error()))
				return
			}
			claims := VoterClaims{}
			parsed, err := jwt.ParseWithClaims(token, &claims, keyFunc, jwt.WithValidMethods([]string{"EdDSA"}))
			if err != nil || !parsed.Valid {
				writeError(w, apperrors.AuthFailure("invalid or expired token"))
				return
			}
			r = r.WithContext(withClaims(r.Context(), claims))
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || h[:len(prefix)] != prefix {
		return "", errMissingBearer
	}
	return h[len(prefix):], nil
}
