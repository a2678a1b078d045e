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
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/voterium/votingd/internal/voting/ballot"
	"github.com/voterium/votingd/internal/voting/ledger"
	"github.com/voterium/votingd/internal/voting/pseudonym"
	"github.com/voterium/votingd/internal/voting/tally"
	"github.com/voterium/votingd/internal/voting/telemetry"
)

// publicPaths lists the routes the bearer middleware never gates, matching
// original_source/auth.rs's PUBLIC_PATHS (plus the ambient /healthz,
// /metrics, and the supplemented /voting/verify receipt lookup, which by
// design must not require the voter to still hold their token).
var publicPaths = map[string]bool{
	"/voting/config":  true,
	"/voting/results": true,
	"/voting/verify":  true,
	"/healthz":        true,
	"/metrics":        true,
}

// Server holds everything the HTTP boundary needs: the shared immutable
// configuration and the send handles for the two single-owner workers. It
// never holds mutable vote state itself.
type Server struct {
	writer *ledger.Writer
	worker *tally.Worker

	choices     ballot.Config
	lookup      tally.ChoiceLookup
	backendSalt pseudonym.BackendSalt
	vlPath      string

	enqueueTimeout time.Duration
	keyFunc        jwt.Keyfunc
	log            zerolog.Logger
}

// Config bundles Server's constructor arguments.
type Config struct {
	Writer         *ledger.Writer
	Worker         *tally.Worker
	Choices        ballot.Config
	Lookup         tally.ChoiceLookup
	BackendSalt    pseudonym.BackendSalt
	VLFilepath     string
	EnqueueTimeout time.Duration
	KeyFunc        jwt.Keyfunc
	Log            zerolog.Logger
}

// NewServer wires the chi router, following internal/ratelimiter/api's
// Server/RegisterRoutes shape, replacing the stdlib ServeMux with chi
// for path params and adding a richer middleware stack (CORS, bearer auth)
// for the boundary this package implements.
func NewServer(cfg Config) *Server {
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 2 * time.Second
	}
	return &Server{
		writer:         cfg.Writer,
		worker:         cfg.Worker,
		choices:        cfg.Choices,
		lookup:         cfg.Lookup,
		backendSalt:    cfg.BackendSalt,
		vlPath:         cfg.VLFilepath,
		enqueueTimeout: cfg.EnqueueTimeout,
		keyFunc:        cfg.KeyFunc,
		log:            cfg.Log.With().Str("component", "api.server").Logger(),
	}
}

// Handler builds the full chi mux: request logging and recovery first, then
// CORS, then the bearer gate (skipped for publicPaths), then the routes.
func (s *Server) Handler(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(s.gateByPublicPath)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", telemetry.Handler().ServeHTTP)
	r.Route("/voting", func(r chi.Router) {
		r.Post("/vote", s.handleSubmitVote)
		r.Get("/results", s.handleResults)
		r.Get("/config", s.handleConfig)
		r.Get("/verify", s.handleVerify)
	})
	return r
}

// gateByPublicPath applies bearerMiddleware to every route except
// publicPaths, matching original_source/auth.rs's jwt_middleware path
// allowlist, expressed as a chi-compatible wrapper rather than an
// actix-web service transform.
func (s *Server) gateByPublicPath(next http.Handler) http.Handler {
	authed := bearerMiddleware(s.keyFunc)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		authed.ServeHTTP(w, r)
	})
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
