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

// Package main wires the voting engine together: load configuration,
// spawn the ledger writer and tally worker, serve HTTP, and shut down in
// the order that never loses an already-durable ballot. Grounded on
// etalazz-vsa's cmd/ratelimiter-api/main.go — flags for operational knobs,
// a signal channel for graceful shutdown, workers started before the
// listener and stopped in reverse dependency order.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voterium/votingd/internal/voting/api"
	"github.com/voterium/votingd/internal/voting/config"
	"github.com/voterium/votingd/internal/voting/ledger"
	"github.com/voterium/votingd/internal/voting/obslog"
	"github.com/voterium/votingd/internal/voting/pseudonym"
	"github.com/voterium/votingd/internal/voting/tally"
	"github.com/voterium/votingd/internal/voting/telemetry"
)

func main() {
	httpAddr := flag.String("http_addr", ":8080", "HTTP listen address")
	ledgerQueueSize := flag.Int("ledger_queue_size", 10000, "Ledger writer buffered channel size")
	tallyQueueSize := flag.Int("tally_queue_size", 10000, "Tally worker buffered channel size")
	enqueueTimeout := flag.Duration("enqueue_timeout", 2*time.Second, "How long a submission waits for ledger queue space before returning Backpressure")
	shutdownTimeout := flag.Duration("shutdown_timeout", 10*time.Second, "Bound on graceful HTTP shutdown")
	corsOrigins := flag.String("cors_origins", "*", "Comma-separated list of allowed CORS origins")
	pretty := flag.Bool("pretty_logs", false, "Use a human-readable console log format instead of JSON")
	flag.Parse()

	log := obslog.New(os.Stdout, obslog.Options{Pretty: *pretty})

	env, err := config.LoadEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}

	choices, err := config.LoadChoices(env.ConfigFilepath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load choice configuration")
	}

	backendSalt, err := pseudonym.ParseBackendSalt(env.BackendSaltB64)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid BACKEND_SALT")
	}

	var keyFunc jwt.Keyfunc
	if env.JWTPublicKeyPath != "" {
		keyFunc, err = api.LoadEd25519KeyFunc(env.JWTPublicKeyPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load JWT public key")
		}
	}

	choiceKeys := make([]string, len(choices.Choices))
	for i, c := range choices.Choices {
		choiceKeys[i] = c.Key
	}
	lookup := tally.NewChoiceLookup(choiceKeys)

	writer, err := ledger.NewWriter(env.CLFilepath, env.VLFilepath, *ledgerQueueSize, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open ledgers")
	}

	worker := tally.NewWorker(lookup, len(choices.Choices), *tallyQueueSize, log)
	bootstrapStart := time.Now()
	if err := worker.Bootstrap(env.CLFilepath); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap tally from count ledger")
	}
	telemetry.ObserveBootstrap(time.Since(bootstrapStart))

	writer.Start()
	worker.Start()

	srv := api.NewServer(api.Config{
		Writer:         writer,
		Worker:         worker,
		Choices:        choices,
		Lookup:         lookup,
		BackendSalt:    backendSalt,
		VLFilepath:     env.VLFilepath,
		EnqueueTimeout: *enqueueTimeout,
		KeyFunc:        keyFunc,
		Log:            log,
	})

	origins := strings.Split(*corsOrigins, ",")
	httpServer := &http.Server{
		Addr:         *httpAddr,
		Handler:      srv.Handler(origins),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", *httpAddr).Msg("votingd listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}

	writer.Stop()
	worker.Stop()

	log.Info().Msg("votingd stopped")
}
