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

// Package obslog builds the single zerolog.Logger instance threaded through
// the workers and the HTTP boundary, replacing bare fmt.Println/log.Fatalf
// calls and the original Rust source's log::info! macros with structured,
// leveled logging.
package obslog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options controls the logger's format and verbosity.
type Options struct {
	// Pretty selects the human-readable console writer (for local runs);
	// the default is newline-delimited JSON (for production log shipping).
	Pretty bool
	Level  zerolog.Level
}

// New builds a logger writing to w (os.Stdout in production) with a
// service-wide "service" field; callers add a "component" field per
// subsystem via Logger.With(), same as internal/ratelimiter does.
func New(w io.Writer, opts Options) zerolog.Logger {
	var out io.Writer = w
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(out).
		Level(opts.Level).
		With().
		Timestamp().
		Str("service", "votingd").
		Logger()
}

// Default builds a production-shaped logger at info level, writing JSON to
// stdout.
func Default() zerolog.Logger {
	return New(os.Stdout, Options{Level: zerolog.InfoLevel})
}
