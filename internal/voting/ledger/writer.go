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

// Package ledger owns the two append-only files the engine persists
// ballots to: the count ledger (CL) and the verification ledger (VL).
// Exactly one goroutine, the Writer, ever touches the file handles; every
// other package talks to it only through WriteRequest.
package ledger

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/voterium/votingd/internal/voting/apperrors"
	"github.com/voterium/votingd/internal/voting/telemetry"
)

// WriteRequest is the single message type the Writer consumes. CLLine and
// VLLine are already-formatted records (see FormatCLLine/FormatVLLine); the
// Writer itself never interprets ballot fields, only bytes.
//
// Reply is optional. When set, the Writer signals success (nil) or the
// fatal I/O error once both lines have been written. The HTTP submission
// handler always sets Reply and waits on it, so a ballot is acknowledged
// only after both writes have returned (the files are not fsynced).
type WriteRequest struct {
	CLLine []byte
	VLLine []byte
	Reply  chan<- error
}

// Writer is the single-consumer owner of the CL and VL file handles.
// Construct with NewWriter, then call Start/Stop exactly once each,
// following the Start/Stop/stopChan goroutine lifecycle of
// internal/ratelimiter/core's Worker.
type Writer struct {
	requests chan WriteRequest
	cl       *os.File
	vl       *os.File
	log      zerolog.Logger

	stopChan chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// fatal is set once an unrecoverable I/O error has ended the consume
	// loop early; Failed() lets the HTTP boundary start rejecting new
	// submissions instead of enqueuing into a writer that has exited.
	fatal atomic32Error
}

// NewWriter opens (or creates) the CL and VL files in append-only mode and
// returns a Writer ready to Start. queueSize should be around 10,000 to
// give the channel enough depth to absorb bursts without blocking callers.
func NewWriter(clPath, vlPath string, queueSize int, log zerolog.Logger) (*Writer, error) {
	cl, err := os.OpenFile(clPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, apperrors.BootstrapFailure("Could not open count ledger", err)
	}
	vl, err := os.OpenFile(vlPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		cl.Close()
		return nil, apperrors.BootstrapFailure("Could not open verification ledger", err)
	}
	return &Writer{
		requests: make(chan WriteRequest, queueSize),
		cl:       cl,
		vl:       vl,
		log:      log.With().Str("component", "ledger.writer").Logger(),
		stopChan: make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Requests returns the channel submission handlers enqueue onto. Sends
// should use a timeout/select against a deadline to surface Backpressure
// rather than blocking forever.
func (w *Writer) Requests() chan<- WriteRequest { return w.requests }

// Failed reports whether the writer has stopped due to a fatal I/O error.
func (w *Writer) Failed() error { return w.fatal.Load() }

// Start launches the single consumer goroutine. Order is fixed: CL before
// VL. If a crash happens between the two writes, VL may be missing the
// receipt for a ballot that is already counted; receipts can be
// regenerated by replay from CL, but never the reverse.
func (w *Writer) Start() {
	go w.run()
}

func (w *Writer) run() {
	defer close(w.stopped)
	w.log.Info().Msg("ledger writer started")
	for {
		select {
		case req := <-w.requests:
			telemetry.SetLedgerQueueDepth(len(w.requests))
			err := w.writeOne(req)
			if req.Reply != nil {
				req.Reply <- err
			}
			if err != nil {
				w.fatal.Store(err)
				w.log.Error().Err(err).Msg("ledger writer encountered a fatal I/O error; exiting")
				return
			}
		case <-w.stopChan:
			w.drainAndClose()
			return
		}
	}
}

// drainAndClose flushes any requests already queued before Stop was called
// so a graceful shutdown does not silently drop ballots that are already
// in the channel buffer.
func (w *Writer) drainAndClose() {
	for {
		select {
		case req := <-w.requests:
			telemetry.SetLedgerQueueDepth(len(w.requests))
			err := w.writeOne(req)
			if req.Reply != nil {
				req.Reply <- err
			}
			if err != nil {
				w.fatal.Store(err)
				w.log.Error().Err(err).Msg("ledger writer fatal I/O error during drain")
				return
			}
		default:
			telemetry.SetLedgerQueueDepth(0)
			w.log.Info().Msg("ledger writer stopped")
			return
		}
	}
}

func (w *Writer) writeOne(req WriteRequest) error {
	if err := writeFull(w.cl, req.CLLine); err != nil {
		return apperrors.IOFailure("count ledger write failed", err)
	}
	if err := writeFull(w.vl, req.VLLine); err != nil {
		return apperrors.IOFailure("verification ledger write failed", err)
	}
	return nil
}

// writeFull retries partial (short) writes until the whole line has been
// written.
func writeFull(f *os.File, line []byte) error {
	for len(line) > 0 {
		n, err := f.Write(line)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("zero-length write with %d bytes remaining", len(line))
		}
		line = line[n:]
	}
	return nil
}

// Stop signals the writer to drain its queue and exit, then waits for it
// to do so. Safe to call more than once.
func (w *Writer) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	<-w.stopped
	w.cl.Close()
	w.vl.Close()
}
