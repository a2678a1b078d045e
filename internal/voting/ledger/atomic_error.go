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

package ledger

import "sync/atomic"

// atomic32Error lets Failed() be read concurrently (from HTTP handler
// goroutines) while only ever being written once, from the writer
// goroutine, without a mutex — the same preference for atomics over locks
// on cross-goroutine status flags used by internal/ratelimiter/core's
// Worker (there via atomic.CompareAndSwapUint32/atomic.LoadInt64).
type atomic32Error struct {
	v atomic.Value // stores error
}

func (a *atomic32Error) Store(err error) {
	if err == nil {
		return
	}
	a.v.Store(errBox{err})
}

func (a *atomic32Error) Load() error {
	v := a.v.Load()
	if v == nil {
		return nil
	}
	return v.(errBox).err
}

type errBox struct{ err error }
