/*
Copyright 2021 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package backoff implements decorrelated-jitter retry delay, used to
// space out retry attempts against the ledger transport (ledger's
// RetryingClient and the ledger-delta watcher).
package backoff

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/gravitational/trace"
)

// Backoff computes successive decorrelated-jitter delays.
type Backoff interface {
	// Do sleeps for the next delay, or returns ctx.Err() if ctx is done first.
	Do(ctx context.Context) error
}

// Decorr returns a Backoff whose delays start near base and grow up to
// cap, following the "decorrelated jitter" algorithm: each delay is drawn
// uniformly from [base, prev*3], capped at cap.
func Decorr(base, cap time.Duration) Backoff {
	return &decorr{base: base, cap: cap, prev: base}
}

type decorr struct {
	mu   sync.Mutex
	base time.Duration
	cap  time.Duration
	prev time.Duration
}

func (d *decorr) Do(ctx context.Context) error {
	d.mu.Lock()
	top := float64(d.prev) * 3
	if top < float64(d.base) {
		top = float64(d.base)
	}
	delay := time.Duration(float64(d.base) + rand.Float64()*(top-float64(d.base)))
	if delay > d.cap {
		delay = d.cap
	}
	d.prev = delay
	d.mu.Unlock()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return trace.Wrap(ctx.Err())
	}
}
