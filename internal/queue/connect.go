// Copyright 2025 ByteDance Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package queue

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/cloudwego/transworker/internal/log"
)

// Connect calls dial until it succeeds, at most attempts times, waiting delay
// between tries. attempts <= 0 means a single try.
func Connect(ctx context.Context, attempts int, delay time.Duration, dial func(ctx context.Context) (Broker, error)) (Broker, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var b backoff.BackOff = backoff.NewConstantBackOff(delay)
	b = backoff.WithMaxRetries(b, uint64(attempts-1))
	b = backoff.WithContext(b, ctx)

	try := 0
	broker, err := backoff.RetryNotifyWithData(func() (Broker, error) {
		try++
		br, err := dial(ctx)
		if err != nil && ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return br, err
	}, b, func(err error, wait time.Duration) {
		log.Warn("broker connection attempt %d/%d failed: %v; retrying in %s", try, attempts, err, wait)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "connect to broker after %d attempts", try)
	}
	log.Info("connected to broker")
	return broker, nil
}
