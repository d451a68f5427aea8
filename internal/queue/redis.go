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
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ProcessingSuffix names the list holding deliveries that were received but
// not yet acknowledged.
const ProcessingSuffix = ":processing"

// Redis uses lists: RPUSH to publish, BLMOVE into a processing list to
// receive, LREM from the processing list to acknowledge.
type Redis struct {
	client      *redis.Client
	pollTimeout time.Duration
}

func DialRedis(ctx context.Context, url string, pollTimeout time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return NewRedis(client, pollTimeout), nil
}

func NewRedis(client *redis.Client, pollTimeout time.Duration) *Redis {
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	return &Redis{client: client, pollTimeout: pollTimeout}
}

func (r *Redis) Receive(ctx context.Context, queue string) (*Message, error) {
	processing := queue + ProcessingSuffix
	for {
		body, err := r.client.BLMove(ctx, queue, processing, "LEFT", "RIGHT", r.pollTimeout).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, redis.ErrClosed) {
				return nil, ErrClosed
			}
			return nil, errors.Wrapf(err, "receive from %s", queue)
		}
		return NewMessage(digest(body), []byte(body), func(ctx context.Context) error {
			return errors.Wrap(r.client.LRem(ctx, processing, 1, body).Err(), "ack")
		}), nil
	}
}

func (r *Redis) Publish(ctx context.Context, queue string, body []byte) error {
	return errors.Wrapf(r.client.RPush(ctx, queue, body).Err(), "publish to %s", queue)
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func digest(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:8])
}
