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

// Package queue abstracts the message broker that carries translation jobs
// in and result notifications out.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrClosed is returned by a broker after Close, or once its connection is
// gone and it has to be dialed again.
var ErrClosed = errors.New("queue: broker closed")

// Kind selects a broker backend.
type Kind string

const (
	KindRabbitMQ Kind = "rabbitmq"
	KindRedis    Kind = "redis"
	KindSQS      Kind = "sqs"
	KindMemory   Kind = "memory"
)

// Message is one delivery. It must be acknowledged exactly once; later Ack
// calls are no-ops.
type Message struct {
	ID   string
	Body []byte

	once sync.Once
	ack  func(ctx context.Context) error
}

func NewMessage(id string, body []byte, ack func(ctx context.Context) error) *Message {
	return &Message{ID: id, Body: body, ack: ack}
}

func (m *Message) Ack(ctx context.Context) error {
	var err error
	m.once.Do(func() {
		if m.ack != nil {
			err = m.ack(ctx)
		}
	})
	return err
}

// Broker moves opaque message bodies between named queues.
type Broker interface {
	// Receive blocks until a message is available on queue or ctx is done.
	Receive(ctx context.Context, queue string) (*Message, error)
	Publish(ctx context.Context, queue string, body []byte) error
	Close() error
}

// Options configures Dial.
type Options struct {
	Kind Kind
	// URL is the broker address: amqp://, redis:// or, for SQS, an optional
	// endpoint override.
	URL    string
	Region string
	// Queues are declared up front where the backend supports it.
	Queues []string

	ConnectAttempts int
	ConnectBackoff  time.Duration
	// PollTimeout bounds a single blocking receive on Redis and SQS.
	PollTimeout time.Duration
}

const DefaultPollTimeout = 5 * time.Second

// Dial opens a broker of the configured kind, retrying the initial
// connection with backoff.
func Dial(ctx context.Context, opts Options) (Broker, error) {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	var dial func(ctx context.Context) (Broker, error)
	switch opts.Kind {
	case KindRabbitMQ:
		dial = func(ctx context.Context) (Broker, error) { return DialRabbitMQ(opts.URL, opts.Queues) }
	case KindRedis:
		dial = func(ctx context.Context) (Broker, error) { return DialRedis(ctx, opts.URL, opts.PollTimeout) }
	case KindSQS:
		dial = func(ctx context.Context) (Broker, error) {
			return DialSQS(ctx, opts.Region, opts.URL, opts.PollTimeout)
		}
	case KindMemory:
		return NewMemory(), nil
	default:
		return nil, errors.Errorf("queue: unknown broker kind %q", opts.Kind)
	}
	return Connect(ctx, opts.ConnectAttempts, opts.ConnectBackoff, dial)
}
