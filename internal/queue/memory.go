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
	"strconv"
	"sync"
	"sync/atomic"
)

const memoryQueueSize = 1024

// Memory is an in-process broker for tests and local runs.
type Memory struct {
	mu     sync.Mutex
	queues map[string]chan []byte
	done   chan struct{}
	closed bool

	seq   atomic.Int64
	acked atomic.Int64
}

func NewMemory() *Memory {
	return &Memory{queues: make(map[string]chan []byte), done: make(chan struct{})}
}

func (m *Memory) queue(name string) chan []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		q = make(chan []byte, memoryQueueSize)
		m.queues[name] = q
	}
	return q
}

func (m *Memory) Receive(ctx context.Context, queue string) (*Message, error) {
	q := m.queue(queue)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, ErrClosed
	case body := <-q:
		id := strconv.FormatInt(m.seq.Add(1), 10)
		return NewMessage(id, body, func(context.Context) error {
			m.acked.Add(1)
			return nil
		}), nil
	}
}

func (m *Memory) Publish(ctx context.Context, queue string, body []byte) error {
	q := m.queue(queue)
	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q <- append([]byte(nil), body...):
		return nil
	}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Len is the number of messages waiting on queue.
func (m *Memory) Len(queue string) int {
	return len(m.queue(queue))
}

// Acked counts acknowledged deliveries.
func (m *Memory) Acked() int {
	return int(m.acked.Load())
}
