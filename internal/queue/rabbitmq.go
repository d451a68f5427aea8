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

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQ consumes with a prefetch of one so a worker never holds more than
// the job it is processing.
type RabbitMQ struct {
	conn *amqp.Connection

	mu         sync.Mutex
	consumeCh  *amqp.Channel
	publishCh  *amqp.Channel
	deliveries map[string]<-chan amqp.Delivery
	declared   map[string]bool
}

func DialRabbitMQ(url string, queues []string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial rabbitmq")
	}
	r := &RabbitMQ{
		conn:       conn,
		deliveries: make(map[string]<-chan amqp.Delivery),
		declared:   make(map[string]bool),
	}
	if r.consumeCh, err = conn.Channel(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "open consume channel")
	}
	if err = r.consumeCh.Qos(1, 0, false); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "set prefetch")
	}
	if r.publishCh, err = conn.Channel(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "open publish channel")
	}
	for _, q := range queues {
		if err := r.declare(q); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return r, nil
}

// declare must be called with mu held or before r is shared.
func (r *RabbitMQ) declare(queue string) error {
	if r.declared[queue] {
		return nil
	}
	if _, err := r.publishCh.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return errors.Wrapf(err, "declare queue %s", queue)
	}
	r.declared[queue] = true
	return nil
}

func (r *RabbitMQ) consume(queue string) (<-chan amqp.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.deliveries[queue]; ok {
		return ch, nil
	}
	if err := r.declare(queue); err != nil {
		return nil, err
	}
	ch, err := r.consumeCh.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "consume %s", queue)
	}
	r.deliveries[queue] = ch
	return ch, nil
}

func (r *RabbitMQ) Receive(ctx context.Context, queue string) (*Message, error) {
	ch, err := r.consume(queue)
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		id := d.MessageId
		if id == "" {
			id = strconv.FormatUint(d.DeliveryTag, 10)
		}
		return NewMessage(id, d.Body, func(context.Context) error {
			return errors.Wrap(d.Ack(false), "ack")
		}), nil
	}
}

func (r *RabbitMQ) Publish(ctx context.Context, queue string, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn.IsClosed() {
		return ErrClosed
	}
	if err := r.declare(queue); err != nil {
		return err
	}
	err := r.publishCh.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	return errors.Wrapf(err, "publish to %s", queue)
}

func (r *RabbitMQ) Close() error {
	if r.conn.IsClosed() {
		return nil
	}
	return r.conn.Close()
}
