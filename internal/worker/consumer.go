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

// Package worker pulls translation jobs off the inbound queue, runs them to
// completion one at a time and publishes their results.
package worker

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/cloudwego/transworker/internal/job"
	"github.com/cloudwego/transworker/internal/log"
	"github.com/cloudwego/transworker/internal/queue"
)

const (
	DefaultReconnectDelay = 5 * time.Second
	settleTimeout         = 30 * time.Second
)

// Runner takes a job to a terminal state. *pipeline.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, j job.Job) job.Result
}

// Sweeper empties the consumer's private work area.
type Sweeper interface {
	Sweep() error
}

type Config struct {
	ID             string
	InboundQueue   string
	ReconnectDelay time.Duration
}

// Consumer processes one message at a time. Parsed jobs are acknowledged once
// they reach a terminal state, whatever the outcome; malformed messages are
// acknowledged and dropped.
type Consumer struct {
	cfg      Config
	dial     func(ctx context.Context) (queue.Broker, error)
	runner   Runner
	notifier *Notifier
	sweeper  Sweeper
	logger   *log.Logger

	processed int
	dropped   int
}

// NewConsumer wires a consumer. dial is called at start and after the broker
// connection is lost; it should carry its own bounded retry (see queue.Dial).
func NewConsumer(cfg Config, dial func(ctx context.Context) (queue.Broker, error), runner Runner, notifier *Notifier, sweeper Sweeper) *Consumer {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	return &Consumer{
		cfg:      cfg,
		dial:     dial,
		runner:   runner,
		notifier: notifier,
		sweeper:  sweeper,
		logger:   log.With("consumer", cfg.ID),
	}
}

// Run consumes until ctx is cancelled, which is not an error. A job in
// flight when ctx is cancelled still runs to completion. Run fails only when
// the broker cannot be dialed.
func (c *Consumer) Run(ctx context.Context) error {
	c.sweep()
	defer c.sweep()

	for {
		broker, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "dial broker")
		}
		c.logger.Info("waiting for jobs on %s", c.cfg.InboundQueue)
		err = c.loop(ctx, broker)
		if cerr := broker.Close(); cerr != nil {
			c.logger.Warn("closing broker: %v", cerr)
		}
		if ctx.Err() != nil {
			c.logger.Info("stopped after %d jobs (%d dropped)", c.processed, c.dropped)
			return nil
		}
		c.logger.Warn("broker connection lost: %v; reconnecting in %s", err, c.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

func (c *Consumer) loop(ctx context.Context, broker queue.Broker) error {
	for {
		msg, err := broker.Receive(ctx, c.cfg.InboundQueue)
		if err != nil {
			return err
		}
		c.handle(ctx, broker, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, broker queue.Broker, msg *queue.Message) {
	// shutdown must not interrupt a job, its notification or its ack
	ctx = context.WithoutCancel(ctx)

	j, err := job.Parse(msg.Body)
	if err != nil {
		c.dropped++
		c.logger.Warn("dropping malformed message %s: %v", msg.ID, err)
		c.ack(ctx, msg)
		return
	}

	res := c.runner.Run(ctx, j)
	c.processed++

	nctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	if c.notifier != nil {
		// logged by the notifier; the job stays acknowledged
		_ = c.notifier.Notify(nctx, broker, res)
	}
	c.ack(nctx, msg)
}

func (c *Consumer) ack(ctx context.Context, msg *queue.Message) {
	if err := msg.Ack(ctx); err != nil {
		c.logger.Error("ack of message %s failed: %v", msg.ID, err)
	}
}

func (c *Consumer) sweep() {
	if c.sweeper == nil {
		return
	}
	if err := c.sweeper.Sweep(); err != nil {
		c.logger.Warn("work dir sweep failed: %v", err)
	}
}

// Stats reports how many jobs were run and how many messages were dropped.
// Only call it after Run has returned.
func (c *Consumer) Stats() (processed, dropped int) {
	return c.processed, c.dropped
}
