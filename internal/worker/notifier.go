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

package worker

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cloudwego/transworker/internal/job"
	"github.com/cloudwego/transworker/internal/log"
	"github.com/cloudwego/transworker/internal/store"
)

// Publisher is the publishing half of a queue.Broker.
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// Journal records results before they are published. *store.Journal
// implements it.
type Journal interface {
	Record(ctx context.Context, r job.Result, payload []byte) error
	MarkPublished(ctx context.Context, jobID string) error
}

// Notifier publishes one result message per job. A failed publish is logged
// and returned but never retried.
type Notifier struct {
	Queue   string
	Journal Journal // optional
}

func NewNotifier(queue string, journal Journal) *Notifier {
	return &Notifier{Queue: queue, Journal: journal}
}

func (n *Notifier) Notify(ctx context.Context, pub Publisher, r job.Result) error {
	body, err := r.Encode()
	if err != nil {
		return errors.Wrap(err, "encode result")
	}
	if n.Journal != nil {
		if err := n.Journal.Record(ctx, r, body); err != nil {
			log.Warn("journal record for job %s failed: %v", r.JobID, err)
		}
	}
	if err := pub.Publish(ctx, n.Queue, body); err != nil {
		log.Error("publishing result of job %s to %s failed, not retrying: %v", r.JobID, n.Queue, err)
		return err
	}
	log.Info("published result of job %s (%s) to %s", r.JobID, r.Status, n.Queue)
	if n.Journal != nil {
		if err := n.Journal.MarkPublished(ctx, r.JobID); err != nil {
			log.Warn("journal mark for job %s failed: %v", r.JobID, err)
		}
	}
	return nil
}

// Republish sends journaled notifications again and marks each one that goes
// out. It stops at the first publish error.
func (n *Notifier) Republish(ctx context.Context, pub Publisher, entries []store.Entry) (int, error) {
	sent := 0
	for _, e := range entries {
		if err := pub.Publish(ctx, n.Queue, e.Payload); err != nil {
			return sent, errors.Wrapf(err, "republish job %s", e.JobID)
		}
		sent++
		if n.Journal != nil {
			if err := n.Journal.MarkPublished(ctx, e.JobID); err != nil {
				return sent, err
			}
		}
		log.Info("republished result of job %s", e.JobID)
	}
	return sent, nil
}
