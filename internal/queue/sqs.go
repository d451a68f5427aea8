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
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/pkg/errors"
)

// SQS long-polls one message at a time; acknowledging deletes it.
type SQS struct {
	client      *sqs.Client
	pollTimeout time.Duration

	mu   sync.Mutex
	urls map[string]string
}

// DialSQS loads the default AWS configuration. endpoint, when set, overrides
// the service endpoint (e.g. a local emulator).
func DialSQS(ctx context.Context, region, endpoint string, pollTimeout time.Duration) (*SQS, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	client := sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewSQS(client, pollTimeout), nil
}

func NewSQS(client *sqs.Client, pollTimeout time.Duration) *SQS {
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	return &SQS{client: client, pollTimeout: pollTimeout, urls: make(map[string]string)}
}

// queueURL resolves a queue name; full URLs pass through.
func (s *SQS) queueURL(ctx context.Context, queue string) (string, error) {
	if isURL(queue) {
		return queue, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.urls[queue]; ok {
		return u, nil
	}
	out, err := s.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(queue)})
	if err != nil {
		return "", errors.Wrapf(err, "resolve queue %s", queue)
	}
	u := aws.ToString(out.QueueUrl)
	s.urls[queue] = u
	return u, nil
}

func (s *SQS) Receive(ctx context.Context, queue string) (*Message, error) {
	u, err := s.queueURL(ctx, queue)
	if err != nil {
		return nil, err
	}
	wait := waitSeconds(s.pollTimeout)
	for {
		out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(u),
			MaxNumberOfMessages: 1,
			WaitTimeSeconds:     wait,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.Wrapf(err, "receive from %s", queue)
		}
		if len(out.Messages) == 0 {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		m := out.Messages[0]
		receipt := m.ReceiptHandle
		return NewMessage(aws.ToString(m.MessageId), []byte(aws.ToString(m.Body)), func(ctx context.Context) error {
			_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(u),
				ReceiptHandle: receipt,
			})
			return errors.Wrap(err, "delete message")
		}), nil
	}
}

func (s *SQS) Publish(ctx context.Context, queue string, body []byte) error {
	u, err := s.queueURL(ctx, queue)
	if err != nil {
		return err
	}
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(u),
		MessageBody: aws.String(string(body)),
	})
	return errors.Wrapf(err, "publish to %s", queue)
}

func (s *SQS) Close() error { return nil }

// waitSeconds maps the poll timeout to a long-poll wait of 1 to 20 seconds;
// zero would make an empty queue spin on short polls.
func waitSeconds(poll time.Duration) int32 {
	wait := int32(poll / time.Second)
	if wait < 1 {
		return 1
	}
	if wait > 20 {
		return 20
	}
	return wait
}

func isURL(s string) bool {
	return len(s) > 8 && (s[:7] == "http://" || s[:8] == "https://")
}
