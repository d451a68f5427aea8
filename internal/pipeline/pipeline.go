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

package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/cloudwego/transworker/internal/job"
)

// Step is one stage of a job. A failed run reports whether retrying the same
// step may help through StepResult.Recoverable.
type Step interface {
	Name() string
	Run(ctx context.Context, st *JobState) (*StepResult, error)
}

// StepResult is what a step reports back to the Pipeline.
type StepResult struct {
	Status      StepStatus
	Recoverable bool
	Snapshot    *Snapshot
}

// Pipeline runs steps in sequence with retries driven by the Agent.
type Pipeline struct {
	Steps []Step
	Agent Agent
}

// Run executes all steps. A step the Agent gives up on while its failure was
// still recoverable ends the run with ErrMaxRetriesExceeded.
func (p *Pipeline) Run(ctx context.Context, st *JobState) error {
	if p.Agent == nil {
		p.Agent = &DefaultAgent{MaxRetry: 1}
	}
	for _, step := range p.Steps {
		if err := p.runStep(ctx, step, st); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runStep(ctx context.Context, step Step, st *JobState) error {
	attempt := 0
	for {
		attempt++
		start := time.Now()
		result, err := step.Run(ctx, st)
		if result != nil && result.Snapshot != nil {
			applySnapshot(st, result.Snapshot)
		}
		if err == nil && result != nil && result.Status == StepOK {
			st.History = append(st.History, StepRecord{
				StepName: step.Name(),
				Attempt:  attempt,
				Status:   StepOK,
				Time:     start,
				Duration: time.Since(start),
			})
			return nil
		}

		if result == nil {
			result = &StepResult{Status: StepFailed, Recoverable: true}
		}
		if result.Status == StepOK {
			result = &StepResult{Status: StepFailed, Recoverable: false}
		}
		if err == nil {
			err = errors.Errorf("step %s failed", step.Name())
		}

		st.History = append(st.History, StepRecord{
			StepName: step.Name(),
			Attempt:  attempt,
			Status:   result.Status,
			Cause:    CauseOf(err),
			Error:    err.Error(),
			Time:     start,
			Duration: time.Since(start),
		})

		switch p.Agent.OnStepFailure(ctx, step, st, result, attempt) {
		case DecisionRetry:
			st.log().Info("step %s attempt %d failed, retrying: %v", step.Name(), attempt, err)
			continue
		default:
			if result.Recoverable {
				return &JobError{
					Cause: job.CauseMaxRetriesExceeded,
					Err:   errors.Wrapf(err, "step %s gave up after %d attempts", step.Name(), attempt),
				}
			}
			return errors.WithMessagef(err, "step %s", step.Name())
		}
	}
}

// applySnapshot updates state from a step-produced snapshot by kind.
func applySnapshot(st *JobState, snap *Snapshot) {
	if st == nil || snap == nil {
		return
	}
	switch snap.Kind {
	case KindSource:
		st.Source = snap
	case KindCandidate:
		st.Candidate = snap
	}
}
