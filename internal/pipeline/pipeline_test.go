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
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/transworker/internal/job"
)

// mockStepOK returns StepOK with an optional snapshot.
type mockStepOK struct {
	name string
	snap *Snapshot
}

func (m *mockStepOK) Name() string {
	if m.name != "" {
		return m.name
	}
	return "mock-ok"
}

func (m *mockStepOK) Run(ctx context.Context, st *JobState) (*StepResult, error) {
	return &StepResult{Status: StepOK, Snapshot: m.snap}, nil
}

// mockStepFail fails the first `fails` runs, then succeeds.
type mockStepFail struct {
	recoverable bool
	fails       int
	cause       job.Cause
	runs        int
}

func (m *mockStepFail) Name() string { return "mock-fail" }

func (m *mockStepFail) Run(ctx context.Context, st *JobState) (*StepResult, error) {
	m.runs++
	if m.fails >= 0 && m.runs > m.fails {
		return &StepResult{Status: StepOK}, nil
	}
	var err error
	if m.cause != "" {
		err = newJobError(m.cause, errors.New("boom"))
	}
	return &StepResult{
		Status:      StepFailed,
		Recoverable: m.recoverable,
		Snapshot:    NewSnapshot(KindCandidate, "attempt"),
	}, err
}

func TestPipeline_Run_Success(t *testing.T) {
	st := &JobState{Job: job.Job{ID: "run-1"}}
	snap := NewSnapshot(KindSource, "int main() {}")

	pl := &Pipeline{
		Steps: []Step{&mockStepOK{name: "load", snap: snap}, &mockStepOK{name: "promote"}},
		Agent: &DefaultAgent{MaxRetry: 1},
	}
	require.NoError(t, pl.Run(context.Background(), st))
	assert.Equal(t, snap, st.Source)
	require.Len(t, st.History, 2)
	assert.Equal(t, "load", st.History[0].StepName)
	assert.Equal(t, StepOK, st.History[1].Status)
}

func TestPipeline_Run_RetryThenOK(t *testing.T) {
	st := &JobState{}
	step := &mockStepFail{recoverable: true, fails: 2, cause: job.CauseCompileFailure}
	pl := &Pipeline{Steps: []Step{step}, Agent: &DefaultAgent{MaxRetry: 2}}

	require.NoError(t, pl.Run(context.Background(), st))
	assert.Equal(t, 3, step.runs)
	require.Len(t, st.History, 3)
	assert.Equal(t, job.CauseCompileFailure, st.History[0].Cause)
	assert.Equal(t, StepOK, st.History[2].Status)
	assert.Equal(t, KindCandidate, st.Candidate.Kind, "failed runs still publish their snapshot")
}

func TestPipeline_Run_Exhausted(t *testing.T) {
	for _, maxRetry := range []int{0, 1, 4} {
		st := &JobState{}
		step := &mockStepFail{recoverable: true, fails: -1, cause: job.CauseCompileFailure}
		pl := &Pipeline{Steps: []Step{step, &mockStepOK{}}, Agent: &DefaultAgent{MaxRetry: maxRetry}}

		err := pl.Run(context.Background(), st)
		require.Error(t, err)
		assert.Equal(t, maxRetry+1, step.runs)
		assert.Equal(t, job.CauseMaxRetriesExceeded, CauseOf(err))
		assert.True(t, errors.Is(err, ErrMaxRetriesExceeded))
		assert.True(t, errors.Is(err, ErrCompileFailure))
		assert.Len(t, st.History, maxRetry+1)
	}
}

func TestPipeline_Run_Unrecoverable(t *testing.T) {
	st := &JobState{}
	step := &mockStepFail{recoverable: false, fails: -1, cause: job.CauseOracleUnavailable}
	pl := &Pipeline{Steps: []Step{step}, Agent: &DefaultAgent{MaxRetry: 5}}

	err := pl.Run(context.Background(), st)
	require.Error(t, err)
	assert.Equal(t, 1, step.runs)
	assert.Equal(t, job.CauseOracleUnavailable, CauseOf(err))
	assert.True(t, errors.Is(err, ErrOracleUnavailable))
	assert.Contains(t, err.Error(), "step mock-fail")
}

func TestPipeline_Run_NilResult(t *testing.T) {
	st := &JobState{}
	pl := &Pipeline{Steps: []Step{stepFunc(func() (*StepResult, error) { return nil, nil })}, Agent: &DefaultAgent{MaxRetry: 1}}

	err := pl.Run(context.Background(), st)
	require.Error(t, err)
	assert.Len(t, st.History, 2, "a nil result counts as a recoverable failure")
	assert.Equal(t, job.CauseMaxRetriesExceeded, CauseOf(err))
}

type stepFunc func() (*StepResult, error)

func (f stepFunc) Name() string { return "func" }

func (f stepFunc) Run(ctx context.Context, st *JobState) (*StepResult, error) { return f() }

func TestDefaultAgent(t *testing.T) {
	a := &DefaultAgent{MaxRetry: 1}
	ctx := context.Background()
	assert.Equal(t, DecisionRetry, a.OnStepFailure(ctx, nil, nil, &StepResult{Recoverable: true}, 1))
	assert.Equal(t, DecisionAbort, a.OnStepFailure(ctx, nil, nil, &StepResult{Recoverable: true}, 2))
	assert.Equal(t, DecisionAbort, a.OnStepFailure(ctx, nil, nil, &StepResult{Recoverable: false}, 1))
}

func TestSnapshot(t *testing.T) {
	a := NewSnapshot(KindCandidate, "class A {}")
	b := NewSnapshot(KindCandidate, "class A {}")
	c := NewSnapshot(KindCandidate, "class B {}")
	assert.True(t, a.Same(b))
	assert.False(t, a.Same(c))
	assert.False(t, a.Same(nil))
	assert.Len(t, a.Hash, 64)
	assert.Equal(t, "", (*Snapshot)(nil).Text())
}

func TestCauseOf(t *testing.T) {
	assert.Equal(t, job.CauseNone, CauseOf(nil))
	assert.Equal(t, job.CauseArtifactIO, CauseOf(errors.New("disk full")))
	wrapped := errors.Wrap(newJobError(job.CauseSourceMissing, errors.New("gone")), "load")
	assert.Equal(t, job.CauseSourceMissing, CauseOf(wrapped))
	assert.True(t, errors.Is(wrapped, ErrSourceMissing))
	assert.Equal(t, "SourceMissing: gone", newJobError(job.CauseSourceMissing, errors.New("gone")).Error())
}
