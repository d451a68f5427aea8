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
	"time"

	"github.com/cloudwego/transworker/internal/artifact"
	"github.com/cloudwego/transworker/internal/job"
	"github.com/cloudwego/transworker/internal/log"
)

// JobState is everything one job knows about itself. It is owned by a single
// Pipeline run and never shared between jobs.
type JobState struct {
	Job        job.Job
	Identifier string
	Arena      *artifact.Arena

	SourcePath string
	Source     *Snapshot // raw C++ text
	Hints      []string

	// Attempts counts generations started so far; the current attempt index
	// is Attempts-1 while a translate step runs.
	Attempts     int
	Compilations int
	Candidate    *Snapshot // latest candidate, type name enforced, no package line
	Log          string    // sanitized log of the latest failed compile
	PreviousLog  string

	// FailedCandidate is the declared form of the latest candidate that
	// failed to compile; it becomes the failure artifact.
	FailedCandidate string
	CompiledPath    string
	ArtifactPath    string

	History []StepRecord

	logger *log.Logger
}

// StepRecord is an immutable log entry for one step execution.
type StepRecord struct {
	StepName string
	Attempt  int
	Status   StepStatus
	Cause    job.Cause
	Error    string
	Time     time.Time
	Duration time.Duration
}

// StepStatus is the outcome of a step run.
type StepStatus string

const (
	StepOK     StepStatus = "ok"
	StepFailed StepStatus = "failed"
)

func (st *JobState) log() *log.Logger {
	if st.logger == nil {
		st.logger = log.With("job", st.Job.ID, "id", st.Identifier)
	}
	return st.logger
}
