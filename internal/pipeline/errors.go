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
	"github.com/pkg/errors"

	"github.com/cloudwego/transworker/internal/job"
)

var (
	ErrSourceMissing      = errors.New("source missing")
	ErrEmptyGeneration    = errors.New("empty generation")
	ErrOracleUnavailable  = errors.New("oracle unavailable")
	ErrCompileFailure     = errors.New("compile failure")
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrArtifactIO         = errors.New("artifact io error")
)

var sentinels = map[job.Cause]error{
	job.CauseSourceMissing:      ErrSourceMissing,
	job.CauseEmptyGeneration:    ErrEmptyGeneration,
	job.CauseOracleUnavailable:  ErrOracleUnavailable,
	job.CauseCompileFailure:     ErrCompileFailure,
	job.CauseMaxRetriesExceeded: ErrMaxRetriesExceeded,
	job.CauseArtifactIO:         ErrArtifactIO,
}

// JobError tags an error with the cause reported in the job result.
// errors.Is matches both the cause sentinel and the wrapped error.
type JobError struct {
	Cause job.Cause
	Err   error
}

func newJobError(cause job.Cause, err error) *JobError {
	return &JobError{Cause: cause, Err: err}
}

func (e *JobError) Error() string {
	if e.Err == nil {
		return string(e.Cause)
	}
	return string(e.Cause) + ": " + e.Err.Error()
}

func (e *JobError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := sentinels[e.Cause]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// CauseOf returns the outermost job cause in err's chain. Errors that carry
// no cause are reported as artifact IO failures, the only infrastructure left
// once the oracle and compiler are accounted for.
func CauseOf(err error) job.Cause {
	if err == nil {
		return job.CauseNone
	}
	var je *JobError
	if errors.As(err, &je) {
		return je.Cause
	}
	return job.CauseArtifactIO
}
