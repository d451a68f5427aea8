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

// Package pipeline drives one translation job from source to artifact:
// load the source, generate and compile candidates until one compiles or the
// retry budget runs out, then record the outcome.
package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/cloudwego/transworker/internal/artifact"
	"github.com/cloudwego/transworker/internal/job"
	"github.com/cloudwego/transworker/lang/identifier"
	"github.com/cloudwego/transworker/lang/java"
	"github.com/cloudwego/transworker/llm"
	"github.com/cloudwego/transworker/llm/prompt"
)

// Compiler verifies a candidate. *java.Compiler implements it.
type Compiler interface {
	Compile(ctx context.Context, src, classDir string) java.Result
}

// HintExtractor returns advisory strings for a source file. *cxx.Extractor
// implements it.
type HintExtractor interface {
	Extract(ctx context.Context, src []byte) ([]string, error)
}

// Deps are the collaborators of an Orchestrator. Hints may be nil.
type Deps struct {
	Oracle    llm.Oracle
	Compiler  Compiler
	Artifacts *artifact.Store
	Prompts   *prompt.Builder
	Sanitizer prompt.Sanitizer
	Hints     HintExtractor
}

type Options struct {
	// MaxRetries bounds corrective attempts; a job compiles at most
	// MaxRetries+1 times.
	MaxRetries    int
	OracleTimeout time.Duration
	SystemPrompt  string
	// Agent overrides the retry policy derived from MaxRetries.
	Agent Agent
}

// Orchestrator owns jobs end to end. Each Run gets its own arena, so Run may
// be called concurrently.
type Orchestrator struct {
	deps Deps
	opts Options
}

func NewOrchestrator(deps Deps, opts Options) (*Orchestrator, error) {
	if deps.Oracle == nil || deps.Compiler == nil || deps.Artifacts == nil {
		return nil, errors.New("pipeline: oracle, compiler and artifact store are required")
	}
	if opts.MaxRetries < 0 {
		return nil, errors.Errorf("pipeline: negative retry budget %d", opts.MaxRetries)
	}
	if deps.Prompts == nil {
		deps.Prompts = prompt.NewBuilder(0)
	}
	if deps.Sanitizer == (prompt.Sanitizer{}) {
		deps.Sanitizer = prompt.NewSanitizer(0, 0)
	}
	if opts.Agent == nil {
		opts.Agent = &DefaultAgent{MaxRetry: opts.MaxRetries}
	}
	return &Orchestrator{deps: deps, opts: opts}, nil
}

// Run processes j to a terminal state. Job failures are reported in the
// Result, never as an error.
func (o *Orchestrator) Run(ctx context.Context, j job.Job) job.Result {
	st := &JobState{
		Job:        j,
		Identifier: identifier.FromFilename(j.SourceFilename),
	}
	res := job.Result{
		JobID:         j.ID,
		Identifier:    st.Identifier,
		TestReference: j.TestReference,
		StartedAt:     time.Now(),
	}
	st.log().Info("job started: %s", j.SourceFilename)

	err := o.run(ctx, st)
	res.Compilations = st.Compilations
	if err == nil {
		res.Status = job.StatusSuccess
		res.ArtifactPath = st.ArtifactPath
	} else {
		res.Status = job.StatusFailed
		res.Cause = CauseOf(err)
		res.Error = err.Error()
		res.ArtifactPath = o.persistFailure(st)
	}
	o.finish(st)

	res.FinishedAt = time.Now()
	st.log().Info("job finished: status=%s cause=%s compilations=%d artifact=%q in %s",
		res.Status, res.Cause, res.Compilations, res.ArtifactPath, res.FinishedAt.Sub(res.StartedAt))
	return res
}

func (o *Orchestrator) run(ctx context.Context, st *JobState) error {
	arena, err := o.deps.Artifacts.NewArena(st.Job.ID)
	if err != nil {
		return newJobError(job.CauseArtifactIO, err)
	}
	st.Arena = arena
	defer func() {
		if err := arena.Destroy(); err != nil {
			st.log().Warn("arena cleanup failed: %v", err)
		}
	}()

	pl := &Pipeline{
		Steps: []Step{&loadStep{o}, &translateStep{o}, &promoteStep{o}},
		Agent: o.opts.Agent,
	}
	return pl.Run(ctx, st)
}

// persistFailure writes the last candidate that failed to compile. Without
// one, an older success artifact is still removed so the output folder never
// reports success for a failed job.
func (o *Orchestrator) persistFailure(st *JobState) string {
	if st.FailedCandidate == "" {
		o.deps.Artifacts.ClearSuccess(st.Identifier)
		return ""
	}
	path, err := o.deps.Artifacts.PersistFailure(st.FailedCandidate, st.Identifier)
	if err != nil {
		st.log().Error("could not persist failure artifact: %v", err)
		return ""
	}
	return path
}

func (o *Orchestrator) finish(st *JobState) {
	if err := o.deps.Artifacts.SweepOutput(st.Identifier); err != nil {
		st.log().Warn("class file sweep failed: %v", err)
	}
	if err := o.deps.Artifacts.RemoveSource(st.SourcePath); err != nil {
		st.log().Warn("%v", err)
	}
}
