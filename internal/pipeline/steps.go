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
	"io/fs"
	"os"

	"github.com/pkg/errors"

	"github.com/cloudwego/transworker/internal/job"
	"github.com/cloudwego/transworker/lang/java"
	"github.com/cloudwego/transworker/llm"
	"github.com/cloudwego/transworker/llm/prompt"
)

// loadStep reads the uploaded source and collects advisory hints.
type loadStep struct {
	o *Orchestrator
}

func (s *loadStep) Name() string { return "load" }

func (s *loadStep) Run(ctx context.Context, st *JobState) (*StepResult, error) {
	path, err := s.o.deps.Artifacts.LocateSource(st.Job)
	if err != nil {
		return abort(), newJobError(job.CauseSourceMissing, err)
	}
	st.SourcePath = path
	bs, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return abort(), newJobError(job.CauseSourceMissing, err)
		}
		return abort(), newJobError(job.CauseArtifactIO, errors.Wrapf(err, "read %s", path))
	}
	st.log().Info("loaded source %s (%d bytes)", path, len(bs))

	if s.o.deps.Hints != nil {
		hints, err := s.o.deps.Hints.Extract(ctx, bs)
		if err != nil {
			st.log().Warn("hint extraction failed, continuing without hints: %v", err)
		} else {
			st.Hints = hints
			st.log().Debug("extracted %d hints", len(hints))
		}
	}
	return &StepResult{Status: StepOK, Snapshot: NewSnapshot(KindSource, string(bs))}, nil
}

// translateStep runs one attempt: generate, enforce the type name, write into
// the arena and compile. Only a compile failure is worth retrying.
type translateStep struct {
	o *Orchestrator
}

func (s *translateStep) Name() string { return "translate" }

func (s *translateStep) Run(ctx context.Context, st *JobState) (*StepResult, error) {
	idx := st.Attempts
	st.Attempts++
	logger := st.log().With("attempt", idx)

	var text string
	if idx == 0 || st.Candidate == nil {
		logger.Info("generating initial translation")
		text = s.o.deps.Prompts.Initial(prompt.InitialRequest{
			Identifier:   st.Identifier,
			Source:       st.Source.Text(),
			Headers:      st.Job.Headers,
			Instructions: st.Job.Instructions,
			Hints:        st.Hints,
		})
	} else {
		logger.Info("requesting correction")
		text = s.o.deps.Prompts.Corrective(prompt.CorrectiveRequest{
			Identifier:  st.Identifier,
			Attempt:     idx - 1,
			Code:        st.Candidate.Text(),
			Log:         st.Log,
			PreviousLog: st.PreviousLog,
		})
	}

	resp, err := s.o.generate(ctx, text)
	if err != nil {
		return abort(), newJobError(job.CauseOracleUnavailable, err)
	}
	code := prompt.ExtractCode(resp)
	if code == "" {
		return abort(), newJobError(job.CauseEmptyGeneration, errors.Errorf("attempt %d produced no code", idx))
	}
	code = java.EnforceTypeName(code, st.Identifier)
	if name := java.DeclaredTypeName(code); name != st.Identifier {
		logger.Warn("first declared type is %q, not %q; compilation will likely fail", name, st.Identifier)
	}
	snap := NewSnapshot(KindCandidate, code)
	if snap.Same(st.Candidate) {
		logger.Warn("candidate repeats the previous attempt (%s)", snap.Hash[:12])
	}

	declared := java.AddPackageDeclaration(code, st.Identifier)
	path := st.Arena.SourceFile(st.Identifier)
	if err := st.Arena.Write(path, declared); err != nil {
		return abort(), newJobError(job.CauseArtifactIO, err)
	}

	st.Compilations++
	res := s.o.deps.Compiler.Compile(ctx, path, st.Arena.ClassDir())
	if res.Success {
		if res.Log != "" {
			logger.Debug("compiled with warnings:\n%s", res.Log)
		}
		logger.Info("compiled in %s", res.Duration)
		st.CompiledPath = path
		st.FailedCandidate = ""
		return &StepResult{Status: StepOK, Snapshot: snap}, nil
	}

	logger.Info("compilation failed (exit %d)", res.ExitCode)
	st.PreviousLog = st.Log
	st.Log = s.o.deps.Sanitizer.Sanitize(res.Log)
	st.FailedCandidate = declared
	return &StepResult{Status: StepFailed, Recoverable: true, Snapshot: snap},
		newJobError(job.CauseCompileFailure, errors.Errorf("attempt %d: %s", idx, firstLine(st.Log)))
}

// promoteStep copies the compiled candidate to the success artifact.
type promoteStep struct {
	o *Orchestrator
}

func (s *promoteStep) Name() string { return "promote" }

func (s *promoteStep) Run(ctx context.Context, st *JobState) (*StepResult, error) {
	path, err := s.o.deps.Artifacts.PromoteSuccess(st.CompiledPath, st.Identifier)
	if err != nil {
		return abort(), newJobError(job.CauseArtifactIO, err)
	}
	st.ArtifactPath = path
	return &StepResult{Status: StepOK}, nil
}

func abort() *StepResult {
	return &StepResult{Status: StepFailed, Recoverable: false}
}

func (o *Orchestrator) generate(ctx context.Context, text string) (string, error) {
	if o.opts.OracleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.OracleTimeout)
		defer cancel()
	}
	resp, err := o.deps.Oracle.Generate(ctx, llm.Request{System: o.opts.SystemPrompt, Prompt: text})
	if err != nil {
		return "", errors.Wrap(err, "generate")
	}
	return resp, nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
