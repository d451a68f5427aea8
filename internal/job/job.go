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

// Package job holds the translation job model and its queue encodings.
package job

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrMalformedMessage marks inbound messages that cannot become a Job.
var ErrMalformedMessage = errors.New("malformed job message")

// Job is one translation request. It is never modified after parsing.
type Job struct {
	ID             string
	SourceFilename string
	Instructions   string
	Headers        map[string]string
	TestReference  string
}

// InboundMessage is the wire form of a Job.
type InboundMessage struct {
	FileID       string            `json:"file_id" jsonschema:"required,description=opaque job id assigned at upload"`
	CppFilename  string            `json:"cpp_filename,omitempty" jsonschema:"description=original C++ file name"`
	Filename     string            `json:"filename,omitempty" jsonschema:"description=alias of cpp_filename"`
	CustomPrompt string            `json:"custom_prompt,omitempty"`
	Headers      map[string]string `json:"headers,omitempty" jsonschema:"description=header file name to content"`
	CppTestFile  string            `json:"cpp_test_file,omitempty" jsonschema:"description=passed through as cpp_test_reference"`
}

// Parse decodes an inbound message. Every failure wraps ErrMalformedMessage.
func Parse(body []byte) (Job, error) {
	var m InboundMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return Job{}, errors.Wrapf(ErrMalformedMessage, "decode: %v", err)
	}
	return m.Job()
}

// Job validates m and converts it.
func (m InboundMessage) Job() (Job, error) {
	id := strings.TrimSpace(m.FileID)
	if id == "" {
		return Job{}, errors.Wrap(ErrMalformedMessage, "missing file_id")
	}
	name := m.CppFilename
	if name == "" {
		name = m.Filename
	}
	if strings.TrimSpace(name) == "" {
		return Job{}, errors.Wrap(ErrMalformedMessage, "missing cpp_filename/filename")
	}
	return Job{
		ID:             id,
		SourceFilename: name,
		Instructions:   m.CustomPrompt,
		Headers:        m.Headers,
		TestReference:  m.CppTestFile,
	}, nil
}

// Message is the inverse of Parse.
func (j Job) Message() InboundMessage {
	return InboundMessage{
		FileID:       j.ID,
		CppFilename:  j.SourceFilename,
		CustomPrompt: j.Instructions,
		Headers:      j.Headers,
		CppTestFile:  j.TestReference,
	}
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Cause classifies why a job failed.
type Cause string

const (
	CauseNone               Cause = ""
	CauseSourceMissing      Cause = "SourceMissing"
	CauseEmptyGeneration    Cause = "EmptyGeneration"
	CauseOracleUnavailable  Cause = "OracleUnavailable"
	CauseCompileFailure     Cause = "CompileFailure"
	CauseMaxRetriesExceeded Cause = "MaxRetriesExceeded"
	CauseArtifactIO         Cause = "ArtifactIOError"
	CauseMalformedMessage   Cause = "MalformedMessage"
)

// Result is the terminal record of a job, produced exactly once.
type Result struct {
	JobID         string
	Identifier    string
	Status        Status
	ArtifactPath  string // empty when no artifact was written
	TestReference string
	Cause         Cause
	Error         string
	Compilations  int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// OutboundAction is the fixed action of every result notification.
const OutboundAction = "generate_test"

// OutboundMessage is the notification consumed by test generation.
type OutboundMessage struct {
	Action            string  `json:"action" jsonschema:"enum=generate_test"`
	PascalCaseName    string  `json:"pascal_case_name"`
	TranslationStatus Status  `json:"translation_status" jsonschema:"enum=success,enum=failed"`
	JavaFilePath      *string `json:"java_file_path"`
	CppTestReference  string  `json:"cpp_test_reference,omitempty"`
}

func (r Result) Message() OutboundMessage {
	m := OutboundMessage{
		Action:            OutboundAction,
		PascalCaseName:    r.Identifier,
		TranslationStatus: r.Status,
		CppTestReference:  r.TestReference,
	}
	if r.ArtifactPath != "" {
		p := r.ArtifactPath
		m.JavaFilePath = &p
	}
	return m
}

// Encode renders the outbound notification body.
func (r Result) Encode() ([]byte, error) {
	bs, err := json.Marshal(r.Message())
	if err != nil {
		return nil, errors.Wrap(err, "encode result")
	}
	return bs, nil
}
