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
	"crypto/sha256"
	"encoding/hex"
)

const (
	KindSource    = "source"
	KindCandidate = "candidate"
)

// Snapshot is an immutable, hashed copy of an intermediate text.
type Snapshot struct {
	Kind    string
	Hash    string // hex-encoded sha256 of the text
	Payload string
}

func NewSnapshot(kind, payload string) *Snapshot {
	h := sha256.Sum256([]byte(payload))
	return &Snapshot{
		Kind:    kind,
		Hash:    hex.EncodeToString(h[:]),
		Payload: payload,
	}
}

// Same reports whether both snapshots hold identical text.
func (s *Snapshot) Same(o *Snapshot) bool {
	return s != nil && o != nil && s.Hash == o.Hash
}

func (s *Snapshot) Text() string {
	if s == nil {
		return ""
	}
	return s.Payload
}
