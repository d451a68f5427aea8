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

package identifier

import (
	_ "embed"
	"math"
	"strings"
	"sync"
)

//go:embed words.txt
var wordList string

// maxSegmentInput bounds the quadratic segmentation; longer runs are kept whole.
const maxSegmentInput = 128

// An unknown piece pays a large fixed cost plus a small per-byte cost: two
// adjacent unknown pieces always cost more than one merged piece, and a known
// word is only split off when it is cheaper than the bytes it covers.
const (
	unknownPieceCost   = 30.0
	unknownPerByteCost = 2.0
)

// Segmenter splits a run of letters into dictionary words. Word cost follows
// Zipf's law over the order of the word list (earlier = more frequent).
type Segmenter struct {
	cost map[string]float64
}

// NewSegmenter builds a Segmenter from words ordered by descending frequency.
// Duplicates keep their first (cheapest) rank.
func NewSegmenter(words []string) *Segmenter {
	s := &Segmenter{cost: make(map[string]float64, len(words))}
	n := float64(len(words))
	if n < 2 {
		n = 2
	}
	logN := math.Log(n)
	for i, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := s.cost[w]; ok {
			continue
		}
		s.cost[w] = math.Log(float64(i+1) * logN)
	}
	return s
}

var (
	defaultSegmenter     *Segmenter
	defaultSegmenterOnce sync.Once
)

// DefaultSegmenter uses the embedded word list.
func DefaultSegmenter() *Segmenter {
	defaultSegmenterOnce.Do(func() {
		defaultSegmenter = NewSegmenter(strings.Split(wordList, "\n"))
	})
	return defaultSegmenter
}

func (s *Segmenter) pieceCost(piece string) float64 {
	if c, ok := s.cost[strings.ToLower(piece)]; ok {
		return c
	}
	return unknownPieceCost + unknownPerByteCost*float64(len(piece))
}

// Split returns the cheapest segmentation of run. The pieces are slices of
// run, so the caller's casing is preserved.
func (s *Segmenter) Split(run string) []string {
	n := len(run)
	if n == 0 {
		return nil
	}
	if n > maxSegmentInput {
		return []string{run}
	}
	best := make([]float64, n+1)
	from := make([]int, n+1)
	for i := 1; i <= n; i++ {
		best[i] = math.Inf(1)
		for j := 0; j < i; j++ {
			c := best[j] + s.pieceCost(run[j:i])
			if c < best[i] {
				best[i] = c
				from[i] = j
			}
		}
	}
	var out []string
	for i := n; i > 0; i = from[i] {
		out = append(out, run[from[i]:i])
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}
