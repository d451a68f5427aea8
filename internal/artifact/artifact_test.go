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

package artifact

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/transworker/internal/job"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	s, err := NewStore(filepath.Join(root, "uploads"), filepath.Join(root, "output"), filepath.Join(root, "work", "c1"))
	require.NoError(t, err)
	return s
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestLocateSource(t *testing.T) {
	s := newStore(t)
	_, err := s.LocateSource(job.Job{ID: "f1", SourceFilename: "legacy_parser.cpp"})
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	byID := filepath.Join(s.UploadDir, "f1.cpp")
	require.NoError(t, os.WriteFile(byID, []byte("int main(){}"), 0o644))
	p, err := s.LocateSource(job.Job{ID: "f1", SourceFilename: "legacy_parser.cpp"})
	require.NoError(t, err)
	assert.Equal(t, byID, p)

	byName := filepath.Join(s.UploadDir, "legacy_parser.cpp")
	require.NoError(t, os.WriteFile(byName, []byte("int main(){}"), 0o644))
	p, err = s.LocateSource(job.Job{ID: "f1", SourceFilename: "../../legacy_parser.cpp"})
	require.NoError(t, err)
	assert.Equal(t, byName, p)

	require.NoError(t, s.RemoveSource(p))
	require.NoError(t, s.RemoveSource(p))
	assert.False(t, exists(p))
}

func TestArenaLifecycle(t *testing.T) {
	s := newStore(t)
	a, err := s.NewArena("job/1")
	require.NoError(t, err)
	b, err := s.NewArena("job/1")
	require.NoError(t, err)
	assert.NotEqual(t, a.Dir, b.Dir)
	assert.True(t, strings.HasPrefix(filepath.Base(a.Dir), "job_1-"))
	assert.Equal(t, s.WorkDir, filepath.Dir(a.Dir))

	require.NoError(t, a.Write(a.SourceFile("A"), "class A {}"))
	assert.True(t, exists(a.ClassDir()))
	require.NoError(t, a.Destroy())
	require.NoError(t, a.Destroy())
	assert.False(t, exists(a.Dir))
	assert.True(t, exists(b.Dir))

	require.NoError(t, s.Sweep())
	assert.False(t, exists(b.Dir))
	assert.True(t, exists(s.WorkDir))
}

func TestPromoteAndPersistAreExclusive(t *testing.T) {
	s := newStore(t)
	p := s.Paths("LegacyParser")
	assert.Equal(t, filepath.Join(s.OutputDir, "LegacyParser", "LegacyParser.java"), p.Success)
	assert.Equal(t, filepath.Join(s.OutputDir, "LegacyParser", "LegacyParser_failed.java"), p.Failed)

	got, err := s.PersistFailure("package LegacyParser;\nclass Broken", "LegacyParser")
	require.NoError(t, err)
	assert.Equal(t, p.Failed, got)
	assert.True(t, exists(p.Failed))
	assert.False(t, exists(p.Success))

	a, err := s.NewArena("f1")
	require.NoError(t, err)
	src := a.SourceFile("LegacyParser")
	require.NoError(t, a.Write(src, "package LegacyParser;\npublic class LegacyParser {}"))
	got, err = s.PromoteSuccess(src, "LegacyParser")
	require.NoError(t, err)
	assert.Equal(t, p.Success, got)
	assert.True(t, exists(p.Success))
	assert.False(t, exists(p.Failed))
	bs, err := os.ReadFile(p.Success)
	require.NoError(t, err)
	assert.Equal(t, "package LegacyParser;\npublic class LegacyParser {}", string(bs))

	_, err = s.PersistFailure("x", "LegacyParser")
	require.NoError(t, err)
	assert.False(t, exists(p.Success))

	entries, err := os.ReadDir(p.Folder)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestSweepOutput(t *testing.T) {
	s := newStore(t)
	p := s.Paths("A")
	require.NoError(t, os.MkdirAll(p.Folder, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(p.Folder, "A.class"), nil, 0o644))
	require.NoError(t, s.SweepOutput("A"))
	assert.False(t, exists(filepath.Join(p.Folder, "A.class")))
	require.NoError(t, s.SweepOutput("Missing"))
}

func TestClearSuccess(t *testing.T) {
	s := newStore(t)
	p := s.Paths("A")
	require.NoError(t, os.MkdirAll(p.Folder, 0o755))
	require.NoError(t, os.WriteFile(p.Success, []byte("class A {}"), 0o644))
	require.NoError(t, os.WriteFile(p.Failed, []byte("class A {"), 0o644))

	s.ClearSuccess("A")
	assert.False(t, exists(p.Success))
	assert.True(t, exists(p.Failed))
	s.ClearSuccess("Missing")
}
