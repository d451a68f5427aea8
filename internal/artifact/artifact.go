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

// Package artifact manages the files a job reads and produces: the uploaded
// source, a private scratch arena, and the success or failure artifact.
package artifact

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cloudwego/transworker/internal/job"
	"github.com/cloudwego/transworker/internal/log"
	"github.com/cloudwego/transworker/lang/java"
)

const (
	SourceExt     = ".cpp"
	JavaExt       = ".java"
	FailedSuffix  = "_failed"
	classesSubdir = "classes"
)

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store owns three areas: uploads (input sources), a work dir private to one
// consumer, and the output tree partitioned by identifier.
type Store struct {
	UploadDir string
	OutputDir string
	WorkDir   string
}

// Paths is the output layout for one identifier.
type Paths struct {
	Folder  string
	Success string
	Failed  string
}

func NewStore(uploadDir, outputDir, workDir string) (*Store, error) {
	for _, d := range []string{uploadDir, outputDir, workDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create %s", d)
		}
	}
	return &Store{UploadDir: uploadDir, OutputDir: outputDir, WorkDir: workDir}, nil
}

func (s *Store) Paths(id string) Paths {
	folder := filepath.Join(s.OutputDir, id)
	return Paths{
		Folder:  folder,
		Success: filepath.Join(folder, id+JavaExt),
		Failed:  filepath.Join(folder, id+FailedSuffix+JavaExt),
	}
}

// LocateSource finds the uploaded source of j: first under its original
// file name, then as <job id>.cpp. A missing source wraps fs.ErrNotExist.
func (s *Store) LocateSource(j job.Job) (string, error) {
	candidates := []string{
		filepath.Join(s.UploadDir, filepath.Base(j.SourceFilename)),
		filepath.Join(s.UploadDir, safeName(j.ID)+SourceExt),
	}
	for _, p := range candidates {
		fi, err := os.Stat(p)
		if err == nil && fi.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", errors.Wrapf(fs.ErrNotExist, "source for job %s not found in %s", j.ID, s.UploadDir)
}

// RemoveSource deletes an input file; a missing file is not an error.
func (s *Store) RemoveSource(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "remove source %s", path)
	}
	return nil
}

// Arena is a scratch directory owned by a single job.
type Arena struct {
	Dir string
}

// NewArena allocates <work dir>/<job id>-<uuid>.
func (s *Store) NewArena(jobID string) (*Arena, error) {
	dir := filepath.Join(s.WorkDir, safeName(jobID)+"-"+uuid.NewString())
	if err := os.MkdirAll(filepath.Join(dir, classesSubdir), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create arena %s", dir)
	}
	return &Arena{Dir: dir}, nil
}

// SourceFile is where the candidate for id is written before compiling.
func (a *Arena) SourceFile(id string) string {
	return filepath.Join(a.Dir, id+JavaExt)
}

// ClassDir receives compiler output.
func (a *Arena) ClassDir() string {
	return filepath.Join(a.Dir, classesSubdir)
}

func (a *Arena) Write(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// Destroy removes the arena and everything in it. It is safe to call twice.
func (a *Arena) Destroy() error {
	if a == nil || a.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(a.Dir); err != nil {
		return errors.Wrapf(err, "remove arena %s", a.Dir)
	}
	return nil
}

// PromoteSuccess copies the compiled candidate into the success slot and
// drops a stale failure artifact.
func (s *Store) PromoteSuccess(src, id string) (string, error) {
	bs, err := os.ReadFile(src)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", src)
	}
	p := s.Paths(id)
	if err := writeAtomic(p.Folder, p.Success, bs); err != nil {
		return "", err
	}
	removeStale(p.Failed)
	return p.Success, nil
}

// PersistFailure writes the last failing candidate into the failure slot and
// drops a stale success artifact.
func (s *Store) PersistFailure(code, id string) (string, error) {
	p := s.Paths(id)
	if err := writeAtomic(p.Folder, p.Failed, []byte(code)); err != nil {
		return "", err
	}
	removeStale(p.Success)
	return p.Failed, nil
}

// ClearSuccess drops the success artifact of id, used when a job fails
// without a candidate to persist.
func (s *Store) ClearSuccess(id string) {
	removeStale(s.Paths(id).Success)
}

// SweepOutput removes compiler class files left in the output folder of id.
func (s *Store) SweepOutput(id string) error {
	n, err := java.SweepClassFiles(s.Paths(id).Folder)
	if n > 0 {
		log.Debug("removed %d class files from %s", n, s.Paths(id).Folder)
	}
	return err
}

// Sweep empties the work dir. Only call it when no job of this consumer is running.
func (s *Store) Sweep() error {
	entries, err := os.ReadDir(s.WorkDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "read %s", s.WorkDir)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.WorkDir, e.Name())); err != nil {
			return errors.Wrapf(err, "sweep %s", e.Name())
		}
	}
	return nil
}

func writeAtomic(dir, path string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*"+JavaExt)
	if err != nil {
		return errors.Wrapf(err, "create temp file in %s", dir)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrapf(err, "chmod %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "rename to %s", path)
	}
	return nil
}

func removeStale(path string) {
	if err := os.Remove(path); err == nil {
		log.Info("removed stale artifact %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		log.Warn("could not remove stale artifact %s: %v", path, err)
	}
}

func safeName(s string) string {
	s = unsafeNameRe.ReplaceAllString(s, "_")
	if s == "" || s == "." || s == ".." {
		return "job"
	}
	return s
}
