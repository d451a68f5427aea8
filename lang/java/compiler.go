// Copyright 2025 CloudWeGo Authors
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

package java

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/cloudwego/transworker/internal/log"
)

const (
	DefaultCompilerPath = "javac"
	DefaultRelease      = 17
	DefaultTimeout      = 30 * time.Second
)

type Options struct {
	CompilerPath string
	Release      int
	ExtraArgs    []string
	Timeout      time.Duration
}

// Result is the outcome of one compiler run. Success depends only on the exit
// status; a successful Log holds warnings.
type Result struct {
	Success  bool
	Log      string
	ExitCode int
	Duration time.Duration
}

// Compiler runs javac out of process.
type Compiler struct {
	Options
}

func NewCompiler(opts Options) *Compiler {
	if opts.CompilerPath == "" {
		opts.CompilerPath = DefaultCompilerPath
	}
	if opts.Release <= 0 {
		opts.Release = DefaultRelease
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Compiler{Options: opts}
}

// Args returns the compiler arguments for src with class output in classDir.
func (c *Compiler) Args(src, classDir string) []string {
	args := []string{"-Xlint:all", "--release", strconv.Itoa(c.Release), "-d", classDir}
	args = append(args, c.ExtraArgs...)
	return append(args, src)
}

// Compile never returns an error: a timeout, a missing toolchain or any other
// launch problem is reported as a failed Result with a fixed diagnostic.
func (c *Compiler) Compile(ctx context.Context, src, classDir string) Result {
	start := time.Now()
	if err := os.MkdirAll(classDir, 0o755); err != nil {
		return Result{Log: fmt.Sprintf("Unexpected compilation error: %v", err), ExitCode: -1}
	}

	cctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, c.CompilerPath, c.Args(src, classDir)...)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug("running %s %s", c.CompilerPath, strings.Join(cmd.Args[1:], " "))
	err := cmd.Run()
	res := Result{Duration: time.Since(start)}

	switch {
	case err == nil:
		res.Success = true
		res.Log = stderr.String()
		if res.Log != "" {
			log.Debug("compiled %s with warnings:\n%s", filepath.Base(src), res.Log)
		}
	case errors.Is(cctx.Err(), context.DeadlineExceeded):
		res.ExitCode = -1
		res.Log = fmt.Sprintf("Compilation timed out after %s seconds", strconv.FormatFloat(c.Timeout.Seconds(), 'f', -1, 64))
		log.Error("compilation of %s timed out", src)
	case ctx.Err() != nil:
		res.ExitCode = -1
		res.Log = "Compilation cancelled"
		log.Warn("compilation of %s cancelled: %v", src, ctx.Err())
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		res.ExitCode = -1
		res.Log = fmt.Sprintf("'%s' command not found.", c.CompilerPath)
		log.Error("'%s' not found, make sure a JDK %d+ is installed and in PATH", c.CompilerPath, c.Release)
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			res.Log = stderr.String()
			if res.Log == "" {
				res.Log = stdout.String()
			}
			log.Warn("compilation failed (rc=%d) for %s", res.ExitCode, src)
			log.Debug("javac stdout:\n%s", stdout.String())
			log.Debug("javac stderr:\n%s", stderr.String())
		} else {
			res.ExitCode = -1
			res.Log = fmt.Sprintf("Unexpected compilation error: %v", err)
			log.Error("unexpected error running %s: %v", c.CompilerPath, err)
		}
	}
	return res
}

// SweepClassFiles removes *.class files directly under dir. A missing dir is
// not an error.
func SweepClassFiles(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.class"))
	if err != nil {
		return 0, errors.Wrap(err, "glob class files")
	}
	n := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return n, errors.Wrapf(err, "remove %s", m)
		}
		n++
	}
	return n, nil
}
