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

// Package store keeps a local journal of job results so that results whose
// notification could not be published can be replayed by hand.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/cloudwego/transworker/internal/job"
)

var ErrNotFound = errors.New("store: entry not found")

const schema = `
CREATE TABLE IF NOT EXISTS results (
	job_id TEXT PRIMARY KEY,
	identifier TEXT NOT NULL,
	status TEXT NOT NULL,
	cause TEXT NOT NULL DEFAULT '',
	artifact_path TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	compilations INTEGER NOT NULL DEFAULT 0,
	finished_at INTEGER NOT NULL,
	payload BLOB NOT NULL,
	published INTEGER NOT NULL DEFAULT 0,
	published_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_results_published ON results(published);
`

// Entry is one journaled result. Payload is the encoded notification.
type Entry struct {
	JobID        string
	Identifier   string
	Status       job.Status
	Cause        job.Cause
	ArtifactPath string
	Error        string
	Compilations int
	FinishedAt   time.Time
	Payload      []byte
	Published    bool
	PublishedAt  time.Time
}

// Journal is a sqlite-backed result log.
type Journal struct {
	db   *sql.DB
	path string
}

func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create journal directory")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrap(err, "open journal")
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initialize journal schema")
	}
	return &Journal{db: db, path: path}, nil
}

func (j *Journal) Path() string { return j.path }

func (j *Journal) Close() error { return j.db.Close() }

// Record stores r with its encoded notification as not yet published. A
// redelivered job replaces its earlier entry.
func (j *Journal) Record(ctx context.Context, r job.Result, payload []byte) error {
	_, err := j.db.ExecContext(ctx, `
INSERT OR REPLACE INTO results
	(job_id, identifier, status, cause, artifact_path, error, compilations, finished_at, payload, published, published_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL)`,
		r.JobID, r.Identifier, string(r.Status), string(r.Cause), r.ArtifactPath, r.Error,
		r.Compilations, r.FinishedAt.UnixMilli(), payload)
	return errors.Wrapf(err, "record result of job %s", r.JobID)
}

func (j *Journal) MarkPublished(ctx context.Context, jobID string) error {
	res, err := j.db.ExecContext(ctx,
		`UPDATE results SET published = 1, published_at = ? WHERE job_id = ?`,
		time.Now().UnixMilli(), jobID)
	if err != nil {
		return errors.Wrapf(err, "mark job %s published", jobID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrNotFound, "job %s", jobID)
	}
	return nil
}

// Unpublished lists entries whose notification never went out, oldest first.
// limit <= 0 returns all of them.
func (j *Journal) Unpublished(ctx context.Context, limit int) ([]Entry, error) {
	q := selectEntry + ` WHERE published = 0 ORDER BY finished_at, job_id`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query unpublished results")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "iterate results")
}

func (j *Journal) Get(ctx context.Context, jobID string) (Entry, error) {
	row := j.db.QueryRowContext(ctx, selectEntry+` WHERE job_id = ?`, jobID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, errors.Wrapf(ErrNotFound, "job %s", jobID)
	}
	return e, err
}

const selectEntry = `SELECT job_id, identifier, status, cause, artifact_path, error, compilations,
	finished_at, payload, published, published_at FROM results`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e           Entry
		status      string
		cause       string
		finished    int64
		published   int
		publishedAt sql.NullInt64
	)
	err := s.Scan(&e.JobID, &e.Identifier, &status, &cause, &e.ArtifactPath, &e.Error,
		&e.Compilations, &finished, &e.Payload, &published, &publishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, errors.Wrap(err, "scan result")
	}
	e.Status = job.Status(status)
	e.Cause = job.Cause(cause)
	e.FinishedAt = time.UnixMilli(finished)
	e.Published = published != 0
	if publishedAt.Valid {
		e.PublishedAt = time.UnixMilli(publishedAt.Int64)
	}
	return e, nil
}
