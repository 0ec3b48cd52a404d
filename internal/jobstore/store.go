// Package jobstore persists the in-progress import job and the cached group
// prefix. It is the only state that survives a page load.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vmunix/fixturesync/pkg/fixture"
)

// Storage keys.
const (
	JobKey    = "__bulk_job_v1"
	PrefixKey = "__bulk_group_prefix_v1"
)

var (
	// ErrNoJob is returned by Load when nothing is stored.
	ErrNoJob = errors.New("no job stored")
	// ErrCorrupt is returned by Load when the stored record cannot be
	// decoded. The record is removed, so the next Load reports ErrNoJob.
	ErrCorrupt = errors.New("stored job is corrupt")
)

// Job is the unit of resumable work. ID only tags lifecycle events; records
// written without one still load.
type Job struct {
	ID             string          `json:"id,omitempty"`
	Rows           []fixture.Row   `json:"rows"`
	Options        fixture.Options `json:"options"`
	Index          int             `json:"index"`
	ResumeAfterNav bool            `json:"resumeAfterNav"`
	NextISO        string          `json:"nextIso,omitempty"`
}

// NewJob creates a job at index 0 with a fresh identifier.
func NewJob(rows []fixture.Row, opts fixture.Options) *Job {
	if rows == nil {
		rows = []fixture.Row{}
	}
	return &Job{
		ID:      uuid.NewString(),
		Rows:    rows,
		Options: opts.WithDefaults(),
	}
}

// Total returns the number of rows.
func (j *Job) Total() int { return len(j.Rows) }

// Done reports whether every row has been processed.
func (j *Job) Done() bool { return j.Index >= len(j.Rows) }

// Current returns the row at the cursor.
func (j *Job) Current() (fixture.Row, bool) {
	if j.Index < 0 || j.Index >= len(j.Rows) {
		return fixture.Row{}, false
	}
	return j.Rows[j.Index], true
}

// Store persists one job and the group prefix.
type Store interface {
	// Load returns the stored job, ErrNoJob when there is none.
	Load(ctx context.Context) (*Job, error)
	Save(ctx context.Context, job *Job) error
	Clear(ctx context.Context) error
	// Prefix returns the cached group prefix, "" when none.
	Prefix(ctx context.Context) (string, error)
	SetPrefix(ctx context.Context, prefix string) error
}

// KV is the string key/value backend a Store is built on.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type kvStore struct {
	kv KV
}

// New returns a Store over kv.
func New(kv KV) Store {
	return &kvStore{kv: kv}
}

func (s *kvStore) Load(ctx context.Context) (*Job, error) {
	raw, ok, err := s.kv.Get(ctx, JobKey)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	if !ok || raw == "" {
		return nil, ErrNoJob
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		err = fmt.Errorf("%w: %v", ErrCorrupt, err)
		if rmErr := s.kv.Remove(ctx, JobKey); rmErr != nil {
			return nil, errors.Join(err, fmt.Errorf("clear job: %w", rmErr))
		}
		return nil, err
	}
	if job.Rows == nil {
		job.Rows = []fixture.Row{}
	}
	return &job, nil
}

func (s *kvStore) Save(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.kv.Set(ctx, JobKey, string(data)); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

func (s *kvStore) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, JobKey); err != nil {
		return fmt.Errorf("clear job: %w", err)
	}
	return nil
}

func (s *kvStore) Prefix(ctx context.Context) (string, error) {
	v, _, err := s.kv.Get(ctx, PrefixKey)
	if err != nil {
		return "", fmt.Errorf("load prefix: %w", err)
	}
	return v, nil
}

func (s *kvStore) SetPrefix(ctx context.Context, prefix string) error {
	if prefix == "" {
		return nil
	}
	if err := s.kv.Set(ctx, PrefixKey, prefix); err != nil {
		return fmt.Errorf("save prefix: %w", err)
	}
	return nil
}
