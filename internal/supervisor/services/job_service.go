// Gamescout - Steam Catalog and Review Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamescout

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/gamescout/internal/logging"
)

// Job is a run-to-completion unit of work such as a crawl or a catalog
// snapshot.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context) error

// Run implements Job.
func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// JobService runs a Job once and then terminates the whole supervisor tree,
// so the process exits when the job is done. A failed job is never
// restarted; its error is kept for the caller.
type JobService struct {
	job  Job
	name string

	mu      sync.Mutex
	err     error
	start   sync.Once
	started chan struct{}
	done    chan struct{}
}

// NewJobService wraps job under name.
func NewJobService(name string, job Job) *JobService {
	return &JobService{job: job, name: name, started: make(chan struct{}), done: make(chan struct{})}
}

// Serve implements suture.Service.
func (s *JobService) Serve(ctx context.Context) error {
	select {
	case <-s.done:
		// already ran; a restart must not repeat the job
		return suture.ErrTerminateSupervisorTree
	default:
	}
	s.start.Do(func() { close(s.started) })

	err := s.run(ctx)

	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	close(s.done)

	switch {
	case err == nil:
		logging.Info().Str("job", s.name).Msg("Job completed")
	case errors.Is(err, context.Canceled):
		logging.Warn().Str("job", s.name).Msg("Job interrupted")
	default:
		logging.Error().Err(err).Str("job", s.name).Msg("Job failed")
	}
	return suture.ErrTerminateSupervisorTree
}

// run calls the job, turning a panic into its error so that suture's
// recovery cannot start the job a second time.
func (s *JobService) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", s.name, r)
		}
	}()
	return s.job.Run(ctx)
}

// Started is closed when Serve begins running the job.
func (s *JobService) Started() <-chan struct{} { return s.started }

// Done is closed once the job has returned.
func (s *JobService) Done() <-chan struct{} { return s.done }

// Err returns the job's result after Done is closed.
func (s *JobService) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *JobService) String() string { return s.name }
