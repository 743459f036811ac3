package cron

import (
	"context"
	"fmt"
)

// syncRunner is the slice of the sync service a job adapter needs.
type syncRunner func(ctx context.Context) error

type syncJob struct {
	name string
	run  syncRunner
}

func (j *syncJob) Name() string                  { return j.name }
func (j *syncJob) Run(ctx context.Context) error { return j.run(ctx) }

// NewSyncJob wraps one sync batch as a cron job. The sync service owns its
// own automation logging; the adapter only surfaces the batch error.
func NewSyncJob(name string, run syncRunner) (Job, error) {
	if name == "" {
		return nil, fmt.Errorf("job name required")
	}
	if run == nil {
		return nil, fmt.Errorf("job runner required")
	}
	return &syncJob{name: name, run: run}, nil
}
