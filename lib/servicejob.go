package lib

import (
	"context"

	"github.com/gravitational/trace"
	"github.com/gravitational/vcagent/lib/job"
)

// ServiceJob is a long-running job that exposes its own readiness and
// completion status, the shape every agent's main supervised loop (the
// ledger-delta watcher, the inbound transport listener) is wrapped in.
type ServiceJob interface {
	job.Job
	job.Future
	// IsReady reports whether the job has reached a ready state.
	IsReady() bool
	// WaitReady blocks until the job becomes ready or ctx is done.
	WaitReady(ctx context.Context) (bool, error)
}

type serviceJob struct {
	fn        func(context.Context) error
	readiness *job.Readiness
	result    job.FutureResult
}

// NewServiceJob wraps fn as a ServiceJob. fn is expected to call
// job.SetReady(ctx, true) once it has finished initializing.
func NewServiceJob(fn func(context.Context) error) ServiceJob {
	return &serviceJob{
		fn:        fn,
		readiness: &job.Readiness{},
		result:    job.NewFutureResult(),
	}
}

func (s *serviceJob) DoJob(ctx context.Context) error {
	err := trace.Wrap(s.fn(ctx))
	job.SetReady(ctx, err == nil)
	s.result.SetError(err)
	return err
}

func (s *serviceJob) Done() <-chan struct{} { return s.result.Done() }
func (s *serviceJob) Err() error            { return s.result.Err() }
func (s *serviceJob) IsReady() bool         { return s.readiness.IsReady() }
func (s *serviceJob) WaitReady(ctx context.Context) (bool, error) {
	return s.readiness.WaitReady(ctx)
}

// Process is a thin alias over job.Process adding the SpawnCriticalJob
// convenience the per-role agent binaries use to run their single main job.
type Process struct {
	*job.Process
}

// NewProcess creates a new supervised process rooted at ctx.
func NewProcess(ctx context.Context) *Process {
	return &Process{Process: job.NewProcess(ctx)}
}

// SpawnCriticalJob spawns j, associating its readiness with the job and
// terminating the whole process if j returns an error. j is responsible for
// surfacing its own result via ServiceJob.Err, as NewServiceJob arranges.
func (p *Process) SpawnCriticalJob(j ServiceJob) {
	p.Spawn(j, job.Critical(true), job.WithReadiness(readinessOf(j)))
}

func readinessOf(j ServiceJob) *job.Readiness {
	if sj, ok := j.(*serviceJob); ok {
		return sj.readiness
	}
	return &job.Readiness{}
}
