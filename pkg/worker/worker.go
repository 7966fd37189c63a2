package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yusufsyaifudin/fcmv1/pkg/logger"
	"go.uber.org/multierr"
)

var (
	ErrPreExecute = errors.New("pre-execute job error")
	ErrExecute    = errors.New("execute job error")
	ErrPanic      = errors.New("job panicked")
)

// Job holds all information regarding the Job
type Job interface {
	// ID return uint64 unique identifier of the job
	ID() uint64

	// Context to tracks down all Job information that important.
	Context() context.Context

	// PreExecute called before Execute, when error Execute never be called.
	PreExecute() error

	// Execute is the real logic of the Job.
	Execute() error

	// PostExecute is called exactly once per job, after PreExecute or Execute is done.
	// It receives the failure of either step, or nil.
	PostExecute(err error)
}

// Run executes every job in its own goroutine and blocks until all of them are done.
// A panicking job is recovered and reported to its PostExecute with ErrPanic.
// The returned error combines the failures of all jobs, in job order.
func Run(jobs []Job, log logger.Logger) error {
	if log == nil {
		log = logger.Noop{}
	}

	errs := make([]error, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		if job == nil {
			continue
		}

		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			errs[i] = run(job, log)
		}(i, job)
	}

	wg.Wait()
	return multierr.Combine(errs...)
}

func run(job Job, log logger.Logger) (err error) {
	t0 := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = multierr.Append(fmt.Errorf("job %d: %v", job.ID(), r), ErrPanic)
			log.Error(job.Context(), "worker recovered from panic", logger.KV("job_id", job.ID()), logger.KV("panic", fmt.Sprint(r)))
		}

		job.PostExecute(err)
		log.Debug(job.Context(), fmt.Sprintf("job id %d done, duration %s", job.ID(), time.Since(t0).String()))
	}()

	err = job.PreExecute()
	if err != nil {
		err = multierr.Append(err, ErrPreExecute)
		return
	}

	err = job.Execute()
	if err != nil {
		err = multierr.Append(err, ErrExecute)
	}

	return
}
