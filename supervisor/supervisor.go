package supervisor

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/pirosb3/feedconsole/config"
)

// Task is a long-lived unit of work, such as one feed subscriber.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Result is how a task ended. Err is nil when it stopped because of cancellation.
type Result struct {
	Name string
	Err  error
}

type Supervisor struct {
	policy config.ExitPolicy
	log    *log.Logger
}

func New(policy config.ExitPolicy, logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Supervisor{policy: policy, log: logger}
}

// Start runs every task concurrently and blocks until all of them have returned.
// Results are in the order the tasks were given. A task that ends is never restarted.
func (s *Supervisor) Start(ctx context.Context, tasks ...Task) []Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Result, len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))

	for i, task := range tasks {
		go func(i int, task Task) {
			defer wg.Done()

			err := task.Run(ctx)
			results[i] = Result{Name: task.Name(), Err: err}

			entry := s.log.WithField("feed", task.Name())
			if err == nil {
				entry.Debugln("Task stopped")
				return
			}
			if s.policy == config.ExitOnFirstFailure {
				entry.Warningln("Task failed, stopping the remaining tasks")
				cancel()
			}
		}(i, task)
	}

	s.log.WithField("tasks", len(tasks)).WithField("policy", s.policy.String()).Infoln("All tasks started")
	wg.Wait()
	return results
}

// Failed returns the results that ended with an error.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
