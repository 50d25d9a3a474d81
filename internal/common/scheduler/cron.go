// internal/common/scheduler/cron.go
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"stock-backoffice/internal/common/logger"
)

// Jobs runs the background maintenance tasks: request-map sweeps, cache
// expiry and the unread-feed poll.
type Jobs struct {
	cron    *cron.Cron
	logger  logger.Logger
	mu      sync.Mutex
	entries map[string]cron.EntryID
	running bool
}

func NewJobs(log logger.Logger) *Jobs {
	return &Jobs{
		cron:    cron.New(),
		logger:  logger.ForComponent(log, "scheduler"),
		entries: make(map[string]cron.EntryID),
	}
}

// Every registers fn under name to run at the given interval. Intervals
// below one second are rounded up by cron. Registering an existing name
// replaces the previous job.
func (j *Jobs) Every(name string, interval time.Duration, fn func(ctx context.Context)) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if id, ok := j.entries[name]; ok {
		j.cron.Remove(id)
	}

	id, err := j.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		defer func() {
			if r := recover(); r != nil {
				j.logger.Error("job panicked", map[string]interface{}{
					"job":   name,
					"panic": fmt.Sprint(r),
				})
			}
		}()
		fn(context.Background())
	})
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}

	j.entries[name] = id
	j.logger.Debug("job registered", map[string]interface{}{
		"job":      name,
		"interval": interval.String(),
	})
	return nil
}

// Remove unregisters a job.
func (j *Jobs) Remove(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if id, ok := j.entries[name]; ok {
		j.cron.Remove(id)
		delete(j.entries, name)
	}
}

// Names lists registered jobs.
func (j *Jobs) Names() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	names := make([]string, 0, len(j.entries))
	for name := range j.entries {
		names = append(names, name)
	}
	return names
}

func (j *Jobs) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return
	}
	j.cron.Start()
	j.running = true
}

// Stop stops the scheduler and waits for running jobs until ctx is done.
func (j *Jobs) Stop(ctx context.Context) {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		j.logger.Warn("scheduler stop timed out", nil)
	}
}
