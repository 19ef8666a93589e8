package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/setuplab/internal/data/loader"
	"github.com/sawpanic/setuplab/internal/data/store"
)

// Refresher snapshots every scenario on a cron schedule and drops cached
// batches when their objects change in the store.
type Refresher struct {
	service  *ReviewService
	schedule string
	watcher  store.Watcher

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	watchWG sync.WaitGroup
	lastRun RefreshReport
}

// RefreshReport summarises one refresh pass
type RefreshReport struct {
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Scenarios int       `json:"scenarios"`
	Failed    []string  `json:"failed,omitempty"`
}

// NewRefresher creates a refresher. A nil watcher disables invalidation and
// an empty schedule disables the cron job.
func NewRefresher(service *ReviewService, schedule string, watcher store.Watcher) *Refresher {
	return &Refresher{service: service, schedule: schedule, watcher: watcher}
}

// Start registers the job and begins watching. It returns once both are running.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return fmt.Errorf("refresher already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithSeconds())
	if r.schedule != "" {
		if _, err := c.AddFunc(r.schedule, func() { r.RefreshAll(ctx) }); err != nil {
			cancel()
			return fmt.Errorf("invalid refresh schedule %q: %w", r.schedule, err)
		}
	}

	if r.watcher != nil {
		r.watchWG.Add(1)
		go func() {
			defer r.watchWG.Done()
			if err := r.watcher.Watch(ctx, func(key string) { r.invalidate(ctx, key) }); err != nil {
				log.Error().Err(err).Msg("Store watch stopped")
			}
		}()
	}

	c.Start()
	r.cron = c
	r.cancel = cancel
	log.Info().Str("schedule", r.schedule).Bool("watch", r.watcher != nil).Msg("Refresher started")
	return nil
}

// Stop waits for a running job and the watcher to finish
func (r *Refresher) Stop() {
	r.mu.Lock()
	c, cancel := r.cron, r.cancel
	r.cron, r.cancel = nil, nil
	r.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	cancel()
	r.watchWG.Wait()
	log.Info().Msg("Refresher stopped")
}

func (r *Refresher) invalidate(ctx context.Context, key string) {
	scenario, ok := loader.ScenarioOf(key)
	if !ok {
		return
	}
	if err := r.service.Invalidate(ctx, scenario); err != nil {
		log.Warn().Err(err).Str("scenario", scenario).Msg("Cache invalidation failed")
		return
	}
	log.Debug().Str("scenario", scenario).Str("key", key).Msg("Cached setups invalidated")
}

// RefreshAll snapshots every scenario. Without persistence each scenario is
// classified only, which warms the cache.
func (r *Refresher) RefreshAll(ctx context.Context) (RefreshReport, error) {
	start := time.Now()
	report := RefreshReport{StartedAt: start.UTC()}

	scenarios, err := r.service.Scenarios(ctx)
	if err != nil {
		return report, err
	}

	var errs []error
	for _, name := range scenarios {
		_, err := r.service.Snapshot(ctx, name)
		if errors.Is(err, ErrPersistenceDisabled) {
			_, err = r.service.Classify(ctx, name)
		}
		if err != nil {
			report.Failed = append(report.Failed, name)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			log.Warn().Err(err).Str("scenario", name).Msg("Scenario refresh failed")
			continue
		}
		report.Scenarios++
	}
	report.Duration = time.Since(start).String()

	r.mu.Lock()
	r.lastRun = report
	r.mu.Unlock()

	log.Info().
		Int("scenarios", report.Scenarios).
		Int("failed", len(report.Failed)).
		Str("duration", report.Duration).
		Msg("Refresh completed")
	return report, errors.Join(errs...)
}

// LastRun returns the report of the latest refresh pass
func (r *Refresher) LastRun() RefreshReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRun
}
