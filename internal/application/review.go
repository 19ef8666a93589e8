package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/setuplab/internal/data/cache"
	"github.com/sawpanic/setuplab/internal/data/loader"
	"github.com/sawpanic/setuplab/internal/data/store"
	"github.com/sawpanic/setuplab/internal/domain/grouping"
	"github.com/sawpanic/setuplab/internal/domain/setup"
	"github.com/sawpanic/setuplab/internal/persistence"
)

// ErrUnknownScenario is returned when no stored tables exist for a scenario
var ErrUnknownScenario = errors.New("unknown scenario")

// ErrPersistenceDisabled is returned by Snapshot without a repository
var ErrPersistenceDisabled = errors.New("snapshot persistence disabled")

// Recorder receives review telemetry
type Recorder interface {
	ObserveClassification(scenario string, setups int, counts map[grouping.Label]int, d time.Duration)
	RecordLoadError(scenario, reason string)
	RecordCacheHit()
	RecordCacheMiss()
}

type nopRecorder struct{}

func (nopRecorder) ObserveClassification(string, int, map[grouping.Label]int, time.Duration) {}
func (nopRecorder) RecordLoadError(string, string)                                       {}
func (nopRecorder) RecordCacheHit()                                                      {}
func (nopRecorder) RecordCacheMiss()                                                     {}

// Source loads merged setup batches
type Source interface {
	Load(ctx context.Context, scenario string) ([]setup.Setup, error)
	Scenarios(ctx context.Context) ([]string, error)
}

// ReviewService loads scenarios and classifies them on demand
type ReviewService struct {
	source    Source
	cache     cache.Cache
	snapshots persistence.SnapshotRepo
	grouping  grouping.Config
	metrics   Recorder
	now       func() time.Time
}

// Option configures a ReviewService
type Option func(*ReviewService)

// WithCache sets the batch cache
func WithCache(c cache.Cache) Option {
	return func(s *ReviewService) { s.cache = c }
}

// WithSnapshots enables snapshot persistence
func WithSnapshots(r persistence.SnapshotRepo) Option {
	return func(s *ReviewService) { s.snapshots = r }
}

// WithRecorder sets the telemetry sink
func WithRecorder(r Recorder) Option {
	return func(s *ReviewService) { s.metrics = r }
}

// NewReviewService creates a service classifying with cfg
func NewReviewService(source Source, cfg grouping.Config, opts ...Option) *ReviewService {
	s := &ReviewService{
		source:   source,
		cache:    cache.NopCache{},
		grouping: cfg,
		metrics:  nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GroupingConfig returns the thresholds in use
func (s *ReviewService) GroupingConfig() grouping.Config {
	return s.grouping
}

// Scenarios lists the stored scenarios
func (s *ReviewService) Scenarios(ctx context.Context) ([]string, error) {
	return s.source.Scenarios(ctx)
}

// Setups returns the merged batch for a scenario, from cache when possible
func (s *ReviewService) Setups(ctx context.Context, scenario string) ([]setup.Setup, error) {
	if err := loader.ValidateScenario(scenario); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownScenario, err)
	}

	batch, hit, err := s.cache.Get(ctx, scenario)
	if err != nil {
		log.Warn().Err(err).Str("scenario", scenario).Msg("Setup cache read failed")
	}
	if hit {
		s.metrics.RecordCacheHit()
		return batch, nil
	}
	s.metrics.RecordCacheMiss()

	batch, err = s.source.Load(ctx, scenario)
	if err != nil {
		s.metrics.RecordLoadError(scenario, loadErrorReason(err))
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, scenario)
		}
		return nil, err
	}

	if err := s.cache.Set(ctx, scenario, batch); err != nil {
		log.Warn().Err(err).Str("scenario", scenario).Msg("Setup cache write failed")
	}
	return batch, nil
}

func loadErrorReason(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, setup.ErrNonFinite):
		return "non_finite"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "error"
	}
}

// Classify loads a scenario and classifies it with the configured thresholds
func (s *ReviewService) Classify(ctx context.Context, scenario string) (grouping.Result, error) {
	batch, err := s.Setups(ctx, scenario)
	if err != nil {
		return grouping.Result{}, err
	}

	start := time.Now()
	result := grouping.Classify(batch, s.grouping)
	elapsed := time.Since(start)

	s.metrics.ObserveClassification(scenario, len(batch), result.Groups.Counts(), elapsed)
	log.Debug().
		Str("scenario", scenario).
		Int("setups", len(batch)).
		Int("groups", result.Groups.Len()).
		Dur("duration", elapsed).
		Msg("Scenario classified")
	return result, nil
}

// Snapshot classifies a scenario and stores one row per non-empty group
func (s *ReviewService) Snapshot(ctx context.Context, scenario string) ([]persistence.GroupSnapshot, error) {
	if s.snapshots == nil {
		return nil, ErrPersistenceDisabled
	}

	result, err := s.Classify(ctx, scenario)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	at := s.now().UTC()
	rows := make([]persistence.GroupSnapshot, 0, result.Groups.Len())
	for _, l := range result.Groups.Labels() {
		rows = append(rows, persistence.GroupSnapshot{
			RunID:           runID,
			Scenario:        scenario,
			Label:           l.String(),
			SetupCount:      len(result.Groups.Get(l)),
			RegistryVersion: grouping.RegistryVersion,
			ComputedAt:      at,
		})
	}

	if err := s.snapshots.InsertBatch(ctx, rows); err != nil {
		return nil, fmt.Errorf("store snapshot for %s: %w", scenario, err)
	}

	log.Info().
		Str("scenario", scenario).
		Str("run_id", runID).
		Int("groups", len(rows)).
		Msg("Group snapshot stored")
	return rows, nil
}

// History returns stored snapshots for a scenario, newest first
func (s *ReviewService) History(ctx context.Context, scenario string, limit int) ([]persistence.GroupSnapshot, error) {
	if s.snapshots == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.snapshots.ListByScenario(ctx, scenario, limit)
}

// Invalidate drops the cached batch of a scenario
func (s *ReviewService) Invalidate(ctx context.Context, scenario string) error {
	return s.cache.Delete(ctx, scenario)
}
