// Package loader turns the two stored tables of a backtest scenario into
// merged Setup records.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sawpanic/setuplab/internal/data/store"
	"github.com/sawpanic/setuplab/internal/domain/setup"
)

// Object names inside a scenario directory
const (
	SetupsObject  = "setups.csv"
	SummaryObject = "summary.csv"
)

// ErrInvalidScenario is returned for names that cannot address a scenario
var ErrInvalidScenario = errors.New("invalid scenario name")

// Loader fetches and merges scenario tables from an object store
type Loader struct {
	store store.ObjectStore

	// RejectNonFinite fails a load when a merged setup carries NaN or Inf
	// in a classification field.
	RejectNonFinite bool
}

// New creates a Loader that rejects non-finite input
func New(s store.ObjectStore) *Loader {
	return &Loader{store: s, RejectNonFinite: true}
}

// ValidateScenario checks that name is a single path segment
func ValidateScenario(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidScenario, name)
	}
	return nil
}

// Load fetches both tables of a scenario concurrently and merges them. A
// failure on either side cancels the other fetch; nothing is returned
// unless both tables decoded.
func (l *Loader) Load(ctx context.Context, scenario string) ([]setup.Setup, error) {
	if err := ValidateScenario(scenario); err != nil {
		return nil, err
	}
	start := time.Now()

	var setupsTable, summaryTable Table
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := l.fetch(gctx, path.Join(scenario, SetupsObject))
		setupsTable = t
		return err
	})
	g.Go(func() error {
		t, err := l.fetch(gctx, path.Join(scenario, SummaryObject))
		summaryTable = t
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", scenario, err)
	}

	batch, err := Merge(setupsTable, summaryTable, scenario)
	if err != nil {
		return nil, fmt.Errorf("merge scenario %s: %w", scenario, err)
	}

	if l.RejectNonFinite {
		for _, s := range batch {
			if err := s.Validate(); err != nil {
				return nil, fmt.Errorf("scenario %s: %w", scenario, err)
			}
		}
	}

	log.Debug().
		Str("scenario", scenario).
		Int("setups", len(batch)).
		Dur("duration", time.Since(start)).
		Msg("Scenario loaded")
	return batch, nil
}

func (l *Loader) fetch(ctx context.Context, key string) (Table, error) {
	data, err := l.store.Get(ctx, key)
	if err != nil {
		return Table{}, err
	}
	t, err := DecodeTable(bytes.NewReader(data))
	if err != nil {
		return Table{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return t, nil
}

// Scenarios lists scenario names that have a setups table, sorted
func (l *Loader) Scenarios(ctx context.Context) ([]string, error) {
	keys, err := l.store.List(ctx, path.Join("*", SetupsObject))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, path.Dir(k))
	}
	return names, nil
}

// ScenarioOf maps an object key to the scenario that owns it
func ScenarioOf(key string) (string, bool) {
	dir, file := path.Split(key)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" || strings.Contains(dir, "/") {
		return "", false
	}
	if file != SetupsObject && file != SummaryObject {
		return "", false
	}
	return dir, true
}
