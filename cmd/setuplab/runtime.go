package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/setuplab/internal/application"
	"github.com/sawpanic/setuplab/internal/data/cache"
	"github.com/sawpanic/setuplab/internal/data/loader"
	"github.com/sawpanic/setuplab/internal/data/store"
	"github.com/sawpanic/setuplab/internal/domain/grouping"
	"github.com/sawpanic/setuplab/internal/persistence/postgres"
)

// runtime holds the wired collaborators of one command invocation
type runtime struct {
	config  *application.Config
	store   *store.Resilient
	db      *postgres.Store // nil without a dsn
	service *application.ReviewService
}

// newRuntime wires store, loader and review service. One-shot commands pass
// persistent=false and run without a cache or database.
func newRuntime(ctx context.Context, config *application.Config, groupingCfg grouping.Config, persistent bool, opts ...application.Option) (*runtime, error) {
	fsStore, err := store.NewFSStore(config.Storage.DataRoot)
	if err != nil {
		return nil, err
	}
	resilient := store.NewResilient(fsStore, config.Storage.Limits)

	ld := loader.New(resilient)
	ld.RejectNonFinite = config.Storage.RejectNonFinite

	rt := &runtime{config: config, store: resilient}

	if persistent {
		c, err := cache.New(config.Cache)
		if err != nil {
			return nil, fmt.Errorf("setup cache: %w", err)
		}
		opts = append(opts, application.WithCache(c))

		if config.Database.Enabled() {
			st, err := postgres.Open(ctx, config.Database)
			if err != nil {
				return nil, err
			}
			rt.db = st
			opts = append(opts, application.WithSnapshots(st.Snapshots))
		}
	}

	rt.service = application.NewReviewService(ld, groupingCfg, opts...)

	log.Debug().
		Str("data_root", fsStore.Root()).
		Bool("persistent", persistent).
		Msg("Runtime wired")
	return rt, nil
}

func (rt *runtime) Close() error {
	if rt.db != nil {
		return rt.db.Close()
	}
	return nil
}
