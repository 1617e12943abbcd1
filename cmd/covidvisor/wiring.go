// cmd/covidvisor/wiring.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/o-richard/covidvisor/internal/casestats"
	"github.com/o-richard/covidvisor/internal/common/config"
	apperrors "github.com/o-richard/covidvisor/internal/common/errors"
	"github.com/o-richard/covidvisor/internal/common/database"
	"github.com/o-richard/covidvisor/internal/common/logger"
	"github.com/o-richard/covidvisor/internal/console"
	"github.com/o-richard/covidvisor/internal/inference"
	"github.com/o-richard/covidvisor/internal/models"
	"github.com/o-richard/covidvisor/internal/understanding"
	answer "github.com/o-richard/covidvisor/internal/workers/query/answer-case-query"
)

// newPipeline builds the inference client and, when enabled, the redis
// result cache. The returned redis client is nil without a cache.
func newPipeline(ctx context.Context, cfg *config.Config, log logger.Logger) (*understanding.Pipeline, *redis.Client, error) {
	opts, err := understanding.OptionsFromConfig(cfg.Inference)
	if err != nil {
		return nil, nil, err
	}

	client := inference.NewClient(&inference.Config{
		BaseURL:         cfg.Inference.BaseURL,
		ClassifierModel: cfg.Inference.ClassifierModel,
		RecognizerModel: cfg.Inference.RecognizerModel,
		APIToken:        cfg.Inference.APIToken,
		Timeout:         config.GetDuration(cfg.Inference.Timeout),
		MaxRetries:      cfg.Inference.MaxRetries,
	}, log)

	pipeline := understanding.NewPipeline(client, client, opts, log)
	if !cfg.Cache.Enabled {
		return pipeline, nil, nil
	}

	rdb, err := database.NewRedis(ctx, cfg.Database.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("result cache: %w", err)
	}
	pipeline.WithCache(understanding.NewRedisCache(rdb, config.GetDuration(cfg.Cache.TTL)))
	return pipeline, rdb, nil
}

// openStore opens the configured database and makes sure the table exists.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (*casestats.Store, *sql.DB, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, apperrors.NewDatabaseConnectionFailedError(err)
	}

	store, err := casestats.NewStore(db, cfg.Database.Driver, log)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

func newEngine(cfg *config.Config, store *casestats.Store, log logger.Logger) *casestats.Engine {
	timeout := config.GetDuration(config.GetWorkerConfig(cfg, answer.TaskType).Timeout)
	return casestats.NewEngine(store, timeout, log)
}

// answerHandler understands a line and answers the resulting record. The
// record goes through ProcessJSON so a configured result cache is shared with
// the understand command.
func answerHandler(pipeline *understanding.Pipeline, engine *casestats.Engine) console.Handler {
	return func(ctx context.Context, line string) ([]byte, error) {
		data, err := pipeline.ProcessJSON(ctx, line)
		if err != nil {
			return nil, err
		}
		var query models.Query
		if err := json.Unmarshal(data, &query); err != nil {
			return nil, fmt.Errorf("decode query record: %w", err)
		}
		ans, err := engine.Answer(ctx, query)
		if err != nil {
			return nil, err
		}
		return []byte(ans.Text + "\n"), nil
	}
}
