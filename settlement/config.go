package settlement

import (
	"context"

	"github.com/wfunc/gamingpool/models"
	"github.com/wfunc/gamingpool/repository"
)

// ConfigProvider supplies the settlement config for one query. It is read
// inside the query's snapshot so config and data always agree.
type ConfigProvider interface {
	Config(ctx context.Context, repo *repository.Repository) (models.Config, error)
}

// StoreConfig reads the singleton persisted by the mutation layer.
type StoreConfig struct{}

func (StoreConfig) Config(ctx context.Context, repo *repository.Repository) (models.Config, error) {
	return repo.Config(ctx)
}

// StaticConfig serves a fixed config, e.g. one loaded from the config file.
type StaticConfig struct {
	Value models.Config
}

func (s StaticConfig) Config(context.Context, *repository.Repository) (models.Config, error) {
	return s.Value, nil
}
