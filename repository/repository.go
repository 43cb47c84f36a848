// Package repository provides typed, read-only accessors over the
// settlement store. Every getter has a required form that fails with
// models.ErrNotFound and a MayLoad form that reports absence as false.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wfunc/gamingpool/models"
	"github.com/wfunc/gamingpool/persistence"
)

type Repository struct {
	r persistence.Reader
}

func New(r persistence.Reader) *Repository {
	return &Repository{r: r}
}

// TeamListKey identifies the team list of one gamer in one pool.
type TeamListKey struct {
	PoolID string
	Gamer  string
}

func ConfigKey() persistence.Key {
	return persistence.NewKey(persistence.CollectionConfig, persistence.SingletonKey)
}

func FeeWalletKey() persistence.Key {
	return persistence.NewKey(persistence.CollectionFeeWallet, persistence.SingletonKey)
}

func PoolTypeKey(poolType string) persistence.Key {
	return persistence.NewKey(persistence.CollectionPoolTypeDetails, poolType)
}

func PoolKey(poolID string) persistence.Key {
	return persistence.NewKey(persistence.CollectionPoolDetails, poolID)
}

func PoolTeamsKey(poolID, gamer string) persistence.Key {
	return persistence.NewKey(persistence.CollectionPoolTeamDetails, poolID, gamer)
}

func GameKey(gameID string) persistence.Key {
	return persistence.NewKey(persistence.CollectionGameDetails, gameID)
}

func GameResultKey(address string) persistence.Key {
	return persistence.NewKey(persistence.CollectionGameResult, address)
}

func SwapBalanceKey(poolID string) persistence.Key {
	return persistence.NewKey(persistence.CollectionSwapBalance, poolID)
}

func load[T any](ctx context.Context, r persistence.Reader, key persistence.Key, what string) (T, error) {
	var v T
	data, err := r.Get(ctx, key)
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return v, fmt.Errorf("%w: no %s found for %q", models.ErrNotFound, what, keyLabel(key))
		}
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s %q: %w", what, keyLabel(key), err)
	}
	return v, nil
}

func mayLoad[T any](ctx context.Context, r persistence.Reader, key persistence.Key, what string) (*T, bool, error) {
	data, found, err := r.GetOptional(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false, fmt.Errorf("failed to decode %s %q: %w", what, keyLabel(key), err)
	}
	return &v, true, nil
}

func listSingleKeys(ctx context.Context, r persistence.Reader, collection string) ([]string, error) {
	keys, err := r.ListKeys(ctx, collection)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.Part(0))
	}
	return out, nil
}

func keyLabel(key persistence.Key) string {
	if len(key.Parts) == 1 {
		return key.Parts[0]
	}
	return fmt.Sprint(key.Parts)
}

func (r *Repository) Config(ctx context.Context) (models.Config, error) {
	return load[models.Config](ctx, r.r, ConfigKey(), "config")
}

func (r *Repository) MayLoadConfig(ctx context.Context) (*models.Config, bool, error) {
	return mayLoad[models.Config](ctx, r.r, ConfigKey(), "config")
}

func (r *Repository) FeeWallet(ctx context.Context) (string, error) {
	return load[string](ctx, r.r, FeeWalletKey(), "fee wallet")
}

func (r *Repository) PoolType(ctx context.Context, poolType string) (models.PoolTypeDetails, error) {
	return load[models.PoolTypeDetails](ctx, r.r, PoolTypeKey(poolType), "pool type details")
}

func (r *Repository) MayLoadPoolType(ctx context.Context, poolType string) (*models.PoolTypeDetails, bool, error) {
	return mayLoad[models.PoolTypeDetails](ctx, r.r, PoolTypeKey(poolType), "pool type details")
}

func (r *Repository) PoolTypeKeys(ctx context.Context) ([]string, error) {
	return listSingleKeys(ctx, r.r, persistence.CollectionPoolTypeDetails)
}

func (r *Repository) Pool(ctx context.Context, poolID string) (models.PoolDetails, error) {
	return load[models.PoolDetails](ctx, r.r, PoolKey(poolID), "pool details")
}

func (r *Repository) MayLoadPool(ctx context.Context, poolID string) (*models.PoolDetails, bool, error) {
	return mayLoad[models.PoolDetails](ctx, r.r, PoolKey(poolID), "pool details")
}

func (r *Repository) PoolKeys(ctx context.Context) ([]string, error) {
	return listSingleKeys(ctx, r.r, persistence.CollectionPoolDetails)
}

func (r *Repository) PoolTeams(ctx context.Context, poolID, gamer string) ([]models.PoolTeamDetails, error) {
	return load[[]models.PoolTeamDetails](ctx, r.r, PoolTeamsKey(poolID, gamer), "team details")
}

// MayLoadPoolTeams returns an empty list when the gamer has no entry in
// the pool.
func (r *Repository) MayLoadPoolTeams(ctx context.Context, poolID, gamer string) ([]models.PoolTeamDetails, error) {
	teams, found, err := mayLoad[[]models.PoolTeamDetails](ctx, r.r, PoolTeamsKey(poolID, gamer), "team details")
	if err != nil || !found {
		return nil, err
	}
	return *teams, nil
}

// PoolTeamKeys lists team-list keys, optionally only those of one pool.
func (r *Repository) PoolTeamKeys(ctx context.Context, poolID ...string) ([]TeamListKey, error) {
	keys, err := r.r.ListKeys(ctx, persistence.CollectionPoolTeamDetails, poolID...)
	if err != nil {
		return nil, err
	}
	out := make([]TeamListKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, TeamListKey{PoolID: k.Part(0), Gamer: k.Part(1)})
	}
	return out, nil
}

func (r *Repository) Game(ctx context.Context, gameID string) (models.GameDetails, error) {
	return load[models.GameDetails](ctx, r.r, GameKey(gameID), "game details")
}

func (r *Repository) MayLoadGame(ctx context.Context, gameID string) (*models.GameDetails, bool, error) {
	return mayLoad[models.GameDetails](ctx, r.r, GameKey(gameID), "game details")
}

func (r *Repository) GameKeys(ctx context.Context) ([]string, error) {
	return listSingleKeys(ctx, r.r, persistence.CollectionGameDetails)
}

func (r *Repository) GameResultTemplate(ctx context.Context, address string) (models.GameResult, error) {
	return load[models.GameResult](ctx, r.r, GameResultKey(address), "game result details")
}

func (r *Repository) MayLoadGameResultTemplate(ctx context.Context, address string) (*models.GameResult, bool, error) {
	return mayLoad[models.GameResult](ctx, r.r, GameResultKey(address), "game result details")
}

func (r *Repository) SwapBalance(ctx context.Context, poolID string) (models.SwapBalanceDetails, error) {
	return load[models.SwapBalanceDetails](ctx, r.r, SwapBalanceKey(poolID), "swap balance")
}

func (r *Repository) MayLoadSwapBalance(ctx context.Context, poolID string) (*models.SwapBalanceDetails, bool, error) {
	return mayLoad[models.SwapBalanceDetails](ctx, r.r, SwapBalanceKey(poolID), "swap balance")
}

func (r *Repository) SwapBalanceKeys(ctx context.Context) ([]string, error) {
	return listSingleKeys(ctx, r.r, persistence.CollectionSwapBalance)
}
