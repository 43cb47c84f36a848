// Package settlement computes what is owed to gamers from the pools and
// teams in the store. Nothing here writes: claim flags are flipped by the
// mutation layer in the same transaction that pays out, and every total
// below trusts those flags as the only record of payment.
package settlement

import (
	"context"
	"fmt"

	"github.com/wfunc/gamingpool/address"
	"github.com/wfunc/gamingpool/logger"
	"github.com/wfunc/gamingpool/models"
	"github.com/wfunc/gamingpool/monitor"
	"github.com/wfunc/gamingpool/persistence"
	"github.com/wfunc/gamingpool/repository"
)

// DefaultResultTemplateAddress keys the canonical game result record.
const DefaultResultTemplateAddress = "terra1t3czdl5h4w4qwgkzs80fdstj0z7rfv9v2j6uh3"

type Aggregator struct {
	store           persistence.Store
	config          ConfigProvider
	validator       address.Validator
	templateAddress string
	monitor         *monitor.Monitor
}

type Option func(*Aggregator)

func WithMonitor(m *monitor.Monitor) Option {
	return func(a *Aggregator) {
		a.monitor = m
	}
}

// WithResultTemplate sets how the game result template key is validated
// and which address it lives under.
func WithResultTemplate(v address.Validator, templateAddress string) Option {
	return func(a *Aggregator) {
		a.validator = v
		a.templateAddress = templateAddress
	}
}

func NewAggregator(store persistence.Store, config ConfigProvider, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:           store,
		config:          config,
		validator:       address.NewBech32Validator("terra"),
		templateAddress: DefaultResultTemplateAddress,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) view(ctx context.Context, fn func(repo *repository.Repository) error) error {
	return a.store.View(ctx, func(r persistence.Reader) error {
		return fn(repository.New(r))
	})
}

// TotalUnclaimedReward sums the unclaimed rewards of gamer's teams across
// every pool. A pool without an entry for gamer contributes zero.
func (a *Aggregator) TotalUnclaimedReward(ctx context.Context, gamer string) (uint64, error) {
	var total uint64
	err := a.view(ctx, func(repo *repository.Repository) error {
		poolIDs, err := repo.PoolKeys(ctx)
		if err != nil {
			return err
		}
		a.monitor.AddKeysScanned(len(poolIDs))
		for _, poolID := range poolIDs {
			teams, err := repo.MayLoadPoolTeams(ctx, poolID, gamer)
			if err != nil {
				return err
			}
			for _, team := range teams {
				if team.GamerAddress != gamer || team.ClaimedReward != models.Unclaimed {
					continue
				}
				if total, err = checkedAdd(total, team.RewardAmount); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// TotalUnclaimedRefund sums refunds owed to gamer. Only pools marked for
// refund count, and each unclaimed team is refunded its pool type's entry
// fee rather than its own refund_amount.
func (a *Aggregator) TotalUnclaimedRefund(ctx context.Context, gamer string) (uint64, error) {
	var total uint64
	err := a.view(ctx, func(repo *repository.Repository) error {
		poolIDs, err := repo.PoolKeys(ctx)
		if err != nil {
			return err
		}
		a.monitor.AddKeysScanned(len(poolIDs))
		for _, poolID := range poolIDs {
			pool, found, err := repo.MayLoadPool(ctx, poolID)
			if err != nil {
				return err
			}
			if !found || !pool.PoolRefundStatus {
				continue
			}
			teams, err := repo.MayLoadPoolTeams(ctx, poolID, gamer)
			if err != nil {
				return err
			}

			var poolType *models.PoolTypeDetails
			for _, team := range teams {
				if team.GamerAddress != gamer || team.ClaimedRefund != models.Unclaimed {
					continue
				}
				if poolType == nil {
					ptd, err := repo.PoolType(ctx, pool.PoolType)
					if err != nil {
						return err
					}
					poolType = &ptd
				}
				if total, err = checkedAdd(total, poolType.PoolFee); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// TeamCount counts gamer's teams of one pool type in one game.
func (a *Aggregator) TeamCount(ctx context.Context, gamer, gameID, poolType string) (uint32, error) {
	var count uint32
	err := a.view(ctx, func(repo *repository.Repository) error {
		keys, err := repo.PoolTeamKeys(ctx)
		if err != nil {
			return err
		}
		a.monitor.AddKeysScanned(len(keys))
		for _, key := range keys {
			if key.Gamer != gamer {
				continue
			}
			teams, err := repo.PoolTeams(ctx, key.PoolID, key.Gamer)
			if err != nil {
				return err
			}
			for _, team := range teams {
				if team.PoolType == poolType &&
					team.GameID == gameID &&
					team.GamerAddress == gamer &&
					team.PoolID == key.PoolID {
					count++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Log.Debugw("Team count for user in pool type",
		"gamer", gamer, "game_id", gameID, "pool_type", poolType, "count", count)
	return count, nil
}

// TeamDetails finds one team in gamer's team list for poolID.
func (a *Aggregator) TeamDetails(ctx context.Context, poolID, teamID, gamer string) (models.PoolTeamDetails, error) {
	var result models.PoolTeamDetails
	err := a.view(ctx, func(repo *repository.Repository) error {
		teams, err := repo.PoolTeams(ctx, poolID, gamer)
		if err != nil {
			return err
		}
		for _, team := range teams {
			if team.TeamID == teamID {
				result = team
				return nil
			}
		}
		return fmt.Errorf("%w: pool team details for team %q in pool %q", models.ErrNotFound, teamID, poolID)
	})
	return result, err
}

// PoolsForCurrentGame lists the pools of the configured game in key order.
func (a *Aggregator) PoolsForCurrentGame(ctx context.Context) ([]models.PoolDetails, error) {
	pools := []models.PoolDetails{}
	err := a.view(ctx, func(repo *repository.Repository) error {
		cfg, err := a.config.Config(ctx, repo)
		if err != nil {
			return err
		}
		poolIDs, err := repo.PoolKeys(ctx)
		if err != nil {
			return err
		}
		a.monitor.AddKeysScanned(len(poolIDs))
		for _, poolID := range poolIDs {
			pool, err := repo.Pool(ctx, poolID)
			if err != nil {
				return err
			}
			if pool.GameID == cfg.GameID {
				pools = append(pools, pool)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pools, nil
}

// AllTeams returns every team of the given gamers, pool by pool.
func (a *Aggregator) AllTeams(ctx context.Context, gamers []string) ([]models.PoolTeamDetails, error) {
	all := []models.PoolTeamDetails{}
	err := a.view(ctx, func(repo *repository.Repository) error {
		poolIDs, err := repo.PoolKeys(ctx)
		if err != nil {
			return err
		}
		a.monitor.AddKeysScanned(len(poolIDs))
		for _, poolID := range poolIDs {
			for _, gamer := range gamers {
				teams, err := repo.MayLoadPoolTeams(ctx, poolID, gamer)
				if err != nil {
					return err
				}
				all = append(all, teams...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// GameResultOverlay carries the per-team fields laid over the template.
type GameResultOverlay struct {
	GamerAddress string
	TeamID       string
	// Matched is false when no team row matched; rank and points then
	// keep the template defaults.
	Matched      bool
	TeamRank     uint64
	TeamPoints   uint64
	RewardAmount uint64
	// RefundAmount is computed alongside the reward but the game result
	// view does not surface it; the template's refund amount is kept.
	RefundAmount uint64
}

// RenderGameResult returns a fresh GameResult built from template and o.
func RenderGameResult(template models.GameResult, o GameResultOverlay) models.GameResult {
	result := template
	result.GamerAddress = o.GamerAddress
	result.TeamID = o.TeamID
	result.RewardAmount = o.RewardAmount
	if o.Matched {
		result.TeamRank = o.TeamRank
		result.TeamPoints = o.TeamPoints
	}
	return result
}

// GameResult renders the result view of one team. The template record is
// a deployment precondition; its absence is ErrNotFound.
func (a *Aggregator) GameResult(ctx context.Context, gamer, poolID, teamID string) (models.GameResult, error) {
	var result models.GameResult
	err := a.view(ctx, func(repo *repository.Repository) error {
		cfg, err := a.config.Config(ctx, repo)
		if err != nil {
			return err
		}
		templateAddr, err := a.validator.Validate(a.templateAddress)
		if err != nil {
			return err
		}
		template, err := repo.GameResultTemplate(ctx, templateAddr)
		if err != nil {
			return err
		}
		teams, err := repo.MayLoadPoolTeams(ctx, poolID, gamer)
		if err != nil {
			return err
		}

		overlay := GameResultOverlay{GamerAddress: gamer, TeamID: teamID}
		for _, team := range teams {
			if team.GamerAddress != gamer ||
				team.TeamID != teamID ||
				team.GameID != cfg.GameID ||
				team.PoolID != poolID {
				continue
			}
			overlay.Matched = true
			overlay.TeamRank = team.TeamRank
			overlay.TeamPoints = team.TeamPoints
			if team.ClaimedReward == models.Unclaimed {
				if overlay.RewardAmount, err = checkedAdd(overlay.RewardAmount, team.RewardAmount); err != nil {
					return err
				}
			}
			if team.ClaimedRefund == models.Unclaimed {
				if overlay.RefundAmount, err = checkedAdd(overlay.RefundAmount, team.RefundAmount); err != nil {
					return err
				}
			}
		}
		result = RenderGameResult(template, overlay)
		return nil
	})
	return result, err
}

// PoolCollection is the entry fees collected by a pool. An overflowing
// product is reported as zero; it is logged and counted so operators can
// tell it apart from an empty pool.
func (a *Aggregator) PoolCollection(ctx context.Context, poolID string) (uint64, error) {
	var collection uint64
	err := a.view(ctx, func(repo *repository.Repository) error {
		pool, err := repo.Pool(ctx, poolID)
		if err != nil {
			return err
		}
		poolType, err := repo.PoolType(ctx, pool.PoolType)
		if err != nil {
			return err
		}
		product, ok := checkedMul(poolType.PoolFee, uint64(pool.CurrentTeamsCount))
		if !ok {
			// TODO: return models.ErrOverflow once clients stop relying on zero.
			logger.Log.Warnw("Pool collection overflowed, reporting zero",
				"pool_id", poolID, "pool_fee", poolType.PoolFee, "teams", pool.CurrentTeamsCount)
			a.monitor.IncCollectionOverflows()
			return nil
		}
		collection = product
		return nil
	})
	if err != nil {
		return 0, err
	}
	return collection, nil
}

// TotalFees applies the configured fee rates to amount.
func (a *Aggregator) TotalFees(ctx context.Context, amount uint64) (models.FeeDetails, error) {
	var fees models.FeeDetails
	err := a.view(ctx, func(repo *repository.Repository) error {
		cfg, err := a.config.Config(ctx, repo)
		if err != nil {
			return err
		}
		fees, err = ComputeFees(amount, cfg.PlatformFee, cfg.TransactionFee)
		return err
	})
	return fees, err
}

// GameDetails returns the details of the configured game.
func (a *Aggregator) GameDetails(ctx context.Context) (models.GameDetails, error) {
	var game models.GameDetails
	err := a.view(ctx, func(repo *repository.Repository) error {
		cfg, err := a.config.Config(ctx, repo)
		if err != nil {
			return err
		}
		game, err = repo.Game(ctx, cfg.GameID)
		return err
	})
	return game, err
}
