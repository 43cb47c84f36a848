// services/pool_query_service.go
package services

import (
	"context"
	"time"

	"github.com/wfunc/gamingpool/logger"
	"github.com/wfunc/gamingpool/models"
	"github.com/wfunc/gamingpool/monitor"
	"github.com/wfunc/gamingpool/persistence"
	"github.com/wfunc/gamingpool/repository"
	"github.com/wfunc/gamingpool/settlement"
)

// PoolQueryService 对外提供全部只读查询
type PoolQueryService struct {
	store      persistence.Store
	aggregator *settlement.Aggregator
	monitor    *monitor.Monitor
}

func NewPoolQueryService(store persistence.Store, aggregator *settlement.Aggregator, m *monitor.Monitor) *PoolQueryService {
	return &PoolQueryService{store: store, aggregator: aggregator, monitor: m}
}

func (s *PoolQueryService) observe(query string, start time.Time, err error) {
	elapsed := time.Since(start)
	s.monitor.ObserveQuery(query, elapsed, err)
	if err != nil {
		logger.Log.Debugw("Query failed", "query", query, "duration", elapsed, "error", err)
		return
	}
	logger.Log.Debugw("Query served", "query", query, "duration", elapsed)
}

// read 在同一个快照内执行仓库查询
func (s *PoolQueryService) read(ctx context.Context, fn func(repo *repository.Repository) error) error {
	return s.store.View(ctx, func(r persistence.Reader) error {
		return fn(repository.New(r))
	})
}

func (s *PoolQueryService) FeeWallet(ctx context.Context) (wallet string, err error) {
	defer func(start time.Time) { s.observe("fee_wallet", start, err) }(time.Now())
	err = s.read(ctx, func(repo *repository.Repository) error {
		wallet, err = repo.FeeWallet(ctx)
		return err
	})
	return wallet, err
}

func (s *PoolQueryService) PoolTypeDetails(ctx context.Context, poolType string) (details models.PoolTypeDetails, err error) {
	defer func(start time.Time) { s.observe("pool_type_details", start, err) }(time.Now())
	err = s.read(ctx, func(repo *repository.Repository) error {
		details, err = repo.PoolType(ctx, poolType)
		return err
	})
	return details, err
}

// AllPoolTypeDetails 按键的升序返回全部池类型
func (s *PoolQueryService) AllPoolTypeDetails(ctx context.Context) (all []models.PoolTypeDetails, err error) {
	defer func(start time.Time) { s.observe("all_pool_types", start, err) }(time.Now())
	all = []models.PoolTypeDetails{}
	err = s.read(ctx, func(repo *repository.Repository) error {
		keys, err := repo.PoolTypeKeys(ctx)
		if err != nil {
			return err
		}
		for _, key := range keys {
			details, err := repo.PoolType(ctx, key)
			if err != nil {
				return err
			}
			all = append(all, details)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

func (s *PoolQueryService) TotalFees(ctx context.Context, amount uint64) (fees models.FeeDetails, err error) {
	defer func(start time.Time) { s.observe("total_fees", start, err) }(time.Now())
	return s.aggregator.TotalFees(ctx, amount)
}

// PoolTeamDetails 返回玩家在某个池中的全部队伍, 不存在时返回 models.ErrNotFound
func (s *PoolQueryService) PoolTeamDetails(ctx context.Context, poolID, gamer string) (teams []models.PoolTeamDetails, err error) {
	defer func(start time.Time) { s.observe("pool_team_details", start, err) }(time.Now())
	err = s.read(ctx, func(repo *repository.Repository) error {
		teams, err = repo.PoolTeams(ctx, poolID, gamer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (s *PoolQueryService) AllTeams(ctx context.Context, gamers []string) (teams []models.PoolTeamDetails, err error) {
	defer func(start time.Time) { s.observe("all_teams", start, err) }(time.Now())
	return s.aggregator.AllTeams(ctx, gamers)
}

// Reward 玩家所有未领取的奖励
func (s *PoolQueryService) Reward(ctx context.Context, gamer string) (amount uint64, err error) {
	defer func(start time.Time) { s.observe("reward", start, err) }(time.Now())
	return s.aggregator.TotalUnclaimedReward(ctx, gamer)
}

// Refund 玩家所有未领取的退款
func (s *PoolQueryService) Refund(ctx context.Context, gamer string) (amount uint64, err error) {
	defer func(start time.Time) { s.observe("refund", start, err) }(time.Now())
	return s.aggregator.TotalUnclaimedRefund(ctx, gamer)
}

func (s *PoolQueryService) GameResult(ctx context.Context, gamer, poolID, teamID string) (result models.GameResult, err error) {
	defer func(start time.Time) { s.observe("game_result", start, err) }(time.Now())
	return s.aggregator.GameResult(ctx, gamer, poolID, teamID)
}

func (s *PoolQueryService) PoolDetails(ctx context.Context, poolID string) (pool models.PoolDetails, err error) {
	defer func(start time.Time) { s.observe("pool_details", start, err) }(time.Now())
	err = s.read(ctx, func(repo *repository.Repository) error {
		pool, err = repo.Pool(ctx, poolID)
		return err
	})
	return pool, err
}

func (s *PoolQueryService) TeamCountForUserInPoolType(ctx context.Context, gamer, gameID, poolType string) (count uint32, err error) {
	defer func(start time.Time) { s.observe("team_count", start, err) }(time.Now())
	return s.aggregator.TeamCount(ctx, gamer, gameID, poolType)
}

func (s *PoolQueryService) GameDetails(ctx context.Context) (game models.GameDetails, err error) {
	defer func(start time.Time) { s.observe("game_details", start, err) }(time.Now())
	return s.aggregator.GameDetails(ctx)
}

func (s *PoolQueryService) TeamDetails(ctx context.Context, poolID, teamID, gamer string) (team models.PoolTeamDetails, err error) {
	defer func(start time.Time) { s.observe("team_details", start, err) }(time.Now())
	return s.aggregator.TeamDetails(ctx, poolID, teamID, gamer)
}

func (s *PoolQueryService) AllPoolsInGame(ctx context.Context) (pools []models.PoolDetails, err error) {
	defer func(start time.Time) { s.observe("all_pools_in_game", start, err) }(time.Now())
	return s.aggregator.PoolsForCurrentGame(ctx)
}

func (s *PoolQueryService) PoolCollection(ctx context.Context, poolID string) (amount uint64, err error) {
	defer func(start time.Time) { s.observe("pool_collection", start, err) }(time.Now())
	return s.aggregator.PoolCollection(ctx, poolID)
}

func (s *PoolQueryService) SwapDataForPool(ctx context.Context, poolID string) (swap models.SwapBalanceDetails, err error) {
	defer func(start time.Time) { s.observe("swap_data_for_pool", start, err) }(time.Now())
	err = s.read(ctx, func(repo *repository.Repository) error {
		swap, err = repo.SwapBalance(ctx, poolID)
		return err
	})
	return swap, err
}
