package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wfunc/gamingpool/fixtures"
	"github.com/wfunc/gamingpool/models"
	"github.com/wfunc/gamingpool/monitor"
	"github.com/wfunc/gamingpool/persistence"
	"github.com/wfunc/gamingpool/settlement"
)

const seed = `
config: {game_id: G1, platform_fee: 5, transaction_fee: 1}
fee_wallet: terra1feewallet
pool_types:
  - {pool_type: T2, pool_fee: 50}
  - {pool_type: T1, pool_fee: 100, max_teams_for_gamer: 3}
pools:
  - {pool_id: P1, game_id: G1, pool_type: T1, current_teams_count: 2}
  - {pool_id: P2, game_id: G1, pool_type: T2, current_teams_count: 1, pool_refund_status: true}
teams:
  - {team_id: A1, game_id: G1, pool_id: P1, pool_type: T1, gamer_address: alice, team_rank: 2, reward_amount: 500}
  - {team_id: A2, game_id: G1, pool_id: P2, pool_type: T2, gamer_address: alice}
games: [{game_id: G1, game_status: 1}]
game_result_template: {address: terra1t3czdl5h4w4qwgkzs80fdstj0z7rfv9v2j6uh3, game_id: G1, team_rank: 100000}
swap_balances: [{pool_id: P1, source_denom: uusd, source_amount: 1000, swapped_denom: uluna, swapped_amount: 10, exchange_rate: "100"}]
`

func newTestService(t *testing.T) (*PoolQueryService, *monitor.Monitor) {
	t.Helper()
	ctx := context.Background()
	store, err := persistence.NewBadgerStore()
	if err != nil {
		t.Fatalf("NewBadgerStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := fixtures.ApplyYAML(ctx, store, []byte(seed)); err != nil {
		t.Fatalf("ApplyYAML failed: %v", err)
	}
	mon := monitor.NewMonitor("test", prometheus.NewRegistry())
	agg := settlement.NewAggregator(store, settlement.StoreConfig{}, settlement.WithMonitor(mon))
	return NewPoolQueryService(store, agg, mon), mon
}

func TestPoolQueryService_Lookups(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	wallet, err := svc.FeeWallet(ctx)
	if err != nil || wallet != "terra1feewallet" {
		t.Errorf("FeeWallet: got %q err=%v", wallet, err)
	}

	pt, err := svc.PoolTypeDetails(ctx, "T1")
	if err != nil || pt.PoolFee != 100 || pt.MaxTeamsForGamer != 3 {
		t.Errorf("PoolTypeDetails: got %+v err=%v", pt, err)
	}

	all, err := svc.AllPoolTypeDetails(ctx)
	if err != nil {
		t.Fatalf("AllPoolTypeDetails failed: %v", err)
	}
	if len(all) != 2 || all[0].PoolType != "T1" || all[1].PoolType != "T2" {
		t.Errorf("Expected pool types in key order, got %+v", all)
	}

	pool, err := svc.PoolDetails(ctx, "P2")
	if err != nil || !pool.PoolRefundStatus {
		t.Errorf("PoolDetails: got %+v err=%v", pool, err)
	}

	game, err := svc.GameDetails(ctx)
	if err != nil || game.GameStatus != 1 {
		t.Errorf("GameDetails: got %+v err=%v", game, err)
	}

	swap, err := svc.SwapDataForPool(ctx, "P1")
	if err != nil || swap.SwappedDenom != "uluna" || swap.SourceAmount != 1000 {
		t.Errorf("SwapDataForPool: got %+v err=%v", swap, err)
	}
}

func TestPoolQueryService_Aggregates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if reward, err := svc.Reward(ctx, "alice"); err != nil || reward != 500 {
		t.Errorf("Reward: got %d err=%v", reward, err)
	}
	if refund, err := svc.Refund(ctx, "alice"); err != nil || refund != 50 {
		t.Errorf("Refund: got %d err=%v", refund, err)
	}
	if count, err := svc.TeamCountForUserInPoolType(ctx, "alice", "G1", "T1"); err != nil || count != 1 {
		t.Errorf("TeamCountForUserInPoolType: got %d err=%v", count, err)
	}
	if collection, err := svc.PoolCollection(ctx, "P1"); err != nil || collection != 200 {
		t.Errorf("PoolCollection: got %d err=%v", collection, err)
	}
	if fees, err := svc.TotalFees(ctx, 200); err != nil || fees.NetAmount != 188 {
		t.Errorf("TotalFees: got %+v err=%v", fees, err)
	}

	pools, err := svc.AllPoolsInGame(ctx)
	if err != nil || len(pools) != 2 {
		t.Errorf("AllPoolsInGame: got %+v err=%v", pools, err)
	}

	teams, err := svc.AllTeams(ctx, []string{"alice"})
	if err != nil || len(teams) != 2 {
		t.Errorf("AllTeams: got %+v err=%v", teams, err)
	}

	team, err := svc.TeamDetails(ctx, "P1", "A1", "alice")
	if err != nil || team.TeamRank != 2 {
		t.Errorf("TeamDetails: got %+v err=%v", team, err)
	}

	result, err := svc.GameResult(ctx, "alice", "P1", "A1")
	if err != nil || result.TeamRank != 2 || result.RewardAmount != 500 {
		t.Errorf("GameResult: got %+v err=%v", result, err)
	}
}

func TestPoolQueryService_PoolTeamDetails(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	teams, err := svc.PoolTeamDetails(ctx, "P1", "alice")
	if err != nil {
		t.Fatalf("PoolTeamDetails failed: %v", err)
	}
	if len(teams) != 1 || teams[0].TeamID != "A1" {
		t.Errorf("Expected alice's team A1, got %+v", teams)
	}

	teams, err = svc.PoolTeamDetails(ctx, "P1", "nobody")
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a gamer without teams, got teams=%#v err=%v", teams, err)
	}
	if _, err := svc.PoolTeamDetails(ctx, "P404", "alice"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for an unknown pool, got %v", err)
	}
}

func TestPoolQueryService_ErrorsKeepTheirKind(t *testing.T) {
	ctx := context.Background()
	svc, mon := newTestService(t)

	if _, err := svc.PoolDetails(ctx, "P404"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := svc.TeamDetails(ctx, "P1", "T-404", "alice"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := svc.SwapDataForPool(ctx, "P2"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	queries := mon.Metrics().QueriesTotal
	if n := testutil.ToFloat64(queries.WithLabelValues("pool_details", "not_found")); n != 1 {
		t.Errorf("Expected one not_found pool_details query, got %v", n)
	}
	if n := testutil.ToFloat64(queries.WithLabelValues("team_details", "not_found")); n != 1 {
		t.Errorf("Expected one not_found team_details query, got %v", n)
	}
}
