package fixtures

import (
	"context"
	"testing"

	"github.com/wfunc/gamingpool/models"
	"github.com/wfunc/gamingpool/persistence"
	"github.com/wfunc/gamingpool/repository"
)

const seed = `
config:
  game_id: G1
  platform_fee: 5
  transaction_fee: 1
fee_wallet: terra1feewallet
pool_types:
  - pool_type: T1
    pool_fee: 100
pools:
  - pool_id: P1
    game_id: G1
    pool_type: T1
    current_teams_count: 3
teams:
  - {team_id: A1, pool_id: P1, gamer_address: alice, reward_amount: 10}
  - {team_id: B1, pool_id: P1, gamer_address: bob, claimed_reward: claimed}
  - {team_id: A2, pool_id: P1, gamer_address: alice, claimed_refund: true}
game_result_template:
  address: terra1template
  team_rank: 100000
`

func TestApplyYAML(t *testing.T) {
	ctx := context.Background()
	store, err := persistence.NewBadgerStore()
	if err != nil {
		t.Fatalf("NewBadgerStore failed: %v", err)
	}
	defer store.Close()

	if err := ApplyYAML(ctx, store, []byte(seed)); err != nil {
		t.Fatalf("ApplyYAML failed: %v", err)
	}

	repo := repository.New(store)
	cfg, err := repo.Config(ctx)
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if cfg.GameID != "G1" || cfg.PlatformFee != 5 {
		t.Errorf("Unexpected config: %+v", cfg)
	}

	wallet, err := repo.FeeWallet(ctx)
	if err != nil || wallet != "terra1feewallet" {
		t.Errorf("Expected fee wallet, got %q err=%v", wallet, err)
	}

	alice, err := repo.PoolTeams(ctx, "P1", "alice")
	if err != nil {
		t.Fatalf("PoolTeams failed: %v", err)
	}
	if len(alice) != 2 || alice[0].TeamID != "A1" || alice[1].TeamID != "A2" {
		t.Fatalf("Expected alice's teams in file order, got %+v", alice)
	}
	if alice[1].ClaimedRefund != models.Claimed {
		t.Errorf("Expected boolean claim flag to decode as claimed, got %v", alice[1].ClaimedRefund)
	}

	bob, err := repo.PoolTeams(ctx, "P1", "bob")
	if err != nil {
		t.Fatalf("PoolTeams failed: %v", err)
	}
	if bob[0].ClaimedReward != models.Claimed {
		t.Errorf("Expected bob's reward claimed, got %v", bob[0].ClaimedReward)
	}

	tmpl, err := repo.GameResultTemplate(ctx, "terra1template")
	if err != nil {
		t.Fatalf("GameResultTemplate failed: %v", err)
	}
	if tmpl.TeamRank != 100000 {
		t.Errorf("Expected template rank 100000, got %d", tmpl.TeamRank)
	}
}

func TestParse_UnknownField(t *testing.T) {
	if _, err := Parse([]byte("pools:\n  - pool_id: P1\n    bogus: 1\n")); err == nil {
		t.Error("Expected error for unknown field")
	}
}

func TestParse_InvalidClaimStatus(t *testing.T) {
	if _, err := Parse([]byte("teams:\n  - team_id: A\n    claimed_reward: maybe\n")); err == nil {
		t.Error("Expected error for invalid claim status")
	}
}

func TestEnsureConfig(t *testing.T) {
	ctx := context.Background()
	store, err := persistence.NewBadgerStore()
	if err != nil {
		t.Fatalf("NewBadgerStore failed: %v", err)
	}
	defer store.Close()

	wrote, err := EnsureConfig(ctx, store, models.Config{GameID: "G1"}, "terra1wallet")
	if err != nil || !wrote {
		t.Fatalf("Expected first EnsureConfig to write, got wrote=%v err=%v", wrote, err)
	}
	wrote, err = EnsureConfig(ctx, store, models.Config{GameID: "G2"}, "terra1other")
	if err != nil || wrote {
		t.Fatalf("Expected second EnsureConfig to keep stored values, got wrote=%v err=%v", wrote, err)
	}

	repo := repository.New(store)
	cfg, err := repo.Config(ctx)
	if err != nil || cfg.GameID != "G1" {
		t.Errorf("Expected stored game G1, got %+v err=%v", cfg, err)
	}
	wallet, err := repo.FeeWallet(ctx)
	if err != nil || wallet != "terra1wallet" {
		t.Errorf("Expected stored wallet, got %q err=%v", wallet, err)
	}
}

func TestLoadFile_Example(t *testing.T) {
	f, err := LoadFile("testdata/pools.yaml")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(f.PoolTypes) != 2 || len(f.Pools) != 2 || len(f.Teams) != 5 {
		t.Errorf("Unexpected fixture sizes: %d pool types, %d pools, %d teams",
			len(f.PoolTypes), len(f.Pools), len(f.Teams))
	}
	if len(f.PoolTypes[0].WalletPercentages) != 1 {
		t.Errorf("Expected wallet percentages on the first pool type, got %+v", f.PoolTypes[0])
	}
	if f.ResultTemplate == nil || f.ResultTemplate.TeamRank != 100000 {
		t.Errorf("Expected result template, got %+v", f.ResultTemplate)
	}
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	store, err := persistence.NewBadgerStore()
	if err != nil {
		t.Fatalf("NewBadgerStore failed: %v", err)
	}
	defer store.Close()

	f, err := LoadFile("testdata/pools.yaml")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if err := f.Apply(ctx, store); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	sum, err := Summarize(ctx, store)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	// teams group into (pool, gamer) lists: 1/alice, 1/bob, 2/alice, 2/bob
	want := Summary{PoolTypes: 2, Pools: 2, TeamLists: 4, Games: 1, SwapBalances: 1}
	if sum != want {
		t.Errorf("Expected %+v, got %+v", want, sum)
	}
}
