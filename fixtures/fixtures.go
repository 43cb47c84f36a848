// Package fixtures loads seed data from YAML into a store. It writes
// entities the way the mutation layer lays them out and exists for local
// development and tests only.
package fixtures

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wfunc/gamingpool/models"
	"github.com/wfunc/gamingpool/persistence"
	"github.com/wfunc/gamingpool/repository"
)

type ResultTemplate struct {
	Address           string `yaml:"address"`
	models.GameResult `yaml:",inline"`
}

type Fixture struct {
	Config         *models.Config              `yaml:"config"`
	FeeWallet      string                      `yaml:"fee_wallet"`
	PoolTypes      []models.PoolTypeDetails    `yaml:"pool_types"`
	Pools          []models.PoolDetails        `yaml:"pools"`
	Teams          []models.PoolTeamDetails    `yaml:"teams"`
	Games          []models.GameDetails        `yaml:"games"`
	ResultTemplate *ResultTemplate             `yaml:"game_result_template"`
	SwapBalances   []models.SwapBalanceDetails `yaml:"swap_balances"`
}

// Parse decodes a fixture, rejecting unknown fields.
func Parse(data []byte) (*Fixture, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Apply writes the fixture. Teams are grouped into one list per
// (pool_id, gamer_address), keeping their order in the file.
func (f *Fixture) Apply(ctx context.Context, store persistence.Store) error {
	if f.Config != nil {
		if err := putJSON(ctx, store, repository.ConfigKey(), f.Config); err != nil {
			return err
		}
	}
	if f.FeeWallet != "" {
		if err := putJSON(ctx, store, repository.FeeWalletKey(), f.FeeWallet); err != nil {
			return err
		}
	}
	for _, pt := range f.PoolTypes {
		if err := putJSON(ctx, store, repository.PoolTypeKey(pt.PoolType), pt); err != nil {
			return err
		}
	}
	for _, p := range f.Pools {
		if err := putJSON(ctx, store, repository.PoolKey(p.PoolID), p); err != nil {
			return err
		}
	}

	var order []repository.TeamListKey
	lists := make(map[repository.TeamListKey][]models.PoolTeamDetails)
	for _, team := range f.Teams {
		k := repository.TeamListKey{PoolID: team.PoolID, Gamer: team.GamerAddress}
		if _, ok := lists[k]; !ok {
			order = append(order, k)
		}
		lists[k] = append(lists[k], team)
	}
	for _, k := range order {
		if err := putJSON(ctx, store, repository.PoolTeamsKey(k.PoolID, k.Gamer), lists[k]); err != nil {
			return err
		}
	}

	for _, g := range f.Games {
		if err := putJSON(ctx, store, repository.GameKey(g.GameID), g); err != nil {
			return err
		}
	}
	if f.ResultTemplate != nil {
		key := repository.GameResultKey(f.ResultTemplate.Address)
		if err := putJSON(ctx, store, key, f.ResultTemplate.GameResult); err != nil {
			return err
		}
	}
	for _, sb := range f.SwapBalances {
		if err := putJSON(ctx, store, repository.SwapBalanceKey(sb.PoolID), sb); err != nil {
			return err
		}
	}
	return nil
}

// ApplyYAML parses data and applies it.
func ApplyYAML(ctx context.Context, store persistence.Store, data []byte) error {
	f, err := Parse(data)
	if err != nil {
		return err
	}
	return f.Apply(ctx, store)
}

func putJSON(ctx context.Context, store persistence.Store, key persistence.Key, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// EnsureConfig writes cfg and feeWallet unless the store already holds
// them, so values from the config file only seed an empty store.
func EnsureConfig(ctx context.Context, store persistence.Store, cfg models.Config, feeWallet string) (wrote bool, err error) {
	repo := repository.New(store)
	if _, found, err := repo.MayLoadConfig(ctx); err != nil {
		return false, err
	} else if !found {
		if err := putJSON(ctx, store, repository.ConfigKey(), cfg); err != nil {
			return false, err
		}
		wrote = true
	}

	if feeWallet == "" {
		return wrote, nil
	}
	if _, found, err := store.GetOptional(ctx, repository.FeeWalletKey()); err != nil {
		return wrote, err
	} else if !found {
		if err := putJSON(ctx, store, repository.FeeWalletKey(), feeWallet); err != nil {
			return wrote, err
		}
		wrote = true
	}
	return wrote, nil
}

// Summary counts the entities held by a store.
type Summary struct {
	PoolTypes    int
	Pools        int
	TeamLists    int
	Games        int
	SwapBalances int
}

// Summarize counts the entities in store from one snapshot.
func Summarize(ctx context.Context, store persistence.Store) (Summary, error) {
	var sum Summary
	err := store.View(ctx, func(r persistence.Reader) error {
		repo := repository.New(r)
		poolTypes, err := repo.PoolTypeKeys(ctx)
		if err != nil {
			return err
		}
		pools, err := repo.PoolKeys(ctx)
		if err != nil {
			return err
		}
		teamLists, err := repo.PoolTeamKeys(ctx)
		if err != nil {
			return err
		}
		games, err := repo.GameKeys(ctx)
		if err != nil {
			return err
		}
		swaps, err := repo.SwapBalanceKeys(ctx)
		if err != nil {
			return err
		}
		sum = Summary{
			PoolTypes:    len(poolTypes),
			Pools:        len(pools),
			TeamLists:    len(teamLists),
			Games:        len(games),
			SwapBalances: len(swaps),
		}
		return nil
	})
	return sum, err
}
