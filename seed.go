package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/wfunc/gamingpool/fixtures"
	"github.com/wfunc/gamingpool/logger"
	"github.com/wfunc/gamingpool/persistence"
)

// seed 仅用于开发和测试环境
func seedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load pools, teams and config from a YAML fixture into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fixture, err := fixtures.LoadFile(file)
			if err != nil {
				return err
			}

			store, err := persistence.Open(cfg.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := fixture.Apply(cmd.Context(), store); err != nil {
				return err
			}
			sum, err := fixtures.Summarize(cmd.Context(), store)
			if err != nil {
				return err
			}
			logger.Log.Infow("Fixture applied",
				"file", file,
				"backend", cfg.Store.Backend,
				"pool_types", sum.PoolTypes,
				"pools", sum.Pools,
				"team_lists", sum.TeamLists,
				"games", sum.Games,
				"swap_balances", sum.SwapBalances,
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file")
	return cmd
}
