package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/wfunc/gamingpool/address"
	"github.com/wfunc/gamingpool/config"
	"github.com/wfunc/gamingpool/fixtures"
	"github.com/wfunc/gamingpool/logger"
	"github.com/wfunc/gamingpool/models"
	"github.com/wfunc/gamingpool/monitor"
	"github.com/wfunc/gamingpool/persistence"
	"github.com/wfunc/gamingpool/server"
	"github.com/wfunc/gamingpool/services"
	"github.com/wfunc/gamingpool/settlement"
)

func contractConfig(c config.ContractConfig) models.Config {
	return models.Config{
		AdminAddress:   c.AdminAddress,
		GameID:         c.GameID,
		PlatformFee:    c.PlatformFee,
		TransactionFee: c.TransactionFee,
	}
}

func configProvider(c config.ContractConfig) settlement.ConfigProvider {
	if c.ConfigSource == config.ConfigSourceStatic {
		return settlement.StaticConfig{Value: contractConfig(c)}
	}
	return settlement.StoreConfig{}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve pool queries over websocket and RPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serveRun(cmd.Context(), cfg)
		},
	}
}

func serveRun(ctx context.Context, cfg *config.Config) error {
	store, err := persistence.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Log.Infow("Store opened", "backend", cfg.Store.Backend)

	if cfg.Contract.ConfigSource == config.ConfigSourceStore && cfg.Contract.GameID != "" {
		wrote, err := fixtures.EnsureConfig(ctx, store, contractConfig(cfg.Contract), cfg.Contract.FeeWallet)
		if err != nil {
			return err
		}
		if wrote {
			logger.Log.Infow("Seeded empty store with contract config", "game_id", cfg.Contract.GameID)
		}
	}

	mon := monitor.NewMonitor(programName, prometheus.NewRegistry())
	if cfg.Server.MetricsAddress != "" {
		mon.StartServer(cfg.Server.MetricsAddress)
		defer mon.StopServer()
	}

	agg := settlement.NewAggregator(store, configProvider(cfg.Contract),
		settlement.WithMonitor(mon),
		settlement.WithResultTemplate(
			address.NewBech32Validator(cfg.Contract.AddressPrefix),
			cfg.Contract.ResultTemplateAddress,
		),
	)
	queries := services.NewPoolQueryService(store, agg, mon)

	srv, err := server.NewPoolServer(server.Options{
		Addr:              cfg.Server.HTTPAddress,
		RPCAddr:           cfg.Server.RPCAddress,
		HeartbeatInterval: cfg.Server.HeartbeatInterval,
		QueryTimeout:      cfg.Server.QueryTimeout,
	}, queries, mon)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logger.Log.Infof("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Server shutdown failed: %v", err)
	}
	return <-errChan
}
