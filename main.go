package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wfunc/gamingpool/config"
	"github.com/wfunc/gamingpool/logger"
)

const programName = "gamingpool"

var globalFlags = struct {
	configDir string
	logLevel  string
}{}

// loadConfig 加载配置并初始化日志
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(globalFlags.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	level := cfg.Log.Level
	if globalFlags.logLevel != "" {
		level = globalFlags.logLevel
	}
	logger.Init(level)
	return cfg, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Pool settlement and claim query server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&globalFlags.configDir, "config", ".", "directory containing config.yaml")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logLevel, "log-level", "", "override log.level from the config")

	rootCmd.AddCommand(
		serveCommand(),
		seedCommand(),
		queryCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
