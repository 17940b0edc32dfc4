// Copyright 2025 Veda Platform, Inc.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/veda-platform/az/pkg/config"
)

var (
	dataPath   string
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "azctl",
	Short: "azctl - Command line tool for the authorization core",
	Long: `azctl is a command line management tool for the az authorization core.
It provides commands for evaluating authorization decisions and inspecting configuration.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		if configFile != "" {
			var err error
			cfg, err = config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if dataPath != "" {
				cfg.Storage.Path = dataPath
			}
		} else if dataPath == "" {
			return fmt.Errorf("either --data-path or --config must be specified")
		} else {
			cfg = &config.Config{
				Storage: config.StorageConfig{
					Path: dataPath,
				},
			}
			tempCfg, err := config.Load("")
			if err == nil {
				cfg.Storage.Backend = tempCfg.Storage.Backend
				cfg.Engine = tempCfg.Engine
			}
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data-path", "d", "", "Storage data file path")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
