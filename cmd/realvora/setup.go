package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"realvora-go/internal/app"
	"realvora-go/internal/config"
)

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		chainID, _ := cmd.Flags().GetString("chain-id")
		admins, _ := cmd.Flags().GetStringSlice("admin")
		treasury, _ := cmd.Flags().GetString("treasury")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg := config.NewConfig(chainID, defaults["base_dir"])
		cfg.Admins = admins
		cfg.Treasury = treasury
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return err
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Chain ID: %s\n", chainID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		if len(admins) == 0 {
			fmt.Println("No admins set: add at least one to `admins` before running `realvora ledger init`.")
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		settings, err := app.SettingsFromConfig(cfg)
		if err != nil {
			return err
		}

		fmt.Printf("Chain ID:      %s\n", cfg.ChainID)
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Database:      %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Mempool:       %s %s\n", cfg.Mempool.Type, cfg.Mempool.MempoolDir)
		fmt.Printf("Admins:        %v\n", cfg.Admins)
		fmt.Printf("Treasury:      %s\n", cfg.Treasury)
		fmt.Printf("Trading fee:   %s (max %s)\n", app.FormatBps(settings.TradingFeeBps), app.FormatBps(settings.MaxFeeBps))
		fmt.Printf("Voting:        %d blocks, quorum %d%%, approval %d%%, power=%s\n",
			settings.VotingPeriod, settings.QuorumPct, settings.ApprovalPct, settings.VotingPower)
		fmt.Printf("Revenue basis: %s\n", settings.RevenueBasis)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:         %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

// ledger command
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Manage the ledger store",
}

var ledgerInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the ledger, apply the schema and seed admins",
	RunE: func(cmd *cobra.Command, args []string) error {
		setupKeys, _ := cmd.Flags().GetBool("setup-keys")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var passphrase string
		if setupKeys {
			if passphrase, err = readPassphrase("Snapshot key passphrase: "); err != nil {
				return err
			}
			confirm, err := readPassphrase("Confirm passphrase: ")
			if err != nil {
				return err
			}
			if confirm != passphrase {
				return errors.New("passphrases do not match")
			}
			if passphrase == "" {
				return errors.New("passphrase must not be empty")
			}
		}

		if err := app.InitLedger(cfg, passphrase); err != nil {
			return err
		}
		fmt.Printf("Ledger %s initialized with %d admin(s)\n", cfg.ChainID, len(cfg.Admins))
		if setupKeys {
			fmt.Printf("Snapshot keys: %s\n", cfg.Encryption.PublicKeyPath)
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().String("chain-id", "realvora-devnet", "Chain identifier")
	configInitCmd.Flags().StringSlice("admin", nil, "Admin address (repeatable)")
	configInitCmd.Flags().String("treasury", "", "Treasury address collecting trading fees")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	ledgerInitCmd.Flags().Bool("setup-keys", false, "Generate an age key pair for snapshot encryption")
	ledgerCmd.AddCommand(ledgerInitCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(ledgerCmd)
}
