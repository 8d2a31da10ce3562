package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"realvora-go/internal/app"
)

// tx command
var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Queue raw calls for the next block",
}

var txSubmitCmd = &cobra.Command{
	Use:   "submit OPERATION [ARGS_JSON]",
	Short: "Queue a call; ARGS_JSON defaults to {}",
	Long:  "Queue a call for the next block. Operations:\n  " + strings.Join(app.Operations(), "\n  "),
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if caller == "" {
			return fmt.Errorf("--as ADDRESS is required for this command")
		}
		raw := json.RawMessage("{}")
		if len(args) == 2 {
			raw = json.RawMessage(args[1])
			if !json.Valid(raw) {
				return fmt.Errorf("arguments are not valid JSON: %s", args[1])
			}
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		call, err := a.Submit(caller, args[0], raw)
		if err != nil {
			return err
		}
		fmt.Printf("Queued %s as call %s\n", call.Operation, call.ID)
		return nil
	},
}

var txPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List queued calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		return query(func(a *app.App) error {
			calls, err := a.Pending()
			if err != nil {
				return err
			}
			if len(calls) == 0 {
				fmt.Println("Mempool is empty.")
				return nil
			}
			for _, c := range calls {
				fmt.Printf("%s  %s  %-20s %-20s %s\n",
					c.ID, c.SubmittedAt.Format("2006-01-02 15:04:05"), c.Caller, c.Operation, c.Args)
			}
			return nil
		})
	},
}

// block command
var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Produce blocks",
}

var blockMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Execute queued calls and advance the height",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		return query(func(a *app.App) error {
			for i := 0; i < count; i++ {
				res, err := a.MineBlock()
				if err != nil {
					return err
				}
				fmt.Printf("Block %d: %d call(s), %d failed, %d order(s) expired\n",
					res.Height, len(res.Receipts), res.Failed(), res.Expired)
				for _, r := range res.Receipts {
					fmt.Print("  ")
					printReceipt(r)
				}
			}
			h, err := a.Height()
			if err != nil {
				return err
			}
			fmt.Printf("Height: %d\n", h)
			return nil
		})
	},
}

var blockHeightCmd = &cobra.Command{
	Use:   "height",
	Short: "Show the current block height",
	RunE: func(cmd *cobra.Command, args []string) error {
		return query(func(a *app.App) error {
			h, err := a.Height()
			if err != nil {
				return err
			}
			fmt.Println(h)
			return nil
		})
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View the operation journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return query(func(a *app.App) error {
			ops, err := a.Service().GetHistory(limit)
			if err != nil {
				return err
			}
			if len(ops) == 0 {
				fmt.Println("No operations recorded.")
				return nil
			}
			for _, op := range ops {
				duration := ""
				if op.FinishedAt != nil {
					duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
				}
				fmt.Printf("#%d  %-20s  block %-6d %s  %-20s %-8s %s\n",
					op.ID,
					op.Operation,
					op.Block,
					op.StartedAt.Format("2006-01-02 15:04:05"),
					op.Caller,
					op.Status,
					duration,
				)
			}
			return nil
		})
	},
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Copy the ledger to and from the vault",
}

var snapshotPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload a snapshot of the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")
		return query(func(a *app.App) error {
			info, err := a.PushSnapshot(encrypt)
			if err != nil {
				return err
			}
			fmt.Printf("Pushed %s snapshot version %d (%d bytes, encrypted=%v)\n",
				info.ChainID, info.Version, info.Size, info.Encrypted)
			return nil
		})
	},
}

var snapshotPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download the latest snapshot",
	Long: `Download the latest snapshot. By default it is written to the ledger's
database path, which must not exist; move the stale database aside first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if out == "" {
			if cfg.Database.Type != "sqlite" {
				return fmt.Errorf("--out is required for a %s database", cfg.Database.Type)
			}
			out = filepath.Join(cfg.Database.DataDir, cfg.ChainID+".db")
		}

		info, err := app.PullSnapshot(cfg, out, func() (string, error) {
			return readPassphrase("Snapshot key passphrase: ")
		})
		if err != nil {
			return err
		}
		fmt.Printf("Pulled %s snapshot version %d to %s (encrypted=%v)\n",
			info.ChainID, info.Version, info.Path, info.Encrypted)
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the query API and produce blocks on a schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return query(func(a *app.App) error {
			return a.Serve(ctx)
		})
	},
}

func init() {
	txCmd.AddCommand(txSubmitCmd)
	txCmd.AddCommand(txPendingCmd)

	blockMineCmd.Flags().IntP("count", "c", 1, "Number of blocks to mine")
	blockCmd.AddCommand(blockMineCmd)
	blockCmd.AddCommand(blockHeightCmd)

	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")

	snapshotPushCmd.Flags().Bool("encrypt", true, "Encrypt with the age public key")
	snapshotPullCmd.Flags().String("out", "", "Destination path")
	snapshotCmd.AddCommand(snapshotPushCmd)
	snapshotCmd.AddCommand(snapshotPullCmd)

	rootCmd.AddCommand(txCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(serveCmd)
}
