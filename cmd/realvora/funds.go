package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"realvora-go/internal/app"
	"realvora-go/internal/model"
)

// funds command
var fundsCmd = &cobra.Command{
	Use:   "funds",
	Short: "Move STX balances",
}

var fundsDepositCmd = &cobra.Command{
	Use:   "deposit ADDRESS AMOUNT",
	Short: "Credit an address (admin only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := app.ParseAmount(args[1])
		if err != nil {
			return err
		}
		return mutate("deposit", app.DepositArgs{Address: args[0], Amount: amount})
	},
}

var fundsWithdrawCmd = &cobra.Command{
	Use:   "withdraw AMOUNT",
	Short: "Withdraw from your balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := app.ParseAmount(args[0])
		if err != nil {
			return err
		}
		return mutate("withdraw", app.WithdrawArgs{Amount: amount})
	},
}

var fundsTransferCmd = &cobra.Command{
	Use:   "transfer TO AMOUNT",
	Short: "Send funds to another address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := app.ParseAmount(args[1])
		if err != nil {
			return err
		}
		return mutate("transfer", app.TransferArgs{To: args[0], Amount: amount})
	},
}

var fundsBalanceCmd = &cobra.Command{
	Use:   "balance ADDRESS",
	Short: "Show an address's balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return query(func(a *app.App) error {
			balance, err := a.Service().GetBalance(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", args[0], app.FormatAmount(balance))
			return nil
		})
	},
}

// role command
var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Grant and revoke capabilities",
}

var roleGrantCmd = &cobra.Command{
	Use:   "grant ADDRESS ROLE",
	Short: "Grant admin, property_creator or operator",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate("grant_role", app.RoleArgs{Address: args[0], Role: model.Role(args[1])})
	},
}

var roleRevokeCmd = &cobra.Command{
	Use:   "revoke ADDRESS ROLE",
	Short: "Revoke a role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate("revoke_role", app.RoleArgs{Address: args[0], Role: model.Role(args[1])})
	},
}

var roleListCmd = &cobra.Command{
	Use:   "list ADDRESS",
	Short: "List an address's roles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return query(func(a *app.App) error {
			roles, err := a.Service().ListRoles(args[0])
			if err != nil {
				return err
			}
			if len(roles) == 0 {
				fmt.Printf("%s has no roles\n", args[0])
				return nil
			}
			for _, r := range roles {
				fmt.Println(r)
			}
			return nil
		})
	},
}

func init() {
	fundsCmd.AddCommand(fundsDepositCmd)
	fundsCmd.AddCommand(fundsWithdrawCmd)
	fundsCmd.AddCommand(fundsTransferCmd)
	fundsCmd.AddCommand(fundsBalanceCmd)

	roleCmd.AddCommand(roleGrantCmd)
	roleCmd.AddCommand(roleRevokeCmd)
	roleCmd.AddCommand(roleListCmd)

	rootCmd.AddCommand(fundsCmd)
	rootCmd.AddCommand(roleCmd)
}
