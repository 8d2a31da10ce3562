package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"realvora-go/internal/app"
	"realvora-go/internal/ledger"
	"realvora-go/internal/model"
)

// proposal command
var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Create and vote on governance proposals",
}

var proposalCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a proposal",
	Long: `Create a proposal. Types:
  property-sale (1)     --property and --target (buyer) required
  treasury-release (2)  --amount and --target (recipient) required
  fee-change (3)        --amount (new fee in basis points) required
  protocol-upgrade (4)  signal only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		typeName, _ := f.GetString("type")
		t, err := model.ParseProposalType(typeName)
		if err != nil {
			return err
		}

		p := ledger.ProposalParams{Type: t}
		p.Title, _ = f.GetString("title")
		p.Description, _ = f.GetString("description")
		if f.Changed("property") {
			id, _ := f.GetUint64("property")
			p.PropertyID = model.Some(id)
		}
		if f.Changed("amount") {
			raw, _ := f.GetString("amount")
			amount, err := app.ParseAmount(raw)
			if err != nil {
				return err
			}
			p.Amount = model.Some(amount)
		}
		if f.Changed("target") {
			target, _ := f.GetString("target")
			p.Target = model.Some(target)
		}
		return mutate("create_proposal", p)
	},
}

var proposalVoteCmd = &cobra.Command{
	Use:       "vote PROPOSAL_ID yes|no",
	Short:     "Cast your vote",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"yes", "no"},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUint(args[0], "proposal id")
		if err != nil {
			return err
		}
		var inFavor bool
		switch args[1] {
		case "yes", "for":
			inFavor = true
		case "no", "against":
		default:
			return fmt.Errorf("vote must be yes or no, got %q", args[1])
		}
		return mutate("vote", app.VoteArgs{ProposalID: id, InFavor: inFavor})
	},
}

var proposalFinalizeCmd = &cobra.Command{
	Use:   "finalize PROPOSAL_ID",
	Short: "Close voting and record the outcome",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUint(args[0], "proposal id")
		if err != nil {
			return err
		}
		return mutate("finalize_proposal", app.ProposalIDArgs{ProposalID: id})
	},
}

var proposalExecuteCmd = &cobra.Command{
	Use:   "execute PROPOSAL_ID",
	Short: "Apply a passed proposal's effect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUint(args[0], "proposal id")
		if err != nil {
			return err
		}
		return mutate("execute_proposal", app.ProposalIDArgs{ProposalID: id})
	},
}

var proposalShowCmd = &cobra.Command{
	Use:   "show PROPOSAL_ID",
	Short: "Show a proposal, or one voter's ballot with --voter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		voter, _ := cmd.Flags().GetString("voter")
		id, err := parseUint(args[0], "proposal id")
		if err != nil {
			return err
		}
		return query(func(a *app.App) error {
			p, err := a.Service().GetProposal(id)
			if err != nil {
				return err
			}
			if p == nil {
				return ledger.ErrProposalNotFound
			}
			fmt.Printf("Proposal #%d [%s] %s\n", p.ID, p.Type, p.Title)
			if p.Description != "" {
				fmt.Printf("  %s\n", p.Description)
			}
			if pid, ok := p.PropertyID.Get(); ok {
				fmt.Printf("Property: #%d\n", pid)
			}
			if amount, ok := p.Amount.Get(); ok {
				fmt.Printf("Amount:   %d\n", amount)
			}
			if target, ok := p.Target.Get(); ok {
				fmt.Printf("Target:   %s\n", target)
			}
			fmt.Printf("Creator:  %s\n", p.Creator)
			fmt.Printf("Status:   %s\n", p.Status)
			fmt.Printf("Votes:    %d for, %d against\n", p.VotesFor, p.VotesAgainst)
			fmt.Printf("Voting:   blocks %d-%d\n", p.CreatedAt, p.ExpiresAt)
			if at, ok := p.ExecutedAt.Get(); ok {
				fmt.Printf("Executed: block %d\n", at)
			}

			if voter == "" {
				return nil
			}
			v, err := a.Service().GetVote(id, voter)
			if err != nil {
				return err
			}
			if v == nil {
				fmt.Printf("%s has not voted\n", voter)
				return nil
			}
			choice := "against"
			if v.InFavor {
				choice = "for"
			}
			fmt.Printf("%s voted %s with weight %d at block %d\n", voter, choice, v.Weight, v.CastAt)
			return nil
		})
	},
}

// power command
var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "Manage registry voting power",
}

var powerSetCmd = &cobra.Command{
	Use:   "set ADDRESS POWER",
	Short: "Assign an address's registry voting power",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		power, err := parseUint(args[1], "power")
		if err != nil {
			return err
		}
		return mutate("update_voting_power", app.VotingPowerArgs{Address: args[0], Power: power})
	},
}

var powerShowCmd = &cobra.Command{
	Use:   "show ADDRESS",
	Short: "Show an address's voting power",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := model.None[uint64]()
		if cmd.Flags().Changed("property") {
			id, _ := cmd.Flags().GetUint64("property")
			scope = model.Some(id)
		}
		return query(func(a *app.App) error {
			power, err := a.Service().GetVotingPower(args[0], scope)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d (%s)\n", args[0], power, a.Service().Settings().VotingPower)
			return nil
		})
	},
}

func init() {
	f := proposalCreateCmd.Flags()
	f.String("type", "", "Proposal type name or number")
	f.String("title", "", "Title")
	f.String("description", "", "Description")
	f.Uint64("property", 0, "Property the proposal applies to")
	f.String("amount", "", "Amount (micro-STX or basis points, by type)")
	f.String("target", "", "Target address")
	proposalCreateCmd.MarkFlagRequired("type")
	proposalCreateCmd.MarkFlagRequired("title")

	proposalShowCmd.Flags().String("voter", "", "Also show this voter's ballot")

	proposalCmd.AddCommand(proposalCreateCmd)
	proposalCmd.AddCommand(proposalVoteCmd)
	proposalCmd.AddCommand(proposalFinalizeCmd)
	proposalCmd.AddCommand(proposalExecuteCmd)
	proposalCmd.AddCommand(proposalShowCmd)

	powerShowCmd.Flags().Uint64("property", 0, "Scope to one property's shares")
	powerCmd.AddCommand(powerSetCmd)
	powerCmd.AddCommand(powerShowCmd)

	rootCmd.AddCommand(proposalCmd)
	rootCmd.AddCommand(powerCmd)
}
