package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"realvora-go/internal/app"
	"realvora-go/internal/ledger"
	"realvora-go/internal/model"
)

// property command
var propertyCmd = &cobra.Command{
	Use:   "property",
	Short: "Tokenize properties and trade primary shares",
}

var propertyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a property and issue its shares",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		var p ledger.PropertyParams
		p.Name, _ = f.GetString("name")
		p.Description, _ = f.GetString("description")
		p.Location, _ = f.GetString("location")
		p.MetadataURI, _ = f.GetString("metadata-uri")
		p.TotalShares, _ = f.GetUint64("shares")
		p.RentalYield, _ = f.GetUint64("yield-bps")

		var err error
		value, _ := f.GetString("value")
		if p.TotalValue, err = app.ParseAmount(value); err != nil {
			return err
		}
		price, _ := f.GetString("price")
		if p.PricePerShare, err = app.ParseAmount(price); err != nil {
			return err
		}
		return mutate("create_property", p)
	},
}

var propertyShowCmd = &cobra.Command{
	Use:   "show PROPERTY_ID",
	Short: "Show a property and its holders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUint(args[0], "property id")
		if err != nil {
			return err
		}
		return query(func(a *app.App) error {
			p, err := a.Service().GetProperty(id)
			if err != nil {
				return err
			}
			if p == nil {
				return ledger.ErrPropertyNotFound
			}
			printProperty(p)

			holders, err := a.Service().ListHolders(id)
			if err != nil {
				return err
			}
			fmt.Println("\nHolders:")
			if len(holders) == 0 {
				fmt.Println("  (none)")
			}
			for _, h := range holders {
				fmt.Printf("  %-42s %d\n", h.Holder, h.Shares)
			}
			return nil
		})
	},
}

func printProperty(p *model.Property) {
	fmt.Printf("Property #%d: %s\n", p.ID, p.Name)
	if p.Description != "" {
		fmt.Printf("  %s\n", p.Description)
	}
	fmt.Printf("Location:     %s\n", p.Location)
	fmt.Printf("Owner:        %s\n", p.Owner)
	fmt.Printf("Value:        %s\n", app.FormatAmount(p.TotalValue))
	fmt.Printf("Shares:       %d (%d available)\n", p.TotalShares, p.AvailableShares)
	fmt.Printf("Price/share:  %s\n", app.FormatAmount(p.PricePerShare))
	fmt.Printf("Rental yield: %s\n", app.FormatBps(p.RentalYield))
	if p.MetadataURI != "" {
		fmt.Printf("Metadata:     %s\n", p.MetadataURI)
	}
	fmt.Printf("Created:      block %d\n", p.CreatedAt)
}

var propertyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List properties",
	RunE: func(cmd *cobra.Command, args []string) error {
		return query(func(a *app.App) error {
			props, err := a.Service().ListProperties()
			if err != nil {
				return err
			}
			if len(props) == 0 {
				fmt.Println("No properties.")
				return nil
			}
			for _, p := range props {
				fmt.Printf("#%-4d %-32s %8d/%-8d %s\n",
					p.ID, p.Name, p.AvailableShares, p.TotalShares, app.FormatAmount(p.PricePerShare))
			}
			return nil
		})
	},
}

var propertyBuyCmd = &cobra.Command{
	Use:   "buy PROPERTY_ID SHARES",
	Short: "Buy unissued shares at the listed price",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseUints(args, "property id", "shares")
		if err != nil {
			return err
		}
		return mutate("purchase_shares", app.PurchaseArgs{PropertyID: v[0], Shares: v[1]})
	},
}

var propertyTransferOwnerCmd = &cobra.Command{
	Use:   "transfer-owner PROPERTY_ID NEW_OWNER",
	Short: "Hand the property record to a new owner",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUint(args[0], "property id")
		if err != nil {
			return err
		}
		return mutate("transfer_ownership", app.TransferOwnershipArgs{PropertyID: id, NewOwner: args[1]})
	},
}

var propertySharesCmd = &cobra.Command{
	Use:   "shares PROPERTY_ID ADDRESS",
	Short: "Show an address's holding",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUint(args[0], "property id")
		if err != nil {
			return err
		}
		return query(func(a *app.App) error {
			shares, err := a.Service().GetUserShares(args[1], id)
			if err != nil {
				return err
			}
			fmt.Printf("%s holds %d share(s) of property #%d\n", args[1], shares, id)
			return nil
		})
	},
}

// revenue command
var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Distribute and claim rental revenue",
}

var revenueDistributeCmd = &cobra.Command{
	Use:   "distribute PROPERTY_ID AMOUNT DISTRIBUTION_ID",
	Short: "Announce a revenue distribution",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUint(args[0], "property id")
		if err != nil {
			return err
		}
		amount, err := app.ParseAmount(args[1])
		if err != nil {
			return err
		}
		dist, err := parseUint(args[2], "distribution id")
		if err != nil {
			return err
		}
		return mutate("distribute_revenue", app.DistributeArgs{PropertyID: id, TotalAmount: amount, DistributionID: dist})
	},
}

var revenueClaimCmd = &cobra.Command{
	Use:   "claim PROPERTY_ID DISTRIBUTION_ID",
	Short: "Claim your share of a distribution",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseUints(args, "property id", "distribution id")
		if err != nil {
			return err
		}
		return mutate("claim_revenue", app.ClaimArgs{PropertyID: v[0], DistributionID: v[1]})
	},
}

var revenueShowCmd = &cobra.Command{
	Use:   "show PROPERTY_ID DISTRIBUTION_ID",
	Short: "Show a distribution, or one holder's claim with --holder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		holder, _ := cmd.Flags().GetString("holder")
		v, err := parseUints(args, "property id", "distribution id")
		if err != nil {
			return err
		}
		return query(func(a *app.App) error {
			d, err := a.Service().GetDistribution(v[0], v[1])
			if err != nil {
				return err
			}
			if d == nil {
				return ledger.ErrDistributionNotFound
			}
			fmt.Printf("Distribution %d of property #%d (block %d, by %s)\n", d.ID, d.PropertyID, d.CreatedAt, d.Distributor)
			fmt.Printf("Total:    %s over %d shares\n", app.FormatAmount(d.TotalAmount), d.SnapshotTotalShares)
			fmt.Printf("Claimed:  %s\n", app.FormatAmount(d.ClaimedAmount))

			if holder == "" {
				return nil
			}
			c, err := a.Service().GetClaim(v[0], v[1], holder)
			if err != nil {
				return err
			}
			if c == nil {
				fmt.Printf("%s has not claimed\n", holder)
				return nil
			}
			fmt.Printf("%s claimed %s at block %d\n", holder, app.FormatAmount(c.Amount), c.ClaimedAt)
			return nil
		})
	},
}

func init() {
	f := propertyCreateCmd.Flags()
	f.String("name", "", "Property name")
	f.String("description", "", "Description")
	f.String("location", "", "Location")
	f.String("metadata-uri", "", "Metadata URI")
	f.String("value", "0", "Total value (micro-STX, or e.g. 250000STX)")
	f.Uint64("shares", 0, "Number of shares to issue")
	f.String("price", "0", "Price per share (micro-STX, or e.g. 1.5STX)")
	f.Uint64("yield-bps", 0, "Annual rental yield in basis points")
	propertyCreateCmd.MarkFlagRequired("name")
	propertyCreateCmd.MarkFlagRequired("shares")
	propertyCreateCmd.MarkFlagRequired("price")

	propertyCmd.AddCommand(propertyCreateCmd)
	propertyCmd.AddCommand(propertyShowCmd)
	propertyCmd.AddCommand(propertyListCmd)
	propertyCmd.AddCommand(propertyBuyCmd)
	propertyCmd.AddCommand(propertyTransferOwnerCmd)
	propertyCmd.AddCommand(propertySharesCmd)

	revenueShowCmd.Flags().String("holder", "", "Also show this holder's claim")
	revenueCmd.AddCommand(revenueDistributeCmd)
	revenueCmd.AddCommand(revenueClaimCmd)
	revenueCmd.AddCommand(revenueShowCmd)

	rootCmd.AddCommand(propertyCmd)
	rootCmd.AddCommand(revenueCmd)
}
