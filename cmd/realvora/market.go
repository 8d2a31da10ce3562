package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"realvora-go/internal/app"
	"realvora-go/internal/ledger"
	"realvora-go/internal/model"
)

// order command
var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Trade shares on the secondary market",
}

// orderParams parses PROPERTY_ID SHARES PRICE and the --expires flag.
func orderParams(cmd *cobra.Command, args []string) (ledger.OrderParams, error) {
	v, err := parseUints(args[:2], "property id", "shares")
	if err != nil {
		return ledger.OrderParams{}, err
	}
	price, err := app.ParseAmount(args[2])
	if err != nil {
		return ledger.OrderParams{}, err
	}
	expires, _ := cmd.Flags().GetUint64("expires")
	return ledger.OrderParams{PropertyID: v[0], Shares: v[1], PricePerShare: price, ExpiresInBlocks: expires}, nil
}

var orderBuyCmd = &cobra.Command{
	Use:   "buy PROPERTY_ID SHARES PRICE",
	Short: "Place a buy order",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := orderParams(cmd, args)
		if err != nil {
			return err
		}
		return mutate("create_buy_order", p)
	},
}

var orderSellCmd = &cobra.Command{
	Use:   "sell PROPERTY_ID SHARES PRICE",
	Short: "Place a sell order",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := orderParams(cmd, args)
		if err != nil {
			return err
		}
		return mutate("create_sell_order", p)
	},
}

var orderCancelCmd = &cobra.Command{
	Use:   "cancel ORDER_ID",
	Short: "Cancel one of your orders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUint(args[0], "order id")
		if err != nil {
			return err
		}
		return mutate("cancel_order", app.OrderIDArgs{OrderID: id})
	},
}

var orderTradeCmd = &cobra.Command{
	Use:   "trade BUY_ORDER_ID SELL_ORDER_ID SHARES",
	Short: "Match a buy order against a sell order",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseUints(args, "buy order id", "sell order id", "shares")
		if err != nil {
			return err
		}
		return mutate("execute_trade", app.TradeArgs{BuyOrderID: v[0], SellOrderID: v[1], Shares: v[2]})
	},
}

var orderExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Mark lapsed orders expired",
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(app.OpExpireOrders, struct{}{})
	},
}

func printOrder(o *model.Order) {
	fmt.Printf("#%-5d %-4s %6d/%-6d @ %-22s %-16s %s  expires %d\n",
		o.ID, o.Type, o.Remaining, o.Shares, app.FormatAmount(o.PricePerShare), o.Status, o.Creator, o.ExpiresAt)
}

var orderShowCmd = &cobra.Command{
	Use:   "show ORDER_ID",
	Short: "Show an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUint(args[0], "order id")
		if err != nil {
			return err
		}
		return query(func(a *app.App) error {
			o, err := a.Service().GetOrder(id)
			if err != nil {
				return err
			}
			if o == nil {
				return ledger.ErrOrderNotFound
			}
			fmt.Printf("Property #%d, created at block %d\n", o.PropertyID, o.CreatedAt)
			printOrder(o)
			return nil
		})
	},
}

var orderBookCmd = &cobra.Command{
	Use:   "book PROPERTY_ID",
	Short: "Show live orders for a property",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUint(args[0], "property id")
		if err != nil {
			return err
		}
		return query(func(a *app.App) error {
			book, err := a.Service().GetOrderBook(id)
			if err != nil {
				return err
			}
			bps, err := a.Service().TradingFeeBps()
			if err != nil {
				return err
			}
			fmt.Printf("Order book for property #%d (fee %s)\n", id, app.FormatBps(bps))
			fmt.Println("Asks:")
			for _, o := range book.Asks {
				printOrder(o)
			}
			fmt.Println("Bids:")
			for _, o := range book.Bids {
				printOrder(o)
			}
			return nil
		})
	},
}

var orderTradesCmd = &cobra.Command{
	Use:   "trades PROPERTY_ID",
	Short: "List executed trades for a property",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseUint(args[0], "property id")
		if err != nil {
			return err
		}
		return query(func(a *app.App) error {
			trades, err := a.Service().ListTrades(id)
			if err != nil {
				return err
			}
			if len(trades) == 0 {
				fmt.Println("No trades.")
				return nil
			}
			for _, t := range trades {
				fmt.Printf("#%-5d block %-6d %6d @ %-22s fee %-22s %s -> %s\n",
					t.ID, t.ExecutedAt, t.Shares, app.FormatAmount(t.PricePerShare), app.FormatAmount(t.Fee), t.Seller, t.Buyer)
			}
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{orderBuyCmd, orderSellCmd} {
		c.Flags().Uint64("expires", 1440, "Blocks until the order lapses")
	}
	orderCmd.AddCommand(orderBuyCmd)
	orderCmd.AddCommand(orderSellCmd)
	orderCmd.AddCommand(orderCancelCmd)
	orderCmd.AddCommand(orderShowCmd)
	orderCmd.AddCommand(orderBookCmd)
	orderCmd.AddCommand(orderTradeCmd)
	orderCmd.AddCommand(orderExpireCmd)
	orderCmd.AddCommand(orderTradesCmd)
	rootCmd.AddCommand(orderCmd)
}
