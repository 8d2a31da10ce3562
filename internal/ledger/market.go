package ledger

import (
	"fmt"
	"sort"

	"realvora-go/internal/model"
)

// OrderParams describes a new buy or sell order.
type OrderParams struct {
	PropertyID      uint64 `json:"property_id"`
	Shares          uint64 `json:"shares" validate:"gt=0"`
	PricePerShare   uint64 `json:"price_per_share" validate:"gt=0"`
	ExpiresInBlocks uint64 `json:"expires_in_blocks" validate:"gt=0"`
}

// OrderBook lists the live orders of one property.
// Bids are sorted best price first, as are asks.
type OrderBook struct {
	PropertyID uint64         `json:"property_id"`
	Bids       []*model.Order `json:"bids"`
	Asks       []*model.Order `json:"asks"`
}

func (s *Service) CreateBuyOrder(caller string, params OrderParams) (uint64, error) {
	return s.createOrder(caller, model.OrderBuy, params)
}

func (s *Service) CreateSellOrder(caller string, params OrderParams) (uint64, error) {
	return s.createOrder(caller, model.OrderSell, params)
}

// createOrder records an order. Nothing is escrowed: the seller's shares
// and the buyer's funds are checked when a trade settles.
func (s *Service) createOrder(caller string, side model.OrderType, params OrderParams) (uint64, error) {
	if err := checkParams(params); err != nil {
		return 0, err
	}
	if _, err := mulAmount(params.Shares, params.PricePerShare); err != nil {
		return 0, err
	}

	var id uint64
	err := s.atomic(func(tx Tx, height uint64) error {
		if _, err := getProperty(tx, params.PropertyID); err != nil {
			return err
		}
		live, err := tx.CountLiveOrders(caller, height)
		if err != nil {
			return fmt.Errorf("counting open orders: %w", err)
		}
		if s.settings.MaxOpenOrders > 0 && live >= s.settings.MaxOpenOrders {
			return reject(ErrTooManyOrders, "%s has %d open orders", caller, live)
		}
		expiresAt, err := addAmount(height, params.ExpiresInBlocks)
		if err != nil {
			return err
		}
		id, err = tx.InsertOrder(&model.Order{
			PropertyID:    params.PropertyID,
			Creator:       caller,
			Type:          side,
			Shares:        params.Shares,
			Remaining:     params.Shares,
			PricePerShare: params.PricePerShare,
			Status:        model.OrderOpen,
			CreatedAt:     height,
			ExpiresAt:     expiresAt,
		})
		if err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("order created", "id", id, "side", side, "property", params.PropertyID,
		"shares", params.Shares, "price", params.PricePerShare)
	return id, nil
}

func getOrder(tx Tx, id uint64) (*model.Order, error) {
	o, err := tx.GetOrder(id)
	if err != nil {
		return nil, fmt.Errorf("loading order %d: %w", id, err)
	}
	if o == nil {
		return nil, reject(ErrOrderNotFound, "order %d", id)
	}
	return o, nil
}

// makerPrice returns the price of whichever order rested on the book
// first: the earlier block, then the lower id.
func makerPrice(buy, sell *model.Order) uint64 {
	if buy.CreatedAt < sell.CreatedAt || (buy.CreatedAt == sell.CreatedAt && buy.ID < sell.ID) {
		return buy.PricePerShare
	}
	return sell.PricePerShare
}

func fillStatus(remaining uint64) model.OrderStatus {
	if remaining == 0 {
		return model.OrderFilled
	}
	return model.OrderPartiallyFilled
}

// ExecuteTrade matches a buy order against a sell order for shares and
// settles it. Anyone may match. The trading fee is deducted from the
// seller's proceeds and paid to the treasury.
func (s *Service) ExecuteTrade(caller string, buyOrderID, sellOrderID, shares uint64) (uint64, error) {
	var (
		tradeID uint64
		trade   model.Trade
	)
	err := s.atomic(func(tx Tx, height uint64) error {
		buy, err := getOrder(tx, buyOrderID)
		if err != nil {
			return err
		}
		sell, err := getOrder(tx, sellOrderID)
		if err != nil {
			return err
		}
		if buy.Type != model.OrderBuy || sell.Type != model.OrderSell {
			return reject(ErrOrderTypeMismatch, "order %d is %s, order %d is %s", buy.ID, buy.Type, sell.ID, sell.Type)
		}
		if buy.PropertyID != sell.PropertyID {
			return reject(ErrPropertyMismatch, "property %d vs %d", buy.PropertyID, sell.PropertyID)
		}
		for _, o := range []*model.Order{buy, sell} {
			if !o.Live() {
				return reject(ErrOrderNotOpen, "order %d is %s", o.ID, o.Status)
			}
		}
		for _, o := range []*model.Order{buy, sell} {
			if o.ExpiredAt(height) {
				return reject(ErrOrderExpired, "order %d expired at block %d", o.ID, o.ExpiresAt)
			}
		}
		if buy.Creator == sell.Creator {
			return reject(ErrSelfTrade, "%s", buy.Creator)
		}
		if buy.PricePerShare < sell.PricePerShare {
			return reject(ErrPriceMismatch, "bid %d < ask %d", buy.PricePerShare, sell.PricePerShare)
		}
		if shares == 0 || shares > buy.Remaining || shares > sell.Remaining {
			return reject(ErrExceedsOrderRemainder, "requested %d, remaining %d/%d", shares, buy.Remaining, sell.Remaining)
		}
		held, err := tx.GetShares(sell.PropertyID, sell.Creator)
		if err != nil {
			return fmt.Errorf("reading seller holding: %w", err)
		}
		if held < shares {
			return reject(ErrInsufficientShares, "seller %s holds %d, needs %d", sell.Creator, held, shares)
		}

		price := makerPrice(buy, sell)
		gross, err := mulAmount(shares, price)
		if err != nil {
			return err
		}
		funds, err := tx.GetBalance(buy.Creator)
		if err != nil {
			return fmt.Errorf("reading buyer balance: %w", err)
		}
		if funds < gross {
			return reject(ErrInsufficientFunds, "buyer %s has %d, needs %d", buy.Creator, funds, gross)
		}

		var fee uint64
		if s.settings.Treasury != "" {
			bps, err := s.tradingFeeBps(tx)
			if err != nil {
				return err
			}
			if fee, err = mulDiv(gross, bps, 10000); err != nil {
				return err
			}
		}

		if err := transferShares(tx, sell.Creator, buy.Creator, sell.PropertyID, shares); err != nil {
			return err
		}
		if err := moveFunds(tx, buy.Creator, sell.Creator, gross-fee); err != nil {
			return err
		}
		if err := moveFunds(tx, buy.Creator, s.settings.Treasury, fee); err != nil {
			return err
		}
		if err := tx.UpdateOrderFill(buy.ID, buy.Remaining-shares, fillStatus(buy.Remaining-shares)); err != nil {
			return fmt.Errorf("updating buy order: %w", err)
		}
		if err := tx.UpdateOrderFill(sell.ID, sell.Remaining-shares, fillStatus(sell.Remaining-shares)); err != nil {
			return fmt.Errorf("updating sell order: %w", err)
		}

		trade = model.Trade{
			BuyOrderID:    buy.ID,
			SellOrderID:   sell.ID,
			PropertyID:    buy.PropertyID,
			Shares:        shares,
			PricePerShare: price,
			Fee:           fee,
			Buyer:         buy.Creator,
			Seller:        sell.Creator,
			ExecutedAt:    height,
		}
		tradeID, err = tx.InsertTrade(&trade)
		if err != nil {
			return fmt.Errorf("recording trade: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("trade executed", "id", tradeID, "property", trade.PropertyID, "shares", shares,
		"price", trade.PricePerShare, "fee", trade.Fee, "by", caller)
	return tradeID, nil
}

// CancelOrder withdraws a live order. Only its creator may cancel.
func (s *Service) CancelOrder(caller string, orderID uint64) error {
	err := s.atomic(func(tx Tx, height uint64) error {
		o, err := getOrder(tx, orderID)
		if err != nil {
			return err
		}
		if o.Creator != caller {
			return reject(ErrUnauthorized, "order %d belongs to %s", orderID, o.Creator)
		}
		if !o.Live() {
			return reject(ErrOrderNotOpen, "order %d is %s", orderID, o.Status)
		}
		if o.ExpiredAt(height) {
			return reject(ErrOrderExpired, "order %d expired at block %d", orderID, o.ExpiresAt)
		}
		return tx.UpdateOrderStatus(orderID, model.OrderCancelled)
	})
	if err != nil {
		return err
	}
	s.logger.Info("order cancelled", "id", orderID)
	return nil
}

// ExpireOrders marks every lapsed live order as expired and returns how
// many changed.
func (s *Service) ExpireOrders(caller string) (int64, error) {
	var n int64
	err := s.atomic(func(tx Tx, height uint64) error {
		var err error
		n, err = tx.ExpireOrders(height)
		if err != nil {
			return fmt.Errorf("expiring orders: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("orders expired", "count", n, "by", caller)
	}
	return n, nil
}

// GetOrder returns the order with its effective status, or nil.
func (s *Service) GetOrder(id uint64) (*model.Order, error) {
	var o *model.Order
	err := s.view(func(tx Tx, height uint64) error {
		var err error
		o, err = tx.GetOrder(id)
		if err != nil || o == nil {
			return err
		}
		o.Status = o.EffectiveStatus(height)
		return nil
	})
	return o, err
}

func (s *Service) GetTrade(id uint64) (*model.Trade, error) {
	var t *model.Trade
	err := s.database.View(func(tx Tx) error {
		var err error
		t, err = tx.GetTrade(id)
		return err
	})
	return t, err
}

func (s *Service) ListTrades(propertyID uint64) ([]*model.Trade, error) {
	var trades []*model.Trade
	err := s.database.View(func(tx Tx) error {
		var err error
		trades, err = tx.ListTrades(propertyID)
		return err
	})
	return trades, err
}

// GetOrderBook returns the live, unexpired orders of a property.
func (s *Service) GetOrderBook(propertyID uint64) (*OrderBook, error) {
	book := &OrderBook{PropertyID: propertyID}
	err := s.view(func(tx Tx, height uint64) error {
		orders, err := tx.ListLiveOrders(propertyID, height)
		if err != nil {
			return err
		}
		for _, o := range orders {
			if o.Type == model.OrderBuy {
				book.Bids = append(book.Bids, o)
			} else {
				book.Asks = append(book.Asks, o)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(book.Bids, func(i, j int) bool {
		a, b := book.Bids[i], book.Bids[j]
		if a.PricePerShare != b.PricePerShare {
			return a.PricePerShare > b.PricePerShare
		}
		return a.ID < b.ID
	})
	sort.SliceStable(book.Asks, func(i, j int) bool {
		a, b := book.Asks[i], book.Asks[j]
		if a.PricePerShare != b.PricePerShare {
			return a.PricePerShare < b.PricePerShare
		}
		return a.ID < b.ID
	})
	return book, nil
}
