package ledger

import (
	"fmt"

	"realvora-go/internal/model"
)

// moveFunds debits from and credits to inside tx.
// A self-transfer or a zero amount changes nothing.
func moveFunds(tx Tx, from, to string, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}
	fromBal, err := tx.GetBalance(from)
	if err != nil {
		return fmt.Errorf("reading balance of %s: %w", from, err)
	}
	if fromBal < amount {
		return reject(ErrInsufficientFunds, "%s has %d, needs %d", from, fromBal, amount)
	}
	toBal, err := tx.GetBalance(to)
	if err != nil {
		return fmt.Errorf("reading balance of %s: %w", to, err)
	}
	newTo, err := addAmount(toBal, amount)
	if err != nil {
		return err
	}
	if err := tx.SetBalance(from, fromBal-amount); err != nil {
		return fmt.Errorf("debiting %s: %w", from, err)
	}
	if err := tx.SetBalance(to, newTo); err != nil {
		return fmt.Errorf("crediting %s: %w", to, err)
	}
	return nil
}

// Deposit credits address. It is the only entry point for new funds.
func (s *Service) Deposit(caller, address string, amount uint64) error {
	if address == "" {
		return reject(ErrInvalidParams, "deposit address is required")
	}
	if amount == 0 {
		return ErrInvalidQuantity
	}
	err := s.atomic(func(tx Tx, _ uint64) error {
		if err := requireRole(tx, caller, model.RoleAdmin); err != nil {
			return err
		}
		bal, err := tx.GetBalance(address)
		if err != nil {
			return fmt.Errorf("reading balance: %w", err)
		}
		total, err := tx.SumBalances()
		if err != nil {
			return fmt.Errorf("summing balances: %w", err)
		}
		if _, err := addAmount(total, amount); err != nil {
			return err
		}
		newBal, err := addAmount(bal, amount)
		if err != nil {
			return err
		}
		return tx.SetBalance(address, newBal)
	})
	if err != nil {
		return err
	}
	s.logger.Info("funds deposited", "address", address, "amount", amount)
	return nil
}

// Withdraw debits the caller. It is the only exit point for funds.
func (s *Service) Withdraw(caller string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidQuantity
	}
	err := s.atomic(func(tx Tx, _ uint64) error {
		bal, err := tx.GetBalance(caller)
		if err != nil {
			return fmt.Errorf("reading balance: %w", err)
		}
		if bal < amount {
			return reject(ErrInsufficientFunds, "%s has %d, needs %d", caller, bal, amount)
		}
		return tx.SetBalance(caller, bal-amount)
	})
	if err != nil {
		return err
	}
	s.logger.Info("funds withdrawn", "address", caller, "amount", amount)
	return nil
}

// Transfer moves funds from the caller to another address.
func (s *Service) Transfer(caller, to string, amount uint64) error {
	if to == "" {
		return reject(ErrInvalidParams, "recipient is required")
	}
	if amount == 0 {
		return ErrInvalidQuantity
	}
	err := s.atomic(func(tx Tx, _ uint64) error {
		return moveFunds(tx, caller, to, amount)
	})
	if err != nil {
		return err
	}
	s.logger.Info("funds transferred", "from", caller, "to", to, "amount", amount)
	return nil
}

// GetBalance returns the funds held by address.
func (s *Service) GetBalance(address string) (uint64, error) {
	var bal uint64
	err := s.database.View(func(tx Tx) error {
		var err error
		bal, err = tx.GetBalance(address)
		return err
	})
	return bal, err
}

// TotalFunds returns the sum of all balances.
func (s *Service) TotalFunds() (uint64, error) {
	var total uint64
	err := s.database.View(func(tx Tx) error {
		var err error
		total, err = tx.SumBalances()
		return err
	})
	return total, err
}
