package ledger

import (
	"fmt"

	"realvora-go/internal/model"
)

// PropertyParams describes a property to tokenize.
type PropertyParams struct {
	Name          string `json:"name" validate:"required,max=64"`
	Description   string `json:"description" validate:"max=256"`
	Location      string `json:"location" validate:"max=64"`
	TotalValue    uint64 `json:"total_value"`
	TotalShares   uint64 `json:"total_shares" validate:"gt=0"`
	PricePerShare uint64 `json:"price_per_share" validate:"gt=0"`
	RentalYield   uint64 `json:"rental_yield"`
	MetadataURI   string `json:"metadata_uri" validate:"max=256"`
}

// CreateProperty registers a property owned by the caller with all shares
// available for purchase.
func (s *Service) CreateProperty(caller string, params PropertyParams) (uint64, error) {
	if err := checkParams(params); err != nil {
		return 0, err
	}
	for _, v := range []uint64{params.TotalValue, params.TotalShares, params.PricePerShare} {
		if v > maxAmount {
			return 0, ErrAmountOverflow
		}
	}

	var id uint64
	err := s.atomic(func(tx Tx, height uint64) error {
		if err := requireRole(tx, caller, model.RolePropertyCreator, model.RoleAdmin); err != nil {
			return err
		}
		var err error
		id, err = tx.InsertProperty(&model.Property{
			Name:            params.Name,
			Description:     params.Description,
			Location:        params.Location,
			TotalValue:      params.TotalValue,
			TotalShares:     params.TotalShares,
			PricePerShare:   params.PricePerShare,
			RentalYield:     params.RentalYield,
			MetadataURI:     params.MetadataURI,
			Owner:           caller,
			AvailableShares: params.TotalShares,
			CreatedAt:       height,
		})
		if err != nil {
			return fmt.Errorf("inserting property: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("property created", "id", id, "owner", caller, "shares", params.TotalShares)
	return id, nil
}

// getProperty loads a property or fails with ErrPropertyNotFound.
func getProperty(tx Tx, id uint64) (*model.Property, error) {
	p, err := tx.GetProperty(id)
	if err != nil {
		return nil, fmt.Errorf("loading property %d: %w", id, err)
	}
	if p == nil {
		return nil, reject(ErrPropertyNotFound, "property %d", id)
	}
	return p, nil
}

// PurchaseShares sells unissued shares to the caller at the property's
// price. Payment goes to the property owner.
func (s *Service) PurchaseShares(caller string, propertyID, shares uint64) (uint64, error) {
	if shares == 0 {
		return 0, ErrInvalidQuantity
	}
	err := s.atomic(func(tx Tx, _ uint64) error {
		p, err := getProperty(tx, propertyID)
		if err != nil {
			return err
		}
		if shares > p.AvailableShares {
			return reject(ErrExceedsAvailableSupply, "requested %d, available %d", shares, p.AvailableShares)
		}
		cost, err := mulAmount(shares, p.PricePerShare)
		if err != nil {
			return err
		}
		if err := moveFunds(tx, caller, p.Owner, cost); err != nil {
			return err
		}
		held, err := tx.GetShares(propertyID, caller)
		if err != nil {
			return fmt.Errorf("reading holding: %w", err)
		}
		if err := tx.SetShares(propertyID, caller, held+shares); err != nil {
			return fmt.Errorf("crediting shares: %w", err)
		}
		if err := tx.UpdateAvailableShares(propertyID, p.AvailableShares-shares); err != nil {
			return fmt.Errorf("updating available shares: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("shares purchased", "property", propertyID, "buyer", caller, "shares", shares)
	return shares, nil
}

// transferShares moves holdings between two holders of the same property.
// It is the only path by which shares change hands after issuance.
func transferShares(tx Tx, from, to string, propertyID, shares uint64) error {
	if shares == 0 {
		return ErrInvalidQuantity
	}
	if from == to {
		return nil
	}
	fromHeld, err := tx.GetShares(propertyID, from)
	if err != nil {
		return fmt.Errorf("reading holding of %s: %w", from, err)
	}
	if fromHeld < shares {
		return reject(ErrInsufficientShares, "%s holds %d, needs %d", from, fromHeld, shares)
	}
	toHeld, err := tx.GetShares(propertyID, to)
	if err != nil {
		return fmt.Errorf("reading holding of %s: %w", to, err)
	}
	if err := tx.SetShares(propertyID, from, fromHeld-shares); err != nil {
		return fmt.Errorf("debiting shares: %w", err)
	}
	if err := tx.SetShares(propertyID, to, toHeld+shares); err != nil {
		return fmt.Errorf("crediting shares: %w", err)
	}
	return nil
}

// setOwner changes the recipient of a property's proceeds and revenue
// operations. Holdings are not touched.
func setOwner(tx Tx, propertyID uint64, owner string) error {
	if _, err := getProperty(tx, propertyID); err != nil {
		return err
	}
	if err := tx.UpdatePropertyOwner(propertyID, owner); err != nil {
		return fmt.Errorf("updating owner: %w", err)
	}
	return nil
}

// TransferOwnership hands a property to a new owner. The current owner or
// an admin may do this.
func (s *Service) TransferOwnership(caller string, propertyID uint64, newOwner string) error {
	if newOwner == "" {
		return reject(ErrInvalidParams, "new owner is required")
	}
	err := s.atomic(func(tx Tx, _ uint64) error {
		p, err := getProperty(tx, propertyID)
		if err != nil {
			return err
		}
		if p.Owner != caller {
			if err := requireRole(tx, caller, model.RoleAdmin); err != nil {
				return err
			}
		}
		return setOwner(tx, propertyID, newOwner)
	})
	if err != nil {
		return err
	}
	s.logger.Info("property ownership transferred", "property", propertyID, "owner", newOwner)
	return nil
}

// GetProperty returns the property, or nil if it does not exist.
func (s *Service) GetProperty(id uint64) (*model.Property, error) {
	var p *model.Property
	err := s.database.View(func(tx Tx) error {
		var err error
		p, err = tx.GetProperty(id)
		return err
	})
	return p, err
}

// GetUserShares returns holder's balance in a property. Unknown
// properties and holders report zero.
func (s *Service) GetUserShares(holder string, propertyID uint64) (uint64, error) {
	var shares uint64
	err := s.database.View(func(tx Tx) error {
		var err error
		shares, err = tx.GetShares(propertyID, holder)
		return err
	})
	return shares, err
}

func (s *Service) ListProperties() ([]*model.Property, error) {
	var props []*model.Property
	err := s.database.View(func(tx Tx) error {
		var err error
		props, err = tx.ListProperties()
		return err
	})
	return props, err
}

// ListHolders returns holdings with a positive balance.
func (s *Service) ListHolders(propertyID uint64) ([]*model.ShareHolding, error) {
	var holders []*model.ShareHolding
	err := s.database.View(func(tx Tx) error {
		all, err := tx.ListHoldings(propertyID)
		if err != nil {
			return err
		}
		for _, h := range all {
			if h.Shares > 0 {
				holders = append(holders, h)
			}
		}
		return nil
	})
	return holders, err
}

// CheckConservation verifies that holdings plus unissued shares add up to
// the property's total.
func (s *Service) CheckConservation(propertyID uint64) error {
	return s.database.View(func(tx Tx) error {
		p, err := getProperty(tx, propertyID)
		if err != nil {
			return err
		}
		held, err := tx.SumHoldings(propertyID)
		if err != nil {
			return fmt.Errorf("summing holdings: %w", err)
		}
		if held+p.AvailableShares != p.TotalShares {
			return fmt.Errorf("property %d: held %d + available %d != total %d",
				propertyID, held, p.AvailableShares, p.TotalShares)
		}
		return nil
	})
}
