package ledger

import (
	"fmt"

	"realvora-go/internal/model"
)

// DistributeRevenue announces a revenue distribution for a property.
// No funds move until holders claim; the distributor must be funded then.
func (s *Service) DistributeRevenue(caller string, propertyID, totalAmount, distributionID uint64) (uint64, error) {
	if totalAmount == 0 || distributionID == 0 {
		return 0, ErrInvalidQuantity
	}
	if totalAmount > maxAmount {
		return 0, ErrAmountOverflow
	}
	err := s.atomic(func(tx Tx, height uint64) error {
		p, err := getProperty(tx, propertyID)
		if err != nil {
			return err
		}
		if p.Owner != caller {
			if err := requireRole(tx, caller, model.RoleOperator, model.RoleAdmin); err != nil {
				return err
			}
		}
		existing, err := tx.GetDistribution(propertyID, distributionID)
		if err != nil {
			return fmt.Errorf("checking distribution: %w", err)
		}
		if existing != nil {
			return reject(ErrDuplicateDistribution, "property %d distribution %d", propertyID, distributionID)
		}

		snapshot := p.TotalShares
		if s.settings.RevenueBasis == RevenueBasisHeld {
			snapshot = p.HeldShares()
			if snapshot == 0 {
				return reject(ErrNoShares, "property %d has no holders", propertyID)
			}
		}
		return tx.InsertDistribution(&model.Distribution{
			PropertyID:          propertyID,
			ID:                  distributionID,
			TotalAmount:         totalAmount,
			SnapshotTotalShares: snapshot,
			HeldShares:          p.HeldShares(),
			Distributor:         caller,
			CreatedAt:           height,
		})
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("revenue distributed", "property", propertyID, "distribution", distributionID, "amount", totalAmount)
	return distributionID, nil
}

// ClaimRevenue pays the caller their share of a distribution based on the
// shares they hold now. Each holder claims once per distribution.
func (s *Service) ClaimRevenue(caller string, propertyID, distributionID uint64) (uint64, error) {
	var payable uint64
	err := s.atomic(func(tx Tx, height uint64) error {
		d, err := tx.GetDistribution(propertyID, distributionID)
		if err != nil {
			return fmt.Errorf("loading distribution: %w", err)
		}
		if d == nil {
			return reject(ErrDistributionNotFound, "property %d distribution %d", propertyID, distributionID)
		}
		claim, err := tx.GetClaim(propertyID, distributionID, caller)
		if err != nil {
			return fmt.Errorf("checking claim: %w", err)
		}
		if claim != nil {
			return reject(ErrAlreadyClaimed, "%s on distribution %d", caller, distributionID)
		}
		shares, err := tx.GetShares(propertyID, caller)
		if err != nil {
			return fmt.Errorf("reading holding: %w", err)
		}
		if shares == 0 {
			return reject(ErrNoShares, "%s in property %d", caller, propertyID)
		}

		payable, err = mulDiv(d.TotalAmount, shares, d.SnapshotTotalShares)
		if err != nil {
			return err
		}
		if payable > d.Remaining() {
			return reject(ErrDistributionExhausted, "payable %d, remaining %d", payable, d.Remaining())
		}
		if err := moveFunds(tx, d.Distributor, caller, payable); err != nil {
			return err
		}
		if err := tx.InsertClaim(&model.Claim{
			PropertyID:     propertyID,
			DistributionID: distributionID,
			Holder:         caller,
			Amount:         payable,
			ClaimedAt:      height,
		}); err != nil {
			return fmt.Errorf("recording claim: %w", err)
		}
		return tx.UpdateDistributionClaimed(propertyID, distributionID, d.ClaimedAmount+payable)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("revenue claimed", "property", propertyID, "distribution", distributionID, "holder", caller, "amount", payable)
	return payable, nil
}

// GetDistribution returns the distribution, or nil if it does not exist.
func (s *Service) GetDistribution(propertyID, distributionID uint64) (*model.Distribution, error) {
	var d *model.Distribution
	err := s.database.View(func(tx Tx) error {
		var err error
		d, err = tx.GetDistribution(propertyID, distributionID)
		return err
	})
	return d, err
}

// GetClaim returns holder's claim on a distribution, or nil if unclaimed.
func (s *Service) GetClaim(propertyID, distributionID uint64, holder string) (*model.Claim, error) {
	var c *model.Claim
	err := s.database.View(func(tx Tx) error {
		var err error
		c, err = tx.GetClaim(propertyID, distributionID, holder)
		return err
	})
	return c, err
}
