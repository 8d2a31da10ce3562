package ledger

import (
	"fmt"

	"realvora-go/internal/model"
)

// ProposalParams describes a new governance proposal. Which of
// PropertyID, Amount and Target are required depends on the type.
type ProposalParams struct {
	PropertyID  model.Option[uint64] `json:"property_id"`
	Type        model.ProposalType   `json:"proposal_type"`
	Title       string               `json:"title" validate:"required,max=128"`
	Description string               `json:"description" validate:"max=512"`
	Amount      model.Option[uint64] `json:"amount"`
	Target      model.Option[string] `json:"target"`
}

// votingPower returns address's weight for a proposal scoped to
// propertyID, or to the whole ledger when absent.
func (s *Service) votingPower(tx Tx, address string, propertyID model.Option[uint64]) (uint64, error) {
	if s.settings.VotingPower == VotingPowerRegistry {
		return tx.GetVotingPower(address)
	}
	if id, ok := propertyID.Get(); ok {
		return tx.GetShares(id, address)
	}
	return tx.HolderShares(address)
}

// eligiblePower returns the total weight that could vote on a proposal.
func (s *Service) eligiblePower(tx Tx, propertyID model.Option[uint64]) (uint64, error) {
	if s.settings.VotingPower == VotingPowerRegistry {
		return tx.SumVotingPower()
	}
	if id, ok := propertyID.Get(); ok {
		p, err := getProperty(tx, id)
		if err != nil {
			return 0, err
		}
		return p.HeldShares(), nil
	}
	return tx.TotalHeldShares()
}

// CreateProposal opens a proposal for voting. The creator needs voting
// power in the proposal's scope.
func (s *Service) CreateProposal(caller string, params ProposalParams) (uint64, error) {
	if err := checkParams(params); err != nil {
		return 0, err
	}
	effect, ok := s.effects.Lookup(params.Type)
	if !ok {
		return 0, reject(ErrUnknownProposalType, "type %d", params.Type)
	}

	var id uint64
	err := s.atomic(func(tx Tx, height uint64) error {
		if pid, ok := params.PropertyID.Get(); ok {
			if _, err := getProperty(tx, pid); err != nil {
				return err
			}
		}
		if err := effect.Check(tx, params); err != nil {
			return err
		}
		power, err := s.votingPower(tx, caller, params.PropertyID)
		if err != nil {
			return fmt.Errorf("reading voting power: %w", err)
		}
		if power == 0 {
			return reject(ErrNoVotingPower, "%s", caller)
		}
		expiresAt, err := addAmount(height, s.settings.VotingPeriod)
		if err != nil {
			return err
		}
		id, err = tx.InsertProposal(&model.Proposal{
			PropertyID:  params.PropertyID,
			Type:        params.Type,
			Title:       params.Title,
			Description: params.Description,
			Amount:      params.Amount,
			Target:      params.Target,
			Creator:     caller,
			Status:      model.ProposalActive,
			CreatedAt:   height,
			ExpiresAt:   expiresAt,
		})
		if err != nil {
			return fmt.Errorf("inserting proposal: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("proposal created", "id", id, "type", params.Type, "creator", caller)
	return id, nil
}

func getProposal(tx Tx, id uint64) (*model.Proposal, error) {
	p, err := tx.GetProposal(id)
	if err != nil {
		return nil, fmt.Errorf("loading proposal %d: %w", id, err)
	}
	if p == nil {
		return nil, reject(ErrProposalNotFound, "proposal %d", id)
	}
	return p, nil
}

// Vote casts the caller's full voting power for or against a proposal.
func (s *Service) Vote(caller string, proposalID uint64, inFavor bool) error {
	var weight uint64
	err := s.atomic(func(tx Tx, height uint64) error {
		p, err := getProposal(tx, proposalID)
		if err != nil {
			return err
		}
		if p.Status != model.ProposalActive {
			return reject(ErrProposalNotActive, "proposal %d is %s", proposalID, p.Status)
		}
		if height > p.ExpiresAt {
			return reject(ErrProposalExpired, "proposal %d ended at block %d", proposalID, p.ExpiresAt)
		}
		existing, err := tx.GetVote(proposalID, caller)
		if err != nil {
			return fmt.Errorf("checking vote: %w", err)
		}
		if existing != nil {
			return reject(ErrAlreadyVoted, "%s on proposal %d", caller, proposalID)
		}
		weight, err = s.votingPower(tx, caller, p.PropertyID)
		if err != nil {
			return fmt.Errorf("reading voting power: %w", err)
		}
		if weight == 0 {
			return reject(ErrNoVotingPower, "%s", caller)
		}

		votesFor, votesAgainst := p.VotesFor, p.VotesAgainst
		if inFavor {
			votesFor, err = addAmount(votesFor, weight)
		} else {
			votesAgainst, err = addAmount(votesAgainst, weight)
		}
		if err != nil {
			return err
		}
		if err := tx.UpdateProposalTally(proposalID, votesFor, votesAgainst); err != nil {
			return fmt.Errorf("updating tally: %w", err)
		}
		return tx.InsertVote(&model.Vote{
			ProposalID: proposalID,
			Voter:      caller,
			InFavor:    inFavor,
			Weight:     weight,
			CastAt:     height,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("vote cast", "proposal", proposalID, "voter", caller, "in_favor", inFavor, "weight", weight)
	return nil
}

// outcome decides a closed proposal. Quorum and approval are compared as
// integer percentages; a proposal with no votes never passes.
func (s *Service) outcome(tx Tx, p *model.Proposal) (model.ProposalStatus, error) {
	cast, err := addAmount(p.VotesFor, p.VotesAgainst)
	if err != nil {
		return "", err
	}
	if cast == 0 {
		return model.ProposalRejected, nil
	}
	eligible, err := s.eligiblePower(tx, p.PropertyID)
	if err != nil {
		return "", fmt.Errorf("reading eligible power: %w", err)
	}
	castPct, err := mulAmount(cast, 100)
	if err != nil {
		return "", err
	}
	quorum, err := mulAmount(s.settings.QuorumPct, eligible)
	if err != nil {
		return "", err
	}
	forPct, err := mulAmount(p.VotesFor, 100)
	if err != nil {
		return "", err
	}
	approval, err := mulAmount(s.settings.ApprovalPct, cast)
	if err != nil {
		return "", err
	}
	if castPct >= quorum && forPct >= approval {
		return model.ProposalPassed, nil
	}
	return model.ProposalRejected, nil
}

// finalize closes an active proposal whose voting period has ended.
func (s *Service) finalize(tx Tx, p *model.Proposal, height uint64) (model.ProposalStatus, error) {
	if p.Status != model.ProposalActive {
		return "", reject(ErrAlreadyFinalized, "proposal %d is %s", p.ID, p.Status)
	}
	if height <= p.ExpiresAt {
		return "", reject(ErrNotExpired, "proposal %d open until block %d", p.ID, p.ExpiresAt)
	}
	status, err := s.outcome(tx, p)
	if err != nil {
		return "", err
	}
	if err := tx.UpdateProposalStatus(p.ID, status, model.None[uint64]()); err != nil {
		return "", fmt.Errorf("updating proposal status: %w", err)
	}
	p.Status = status
	return status, nil
}

// FinalizeProposal records whether a closed proposal passed.
func (s *Service) FinalizeProposal(caller string, proposalID uint64) (model.ProposalStatus, error) {
	var status model.ProposalStatus
	err := s.atomic(func(tx Tx, height uint64) error {
		p, err := getProposal(tx, proposalID)
		if err != nil {
			return err
		}
		status, err = s.finalize(tx, p, height)
		return err
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("proposal finalized", "id", proposalID, "status", status, "by", caller)
	return status, nil
}

// ExecuteProposal applies a passed proposal's effect. An active proposal is
// finalized first; if it is rejected that outcome is committed and returned.
func (s *Service) ExecuteProposal(caller string, proposalID uint64) (model.ProposalStatus, error) {
	var status model.ProposalStatus
	err := s.atomic(func(tx Tx, height uint64) error {
		p, err := getProposal(tx, proposalID)
		if err != nil {
			return err
		}
		switch p.Status {
		case model.ProposalActive:
			if status, err = s.finalize(tx, p, height); err != nil {
				return err
			}
			if status == model.ProposalRejected {
				return nil
			}
		case model.ProposalPassed:
		default:
			return reject(ErrAlreadyFinalized, "proposal %d is %s", proposalID, p.Status)
		}

		effect, ok := s.effects.Lookup(p.Type)
		if !ok {
			return reject(ErrUnknownProposalType, "type %d", p.Type)
		}
		if err := effect.Apply(tx, p, height); err != nil {
			return fmt.Errorf("applying %s: %w", p.Type, err)
		}
		status = model.ProposalExecuted
		return tx.UpdateProposalStatus(proposalID, status, model.Some(height))
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("proposal executed", "id", proposalID, "status", status, "by", caller)
	return status, nil
}

// UpdateVotingPower sets an address's registry power. Admin only.
func (s *Service) UpdateVotingPower(caller, address string, power uint64) error {
	if address == "" {
		return reject(ErrInvalidParams, "address is required")
	}
	if power > maxAmount {
		return ErrAmountOverflow
	}
	err := s.atomic(func(tx Tx, _ uint64) error {
		if err := requireRole(tx, caller, model.RoleAdmin); err != nil {
			return err
		}
		return tx.SetVotingPower(address, power)
	})
	if err != nil {
		return err
	}
	s.logger.Info("voting power updated", "address", address, "power", power)
	return nil
}

// GetProposal returns the proposal, or nil if it does not exist.
func (s *Service) GetProposal(id uint64) (*model.Proposal, error) {
	var p *model.Proposal
	err := s.database.View(func(tx Tx) error {
		var err error
		p, err = tx.GetProposal(id)
		return err
	})
	return p, err
}

// GetVote returns voter's ballot on a proposal, or nil.
func (s *Service) GetVote(proposalID uint64, voter string) (*model.Vote, error) {
	var v *model.Vote
	err := s.database.View(func(tx Tx) error {
		var err error
		v, err = tx.GetVote(proposalID, voter)
		return err
	})
	return v, err
}

// GetVotingPower returns address's effective power under the configured
// model, scoped to a property when one is given.
func (s *Service) GetVotingPower(address string, propertyID model.Option[uint64]) (uint64, error) {
	var power uint64
	err := s.database.View(func(tx Tx) error {
		var err error
		power, err = s.votingPower(tx, address, propertyID)
		return err
	})
	return power, err
}
