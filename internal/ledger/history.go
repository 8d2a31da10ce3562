package ledger

import (
	"fmt"

	"realvora-go/internal/model"
)

// GetHistory returns the most recent journaled operations, newest first.
func (s *Service) GetHistory(limit int) ([]*model.Operation, error) {
	ops, err := s.database.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}
