package ledger

import (
	"fmt"

	"realvora-go/internal/model"
)

// requireRole fails with ErrUnauthorized unless address holds one of roles.
func requireRole(tx Tx, address string, roles ...model.Role) error {
	for _, role := range roles {
		ok, err := tx.HasRole(address, role)
		if err != nil {
			return fmt.Errorf("checking role %s: %w", role, err)
		}
		if ok {
			return nil
		}
	}
	return reject(ErrUnauthorized, "%s lacks role %v", address, roles)
}

// GrantRole gives address a role. Only admins may grant.
func (s *Service) GrantRole(caller, address string, role model.Role) error {
	if !role.Valid() {
		return reject(ErrUnknownRole, "%q", role)
	}
	err := s.atomic(func(tx Tx, height uint64) error {
		if err := requireRole(tx, caller, model.RoleAdmin); err != nil {
			return err
		}
		if err := tx.GrantRole(address, role, height); err != nil {
			return fmt.Errorf("granting role: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("role granted", "address", address, "role", role, "by", caller)
	return nil
}

// RevokeRole removes a role from address. Only admins may revoke.
func (s *Service) RevokeRole(caller, address string, role model.Role) error {
	if !role.Valid() {
		return reject(ErrUnknownRole, "%q", role)
	}
	err := s.atomic(func(tx Tx, height uint64) error {
		if err := requireRole(tx, caller, model.RoleAdmin); err != nil {
			return err
		}
		if err := tx.RevokeRole(address, role); err != nil {
			return fmt.Errorf("revoking role: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("role revoked", "address", address, "role", role, "by", caller)
	return nil
}

// HasRole reports whether address holds role.
func (s *Service) HasRole(address string, role model.Role) (bool, error) {
	var ok bool
	err := s.database.View(func(tx Tx) error {
		var err error
		ok, err = tx.HasRole(address, role)
		return err
	})
	return ok, err
}

// ListRoles returns every role held by address.
func (s *Service) ListRoles(address string) ([]model.Role, error) {
	var roles []model.Role
	err := s.database.View(func(tx Tx) error {
		var err error
		roles, err = tx.ListRoles(address)
		return err
	})
	return roles, err
}

// Bootstrap grants the admin role to each address without an authority
// check. It is used when a ledger is initialized.
func (s *Service) Bootstrap(admins []string) error {
	return s.atomic(func(tx Tx, height uint64) error {
		for _, a := range admins {
			if err := tx.GrantRole(a, model.RoleAdmin, height); err != nil {
				return fmt.Errorf("seeding admin %s: %w", a, err)
			}
		}
		return nil
	})
}
