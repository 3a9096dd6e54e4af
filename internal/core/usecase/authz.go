package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

func requireRole(caller domain.Principal, operation string, roles ...domain.Role) error {
	if caller.HasAnyRole(roles...) {
		return nil
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return domain.NewError(domain.ErrForbidden, operation, "requires role "+strings.Join(names, " or "))
}

func requireUnitAccess(caller domain.Principal, operation string, unitID int64) error {
	if caller.CanAccessUnit(unitID) {
		return nil
	}
	return domain.NewError(domain.ErrForbidden, operation, fmt.Sprintf("unit %d is outside the caller scope", unitID))
}

func requireWriter(caller domain.Principal, operation string) error {
	if caller.Role.CanWrite() {
		return nil
	}
	return domain.NewError(domain.ErrForbidden, operation, "role "+string(caller.Role)+" is read-only")
}

// privileged are the roles that bypass unit scoping and run the loan desk.
var privileged = []domain.Role{domain.RoleAdmin, domain.RoleArchiveCoordinator}
