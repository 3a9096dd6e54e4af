package domain

import "time"

type Role string

const (
	RoleAdmin              Role = "ADMIN"
	RoleArchiveCoordinator Role = "COORDINADOR_ARCHIVO"
	RoleAreaResponsible    Role = "RESPONSABLE_AREA"
	RoleOperator           Role = "OPERADOR"
	RoleReadOnly           Role = "CONSULTA"
)

// roleWeight orders roles by privilege, higher means more.
var roleWeight = map[Role]int{
	RoleReadOnly:           1,
	RoleOperator:           2,
	RoleAreaResponsible:    3,
	RoleArchiveCoordinator: 4,
	RoleAdmin:              5,
}

func AllRoles() []string {
	return []string{
		string(RoleAdmin),
		string(RoleArchiveCoordinator),
		string(RoleAreaResponsible),
		string(RoleOperator),
		string(RoleReadOnly),
	}
}

func (r Role) Valid() bool {
	_, ok := roleWeight[r]
	return ok
}

// BypassesUnitScope reports whether the role sees every administrative unit.
func (r Role) BypassesUnitScope() bool {
	return r == RoleAdmin || r == RoleArchiveCoordinator
}

// CanWrite reports whether the role may mutate case files.
func (r Role) CanWrite() bool {
	return roleWeight[r] >= roleWeight[RoleOperator]
}

func (r Role) AtLeast(other Role) bool {
	return roleWeight[r] >= roleWeight[other]
}

// Principal is the authenticated caller resolved from a bearer credential.
type Principal struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"rol"`
	UnitID   *int64 `json:"unidadAdministrativaId,omitempty"`

	// TokenID and TokenExpiresAt identify the credential the caller presented.
	TokenID        string    `json:"-"`
	TokenExpiresAt time.Time `json:"-"`
}

func (p Principal) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// ScopedUnit returns the unit every query must be restricted to, or nil for unrestricted roles.
// A non-privileged caller without a unit is scoped to an impossible unit and sees nothing.
func (p Principal) ScopedUnit() *int64 {
	if p.Role.BypassesUnitScope() {
		return nil
	}
	if p.UnitID == nil {
		none := int64(0)
		return &none
	}
	unit := *p.UnitID
	return &unit
}

// CanAccessUnit reports whether the caller may see records of unitID.
func (p Principal) CanAccessUnit(unitID int64) bool {
	if p.Role.BypassesUnitScope() {
		return true
	}
	return p.UnitID != nil && *p.UnitID == unitID
}
