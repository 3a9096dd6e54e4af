package domain

import (
	"strings"
	"time"
)

type User struct {
	ID                     int64      `json:"id"`
	Username               string     `json:"username"`
	Email                  string     `json:"email"`
	Password               string     `json:"-"`
	Nombre                 string     `json:"nombre"`
	ApellidoPaterno        string     `json:"apellidoPaterno"`
	ApellidoMaterno        string     `json:"apellidoMaterno,omitempty"`
	Rol                    Role       `json:"rol"`
	UnidadAdministrativaID *int64     `json:"unidadAdministrativaId,omitempty"`
	Activo                 bool       `json:"activo"`
	UltimoAcceso           *time.Time `json:"ultimoAcceso,omitempty"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(strings.Join([]string{u.Nombre, u.ApellidoPaterno, u.ApellidoMaterno}, " "))
}

func (u *User) Principal() Principal {
	return Principal{UserID: u.ID, Username: u.Username, Role: u.Rol, UnitID: u.UnidadAdministrativaID}
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Username: u.Username, Nombre: u.FullName()}
}

type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Nombre   string `json:"nombre"`
}

type UserFilter struct {
	Rol    Role
	UnitID *int64
	Activo *bool
	Search string
	Page   Page
}

// AuthSession is returned by a successful login.
type AuthSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"usuario"`
}

// TokenClaims is what a verified bearer credential carries.
type TokenClaims struct {
	UserID    int64
	Role      Role
	UnitID    *int64
	TokenID   string
	ExpiresAt time.Time
}

// RequestMeta carries client details stamped on audit entries.
type RequestMeta struct {
	IP        string
	UserAgent string
}
