package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

type accessClaims struct {
	Role   string `json:"rol"`
	UnitID *int64 `json:"unidad,omitempty"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 access tokens carrying the user id, role and unit.
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret, issuer string, ttl time.Duration) (*JWTIssuer, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &JWTIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

func (j *JWTIssuer) Issue(user *domain.User) (string, domain.TokenClaims, error) {
	now := j.now().UTC()
	claims := domain.TokenClaims{
		UserID:    user.ID,
		Role:      user.Rol,
		UnitID:    user.UnidadAdministrativaID,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(j.ttl).Truncate(time.Second),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Role:   string(claims.Role),
		UnitID: claims.UnitID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
			ID:        claims.TokenID,
		},
	})
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", domain.TokenClaims{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, claims, nil
}

func (j *JWTIssuer) Verify(raw string) (domain.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	var parsed accessClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return domain.TokenClaims{}, domain.WrapError(domain.ErrUnauthenticated, "verify token", err)
	}

	userID, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return domain.TokenClaims{}, domain.NewError(domain.ErrUnauthenticated, "verify token", "invalid subject")
	}
	if parsed.ID == "" {
		return domain.TokenClaims{}, domain.NewError(domain.ErrUnauthenticated, "verify token", "missing token id")
	}
	return domain.TokenClaims{
		UserID:    userID,
		Role:      domain.Role(parsed.Role),
		UnitID:    parsed.UnitID,
		TokenID:   parsed.ID,
		ExpiresAt: parsed.ExpiresAt.Time,
	}, nil
}
