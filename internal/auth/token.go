package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/meeting-service/internal/config"
	"github.com/spec-kit/meeting-service/internal/domain"
)

var errWrongTokenType = errors.New("unexpected token type")

// TokenManager issues and validates access and refresh tokens. The two
// token types are signed with separate secrets.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenManager builds a manager from auth configuration.
func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	accessMinutes := cfg.AccessTokenTTLMinutes
	if accessMinutes <= 0 {
		accessMinutes = 15
	}
	refreshMinutes := cfg.RefreshTokenTTLMinutes
	if refreshMinutes <= 0 {
		refreshMinutes = 7 * 24 * 60
	}
	return &TokenManager{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     time.Duration(accessMinutes) * time.Minute,
		refreshTTL:    time.Duration(refreshMinutes) * time.Minute,
		now:           time.Now,
	}
}

// Claims describes JWT payload.
type Claims struct {
	UserID string           `json:"id"`
	Role   domain.Role      `json:"role"`
	Type   domain.TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// IssueAccess signs a short-lived access token for user.
func (tm *TokenManager) IssueAccess(user *domain.User) (domain.Token, error) {
	return tm.issue(user, domain.TokenTypeAccess, tm.accessSecret, tm.accessTTL)
}

// IssueRefresh signs a refresh token for user.
func (tm *TokenManager) IssueRefresh(user *domain.User) (domain.Token, error) {
	return tm.issue(user, domain.TokenTypeRefresh, tm.refreshSecret, tm.refreshTTL)
}

func (tm *TokenManager) issue(user *domain.User, typ domain.TokenType, secret []byte, ttl time.Duration) (domain.Token, error) {
	now := tm.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return domain.Token{}, err
	}
	return domain.Token{
		Value:     signed,
		Type:      typ,
		SubjectID: user.ID,
		Role:      user.Role,
		ExpiresAt: expiresAt,
	}, nil
}

// ParseAccess validates an access token.
func (tm *TokenManager) ParseAccess(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, domain.TokenTypeAccess, tm.accessSecret)
}

// ParseRefresh validates a refresh token.
func (tm *TokenManager) ParseRefresh(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, domain.TokenTypeRefresh, tm.refreshSecret)
}

func (tm *TokenManager) parse(tokenStr string, typ domain.TokenType, secret []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Type != typ || claims.UserID == "" {
		return nil, errWrongTokenType
	}
	return claims, nil
}
