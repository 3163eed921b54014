package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/meeting-service/internal/config"
	"github.com/spec-kit/meeting-service/internal/domain"
)

func newTestTokens() *TokenManager {
	return NewTokenManager(config.AuthConfig{
		AccessTokenSecret:      "access",
		RefreshTokenSecret:     "refresh",
		AccessTokenTTLMinutes:  15,
		RefreshTokenTTLMinutes: 60,
	})
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := newTestTokens()
	user := &domain.User{ID: "u1", Role: domain.RoleManager}

	access, err := tm.IssueAccess(user)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenTypeAccess, access.Type)

	claims, err := tm.ParseAccess(access.Value)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, domain.RoleManager, claims.Role)
}

func TestTokenManager_TypesAreNotInterchangeable(t *testing.T) {
	tm := newTestTokens()
	user := &domain.User{ID: "u1", Role: domain.RoleStaff}

	refresh, err := tm.IssueRefresh(user)
	require.NoError(t, err)
	_, err = tm.ParseAccess(refresh.Value)
	assert.Error(t, err)

	access, err := tm.IssueAccess(user)
	require.NoError(t, err)
	_, err = tm.ParseRefresh(access.Value)
	assert.Error(t, err)

	claims, err := tm.ParseRefresh(refresh.Value)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenTypeRefresh, claims.Type)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := newTestTokens()
	issuedAt := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return issuedAt }

	token, err := tm.IssueAccess(&domain.User{ID: "u1", Role: domain.RoleStaff})
	require.NoError(t, err)

	tm.now = func() time.Time { return issuedAt.Add(16 * time.Minute) }
	_, err = tm.ParseAccess(token.Value)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3cret-pass"))
	assert.ErrorIs(t, ComparePassword(hash, "wrong"), ErrPasswordMismatch)
}
