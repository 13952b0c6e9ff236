package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livechat/config"
	"livechat/repository"
)

func newAuthFixture(t *testing.T) *AuthService {
	t.Helper()
	cfg := config.Config{JWTSecret: "test-secret", JWTExpiry: 1}
	return NewAuthService(repository.NewInMemoryUserRepo(), &cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthFixture(t)

	u, err := svc.Register("Owner@X.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "owner@x.io", u.Email, "email is normalized")
	assert.NotEqual(t, "secret1", u.PasswordHash)

	token, logged, err := svc.Login("owner@x.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	uid, email, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)
	assert.Equal(t, "owner@x.io", email)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthFixture(t)

	_, err := svc.Register("not-an-email", "secret1")
	assert.Error(t, err)

	_, err = svc.Register("a@x.io", "short")
	assert.Error(t, err)

	_, err = svc.Register("a@x.io", "secret1")
	require.NoError(t, err)
	_, err = svc.Register("a@x.io", "secret1")
	assert.EqualError(t, err, "email already registered")
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := newAuthFixture(t)
	_, err := svc.Register("a@x.io", "secret1")
	require.NoError(t, err)

	_, _, err = svc.Login("a@x.io", "wrong-password")
	assert.EqualError(t, err, "invalid credentials")

	_, _, err = svc.Login("missing@x.io", "secret1")
	assert.EqualError(t, err, "invalid credentials")
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := newAuthFixture(t)

	_, _, err := svc.ParseToken("")
	assert.Error(t, err)

	_, _, err = svc.ParseToken("not.a.token")
	assert.Error(t, err)
}
