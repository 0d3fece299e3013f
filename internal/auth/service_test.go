package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marketly/marketly-backend/internal/users"
	pkgAuth "github.com/marketly/marketly-backend/pkg/auth"
	"github.com/marketly/marketly-backend/pkg/auth/session"
	"github.com/marketly/marketly-backend/pkg/config"
	"github.com/marketly/marketly-backend/pkg/db/dbtest"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
	"github.com/marketly/marketly-backend/pkg/redis/redistest"
)

var (
	testJWT = config.JWTConfig{
		Secret:                 "secret",
		Issuer:                 "marketly",
		ExpirationMinutes:      30,
		RefreshTokenTTLMinutes: 60,
	}
	// Cheap argon2 parameters keep the suite fast.
	testPasswords = config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
)

func newTestService(t *testing.T, withSessions bool) Service {
	t.Helper()
	client := dbtest.New(t)
	params := ServiceParams{
		UserRepo:       users.NewRepository(client.DB()),
		JWTConfig:      testJWT,
		PasswordConfig: testPasswords,
	}
	if withSessions {
		redisClient, _ := redistest.NewClient()
		manager, err := session.NewManager(redisClient, testJWT)
		require.NoError(t, err)
		params.SessionManager = manager
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(ServiceParams{JWTConfig: testJWT})
	require.Error(t, err)
}

func TestRegisterDistinctEmailsSucceed(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterRequest{Name: "Seller", Email: "seller@example.com", Password: "secret1"})
	require.NoError(t, err)
	second, err := svc.Register(ctx, RegisterRequest{Name: "Buyer", Email: "buyer@example.com", Password: "secret2"})
	require.NoError(t, err)

	require.NotEqual(t, first.User.ID, second.User.ID)
	require.Empty(t, first.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(testJWT, first.Token)
	require.NoError(t, err)
	require.Equal(t, first.User.ID, claims.UserID)
	require.NotEmpty(t, claims.ID)
}

func TestRegisterDuplicateEmailIsValidationError(t *testing.T) {
	svc := newTestService(t, false)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "One", Email: "dup@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Two", Email: "  DUP@example.com ", Password: "secret2"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	require.Equal(t, emailTakenMessage, typed.Message())
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newTestService(t, false)
	_, err := svc.Register(context.Background(), RegisterRequest{Name: "One", Email: "a@example.com", Password: "123"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLogin(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "One", Email: "login@example.com", Password: "secret1"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "LOGIN@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, "login@example.com", resp.User.Email)

	_, err = svc.Login(ctx, LoginRequest{Email: "login@example.com", Password: "wrong-pass"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshRotatesSession(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{Name: "One", Email: "r@example.com", Password: "secret1"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, RefreshRequest{AccessToken: registered.Token, RefreshToken: registered.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken)
	require.Equal(t, registered.User.ID, refreshed.User.ID)

	// The old refresh token is single use.
	_, err = svc.Refresh(ctx, RefreshRequest{AccessToken: registered.Token, RefreshToken: registered.RefreshToken})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshWithoutSessionsIsNotConfigured(t *testing.T) {
	svc := newTestService(t, false)
	_, err := svc.Refresh(context.Background(), RefreshRequest{AccessToken: "x", RefreshToken: "y"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotConfigured))
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := newTestService(t, true)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{Name: "One", Email: "out@example.com", Password: "secret1"})
	require.NoError(t, err)
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims.ID))

	_, err = svc.Refresh(ctx, RefreshRequest{AccessToken: resp.Token, RefreshToken: resp.RefreshToken})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
