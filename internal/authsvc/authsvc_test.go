package authsvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/backboneproto/corechat/internal/apperror"
	"github.com/backboneproto/corechat/internal/auth"
	"github.com/backboneproto/corechat/internal/store/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	tokens, err := auth.NewTokenAuth([]byte("01234567890123456789012345678901"), 1, 7*24*time.Hour)
	require.NoError(t, err)
	return New(memory.New(), tokens, true, zap.NewNop().Sugar())
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "short")
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRegister_RejectsDuplicateUsername(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "password1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice", "alice2@example.com", "password1")
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestLogin_RejectsWrongPassword(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "password1")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice", "wrong-password")
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestLogin_SucceedsByUsernameOrEmail(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "password1")
	require.NoError(t, err)

	res, err := svc.Login(context.Background(), "alice", "password1")
	require.NoError(t, err)
	require.False(t, res.MFARequired)
	require.NotEmpty(t, res.Token)

	res, err = svc.Login(context.Background(), "alice@example.com", "password1")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
}

func TestLogin_StepsUpToMFAWhenEnabled(t *testing.T) {
	svc := newTestService(t)
	u, err := svc.Register(context.Background(), "alice", "alice@example.com", "password1")
	require.NoError(t, err)
	require.NoError(t, svc.store.UserUpdate(context.Background(), u.ID, map[string]interface{}{"twoFactorEnabled": true}))

	res, err := svc.Login(context.Background(), "alice", "password1")
	require.NoError(t, err)
	require.True(t, res.MFARequired)
	require.Empty(t, res.Token)
	require.NotEmpty(t, res.MFAToken)

	final, err := svc.CompleteMFA(context.Background(), res.MFAToken)
	require.NoError(t, err)
	require.NotEmpty(t, final.Token)

	// The MFA token is single-use.
	_, err = svc.CompleteMFA(context.Background(), res.MFAToken)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestForgotPassword_DoesNotLeakAccountExistence(t *testing.T) {
	svc := newTestService(t)
	tok := svc.ForgotPassword(context.Background(), "nobody@example.com")
	require.Empty(t, tok, "a nonexistent email must not yield a usable reset token")
}

func TestResetPassword_TokenIsSingleUse(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "password1")
	require.NoError(t, err)

	tok := svc.ForgotPassword(context.Background(), "alice@example.com")
	require.NotEmpty(t, tok)

	require.NoError(t, svc.ResetPassword(context.Background(), tok, "newpassword1"))

	// Old password no longer works.
	_, err = svc.Login(context.Background(), "alice", "password1")
	require.Error(t, err)
	// New password works.
	_, err = svc.Login(context.Background(), "alice", "newpassword1")
	require.NoError(t, err)

	// The token cannot be reused.
	err = svc.ResetPassword(context.Background(), tok, "anotherpassword1")
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	require.Equal(t, apperror.CodeValidation, appErr.Code)
}
