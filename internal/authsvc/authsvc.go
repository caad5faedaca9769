// Package authsvc implements spec §6.1's auth routes: registration,
// login (with optional 2FA step-up), forgot/reset password. Logout is
// handled directly in internal/httpapi.
// Grounded on the teacher's session.go login/acc handlers, adapted from
// tinode's multi-scheme credential table to this core's single Users
// table (password hash and TOTP secret are columns per spec §3).
package authsvc

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/backboneproto/corechat/internal/apperror"
	"github.com/backboneproto/corechat/internal/auth"
	"github.com/backboneproto/corechat/internal/domain"
	"github.com/backboneproto/corechat/internal/store"
)

const mfaTokenTTL = 5 * time.Minute
const resetTokenTTL = 30 * time.Minute

type pendingMFA struct {
	userID  int64
	expires time.Time
}

type resetEntry struct {
	userID  int64
	expires time.Time
}

// Service issues and verifies session tokens around the core user
// lifecycle. Reset and MFA tokens are held in process memory rather than
// in store.Adapter: they are short-lived, single-process artifacts, not
// durable domain state the rest of the system needs to query, so they
// don't warrant a store.Adapter entity of their own.
type Service struct {
	store   store.Adapter
	tokens  *auth.TokenAuth
	testMode bool
	log     *zap.SugaredLogger

	mu    sync.Mutex
	mfa   map[string]pendingMFA
	reset map[string]resetEntry
}

func New(st store.Adapter, tokens *auth.TokenAuth, testMode bool, log *zap.SugaredLogger) *Service {
	return &Service{
		store:    st,
		tokens:   tokens,
		testMode: testMode,
		log:      log,
		mfa:      make(map[string]pendingMFA),
		reset:    make(map[string]resetEntry),
	}
}

// Register creates a new USER-role, FREE-plan account.
func (s *Service) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if username == "" || email == "" || len(password) < 8 {
		return nil, apperror.Validation("username, email, and an 8+ character password are required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	u := &domain.User{
		Username:          username,
		Email:             strings.ToLower(email),
		PasswordHash:      hash,
		Role:              domain.RoleUser,
		Plan:              domain.PlanFree,
		PreferredLanguage: "en",
		ShowReadReceipts:  true,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	if err := s.store.UserCreate(ctx, u); err != nil {
		if err == store.ErrConflict {
			return nil, apperror.Conflict("username or email already in use")
		}
		return nil, apperror.Internal(err)
	}
	return u, nil
}

// LoginResult distinguishes a completed login (Token set) from a 2FA
// step-up requirement (MFAToken set).
type LoginResult struct {
	User     *domain.User
	Token    string
	Expires  time.Time
	MFARequired bool
	MFAToken string
}

// Login verifies identifier+password. identifier may be a username or
// email.
func (s *Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	u, err := s.store.UserGetByUsername(ctx, identifier)
	if err != nil {
		u, err = s.store.UserGetByEmail(ctx, strings.ToLower(identifier))
	}
	if err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	if u.TwoFactorEnabled {
		mfaToken := randomToken()
		s.mu.Lock()
		s.mfa[mfaToken] = pendingMFA{userID: u.ID, expires: time.Now().Add(mfaTokenTTL)}
		s.mu.Unlock()
		return &LoginResult{User: u, MFARequired: true, MFAToken: mfaToken}, nil
	}

	token, expires, err := s.tokens.Issue(u.ID, 7*24*time.Hour)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &LoginResult{User: u, Token: token, Expires: expires}, nil
}

// CompleteMFA finishes login after a successful TOTP check (step-up
// verification of code is delegated to the caller, which owns the
// decrypted totpSecretEnc — this service only tracks the pending token).
func (s *Service) CompleteMFA(ctx context.Context, mfaToken string) (*LoginResult, error) {
	s.mu.Lock()
	pending, ok := s.mfa[mfaToken]
	if ok {
		delete(s.mfa, mfaToken)
	}
	s.mu.Unlock()
	if !ok || time.Now().After(pending.expires) {
		return nil, apperror.Unauthorized("mfa token expired or invalid")
	}
	u, err := s.store.UserGet(ctx, pending.userID)
	if err != nil {
		return nil, apperror.Unauthorized("user not found")
	}
	token, expires, err := s.tokens.Issue(u.ID, 7*24*time.Hour)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &LoginResult{User: u, Token: token, Expires: expires}, nil
}

// ForgotPassword always appears to succeed (no user enumeration). In test
// mode the reset token is returned to the caller so end-to-end tests don't
// need an email sink.
func (s *Service) ForgotPassword(ctx context.Context, email string) (resetToken string) {
	u, err := s.store.UserGetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return ""
	}
	tok := randomToken()
	s.mu.Lock()
	s.reset[tok] = resetEntry{userID: u.ID, expires: time.Now().Add(resetTokenTTL)}
	s.mu.Unlock()
	if s.testMode {
		return tok
	}
	return ""
}

// ResetPassword consumes a reset token exactly once.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return apperror.Validation("password must be at least 8 characters")
	}
	s.mu.Lock()
	entry, ok := s.reset[token]
	if ok {
		delete(s.reset, token)
	}
	s.mu.Unlock()
	if !ok || time.Now().After(entry.expires) {
		return apperror.Validation("reset token expired or invalid")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperror.Internal(err)
	}
	if err := s.store.UserUpdate(ctx, entry.userID, map[string]interface{}{"passwordHash": hash}); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func randomToken() string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
