package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/folio-org/mod-login-sub000/internal/gateway"
	"github.com/folio-org/mod-login-sub000/internal/hashing"
	"github.com/folio-org/mod-login-sub000/internal/models"
	pkglogger "github.com/folio-org/mod-login-sub000/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// IdentityClient resolves users through the remote identity lookup.
type IdentityClient interface {
	LookupUserByUsername(ctx context.Context, tc gateway.TenantContext, username string) (*models.User, error)
	LookupUserByID(ctx context.Context, tc gateway.TenantContext, id string) (*models.User, error)
}

// TokenClient mints tokens through the remote token authority.
type TokenClient interface {
	IssueAccessToken(ctx context.Context, tc gateway.TenantContext, sub, userID string) (string, error)
	IssueRefreshToken(ctx context.Context, tc gateway.TenantContext, sub, userID string) (string, error)
}

// AttemptTracker is the failed-login counter state machine.
type AttemptTracker interface {
	RecordFailure(ctx context.Context, tc gateway.TenantContext, userID string, client ClientInfo) (FailureOutcome, error)
	RecordSuccess(ctx context.Context, tc gateway.TenantContext, userID string) error
}

// HistoryEnforcer is the password-reuse check and credential rotation.
type HistoryEnforcer interface {
	IsPreviouslyUsed(ctx context.Context, tc gateway.TenantContext, userID, candidate string) (bool, error)
	RotateCredential(ctx context.Context, tc gateway.TenantContext, newCred, oldCred *models.Credential, actionID string) error
}

// LoginService orchestrates the login, password-change, and password-reset
// flows.
type LoginService struct {
	identity    IdentityClient
	tokens      TokenClient
	attempts    AttemptTracker
	history     HistoryEnforcer
	creds       CredentialStore
	actions     ActionStore
	hasher      *hashing.Hasher
	events      EventPublisher
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger

	requireActiveUser bool
	actionTTL         time.Duration
}

// NewLoginService creates a new LoginService.
func NewLoginService(identity IdentityClient, tokens TokenClient, attempts AttemptTracker, history HistoryEnforcer, creds CredentialStore, actions ActionStore, hasher *hashing.Hasher, events EventPublisher, logger *slog.Logger, auditLogger *pkglogger.AuditLogger, requireActiveUser bool, actionTTL time.Duration) *LoginService {
	return &LoginService{
		identity:          identity,
		tokens:            tokens,
		attempts:          attempts,
		history:           history,
		creds:             creds,
		actions:           actions,
		hasher:            hasher,
		events:            events,
		logger:            logger,
		auditLogger:       auditLogger,
		requireActiveUser: requireActiveUser,
		actionTTL:         actionTTL,
	}
}

// LoginRequest identifies the user by username or id and carries the
// supplied password.
type LoginRequest struct {
	Username string
	UserID   string
	Password string
	Client   ClientInfo
}

// LoginResult carries the tokens obtained from the token authority. The
// refresh token may be absent when its issuance failed. Expirations are
// parsed out of the tokens when possible.
type LoginResult struct {
	AccessToken            string
	AccessTokenExpiration  *time.Time
	RefreshToken           string
	RefreshTokenExpiration *time.Time
}

// Login authenticates a user and obtains tokens.
func (s *LoginService) Login(ctx context.Context, tc gateway.TenantContext, req LoginRequest) (*LoginResult, error) {
	if req.Password == "" || (req.Username == "" && req.UserID == "") {
		return nil, models.ErrBadRequest
	}

	user, err := s.resolveUser(ctx, tc, req.Username, req.UserID)
	if err != nil {
		s.logger.Info("login user resolution failed",
			slog.String("username", pkglogger.SanitizedUsername(req.Username)),
			slog.String("tenant", tc.Tenant),
			slog.Any("error", err))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Tenant:        tc.Tenant,
			IPAddress:     req.Client.IP,
			FailureReason: "user_resolution",
			Success:       false,
		})
		return nil, err
	}

	// Inactive users are rejected before any password-check side effects.
	if s.requireActiveUser && !user.Active {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			Tenant:        tc.Tenant,
			IPAddress:     req.Client.IP,
			FailureReason: "user_blocked",
			Success:       false,
		})
		return nil, models.NewAuthError(models.CodeUserBlocked, "user account is blocked")
	}

	cred, err := s.creds.GetCredential(ctx, tc.Tenant, user.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrCredentialNotFound
		}
		return nil, err
	}

	match, err := s.hasher.Verify(req.Password, cred.Salt, cred.Hash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, s.recordLoginFailure(ctx, tc, user, req.Client)
	}

	result, err := s.issueTokens(ctx, tc, user, req.Username)
	if err != nil {
		return nil, err
	}

	if err := s.attempts.RecordSuccess(ctx, tc, user.ID); err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID), slog.String("tenant", tc.Tenant))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Tenant:    tc.Tenant,
		IPAddress: req.Client.IP,
		Success:   true,
	})
	s.events.PublishEvent(tc, gateway.Event{
		EventType:   "LOGIN_SUCCESS",
		UserID:      user.ID,
		IP:          req.Client.IP,
		BrowserInfo: req.Client.UserAgent,
	})

	return result, nil
}

// issueTokens requests the access and refresh tokens concurrently. The two
// calls race independently: a refresh-token failure is tolerated and logged,
// an access-token failure fails the request.
func (s *LoginService) issueTokens(ctx context.Context, tc gateway.TenantContext, user *models.User, requestUsername string) (*LoginResult, error) {
	sub := user.Username
	if sub == "" {
		sub = requestUsername
	}
	if sub == "" {
		sub = user.ID
	}

	var (
		wg                    sync.WaitGroup
		access, refresh       string
		accessErr, refreshErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		access, accessErr = s.tokens.IssueAccessToken(ctx, tc, sub, user.ID)
	}()
	go func() {
		defer wg.Done()
		refresh, refreshErr = s.tokens.IssueRefreshToken(ctx, tc, sub, user.ID)
	}()
	wg.Wait()

	if accessErr != nil {
		s.logger.Error("access token issuance failed",
			slog.String("user_id", user.ID),
			slog.Any("error", accessErr))
		return nil, fmt.Errorf("access token issuance failed: %w", accessErr)
	}
	if refreshErr != nil {
		s.logger.Warn("refresh token unavailable",
			slog.String("user_id", user.ID),
			slog.Any("error", refreshErr))
		refresh = ""
	}

	result := &LoginResult{
		AccessToken:            access,
		AccessTokenExpiration:  tokenExpiration(access),
		RefreshToken:           refresh,
		RefreshTokenExpiration: tokenExpiration(refresh),
	}
	return result, nil
}

// recordLoginFailure runs the Attempt Tracker failure path and translates
// the outcome into the response error code.
func (s *LoginService) recordLoginFailure(ctx context.Context, tc gateway.TenantContext, user *models.User, client ClientInfo) error {
	outcome, err := s.attempts.RecordFailure(ctx, tc, user.ID, client)
	if err != nil {
		return err
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        user.ID,
		Tenant:        tc.Tenant,
		IPAddress:     client.IP,
		FailureReason: "invalid_credentials",
		Success:       false,
	})
	s.events.PublishEvent(tc, gateway.Event{
		EventType:   "LOGIN_FAIL",
		UserID:      user.ID,
		IP:          client.IP,
		BrowserInfo: client.UserAgent,
	})

	switch outcome.State {
	case models.AttemptStateBlocked:
		return models.NewAuthError(models.CodePasswordIncorrectBlock, "password is incorrect, user is blocked")
	case models.AttemptStateWarning:
		return models.NewAuthError(models.CodePasswordIncorrectWarn, "password is incorrect, user will be blocked")
	default:
		return models.NewAuthError(models.CodePasswordIncorrect, "password is incorrect")
	}
}

// ChangePasswordRequest carries a password change for a user identified by
// username or id.
type ChangePasswordRequest struct {
	Username    string
	UserID      string
	OldPassword string
	NewPassword string
	Client      ClientInfo
}

// ChangePassword verifies the old password, enforces reuse policy, rotates
// the credential, and clears the failure counter.
func (s *LoginService) ChangePassword(ctx context.Context, tc gateway.TenantContext, req ChangePasswordRequest) error {
	if req.OldPassword == "" || req.NewPassword == "" || (req.Username == "" && req.UserID == "") {
		return models.ErrBadRequest
	}

	user, err := s.resolveUser(ctx, tc, req.Username, req.UserID)
	if err != nil {
		return err
	}

	cred, err := s.creds.GetCredential(ctx, tc.Tenant, user.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrCredentialNotFound
		}
		return err
	}

	match, err := s.hasher.Verify(req.OldPassword, cred.Salt, cred.Hash)
	if err != nil {
		return err
	}
	if !match {
		return models.NewAuthError(models.CodePasswordIncorrect, "password is incorrect")
	}

	used, err := s.history.IsPreviouslyUsed(ctx, tc, user.ID, req.NewPassword)
	if err != nil {
		return err
	}
	if used {
		return models.NewAuthError(models.CodePasswordPreviouslyUsed, "password has been used in the past")
	}

	newCred, err := s.buildCredential(tc.Tenant, user.ID, req.NewPassword, cred)
	if err != nil {
		return err
	}
	if err := s.history.RotateCredential(ctx, tc, newCred, cred, ""); err != nil {
		return err
	}

	// A password change also clears the failure counter.
	if err := s.attempts.RecordSuccess(ctx, tc, user.ID); err != nil {
		return err
	}

	s.auditLogger.LogPasswordChange(user.ID, req.Client.IP, true)
	s.events.PublishEvent(tc, gateway.Event{
		EventType:   "PASSWORD_CHANGE",
		UserID:      user.ID,
		IP:          req.Client.IP,
		BrowserInfo: req.Client.UserAgent,
	})

	return nil
}

// CreatePasswordAction issues a single-use ticket authorizing one password
// creation or reset for the user.
func (s *LoginService) CreatePasswordAction(ctx context.Context, tc gateway.TenantContext, userID string) (string, error) {
	if userID == "" {
		return "", models.ErrBadRequest
	}

	action := &models.PasswordAction{
		ID:             uuid.New().String(),
		Tenant:         tc.Tenant,
		UserID:         userID,
		ExpirationTime: time.Now().Add(s.actionTTL),
	}
	if err := s.actions.CreateAction(ctx, action); err != nil {
		return "", err
	}

	s.logger.Info("password action created",
		slog.String("user_id", userID),
		slog.String("tenant", tc.Tenant))
	return action.ID, nil
}

// RedeemPasswordAction consumes a password action and sets the user's
// password. Consumption happens in the same transaction as the credential
// write, so a second redemption of the same id fails with not-found and
// leaves the credential untouched.
func (s *LoginService) RedeemPasswordAction(ctx context.Context, tc gateway.TenantContext, actionID, newPassword string, client ClientInfo) error {
	if actionID == "" || newPassword == "" {
		return models.ErrBadRequest
	}

	action, err := s.actions.GetAction(ctx, tc.Tenant, actionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrActionNotFound
		}
		return err
	}
	if action.Expired(time.Now()) {
		return models.ErrActionExpired
	}

	used, err := s.history.IsPreviouslyUsed(ctx, tc, action.UserID, newPassword)
	if err != nil {
		return err
	}
	if used {
		return models.NewAuthError(models.CodePasswordPreviouslyUsed, "password has been used in the past")
	}

	oldCred, err := s.creds.GetCredential(ctx, tc.Tenant, action.UserID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}

	newCred, err := s.buildCredential(tc.Tenant, action.UserID, newPassword, oldCred)
	if err != nil {
		return err
	}
	if err := s.history.RotateCredential(ctx, tc, newCred, oldCred, actionID); err != nil {
		return err
	}

	if err := s.attempts.RecordSuccess(ctx, tc, action.UserID); err != nil {
		return err
	}

	s.auditLogger.LogPasswordChange(action.UserID, client.IP, true)
	s.events.PublishEvent(tc, gateway.Event{
		EventType:   "PASSWORD_RESET",
		UserID:      action.UserID,
		IP:          client.IP,
		BrowserInfo: client.UserAgent,
	})

	return nil
}

// CheckPasswordReuse reports whether candidate would violate the reuse
// policy for the user.
func (s *LoginService) CheckPasswordReuse(ctx context.Context, tc gateway.TenantContext, userID, candidate string) (bool, error) {
	if userID == "" || candidate == "" {
		return false, models.ErrBadRequest
	}
	return s.history.IsPreviouslyUsed(ctx, tc, userID, candidate)
}

// DeleteCredential removes a user's credential on explicit request.
func (s *LoginService) DeleteCredential(ctx context.Context, tc gateway.TenantContext, userID string) error {
	if userID == "" {
		return models.ErrBadRequest
	}
	if err := s.creds.DeleteCredential(ctx, tc.Tenant, userID); err != nil {
		return err
	}

	s.auditLogger.LogAccountAction("credential_deleted", userID, "", map[string]string{"tenant": tc.Tenant})
	return nil
}

// resolveUser finds the acting user. When an id is supplied and active-user
// verification is disabled, the id is trusted without a remote call.
func (s *LoginService) resolveUser(ctx context.Context, tc gateway.TenantContext, username, userID string) (*models.User, error) {
	if userID != "" {
		if !s.requireActiveUser {
			return &models.User{ID: userID, Active: true}, nil
		}
		return s.identity.LookupUserByID(ctx, tc, userID)
	}
	return s.identity.LookupUserByUsername(ctx, tc, username)
}

// buildCredential hashes password under a fresh salt. The previous
// credential's id and creation time are preserved so the row is overwritten
// in place.
func (s *LoginService) buildCredential(tenant, userID, password string, prev *models.Credential) (*models.Credential, error) {
	salt, err := s.hasher.NewSalt()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password, salt)
	if err != nil {
		return nil, err
	}

	cred := &models.Credential{Tenant: tenant, UserID: userID, Salt: salt, Hash: hash}
	if prev != nil {
		cred.ID = prev.ID
		cred.CreatedAt = prev.CreatedAt
	}
	return cred, nil
}

// tokenExpiration extracts the exp claim from a JWT without verifying it.
// The authority signed the token; this service only surfaces the expiration
// to clients. Unparsable tokens yield no expiration.
func tokenExpiration(token string) *time.Time {
	if token == "" {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}

	t := exp.Time
	return &t
}
