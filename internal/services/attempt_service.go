package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/folio-org/mod-login-sub000/internal/config"
	"github.com/folio-org/mod-login-sub000/internal/gateway"
	"github.com/folio-org/mod-login-sub000/internal/models"
	pkglogger "github.com/folio-org/mod-login-sub000/pkg/logger"
)

// AttemptRepository is the storage interface for the failed-login counter.
// Increment and Reset are single atomic upserts evaluated by the store.
type AttemptRepository interface {
	Increment(ctx context.Context, tenant, userID string, window time.Duration) (int, error)
	Reset(ctx context.Context, tenant, userID string) error
	Get(ctx context.Context, tenant, userID string) (*models.LoginAttempts, error)
}

// UserDeactivator marks a user inactive through the identity gateway.
type UserDeactivator interface {
	DeactivateUser(ctx context.Context, tc gateway.TenantContext, userID string) error
}

// EventPublisher emits audit events without blocking or failing the caller.
type EventPublisher interface {
	PublishEvent(tc gateway.TenantContext, ev gateway.Event)
}

// ClientInfo carries request metadata forwarded into audit events.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// FailureOutcome is the result of recording one failed login.
type FailureOutcome struct {
	State models.AttemptState
	Count int
}

// AttemptService tracks failed logins per user and enforces the blocking
// policy.
type AttemptService struct {
	repo        AttemptRepository
	policy      PolicyClient
	identity    UserDeactivator
	events      EventPublisher
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger

	failAttemptsOverride   *int
	timeoutMinutesOverride *int
	warnAttempts           int
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(repo AttemptRepository, policy PolicyClient, identity UserDeactivator, events EventPublisher, cfg config.AuthConfig, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AttemptService {
	return &AttemptService{
		repo:                   repo,
		policy:                 policy,
		identity:               identity,
		events:                 events,
		logger:                 logger,
		auditLogger:            auditLogger,
		failAttemptsOverride:   cfg.FailAttemptsOverride,
		timeoutMinutesOverride: cfg.TimeoutMinutesOverride,
		warnAttempts:           cfg.WarnAttempts,
	}
}

// RecordFailure registers one failed login and evaluates the blocking policy.
// The increment is a single conditional upsert: a stale counter (older than
// the timeout window) restarts at 1, concurrent failures for the same user
// serialize in the store. When the block threshold is reached the user is
// deactivated best-effort, the counter is reset, and a block event is
// emitted.
func (s *AttemptService) RecordFailure(ctx context.Context, tc gateway.TenantContext, userID string, client ClientInfo) (FailureOutcome, error) {
	threshold := resolvePolicy(ctx, tc, s.policy, s.logger, policyCodeFailAttempts, s.failAttemptsOverride, defaultFailAttempts)
	timeoutMinutes := resolvePolicy(ctx, tc, s.policy, s.logger, policyCodeFailTimeout, s.timeoutMinutesOverride, defaultTimeoutMinutes)
	window := time.Duration(timeoutMinutes) * time.Minute

	count, err := s.repo.Increment(ctx, tc.Tenant, userID, window)
	if err != nil {
		return FailureOutcome{}, err
	}

	if threshold > 0 && count >= threshold {
		// Blocking is best-effort: a failed deactivation call is logged,
		// not rolled back.
		if err := s.identity.DeactivateUser(ctx, tc, userID); err != nil {
			s.logger.Error("failed to deactivate blocked user",
				slog.String("user_id", userID),
				slog.Any("error", err))
		}
		if err := s.repo.Reset(ctx, tc.Tenant, userID); err != nil {
			s.logger.Error("failed to reset counter after block",
				slog.String("user_id", userID),
				slog.Any("error", err))
		}

		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "user_blocked",
			UserID:        userID,
			Tenant:        tc.Tenant,
			IPAddress:     client.IP,
			UserAgent:     client.UserAgent,
			FailureReason: "fail_attempt_threshold_reached",
			Success:       false,
		})
		s.events.PublishEvent(tc, gateway.Event{
			EventType:   "USER_BLOCK",
			UserID:      userID,
			IP:          client.IP,
			BrowserInfo: client.UserAgent,
		})

		return FailureOutcome{State: models.AttemptStateBlocked, Count: count}, nil
	}

	state := models.AttemptStateClear
	if s.warnAttempts > 0 && count >= s.warnAttempts {
		state = models.AttemptStateWarning
	}

	return FailureOutcome{State: state, Count: count}, nil
}

// RecordSuccess atomically clears the counter after a successful login or
// password change.
func (s *AttemptService) RecordSuccess(ctx context.Context, tc gateway.TenantContext, userID string) error {
	return s.repo.Reset(ctx, tc.Tenant, userID)
}

// State returns the current counter record for a user. A user with no
// recorded attempts yields a zero counter rather than an error.
func (s *AttemptService) State(ctx context.Context, tenant, userID string) (*models.LoginAttempts, error) {
	la, err := s.repo.Get(ctx, tenant, userID)
	if errors.Is(err, models.ErrNotFound) {
		return &models.LoginAttempts{Tenant: tenant, UserID: userID}, nil
	}
	return la, err
}
