package services

import (
	"context"
	"log/slog"

	"github.com/folio-org/mod-login-sub000/internal/gateway"
)

// Policy lookup codes understood by the remote configuration service.
const (
	policyCodeFailAttempts = "login.fail.attempts"
	policyCodeFailTimeout  = "login.fail.timeout"
	policyCodeHistoryCount = "password.history.number"
)

// Hardcoded fallbacks used when no override is set and the remote lookup
// fails or has no record.
const (
	defaultFailAttempts   = 5
	defaultTimeoutMinutes = 10
	defaultHistoryCount   = 10
)

// PolicyClient is the remote policy-configuration lookup.
type PolicyClient interface {
	LookupConfigInt(ctx context.Context, tc gateway.TenantContext, code string) (int, bool, error)
}

// resolvePolicy applies the three-tier resolution for a policy value:
// explicit operator override, then remote value, then hardcoded default.
// Each tier degrades independently; a failing remote lookup never fails the
// request.
func resolvePolicy(ctx context.Context, tc gateway.TenantContext, policy PolicyClient, logger *slog.Logger, code string, override *int, fallback int) int {
	if override != nil {
		return *override
	}

	value, ok, err := policy.LookupConfigInt(ctx, tc, code)
	if err != nil {
		logger.Warn("policy lookup failed, using default",
			slog.String("code", code),
			slog.Int("default", fallback),
			slog.Any("error", err))
		return fallback
	}
	if !ok {
		return fallback
	}

	return value
}
