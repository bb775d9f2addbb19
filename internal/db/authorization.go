package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/steps-dashboard-tui/internal/health"
)

// AuthStatus is the read grant recorded for a metric.
type AuthStatus string

// Grant states.
const (
	AuthNotDetermined AuthStatus = "not_determined"
	AuthGranted       AuthStatus = "granted"
	AuthDenied        AuthStatus = "denied"
)

// ParseAuthStatus validates a status string.
func ParseAuthStatus(s string) (AuthStatus, error) {
	switch AuthStatus(s) {
	case AuthNotDetermined, AuthGranted, AuthDenied:
		return AuthStatus(s), nil
	default:
		return "", fmt.Errorf("unknown authorization status %q", s)
	}
}

// RequestAuthorization implements health.Provider. Undetermined kinds are
// granted; kinds the user denied stay denied. Access counts as granted when
// at least one requested kind is readable.
func (db *DB) RequestAuthorization(ctx context.Context, kinds []health.MetricKind) (bool, error) {
	if len(kinds) == 0 {
		return false, fmt.Errorf("%w: no metrics requested", health.ErrAuthorizationDenied)
	}

	granted := false
	for _, kind := range kinds {
		status, err := db.AuthorizationStatus(ctx, kind)
		if err != nil {
			return false, err
		}
		if status == AuthNotDetermined {
			if err := db.SetAuthorization(ctx, kind, AuthGranted); err != nil {
				return false, err
			}
			status = AuthGranted
		}
		if status == AuthGranted {
			granted = true
		}
	}

	if !granted {
		return false, health.ErrAuthorizationDenied
	}
	return true, nil
}

// SetAuthorization records the read grant for kind.
func (db *DB) SetAuthorization(ctx context.Context, kind health.MetricKind, status AuthStatus) error {
	if !kind.Valid() {
		return fmt.Errorf("invalid metric %d", int(kind))
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO authorizations (kind, status, updated_ms) VALUES (?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET status = excluded.status, updated_ms = excluded.updated_ms`,
		kind.String(), string(status), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to set authorization for %s: %w", kind, err)
	}
	return nil
}

// AuthorizationStatus returns the recorded grant for kind.
func (db *DB) AuthorizationStatus(ctx context.Context, kind health.MetricKind) (AuthStatus, error) {
	var status string
	err := db.QueryRowContext(ctx, `SELECT status FROM authorizations WHERE kind = ?`, kind.String()).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return AuthNotDetermined, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read authorization for %s: %w", kind, err)
	}
	return ParseAuthStatus(status)
}

func (db *DB) isAuthorized(ctx context.Context, kind health.MetricKind) (bool, error) {
	status, err := db.AuthorizationStatus(ctx, kind)
	if err != nil {
		return false, err
	}
	return status == AuthGranted, nil
}
