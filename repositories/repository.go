//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=../mocks/mock_repository.go -package=mocks
package repositories

import (
	"context"
	"gatekeeper/domain"
	"time"
)

// Repository is the persistent side of the engine. Every failure other than
// ErrUserNotFound wraps errors.ErrPersistenceUnavailable.
type Repository interface {
	GetUser(ctx context.Context, id domain.UserID) (domain.UserProfile, error)
	// UpsertUser creates the profile on first contact and otherwise overwrites the given fields.
	UpsertUser(ctx context.Context, id domain.UserID, update domain.ProfileUpdate) error
	// SetVerified raises the verified flag; an already verified profile keeps its first timestamp.
	SetVerified(ctx context.Context, id domain.UserID, at time.Time) error
	AppendLog(ctx context.Context, entry domain.ModerationLogEntry) error
	// ListRecentLogs returns the newest entries first.
	ListRecentLogs(ctx context.Context, limit int) ([]domain.ModerationLogEntry, error)
	// ListRecentUsers returns the most recently joined profiles first.
	ListRecentUsers(ctx context.Context, limit int) ([]domain.UserProfile, error)
	CountUsers(ctx context.Context) (int, error)
	CountVerified(ctx context.Context) (int, error)
}
