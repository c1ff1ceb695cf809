package services

import (
	"context"
	"fmt"
	"gatekeeper/contract"
	"gatekeeper/errors"
	"gatekeeper/observability"
	"gatekeeper/repositories"
	"gatekeeper/verification"
	"log/slog"
)

var _ verification.Expirer = (*EnforcementService)(nil)

// EnforcementService removes users whose verification deadline elapsed.
// The store only calls it after claiming the session, so it runs at most once per session.
type EnforcementService struct {
	log        *slog.Logger
	repository repositories.Repository
	platform   contract.Platform
	notifier   contract.Notifier
	fields     *verification.Fields
	metrics    *observability.Metrics
}

func NewEnforcementService(
	log *slog.Logger,
	repository repositories.Repository,
	platform contract.Platform,
	notifier contract.Notifier,
	fields *verification.Fields,
	metrics *observability.Metrics,
) *EnforcementService {
	return &EnforcementService{
		log:        log,
		repository: repository,
		platform:   platform,
		notifier:   notifier,
		fields:     fields,
		metrics:    metrics,
	}
}

func (s *EnforcementService) Expire(ctx context.Context, session verification.Session) {
	profile, err := s.repository.GetUser(ctx, session.UserID)
	switch {
	case err == nil && profile.Verified:
		s.log.Info("Deadline reached by an already verified user, nothing to enforce", "user_id", session.UserID)
		s.metrics.ObserveEnforcement(observability.EnforcementAlreadyVerified)
		return
	case err != nil && !errors.Is(err, errors.ErrUserNotFound):
		// The in-memory session is authoritative, enforce anyway
		s.log.Warn("Unable to read the verified flag", "user_id", session.UserID, "error", err)
	}

	s.fields.Reset(session.UserID)
	if err = s.platform.BanMember(ctx, session.GroupID, session.UserID); err != nil {
		err = fmt.Errorf("%w: %w", errors.ErrRemovalFailed, err)
		s.log.Warn("Unable to remove unverified user",
			"user_id", session.UserID, "group_id", session.GroupID, "error", err)
		s.metrics.ObserveEnforcement(observability.EnforcementRemovalFailed)
		s.notifier.Notify(fmt.Sprintf("User %d was not verified in time but could not be removed from group %s: %v",
			session.UserID, session.GroupTitle, err))
		return
	}

	s.log.Info("Unverified user removed", "user_id", session.UserID, "group_id", session.GroupID)
	s.metrics.ObserveEnforcement(observability.EnforcementRemoved)
	s.notifier.Notify(fmt.Sprintf("User %d was not verified in time and was banned from group %s.",
		session.UserID, session.GroupTitle))
}
