package services

import (
	"context"
	"fmt"
	"gatekeeper/contract"
	"gatekeeper/domain"
	"gatekeeper/domain/event"
	"gatekeeper/errors"
	"gatekeeper/verification"
	"log/slog"
)

type IJoinService interface {
	HandleMemberUpdate(ctx context.Context, evt event.MemberUpdated) error
}

// JoinService puts every new member on probation.
type JoinService struct {
	log      *slog.Logger
	store    *verification.Store
	fields   *verification.Fields
	platform contract.Platform
	notifier contract.Notifier
}

func NewJoinService(
	log *slog.Logger,
	store *verification.Store,
	fields *verification.Fields,
	platform contract.Platform,
	notifier contract.Notifier,
) *JoinService {
	return &JoinService{log: log, store: store, fields: fields, platform: platform, notifier: notifier}
}

// HandleMemberUpdate opens a session for transitions into "member" and ignores every other one.
// An unreachable user keeps the session armed: the deadline still applies.
func (s *JoinService) HandleMemberUpdate(ctx context.Context, evt event.MemberUpdated) error {
	if !evt.Joined() {
		s.log.Debug("Membership change ignored",
			"user_id", evt.User.ID, "old_status", evt.OldStatus, "new_status", evt.NewStatus)
		return nil
	}

	handle := s.store.Open(evt.User.ID, evt.Group.ID, evt.Group.DisplayName())
	s.fields.AwaitPhone(evt.User.ID)
	if session, live := handle.Session(); live {
		s.log.Info("New member on probation",
			"user_id", evt.User.ID, "group_id", evt.Group.ID, "deadline", session.Deadline)
	}

	text := welcomeText(evt.User, evt.Group, s.store.Timeout())
	if err := s.platform.Send(ctx, domain.ChatID(evt.User.ID), text, domain.PromptContact); err != nil {
		s.log.Warn("Unable to send the verification message", "user_id", evt.User.ID, "error", err)
		s.notifier.Notify(fmt.Sprintf(
			"Couldn't DM new member %s who joined %s. They might not receive the verification message.",
			evt.User.Handle(), evt.Group.DisplayName()))
		return fmt.Errorf("%w: %w", errors.ErrContactUnreachable, err)
	}

	s.notifier.Notify(fmt.Sprintf("New member %s joined group %s. DM sent for verification.",
		evt.User.Handle(), evt.Group.DisplayName()))
	return nil
}
