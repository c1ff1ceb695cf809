package services

import (
	"context"
	"fmt"
	"gatekeeper/contract"
	"gatekeeper/domain"
	"gatekeeper/domain/event"
	"gatekeeper/errors"
	"gatekeeper/repositories"
	"gatekeeper/verification"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	statsUserLimit = 200
	logsLimit      = 100
	maxChunkSize   = 4000
)

type IOperatorService interface {
	HandleCommand(ctx context.Context, evt event.CommandIssued) error
}

// OperatorService answers /stats, /ban and /logs for authorized operators.
type OperatorService struct {
	log        *slog.Logger
	store      *verification.Store
	fields     *verification.Fields
	repository repositories.Repository
	platform   contract.Platform
	notifier   contract.Notifier
	admin      domain.AdminDestination
}

func NewOperatorService(
	log *slog.Logger,
	store *verification.Store,
	fields *verification.Fields,
	repository repositories.Repository,
	platform contract.Platform,
	notifier contract.Notifier,
	admin domain.AdminDestination,
) *OperatorService {
	return &OperatorService{
		log:        log,
		store:      store,
		fields:     fields,
		repository: repository,
		platform:   platform,
		notifier:   notifier,
		admin:      admin,
	}
}

func (s *OperatorService) HandleCommand(ctx context.Context, evt event.CommandIssued) error {
	if !s.authorized(ctx, evt) {
		s.log.Info("Operator command rejected", "user_id", evt.Sender.ID, "command", evt.Name)
		s.reply(ctx, evt.Ref, unauthorizedText)
		return fmt.Errorf("%w: %s by %s", errors.ErrUnauthorized, evt.Name, evt.Sender.Handle())
	}

	switch evt.Name {
	case event.CommandStats:
		return s.stats(ctx, evt)
	case event.CommandBan:
		return s.ban(ctx, evt)
	case event.CommandLogs:
		return s.logs(ctx, evt)
	default:
		return fmt.Errorf("%w: unknown command %q", errors.ErrInvalidPayload, evt.Name)
	}
}

// authorized accepts the configured admin, by handle or numeric id, and the
// administrators of the chat the command was issued in.
func (s *OperatorService) authorized(ctx context.Context, evt event.CommandIssued) bool {
	if s.admin.Username != "" && strings.EqualFold(strings.TrimPrefix(s.admin.Username, "@"), evt.Sender.Username) {
		return true
	}
	if s.admin.ChatID != 0 && domain.ChatID(evt.Sender.ID) == s.admin.ChatID {
		return true
	}
	if evt.Chat.Private {
		return false
	}
	isAdmin, err := s.platform.IsChatAdmin(ctx, evt.Chat.ID, evt.Sender.ID)
	if err != nil {
		s.log.Warn("Unable to check admin rank", "user_id", evt.Sender.ID, "chat_id", evt.Chat.ID, "error", err)
		return false
	}
	return isAdmin
}

func (s *OperatorService) stats(ctx context.Context, evt event.CommandIssued) error {
	total, err := s.repository.CountUsers(ctx)
	if err != nil {
		return s.storageFailure(ctx, evt, err)
	}
	verified, err := s.repository.CountVerified(ctx)
	if err != nil {
		return s.storageFailure(ctx, evt, err)
	}
	users, err := s.repository.ListRecentUsers(ctx, statsUserLimit)
	if err != nil {
		return s.storageFailure(ctx, evt, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Users: %d (verified: %d, pending verification: %d)\n\n", total, verified, s.store.Len())
	fmt.Fprintf(&b, "Latest %d:\n", statsUserLimit)
	for _, u := range users {
		age := "-"
		if u.Age != nil {
			age = strconv.Itoa(*u.Age)
		}
		fmt.Fprintf(&b, "ID:%d | @%s | %s %s | tel:%s | age:%s | ver:%s\n",
			u.ID, orDash(u.Username), orDash(u.GivenName), orDash(u.FamilyName), orDash(u.Phone), age,
			lo.Ternary(u.Verified, "✅", "❌"))
	}
	return s.sendChunked(ctx, evt.Chat.ID, b.String())
}

func (s *OperatorService) ban(ctx context.Context, evt event.CommandIssued) error {
	if len(evt.Args) == 0 {
		s.reply(ctx, evt.Ref, banUsageText)
		return nil
	}
	id, err := strconv.ParseInt(evt.Args[0], 10, 64)
	if err != nil {
		s.reply(ctx, evt.Ref, banInvalidIDText)
		return nil
	}
	userID := domain.UserID(id)

	group := evt.Chat.ID
	if len(evt.Args) > 1 {
		parsed, err := strconv.ParseInt(evt.Args[1], 10, 64)
		if err != nil {
			s.reply(ctx, evt.Ref, banUsageText)
			return nil
		}
		group = domain.ChatID(parsed)
	} else if evt.Chat.Private {
		s.reply(ctx, evt.Ref, banUsageText)
		return nil
	}

	if err = s.platform.BanMember(ctx, group, userID); err != nil {
		s.reply(ctx, evt.Ref, fmt.Sprintf("Error: %v", err))
		return fmt.Errorf("%w: %w", errors.ErrRemovalFailed, err)
	}
	if s.store.Close(userID) {
		s.log.Debug("Pending session closed by ban", "user_id", userID)
	}
	s.fields.Reset(userID)

	s.log.Info("User banned by operator", "user_id", userID, "group_id", group, "operator_id", evt.Sender.ID)
	s.reply(ctx, evt.Ref, fmt.Sprintf("✅ User %d was banned from the group.", userID))
	s.notifier.Notify(fmt.Sprintf("Admin %s banned %d in chat %d", evt.Sender.Handle(), userID, group))
	return nil
}

func (s *OperatorService) logs(ctx context.Context, evt event.CommandIssued) error {
	entries, err := s.repository.ListRecentLogs(ctx, logsLimit)
	if err != nil {
		return s.storageFailure(ctx, evt, err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Latest %d logs:\n", logsLimit)
	for _, e := range entries {
		fmt.Fprintf(&b, "%s | %d@%s | chat:%d | lang:%s | reason:%s%s\n%s\n\n",
			e.At.Format(time.RFC3339), e.UserID, orDash(e.Username), e.ChatID, orDash(e.Lang), orDash(e.Reason),
			lo.Ternary(e.Deleted, " | deleted", ""), truncate(e.Text))
	}
	return s.sendChunked(ctx, evt.Chat.ID, b.String())
}

func (s *OperatorService) storageFailure(ctx context.Context, evt event.CommandIssued, err error) error {
	s.log.Error("Operator command failed", "command", evt.Name, "error", err)
	s.reply(ctx, evt.Ref, storageRetryText)
	return err
}

func (s *OperatorService) sendChunked(ctx context.Context, chat domain.ChatID, text string) error {
	for _, chunk := range lo.ChunkString(text, maxChunkSize) {
		if err := s.platform.Send(ctx, chat, chunk, domain.PromptNone); err != nil {
			return fmt.Errorf("%w: %w", errors.ErrContactUnreachable, err)
		}
	}
	return nil
}

func (s *OperatorService) reply(ctx context.Context, to domain.MessageRef, text string) {
	if err := s.platform.Reply(ctx, to, text); err != nil {
		s.log.Warn("Unable to reply", "chat_id", to.ChatID, "error", err)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
