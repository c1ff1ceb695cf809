package services

import (
	"context"
	"fmt"
	"gatekeeper/contract"
	"gatekeeper/domain"
	"gatekeeper/domain/event"
	"gatekeeper/moderation"
	"gatekeeper/observability"
	"gatekeeper/repositories"
	"gatekeeper/verification"
	"log/slog"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
)

type IRouterService interface {
	HandleMessage(ctx context.Context, evt event.MessageReceived) error
}

// RouterService sends field answers to the collector and screens everything else.
type RouterService struct {
	log        *slog.Logger
	fields     *verification.Fields
	collector  ICollectorService
	filter     *moderation.Filter
	repository repositories.Repository
	platform   contract.Platform
	notifier   contract.Notifier
	metrics    *observability.Metrics
}

func NewRouterService(
	log *slog.Logger,
	fields *verification.Fields,
	collector ICollectorService,
	filter *moderation.Filter,
	repository repositories.Repository,
	platform contract.Platform,
	notifier contract.Notifier,
	metrics *observability.Metrics,
) *RouterService {
	return &RouterService{
		log:        log,
		fields:     fields,
		collector:  collector,
		filter:     filter,
		repository: repository,
		platform:   platform,
		notifier:   notifier,
		metrics:    metrics,
	}
}

// HandleMessage never moderates an answer to a pending field request.
// Every other message is logged before the verdict is applied.
func (s *RouterService) HandleMessage(ctx context.Context, evt event.MessageReceived) error {
	text := strings.TrimSpace(evt.Text)
	if _, pending := s.fields.Pending(evt.Sender.ID); pending && text != "" {
		return s.collector.HandleFieldAnswer(ctx, evt)
	}

	entry := newLogEntry(evt.Sender, evt.Chat.ID, text, evt.At)
	s.appendLog(ctx, entry)
	if text == "" {
		return nil
	}

	verdict := s.filter.Check(text)
	s.metrics.ObserveVerdict(verdict.Kind.String())

	switch {
	case verdict.Removes():
		s.log.Info("Message removed",
			"user_id", evt.Sender.ID,
			"group_id", evt.Chat.ID,
			"reason", verdict.Reason(),
			"lang", entry.Lang)
		if err := s.platform.DeleteMessage(ctx, evt.Ref); err != nil {
			s.log.Warn("Unable to delete message", "user_id", evt.Sender.ID, "group_id", evt.Chat.ID, "error", err)
		}
		s.appendLog(ctx, entry.WithReason(true, verdict.Reason()))
		s.reply(ctx, evt.Ref, s.warningText(evt.Sender, verdict))
		s.notifier.Notify(s.notificationText(evt, verdict, text))
	case verdict.Kind == moderation.LinkWarning:
		s.log.Debug("Link posted", "user_id", evt.Sender.ID, "group_id", evt.Chat.ID, "urls", verdict.URLs)
		s.reply(ctx, evt.Ref, linkWarningText)
		s.appendLog(ctx, entry.WithReason(false, verdict.Reason()))
		s.notifier.Notify(s.notificationText(evt, verdict, text))
	}
	return nil
}

// newLogEntry tags the audit entry with the language of its text.
func newLogEntry(sender domain.Member, chat domain.ChatID, text string, at time.Time) domain.ModerationLogEntry {
	entry := domain.NewLogEntry(sender, chat, text, at)
	if text == "" {
		return entry
	}
	return entry.WithLang(whatlanggo.Detect(text).Lang.Iso6391())
}

func (s *RouterService) appendLog(ctx context.Context, entry domain.ModerationLogEntry) {
	if err := s.repository.AppendLog(ctx, entry); err != nil {
		s.log.Warn("Unable to append moderation log", "user_id", entry.UserID, "reason", entry.Reason, "error", err)
	}
}

func (s *RouterService) reply(ctx context.Context, to domain.MessageRef, text string) {
	if err := s.platform.Reply(ctx, to, text); err != nil {
		s.log.Warn("Unable to reply", "chat_id", to.ChatID, "error", err)
	}
}

func (s *RouterService) warningText(sender domain.Member, verdict moderation.Verdict) string {
	if verdict.Kind == moderation.BlockedWord {
		return blockedWordText(sender, verdict.Match)
	}
	return blockedDomainText(sender, verdict.Match)
}

func (s *RouterService) notificationText(evt event.MessageReceived, verdict moderation.Verdict, text string) string {
	switch verdict.Kind {
	case moderation.BlockedWord:
		return fmt.Sprintf("Bad word detected: user=%s word=%s chat=%d text=%s",
			evt.Sender.Handle(), verdict.Match, evt.Chat.ID, truncate(text))
	case moderation.BlockedDomain:
		return fmt.Sprintf("Blacklisted domain posted: user=%s domain=%s chat=%d text=%s",
			evt.Sender.Handle(), verdict.Match, evt.Chat.ID, truncate(text))
	default:
		return fmt.Sprintf("User posted link (not blacklisted): user=%s chat=%d text=%s",
			evt.Sender.Handle(), evt.Chat.ID, truncate(text))
	}
}
