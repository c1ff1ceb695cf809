package services

import (
	"context"
	"fmt"
	"gatekeeper/contract"
	"gatekeeper/domain"
	"gatekeeper/domain/event"
	"gatekeeper/errors"
	"gatekeeper/observability"
	"gatekeeper/repositories"
	"gatekeeper/verification"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

const maxNameLength = 64

type ICollectorService interface {
	HandleStart(ctx context.Context, evt event.StartRequested) error
	HandleContact(ctx context.Context, evt event.ContactShared) error
	HandleFieldSelected(ctx context.Context, evt event.FieldSelected) error
	HandleFieldAnswer(ctx context.Context, evt event.MessageReceived) error
	HandleFinish(ctx context.Context, evt event.FinishRequested) error
}

// CollectorService drives the per-user field collection:
// phone, then any of the profile fields, then finish.
type CollectorService struct {
	log        *slog.Logger
	store      *verification.Store
	fields     *verification.Fields
	repository repositories.Repository
	platform   contract.Platform
	notifier   contract.Notifier
	metrics    *observability.Metrics
	validate   *validator.Validate
	now        func() time.Time
}

func NewCollectorService(
	log *slog.Logger,
	store *verification.Store,
	fields *verification.Fields,
	repository repositories.Repository,
	platform contract.Platform,
	notifier contract.Notifier,
	metrics *observability.Metrics,
) *CollectorService {
	return &CollectorService{
		log:        log,
		store:      store,
		fields:     fields,
		repository: repository,
		platform:   platform,
		notifier:   notifier,
		metrics:    metrics,
		validate:   validator.New(),
		now:        time.Now,
	}
}

func (s *CollectorService) HandleStart(ctx context.Context, evt event.StartRequested) error {
	s.fields.AwaitPhone(evt.Sender.ID)
	s.log.Info("Start requested", "user_id", evt.Sender.ID)
	return s.send(ctx, domain.ChatID(evt.Sender.ID), startText, domain.PromptContact)
}

// HandleContact accepts the phone from any collector state.
func (s *CollectorService) HandleContact(ctx context.Context, evt event.ContactShared) error {
	userID := evt.Sender.ID
	if evt.ContactUserID != 0 && evt.ContactUserID != userID {
		s.log.Warn("Foreign contact rejected", "user_id", userID, "contact_user_id", evt.ContactUserID)
		_ = s.send(ctx, domain.ChatID(userID), foreignContactText, domain.PromptContact)
		return errors.ErrForeignContact
	}
	phone := strings.TrimSpace(evt.Phone)
	if err := s.validate.Var(phone, "required,max=32"); err != nil {
		_ = s.send(ctx, domain.ChatID(userID), invalidPhoneText, domain.PromptContact)
		return fmt.Errorf("%w: phone: %w", errors.ErrValidationFailed, err)
	}

	update := domain.ProfileUpdate{Username: lo.ToPtr(evt.Sender.Username), Phone: &phone}
	if err := s.repository.UpsertUser(ctx, userID, update); err != nil {
		s.log.Error("Unable to save the phone number", "user_id", userID, "error", err)
		_ = s.send(ctx, domain.ChatID(userID), storageRetryText, domain.PromptContact)
		return err
	}

	s.store.MarkPhoneReceived(userID)
	s.fields.PhoneReceived(userID)
	s.log.Info("Phone received", "user_id", userID)
	return s.send(ctx, domain.ChatID(userID), phoneSavedText, domain.PromptFieldMenu)
}

func (s *CollectorService) HandleFieldSelected(ctx context.Context, evt event.FieldSelected) error {
	s.fields.Request(evt.Sender.ID, evt.Field)
	s.log.Debug("Field requested", "user_id", evt.Sender.ID, "field", evt.Field)
	return s.send(ctx, domain.ChatID(evt.Sender.ID), fieldPromptText(evt.Field), domain.PromptNone)
}

// HandleFieldAnswer consumes the pending request with the message text.
// Invalid answers keep the request and prompt again.
func (s *CollectorService) HandleFieldAnswer(ctx context.Context, evt event.MessageReceived) error {
	userID := evt.Sender.ID
	text := strings.TrimSpace(evt.Text)

	var update domain.ProfileUpdate
	field, err := s.fields.Resolve(userID, func(field domain.Field) error {
		var err error
		update, err = s.parseField(field, text)
		return err
	})
	switch {
	case errors.Is(err, errors.ErrNoPendingRequest):
		return err
	case errors.Is(err, errors.ErrValidationFailed):
		s.log.Debug("Invalid field answer", "user_id", userID, "field", field, "error", err)
		return s.send(ctx, evt.Chat.ID, fieldInvalidText(field), domain.PromptNone)
	case err != nil:
		return err
	}

	if err = s.repository.UpsertUser(ctx, userID, update); err != nil {
		s.log.Error("Unable to save field", "user_id", userID, "field", field, "error", err)
		s.fields.Request(userID, field)
		_ = s.send(ctx, evt.Chat.ID, storageRetryText, domain.PromptNone)
		return err
	}

	entry := newLogEntry(evt.Sender, evt.Chat.ID, text, evt.At).
		WithReason(false, domain.ReasonFieldPrefix+string(field))
	if err = s.repository.AppendLog(ctx, entry); err != nil {
		s.log.Warn("Unable to append field log", "user_id", userID, "field", field, "error", err)
	}
	s.log.Info("Field saved", "user_id", userID, "field", field)
	return s.send(ctx, evt.Chat.ID, fieldSavedText(field), domain.PromptFieldMenu)
}

// HandleFinish verifies the user when a phone is on record.
// Only one of HandleFinish and the session deadline can win.
func (s *CollectorService) HandleFinish(ctx context.Context, evt event.FinishRequested) error {
	userID := evt.Sender.ID
	if !s.hasPhone(ctx, userID) {
		s.log.Debug("Finish without phone", "user_id", userID)
		_ = s.send(ctx, domain.ChatID(userID), finishNoPhoneText, domain.PromptContact)
		return errors.ErrPhoneMissing
	}

	switch s.store.Complete(userID) {
	case verification.Expired:
		s.log.Info("Finish arrived after the deadline", "user_id", userID)
		return s.send(ctx, domain.ChatID(userID), finishExpiredText, domain.PromptNone)
	case verification.NoSession:
		s.log.Debug("Finish without a pending session", "user_id", userID)
	}

	at := evt.At
	if at.IsZero() {
		at = s.now()
	}
	if err := s.repository.SetVerified(ctx, userID, at); err != nil {
		// The session is closed already; the decision stands
		s.log.Error("Unable to persist verification", "user_id", userID, "error", err)
	}
	s.fields.Reset(userID)
	s.metrics.ObserveVerification()
	s.log.Info("User verified", "user_id", userID)
	s.notifier.Notify(fmt.Sprintf("User verified: %s", evt.Sender.Handle()))
	return s.send(ctx, domain.ChatID(userID), verifiedText, domain.PromptNone)
}

// hasPhone reads the persisted profile, falling back on the session when storage is down.
func (s *CollectorService) hasPhone(ctx context.Context, userID domain.UserID) bool {
	profile, err := s.repository.GetUser(ctx, userID)
	switch {
	case err == nil:
		return profile.HasPhone()
	case errors.Is(err, errors.ErrUserNotFound):
		return false
	default:
		s.log.Warn("Unable to read profile, using session state", "user_id", userID, "error", err)
		session, ok := s.store.Get(userID)
		return ok && session.HasPhone
	}
}

func (s *CollectorService) parseField(field domain.Field, text string) (domain.ProfileUpdate, error) {
	switch field {
	case domain.FieldGivenName, domain.FieldFamilyName:
		if err := s.validate.Var(text, fmt.Sprintf("required,max=%d", maxNameLength)); err != nil {
			return domain.ProfileUpdate{}, fmt.Errorf("%w: %s: %w", errors.ErrValidationFailed, field, err)
		}
		if field == domain.FieldGivenName {
			return domain.ProfileUpdate{GivenName: &text}, nil
		}
		return domain.ProfileUpdate{FamilyName: &text}, nil
	case domain.FieldAge:
		age, err := strconv.Atoi(text)
		if err != nil {
			return domain.ProfileUpdate{}, fmt.Errorf("%w: age: %w", errors.ErrValidationFailed, err)
		}
		if err = s.validate.Var(age, "gte=1,lte=150"); err != nil {
			return domain.ProfileUpdate{}, fmt.Errorf("%w: age: %w", errors.ErrValidationFailed, err)
		}
		return domain.ProfileUpdate{Age: &age}, nil
	default:
		return domain.ProfileUpdate{}, fmt.Errorf("%w: unknown field %q", errors.ErrValidationFailed, field)
	}
}

func (s *CollectorService) send(ctx context.Context, chat domain.ChatID, text string, prompt domain.Prompt) error {
	if err := s.platform.Send(ctx, chat, text, prompt); err != nil {
		s.log.Warn("Unable to reach user", "chat_id", chat, "error", err)
		return fmt.Errorf("%w: %w", errors.ErrContactUnreachable, err)
	}
	return nil
}
