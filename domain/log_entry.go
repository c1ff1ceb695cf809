package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReasonBadWordPrefix   = "bad_word:"
	ReasonBadDomainPrefix = "bad_domain:"
	ReasonLinkWarning     = "link_warn"
	ReasonFieldPrefix     = "field:"
)

// ModerationLogEntry is an append-only audit record; it is never mutated after insertion.
type ModerationLogEntry struct {
	ID       uuid.UUID
	At       time.Time
	UserID   UserID
	Username string
	ChatID   ChatID
	Text     string
	Deleted  bool
	Reason   string
	// Lang is the ISO 639-1 code detected from Text, empty when unknown.
	Lang string
}

func NewLogEntry(sender Member, chat ChatID, text string, at time.Time) ModerationLogEntry {
	return ModerationLogEntry{
		ID:       uuid.New(),
		At:       at.UTC(),
		UserID:   sender.ID,
		Username: sender.Username,
		ChatID:   chat,
		Text:     text,
	}
}

func (e ModerationLogEntry) WithLang(lang string) ModerationLogEntry {
	e.Lang = lang
	return e
}

func (e ModerationLogEntry) WithReason(deleted bool, reason string) ModerationLogEntry {
	e.ID = uuid.New()
	e.Deleted = deleted
	e.Reason = reason
	return e
}
