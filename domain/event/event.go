// Package event defines the inbound platform updates, already translated into domain terms.
// Every event names the user it concerns so the runtime can keep per-user ordering.
package event

import (
	"gatekeeper/domain"
	"time"
)

type Event interface {
	Subject() domain.UserID
}

// MemberUpdated is a membership transition of one user in one group.
type MemberUpdated struct {
	Group     domain.Chat
	User      domain.Member
	OldStatus domain.MemberStatus
	NewStatus domain.MemberStatus
	// OldInChat is the is_member flag of a restricted old status.
	OldInChat bool
	At        time.Time
}

func (e MemberUpdated) Subject() domain.UserID { return e.User.ID }

// Joined reports an entry into the group as a plain member. Demotions and lifted
// restrictions of someone already in the chat are not joins.
func (e MemberUpdated) Joined() bool {
	if e.NewStatus != domain.StatusMember {
		return false
	}
	switch e.OldStatus {
	case "", domain.StatusLeft, domain.StatusKicked:
		return true
	case domain.StatusRestricted:
		return !e.OldInChat
	default:
		return false
	}
}

// MessageReceived is an inbound text message, either in a group or in the private chat.
type MessageReceived struct {
	Ref    domain.MessageRef
	Chat   domain.Chat
	Sender domain.Member
	Text   string
	At     time.Time
}

func (e MessageReceived) Subject() domain.UserID { return e.Sender.ID }

// ContactShared carries a phone number shared through the platform contact payload.
type ContactShared struct {
	Ref           domain.MessageRef
	Sender        domain.Member
	Phone         string
	ContactUserID domain.UserID
	At            time.Time
}

func (e ContactShared) Subject() domain.UserID { return e.Sender.ID }

// FieldSelected is the choice of the next profile field to fill.
type FieldSelected struct {
	Sender domain.Member
	Field  domain.Field
}

func (e FieldSelected) Subject() domain.UserID { return e.Sender.ID }

// FinishRequested is the "finish" action of the field menu.
type FinishRequested struct {
	Sender domain.Member
	At     time.Time
}

func (e FinishRequested) Subject() domain.UserID { return e.Sender.ID }

// StartRequested is the user opening the private conversation.
type StartRequested struct {
	Sender domain.Member
}

func (e StartRequested) Subject() domain.UserID { return e.Sender.ID }

type CommandName string

const (
	CommandStats CommandName = "stats"
	CommandBan   CommandName = "ban"
	CommandLogs  CommandName = "logs"
)

// CommandIssued is an operator command; it never reaches the moderation pipeline.
type CommandIssued struct {
	Name   CommandName
	Args   []string
	Ref    domain.MessageRef
	Chat   domain.Chat
	Sender domain.Member
}

func (e CommandIssued) Subject() domain.UserID { return e.Sender.ID }
