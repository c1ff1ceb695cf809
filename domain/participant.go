// Package domain contains core concepts of the verification and moderation engine.
// This file defines members, chats and their platform statuses.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"fmt"
	"strings"
)

type UserID int64

type ChatID int64

type MemberStatus string

const (
	StatusCreator       MemberStatus = "creator"
	StatusAdministrator MemberStatus = "administrator"
	StatusMember        MemberStatus = "member"
	StatusRestricted    MemberStatus = "restricted"
	StatusLeft          MemberStatus = "left"
	StatusKicked        MemberStatus = "kicked"
)

// IsAdmin reports whether the status carries administrative rank in a chat.
func (s MemberStatus) IsAdmin() bool {
	return s == StatusCreator || s == StatusAdministrator
}

// Member is a platform user as seen in one update.
type Member struct {
	ID        UserID
	Username  string
	FirstName string
	LastName  string
}

func (m Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Handle renders the member as "ID@username", "-" standing for a missing username.
func (m Member) Handle() string {
	username := m.Username
	if username == "" {
		username = "-"
	}
	return fmt.Sprintf("%d@%s", m.ID, username)
}

type Chat struct {
	ID      ChatID
	Title   string
	Private bool
}

// DisplayName falls back to the numeric identifier when the chat has no title.
func (c Chat) DisplayName() string {
	if c.Title != "" {
		return c.Title
	}
	return fmt.Sprintf("%d", c.ID)
}

// AdminDestination is where operator notifications are delivered.
// A numeric chat takes precedence over the username.
type AdminDestination struct {
	ChatID   ChatID
	Username string
}

func (d AdminDestination) IsZero() bool {
	return d.ChatID == 0 && d.Username == ""
}
