package services

import (
	"fmt"
	"gatekeeper/domain"
	"strings"
	"time"
)

const (
	startText            = "Hello! To be admitted to the group, please share your phone number with the button below."
	phoneSavedText       = "✅ Phone saved. Now fill in the remaining details with the buttons below, then press finish."
	foreignContactText   = "Please share your own contact, not someone else's."
	invalidPhoneText     = "This contact has no usable phone number, please try again."
	finishNoPhoneText    = "Please share your phone number first."
	finishExpiredText    = "The verification window has already closed."
	verifiedText         = "✅ You are verified. Welcome to the group!"
	storageRetryText     = "Something went wrong while saving, please try again."
	unauthorizedText     = "❌ You are not an admin."
	banUsageText         = "Usage: /ban <user_id> [group_id]"
	banInvalidIDText     = "Please provide a valid numeric user_id."
	linkWarningText      = "Heads up: you posted a link. Please avoid advertising and harmful links."
	maxNotificationChars = 200
)

func welcomeText(user domain.Member, group domain.Chat, timeout time.Duration) string {
	name := user.FullName()
	if name == "" {
		name = user.Handle()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s!\n", name)
	fmt.Fprintf(&b, "You joined %s.\n\n", group.DisplayName())
	b.WriteString("To keep the group safe, please send:\n")
	b.WriteString("1) Your phone number (share your contact)\n")
	b.WriteString("2) Your given name and family name (buttons)\n")
	b.WriteString("3) Your age (button)\n\n")
	fmt.Fprintf(&b, "Please complete this within %s, otherwise you will be removed from the group automatically.", humanDuration(timeout))
	return b.String()
}

func fieldPromptText(field domain.Field) string {
	return fmt.Sprintf("Please type your %s:", field.Label())
}

func fieldSavedText(field domain.Field) string {
	return fmt.Sprintf("✅ %s saved.", capitalize(field.Label()))
}

func fieldInvalidText(field domain.Field) string {
	if field == domain.FieldAge {
		return "Please enter your age as a number between 1 and 150."
	}
	return fmt.Sprintf("Please enter a valid %s (at most %d characters).", field.Label(), maxNameLength)
}

func blockedWordText(sender domain.Member, word string) string {
	return fmt.Sprintf("%s, you used a forbidden word: %q. The message was deleted.", displayName(sender), word)
}

func blockedDomainText(sender domain.Member, domainName string) string {
	return fmt.Sprintf("%s, this domain is blacklisted: %q. The message was deleted.", displayName(sender), domainName)
}

func displayName(m domain.Member) string {
	if m.FirstName != "" {
		return m.FirstName
	}
	if m.Username != "" {
		return "@" + m.Username
	}
	return fmt.Sprintf("%d", m.ID)
}

// humanDuration renders whole minutes when possible, as users read it.
func humanDuration(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		minutes := int(d / time.Minute)
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	return d.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxNotificationChars {
		return text
	}
	return string(runes[:maxNotificationChars])
}
