// Package domain contains core concepts of the verification and moderation engine.
// This file defines inbound message references and outbound prompts.
package domain

// MessageRef locates one message so it can be replied to or deleted.
type MessageRef struct {
	ChatID    ChatID
	MessageID int
}

// Prompt selects the interactive element attached to an outbound message.
// Rendering is left to the platform adapter.
type Prompt int

const (
	PromptNone Prompt = iota
	// PromptContact asks the user to share their phone number.
	PromptContact
	// PromptFieldMenu offers the profile fields plus a "finish" action.
	PromptFieldMenu
)
