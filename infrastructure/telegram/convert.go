package telegram

import (
	"gatekeeper/domain"
	"gatekeeper/domain/event"
	"strings"
	"time"

	"github.com/samber/lo"
	tele "gopkg.in/telebot.v3"
)

func member(u *tele.User) domain.Member {
	return domain.Member{
		ID:        domain.UserID(u.ID),
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func chat(c *tele.Chat) domain.Chat {
	return domain.Chat{
		ID:      domain.ChatID(c.ID),
		Title:   c.Title,
		Private: c.Type == tele.ChatPrivate,
	}
}

func ref(m *tele.Message) domain.MessageRef {
	return domain.MessageRef{ChatID: domain.ChatID(m.Chat.ID), MessageID: m.ID}
}

func memberUpdated(u *tele.ChatMemberUpdate, at time.Time) (event.MemberUpdated, bool) {
	if u == nil || u.Chat == nil || u.NewChatMember == nil || u.NewChatMember.User == nil {
		return event.MemberUpdated{}, false
	}
	evt := event.MemberUpdated{
		Group:     chat(u.Chat),
		User:      member(u.NewChatMember.User),
		NewStatus: domain.MemberStatus(u.NewChatMember.Role),
		At:        at,
	}
	if u.OldChatMember != nil {
		evt.OldStatus = domain.MemberStatus(u.OldChatMember.Role)
		evt.OldInChat = u.OldChatMember.Member
	}
	return evt, true
}

func messageReceived(m *tele.Message, at time.Time) (event.MessageReceived, bool) {
	if m == nil || m.Sender == nil || m.Chat == nil {
		return event.MessageReceived{}, false
	}
	return event.MessageReceived{
		Ref:    ref(m),
		Chat:   chat(m.Chat),
		Sender: member(m.Sender),
		Text:   m.Text,
		At:     at,
	}, true
}

func contactShared(m *tele.Message, at time.Time) (event.ContactShared, bool) {
	if m == nil || m.Sender == nil || m.Chat == nil || m.Contact == nil {
		return event.ContactShared{}, false
	}
	return event.ContactShared{
		Ref:           ref(m),
		Sender:        member(m.Sender),
		Phone:         m.Contact.PhoneNumber,
		ContactUserID: domain.UserID(m.Contact.UserID),
		At:            at,
	}, true
}

func commandIssued(name event.CommandName, m *tele.Message) (event.CommandIssued, bool) {
	if m == nil || m.Sender == nil || m.Chat == nil {
		return event.CommandIssued{}, false
	}
	return event.CommandIssued{
		Name:   name,
		Args:   strings.Fields(m.Payload),
		Ref:    ref(m),
		Chat:   chat(m.Chat),
		Sender: member(m.Sender),
	}, true
}

func fieldSelected(u *tele.User, data string) (event.FieldSelected, bool) {
	if u == nil {
		return event.FieldSelected{}, false
	}
	field, ok := domain.ParseField(strings.TrimSpace(data))
	if !ok {
		return event.FieldSelected{}, false
	}
	return event.FieldSelected{Sender: member(u), Field: field}, true
}

func promptMarkup(prompt domain.Prompt) *tele.ReplyMarkup {
	switch prompt {
	case domain.PromptContact:
		m := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
		m.Reply(m.Row(m.Contact("📱 Share phone number")))
		return m
	case domain.PromptFieldMenu:
		m := &tele.ReplyMarkup{}
		rows := lo.Map(domain.Fields, func(f domain.Field, _ int) tele.Row {
			return m.Row(m.Data("✏️ "+f.Label(), uniqueFill, string(f)))
		})
		rows = append(rows, m.Row(m.Data("✅ Finish", uniqueFinish)))
		m.Inline(rows...)
		return m
	default:
		return nil
	}
}
