package services

import (
	"context"
	"gatekeeper/domain"
	"gatekeeper/domain/event"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func groupMessage(text string) event.MessageReceived {
	return event.MessageReceived{
		Ref:    domain.MessageRef{ChatID: groupID, MessageID: 100},
		Chat:   group,
		Sender: newcomer,
		Text:   text,
		At:     time.Now(),
	}
}

func TestRouter_BlacklistedDomainIsDeleted(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, time.Minute)
	entries := f.captureLogs()
	msg := groupMessage("visit http://badsite.com now")

	f.platform.EXPECT().DeleteMessage(gomock.Any(), msg.Ref).Return(nil)
	f.platform.EXPECT().Reply(gomock.Any(), msg.Ref, gomock.Any()).Return(nil)

	req.NoError(f.router.HandleMessage(context.Background(), msg))

	req.Len(*entries, 2)
	req.False((*entries)[0].Deleted)
	req.Empty((*entries)[0].Reason)
	req.True((*entries)[1].Deleted)
	req.Equal("bad_domain:badsite.com", (*entries)[1].Reason)
	req.Equal("visit http://badsite.com now", (*entries)[1].Text)
	req.True(containsAny(f.notifier.all(), "Blacklisted domain posted"))
}

func TestRouter_PlainLinkIsRetainedWithWarning(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, time.Minute)
	entries := f.captureLogs()
	msg := groupMessage("check www.example.org")

	f.platform.EXPECT().Reply(gomock.Any(), msg.Ref, linkWarningText).Return(nil)

	req.NoError(f.router.HandleMessage(context.Background(), msg))

	req.Len(*entries, 2)
	req.False((*entries)[1].Deleted)
	req.Equal("link_warn", (*entries)[1].Reason)
	req.True(containsAny(f.notifier.all(), "User posted link"))
}

func TestRouter_BlockedWordWinsOverDomain(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, time.Minute)
	entries := f.captureLogs()
	msg := groupMessage("NOJOYA1 go to http://badsite.com")

	f.platform.EXPECT().DeleteMessage(gomock.Any(), msg.Ref).Return(nil)
	f.platform.EXPECT().Reply(gomock.Any(), msg.Ref, gomock.Any()).Return(nil)

	req.NoError(f.router.HandleMessage(context.Background(), msg))

	req.Equal("bad_word:nojoya1", (*entries)[1].Reason)
}

func TestRouter_CleanMessageIsOnlyLogged(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, time.Minute)
	entries := f.captureLogs()

	req.NoError(f.router.HandleMessage(context.Background(), groupMessage("good morning everyone")))
	req.NoError(f.router.HandleMessage(context.Background(), groupMessage("   ")))

	req.Len(*entries, 2)
	req.Empty((*entries)[1].Lang)
	req.Empty(f.notifier.all())
}

func TestRouter_AuditEntriesCarryLanguage(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, time.Minute)
	entries := f.captureLogs()
	msg := groupMessage("Please read the rules of this group carefully before posting anything nojoya1")

	f.platform.EXPECT().DeleteMessage(gomock.Any(), msg.Ref).Return(nil)
	f.platform.EXPECT().Reply(gomock.Any(), msg.Ref, gomock.Any()).Return(nil)

	req.NoError(f.router.HandleMessage(context.Background(), msg))

	// Both the plain and the removal entry are tagged
	req.Len(*entries, 2)
	req.Equal("en", (*entries)[0].Lang)
	req.Equal("en", (*entries)[1].Lang)
}

func TestRouter_DeleteFailureStillAudits(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, time.Minute)
	entries := f.captureLogs()
	msg := groupMessage("nojoya2")

	f.platform.EXPECT().DeleteMessage(gomock.Any(), msg.Ref).Return(context.DeadlineExceeded)
	f.platform.EXPECT().Reply(gomock.Any(), msg.Ref, gomock.Any()).Return(nil)

	req.NoError(f.router.HandleMessage(context.Background(), msg))

	req.Len(*entries, 2)
	req.True((*entries)[1].Deleted)
}

func TestRouter_PendingFieldAnswerIsNeverModerated(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, time.Minute)
	entries := f.captureLogs()

	// Given the user was asked for the given name
	f.fields.Request(newcomerID, domain.FieldGivenName)

	// When the answer happens to contain a blocked word
	msg := groupMessage("nojoya1")
	f.repository.EXPECT().UpsertUser(gomock.Any(), newcomerID, gomock.Any()).Return(nil)
	f.platform.EXPECT().Send(gomock.Any(), groupID, fieldSavedText(domain.FieldGivenName), domain.PromptFieldMenu).Return(nil)
	req.NoError(f.router.HandleMessage(context.Background(), msg))

	// Then it is stored as a field, not deleted
	req.Len(*entries, 1)
	req.Equal("field:given_name", (*entries)[0].Reason)
	req.False((*entries)[0].Deleted)
}
