package services

import (
	"context"
	"gatekeeper/domain"
	"gatekeeper/domain/event"
	"gatekeeper/mocks"
	"gatekeeper/moderation"
	"gatekeeper/observability"
	"gatekeeper/verification"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeTimer struct {
	mu      sync.Mutex
	after   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fire runs the callback unless the timer was stopped, as the runtime would.
func (t *fakeTimer) fire() {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()
	t.fn()
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) verification.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &fakeTimer{after: d, fn: f}
	s.timers = append(s.timers, timer)
	return timer
}

func (s *fakeScheduler) last(t *testing.T) *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.timers, "no timer was armed")
	return s.timers[len(s.timers)-1]
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

const (
	groupID    = domain.ChatID(-1001)
	newcomerID = domain.UserID(42)
)

var (
	newcomer = domain.Member{ID: newcomerID, Username: "newbie", FirstName: "New", LastName: "Comer"}
	group    = domain.Chat{ID: groupID, Title: "Neighbours"}
)

type fixture struct {
	ctrl        *gomock.Controller
	platform    *mocks.MockPlatform
	repository  *mocks.MockRepository
	notifier    *recordingNotifier
	scheduler   *fakeScheduler
	store       *verification.Store
	fields      *verification.Fields
	metrics     *observability.Metrics
	join        *JoinService
	collector   *CollectorService
	router      *RouterService
	operator    *OperatorService
	enforcement *EnforcementService
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	log := testLogger()
	ctrl := gomock.NewController(t)
	f := &fixture{
		ctrl:       ctrl,
		platform:   mocks.NewMockPlatform(ctrl),
		repository: mocks.NewMockRepository(ctrl),
		notifier:   &recordingNotifier{},
		scheduler:  &fakeScheduler{},
		fields:     verification.NewFields(),
		metrics:    observability.NewMetrics(),
	}
	f.enforcement = NewEnforcementService(log, f.repository, f.platform, f.notifier, f.fields, f.metrics)
	f.store = verification.NewStore(log, f.scheduler, f.enforcement, timeout)
	t.Cleanup(f.store.Shutdown)

	filter, err := moderation.NewFilter([]string{"nojoya1", "nojoya2"}, []string{"badsite.com", "spam.example"})
	require.NoError(t, err)

	f.join = NewJoinService(log, f.store, f.fields, f.platform, f.notifier)
	f.collector = NewCollectorService(log, f.store, f.fields, f.repository, f.platform, f.notifier, f.metrics)
	f.router = NewRouterService(log, f.fields, f.collector, filter, f.repository, f.platform, f.notifier, f.metrics)
	f.operator = NewOperatorService(log, f.store, f.fields, f.repository, f.platform, f.notifier,
		domain.AdminDestination{Username: "Boss"})
	return f
}

// joined runs a successful join of the newcomer at the given time.
func (f *fixture) joined(t *testing.T, at time.Time) {
	f.platform.EXPECT().Send(gomock.Any(), domain.ChatID(newcomerID), gomock.Any(), domain.PromptContact).Return(nil)
	require.NoError(t, f.join.HandleMemberUpdate(context.Background(), event.MemberUpdated{
		Group:     group,
		User:      newcomer,
		OldStatus: domain.StatusLeft,
		NewStatus: domain.StatusMember,
		At:        at,
	}))
}

// captureLogs records every appended moderation log entry.
func (f *fixture) captureLogs() *[]domain.ModerationLogEntry {
	var (
		mu      sync.Mutex
		entries []domain.ModerationLogEntry
	)
	f.repository.EXPECT().AppendLog(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry domain.ModerationLogEntry) error {
			mu.Lock()
			defer mu.Unlock()
			entries = append(entries, entry)
			return nil
		}).AnyTimes()
	return &entries
}

func containsAny(messages []string, substr string) bool {
	for _, m := range messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}
