// Package verification owns the in-memory probation state: one session per joining user,
// its deadline timer, and the per-user field collection state.
package verification

import (
	"context"
	"fmt"
	"gatekeeper/domain"
	"log/slog"
	"sort"
	"time"
)

type State int

const (
	StateArmed State = iota
	StateEnforcing
	StateCancelled
	StateFired
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateEnforcing:
		return "enforcing"
	case StateCancelled:
		return "cancelled"
	case StateFired:
		return "fired"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type CancelOutcome int

const (
	Cancelled CancelOutcome = iota
	AlreadyFired
	AlreadyCancelled
)

type Completion int

const (
	// NoSession means the user had no pending session; verification may still proceed.
	NoSession Completion = iota
	// Completed means the session was closed and its timer will never enforce.
	Completed
	// Expired means enforcement claimed the session of the current join episode,
	// whether it is still running or already done.
	Expired
)

// Session is a read-only snapshot of one join episode.
type Session struct {
	UserID     domain.UserID
	GroupID    domain.ChatID
	GroupTitle string
	JoinedAt   time.Time
	Deadline   time.Time
	HasPhone   bool
	State      State
}

// Expirer runs the enforcement branch once a deadline elapsed on a still armed session.
type Expirer interface {
	Expire(ctx context.Context, session Session)
}

type session struct {
	Session
	timer Timer
}

// pending is true until enforcement finished. A fired session stays in the map as the
// tombstone of its join episode until the user joins again.
func (s *session) pending() bool {
	return s.State == StateArmed || s.State == StateEnforcing
}

// Store holds at most one live session per user, plus the tombstone of the last enforced one. Every operation on a user runs
// inside the critical section of that user's shard; no I/O happens under a lock.
type Store struct {
	log       *slog.Logger
	scheduler Scheduler
	expirer   Expirer
	timeout   time.Duration
	now       func() time.Time
	sessions  *shardedMap[*session]
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewStore(log *slog.Logger, scheduler Scheduler, expirer Expirer, timeout time.Duration) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		log:       log,
		scheduler: scheduler,
		expirer:   expirer,
		timeout:   timeout,
		now:       time.Now,
		sessions:  newShardedMap[*session](),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Store) Timeout() time.Duration {
	return s.timeout
}

// Handle is the owner's grip on one session and its timer.
type Handle struct {
	store *Store
	sess  *session
}

// Open creates the session of a joining user, replacing and disarming any previous one first.
func (s *Store) Open(userID domain.UserID, groupID domain.ChatID, groupTitle string) Handle {
	now := s.now().UTC()
	created := &session{Session: Session{
		UserID:     userID,
		GroupID:    groupID,
		GroupTitle: groupTitle,
		JoinedAt:   now,
		Deadline:   now.Add(s.timeout),
		State:      StateArmed,
	}}

	replaced := false
	s.sessions.with(userID, func(items map[domain.UserID]*session) {
		if previous, ok := items[userID]; ok && previous.State == StateArmed {
			previous.timer.Stop()
			previous.State = StateCancelled
			replaced = true
		}
		items[userID] = created
		created.timer = s.scheduler.AfterFunc(s.timeout, func() { s.fire(created) })
	})

	s.log.Debug("Verification session opened",
		"user_id", userID, "group_id", groupID, "deadline", created.Deadline, "replaced", replaced)
	return Handle{store: s, sess: created}
}

// Close removes the armed session of the user and cancels its timer.
// It returns false when there is none, including when enforcement already claimed it.
func (s *Store) Close(userID domain.UserID) bool {
	closed := false
	s.sessions.with(userID, func(items map[domain.UserID]*session) {
		current, ok := items[userID]
		if !ok || current.State != StateArmed {
			return
		}
		cancelLocked(items, current)
		closed = true
	})
	return closed
}

// Complete closes the session on behalf of a successful verification.
// Exactly one of Complete and the timer wins for a given session.
func (s *Store) Complete(userID domain.UserID) Completion {
	outcome := NoSession
	s.sessions.with(userID, func(items map[domain.UserID]*session) {
		current, ok := items[userID]
		if !ok {
			return
		}
		if current.State != StateArmed {
			outcome = Expired
			return
		}
		cancelLocked(items, current)
		outcome = Completed
	})
	return outcome
}

func (s *Store) MarkPhoneReceived(userID domain.UserID) {
	s.sessions.with(userID, func(items map[domain.UserID]*session) {
		if current, ok := items[userID]; ok && current.State == StateArmed {
			current.HasPhone = true
		}
	})
}

func (s *Store) Get(userID domain.UserID) (Session, bool) {
	var (
		snapshot Session
		found    bool
	)
	s.sessions.with(userID, func(items map[domain.UserID]*session) {
		if current, ok := items[userID]; ok && current.pending() {
			snapshot, found = current.Session, true
		}
	})
	return snapshot, found
}

func (s *Store) Len() int {
	n := 0
	s.sessions.each(func(items map[domain.UserID]*session) {
		for _, current := range items {
			if current.pending() {
				n++
			}
		}
	})
	return n
}

// Snapshot lists the live sessions ordered by join time.
func (s *Store) Snapshot() []Session {
	var out []Session
	s.sessions.each(func(items map[domain.UserID]*session) {
		for _, current := range items {
			if current.pending() {
				out = append(out, current.Session)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

// Shutdown disarms every pending timer. Sessions are not persisted across restarts.
func (s *Store) Shutdown() {
	s.sessions.each(func(items map[domain.UserID]*session) {
		for _, current := range items {
			if current.State == StateArmed {
				cancelLocked(items, current)
			}
		}
	})
	s.cancel()
}

// cancel disarms this session if it is still armed.
func (h Handle) cancel() CancelOutcome {
	outcome := AlreadyCancelled
	h.store.sessions.with(h.sess.UserID, func(items map[domain.UserID]*session) {
		switch h.sess.State {
		case StateArmed:
			cancelLocked(items, h.sess)
			outcome = Cancelled
		case StateEnforcing, StateFired:
			outcome = AlreadyFired
		}
	})
	return outcome
}

// Session returns a snapshot of this session while it is still the live one.
func (h Handle) Session() (Session, bool) {
	var (
		snapshot Session
		live     bool
	)
	h.store.sessions.with(h.sess.UserID, func(items map[domain.UserID]*session) {
		if items[h.sess.UserID] == h.sess && h.sess.pending() {
			snapshot, live = h.sess.Session, true
		}
	})
	return snapshot, live
}

// cancelLocked must run inside the shard critical section. Once the state leaves
// StateArmed the timer callback can no longer claim the session.
func cancelLocked(items map[domain.UserID]*session, sess *session) {
	sess.timer.Stop()
	sess.State = StateCancelled
	if items[sess.UserID] == sess {
		delete(items, sess.UserID)
	}
}

// fire is the timer callback. It claims the session, runs the enforcement outside
// the lock, then leaves the session as a tombstone so a late Complete reports Expired.
func (s *Store) fire(sess *session) {
	var (
		snapshot Session
		claimed  bool
	)
	s.sessions.with(sess.UserID, func(items map[domain.UserID]*session) {
		if items[sess.UserID] != sess || sess.State != StateArmed {
			return
		}
		sess.State = StateEnforcing
		snapshot, claimed = sess.Session, true
	})
	if !claimed {
		s.log.Debug("Deadline reached on a closed session, nothing to do", "user_id", sess.UserID)
		return
	}

	defer s.sessions.with(sess.UserID, func(map[domain.UserID]*session) {
		sess.State = StateFired
	})

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("Enforcement panicked", "user_id", sess.UserID, "panic", r)
			}
		}()
		s.expirer.Expire(s.ctx, snapshot)
	}()
}
