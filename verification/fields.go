package verification

import (
	"gatekeeper/domain"
	"gatekeeper/errors"
)

type Stage int

const (
	StageIdle Stage = iota
	StageAwaitingPhone
	StageChoosingField
	StageAwaitingField
)

func (s Stage) String() string {
	switch s {
	case StageAwaitingPhone:
		return "awaiting_phone"
	case StageChoosingField:
		return "choosing_field"
	case StageAwaitingField:
		return "awaiting_field"
	default:
		return "idle"
	}
}

// CollectorState is the tagged state of one user's field collection.
// Field is only meaningful in StageAwaitingField.
type CollectorState struct {
	Stage Stage
	Field domain.Field
}

// Fields holds the collector state of every user that is not idle.
type Fields struct {
	states *shardedMap[CollectorState]
}

func NewFields() *Fields {
	return &Fields{states: newShardedMap[CollectorState]()}
}

func (f *Fields) State(userID domain.UserID) CollectorState {
	var state CollectorState
	f.states.with(userID, func(items map[domain.UserID]CollectorState) {
		state = items[userID]
	})
	return state
}

func (f *Fields) AwaitPhone(userID domain.UserID) {
	f.set(userID, CollectorState{Stage: StageAwaitingPhone})
}

// PhoneReceived moves the user to the field menu, dropping any outstanding request.
func (f *Fields) PhoneReceived(userID domain.UserID) {
	f.set(userID, CollectorState{Stage: StageChoosingField})
}

// Request records the single field the user is now expected to type.
func (f *Fields) Request(userID domain.UserID, field domain.Field) {
	f.set(userID, CollectorState{Stage: StageAwaitingField, Field: field})
}

// Pending reports the field the user was last asked for, if any.
func (f *Fields) Pending(userID domain.UserID) (domain.Field, bool) {
	state := f.State(userID)
	if state.Stage != StageAwaitingField {
		return "", false
	}
	return state.Field, true
}

// Resolve consumes the pending request when validate accepts the answer.
// On a validation error the request stays in place so the user can be prompted again.
func (f *Fields) Resolve(userID domain.UserID, validate func(domain.Field) error) (domain.Field, error) {
	var (
		field domain.Field
		err   error
	)
	f.states.with(userID, func(items map[domain.UserID]CollectorState) {
		state, ok := items[userID]
		if !ok || state.Stage != StageAwaitingField {
			err = errors.ErrNoPendingRequest
			return
		}
		field = state.Field
		if err = validate(field); err != nil {
			return
		}
		items[userID] = CollectorState{Stage: StageChoosingField}
	})
	return field, err
}

// Reset returns the user to idle.
func (f *Fields) Reset(userID domain.UserID) {
	f.states.with(userID, func(items map[domain.UserID]CollectorState) {
		delete(items, userID)
	})
}

func (f *Fields) Len() int {
	n := 0
	f.states.each(func(items map[domain.UserID]CollectorState) {
		n += len(items)
	})
	return n
}

func (f *Fields) set(userID domain.UserID, state CollectorState) {
	f.states.with(userID, func(items map[domain.UserID]CollectorState) {
		items[userID] = state
	})
}
