package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"gatekeeper/domain"
	"gatekeeper/errors"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	userPrefix       = "user:"
	maxConflictRetry = 3
)

var _ Repository = (*BadgerRepository)(nil)

// BadgerRepository keeps profiles under "user:{id}" and audit entries under
// "log:{timestamp_padded}:{uuid}" in one BadgerDB.
type BadgerRepository struct {
	db  *badger.DB
	log *slog.Logger
	now func() time.Time
}

func NewBadgerRepository(db *badger.DB, log *slog.Logger) *BadgerRepository {
	return &BadgerRepository{db: db, log: log, now: time.Now}
}

// DiskUser is the stored representation of a profile.
type DiskUser struct {
	ID         int64      `json:"id"`
	Username   string     `json:"username,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	GivenName  string     `json:"given_name,omitempty"`
	FamilyName string     `json:"family_name,omitempty"`
	Age        *int       `json:"age,omitempty"`
	JoinedAt   time.Time  `json:"joined_at"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func userKey(id domain.UserID) []byte {
	return []byte(fmt.Sprintf("%s%d", userPrefix, id))
}

func (r *BadgerRepository) GetUser(ctx context.Context, id domain.UserID) (domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserProfile{}, errors.Persistence("get user", err)
	}
	var profile domain.UserProfile
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		profile, err = readUser(txn, id)
		return err
	})
	if errors.Is(err, errors.ErrUserNotFound) {
		return domain.UserProfile{}, err
	}
	return profile, errors.Persistence("get user", err)
}

func (r *BadgerRepository) UpsertUser(ctx context.Context, id domain.UserID, update domain.ProfileUpdate) error {
	if err := ctx.Err(); err != nil {
		return errors.Persistence("upsert user", err)
	}
	err := r.updateWithRetry(func(txn *badger.Txn) error {
		profile, err := readUser(txn, id)
		switch {
		case errors.Is(err, errors.ErrUserNotFound):
			profile = domain.UserProfile{ID: id, JoinedAt: r.now().UTC()}
		case err != nil:
			return err
		}
		update.Apply(&profile)
		return writeUser(txn, profile)
	})
	return errors.Persistence("upsert user", err)
}

func (r *BadgerRepository) SetVerified(ctx context.Context, id domain.UserID, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return errors.Persistence("set verified", err)
	}
	err := r.updateWithRetry(func(txn *badger.Txn) error {
		profile, err := readUser(txn, id)
		if err != nil {
			return err
		}
		if profile.Verified {
			return nil
		}
		profile.MarkVerified(at)
		return writeUser(txn, profile)
	})
	if errors.Is(err, errors.ErrUserNotFound) {
		return err
	}
	return errors.Persistence("set verified", err)
}

// ListRecentUsers decodes every profile; the user table of one group stays small.
func (r *BadgerRepository) ListRecentUsers(ctx context.Context, limit int) ([]domain.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Persistence("list users", err)
	}
	var profiles []domain.UserProfile
	err := r.scanUsers(func(p domain.UserProfile) {
		profiles = append(profiles, p)
	})
	if err != nil {
		return nil, errors.Persistence("list users", err)
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].JoinedAt.After(profiles[j].JoinedAt)
	})
	if limit > 0 && len(profiles) > limit {
		profiles = profiles[:limit]
	}
	return profiles, nil
}

func (r *BadgerRepository) CountUsers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Persistence("count users", err)
	}
	count := 0
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		// Keys are enough to count
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		prefix := []byte(userPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, errors.Persistence("count users", err)
}

func (r *BadgerRepository) CountVerified(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Persistence("count verified", err)
	}
	count := 0
	err := r.scanUsers(func(p domain.UserProfile) {
		if p.Verified {
			count++
		}
	})
	return count, errors.Persistence("count verified", err)
}

func (r *BadgerRepository) scanUsers(fn func(domain.UserProfile)) error {
	return r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(userPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var disk DiskUser
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &disk)
			})
			if err != nil {
				return err
			}
			fn(toUserProfile(disk))
		}
		return nil
	})
}

// updateWithRetry replays the transaction when a concurrent writer touched the same keys.
func (r *BadgerRepository) updateWithRetry(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetry; attempt++ {
		err = r.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		r.log.Debug("Transaction conflict, retrying", "attempt", attempt+1)
	}
	return err
}

func readUser(txn *badger.Txn, id domain.UserID) (domain.UserProfile, error) {
	item, err := txn.Get(userKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.UserProfile{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.UserProfile{}, err
	}
	var disk DiskUser
	if err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &disk)
	}); err != nil {
		return domain.UserProfile{}, err
	}
	return toUserProfile(disk), nil
}

func writeUser(txn *badger.Txn, profile domain.UserProfile) error {
	bytes, err := json.Marshal(fromUserProfile(profile))
	if err != nil {
		return err
	}
	return txn.Set(userKey(profile.ID), bytes)
}

func fromUserProfile(p domain.UserProfile) DiskUser {
	return DiskUser{
		ID:         int64(p.ID),
		Username:   p.Username,
		Phone:      p.Phone,
		GivenName:  p.GivenName,
		FamilyName: p.FamilyName,
		Age:        p.Age,
		JoinedAt:   p.JoinedAt.UTC(),
		Verified:   p.Verified,
		VerifiedAt: p.VerifiedAt,
	}
}

func toUserProfile(d DiskUser) domain.UserProfile {
	return domain.UserProfile{
		ID:         domain.UserID(d.ID),
		Username:   d.Username,
		Phone:      d.Phone,
		GivenName:  d.GivenName,
		FamilyName: d.FamilyName,
		Age:        d.Age,
		JoinedAt:   d.JoinedAt.UTC(),
		Verified:   d.Verified,
		VerifiedAt: d.VerifiedAt,
	}
}
