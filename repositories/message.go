package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"gatekeeper/domain"
	"gatekeeper/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const logPrefix = "log:"

// DiskLogEntry is the stored representation of a moderation log entry.
type DiskLogEntry struct {
	ID       string `json:"id"`
	At       int64  `json:"at"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	ChatID   int64  `json:"chat_id"`
	Text     string `json:"text"`
	Deleted  bool   `json:"deleted"`
	Reason   string `json:"reason,omitempty"`
	Lang     string `json:"lang,omitempty"`
}

// AppendLog persists an entry under "log:{timestamp_padded}:{uuid}".
// The 19-digit padding keeps lexicographical order chronological and the
// uuid separates two entries written in the same nanosecond.
func (r *BadgerRepository) AppendLog(ctx context.Context, entry domain.ModerationLogEntry) error {
	if err := ctx.Err(); err != nil {
		return errors.Persistence("append log", err)
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.At.IsZero() {
		entry.At = r.now()
	}
	key := fmt.Sprintf("%s%019d:%s", logPrefix, entry.At.UnixNano(), entry.ID)
	bytes, err := json.Marshal(fromLogEntry(entry))
	if err != nil {
		return errors.Persistence("append log", err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	return errors.Persistence("append log", err)
}

// ListRecentLogs walks the log prefix backwards from the far end of the key space.
func (r *BadgerRepository) ListRecentLogs(ctx context.Context, limit int) ([]domain.ModerationLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Persistence("list logs", err)
	}
	var entries []domain.ModerationLogEntry
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(logPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append([]byte(logPrefix), []byte("9999999999999999999~")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(entries) == limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d log entries reached", limit))
				break
			}
			var disk DiskLogEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &disk)
			})
			if err != nil {
				return err
			}
			entry, err := toLogEntry(disk)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Persistence("list logs", err)
	}
	return entries, nil
}

func fromLogEntry(e domain.ModerationLogEntry) DiskLogEntry {
	return DiskLogEntry{
		ID:       e.ID.String(),
		At:       e.At.UnixNano(),
		UserID:   int64(e.UserID),
		Username: e.Username,
		ChatID:   int64(e.ChatID),
		Text:     e.Text,
		Deleted:  e.Deleted,
		Reason:   e.Reason,
		Lang:     e.Lang,
	}
}

func toLogEntry(d DiskLogEntry) (domain.ModerationLogEntry, error) {
	parsedID, err := uuid.Parse(d.ID)
	if err != nil {
		return domain.ModerationLogEntry{}, err
	}
	return domain.ModerationLogEntry{
		ID:       parsedID,
		At:       time.Unix(0, d.At).UTC(),
		UserID:   domain.UserID(d.UserID),
		Username: d.Username,
		ChatID:   domain.ChatID(d.ChatID),
		Text:     d.Text,
		Deleted:  d.Deleted,
		Reason:   d.Reason,
		Lang:     d.Lang,
	}, nil
}
