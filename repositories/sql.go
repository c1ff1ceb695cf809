package repositories

import (
	"context"
	"gatekeeper/domain"
	"gatekeeper/errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ Repository = (*SQLRepository)(nil)

// UserModel is the relational row of a profile.
type UserModel struct {
	UserID     int64 `gorm:"primaryKey;autoIncrement:false"`
	Username   string
	Phone      string
	GivenName  string
	FamilyName string
	Age        *int
	JoinedAt   time.Time `gorm:"index"`
	Verified   bool      `gorm:"index"`
	VerifiedAt *time.Time
}

func (UserModel) TableName() string { return "users" }

// LogModel is the relational row of a moderation log entry.
type LogModel struct {
	ID       string    `gorm:"primaryKey;size:36"`
	At       time.Time `gorm:"index"`
	UserID   int64     `gorm:"index"`
	Username string
	ChatID   int64
	Text     string
	Deleted  bool
	Reason   string
	Lang     string `gorm:"size:8"`
}

func (LogModel) TableName() string { return "logs" }

// SQLRepository stores profiles and logs through gorm, on sqlite or postgres.
type SQLRepository struct {
	db  *gorm.DB
	log *slog.Logger
	now func() time.Time
}

func NewSQLRepository(db *gorm.DB, log *slog.Logger) *SQLRepository {
	return &SQLRepository{db: db, log: log, now: time.Now}
}

// Migrate creates or updates the users and logs tables.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	return errors.Persistence("migrate", r.db.WithContext(ctx).AutoMigrate(&UserModel{}, &LogModel{}))
}

func (r *SQLRepository) GetUser(ctx context.Context, id domain.UserID) (domain.UserProfile, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", int64(id)).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserProfile{}, errors.ErrUserNotFound
		}
		return domain.UserProfile{}, errors.Persistence("get user", err)
	}
	return toProfile(m), nil
}

func (r *SQLRepository) UpsertUser(ctx context.Context, id domain.UserID, update domain.ProfileUpdate) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m UserModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", int64(id)).First(&m).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			profile := domain.UserProfile{ID: id, JoinedAt: r.now().UTC()}
			update.Apply(&profile)
			return tx.Create(toUserModel(profile)).Error
		case err != nil:
			return err
		}
		profile := toProfile(m)
		update.Apply(&profile)
		return tx.Save(toUserModel(profile)).Error
	})
	return errors.Persistence("upsert user", err)
}

func (r *SQLRepository) SetVerified(ctx context.Context, id domain.UserID, at time.Time) error {
	at = at.UTC()
	result := r.db.WithContext(ctx).Model(&UserModel{}).
		Where("user_id = ? AND verified = ?", int64(id), false).
		Updates(map[string]any{"verified": true, "verified_at": at})
	if result.Error != nil {
		return errors.Persistence("set verified", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}
	// Nothing updated: either already verified or unknown.
	_, err := r.GetUser(ctx, id)
	return err
}

func (r *SQLRepository) AppendLog(ctx context.Context, entry domain.ModerationLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.At.IsZero() {
		entry.At = r.now()
	}
	m := LogModel{
		ID:       entry.ID.String(),
		At:       entry.At.UTC(),
		UserID:   int64(entry.UserID),
		Username: entry.Username,
		ChatID:   int64(entry.ChatID),
		Text:     entry.Text,
		Deleted:  entry.Deleted,
		Reason:   entry.Reason,
		Lang:     entry.Lang,
	}
	return errors.Persistence("append log", r.db.WithContext(ctx).Create(&m).Error)
}

func (r *SQLRepository) ListRecentLogs(ctx context.Context, limit int) ([]domain.ModerationLogEntry, error) {
	var ms []LogModel
	query := r.db.WithContext(ctx).Order("at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&ms).Error; err != nil {
		return nil, errors.Persistence("list logs", err)
	}
	entries := make([]domain.ModerationLogEntry, 0, len(ms))
	for _, m := range ms {
		parsedID, err := uuid.Parse(m.ID)
		if err != nil {
			return nil, errors.Persistence("list logs", err)
		}
		entries = append(entries, domain.ModerationLogEntry{
			ID:       parsedID,
			At:       m.At.UTC(),
			UserID:   domain.UserID(m.UserID),
			Username: m.Username,
			ChatID:   domain.ChatID(m.ChatID),
			Text:     m.Text,
			Deleted:  m.Deleted,
			Reason:   m.Reason,
			Lang:     m.Lang,
		})
	}
	return entries, nil
}

func (r *SQLRepository) ListRecentUsers(ctx context.Context, limit int) ([]domain.UserProfile, error) {
	var ms []UserModel
	query := r.db.WithContext(ctx).Order("joined_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&ms).Error; err != nil {
		return nil, errors.Persistence("list users", err)
	}
	profiles := make([]domain.UserProfile, 0, len(ms))
	for _, m := range ms {
		profiles = append(profiles, toProfile(m))
	}
	return profiles, nil
}

func (r *SQLRepository) CountUsers(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserModel{}).Count(&count).Error
	return int(count), errors.Persistence("count users", err)
}

func (r *SQLRepository) CountVerified(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserModel{}).Where("verified = ?", true).Count(&count).Error
	return int(count), errors.Persistence("count verified", err)
}

func toUserModel(p domain.UserProfile) *UserModel {
	return &UserModel{
		UserID:     int64(p.ID),
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

func toProfile(m UserModel) domain.UserProfile {
	var verifiedAt *time.Time
	if m.VerifiedAt != nil {
		at := m.VerifiedAt.UTC()
		verifiedAt = &at
	}
	return domain.UserProfile{
		ID:         domain.UserID(m.UserID),
		Username:   m.Username,
		Phone:      m.Phone,
		GivenName:  m.GivenName,
		FamilyName: m.FamilyName,
		Age:        m.Age,
		JoinedAt:   m.JoinedAt.UTC(),
		Verified:   m.Verified,
		VerifiedAt: verifiedAt,
	}
}
