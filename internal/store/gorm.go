package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sylvieyl/heartlog/backend/internal/analysis/emotion"
	"github.com/sylvieyl/heartlog/backend/internal/model/chat"
	"github.com/sylvieyl/heartlog/backend/internal/model/diary"
	"github.com/sylvieyl/heartlog/backend/internal/model/user"
	"github.com/sylvieyl/heartlog/backend/internal/service/journal"
)

// UserRecord is the persisted shape of a registered user.
type UserRecord struct {
	ID           string `gorm:"type:varchar(36);primaryKey"`
	Email        string `gorm:"size:255;uniqueIndex"`
	DisplayName  string `gorm:"size:120"`
	PasswordHash string `gorm:"size:120"`
	CreatedAt    time.Time
}

// TableName 指定用户表名。
func (UserRecord) TableName() string { return "users" }

// EntryRecord is the persisted shape of a diary entry. The chat transcript
// is stored as a JSON column rather than a join table: entries are
// immutable snapshots and are always read whole.
type EntryRecord struct {
	ID               string    `gorm:"type:varchar(36);primaryKey"`
	UserID           string    `gorm:"type:varchar(36);index:idx_entries_user_date"`
	SessionID        string    `gorm:"type:varchar(36)"`
	Date             time.Time `gorm:"index:idx_entries_user_date"`
	Messages         datatypes.JSON
	Generated        string `gorm:"type:text"`
	EmotionPrimary   string `gorm:"size:32"`
	EmotionIntensity float64
	EmotionColor     string `gorm:"size:16"`
	EmotionEmoji     string `gorm:"size:16"`
	PhotoKey         string `gorm:"size:255"`
	Summary          string `gorm:"size:512"`
	CreatedAt        time.Time
}

// TableName 指定日记表名。
func (EntryRecord) TableName() string { return "diary_entries" }

// Gorm implements the user and diary stores over postgres.
type Gorm struct {
	db *gorm.DB
}

// Open connects to postgres and migrates the schema.
func Open(dsn string) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&UserRecord{}, &EntryRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Create(ctx context.Context, u user.User) error {
	record := UserRecord{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
	if err := g.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (g *Gorm) FindByEmail(ctx context.Context, email string) (user.User, bool, error) {
	var record UserRecord
	err := g.db.WithContext(ctx).Where("email = ?", email).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user.User{}, false, nil
	}
	if err != nil {
		return user.User{}, false, fmt.Errorf("failed to query user: %w", err)
	}
	return toUser(record), true, nil
}

func (g *Gorm) FindByID(ctx context.Context, id string) (user.User, bool, error) {
	var record UserRecord
	err := g.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user.User{}, false, nil
	}
	if err != nil {
		return user.User{}, false, fmt.Errorf("failed to query user: %w", err)
	}
	return toUser(record), true, nil
}

func (g *Gorm) Save(ctx context.Context, entry diary.Entry) error {
	messages, err := json.Marshal(entry.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}

	record := EntryRecord{
		ID:               entry.ID,
		UserID:           entry.UserID,
		SessionID:        entry.SessionID,
		Date:             entry.Date,
		Messages:         datatypes.JSON(messages),
		Generated:        entry.Generated,
		EmotionPrimary:   string(entry.Emotion.Primary),
		EmotionIntensity: entry.Emotion.Intensity,
		EmotionColor:     entry.Emotion.Color,
		EmotionEmoji:     entry.Emotion.Emoji,
		PhotoKey:         entry.PhotoKey,
		Summary:          entry.Summary,
		CreatedAt:        entry.CreatedAt,
	}
	if err := g.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	return nil
}

func (g *Gorm) Get(ctx context.Context, id, userID string) (diary.Entry, error) {
	var record EntryRecord
	err := g.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return diary.Entry{}, journal.ErrEntryNotFound
	}
	if err != nil {
		return diary.Entry{}, fmt.Errorf("failed to query entry: %w", err)
	}
	return toEntry(record)
}

func (g *Gorm) ListRange(ctx context.Context, userID string, from, to time.Time) ([]diary.Entry, error) {
	var records []EntryRecord
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, from, to).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	entries := make([]diary.Entry, 0, len(records))
	for _, record := range records {
		entry, err := toEntry(record)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (g *Gorm) SetPhoto(ctx context.Context, id, userID, photoKey string) error {
	result := g.db.WithContext(ctx).
		Model(&EntryRecord{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("photo_key", photoKey)
	if result.Error != nil {
		return fmt.Errorf("failed to update photo: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return journal.ErrEntryNotFound
	}
	return nil
}

func (g *Gorm) Delete(ctx context.Context, id, userID string) error {
	result := g.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&EntryRecord{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return journal.ErrEntryNotFound
	}
	return nil
}

func toUser(record UserRecord) user.User {
	return user.User{
		ID:           record.ID,
		Email:        record.Email,
		DisplayName:  record.DisplayName,
		PasswordHash: record.PasswordHash,
		CreatedAt:    record.CreatedAt,
	}
}

func toEntry(record EntryRecord) (diary.Entry, error) {
	var messages []chat.Message
	if len(record.Messages) > 0 {
		if err := json.Unmarshal(record.Messages, &messages); err != nil {
			return diary.Entry{}, fmt.Errorf("failed to decode transcript: %w", err)
		}
	}

	return diary.Entry{
		ID:        record.ID,
		UserID:    record.UserID,
		SessionID: record.SessionID,
		Date:      record.Date,
		Messages:  messages,
		Generated: record.Generated,
		Emotion: emotion.For(
			emotion.Label(record.EmotionPrimary),
			record.EmotionIntensity,
		),
		PhotoKey:  record.PhotoKey,
		Summary:   record.Summary,
		CreatedAt: record.CreatedAt,
	}, nil
}
