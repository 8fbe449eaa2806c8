package admin

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/AdamsEmmanuel/Chatbot/internal/chat"
	"github.com/AdamsEmmanuel/Chatbot/internal/models"
)

// ErrAdminLockout guards against deactivating a live admin account.
var ErrAdminLockout = errors.New("cannot deactivate an active admin")

// Service is the reporting and moderation surface over the same tables the
// chat flow writes. Reads are plain aggregations; the two mutations are
// toggle-active and hard message delete.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Service) GetUser(ctx context.Context, userID uint64) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) ListAllMessages(ctx context.Context, limit, offset int) ([]chat.Message, error) {
	var msgs []chat.Message
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *Service) ListUserMessages(ctx context.Context, userID uint64, limit, offset int) ([]chat.Message, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	var msgs []chat.Message
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type TopUser struct {
	Username     string `json:"username"`
	MessageCount int64  `json:"message_count"`
}

type Stats struct {
	TotalUsers       int64        `json:"total_users"`
	TotalMessages    int64        `json:"total_messages"`
	TotalSessions    int64        `json:"total_sessions"`
	ActiveSessions   int64        `json:"active_sessions"`
	NewUsersThisWeek int64        `json:"new_users_this_week"`
	MessagesThisWeek int64        `json:"messages_this_week"`
	DailyMessages    []DailyCount `json:"daily_messages"`
	TopUsers         []TopUser    `json:"top_users"`
	GeneratedAt      time.Time    `json:"generated_at"`
}

// Stats aggregates the dashboard numbers. Day buckets are anchored at the
// midnight of the aggregation instant, not fixed calendar boundaries.
func (s *Service) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	db := s.db.WithContext(ctx)
	out := &Stats{GeneratedAt: now}

	if err := db.Model(&models.User{}).Count(&out.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&chat.Message{}).Count(&out.TotalMessages).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&chat.Session{}).Count(&out.TotalSessions).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&chat.Session{}).Where("is_active = ?", true).Count(&out.ActiveSessions).Error; err != nil {
		return nil, err
	}

	weekAgo := now.AddDate(0, 0, -7)
	if err := db.Model(&models.User{}).Where("created_at >= ?", weekAgo).Count(&out.NewUsersThisWeek).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&chat.Message{}).Where("created_at >= ?", weekAgo).Count(&out.MessagesThisWeek).Error; err != nil {
		return nil, err
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := 0; i < 7; i++ {
		dayStart := midnight.AddDate(0, 0, -i)
		dayEnd := dayStart.AddDate(0, 0, 1)

		var count int64
		if err := db.Model(&chat.Message{}).
			Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
			Count(&count).Error; err != nil {
			return nil, err
		}
		out.DailyMessages = append(out.DailyMessages, DailyCount{
			Date:  dayStart.Format("2006-01-02"),
			Count: count,
		})
	}

	if err := db.Model(&chat.Message{}).
		Select("users.username AS username, COUNT(messages.id) AS message_count").
		Joins("JOIN users ON users.id = messages.user_id").
		Group("users.id, users.username").
		Order("message_count DESC").
		Limit(5).
		Scan(&out.TopUsers).Error; err != nil {
		return nil, err
	}

	return out, nil
}

// ToggleUserActive flips a user's active flag. Active admins cannot be
// deactivated, so an admin can never lock themselves out.
func (s *Service) ToggleUserActive(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin && user.IsActive {
		return nil, ErrAdminLockout
	}

	user.IsActive = !user.IsActive
	if err := s.db.WithContext(ctx).
		Model(user).
		Update("is_active", user.IsActive).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) DeleteMessage(ctx context.Context, messageID uint64) error {
	res := s.db.WithContext(ctx).Delete(&chat.Message{}, messageID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
