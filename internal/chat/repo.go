package chat

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateSession(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// GetSession looks a session up by (public id, owner). A session belonging
// to another user is indistinguishable from a missing one.
func (r *Repo) GetSession(ctx context.Context, sessionID string, userID uint64) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSessionWithMessages also loads the session's messages oldest-first.
func (r *Repo) GetSessionWithMessages(ctx context.Context, sessionID string, userID uint64) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns a user's sessions newest-started first, each with its
// messages attached oldest-first.
func (r *Repo) ListSessions(ctx context.Context, userID uint64, limit, offset int) ([]Session, error) {
	var sessions []Session
	if err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("user_id = ?", userID).
		Order("started_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// EndSession flips an active session to ended and stamps ended_at. The WHERE
// on is_active makes the stamp a set-exactly-once transition: re-ending an
// already ended session touches zero rows and leaves the original ended_at.
func (r *Repo) EndSession(ctx context.Context, sessionID string, userID uint64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&Session{}).
		Where("session_id = ? AND user_id = ? AND is_active = ?", sessionID, userID, true).
		Updates(map[string]any{
			"is_active": false,
			"ended_at":  at,
		})
	return res.RowsAffected, res.Error
}

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *Repo) GetMessageByID(ctx context.Context, id uint64) (*Message, error) {
	var m Message
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// AttachResponse fills a message's response text. The IS NULL guard is the
// only update a message admits: a response, attached once.
func (r *Repo) AttachResponse(ctx context.Context, messageID uint64, response string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&Message{}).
		Where("id = ? AND response_text IS NULL", messageID).
		Update("response_text", response)
	return res.RowsAffected, res.Error
}

// ListUserMessages returns messages in DESC id order (newest -> oldest).
func (r *Repo) ListUserMessages(ctx context.Context, userID uint64, limit int, beforeID uint64) ([]Message, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit)

	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var msgs []Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
