package chat

import "time"

type Session struct {
	ID        uint64     `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID string     `gorm:"type:varchar(26);uniqueIndex;not null" json:"session_id"`
	UserID    uint64     `gorm:"index;not null" json:"-"`
	Title     string     `gorm:"type:varchar(200);not null" json:"title"`
	StartedAt time.Time  `gorm:"autoCreateTime" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`

	Messages []Message `gorm:"foreignKey:SessionID;references:SessionID" json:"messages,omitempty"`
}

func (Session) TableName() string { return "sessions" }

type Message struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint64    `gorm:"index;not null" json:"-"`
	SessionID    *string   `gorm:"type:varchar(26);index" json:"session_id"`
	MessageText  string    `gorm:"type:text;not null" json:"message_text"`
	ResponseText *string   `gorm:"type:text" json:"response_text"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Message) TableName() string { return "messages" }
