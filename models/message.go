package models

import "time"

type Message struct {
	ID      string `gorm:"column:id;primaryKey;size:36" json:"id"`
	RoomID  string `gorm:"column:room_id;size:36;not null;index" json:"room_id"`
	UserID  string `gorm:"column:user_id;size:36;not null" json:"user_id"`
	Content string `gorm:"column:content;type:text;not null" json:"content"`
	// AuthorEmail is resolved from the profiles table on read; not stored.
	AuthorEmail string    `gorm:"-" json:"author_email,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
