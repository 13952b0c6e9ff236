package models

import "time"

type Room struct {
	ID        string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Name      string    `gorm:"column:name;size:100;not null" json:"name"`
	CreatedBy string    `gorm:"column:created_by;size:36;not null" json:"created_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Room) TableName() string {
	return "rooms"
}
