package models

import "time"

type MembershipStatus string

const (
	StatusPending  MembershipStatus = "pending"
	StatusApproved MembershipStatus = "approved"
	StatusRejected MembershipStatus = "rejected"
)

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

type Membership struct {
	ID        string           `gorm:"column:id;primaryKey;size:36" json:"id"`
	RoomID    string           `gorm:"column:room_id;size:36;not null;uniqueIndex:idx_room_user" json:"room_id"`
	UserID    string           `gorm:"column:user_id;size:36;not null;uniqueIndex:idx_room_user" json:"user_id"`
	Status    MembershipStatus `gorm:"column:status;size:20;default:'pending'" json:"status"`
	Role      string           `gorm:"column:role;size:20;default:'member'" json:"role"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Membership) TableName() string {
	return "room_members"
}

// PendingRequest is a membership row with the requester's profile email
// joined in, shown only to the room owner.
type PendingRequest struct {
	ID     string           `json:"id"`
	RoomID string           `json:"room_id"`
	UserID string           `json:"user_id"`
	Status MembershipStatus `json:"status"`
	Role   string           `json:"role"`
	Email  string           `json:"email"`
}
