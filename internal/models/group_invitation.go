package models

import "gorm.io/gorm"

// InvitationStatus defines the state of a group invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// GroupInvitation is the single invitation row per (group, invitee). A
// re-invite after a rejection resets the same row back to pending rather
// than creating a duplicate; resolved rows are kept for audit.
type GroupInvitation struct {
	gorm.Model
	GroupID   uint             `gorm:"not null;uniqueIndex:idx_group_invitee"`
	InviteeID uint             `gorm:"not null;uniqueIndex:idx_group_invitee"`
	InviterID uint             `gorm:"not null"`
	Status    InvitationStatus `gorm:"type:varchar(20);not null;default:'pending'"`

	Group   Group `gorm:"foreignKey:GroupID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Invitee User  `gorm:"foreignKey:InviteeID"`
	Inviter User  `gorm:"foreignKey:InviterID"`
}
