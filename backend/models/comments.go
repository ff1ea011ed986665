package models

import "gorm.io/gorm"

// Community is a post on a product's community board.
type Community struct {
	gorm.Model
	Description string `gorm:"size:1000;not null"`
	UserID      uint   `gorm:"not null;index"`
	User        *User
	ProductID   uint `gorm:"not null;index"`
	Comments    []CommunityComment
	Likes       []CommunityLike
}

type CommunityComment struct {
	gorm.Model
	Content     string `gorm:"size:500;not null"`
	UserID      uint   `gorm:"not null"`
	CommunityID uint   `gorm:"not null;index"`
}

type CommunityLike struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint `gorm:"not null;uniqueIndex:idx_community_like_user_community"`
	CommunityID uint `gorm:"not null;uniqueIndex:idx_community_like_user_community"`
}
