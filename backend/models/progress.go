package models

import "time"

type LectureProgress struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_lecture_progress_user_lecture"`
	ProductID uint `gorm:"not null;index"`
	LectureID uint `gorm:"not null;uniqueIndex:idx_lecture_progress_user_lecture"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProgressOverview struct {
	ProductID      uint    `json:"productId"`
	TotalLectures  int64   `json:"totalLectures"`
	Completed      int64   `json:"completed"`
	CompletionRate float64 `json:"completionRate"`
}
