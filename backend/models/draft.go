package models

import "time"

// Draft is a creator's in-progress course. Its id is chosen by the client
// and the row is addressed by (id, owner). Every child row carries DraftID
// so a draft can be wiped in one pass per table.
type Draft struct {
	ID             uint   `gorm:"primaryKey;autoIncrement:false"`
	UserID         uint   `gorm:"not null;index"`
	MainCategoryID *uint
	SubCategoryID  *uint
	DifficultyID   *uint
	Name           string `gorm:"size:100;not null"`
	Price          int64  `gorm:"not null"`
	Sale           float64
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Images          []DraftImage          `gorm:"constraint:OnDelete:CASCADE"`
	Chapters        []DraftChapter        `gorm:"constraint:OnDelete:CASCADE"`
	Lectures        []DraftLecture        `gorm:"constraint:OnDelete:CASCADE"`
	LectureContents []DraftLectureContent `gorm:"constraint:OnDelete:CASCADE"`
	Kits            []DraftKit            `gorm:"constraint:OnDelete:CASCADE"`
	KitImages       []DraftKitImage       `gorm:"constraint:OnDelete:CASCADE"`
}

type DraftImage struct {
	ID       uint   `gorm:"primaryKey"`
	ImageKey string `gorm:"size:200;not null"`
	DraftID  uint   `gorm:"not null;index"`
}

type DraftChapter struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:100;not null"`
	ThumbnailKey string `gorm:"size:200"`
	DraftID      uint   `gorm:"not null;index"`
	Order        int    `gorm:"column:sort_order;not null"`

	Lectures []DraftLecture `gorm:"constraint:OnDelete:CASCADE"`
}

type DraftLecture struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"size:100;not null"`
	VideoKey       string `gorm:"size:200"`
	Duration       *time.Duration
	DraftChapterID uint `gorm:"not null;index"`
	DraftChapter   *DraftChapter
	DraftID        uint `gorm:"not null;index"`
	Order          int  `gorm:"column:sort_order;not null"`

	Contents []DraftLectureContent `gorm:"constraint:OnDelete:CASCADE"`
}

type DraftContentImage struct {
	ID             uint   `gorm:"primaryKey"`
	ImageKey       string `gorm:"size:200;not null"`
	DraftLectureID uint   `gorm:"not null;index"`
	DraftID        uint   `gorm:"not null;index"`
}

type DraftContentDescription struct {
	ID             uint   `gorm:"primaryKey"`
	Description    string `gorm:"size:500"`
	DraftLectureID uint   `gorm:"not null;index"`
	DraftID        uint   `gorm:"not null;index"`
}

// DraftLectureContent links an optional content image and a description to
// a lecture at a position. Image and description are separate rows so they
// can be created before they are associated.
type DraftLectureContent struct {
	ID             uint `gorm:"primaryKey"`
	ImageID        *uint
	Image          *DraftContentImage `gorm:"constraint:OnDelete:SET NULL"`
	DescriptionID  *uint
	Description    *DraftContentDescription `gorm:"constraint:OnDelete:SET NULL"`
	DraftLectureID uint                     `gorm:"not null;index"`
	DraftLecture   *DraftLecture
	DraftID        uint `gorm:"not null;index"`
	Order          int  `gorm:"column:sort_order;not null"`
}

type DraftKit struct {
	ID      uint   `gorm:"primaryKey"`
	Name    string `gorm:"size:100;not null"`
	Price   *int64
	DraftID uint `gorm:"not null;index"`

	Images []DraftKitImage `gorm:"constraint:OnDelete:CASCADE"`
}

type DraftKitImage struct {
	ID         uint   `gorm:"primaryKey"`
	ImageKey   string `gorm:"size:200;not null"`
	DraftKitID uint   `gorm:"not null;index"`
	DraftKit   *DraftKit
	DraftID    uint `gorm:"not null;index"`
}
