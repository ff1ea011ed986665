package models

import "time"

// Media columns on catalog rows (ThumbnailImage, ImageURL, VideoURL, ...)
// hold object keys issued by the media relay, not absolute URLs.

type MainCategory struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Name          string        `gorm:"size:50;uniqueIndex;not null" json:"name"`
	SubCategories []SubCategory `json:"subCategories,omitempty"`
}

type SubCategory struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Name           string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	MainCategoryID *uint  `json:"mainCategoryId,omitempty"`
}

type Difficulty struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:20;uniqueIndex;not null" json:"name"`
}

type Product struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"size:100;not null"`
	Price          int64  `gorm:"not null"`
	Sale           float64
	StartDate      time.Time
	ThumbnailImage string `gorm:"size:1000"`
	MainCategoryID *uint
	MainCategory   *MainCategory
	SubCategoryID  *uint
	SubCategory    *SubCategory
	DifficultyID   *uint
	Difficulty     *Difficulty
	CreatorID      *uint
	Creator        *User
	IsDeleted      bool `gorm:"default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	SubImages   []ProductSubImage `gorm:"constraint:OnDelete:CASCADE"`
	Chapters    []Chapter         `gorm:"constraint:OnDelete:CASCADE"`
	ProductKits []ProductKit      `gorm:"constraint:OnDelete:CASCADE"`
}

// DiscountedPrice is the list price after the product sale is applied,
// truncated to a whole unit.
func (p Product) DiscountedPrice() int64 {
	return int64(float64(p.Price) * (1 - p.Sale))
}

type ProductSubImage struct {
	ID        uint   `gorm:"primaryKey"`
	ImageURL  string `gorm:"size:1000;not null"`
	ProductID uint   `gorm:"not null;index"`
}

type Chapter struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"size:100;not null"`
	ProductID      uint   `gorm:"not null;index"`
	Order          int    `gorm:"column:sort_order;not null"`
	ThumbnailImage string `gorm:"size:1000"`
	Lectures       []Lecture
}

type Lecture struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	ProductID uint   `gorm:"not null;index"`
	VideoID   *uint  `gorm:"uniqueIndex"`
	Video     *LectureVideo
	ChapterID *uint `gorm:"index"`
	Order     int   `gorm:"column:sort_order;not null"`
}

type LectureVideo struct {
	ID       uint   `gorm:"primaryKey"`
	VideoURL string `gorm:"size:1000"`
	Duration *time.Duration
}

type LectureContentDescription struct {
	ID          uint   `gorm:"primaryKey"`
	Description string `gorm:"size:1000"`
}

type LectureContentImageURL struct {
	ID       uint   `gorm:"primaryKey"`
	ImageURL string `gorm:"size:1000"`
}

type LectureContent struct {
	ID            uint `gorm:"primaryKey"`
	DescriptionID *uint
	Description   *LectureContentDescription
	ImageID       *uint
	Image         *LectureContentImageURL
	LectureID     uint `gorm:"not null;index"`
	ProductID     uint `gorm:"not null;index"`
	Order         int  `gorm:"column:sort_order;not null"`
}

type ProductKit struct {
	ID        uint `gorm:"primaryKey"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_product_kit"`
	KitID     uint `gorm:"not null;uniqueIndex:idx_product_kit"`
	Kit       Kit
}
