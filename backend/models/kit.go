package models

type Kit struct {
	ID           uint             `gorm:"primaryKey"`
	Name         string           `gorm:"size:100;index"`
	MainImageURL string           `gorm:"size:1000"`
	Price        int64            `gorm:"default:0"`
	Description  string           `gorm:"size:1000"`
	SubImages    []KitSubImageURL `gorm:"constraint:OnDelete:CASCADE"`
}

type KitSubImageURL struct {
	ID       uint   `gorm:"primaryKey"`
	ImageURL string `gorm:"size:1000;not null"`
	KitID    uint   `gorm:"not null;index"`
}

type KitLike struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;uniqueIndex:idx_kit_like_user_kit"`
	KitID  uint `gorm:"not null;uniqueIndex:idx_kit_like_user_kit"`
}
