package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name         string `gorm:"size:50;not null"`
	NickName     string `gorm:"size:50"`
	Email        string `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:200" json:"-"`
	PhoneNumber  string `gorm:"size:50"`
	IsCreator    bool   `gorm:"default:false"`
	ProfileImage string `gorm:"size:1000"`
	Point        int    `gorm:"default:0"`
}

type Coupon struct {
	gorm.Model
	Name          string `gorm:"size:100;not null"`
	DiscountCost  int64  `gorm:"default:0"`
	IsKitFree     bool   `gorm:"default:false"`
	ExpireDate    *time.Time
	SubCategoryID *uint
	ProductID     *uint
}

// Expired reports whether the coupon can no longer be used at t. A coupon
// without an expiry date never expires.
func (c Coupon) Expired(t time.Time) bool {
	return c.ExpireDate != nil && c.ExpireDate.Before(t)
}

type UserCoupon struct {
	ID       uint `gorm:"primaryKey"`
	UserID   uint `gorm:"not null;index"`
	CouponID uint `gorm:"not null"`
	Coupon   Coupon
	UsedAt   *time.Time
}

type RecentlyView struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_recently_view_user_product"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_recently_view_user_product"`
	CreatedAt time.Time
}

type UserProduct struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;index"`
	ProductID uint `gorm:"not null;index"`
	CreatedAt time.Time
}

type ProductLike struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_product_like_user_product"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_product_like_user_product"`
	CreatedAt time.Time
}
