package models

import "gorm.io/gorm"

type Order struct {
	gorm.Model
	Name            string `gorm:"size:45;not null"`
	PhoneNumber     string `gorm:"size:45;not null"`
	Address         string `gorm:"size:200"`
	OrderNumber     string `gorm:"size:100;uniqueIndex;not null"`
	RequestOption   string `gorm:"size:45"`
	OrderStatusID   *uint
	OrderStatus     *OrderStatus
	ProductID       *uint
	KitID           *uint
	CouponID        *uint
	PaymentMethodID *uint
	PaymentMethod   *PaymentMethod
	UserID          *uint `gorm:"index"`
	PaidPrice       int64
}

type PaymentMethod struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:50;uniqueIndex;not null"`
}

type OrderStatus struct {
	ID     uint   `gorm:"primaryKey"`
	Status string `gorm:"size:30;uniqueIndex;not null"`
}

const (
	OrderStatusPending = "PENDING"
	OrderStatusPaid    = "PAID"
)
