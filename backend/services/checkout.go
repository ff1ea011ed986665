package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classmarket/backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrCouponUsed    = errors.New("COUPON_ALREADY_USED")
	ErrCouponExpired = errors.New("COUPON_EXPIRED")
)

// Quote is the price breakdown shown before an order is placed.
type Quote struct {
	OriginalPrice   int64 `json:"originalPrice"`
	Discount        int64 `json:"discount"`
	DiscountedPrice int64 `json:"discountedPrice"`
	CouponDiscount  int64 `json:"couponDiscount"`
	PaidPrice       int64 `json:"paidPrice"`
}

// QuoteFor applies the product sale and then the coupon, never going below
// zero.
func QuoteFor(product models.Product, coupon *models.Coupon) Quote {
	q := Quote{
		OriginalPrice:   product.Price,
		DiscountedPrice: product.DiscountedPrice(),
	}
	q.Discount = q.OriginalPrice - q.DiscountedPrice
	if coupon != nil {
		q.CouponDiscount = coupon.DiscountCost
	}
	q.PaidPrice = q.DiscountedPrice - q.CouponDiscount
	if q.PaidPrice < 0 {
		q.PaidPrice = 0
	}
	return q
}

type OrderInput struct {
	Name          string `json:"name" validate:"required,max=45"`
	PhoneNumber   string `json:"phoneNumber" validate:"required,max=45"`
	Address       string `json:"address" validate:"max=200"`
	RequestOption string `json:"requestOption" validate:"max=45"`
	PaymentMethod string `json:"paymentMethod" validate:"required"`
	UserCouponID  *uint  `json:"userCouponId"`
	KitID         *uint  `json:"kitId"`
}

type Checkout struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewCheckout(db *gorm.DB, log *zap.Logger) *Checkout {
	return &Checkout{db: db, log: log.Named("checkout"), now: time.Now}
}

// PlaceOrder records a pending order, consumes the coupon and grants the
// user access to the product, atomically.
func (c *Checkout) PlaceOrder(ctx context.Context, userID, productID uint, in OrderInput) (*models.Order, error) {
	if err := checkPayload(in); err != nil {
		return nil, err
	}

	var order *models.Order
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("id = ? AND is_deleted = ?", productID, false).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product: %w", ErrNotFound)
			}
			return err
		}

		var method models.PaymentMethod
		if err := tx.Where("name = ?", in.PaymentMethod).First(&method).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: payment method %q", ErrInvalid, in.PaymentMethod)
			}
			return err
		}

		var status models.OrderStatus
		if err := tx.Where("status = ?", models.OrderStatusPending).First(&status).Error; err != nil {
			return err
		}

		var coupon *models.Coupon
		var userCoupon models.UserCoupon
		if in.UserCouponID != nil {
			err := tx.Preload("Coupon").
				Where("id = ? AND user_id = ?", *in.UserCouponID, userID).
				First(&userCoupon).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("coupon: %w", ErrNotFound)
			}
			if err != nil {
				return err
			}
			if userCoupon.UsedAt != nil {
				return ErrCouponUsed
			}
			if userCoupon.Coupon.Expired(c.now()) {
				return ErrCouponExpired
			}
			coupon = &userCoupon.Coupon
		}

		quote := QuoteFor(product, coupon)
		order = &models.Order{
			Name:            in.Name,
			PhoneNumber:     in.PhoneNumber,
			Address:         in.Address,
			RequestOption:   in.RequestOption,
			OrderNumber:     c.now().Format("20060102150405") + "-" + uuid.NewString()[:8],
			OrderStatusID:   &status.ID,
			ProductID:       &product.ID,
			KitID:           in.KitID,
			PaymentMethodID: &method.ID,
			UserID:          &userID,
			PaidPrice:       quote.PaidPrice,
		}
		if coupon != nil {
			order.CouponID = &coupon.ID
		}
		if err := tx.Omit("OrderStatus", "PaymentMethod").Create(order).Error; err != nil {
			return err
		}

		if coupon != nil {
			usedAt := c.now()
			if err := tx.Model(&userCoupon).Update("used_at", usedAt).Error; err != nil {
				return err
			}
		}
		return tx.Create(&models.UserProduct{UserID: userID, ProductID: product.ID}).Error
	})
	if err != nil {
		return nil, err
	}

	c.log.Info("order placed",
		zap.Uint("order_id", order.ID), zap.Uint("user_id", userID),
		zap.Uint("product_id", productID), zap.Int64("paid_price", order.PaidPrice))
	return order, nil
}
