package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"agrifarma/internal/database"
)

// OrderService 处理下单与订单查询。
type OrderService struct {
	db *gorm.DB
}

// NewOrderService 构造 OrderService。
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// OrderItemInput 描述订单中的一项。
type OrderItemInput struct {
	ProductID uint
	Quantity  int
}

func validOrderStatus(status string) bool {
	switch status {
	case database.OrderStatusPending, database.OrderStatusConfirmed,
		database.OrderStatusShipped, database.OrderStatusDelivered:
		return true
	}
	return false
}

// Place 创建订单：单价取下单时刻的商品价格快照，
// 订单与订单项在同一事务内落库，状态从 pending 开始。
func (s *OrderService) Place(ctx context.Context, actor Actor, items []OrderItemInput, shippingAddress string) (*database.Order, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, invalid("order must contain at least one item")
	}
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return nil, invalid("shipping address is required")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, invalid("item quantity must be positive")
		}
	}

	order := database.Order{
		UserID:          actor.ID,
		Status:          database.OrderStatusPending,
		ShippingAddress: shippingAddress,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total float64
		orderItems := make([]database.OrderItem, 0, len(items))
		for _, item := range items {
			var product database.Product
			if err := tx.First(&product, item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			total += product.Price * float64(item.Quantity)
			orderItems = append(orderItems, database.OrderItem{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
			})
		}

		order.TotalAmount = total
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		if err := tx.Create(&orderItems).Error; err != nil {
			return err
		}
		order.Items = orderItems
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// ListMine 返回操作者本人的订单（含订单项），按时间倒序。
func (s *OrderService) ListMine(ctx context.Context, actor Actor) ([]database.Order, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	var orders []database.Order
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", actor.ID).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// SetStatus 由管理员推进订单状态。
func (s *OrderService) SetStatus(ctx context.Context, actor Actor, orderID uint, status string) (*database.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !validOrderStatus(status) {
		return nil, invalid("status must be pending, confirmed, shipped or delivered")
	}

	var order database.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&order).Update("status", status).Error; err != nil {
		return nil, err
	}
	return &order, nil
}
