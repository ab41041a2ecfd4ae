package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agrifarma/internal/service"
)

// OrderHandler 处理下单与订单查询请求。
type OrderHandler struct {
	db     *gorm.DB
	orders *service.OrderService
}

// NewOrderHandler 构造 OrderHandler。
func NewOrderHandler(db *gorm.DB, orders *service.OrderService) *OrderHandler {
	return &OrderHandler{db: db, orders: orders}
}

type orderItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type placeOrderRequest struct {
	Items           []orderItemRequest `json:"items"`
	ShippingAddress string             `json:"shipping_address"`
}

// PlaceOrder 创建订单。
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.OrderItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orders.Place(c.Request.Context(), actor, items, req.ShippingAddress)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// ListMyOrders 返回当前账号的订单，新单在前。
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	orders, err := h.orders.ListMine(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type setOrderStatusRequest struct {
	Status string `json:"status"`
}

// SetOrderStatus 管理员更新订单状态。
func (h *OrderHandler) SetOrderStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req setOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	order, err := h.orders.SetStatus(c.Request.Context(), actor, orderID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
