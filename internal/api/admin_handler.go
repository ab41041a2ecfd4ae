package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agrifarma/internal/service"
)

// AdminHandler 处理后台统计与审核请求。
type AdminHandler struct {
	db    *gorm.DB
	admin *service.AdminService
}

// NewAdminHandler 构造 AdminHandler。
func NewAdminHandler(db *gorm.DB, admin *service.AdminService) *AdminHandler {
	return &AdminHandler{db: db, admin: admin}
}

// Stats 返回后台总览统计。
func (h *AdminHandler) Stats(c *gin.Context) {
	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	stats, err := h.admin.Stats(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers 返回全部账号。
func (h *AdminHandler) ListUsers(c *gin.Context) {
	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	users, err := h.admin.ListUsers(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// RecentUsers 返回最近注册的账号，?limit= 可选。
func (h *AdminHandler) RecentUsers(c *gin.Context) {
	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			BadRequest(c, "invalid limit")
			return
		}
		limit = parsed
	}

	users, err := h.admin.RecentUsers(c.Request.Context(), actor, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// approveWith 统一处理三类审核端点。
func (h *AdminHandler) approveWith(c *gin.Context, approve func(actor service.Actor, id uint) error) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := approve(actor, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"approved": true})
}

// ApproveBlogPost 审核通过博客文章。
func (h *AdminHandler) ApproveBlogPost(c *gin.Context) {
	h.approveWith(c, func(actor service.Actor, id uint) error {
		return h.admin.ApproveBlogPost(c.Request.Context(), actor, id)
	})
}

// ApproveProduct 审核通过集市商品。
func (h *AdminHandler) ApproveProduct(c *gin.Context) {
	h.approveWith(c, func(actor service.Actor, id uint) error {
		return h.admin.ApproveProduct(c.Request.Context(), actor, id)
	})
}

// ApproveConsultant 审核通过顾问档案。
func (h *AdminHandler) ApproveConsultant(c *gin.Context) {
	h.approveWith(c, func(actor service.Actor, id uint) error {
		return h.admin.ApproveConsultant(c.Request.Context(), actor, id)
	})
}
