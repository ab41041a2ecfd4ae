package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agrifarma/internal/service"
)

// ForumHandler 处理论坛相关请求。
type ForumHandler struct {
	db    *gorm.DB
	forum *service.ForumService
}

// NewForumHandler 构造 ForumHandler。
func NewForumHandler(db *gorm.DB, forum *service.ForumService) *ForumHandler {
	return &ForumHandler{db: db, forum: forum}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// ListCategories 返回分类树。
func (h *ForumHandler) ListCategories(c *gin.Context) {
	tree, err := h.forum.CategoryTree(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": tree})
}

// ListThreads 返回分类下的主题帖。
func (h *ForumHandler) ListThreads(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	threads, err := h.forum.ListThreads(c.Request.Context(), categoryID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

// GetThread 返回主题帖及全部回复。
func (h *ForumHandler) GetThread(c *gin.Context) {
	threadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	thread, posts, err := h.forum.GetThread(c.Request.Context(), threadID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread, "posts": posts})
}

type createThreadRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// CreateThread 创建主题帖（连同首条内容，单事务）。
func (h *ForumHandler) CreateThread(c *gin.Context) {
	categoryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req createThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	thread, err := h.forum.CreateThread(c.Request.Context(), actor, categoryID, req.Title, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, thread)
}

type replyRequest struct {
	Content string `json:"content" binding:"required"`
}

// Reply 在主题帖下追加回复。
func (h *ForumHandler) Reply(c *gin.Context) {
	threadID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	post, err := h.forum.Reply(c.Request.Context(), actor, threadID, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}
