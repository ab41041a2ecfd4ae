package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agrifarma/internal/api/middleware"
	"agrifarma/internal/database"
	"agrifarma/internal/service"
)

// BlogHandler 处理博客文章请求。
type BlogHandler struct {
	db        *gorm.DB
	blog      *service.BlogService
	storage   BlobStorage
	clamdAddr string
}

// NewBlogHandler 构造 BlogHandler。
func NewBlogHandler(db *gorm.DB, blog *service.BlogService, storage BlobStorage, clamdAddr string) *BlogHandler {
	return &BlogHandler{db: db, blog: blog, storage: storage, clamdAddr: clamdAddr}
}

type blogPostResponse struct {
	database.BlogPost
	ImageURL string `json:"image_url,omitempty"`
}

func (h *BlogHandler) newBlogPostResponse(c *gin.Context, post database.BlogPost) blogPostResponse {
	return blogPostResponse{
		BlogPost: post,
		ImageURL: presignedImageURL(c.Request.Context(), h.storage, post.ImageKey),
	}
}

// ListPosts 返回文章列表，?category= 可选过滤。读失败降级为空列表。
func (h *BlogHandler) ListPosts(c *gin.Context) {
	posts := h.blog.ListPosts(c.Request.Context(), c.Query("category"))

	items := make([]blogPostResponse, 0, len(posts))
	for _, post := range posts {
		items = append(items, h.newBlogPostResponse(c, post))
	}
	c.JSON(http.StatusOK, gin.H{"posts": items})
}

// GetPost 返回单篇文章。
func (h *BlogHandler) GetPost(c *gin.Context) {
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	post, err := h.blog.GetPost(c.Request.Context(), postID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newBlogPostResponse(c, *post))
}

// CreatePost 发表文章，multipart 表单，支持可选配图。
func (h *BlogHandler) CreatePost(c *gin.Context) {
	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	objectKey, err := uploadFormImage(c, h.storage, h.clamdAddr, "image", "blog", actor.ID)
	if err != nil {
		if errors.Is(err, errMaliciousFile) {
			BadRequest(c, "malicious file detected")
			return
		}
		middleware.LoggerFromContext(c).Error("blog image upload failed", slog.Any("error", err))
		Internal(c, "failed to upload image")
		return
	}

	post, err := h.blog.CreatePost(c.Request.Context(), actor, service.BlogPostInput{
		Title:    c.PostForm("title"),
		Content:  c.PostForm("content"),
		Category: c.PostForm("category"),
		ImageKey: objectKey,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.newBlogPostResponse(c, *post))
}
