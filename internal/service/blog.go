package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"agrifarma/internal/database"
)

// 摘要截断长度（按字符计，不是字节）。
const excerptRunes = 150

// BlogService 处理博客文章的读写。
type BlogService struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewBlogService 构造 BlogService。
func NewBlogService(db *gorm.DB, logger *slog.Logger) *BlogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlogService{db: db, logger: logger}
}

// ListPosts 返回博客文章，可按分类过滤，按创建时间倒序。
// 读路径的意外失败降级为空列表并记录日志，不向上传播。
func (s *BlogService) ListPosts(ctx context.Context, category string) []database.BlogPost {
	query := s.db.WithContext(ctx).Preload("Author").Order("created_at DESC")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var posts []database.BlogPost
	if err := query.Find(&posts).Error; err != nil {
		s.logger.Warn("list blog posts failed, returning empty list", slog.Any("error", err))
		return []database.BlogPost{}
	}
	if posts == nil {
		posts = []database.BlogPost{}
	}
	return posts
}

// GetPost 返回单篇文章。
func (s *BlogService) GetPost(ctx context.Context, id uint) (*database.BlogPost, error) {
	var post database.BlogPost
	if err := s.db.WithContext(ctx).Preload("Author").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// BlogPostInput 描述发表文章所需字段。
type BlogPostInput struct {
	Title    string
	Content  string
	Category string
	ImageKey string
}

// Excerpt 从正文派生摘要：超过 150 字符取前 150 字符加省略号，否则取全文。
func Excerpt(content string) string {
	runes := []rune(content)
	if len(runes) > excerptRunes {
		return string(runes[:excerptRunes]) + "..."
	}
	return content
}

// CreatePost 发表文章。新文章处于待审核状态，需管理员放行。
func (s *BlogService) CreatePost(ctx context.Context, actor Actor, in BlogPostInput) (*database.BlogPost, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if len(title) < 5 {
		return nil, invalid("title must be at least 5 characters long")
	}
	if len(content) < 50 {
		return nil, invalid("content must be at least 50 characters long")
	}

	post := database.BlogPost{
		Title:    title,
		Content:  content,
		Excerpt:  Excerpt(content),
		Category: strings.TrimSpace(in.Category),
		UserID:   actor.ID,
		ImageKey: in.ImageKey,
		Approved: false,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, err
	}

	return &post, nil
}
