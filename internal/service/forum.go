package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"agrifarma/internal/database"
)

// ForumService 处理论坛分类、主题帖与回复。
type ForumService struct {
	db *gorm.DB
}

// NewForumService 构造 ForumService。
func NewForumService(db *gorm.DB) *ForumService {
	return &ForumService{db: db}
}

// ListCategories 返回全部论坛分类。
func (s *ForumService) ListCategories(ctx context.Context) ([]database.ForumCategory, error) {
	var categories []database.ForumCategory
	if err := s.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CategoryNode 是分类树的一个节点。
type CategoryNode struct {
	Category database.ForumCategory `json:"category"`
	Children []*CategoryNode        `json:"children,omitempty"`
}

// CategoryTree 按 ParentID 把分类组装成树。
// 数据层不保证无环：挂接前沿父链向上探测，位于环上的分类提升为根，
// 悬挂在环下方的子树仍挂在各自父节点之下，结果中不丢失任何分类。
func (s *ForumService) CategoryTree(ctx context.Context) ([]*CategoryNode, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uint]*CategoryNode, len(categories))
	parents := make(map[uint]*uint, len(categories))
	for _, category := range categories {
		nodes[category.ID] = &CategoryNode{Category: category}
		parents[category.ID] = category.ParentID
	}

	var roots []*CategoryNode
	for _, category := range categories {
		node := nodes[category.ID]
		if category.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*category.ParentID]
		if !ok || onParentCycle(parents, category.ID) {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	return roots, nil
}

// onParentCycle 沿父链向上走，判断 id 本身是否处在一条环上。
// 链上出现不含 id 的重复说明环在更高层，由环上的节点自行断开。
func onParentCycle(parents map[uint]*uint, id uint) bool {
	seen := map[uint]bool{id: true}
	for parentID := parents[id]; parentID != nil; parentID = parents[*parentID] {
		if *parentID == id {
			return true
		}
		if seen[*parentID] {
			return false
		}
		seen[*parentID] = true
	}
	return false
}

// ListThreads 返回某分类下的主题帖，按创建时间倒序。
func (s *ForumService) ListThreads(ctx context.Context, categoryID uint) ([]database.ForumThread, error) {
	var category database.ForumCategory
	if err := s.db.WithContext(ctx).First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var threads []database.ForumThread
	if err := s.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Preload("Author").
		Order("created_at DESC").
		Find(&threads).Error; err != nil {
		return nil, err
	}
	return threads, nil
}

// GetThread 返回主题帖及其按时间排序的全部回复。
func (s *ForumService) GetThread(ctx context.Context, threadID uint) (*database.ForumThread, []database.ForumPost, error) {
	var thread database.ForumThread
	if err := s.db.WithContext(ctx).Preload("Author").First(&thread, threadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	var posts []database.ForumPost
	if err := s.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Preload("Author").
		Order("created_at").
		Find(&posts).Error; err != nil {
		return nil, nil, err
	}

	return &thread, posts, nil
}

// CreateThread 在一个事务里创建主题帖和它的首条内容。
// 标题或正文去除首尾空白后为空则整体中止，不留下任何一行。
func (s *ForumService) CreateThread(ctx context.Context, actor Actor, categoryID uint, title, content string) (*database.ForumThread, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return nil, invalid("thread title is required")
	}
	if content == "" {
		return nil, invalid("thread content is required")
	}

	var category database.ForumCategory
	if err := s.db.WithContext(ctx).First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	thread := database.ForumThread{
		Title:      title,
		CategoryID: categoryID,
		UserID:     actor.ID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&thread).Error; err != nil {
			return err
		}
		post := database.ForumPost{
			Content:  content,
			ThreadID: thread.ID,
			UserID:   actor.ID,
		}
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		thread.Posts = []database.ForumPost{post}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &thread, nil
}

// Reply 为主题帖追加一条回复，并推进主题帖的 updated_at。
func (s *ForumService) Reply(ctx context.Context, actor Actor, threadID uint, content string) (*database.ForumPost, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("reply content cannot be empty")
	}

	var thread database.ForumThread
	if err := s.db.WithContext(ctx).First(&thread, threadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	post := database.ForumPost{
		Content:  content,
		ThreadID: thread.ID,
		UserID:   actor.ID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&post).Error; err != nil {
			return err
		}
		return tx.Model(&database.ForumThread{}).
			Where("id = ?", thread.ID).
			Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}

	return &post, nil
}
