package service

import (
	"context"

	"gorm.io/gorm"

	"agrifarma/internal/database"
)

// AdminService 处理管理员侧的统计、账号列表与内容审核。
type AdminService struct {
	db *gorm.DB
}

// NewAdminService 构造 AdminService。
func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// Stats 汇总平台各实体数量与待审核总数。
type Stats struct {
	TotalUsers       int64 `json:"total_users"`
	TotalProducts    int64 `json:"total_products"`
	TotalPosts       int64 `json:"total_posts"`
	TotalThreads     int64 `json:"total_threads"`
	TotalConsultants int64 `json:"total_consultants"`
	PendingApprovals int64 `json:"pending_approvals"`
}

// Stats 返回平台统计，仅限管理员。
func (s *AdminService) Stats(ctx context.Context, actor Actor) (*Stats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var stats Stats
	counts := []struct {
		model any
		dest  *int64
	}{
		{&database.User{}, &stats.TotalUsers},
		{&database.Product{}, &stats.TotalProducts},
		{&database.BlogPost{}, &stats.TotalPosts},
		{&database.ForumThread{}, &stats.TotalThreads},
		{&database.Consultant{}, &stats.TotalConsultants},
	}
	for _, c := range counts {
		if err := s.db.WithContext(ctx).Model(c.model).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	pending := []any{&database.BlogPost{}, &database.Product{}, &database.Consultant{}}
	for _, model := range pending {
		var count int64
		if err := s.db.WithContext(ctx).Model(model).Where("approved = ?", false).Count(&count).Error; err != nil {
			return nil, err
		}
		stats.PendingApprovals += count
	}

	return &stats, nil
}

// ListUsers 返回全部账号，仅限管理员。凭证哈希不随 JSON 暴露。
func (s *AdminService) ListUsers(ctx context.Context, actor Actor) ([]database.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var users []database.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// RecentUsers 返回最近注册的若干账号，仅限管理员。
func (s *AdminService) RecentUsers(ctx context.Context, actor Actor, limit int) ([]database.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	var users []database.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
