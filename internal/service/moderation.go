package service

import (
	"context"

	"agrifarma/internal/database"
)

// 审核状态机只有两个状态：待审核（approved=false）与已放行（approved=true）。
// 放行只能由管理员触发；不存在撤销放行的反向迁移。
// 对已放行的行重复放行是幂等的，不报错也不产生副作用。

// ApproveBlogPost 放行一篇博客文章。
func (s *AdminService) ApproveBlogPost(ctx context.Context, actor Actor, id uint) error {
	return s.approve(ctx, actor, &database.BlogPost{}, id)
}

// ApproveProduct 放行一件商品。
func (s *AdminService) ApproveProduct(ctx context.Context, actor Actor, id uint) error {
	return s.approve(ctx, actor, &database.Product{}, id)
}

// ApproveConsultant 放行一份顾问档案。
func (s *AdminService) ApproveConsultant(ctx context.Context, actor Actor, id uint) error {
	return s.approve(ctx, actor, &database.Consultant{}, id)
}

func (s *AdminService) approve(ctx context.Context, actor Actor, model any, id uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	return s.db.WithContext(ctx).Model(model).
		Where("id = ? AND approved = ?", id, false).
		Update("approved", true).Error
}
