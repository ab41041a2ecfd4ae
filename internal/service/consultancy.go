package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"agrifarma/internal/database"
)

// ConsultancyService 处理顾问档案与顾问评价。
type ConsultancyService struct {
	db *gorm.DB
}

// NewConsultancyService 构造 ConsultancyService。
func NewConsultancyService(db *gorm.DB) *ConsultancyService {
	return &ConsultancyService{db: db}
}

// List 返回全部顾问（含账号信息）。
func (s *ConsultancyService) List(ctx context.Context) ([]database.Consultant, error) {
	var consultants []database.Consultant
	if err := s.db.WithContext(ctx).Preload("User").Find(&consultants).Error; err != nil {
		return nil, err
	}
	return consultants, nil
}

// Get 返回单个顾问。
func (s *ConsultancyService) Get(ctx context.Context, id uint) (*database.Consultant, error) {
	var consultant database.Consultant
	if err := s.db.WithContext(ctx).Preload("User").First(&consultant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &consultant, nil
}

// ConsultantInput 描述顾问申请字段。
// ExperienceYears 与 HourlyRate 为必填，没有静默默认值。
type ConsultantInput struct {
	Specialization  string
	ExperienceYears *int
	HourlyRate      *float64
	Bio             string
}

// Apply 提交顾问申请：每个账号至多一份档案，
// 建档与置位 is_consultant 在同一事务内完成。新档案处于待审核状态。
func (s *ConsultancyService) Apply(ctx context.Context, actor Actor, in ConsultantInput) (*database.Consultant, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Specialization) == "" {
		return nil, invalid("specialization is required")
	}
	if in.ExperienceYears == nil {
		return nil, invalid("years of experience is required")
	}
	if *in.ExperienceYears < 0 {
		return nil, invalid("years of experience cannot be negative")
	}
	if in.HourlyRate == nil {
		return nil, invalid("hourly rate is required")
	}
	if *in.HourlyRate <= 0 {
		return nil, invalid("hourly rate must be positive")
	}

	var existing database.Consultant
	switch err := s.db.WithContext(ctx).Where("user_id = ?", actor.ID).First(&existing).Error; {
	case err == nil:
		return nil, invalid("consultant profile already exists")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	consultant := database.Consultant{
		UserID:          actor.ID,
		Specialization:  strings.TrimSpace(in.Specialization),
		ExperienceYears: *in.ExperienceYears,
		HourlyRate:      *in.HourlyRate,
		Bio:             strings.TrimSpace(in.Bio),
		Approved:        false,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&consultant).Error; err != nil {
			return err
		}
		return tx.Model(&database.User{}).
			Where("id = ?", actor.ID).
			Update("is_consultant", true).Error
	})
	if err != nil {
		return nil, err
	}

	return &consultant, nil
}

// ReviewInput 描述顾问评价字段。
type ReviewInput struct {
	Rating      int
	Comment     string
	ServiceType string
}

func validServiceType(serviceType string) bool {
	switch serviceType {
	case database.ServiceTypeVideo, database.ServiceTypePhone, database.ServiceTypeVisit:
		return true
	}
	return false
}

// AddReview 为顾问写一条评价，评分限定 1-5。
func (s *ConsultancyService) AddReview(ctx context.Context, actor Actor, consultantID uint, in ReviewInput) (*database.Review, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	if in.Rating < 1 || in.Rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}
	if !validServiceType(in.ServiceType) {
		return nil, invalid("service type must be video, phone or visit")
	}

	var consultant database.Consultant
	if err := s.db.WithContext(ctx).First(&consultant, consultantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	review := database.Review{
		ConsultantID: consultant.ID,
		UserID:       actor.ID,
		Rating:       in.Rating,
		Comment:      strings.TrimSpace(in.Comment),
		ServiceType:  in.ServiceType,
	}
	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListReviews 返回顾问名下的全部评价，按时间倒序。
func (s *ConsultancyService) ListReviews(ctx context.Context, consultantID uint) ([]database.Review, error) {
	var consultant database.Consultant
	if err := s.db.WithContext(ctx).First(&consultant, consultantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var reviews []database.Review
	if err := s.db.WithContext(ctx).
		Where("consultant_id = ?", consultantID).
		Preload("Author").
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}
