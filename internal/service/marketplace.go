package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"agrifarma/internal/database"
)

// MarketplaceService 处理商品的发布、编辑、删除与查询。
type MarketplaceService struct {
	db     *gorm.DB
	logger *slog.Logger
	blobs  BlobRemover
}

// NewMarketplaceService 构造 MarketplaceService。blobs 可为 nil（不清理商品图片）。
func NewMarketplaceService(db *gorm.DB, logger *slog.Logger, blobs BlobRemover) *MarketplaceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketplaceService{db: db, logger: logger, blobs: blobs}
}

// ProductInput 描述商品字段。StockQuantity 为 nil 时默认 1。
type ProductInput struct {
	Name          string
	Description   string
	Price         float64
	Category      string
	StockQuantity *int
}

func (in ProductInput) validate() error {
	if len(strings.TrimSpace(in.Name)) < 3 {
		return invalid("product name must be at least 3 characters long")
	}
	if len(strings.TrimSpace(in.Description)) < 10 {
		return invalid("description must be at least 10 characters long")
	}
	if in.Price <= 0 {
		return invalid("price must be positive")
	}
	if in.StockQuantity != nil && *in.StockQuantity < 0 {
		return invalid("stock quantity cannot be negative")
	}
	return nil
}

func (in ProductInput) stock() int {
	if in.StockQuantity == nil {
		return 1
	}
	return *in.StockQuantity
}

// List 返回全部商品（含卖家信息）。
func (s *MarketplaceService) List(ctx context.Context) ([]database.Product, error) {
	var products []database.Product
	if err := s.db.WithContext(ctx).Preload("Seller").Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListMine 返回指定账号名下的商品。
func (s *MarketplaceService) ListMine(ctx context.Context, actor Actor) ([]database.Product, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	var products []database.Product
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", actor.ID).
		Order("created_at DESC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Get 返回单个商品。
func (s *MarketplaceService) Get(ctx context.Context, id uint) (*database.Product, error) {
	var product database.Product
	if err := s.db.WithContext(ctx).Preload("Seller").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// Create 发布商品，归属写死为操作者本人。新商品处于待审核状态。
func (s *MarketplaceService) Create(ctx context.Context, actor Actor, in ProductInput, imageKey string) (*database.Product, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	product := database.Product{
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		Price:         in.Price,
		Category:      strings.TrimSpace(in.Category),
		ImageKey:      imageKey,
		StockQuantity: in.stock(),
		UserID:        actor.ID,
		Approved:      false,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Update 修改商品，仅限商品归属人或管理员。
// newImageKey 非 nil 时替换图片，旧对象尽力删除。
func (s *MarketplaceService) Update(ctx context.Context, actor Actor, id uint, in ProductInput, newImageKey *string) (*database.Product, error) {
	product, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"name":           strings.TrimSpace(in.Name),
		"description":    strings.TrimSpace(in.Description),
		"price":          in.Price,
		"category":       strings.TrimSpace(in.Category),
		"stock_quantity": in.stock(),
	}

	oldImage := ""
	if newImageKey != nil && *newImageKey != product.ImageKey {
		oldImage = product.ImageKey
		updates["image_key"] = *newImageKey
	}

	if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
		return nil, err
	}

	if oldImage != "" {
		s.removeBlob(ctx, oldImage)
	}

	if err := s.db.WithContext(ctx).First(product, product.ID).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Delete 删除商品，仅限商品归属人或管理员。商品图片尽力删除。
func (s *MarketplaceService) Delete(ctx context.Context, actor Actor, id uint) error {
	product, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&database.Product{}, product.ID).Error; err != nil {
		return err
	}

	if product.ImageKey != "" {
		s.removeBlob(ctx, product.ImageKey)
	}
	return nil
}

func (s *MarketplaceService) loadOwned(ctx context.Context, actor Actor, id uint) (*database.Product, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	var product database.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if product.UserID != actor.ID && !actor.IsAdmin {
		return nil, denied("you can only manage your own products")
	}
	return &product, nil
}

func (s *MarketplaceService) removeBlob(ctx context.Context, objectKey string) {
	if s.blobs == nil || objectKey == "" {
		return
	}
	if err := s.blobs.DeleteObject(ctx, objectKey); err != nil {
		s.logger.Warn("remove stale blob failed",
			slog.String("object_key", objectKey),
			slog.Any("error", err),
		)
	}
}
