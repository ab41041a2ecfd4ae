package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"agrifarma/internal/auth"
	"agrifarma/internal/database"
)

// BlobRemover 抽象对象存储的删除操作，替换图片时用于释放旧对象。
// 删除失败只记录日志，绝不中断调用方的变更。
type BlobRemover interface {
	DeleteObject(ctx context.Context, objectKey string) error
}

// AccountService 处理注册、登录校验与账号资料维护。
type AccountService struct {
	db     *gorm.DB
	logger *slog.Logger
	blobs  BlobRemover
}

// NewAccountService 构造 AccountService。blobs 可为 nil（不清理旧头像）。
func NewAccountService(db *gorm.DB, logger *slog.Logger, blobs BlobRemover) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{db: db, logger: logger, blobs: blobs}
}

// RegisterInput 描述注册所需字段。
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	Profession      string
	ExpertiseLevel  string
	Location        string
}

func validExpertiseLevel(level string) bool {
	switch level {
	case "", database.ExpertiseBeginner, database.ExpertiseIntermediate, database.ExpertiseExpert:
		return true
	}
	return false
}

// Register 创建新账号。明文密码只经过 bcrypt，不落库也不写日志。
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*database.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(strings.ToLower(in.Email))

	if len(username) < 3 {
		return nil, invalid("username must be at least 3 characters long")
	}
	if !strings.Contains(email, "@") {
		return nil, invalid("valid email is required")
	}
	if len(in.Password) < 6 {
		return nil, invalid("password must be at least 6 characters long")
	}
	if in.Password != in.ConfirmPassword {
		return nil, invalid("passwords do not match")
	}
	if !validExpertiseLevel(in.ExpertiseLevel) {
		return nil, invalid("expertise level must be beginner, intermediate or expert")
	}

	var existing database.User
	switch err := s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error; {
	case err == nil:
		return nil, invalid("username already exists")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	switch err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; {
	case err == nil:
		return nil, invalid("email already registered")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := database.User{
		Username:       username,
		Email:          email,
		PasswordHash:   hashed,
		Profession:     strings.TrimSpace(in.Profession),
		ExpertiseLevel: in.ExpertiseLevel,
		Location:       strings.TrimSpace(in.Location),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
	return &user, nil
}

// Authenticate 按邮箱查找账号并校验密码哈希，失败统一返回 AuthError。
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*database.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var user database.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, denied("invalid email or password")
		}
		return nil, err
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, denied("invalid email or password")
	}

	return &user, nil
}

// Get 返回指定账号。
func (s *AccountService) Get(ctx context.Context, id uint) (*database.User, error) {
	var user database.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ProfileUpdate 描述资料更新字段，nil 表示保持原值。
type ProfileUpdate struct {
	Username       *string
	Email          *string
	Profession     *string
	ExpertiseLevel *string
	Location       *string
	ProfilePicture *string
}

// UpdateProfile 更新本人资料。替换头像时尽力删除旧对象，失败不影响更新。
func (s *AccountService) UpdateProfile(ctx context.Context, actor Actor, in ProfileUpdate) (*database.User, error) {
	if err := requireAuthenticated(actor); err != nil {
		return nil, err
	}

	var user database.User
	if err := s.db.WithContext(ctx).First(&user, actor.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	updates := map[string]any{}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if len(username) < 3 {
			return nil, invalid("username must be at least 3 characters long")
		}
		if username != user.Username {
			var other database.User
			switch err := s.db.WithContext(ctx).Where("username = ? AND id <> ?", username, user.ID).First(&other).Error; {
			case err == nil:
				return nil, invalid("username already exists")
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, err
			}
			updates["username"] = username
		}
	}
	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if !strings.Contains(email, "@") {
			return nil, invalid("valid email is required")
		}
		if email != user.Email {
			var other database.User
			switch err := s.db.WithContext(ctx).Where("email = ? AND id <> ?", email, user.ID).First(&other).Error; {
			case err == nil:
				return nil, invalid("email already registered")
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, err
			}
			updates["email"] = email
		}
	}
	if in.Profession != nil {
		updates["profession"] = strings.TrimSpace(*in.Profession)
	}
	if in.ExpertiseLevel != nil {
		if !validExpertiseLevel(*in.ExpertiseLevel) {
			return nil, invalid("expertise level must be beginner, intermediate or expert")
		}
		updates["expertise_level"] = *in.ExpertiseLevel
	}
	if in.Location != nil {
		updates["location"] = strings.TrimSpace(*in.Location)
	}

	oldPicture := ""
	if in.ProfilePicture != nil && *in.ProfilePicture != user.ProfilePicture {
		oldPicture = user.ProfilePicture
		updates["profile_picture"] = *in.ProfilePicture
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if oldPicture != "" {
		s.removeBlob(ctx, oldPicture)
	}

	if err := s.db.WithContext(ctx).First(&user, user.ID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword 先校验当前密码，一致才接受新密码。
func (s *AccountService) ChangePassword(ctx context.Context, actor Actor, current, newPassword, confirm string) error {
	if err := requireAuthenticated(actor); err != nil {
		return err
	}

	var user database.User
	if err := s.db.WithContext(ctx).First(&user, actor.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if !auth.CheckPasswordHash(current, user.PasswordHash) {
		return denied("current password is incorrect")
	}
	if len(newPassword) < 6 {
		return invalid("password must be at least 6 characters long")
	}
	if newPassword != confirm {
		return invalid("new passwords do not match")
	}

	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&user).Update("password_hash", hashed).Error
}

func (s *AccountService) removeBlob(ctx context.Context, objectKey string) {
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
