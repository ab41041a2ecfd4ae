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

// ProfileHandler 处理个人资料的查看与更新。
type ProfileHandler struct {
	db        *gorm.DB
	accounts  *service.AccountService
	storage   BlobStorage
	clamdAddr string
}

// NewProfileHandler 构造 ProfileHandler。
func NewProfileHandler(db *gorm.DB, accounts *service.AccountService, storage BlobStorage, clamdAddr string) *ProfileHandler {
	return &ProfileHandler{db: db, accounts: accounts, storage: storage, clamdAddr: clamdAddr}
}

type profileResponse struct {
	database.User
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// GetProfile 返回当前账号的资料。
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	user, err := h.accounts.Get(c.Request.Context(), actor.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		User:              *user,
		ProfilePictureURL: presignedImageURL(c.Request.Context(), h.storage, user.ProfilePicture),
	})
}

// UpdateProfile 更新资料，支持可选的头像上传（上传前经 clamd 扫描）。
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	update := service.ProfileUpdate{}
	if v, ok := c.GetPostForm("username"); ok {
		update.Username = &v
	}
	if v, ok := c.GetPostForm("email"); ok {
		update.Email = &v
	}
	if v, ok := c.GetPostForm("profession"); ok {
		update.Profession = &v
	}
	if v, ok := c.GetPostForm("expertise_level"); ok {
		update.ExpertiseLevel = &v
	}
	if v, ok := c.GetPostForm("location"); ok {
		update.Location = &v
	}

	objectKey, err := uploadFormImage(c, h.storage, h.clamdAddr, "profile_picture", "profiles", actor.ID)
	if err != nil {
		if errors.Is(err, errMaliciousFile) {
			BadRequest(c, "malicious file detected")
			return
		}
		middleware.LoggerFromContext(c).Error("profile picture upload failed", slog.Any("error", err))
		Internal(c, "failed to upload profile picture")
		return
	}
	if objectKey != "" {
		update.ProfilePicture = &objectKey
	}

	user, err := h.accounts.UpdateProfile(c.Request.Context(), actor, update)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		User:              *user,
		ProfilePictureURL: presignedImageURL(c.Request.Context(), h.storage, user.ProfilePicture),
	})
}
