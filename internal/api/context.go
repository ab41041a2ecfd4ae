package api

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agrifarma/internal/database"
	"agrifarma/internal/service"
)

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}

// actorFromContext 按令牌里的 userID 回查账号，组装显式的 Actor。
// is_admin 每次现查，避免令牌签发后的角色变更被绕过。
func actorFromContext(ctx context.Context, c *gin.Context, db *gorm.DB) (service.Actor, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return service.Actor{}, false
	}

	var user database.User
	if err := db.WithContext(ctx).Select("id", "is_admin").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return service.Actor{}, false
		}
		return service.Actor{}, false
	}

	return service.Actor{ID: user.ID, IsAdmin: user.IsAdmin}, true
}
