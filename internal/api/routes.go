package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"agrifarma/internal/api/middleware"
	"agrifarma/internal/auth"
	"agrifarma/internal/config"
	"agrifarma/internal/service"
)

// RegisterRoutes 注册全部 API 路由。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient BlobStorage,
) {
	accounts := service.NewAccountService(db, logger, storageClient)
	forum := service.NewForumService(db)
	blog := service.NewBlogService(db, logger)
	market := service.NewMarketplaceService(db, logger, storageClient)
	consultancy := service.NewConsultancyService(db)
	orders := service.NewOrderService(db)
	admin := service.NewAdminService(db)

	clamdAddr := cfg.Clamd.Addr
	authHandler := NewAuthHandler(
		db,
		accounts,
		authService,
		redisClient,
		logger,
		cfg.Auth.LoginRateLimitPerHour,
		cfg.Auth.LoginLockThreshold,
		time.Duration(cfg.Auth.LoginLockTTLMinutes)*time.Minute,
		cfg.Auth.CookieDomain,
	)
	profileHandler := NewProfileHandler(db, accounts, storageClient, clamdAddr)
	forumHandler := NewForumHandler(db, forum)
	blogHandler := NewBlogHandler(db, blog, storageClient, clamdAddr)
	marketHandler := NewMarketHandler(db, market, storageClient, clamdAddr)
	consultantHandler := NewConsultantHandler(db, consultancy)
	orderHandler := NewOrderHandler(db, orders)
	adminHandler := NewAdminHandler(db, admin)
	authMiddleware := middleware.AuthMiddleware(authService)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		profileGroup := v1.Group("/profile")
		profileGroup.Use(authMiddleware)
		{
			profileGroup.GET("", profileHandler.GetProfile)
			profileGroup.PUT("", profileHandler.UpdateProfile)
		}

		forumGroup := v1.Group("/forum")
		{
			forumGroup.GET("/categories", forumHandler.ListCategories)
			forumGroup.GET("/categories/:id/threads", forumHandler.ListThreads)
			forumGroup.GET("/threads/:id", forumHandler.GetThread)
			forumGroup.POST("/categories/:id/threads", authMiddleware, forumHandler.CreateThread)
			forumGroup.POST("/threads/:id/replies", authMiddleware, forumHandler.Reply)
		}

		blogGroup := v1.Group("/blog")
		{
			blogGroup.GET("/posts", blogHandler.ListPosts)
			blogGroup.GET("/posts/:id", blogHandler.GetPost)
			blogGroup.POST("/posts", authMiddleware, blogHandler.CreatePost)
		}

		marketGroup := v1.Group("/market")
		{
			marketGroup.GET("/products", marketHandler.ListProducts)
			marketGroup.GET("/products/:id", marketHandler.GetProduct)
			marketGroup.GET("/my-products", authMiddleware, marketHandler.ListMyProducts)
			marketGroup.POST("/products", authMiddleware, marketHandler.CreateProduct)
			marketGroup.PUT("/products/:id", authMiddleware, marketHandler.UpdateProduct)
			marketGroup.DELETE("/products/:id", authMiddleware, marketHandler.DeleteProduct)
		}

		consultantGroup := v1.Group("/consultants")
		{
			consultantGroup.GET("", consultantHandler.ListConsultants)
			consultantGroup.GET("/:id", consultantHandler.GetConsultant)
			consultantGroup.GET("/:id/reviews", consultantHandler.ListReviews)
			consultantGroup.POST("/apply", authMiddleware, consultantHandler.Apply)
			consultantGroup.POST("/:id/reviews", authMiddleware, consultantHandler.AddReview)
		}

		orderGroup := v1.Group("/orders")
		orderGroup.Use(authMiddleware)
		{
			orderGroup.POST("", orderHandler.PlaceOrder)
			orderGroup.GET("", orderHandler.ListMyOrders)
			orderGroup.PUT("/:id/status", orderHandler.SetOrderStatus)
		}

		adminGroup := v1.Group("/admin")
		adminGroup.Use(authMiddleware)
		{
			adminGroup.GET("/stats", adminHandler.Stats)
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.GET("/users/recent", adminHandler.RecentUsers)
			adminGroup.POST("/blog-posts/:id/approve", adminHandler.ApproveBlogPost)
			adminGroup.POST("/products/:id/approve", adminHandler.ApproveProduct)
			adminGroup.POST("/consultants/:id/approve", adminHandler.ApproveConsultant)
		}
	}
}
