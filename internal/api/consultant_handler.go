package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agrifarma/internal/service"
)

// ConsultantHandler 处理顾问目录与评价请求。
type ConsultantHandler struct {
	db          *gorm.DB
	consultancy *service.ConsultancyService
}

// NewConsultantHandler 构造 ConsultantHandler。
func NewConsultantHandler(db *gorm.DB, consultancy *service.ConsultancyService) *ConsultantHandler {
	return &ConsultantHandler{db: db, consultancy: consultancy}
}

// ListConsultants 返回顾问目录。
func (h *ConsultantHandler) ListConsultants(c *gin.Context) {
	consultants, err := h.consultancy.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"consultants": consultants})
}

// GetConsultant 返回单个顾问档案。
func (h *ConsultantHandler) GetConsultant(c *gin.Context) {
	consultantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	consultant, err := h.consultancy.Get(c.Request.Context(), consultantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, consultant)
}

type applyConsultantRequest struct {
	Specialization  string   `json:"specialization"`
	ExperienceYears *int     `json:"experience_years"`
	HourlyRate      *float64 `json:"hourly_rate"`
	Bio             string   `json:"bio"`
}

// Apply 提交顾问申请。
func (h *ConsultantHandler) Apply(c *gin.Context) {
	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req applyConsultantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	consultant, err := h.consultancy.Apply(c.Request.Context(), actor, service.ConsultantInput{
		Specialization:  req.Specialization,
		ExperienceYears: req.ExperienceYears,
		HourlyRate:      req.HourlyRate,
		Bio:             req.Bio,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, consultant)
}

type addReviewRequest struct {
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
	ServiceType string `json:"service_type"`
}

// AddReview 为顾问新增评价。
func (h *ConsultantHandler) AddReview(c *gin.Context) {
	consultantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req addReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	review, err := h.consultancy.AddReview(c.Request.Context(), actor, consultantID, service.ReviewInput{
		Rating:      req.Rating,
		Comment:     req.Comment,
		ServiceType: req.ServiceType,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// ListReviews 返回顾问收到的全部评价。
func (h *ConsultantHandler) ListReviews(c *gin.Context) {
	consultantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	reviews, err := h.consultancy.ListReviews(c.Request.Context(), consultantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
