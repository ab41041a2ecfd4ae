package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"agrifarma/internal/api/middleware"
	"agrifarma/internal/database"
	"agrifarma/internal/service"
)

// MarketHandler 处理集市商品请求。
type MarketHandler struct {
	db        *gorm.DB
	market    *service.MarketplaceService
	storage   BlobStorage
	clamdAddr string
}

// NewMarketHandler 构造 MarketHandler。
func NewMarketHandler(db *gorm.DB, market *service.MarketplaceService, storage BlobStorage, clamdAddr string) *MarketHandler {
	return &MarketHandler{db: db, market: market, storage: storage, clamdAddr: clamdAddr}
}

type productResponse struct {
	database.Product
	ImageURL string `json:"image_url,omitempty"`
}

func (h *MarketHandler) newProductResponse(c *gin.Context, product database.Product) productResponse {
	return productResponse{
		Product:  product,
		ImageURL: presignedImageURL(c.Request.Context(), h.storage, product.ImageKey),
	}
}

// ListProducts 返回全部商品。
func (h *MarketHandler) ListProducts(c *gin.Context) {
	products, err := h.market.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	items := make([]productResponse, 0, len(products))
	for _, product := range products {
		items = append(items, h.newProductResponse(c, product))
	}
	c.JSON(http.StatusOK, gin.H{"products": items})
}

// ListMyProducts 返回当前账号名下的商品。
func (h *MarketHandler) ListMyProducts(c *gin.Context) {
	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	products, err := h.market.ListMine(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	items := make([]productResponse, 0, len(products))
	for _, product := range products {
		items = append(items, h.newProductResponse(c, product))
	}
	c.JSON(http.StatusOK, gin.H{"products": items})
}

// GetProduct 返回单个商品。
func (h *MarketHandler) GetProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.market.Get(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newProductResponse(c, *product))
}

// productInputFromForm 从 multipart 表单解析商品字段。
// stock_quantity 缺省时不设值，由领域层落到文档化的默认值 1。
func productInputFromForm(c *gin.Context) (service.ProductInput, error) {
	in := service.ProductInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
	}

	price, err := strconv.ParseFloat(c.PostForm("price"), 64)
	if err != nil {
		return in, errors.New("invalid price")
	}
	in.Price = price

	if raw, ok := c.GetPostForm("stock_quantity"); ok {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			return in, errors.New("invalid stock quantity")
		}
		in.StockQuantity = &stock
	}

	return in, nil
}

// CreateProduct 发布商品，multipart 表单，支持可选商品图。
func (h *MarketHandler) CreateProduct(c *gin.Context) {
	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	in, err := productInputFromForm(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	objectKey, err := uploadFormImage(c, h.storage, h.clamdAddr, "product_image", "products", actor.ID)
	if err != nil {
		if errors.Is(err, errMaliciousFile) {
			BadRequest(c, "malicious file detected")
			return
		}
		middleware.LoggerFromContext(c).Error("product image upload failed", slog.Any("error", err))
		Internal(c, "failed to upload image")
		return
	}

	product, err := h.market.Create(c.Request.Context(), actor, in, objectKey)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.newProductResponse(c, *product))
}

// UpdateProduct 编辑商品，仅限归属人或管理员。
func (h *MarketHandler) UpdateProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	in, err := productInputFromForm(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	var newImageKey *string
	objectKey, err := uploadFormImage(c, h.storage, h.clamdAddr, "product_image", "products", actor.ID)
	if err != nil {
		if errors.Is(err, errMaliciousFile) {
			BadRequest(c, "malicious file detected")
			return
		}
		middleware.LoggerFromContext(c).Error("product image upload failed", slog.Any("error", err))
		Internal(c, "failed to upload image")
		return
	}
	if objectKey != "" {
		newImageKey = &objectKey
	}

	product, err := h.market.Update(c.Request.Context(), actor, productID, in, newImageKey)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newProductResponse(c, *product))
}

// DeleteProduct 删除商品，仅限归属人或管理员。
func (h *MarketHandler) DeleteProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, ok := actorFromContext(c.Request.Context(), c, h.db)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := h.market.Delete(c.Request.Context(), actor, productID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
