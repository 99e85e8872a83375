package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type ProductHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewProductHandler(db *gorm.DB, dispatcher *audit.Dispatcher) *ProductHandler {
	return &ProductHandler{db: db, audit: dispatcher}
}

// --------- Requests ---------

type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	SKU         string  `json:"sku" binding:"required"`
	Price       float64 `json:"price" binding:"min=0"`
	StockQty    int     `json:"stock_qty" binding:"min=0"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	SKU         *string  `json:"sku,omitempty"`
	Price       *float64 `json:"price,omitempty" binding:"omitempty,min=0"`
	StockQty    *int     `json:"stock_qty,omitempty" binding:"omitempty,min=0"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// --------- Handlers ---------

func (h *ProductHandler) List(c *gin.Context) {
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := activeQuery(c, h.db.WithContext(c.Request.Context()).Model(&models.Product{}))

	if c.Query("low_stock") == "true" {
		q = q.Where("stock_qty < ?", models.LowStockThreshold)
	}

	if query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}

	var products []models.Product
	if err := q.
		Order("name ASC").
		Find(&products).Error; err != nil {

		httperr.Internal(c, "failed_to_list_products", "Could not list products.")
		return
	}

	httpresp.List(c, products)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	product := models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		SKU:         strings.TrimSpace(req.SKU),
		Price:       req.Price,
		StockQty:    req.StockQty,
		IsActive:    true,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
		h.saveFailed(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    currentActor(c),
		Action:   "product_created",
		Entity:   "product",
		EntityID: audit.Ref(product.ID),
	})

	httpresp.Created(c, product)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		httperr.NotFound(c, "product_not_found", httperr.Message("product_not_found"))
		return
	}

	var product models.Product
	if err := h.db.WithContext(c.Request.Context()).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "product_not_found", httperr.Message("product_not_found"))
			return
		}
		httperr.Internal(c, "failed_to_get_product", "Could not load product.")
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.SKU != nil {
		product.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.StockQty != nil {
		product.StockQty = *req.StockQty
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.db.WithContext(c.Request.Context()).Save(&product).Error; err != nil {
		h.saveFailed(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    currentActor(c),
		Action:   "product_updated",
		Entity:   "product",
		EntityID: audit.Ref(product.ID),
	})

	httpresp.OK(c, product)
}

func (h *ProductHandler) saveFailed(c *gin.Context, err error) {
	if httperr.IsUniqueViolation(err) {
		httperr.Conflict(c, "duplicate_sku", httperr.Message("duplicate_sku"))
		return
	}
	httperr.Internal(c, "failed_to_save_product", "Could not save product.")
}
