package handlers

import (
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/httpresp"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/usecase/catalog"
)

// CatalogHandler manages services and packages over the JSON API.
type CatalogHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher

	discount *catalog.ApplyPackageDiscount
	importer *catalog.ImportServices
}

func NewCatalogHandler(db *gorm.DB, dispatcher *audit.Dispatcher) *CatalogHandler {
	return &CatalogHandler{
		db:       db,
		audit:    dispatcher,
		discount: catalog.NewApplyPackageDiscount(db, dispatcher),
		importer: catalog.NewImportServices(db, dispatcher),
	}
}

// --------- Requests ---------

type ServiceRequest struct {
	Name             string  `json:"name" binding:"required"`
	Description      string  `json:"description"`
	DurationMin      int     `json:"duration_min" binding:"required,min=1"`
	Price            float64 `json:"price" binding:"min=0"`
	SessionsRequired int     `json:"sessions_required" binding:"omitempty,min=1"`
	IsActive         *bool   `json:"is_active"`
}

type PackageRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	TotalSessions int      `json:"total_sessions" binding:"required,min=1"`
	OriginalPrice *float64 `json:"original_price"`
	Price         float64  `json:"price" binding:"min=0"`
	ServiceIDs    []uint   `json:"service_ids"`
	IsActive      *bool    `json:"is_active"`
}

func activeQuery(c *gin.Context, q *gorm.DB) *gorm.DB {
	switch strings.TrimSpace(c.Query("active")) {
	case "true":
		return q.Where("is_active = ?", true)
	case "false":
		return q.Where("is_active = ?", false)
	}
	return q
}

// ======================================================
// SERVICES
// ======================================================

func (h *CatalogHandler) ListServices(c *gin.Context) {
	q := activeQuery(c, h.db.WithContext(c.Request.Context()).Model(&models.Service{}))
	if query := strings.ToLower(strings.TrimSpace(c.Query("query"))); query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+query+"%")
	}

	var services []models.Service
	if err := q.Order("name ASC").Find(&services).Error; err != nil {
		httperr.Internal(c, "failed_to_list_services", "Could not list services.")
		return
	}
	httpresp.List(c, services)
}

func (h *CatalogHandler) CreateService(c *gin.Context) {
	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	svc := models.Service{IsActive: true}
	req.apply(&svc)

	if err := h.db.WithContext(c.Request.Context()).Create(&svc).Error; err != nil {
		httperr.Internal(c, "failed_to_create_service", "Could not create service.")
		return
	}
	h.dispatch(c, "service_created", "service", svc.ID)
	httpresp.Created(c, svc)
}

func (h *CatalogHandler) UpdateService(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		httperr.NotFound(c, "service_not_found", httperr.Message("service_not_found"))
		return
	}

	var svc models.Service
	if err := h.db.WithContext(c.Request.Context()).First(&svc, id).Error; err != nil {
		h.notFound(c, err, "service_not_found")
		return
	}

	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}
	req.apply(&svc)

	if err := h.db.WithContext(c.Request.Context()).Save(&svc).Error; err != nil {
		httperr.Internal(c, "failed_to_update_service", "Could not update service.")
		return
	}
	h.dispatch(c, "service_updated", "service", svc.ID)
	httpresp.OK(c, svc)
}

func (r ServiceRequest) apply(s *models.Service) {
	s.Name = strings.TrimSpace(r.Name)
	s.Description = r.Description
	s.DurationMin = r.DurationMin
	s.Price = r.Price
	s.SessionsRequired = r.SessionsRequired
	if s.SessionsRequired < 1 {
		s.SessionsRequired = 1
	}
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
}

// ======================================================
// PACKAGES
// ======================================================

func (h *CatalogHandler) ListPackages(c *gin.Context) {
	q := activeQuery(c, h.db.WithContext(c.Request.Context()).Model(&models.Package{}))

	var packages []models.Package
	if err := q.Preload("Services").Order("name ASC").Find(&packages).Error; err != nil {
		httperr.Internal(c, "failed_to_list_packages", "Could not list packages.")
		return
	}
	httpresp.List(c, packages)
}

func (h *CatalogHandler) CreatePackage(c *gin.Context) {
	var req PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	pkg := models.Package{IsActive: true}
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		services, err := packageServices(tx, req.ServiceIDs)
		if err != nil {
			return err
		}
		req.apply(&pkg)
		pkg.Services = services
		return tx.Create(&pkg).Error
	})
	if err != nil {
		httperr.Business(c, err)
		return
	}

	h.dispatch(c, "package_created", "package", pkg.ID)
	httpresp.Created(c, pkg)
}

func (h *CatalogHandler) UpdatePackage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		httperr.NotFound(c, "package_not_found", httperr.Message("package_not_found"))
		return
	}

	var req PackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}

	var pkg models.Package
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&pkg, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.ErrBusiness("package_not_found")
			}
			return err
		}

		services, err := packageServices(tx, req.ServiceIDs)
		if err != nil {
			return err
		}
		req.apply(&pkg)
		if err := tx.Omit("Services").Save(&pkg).Error; err != nil {
			return err
		}
		pkg.Services = services
		return tx.Model(&pkg).Association("Services").Replace(services)
	})
	if err != nil {
		httperr.Business(c, err)
		return
	}

	h.dispatch(c, "package_updated", "package", pkg.ID)
	httpresp.OK(c, pkg)
}

func (r PackageRequest) apply(p *models.Package) {
	p.Name = strings.TrimSpace(r.Name)
	p.Description = r.Description
	p.TotalSessions = r.TotalSessions
	p.OriginalPrice = r.OriginalPrice
	p.Price = r.Price
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
}

// packageServices loads the distinct services for a package and enforces
// the 3..5 rule.
func packageServices(tx *gorm.DB, ids []uint) ([]models.Service, error) {
	seen := make(map[uint]bool, len(ids))
	var unique []uint
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) < catalog.MinPackageServices || len(unique) > catalog.MaxPackageServices {
		return nil, httperr.ErrBusiness("invalid_package_services")
	}

	var services []models.Service
	if err := tx.Where("id IN ?", unique).Order("id ASC").Find(&services).Error; err != nil {
		return nil, err
	}
	if len(services) != len(unique) {
		return nil, httperr.ErrBusiness("service_not_found")
	}
	return services, nil
}

// ======================================================
// HELPERS
// ======================================================

func (h *CatalogHandler) notFound(c *gin.Context, err error, code string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		httperr.NotFound(c, code, httperr.Message(code))
		return
	}
	httperr.Internal(c, "internal_error", "Unexpected error.")
}

func (h *CatalogHandler) dispatch(c *gin.Context, action, entity string, id uint) {
	h.audit.Dispatch(audit.Event{
		Actor:    currentActor(c),
		Action:   action,
		Entity:   entity,
		EntityID: audit.Ref(id),
	})
}

// ======================================================
// BULK OPERATIONS (superuser)
// ======================================================

type DiscountRequest struct {
	Discount *float64 `json:"discount" binding:"omitempty,min=0,max=100"`
}

// ApplyDiscount reprices every package from its original price.
func (h *CatalogHandler) ApplyDiscount(c *gin.Context) {
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}
	pct := catalog.DefaultDiscount
	if req.Discount != nil {
		pct = *req.Discount
	}

	changes, err := h.discount.Execute(c.Request.Context(), currentActor(c), pct)
	if err != nil {
		httperr.Internal(c, "failed_to_apply_discount", "Could not apply discount.")
		return
	}
	httpresp.List(c, changes)
}

// Import loads a catalog file sent as the "file" form field or as the raw
// JSON body. ?clear=true replaces the catalog.
func (h *CatalogHandler) Import(c *gin.Context) {
	var body io.Reader = c.Request.Body
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			httperr.BadRequest(c, "invalid_file", "Could not read the uploaded file.")
			return
		}
		defer f.Close()
		body = f
	}

	res, err := h.importer.Execute(c.Request.Context(), currentActor(c), body, c.Query("clear") == "true")
	if err != nil {
		httperr.BadRequest(c, "import_failed", err.Error())
		return
	}
	httpresp.OK(c, res)
}
