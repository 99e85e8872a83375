package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	"github.com/BruksfildServices01/clinic-pos/internal/config"
	"github.com/BruksfildServices01/clinic-pos/internal/flash"
	"github.com/BruksfildServices01/clinic-pos/internal/handlers"
	infraRepo "github.com/BruksfildServices01/clinic-pos/internal/infra/repository"
	"github.com/BruksfildServices01/clinic-pos/internal/logger"
	"github.com/BruksfildServices01/clinic-pos/internal/media"
	"github.com/BruksfildServices01/clinic-pos/internal/metrics"
	"github.com/BruksfildServices01/clinic-pos/internal/middleware"
	"github.com/BruksfildServices01/clinic-pos/internal/usecase/pos"
)

// Deps are the long-lived services the routes are built from.
type Deps struct {
	DB      *gorm.DB
	Config  *config.Config
	Log     logrus.FieldLogger
	Audit   *audit.Dispatcher
	Flash   flash.Store
	Backups handlers.Backups
	Media   *media.Store

	// Gateway is optional; nil records card orders as paid.
	Gateway pos.PaymentGateway
}

// NewRouter builds the gin engine with every middleware and route.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config

	// ======================================================
	// MIDDLEWARE
	// ======================================================
	r.Use(
		middleware.Recovery(d.Log, d.Flash),
		logger.Middleware(d.Log),
		metrics.Middleware(),
		middleware.AllowedHosts(cfg, d.Log),
		middleware.CORSMiddleware(cfg),
		middleware.CSRF(!cfg.Debug),
	)

	// ======================================================
	// INFRA
	// ======================================================
	enrollmentRepo := infraRepo.NewEnrollmentGormRepository(d.DB)
	appointmentRepo := infraRepo.NewAppointmentGormRepository(d.DB)
	orderRepo := infraRepo.NewOrderGormRepository(d.DB)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(d.DB, cfg, d.Audit, d.Flash, d.Log)
	meHandler := handlers.NewMeHandler(d.DB)
	adminHandler := handlers.NewAdminHandler(d.DB, d.Flash, d.Log)
	enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentRepo, d.Audit, d.Flash, d.Log)
	clientHandler := handlers.NewClientHandler(d.DB, d.Audit, d.Media, d.Flash, d.Log)
	backupHandler := handlers.NewBackupHandler(d.Backups, d.Flash, d.Log)

	catalogHandler := handlers.NewCatalogHandler(d.DB, d.Audit)
	productHandler := handlers.NewProductHandler(d.DB, d.Audit)
	workingHoursHandler := handlers.NewWorkingHoursHandler(d.DB, d.Audit)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentRepo, d.Audit, d.Log)
	orderHandler := handlers.NewOrderHandler(orderRepo, d.Gateway, appointmentHandler.Completer(), d.Audit, d.Log)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB)

	// ======================================================
	// PUBLIC
	// ======================================================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/login", authHandler.LoginPage)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)

	// ======================================================
	// BROWSER VIEWS
	// ======================================================
	web := r.Group("/", middleware.BrowserAuth(cfg))
	{
		web.GET("/admin/", adminHandler.Index)

		client := web.Group("/client/:id")
		{
			client.GET("/profile/", enrollmentHandler.Profile)
			client.POST("/assign-package/", enrollmentHandler.AssignPackage)
			client.POST("/start-service/", enrollmentHandler.StartService)
			client.POST("/package/:pkg_id/add-session/", enrollmentHandler.AddPackageSession)
			client.POST("/service/:svc_id/add-session/", enrollmentHandler.AddServiceSession)
			client.POST("/package/:pkg_id/delete/", enrollmentHandler.RemovePackage)
			client.POST("/service/:svc_id/delete/", enrollmentHandler.RemoveService)
			client.POST("/photo/", clientHandler.UploadPhoto)
		}

		admin := web.Group("/", middleware.RequireSuperuser(d.Flash))
		{
			admin.GET("/backup/", backupHandler.List)
			admin.POST("/backup/create/", backupHandler.Create)
			admin.GET("/backup/:name/download/", backupHandler.Download)
			admin.POST("/backup/:name/delete/", backupHandler.Delete)

			admin.GET("/metrics", gin.WrapH(metrics.Handler()))
		}
	}

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api", middleware.AuthMiddleware(cfg))
	{
		api.GET("/me", meHandler.GetMe)

		api.GET("/clients", clientHandler.List)
		api.POST("/clients", clientHandler.Create)
		api.GET("/clients/:id", clientHandler.Get)
		api.PUT("/clients/:id", clientHandler.Update)
		api.DELETE("/clients/:id", clientHandler.Deactivate)

		api.GET("/services", catalogHandler.ListServices)
		api.POST("/services", catalogHandler.CreateService)
		api.PUT("/services/:id", catalogHandler.UpdateService)

		api.GET("/packages", catalogHandler.ListPackages)
		api.POST("/packages", catalogHandler.CreatePackage)
		api.PUT("/packages/:id", catalogHandler.UpdatePackage)

		api.GET("/products", productHandler.List)
		api.POST("/products", productHandler.Create)
		api.PATCH("/products/:id", productHandler.Update)

		api.GET("/staff", workingHoursHandler.ListStaff)
		api.POST("/staff", workingHoursHandler.CreateStaff)
		api.PUT("/staff/:id", workingHoursHandler.UpdateStaff)
		api.GET("/staff/:id/working-hours", workingHoursHandler.Get)
		api.PUT("/staff/:id/working-hours", workingHoursHandler.Update)

		api.POST("/appointments", appointmentHandler.Create)
		api.GET("/appointments", appointmentHandler.ListByDate)
		api.GET("/availability", appointmentHandler.Availability)
		api.PATCH("/appointments/:id/confirm", appointmentHandler.Confirm)
		api.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
		api.PATCH("/appointments/:id/complete", appointmentHandler.Complete)

		api.POST("/orders", orderHandler.Checkout)
		api.GET("/orders", orderHandler.List)
		api.GET("/orders/:id", orderHandler.Get)
		api.POST("/orders/:id/refund", orderHandler.Refund)
		api.GET("/reports/sales.xlsx", orderHandler.SalesReport)

		super := api.Group("/", middleware.RequireSuperuser(d.Flash))
		{
			super.POST("/packages/apply-discount", catalogHandler.ApplyDiscount)
			super.POST("/services/import", catalogHandler.Import)
			super.GET("/audit-logs", auditLogsHandler.List)
		}
	}
}
