package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kurlerprudent/kubo-backend-go/internal/apperr"
	"github.com/kurlerprudent/kubo-backend-go/internal/config"
	"github.com/kurlerprudent/kubo-backend-go/internal/middleware"
	"github.com/kurlerprudent/kubo-backend-go/internal/models"
	"github.com/kurlerprudent/kubo-backend-go/internal/security"
	"github.com/kurlerprudent/kubo-backend-go/internal/service"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	db          *pgxpool.Pool
	cache       *redis.Client
	codec       *security.TokenCodec
	lookup      middleware.AccountLookup
	auth        *service.AuthService
	accounts    *service.AccountService
	assignments *service.AssignmentService
	reports     *service.ReportService
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	db *pgxpool.Pool,
	cache *redis.Client,
	codec *security.TokenCodec,
	lookup middleware.AccountLookup,
	auth *service.AuthService,
	accounts *service.AccountService,
	assignments *service.AssignmentService,
	reports *service.ReportService,
) HandlerSet {
	return HandlerSet{
		log:         log,
		cfg:         cfg,
		db:          db,
		cache:       cache,
		codec:       codec,
		lookup:      lookup,
		auth:        auth,
		accounts:    accounts,
		assignments: assignments,
		reports:     reports,
	}
}

func (h HandlerSet) Routes(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.RegisterPatient)
	auth.POST("/login", h.Login)

	authed := v1.Group("")
	authed.Use(middleware.Authenticate(h.codec, h.lookup))

	// Any authenticated role manages its own profile.
	authed.GET("/me", h.Me)
	authed.PATCH("/me", h.UpdateMe)
	authed.DELETE("/me", h.DeleteMe)

	admins := authed.Group("/admins")
	admins.Use(middleware.RequireRoles(models.RoleSuperAdmin))
	admins.POST("", h.CreateAdmin)
	admins.GET("", h.ListAdmins)
	admins.DELETE("/:id", h.DeleteAdmin)

	doctors := authed.Group("/doctors")
	doctors.GET("", h.ListDoctors)
	doctors.GET("/:id", h.GetDoctor)
	doctorsAdmin := doctors.Group("")
	doctorsAdmin.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	doctorsAdmin.POST("", h.CreateDoctor)
	doctorsAdmin.PATCH("/:id", h.UpdateDoctor)
	doctorsAdmin.DELETE("/:id", h.DeleteDoctor)

	patients := authed.Group("/patients")
	patients.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin, models.RoleDoctor))
	patients.POST("", h.CreatePatient)
	patients.GET("", h.ListPatients)
	patients.GET("/:id", h.GetPatient)
	patientsAdmin := patients.Group("")
	patientsAdmin.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	patientsAdmin.PATCH("/:id", h.UpdatePatient)
	patientsAdmin.DELETE("/:id", h.DeletePatient)

	reports := authed.Group("/reports")
	reports.POST("", middleware.RequireRoles(models.RoleDoctor), h.FileReport)
	reports.GET("/me", middleware.RequireRoles(models.RolePatient), h.MyReports)
	reports.GET("/patient/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin, models.RoleDoctor), h.PatientReports)
}

// respondError maps the error taxonomy to HTTP. Internal failures are
// logged with full context here and reported with a generic body.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

func (h HandlerSet) principal(c *gin.Context) (models.Principal, bool) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
	}
	return principal, ok
}
