package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/carelink/clinic-api/internal/handler"
	"github.com/carelink/clinic-api/internal/middleware"
	"github.com/carelink/clinic-api/internal/models"
	"github.com/carelink/clinic-api/internal/repository"
	"github.com/carelink/clinic-api/internal/service"
	"github.com/carelink/clinic-api/pkg/config"
	"github.com/carelink/clinic-api/pkg/lock"
)

// Register builds the full dependency graph and mounts every route on the
// engine. The store instances are constructed once here and owned by the
// process for its lifetime.
func Register(r *gin.Engine, db *sqlx.DB, redisClient *redis.Client, cfg *config.Config, logger *zap.Logger) {
	validate := service.NewValidator()

	doctorRepo := repository.NewDoctorRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	healthRepo := repository.NewHealthRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logger)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.DoctorListTTL, logger, cfg.Cache.Enabled)

	var locker lock.Locker
	if cfg.Booking.LockEnabled && redisClient != nil {
		locker = lock.NewRedisLocker(redisClient, cfg.Booking.LockTTL)
	}

	authSvc := service.NewAuthService(service.AuthConfig{
		Secret:        cfg.JWT.Secret,
		AccessExpiry:  cfg.JWT.Expiration,
		RefreshExpiry: cfg.JWT.RefreshExpiration,
		Issuer:        cfg.JWT.Issuer,
	}, logger)

	availabilitySvc := service.NewAvailabilityService(doctorRepo, locker, metricsSvc, cacheSvc, validate, logger, service.AvailabilityConfig{
		ClaimRetries: cfg.Booking.ClaimRetries,
		CheckTTL:     cfg.Cache.AvailabilityTTL,
	})
	bookingSvc := service.NewBookingService(availabilitySvc, doctorRepo, appointmentRepo, metricsSvc, validate, logger)
	doctorSvc := service.NewDoctorService(doctorRepo, authSvc, cacheSvc, validate, logger, cfg.Cache.DoctorListTTL)
	patientSvc := service.NewPatientService(patientRepo, authSvc, validate, logger)
	healthSvc := service.NewHealthService(healthRepo, patientRepo, validate, logger)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(bookingSvc, logger, nil, nil)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	doctorHandler := handler.NewDoctorHandler(doctorSvc)
	patientHandler := handler.NewPatientHandler(patientSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc, exportSvc)
	healthHandler := handler.NewHealthHandler(healthSvc)

	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "redis": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/refresh", authHandler.Refresh)

		doctors := api.Group("/doctors")
		{
			doctors.POST("/register", doctorHandler.Register)
			doctors.POST("/login", doctorHandler.Login)
			doctors.GET("", doctorHandler.List)
			doctors.GET("/:uid/availability", availabilityHandler.Get)
			doctors.GET("/:uid/check-availability", availabilityHandler.Check)

			secured := doctors.Group("")
			secured.Use(middleware.JWT(authSvc), middleware.RequireRole(models.RoleDoctor))
			{
				secured.GET("/profile", doctorHandler.GetProfile)
				secured.PUT("/profile", doctorHandler.UpdateProfile)
				secured.POST("/toggle-status", doctorHandler.ToggleStatus)
				secured.PUT("/availability", availabilityHandler.Replace)
				secured.GET("/appointments", bookingHandler.List)
				secured.GET("/appointments/export", bookingHandler.Export)
			}
		}

		patients := api.Group("/patients")
		{
			patients.POST("/register", patientHandler.Register)
			patients.POST("/login", patientHandler.Login)

			secured := patients.Group("")
			secured.Use(middleware.JWT(authSvc), middleware.RequireRole(models.RolePatient))
			{
				secured.GET("/profile", patientHandler.GetProfile)
				secured.PUT("/profile", patientHandler.UpdateProfile)
				secured.GET("/appointments", bookingHandler.ListForPatient)
			}

			doctorView := patients.Group("")
			doctorView.Use(middleware.JWT(authSvc), middleware.RequireRole(models.RoleDoctor))
			{
				doctorView.GET("/:uid/health-summary", healthHandler.Summary)
			}
		}

		appointments := api.Group("/appointments")
		appointments.Use(middleware.OptionalJWT(authSvc))
		{
			appointments.POST("", bookingHandler.Book)
			appointments.POST("/:bookingId/cancel", bookingHandler.Cancel)
		}

		tracking := api.Group("/health-tracking")
		tracking.Use(middleware.JWT(authSvc), middleware.RequireRole(models.RolePatient))
		{
			tracking.POST("/goals", healthHandler.TrackGoal)
			tracking.GET("/goals", healthHandler.ListGoals)
			tracking.POST("/medical-tests", healthHandler.AddTest)
			tracking.GET("/medical-tests", healthHandler.ListTests)
			tracking.POST("/checkups", healthHandler.AddCheckup)
			tracking.GET("/checkups", healthHandler.ListCheckups)
		}
	}
}
