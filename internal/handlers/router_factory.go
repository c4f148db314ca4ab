package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"repairlog/internal/config"
	"repairlog/internal/middleware"
	"repairlog/internal/observability"
	"repairlog/internal/services"
	"repairlog/internal/version"
)

// NewRouter assembles the full HTTP surface: catalogue listings, the capture
// wizard, fault ranking, photos, stored results and the event tally.
func NewRouter(
	cfg *config.Config,
	catalogService *services.CatalogService,
	captureService *services.CaptureService,
	photoService *services.PhotoService,
	resultService *services.RepairResultService,
	eventService *services.EventService,
	notificationService *services.NotificationService,
	schemaLoader *middleware.SchemaLoader,
	logger *observability.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.ErrorRecovery(logger))
	router.RedirectTrailingSlash = false

	// HTTP request logging through the observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()

		statusCode := c.Writer.Status()
		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  time.Since(start).Milliseconds(),
			"http.client_ip":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		switch {
		case statusCode >= 500:
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= 400:
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check before any other middleware
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "repairlog"})
	})

	router.Use(observability.GinMiddlewareWithErrorHandling("repairlog"))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	catalogHandler := NewCatalogHandler(catalogService, cfg, logger)
	captureHandler := NewCaptureHandler(captureService, cfg, logger)
	photoHandler := NewPhotoHandler(photoService, cfg, logger)
	resultsHandler := NewResultsHandler(resultService, notificationService, catalogService, cfg, logger)
	eventsHandler := NewEventsHandler(eventService, cfg, logger)

	validate := func(schemaName string) gin.HandlerFunc {
		return middleware.RequestValidation(schemaLoader, logger, schemaName)
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service":   "repairlog",
				"version":   version.Version,
				"commit":    version.Commit,
				"buildTime": version.BuildTime,
			})
		})

		// Catalogues
		v1.GET("/products", catalogHandler.ListProducts)
		v1.POST("/products", validate("CreateProductRequest"), catalogHandler.CreateProduct)
		v1.GET("/products/:id", catalogHandler.GetProduct)
		v1.PUT("/products/:id", validate("UpdateProductRequest"), catalogHandler.UpdateProduct)
		v1.DELETE("/products/:id", catalogHandler.DeleteProduct)
		v1.GET("/features", catalogHandler.ListFeatures)
		v1.POST("/features", validate("CreateCatalogEntryRequest"), catalogHandler.CreateFeature)
		v1.PUT("/features/:id", validate("UpdateCatalogEntryRequest"), catalogHandler.UpdateFeature)
		v1.DELETE("/features/:id", catalogHandler.DeleteFeature)
		v1.GET("/faults", catalogHandler.ListFaults)
		v1.POST("/faults", validate("CreateCatalogEntryRequest"), catalogHandler.CreateFault)
		v1.GET("/faults/rank", catalogHandler.RankFaults)
		v1.GET("/faults/:id", catalogHandler.GetFault)
		v1.PUT("/faults/:id", validate("UpdateCatalogEntryRequest"), catalogHandler.UpdateFault)
		v1.DELETE("/faults/:id", catalogHandler.DeleteFault)
		v1.GET("/repair-actions", catalogHandler.ListRepairActions)
		v1.POST("/repair-actions", validate("CreateCatalogEntryRequest"), catalogHandler.CreateRepairAction)
		v1.PUT("/repair-actions/:id", validate("UpdateCatalogEntryRequest"), catalogHandler.UpdateRepairAction)
		v1.DELETE("/repair-actions/:id", catalogHandler.DeleteRepairAction)
		v1.GET("/reasons-not-repaired", catalogHandler.ListReasonsNotRepaired)
		v1.POST("/reasons-not-repaired", validate("CreateCatalogEntryRequest"), catalogHandler.CreateReasonNotRepaired)
		v1.PUT("/reasons-not-repaired/:id", validate("UpdateCatalogEntryRequest"), catalogHandler.UpdateReasonNotRepaired)
		v1.DELETE("/reasons-not-repaired/:id", catalogHandler.DeleteReasonNotRepaired)

		// Capture wizard sessions
		v1.POST("/capture/sessions", validate("StartCaptureRequest"), captureHandler.StartSession)
		v1.GET("/capture/sessions/current", captureHandler.GetCurrentSession)
		v1.GET("/capture/sessions/:token", captureHandler.GetSession)
		v1.POST("/capture/sessions/:token/selection", validate("SelectionRequest"), captureHandler.ApplySelection)
		v1.POST("/capture/sessions/:token/submit", validate("ExtrasRequest"), captureHandler.Submit)
		v1.DELETE("/capture/sessions/:token", captureHandler.Cancel)

		// Photos
		v1.GET("/photos", photoHandler.ListPhotos)
		v1.POST("/photos", validate("CreatePhotoRequest"), photoHandler.CreatePhoto)
		v1.GET("/photos/:id", photoHandler.GetPhoto)
		v1.GET("/photos/:id/image", photoHandler.GetPhotoImage)
		v1.DELETE("/photos/:id", photoHandler.DeletePhoto)

		// Stored repair results
		v1.GET("/repair-results", resultsHandler.ListRepairResults)
		v1.POST("/repair-results", validate("CreateRepairResultRequest"), resultsHandler.CreateRepairResult)
		v1.GET("/repair-results/:id", resultsHandler.GetRepairResult)

		// Events
		v1.GET("/events", eventsHandler.ListEvents)
		v1.POST("/events", validate("CreateEventRequest"), eventsHandler.CreateEvent)
		v1.GET("/events/summary", eventsHandler.EventSummary)
	}

	// Redacted runtime configuration for operators
	router.GET("/configz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"server": gin.H{
				"port":         cfg.Server.Port,
				"debug":        cfg.Server.Debug,
				"log_level":    cfg.Server.LogLevel,
				"cors_origins": cfg.Server.CORSOrigins,
			},
			"capture": gin.H{
				"session_ttl":     cfg.SessionTTL().String(),
				"max_photo_bytes": cfg.MaxPhotoBytes(),
			},
			"cache": gin.H{
				"enabled": cfg.Cache.Enabled,
			},
			"email": gin.H{
				"enabled":    cfg.Email.Enabled,
				"recipients": len(cfg.Email.Recipients),
			},
		})
	})

	// Automatic route listing at the root path
	routeListing := NewRouteListingHandler("Repair Log")
	routeListing.CollectRoutes(router)
	router.GET("/", func(c *gin.Context) {
		if c.GetHeader("Accept") == "application/json" {
			routeListing.GetRouteListingJSON(c)
			return
		}
		routeListing.GetRouteListingPage(c)
	})

	return router
}
