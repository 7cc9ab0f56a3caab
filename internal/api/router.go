package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"pos-backend/internal/mw"
)

// RouterOptions tunes the middleware of the router.
type RouterOptions struct {
	RateLimit rate.Limit
	Burst     int
	CacheTTL  time.Duration
	// LicenseGate blocks /api/db and /api/pos while the license is not valid.
	LicenseGate bool
	Gatherer    prometheus.Gatherer
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger())

	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	cacheStore := cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	caching := mw.Cache(cacheStore, opts.CacheTTL)

	api := r.Group("/api")
	api.Use(mw.RateLimiter(opts.RateLimit, opts.Burst))
	{
		api.GET("/health", h.Health)

		authGroup := api.Group("/auth")
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.Register)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/session", h.RequireSession, h.Session)
		authGroup.GET("/profile", h.RequireSession, h.GetProfile)
		authGroup.PUT("/profile", h.RequireSession, h.UpdateProfile)

		users := api.Group("/users", h.RequireSession, h.RequireAdmin)
		users.GET("", h.ListUsers)
		users.PUT("/:id/role", h.UpdateRole)
		users.DELETE("/:id", h.DeleteUser)

		licenseGroup := api.Group("/license")
		licenseGroup.GET("/hwid", caching, h.GetHWID)
		licenseGroup.GET("/check", h.CheckLicense)
		licenseGroup.POST("/activate", h.ActivateLicense)
		licenseGroup.GET("/history", h.RequireSession, h.RequireAdmin, h.LicenseHistory)

		gated := []gin.HandlerFunc{h.RequireSession}
		if opts.LicenseGate && h.monitor != nil {
			gated = append(gated, mw.LicenseGate(h.monitor))
		}

		dbGroup := api.Group("/db", gated...)
		dbGroup.POST("/select", h.DBSelect)
		dbGroup.POST("/selectOne", h.DBSelectOne)
		dbGroup.POST("/insert", h.DBInsert)
		dbGroup.POST("/update", h.DBUpdate)
		dbGroup.POST("/delete", h.DBDelete)
		dbGroup.POST("/query", h.RequireAdmin, h.DBQuery)
		dbGroup.POST("/run", h.RequireAdmin, h.DBRun)

		posGroup := api.Group("/pos", gated...)
		posGroup.POST("/checkout", h.Checkout)
		posGroup.POST("/purchases", h.CreatePurchase)
		posGroup.POST("/purchases/:id/post", h.PostPurchase)
		posGroup.POST("/returns", h.CreateReturn)
		posGroup.GET("/items", h.ListItems)
		posGroup.GET("/items/next-code", h.NextItemCode)
		posGroup.GET("/items/low-stock", h.LowStockItems)

		api.GET("/subscriptions", h.RequireSession, h.GetSubscription)
		api.PUT("/subscriptions", h.RequireSession, h.PutSubscription)
		api.DELETE("/subscriptions", h.RequireSession, h.DeleteSubscription)
		api.GET("/vapid_public_key", caching, h.GetVAPIDPublicKey)
	}

	return r
}
