package api

import (
	"rwa-registry-go/internal/metrics"
	"rwa-registry-go/internal/models"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with every registry route
func NewRouter(svc *RegistryService, cfg models.ServerConfig) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(), Logger(), Metrics())

	h := NewHandler(svc)
	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/v1")
	if cfg.RateLimitRPS > 0 {
		v1.Use(NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Handler())
	}
	v1.Use(Actor())
	admin := AdminAuth(cfg.AdminToken)

	reg := v1.Group("/registry")
	{
		reg.GET("", h.Overview)
		reg.POST("/initialize", admin, h.Initialize)
		reg.PUT("/admin", admin, h.SetAdmin)
	}

	compliance := v1.Group("/compliance", admin)
	{
		compliance.PUT("/countries/:code", h.WhitelistCountry)
		compliance.PUT("/blacklist/:address", h.BlacklistAddress)
	}

	investors := v1.Group("/investors")
	{
		investors.POST("", h.RegisterInvestor)
		investors.GET("/:address", h.GetInvestor)
		investors.PUT("/:address/accreditation", admin, h.UpdateAccreditation)
		investors.GET("/:address/portfolio", h.Portfolio)
		investors.GET("/:address/distributions", h.AvailableDistributions)
	}

	assets := v1.Group("/assets")
	{
		assets.POST("", admin, h.CreateAsset)
		assets.GET("", h.ListAssets)
		assets.GET("/:id", h.GetAsset)
		assets.PUT("/:id/valuation", admin, h.UpdateValuation)
		assets.PUT("/:id/transferable", admin, h.SetTransferable)
		assets.GET("/:id/price", h.TokenPrice)
		assets.GET("/:id/eligibility/:address", h.Eligibility)
		assets.GET("/:id/holdings", h.ListHoldings)
		assets.GET("/:id/holdings/:address", h.GetHolding)
		assets.POST("/:id/invest", h.Invest)
		assets.POST("/:id/transfer", h.Transfer)
		assets.GET("/:id/distributions", h.ListAssetDistributions)
	}

	distributions := v1.Group("/distributions")
	{
		distributions.POST("", admin, h.CreateDistribution)
		distributions.GET("/:id", h.GetDistribution)
		distributions.POST("/:id/claim", h.ClaimDistribution)
		distributions.GET("/:id/claims", h.ListClaims)
		distributions.GET("/:id/claims/:address", h.ClaimStatus)
	}

	v1.GET("/events", h.ListEvents)

	return router
}
