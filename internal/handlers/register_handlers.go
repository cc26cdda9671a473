package handlers

import (
	"log"

	portssvc "github.com/cuidobem/finance-backend/internal/core/ports/services"
	"github.com/cuidobem/finance-backend/internal/middleware"
	"github.com/cuidobem/finance-backend/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Setup API v1 routes, passing service interfaces
	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1", middleware.ActorMiddleware())

	// Delegate route registration to specific handlers, passing required services
	registerSettingsRoutes(v1, services.Settings)
	registerPricingRoutes(v1, services.Pricing)
	registerInvoiceRoutes(v1, services.Invoice)
	registerPaymentRoutes(v1, services.Payment)
	registerPayoutRoutes(v1, services.Payout)
	registerApprovalRoutes(v1, services.Approval)
	registerPayableRoutes(v1, services.Payable)
	registerProvisionRoutes(v1, services.Provision)
	registerReconciliationRoutes(v1, services.Reconciliation)

	// The provider callback is IP rate limited; it is the only route reachable
	// without an actor header.
	registerGatewayCallbackRoute(v1, services.Payment, callbackRateLimiter(cfg))
}

// callbackRateLimiter builds the in-memory IP limiter for the gateway
// callback route.
func callbackRateLimiter(cfg *config.Config) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(cfg.CallbackRateLimit)
	if err != nil {
		log.Printf("Warning: Invalid value for CALLBACK_RATE_LIMIT ('%s'). Defaulting to 120-M.\n", cfg.CallbackRateLimit)
		rate, _ = limiter.NewRateFromFormatted("120-M")
	}
	store := memory.NewStore()
	return middleware.RateLimit(limiter.New(store, rate))
}
