package httpserver

import (
	"context"
	"errors"
	"log"
	"time"

	"perle-storefront/internal/domain"
	cartsvc "perle-storefront/internal/service/cart"
	paymentsvc "perle-storefront/internal/service/payment"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type cartService interface {
	Get(ctx context.Context, visitorID string) (*cartsvc.View, error)
	AddItem(ctx context.Context, visitorID string, item domain.CartLine) (*cartsvc.View, error)
	AddChildItem(ctx context.Context, visitorID, parentLineID string, in cartsvc.AddChildInput) (*cartsvc.View, error)
	RemoveItem(ctx context.Context, visitorID, lineID string) (*cartsvc.View, error)
	UpdateQuantity(ctx context.Context, visitorID, lineID string, quantity int) (*cartsvc.View, error)
	Clear(ctx context.Context, visitorID string) error
}

type paymentService interface {
	StartCheckout(ctx context.Context, visitorID string) (*domain.PaymentSession, error)
	AwaitResult(ctx context.Context, reference string) (*paymentsvc.Result, error)
	Confirm(ctx context.Context, reference string) (*paymentsvc.Summary, error)
}

// Deps carries the services the router dispatches to.
type Deps struct {
	CartSvc        cartService
	PaymentSvc     paymentService
	Store          Pinger
	CORSOrigins    []string
	CheckoutPerMin int
	SecureCookies  bool
}

// buildRouter wires routes for the storefront.
func buildRouter(logger *log.Logger, deps Deps) (*gin.Engine, error) {
	if deps.CartSvc == nil {
		return nil, errors.New("cart service required")
	}
	if deps.PaymentSvc == nil {
		return nil, errors.New("payment service required")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", cartKeyHeader},
			ExposeHeaders:    []string{cartKeyHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Store))

	h := &handlers{cart: deps.CartSvc, payment: deps.PaymentSvc, logger: logger}

	api := router.Group("/api/cart", visitorMiddleware(deps.SecureCookies))
	api.GET("", h.getCart)
	api.DELETE("", h.clearCart)
	api.POST("/items", h.addItem)
	api.POST("/items/:lineId/children", h.addChildItem)
	api.PATCH("/items/:lineId", h.updateQuantity)
	api.DELETE("/items/:lineId", h.removeItem)
	api.POST("/checkout", newCheckoutLimiter(deps.CheckoutPerMin).middleware(), h.startCheckout)

	betaling := router.Group("/betaling")
	betaling.GET("/resultat", h.paymentResult)
	betaling.GET("/suksess", h.paymentSuccess)
	betaling.GET("/avbrutt", h.paymentCancelled)

	return router, nil
}

type handlers struct {
	cart    cartService
	payment paymentService
	logger  *log.Logger
}
