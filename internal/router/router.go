package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"jiopay/internal/handler"
	"jiopay/internal/middleware"
	"jiopay/internal/repository"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	checkout *handler.CheckoutHandler,
	sessions *repository.CheckoutSessionRepository,
	logger *zap.Logger,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger(logger))

	// Session creation is the entry point and cannot carry a nonce yet.
	e.POST("/checkout/session", checkout.CreateSession)

	// Every report channel sits behind the anti-forgery check.
	checkoutGroup := e.Group("/checkout")
	checkoutGroup.Use(middleware.NonceCheck(sessions))
	checkoutGroup.POST("/register-txn", checkout.RegisterTxn)
	checkoutGroup.POST("/verify", checkout.VerifyPayment)
	checkoutGroup.POST("/return", checkout.Return)
	checkoutGroup.GET("/return", checkout.Return)
	checkoutGroup.POST("/cancel", checkout.Cancel)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
