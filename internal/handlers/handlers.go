package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rechargehub/pix-reconcile/internal/config"
	"github.com/rechargehub/pix-reconcile/internal/gateway"
	"github.com/rechargehub/pix-reconcile/internal/orders"
	"github.com/rechargehub/pix-reconcile/internal/reconcile"
	"github.com/rechargehub/pix-reconcile/internal/validation"
)

// HandlerConfig groups dependencies for the HTTP surface.
type HandlerConfig struct {
	Service *reconcile.Service
	Store   orders.Store
	Cfg     *config.Config
	Logger  *zap.Logger
}

// RegisterRoutes registers the checkout and reconciliation routes.
func RegisterRoutes(r *gin.Engine, hc HandlerConfig) {
	v := validation.New()
	logger := hc.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/orders", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		order := &orders.Order{
			OrderID:       uuid.NewString(),
			TransactionID: req.TransactionID,
			AmountCents:   req.AmountCents,
			Gateway:       gateway.DecodeAlias(req.Gateway, hc.Cfg.DefaultGateway),
			Customer: orders.Customer{
				Name:     req.Customer.Name,
				Email:    req.Customer.Email,
				Phone:    req.Customer.Phone,
				Document: req.Customer.Document,
			},
			Tracking:  req.Tracking,
			Status:    orders.StatusPending,
			CreatedAt: time.Now().UTC(),
			IP:        c.ClientIP(),
			City:      req.City,
			UserAgent: c.Request.UserAgent(),
			Product:   req.Product,
			Coupons:   req.Coupons,
		}

		if err := hc.Store.Save(ctx, order); err != nil {
			logger.Error("save order failed", zap.String("transactionId", req.TransactionID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "order_save_failed"})
			return
		}

		logger.Info("order created",
			zap.String("orderId", order.OrderID),
			zap.String("transactionId", order.TransactionID),
			zap.Int64("amountCents", order.AmountCents),
			zap.String("gateway", order.Gateway))

		c.JSON(http.StatusCreated, gin.H{
			"success":       true,
			"orderId":       order.OrderID,
			"transactionId": order.TransactionID,
			"status":        order.Status,
		})
	})

	// Debug listing of the live order cache.
	r.GET("/orders", func(c *gin.Context) {
		all, err := hc.Store.All(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "list_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(all), "orders": all})
	})

	r.POST("/check-transaction-status", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CheckStatusRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		result, err := hc.Service.CheckTransaction(ctx, req.TransactionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		// Paid responses must never be served from an intermediary cache.
		if result.Status == orders.StatusPaid {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}

		c.JSON(http.StatusOK, result)
	})
}
