// Package httpapi is the REST front end to the escrow engine.
package httpapi

import (
	"net/http"

	"billvault/internal/app"
	"billvault/internal/infra/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter wires the full operation surface. Every route except the health
// check sits behind bearer-token authentication; per-operation authorization
// (owner vs. admin) is the engine's job.
func NewRouter(engine *app.Engine, tokenService *auth.TokenService, log *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler := NewHandler(engine, log)
	authMW := NewAuthMiddleware(tokenService)

	v1 := router.Group("/api/v1", authMW.RequireAuth())

	admin := v1.Group("/admin")
	{
		admin.GET("", handler.GetAdmin)
		admin.POST("/transfer", handler.TransferAdmin)
		admin.POST("/transfer/accept", handler.AcceptAdminTransfer)
		admin.POST("/transfer/cancel", handler.CancelAdminTransfer)
		admin.GET("/fee-recipient", handler.GetFeeRecipient)
		admin.POST("/fee-recipient", handler.SetFeeRecipient)
		admin.GET("/fee-percentage", handler.GetFeePercentage)
		admin.POST("/fee-percentage", handler.SetFeePercentage)
		admin.GET("/settlement-asset", handler.GetSettlementAsset)
		admin.POST("/settlement-asset", handler.SetSettlementAsset)
		admin.GET("/cycles", handler.GetAllCycles)
		admin.POST("/cycles/:id/end", handler.AdminEndCycle)
		admin.POST("/bills/:id/pay", handler.AdminPayBill)
	}

	cycles := v1.Group("/cycles")
	{
		cycles.POST("", handler.CreateCycle)
		cycles.GET("", handler.GetUserCycles)
		cycles.GET("/:id", handler.GetCycle)
		cycles.POST("/:id/end", handler.EndCycle)
		cycles.POST("/:id/bills", handler.AddBills)
		cycles.GET("/:id/bills", handler.GetCycleBills)
	}

	bills := v1.Group("/bills")
	{
		bills.GET("/:id", handler.GetBill)
		bills.POST("/:id/pay", handler.PayBill)
		bills.POST("/:id/skip", handler.SkipBill)
		bills.DELETE("/:id", handler.DeleteBill)
		bills.POST("/skip", handler.SkipBills)
		bills.POST("/delete", handler.DeleteBills)
	}

	return router
}
