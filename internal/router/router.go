package router

import (
	"time"

	"github.com/dipandhali2021/jims-sub002/internal/cascade"
	"github.com/dipandhali2021/jims-sub002/internal/config"
	"github.com/dipandhali2021/jims-sub002/internal/handler"
	"github.com/dipandhali2021/jims-sub002/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// SetupRouter wires middleware, handlers and the route table.
func SetupRouter(cfg *config.Config, db *gorm.DB, idp cascade.IdentityProvider) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret

	// no auth required
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// authenticated routes
	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AdminActionLog(db),
	)

	protected.GET("/me", handler.GetMe)

	cpHandler := handler.NewCounterpartyHandler(db)
	protected.GET("/counterparties/:kind", cpHandler.List)
	protected.POST("/counterparties/:kind", cpHandler.Create)
	protected.GET("/counterparties/:kind/:id", cpHandler.Get)
	protected.PUT("/counterparties/:kind/:id", cpHandler.Update)

	ledgerHandler := handler.NewLedgerHandler(db)
	protected.GET("/counterparties/:kind/:id/transactions", ledgerHandler.ListTransactions)
	protected.POST("/counterparties/:kind/:id/transactions", ledgerHandler.CreateTransaction)
	protected.GET("/counterparties/:kind/:id/payments", ledgerHandler.ListPayments)
	protected.POST("/counterparties/:kind/:id/payments", ledgerHandler.CreatePayment)
	protected.GET("/counterparties/:kind/:id/balance", ledgerHandler.GetBalance)

	stmtHandler := handler.NewStatementHandler(db)
	protected.GET("/counterparties/:kind/:id/statement.csv", stmtHandler.ExportCSV)
	protected.GET("/counterparties/:kind/:id/statement.xlsx", stmtHandler.ExportXLSX)

	productHandler := handler.NewProductHandler(db)
	protected.GET("/products", productHandler.List)
	protected.POST("/products", productHandler.Create)
	protected.GET("/products/:id", productHandler.Get)
	protected.PUT("/products/:id", productHandler.Update)
	protected.DELETE("/products/:id", productHandler.Delete)

	salesHandler := handler.NewSalesHandler(db)
	protected.GET("/sales", salesHandler.List)
	protected.POST("/sales", salesHandler.Create)
	protected.GET("/sales/:id", salesHandler.Get)

	notifHandler := handler.NewNotificationHandler(db)
	protected.GET("/notifications", notifHandler.List)
	protected.PUT("/notifications", notifHandler.MarkAllRead)
	protected.DELETE("/notifications", notifHandler.Clear)

	reportHandler := handler.NewReportHandler(db)
	protected.GET("/reports/summary", reportHandler.Summary)

	// admin-only routes
	adminOnly := protected.Group("")
	adminOnly.Use(middleware.RequireAdmin())

	adminOnly.PUT("/counterparties/:kind/:id/approve", cpHandler.Approve)
	adminOnly.DELETE("/counterparties/:kind/:id/force-delete", cpHandler.ForceDelete)
	adminOnly.PUT("/transactions/:id/approve", ledgerHandler.ApproveTransaction)
	adminOnly.PUT("/payments/:id/approve", ledgerHandler.ApprovePayment)

	adminOnly.GET("/products/requests", productHandler.ListRequests)
	adminOnly.PUT("/products/requests/:id/approve", productHandler.ApproveRequest)

	adminOnly.PUT("/sales/:id/complete", salesHandler.Complete)

	adminHandler := handler.NewAdminHandler(db, idp, time.Duration(cfg.App.CascadeTimeout)*time.Second)
	adminOnly.GET("/admin/users", adminHandler.ListUsers)
	adminOnly.PUT("/admin/users/:id/role", adminHandler.ChangeRole)
	adminOnly.DELETE("/admin/users/:id", adminHandler.DeleteUser)
	adminOnly.GET("/admin/actions", adminHandler.ListActions)

	backupHandler := handler.NewBackupHandler(db, cfg.Security.EncryptionKey, cfg.Backup.Dir)
	adminOnly.POST("/admin/backups", backupHandler.Create)
	adminOnly.GET("/admin/backups", backupHandler.List)
	adminOnly.GET("/admin/backups/:id/download", backupHandler.Download)
	adminOnly.DELETE("/admin/backups/:id", backupHandler.Delete)

	return r
}
