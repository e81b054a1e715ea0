package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/easytrack/easytrack-api/handlers"
	"github.com/easytrack/easytrack-api/store"
)

// SetupAuthRoutes sets up public authentication routes.
func SetupAuthRoutes(rg *gin.RouterGroup, st store.Store) {
	authHandler := &handlers.AuthHandler{Store: st}

	rg.POST("/auth/register", authHandler.Register)
	rg.POST("/auth/login", authHandler.Login)
}

// SetupUserRoutes sets up protected user profile routes.
func SetupUserRoutes(rg *gin.RouterGroup, st store.Store) {
	userHandler := &handlers.UserHandler{Store: st}

	rg.GET("/user/profile", userHandler.GetProfile)
	rg.PUT("/user/profile", userHandler.UpdateProfile)
	rg.POST("/user/password", userHandler.ChangePassword)
	rg.DELETE("/user/account", userHandler.DeleteAccount)
}

// SetupLedgerRoutes sets up the protected account, category, transaction,
// recurring-transaction, budget and dashboard routes.
func SetupLedgerRoutes(rg *gin.RouterGroup, h *handlers.Handlers) {
	rg.POST("/accounts", h.Accounts.Create)
	rg.GET("/accounts", h.Accounts.List)
	rg.GET("/accounts/balance", h.Accounts.TotalBalance)
	rg.GET("/accounts/:id", h.Accounts.Get)
	rg.PUT("/accounts/:id", h.Accounts.Update)
	rg.DELETE("/accounts/:id", h.Accounts.Delete)

	rg.POST("/categories", h.Categories.Create)
	rg.GET("/categories", h.Categories.List)
	rg.GET("/categories/:id", h.Categories.Get)
	rg.PUT("/categories/:id", h.Categories.Update)
	rg.DELETE("/categories/:id", h.Categories.Delete)

	rg.POST("/transactions", h.Transactions.Create)
	rg.GET("/transactions", h.Transactions.List)
	rg.GET("/transactions/summary", h.Transactions.Summary)
	rg.GET("/transactions/:id", h.Transactions.Get)
	rg.PUT("/transactions/:id", h.Transactions.Update)
	rg.DELETE("/transactions/:id", h.Transactions.Delete)

	rg.POST("/recurring", h.Recurring.Create)
	rg.GET("/recurring", h.Recurring.List)
	rg.POST("/recurring/process", h.Recurring.Process)
	rg.GET("/recurring/:id", h.Recurring.Get)
	rg.PUT("/recurring/:id", h.Recurring.Update)
	rg.DELETE("/recurring/:id", h.Recurring.Delete)

	rg.POST("/budgets", h.Budgets.Create)
	rg.GET("/budgets", h.Budgets.List)
	rg.GET("/budgets/current", h.Budgets.Current)
	rg.POST("/budgets/refresh", h.Budgets.Refresh)
	rg.GET("/budgets/:id", h.Budgets.Get)
	rg.PUT("/budgets/:id", h.Budgets.Update)
	rg.DELETE("/budgets/:id", h.Budgets.Delete)
	rg.GET("/budgets/:id/progress", h.Budgets.Progress)

	rg.GET("/dashboard/summary", h.Dashboard.Summary)

	rg.GET("/ws", h.WS.HandleWS)
}
