package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easytrack/easytrack-api/middleware"
	"github.com/easytrack/easytrack-api/models"
	"github.com/easytrack/easytrack-api/services"
)

type BudgetHandler struct {
	Service *services.BudgetService
	WS      *WSHandler
}

func (h *BudgetHandler) Create(c *gin.Context) {
	var req models.CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	budget, ok := h.buildBudget(c, &req, nil)
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	budget.UserID = userID
	if err := h.Service.Create(c.Request.Context(), budget); err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(userID, "budget_created")
	c.JSON(http.StatusCreated, budget)
}

func (h *BudgetHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	budgets, err := h.Service.List(c.Request.Context(), middleware.UserID(c), activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budgets)
}

// Current returns budgets whose window contains the given date, defaulting
// to today.
func (h *BudgetHandler) Current(c *gin.Context) {
	date := time.Now()
	if d := c.Query("date"); d != "" {
		parsed, err := parseDate("date", d)
		if err != nil {
			respondError(c, err)
			return
		}
		date = parsed
	}

	budgets, err := h.Service.CurrentBudgets(c.Request.Context(), middleware.UserID(c), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budgets)
}

func (h *BudgetHandler) Get(c *gin.Context) {
	budget, err := h.Service.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

func (h *BudgetHandler) Update(c *gin.Context) {
	var req models.UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	create := models.CreateBudgetRequest{
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Period:     req.Period,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}
	details, ok := h.buildBudget(c, &create, req.IsActive)
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	budget, err := h.Service.Update(c.Request.Context(), userID, c.Param("id"), details)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(userID, "budget_updated")
	c.JSON(http.StatusOK, budget)
}

func (h *BudgetHandler) Delete(c *gin.Context) {
	userID := middleware.UserID(c)
	if err := h.Service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(userID, "budget_deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted"})
}

// Progress reports how much of the budget's limit is spent, as a percentage.
func (h *BudgetHandler) Progress(c *gin.Context) {
	progress, err := h.Service.Progress(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// Refresh recomputes the cached spent amounts for all active budgets.
func (h *BudgetHandler) Refresh(c *gin.Context) {
	userID := middleware.UserID(c)
	if err := h.Service.RefreshSpent(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(userID, "budgets_refreshed")
	c.JSON(http.StatusOK, gin.H{"message": "Budget spent amounts refreshed"})
}

func (h *BudgetHandler) buildBudget(c *gin.Context, req *models.CreateBudgetRequest, isActive *bool) (*models.Budget, bool) {
	if !req.Period.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid budget period"})
		return nil, false
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
		return nil, false
	}

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "End date must not be before start date"})
		return nil, false
	}

	budget := &models.Budget{
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Period:     req.Period,
		StartDate:  start,
		EndDate:    end,
		IsActive:   true,
	}
	if isActive != nil {
		budget.IsActive = *isActive
	}
	return budget, true
}
