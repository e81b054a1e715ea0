package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/easytrack/easytrack-api/middleware"
	"github.com/easytrack/easytrack-api/models"
	"github.com/easytrack/easytrack-api/services"
)

type RecurringHandler struct {
	Service *services.RecurringService
	WS      *WSHandler
}

func (h *RecurringHandler) Create(c *gin.Context) {
	var req models.CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, ok := h.buildTemplate(c, req.AccountID, req.CategoryID, req.Type, req.Amount, req.Title, req.Description, req.Frequency, req.StartDate, req.EndDate)
	if !ok {
		return
	}

	r.UserID = middleware.UserID(c)
	if err := h.Service.Create(c.Request.Context(), r); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *RecurringHandler) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	templates, err := h.Service.List(c.Request.Context(), middleware.UserID(c), activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *RecurringHandler) Get(c *gin.Context) {
	r, err := h.Service.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RecurringHandler) Update(c *gin.Context) {
	var req models.UpdateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	details, ok := h.buildTemplate(c, req.AccountID, req.CategoryID, req.Type, req.Amount, req.Title, req.Description, req.Frequency, req.StartDate, req.EndDate)
	if !ok {
		return
	}
	details.IsActive = true
	if req.IsActive != nil {
		details.IsActive = *req.IsActive
	}

	r, err := h.Service.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), details)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RecurringHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recurring transaction deleted"})
}

// Process runs a manual pass over all due templates, the same pass the daily
// scheduler performs.
func (h *RecurringHandler) Process(c *gin.Context) {
	processed, err := h.Service.Process(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(middleware.UserID(c), "recurring_processed")
	c.JSON(http.StatusOK, gin.H{"processed": processed})
}

func (h *RecurringHandler) buildTemplate(c *gin.Context, accountID, categoryID string, transactionType models.TransactionType, amount decimal.Decimal, title, description string, frequency models.Frequency, startDate, endDate string) (*models.RecurringTransaction, bool) {
	if !transactionType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction type"})
		return nil, false
	}
	if !frequency.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid frequency"})
		return nil, false
	}
	if !amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
		return nil, false
	}

	start, err := parseDate("start_date", startDate)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	r := &models.RecurringTransaction{
		AccountID:   accountID,
		CategoryID:  categoryID,
		Type:        transactionType,
		Amount:      amount,
		Title:       title,
		Description: description,
		Frequency:   frequency,
		StartDate:   start,
	}

	if endDate != "" {
		end, err := parseDate("end_date", endDate)
		if err != nil {
			respondError(c, err)
			return nil, false
		}
		if end.Before(start) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "End date must not be before start date"})
			return nil, false
		}
		r.EndDate = &end
	}

	return r, true
}
