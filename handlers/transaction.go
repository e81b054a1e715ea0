package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easytrack/easytrack-api/middleware"
	"github.com/easytrack/easytrack-api/models"
	"github.com/easytrack/easytrack-api/services"
	"github.com/easytrack/easytrack-api/store"
)

type TransactionHandler struct {
	Service *services.TransactionService
	WS      *WSHandler
}

func (h *TransactionHandler) Create(c *gin.Context) {
	t, ok := h.bindTransaction(c)
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	t.UserID = userID
	if err := h.Service.Create(c.Request.Context(), t); err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(userID, "transaction_created")
	c.JSON(http.StatusCreated, t)
}

func (h *TransactionHandler) List(c *gin.Context) {
	filter := store.TransactionFilter{
		AccountID:  c.Query("account_id"),
		CategoryID: c.Query("category_id"),
	}

	if t := c.Query("type"); t != "" {
		transactionType := models.TransactionType(t)
		if !transactionType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction type"})
			return
		}
		filter.Type = transactionType
	}
	if from := c.Query("start_date"); from != "" {
		d, err := parseDate("start_date", from)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.From = &d
	}
	if to := c.Query("end_date"); to != "" {
		d, err := parseDate("end_date", to)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.To = &d
	}

	transactions, err := h.Service.List(c.Request.Context(), middleware.UserID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (h *TransactionHandler) Get(c *gin.Context) {
	t, err := h.Service.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TransactionHandler) Update(c *gin.Context) {
	details, ok := h.bindTransaction(c)
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	t, err := h.Service.Update(c.Request.Context(), userID, c.Param("id"), details)
	if err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(userID, "transaction_updated")
	c.JSON(http.StatusOK, t)
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	userID := middleware.UserID(c)
	if err := h.Service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	h.WS.BroadcastUpdate(userID, "transaction_deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

// Summary returns income, expense and net totals for a date range.
func (h *TransactionHandler) Summary(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}

	summary, err := h.Service.SummaryByDateRange(c.Request.Context(), middleware.UserID(c), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *TransactionHandler) bindTransaction(c *gin.Context) (*models.Transaction, bool) {
	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction type"})
		return nil, false
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
		return nil, false
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	return &models.Transaction{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Type:        req.Type,
		Amount:      req.Amount,
		Date:        date,
		Description: req.Description,
		Notes:       req.Notes,
	}, true
}

func (h *TransactionHandler) dateRange(c *gin.Context) (from, to time.Time, ok bool) {
	from, err := parseDate("start_date", c.Query("start_date"))
	if err != nil {
		respondError(c, err)
		return from, to, false
	}
	to, err = parseDate("end_date", c.Query("end_date"))
	if err != nil {
		respondError(c, err)
		return from, to, false
	}
	return from, to, true
}
