package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dipandhali2021/jims-sub002/internal/ledger"
	"github.com/dipandhali2021/jims-sub002/internal/metrics"
	"github.com/dipandhali2021/jims-sub002/internal/middleware"
	"github.com/dipandhali2021/jims-sub002/internal/models"
	"github.com/dipandhali2021/jims-sub002/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LedgerHandler serves khata transactions, payments and balances.
type LedgerHandler struct {
	DB *gorm.DB
	CP *CounterpartyHandler
}

func NewLedgerHandler(db *gorm.DB) *LedgerHandler {
	return &LedgerHandler{DB: db, CP: NewCounterpartyHandler(db)}
}

// ---------- request/response shapes ----------

type createTransactionReq struct {
	Description string          `json:"description" binding:"required,max=255"`
	Amount      string          `json:"amount" binding:"required"`
	Items       json.RawMessage `json:"items"`
}

type createPaymentReq struct {
	Amount          string `json:"amount" binding:"required"`
	PaymentMode     string `json:"payment_mode" binding:"required"`
	ReferenceNumber string `json:"reference_number" binding:"max=64"`
	Notes           string `json:"notes" binding:"max=255"`
}

func transactionResp(t *models.LedgerTransaction) gin.H {
	resp := gin.H{
		"id":             t.ID,
		"transaction_id": t.TransactionID,
		"amount":         t.Amount,
		"amount_display": util.FormatAmount(t.Amount),
		"description":    t.Description,
		"is_approved":    t.IsApproved,
		"created_by_id":  t.CreatedByID,
		"approved_by_id": t.ApprovedByID,
		"created_at":     t.CreatedAt,
	}
	if t.Items != "" {
		resp["items"] = json.RawMessage(t.Items)
	}
	return resp
}

func paymentResp(p *models.Payment) gin.H {
	return gin.H{
		"id":               p.ID,
		"payment_id":       p.PaymentID,
		"amount":           p.Amount,
		"amount_display":   util.FormatAmount(p.Amount),
		"payment_mode":     p.PaymentMode,
		"reference_number": p.ReferenceNumber,
		"notes":            p.Notes,
		"is_approved":      p.IsApproved,
		"created_by_id":    p.CreatedByID,
		"approved_by_id":   p.ApprovedByID,
		"created_at":       p.CreatedAt,
	}
}

// ---------- transactions ----------

func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	cp, err := h.CP.load(c, user)
	if err != nil {
		h.CP.respondLoadError(c, err)
		return
	}

	var txns []models.LedgerTransaction
	if err := h.DB.Where("counterparty_id = ?", cp.ID).
		Order("created_at DESC, id DESC").
		Find(&txns).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	items := make([]gin.H, 0, len(txns))
	for i := range txns {
		items = append(items, transactionResp(&txns[i]))
	}
	util.Success(c, util.Response{"items": items, "total": len(items)})
}

func (h *LedgerHandler) CreateTransaction(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	cp, err := h.CP.load(c, user)
	if err != nil {
		h.CP.respondLoadError(c, err)
		return
	}

	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := util.ParseAmount(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, "invalid amount")
		return
	}
	if err := util.ValidateSignedAmount(amount); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := ledger.CreateTransaction(h.DB, cp.ID, amount, req.Description, string(req.Items), user)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotApproved):
			util.Error(c, http.StatusBadRequest, "counterparty is not approved yet")
		case errors.Is(err, ledger.ErrNotFound):
			util.Error(c, http.StatusNotFound, "counterparty not found")
		default:
			util.Error(c, http.StatusInternalServerError, "failed to create transaction")
		}
		return
	}

	util.Success(c, util.Response{"transaction": transactionResp(txn)})
}

// ApproveTransaction decides a pending transaction (admin only).
func (h *LedgerHandler) ApproveTransaction(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	var req approveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "approve field is required")
		return
	}

	if *req.Approve {
		txn, err := ledger.ApproveTransaction(h.DB, id, user.ID)
		if err != nil {
			respondApprovalError(c, err, "transaction")
			return
		}
		metrics.ApprovalsTotal.WithLabelValues("transaction", "approved").Inc()
		Notify(h.DB, txn.CreatedByID, "Transaction approved", txn.TransactionID)
		util.Success(c, util.Response{"transaction": transactionResp(txn)})
		return
	}

	if err := ledger.RejectTransaction(h.DB, id); err != nil {
		respondApprovalError(c, err, "transaction")
		return
	}
	metrics.ApprovalsTotal.WithLabelValues("transaction", "rejected").Inc()
	util.Success(c, util.Response{"message": "transaction rejected and removed"})
}

// ---------- payments ----------

func (h *LedgerHandler) ListPayments(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	cp, err := h.CP.load(c, user)
	if err != nil {
		h.CP.respondLoadError(c, err)
		return
	}

	var pays []models.Payment
	if err := h.DB.Where("counterparty_id = ?", cp.ID).
		Order("created_at DESC, id DESC").
		Find(&pays).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to list payments")
		return
	}

	items := make([]gin.H, 0, len(pays))
	for i := range pays {
		items = append(items, paymentResp(&pays[i]))
	}
	util.Success(c, util.Response{"items": items, "total": len(items)})
}

func (h *LedgerHandler) CreatePayment(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	cp, err := h.CP.load(c, user)
	if err != nil {
		h.CP.respondLoadError(c, err)
		return
	}

	var req createPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := util.ParseAmount(req.Amount)
	if err != nil {
		util.Error(c, http.StatusBadRequest, "invalid amount")
		return
	}
	if err := util.ValidatePositiveAmount(amount); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := util.ValidatePaymentMode(req.PaymentMode); err != nil {
		util.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	pay, err := ledger.CreatePayment(h.DB, cp.ID, amount, req.PaymentMode, req.ReferenceNumber, req.Notes, user)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotApproved):
			util.Error(c, http.StatusBadRequest, "counterparty is not approved yet")
		case errors.Is(err, ledger.ErrNotFound):
			util.Error(c, http.StatusNotFound, "counterparty not found")
		default:
			util.Error(c, http.StatusInternalServerError, "failed to create payment")
		}
		return
	}

	util.Success(c, util.Response{"payment": paymentResp(pay)})
}

// ApprovePayment decides a pending payment (admin only).
func (h *LedgerHandler) ApprovePayment(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	var req approveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "approve field is required")
		return
	}

	if *req.Approve {
		pay, err := ledger.ApprovePayment(h.DB, id, user.ID)
		if err != nil {
			respondApprovalError(c, err, "payment")
			return
		}
		metrics.ApprovalsTotal.WithLabelValues("payment", "approved").Inc()
		Notify(h.DB, pay.CreatedByID, "Payment approved", pay.PaymentID)
		util.Success(c, util.Response{"payment": paymentResp(pay)})
		return
	}

	if err := ledger.RejectPayment(h.DB, id); err != nil {
		respondApprovalError(c, err, "payment")
		return
	}
	metrics.ApprovalsTotal.WithLabelValues("payment", "rejected").Inc()
	util.Success(c, util.Response{"message": "payment rejected and removed"})
}

// ---------- balance ----------

// GetBalance recomputes the outstanding balance from approved rows.
// Positive = we owe the counterparty.
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	cp, err := h.CP.load(c, user)
	if err != nil {
		h.CP.respondLoadError(c, err)
		return
	}

	balance, err := ledger.ComputeBalance(h.DB, cp.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			util.Error(c, http.StatusNotFound, "counterparty not found")
			return
		}
		util.Error(c, http.StatusInternalServerError, "failed to compute balance")
		return
	}

	util.Success(c, util.Response{
		"balance":         balance,
		"balance_display": util.FormatAmount(balance),
	})
}
