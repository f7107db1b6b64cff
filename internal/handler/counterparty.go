package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dipandhali2021/jims-sub002/internal/cascade"
	"github.com/dipandhali2021/jims-sub002/internal/ledger"
	"github.com/dipandhali2021/jims-sub002/internal/metrics"
	"github.com/dipandhali2021/jims-sub002/internal/middleware"
	"github.com/dipandhali2021/jims-sub002/internal/models"
	"github.com/dipandhali2021/jims-sub002/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CounterpartyHandler serves vyapari/karigar records.
type CounterpartyHandler struct {
	DB *gorm.DB
}

func NewCounterpartyHandler(db *gorm.DB) *CounterpartyHandler {
	return &CounterpartyHandler{DB: db}
}

// kindFromParam validates the :kind route segment.
func kindFromParam(c *gin.Context) (string, bool) {
	kind := strings.ToLower(c.Param("kind"))
	if kind != models.KindVyapari && kind != models.KindKarigar {
		util.Error(c, http.StatusBadRequest, "kind must be vyapari or karigar")
		return "", false
	}
	return kind, true
}

// idFromParam parses a positive :id route segment.
func idFromParam(c *gin.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		util.Error(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

type counterpartyReq struct {
	Name      string `json:"name" binding:"required,max=128"`
	Phone     string `json:"phone" binding:"max=32"`
	Address   string `json:"address" binding:"max=255"`
	GSTNumber string `json:"gst_number" binding:"max=32"`
	Status    string `json:"status" binding:"omitempty,oneof=Active Inactive"`
}

func counterpartyResp(cp *models.Counterparty) gin.H {
	return gin.H{
		"id":             cp.ID,
		"kind":           cp.Kind,
		"name":           cp.Name,
		"phone":          cp.Phone,
		"address":        cp.Address,
		"gst_number":     cp.GSTNumber,
		"status":         cp.Status,
		"is_approved":    cp.IsApproved,
		"created_by_id":  cp.CreatedByID,
		"approved_by_id": cp.ApprovedByID,
		"created_at":     cp.CreatedAt,
	}
}

// List returns the counterparties of one kind the caller may see:
// approved ones for everyone, pending ones only for their creator and
// admins.
func (h *CounterpartyHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	kind, ok := kindFromParam(c)
	if !ok {
		return
	}

	q := h.DB.Where("kind = ?", kind)
	if !user.IsAdmin() {
		q = q.Where("is_approved = ? OR created_by_id = ?", true, user.ID)
	}

	var cps []models.Counterparty
	if err := q.Order("name ASC").Find(&cps).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to list counterparties")
		return
	}

	items := make([]gin.H, 0, len(cps))
	for i := range cps {
		items = append(items, counterpartyResp(&cps[i]))
	}
	util.Success(c, util.Response{"items": items, "total": len(items)})
}

// Create registers a counterparty. Admin-created entries skip the
// pending state.
func (h *CounterpartyHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	kind, ok := kindFromParam(c)
	if !ok {
		return
	}

	var req counterpartyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		util.Error(c, http.StatusBadRequest, "name is required")
		return
	}

	status := req.Status
	if status == "" {
		status = models.StatusActive
	}

	cp := models.Counterparty{
		Kind:        kind,
		Name:        req.Name,
		Phone:       req.Phone,
		Address:     req.Address,
		GSTNumber:   req.GSTNumber,
		Status:      status,
		CreatedByID: user.ID,
	}
	if user.IsAdmin() {
		cp.IsApproved = true
		adminID := user.ID
		cp.ApprovedByID = &adminID
	}

	if err := h.DB.Create(&cp).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to create counterparty")
		return
	}

	util.Success(c, util.Response{"counterparty": counterpartyResp(&cp)})
}

// load fetches a counterparty of the routed kind the caller may see.
// Hidden or missing rows both come back as ErrNotFound; the uniform
// 404 keeps pending entries invisible to unauthorized callers.
func (h *CounterpartyHandler) load(c *gin.Context, user *models.User) (*models.Counterparty, error) {
	kind, ok := kindFromParam(c)
	if !ok {
		return nil, errAborted
	}
	id, ok := idFromParam(c)
	if !ok {
		return nil, errAborted
	}

	var cp models.Counterparty
	if err := h.DB.Where("id = ? AND kind = ?", id, kind).First(&cp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrNotFound
		}
		return nil, err
	}
	if !ledger.CanView(&cp, user) {
		return nil, ledger.ErrNotFound
	}
	return &cp, nil
}

// errAborted signals the handler already wrote an error response.
var errAborted = errors.New("response already written")

func (h *CounterpartyHandler) respondLoadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errAborted):
	case errors.Is(err, ledger.ErrNotFound):
		util.Error(c, http.StatusNotFound, "counterparty not found")
	default:
		util.Error(c, http.StatusInternalServerError, "failed to load counterparty")
	}
}

func (h *CounterpartyHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	cp, err := h.load(c, user)
	if err != nil {
		h.respondLoadError(c, err)
		return
	}
	util.Success(c, util.Response{"counterparty": counterpartyResp(cp)})
}

// Update edits identity fields. Only the creator or an admin may edit.
func (h *CounterpartyHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	cp, err := h.load(c, user)
	if err != nil {
		h.respondLoadError(c, err)
		return
	}
	if cp.CreatedByID != user.ID && !user.IsAdmin() {
		util.Error(c, http.StatusForbidden, "only the creator or an admin can edit")
		return
	}

	var req counterpartyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		util.Error(c, http.StatusBadRequest, "name is required")
		return
	}

	cp.Name = req.Name
	cp.Phone = req.Phone
	cp.Address = req.Address
	cp.GSTNumber = req.GSTNumber
	if req.Status != "" {
		cp.Status = req.Status
	}

	if err := h.DB.Save(cp).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "failed to save counterparty")
		return
	}
	util.Success(c, util.Response{"counterparty": counterpartyResp(cp)})
}

type approveReq struct {
	Approve *bool `json:"approve" binding:"required"`
}

// Approve decides a pending counterparty: {approve: true} marks it
// approved, {approve: false} deletes it. Admin only (routed behind
// RequireAdmin).
func (h *CounterpartyHandler) Approve(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, "not logged in")
		return
	}
	if _, ok := kindFromParam(c); !ok {
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
		cp, err := ledger.ApproveCounterparty(h.DB, id, user.ID)
		if err != nil {
			respondApprovalError(c, err, "counterparty")
			return
		}
		metrics.ApprovalsTotal.WithLabelValues("counterparty", "approved").Inc()
		Notify(h.DB, cp.CreatedByID, "Counterparty approved", cp.Name)
		util.Success(c, util.Response{"counterparty": counterpartyResp(cp)})
		return
	}

	if err := ledger.RejectCounterparty(h.DB, id); err != nil {
		respondApprovalError(c, err, "counterparty")
		return
	}
	metrics.ApprovalsTotal.WithLabelValues("counterparty", "rejected").Inc()
	util.Success(c, util.Response{"message": "counterparty rejected and removed"})
}

// respondApprovalError maps ledger approval errors to HTTP statuses.
func respondApprovalError(c *gin.Context, err error, entity string) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		util.Error(c, http.StatusNotFound, entity+" not found")
	case errors.Is(err, ledger.ErrAlreadyApproved):
		util.Error(c, http.StatusConflict, entity+" already approved")
	default:
		util.Error(c, http.StatusInternalServerError, "failed to update "+entity)
	}
}

// ForceDelete erases the counterparty and all its transactions and
// payments. Admin only, irreversible.
func (h *CounterpartyHandler) ForceDelete(c *gin.Context) {
	if _, ok := kindFromParam(c); !ok {
		return
	}
	id, ok := idFromParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if err := cascade.ForceDeleteCounterparty(ctx, h.DB, id); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			util.Error(c, http.StatusNotFound, "counterparty not found")
			return
		}
		util.Error(c, http.StatusInternalServerError, "failed to delete counterparty")
		return
	}

	metrics.CascadeDeletesTotal.WithLabelValues("counterparty").Inc()
	util.Success(c, util.Response{"message": "counterparty and all its records deleted"})
}
